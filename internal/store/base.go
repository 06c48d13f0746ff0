// ABOUTME: Generic repository base with transaction-scoped CRUD primitives
// ABOUTME: Shared by all entity repositories; knows no business rules

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// querier is satisfied by *sql.DB and *sql.Tx. Repositories always run
// against the querier of the unit of work that owns them.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// entityInfo is the explicit per-entity configuration the base needs.
// Table name and ID prefix are literals, never derived at runtime.
type entityInfo struct {
	table    string
	idPrefix string
	columns  []string // order must match the entity's scan function
}

// newID generates an opaque identifier with the entity's prefix.
func (e entityInfo) newID() string {
	return e.idPrefix + "_" + opaqueToken()
}

// opaqueToken returns a 32-char random hex token.
func opaqueToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// base provides CRUD primitives over one entity type. Every method
// takes the querier of the caller's unit of work, so all statements
// issued through one unit of work observe each other.
type base[T any] struct {
	info entityInfo
	scan func(rowScanner) (*T, error)
}

func (b *base[T]) columnList() string {
	return strings.Join(b.info.columns, ", ")
}

// aliasedColumnList returns the column list prefixed with a table
// alias, for queries that join other tables.
func (b *base[T]) aliasedColumnList(alias string) string {
	cols := make([]string, len(b.info.columns))
	for i, c := range b.info.columns {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// insert executes an insert with one value per configured column.
func (b *base[T]) insert(ctx context.Context, q querier, values ...any) error {
	if len(values) != len(b.info.columns) {
		return fmt.Errorf("inserting %s: got %d values for %d columns",
			b.info.table, len(values), len(b.info.columns))
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	query := "INSERT INTO " + b.info.table + " (" + b.columnList() + ") VALUES (" + placeholders + ")"

	if _, err := q.ExecContext(ctx, query, values...); err != nil {
		return translateErr("inserting "+b.info.table, err)
	}
	return nil
}

// selectOne returns the single row matching the predicate, or a
// DatabaseError wrapping ErrNotFound.
func (b *base[T]) selectOne(ctx context.Context, q querier, where string, args ...any) (*T, error) {
	query := "SELECT " + b.columnList() + " FROM " + b.info.table + " WHERE " + where

	entity, err := b.scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &DatabaseError{Op: "selecting " + b.info.table, Err: ErrNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("selecting %s: %w", b.info.table, err)
	}
	return entity, nil
}

// selectAll returns all rows matching the given suffix (WHERE and
// ORDER BY clauses, or empty for everything), unordered unless the
// suffix orders them.
func (b *base[T]) selectAll(ctx context.Context, q querier, suffix string, args ...any) ([]*T, error) {
	query := strings.TrimSpace("SELECT " + b.columnList() + " FROM " + b.info.table + " " + suffix)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", b.info.table, err)
	}
	defer func() { _ = rows.Close() }()

	var entities []*T
	for rows.Next() {
		entity, err := b.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", b.info.table, err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", b.info.table, err)
	}
	return entities, nil
}

// update executes a conditional update and returns the affected row
// count. Assignments are "column = ?" fragments; their args come
// before the predicate args.
func (b *base[T]) update(ctx context.Context, q querier, assigns []string, where string, args ...any) (int64, error) {
	query := "UPDATE " + b.info.table + " SET " + strings.Join(assigns, ", ") + " WHERE " + where

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translateErr("updating "+b.info.table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("updating %s: rows affected: %w", b.info.table, err)
	}
	return affected, nil
}

// delete executes a conditional delete and returns the deleted row
// count, for existence checks by the caller.
func (b *base[T]) delete(ctx context.Context, q querier, where string, args ...any) (int64, error) {
	query := "DELETE FROM " + b.info.table + " WHERE " + where

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translateErr("deleting "+b.info.table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting %s: rows affected: %w", b.info.table, err)
	}
	return affected, nil
}

// exists reports whether any row matches the predicate. Used for
// access-control guards.
func (b *base[T]) exists(ctx context.Context, q querier, where string, args ...any) (bool, error) {
	query := "SELECT EXISTS (SELECT 1 FROM " + b.info.table + " WHERE " + where + ")"

	var found bool
	if err := q.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("checking %s existence: %w", b.info.table, err)
	}
	return found, nil
}

// count returns the unscoped row count for the entity. Diagnostic
// only; never used for business rules.
func (b *base[T]) count(ctx context.Context, q querier) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+b.info.table).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", b.info.table, err)
	}
	return n, nil
}

// translateErr classifies a driver error. Every constraint violation
// surfaces uniformly as a DatabaseError regardless of which constraint
// fired; anything else is wrapped as-is.
func translateErr(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "CHECK constraint failed") ||
		strings.Contains(msg, "NOT NULL constraint failed") {
		return &DatabaseError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// formatTime renders a timestamp for storage. All timestamps are
// stored as RFC3339 UTC text.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime reads a stored timestamp.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
