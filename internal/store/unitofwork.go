// ABOUTME: Scoped unit of work binding all repositories to one transaction
// ABOUTME: Nested acquisition reuses the outer scope; commit is explicit

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// UnitOfWork scopes a logical operation to one transaction. All five
// repositories are bound to the same transaction, so statements issued
// through one unit of work observe each other. The caller commits once
// all desired mutations have been issued; deferring Rollback releases
// the transaction on every exit path (Rollback after Commit is a
// no-op).
type UnitOfWork struct {
	q      querier
	tx     *sql.Tx // nil for nested scopes
	logger *slog.Logger
	done   bool

	Users         *UserRepo
	Stacks        *StackRepo
	Conversations *ConversationRepo
	Messages      *MessageRepo
	Cards         *CardRepo
}

// Begin opens a new unit of work against the pool.
func (s *SQLiteStore) Begin(ctx context.Context) (*UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return newUnitOfWork(tx, tx, s.logger), nil
}

// Begin returns a nested scope sharing this unit of work's
// transaction. Commit and Rollback on the nested scope are no-ops;
// the outermost scope decides the transaction's fate. This lets
// helpers that acquire their own scope compose into a caller's.
func (u *UnitOfWork) Begin(ctx context.Context) (*UnitOfWork, error) {
	return newUnitOfWork(u.q, nil, u.logger), nil
}

func newUnitOfWork(q querier, tx *sql.Tx, logger *slog.Logger) *UnitOfWork {
	u := &UnitOfWork{q: q, tx: tx, logger: logger}
	u.Users = &UserRepo{q: q, logger: logger}
	u.Stacks = &StackRepo{q: q, logger: logger}
	u.Conversations = &ConversationRepo{q: q, logger: logger}
	u.Messages = &MessageRepo{q: q, logger: logger}
	u.Cards = &CardRepo{q: q, logger: logger}
	return u
}

// Commit commits the transaction. No-op on nested scopes.
func (u *UnitOfWork) Commit() error {
	if u.tx == nil || u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Rollback discards the transaction unless it was already committed.
// No-op on nested scopes, safe to defer unconditionally.
func (u *UnitOfWork) Rollback() error {
	if u.tx == nil || u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}
