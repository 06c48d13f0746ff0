// ABOUTME: Stack entity repository: per-tenant knowledge bases
// ABOUTME: Ownership checks, diff-only partial updates, cascade-aware delete

package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"
)

var stackBase = base[Stack]{
	info: entityInfo{
		table:    "stacks",
		idPrefix: "st",
		columns: []string{
			"id", "user_id", "name", "description", "special_offer",
			"initial_question", "widget_delay", "color", "last_modified_at",
			"created_at",
		},
	},
	scan: scanStack,
}

func scanStack(row rowScanner) (*Stack, error) {
	var st Stack
	var name, description, specialOffer, initialQuestion sql.NullString
	var lastModifiedAt, createdAt string

	err := row.Scan(
		&st.ID,
		&st.UserID,
		&name,
		&description,
		&specialOffer,
		&initialQuestion,
		&st.WidgetDelay,
		&st.Color,
		&lastModifiedAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if name.Valid {
		st.Name = &name.String
	}
	if description.Valid {
		st.Description = &description.String
	}
	if specialOffer.Valid {
		st.SpecialOffer = &specialOffer.String
	}
	if initialQuestion.Valid {
		st.InitialQuestion = &initialQuestion.String
	}
	if st.LastModifiedAt, err = parseTime(lastModifiedAt); err != nil {
		return nil, err
	}
	if st.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &st, nil
}

// StackRepo accesses stacks. Acquire it from a UnitOfWork.
type StackRepo struct {
	q      querier
	logger *slog.Logger
}

// StackParams describes a stack at creation. Absent WidgetDelay and
// Color take the defaults; an explicit WidgetDelay of 0 is persisted
// as 0, distinct from absence.
type StackParams struct {
	Name            *string
	Description     *string
	SpecialOffer    *string
	InitialQuestion *string
	WidgetDelay     Optional[int]
	Color           Optional[string]
}

// StackPatch is a partial update. Absent fields are left untouched;
// a supplied nil clears a nullable column.
type StackPatch struct {
	Name            Optional[*string]
	Description     Optional[*string]
	SpecialOffer    Optional[*string]
	InitialQuestion Optional[*string]
	WidgetDelay     Optional[int]
	Color           Optional[string]
}

// Create inserts a new stack owned by userID.
func (r *StackRepo) Create(ctx context.Context, userID string, p StackParams) (*Stack, error) {
	now := time.Now().UTC().Truncate(time.Second)
	st := &Stack{
		ID:              stackBase.info.newID(),
		UserID:          userID,
		Name:            p.Name,
		Description:     p.Description,
		SpecialOffer:    p.SpecialOffer,
		InitialQuestion: p.InitialQuestion,
		WidgetDelay:     DefaultWidgetDelay,
		Color:           DefaultColor,
		LastModifiedAt:  now,
		CreatedAt:       now,
	}
	if v, ok := p.WidgetDelay.Get(); ok {
		st.WidgetDelay = v
	}
	if v, ok := p.Color.Get(); ok {
		st.Color = v
	}

	err := stackBase.insert(ctx, r.q,
		st.ID, st.UserID, st.Name, st.Description, st.SpecialOffer,
		st.InitialQuestion, st.WidgetDelay, st.Color,
		formatTime(st.LastModifiedAt), formatTime(st.CreatedAt),
	)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("created stack", "id", st.ID, "user_id", userID)
	return st, nil
}

// IsAccessibleByUser reports whether a stack with that id exists and
// belongs to userID. Every dashboard-side stack mutation goes through
// this predicate.
func (r *StackRepo) IsAccessibleByUser(ctx context.Context, stackID, userID string) (bool, error) {
	return stackBase.exists(ctx, r.q, "id = ? AND user_id = ?", stackID, userID)
}

// GetByID returns the stack or a DatabaseError wrapping ErrNotFound.
func (r *StackRepo) GetByID(ctx context.Context, id string) (*Stack, error) {
	return stackBase.selectOne(ctx, r.q, "id = ?", id)
}

// GetByIDForUser is GetByID with the ownership filter folded into the
// same query: a stack owned by someone else reads as not found.
func (r *StackRepo) GetByIDForUser(ctx context.Context, id, userID string) (*Stack, error) {
	return stackBase.selectOne(ctx, r.q, "id = ? AND user_id = ?", id, userID)
}

// GetByUserID returns all stacks owned by userID.
func (r *StackRepo) GetByUserID(ctx context.Context, userID string) ([]*Stack, error) {
	return stackBase.selectAll(ctx, r.q, "WHERE user_id = ?", userID)
}

// GetByMessageID resolves the stack a message belongs to by walking
// message -> conversation -> stack. Used to pick the bot index that
// should answer a message.
func (r *StackRepo) GetByMessageID(ctx context.Context, messageID string) (*Stack, error) {
	query := "SELECT " + stackBase.aliasedColumnList("s") + `
		FROM stacks s
		JOIN conversations c ON c.stack_id = s.id
		JOIN messages m ON m.conversation_id = c.id
		WHERE m.id = ?`

	st, err := stackBase.scan(r.q.QueryRowContext(ctx, query, messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &DatabaseError{Op: "selecting stack by message", Err: ErrNotFound}
	}
	if err != nil {
		return nil, translateErr("selecting stack by message", err)
	}
	return st, nil
}

// Update applies the patch, writing only fields that actually differ
// from the current row, and touches last_modified_at only when
// something changed. A patch that changes nothing is a silent no-op.
func (r *StackRepo) Update(ctx context.Context, stackID string, p StackPatch) error {
	current, err := r.GetByID(ctx, stackID)
	if err != nil {
		return err
	}

	var assigns []string
	var args []any

	if v, ok := p.Name.Get(); ok && !equalPtr(current.Name, v) {
		assigns = append(assigns, "name = ?")
		args = append(args, v)
	}
	if v, ok := p.Description.Get(); ok && !equalPtr(current.Description, v) {
		assigns = append(assigns, "description = ?")
		args = append(args, v)
	}
	if v, ok := p.SpecialOffer.Get(); ok && !equalPtr(current.SpecialOffer, v) {
		assigns = append(assigns, "special_offer = ?")
		args = append(args, v)
	}
	if v, ok := p.InitialQuestion.Get(); ok && !equalPtr(current.InitialQuestion, v) {
		assigns = append(assigns, "initial_question = ?")
		args = append(args, v)
	}
	if v, ok := p.WidgetDelay.Get(); ok && v != current.WidgetDelay {
		assigns = append(assigns, "widget_delay = ?")
		args = append(args, v)
	}
	if v, ok := p.Color.Get(); ok && v != current.Color {
		assigns = append(assigns, "color = ?")
		args = append(args, v)
	}

	if len(assigns) == 0 {
		return nil
	}

	assigns = append(assigns, "last_modified_at = ?")
	args = append(args, formatTime(time.Now()), stackID)

	if _, err := stackBase.update(ctx, r.q, assigns, "id = ?", args...); err != nil {
		return err
	}

	r.logger.Debug("updated stack", "id", stackID, "fields", len(assigns)-1)
	return nil
}

// Delete removes the stack. Conversations and cards cascade at the
// storage layer; messages carry no cascade and are removed here first.
func (r *StackRepo) Delete(ctx context.Context, stackID string) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM messages WHERE conversation_id IN (
			SELECT id FROM conversations WHERE stack_id = ?
		)`, stackID)
	if err != nil {
		return translateErr("deleting stack messages", err)
	}

	affected, err := stackBase.delete(ctx, r.q, "id = ?", stackID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &DatabaseError{Op: "deleting stacks", Err: ErrNotFound}
	}

	r.logger.Debug("deleted stack", "id", stackID)
	return nil
}

// Count returns the total number of stacks. Diagnostic only.
func (r *StackRepo) Count(ctx context.Context) (int64, error) {
	return stackBase.count(ctx, r.q)
}
