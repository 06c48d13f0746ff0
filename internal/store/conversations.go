// ABOUTME: Conversation entity repository: password-sealed chat sessions
// ABOUTME: Password is generated at creation and immutable thereafter

package store

import (
	"context"
	"log/slog"
	"time"
)

var conversationBase = base[Conversation]{
	info: entityInfo{
		table:    "conversations",
		idPrefix: "conv",
		columns:  []string{"id", "stack_id", "password", "created_at"},
	},
	scan: scanConversation,
}

func scanConversation(row rowScanner) (*Conversation, error) {
	var c Conversation
	var createdAt string

	err := row.Scan(&c.ID, &c.StackID, &c.Password, &createdAt)
	if err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ConversationRepo accesses conversations. Acquire it from a
// UnitOfWork.
type ConversationRepo struct {
	q      querier
	logger *slog.Logger
}

// Create inserts a new conversation with a freshly generated access
// password. A stackID that references no existing stack surfaces as a
// DatabaseError (foreign-key violation).
func (r *ConversationRepo) Create(ctx context.Context, stackID string) (*Conversation, error) {
	c := &Conversation{
		ID:        conversationBase.info.newID(),
		StackID:   stackID,
		Password:  opaqueToken(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	err := conversationBase.insert(ctx, r.q, c.ID, c.StackID, c.Password, formatTime(c.CreatedAt))
	if err != nil {
		return nil, err
	}

	r.logger.Debug("created conversation", "id", c.ID, "stack_id", stackID)
	return c, nil
}

// IsAccessibleByUser reports whether the conversation exists and its
// stack belongs to userID.
func (r *ConversationRepo) IsAccessibleByUser(ctx context.Context, conversationID, userID string) (bool, error) {
	var found bool
	err := r.q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM conversations c
			JOIN stacks s ON s.id = c.stack_id
			WHERE c.id = ? AND s.user_id = ?
		)`, conversationID, userID).Scan(&found)
	if err != nil {
		return false, translateErr("checking conversation access", err)
	}
	return found, nil
}

// GetByID returns the conversation or a DatabaseError wrapping
// ErrNotFound.
func (r *ConversationRepo) GetByID(ctx context.Context, id string) (*Conversation, error) {
	return conversationBase.selectOne(ctx, r.q, "id = ?", id)
}

// GetByUserID returns every conversation across all of the user's
// stacks, newest first. Same-second creation ties break on insertion
// order.
func (r *ConversationRepo) GetByUserID(ctx context.Context, userID string) ([]*Conversation, error) {
	query := "SELECT " + conversationBase.aliasedColumnList("c") + `
		FROM conversations c
		JOIN stacks s ON s.id = c.stack_id
		WHERE s.user_id = ?
		ORDER BY c.created_at DESC, c.rowid DESC`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, translateErr("querying user conversations", err)
	}
	defer func() { _ = rows.Close() }()

	var conversations []*Conversation
	for rows.Next() {
		c, err := conversationBase.scan(rows)
		if err != nil {
			return nil, translateErr("scanning conversation row", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr("iterating conversation rows", err)
	}
	return conversations, nil
}

// Delete removes the conversation and its messages in this unit of
// work (the message foreign key carries no cascade). Fails with a
// DatabaseError when the row does not exist.
func (r *ConversationRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id = ?", id); err != nil {
		return translateErr("deleting conversation messages", err)
	}

	affected, err := conversationBase.delete(ctx, r.q, "id = ?", id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &DatabaseError{Op: "deleting conversations", Err: ErrNotFound}
	}

	r.logger.Debug("deleted conversation", "id", id)
	return nil
}

// Count returns the total number of conversations. Diagnostic only.
func (r *ConversationRepo) Count(ctx context.Context) (int64, error) {
	return conversationBase.count(ctx, r.q)
}
