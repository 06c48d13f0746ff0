// ABOUTME: Message entity repository: conversation turns and reply threading
// ABOUTME: Bot replies reference their user message; sealed listing gates on password

package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"
)

var messageBase = base[Message]{
	info: entityInfo{
		table:    "messages",
		idPrefix: "msg",
		columns: []string{
			"id", "conversation_id", "parent_id", "who", "text", "created_at",
		},
	},
	scan: scanMessage,
}

func scanMessage(row rowScanner) (*Message, error) {
	var m Message
	var parentID sql.NullString
	var who, createdAt string

	err := row.Scan(&m.ID, &m.ConversationID, &parentID, &who, &m.Text, &createdAt)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		m.ParentID = &parentID.String
	}
	m.Who = Who(who)
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// scanMessageJoined scans a message row left-joined with its parent.
func scanMessageJoined(row rowScanner) (*Message, error) {
	var m Message
	var parentID sql.NullString
	var who, createdAt string
	var pID, pConvID, pParentID, pWho, pText, pCreatedAt sql.NullString

	err := row.Scan(
		&m.ID, &m.ConversationID, &parentID, &who, &m.Text, &createdAt,
		&pID, &pConvID, &pParentID, &pWho, &pText, &pCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		m.ParentID = &parentID.String
	}
	m.Who = Who(who)
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	if pID.Valid {
		parent := &Message{
			ID:             pID.String,
			ConversationID: pConvID.String,
			Who:            Who(pWho.String),
			Text:           pText.String,
		}
		if pParentID.Valid {
			parent.ParentID = &pParentID.String
		}
		if parent.CreatedAt, err = parseTime(pCreatedAt.String); err != nil {
			return nil, err
		}
		m.Parent = parent
	}
	return &m, nil
}

const messageJoinedSelect = `
	SELECT m.id, m.conversation_id, m.parent_id, m.who, m.text, m.created_at,
	       p.id, p.conversation_id, p.parent_id, p.who, p.text, p.created_at
	FROM messages m
	LEFT JOIN messages p ON p.id = m.parent_id`

// MessageRepo accesses messages. Acquire it from a UnitOfWork.
type MessageRepo struct {
	q      querier
	logger *slog.Logger
}

// CreateMessage inserts a visitor message with no parent.
func (r *MessageRepo) CreateMessage(ctx context.Context, conversationID, text string) (*Message, error) {
	return r.create(ctx, conversationID, nil, WhoUser, text)
}

// ReplyMessage inserts a bot message answering the given message, then
// re-reads it eagerly joined with its parent so the caller can access
// both without another round trip. This is the only path that produces
// bot messages.
func (r *MessageRepo) ReplyMessage(ctx context.Context, messageID, text string) (*Message, error) {
	parent, err := messageBase.selectOne(ctx, r.q, "id = ?", messageID)
	if err != nil {
		return nil, err
	}

	reply, err := r.create(ctx, parent.ConversationID, &parent.ID, WhoBot, text)
	if err != nil {
		return nil, err
	}

	return r.findJoined(ctx, "m.id = ?", reply.ID)
}

func (r *MessageRepo) create(ctx context.Context, conversationID string, parentID *string, who Who, text string) (*Message, error) {
	m := &Message{
		ID:             messageBase.info.newID(),
		ConversationID: conversationID,
		ParentID:       parentID,
		Who:            who,
		Text:           text,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}

	err := messageBase.insert(ctx, r.q,
		m.ID, m.ConversationID, m.ParentID, string(m.Who), m.Text, formatTime(m.CreatedAt),
	)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("created message", "id", m.ID, "conversation_id", conversationID, "who", who)
	return m, nil
}

// GetByParentID returns the reply to the given message, joined with
// its parent, or a DatabaseError wrapping ErrNotFound when no reply
// exists yet.
func (r *MessageRepo) GetByParentID(ctx context.Context, parentID string) (*Message, error) {
	return r.findJoined(ctx, "m.parent_id = ?", parentID)
}

func (r *MessageRepo) findJoined(ctx context.Context, where string, args ...any) (*Message, error) {
	m, err := scanMessageJoined(r.q.QueryRowContext(ctx, messageJoinedSelect+" WHERE "+where, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &DatabaseError{Op: "selecting messages", Err: ErrNotFound}
	}
	if err != nil {
		return nil, translateErr("selecting messages", err)
	}
	return m, nil
}

// GetByConversation returns all messages in the conversation in
// ascending creation order: the canonical transcript for dashboard
// viewing. Callers must have already verified ownership. Same-second
// ties break on insertion order.
func (r *MessageRepo) GetByConversation(ctx context.Context, conversationID string) ([]*Message, error) {
	return messageBase.selectAll(ctx, r.q,
		"WHERE conversation_id = ? ORDER BY created_at ASC, rowid ASC",
		conversationID)
}

// GetByConversationSealed is GetByConversation gated on the
// conversation's access password. A wrong password and a nonexistent
// conversation both return an empty list, never an error, so the
// caller cannot tell which case occurred.
func (r *MessageRepo) GetByConversationSealed(ctx context.Context, conversationID, password string) ([]*Message, error) {
	query := "SELECT " + messageBase.aliasedColumnList("m") + `
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.conversation_id = ? AND c.password = ?
		ORDER BY m.created_at ASC, m.rowid ASC`

	rows, err := r.q.QueryContext(ctx, query, conversationID, password)
	if err != nil {
		return nil, translateErr("querying sealed messages", err)
	}
	defer func() { _ = rows.Close() }()

	messages := []*Message{}
	for rows.Next() {
		m, err := messageBase.scan(rows)
		if err != nil {
			return nil, translateErr("scanning message row", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr("iterating message rows", err)
	}
	return messages, nil
}

// Delete removes a message. Replies that referenced it keep existing
// with their parent reference cleared by the storage layer.
func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	affected, err := messageBase.delete(ctx, r.q, "id = ?", id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &DatabaseError{Op: "deleting messages", Err: ErrNotFound}
	}

	r.logger.Debug("deleted message", "id", id)
	return nil
}

// Count returns the total number of messages. Diagnostic only.
func (r *MessageRepo) Count(ctx context.Context) (int64, error) {
	return messageBase.count(ctx, r.q)
}
