// ABOUTME: Card entity repository: question/answer facts and the learned state
// ABOUTME: MarkLearned is the sole writer of es_doc_id; unlearning clears it

package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

var cardBase = base[Card]{
	info: entityInfo{
		table:    "cards",
		idPrefix: "card",
		columns: []string{
			"id", "stack_id", "question", "answer", "learned", "es_doc_id",
			"created_at",
		},
	},
	scan: scanCard,
}

func scanCard(row rowScanner) (*Card, error) {
	var c Card
	var learned int
	var esDocID sql.NullString
	var createdAt string

	err := row.Scan(&c.ID, &c.StackID, &c.Question, &c.Answer, &learned, &esDocID, &createdAt)
	if err != nil {
		return nil, err
	}

	c.Learned = learned == 1
	if esDocID.Valid {
		c.ESDocID = &esDocID.String
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CardRepo accesses cards. Acquire it from a UnitOfWork.
type CardRepo struct {
	q      querier
	logger *slog.Logger
}

// CardPatch is a partial update. Absent fields are left untouched.
// Setting Learned to false is a single state transition that also
// clears the stored index document id.
type CardPatch struct {
	Question Optional[string]
	Answer   Optional[string]
	Learned  Optional[bool]
	ESDocID  Optional[*string]
}

// Create inserts a new unlearned card.
func (r *CardRepo) Create(ctx context.Context, stackID, question, answer string) (*Card, error) {
	c := &Card{
		ID:        cardBase.info.newID(),
		StackID:   stackID,
		Question:  question,
		Answer:    answer,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	err := cardBase.insert(ctx, r.q,
		c.ID, c.StackID, c.Question, c.Answer, 0, nil, formatTime(c.CreatedAt),
	)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("created card", "id", c.ID, "stack_id", stackID)
	return c, nil
}

// IsAccessibleByUser reports whether the card exists and its stack
// belongs to userID.
func (r *CardRepo) IsAccessibleByUser(ctx context.Context, cardID, userID string) (bool, error) {
	var found bool
	err := r.q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM cards c
			JOIN stacks s ON s.id = c.stack_id
			WHERE c.id = ? AND s.user_id = ?
		)`, cardID, userID).Scan(&found)
	if err != nil {
		return false, translateErr("checking card access", err)
	}
	return found, nil
}

// GetByID returns the card or a DatabaseError wrapping ErrNotFound.
func (r *CardRepo) GetByID(ctx context.Context, id string) (*Card, error) {
	return cardBase.selectOne(ctx, r.q, "id = ?", id)
}

// GetByStackID returns the stack's cards, optionally filtered by the
// learned flag.
func (r *CardRepo) GetByStackID(ctx context.Context, stackID string, learned *bool) ([]*Card, error) {
	if learned == nil {
		return cardBase.selectAll(ctx, r.q, "WHERE stack_id = ?", stackID)
	}
	return cardBase.selectAll(ctx, r.q, "WHERE stack_id = ? AND learned = ?",
		stackID, boolInt(*learned))
}

// MarkLearned flips the card into the learned state. When esDocID is
// supplied the stored index document id is replaced; this method is
// the only writer of es_doc_id.
func (r *CardRepo) MarkLearned(ctx context.Context, cardID string, esDocID *string) error {
	assigns := []string{"learned = 1"}
	var args []any
	if esDocID != nil {
		assigns = append(assigns, "es_doc_id = ?")
		args = append(args, *esDocID)
	}
	args = append(args, cardID)

	affected, err := cardBase.update(ctx, r.q, assigns, "id = ?", args...)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &DatabaseError{Op: "updating cards", Err: ErrNotFound}
	}

	r.logger.Debug("marked card learned", "id", cardID)
	return nil
}

// Update applies the patch, writing only fields that actually differ
// from the current row. A patch that changes nothing is a silent
// no-op. Unlearning clears es_doc_id in the same statement so the
// learned/es_doc_id pairing never desynchronizes.
func (r *CardRepo) Update(ctx context.Context, cardID string, p CardPatch) error {
	current, err := r.GetByID(ctx, cardID)
	if err != nil {
		return err
	}

	var assigns []string
	var args []any

	if v, ok := p.Question.Get(); ok && v != current.Question {
		assigns = append(assigns, "question = ?")
		args = append(args, v)
	}
	if v, ok := p.Answer.Get(); ok && v != current.Answer {
		assigns = append(assigns, "answer = ?")
		args = append(args, v)
	}
	clearDocID := false
	if v, ok := p.Learned.Get(); ok && v != current.Learned {
		assigns = append(assigns, "learned = ?")
		args = append(args, boolInt(v))
		if !v {
			clearDocID = true
		}
	}
	if v, ok := p.ESDocID.Get(); ok && !clearDocID && !equalPtr(current.ESDocID, v) {
		assigns = append(assigns, "es_doc_id = ?")
		args = append(args, v)
	}
	if clearDocID && current.ESDocID != nil {
		assigns = append(assigns, "es_doc_id = NULL")
	}

	if len(assigns) == 0 {
		return nil
	}

	args = append(args, cardID)
	if _, err := cardBase.update(ctx, r.q, assigns, "id = ?", args...); err != nil {
		return err
	}

	r.logger.Debug("updated card", "id", cardID, "fields", len(assigns))
	return nil
}

// Delete removes the card row. Removing the corresponding document
// from the external index is the caller's responsibility; the
// repository has no knowledge of the index.
func (r *CardRepo) Delete(ctx context.Context, cardID string) error {
	affected, err := cardBase.delete(ctx, r.q, "id = ?", cardID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &DatabaseError{Op: "deleting cards", Err: ErrNotFound}
	}

	r.logger.Debug("deleted card", "id", cardID)
	return nil
}

// Count returns the total number of cards. Diagnostic only.
func (r *CardRepo) Count(ctx context.Context) (int64, error) {
	return cardBase.count(ctx, r.q)
}
