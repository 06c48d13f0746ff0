// ABOUTME: Entity types and error taxonomy for faqmy-server persistence
// ABOUTME: Defines User, Stack, Conversation, Message, Card and DatabaseError

package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned (wrapped in a DatabaseError) when a row that
// was expected to exist does not. Rows that exist but belong to another
// owner surface the same way, so callers cannot distinguish the two.
var ErrNotFound = errors.New("not found")

// DatabaseError wraps any storage-level failure: a constraint violation
// (unique, foreign key, check) or an expected-row miss. The original
// driver error is always carried for diagnostics.
type DatabaseError struct {
	Op  string // operation description, e.g. "inserting stacks"
	Err error
}

func (e *DatabaseError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a not-found condition, including
// one wrapped inside a DatabaseError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Who identifies the author of a message.
type Who string

// Message authors.
const (
	WhoUser Who = "user"
	WhoBot  Who = "bot"
)

// Stack defaults applied at creation when the caller omits the field.
const (
	DefaultWidgetDelay = 3
	DefaultColor       = "#000000"
)

// User is an account that owns stacks. Deleting a user removes all of
// its stacks and everything under them.
type User struct {
	ID             string
	Email          string
	HashedPassword string
	IsActive       bool
	IsSuperuser    bool
	IsVerified     bool
	Name           *string
	Phone          *string
	CreatedAt      time.Time
}

// Stack is one tenant's configured knowledge base / bot instance.
type Stack struct {
	ID              string
	UserID          string
	Name            *string
	Description     *string
	SpecialOffer    *string
	InitialQuestion *string
	WidgetDelay     int
	Color           string
	LastModifiedAt  time.Time
	CreatedAt       time.Time
}

// Conversation is a password-sealed chat session tied to one stack.
// The password is generated at creation and never changes; it is the
// sole access gate for unauthenticated message listing.
type Conversation struct {
	ID        string
	StackID   string
	Password  string
	CreatedAt time.Time
}

// Message is one turn in a conversation. Bot replies reference the
// user message they answer via ParentID; deleting the parent clears
// the reference rather than deleting the reply.
type Message struct {
	ID             string
	ConversationID string
	ParentID       *string
	Who            Who
	Text           string
	CreatedAt      time.Time

	// Parent is populated by queries that join the parent message
	// (ReplyMessage, GetByParentID). Nil otherwise.
	Parent *Message
}

// Card is one question/answer fact. Learned cards carry the id of the
// document pushed into the external index; ESDocID is non-nil only
// while Learned is true.
type Card struct {
	ID        string
	StackID   string
	Question  string
	Answer    string
	Learned   bool
	ESDocID   *string
	CreatedAt time.Time
}
