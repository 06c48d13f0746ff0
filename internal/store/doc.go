// Package store provides persistent storage for faqmy-server using SQLite.
//
// # Architecture
//
// All access goes through a UnitOfWork acquired from SQLiteStore.Begin.
// A unit of work binds the five entity repositories (UserRepo,
// StackRepo, ConversationRepo, MessageRepo, CardRepo) to one
// transaction; the caller commits once all mutations for a logical
// operation have been issued, and a deferred Rollback releases the
// transaction on every exit path. Nested Begin calls reuse the outer
// scope, so helpers compose into their caller's transaction.
//
// Repositories share a generic base of CRUD primitives (insert,
// update, delete, selectOne, selectAll, exists, count). The base knows
// table names, column lists and ID prefixes as explicit per-entity
// literals and carries no business rules.
//
// # Data model
//
//   - User: account owning stacks (email unique, bcrypt credential,
//     active/superuser/verified flags)
//   - Stack: one tenant's knowledge base (widget settings, cascade
//     root for conversations and cards)
//   - Conversation: password-sealed chat session; the password is
//     generated at creation and immutable
//   - Message: one conversation turn (who = user|bot), optionally
//     threaded via a parent reference that clears when the parent is
//     deleted
//   - Card: question/answer fact; learned cards carry the external
//     index document id (es_doc_id), which is non-nil only while
//     learned is true
//
// # Error handling
//
// Constraint violations and expected-row misses surface uniformly as
// *DatabaseError; not-found conditions wrap ErrNotFound and can be
// detected with IsNotFound. Rows owned by another user read as not
// found, never as forbidden.
//
// # SQLite configuration
//
// WAL mode with foreign keys enabled. Both pragmas ride in the DSN so
// every pooled connection gets them; foreign_keys in particular is
// connection-scoped and the cascades depend on it. Tests open a store
// against a file in t.TempDir (an in-memory path would give each
// pooled connection its own empty database).
package store
