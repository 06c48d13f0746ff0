// Package api exposes the HTTP surface of faqmy-server.
//
// # Surfaces
//
// Three route groups hang off one chi router:
//
//   - /v1/dashboard/... — the stack owner's API. Requires a JWT bearer
//     token. Every entity read or mutated is checked for ownership
//     first; entities owned by someone else answer 404, never 403, so
//     identifiers cannot be probed.
//
//   - /v1/client/... — the embeddable widget's API. Unauthenticated;
//     access control lives in the storage layer (stack IDs as
//     capabilities, conversation passwords for transcript reads).
//
//   - /healthz — liveness, pings the database.
//
// # Transactions
//
// Each handler opens one unit of work, defers Rollback, and commits
// only after every local mutation and index call succeeded. Calls to
// the answering engine happen before the commit: if the engine fails,
// the local database is left unchanged.
//
// # Background replies
//
// POST /v1/client/messages stores the visitor's message, returns
// immediately, and generates the bot reply in a goroutine: the engine
// answers the question, the reply is threaded under the visitor
// message, and the exchange is saved as an unlearned card for the
// owner to review. WaitForReplies drains in-flight replies during
// shutdown.
package api
