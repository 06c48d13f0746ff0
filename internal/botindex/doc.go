// Package botindex is the HTTP client for the external answering
// engine that backs every stack's FAQ bot.
//
// # Index model
//
// Each stack owns one index on the engine, named by the stack ID.
// Learned cards become documents in that index; visitor questions are
// answered from it.
//
// # Endpoints
//
// All paths are relative to the configured engine URL:
//
//	POST /i/{index}/documents            index a document, returns {"id": ...}
//	GET  /i/{index}/documents/{id}       fetch a document
//	GET  /i/{index}/documents/{id}/delete remove a document
//	POST /i/{index}/documents/ask        answer a question
//	POST /i/{index}/scan                 crawl a URL into candidate documents
//	POST /i/{index}/upload               split an uploaded file into candidates
//
// Scan and Upload return candidate documents without indexing them;
// the caller decides which become cards and when they are learned.
//
// # Durability
//
// The engine keeps no authoritative state: the local database is the
// source of truth, and a card can always be re-learned to recreate its
// document. Callers therefore treat engine errors as transient and do
// not attempt compensation beyond surfacing the error.
package botindex
