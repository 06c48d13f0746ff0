// ABOUTME: HTTP server wiring for the dashboard and widget APIs
// ABOUTME: Builds the chi router and owns the store, bot client, and auth

package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/faqmy/faqmy-server/internal/auth"
	"github.com/faqmy/faqmy-server/internal/botindex"
	"github.com/faqmy/faqmy-server/internal/store"
)

// BotIndex is the slice of the answering engine client the handlers
// use. Satisfied by *botindex.Client.
type BotIndex interface {
	CreateDocument(ctx context.Context, index, name, content string) (string, error)
	DeleteDocument(ctx context.Context, index, docID string) error
	Ask(ctx context.Context, index, question string) (string, error)
	Scan(ctx context.Context, index, url string) ([]botindex.Document, error)
	Upload(ctx context.Context, index, filename, contentType string, file io.Reader) ([]botindex.Document, error)
}

// Server holds the dependencies shared by all HTTP handlers.
type Server struct {
	store         *store.SQLiteStore
	bot           BotIndex
	verifier      *auth.JWTVerifier
	tokenLifetime time.Duration
	logger        *slog.Logger

	// replies tracks in-flight background bot replies so shutdown and
	// tests can wait for them.
	replies sync.WaitGroup
}

// NewServer creates the API server. The verifier signs dashboard
// tokens; tokenLifetime bounds their validity.
func NewServer(s *store.SQLiteStore, bot BotIndex, verifier *auth.JWTVerifier, tokenLifetime time.Duration, logger *slog.Logger) *Server {
	return &Server{
		store:         s,
		bot:           bot,
		verifier:      verifier,
		tokenLifetime: tokenLifetime,
		logger:        logger.With("component", "api"),
	}
}

// GetUser implements auth.UserStore for the JWT middleware.
func (s *Server) GetUser(ctx context.Context, id string) (*store.User, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uow.Rollback() }()

	return uow.Users.GetByID(ctx, id)
}

// Router builds the HTTP routing table.
//
// Dashboard routes require a bearer token; client routes are public
// and rely on storage-level access control (ownership predicates and
// conversation passwords).
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/jwt/login", s.handleLogin)

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(auth.HTTPAuthMiddleware(s, s.verifier))

			r.Get("/me", s.handleMe)
			r.Patch("/me", s.handleUpdateMe)

			r.Get("/stacks", s.handleStackList)
			r.Post("/stacks", s.handleStackCreate)
			r.Get("/stacks/{id}", s.handleStackDetail)
			r.Patch("/stacks/{id}", s.handleStackUpdate)
			r.Delete("/stacks/{id}", s.handleStackDelete)

			r.Get("/cards", s.handleCardList)
			r.Post("/cards", s.handleCardCreate)
			r.Post("/cards/_url", s.handleCardsFromURL)
			r.Post("/cards/_upload", s.handleCardsFromUpload)
			r.Get("/cards/{id}", s.handleCardDetail)
			r.Patch("/cards/{id}", s.handleCardUpdate)
			r.Delete("/cards/{id}", s.handleCardDelete)
			r.Post("/cards/{id}/learn", s.handleCardLearn)

			r.Get("/conversations", s.handleConversationList)
			r.Get("/conversations/{id}", s.handleConversationDetail)
			r.Delete("/conversations/{id}", s.handleConversationDelete)

			r.Get("/messages", s.handleDashboardMessages)
		})

		r.Route("/client", func(r chi.Router) {
			r.Get("/stacks/{id}", s.handlePublicStackDetail)
			r.Post("/conversations", s.handleConversationCreate)
			r.Get("/messages", s.handleSealedMessages)
			r.Post("/messages", s.handleMessageCreate)
		})
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
