// ABOUTME: Dashboard conversation endpoints: list, detail, delete, transcripts
// ABOUTME: Owners read full transcripts without the conversation password

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/faqmy/faqmy-server/internal/auth"
)

func (s *Server) handleConversationList(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	conversations, err := uow.Conversations.GetByUserID(r.Context(), authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}

	views := make([]conversationDashboardView, 0, len(conversations))
	for _, c := range conversations {
		st, err := uow.Stacks.GetByID(r.Context(), c.StackID)
		if err != nil {
			s.respondStoreError(w, err, "")
			return
		}
		views = append(views, conversationDashboardView{
			ID:        c.ID,
			Stack:     viewStack(st),
			CreatedAt: c.CreatedAt,
		})
	}
	s.respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleConversationDetail(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())
	convID := chi.URLParam(r, "id")

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	ok, err := uow.Conversations.IsAccessibleByUser(r.Context(), convID, authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "conversation not found")
		return
	}

	conv, err := uow.Conversations.GetByID(r.Context(), convID)
	if err != nil {
		s.respondStoreError(w, err, "conversation not found")
		return
	}
	s.respondJSON(w, http.StatusOK, viewConversation(conv))
}

func (s *Server) handleConversationDelete(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())
	convID := chi.URLParam(r, "id")

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	ok, err := uow.Conversations.IsAccessibleByUser(r.Context(), convID, authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "conversation not found")
		return
	}

	if err := uow.Conversations.Delete(r.Context(), convID); err != nil {
		s.respondStoreError(w, err, "conversation not found")
		return
	}
	if err := uow.Commit(); err != nil {
		s.respondStoreError(w, err, "")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// handleDashboardMessages returns the transcript of a conversation the
// acting user owns, in ascending creation order.
func (s *Server) handleDashboardMessages(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())
	convID := r.URL.Query().Get("conversation_id")
	if convID == "" {
		s.respondError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	ok, err := uow.Conversations.IsAccessibleByUser(r.Context(), convID, authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "conversation not found")
		return
	}

	msgs, err := uow.Messages.GetByConversation(r.Context(), convID)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	s.respondJSON(w, http.StatusOK, viewMessages(msgs))
}
