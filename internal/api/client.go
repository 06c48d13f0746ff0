// ABOUTME: Public widget endpoints: stack lookup, conversations, messages
// ABOUTME: Visitor messages trigger the bot-reply workflow in the background

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handlePublicStackDetail returns the widget-facing view of a stack.
// No authentication; the stack ID is the capability.
func (s *Server) handlePublicStackDetail(w http.ResponseWriter, r *http.Request) {
	stackID := chi.URLParam(r, "id")

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	st, err := uow.Stacks.GetByID(r.Context(), stackID)
	if err != nil {
		s.respondStoreError(w, err, "stack not found")
		return
	}
	s.respondJSON(w, http.StatusOK, viewStackPublic(st))
}

type conversationCreateRequest struct {
	StackID string `json:"stack_id"`
}

// handleConversationCreate starts a widget session. The response
// includes the generated password the widget must present to read the
// transcript back.
func (s *Server) handleConversationCreate(w http.ResponseWriter, r *http.Request) {
	var req conversationCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	conv, err := uow.Conversations.Create(r.Context(), req.StackID)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to create a new conversation")
		return
	}
	if err := uow.Commit(); err != nil {
		s.respondStoreError(w, err, "")
		return
	}

	s.respondJSON(w, http.StatusCreated, viewConversation(conv))
}

// handleSealedMessages lists a conversation's transcript gated on its
// password. Wrong password and missing conversation both yield an
// empty list.
func (s *Server) handleSealedMessages(w http.ResponseWriter, r *http.Request) {
	convID := r.URL.Query().Get("conversation_id")
	password := r.URL.Query().Get("password")
	if convID == "" || password == "" {
		s.respondError(w, http.StatusBadRequest, "conversation_id and password are required")
		return
	}

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	msgs, err := uow.Messages.GetByConversationSealed(r.Context(), convID, password)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	s.respondJSON(w, http.StatusOK, viewMessages(msgs))
}

type messageCreateRequest struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// handleMessageCreate records a visitor message and responds
// immediately; the bot reply is generated in the background so a slow
// engine never blocks the widget.
func (s *Server) handleMessageCreate(w http.ResponseWriter, r *http.Request) {
	var req messageCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		s.respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	msg, err := uow.Messages.CreateMessage(r.Context(), req.ConversationID, req.Text)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to create the message")
		return
	}
	if err := uow.Commit(); err != nil {
		s.respondStoreError(w, err, "")
		return
	}

	s.replies.Add(1)
	go func() {
		defer s.replies.Done()
		if err := s.generateReply(context.Background(), msg.ID, msg.Text); err != nil {
			s.logger.Error("generating reply", "message_id", msg.ID, "error", err)
		}
	}()

	s.respondJSON(w, http.StatusCreated, viewMessage(msg))
}

// generateReply asks the engine to answer the visitor message, records
// the bot reply threaded under it, and saves the exchange as a new
// unlearned card for the owner to review.
func (s *Server) generateReply(ctx context.Context, messageID, text string) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = uow.Rollback() }()

	st, err := uow.Stacks.GetByMessageID(ctx, messageID)
	if err != nil {
		return err
	}

	answer, err := s.bot.Ask(ctx, st.ID, text)
	if err != nil {
		return err
	}

	reply, err := uow.Messages.ReplyMessage(ctx, messageID, answer)
	if err != nil {
		return err
	}

	if _, err := uow.Cards.Create(ctx, st.ID, text, reply.Text); err != nil {
		return err
	}

	return uow.Commit()
}

// WaitForReplies blocks until all in-flight background replies finish.
// Used by tests and graceful shutdown.
func (s *Server) WaitForReplies() {
	s.replies.Wait()
}
