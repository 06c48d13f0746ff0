// ABOUTME: Dashboard stack endpoints: list, create, detail, update, delete
// ABOUTME: Stacks owned by other users answer 404, never 403

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/faqmy/faqmy-server/internal/auth"
	"github.com/faqmy/faqmy-server/internal/store"
)

func (s *Server) handleStackList(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	stacks, err := uow.Stacks.GetByUserID(r.Context(), authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	s.respondJSON(w, http.StatusOK, viewStacks(stacks))
}

type stackCreateRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	SpecialOffer    *string `json:"special_offer"`
	InitialQuestion *string `json:"initial_question"`
	WidgetDelay     *int    `json:"widget_delay"`
	Color           *string `json:"color"`
}

func (req *stackCreateRequest) params() store.StackParams {
	p := store.StackParams{
		Name:            req.Name,
		Description:     req.Description,
		SpecialOffer:    req.SpecialOffer,
		InitialQuestion: req.InitialQuestion,
	}
	if req.WidgetDelay != nil {
		p.WidgetDelay = store.Set(*req.WidgetDelay)
	}
	if req.Color != nil {
		p.Color = store.Set(*req.Color)
	}
	return p
}

func (s *Server) handleStackCreate(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	var req stackCreateRequest
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

	st, err := uow.Stacks.Create(r.Context(), authCtx.UserID, req.params())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if err := uow.Commit(); err != nil {
		s.respondStoreError(w, err, "")
		return
	}

	s.logger.Info("stack created", "stack_id", st.ID, "user_id", authCtx.UserID)
	s.respondJSON(w, http.StatusCreated, viewStack(st))
}

func (s *Server) handleStackDetail(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())
	stackID := chi.URLParam(r, "id")

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	st, err := uow.Stacks.GetByIDForUser(r.Context(), stackID, authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "stack not found")
		return
	}
	s.respondJSON(w, http.StatusOK, viewStack(st))
}

func (s *Server) handleStackUpdate(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())
	stackID := chi.URLParam(r, "id")

	var req stackCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var patch store.StackPatch
	if req.Name != nil {
		patch.Name = store.Set(req.Name)
	}
	if req.Description != nil {
		patch.Description = store.Set(req.Description)
	}
	if req.SpecialOffer != nil {
		patch.SpecialOffer = store.Set(req.SpecialOffer)
	}
	if req.InitialQuestion != nil {
		patch.InitialQuestion = store.Set(req.InitialQuestion)
	}
	if req.WidgetDelay != nil {
		patch.WidgetDelay = store.Set(*req.WidgetDelay)
	}
	if req.Color != nil {
		patch.Color = store.Set(*req.Color)
	}

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	ok, err := uow.Stacks.IsAccessibleByUser(r.Context(), stackID, authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "stack not found")
		return
	}

	if err := uow.Stacks.Update(r.Context(), stackID, patch); err != nil {
		s.respondStoreError(w, err, "stack not found")
		return
	}
	st, err := uow.Stacks.GetByID(r.Context(), stackID)
	if err != nil {
		s.respondStoreError(w, err, "stack not found")
		return
	}
	if err := uow.Commit(); err != nil {
		s.respondStoreError(w, err, "")
		return
	}

	s.respondJSON(w, http.StatusOK, viewStack(st))
}

func (s *Server) handleStackDelete(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())
	stackID := chi.URLParam(r, "id")

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	ok, err := uow.Stacks.IsAccessibleByUser(r.Context(), stackID, authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "stack not found")
		return
	}

	if err := uow.Stacks.Delete(r.Context(), stackID); err != nil {
		s.respondStoreError(w, err, "stack not found")
		return
	}
	if err := uow.Commit(); err != nil {
		s.respondStoreError(w, err, "")
		return
	}

	s.logger.Info("stack deleted", "stack_id", stackID, "user_id", authCtx.UserID)
	s.respondJSON(w, http.StatusNoContent, nil)
}
