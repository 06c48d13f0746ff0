// ABOUTME: Account endpoints: signup, login, and current-user management
// ABOUTME: Login failures are uniform to avoid confirming which emails exist

package api

import (
	"errors"
	"net/http"

	"github.com/faqmy/faqmy-server/internal/auth"
	"github.com/faqmy/faqmy-server/internal/store"
)

type signupRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		s.respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hashing password", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	user, err := uow.Users.Create(r.Context(), req.Email, hashed, req.Name, req.Phone)
	if err != nil {
		var dbErr *store.DatabaseError
		if errors.As(err, &dbErr) && !store.IsNotFound(err) {
			s.respondError(w, http.StatusBadRequest, "a user with this email already exists")
			return
		}
		s.respondStoreError(w, err, "")
		return
	}
	if err := uow.Commit(); err != nil {
		s.respondStoreError(w, err, "")
		return
	}

	s.logger.Info("user registered", "user_id", user.ID)
	s.respondJSON(w, http.StatusCreated, viewUser(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
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

	// Unknown email and wrong password answer identically.
	user, err := uow.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := auth.CheckPassword(user.HashedPassword, req.Password); err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.IsActive {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.verifier.Generate(user.ID, s.tokenLifetime)
	if err != nil {
		s.logger.Error("generating token", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	s.respondJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	user, err := uow.Users.GetByID(r.Context(), authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "user not found")
		return
	}
	s.respondJSON(w, http.StatusOK, viewUser(user))
}

type updateMeRequest struct {
	Password *string `json:"password"`
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	var req updateMeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var patch store.UserPatch
	if req.Password != nil {
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.logger.Error("hashing password", "error", err)
			s.respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		patch.HashedPassword = store.Set(hashed)
	}
	if req.Name != nil {
		patch.Name = store.Set(req.Name)
	}
	if req.Phone != nil {
		patch.Phone = store.Set(req.Phone)
	}

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	if err := uow.Users.Update(r.Context(), authCtx.UserID, patch); err != nil {
		s.respondStoreError(w, err, "user not found")
		return
	}
	user, err := uow.Users.GetByID(r.Context(), authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "user not found")
		return
	}
	if err := uow.Commit(); err != nil {
		s.respondStoreError(w, err, "")
		return
	}

	s.respondJSON(w, http.StatusOK, viewUser(user))
}
