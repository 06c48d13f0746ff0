// ABOUTME: JSON response helpers and storage error mapping
// ABOUTME: Errors render as {"detail": ...}; missing or foreign rows answer 404

package api

import (
	"encoding/json"
	"net/http"

	"github.com/faqmy/faqmy-server/internal/store"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, detail string) {
	s.respondJSON(w, status, map[string]string{"detail": detail})
}

// respondStoreError maps a storage error to an HTTP response. Missing
// rows answer 404; everything else is a 500 with the detail hidden
// from the client.
func (s *Server) respondStoreError(w http.ResponseWriter, err error, notFoundDetail string) {
	if store.IsNotFound(err) {
		s.respondError(w, http.StatusNotFound, notFoundDetail)
		return
	}
	s.logger.Error("storage error", "error", err)
	s.respondError(w, http.StatusInternalServerError, "internal error")
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
