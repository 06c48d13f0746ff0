// ABOUTME: Dashboard card endpoints: CRUD, learning, URL scan, file upload
// ABOUTME: Index calls run before commit so bot failures leave local state intact

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/faqmy/faqmy-server/internal/auth"
	"github.com/faqmy/faqmy-server/internal/botindex"
	"github.com/faqmy/faqmy-server/internal/store"
)

func (s *Server) handleCardList(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())
	stackID := r.URL.Query().Get("stack_id")
	if stackID == "" {
		s.respondError(w, http.StatusBadRequest, "stack_id is required")
		return
	}

	var learned *bool
	switch r.URL.Query().Get("learned") {
	case "":
	case "true":
		v := true
		learned = &v
	case "false":
		v := false
		learned = &v
	default:
		s.respondError(w, http.StatusBadRequest, "learned must be true or false")
		return
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

	cards, err := uow.Cards.GetByStackID(r.Context(), stackID, learned)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	s.respondJSON(w, http.StatusOK, viewCards(cards))
}

type cardCreateRequest struct {
	StackID  string `json:"stack_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (s *Server) handleCardCreate(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	var req cardCreateRequest
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

	ok, err := uow.Stacks.IsAccessibleByUser(r.Context(), req.StackID, authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "stack not found")
		return
	}

	card, err := uow.Cards.Create(r.Context(), req.StackID, req.Question, req.Answer)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if err := uow.Commit(); err != nil {
		s.respondStoreError(w, err, "")
		return
	}

	s.respondJSON(w, http.StatusCreated, viewCard(card))
}

func (s *Server) handleCardDetail(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())
	cardID := chi.URLParam(r, "id")

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	ok, err := uow.Cards.IsAccessibleByUser(r.Context(), cardID, authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "card not found")
		return
	}

	card, err := uow.Cards.GetByID(r.Context(), cardID)
	if err != nil {
		s.respondStoreError(w, err, "card not found")
		return
	}
	s.respondJSON(w, http.StatusOK, viewCard(card))
}

type cardUpdateRequest struct {
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
}

// handleCardUpdate applies the edit and, when the card is learned,
// replaces its index document so the bot answers from the new text.
func (s *Server) handleCardUpdate(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())
	cardID := chi.URLParam(r, "id")

	var req cardUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var patch store.CardPatch
	if req.Question != nil {
		patch.Question = store.Set(*req.Question)
	}
	if req.Answer != nil {
		patch.Answer = store.Set(*req.Answer)
	}

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	ok, err := uow.Cards.IsAccessibleByUser(r.Context(), cardID, authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "card not found")
		return
	}

	if err := uow.Cards.Update(r.Context(), cardID, patch); err != nil {
		s.respondStoreError(w, err, "card not found")
		return
	}
	card, err := uow.Cards.GetByID(r.Context(), cardID)
	if err != nil {
		s.respondStoreError(w, err, "card not found")
		return
	}

	if card.Learned {
		if card.ESDocID != nil {
			if err := s.bot.DeleteDocument(r.Context(), card.StackID, *card.ESDocID); err != nil {
				s.logger.Error("deleting stale document", "card_id", card.ID, "error", err)
				s.respondError(w, http.StatusBadGateway, "failed to update the index")
				return
			}
		}
		docID, err := s.bot.CreateDocument(r.Context(), card.StackID, card.Question, card.Answer)
		if err != nil {
			s.logger.Error("reindexing card", "card_id", card.ID, "error", err)
			s.respondError(w, http.StatusBadGateway, "failed to update the index")
			return
		}
		if err := uow.Cards.MarkLearned(r.Context(), card.ID, &docID); err != nil {
			s.respondStoreError(w, err, "card not found")
			return
		}
	}

	if err := uow.Commit(); err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	s.respondJSON(w, http.StatusOK, viewCard(card))
}

// handleCardDelete removes the card row and its index document. The
// commit happens after the index call, so a bot failure leaves the
// card in place.
func (s *Server) handleCardDelete(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())
	cardID := chi.URLParam(r, "id")

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	ok, err := uow.Cards.IsAccessibleByUser(r.Context(), cardID, authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "card not found")
		return
	}

	card, err := uow.Cards.GetByID(r.Context(), cardID)
	if err != nil {
		s.respondStoreError(w, err, "card not found")
		return
	}
	if err := uow.Cards.Delete(r.Context(), cardID); err != nil {
		s.respondStoreError(w, err, "card not found")
		return
	}

	if card.Learned && card.ESDocID != nil {
		if err := s.bot.DeleteDocument(r.Context(), card.StackID, *card.ESDocID); err != nil {
			s.logger.Error("deleting document", "card_id", card.ID, "error", err)
			s.respondError(w, http.StatusBadGateway, "failed to update the index")
			return
		}
	}

	if err := uow.Commit(); err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

// handleCardLearn sends the card to the index and flips it learned.
func (s *Server) handleCardLearn(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())
	cardID := chi.URLParam(r, "id")

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	ok, err := uow.Cards.IsAccessibleByUser(r.Context(), cardID, authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "card not found")
		return
	}

	card, err := uow.Cards.GetByID(r.Context(), cardID)
	if err != nil {
		s.respondStoreError(w, err, "card not found")
		return
	}

	docID, err := s.bot.CreateDocument(r.Context(), card.StackID, card.Question, card.Answer)
	if err != nil {
		s.logger.Error("indexing card", "card_id", card.ID, "error", err)
		s.respondError(w, http.StatusBadGateway, "failed to index the card")
		return
	}

	if err := uow.Cards.MarkLearned(r.Context(), cardID, &docID); err != nil {
		s.respondStoreError(w, err, "card not found")
		return
	}
	if err := uow.Commit(); err != nil {
		s.respondStoreError(w, err, "")
		return
	}

	s.logger.Info("card learned", "card_id", cardID, "doc_id", docID)
	s.respondJSON(w, http.StatusAccepted, nil)
}

type cardsFromURLRequest struct {
	StackID string `json:"stack_id"`
	URL     string `json:"url"`
}

// handleCardsFromURL crawls a URL and stores every extracted document
// as an already-learned card.
func (s *Server) handleCardsFromURL(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	var req cardsFromURLRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		s.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	uow, err := s.store.Begin(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	defer func() { _ = uow.Rollback() }()

	ok, err := uow.Stacks.IsAccessibleByUser(r.Context(), req.StackID, authCtx.UserID)
	if err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "stack not found")
		return
	}

	docs, err := s.bot.Scan(r.Context(), req.StackID, req.URL)
	if err != nil {
		s.logger.Error("scanning url", "url", req.URL, "error", err)
		s.respondError(w, http.StatusBadGateway, "failed to scan the url")
		return
	}

	if err := s.storeLearnedDocs(r, uow, req.StackID, docs); err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if err := uow.Commit(); err != nil {
		s.respondStoreError(w, err, "")
		return
	}

	s.logger.Info("cards created from url", "stack_id", req.StackID, "count", len(docs))
	s.respondJSON(w, http.StatusAccepted, nil)
}

// handleCardsFromUpload splits an uploaded file into documents and
// stores each as an already-learned card.
func (s *Server) handleCardsFromUpload(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	stackID := r.FormValue("stack_id")
	if stackID == "" {
		s.respondError(w, http.StatusBadRequest, "stack_id is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

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

	docs, err := s.bot.Upload(r.Context(), stackID, header.Filename,
		header.Header.Get("Content-Type"), file)
	if err != nil {
		s.logger.Error("uploading file", "filename", header.Filename, "error", err)
		s.respondError(w, http.StatusBadGateway, "failed to process the file")
		return
	}

	if err := s.storeLearnedDocs(r, uow, stackID, docs); err != nil {
		s.respondStoreError(w, err, "")
		return
	}
	if err := uow.Commit(); err != nil {
		s.respondStoreError(w, err, "")
		return
	}

	s.logger.Info("cards created from upload", "stack_id", stackID, "count", len(docs))
	s.respondJSON(w, http.StatusAccepted, nil)
}

// storeLearnedDocs persists engine-extracted documents as learned
// cards. The engine indexed them during extraction, so each card is
// born with its document id.
func (s *Server) storeLearnedDocs(r *http.Request, uow *store.UnitOfWork, stackID string, docs []botindex.Document) error {
	for _, doc := range docs {
		question := ""
		if doc.Name != nil {
			question = *doc.Name
		}
		card, err := uow.Cards.Create(r.Context(), stackID, question, doc.Content)
		if err != nil {
			return err
		}
		docID := doc.ID
		if err := uow.Cards.MarkLearned(r.Context(), card.ID, &docID); err != nil {
			return err
		}
	}
	return nil
}
