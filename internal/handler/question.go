package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/algotutor/algotutor/internal/model"
)

// maxQuestionPage caps how many questions a single listing returns.
const maxQuestionPage = 10

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	difficulty := strings.ToLower(r.URL.Query().Get("difficulty"))
	language := strings.ToLower(r.URL.Query().Get("language"))

	limit := maxQuestionPage
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	questions, err := h.store.ListQuestionsFiltered(difficulty, language, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions, "count": len(questions)})
}

func (h *Handler) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid question id")
		return
	}
	question, err := h.store.GetQuestion(id)
	if errors.Is(err, sql.ErrNoRows) {
		notFound(w, "question not found")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

type submitRequest struct {
	Answer string `json:"answer"`
}

// handleSubmitAnswer records an attempt on a bank question. Solved is a
// simple containment check of the reference solution; the bank's
// questions carry short canonical answers.
func (h *Handler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid question id")
		return
	}
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	req.Answer = strings.TrimSpace(req.Answer)
	if req.Answer == "" {
		badRequest(w, "answer must not be empty")
		return
	}

	question, err := h.store.GetQuestion(id)
	if errors.Is(err, sql.ErrNoRows) {
		notFound(w, "question not found")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	solved := question.Solution != "" &&
		strings.Contains(strings.ToLower(req.Answer), strings.ToLower(question.Solution))
	if err := h.store.UpsertProgress(model.QuestionProgress{
		UserID:     user.ID,
		QuestionID: question.ID,
		Attempted:  true,
		Solved:     solved,
		LastAnswer: req.Answer,
		UpdatedAt:  time.Now(),
	}); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"solved": solved})
}

func (h *Handler) handleListProgress(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	progress, err := h.store.ListProgress(user.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": progress})
}

type progressRequest struct {
	Attempted  bool   `json:"attempted"`
	Solved     bool   `json:"solved"`
	LastAnswer string `json:"last_answer"`
}

func (h *Handler) handleSaveProgress(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid question id")
		return
	}
	var req progressRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if _, err := h.store.GetQuestion(id); errors.Is(err, sql.ErrNoRows) {
		notFound(w, "question not found")
		return
	} else if err != nil {
		internalError(w, err)
		return
	}

	if err := h.store.UpsertProgress(model.QuestionProgress{
		UserID:     user.ID,
		QuestionID: id,
		Attempted:  req.Attempted,
		Solved:     req.Solved,
		LastAnswer: req.LastAnswer,
		UpdatedAt:  time.Now(),
	}); err != nil {
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
