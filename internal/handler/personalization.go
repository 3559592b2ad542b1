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
	"github.com/algotutor/algotutor/internal/store"
	"github.com/algotutor/algotutor/internal/tutor"
)

func (h *Handler) handleDueTopics(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	due, err := h.engine.DueTopics(user.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"due_topics": due, "count": len(due)})
}

func (h *Handler) handleMarkReviewed(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	topicID, err := strconv.ParseInt(chi.URLParam(r, "topicID"), 10, 64)
	if err != nil {
		badRequest(w, "invalid topic id")
		return
	}
	success, err := strconv.ParseBool(r.URL.Query().Get("success"))
	if err != nil {
		badRequest(w, "success must be true or false")
		return
	}
	if _, err := h.store.GetQuestion(topicID); errors.Is(err, sql.ErrNoRows) {
		notFound(w, "topic not found")
		return
	} else if err != nil {
		internalError(w, err)
		return
	}

	entry, err := h.engine.MarkReviewed(user.ID, topicID, success)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type bookmarkRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	QuestionID  *int64   `json:"question_id"`
	MessageID   *int64   `json:"message_id"`
}

func (h *Handler) handleCreateBookmark(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req bookmarkRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Title == "" {
		badRequest(w, "title is required")
		return
	}

	bookmark := model.Bookmark{
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		QuestionID:  req.QuestionID,
		MessageID:   req.MessageID,
		CreatedAt:   time.Now(),
	}
	id, err := h.store.CreateBookmark(bookmark)
	if err != nil {
		internalError(w, err)
		return
	}
	bookmark.ID = id
	writeJSON(w, http.StatusCreated, bookmark)
}

func (h *Handler) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	bookmarks, err := h.store.ListBookmarks(user.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookmarks": bookmarks})
}

func (h *Handler) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid bookmark id")
		return
	}
	if err := h.store.DeleteBookmark(id, user.ID); errors.Is(err, sql.ErrNoRows) {
		notFound(w, "bookmark not found")
		return
	} else if err != nil {
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLearningPath suggests unsolved bank questions at the user's
// skill level, hardest gaps first.
func (h *Handler) handleLearningPath(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	difficulty := string(tutor.DifficultyFor(user.SkillLevel))
	language := strings.ToLower(r.URL.Query().Get("language"))
	questions, err := h.store.ListQuestionsFiltered(difficulty, language, maxQuestionPage)
	if err != nil {
		internalError(w, err)
		return
	}
	progress, err := h.store.ListProgress(user.ID)
	if err != nil {
		internalError(w, err)
		return
	}

	solved := make(map[int64]bool, len(progress))
	for _, p := range progress {
		if p.Solved {
			solved[p.QuestionID] = true
		}
	}
	path := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if !solved[q.ID] {
			path = append(path, q)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"level":     user.SkillLevel,
		"questions": path,
	})
}

type pauseRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handlePauseSession(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req pauseRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	session, err := h.store.GetActiveSession(user.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	if session == nil {
		notFound(w, "no active session")
		return
	}

	pauseID, err := h.store.CreatePause(session.ID, req.Reason, time.Now())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"pause_id": pauseID, "session_id": session.ID})
}

func (h *Handler) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	pauseID, err := strconv.ParseInt(chi.URLParam(r, "pauseID"), 10, 64)
	if err != nil {
		badRequest(w, "invalid pause id")
		return
	}
	switch err := h.store.ResumePause(pauseID, user.ID, time.Now()); {
	case errors.Is(err, sql.ErrNoRows):
		notFound(w, "pause not found")
		return
	case errors.Is(err, store.ErrPauseResumed):
		badRequest(w, "pause already resumed")
		return
	case err != nil:
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resumed": true})
}
