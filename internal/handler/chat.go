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

type chatRequest struct {
	Message string `json:"message"`
	Topic   string `json:"topic"`
}

func (h *Handler) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		badRequest(w, "message must not be empty")
		return
	}

	result, err := h.engine.HandleTurn(r.Context(), user, req.Message, strings.TrimSpace(req.Topic))
	if err != nil {
		if errors.Is(err, tutor.ErrExternal) {
			badGateway(w, "tutor is temporarily unavailable, please retry")
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type quizAnswerRequest struct {
	QuizID         int64 `json:"quiz_id"`
	SelectedOption int   `json:"selected_option"`
}

func (h *Handler) handleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req quizAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	result, err := h.engine.AnswerQuiz(req.QuizID, user.ID, req.SelectedOption, h.localizer(r))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		notFound(w, "quiz not found")
	case errors.Is(err, store.ErrQuizAnswered):
		badRequest(w, "quiz already answered")
	case err != nil:
		badRequest(w, err.Error())
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	session, err := h.store.GetActiveSession(user.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	if session == nil {
		notFound(w, "no active session")
		return
	}
	if err := h.store.CloseSession(session.ID, time.Now()); err != nil {
		if errors.Is(err, store.ErrSessionClosed) {
			badRequest(w, "session already ended")
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ended": true, "session_id": session.ID})
}

type sessionSummary struct {
	Session      model.Session `json:"session"`
	MessageCount int           `json:"message_count"`
	QuizCount    int           `json:"quiz_count"`
	CorrectCount int           `json:"correct_count"`
	DurationMin  float64       `json:"duration_minutes"`
}

func (h *Handler) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid session id")
		return
	}

	session, err := h.store.GetSession(id)
	if errors.Is(err, sql.ErrNoRows) {
		notFound(w, "session not found")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	if session.UserID != user.ID {
		notFound(w, "session not found")
		return
	}

	messages, err := h.store.ListMessagesForSession(session.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	quizzes, err := h.store.ListQuizzesByUser(user.ID)
	if err != nil {
		internalError(w, err)
		return
	}

	summary := sessionSummary{Session: session, MessageCount: len(messages)}
	for _, q := range quizzes {
		if q.SessionID != session.ID {
			continue
		}
		summary.QuizCount++
		if q.IsCorrect != nil && *q.IsCorrect {
			summary.CorrectCount++
		}
	}
	end := time.Now()
	if session.EndedAt != nil {
		end = *session.EndedAt
	}
	summary.DurationMin = end.Sub(session.StartedAt).Minutes()

	writeJSON(w, http.StatusOK, summary)
}
