// Package handler exposes the HTTP API: account management, the chat
// turn endpoint, the question bank, personalization, and analytics.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/algotutor/algotutor/internal/analytics"
	"github.com/algotutor/algotutor/internal/i18n"
	"github.com/algotutor/algotutor/internal/model"
	"github.com/algotutor/algotutor/internal/store"
	"github.com/algotutor/algotutor/internal/tutor"
)

// Handler holds the dependencies shared by all routes.
type Handler struct {
	store  *store.Store
	engine *tutor.Engine
	agg    *analytics.Aggregator
	bundle *goi18n.Bundle
	cfg    model.ServerConfig
}

// New creates a handler with all its collaborators.
func New(st *store.Store, engine *tutor.Engine, agg *analytics.Aggregator, bundle *goi18n.Bundle, cfg model.ServerConfig) *Handler {
	return &Handler{store: st, engine: engine, agg: agg, bundle: bundle, cfg: cfg}
}

// Routes builds the router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.cfg.RequestTimeout))

	r.Get("/healthz", h.handleHealth)

	r.Post("/users/register", h.handleRegister)
	r.Post("/users/login", h.handleLogin)

	r.Get("/questions", h.handleListQuestions)
	r.Get("/questions/{id}", h.handleGetQuestion)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/users/me", h.handleMe)

		r.Post("/questions/{id}/submit", h.handleSubmitAnswer)
		r.Get("/questions/progress", h.handleListProgress)
		r.Post("/questions/{id}/progress", h.handleSaveProgress)

		r.Post("/chat/message", h.handleChatMessage)
		r.Post("/chat/quiz/answer", h.handleQuizAnswer)
		r.Post("/chat/session/end", h.handleEndSession)
		r.Get("/chat/session/{id}/summary", h.handleSessionSummary)

		r.Route("/personalization", func(r chi.Router) {
			r.Get("/spaced-repetition", h.handleDueTopics)
			r.Post("/spaced-repetition/{topicID}/review", h.handleMarkReviewed)
			r.Get("/bookmarks", h.handleListBookmarks)
			r.Post("/bookmarks", h.handleCreateBookmark)
			r.Delete("/bookmarks/{id}", h.handleDeleteBookmark)
			r.Get("/learning-path", h.handleLearningPath)
			r.Post("/session/pause", h.handlePauseSession)
			r.Post("/session/resume/{pauseID}", h.handleResumeSession)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/learning-summary", h.handleLearningSummary)
			r.Get("/emotional-trends", h.handleEmotionalTrends)
			r.Get("/topic-performance", h.handleTopicPerformance)
			r.Get("/recommendations", h.handleRecommendations)
		})

		r.Get("/research/metrics", h.handleResearchMetrics)
		r.Get("/research/export", h.handleResearchExport)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// localizer picks the user's preferred language, falling back to the
// Accept-Language header for unauthenticated calls.
func (h *Handler) localizer(r *http.Request) *goi18n.Localizer {
	if user := model.UserFromContext(r.Context()); user != nil && user.PreferredLanguage != "" {
		return i18n.Localizer(h.bundle, user.PreferredLanguage)
	}
	return i18n.Localizer(h.bundle, r.Header.Get("Accept-Language"))
}
