package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/algotutor/algotutor/internal/model"
)

// defaultTrendWindowDays bounds the emotional-trends report when the
// caller supplies no window.
const defaultTrendWindowDays = 7

func (h *Handler) handleLearningSummary(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	summary, err := h.agg.LearningSummary(user.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleEmotionalTrends(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	days := defaultTrendWindowDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(w, "days must be a positive integer")
			return
		}
		days = n
	}

	report, err := h.agg.EmotionalTrends(user.ID, days)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleTopicPerformance(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	stats, err := h.agg.TopicPerformance(user.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": stats})
}

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	report, err := h.agg.Recommendations(user.ID, h.localizer(r))
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleResearchMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.agg.ResearchMetrics()
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (h *Handler) handleResearchExport(w http.ResponseWriter, r *http.Request) {
	export, err := h.store.ExportAll()
	if err != nil {
		internalError(w, err)
		return
	}
	export.ExportedAt = time.Now()
	writeJSON(w, http.StatusOK, export)
}
