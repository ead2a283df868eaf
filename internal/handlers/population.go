package handlers

import (
	"net/http"
)

// GetPopulationStats returns the active population snapshot
// @Summary Get Population Statistics
// @Tags Population
// @Produce json
// @Success 200 {object} models.PopulationStats
// @Router /population/stats [get]
func (h *Handler) GetPopulationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.population.Stats(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to load population stats", "error", err)
		h.errorResponse(w, http.StatusServiceUnavailable, "Population statistics unavailable")
		return
	}

	h.jsonResponse(w, http.StatusOK, stats)
}

// RefreshPopulationStats recomputes the population snapshot from the
// current feature corpus and swaps it in
// @Summary Refresh Population Statistics
// @Tags Population
// @Security SourceToken
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /population/refresh [post]
func (h *Handler) RefreshPopulationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.population.Refresh(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to refresh population stats", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to refresh population statistics")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":         "refreshed",
		"version":        stats.Version,
		"qualifiedCount": stats.QualifiedCount,
		"computedAt":     stats.ComputedAt,
	})
}
