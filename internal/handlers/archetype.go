package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/courtlab/archetype-api/internal/logic"
)

// archetypeQuery is the validated query surface of the prediction endpoint.
type archetypeQuery struct {
	Season      string  `validate:"required"`
	TargetUsage float64 `validate:"gt=0,lte=0.50"`
}

// GetPlayerArchetype returns the conditional archetype prediction for a
// player season at a hypothetical usage level
// @Summary Get Conditional Archetype Prediction
// @Tags Predictions
// @Accept json
// @Produce json
// @Param playerID path string true "Player ID"
// @Param season query string true "Season, e.g. 2024-25"
// @Param usage query number true "Target usage rate, e.g. 0.28"
// @Success 200 {object} models.PredictionResult
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 422 {object} map[string]string "Insufficient Data"
// @Router /players/{playerID}/archetype [get]
func (h *Handler) GetPlayerArchetype(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.errorResponse(w, http.StatusBadRequest, "Player ID is required")
		return
	}

	usage, err := strconv.ParseFloat(r.URL.Query().Get("usage"), 64)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "usage must be a decimal rate, e.g. 0.28")
		return
	}

	q := archetypeQuery{
		Season:      r.URL.Query().Get("season"),
		TargetUsage: usage,
	}
	if err := h.validator.Struct(&q); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	result, err := h.prediction.Predict(r.Context(), playerID, q.Season, q.TargetUsage)
	if err != nil {
		switch {
		case logic.IsNotFound(err):
			h.errorResponse(w, http.StatusNotFound, "No feature profile for player season")
		case logic.IsInsufficientData(err):
			h.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.Errorw("Prediction failed", "error", err, "player", playerID, "season", q.Season)
			h.errorResponse(w, http.StatusInternalServerError, "Failed to compute prediction")
		}
		return
	}

	h.jsonResponse(w, http.StatusOK, result)
}

// GetPlayerAuditTrail returns the most recent persisted predictions for a
// player, newest first
// @Summary Get Prediction Audit Trail
// @Tags Predictions
// @Produce json
// @Param playerID path string true "Player ID"
// @Success 200 {array} map[string]interface{}
// @Router /players/{playerID}/audit [get]
func (h *Handler) GetPlayerAuditTrail(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.errorResponse(w, http.StatusBadRequest, "Player ID is required")
		return
	}

	rows, err := h.pg.Query(r.Context(), `
		SELECT id, season, target_usage, star_level, dependence_score, risk_category, generated_at
		FROM prediction_audit
		WHERE player_id = $1
		ORDER BY generated_at DESC
		LIMIT 50
	`, playerID)
	if err != nil {
		h.logger.Errorw("Failed to query audit trail", "error", err, "player", playerID)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load audit trail")
		return
	}
	defer rows.Close()

	type auditEntry struct {
		ID              string    `json:"id"`
		Season          string    `json:"season"`
		TargetUsage     float64   `json:"target_usage"`
		StarLevel       float64   `json:"star_level"`
		DependenceScore float64   `json:"dependence_score"`
		RiskCategory    string    `json:"risk_category"`
		GeneratedAt     time.Time `json:"generated_at"`
	}

	entries := make([]auditEntry, 0)
	for rows.Next() {
		var e auditEntry
		if err := rows.Scan(&e.ID, &e.Season, &e.TargetUsage, &e.StarLevel, &e.DependenceScore, &e.RiskCategory, &e.GeneratedAt); err != nil {
			h.logger.Warnw("Failed to scan audit row", "error", err)
			continue
		}
		entries = append(entries, e)
	}

	h.jsonResponse(w, http.StatusOK, entries)
}
