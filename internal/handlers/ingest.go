package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/courtlab/archetype-api/internal/models"
)

// IngestFeatures handles POST /api/v1/ingest/features
// @Summary Ingest Feature Rows
// @Description Accepts newline-separated JSON player-season feature rows from data providers
// @Tags Ingestion
// @Accept json
// @Produce json
// @Security SourceToken
// @Param body body []models.FeatureRow true "Feature rows"
// @Success 202 {object} map[string]interface{} "Accepted"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /ingest/features [post]
func (h *Handler) IngestFeatures(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	defer r.Body.Close()

	sourceID, _ := r.Context().Value(SourceIDKey).(string)

	lines := strings.Split(string(body), "\n")
	accepted := 0
	rejected := 0
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var row models.FeatureRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			h.logger.Warnw("Failed to unmarshal feature row", "error", err, "lineNum", i, "preview", line[:min(len(line), 100)])
			rejected++
			continue
		}

		// Stamp the authenticated provider; never trust the payload's claim.
		row.SourceID = sourceID

		if err := h.validator.Struct(&row); err != nil {
			h.logger.Warnw("Feature row validation failed", "error", err, "lineNum", i, "player", row.PlayerID)
			rejected++
			continue
		}

		if !h.pool.Enqueue(&row) {
			h.logger.Warn("Worker pool unavailable, dropping remaining rows in batch")
			rejected += countNonEmpty(lines[i:])
			break
		}
		accepted++
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "accepted",
		"accepted": accepted,
		"rejected": rejected,
	})
}

func countNonEmpty(lines []string) int {
	n := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			n++
		}
	}
	return n
}
