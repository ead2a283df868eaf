package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/courtlab/archetype-api/internal/models"
)

func newIngestHandler(pool IngestQueue) *Handler {
	return &Handler{
		pool:      pool,
		validator: validator.New(),
		logger:    zap.NewNop().Sugar(),
	}
}

func TestIngestFeatures(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectAccepted int
		expectRejected int
	}{
		{
			name: "Happy path with string-coerced numerics",
			body: `{"player_id":"p1","season":"2024-25","usage_rate":0.27,"self_creation_share":"0.55"}
{"player_id":"p2","season":"2024-25","usage_rate":0.18}`,
			expectedStatus: http.StatusAccepted,
			expectAccepted: 2,
		},
		{
			name: "Invalid JSON line skipped",
			body: `not json at all
{"player_id":"p1","season":"2024-25","usage_rate":0.27}`,
			expectedStatus: http.StatusAccepted,
			expectAccepted: 1,
			expectRejected: 1,
		},
		{
			name:           "Missing identity rejected by validation",
			body:           `{"season":"2024-25","usage_rate":0.27}`,
			expectedStatus: http.StatusAccepted,
			expectAccepted: 0,
			expectRejected: 1,
		},
		{
			name:           "Usage out of range rejected",
			body:           `{"player_id":"p1","season":"2024-25","usage_rate":1.4}`,
			expectedStatus: http.StatusAccepted,
			expectAccepted: 0,
			expectRejected: 1,
		},
		{
			name:           "Empty lines ignored",
			body:           "\n\n{\"player_id\":\"p1\",\"season\":\"2024-25\"}\n\n",
			expectedStatus: http.StatusAccepted,
			expectAccepted: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := &MockIngestQueue{}
			h := newIngestHandler(pool)

			r := httptest.NewRequest("POST", "/ingest/features", strings.NewReader(tt.body))
			r = r.WithContext(context.WithValue(r.Context(), SourceIDKey, "source-1"))
			w := httptest.NewRecorder()

			h.IngestFeatures(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if len(pool.Enqueued) != tt.expectAccepted {
				t.Errorf("enqueued %d rows, want %d", len(pool.Enqueued), tt.expectAccepted)
			}
			for _, row := range pool.Enqueued {
				if row.SourceID != "source-1" {
					t.Errorf("row source = %q, want stamped source-1", row.SourceID)
				}
			}
			if tt.expectRejected > 0 && !strings.Contains(w.Body.String(), `"rejected":`+strconv.Itoa(tt.expectRejected)) {
				t.Errorf("expected %d rejected, body %s", tt.expectRejected, w.Body.String())
			}
		})
	}
}

func TestIngestFeaturesQueueFull(t *testing.T) {
	pool := &MockIngestQueue{
		EnqueueFunc: func(row *models.FeatureRow) bool { return false },
	}
	h := newIngestHandler(pool)

	body := `{"player_id":"p1","season":"2024-25"}
{"player_id":"p2","season":"2024-25"}`
	r := httptest.NewRequest("POST", "/ingest/features", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.IngestFeatures(w, r)

	if w.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"accepted":0`) {
		t.Errorf("expected zero accepted, body %s", w.Body.String())
	}
}
