package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/courtlab/archetype-api/internal/testutils"
)

func TestSourceAuthMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		token          string
		header         string
		scanErr        error
		expectedStatus int
		expectNext     bool
	}{
		{
			name:           "Valid token via X-Source-Token",
			token:          "secret-token",
			header:         "X-Source-Token",
			expectedStatus: http.StatusOK,
			expectNext:     true,
		},
		{
			name:           "Valid token via Bearer",
			token:          "secret-token",
			header:         "Authorization",
			expectedStatus: http.StatusOK,
			expectNext:     true,
		},
		{
			name:           "Missing token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Unknown token",
			token:          "wrong-token",
			header:         "X-Source-Token",
			scanErr:        errors.New("no rows in result set"),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pg := &testutils.MockPgPool{
				QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
					return &testutils.MockPGXRow{
						ScanFunc: func(dest ...any) error {
							if tt.scanErr != nil {
								return tt.scanErr
							}
							if id, ok := dest[0].(*string); ok {
								*id = "source-1"
							}
							return nil
						},
					}
				},
			}

			h := &Handler{pg: pg, logger: zap.NewNop().Sugar()}

			nextCalled := false
			var sourceID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				sourceID, _ = r.Context().Value(SourceIDKey).(string)
			})

			r := httptest.NewRequest("POST", "/ingest/features", nil)
			if tt.token != "" {
				if tt.header == "Authorization" {
					r.Header.Set("Authorization", "Bearer "+tt.token)
				} else {
					r.Header.Set(tt.header, tt.token)
				}
			}
			w := httptest.NewRecorder()

			h.SourceAuthMiddleware(next).ServeHTTP(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if nextCalled != tt.expectNext {
				t.Errorf("next called = %v, want %v", nextCalled, tt.expectNext)
			}
			if tt.expectNext && sourceID != "source-1" {
				t.Errorf("source ID in context = %q, want source-1", sourceID)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h := &Handler{logger: zap.NewNop().Sugar()}

	r := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h.Health(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
