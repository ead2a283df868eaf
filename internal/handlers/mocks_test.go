package handlers

import (
	"context"

	"github.com/courtlab/archetype-api/internal/models"
)

// MockIngestQueue implements IngestQueue for testing
type MockIngestQueue struct {
	Enqueued    []*models.FeatureRow
	EnqueueFunc func(row *models.FeatureRow) bool
}

func (m *MockIngestQueue) Enqueue(row *models.FeatureRow) bool {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(row)
	}
	m.Enqueued = append(m.Enqueued, row)
	return true
}

func (m *MockIngestQueue) QueueDepth() int {
	return len(m.Enqueued)
}

// MockPredictionService implements logic.PredictionService for testing
type MockPredictionService struct {
	PredictFunc func(ctx context.Context, playerID, season string, targetUsage float64) (*models.PredictionResult, error)
}

func (m *MockPredictionService) Predict(ctx context.Context, playerID, season string, targetUsage float64) (*models.PredictionResult, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, playerID, season, targetUsage)
	}
	return &models.PredictionResult{PlayerID: playerID, Season: season, TargetUsage: targetUsage}, nil
}

// MockPopulationProvider implements logic.PopulationStatsProvider for testing
type MockPopulationProvider struct {
	StatsFunc   func(ctx context.Context) (*models.PopulationStats, error)
	RefreshFunc func(ctx context.Context) (*models.PopulationStats, error)
}

func (m *MockPopulationProvider) Stats(ctx context.Context) (*models.PopulationStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &models.PopulationStats{Version: "v1"}, nil
}

func (m *MockPopulationProvider) Refresh(ctx context.Context) (*models.PopulationStats, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return &models.PopulationStats{Version: "v2"}, nil
}
