package logic

import (
	"context"

	"github.com/courtlab/archetype-api/internal/models"
)

// MockFeatureStore implements FeatureStore for testing
type MockFeatureStore struct {
	GetProfileFunc func(ctx context.Context, playerID, season string) (*models.PlayerSeasonProfile, error)
}

func (m *MockFeatureStore) GetProfile(ctx context.Context, playerID, season string) (*models.PlayerSeasonProfile, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, playerID, season)
	}
	return &models.PlayerSeasonProfile{PlayerID: playerID, Season: season}, nil
}

// MockPopulationStatsProvider serves a fixed snapshot
type MockPopulationStatsProvider struct {
	Snapshot *models.PopulationStats
}

func (m *MockPopulationStatsProvider) Stats(ctx context.Context) (*models.PopulationStats, error) {
	return m.Snapshot, nil
}

func (m *MockPopulationStatsProvider) Refresh(ctx context.Context) (*models.PopulationStats, error) {
	return m.Snapshot, nil
}

// MockClassifier returns a fixed distribution
type MockClassifier struct {
	PredictFunc func(vector models.FeatureVector) (map[string]float64, error)
}

func (m *MockClassifier) Predict(vector models.FeatureVector) (map[string]float64, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(vector)
	}
	return map[string]float64{
		models.ArchetypeShotCreator:     0.40,
		models.ArchetypeOffBallScorer:   0.30,
		models.ArchetypeSecondaryOption: 0.20,
		models.ArchetypeSystemDependent: 0.10,
	}, nil
}

// MockDependenceScorer returns a fixed score
type MockDependenceScorer struct {
	Score float64
}

func (m *MockDependenceScorer) Compute(profile *models.PlayerSeasonProfile) float64 {
	return m.Score
}

// testPopulation builds a deterministic snapshot for unit tests.
func testPopulation() *models.PopulationStats {
	table := models.PercentileTable{
		P10: 0.10, P25: 0.25, P40: 0.40, P50: 0.50, P60: 0.60, P75: 0.75, P90: 0.90,
	}
	contested := models.PercentileTable{
		P10: 0.15, P25: 0.22, P40: 0.30, P50: 0.35, P60: 0.40, P75: 0.48, P90: 0.58,
	}
	contestedEff := models.PercentileTable{
		P10: 0.38, P25: 0.42, P40: 0.46, P50: 0.48, P60: 0.51, P75: 0.55, P90: 0.60,
	}

	return &models.PopulationStats{
		Version: "test-v1",
		Percentiles: map[string]models.PercentileTable{
			models.FeatOpenShotReliance: table,
			models.FeatContestedRate:    contested,
			models.FeatContestedEff:     contestedEff,
		},
		QualifiedPercentiles: map[string]models.PercentileTable{
			models.FeatOpenShotReliance: table,
			models.FeatContestedRate:    contested,
			models.FeatContestedEff:     contestedEff,
		},
		BucketMedians: map[string]map[int]float64{
			models.FeatSelfCreationShare: {
				15: 0.22, 20: 0.30, 25: 0.40, 30: 0.55,
			},
			models.FeatClutchUsageDelta: {
				15: -0.02, 20: -0.01, 25: 0.01, 30: 0.02,
			},
			models.FeatContestedRate: {
				15: 0.28, 20: 0.31, 25: 0.36, 30: 0.42,
			},
		},
		QualifiedCount: 240,
	}
}

// nominalProfile is a healthy high-usage creator: no gate should fire.
func nominalProfile() *models.PlayerSeasonProfile {
	age := 27
	return &models.PlayerSeasonProfile{
		PlayerID:          "player-1",
		PlayerName:        "Test Player",
		Season:            "2024-25",
		UsageRate:         models.Float(0.27),
		SelfCreationShare: models.Float(0.55),
		CreationEffDelta:  models.Float(0.02),
		ClutchUsageDelta:  models.Float(0.03),
		ClutchEffDelta:    models.Float(0.04),
		ContestedRate:     models.Float(0.38),
		ContestedEff:      models.Float(0.50),
		RimPressureRate:   models.Float(0.15),
		OpenShotReliance:  models.Float(0.40),
		ShotQualityDelta:  models.Float(0.01),
		ClutchMinutes:     models.Float(120),
		ContestedAttempts: models.Float(300),
		Age:               &age,
	}
}
