package logic

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/courtlab/archetype-api/internal/config"
	"github.com/courtlab/archetype-api/internal/models"
)

func newTestService(store FeatureStore) PredictionService {
	return NewPredictionService(EngineConfig{
		Store:      store,
		Population: &MockPopulationStatsProvider{Snapshot: testPopulation()},
		Classifier: NewSoftmaxClassifier(),
		Dependence: NewDependenceScorer(),
		Thresholds: config.LoadThresholds(),
		Logger:     zap.NewNop().Sugar(),
	})
}

func TestPredictNominal(t *testing.T) {
	store := &MockFeatureStore{
		GetProfileFunc: func(ctx context.Context, playerID, season string) (*models.PlayerSeasonProfile, error) {
			return nominalProfile(), nil
		},
	}
	svc := newTestService(store)

	result, err := svc.Predict(context.Background(), "player-1", "2024-25", 0.30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PlayerID != "player-1" || result.Season != "2024-25" {
		t.Errorf("identity = %s/%s", result.PlayerID, result.Season)
	}
	if result.StatsVersion != "test-v1" {
		t.Errorf("stats version = %s, want test-v1", result.StatsVersion)
	}
	if len(result.Gates) != 10 {
		t.Fatalf("gate decisions = %d, want 10", len(result.Gates))
	}
	for _, d := range result.Gates {
		if d.Triggered {
			t.Errorf("gate %s triggered on a nominal profile: %s", d.GateID, d.Reason)
		}
	}

	var sum float64
	for _, p := range result.Archetypes {
		sum += p
	}
	if !almostEqual(sum, 1.0) {
		t.Errorf("archetype probabilities sum to %v", sum)
	}
	if !almostEqual(result.StarLevel, result.RawStarLevel) {
		t.Errorf("uncapped star level %v should equal raw %v", result.StarLevel, result.RawStarLevel)
	}
	if result.VolumePenalty != 1.0 || len(result.TaxSignals) != 0 {
		t.Errorf("nominal profile taxed: penalty %v signals %v", result.VolumePenalty, result.TaxSignals)
	}
	if result.RiskCategory == "" {
		t.Error("risk category empty")
	}
}

func TestPredictFatalFlawCapsStarLevel(t *testing.T) {
	store := &MockFeatureStore{
		GetProfileFunc: func(ctx context.Context, playerID, season string) (*models.PlayerSeasonProfile, error) {
			p := nominalProfile()
			p.ClutchEffDelta = models.Float(-0.15)
			return p, nil
		},
	}
	svc := newTestService(store)

	result, err := svc.Predict(context.Background(), "player-1", "2024-25", 0.30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.StarLevel > 0.30+1e-9 {
		t.Errorf("star level = %v, want at most the fatal cap 0.30", result.StarLevel)
	}

	var sum float64
	for _, p := range result.Archetypes {
		sum += p
	}
	if !almostEqual(sum, 1.0) {
		t.Errorf("redistributed probabilities sum to %v", sum)
	}

	found := false
	for _, d := range result.Gates {
		if d.GateID == GateClutchFragility && d.Triggered {
			found = true
		}
	}
	if !found {
		t.Error("clutch_fragility decision not in audit trail")
	}
}

func TestPredictTaxAndGatesUseObservedProfile(t *testing.T) {
	// Observed usage 0.18 with clutch abdication; projecting to a healthy
	// 0.28 bucket must not launder the flaw away.
	store := &MockFeatureStore{
		GetProfileFunc: func(ctx context.Context, playerID, season string) (*models.PlayerSeasonProfile, error) {
			p := nominalProfile()
			p.UsageRate = models.Float(0.18)
			p.ClutchUsageDelta = models.Float(-0.08)
			p.ClutchEffDelta = models.Float(-0.02)
			p.CreationEffDelta = models.Float(-0.03)
			return p, nil
		},
	}
	svc := newTestService(store)

	result, err := svc.Predict(context.Background(), "player-1", "2024-25", 0.28)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.VolumePenalty >= 1.0 {
		t.Errorf("volume penalty = %v, want a real discount", result.VolumePenalty)
	}

	abdicated := false
	for _, d := range result.Gates {
		if d.GateID == GateAbdication && d.Triggered {
			abdicated = true
		}
	}
	if !abdicated {
		t.Error("abdication gate must evaluate the observed profile, not the projected one")
	}
	if result.StarLevel > 0.30+1e-9 {
		t.Errorf("star level = %v, want capped at 0.30", result.StarLevel)
	}
}

func TestPredictErrorPropagation(t *testing.T) {
	t.Run("profile not found", func(t *testing.T) {
		store := &MockFeatureStore{
			GetProfileFunc: func(ctx context.Context, playerID, season string) (*models.PlayerSeasonProfile, error) {
				return nil, &ProfileNotFoundError{PlayerID: playerID, Season: season}
			},
		}
		_, err := newTestService(store).Predict(context.Background(), "ghost", "2024-25", 0.25)
		if !IsNotFound(err) {
			t.Errorf("expected not-found error, got %v", err)
		}
	})

	t.Run("insufficient data", func(t *testing.T) {
		store := &MockFeatureStore{
			GetProfileFunc: func(ctx context.Context, playerID, season string) (*models.PlayerSeasonProfile, error) {
				return &models.PlayerSeasonProfile{PlayerID: playerID, Season: season}, nil
			},
		}
		_, err := newTestService(store).Predict(context.Background(), "player-1", "2024-25", 0.25)
		if !IsInsufficientData(err) {
			t.Errorf("expected insufficient-data error, got %v", err)
		}
	})
}
