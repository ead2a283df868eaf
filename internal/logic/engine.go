package logic

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/courtlab/archetype-api/internal/config"
	"github.com/courtlab/archetype-api/internal/models"
)

var (
	predictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archetype_predictions_total",
		Help: "Total number of archetype predictions served",
	})

	predictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "archetype_prediction_duration_seconds",
		Help:    "Duration of a full prediction pipeline pass",
		Buckets: prometheus.DefBuckets,
	})

	gateTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archetype_gate_triggers_total",
		Help: "Gate trigger counts by gate identifier",
	}, []string{"gate"})
)

type predictionService struct {
	store      FeatureStore
	pop        PopulationStatsProvider
	projector  *UsageProjector
	tax        *SignalTaxCalculator
	assembler  *FeatureVectorAssembler
	classifier ArchetypeClassifier
	dependence DependenceScorer
	gates      *GatePipeline
	risk       *RiskMatrixSynthesizer
	pg         PgPool
	logger     *zap.SugaredLogger
}

// EngineConfig wires the prediction pipeline.
type EngineConfig struct {
	Store      FeatureStore
	Population PopulationStatsProvider
	Classifier ArchetypeClassifier
	Dependence DependenceScorer
	Postgres   PgPool
	Thresholds config.Thresholds
	Logger     *zap.SugaredLogger
}

// NewPredictionService assembles the conditional archetype prediction
// pipeline: project → tax → assemble → classify → gate → synthesize.
func NewPredictionService(cfg EngineConfig) PredictionService {
	return &predictionService{
		store:      cfg.Store,
		pop:        cfg.Population,
		projector:  NewUsageProjector(),
		tax:        NewSignalTaxCalculator(cfg.Thresholds),
		assembler:  NewFeatureVectorAssembler(),
		classifier: cfg.Classifier,
		dependence: cfg.Dependence,
		gates:      NewGatePipeline(cfg.Thresholds),
		risk:       NewRiskMatrixSynthesizer(cfg.Thresholds),
		pg:         cfg.Postgres,
		logger:     cfg.Logger,
	}
}

// Predict runs the full pipeline for one (player, season, target usage)
// query. Pure computation after the two fetches; no shared state is
// mutated, so concurrent predictions need no coordination.
func (s *predictionService) Predict(ctx context.Context, playerID, season string, targetUsage float64) (*models.PredictionResult, error) {
	start := time.Now()

	profile, err := s.store.GetProfile(ctx, playerID, season)
	if err != nil {
		return nil, err
	}

	pop, err := s.pop.Stats(ctx)
	if err != nil {
		return nil, err
	}

	// Tax signals and gates read the observed profile; projection must not
	// be able to launder a flaw away.
	projected, err := s.projector.Project(profile, targetUsage, pop)
	if err != nil {
		return nil, err
	}

	volPenalty, effPenalty, signals := s.tax.ComputePenalty(profile, pop)
	taxed := ApplyTax(projected, volPenalty, effPenalty, signals)

	// Hard ordering invariant: bases are taxed and projected before any
	// interaction term exists.
	vector := s.assembler.Assemble(taxed, targetUsage)

	probs, err := s.classifier.Predict(vector)
	if err != nil {
		return nil, err
	}

	depScore := s.dependence.Compute(profile)

	decisions, bindingCap := s.gates.Evaluate(profile, pop, depScore)
	for _, d := range decisions {
		if d.Triggered {
			gateTriggers.WithLabelValues(d.GateID).Inc()
		}
	}

	rawStar := probs[models.ArchetypeShotCreator] + probs[models.ArchetypeOffBallScorer]
	adjusted, starLevel := RedistributeProbabilities(probs, bindingCap)

	result := &models.PredictionResult{
		PlayerID:          profile.PlayerID,
		PlayerName:        profile.PlayerName,
		Season:            profile.Season,
		TargetUsage:       targetUsage,
		Archetypes:        adjusted,
		StarLevel:         starLevel,
		RawStarLevel:      rawStar,
		Gates:             decisions,
		VolumePenalty:     volPenalty,
		EfficiencyPenalty: effPenalty,
		TaxSignals:        signals,
		DependenceScore:   depScore,
		RiskCategory:      s.risk.Synthesize(starLevel, depScore),
		MissingFeatures:   profile.MissingCritical(),
		StatsVersion:      pop.Version,
		GeneratedAt:       time.Now().UTC(),
	}

	predictionsTotal.Inc()
	predictionDuration.Observe(time.Since(start).Seconds())

	s.auditAsync(result)

	return result, nil
}

// auditAsync persists the result for explainability queries. Fire and
// forget: a failed audit write never fails the prediction.
func (s *predictionService) auditAsync(result *models.PredictionResult) {
	if s.pg == nil {
		return
	}

	go func() {
		defer func() { recover() }()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		gatesJSON, _ := json.Marshal(result.Gates)
		archetypesJSON, _ := json.Marshal(result.Archetypes)

		_, err := s.pg.Exec(ctx, `
			INSERT INTO prediction_audit (
				id, player_id, season, target_usage, star_level,
				dependence_score, risk_category, archetypes, gates, generated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			uuid.New(), result.PlayerID, result.Season, result.TargetUsage,
			result.StarLevel, result.DependenceScore, result.RiskCategory,
			archetypesJSON, gatesJSON, result.GeneratedAt,
		)
		if err != nil {
			s.logger.Warnw("Failed to write prediction audit",
				"error", err,
				"player", result.PlayerID,
				"season", result.Season,
			)
		}
	}()
}
