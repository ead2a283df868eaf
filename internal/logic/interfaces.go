package logic

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/courtlab/archetype-api/internal/models"
)

// PgPool defines the interface for PostgreSQL connection pool
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RedisClient defines the subset of the Redis client the stats cache uses
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// FeatureStore supplies per-player-season feature records. Missing features
// are explicit (nil fields), never coerced to zero.
type FeatureStore interface {
	GetProfile(ctx context.Context, playerID, season string) (*models.PlayerSeasonProfile, error)
}

// PopulationStatsProvider supplies the shared, immutable corpus snapshot.
// Stats is lazy and cheap after the first call; Refresh derives a new
// snapshot from the current corpus and swaps it in atomically.
type PopulationStatsProvider interface {
	Stats(ctx context.Context) (*models.PopulationStats, error)
	Refresh(ctx context.Context) (*models.PopulationStats, error)
}

// ArchetypeClassifier is the trained multi-class model. The engine treats it
// as a black box: exactly four labels, probabilities summing to 1.0.
type ArchetypeClassifier interface {
	Predict(vector models.FeatureVector) (map[string]float64, error)
}

// DependenceScorer computes how much of a player's production depends on
// teammate-generated opportunity, in [0,1].
type DependenceScorer interface {
	Compute(profile *models.PlayerSeasonProfile) float64
}

// PredictionService is the engine's query surface: one immutable result per
// (player, season, target usage) request, with the full gate audit trail.
type PredictionService interface {
	Predict(ctx context.Context, playerID, season string, targetUsage float64) (*models.PredictionResult, error)
}
