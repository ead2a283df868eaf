package handlers

import (
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/courtlab/archetype-api/internal/logic"
	"github.com/courtlab/archetype-api/internal/models"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// IngestQueue defines the interface for the feature ingestion worker pool
type IngestQueue interface {
	Enqueue(row *models.FeatureRow) bool
	QueueDepth() int
}

type Config struct {
	WorkerPool IngestQueue
	Postgres   logic.PgPool
	ClickHouse driver.Conn
	Redis      *redis.Client
	Logger     *zap.Logger
	// Services
	Prediction logic.PredictionService
	Population logic.PopulationStatsProvider
}

type Handler struct {
	pool       IngestQueue
	pg         logic.PgPool
	ch         driver.Conn
	redis      *redis.Client
	logger     *zap.SugaredLogger
	validator  *validator.Validate
	prediction logic.PredictionService
	population logic.PopulationStatsProvider
}

func New(cfg Config) *Handler {
	return &Handler{
		pool:       cfg.WorkerPool,
		pg:         cfg.Postgres,
		ch:         cfg.ClickHouse,
		redis:      cfg.Redis,
		logger:     cfg.Logger.Sugar(),
		validator:  validator.New(),
		prediction: cfg.Prediction,
		population: cfg.Population,
	}
}
