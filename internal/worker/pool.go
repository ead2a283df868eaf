// Package worker implements the buffered worker pool for async feature
// ingestion. This decouples HTTP request handling from database writes,
// providing backpressure handling, batch inserts for efficient ClickHouse
// writes, and graceful shutdown with flush guarantees.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/courtlab/archetype-api/internal/logic"
	"github.com/courtlab/archetype-api/internal/models"
)

// Prometheus metrics
var (
	rowsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archetype_feature_rows_ingested_total",
		Help: "Total number of feature rows accepted into the queue",
	})

	rowsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archetype_feature_rows_processed_total",
		Help: "Total number of feature rows written to ClickHouse",
	})

	rowsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archetype_feature_rows_failed_total",
		Help: "Total number of feature rows that failed processing",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "archetype_worker_queue_depth",
		Help: "Current depth of the ingest worker queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "archetype_batch_insert_duration_seconds",
		Help:    "Duration of batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})

	rowsLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archetype_feature_rows_load_shed_total",
		Help: "Total number of feature rows dropped due to load shedding",
	})
)

// Job represents a unit of work for the worker pool
type Job struct {
	Row        *models.FeatureRow
	ReceivedAt time.Time
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Redis         *redis.Client
	Logger        *zap.Logger
}

// Pool manages a pool of workers for async feature-row ingestion
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop gracefully shuts down the worker pool. The queue is closed first so
// workers drain every enqueued row before exiting; cancelling before the
// close would let a worker take the context branch and strand queued rows.
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool...")
	close(p.jobQueue)
	p.wg.Wait()
	p.cancel()
	p.logger.Info("Worker pool stopped")
}

// Enqueue adds a feature row to the queue. Blocks while the queue is full;
// returns false once the pool is shutting down.
func (p *Pool) Enqueue(row *models.FeatureRow) bool {
	job := Job{Row: row, ReceivedAt: time.Now()}

	// Protect against sending on closed channel during shutdown
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue row (pool stopped)", "error", r)
		}
	}()

	select {
	case p.jobQueue <- job:
		rowsIngested.Inc()
		return true
	case <-p.ctx.Done():
		p.logger.Warn("Worker pool context canceled, dropping row")
		rowsLoadShed.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker processes jobs from the queue in batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Job, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.processBatch(batch); err != nil {
			p.logger.Errorw("Batch processing failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			rowsFailed.Add(float64(len(batch)))
		} else {
			rowsProcessed.Add(float64(len(batch)))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}

			batch = append(batch, job)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-p.ctx.Done():
			flush()
			return
		}
	}
}

// processBatch writes a batch of feature rows to ClickHouse and then runs
// the Redis side effects
func (p *Pool) processBatch(batch []Job) error {
	if len(batch) == 0 {
		return nil
	}

	ctx := context.Background()

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO nba_stats.player_season_features (
			player_id, player_name, season, source_id,
			usage_rate, self_creation_share, creation_eff_delta,
			clutch_usage_delta, clutch_eff_delta,
			contested_attempt_rate, contested_eff,
			rim_pressure_rate, open_shot_reliance, shot_quality_delta,
			clutch_minutes, contested_attempts, total_minutes, age,
			observed_at
		)
	`)
	if err != nil {
		return err
	}

	for _, job := range batch {
		row := job.Row

		// Pointer fields map directly onto Nullable columns; a nil feature
		// stays NULL instead of becoming a spurious zero.
		err := chBatch.Append(
			row.PlayerID,
			row.PlayerName,
			row.Season,
			row.SourceID,
			row.UsageRate,
			row.SelfCreationShare,
			row.CreationEffDelta,
			row.ClutchUsageDelta,
			row.ClutchEffDelta,
			row.ContestedRate,
			row.ContestedEff,
			row.RimPressureRate,
			row.OpenShotReliance,
			row.ShotQualityDelta,
			row.ClutchMinutes,
			row.ContestedAttempts,
			row.TotalMinutes,
			ageOrNil(row.Age),
			row.ObservedTime(job.ReceivedAt),
		)
		if err != nil {
			p.logger.Warnw("Failed to append row to batch", "error", err, "player", row.PlayerID)
			continue
		}
	}

	// Copy before the async side effects: the batch slice is reused by the
	// worker loop.
	batchCopy := make([]Job, len(batch))
	copy(batchCopy, batch)
	go p.processBatchSideEffects(ctx, batchCopy)

	return chBatch.Send()
}

// processBatchSideEffects maintains the Redis lookup state and invalidates
// the population snapshot. New rows change the corpus, so every flushed
// batch bumps the version the stats provider watches.
func (p *Pool) processBatchSideEffects(ctx context.Context, batch []Job) {
	if len(batch) == 0 || p.config.Redis == nil {
		return
	}

	pipe := p.config.Redis.Pipeline()

	for _, job := range batch {
		row := job.Row
		if row.PlayerID != "" && row.PlayerName != "" {
			pipe.HSet(ctx, "player_names", row.PlayerID, row.PlayerName)
		}
		if row.SourceID != "" {
			pipe.HSet(ctx, "source_last_ingest", row.SourceID, job.ReceivedAt.UTC().Format(time.RFC3339))
		}
	}

	pipe.Incr(ctx, logic.CorpusVersionKey)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		p.logger.Errorw("Redis pipeline failed", "error", err)
	}
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}

func ageOrNil(age *int) *int64 {
	if age == nil {
		return nil
	}
	a := int64(*age)
	return &a
}
