package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/courtlab/archetype-api/internal/config"
	"github.com/courtlab/archetype-api/internal/models"
)

// CorpusVersionKey is bumped by the ingest worker whenever new feature rows
// land, invalidating cached population snapshots across instances.
const (
	CorpusVersionKey = "popstats:corpus_version"
	statsCachePrefix = "popstats:snapshot:"
)

// percentileFeatures are the features the engine needs percentile cuts for.
var percentileFeatures = []string{
	models.FeatSelfCreationShare,
	models.FeatCreationEffDelta,
	models.FeatContestedRate,
	models.FeatContestedEff,
	models.FeatRimPressureRate,
	models.FeatOpenShotReliance,
}

type populationStatsProvider struct {
	ch     driver.Conn
	redis  RedisClient
	logger *zap.SugaredLogger
	cfg    *config.Config

	snapshot atomic.Pointer[models.PopulationStats]
	mu       sync.Mutex // serializes recomputes, not reads
}

// NewPopulationStatsProvider builds the lazily-computed, process-cached
// corpus snapshot provider. Reads are lock-free; the snapshot itself is
// immutable and safe for concurrent prediction requests. The serialized
// snapshot is also cached in Redis keyed by corpus version so sibling API
// instances skip the ClickHouse aggregation.
func NewPopulationStatsProvider(ch driver.Conn, rdb RedisClient, cfg *config.Config, logger *zap.SugaredLogger) PopulationStatsProvider {
	return &populationStatsProvider{ch: ch, redis: rdb, logger: logger, cfg: cfg}
}

// Stats returns the current snapshot, computing it on first use and
// recomputing when the ingest path has bumped the corpus version since the
// snapshot was built.
func (p *populationStatsProvider) Stats(ctx context.Context) (*models.PopulationStats, error) {
	if s := p.snapshot.Load(); s != nil {
		if err := p.checkStale(ctx, s); err == nil {
			return s, nil
		} else if err != ErrStatsStale {
			// Version probe failed (Redis down): serve the cached snapshot
			// rather than block predictions.
			return s, nil
		}
		p.logger.Infow("Population snapshot stale, recomputing", "version", s.Version)
	}
	return p.Refresh(ctx)
}

// Refresh derives a new snapshot from the current corpus and swaps it in.
// The previous snapshot is never mutated; in-flight requests keep reading it.
func (p *populationStatsProvider) Refresh(ctx context.Context) (*models.PopulationStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	version := p.corpusVersion(ctx)

	// Another request may have refreshed while we waited on the lock.
	if s := p.snapshot.Load(); s != nil && s.Version == version {
		return s, nil
	}

	if s := p.loadFromCache(ctx, version); s != nil {
		p.snapshot.Store(s)
		return s, nil
	}

	s, err := p.compute(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("population stats: %w", err)
	}

	p.snapshot.Store(s)
	p.storeInCache(ctx, s)
	p.logger.Infow("Population snapshot computed",
		"version", s.Version,
		"qualified", s.QualifiedCount,
		"features", len(s.Percentiles),
	)
	return s, nil
}

func (p *populationStatsProvider) checkStale(ctx context.Context, s *models.PopulationStats) error {
	v, err := p.redis.Get(ctx, CorpusVersionKey).Result()
	if err == redis.Nil {
		return nil // no ingests yet, snapshot stands
	}
	if err != nil {
		return err
	}
	if v != s.Version {
		return ErrStatsStale
	}
	return nil
}

func (p *populationStatsProvider) corpusVersion(ctx context.Context) string {
	v, err := p.redis.Get(ctx, CorpusVersionKey).Result()
	if err != nil || v == "" {
		return "v0"
	}
	return v
}

func (p *populationStatsProvider) loadFromCache(ctx context.Context, version string) *models.PopulationStats {
	data, err := p.redis.Get(ctx, statsCachePrefix+version).Bytes()
	if err != nil {
		return nil
	}
	var s models.PopulationStats
	if err := json.Unmarshal(data, &s); err != nil {
		p.logger.Warnw("Failed to decode cached snapshot", "error", err, "version", version)
		return nil
	}
	return &s
}

func (p *populationStatsProvider) storeInCache(ctx context.Context, s *models.PopulationStats) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := p.redis.Set(ctx, statsCachePrefix+s.Version, data, p.cfg.StatsCacheTTL).Err(); err != nil {
		p.logger.Warnw("Failed to cache snapshot", "error", err, "version", s.Version)
	}
}

// compute runs the corpus aggregations. Deterministic for a fixed corpus
// snapshot: same rows in, same tables out.
func (p *populationStatsProvider) compute(ctx context.Context, version string) (*models.PopulationStats, error) {
	s := &models.PopulationStats{
		Version:              version,
		ComputedAt:           time.Now().UTC(),
		Percentiles:          make(map[string]models.PercentileTable),
		QualifiedPercentiles: make(map[string]models.PercentileTable),
		BucketMedians:        make(map[string]map[int]float64),
	}

	for _, feature := range percentileFeatures {
		full, err := p.percentiles(ctx, feature, false)
		if err != nil {
			return nil, fmt.Errorf("percentiles %s: %w", feature, err)
		}
		s.Percentiles[feature] = full

		qualified, err := p.percentiles(ctx, feature, true)
		if err != nil {
			return nil, fmt.Errorf("qualified percentiles %s: %w", feature, err)
		}
		s.QualifiedPercentiles[feature] = qualified
	}

	for _, feature := range models.VolumeCorrelatedFeatures {
		medians, err := p.bucketMedians(ctx, feature)
		if err != nil {
			return nil, fmt.Errorf("bucket medians %s: %w", feature, err)
		}
		s.BucketMedians[feature] = medians
	}

	if err := p.ch.QueryRow(ctx, `
		SELECT toInt64(uniq(player_id, season))
		FROM nba_stats.player_season_features
		WHERE usage_rate >= ? AND total_minutes >= ?
	`, p.cfg.MinQualifiedUsage, p.cfg.MinQualifiedMinutes).Scan(&s.QualifiedCount); err != nil {
		return nil, fmt.Errorf("qualified count: %w", err)
	}

	return s, nil
}

func (p *populationStatsProvider) percentiles(ctx context.Context, feature string, qualified bool) (models.PercentileTable, error) {
	var t models.PercentileTable

	query := fmt.Sprintf(`
		SELECT
			quantile(0.10)(%[1]s),
			quantile(0.25)(%[1]s),
			quantile(0.40)(%[1]s),
			quantile(0.50)(%[1]s),
			quantile(0.60)(%[1]s),
			quantile(0.75)(%[1]s),
			quantile(0.90)(%[1]s)
		FROM nba_stats.player_season_features
		WHERE %[1]s IS NOT NULL
	`, feature)

	args := []interface{}{}
	if qualified {
		query += ` AND usage_rate >= ? AND total_minutes >= ?`
		args = append(args, p.cfg.MinQualifiedUsage, p.cfg.MinQualifiedMinutes)
	}

	if err := p.ch.QueryRow(ctx, query, args...).Scan(
		&t.P10, &t.P25, &t.P40, &t.P50, &t.P60, &t.P75, &t.P90,
	); err != nil {
		return t, err
	}
	return t, nil
}

func (p *populationStatsProvider) bucketMedians(ctx context.Context, feature string) (map[int]float64, error) {
	query := fmt.Sprintf(`
		SELECT
			toInt32(intDiv(toInt32(usage_rate * 100), %[2]d) * %[2]d) AS bucket,
			median(%[1]s) AS med
		FROM nba_stats.player_season_features
		WHERE %[1]s IS NOT NULL
		  AND usage_rate IS NOT NULL
		  AND usage_rate >= ? AND total_minutes >= ?
		GROUP BY bucket
		ORDER BY bucket
	`, feature, models.UsageBucketWidth)

	rows, err := p.ch.Query(ctx, query, p.cfg.MinQualifiedUsage, p.cfg.MinQualifiedMinutes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	medians := make(map[int]float64)
	for rows.Next() {
		var bucket int32
		var med float64
		if err := rows.Scan(&bucket, &med); err != nil {
			continue
		}
		medians[int(bucket)] = med
	}
	return medians, nil
}
