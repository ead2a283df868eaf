package logic

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"golang.org/x/sync/errgroup"

	"github.com/courtlab/archetype-api/internal/models"
)

type featureStore struct {
	ch driver.Conn
}

// NewFeatureStore returns the ClickHouse-backed FeatureStore. Feature
// columns are Nullable in the schema, so absence survives the round trip
// to the profile instead of degrading to zero.
func NewFeatureStore(ch driver.Conn) FeatureStore {
	return &featureStore{ch: ch}
}

// GetProfile fetches one player-season snapshot. The base feature row and
// the sample counters come from separate aggregations, fetched in parallel.
func (s *featureStore) GetProfile(ctx context.Context, playerID, season string) (*models.PlayerSeasonProfile, error) {
	profile := &models.PlayerSeasonProfile{PlayerID: playerID, Season: season}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.fillFeatures(ctx, playerID, season, profile)
	})

	g.Go(func() error {
		// Sample counters are non-critical: a row without them still
		// predicts, the Tier-2 gates just fire conservatively.
		if err := s.fillSamples(ctx, playerID, season, profile); err != nil {
			profile.ClutchMinutes = nil
			profile.ContestedAttempts = nil
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return profile, nil
}

func (s *featureStore) fillFeatures(ctx context.Context, playerID, season string, out *models.PlayerSeasonProfile) error {
	query := `
		SELECT
			any(player_name),
			anyLast(usage_rate),
			anyLast(self_creation_share),
			anyLast(creation_eff_delta),
			anyLast(clutch_usage_delta),
			anyLast(clutch_eff_delta),
			anyLast(contested_attempt_rate),
			anyLast(contested_eff),
			anyLast(rim_pressure_rate),
			anyLast(open_shot_reliance),
			anyLast(shot_quality_delta),
			anyLast(age)
		FROM nba_stats.player_season_features
		WHERE player_id = ? AND season = ?
		GROUP BY player_id, season
	`

	var (
		name string
		age  *int64
	)
	err := s.ch.QueryRow(ctx, query, playerID, season).Scan(
		&name,
		&out.UsageRate,
		&out.SelfCreationShare,
		&out.CreationEffDelta,
		&out.ClutchUsageDelta,
		&out.ClutchEffDelta,
		&out.ContestedRate,
		&out.ContestedEff,
		&out.RimPressureRate,
		&out.OpenShotReliance,
		&out.ShotQualityDelta,
		&age,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &ProfileNotFoundError{PlayerID: playerID, Season: season}
		}
		return fmt.Errorf("feature row: %w", err)
	}

	out.PlayerName = name
	if age != nil {
		a := int(*age)
		out.Age = &a
	}
	return nil
}

func (s *featureStore) fillSamples(ctx context.Context, playerID, season string, out *models.PlayerSeasonProfile) error {
	query := `
		SELECT
			anyLast(clutch_minutes),
			anyLast(contested_attempts)
		FROM nba_stats.player_season_features
		WHERE player_id = ? AND season = ?
		GROUP BY player_id, season
	`
	if err := s.ch.QueryRow(ctx, query, playerID, season).Scan(
		&out.ClutchMinutes,
		&out.ContestedAttempts,
	); err != nil {
		return fmt.Errorf("sample counters: %w", err)
	}
	return nil
}
