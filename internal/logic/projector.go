package logic

import (
	"math"

	"github.com/courtlab/archetype-api/internal/models"
)

// usageEpsilon is the tolerance below which a target usage is considered
// equal to the observed usage and projection becomes the identity.
const usageEpsilon = 1e-9

// UsageProjector maps a profile from its observed usage level to a
// hypothetical target level using empirical bucket medians. Linear scaling
// is deliberately not used: bucket medians of volume-correlated features
// are non-monotonic across the usage range, so projection is always a
// median lookup, including downward projections.
type UsageProjector struct{}

func NewUsageProjector() *UsageProjector {
	return &UsageProjector{}
}

// Project returns a copy of the profile transformed to targetUsage.
// Volume-correlated features are replaced by the qualified-population median
// of the target usage bucket, blended with the adjacent bucket by position
// inside the bucket so projections move smoothly across boundaries. Features
// absent from the profile stay absent. Non-volume features pass through.
func (p *UsageProjector) Project(profile *models.PlayerSeasonProfile, targetUsage float64, pop *models.PopulationStats) (*models.ProjectedProfile, error) {
	if profile.PlayerID == "" || profile.Season == "" {
		return nil, &InsufficientDataError{PlayerID: profile.PlayerID, Season: profile.Season, Missing: "identity"}
	}
	if profile.UsageRate == nil {
		return nil, &InsufficientDataError{PlayerID: profile.PlayerID, Season: profile.Season, Missing: models.FeatUsageRate}
	}
	observed := *profile.UsageRate

	out := &models.ProjectedProfile{
		Profile:       profile.Clone(),
		TargetUsage:   targetUsage,
		ObservedUsage: observed,
	}

	if math.Abs(targetUsage-observed) < usageEpsilon {
		return out, nil
	}

	for _, name := range models.VolumeCorrelatedFeatures {
		if _, ok := profile.Feature(name); !ok {
			continue
		}
		v, ok := bucketValue(pop, name, targetUsage)
		if !ok {
			continue
		}
		out.Profile.SetFeature(name, v)
		out.ReplacedFeatures = append(out.ReplacedFeatures, name)
	}
	out.Profile.SetFeature(models.FeatUsageRate, targetUsage)

	return out, nil
}

// bucketValue resolves the empirical value of a feature at a usage level:
// the target bucket's median blended toward the next bucket by the position
// of targetUsage inside its bucket. Falls back to the nearest populated
// bucket when the target bucket is empty.
func bucketValue(pop *models.PopulationStats, feature string, targetUsage float64) (float64, bool) {
	lower := models.UsageBucket(targetUsage)

	m0, ok := pop.BucketMedian(feature, lower)
	if !ok {
		m, _, found := pop.NearestBucketMedian(feature, lower)
		return m, found
	}

	// Position inside the bucket, 0 at the lower edge, 1 at the upper.
	t := (targetUsage*100 - float64(lower)) / float64(models.UsageBucketWidth)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	m1, ok := pop.BucketMedian(feature, lower+models.UsageBucketWidth)
	if !ok {
		return m0, true
	}
	return (1-t)*m0 + t*m1, true
}
