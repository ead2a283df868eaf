package logic

import (
	"github.com/courtlab/archetype-api/internal/models"
)

// dependenceScorer measures how much of a player's production relies on
// teammate-generated opportunity, as a continuous [0,1] blend of the
// opportunity-source signals. It deliberately uses no position labels:
// rim pressure and self-creation volume separate playstyles on their own.
type dependenceScorer struct{}

func NewDependenceScorer() DependenceScorer {
	return &dependenceScorer{}
}

// Compute blends open-shot reliance, the inverse of self-creation share and
// the inverse of rim pressure. Missing inputs drop out and the remaining
// weights renormalize, so a sparse profile still scores on what it has;
// a profile with none of the three inputs scores a neutral 0.5.
func (d *dependenceScorer) Compute(profile *models.PlayerSeasonProfile) float64 {
	type component struct {
		weight float64
		value  float64
		ok     bool
	}

	open, openOK := profile.Feature(models.FeatOpenShotReliance)
	self, selfOK := profile.Feature(models.FeatSelfCreationShare)
	rim, rimOK := profile.Feature(models.FeatRimPressureRate)

	components := []component{
		{weight: 0.50, value: clamp01(open), ok: openOK},
		{weight: 0.35, value: clamp01(1 - self), ok: selfOK},
		// Rim pressure rarely exceeds ~0.35 of attempts; scale before inverting.
		{weight: 0.15, value: clamp01(1 - rim/0.35), ok: rimOK},
	}

	var sum, weightSum float64
	for _, c := range components {
		if !c.ok {
			continue
		}
		sum += c.weight * c.value
		weightSum += c.weight
	}
	if weightSum == 0 {
		return 0.5
	}
	return clamp01(sum / weightSum)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
