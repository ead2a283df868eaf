package logic

import (
	"github.com/courtlab/archetype-api/internal/config"
	"github.com/courtlab/archetype-api/internal/models"
)

// Tax signal identifiers, reported on the prediction result.
const (
	SignalOpenShotReliance = "open_shot_reliance_p75"
	SignalCreationDropoff  = "creation_efficiency_dropoff"
	SignalClutchAbdication = "clutch_abdication"
	SignalContestAvoidance = "contest_avoidance_p40"
)

// SignalTaxCalculator discounts production that matches a system-dependent
// pattern. A profile with any positive elevating signal (clutch usage up,
// clutch efficiency up, or creation efficiency up) is fully exempt: a
// genuine engine shows at least one of those somewhere, a pure
// system-dependent profile shows none.
type SignalTaxCalculator struct {
	t config.Thresholds
}

func NewSignalTaxCalculator(t config.Thresholds) *SignalTaxCalculator {
	return &SignalTaxCalculator{t: t}
}

// ComputePenalty returns the multiplicative volume and efficiency penalties
// in (0,1] plus the signals that fired. The exemption check runs before any
// multiplier and short-circuits the whole tax to 1.0. Signals compound by
// multiplication, never addition, and both penalties take the full product:
// a system-dependent profile's efficiency is inflated by circumstance just
// like its volume.
func (c *SignalTaxCalculator) ComputePenalty(profile *models.PlayerSeasonProfile, pop *models.PopulationStats) (volume, efficiency float64, signals []string) {
	if c.isExempt(profile) {
		return 1.0, 1.0, nil
	}

	penalty := 1.0

	if v, ok := profile.Feature(models.FeatOpenShotReliance); ok {
		if cut, ok := pop.QualifiedCut(models.FeatOpenShotReliance, 75); ok && v > cut {
			penalty *= c.t.TaxPrimary
			signals = append(signals, SignalOpenShotReliance)
		}
	}

	if v, ok := profile.Feature(models.FeatCreationEffDelta); ok && v < 0 {
		penalty *= c.t.TaxSecondary
		signals = append(signals, SignalCreationDropoff)
	}

	cu, cuOK := profile.Feature(models.FeatClutchUsageDelta)
	ce, ceOK := profile.Feature(models.FeatClutchEffDelta)
	if cuOK && ceOK && cu < 0 && ce < 0 {
		penalty *= c.t.TaxSecondary
		signals = append(signals, SignalClutchAbdication)
	}

	if v, ok := profile.Feature(models.FeatContestedRate); ok {
		if cut, ok := pop.QualifiedCut(models.FeatContestedRate, 40); ok && v < cut {
			penalty *= c.t.TaxSecondary
			signals = append(signals, SignalContestAvoidance)
		}
	}

	return penalty, penalty, signals
}

func (c *SignalTaxCalculator) isExempt(profile *models.PlayerSeasonProfile) bool {
	if v, ok := profile.Feature(models.FeatClutchUsageDelta); ok && v > 0 {
		return true
	}
	if v, ok := profile.Feature(models.FeatClutchEffDelta); ok && v > 0 {
		return true
	}
	if v, ok := profile.Feature(models.FeatCreationEffDelta); ok && v > 0 {
		return true
	}
	return false
}

// ApplyTax produces the taxed profile consumed by the vector assembler.
// Volume features take the volume penalty; efficiency features take the
// efficiency penalty only on their positive part; discounting a deficit
// would improve it.
func ApplyTax(projected *models.ProjectedProfile, volume, efficiency float64, signals []string) *models.TaxedProfile {
	taxed := &models.TaxedProfile{
		Projected: &models.ProjectedProfile{
			Profile:          projected.Profile.Clone(),
			TargetUsage:      projected.TargetUsage,
			ObservedUsage:    projected.ObservedUsage,
			ReplacedFeatures: projected.ReplacedFeatures,
		},
		VolumePenalty:     volume,
		EfficiencyPenalty: efficiency,
		AppliedSignals:    signals,
	}

	p := taxed.Projected.Profile
	for _, name := range []string{models.FeatSelfCreationShare, models.FeatContestedRate, models.FeatRimPressureRate} {
		if v, ok := p.Feature(name); ok {
			p.SetFeature(name, v*volume)
		}
	}
	for _, name := range []string{models.FeatContestedEff, models.FeatShotQualityDelta, models.FeatCreationEffDelta} {
		if v, ok := p.Feature(name); ok && v > 0 {
			p.SetFeature(name, v*efficiency)
		}
	}

	return taxed
}
