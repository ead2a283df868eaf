package logic

import (
	"testing"

	"github.com/courtlab/archetype-api/internal/config"
	"github.com/courtlab/archetype-api/internal/models"
)

func TestComputePenaltyExemption(t *testing.T) {
	calc := NewSignalTaxCalculator(config.LoadThresholds())
	pop := testPopulation()

	// Extreme open-shot reliance, but clutch usage rises: fully exempt.
	profile := nominalProfile()
	profile.OpenShotReliance = models.Float(0.92)
	profile.ClutchUsageDelta = models.Float(0.03)
	profile.ClutchEffDelta = nil
	profile.CreationEffDelta = nil

	vol, eff, signals := calc.ComputePenalty(profile, pop)
	if vol != 1.0 || eff != 1.0 {
		t.Errorf("exempt profile penalties = %v, %v, want 1.0, 1.0", vol, eff)
	}
	if len(signals) != 0 {
		t.Errorf("exempt profile reported signals: %v", signals)
	}
}

func TestComputePenaltySignals(t *testing.T) {
	calc := NewSignalTaxCalculator(config.LoadThresholds())
	pop := testPopulation()

	tests := []struct {
		name        string
		mutate      func(*models.PlayerSeasonProfile)
		wantPenalty float64
		wantSignals []string
	}{
		{
			name: "open shot reliance only",
			mutate: func(p *models.PlayerSeasonProfile) {
				p.OpenShotReliance = models.Float(0.92)
				p.ClutchUsageDelta = nil
				p.ClutchEffDelta = nil
				p.CreationEffDelta = nil
			},
			wantPenalty: 0.50,
			wantSignals: []string{SignalOpenShotReliance},
		},
		{
			name: "all four signals compound",
			mutate: func(p *models.PlayerSeasonProfile) {
				p.OpenShotReliance = models.Float(0.92)
				p.CreationEffDelta = models.Float(-0.05)
				p.ClutchUsageDelta = models.Float(-0.05)
				p.ClutchEffDelta = models.Float(-0.05)
				p.ContestedRate = models.Float(0.20)
			},
			// 0.5 * 0.8 * 0.8 * 0.8
			wantPenalty: 0.256,
			wantSignals: []string{SignalOpenShotReliance, SignalCreationDropoff, SignalClutchAbdication, SignalContestAvoidance},
		},
		{
			name: "no signals",
			mutate: func(p *models.PlayerSeasonProfile) {
				p.ClutchUsageDelta = models.Float(-0.01)
				p.ClutchEffDelta = models.Float(-0.01)
				p.CreationEffDelta = nil
			},
			wantPenalty: 1.0,
			wantSignals: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := nominalProfile()
			tt.mutate(profile)

			vol, eff, signals := calc.ComputePenalty(profile, pop)
			if !almostEqual(vol, tt.wantPenalty) {
				t.Errorf("volume penalty = %v, want %v", vol, tt.wantPenalty)
			}
			if !almostEqual(eff, tt.wantPenalty) {
				t.Errorf("efficiency penalty = %v, want %v", eff, tt.wantPenalty)
			}
			if len(signals) != len(tt.wantSignals) {
				t.Fatalf("signals = %v, want %v", signals, tt.wantSignals)
			}
			for i, s := range tt.wantSignals {
				if signals[i] != s {
					t.Errorf("signal[%d] = %s, want %s", i, signals[i], s)
				}
			}
		})
	}
}

func TestPenaltyMonotonicity(t *testing.T) {
	calc := NewSignalTaxCalculator(config.LoadThresholds())
	pop := testPopulation()

	one := nominalProfile()
	one.OpenShotReliance = models.Float(0.92)
	one.ClutchUsageDelta = nil
	one.ClutchEffDelta = nil
	one.CreationEffDelta = nil

	two := nominalProfile()
	two.OpenShotReliance = models.Float(0.92)
	two.ClutchUsageDelta = nil
	two.ClutchEffDelta = nil
	two.CreationEffDelta = models.Float(-0.03)

	v1, _, _ := calc.ComputePenalty(one, pop)
	v2, _, _ := calc.ComputePenalty(two, pop)
	if v2 >= v1 {
		t.Errorf("adding a signal must strictly shrink the penalty: one=%v two=%v", v1, v2)
	}
}

func TestApplyTaxPositivePartOnly(t *testing.T) {
	profile := nominalProfile()
	profile.CreationEffDelta = models.Float(-0.08)
	profile.ShotQualityDelta = models.Float(0.04)

	projected := &models.ProjectedProfile{
		Profile:       profile.Clone(),
		TargetUsage:   0.27,
		ObservedUsage: 0.27,
	}

	taxed := ApplyTax(projected, 0.5, 0.5, []string{SignalOpenShotReliance})

	if got, _ := taxed.Projected.Profile.Feature(models.FeatSelfCreationShare); !almostEqual(got, 0.275) {
		t.Errorf("self_creation_share = %v, want 0.275", got)
	}
	if got, _ := taxed.Projected.Profile.Feature(models.FeatShotQualityDelta); !almostEqual(got, 0.02) {
		t.Errorf("positive shot_quality_delta = %v, want 0.02", got)
	}
	if got, _ := taxed.Projected.Profile.Feature(models.FeatCreationEffDelta); !almostEqual(got, -0.08) {
		t.Errorf("negative creation_eff_delta must not be discounted, got %v", got)
	}
	// Input profile is untouched.
	if got, _ := profile.Feature(models.FeatSelfCreationShare); !almostEqual(got, 0.55) {
		t.Errorf("ApplyTax mutated its input: %v", got)
	}
}
