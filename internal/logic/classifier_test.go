package logic

import (
	"testing"

	"github.com/courtlab/archetype-api/internal/models"
)

func TestClassifierDistribution(t *testing.T) {
	c := NewSoftmaxClassifier()
	a := NewFeatureVectorAssembler()

	taxed := ApplyTax(&models.ProjectedProfile{
		Profile:       nominalProfile().Clone(),
		TargetUsage:   0.27,
		ObservedUsage: 0.27,
	}, 1.0, 1.0, nil)

	probs, err := c.Predict(a.Assemble(taxed, 0.27))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(probs) != len(models.Archetypes) {
		t.Fatalf("got %d labels, want %d", len(probs), len(models.Archetypes))
	}
	var sum float64
	for label, p := range probs {
		if p < 0 || p > 1 {
			t.Errorf("probability %s = %v outside [0,1]", label, p)
		}
		sum += p
	}
	if !almostEqual(sum, 1.0) {
		t.Errorf("probabilities sum to %v", sum)
	}
}

func TestClassifierSeparatesCreatorsFromDependents(t *testing.T) {
	c := NewSoftmaxClassifier()
	a := NewFeatureVectorAssembler()

	creator := nominalProfile()
	creator.UsageRate = models.Float(0.32)
	creator.SelfCreationShare = models.Float(0.72)
	creator.CreationEffDelta = models.Float(0.05)
	creator.OpenShotReliance = models.Float(0.25)

	dependent := nominalProfile()
	dependent.UsageRate = models.Float(0.16)
	dependent.SelfCreationShare = models.Float(0.12)
	dependent.CreationEffDelta = models.Float(-0.10)
	dependent.ClutchUsageDelta = models.Float(-0.04)
	dependent.ClutchEffDelta = models.Float(-0.04)
	dependent.OpenShotReliance = models.Float(0.85)
	dependent.ShotQualityDelta = models.Float(0.06)

	for _, tc := range []struct {
		name    string
		profile *models.PlayerSeasonProfile
		want    string
	}{
		{"high volume creator", creator, models.ArchetypeShotCreator},
		{"system dependent scorer", dependent, models.ArchetypeSystemDependent},
	} {
		t.Run(tc.name, func(t *testing.T) {
			usage, _ := tc.profile.Feature(models.FeatUsageRate)
			taxed := ApplyTax(&models.ProjectedProfile{
				Profile:       tc.profile.Clone(),
				TargetUsage:   usage,
				ObservedUsage: usage,
			}, 1.0, 1.0, nil)

			probs, err := c.Predict(a.Assemble(taxed, usage))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			top, topP := "", -1.0
			for label, p := range probs {
				if p > topP {
					top, topP = label, p
				}
			}
			if top != tc.want {
				t.Errorf("top archetype = %s (%.3f), want %s (probs %v)", top, topP, tc.want, probs)
			}
		})
	}
}

func TestClassifierVectorLengthMismatch(t *testing.T) {
	c := NewSoftmaxClassifier()
	_, err := c.Predict(models.FeatureVector{Names: []string{"usage_rate"}, Values: []float64{0.25}})
	if err == nil {
		t.Fatal("expected an error for a short vector")
	}
}
