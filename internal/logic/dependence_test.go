package logic

import (
	"testing"

	"github.com/courtlab/archetype-api/internal/models"
)

func TestDependenceScore(t *testing.T) {
	d := NewDependenceScorer()

	t.Run("always in unit range", func(t *testing.T) {
		for _, p := range []*models.PlayerSeasonProfile{
			nominalProfile(),
			{OpenShotReliance: models.Float(1.5), SelfCreationShare: models.Float(-0.2)},
		} {
			score := d.Compute(p)
			if score < 0 || score > 1 {
				t.Errorf("score = %v outside [0,1]", score)
			}
		}
	})

	t.Run("empty profile scores neutral", func(t *testing.T) {
		if score := d.Compute(&models.PlayerSeasonProfile{}); score != 0.5 {
			t.Errorf("score = %v, want neutral 0.5", score)
		}
	})

	t.Run("assisted profiles score higher", func(t *testing.T) {
		assisted := nominalProfile()
		assisted.OpenShotReliance = models.Float(0.90)
		assisted.SelfCreationShare = models.Float(0.10)
		assisted.RimPressureRate = models.Float(0.03)

		creator := nominalProfile()
		creator.OpenShotReliance = models.Float(0.20)
		creator.SelfCreationShare = models.Float(0.70)

		if a, c := d.Compute(assisted), d.Compute(creator); a <= c {
			t.Errorf("assisted %v should exceed creator %v", a, c)
		}
	})

	t.Run("missing inputs renormalize", func(t *testing.T) {
		p := &models.PlayerSeasonProfile{OpenShotReliance: models.Float(0.80)}
		if score := d.Compute(p); !almostEqual(score, 0.80) {
			t.Errorf("single-input score = %v, want 0.80", score)
		}
	})
}
