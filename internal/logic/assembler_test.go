package logic

import (
	"testing"

	"github.com/courtlab/archetype-api/internal/models"
)

func TestAssembleLayout(t *testing.T) {
	a := NewFeatureVectorAssembler()
	profile := nominalProfile()

	taxed := ApplyTax(&models.ProjectedProfile{
		Profile:       profile.Clone(),
		TargetUsage:   0.27,
		ObservedUsage: 0.27,
	}, 1.0, 1.0, nil)

	vector := a.Assemble(taxed, 0.27)

	if len(vector.Names) != len(vectorLayout) || len(vector.Values) != len(vectorLayout) {
		t.Fatalf("vector length = %d/%d, want %d", len(vector.Names), len(vector.Values), len(vectorLayout))
	}
	for i, name := range vectorLayout {
		if vector.Names[i] != name {
			t.Errorf("position %d = %s, want %s", i, vector.Names[i], name)
		}
	}

	// usage_x_self_creation = target usage * share
	idx := indexOf(t, vector.Names, "usage_x_self_creation")
	if want := 0.27 * 0.55; !almostEqual(vector.Values[idx], want) {
		t.Errorf("usage_x_self_creation = %v, want %v", vector.Values[idx], want)
	}
}

// Interaction terms are computed from already-taxed bases. Computing the
// interaction first and discounting afterwards gives a different number for
// any efficiency base the tax leaves alone.
func TestAssembleOrderOfOperations(t *testing.T) {
	a := NewFeatureVectorAssembler()
	profile := nominalProfile()
	profile.CreationEffDelta = models.Float(-0.08)

	projected := &models.ProjectedProfile{
		Profile:       profile.Clone(),
		TargetUsage:   0.27,
		ObservedUsage: 0.27,
	}
	taxed := ApplyTax(projected, 0.5, 0.5, []string{SignalOpenShotReliance})
	vector := a.Assemble(taxed, 0.27)

	idx := indexOf(t, vector.Names, "usage_x_creation_eff")

	// The deficit is not discounted, so the interaction carries it in full.
	correct := 0.27 * -0.08
	wrongOrder := 0.27 * -0.08 * 0.5

	if !almostEqual(vector.Values[idx], correct) {
		t.Errorf("usage_x_creation_eff = %v, want %v", vector.Values[idx], correct)
	}
	if almostEqual(vector.Values[idx], wrongOrder) {
		t.Error("interaction term matches the tax-after-interaction value; bases must be taxed first")
	}

	// Volume interactions use the taxed base too.
	idx = indexOf(t, vector.Names, "usage_x_self_creation")
	if want := 0.27 * 0.55 * 0.5; !almostEqual(vector.Values[idx], want) {
		t.Errorf("usage_x_self_creation = %v, want %v", vector.Values[idx], want)
	}
}

func TestAssembleMissingBasesAreZero(t *testing.T) {
	a := NewFeatureVectorAssembler()
	profile := &models.PlayerSeasonProfile{
		PlayerID:  "p1",
		Season:    "2024-25",
		UsageRate: models.Float(0.25),
	}

	taxed := ApplyTax(&models.ProjectedProfile{
		Profile:       profile,
		TargetUsage:   0.25,
		ObservedUsage: 0.25,
	}, 1.0, 1.0, nil)

	vector := a.Assemble(taxed, 0.25)
	idx := indexOf(t, vector.Names, "usage_x_self_creation")
	if vector.Values[idx] != 0 {
		t.Errorf("interaction over a missing base = %v, want 0", vector.Values[idx])
	}
}

func indexOf(t *testing.T, names []string, name string) int {
	t.Helper()
	for i, n := range names {
		if n == name {
			return i
		}
	}
	t.Fatalf("feature %s not in vector", name)
	return -1
}
