package logic

import (
	"github.com/courtlab/archetype-api/internal/models"
)

// vectorLayout is the exact feature order the classifier was fitted on.
// Base features first, then usage-interaction terms.
var vectorLayout = []string{
	models.FeatUsageRate,
	models.FeatSelfCreationShare,
	models.FeatCreationEffDelta,
	models.FeatClutchUsageDelta,
	models.FeatClutchEffDelta,
	models.FeatContestedRate,
	models.FeatContestedEff,
	models.FeatRimPressureRate,
	models.FeatOpenShotReliance,
	models.FeatShotQualityDelta,
	"usage_x_self_creation",
	"usage_x_creation_eff",
	"usage_x_clutch_usage",
	"usage_x_contested_rate",
}

// interactionBases maps each interaction term to the base feature it
// multiplies with target usage.
var interactionBases = map[string]string{
	"usage_x_self_creation":  models.FeatSelfCreationShare,
	"usage_x_creation_eff":   models.FeatCreationEffDelta,
	"usage_x_clutch_usage":   models.FeatClutchUsageDelta,
	"usage_x_contested_rate": models.FeatContestedRate,
}

// FeatureVectorAssembler builds the classifier input from a taxed, projected
// profile. The ordering is a hard pipeline invariant: the model was trained
// on features prepared tax→project→interact, so interaction terms must be
// computed from the already-taxed bases. Taxing an interaction computed from
// raw bases yields a different number and silently degrades the model.
type FeatureVectorAssembler struct{}

func NewFeatureVectorAssembler() *FeatureVectorAssembler {
	return &FeatureVectorAssembler{}
}

// Assemble produces the ordered vector. Missing base features contribute
// zero to the vector (the classifier's coefficients were fitted with the
// same convention); missingness itself is handled by the Tier-2 gates, not
// here.
func (a *FeatureVectorAssembler) Assemble(taxed *models.TaxedProfile, targetUsage float64) models.FeatureVector {
	profile := taxed.Projected.Profile

	values := make([]float64, len(vectorLayout))
	for i, name := range vectorLayout {
		if base, ok := interactionBases[name]; ok {
			if v, present := profile.Feature(base); present {
				values[i] = targetUsage * v
			}
			continue
		}
		if v, present := profile.Feature(name); present {
			values[i] = v
		}
	}

	return models.FeatureVector{Names: vectorLayout, Values: values}
}
