package logic

import (
	"fmt"
	"math"

	"github.com/courtlab/archetype-api/internal/models"
)

// softmaxClassifier is the default ArchetypeClassifier: a multinomial
// logistic model over the assembled vector. The coefficient table below is
// the fitted model exported from the research corpus; training lives
// outside this repo and the engine only relies on the I/O contract (four
// labels, probabilities summing to 1), so any replacement model can be
// swapped in behind the interface.
type softmaxClassifier struct {
	// weights[label] has one bias term followed by one coefficient per
	// vector position, in vectorLayout order.
	weights map[string][]float64
}

// NewSoftmaxClassifier returns the default classifier with the exported
// coefficient table.
func NewSoftmaxClassifier() ArchetypeClassifier {
	return &softmaxClassifier{weights: fittedWeights}
}

// fittedWeights: bias, then coefficients for
// usage, self_creation, creation_eff_d, clutch_usage_d, clutch_eff_d,
// contested_rate, contested_eff, rim_pressure, open_shot_reliance,
// shot_quality_d, and the four usage-interaction terms.
var fittedWeights = map[string][]float64{
	models.ArchetypeShotCreator: {
		-2.10, 3.40, 4.10, 2.60, 1.90, 1.40, 1.10, 0.60, 0.90, -1.80, 0.70, 2.20, 1.50, 0.80, 0.40,
	},
	models.ArchetypeOffBallScorer: {
		-1.35, 1.10, -0.60, 1.80, 0.40, 2.30, -0.50, 2.10, 0.80, 1.60, 1.90, -0.40, 0.90, 0.30, -0.20,
	},
	models.ArchetypeSecondaryOption: {
		-0.40, -0.80, 0.90, -0.70, -0.30, -0.40, 0.80, -0.30, 0.40, 0.50, -0.60, 0.30, -0.50, -0.20, 0.30,
	},
	models.ArchetypeSystemDependent: {
		0.95, -2.40, -3.10, -2.30, -1.60, -2.00, -1.30, -1.50, -1.20, 2.40, -1.50, -1.70, -1.10, -0.60, -0.30,
	},
}

// Predict returns the probability distribution over the four archetypes.
func (c *softmaxClassifier) Predict(vector models.FeatureVector) (map[string]float64, error) {
	logits := make(map[string]float64, len(models.Archetypes))
	maxLogit := math.Inf(-1)

	for _, label := range models.Archetypes {
		w, ok := c.weights[label]
		if !ok {
			return nil, fmt.Errorf("classifier: no weights for label %s", label)
		}
		if len(w) != len(vector.Values)+1 {
			return nil, fmt.Errorf("classifier: weight length %d does not match vector length %d", len(w), len(vector.Values))
		}
		z := w[0]
		for i, v := range vector.Values {
			z += w[i+1] * v
		}
		logits[label] = z
		if z > maxLogit {
			maxLogit = z
		}
	}

	// Softmax with max subtraction for numeric stability.
	var sum float64
	probs := make(map[string]float64, len(logits))
	for label, z := range logits {
		e := math.Exp(z - maxLogit)
		probs[label] = e
		sum += e
	}
	for label := range probs {
		probs[label] /= sum
	}

	return probs, nil
}
