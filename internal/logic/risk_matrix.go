package logic

import (
	"github.com/courtlab/archetype-api/internal/config"
	"github.com/courtlab/archetype-api/internal/models"
)

// RiskMatrixSynthesizer maps the gated star composite and the dependence
// score to one of six risk categories through a fixed 3x3 lookup.
type RiskMatrixSynthesizer struct {
	t config.Thresholds
}

func NewRiskMatrixSynthesizer(t config.Thresholds) *RiskMatrixSynthesizer {
	return &RiskMatrixSynthesizer{t: t}
}

// Synthesize resolves the risk category. The Dependence Law runs first and
// admits no exemption: above the law cut, no performance level reaches the
// elite self-sufficient tier; the ceiling is elite system-reliant.
func (s *RiskMatrixSynthesizer) Synthesize(performance, dependence float64) string {
	category := s.lookup(performance, dependence)
	if dependence > s.t.DependenceLawCut && category == models.RiskEliteSelfSufficient {
		return models.RiskEliteSystemReliant
	}
	return category
}

func (s *RiskMatrixSynthesizer) lookup(performance, dependence float64) string {
	perfHigh := performance >= s.t.PerformanceHigh
	perfLow := performance < s.t.PerformanceLow
	depHigh := dependence >= s.t.RiskDependenceHigh
	depLow := dependence < s.t.RiskDependenceLow

	switch {
	case perfHigh && depLow:
		return models.RiskEliteSelfSufficient
	case perfHigh:
		// Moderate or high dependence: elite output that travels only with
		// the right ecosystem.
		return models.RiskEliteSystemReliant
	case perfLow:
		return models.RiskReplacementLevel
	case depLow:
		return models.RiskSolidSelfSufficient
	case depHigh:
		return models.RiskVolatileDependent
	default:
		return models.RiskSolidSystemReliant
	}
}
