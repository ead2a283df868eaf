package models

import "time"

// Archetype labels. Two elite variants split by how production is generated,
// two role variants split the same way.
const (
	ArchetypeShotCreator     = "shot_creator"     // elite, self-generated volume
	ArchetypeOffBallScorer   = "off_ball_scorer"  // elite, efficiency off movement
	ArchetypeSecondaryOption = "secondary_option" // role, partial self-creation
	ArchetypeSystemDependent = "system_dependent" // role, scheme-generated
)

// Archetypes is the fixed label order used by the classifier and the
// probability redistribution step.
var Archetypes = []string{
	ArchetypeShotCreator,
	ArchetypeOffBallScorer,
	ArchetypeSecondaryOption,
	ArchetypeSystemDependent,
}

// Risk categories produced by the risk matrix.
const (
	RiskEliteSelfSufficient = "elite_self_sufficient"
	RiskEliteSystemReliant  = "elite_system_reliant"
	RiskSolidSelfSufficient = "solid_self_sufficient"
	RiskSolidSystemReliant  = "solid_system_reliant"
	RiskVolatileDependent   = "volatile_role_dependent"
	RiskReplacementLevel    = "replacement_level"
)

// GateDecision records a single gate evaluation. Decisions are retained for
// every gate, triggered or not, so "why didn't gate X fire" is answerable
// from the audit trail alone.
type GateDecision struct {
	GateID    string  `json:"gate_id"`
	Tier      int     `json:"tier"`
	Triggered bool    `json:"triggered"`
	Skipped   bool    `json:"skipped,omitempty"` // missing inputs, gate not applicable
	Cap       float64 `json:"cap,omitempty"`     // meaningful only when triggered
	Exemption string  `json:"exemption,omitempty"`
	Reason    string  `json:"reason"`
}

// FeatureVector is the exact ordered input the classifier consumes.
// Interaction terms are computed from taxed, projected bases; assembling
// them in any other order changes the numbers and is a pipeline bug.
type FeatureVector struct {
	Names  []string  `json:"names"`
	Values []float64 `json:"values"`
}

// PredictionResult is the final, immutable output of one
// (player, season, target usage) query.
type PredictionResult struct {
	PlayerID    string  `json:"player_id"`
	PlayerName  string  `json:"player_name,omitempty"`
	Season      string  `json:"season"`
	TargetUsage float64 `json:"target_usage"`

	// Probability distribution over the four archetypes, post-gating.
	Archetypes map[string]float64 `json:"archetypes"`

	// StarLevel is the sum of the two elite archetype probabilities after
	// gate caps are applied.
	StarLevel    float64 `json:"star_level"`
	RawStarLevel float64 `json:"raw_star_level"`

	Gates []GateDecision `json:"gates"`

	VolumePenalty     float64  `json:"volume_penalty"`
	EfficiencyPenalty float64  `json:"efficiency_penalty"`
	TaxSignals        []string `json:"tax_signals,omitempty"`

	DependenceScore float64 `json:"dependence_score"`
	RiskCategory    string  `json:"risk_category"`

	MissingFeatures []string  `json:"missing_features,omitempty"`
	StatsVersion    string    `json:"stats_version"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// BindingCap returns the tightest cap among triggered gates and whether any
// gate triggered at all.
func (r *PredictionResult) BindingCap() (float64, bool) {
	capped := false
	best := 1.0
	for _, d := range r.Gates {
		if d.Triggered && d.Cap < best {
			best = d.Cap
			capped = true
		}
	}
	return best, capped
}
