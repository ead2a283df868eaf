package logic

import (
	"fmt"

	"github.com/courtlab/archetype-api/internal/config"
	"github.com/courtlab/archetype-api/internal/models"
)

// Gate identifiers, in evaluation order.
const (
	GateClutchFragility  = "clutch_fragility"
	GateAbdication       = "abdication"
	GateCreationFragile  = "creation_fragility"
	GateMissingLeverage  = "missing_leverage_data"
	GateDataCompleteness = "data_completeness"
	GateSampleSize       = "sample_size"
	GateInefficiency     = "inefficiency"
	GateBagCheck         = "bag_check"
	GateCompoundFragile  = "compound_fragility"
	GateSystemMerchant   = "system_merchant"
)

// gateContext is the read-only input every gate predicate sees. Gates
// evaluate the observed profile, not the projected one: a fatal flaw in the
// season that happened is a flaw at any hypothetical usage.
type gateContext struct {
	profile    *models.PlayerSeasonProfile
	pop        *models.PopulationStats
	dependence float64
}

type exemption struct {
	name    string
	applies func(*gateContext) bool
}

// gate is one deterministic rule: a trigger predicate, a cap on the star
// composite, and ordered exemptions. applicable=false means the inputs the
// predicate needs are missing and the gate is recorded as skipped, except
// for the Tier-2 data gates, whose whole purpose is to fire on missing data.
type gate struct {
	id         string
	tier       int
	cap        float64
	condition  func(*gateContext) (triggered bool, applicable bool, reason string)
	exemptions []exemption
}

// GatePipeline is the ordered, tiered rule table layered over the raw
// classifier output. Tiers are priority, not time: fatal flaws first, data
// quality second, contextual rules third. Every gate is evaluated and its
// decision retained even when an earlier gate already bound the cap, so the
// audit trail always explains the whole table.
type GatePipeline struct {
	gates []gate
}

func NewGatePipeline(t config.Thresholds) *GatePipeline {
	return &GatePipeline{gates: buildGates(t)}
}

// Evaluate runs the table in order and returns every decision plus the
// binding cap (1.0 when nothing triggered).
func (p *GatePipeline) Evaluate(profile *models.PlayerSeasonProfile, pop *models.PopulationStats, dependence float64) ([]models.GateDecision, float64) {
	gctx := &gateContext{profile: profile, pop: pop, dependence: dependence}

	decisions := make([]models.GateDecision, 0, len(p.gates))
	bindingCap := 1.0

	for _, g := range p.gates {
		d := models.GateDecision{GateID: g.id, Tier: g.tier}

		triggered, applicable, reason := g.condition(gctx)
		if !applicable {
			d.Skipped = true
			d.Reason = reason
			decisions = append(decisions, d)
			continue
		}
		d.Reason = reason

		if triggered {
			exempted := false
			for _, ex := range g.exemptions {
				if ex.applies(gctx) {
					d.Exemption = ex.name
					exempted = true
					break
				}
			}
			if !exempted {
				d.Triggered = true
				d.Cap = g.cap
				if g.cap < bindingCap {
					bindingCap = g.cap
				}
			}
		}

		decisions = append(decisions, d)
	}

	return decisions, bindingCap
}

// RedistributeProbabilities applies a cap to the elite composite and hands
// the freed probability mass to the role archetypes in proportion to their
// raw weight, demoting the top label rather than zeroing it. Returns the
// adjusted distribution and the capped composite.
func RedistributeProbabilities(probs map[string]float64, cap float64) (map[string]float64, float64) {
	adjusted := make(map[string]float64, len(probs))
	for k, v := range probs {
		adjusted[k] = v
	}

	elite := probs[models.ArchetypeShotCreator] + probs[models.ArchetypeOffBallScorer]
	if elite <= cap {
		return adjusted, elite
	}

	scale := 0.0
	if elite > 0 {
		scale = cap / elite
	}
	adjusted[models.ArchetypeShotCreator] = probs[models.ArchetypeShotCreator] * scale
	adjusted[models.ArchetypeOffBallScorer] = probs[models.ArchetypeOffBallScorer] * scale

	freed := elite - cap
	role := probs[models.ArchetypeSecondaryOption] + probs[models.ArchetypeSystemDependent]
	if role > 0 {
		adjusted[models.ArchetypeSecondaryOption] += freed * probs[models.ArchetypeSecondaryOption] / role
		adjusted[models.ArchetypeSystemDependent] += freed * probs[models.ArchetypeSystemDependent] / role
	} else {
		adjusted[models.ArchetypeSecondaryOption] += freed / 2
		adjusted[models.ArchetypeSystemDependent] += freed / 2
	}

	return adjusted, cap
}

func buildGates(t config.Thresholds) []gate {
	return []gate{
		// ---- Tier 1: fatal flaws ----
		{
			id: GateClutchFragility, tier: 1, cap: t.FatalCap,
			// Missing-data policy: skip; absence is handled by the
			// missing_leverage_data gate below, which fires conservatively.
			condition: func(g *gateContext) (bool, bool, string) {
				ce, ok := g.profile.Feature(models.FeatClutchEffDelta)
				if !ok {
					return false, false, "clutch_eff_delta absent"
				}
				if ce < t.ClutchFragilityDelta {
					return true, true, fmt.Sprintf("clutch efficiency collapses (%.3f < %.3f)", ce, t.ClutchFragilityDelta)
				}
				return false, true, "clutch efficiency holds under pressure"
			},
		},
		{
			id: GateAbdication, tier: 1, cap: t.FatalCap,
			condition: func(g *gateContext) (bool, bool, string) {
				cu, cuOK := g.profile.Feature(models.FeatClutchUsageDelta)
				ce, ceOK := g.profile.Feature(models.FeatClutchEffDelta)
				if !cuOK || !ceOK {
					return false, false, "clutch deltas absent"
				}
				if cu < t.AbdicationUsageDelta {
					return true, true, fmt.Sprintf("usage abdicated in clutch (%.3f, efficiency response %.3f)", cu, ce)
				}
				return false, true, "no clutch abdication pattern"
			},
			exemptions: []exemption{
				{
					// Efficiency spikes as usage drops: deferring was the right read.
					name: "smart_deference",
					applies: func(g *gateContext) bool {
						ce, ok := g.profile.Feature(models.FeatClutchEffDelta)
						return ok && ce > t.AbdicationEffCeiling
					},
				},
				{
					// An engine already at an extreme usage baseline cannot scale
					// upward; a shallow drop is not abdication.
					name: "high_usage_immunity",
					applies: func(g *gateContext) bool {
						u, uOK := g.profile.Feature(models.FeatUsageRate)
						cu, cuOK := g.profile.Feature(models.FeatClutchUsageDelta)
						return uOK && cuOK && u > t.HighUsageImmunity && cu > t.HighUsageShallowDrop
					},
				},
			},
		},
		{
			id: GateCreationFragile, tier: 1, cap: t.FatalCap,
			condition: func(g *gateContext) (bool, bool, string) {
				cd, ok := g.profile.Feature(models.FeatCreationEffDelta)
				if !ok {
					return false, false, "creation_eff_delta absent"
				}
				if cd < t.CreationFragilityCut {
					return true, true, fmt.Sprintf("efficiency collapses when self-creating (%.3f < %.3f)", cd, t.CreationFragilityCut)
				}
				return false, true, "self-creation efficiency acceptable"
			},
			exemptions: []exemption{
				{
					// Two-path exemption: extreme creation volume, or a dropoff
					// shallow enough to coexist with elite billing.
					name: "elite_creator",
					applies: func(g *gateContext) bool {
						share, shareOK := g.profile.Feature(models.FeatSelfCreationShare)
						cd, cdOK := g.profile.Feature(models.FeatCreationEffDelta)
						if shareOK && share > t.EliteCreatorShare {
							return true
						}
						return cdOK && cd > t.EliteCreatorDeltaPath
					},
				},
				{
					// Frontcourt playstyles stabilize through rim pressure
					// rather than jump-shot creation. Continuous proxy, no
					// position tags.
					name: "elite_rim_force",
					applies: func(g *gateContext) bool {
						rim, ok := g.profile.Feature(models.FeatRimPressureRate)
						return ok && rim > t.EliteRimForceRate
					},
				},
				{
					name: "young_player_upside",
					applies: func(g *gateContext) bool {
						if g.profile.Age == nil || *g.profile.Age >= t.YoungPlayerMaxAge {
							return false
						}
						for _, f := range []string{models.FeatClutchUsageDelta, models.FeatClutchEffDelta, models.FeatShotQualityDelta} {
							if v, ok := g.profile.Feature(f); ok && v > 0 {
								return true
							}
						}
						return false
					},
				},
			},
		},

		// ---- Tier 2: data quality (missing data triggers, never skips) ----
		{
			id: GateMissingLeverage, tier: 2, cap: t.FatalCap,
			condition: func(g *gateContext) (bool, bool, string) {
				_, cuOK := g.profile.Feature(models.FeatClutchUsageDelta)
				_, ceOK := g.profile.Feature(models.FeatClutchEffDelta)
				if !cuOK || !ceOK {
					return true, true, "leverage deltas absent; fatal-flaw gates could not be checked"
				}
				if g.profile.ClutchMinutes == nil || *g.profile.ClutchMinutes < t.MinClutchMinutes {
					return true, true, fmt.Sprintf("clutch sample below %.0f minutes", t.MinClutchMinutes)
				}
				return false, true, "leverage data present and sampled"
			},
		},
		{
			id: GateDataCompleteness, tier: 2, cap: t.FatalCap,
			condition: func(g *gateContext) (bool, bool, string) {
				present := len(models.CriticalFeatures) - len(g.profile.MissingCritical())
				if present < t.MinCriticalFeatures {
					return true, true, fmt.Sprintf("only %d of %d critical features present", present, len(models.CriticalFeatures))
				}
				return false, true, fmt.Sprintf("%d of %d critical features present", present, len(models.CriticalFeatures))
			},
		},
		{
			id: GateSampleSize, tier: 2, cap: t.FatalCap,
			condition: func(g *gateContext) (bool, bool, string) {
				// Tiny samples produce spuriously perfect efficiency; cap
				// rather than trust them. An unrecorded counter is treated
				// the same as a thin one: the sample cannot be verified.
				if g.profile.ContestedAttempts == nil {
					return true, true, "contested-shot sample unrecorded"
				}
				if *g.profile.ContestedAttempts < t.MinContestedAttempts {
					return true, true, fmt.Sprintf("contested-shot sample %.0f below %.0f", *g.profile.ContestedAttempts, t.MinContestedAttempts)
				}
				if g.profile.ClutchMinutes == nil {
					return true, true, "clutch sample unrecorded"
				}
				if *g.profile.ClutchMinutes < t.MinClutchMinutes {
					return true, true, fmt.Sprintf("clutch sample %.0f below %.0f minutes", *g.profile.ClutchMinutes, t.MinClutchMinutes)
				}
				return false, true, "samples above reliability thresholds"
			},
		},

		// ---- Tier 3: contextual ----
		{
			id: GateInefficiency, tier: 3, cap: t.InefficientCap,
			condition: func(g *gateContext) (bool, bool, string) {
				eff, ok := g.profile.Feature(models.FeatContestedEff)
				if !ok {
					return false, false, "contested_eff absent"
				}
				cut, cutOK := g.pop.PopulationCut(models.FeatContestedEff, 25)
				if !cutOK {
					return false, false, "population percentiles unavailable"
				}
				if eff < cut {
					return true, true, fmt.Sprintf("isolation efficiency %.3f below population p25 %.3f", eff, cut)
				}
				return false, true, "isolation efficiency above population p25"
			},
		},
		{
			id: GateBagCheck, tier: 3, cap: t.ContextualCap,
			condition: func(g *gateContext) (bool, bool, string) {
				share, shareOK := g.profile.Feature(models.FeatSelfCreationShare)
				usage, usageOK := g.profile.Feature(models.FeatUsageRate)
				if !shareOK || !usageOK {
					return false, false, "self-creation inputs absent"
				}
				freq := share * usage
				if freq < t.BagCheckFrequency {
					return true, true, fmt.Sprintf("self-created shot frequency %.3f below %.2f; needs a dedicated generator", freq, t.BagCheckFrequency)
				}
				return false, true, "generates own looks at sufficient frequency"
			},
		},
		{
			id: GateCompoundFragile, tier: 3, cap: t.CompoundCap,
			condition: func(g *gateContext) (bool, bool, string) {
				cd, cdOK := g.profile.Feature(models.FeatCreationEffDelta)
				ce, ceOK := g.profile.Feature(models.FeatClutchEffDelta)
				if !cdOK || !ceOK {
					return false, false, "compound inputs absent"
				}
				// Rim pressure forgives only the creation half of the
				// conjunction; there is no rim answer to clutch collapse.
				creationFragile := cd < t.CompoundCreationCut
				if rim, ok := g.profile.Feature(models.FeatRimPressureRate); ok && rim > t.EliteRimForceRate {
					creationFragile = false
				}
				if creationFragile && ce < t.CompoundClutchCut {
					return true, true, fmt.Sprintf("creation (%.3f) and clutch (%.3f) both collapse", cd, ce)
				}
				return false, true, "no compound collapse"
			},
		},
		{
			id: GateSystemMerchant, tier: 3, cap: t.ContextualCap,
			condition: func(g *gateContext) (bool, bool, string) {
				if g.dependence > t.DependenceHigh {
					return true, true, fmt.Sprintf("dependence %.3f above %.2f regardless of usage", g.dependence, t.DependenceHigh)
				}
				usage, usageOK := g.profile.Feature(models.FeatUsageRate)
				rim, rimOK := g.profile.Feature(models.FeatRimPressureRate)
				if usageOK && rimOK &&
					usage > t.DependenceUsageFloor &&
					g.dependence > t.DependenceModerate &&
					rim < t.DependenceRimFloor {
					return true, true, fmt.Sprintf("high usage %.3f with moderate dependence %.3f and low rim pressure %.3f", usage, g.dependence, rim)
				}
				return false, true, "production not system-generated"
			},
		},
	}
}
