package models

// Feature names used across the engine, population statistics and the
// ClickHouse feature table. Column names in nba_stats.player_season_features
// match these exactly.
const (
	FeatUsageRate         = "usage_rate"
	FeatSelfCreationShare = "self_creation_share"
	FeatCreationEffDelta  = "creation_eff_delta"
	FeatClutchUsageDelta  = "clutch_usage_delta"
	FeatClutchEffDelta    = "clutch_eff_delta"
	FeatContestedRate     = "contested_attempt_rate"
	FeatContestedEff      = "contested_eff"
	FeatRimPressureRate   = "rim_pressure_rate"
	FeatOpenShotReliance  = "open_shot_reliance"
	FeatShotQualityDelta  = "shot_quality_delta"
)

// VolumeCorrelatedFeatures are replaced by empirical bucket medians when a
// profile is projected to a different usage level. The relationship between
// usage and these signals is non-linear across the population, so linear
// scaling is never used.
var VolumeCorrelatedFeatures = []string{
	FeatSelfCreationShare,
	FeatClutchUsageDelta,
	FeatContestedRate,
}

// CriticalFeatures feed the data-completeness gate: a profile missing most
// of these cannot support a trustworthy archetype call.
var CriticalFeatures = []string{
	FeatSelfCreationShare,
	FeatCreationEffDelta,
	FeatClutchUsageDelta,
	FeatClutchEffDelta,
	FeatContestedRate,
	FeatOpenShotReliance,
}

// PlayerSeasonProfile is one player's season-level feature snapshot.
// Feature fields are pointers: nil means the feature was absent from the
// corpus, which is explicit and never coerced to zero. The profile is
// read-only once fetched.
type PlayerSeasonProfile struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name,omitempty"`
	Season     string `json:"season"`

	UsageRate         *float64 `json:"usage_rate,omitempty"`
	SelfCreationShare *float64 `json:"self_creation_share,omitempty"`
	CreationEffDelta  *float64 `json:"creation_eff_delta,omitempty"`
	ClutchUsageDelta  *float64 `json:"clutch_usage_delta,omitempty"`
	ClutchEffDelta    *float64 `json:"clutch_eff_delta,omitempty"`
	ContestedRate     *float64 `json:"contested_attempt_rate,omitempty"`
	ContestedEff      *float64 `json:"contested_eff,omitempty"`
	RimPressureRate   *float64 `json:"rim_pressure_rate,omitempty"`
	OpenShotReliance  *float64 `json:"open_shot_reliance,omitempty"`
	ShotQualityDelta  *float64 `json:"shot_quality_delta,omitempty"`

	// Sample-size counters backing the reliability gates.
	ClutchMinutes     *float64 `json:"clutch_minutes,omitempty"`
	ContestedAttempts *float64 `json:"contested_attempts,omitempty"`

	Age *int `json:"age,omitempty"`
}

// Feature returns the named feature value and whether it is present.
func (p *PlayerSeasonProfile) Feature(name string) (float64, bool) {
	var v *float64
	switch name {
	case FeatUsageRate:
		v = p.UsageRate
	case FeatSelfCreationShare:
		v = p.SelfCreationShare
	case FeatCreationEffDelta:
		v = p.CreationEffDelta
	case FeatClutchUsageDelta:
		v = p.ClutchUsageDelta
	case FeatClutchEffDelta:
		v = p.ClutchEffDelta
	case FeatContestedRate:
		v = p.ContestedRate
	case FeatContestedEff:
		v = p.ContestedEff
	case FeatRimPressureRate:
		v = p.RimPressureRate
	case FeatOpenShotReliance:
		v = p.OpenShotReliance
	case FeatShotQualityDelta:
		v = p.ShotQualityDelta
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// SetFeature overwrites the named feature. Used only by the projection and
// tax stages, which operate on copies.
func (p *PlayerSeasonProfile) SetFeature(name string, value float64) {
	v := value
	switch name {
	case FeatUsageRate:
		p.UsageRate = &v
	case FeatSelfCreationShare:
		p.SelfCreationShare = &v
	case FeatCreationEffDelta:
		p.CreationEffDelta = &v
	case FeatClutchUsageDelta:
		p.ClutchUsageDelta = &v
	case FeatClutchEffDelta:
		p.ClutchEffDelta = &v
	case FeatContestedRate:
		p.ContestedRate = &v
	case FeatContestedEff:
		p.ContestedEff = &v
	case FeatRimPressureRate:
		p.RimPressureRate = &v
	case FeatOpenShotReliance:
		p.OpenShotReliance = &v
	case FeatShotQualityDelta:
		p.ShotQualityDelta = &v
	}
}

// Clone returns a deep copy so transforms never mutate the fetched snapshot.
func (p *PlayerSeasonProfile) Clone() *PlayerSeasonProfile {
	c := *p
	c.UsageRate = clonePtr(p.UsageRate)
	c.SelfCreationShare = clonePtr(p.SelfCreationShare)
	c.CreationEffDelta = clonePtr(p.CreationEffDelta)
	c.ClutchUsageDelta = clonePtr(p.ClutchUsageDelta)
	c.ClutchEffDelta = clonePtr(p.ClutchEffDelta)
	c.ContestedRate = clonePtr(p.ContestedRate)
	c.ContestedEff = clonePtr(p.ContestedEff)
	c.RimPressureRate = clonePtr(p.RimPressureRate)
	c.OpenShotReliance = clonePtr(p.OpenShotReliance)
	c.ShotQualityDelta = clonePtr(p.ShotQualityDelta)
	c.ClutchMinutes = clonePtr(p.ClutchMinutes)
	c.ContestedAttempts = clonePtr(p.ContestedAttempts)
	if p.Age != nil {
		a := *p.Age
		c.Age = &a
	}
	return &c
}

// MissingCritical lists the critical features absent from the profile.
func (p *PlayerSeasonProfile) MissingCritical() []string {
	var missing []string
	for _, name := range CriticalFeatures {
		if _, ok := p.Feature(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float returns a pointer to v. Convenience for building profiles in tests
// and the seeder.
func Float(v float64) *float64 { return &v }

// ProjectedProfile is a profile transformed to a hypothetical usage level.
// ReplacedFeatures records which features were swapped for bucket medians.
type ProjectedProfile struct {
	Profile          *PlayerSeasonProfile `json:"profile"`
	TargetUsage      float64              `json:"target_usage"`
	ObservedUsage    float64              `json:"observed_usage"`
	ReplacedFeatures []string             `json:"replaced_features,omitempty"`
}

// TaxedProfile is a projected profile with the system-dependence penalty
// applied. Penalties are multiplicative scalars in (0,1]; 1.0 means exempt
// or no signals fired.
type TaxedProfile struct {
	Projected         *ProjectedProfile `json:"projected"`
	VolumePenalty     float64           `json:"volume_penalty"`
	EfficiencyPenalty float64           `json:"efficiency_penalty"`
	AppliedSignals    []string          `json:"applied_signals,omitempty"`
}
