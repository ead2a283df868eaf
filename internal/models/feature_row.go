package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureRow is one ingested player-season feature record as posted by a
// data provider. Feature fields are pointers so a provider can omit a
// feature it could not derive; the ingest path never backfills zeros.
type FeatureRow struct {
	PlayerID   string `json:"player_id" validate:"required"`
	PlayerName string `json:"player_name"`
	Season     string `json:"season" validate:"required"`
	SourceID   string `json:"source_id"`

	UsageRate         *float64 `json:"usage_rate" validate:"omitempty,gte=0,lte=1"`
	SelfCreationShare *float64 `json:"self_creation_share"`
	CreationEffDelta  *float64 `json:"creation_eff_delta"`
	ClutchUsageDelta  *float64 `json:"clutch_usage_delta"`
	ClutchEffDelta    *float64 `json:"clutch_eff_delta"`
	ContestedRate     *float64 `json:"contested_attempt_rate"`
	ContestedEff      *float64 `json:"contested_eff"`
	RimPressureRate   *float64 `json:"rim_pressure_rate"`
	OpenShotReliance  *float64 `json:"open_shot_reliance"`
	ShotQualityDelta  *float64 `json:"shot_quality_delta"`

	ClutchMinutes     *float64 `json:"clutch_minutes"`
	ContestedAttempts *float64 `json:"contested_attempts"`
	TotalMinutes      *float64 `json:"total_minutes"`

	Age *int `json:"age"`

	ObservedAt float64 `json:"observed_at"` // Unix seconds, optional
}

// Profile converts an ingested row to the read-only prediction input.
func (r *FeatureRow) Profile() *PlayerSeasonProfile {
	return &PlayerSeasonProfile{
		PlayerID:          r.PlayerID,
		PlayerName:        r.PlayerName,
		Season:            r.Season,
		UsageRate:         r.UsageRate,
		SelfCreationShare: r.SelfCreationShare,
		CreationEffDelta:  r.CreationEffDelta,
		ClutchUsageDelta:  r.ClutchUsageDelta,
		ClutchEffDelta:    r.ClutchEffDelta,
		ContestedRate:     r.ContestedRate,
		ContestedEff:      r.ContestedEff,
		RimPressureRate:   r.RimPressureRate,
		OpenShotReliance:  r.OpenShotReliance,
		ShotQualityDelta:  r.ShotQualityDelta,
		ClutchMinutes:     r.ClutchMinutes,
		ContestedAttempts: r.ContestedAttempts,
		Age:               r.Age,
	}
}

// ObservedTime resolves the row's observation timestamp, falling back to
// fallback when the provider sent nothing usable.
func (r *FeatureRow) ObservedTime(fallback time.Time) time.Time {
	if r.ObservedAt > 0 {
		sec := int64(r.ObservedAt)
		nsec := int64((r.ObservedAt - float64(sec)) * 1e9)
		return time.Unix(sec, nsec)
	}
	return fallback
}

// featureRowFieldMap caches JSON tag -> struct field index mappings
var (
	featureRowFieldMap     map[string]int
	featureRowFieldMapOnce sync.Once
)

func getFeatureRowFieldMap() map[string]int {
	featureRowFieldMapOnce.Do(func() {
		t := reflect.TypeOf(FeatureRow{})
		featureRowFieldMap = make(map[string]int, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("json")
			if tag == "" || tag == "-" {
				continue
			}
			name := strings.Split(tag, ",")[0]
			featureRowFieldMap[name] = i
		}
	})
	return featureRowFieldMap
}

// UnmarshalJSON implements flexible JSON unmarshaling that accepts both
// string-encoded and native numeric values. Some provider export pipelines
// serialize every value as a quoted string; this coerces them transparently
// while keeping absent fields absent.
func (r *FeatureRow) UnmarshalJSON(data []byte) error {
	// Alias prevents infinite recursion
	type Alias FeatureRow
	a := (*Alias)(r)

	// Fast path: try standard unmarshal (works when all types match natively)
	if err := json.Unmarshal(data, a); err == nil {
		return nil
	}

	// Slow path: field-by-field with string-to-native coercion
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex unmarshal: %w", err)
	}

	fieldMap := getFeatureRowFieldMap()
	v := reflect.ValueOf(a).Elem()

	for key, rawVal := range raw {
		idx, ok := fieldMap[key]
		if !ok {
			continue
		}

		fv := v.Field(idx)
		if !fv.CanSet() {
			continue
		}

		// Try direct unmarshal first
		ptr := reflect.New(fv.Type())
		if err := json.Unmarshal(rawVal, ptr.Interface()); err == nil {
			fv.Set(ptr.Elem())
			continue
		}

		// Value is a JSON string but target is numeric, coerce
		if len(rawVal) > 1 && rawVal[0] == '"' {
			var s string
			if err := json.Unmarshal(rawVal, &s); err != nil {
				continue
			}
			if s == "" {
				continue
			}
			coerceStringToField(fv, s)
		}
	}

	return nil
}

// coerceStringToField converts a string value to the field's native type.
// Pointer fields are allocated so the coerced value stays distinguishable
// from an absent one.
func coerceStringToField(fv reflect.Value, s string) {
	if fv.Kind() == reflect.Pointer {
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return
		}
		elem := reflect.New(fv.Type().Elem())
		coerceStringToField(elem.Elem(), s)
		fv.Set(elem)
		return
	}
	switch fv.Kind() {
	case reflect.Float32, reflect.Float64:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			fv.SetFloat(n)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// ParseFloat handles "28.5" → truncate to int
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			fv.SetInt(int64(n))
		}
	case reflect.String:
		fv.SetString(s)
	}
}
