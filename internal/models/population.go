package models

import "time"

// UsageBucketWidth is the width of a usage bucket in percentage points.
const UsageBucketWidth = 5

// PercentileTable holds the fixed percentile cuts the engine consults.
type PercentileTable struct {
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P40 float64 `json:"p40"`
	P50 float64 `json:"p50"`
	P60 float64 `json:"p60"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// Cut returns the value at percentile p (one of the fixed cuts).
func (t PercentileTable) Cut(p int) (float64, bool) {
	switch p {
	case 10:
		return t.P10, true
	case 25:
		return t.P25, true
	case 40:
		return t.P40, true
	case 50:
		return t.P50, true
	case 60:
		return t.P60, true
	case 75:
		return t.P75, true
	case 90:
		return t.P90, true
	}
	return 0, false
}

// PopulationStats is an immutable snapshot of corpus-level statistics.
// It is computed once per corpus version and shared read-only across
// prediction requests; Refresh produces a new snapshot, never mutates.
type PopulationStats struct {
	Version    string    `json:"version"`
	ComputedAt time.Time `json:"computed_at"`

	// Percentiles over the full population, by feature name.
	Percentiles map[string]PercentileTable `json:"percentiles"`

	// QualifiedPercentiles restrict to the high-usage reference population
	// (minimum usage and volume filters), avoiding noise from low-sample
	// players.
	QualifiedPercentiles map[string]PercentileTable `json:"qualified_percentiles"`

	// BucketMedians maps feature name -> usage bucket lower bound (in whole
	// percentage points, multiples of UsageBucketWidth) -> qualified-player
	// median of that feature within the bucket.
	BucketMedians map[string]map[int]float64 `json:"bucket_medians"`

	QualifiedCount int `json:"qualified_count"`
}

// UsageBucket returns the bucket lower bound for a usage fraction.
func UsageBucket(usage float64) int {
	pct := int(usage * 100)
	if pct < 0 {
		pct = 0
	}
	return (pct / UsageBucketWidth) * UsageBucketWidth
}

// QualifiedCut returns the percentile cut for a feature over the qualified
// population.
func (s *PopulationStats) QualifiedCut(feature string, p int) (float64, bool) {
	t, ok := s.QualifiedPercentiles[feature]
	if !ok {
		return 0, false
	}
	return t.Cut(p)
}

// PopulationCut returns the percentile cut for a feature over the full
// population.
func (s *PopulationStats) PopulationCut(feature string, p int) (float64, bool) {
	t, ok := s.Percentiles[feature]
	if !ok {
		return 0, false
	}
	return t.Cut(p)
}

// BucketMedian returns the median of feature among qualified players whose
// observed usage falls in the bucket starting at lower. The second return
// reports whether the bucket is populated.
func (s *PopulationStats) BucketMedian(feature string, lower int) (float64, bool) {
	buckets, ok := s.BucketMedians[feature]
	if !ok {
		return 0, false
	}
	m, ok := buckets[lower]
	return m, ok
}

// NearestBucketMedian finds the populated bucket closest to lower, used when
// the target bucket itself is empty.
func (s *PopulationStats) NearestBucketMedian(feature string, lower int) (float64, int, bool) {
	buckets, ok := s.BucketMedians[feature]
	if !ok || len(buckets) == 0 {
		return 0, 0, false
	}
	if m, ok := buckets[lower]; ok {
		return m, lower, true
	}
	bestDist := -1
	bestBucket := 0
	var bestMedian float64
	for b, m := range buckets {
		d := b - lower
		if d < 0 {
			d = -d
		}
		// Prefer the lower bucket on ties for determinism.
		if bestDist == -1 || d < bestDist || (d == bestDist && b < bestBucket) {
			bestDist = d
			bestBucket = b
			bestMedian = m
		}
	}
	return bestMedian, bestBucket, true
}
