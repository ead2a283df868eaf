// Command seeder posts synthetic player-season feature rows to a running
// archetype-api instance. Useful for local development and smoke testing
// the ingest path end to end.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"
)

type featureRow struct {
	PlayerID          string    `json:"player_id"`
	PlayerName        string    `json:"player_name"`
	Season            string    `json:"season"`
	UsageRate         float64   `json:"usage_rate"`
	SelfCreationShare float64   `json:"self_creation_share"`
	CreationEffDelta  float64   `json:"creation_eff_delta"`
	ClutchUsageDelta  float64   `json:"clutch_usage_delta"`
	ClutchEffDelta    float64   `json:"clutch_eff_delta"`
	ContestedRate     float64   `json:"contested_attempt_rate"`
	ContestedEff      float64   `json:"contested_eff"`
	RimPressureRate   float64   `json:"rim_pressure_rate"`
	OpenShotReliance  float64   `json:"open_shot_reliance"`
	ShotQualityDelta  float64   `json:"shot_quality_delta"`
	ClutchMinutes     float64   `json:"clutch_minutes"`
	ContestedAttempts float64   `json:"contested_attempts"`
	TotalMinutes      float64   `json:"total_minutes"`
	Age               int       `json:"age"`
	ObservedAt        time.Time `json:"observed_at"`
}

var firstNames = []string{"Jalen", "Marcus", "Devin", "Tyrese", "Anthony", "Cade", "Paolo", "Scottie", "Franz", "Evan"}
var lastNames = []string{"Carter", "Brooks", "Hayes", "Mitchell", "Rivers", "Holloway", "Vasquez", "Okafor", "Lindqvist", "Barnes"}

func syntheticRow(rng *rand.Rand, i int, season string) featureRow {
	usage := 0.14 + rng.Float64()*0.20
	share := 0.15 + rng.Float64()*0.55
	return featureRow{
		PlayerID:          fmt.Sprintf("seed-%04d", i),
		PlayerName:        fmt.Sprintf("%s %s", firstNames[rng.Intn(len(firstNames))], lastNames[rng.Intn(len(lastNames))]),
		Season:            season,
		UsageRate:         usage,
		SelfCreationShare: share,
		CreationEffDelta:  rng.NormFloat64() * 0.05,
		ClutchUsageDelta:  rng.NormFloat64() * 0.04,
		ClutchEffDelta:    rng.NormFloat64() * 0.06,
		ContestedRate:     0.20 + rng.Float64()*0.30,
		ContestedEff:      0.38 + rng.Float64()*0.18,
		RimPressureRate:   0.05 + rng.Float64()*0.30,
		OpenShotReliance:  0.30 + rng.Float64()*0.55,
		ShotQualityDelta:  rng.NormFloat64() * 0.04,
		ClutchMinutes:     20 + rng.Float64()*180,
		ContestedAttempts: 50 + rng.Float64()*400,
		TotalMinutes:      400 + rng.Float64()*2200,
		Age:               19 + rng.Intn(17),
		ObservedAt:        time.Now().UTC(),
	}
}

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Base URL of the archetype API")
		token   = flag.String("token", "", "Source token for the ingest endpoint")
		count   = flag.Int("count", 200, "Number of synthetic rows to post")
		season  = flag.String("season", "2025-26", "Season to stamp on generated rows")
		seed    = flag.Int64("seed", 0, "RNG seed (0 uses current time)")
	)
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "seeder: -token is required")
		os.Exit(1)
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for i := 0; i < *count; i++ {
		if err := enc.Encode(syntheticRow(rng, i, *season)); err != nil {
			fmt.Fprintf(os.Stderr, "seeder: encode row %d: %v\n", i, err)
			os.Exit(1)
		}
	}

	req, err := http.NewRequest(http.MethodPost, *baseURL+"/api/v1/ingest/features", &body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seeder: build request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	req.Header.Set("X-Source-Token", *token)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seeder: post: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusAccepted {
		fmt.Fprintf(os.Stderr, "seeder: unexpected status %d: %s\n", resp.StatusCode, respBody)
		os.Exit(1)
	}
	fmt.Printf("seeder: posted %d rows: %s\n", *count, respBody)
}
