package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Database URLs
	PostgresURL   string
	ClickHouseURL string
	RedisURL      string

	// Ingest worker pool
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration

	// Population statistics
	StatsCacheTTL       time.Duration
	MinQualifiedMinutes float64 // minimum minutes to enter the qualified population
	MinQualifiedUsage   float64 // minimum usage to enter the qualified population

	Thresholds Thresholds
}

// Thresholds carries every empirically tuned cut the engine consults.
// These were tuned against a small set of historical validation cases and
// are not assumed optimal, so all of them are overridable per deployment.
type Thresholds struct {
	// Tier 1: fatal flaws
	ClutchFragilityDelta  float64 // clutch_eff_delta below this caps the ceiling
	AbdicationUsageDelta  float64 // clutch_usage_delta below this signals abdication
	AbdicationEffCeiling  float64 // ...unless clutch_eff_delta exceeds this ("smart deference")
	HighUsageImmunity     float64 // observed usage above this grants abdication immunity
	HighUsageShallowDrop  float64 // ...when the usage drop stays shallower than this
	CreationFragilityCut  float64 // creation_eff_delta below this is a fatal flaw
	EliteCreatorShare     float64 // self-creation share for the elite-creator exemption
	EliteCreatorDeltaPath float64 // creation_eff_delta above this is the second exemption path
	EliteRimForceRate     float64 // rim_pressure_rate for the rim-force exemption
	YoungPlayerMaxAge     int

	// Tier 2: data quality
	MinClutchMinutes     float64
	MinContestedAttempts float64
	MinCriticalFeatures  int

	// Tier 3: contextual
	BagCheckFrequency    float64 // minimum self-created shot frequency for elite billing
	CompoundCreationCut  float64
	CompoundClutchCut    float64
	DependenceHigh       float64 // dependence alone above this caps the ceiling
	DependenceModerate   float64
	DependenceUsageFloor float64
	DependenceRimFloor   float64

	// Gate caps
	FatalCap       float64
	ContextualCap  float64
	CompoundCap    float64
	InefficientCap float64

	// Signal tax multipliers
	TaxPrimary   float64
	TaxSecondary float64

	// Risk matrix axes
	PerformanceHigh    float64
	PerformanceLow     float64
	RiskDependenceHigh float64
	RiskDependenceLow  float64
	DependenceLawCut   float64
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		WorkerCount:   getEnvInt("WORKER_COUNT", 4),
		QueueSize:     getEnvInt("QUEUE_SIZE", 10000),
		BatchSize:     getEnvInt("BATCH_SIZE", 500),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 1*time.Second),

		StatsCacheTTL:       getEnvDuration("STATS_CACHE_TTL", 6*time.Hour),
		MinQualifiedMinutes: getEnvFloat("MIN_QUALIFIED_MINUTES", 500),
		MinQualifiedUsage:   getEnvFloat("MIN_QUALIFIED_USAGE", 0.15),

		Thresholds: LoadThresholds(),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	rawOrigins := strings.Split(origins, ",")
	for _, o := range rawOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.ClickHouseURL, err = getEnvRequired("CLICKHOUSE_URL"); err != nil {
		return nil, err
	}
	if cfg.RedisURL, err = getEnvRequired("REDIS_URL"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadThresholds reads the tuned cuts with their documented defaults.
func LoadThresholds() Thresholds {
	return Thresholds{
		ClutchFragilityDelta:  getEnvFloat("GATE_CLUTCH_FRAGILITY_DELTA", -0.10),
		AbdicationUsageDelta:  getEnvFloat("GATE_ABDICATION_USAGE_DELTA", -0.05),
		AbdicationEffCeiling:  getEnvFloat("GATE_ABDICATION_EFF_CEILING", 0.05),
		HighUsageImmunity:     getEnvFloat("GATE_HIGH_USAGE_IMMUNITY", 0.30),
		HighUsageShallowDrop:  getEnvFloat("GATE_HIGH_USAGE_SHALLOW_DROP", -0.10),
		CreationFragilityCut:  getEnvFloat("GATE_CREATION_FRAGILITY_CUT", -0.15),
		EliteCreatorShare:     getEnvFloat("GATE_ELITE_CREATOR_SHARE", 0.65),
		EliteCreatorDeltaPath: getEnvFloat("GATE_ELITE_CREATOR_DELTA", -0.10),
		EliteRimForceRate:     getEnvFloat("GATE_ELITE_RIM_FORCE", 0.20),
		YoungPlayerMaxAge:     getEnvInt("GATE_YOUNG_PLAYER_MAX_AGE", 22),

		MinClutchMinutes:     getEnvFloat("GATE_MIN_CLUTCH_MINUTES", 25),
		MinContestedAttempts: getEnvFloat("GATE_MIN_CONTESTED_ATTEMPTS", 50),
		MinCriticalFeatures:  getEnvInt("GATE_MIN_CRITICAL_FEATURES", 4),

		BagCheckFrequency:    getEnvFloat("GATE_BAG_CHECK_FREQUENCY", 0.10),
		CompoundCreationCut:  getEnvFloat("GATE_COMPOUND_CREATION_CUT", -0.10),
		CompoundClutchCut:    getEnvFloat("GATE_COMPOUND_CLUTCH_CUT", -0.05),
		DependenceHigh:       getEnvFloat("GATE_DEPENDENCE_HIGH", 0.60),
		DependenceModerate:   getEnvFloat("GATE_DEPENDENCE_MODERATE", 0.45),
		DependenceUsageFloor: getEnvFloat("GATE_DEPENDENCE_USAGE_FLOOR", 0.28),
		DependenceRimFloor:   getEnvFloat("GATE_DEPENDENCE_RIM_FLOOR", 0.12),

		FatalCap:       getEnvFloat("GATE_FATAL_CAP", 0.30),
		ContextualCap:  getEnvFloat("GATE_CONTEXTUAL_CAP", 0.30),
		CompoundCap:    getEnvFloat("GATE_COMPOUND_CAP", 0.0),
		InefficientCap: getEnvFloat("GATE_INEFFICIENT_CAP", 0.40),

		TaxPrimary:   getEnvFloat("TAX_PRIMARY_MULTIPLIER", 0.50),
		TaxSecondary: getEnvFloat("TAX_SECONDARY_MULTIPLIER", 0.80),

		PerformanceHigh:    getEnvFloat("RISK_PERFORMANCE_HIGH", 0.70),
		PerformanceLow:     getEnvFloat("RISK_PERFORMANCE_LOW", 0.30),
		RiskDependenceHigh: getEnvFloat("RISK_DEPENDENCE_HIGH", 0.45),
		RiskDependenceLow:  getEnvFloat("RISK_DEPENDENCE_LOW", 0.36),
		DependenceLawCut:   getEnvFloat("RISK_DEPENDENCE_LAW_CUT", 0.60),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
