package config

import "time"

// MatchingConfig tunes driver matching, ETA estimation and ride mutations.
type MatchingConfig struct {
	DefaultCandidates int           `yaml:"default_candidates"`
	CandidateLimit    int           `yaml:"candidate_limit"`
	RadiusKM          float64       `yaml:"radius_km"`
	AverageSpeedKMH   float64       `yaml:"average_speed_kmh"`
	Concurrency       int           `yaml:"concurrency"`
	ETACacheTTL       time.Duration `yaml:"eta_cache_ttl"`
	StoreTimeout      time.Duration `yaml:"store_timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	DriverCacheTTL    time.Duration `yaml:"driver_cache_ttl"`
}

func loadMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		DefaultCandidates: getEnvAsInt("MATCHING_DEFAULT_CANDIDATES", 5),
		CandidateLimit:    getEnvAsInt("MATCHING_CANDIDATE_LIMIT", 50),
		RadiusKM:          getEnvAsFloat64("MATCHING_RADIUS_KM", 10),
		AverageSpeedKMH:   getEnvAsFloat64("MATCHING_AVERAGE_SPEED_KMH", 30),
		Concurrency:       getEnvAsInt("MATCHING_CONCURRENCY", 8),
		ETACacheTTL:       getEnvAsDuration("ETA_CACHE_TTL", 5*time.Minute),
		StoreTimeout:      getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),
		MaxRetries:        getEnvAsInt("RIDE_MAX_RETRIES", 3),
		DriverCacheTTL:    getEnvAsDuration("DRIVER_CACHE_TTL", 10*time.Minute),
	}
}
