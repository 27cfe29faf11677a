package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "APP_ENV", "MATCHING_DEFAULT_CANDIDATES", "MATCHING_AVERAGE_SPEED_KMH",
		"RIDE_MAX_RETRIES", "STORE_TIMEOUT", "KAFKA_BROKERS", "MAPS_PROVIDER", "ETA_CACHE_TTL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Matching.DefaultCandidates != 5 {
		t.Errorf("DefaultCandidates = %d, want 5", cfg.Matching.DefaultCandidates)
	}
	if cfg.Matching.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Matching.MaxRetries)
	}
	if cfg.Matching.StoreTimeout != 5*time.Second {
		t.Errorf("StoreTimeout = %v, want 5s", cfg.Matching.StoreTimeout)
	}
	if cfg.Matching.ETACacheTTL != 5*time.Minute {
		t.Errorf("ETACacheTTL = %v, want 5m", cfg.Matching.ETACacheTTL)
	}
	if cfg.Events.Enabled() {
		t.Error("events should be disabled without brokers")
	}
	if cfg.Maps.Provider != "" {
		t.Errorf("Maps.Provider = %q, want empty", cfg.Maps.Provider)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t, "APP_ENV")
	t.Setenv("MATCHING_DEFAULT_CANDIDATES", "3")
	t.Setenv("MATCHING_RADIUS_KM", "2.5")
	t.Setenv("RIDE_MAX_RETRIES", "7")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Matching.DefaultCandidates != 3 || cfg.Matching.RadiusKM != 2.5 || cfg.Matching.MaxRetries != 7 {
		t.Errorf("matching = %+v", cfg.Matching)
	}
	if cfg.Matching.StoreTimeout != 750*time.Millisecond {
		t.Errorf("StoreTimeout = %v", cfg.Matching.StoreTimeout)
	}
	if !cfg.Events.Enabled() || len(cfg.Events.Brokers) != 2 || cfg.Events.Brokers[1] != "kafka-2:9092" {
		t.Errorf("brokers = %q", cfg.Events.Brokers)
	}
	if len(cfg.Security.CORSAllowedOrigins) != 2 {
		t.Errorf("origins = %q", cfg.Security.CORSAllowedOrigins)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	clearEnv(t, "APP_ENV")
	t.Setenv("MATCHING_DEFAULT_CANDIDATES", "many")
	t.Setenv("STORE_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Matching.DefaultCandidates != 5 || cfg.Matching.StoreTimeout != 5*time.Second {
		t.Errorf("malformed values should fall back to defaults, got %+v", cfg.Matching)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero candidates", map[string]string{"MATCHING_DEFAULT_CANDIDATES": "0"}},
		{"negative retries", map[string]string{"RIDE_MAX_RETRIES": "-1"}},
		{"zero speed", map[string]string{"MATCHING_AVERAGE_SPEED_KMH": "0"}},
		{"production default secret", map[string]string{"APP_ENV": "production", "JWT_SECRET": ""}},
		{"production google without key", map[string]string{
			"APP_ENV": "production", "JWT_SECRET": "s3cret", "MAPS_PROVIDER": "google", "GOOGLE_MAPS_API_KEY": "",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t, "APP_ENV", "MATCHING_DEFAULT_CANDIDATES", "RIDE_MAX_RETRIES", "MATCHING_AVERAGE_SPEED_KMH", "MAPS_PROVIDER")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestValidateProductionWithSecret(t *testing.T) {
	clearEnv(t, "MAPS_PROVIDER", "MATCHING_DEFAULT_CANDIDATES", "RIDE_MAX_RETRIES", "MATCHING_AVERAGE_SPEED_KMH")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")

	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
