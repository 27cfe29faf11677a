package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      *AppConfig      `yaml:"app"`
	Database *DatabaseConfig `yaml:"database"`
	Redis    *RedisConfig    `yaml:"redis"`
	Push     *PushConfig     `yaml:"push"`
	Maps     *MapsConfig     `yaml:"maps"`
	Matching *MatchingConfig `yaml:"matching"`
	Events   *EventsConfig   `yaml:"events"`
	Logging  *LoggingConfig  `yaml:"logging"`
	Security *SecurityConfig `yaml:"security"`
}

type AppConfig struct {
	Name        string        `yaml:"name"`
	Version     string        `yaml:"version"`
	Environment string        `yaml:"environment"`
	Port        int           `yaml:"port"`
	Host        string        `yaml:"host"`
	Debug       bool          `yaml:"debug"`
	Timezone    string        `yaml:"timezone"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type SecurityConfig struct {
	JWTSecret          string   `yaml:"jwt_secret"`
	JWTIssuer          string   `yaml:"jwt_issuer"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	TrustedProxies     []string `yaml:"trusted_proxies"`
}

const defaultJWTSecret = "your-super-secret-jwt-key"

func Load() (*Config, error) {
	config := &Config{
		App:      loadAppConfig(),
		Database: loadDatabaseConfig(),
		Redis:    loadRedisConfig(),
		Push:     loadPushConfig(),
		Maps:     loadMapsConfig(),
		Matching: loadMatchingConfig(),
		Events:   loadEventsConfig(),
		Logging:  loadLoggingConfig(),
		Security: loadSecurityConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings that cannot work in the configured environment.
func (c *Config) Validate() error {
	if c.Matching.AverageSpeedKMH <= 0 {
		return errors.New("MATCHING_AVERAGE_SPEED_KMH must be positive")
	}
	if c.Matching.DefaultCandidates <= 0 {
		return errors.New("MATCHING_DEFAULT_CANDIDATES must be positive")
	}
	if c.Matching.MaxRetries < 0 {
		return errors.New("RIDE_MAX_RETRIES must not be negative")
	}
	if c.App.Environment == "production" {
		if c.Security.JWTSecret == "" || c.Security.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be set in production")
		}
		if c.Maps.Provider == "google" && c.Maps.GoogleMaps.APIKey == "" {
			return errors.New("GOOGLE_MAPS_API_KEY must be set when MAPS_PROVIDER=google")
		}
	}
	return nil
}

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:        getEnv("APP_NAME", "RideShare"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnvAsInt("APP_PORT", 8080),
		Host:        getEnv("APP_HOST", "0.0.0.0"),
		Debug:       getEnvAsBool("APP_DEBUG", true),
		Timezone:    getEnv("APP_TIMEZONE", "UTC"),
		ReadTimeout: getEnvAsDuration("APP_READ_TIMEOUT", 15*time.Second),
		IdleTimeout: getEnvAsDuration("APP_IDLE_TIMEOUT", 60*time.Second),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		JWTIssuer:          getEnv("JWT_ISSUER", ""),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
