package config

import "time"

type EventsConfig struct {
	Brokers      []string      `yaml:"brokers"`
	RideTopic    string        `yaml:"ride_topic"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Enabled reports whether a broker list was configured.
func (e *EventsConfig) Enabled() bool {
	return len(e.Brokers) > 0
}

func loadEventsConfig() *EventsConfig {
	return &EventsConfig{
		Brokers:      getEnvAsSlice("KAFKA_BROKERS", nil),
		RideTopic:    getEnv("KAFKA_RIDE_TOPIC", "ride-events"),
		WriteTimeout: getEnvAsDuration("KAFKA_WRITE_TIMEOUT", 2*time.Second),
	}
}
