package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ZoneConfig describes one delivery zone from configuration.
type ZoneConfig struct {
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RadiusMeters float64 `json:"radius_meters"`
}

// Config carries every runtime setting of the engine.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// AmqpURL selects RabbitMQ as the job queue. When empty the engine
	// falls back to the in-process queue, which is only suitable for a
	// single instance.
	AmqpURL   string
	RedisAddr string

	Zones []ZoneConfig

	CycleSchedule              string
	LockTTL                    time.Duration
	DriverSpeedMetersPerSecond float64
	MaxRouteStops              int

	QueueMaxAttempts int
	QueueBaseDelay   time.Duration
	QueueMaxDelay    time.Duration
	QueueJobTimeout  time.Duration
}

// LoadConfig reads the configuration from environment variables. Settings
// without a default are required.
func LoadConfig() (Config, error) {
	config := Config{
		HTTPPort:      envOr("HTTP_PORT", "8080"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        envOr("DB_PORT", "5432"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBSslMode:     envOr("DB_SSLMODE", "disable"),
		AmqpURL:       os.Getenv("AMQP_URL"),
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		CycleSchedule: envOr("CYCLE_SCHEDULE", "0 * * * * *"),
	}

	for _, required := range []struct{ key, value string }{
		{"DB_HOST", config.DBHost},
		{"DB_USER", config.DBUser},
		{"DB_PASSWORD", config.DBPassword},
		{"DB_NAME", config.DBName},
	} {
		if required.value == "" {
			return Config{}, fmt.Errorf("missing required environment variable %s", required.key)
		}
	}

	var err error
	if config.Zones, err = parseZones(os.Getenv("ZONES")); err != nil {
		return Config{}, err
	}
	if config.LockTTL, err = envDuration("LOCK_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if config.DriverSpeedMetersPerSecond, err = envFloat("DRIVER_SPEED_MPS", 8.0); err != nil {
		return Config{}, err
	}
	if config.MaxRouteStops, err = envInt("MAX_ROUTE_STOPS", 10); err != nil {
		return Config{}, err
	}
	if config.QueueMaxAttempts, err = envInt("QUEUE_MAX_ATTEMPTS", 5); err != nil {
		return Config{}, err
	}
	if config.QueueBaseDelay, err = envDuration("QUEUE_BASE_DELAY", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if config.QueueMaxDelay, err = envDuration("QUEUE_MAX_DELAY", 30*time.Second); err != nil {
		return Config{}, err
	}
	if config.QueueJobTimeout, err = envDuration("QUEUE_JOB_TIMEOUT", time.Minute); err != nil {
		return Config{}, err
	}

	return config, nil
}

// DatabaseDSN builds the postgres connection string.
func (c Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// parseZones decodes the ZONES variable, a JSON array of zone definitions:
//
//	[{"name":"center","lat":52.37,"lng":4.89,"radius_meters":3000}]
//
// An empty variable means no zones are configured and every order lands in
// the unzoned bucket.
func parseZones(raw string) ([]ZoneConfig, error) {
	if raw == "" {
		return nil, nil
	}

	var zones []ZoneConfig
	if err := json.Unmarshal([]byte(raw), &zones); err != nil {
		return nil, fmt.Errorf("failed to parse ZONES: %w", err)
	}
	return zones, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return value, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return value, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return value, nil
}
