package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Log      LogConfig
	Dispatch DispatchConfig
	Matrix   MatrixConfig
	Kafka    KafkaConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	TxTimeout       time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	IdempotencyTTL time.Duration
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// LogConfig holds logger configuration. An empty File logs to stdout.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DispatchConfig holds the batch scheduler configuration.
type DispatchConfig struct {
	Interval        time.Duration
	TickTimeout     time.Duration
	BatchSize       int
	DepotLat        float64
	DepotLng        float64
	VehiclePolicy   string // first_idle | nearest_idle
	NearestRadiusKm float64
	PositionMaxAge  time.Duration // zero keeps positions forever
	LockEnabled     bool
	LockTTL         time.Duration
}

// MatrixConfig holds the travel-time oracle configuration.
type MatrixConfig struct {
	Provider     string // osrm | google
	OSRMBaseURL  string
	OSRMProfile  string
	Timeout      time.Duration
	GoogleAPIKey string
	CacheTTL     time.Duration // zero disables caching
}

// KafkaConfig holds the domain event publisher configuration. No brokers disables publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Vehicle selection policies.
const (
	VehiclePolicyFirstIdle   = "first_idle"
	VehiclePolicyNearestIdle = "nearest_idle"
)

// Matrix providers.
const (
	MatrixProviderOSRM   = "osrm"
	MatrixProviderGoogle = "google"
)

// maxMatrixPoints is the largest point list a provider answers for one tick:
// OSRM's default max-table-size, and 5x5 Google tiles.
var maxMatrixPoints = map[string]int{
	MatrixProviderOSRM:   100,
	MatrixProviderGoogle: 50,
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "ridepool"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TxTimeout:       getDurationEnv("DB_TX_TIMEOUT", 5*time.Second),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", "localhost:6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getIntEnv("REDIS_DB", 0),
			IdempotencyTTL: getDurationEnv("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "ridepool-dispatch"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "text"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getIntEnv("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getIntEnv("LOG_MAX_BACKUPS", 7),
			MaxAgeDays: getIntEnv("LOG_MAX_AGE_DAYS", 7),
		},
		Dispatch: DispatchConfig{
			Interval:        getDurationEnv("DISPATCH_INTERVAL", 30*time.Second),
			TickTimeout:     getDurationEnv("DISPATCH_TICK_TIMEOUT", 20*time.Second),
			BatchSize:       getIntEnv("DISPATCH_BATCH_SIZE", 24),
			DepotLat:        getFloatEnv("DEPOT_LAT", 10.7769),
			DepotLng:        getFloatEnv("DEPOT_LNG", 106.7009),
			VehiclePolicy:   strings.ToLower(getEnv("DISPATCH_VEHICLE_POLICY", VehiclePolicyFirstIdle)),
			NearestRadiusKm: getFloatEnv("DISPATCH_NEAREST_RADIUS_KM", 10),
			PositionMaxAge:  getDurationEnv("DISPATCH_POSITION_MAX_AGE", 10*time.Minute),
			LockEnabled:     getBoolEnv("DISPATCH_LOCK_ENABLED", true),
			LockTTL:         getDurationEnv("DISPATCH_LOCK_TTL", 60*time.Second),
		},
		Matrix: MatrixConfig{
			Provider:     strings.ToLower(getEnv("MATRIX_PROVIDER", MatrixProviderOSRM)),
			OSRMBaseURL:  strings.TrimRight(getEnv("OSRM_BASE_URL", "http://router.project-osrm.org"), "/"),
			OSRMProfile:  getEnv("OSRM_PROFILE", "driving"),
			Timeout:      getDurationEnv("MATRIX_TIMEOUT", 5*time.Second),
			GoogleAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
			CacheTTL:     getDurationEnv("MATRIX_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitAndTrim(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "ridepool.dispatch"),
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	d := c.Dispatch
	if !isFinite(d.DepotLat) || !isFinite(d.DepotLng) || d.DepotLat < -90 || d.DepotLat > 90 || d.DepotLng < -180 || d.DepotLng > 180 {
		errs = append(errs, fmt.Errorf("invalid depot coordinate %v,%v", d.DepotLat, d.DepotLng))
	}
	if d.Interval <= 0 {
		errs = append(errs, errors.New("DISPATCH_INTERVAL must be > 0"))
	}
	if d.TickTimeout <= 0 {
		errs = append(errs, errors.New("DISPATCH_TICK_TIMEOUT must be > 0"))
	}
	if d.BatchSize <= 0 {
		errs = append(errs, errors.New("DISPATCH_BATCH_SIZE must be > 0"))
	}
	if limit, ok := maxMatrixPoints[c.Matrix.Provider]; ok && d.BatchSize > 0 && matrixPoints(d.BatchSize) > limit {
		errs = append(errs, fmt.Errorf("DISPATCH_BATCH_SIZE %d needs %d matrix points, %s accepts at most %d",
			d.BatchSize, matrixPoints(d.BatchSize), c.Matrix.Provider, limit))
	}
	if d.LockEnabled && d.LockTTL <= d.TickTimeout {
		errs = append(errs, errors.New("DISPATCH_LOCK_TTL must exceed DISPATCH_TICK_TIMEOUT"))
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= d.TickTimeout {
		errs = append(errs, errors.New("SERVER_WRITE_TIMEOUT must exceed DISPATCH_TICK_TIMEOUT"))
	}
	if d.VehiclePolicy != VehiclePolicyFirstIdle && d.VehiclePolicy != VehiclePolicyNearestIdle {
		errs = append(errs, fmt.Errorf("unknown DISPATCH_VEHICLE_POLICY %q", d.VehiclePolicy))
	}
	if c.Database.TxTimeout <= 0 {
		errs = append(errs, errors.New("DB_TX_TIMEOUT must be > 0"))
	}
	if c.Matrix.Timeout <= 0 {
		errs = append(errs, errors.New("MATRIX_TIMEOUT must be > 0"))
	}

	switch c.Matrix.Provider {
	case MatrixProviderOSRM:
		if c.Matrix.OSRMBaseURL == "" {
			errs = append(errs, errors.New("OSRM_BASE_URL is required for the osrm provider"))
		}
	case MatrixProviderGoogle:
		if c.Matrix.GoogleAPIKey == "" {
			errs = append(errs, errors.New("GOOGLE_MAPS_API_KEY is required for the google provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MATRIX_PROVIDER %q", c.Matrix.Provider))
	}

	return errors.Join(errs...)
}

// matrixPoints is the depot plus a pickup and a dropoff per request.
func matrixPoints(batchSize int) int {
	return 2*batchSize + 1
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitAndTrim(v string) []string {
	if v == "" {
		return nil
	}
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
