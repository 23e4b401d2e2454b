package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	NotificationStorePostgres = "postgres"
	NotificationStoreMongo    = "mongo"

	AuthProviderJWT      = "jwt"
	AuthProviderFirebase = "firebase"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Port     string
	Env      string
	LogLevel string

	PostgresConnStr   string
	NotificationStore string
	MongoURI          string
	MongoDatabase     string

	AuthProvider            string
	JWTSecret               string
	JWTTTL                  time.Duration
	FirebaseCredentialsPath string

	MetricsPort string

	SweepInterval   time.Duration
	RetentionWindow time.Duration
	SweepBatchSize  int
}

// Load reads the configuration from the environment. Values that are present
// but malformed are reported rather than replaced by defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		NotificationStore:       getEnv("NOTIFICATION_STORE", NotificationStorePostgres),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "discussions"),
		AuthProvider:            getEnv("AUTH_PROVIDER", AuthProviderJWT),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
	}

	var errs []error
	cfg.JWTTTL = getDuration("JWT_TTL", 72*time.Hour, &errs)
	cfg.SweepInterval = getDuration("SWEEP_INTERVAL", 24*time.Hour, &errs)
	cfg.RetentionWindow = getDuration("RETENTION_WINDOW", 30*24*time.Hour, &errs)
	cfg.SweepBatchSize = getInt("SWEEP_BATCH_SIZE", 500, &errs)

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

func (c *Config) validate() []error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.PostgresConnStr == "" {
		invalid("POSTGRES_CONN_STR is not set")
	}
	switch c.NotificationStore {
	case NotificationStorePostgres:
	case NotificationStoreMongo:
		if c.MongoURI == "" {
			invalid("MONGO_URI is required when NOTIFICATION_STORE=mongo")
		}
	default:
		invalid("NOTIFICATION_STORE must be postgres or mongo, got %q", c.NotificationStore)
	}
	switch c.AuthProvider {
	case AuthProviderJWT:
		if c.JWTSecret == "" {
			invalid("JWT_SECRET is required when AUTH_PROVIDER=jwt")
		}
	case AuthProviderFirebase:
		if c.FirebaseCredentialsPath == "" {
			invalid("FIREBASE_CREDENTIALS_PATH is required when AUTH_PROVIDER=firebase")
		}
	default:
		invalid("AUTH_PROVIDER must be jwt or firebase, got %q", c.AuthProvider)
	}
	if c.JWTTTL <= 0 {
		invalid("JWT_TTL must be positive")
	}
	if c.SweepInterval <= 0 {
		invalid("SWEEP_INTERVAL must be positive")
	}
	if c.RetentionWindow <= 0 {
		invalid("RETENTION_WINDOW must be positive")
	}
	if c.SweepBatchSize <= 0 {
		invalid("SWEEP_BATCH_SIZE must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err))
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int, errs *[]error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err))
		return defaultValue
	}
	return n
}
