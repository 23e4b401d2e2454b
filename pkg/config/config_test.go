package config

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "ENV", "LOG_LEVEL", "POSTGRES_CONN_STR", "NOTIFICATION_STORE", "MONGO_URI",
	"MONGO_DATABASE", "AUTH_PROVIDER", "JWT_SECRET", "JWT_TTL", "FIREBASE_CREDENTIALS_PATH",
	"METRICS_PORT", "SWEEP_INTERVAL", "RETENTION_WINDOW", "SWEEP_BATCH_SIZE",
}

func setEnv(t *testing.T, values map[string]string) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, values[key])
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, map[string]string{
		"POSTGRES_CONN_STR": "postgres://localhost/discussions",
		"JWT_SECRET":        "s3cret",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, NotificationStorePostgres, cfg.NotificationStore)
	assert.Equal(t, AuthProviderJWT, cfg.AuthProvider)
	assert.Equal(t, "discussions", cfg.MongoDatabase)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 24*time.Hour, cfg.SweepInterval)
	assert.Equal(t, 30*24*time.Hour, cfg.RetentionWindow)
	assert.Equal(t, 500, cfg.SweepBatchSize)
	assert.Equal(t, "9090", cfg.MetricsPort)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, map[string]string{
		"POSTGRES_CONN_STR":         "postgres://db/discussions",
		"ENV":                       "production",
		"NOTIFICATION_STORE":        "mongo",
		"MONGO_URI":                 "mongodb://mongo:27017",
		"AUTH_PROVIDER":             "firebase",
		"FIREBASE_CREDENTIALS_PATH": "/etc/firebase.json",
		"SWEEP_INTERVAL":            "1h",
		"RETENTION_WINDOW":          "48h",
		"SWEEP_BATCH_SIZE":          "50",
		"LOG_LEVEL":                 "debug",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, NotificationStoreMongo, cfg.NotificationStore)
	assert.Equal(t, AuthProviderFirebase, cfg.AuthProvider)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, 48*time.Hour, cfg.RetentionWindow)
	assert.Equal(t, 50, cfg.SweepBatchSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"missing postgres", map[string]string{"JWT_SECRET": "s"}},
		{"missing jwt secret", map[string]string{"POSTGRES_CONN_STR": "pg"}},
		{"mongo without uri", map[string]string{"POSTGRES_CONN_STR": "pg", "JWT_SECRET": "s", "NOTIFICATION_STORE": "mongo"}},
		{"unknown store", map[string]string{"POSTGRES_CONN_STR": "pg", "JWT_SECRET": "s", "NOTIFICATION_STORE": "redis"}},
		{"firebase without credentials", map[string]string{"POSTGRES_CONN_STR": "pg", "AUTH_PROVIDER": "firebase"}},
		{"unknown provider", map[string]string{"POSTGRES_CONN_STR": "pg", "AUTH_PROVIDER": "saml"}},
		{"bad duration", map[string]string{"POSTGRES_CONN_STR": "pg", "JWT_SECRET": "s", "SWEEP_INTERVAL": "daily"}},
		{"negative retention", map[string]string{"POSTGRES_CONN_STR": "pg", "JWT_SECRET": "s", "RETENTION_WINDOW": "-1h"}},
		{"bad batch size", map[string]string{"POSTGRES_CONN_STR": "pg", "JWT_SECRET": "s", "SWEEP_BATCH_SIZE": "many"}},
		{"zero batch size", map[string]string{"POSTGRES_CONN_STR": "pg", "JWT_SECRET": "s", "SWEEP_BATCH_SIZE": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.values)
			_, err := Load()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	setEnv(t, map[string]string{"POSTGRES_CONN_STR": "pg", "JWT_SECRET": "s", "LOG_LEVEL": "chatty"})
	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn", false)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "comment_id", "c1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "c1", entry["comment_id"])

	_, err = NewLogger(&buf, "loud", false)
	assert.ErrorIs(t, err, ErrInvalidLogLevel)

	pretty, err := NewLogger(&buf, "debug", true)
	require.NoError(t, err)
	assert.NotNil(t, pretty)
}
