package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv isolates a test from variables set on the machine running it
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

var configKeys = []string{
	"CONFIG_FILE", "SERVER_ADDRESS", "PORT", "ENVIRONMENT", "NODE_ENV", "STORAGE_BACKEND",
	"BLOB_BACKEND", "BLOB_BUCKET", "TABLE_NAME", "DYNAMODB_TABLE", "JWT_SECRET", "JWT_EXPIRY",
	"EMAIL_ENABLED", "EMAIL_FROM", "CACHE_TTL", "ENABLE_CORS", "AWS_REGION",
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t, configKeys...)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.ServerAddress)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "dynamodb", cfg.StorageBackend)
	assert.Equal(t, "s3", cfg.BlobBackend)
	assert.Equal(t, "hirenest", cfg.DynamoDBTable)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.NotEmpty(t, cfg.JWTSecret, "development gets a fallback secret")
	assert.True(t, cfg.EnableCORS)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	clearEnv(t, configKeys...)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: staging
storage_backend: memory
blob_backend: memory
cache_ttl: 30s
sender_email: no-reply@hirenest.dev
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "8080")
	t.Setenv("CACHE_TTL", "2m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "memory", cfg.StorageBackend)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL, "environment wins over the file")
	assert.True(t, cfg.EmailEnabled, "a configured sender enables email")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearEnv(t, configKeys...)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:    "production",
			StorageBackend: "dynamodb",
			DynamoDBTable:  "hirenest",
			BlobBackend:    "s3",
			BlobBucket:     "uploads",
			JWTSecret:      "secret",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown storage", mutate: func(c *Config) { c.StorageBackend = "postgres" }, wantErr: "STORAGE_BACKEND"},
		{name: "unknown blob backend", mutate: func(c *Config) { c.BlobBackend = "ftp" }, wantErr: "BLOB_BACKEND"},
		{name: "production needs a secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "production needs a bucket", mutate: func(c *Config) { c.BlobBucket = "" }, wantErr: "BLOB_BUCKET"},
		{name: "email needs a sender", mutate: func(c *Config) { c.EmailEnabled = true }, wantErr: "EMAIL_FROM"},
		{name: "development is lenient", mutate: func(c *Config) { c.Environment = "development"; c.JWTSecret = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
