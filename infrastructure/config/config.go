package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string        `yaml:"server_address"`
	Environment     string        `yaml:"environment"`
	ClientURL       string        `yaml:"client_url"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Storage backend: dynamodb or memory
	StorageBackend string `yaml:"storage_backend"`

	// AWS configuration
	AWSRegion     string `yaml:"aws_region"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	IndexName     string `yaml:"index_name"` // GSI1 - per-owner listings
	EventBusName  string `yaml:"event_bus_name"`

	// Blob store: s3, gcs or memory
	BlobBackend   string `yaml:"blob_backend"`
	BlobBucket    string `yaml:"blob_bucket"`
	BlobPublicURL string `yaml:"blob_public_url"`

	// GCS only; empty uses application default credentials
	GCSCredentialsFile string `yaml:"gcs_credentials_file"`

	// Email
	EmailEnabled     bool          `yaml:"email_enabled"`
	SenderEmail      string        `yaml:"sender_email"`
	SenderName       string        `yaml:"sender_name"`
	EmailWorkers     int           `yaml:"email_workers"`
	EmailQueueSize   int           `yaml:"email_queue_size"`
	EmailSendTimeout time.Duration `yaml:"email_send_timeout"`

	// AI text transform
	OpenAIAPIKey  string        `yaml:"openai_api_key"`
	OpenAIModel   string        `yaml:"openai_model"`
	OpenAIBaseURL string        `yaml:"openai_base_url"`
	AITimeout     time.Duration `yaml:"ai_timeout"`

	// Profile cache; empty address selects the in-process cache
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`

	// Lambda configuration
	IsLambda           bool   `yaml:"is_lambda"`
	LambdaFunctionName string `yaml:"lambda_function_name"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	JWTSecret      string        `yaml:"jwt_secret"`
	JWTIssuer      string        `yaml:"jwt_issuer"`
	JWTExpiry      time.Duration `yaml:"jwt_expiry"`
	AuthRateLimit  int           `yaml:"auth_rate_limit"`
	AuthRateWindow time.Duration `yaml:"auth_rate_window"`

	// Tracing
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Feature flags
	EnableMetrics        bool `yaml:"enable_metrics"`
	EnableTracing        bool `yaml:"enable_tracing"`
	EnableXRay           bool `yaml:"enable_xray"`
	EnableCORS           bool `yaml:"enable_cors"`
	EnableEvents         bool `yaml:"enable_events"`
	DistributedRateLimit bool `yaml:"distributed_rate_limit"`
}

// LoadConfig loads configuration from a .env file (when present), the YAML
// file named by CONFIG_FILE (when set) and environment variables, in
// increasing order of priority.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables; values already set from the YAML
// file act as the defaults.
func applyEnv(c *Config) {
	c.ServerAddress = getEnv("SERVER_ADDRESS", or(c.ServerAddress, ":"+getEnv("PORT", "5000")))
	c.Environment = getEnv("ENVIRONMENT", getEnv("NODE_ENV", or(c.Environment, "development")))
	c.ClientURL = getEnv("CLIENT_URL", or(c.ClientURL, "http://localhost:5173"))
	c.ReadTimeout = getEnvDuration("READ_TIMEOUT", orDuration(c.ReadTimeout, 30*time.Second))
	c.WriteTimeout = getEnvDuration("WRITE_TIMEOUT", orDuration(c.WriteTimeout, 90*time.Second))
	c.IdleTimeout = getEnvDuration("IDLE_TIMEOUT", orDuration(c.IdleTimeout, 120*time.Second))
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", orDuration(c.ShutdownTimeout, 15*time.Second))

	c.StorageBackend = strings.ToLower(getEnv("STORAGE_BACKEND", or(c.StorageBackend, "dynamodb")))

	c.AWSRegion = getEnv("AWS_REGION", or(c.AWSRegion, "us-west-2"))
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", or(c.DynamoDBTable, "hirenest")))
	c.IndexName = getEnv("INDEX_NAME", or(c.IndexName, "GSI1"))
	c.EventBusName = getEnv("EVENT_BUS_NAME", or(c.EventBusName, "hirenest-events"))

	c.BlobBackend = strings.ToLower(getEnv("BLOB_BACKEND", or(c.BlobBackend, "s3")))
	c.BlobBucket = getEnv("BLOB_BUCKET", or(c.BlobBucket, "hirenest-uploads"))
	c.BlobPublicURL = getEnv("BLOB_PUBLIC_URL", c.BlobPublicURL)
	c.GCSCredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.GCSCredentialsFile)

	c.EmailEnabled = getEnvBool("EMAIL_ENABLED", c.EmailEnabled || c.SenderEmail != "")
	c.SenderEmail = getEnv("EMAIL_FROM", c.SenderEmail)
	c.SenderName = getEnv("EMAIL_FROM_NAME", or(c.SenderName, "HireNest"))
	c.EmailWorkers = getEnvInt("EMAIL_WORKERS", orInt(c.EmailWorkers, 2))
	c.EmailQueueSize = getEnvInt("EMAIL_QUEUE_SIZE", orInt(c.EmailQueueSize, 100))
	c.EmailSendTimeout = getEnvDuration("EMAIL_SEND_TIMEOUT", orDuration(c.EmailSendTimeout, 10*time.Second))

	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIModel = getEnv("OPENAI_MODEL", or(c.OpenAIModel, "gpt-4o-mini"))
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.AITimeout = getEnvDuration("AI_TIMEOUT", orDuration(c.AITimeout, 60*time.Second))

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.CacheTTL = getEnvDuration("CACHE_TTL", orDuration(c.CacheTTL, 5*time.Minute))

	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda)
	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", c.LambdaFunctionName)

	c.LogLevel = getEnv("LOG_LEVEL", or(c.LogLevel, "info"))

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	if c.JWTSecret == "" && c.Environment != "production" {
		c.JWTSecret = "hirenest-development-secret"
	}
	c.JWTIssuer = getEnv("JWT_ISSUER", or(c.JWTIssuer, "hirenest"))
	c.JWTExpiry = getEnvDuration("JWT_EXPIRY", orDuration(c.JWTExpiry, 24*time.Hour))
	c.AuthRateLimit = getEnvInt("AUTH_RATE_LIMIT", orInt(c.AuthRateLimit, 20))
	c.AuthRateWindow = getEnvDuration("AUTH_RATE_WINDOW", orDuration(c.AuthRateWindow, time.Minute))

	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableXRay = getEnvBool("ENABLE_XRAY", c.EnableXRay)
	c.EnableCORS = getEnvBool("ENABLE_CORS", true)
	c.EnableEvents = getEnvBool("ENABLE_EVENTS", c.EnableEvents)
	c.DistributedRateLimit = getEnvBool("DISTRIBUTED_RATE_LIMIT", c.DistributedRateLimit)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "dynamodb", "memory":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	switch c.BlobBackend {
	case "s3", "gcs", "memory":
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StorageBackend == "dynamodb" && c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
		if c.BlobBackend != "memory" && c.BlobBucket == "" {
			return fmt.Errorf("BLOB_BUCKET is required")
		}
		if c.EmailEnabled && c.SenderEmail == "" {
			return fmt.Errorf("EMAIL_FROM is required when email is enabled")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func orInt(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
}

func orDuration(value, fallback time.Duration) time.Duration {
	if value != 0 {
		return value
	}
	return fallback
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration parses a Go duration string such as "30s"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
