package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/EliranNovik/Leadify-sub026/errors"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Graph      GraphConfig
	Webhook    WebhookConfig
	Summarizer SummarizerConfig
	Pipeline   PipelineConfig
	Storage    StorageConfig
	Auth       AuthConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"graph_sync"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
}

// GraphConfig holds Microsoft Graph API configuration
type GraphConfig struct {
	TenantID     string `envconfig:"GRAPH_TENANT_ID"`
	ClientID     string `envconfig:"GRAPH_CLIENT_ID"`
	ClientSecret string `envconfig:"GRAPH_CLIENT_SECRET"`
	BaseURL      string `envconfig:"GRAPH_BASE_URL" default:"https://graph.microsoft.com/v1.0"`
	AuthorityURL string `envconfig:"GRAPH_AUTHORITY_URL" default:"https://login.microsoftonline.com"`
	Scope        string `envconfig:"GRAPH_SCOPE" default:"https://graph.microsoft.com/.default"`
}

// WebhookConfig holds inbound webhook configuration
type WebhookConfig struct {
	// NotificationURL is the public endpoint Graph delivers notifications to.
	NotificationURL string `envconfig:"WEBHOOK_NOTIFICATION_URL"`
	// ClientState is the shared secret echoed back by Graph on every delivery.
	ClientState string `envconfig:"WEBHOOK_CLIENT_STATE"`
	// SubscriptionLifetime bounds expirationDateTime on create/renew.
	SubscriptionLifetime time.Duration `envconfig:"WEBHOOK_SUBSCRIPTION_LIFETIME" default:"70h"`
	// RenewalSafetyWindow: subscriptions expiring inside it get renewed by the sweep.
	RenewalSafetyWindow time.Duration `envconfig:"WEBHOOK_RENEWAL_SAFETY_WINDOW" default:"24h"`
	SweepInterval       time.Duration `envconfig:"WEBHOOK_SWEEP_INTERVAL" default:"1h"`
	RenewalMaxAttempts  int           `envconfig:"WEBHOOK_RENEWAL_MAX_ATTEMPTS" default:"4"`
}

// SummarizerConfig holds the summarization service configuration
type SummarizerConfig struct {
	APIKey      string  `envconfig:"SUMMARIZER_API_KEY"`
	BaseURL     string  `envconfig:"SUMMARIZER_BASE_URL" default:"https://api.openai.com"`
	Model       string  `envconfig:"SUMMARIZER_MODEL" default:"gpt-4o-mini"`
	Temperature float64 `envconfig:"SUMMARIZER_TEMPERATURE" default:"0.3"`
	MaxTokens   int     `envconfig:"SUMMARIZER_MAX_TOKENS" default:"4000"`
}

// PipelineConfig holds notification pipeline tuning
type PipelineConfig struct {
	WorkerCount        int           `envconfig:"PIPELINE_WORKER_COUNT" default:"4"`
	QueueSize          int           `envconfig:"PIPELINE_QUEUE_SIZE" default:"256"`
	DedupWindow        time.Duration `envconfig:"PIPELINE_DEDUP_WINDOW" default:"30m"`
	ProcessingDeadline time.Duration `envconfig:"PIPELINE_PROCESSING_DEADLINE" default:"5m"`
	FetchMaxAttempts   int           `envconfig:"PIPELINE_FETCH_MAX_ATTEMPTS" default:"5"`
	SummaryMaxAttempts int           `envconfig:"PIPELINE_SUMMARY_MAX_ATTEMPTS" default:"3"`
	RequeueInterval    time.Duration `envconfig:"PIPELINE_REQUEUE_INTERVAL" default:"1m"`
	ReaperInterval     time.Duration `envconfig:"PIPELINE_REAPER_INTERVAL" default:"2m"`
}

// StorageConfig holds optional object storage for raw transcript archives
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"graph-transcripts"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
}

// AuthConfig holds service-to-service auth for the internal control surfaces
type AuthConfig struct {
	ServiceTokenSecret string `envconfig:"AUTH_SERVICE_TOKEN_SECRET"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration. Missing credentials are fatal at
// startup rather than discovered mid-pipeline.
func (c *Config) Validate() error {
	if c.Graph.TenantID == "" {
		return errors.ErrConfig("GRAPH_TENANT_ID")
	}
	if c.Graph.ClientID == "" {
		return errors.ErrConfig("GRAPH_CLIENT_ID")
	}
	if c.Graph.ClientSecret == "" {
		return errors.ErrConfig("GRAPH_CLIENT_SECRET")
	}
	if c.Webhook.NotificationURL == "" {
		return errors.ErrConfig("WEBHOOK_NOTIFICATION_URL")
	}
	if c.Webhook.ClientState == "" {
		return errors.ErrConfig("WEBHOOK_CLIENT_STATE")
	}
	if c.Summarizer.APIKey == "" {
		return errors.ErrConfig("SUMMARIZER_API_KEY")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// GetTokenURL returns the OAuth2 token endpoint for the configured tenant
func (c *Config) GetTokenURL() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", c.Graph.AuthorityURL, c.Graph.TenantID)
}
