package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	LLM      LLMConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Pipeline PipelineConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // postgres | sqlite
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds listener addresses
type ServerConfig struct {
	GRPCAddr string
	HTTPAddr string
}

// LLMConfig holds extraction-service configuration.
// An empty credential leaves the service unconfigured; it is not a startup error.
type LLMConfig struct {
	Provider      string // openai | vertex
	APIKey        string
	BaseURL       string
	Model         string
	Temperature   float32
	MaxTokens     int
	Timeout       time.Duration
	VertexProject string
	VertexRegion  string
}

// Configured reports whether the selected provider has its credential.
func (c LLMConfig) Configured() bool {
	if c.Provider == "vertex" {
		return strings.TrimSpace(c.VertexProject) != ""
	}
	return strings.TrimSpace(c.APIKey) != ""
}

// StorageConfig controls where document bytes are read from.
type StorageConfig struct {
	LocalRoot  string
	GCSEnabled bool
	S3Enabled  bool
	S3Region   string
	S3Endpoint string
}

// AuthConfig holds bearer-token verification settings
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// PipelineConfig tunes document processing
type PipelineConfig struct {
	DefaultConfidence float64
	PreviewLength     int
	MaxPDFPages       int
	Workers           int
	QueueSize         int
	LookupTimeout     time.Duration
}

type LogConfig struct {
	Level  string
	Format string // text | json
}

// LoadConfig loads configuration from defaults, an optional YAML file named by
// TAX1040_CONFIG, and environment variables (db.url -> DB_URL).
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("tax1040.config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return &Config{
		Database: DatabaseConfig{
			Driver:           v.GetString("db.driver"),
			DSN:              v.GetString("db.url"),
			MaxConns:         v.GetInt32("db.max_conns"),
			MinConns:         v.GetInt32("db.min_conns"),
			MaxConnLifetime:  v.GetDuration("db.max_conn_lifetime"),
			MaxConnIdleTime:  v.GetDuration("db.max_conn_idle_time"),
			DialTimeout:      v.GetDuration("db.dial_timeout"),
			StatementTimeout: v.GetDuration("db.statement_timeout"),
		},
		Server: ServerConfig{
			GRPCAddr: v.GetString("grpc.addr"),
			HTTPAddr: v.GetString("http.addr"),
		},
		LLM: LLMConfig{
			Provider:      strings.ToLower(v.GetString("llm.provider")),
			APIKey:        v.GetString("llm.api_key"),
			BaseURL:       v.GetString("llm.base_url"),
			Model:         v.GetString("llm.model"),
			Temperature:   float32(v.GetFloat64("llm.temperature")),
			MaxTokens:     v.GetInt("llm.max_tokens"),
			Timeout:       v.GetDuration("llm.timeout"),
			VertexProject: v.GetString("vertex.project"),
			VertexRegion:  v.GetString("vertex.region"),
		},
		Storage: StorageConfig{
			LocalRoot:  v.GetString("storage.local_root"),
			GCSEnabled: v.GetBool("storage.gcs_enabled"),
			S3Enabled:  v.GetBool("storage.s3_enabled"),
			S3Region:   v.GetString("storage.s3_region"),
			S3Endpoint: v.GetString("storage.s3_endpoint"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("jwt.secret"),
			Issuer:    v.GetString("jwt.issuer"),
		},
		Pipeline: PipelineConfig{
			DefaultConfidence: v.GetFloat64("pipeline.default_confidence"),
			PreviewLength:     v.GetInt("pipeline.preview_length"),
			MaxPDFPages:       v.GetInt("pipeline.max_pdf_pages"),
			Workers:           v.GetInt("pipeline.workers"),
			QueueSize:         v.GetInt("pipeline.queue_size"),
			LookupTimeout:     v.GetDuration("pipeline.lookup_timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tax1040.config", "")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.url", "")
	v.SetDefault("db.max_conns", 20)
	v.SetDefault("db.min_conns", 5)
	v.SetDefault("db.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("db.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("db.dial_timeout", 3*time.Second)
	v.SetDefault("db.statement_timeout", time.Duration(0))

	v.SetDefault("grpc.addr", ":8080")
	v.SetDefault("http.addr", ":8081")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://apps.abacus.ai/v1")
	v.SetDefault("llm.model", "gpt-4.1-mini")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 3000)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("vertex.project", "")
	v.SetDefault("vertex.region", "us-central1")

	v.SetDefault("storage.local_root", "./uploads")
	v.SetDefault("storage.gcs_enabled", false)
	v.SetDefault("storage.s3_enabled", false)
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_endpoint", "")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "")

	v.SetDefault("pipeline.default_confidence", 0.8)
	v.SetDefault("pipeline.preview_length", 500)
	v.SetDefault("pipeline.max_pdf_pages", 25)
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.queue_size", 256)
	v.SetDefault("pipeline.lookup_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks settings the daemon cannot start without.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" && c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR or HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Auth.JWTSecret == "" {
		return NewAppError("CONFIG_ERROR", "JWT_SECRET is required", ErrInvalidInput)
	}
	if c.LLM.Provider != "openai" && c.LLM.Provider != "vertex" {
		return NewAppError("CONFIG_ERROR", "LLM_PROVIDER must be openai or vertex", ErrInvalidInput)
	}
	return nil
}
