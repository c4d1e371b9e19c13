package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the runtime configuration read from the environment
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Env         string `envconfig:"ENV" default:"development"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	SiteURL     string `envconfig:"SITE_URL" default:"http://localhost:8080"`

	Postgres struct {
		ConnStr string `envconfig:"POSTGRES_CONN_STR" required:"true"`
	} `envconfig:""`

	Mongo struct {
		URI      string `envconfig:"MONGO_URI" required:"true"`
		Database string `envconfig:"MONGO_DATABASE" default:"lumina"`
	} `envconfig:""`

	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	} `envconfig:""`

	Auth struct {
		JWTSecret               string        `envconfig:"JWT_SECRET"`
		JWTTTL                  time.Duration `envconfig:"JWT_TTL" default:"72h"`
		FirebaseCredentialsPath string        `envconfig:"FIREBASE_CREDENTIALS_PATH"`
	} `envconfig:""`

	AI struct {
		APIKey         string `envconfig:"GEMINI_API_KEY"`
		Model          string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
		EmbeddingModel string `envconfig:"GEMINI_EMBEDDING_MODEL" default:"text-embedding-004"`
		RatePerMinute  int    `envconfig:"AI_RATE_PER_MINUTE" default:"20"`
	} `envconfig:""`

	Queues struct {
		Embedding       string `envconfig:"EMBEDDING_QUEUE_KEY" default:"lumina:embedding_jobs"`
		EmbeddingWorker int    `envconfig:"EMBEDDING_WORKERS" default:"2"`
	} `envconfig:""`
}

const devJWTSecret = "lumina-dev-secret"

// IsDevelopment reports whether the server runs locally
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

// Load reads .env when present and then the process environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET environment variable not set")
		}
		cfg.Auth.JWTSecret = devJWTSecret
	}
	if cfg.Queues.EmbeddingWorker < 1 {
		cfg.Queues.EmbeddingWorker = 1
	}
	return &cfg, nil
}
