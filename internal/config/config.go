package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Empty DatabaseURL selects the in-memory document store.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// DataDir holds the snapshot artifact when S3 is not configured.
	DataDir string `envconfig:"DATA_DIR" default:"data"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"studykit-snapshots"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	GroqAPIKey string `envconfig:"GROQ_API_KEY"`
	LLMBaseURL string `envconfig:"LLM_BASE_URL" default:"https://api.groq.com/openai/v1"`
	LLMModel   string `envconfig:"LLM_MODEL" default:"llama3-70b-8192"`

	ChunkMinChars int `envconfig:"CHUNK_MIN_CHARS" default:"200"`
	ChunkMaxChars int `envconfig:"CHUNK_MAX_CHARS" default:"1000"`

	TopK          int     `envconfig:"TOP_K" default:"3"`
	MinSimilarity float64 `envconfig:"MIN_SIMILARITY" default:"0.1"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("STUDYKIT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasLLM() bool {
	return c.GroqAPIKey != ""
}
