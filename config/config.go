// Package config loads graphflow settings from the environment.
//
// An optional .env file is read first; variables already present in the
// process environment take precedence over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by the example programs and providers.
type Config struct {
	// LLM configuration
	OpenAIKey   string
	OpenAIModel string
	OpenAIURL   string
	GroqKey     string
	GroqModel   string
	GeminiKey   string
	GeminiModel string

	// Embeddings
	OllamaURL      string
	EmbeddingModel string

	// Tools
	TavilyKey     string
	BraveKey      string
	LookupURL     string
	LookupTimeout time.Duration

	// Storage
	RedisAddr   string
	PostgresDSN string
	SQLitePath  string

	// Retrieval
	ChunkSize    int
	ChunkOverlap int
	TopK         int

	LogLevel string
}

// Load reads the given .env files (".env" when none are named) and then
// builds a Config from the environment. Missing .env files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIURL:      getEnv("OPENAI_BASE_URL", ""),
		GroqKey:        os.Getenv("GROQ_API_KEY"),
		GroqModel:      getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OllamaURL:      getEnv("OLLAMA_URL", "http://localhost:11434"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		TavilyKey:      os.Getenv("TAVILY_API_KEY"),
		BraveKey:       os.Getenv("BRAVE_API_KEY"),
		LookupURL:      os.Getenv("LOOKUP_URL"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		SQLitePath:     getEnv("SQLITE_PATH", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.LookupTimeout, err = getEnvDuration("LOOKUP_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 250); err != nil {
		return nil, err
	}
	if cfg.TopK, err = getEnvInt("TOP_K", 4); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. Credentials are checked by the components
// that need them.
func (c *Config) Validate() error {
	var errs []error
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap))
	}
	if c.TopK <= 0 {
		errs = append(errs, fmt.Errorf("TOP_K must be positive, got %d", c.TopK))
	}
	if c.LookupTimeout <= 0 {
		errs = append(errs, fmt.Errorf("LOOKUP_TIMEOUT must be positive, got %s", c.LookupTimeout))
	}
	return errors.Join(errs...)
}

// Require returns an error naming every empty variable among the given
// key/value pairs.
func Require(pairs map[string]string) error {
	var errs []error
	for key, value := range pairs {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s environment variable is required", key))
		}
	}
	return errors.Join(errs...)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
