package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"legal-rag/internal/retry"
)

// ConfigFileEnv names the environment variable holding an optional YAML config file path.
const ConfigFileEnv = "LEGALRAG_CONFIG"

// patternSeparator splits BOUNDARY_PATTERNS; commas and pipes appear inside regexps.
const patternSeparator = ";;"

// Config holds all configuration for the application.
type Config struct {
	OllamaURL       string        `yaml:"ollama_url"`
	EmbedModel      string        `yaml:"embed_model"`
	ChatModel       string        `yaml:"chat_model"`
	EmbedTimeout    time.Duration `yaml:"embed_timeout"`
	GenerateTimeout time.Duration `yaml:"generate_timeout"`

	InputDir     string `yaml:"input_dir"`
	ChunkDir     string `yaml:"chunk_dir"`
	EmbedLogPath string `yaml:"embed_log_path"`
	IndexPath    string `yaml:"index_path"`
	MetaPath     string `yaml:"meta_path"`
	DBPath       string `yaml:"db_path"`

	MaxChunkChars    int      `yaml:"max_chunk_chars"`
	MinChunkChars    int      `yaml:"min_chunk_chars"`
	EmbedMaxChars    int      `yaml:"embed_max_chars"`
	BoundaryPatterns []string `yaml:"boundary_patterns"`

	TopK          int     `yaml:"top_k"`
	Temperature   float64 `yaml:"temperature"`
	ContextWindow int     `yaml:"context_window"`

	RetryAttempts int           `yaml:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
	EmbedInterval time.Duration `yaml:"embed_interval"`
	EmbedWorkers  int           `yaml:"embed_workers"`

	QdrantURL        string `yaml:"qdrant_url"`
	QdrantCollection string `yaml:"qdrant_collection"`
	QdrantAPIKey     string `yaml:"qdrant_api_key"`

	APIPort   string `yaml:"api_port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		OllamaURL:       "http://localhost:11434",
		EmbedModel:      "nomic-embed-text",
		ChatModel:       "mistral",
		EmbedTimeout:    120 * time.Second,
		GenerateTimeout: 300 * time.Second,

		InputDir:     "./data/text",
		ChunkDir:     "./data/chunks",
		EmbedLogPath: "./data/embeddings.jsonl",
		IndexPath:    "./data/legal.index",
		MetaPath:     "./data/metadata.json",
		DBPath:       "./data/legal-rag.db",

		MaxChunkChars: 1500,
		MinChunkChars: 500,
		EmbedMaxChars: 1500,

		TopK:          3,
		Temperature:   0,
		ContextWindow: 2048,

		RetryAttempts: 3,
		RetryBackoff:  2 * time.Second,
		EmbedInterval: 1500 * time.Millisecond,
		EmbedWorkers:  1,

		QdrantURL:        "http://localhost:6333",
		QdrantCollection: "legal_chunks",

		APIPort:   "9000",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// LEGALRAG_CONFIG and environment variables, in increasing precedence.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Create the data directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.OllamaURL = getEnv("OLLAMA_URL", c.OllamaURL)
	c.EmbedModel = getEnv("EMBED_MODEL", c.EmbedModel)
	c.ChatModel = getEnv("CHAT_MODEL", c.ChatModel)

	c.InputDir = getEnv("INPUT_DIR", c.InputDir)
	c.ChunkDir = getEnv("CHUNK_DIR", c.ChunkDir)
	c.EmbedLogPath = getEnv("EMBED_LOG_PATH", c.EmbedLogPath)
	c.IndexPath = getEnv("INDEX_PATH", c.IndexPath)
	c.MetaPath = getEnv("META_PATH", c.MetaPath)
	c.DBPath = getEnv("DB_PATH", c.DBPath)

	c.QdrantURL = getEnv("QDRANT_URL", c.QdrantURL)
	c.QdrantCollection = getEnv("QDRANT_COLLECTION", c.QdrantCollection)
	c.QdrantAPIKey = getEnv("QDRANT_API_KEY", c.QdrantAPIKey)

	c.APIPort = getEnv("API_PORT", c.APIPort)
	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	c.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", c.LogFormat))

	if patterns := os.Getenv("BOUNDARY_PATTERNS"); patterns != "" {
		c.BoundaryPatterns = strings.Split(patterns, patternSeparator)
	}

	var err error
	ints := []struct {
		key string
		dst *int
	}{
		{"MAX_CHUNK_CHARS", &c.MaxChunkChars},
		{"MIN_CHUNK_CHARS", &c.MinChunkChars},
		{"EMBED_MAX_CHARS", &c.EmbedMaxChars},
		{"TOP_K", &c.TopK},
		{"CONTEXT_WINDOW", &c.ContextWindow},
		{"RETRY_ATTEMPTS", &c.RetryAttempts},
		{"EMBED_WORKERS", &c.EmbedWorkers},
	}
	for _, v := range ints {
		if *v.dst, err = getEnvInt(v.key, *v.dst); err != nil {
			return err
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"EMBED_TIMEOUT", &c.EmbedTimeout},
		{"GENERATE_TIMEOUT", &c.GenerateTimeout},
		{"RETRY_BACKOFF", &c.RetryBackoff},
		{"EMBED_INTERVAL", &c.EmbedInterval},
	}
	for _, v := range durations {
		if *v.dst, err = getEnvDuration(v.key, *v.dst); err != nil {
			return err
		}
	}

	if value := os.Getenv("TEMPERATURE"); value != "" {
		t, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("TEMPERATURE must be a valid number: %w", err)
		}
		c.Temperature = t
	}

	return nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.OllamaURL == "" {
		return fmt.Errorf("OLLAMA_URL is required")
	}
	if c.EmbedModel == "" {
		return fmt.Errorf("EMBED_MODEL is required")
	}
	if c.ChatModel == "" {
		return fmt.Errorf("CHAT_MODEL is required")
	}
	if c.MinChunkChars <= 0 {
		return fmt.Errorf("MIN_CHUNK_CHARS must be greater than 0")
	}
	if c.MinChunkChars >= c.MaxChunkChars {
		return fmt.Errorf("MIN_CHUNK_CHARS (%d) must be less than MAX_CHUNK_CHARS (%d)", c.MinChunkChars, c.MaxChunkChars)
	}
	if c.EmbedMaxChars <= 0 {
		return fmt.Errorf("EMBED_MAX_CHARS must be greater than 0")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be greater than 0")
	}
	if c.ContextWindow <= 0 {
		return fmt.Errorf("CONTEXT_WINDOW must be greater than 0")
	}
	if c.Temperature < 0 {
		return fmt.Errorf("TEMPERATURE must not be negative")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1")
	}
	if c.RetryBackoff < 0 || c.EmbedInterval < 0 {
		return fmt.Errorf("RETRY_BACKOFF and EMBED_INTERVAL must not be negative")
	}
	if c.EmbedTimeout <= 0 || c.GenerateTimeout <= 0 {
		return fmt.Errorf("EMBED_TIMEOUT and GENERATE_TIMEOUT must be greater than 0")
	}
	if c.EmbedWorkers < 1 {
		return fmt.Errorf("EMBED_WORKERS must be at least 1")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Level returns the slog level named by LogLevel, or info if it is invalid.
func (c *Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", name)
	}
	return level, nil
}

// RetryPolicy returns the retry policy for the Ollama clients.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.RetryAttempts,
		Backoff:     retry.Linear(c.RetryBackoff),
	}
}

// getEnv gets an environment variable or returns a default value.
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
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
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
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	return d, nil
}
