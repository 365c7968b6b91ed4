package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	ConfigFileEnv,
	"OLLAMA_URL", "EMBED_MODEL", "CHAT_MODEL", "EMBED_TIMEOUT", "GENERATE_TIMEOUT",
	"INPUT_DIR", "CHUNK_DIR", "EMBED_LOG_PATH", "INDEX_PATH", "META_PATH", "DB_PATH",
	"MAX_CHUNK_CHARS", "MIN_CHUNK_CHARS", "EMBED_MAX_CHARS", "BOUNDARY_PATTERNS",
	"TOP_K", "TEMPERATURE", "CONTEXT_WINDOW",
	"RETRY_ATTEMPTS", "RETRY_BACKOFF", "EMBED_INTERVAL", "EMBED_WORKERS",
	"QDRANT_URL", "QDRANT_COLLECTION", "QDRANT_API_KEY", "API_PORT", "LOG_LEVEL", "LOG_FORMAT",
}

// isolate clears every variable Load reads and moves into a directory without a .env file.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name:     "defaults",
			setupEnv: func(*testing.T) {},
			checkConfig: func(cfg *Config) bool {
				return cfg.OllamaURL == "http://localhost:11434" &&
					cfg.EmbedModel == "nomic-embed-text" &&
					cfg.ChatModel == "mistral" &&
					cfg.MaxChunkChars == 1500 &&
					cfg.MinChunkChars == 500 &&
					cfg.EmbedMaxChars == 1500 &&
					cfg.TopK == 3 &&
					cfg.Temperature == 0 &&
					cfg.ContextWindow == 2048 &&
					cfg.RetryAttempts == 3 &&
					cfg.RetryBackoff == 2*time.Second &&
					cfg.EmbedInterval == 1500*time.Millisecond &&
					cfg.EmbedTimeout == 120*time.Second &&
					cfg.GenerateTimeout == 300*time.Second &&
					cfg.APIPort == "9000" &&
					len(cfg.BoundaryPatterns) == 0
			},
		},
		{
			name: "custom values",
			setupEnv: func(t *testing.T) {
				t.Setenv("OLLAMA_URL", "http://ollama:11434")
				t.Setenv("CHAT_MODEL", "llama3")
				t.Setenv("TOP_K", "5")
				t.Setenv("TEMPERATURE", "0.2")
				t.Setenv("RETRY_BACKOFF", "500ms")
				t.Setenv("EMBED_WORKERS", "4")
				t.Setenv("LOG_FORMAT", "JSON")
				t.Setenv("BOUNDARY_PATTERNS", `ARTICLE\s+\d+;;Part\s+[IVX]+`)
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.OllamaURL == "http://ollama:11434" &&
					cfg.ChatModel == "llama3" &&
					cfg.EmbedModel == "nomic-embed-text" &&
					cfg.TopK == 5 &&
					cfg.Temperature == 0.2 &&
					cfg.RetryBackoff == 500*time.Millisecond &&
					cfg.EmbedWorkers == 4 &&
					cfg.LogFormat == "json" &&
					len(cfg.BoundaryPatterns) == 2 &&
					cfg.BoundaryPatterns[1] == `Part\s+[IVX]+`
			},
		},
		{
			name: "invalid integer",
			setupEnv: func(t *testing.T) {
				t.Setenv("TOP_K", "three")
			},
			wantErr: true,
		},
		{
			name: "invalid duration",
			setupEnv: func(t *testing.T) {
				t.Setenv("EMBED_INTERVAL", "fast")
			},
			wantErr: true,
		},
		{
			name: "invalid temperature",
			setupEnv: func(t *testing.T) {
				t.Setenv("TEMPERATURE", "warm")
			},
			wantErr: true,
		},
		{
			name: "min not below max",
			setupEnv: func(t *testing.T) {
				t.Setenv("MIN_CHUNK_CHARS", "1500")
			},
			wantErr: true,
		},
		{
			name: "zero top k",
			setupEnv: func(t *testing.T) {
				t.Setenv("TOP_K", "0")
			},
			wantErr: true,
		},
		{
			name: "unknown log format",
			setupEnv: func(t *testing.T) {
				t.Setenv("LOG_FORMAT", "xml")
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			setupEnv: func(t *testing.T) {
				t.Setenv("LOG_LEVEL", "verbose")
			},
			wantErr: true,
		},
		{
			name: "debug log level",
			setupEnv: func(t *testing.T) {
				t.Setenv("LOG_LEVEL", "DEBUG")
			},
			checkConfig: func(c *Config) bool {
				return c.Level() == slog.LevelDebug
			},
		},
		{
			name: "missing config file",
			setupEnv: func(t *testing.T) {
				t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			tt.setupEnv(t)

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}

			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}

func TestLoad_YAMLFileWithEnvOverride(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "legal-rag.yaml")
	content := `
chat_model: phi3
top_k: 7
embed_interval: 250ms
boundary_patterns:
  - 'ARTICLE\s+\d+'
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("TOP_K", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ChatModel != "phi3" {
		t.Errorf("ChatModel = %q, want phi3", cfg.ChatModel)
	}
	if cfg.TopK != 4 {
		t.Errorf("TopK = %d, want 4 (env beats file)", cfg.TopK)
	}
	if cfg.EmbedInterval != 250*time.Millisecond {
		t.Errorf("EmbedInterval = %v, want 250ms", cfg.EmbedInterval)
	}
	if len(cfg.BoundaryPatterns) != 1 || cfg.BoundaryPatterns[0] != `ARTICLE\s+\d+` {
		t.Errorf("BoundaryPatterns = %v", cfg.BoundaryPatterns)
	}
	if cfg.EmbedModel != "nomic-embed-text" {
		t.Errorf("EmbedModel = %q, want default", cfg.EmbedModel)
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	isolate(t)

	dbPath := filepath.Join(t.TempDir(), "test", "db.db")
	t.Setenv("DB_PATH", dbPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Errorf("Load() should create data directory: %v", err)
	}
	if cfg.DBPath != dbPath {
		t.Errorf("Load() DBPath = %v, want %v", cfg.DBPath, dbPath)
	}
}

func TestConfig_RetryPolicy(t *testing.T) {
	cfg := Default()
	p := cfg.RetryPolicy()
	if p.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", p.MaxAttempts)
	}
	if got := p.Backoff(2); got != 4*time.Second {
		t.Errorf("Backoff(2) = %v, want 4s", got)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue string
		want         string
	}{
		{name: "env var set", value: "set-value", defaultValue: "default", want: "set-value"},
		{name: "empty env var uses default", value: "", defaultValue: "default", want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_VAR", tt.value)
			if got := getEnv("TEST_ENV_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", "TEST_ENV_VAR", tt.defaultValue, got, tt.want)
			}
		})
	}
}
