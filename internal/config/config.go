package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jeefy/llmmoe/internal/expert"
)

const defaultDBPath = "database/database.db"

type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// StoreBackend is one of "sqlite", "postgres" or "memory".
	StoreBackend string
	// DBPath is absolute; it is resolved once here and never recomputed.
	DBPath      string
	DatabaseURL string

	Experts expert.Config
}

// Load reads environment variables, optionally from a .env file in the
// working directory. Variables already set in the environment win.
func Load() (Config, error) {
	_ = godotenv.Load()

	dbPath, err := filepath.Abs(getEnv("MOE_DB_PATH", defaultDBPath))
	if err != nil {
		return Config{}, fmt.Errorf("resolve database path: %w", err)
	}

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("MOE_STORE")))
	if backend == "" {
		backend = "sqlite"
		if databaseURL != "" {
			backend = "postgres"
		}
	}
	switch backend {
	case "sqlite", "postgres", "memory":
	default:
		return Config{}, fmt.Errorf("unknown MOE_STORE %q", backend)
	}

	return Config{
		Addr:            getEnv("MOE_ADDR", ":8000"),
		ReadTimeout:     durationFromEnv("MOE_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    durationFromEnv("MOE_WRITE_TIMEOUT", 5*time.Minute),
		ShutdownTimeout: durationFromEnv("MOE_SHUTDOWN_TIMEOUT", 10*time.Second),
		StoreBackend:    backend,
		DBPath:          dbPath,
		DatabaseURL:     databaseURL,
		Experts: expert.Config{
			Backend:          getEnv("EXPERT_BACKEND", "live"),
			OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
			AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicBaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
			XAIKey:           os.Getenv("XAI_API_KEY"),
			XAIBaseURL:       getEnv("XAI_BASE_URL", expert.DefaultXAIBaseURL),
		},
	}, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
