package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Ledger backend identifiers selectable via LEDGER_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	BotToken string
	ChatID   string

	LedgerBackend string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	SQLitePath string

	SourcesPath   string
	NotifyLogPath string

	PollInterval time.Duration
	StartupDelay time.Duration
	FetchTimeout time.Duration
	RateLimitMs  int

	LogLevel string
}

// Load reads the .env file and returns a populated Config struct.
// BOT_TOKEN and CHAT_ID are required; missing values are a fatal
// startup condition reported to the caller.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		BotToken: os.Getenv("BOT_TOKEN"),
		ChatID:   os.Getenv("CHAT_ID"),

		LedgerBackend: getEnv("LEDGER_BACKEND", BackendSQLite),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "moviebot"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "moviebot"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		SQLitePath: getEnv("SQLITE_PATH", "./data/moviebot.db"),

		SourcesPath:   getEnv("SOURCES_PATH", ""),
		NotifyLogPath: getEnv("NOTIFY_LOG_PATH", ""),

		PollInterval: getEnvDuration("POLL_INTERVAL", 5*time.Minute),
		StartupDelay: getEnvDuration("STARTUP_DELAY", 10*time.Second),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		RateLimitMs:  getEnvInt("RATE_LIMIT_MS", 500),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable must be set")
	}
	if cfg.ChatID == "" {
		return nil, fmt.Errorf("CHAT_ID environment variable must be set")
	}
	if cfg.LedgerBackend != BackendPostgres && cfg.LedgerBackend != BackendSQLite {
		return nil, fmt.Errorf("LEDGER_BACKEND must be %q or %q, got %q",
			BackendPostgres, BackendSQLite, cfg.LedgerBackend)
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
