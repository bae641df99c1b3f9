// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Ticker cache backends
const (
	CacheBackendFile   = "file"
	CacheBackendSQLite = "sqlite"
	CacheBackendMemory = "memory"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for caches and databases (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	Simulation SimulationConfig
	TickerRisk TickerRiskConfig

	HistoryYears        int
	HistoryCacheTTL     time.Duration
	AllocationTolerance float64
}

// SimulationConfig tunes the Monte Carlo engine
type SimulationConfig struct {
	NumPaths  int
	BlockSize int
	Workers   int // 0 = runtime.NumCPU()
}

// TickerRiskConfig configures the classification cache and its classifier
type TickerRiskConfig struct {
	CacheBackend  string
	CacheTTL      time.Duration
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	RatePerSec    float64
}

// CacheDir is where the file-backed ticker cache lives
func (c *Config) CacheDir() string {
	return filepath.Join(c.DataDir, "ticker_cache")
}

// DatabasePath is the sqlite cache database file
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("GOALEVAL_DATA_DIR", "data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("GO_PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Simulation: SimulationConfig{
			NumPaths:  getEnvAsInt("SIMULATION_PATHS", 3000),
			BlockSize: getEnvAsInt("BLOCK_SIZE", 6),
			Workers:   getEnvAsInt("SIMULATION_WORKERS", 0),
		},
		TickerRisk: TickerRiskConfig{
			CacheBackend:  strings.ToLower(getEnv("TICKER_CACHE_BACKEND", CacheBackendFile)),
			CacheTTL:      time.Duration(getEnvAsInt("TICKER_CACHE_TTL_DAYS", 30)) * 24 * time.Hour,
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			RatePerSec:    getEnvAsFloat("CLASSIFIER_RATE_PER_SEC", 1),
		},
		HistoryYears:        getEnvAsInt("HISTORY_YEARS", 5),
		HistoryCacheTTL:     time.Duration(getEnvAsInt("HISTORY_CACHE_TTL_HOURS", 24)) * time.Hour,
		AllocationTolerance: getEnvAsFloat("ALLOCATION_TOLERANCE", 1.0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Simulation.NumPaths <= 0 {
		return fmt.Errorf("SIMULATION_PATHS must be positive, got %d", c.Simulation.NumPaths)
	}
	if c.Simulation.BlockSize <= 0 {
		return fmt.Errorf("BLOCK_SIZE must be positive, got %d", c.Simulation.BlockSize)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("SIMULATION_WORKERS cannot be negative, got %d", c.Simulation.Workers)
	}
	if c.AllocationTolerance < 0 {
		return fmt.Errorf("ALLOCATION_TOLERANCE cannot be negative, got %v", c.AllocationTolerance)
	}
	if c.HistoryYears <= 0 {
		return fmt.Errorf("HISTORY_YEARS must be positive, got %d", c.HistoryYears)
	}
	if c.TickerRisk.CacheTTL <= 0 {
		return fmt.Errorf("TICKER_CACHE_TTL_DAYS must be positive")
	}

	switch c.TickerRisk.CacheBackend {
	case CacheBackendFile, CacheBackendSQLite, CacheBackendMemory:
	default:
		return fmt.Errorf("unknown TICKER_CACHE_BACKEND %q", c.TickerRisk.CacheBackend)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
