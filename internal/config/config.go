package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Skufu/glucorisk/internal/risk"
)

type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	ModelPath      string
	AveragesPolicy string
	AveragesFile   string
	ZeroIsMissing  bool
	EnableDB       bool
	DatabaseURL    string
	DBMaxConns     int32
	RunMigrations  bool
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "release"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		ModelPath:      getEnv("MODEL_PATH", "models/diabetes_model.json"),
		AveragesPolicy: strings.ToLower(getEnv("AVERAGES_POLICY", risk.PolicyFlat)),
		AveragesFile:   os.Getenv("AVERAGES_FILE"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
	}

	var err error
	if cfg.ZeroIsMissing, err = getBool("ZERO_IS_MISSING", true); err != nil {
		return nil, err
	}
	if cfg.EnableDB, err = getBool("ENABLE_DB", false); err != nil {
		return nil, err
	}
	if cfg.RunMigrations, err = getBool("MIGRATIONS", true); err != nil {
		return nil, err
	}

	maxConns, err := strconv.ParseInt(getEnv("DB_MAX_CONNS", "4"), 10, 32)
	if err != nil || maxConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be a positive integer")
	}
	cfg.DBMaxConns = int32(maxConns)

	if cfg.AveragesFile == "" && cfg.AveragesPolicy != risk.PolicyFlat && cfg.AveragesPolicy != risk.PolicyAgeBucketed {
		return nil, fmt.Errorf("AVERAGES_POLICY must be %q or %q", risk.PolicyFlat, risk.PolicyAgeBucketed)
	}

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}

	return cfg, nil
}

// ReferenceTable returns the table named by AVERAGES_FILE, or the built-in
// table for AVERAGES_POLICY.
func (c *Config) ReferenceTable() (risk.ReferenceTable, error) {
	if c.AveragesFile != "" {
		return risk.LoadReferenceTable(c.AveragesFile)
	}
	return risk.TableForPolicy(c.AveragesPolicy)
}

func (c *Config) Address() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", key, val)
	}
	return b, nil
}
