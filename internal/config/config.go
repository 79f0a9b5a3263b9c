package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"eosphase/domain/core"
	"eosphase/internal"
	"eosphase/internal/errors"
	"eosphase/internal/features"
	"eosphase/internal/model"
	"eosphase/internal/split"
)

// Config represents the complete application configuration
type Config struct {
	Training TrainingConfig
	Ledger   LedgerConfig
	Server   ServerConfig
	LogLevel internal.LogLevel
}

// TrainingConfig holds the pipeline defaults that CLI flags may override.
type TrainingConfig struct {
	Seed         int64
	TestFraction float64
	FitStatsOn   features.FitMode
	Model        model.Config
}

// LedgerConfig holds run ledger settings. An empty DSN disables the ledger.
type LedgerConfig struct {
	DSN string
}

// ServerConfig holds prediction server settings
type ServerConfig struct {
	Addr string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	training, err := loadTrainingConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load training configuration")
	}
	config.Training = *training

	config.Ledger = LedgerConfig{DSN: getEnvOrDefault("EOS_LEDGER_DSN", "")}
	config.Server = ServerConfig{Addr: getEnvOrDefault("EOS_SERVER_ADDR", ":8080")}

	config.LogLevel = internal.LogLevelInfo
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := internal.ParseLogLevel(v)
		if err != nil {
			return nil, errors.Wrap(core.NewConfigError("LOG_LEVEL", err.Error()), "failed to load logging configuration")
		}
		config.LogLevel = level
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadTrainingConfig() (*TrainingConfig, error) {
	var env envReader

	kind, err := model.ParseKind(getEnvOrDefault("EOS_MODEL", string(model.KindGBT)))
	if err != nil {
		return nil, err
	}
	fitMode, err := features.ParseFitMode(getEnvOrDefault("EOS_FIT_STATS_ON", string(features.PerSplit)))
	if err != nil {
		return nil, err
	}

	mc := model.DefaultConfig(kind)
	seed := env.int64("EOS_SEED", split.DefaultSeed)
	mc.GBT.Seed = seed
	mc.Forest.Seed = seed
	mc.GBT.Stages = env.int("EOS_GBT_STAGES", mc.GBT.Stages)
	mc.GBT.LearningRate = env.float("EOS_GBT_LEARNING_RATE", mc.GBT.LearningRate)
	mc.GBT.MaxDepth = env.int("EOS_GBT_MAX_DEPTH", mc.GBT.MaxDepth)
	mc.Forest.Trees = env.int("EOS_RF_TREES", mc.Forest.Trees)
	mc.Forest.Workers = env.int("EOS_RF_WORKERS", mc.Forest.Workers)
	mc.LogReg.C = env.float("EOS_LOGREG_C", mc.LogReg.C)
	mc.LogReg.MaxIter = env.int("EOS_LOGREG_MAX_ITER", mc.LogReg.MaxIter)

	tc := &TrainingConfig{
		Seed:         seed,
		TestFraction: env.float("EOS_TEST_FRACTION", split.DefaultTestFraction),
		FitStatsOn:   fitMode,
		Model:        mc,
	}
	if env.err != nil {
		return nil, env.err
	}
	return tc, nil
}

func validateConfig(config *Config) error {
	t := config.Training
	if t.TestFraction <= 0 || t.TestFraction >= 1 {
		return core.NewConfigError("EOS_TEST_FRACTION", fmt.Sprintf("must be in (0,1), got %g", t.TestFraction))
	}
	// Hyperparameters are checked for every kind so a later --model switch cannot hit a bad value.
	for _, kind := range model.Kinds() {
		mc := t.Model
		mc.Kind = kind
		if err := mc.Validate(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(config.Server.Addr) == "" {
		return core.NewConfigError("EOS_SERVER_ADDR", "cannot be empty")
	}
	return nil
}

// ModelConfig returns the training model configuration with kind selected and seed applied.
func (t TrainingConfig) ModelConfig(kind model.Kind, seed int64) model.Config {
	mc := t.Model
	mc.Kind = kind
	mc.GBT.Seed = seed
	mc.Forest.Seed = seed
	return mc
}

// envReader parses typed variables and keeps the first failure.
type envReader struct {
	err error
}

func (r *envReader) fail(key, value, want string) {
	if r.err == nil {
		r.err = core.NewConfigError(key, fmt.Sprintf("%q is not %s", value, want))
	}
}

func (r *envReader) int(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		r.fail(key, value, "an integer")
		return defaultValue
	}
	return intValue
}

func (r *envReader) int64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		r.fail(key, value, "an integer")
		return defaultValue
	}
	return intValue
}

func (r *envReader) float(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		r.fail(key, value, "a number")
		return defaultValue
	}
	return floatValue
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
