// Package utils holds shared configuration and logging setup.
package utils

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Data struct {
		CSVPath      string  `yaml:"csv_path"`
		TestFraction float64 `yaml:"test_fraction"`
	} `yaml:"data"`
	Training struct {
		Seed           int64   `yaml:"seed"`
		Folds          int     `yaml:"folds"`
		Threshold      float64 `yaml:"threshold"`
		CostRatio      float64 `yaml:"cost_ratio"`
		TargetRatio    float64 `yaml:"target_ratio"`
		SMOTENeighbors int     `yaml:"smote_neighbors"`
	} `yaml:"training"`
	Explain struct {
		Samples        int     `yaml:"samples"`
		BackgroundSize int     `yaml:"background_size"`
		Tolerance      float64 `yaml:"tolerance"`
	} `yaml:"explain"`
	Storage struct {
		RegistryPath string `yaml:"registry_path"`
		ArtifactPath string `yaml:"artifact_path"`
	} `yaml:"storage"`
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Data.CSVPath = "data/HR-Employee-Attrition.csv"
	cfg.Data.TestFraction = 0.2
	cfg.Training.Seed = 42
	cfg.Training.Folds = 5
	cfg.Training.Threshold = 0.5
	cfg.Training.CostRatio = 5
	cfg.Training.TargetRatio = 1.0
	cfg.Training.SMOTENeighbors = 5
	cfg.Explain.Samples = 100
	cfg.Explain.BackgroundSize = 100
	cfg.Explain.Tolerance = 0.10
	cfg.Storage.RegistryPath = "data/runs.db"
	cfg.Storage.ArtifactPath = "models/attrition.json"
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Logging.Level = "info"
	return cfg
}

// LoadConfig builds the configuration in three layers: defaults, then the
// YAML file (when it exists), then environment variables. A .env file in
// the working directory is folded into the environment first.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	// Missing .env is fine; it is a local development convenience.
	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ATTRITION_CSV_PATH"); v != "" {
		cfg.Data.CSVPath = v
	}
	if v := os.Getenv("ATTRITION_ARTIFACT_PATH"); v != "" {
		cfg.Storage.ArtifactPath = v
	}
	if v := os.Getenv("ATTRITION_REGISTRY_PATH"); v != "" {
		cfg.Storage.RegistryPath = v
	}
	if v := os.Getenv("ATTRITION_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ATTRITION_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ATTRITION_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Training.Seed = seed
		}
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Data.CSVPath == "" {
		return fmt.Errorf("data.csv_path must be set")
	}
	if c.Data.TestFraction <= 0 || c.Data.TestFraction >= 1 {
		return fmt.Errorf("data.test_fraction must be in (0, 1), got %v", c.Data.TestFraction)
	}
	if c.Training.Folds < 2 {
		return fmt.Errorf("training.folds must be at least 2, got %d", c.Training.Folds)
	}
	if c.Training.Threshold <= 0 || c.Training.Threshold >= 1 {
		return fmt.Errorf("training.threshold must be in (0, 1), got %v", c.Training.Threshold)
	}
	if c.Training.TargetRatio <= 0 || c.Training.TargetRatio > 1 {
		return fmt.Errorf("training.target_ratio must be in (0, 1], got %v", c.Training.TargetRatio)
	}
	if c.Training.CostRatio <= 0 {
		return fmt.Errorf("training.cost_ratio must be positive, got %v", c.Training.CostRatio)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid port, got %d", c.Server.Port)
	}
	return nil
}
