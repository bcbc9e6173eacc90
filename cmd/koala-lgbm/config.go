package main

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/koalaml/koala-lightgbm/koala/lightgbm"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// Task names accepted in the config and on the command line.
const (
	TaskRegression = "regression"
	TaskBinary     = "binary"
)

// Config is the training configuration read from YAML.
//
//	task: binary
//	target: churned
//	categorical: [plan, region]
//	params:
//	  num_iterations: 200
//	  learning_rate: 0.05
//	  validation_fraction: 0.2
type Config struct {
	Task             string                 `yaml:"task"`
	Target           string                 `yaml:"target"`
	Categorical      []string               `yaml:"categorical"`
	SortedCategories bool                   `yaml:"sorted_categories"`
	Parallel         bool                   `yaml:"parallel"`
	Verbosity        int                    `yaml:"verbosity"`
	LogLevel         string                 `yaml:"log_level"`
	Params           map[string]interface{} `yaml:"params"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Task:     TaskRegression,
		Parallel: true,
		LogLevel: "warn",
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return cfg, nil
}

// Validate checks the settings the CLI needs before touching any data.
func (c *Config) Validate() error {
	c.Task = strings.ToLower(strings.TrimSpace(c.Task))
	if c.Task != TaskRegression && c.Task != TaskBinary {
		return errors.NewValidationError("task", "must be regression or binary", c.Task)
	}
	if c.Target == "" {
		return errors.NewValidationError("target", "target column is required", c.Target)
	}
	// catch typos before reading the data
	probe := lightgbm.DefaultRegressorHyperparameters()
	if c.Task == TaskBinary {
		probe = lightgbm.DefaultClassifierHyperparameters()
	}
	return probe.SetParams(c.Params)
}
