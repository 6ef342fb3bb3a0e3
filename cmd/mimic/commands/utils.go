/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the Akaylee Mimic commands. Configuration loading,
logging setup and search configuration assembly used across the commands.
*/

package commands

import (
	"fmt"
	"strings"

	"github.com/kleascm/akaylee-mimic/pkg/core"
	"github.com/kleascm/akaylee-mimic/pkg/logging"
	"github.com/kleascm/akaylee-mimic/pkg/targets"
	"github.com/kleascm/akaylee-mimic/pkg/value"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	viper.SetEnvPrefix("MIMIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// SetupLogging builds the logger from the logging flags
func SetupLogging() (*logging.Logger, error) {
	config := logging.DefaultLoggerConfig()
	config.Level = logging.LogLevel(viper.GetString("log_level"))
	config.Format = logging.LogFormat(viper.GetString("log_format"))
	config.OutputDir = viper.GetString("log_dir")

	logger, err := logging.NewLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return logger, nil
}

// createSearchConfig overlays the search settings on the defaults
// The search section of a config file may also set cleanup_inputs, shorten_tries and inference.
func createSearchConfig() (*core.SearchConfig, error) {
	config := core.DefaultSearchConfig()
	if sub := viper.Sub("search"); sub != nil {
		if err := sub.Unmarshal(config); err != nil {
			return nil, fmt.Errorf("failed to decode search config: %w", err)
		}
	}
	for key, set := range map[string]func(){
		"search.iterations":         func() { config.Iterations = viper.GetInt("search.iterations") },
		"search.cleanup_iterations": func() { config.CleanupIterations = viper.GetInt("search.cleanup_iterations") },
		"search.beta":               func() { config.Beta = viper.GetFloat64("search.beta") },
		"search.seed":               func() { config.Seed = viper.GetInt64("search.seed") },
		"search.gold_budget":        func() { config.GoldBudget = viper.GetInt("search.gold_budget") },
		"search.parallelism":        func() { config.Parallelism = viper.GetInt("search.parallelism") },
		"search.max_inputs":         func() { config.MaxInputs = viper.GetInt("search.max_inputs") },
		"search.input_rounds":       func() { config.InputRounds = viper.GetInt("search.input_rounds") },
	} {
		if viper.IsSet(key) {
			set()
		}
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// loadInputs returns the parsed literals, or the target's defaults when there are none
func loadInputs(t *targets.Target, literals []string) ([]*value.Input, error) {
	if len(literals) == 0 {
		return t.Inputs()
	}
	inputs := make([]*value.Input, len(literals))
	for i, lit := range literals {
		in, err := value.ParseInput(lit)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		inputs[i] = in
	}
	return inputs, nil
}
