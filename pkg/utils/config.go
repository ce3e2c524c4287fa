package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the tool configuration
type Config struct {
	Coupling CouplingConfig `yaml:"coupling" mapstructure:"coupling"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// CouplingConfig contains the default coupling constants
type CouplingConfig struct {
	H float64 `yaml:"h" mapstructure:"h"`
	K int     `yaml:"k" mapstructure:"k"`
}

// BatchConfig contains worker-pool settings for batch generation
type BatchConfig struct {
	Workers     int `yaml:"workers" mapstructure:"workers"`
	StatePoints int `yaml:"state_points" mapstructure:"state_points"`
}

// OutputConfig contains output locations
type OutputConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	baseDir := filepath.Join(homeDir, ".zhukovsky")

	return &Config{
		Coupling: CouplingConfig{
			H: 2.0,
			K: 5,
		},
		Batch: BatchConfig{
			Workers:     4,
			StatePoints: 0,
		},
		Output: OutputConfig{
			Dir:      filepath.Join(baseDir, "output"),
			LogLevel: "info",
		},
	}
}

// LoadConfig loads configuration from file or creates default
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	homeDir, _ := os.UserHomeDir()
	viper.AddConfigPath(filepath.Join(homeDir, ".zhukovsky"))
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("ZHUKOVSKY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createDefaultConfig()
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config) error {
	homeDir, _ := os.UserHomeDir()
	configDir := filepath.Join(homeDir, ".zhukovsky")
	configFile := filepath.Join(configDir, "config.yaml")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if config.Output.Dir != "" {
		if err := os.MkdirAll(config.Output.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates and saves a default configuration
func createDefaultConfig() (*Config, error) {
	config := DefaultConfig()

	if err := SaveConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Coupling.H <= 0 {
		return fmt.Errorf("coupling constant h must be positive")
	}

	if config.Batch.Workers < 0 {
		return fmt.Errorf("worker count cannot be negative")
	}

	if config.Batch.StatePoints < 0 {
		return fmt.Errorf("state point count cannot be negative")
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".zhukovsky", "config.yaml"), nil
}
