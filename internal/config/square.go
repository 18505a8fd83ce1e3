package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Square environments.
const (
	SquareProduction = "production"
	SquareSandbox    = "sandbox"
)

// SquareConfig holds payment gateway credentials read from the config file.
type SquareConfig struct {
	AccessToken string `mapstructure:"access_token"`
	Environment string `mapstructure:"environment"`
	LocationID  string `mapstructure:"location_id"`
	APIVersion  string `mapstructure:"api_version"`
	// BaseURL overrides the environment's API host.
	BaseURL string `mapstructure:"base_url"`
}

type fileConfig struct {
	Square SquareConfig `mapstructure:"square"`
}

// LoadSquareFile reads the "square" section of the configuration file at path.
// The format is chosen from the file extension.
func LoadSquareFile(path string) (*SquareConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	v.SetDefault("square.environment", SquareProduction)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	fc.Square.Environment = strings.ToLower(strings.TrimSpace(fc.Square.Environment))
	return &fc.Square, nil
}

// Validate checks the gateway credentials.
func (c SquareConfig) Validate() error {
	if c.AccessToken == "" {
		return fmt.Errorf("%w: square.access_token", ErrMissingValue)
	}
	switch c.Environment {
	case SquareProduction, SquareSandbox:
	default:
		return fmt.Errorf("square.environment must be %q or %q, got %q", SquareProduction, SquareSandbox, c.Environment)
	}
	return nil
}
