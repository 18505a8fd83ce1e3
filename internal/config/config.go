package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrMissingValue is returned when a required configuration value is absent.
var ErrMissingValue = errors.New("missing required configuration value")

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Telegram TelegramConfig
	Payment  PaymentConfig
	Square   SquareConfig
	Log      LogConfig
	NewRelic NewRelicConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// TelegramConfig holds the notifier bot configuration.
type TelegramConfig struct {
	BotToken      string
	TargetChannel string
	// APIEndpoint overrides the Bot API endpoint format, e.g. "http://localhost:8081/bot%s/%s".
	APIEndpoint string
}

// PaymentConfig holds charge flow settings.
type PaymentConfig struct {
	// DefaultAmount is charged when a request omits the amount.
	// Zero means the amount is required.
	DefaultAmount  int64
	GatewayTimeout time.Duration
	NotifyTimeout  time.Duration
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string
	Env   string
	File  string
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// Load loads configuration from environment variables and the gateway
// configuration file. Any missing required value is reported as an error so
// the process can refuse to start.
func Load() (*Config, error) {
	env := &envReader{}
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5000"),
			ReadTimeout:  env.durationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: env.durationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Telegram: TelegramConfig{
			BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
			TargetChannel: getEnv("TARGET_CHANNEL", ""),
			APIEndpoint:   getEnv("TELEGRAM_API_ENDPOINT", ""),
		},
		Payment: PaymentConfig{
			DefaultAmount:  env.int64Env("PAYMENT_DEFAULT_AMOUNT", 0),
			GatewayTimeout: env.durationEnv("GATEWAY_TIMEOUT", 10*time.Second),
			NotifyTimeout:  env.durationEnv("NOTIFY_TIMEOUT", 5*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			Env:   getEnv("APP_ENV", "production"),
			File:  getEnv("LOG_FILE", ""),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "paybot"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    env.boolEnv("NEW_RELIC_ENABLED", false),
		},
	}
	if err := env.Err(); err != nil {
		return nil, err
	}

	square, err := LoadSquareFile(getEnv("CONFIG_FILE", "config.json"))
	if err != nil {
		return nil, err
	}
	cfg.Square = *square

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every value the service cannot run without is present.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("%w: TELEGRAM_BOT_TOKEN", ErrMissingValue)
	}
	if c.Telegram.TargetChannel == "" {
		return fmt.Errorf("%w: TARGET_CHANNEL", ErrMissingValue)
	}
	if c.Payment.DefaultAmount < 0 {
		return fmt.Errorf("PAYMENT_DEFAULT_AMOUNT must not be negative, got %d", c.Payment.DefaultAmount)
	}
	if c.Payment.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive, got %s", c.Payment.GatewayTimeout)
	}
	if c.Payment.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive, got %s", c.Payment.NotifyTimeout)
	}
	if c.NewRelic.Enabled && c.NewRelic.LicenseKey == "" {
		return fmt.Errorf("%w: NEW_RELIC_LICENSE_KEY (NEW_RELIC_ENABLED is set)", ErrMissingValue)
	}
	return c.Square.Validate()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ErrInvalidValue is returned when an environment variable cannot be parsed.
var ErrInvalidValue = errors.New("invalid configuration value")

// envReader parses typed environment variables and collects every parse
// failure so a malformed value is reported instead of replaced by a default.
type envReader struct {
	errs []error
}

func (r *envReader) fail(key, value string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, key, value, err))
}

// Err returns all parse failures joined, or nil.
func (r *envReader) Err() error {
	return errors.Join(r.errs...)
}

func (r *envReader) int64Env(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		r.fail(key, value, err)
		return defaultValue
	}
	return intVal
}

func (r *envReader) boolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key, value, err)
		return defaultValue
	}
	return boolVal
}

func (r *envReader) durationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		r.fail(key, value, err)
		return defaultValue
	}
	return duration
}
