// Package config loads the client configuration from a YAML file,
// layered with environment variables and an optional .env file.
package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the named config file does not
// exist. Callers check it with errors.Is and fall back to defaults.
var ErrConfigNotFound = errors.New("config file not found")

// RetryConfig holds the startup retry bounds. Zero means "use the
// built-in default" for that class.
type RetryConfig struct {
	WriteOnlyTries      int `yaml:"write_only_tries" validate:"min=0,max=15"`
	WriteReadTries      int `yaml:"write_read_tries" validate:"min=0,max=15"`
	MultiPartReadTries  int `yaml:"multi_part_read_tries" validate:"min=0,max=15"`
	MultiPartWriteTries int `yaml:"multi_part_write_tries" validate:"min=0,max=15"`
}

// SleepConfig holds the startup pacing settings.
type SleepConfig struct {
	Multiplier   float64 `yaml:"multiplier" validate:"min=0"`
	DynamicSleep bool    `yaml:"dynamic_sleep"`
	SleepLess    bool    `yaml:"sleep_less"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	File  string `yaml:"file"`
}

// Config is the full client configuration.
type Config struct {
	Bus   int         `yaml:"bus" validate:"min=-1"`
	Retry RetryConfig `yaml:"retry"`
	Sleep SleepConfig `yaml:"sleep"`
	Log   LogConfig   `yaml:"log"`
}

var validate = validator.New()

// Default returns the configuration used when no file is present: bus
// auto-detection, built-in retry bounds, multiplier 1.0.
func Default() Config {
	return Config{
		Bus:   -1,
		Sleep: SleepConfig{Multiplier: 1.0},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads path, applies GODDC_* environment overrides and validates
// the result. A missing file yields ErrConfigNotFound; LoadOrDefault is
// the usual entry point.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, ErrConfigNotFound
		}
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)

	if err := validate.Struct(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, substituting defaults when the file is
// absent. Environment overrides apply either way.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, ErrConfigNotFound) {
		cfg = Default()
		_ = godotenv.Load()
		applyEnv(&cfg)
		if err := validate.Struct(cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	return cfg, err
}

func applyEnv(cfg *Config) {
	if v, ok := intEnv("GODDC_BUS"); ok {
		cfg.Bus = v
	}
	if v, ok := intEnv("GODDC_WRITE_ONLY_TRIES"); ok {
		cfg.Retry.WriteOnlyTries = v
	}
	if v, ok := intEnv("GODDC_WRITE_READ_TRIES"); ok {
		cfg.Retry.WriteReadTries = v
	}
	if v, ok := intEnv("GODDC_MULTI_PART_READ_TRIES"); ok {
		cfg.Retry.MultiPartReadTries = v
	}
	if v, ok := intEnv("GODDC_MULTI_PART_WRITE_TRIES"); ok {
		cfg.Retry.MultiPartWriteTries = v
	}
	if v := os.Getenv("GODDC_SLEEP_MULTIPLIER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Sleep.Multiplier = f
		}
	}
	if v := os.Getenv("GODDC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("GODDC_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

func intEnv(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
