package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TRAKTOID"

// ConfigFileEnv names the environment variable holding an optional YAML
// configuration file path.
const ConfigFileEnv = EnvPrefix + "_CONFIG_FILE"

// ErrValidation is wrapped by every configuration validation failure.
var ErrValidation = errors.New("validation failed")

// Load configuration from environment variables and optionally a config file
// named by TRAKTOID_CONFIG_FILE. Environment variables take precedence over
// values from config files.
func Load() (*Config, error) {
	return LoadFromFile(os.Getenv(ConfigFileEnv))
}

// LoadFromFile loads configuration from the YAML file at configPath (which
// may be empty) overlaid with TRAKTOID_* environment variables.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags and the cross-section rules.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if cfg.Preferences.Backend == BackendPostgres && cfg.Database.URL == "" {
		return fmt.Errorf("%w: database.url is required for the postgres preference backend", ErrValidation)
	}

	return nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("trakt.api_key", "")
	v.SetDefault("trakt.deferred_message", "This action will be done later...")
	v.SetDefault("preferences.backend", BackendMemory)
	v.SetDefault("preferences.file", "")
	v.SetDefault("preferences.watch", true)
	v.SetDefault("database.url", "")
	v.SetDefault("auth.password_hash", HashSHA1)
	v.SetDefault("auth.bcrypt_cost", 10)
}
