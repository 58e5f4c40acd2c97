package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "IMGTASK"

// defaults lists every configuration key with its default value. Registering
// each key lets viper resolve environment overrides during Unmarshal.
var defaults = map[string]interface{}{
	"server.port":               3000,
	"server.log_level":          "info",
	"server.shutdown_timeout":   "30s",
	"server.max_upload_bytes":   32 << 20,
	"database.driver":           DriverMongo,
	"database.url":              "mongodb://localhost:27017",
	"database.name":             "imgtask",
	"database.migrate_on_start": true,
	"storage.output_dir":        "./output",
	"storage.temp_dir":          "",
	"download.timeout":          "0s",
	"s3.enabled":                false,
	"s3.bucket":                 "",
	"s3.region":                 "",
	"s3.endpoint":               "",
	"s3.access_key_id":          "",
	"s3.secret_access_key":      "",
	"s3.use_path_style":         false,
	"s3.prefix":                 "",
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// A .env file in the working directory, when present, is loaded into the
// process environment first without overriding variables already set.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// Missing .env is the common case outside development
	_ = godotenv.Load()

	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Storage.TempDir == "" {
		cfg.Storage.TempDir = filepath.Join(cfg.Storage.OutputDir, "temp")
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and cross-field rules.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if err := cfg.Database.checkDriverURL(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}
