package config

import (
	"fmt"
	"net/url"
	"time"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverRedis    = "redis"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage" validate:"required"`
	Download DownloadConfig `mapstructure:"download"`
	S3       S3Config       `mapstructure:"s3"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
	// Upper bound for multipart upload bodies, in bytes.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"gt=0"`
}

// DatabaseConfig selects and configures the task persistence backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres mongo redis"`
	URL    string `mapstructure:"url" validate:"required,url"`
	// Name is the mongo database name; ignored by other drivers.
	Name string `mapstructure:"name"`
	// MigrateOnStart applies pending postgres migrations at startup.
	MigrateOnStart bool `mapstructure:"migrate_on_start"`
}

// StorageConfig controls where variants and temporary files are written.
type StorageConfig struct {
	OutputDir string `mapstructure:"output_dir" validate:"required"`
	// TempDir defaults to <OutputDir>/temp when empty.
	TempDir string `mapstructure:"temp_dir"`
}

// DownloadConfig tunes remote image acquisition. A zero timeout means none.
type DownloadConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// S3Config configures the optional mirror of produced variants.
type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket" validate:"required_if=Enabled true"`
	Region          string `mapstructure:"region" validate:"required_if=Enabled true"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	Prefix          string `mapstructure:"prefix"`
}

var driverSchemes = map[string][]string{
	DriverPostgres: {"postgres", "postgresql"},
	DriverMongo:    {"mongodb", "mongodb+srv"},
	DriverRedis:    {"redis", "rediss"},
}

// checkDriverURL ensures the database URL scheme matches the chosen driver.
func (c DatabaseConfig) checkDriverURL() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid database url: %w", err)
	}

	for _, scheme := range driverSchemes[c.Driver] {
		if u.Scheme == scheme {
			return nil
		}
	}

	return fmt.Errorf("database url scheme %q does not match driver %q", u.Scheme, c.Driver)
}
