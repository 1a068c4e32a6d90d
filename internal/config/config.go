package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultSecretKey = "snapshare-insecure-default-key-for-dev"

// Config holds every setting the application needs at startup. It is built
// once in main and handed to constructors explicitly.
type Config struct {
	AppPort        string
	Debug          bool
	SecretKey      string
	AllowedHosts   []string
	LogLevel       string
	RequestTimeout time.Duration
	SessionTTL     time.Duration
	MaxUploadBytes int

	Database DatabaseConfig
	Storage  StorageConfig

	RedisURL    string
	RabbitMQURL string
}

// DatabaseConfig describes how to reach the relational store.
type DatabaseConfig struct {
	Driver   string // "postgres" or "sqlite"
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// StorageConfig selects and configures the media blob backend.
type StorageConfig struct {
	Provider      string // "local" or "s3"
	MediaRoot     string
	MediaURL      string
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Prefix        string
	URLExpiration time.Duration
	MaxAttempts   int
}

// Load reads configuration from the environment (and a .env file if present).
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("SECRET_KEY", defaultSecretKey)
	v.SetDefault("ALLOWED_HOSTS", "localhost,127.0.0.1")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REQUEST_TIMEOUT", 10*time.Second)
	v.SetDefault("SESSION_TTL", 24*time.Hour)
	v.SetDefault("MAX_UPLOAD_BYTES", 100*1024*1024)

	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "snapshare")
	v.SetDefault("DB_SSLMODE", "require")

	v.SetDefault("STORAGE_PROVIDER", "")
	v.SetDefault("MEDIA_ROOT", "./media")
	v.SetDefault("MEDIA_URL", "/media/")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_REGION", "auto")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_PREFIX", "media")
	v.SetDefault("STORAGE_URL_EXPIRATION", time.Hour)
	v.SetDefault("STORAGE_MAX_ATTEMPTS", 3)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("RABBITMQ_URL", "")
}

// FromViper builds a Config from an already-populated viper instance.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		AppPort:        v.GetString("APP_PORT"),
		Debug:          v.GetBool("DEBUG"),
		SecretKey:      v.GetString("SECRET_KEY"),
		AllowedHosts:   splitList(v.GetString("ALLOWED_HOSTS")),
		LogLevel:       v.GetString("LOG_LEVEL"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		SessionTTL:     v.GetDuration("SESSION_TTL"),
		MaxUploadBytes: v.GetInt("MAX_UPLOAD_BYTES"),
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DATABASE_DRIVER")),
			DSN:      v.GetString("DATABASE_DSN"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Storage: StorageConfig{
			Provider:      strings.ToLower(v.GetString("STORAGE_PROVIDER")),
			MediaRoot:     v.GetString("MEDIA_ROOT"),
			MediaURL:      v.GetString("MEDIA_URL"),
			Endpoint:      strings.TrimRight(v.GetString("S3_ENDPOINT"), "/"),
			Region:        v.GetString("S3_REGION"),
			AccessKey:     v.GetString("S3_ACCESS_KEY"),
			SecretKey:     v.GetString("S3_SECRET_KEY"),
			Bucket:        v.GetString("S3_BUCKET"),
			Prefix:        strings.Trim(v.GetString("S3_PREFIX"), "/"),
			URLExpiration: v.GetDuration("STORAGE_URL_EXPIRATION"),
			MaxAttempts:   v.GetInt("STORAGE_MAX_ATTEMPTS"),
		},
		RedisURL:    v.GetString("REDIS_URL"),
		RabbitMQURL: v.GetString("RABBITMQ_URL"),
	}
	if cfg.Storage.Provider == "" {
		if cfg.Debug {
			cfg.Storage.Provider = "local"
		} else {
			cfg.Storage.Provider = "s3"
		}
	}
	return cfg
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER: unsupported value %q", c.Database.Driver))
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN is required for the sqlite driver"))
	}
	switch c.Storage.Provider {
	case "local":
		if c.Storage.MediaRoot == "" {
			errs = append(errs, errors.New("MEDIA_ROOT is required for local storage"))
		}
	case "s3":
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for s3 storage"))
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			errs = append(errs, errors.New("S3_ACCESS_KEY and S3_SECRET_KEY are required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_PROVIDER: unsupported value %q", c.Storage.Provider))
	}
	if !c.Debug && (c.SecretKey == "" || c.SecretKey == defaultSecretKey) {
		errs = append(errs, errors.New("SECRET_KEY must be set when DEBUG is off"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// PostgresDSN returns DATABASE_DSN or a DSN assembled from the DB_* keys.
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

// HostAllowed reports whether host (without port) matches ALLOWED_HOSTS.
// An entry starting with "." matches the domain and all its subdomains.
func (c *Config) HostAllowed(host string) bool {
	if len(c.AllowedHosts) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, pattern := range c.AllowedHosts {
		pattern = strings.ToLower(pattern)
		switch {
		case pattern == "*":
			return true
		case strings.HasPrefix(pattern, "."):
			if host == pattern[1:] || strings.HasSuffix(host, pattern) {
				return true
			}
		case host == pattern:
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
