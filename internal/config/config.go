package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the portal configuration
type Config struct {
	Server struct {
		Port          string   `yaml:"port" env:"SERVER_PORT"`
		Mode          string   `yaml:"mode" env:"SERVER_MODE"`
		PublicBaseURL string   `yaml:"public_base_url" env:"SERVER_PUBLIC_BASE_URL"`
		CORSOrigins   []string `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS"`
		ShutdownGrace string   `yaml:"shutdown_grace" env:"SERVER_SHUTDOWN_GRACE"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Storage struct {
		Driver    string `yaml:"driver" env:"STORAGE_DRIVER"`
		LocalPath string `yaml:"local_path" env:"STORAGE_LOCAL_PATH"`
		Minio     struct {
			Endpoint      string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
			AccessKey     string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
			SecretKey     string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
			Bucket        string `yaml:"bucket" env:"MINIO_BUCKET"`
			UseSSL        bool   `yaml:"use_ssl" env:"MINIO_USE_SSL"`
			PresignExpiry string `yaml:"presign_expiry" env:"MINIO_PRESIGN_EXPIRY"`
		} `yaml:"minio"`
	} `yaml:"storage"`

	Upload struct {
		MaxBytes     int64    `yaml:"max_bytes" env:"UPLOAD_MAX_BYTES"`
		AllowedTypes []string `yaml:"allowed_types" env:"UPLOAD_ALLOWED_TYPES"`
	} `yaml:"upload"`

	SMTP struct {
		Host     string `yaml:"host" env:"SMTP_HOST"`
		Port     int    `yaml:"port" env:"SMTP_PORT"`
		Username string `yaml:"username" env:"SMTP_USERNAME"`
		Password string `yaml:"password" env:"SMTP_PASSWORD"`
		From     string `yaml:"from" env:"SMTP_FROM"`
		FromName string `yaml:"from_name" env:"SMTP_FROM_NAME"`
	} `yaml:"smtp"`

	Admin struct {
		Username string `yaml:"username" env:"ADMIN_USERNAME"`
		Password string `yaml:"password" env:"ADMIN_PASSWORD"`
		Email    string `yaml:"email" env:"ADMIN_EMAIL"`
	} `yaml:"admin"`
}

// LoadConfig reads the optional YAML file at configPath, then applies env overrides and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	raw, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		// env vars alone are enough in containers, but an unreadable file is a mistake
		return nil, fmt.Errorf("read %s: %w", configPath, err)
	}

	if err := applyEnv(config); err != nil {
		return nil, fmt.Errorf("environment override: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.PublicBaseURL = "http://localhost:8080"
	config.Server.CORSOrigins = []string{"http://localhost:3000"}
	config.Server.ShutdownGrace = "5s"

	// Database defaults
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "docportal"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	// Empty means the migrations embedded in the binary
	config.Database.MigrationsDir = ""

	// Sessions last one hour
	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "docportal.oaustech.edu.ng"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Storage.Driver = "local"
	config.Storage.LocalPath = "uploads"
	config.Storage.Minio.Bucket = "student-documents"
	config.Storage.Minio.PresignExpiry = "15m"

	config.Upload.MaxBytes = 10 << 20
	config.Upload.AllowedTypes = []string{"application/pdf", "image/jpeg", "image/png"}

	config.SMTP.Port = 587
	config.SMTP.FromName = "OAUSTECH Registration"
}

// validate reports every problem at once so a bad deployment is fixed in one pass
func (c *Config) validate() error {
	var errs []error
	durations := map[string]string{
		"jwt access_token_expiration": c.JWT.AccessTokenExpiration,
		"server shutdown_grace":       c.Server.ShutdownGrace,
	}

	if c.Database.Host == "" {
		errs = append(errs, errors.New("database host is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT secret is required"))
	}

	switch strings.ToLower(c.Storage.Driver) {
	case "local":
		if c.Storage.LocalPath == "" {
			errs = append(errs, errors.New("storage local_path is required for the local driver"))
		}
	case "minio":
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			errs = append(errs, errors.New("minio endpoint and bucket are required for the minio driver"))
		}
		durations["minio presign_expiry"] = c.Storage.Minio.PresignExpiry
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.Storage.Driver))
	}

	for name, v := range durations {
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("upload max_bytes must be positive"))
	}
	if len(c.Upload.AllowedTypes) == 0 {
		errs = append(errs, errors.New("at least one allowed upload type is required"))
	}
	return errors.Join(errs...)
}

// GetPostgresConnectionString builds the pgx URL; sslmode defaults to disable
func (c *Config) GetPostgresConnectionString() string {
	d := c.Database
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// AccessTokenTTL returns the parsed token lifetime. validate guarantees it parses.
func (c *Config) AccessTokenTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.AccessTokenExpiration)
	return d
}

// ShutdownGracePeriod returns how long in-flight requests get on shutdown.
func (c *Config) ShutdownGracePeriod() time.Duration {
	d, _ := time.ParseDuration(c.Server.ShutdownGrace)
	return d
}

// PresignExpiry returns the lifetime of presigned download URLs.
func (c *Config) PresignExpiry() time.Duration {
	d, err := time.ParseDuration(c.Storage.Minio.PresignExpiry)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// SMTPEnabled reports whether outgoing mail is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Host != "" && c.SMTP.From != ""
}
