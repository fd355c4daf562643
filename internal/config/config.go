// Package config loads the application configuration at startup.
//
// CONFIGURATION STRATEGY:
// All tunables live in one explicit Config struct, constructed once in main
// and passed by reference into each component's constructor. Nothing reads
// the environment after startup — components receive values, not a config
// source.
//
// We use viper so the same keys can come from a YAML file (local dev) or
// environment variables (deployments) without any component caring which.
// viper.AutomaticEnv lets SERVER_PORT override server.port, and so on.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Token  TokenConfig
	Auth   AuthConfig
	Media  MediaConfig
	Upload UploadConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DBConfig holds the embedded database configuration.
type DBConfig struct {
	Path string // SQLite file path, or ":memory:" for tests
}

// TokenConfig holds the JWT signing configuration.
//
// The access and refresh secrets MUST differ — an access token presented to
// the refresh endpoint (or vice versa) has to fail signature verification.
// Generate each with something like: openssl rand -hex 32
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration // short — minutes to hours
	RefreshExpiry time.Duration // long — days
}

// AuthConfig holds password hashing configuration.
type AuthConfig struct {
	BcryptCost int
}

// MediaConfig holds the external media host (S3-compatible) configuration.
type MediaConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool
}

// UploadConfig holds temporary upload storage configuration.
type UploadConfig struct {
	TempDir     string
	MaxFileSize int64 // bytes
}

// Load reads configuration from the given file and the environment.
//
// Environment variables override file values: the key "token.accessSecret"
// is overridden by TOKEN_ACCESSSECRET. Defaults are applied for everything
// non-secret, so a minimal config file only needs the secrets and media
// credentials.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			Host:            v.GetString("server.host"),
			ReadTimeout:     v.GetDuration("server.readTimeout"),
			WriteTimeout:    v.GetDuration("server.writeTimeout"),
			IdleTimeout:     v.GetDuration("server.idleTimeout"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		DB: DBConfig{
			Path: v.GetString("db.path"),
		},
		Token: TokenConfig{
			AccessSecret:  v.GetString("token.accessSecret"),
			RefreshSecret: v.GetString("token.refreshSecret"),
			AccessExpiry:  v.GetDuration("token.accessExpiry"),
			RefreshExpiry: v.GetDuration("token.refreshExpiry"),
		},
		Auth: AuthConfig{
			BcryptCost: v.GetInt("auth.bcryptCost"),
		},
		Media: MediaConfig{
			Endpoint:        v.GetString("media.endpoint"),
			AccessKeyID:     v.GetString("media.accessKeyId"),
			SecretAccessKey: v.GetString("media.secretAccessKey"),
			Bucket:          v.GetString("media.bucket"),
			Region:          v.GetString("media.region"),
			UseSSL:          v.GetBool("media.useSSL"),
		},
		Upload: UploadConfig{
			TempDir:     v.GetString("upload.tempDir"),
			MaxFileSize: v.GetInt64("upload.maxFileSize"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 15*time.Second)
	v.SetDefault("server.idleTimeout", 60*time.Second)
	v.SetDefault("server.shutdownTimeout", 30*time.Second)

	v.SetDefault("db.path", "data/users.db")

	v.SetDefault("token.accessExpiry", 15*time.Minute)
	v.SetDefault("token.refreshExpiry", 7*24*time.Hour)

	v.SetDefault("auth.bcryptCost", 12)

	v.SetDefault("media.bucket", "media")
	v.SetDefault("media.useSSL", false)

	v.SetDefault("upload.tempDir", "public/temp")
	v.SetDefault("upload.maxFileSize", int64(16<<20)) // 16 MB
}

// validate rejects configurations that cannot possibly work. Secrets are
// checked here, at startup, so a misconfigured deployment fails fast rather
// than on the first login.
func (c *Config) validate() error {
	if c.Token.AccessSecret == "" {
		return fmt.Errorf("config: token.accessSecret is required")
	}
	if c.Token.RefreshSecret == "" {
		return fmt.Errorf("config: token.refreshSecret is required")
	}
	if c.Token.AccessSecret == c.Token.RefreshSecret {
		return fmt.Errorf("config: access and refresh token secrets must differ")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	return nil
}
