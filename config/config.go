// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	validLogLevels     = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes  = []string{"s3", "local"}
	validDatabaseTypes = []string{"sqlite", "postgres"}
	validCacheTypes    = []string{"memory", "redis"}
	validJWTAlgorithms = []string{"HS256", "HS384", "HS512"}
)

// VerificationTTL is how long an email verification link stays valid
const VerificationTTL = time.Hour

type Config struct {
	App       App
	Host      Host
	Database  Database
	JWT       JWT
	Auth      Auth
	Mail      Mail
	Storage   Storage
	AWS       AWS
	Upload    Upload
	Security  Security
	Cache     Cache
	Turnstile Turnstile
}

type App struct {
	LogLevel string
}

type Host struct {
	Port               int
	Domain             string
	CORS               []string
	SSLEnabled         bool
	CertificatePath    string
	CertificateKeyPath string
}

type Database struct {
	Type string
	DSN  string
}

type JWT struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Auth struct {
	CookieName      string
	CookieDomain    string
	RequireVerified bool
	// Accounts that stay unverified for longer are hard deleted together
	// with their resend rows. Nothing else ever removes a user. Only used
	// when RequireVerified is set, which is off by default. 0 disables the
	// cleanup.
	UnverifiedTTL time.Duration
}

// CleanupEnabled reports whether never verified accounts get deleted
func (a Auth) CleanupEnabled() bool {
	return a.RequireVerified && a.UnverifiedTTL > 0
}

type Mail struct {
	Host          string
	Port          int
	SenderAddress string
	Password      string
}

// Enabled reports whether outgoing mail goes through SMTP
func (m Mail) Enabled() bool {
	return m.Host != ""
}

type Storage struct {
	Type string
	// Local directory used when Type is "local". It is mounted under /static
	Dir string
	// Base URL used to build public links to stored objects. Defaults to the
	// host domain when empty
	PublicURL string
}

type AWS struct {
	AccessKey       string
	SecretAccessKey string
	Region          string
	Bucket          string
	// Custom S3 compatible endpoint (R2, MinIO)
	Endpoint string
}

type Upload struct {
	MaxSize int64 // bytes
}

type Security struct {
	RateLimit int
}

type Cache struct {
	Type          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type Turnstile struct {
	Enabled     bool
	SecretToken string
}

// BaseURL returns the absolute URL the application is reachable at
func (c *Config) BaseURL() string {
	scheme := "http"
	if c.Host.SSLEnabled {
		scheme = "https"
	}

	return scheme + "://" + strings.TrimSuffix(c.Host.Domain, "/")
}

// StorageURL returns the base URL under which stored files are served
func (c *Config) StorageURL() string {
	if c.Storage.PublicURL != "" {
		return strings.TrimSuffix(c.Storage.PublicURL, "/")
	}

	return c.BaseURL() + "/static"
}

// splitList accepts both TOML arrays and comma separated env values
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Load reads the config file at path (or config.toml in the working directory
// when path is empty), applies environment overrides and defaults and validates
// the result. The returned Config is not meant to be modified afterwards.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	//
	// ENVS
	//
	// jwt.secret -> JWT_SECRET and so on
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost:8080")
	v.SetDefault("host.cors", []string{"http://localhost:5173"})
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("jwt.algorithm", "HS256")
	v.SetDefault("jwt.access_ttl", "15m")
	v.SetDefault("jwt.refresh_ttl", "168h")

	v.SetDefault("auth.cookie_name", "refresh_token")
	v.SetDefault("auth.require_verified", false)
	v.SetDefault("auth.unverified_ttl", "720h")

	v.SetDefault("mail.port", 587)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.dir", "static")

	v.SetDefault("upload.max_size", 5)

	v.SetDefault("security.rate_limit", 10)

	v.SetDefault("cache.type", "memory")

	v.SetDefault("turnstile.enabled", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	c := &Config{
		App: App{
			LogLevel: v.GetString("app.log_level"),
		},
		Host: Host{
			Port:               v.GetInt("host.port"),
			Domain:             v.GetString("host.domain"),
			CORS:               splitList(v.GetStringSlice("host.cors")),
			SSLEnabled:         v.GetBool("host.ssl.enabled"),
			CertificatePath:    v.GetString("host.ssl.certificate_path"),
			CertificateKeyPath: v.GetString("host.ssl.certificate_key_path"),
		},
		Database: Database{
			Type: v.GetString("database.type"),
			DSN:  v.GetString("database.dsn"),
		},
		JWT: JWT{
			Secret:     v.GetString("jwt.secret"),
			Algorithm:  strings.ToUpper(v.GetString("jwt.algorithm")),
			AccessTTL:  v.GetDuration("jwt.access_ttl"),
			RefreshTTL: v.GetDuration("jwt.refresh_ttl"),
		},
		Auth: Auth{
			CookieName:      v.GetString("auth.cookie_name"),
			CookieDomain:    v.GetString("auth.cookie_domain"),
			RequireVerified: v.GetBool("auth.require_verified"),
			UnverifiedTTL:   v.GetDuration("auth.unverified_ttl"),
		},
		Mail: Mail{
			Host:          v.GetString("mail.host"),
			Port:          v.GetInt("mail.port"),
			SenderAddress: v.GetString("mail.sender_address"),
			Password:      v.GetString("mail.password"),
		},
		Storage: Storage{
			Type:      v.GetString("storage.type"),
			Dir:       v.GetString("storage.dir"),
			PublicURL: v.GetString("storage.public_url"),
		},
		AWS: AWS{
			AccessKey:       v.GetString("aws.access_key"),
			SecretAccessKey: v.GetString("aws.secret_access_key"),
			Region:          v.GetString("aws.region"),
			Bucket:          v.GetString("aws.bucket"),
			Endpoint:        v.GetString("aws.endpoint"),
		},
		Upload: Upload{
			MaxSize: v.GetInt64("upload.max_size") << 20,
		},
		Security: Security{
			RateLimit: v.GetInt("security.rate_limit"),
		},
		Cache: Cache{
			Type:          v.GetString("cache.type"),
			RedisAddr:     v.GetString("cache.redis_addr"),
			RedisPassword: v.GetString("cache.redis_password"),
			RedisDB:       v.GetInt("cache.redis_db"),
		},
		Turnstile: Turnstile{
			Enabled:     v.GetBool("turnstile.enabled"),
			SecretToken: v.GetString("turnstile.secret_token"),
		},
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) validate() error {
	if !slices.Contains(validLogLevels, c.App.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if c.Host.Port <= 0 {
		return errors.New("invalid port provided")
	}

	if c.Host.Domain == "" {
		return errors.New("host.domain can't be empty")
	}

	if c.Host.SSLEnabled {
		if c.Host.CertificatePath == "" {
			return errors.New("no ssl certificate path provided")
		}

		if c.Host.CertificateKeyPath == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if !slices.Contains(validDatabaseTypes, c.Database.Type) {
		return errors.New("invalid database type provided")
	}

	if c.Database.DSN == "" {
		return errors.New("database.dsn can't be empty")
	}

	if c.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "WARNING: You haven't set a JWT secret. Please set it as the JWT_SECRET environment variable or in the config.toml file.\nA random one you can use:\n\n"+genSecret())
		return errors.New("jwt.secret is missing")
	}

	if !slices.Contains(validJWTAlgorithms, c.JWT.Algorithm) {
		return fmt.Errorf("unsupported jwt algorithm %q", c.JWT.Algorithm)
	}

	if c.JWT.AccessTTL <= 0 {
		return errors.New("jwt.access_ttl must be bigger than 0")
	}

	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("jwt.refresh_ttl must be longer than jwt.access_ttl")
	}

	if c.Auth.CookieName == "" {
		return errors.New("auth.cookie_name can't be empty")
	}

	if c.Auth.UnverifiedTTL < 0 {
		return errors.New("auth.unverified_ttl can't be negative")
	}

	if c.Auth.UnverifiedTTL > 0 && c.Auth.UnverifiedTTL < VerificationTTL {
		return errors.New("auth.unverified_ttl must be longer than the verification link lifetime")
	}

	if c.Mail.Enabled() {
		if c.Mail.SenderAddress == "" {
			return errors.New("mail.sender_address can't be empty")
		}

		if c.Mail.Port <= 0 {
			return errors.New("invalid mail port provided")
		}
	}

	switch c.Storage.Type {
	case "s3":
		if c.AWS.AccessKey == "" {
			return errors.New("aws access key can't be empty")
		}
		if c.AWS.SecretAccessKey == "" {
			return errors.New("aws secret access key can't be empty")
		}
		if c.AWS.Bucket == "" {
			return errors.New("bucket can't be empty")
		}
		if c.AWS.Region == "" && c.AWS.Endpoint == "" {
			return errors.New("either aws.region or aws.endpoint must be set")
		}
	case "local":
		if c.Storage.Dir == "" {
			return errors.New("storage.dir can't be empty")
		}
	}

	if !slices.Contains(validStorageTypes, c.Storage.Type) {
		return errors.New("invalid storage type provided")
	}

	if c.Upload.MaxSize <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if c.Security.RateLimit <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if !slices.Contains(validCacheTypes, c.Cache.Type) {
		return errors.New("invalid cache type provided")
	}

	if c.Cache.Type == "redis" && c.Cache.RedisAddr == "" {
		return errors.New("cache.redis_addr can't be empty")
	}

	if c.Turnstile.Enabled && c.Turnstile.SecretToken == "" {
		return errors.New("turnstile secret token is missing")
	}

	return nil
}
