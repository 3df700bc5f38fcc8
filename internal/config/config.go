package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig          `envconfig:"APP"`
	Postgres     PostgresConfig     `envconfig:"POSTGRES"`
	Redis        RedisConfig        `envconfig:"REDIS"`
	Logger       LoggerConfig       `envconfig:"LOG"`
	Auth         AuthConfig         `envconfig:"AUTH"`
	Storage      StorageConfig      `envconfig:"STORAGE"`
	Notification NotificationConfig `envconfig:"NOTIFY"`
	RateLimit    RateLimitConfig    `envconfig:"RATE_LIMIT"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `envconfig:"NAME" default:"employee-portal"`
	Env                   string `envconfig:"ENV" default:"development"`
	Host                  string `envconfig:"HOST" default:"0.0.0.0"`
	Port                  string `envconfig:"PORT" default:"8080"`
	Version               string `envconfig:"VERSION" default:"dev"`
	RequestTimeoutSeconds int    `envconfig:"REQUEST_TIMEOUT_SECONDS" default:"30"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `envconfig:"DSN"`
	MaxConns       int32  `envconfig:"MAX_CONNS" default:"10"`
	MinConns       int32  `envconfig:"MIN_CONNS" default:"2"`
	RunMigrations  bool   `envconfig:"RUN_MIGRATIONS" default:"true"`
	ConnMaxIdleSec int32  `envconfig:"CONN_MAX_IDLE_SECONDS" default:"30"`
	ConnMaxLifeSec int32  `envconfig:"CONN_MAX_LIFE_SECONDS" default:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `envconfig:"ADDR" default:"127.0.0.1:6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string `envconfig:"JWT_SECRET" default:"dev-secret"`
	AccessTokenTTLMinutes   int    `envconfig:"ACCESS_TOKEN_TTL_MINUTES" default:"60"`
	PasswordResetTTLMinutes int    `envconfig:"PASSWORD_RESET_TTL_MINUTES" default:"30"`
	BcryptCost              int    `envconfig:"BCRYPT_COST" default:"12"`
	MinPasswordLength       int    `envconfig:"MIN_PASSWORD_LENGTH" default:"8"`
	BootstrapAdminEmail     string `envconfig:"BOOTSTRAP_ADMIN_EMAIL"`
	// PasswordResetURL is the page reset emails link to; the token is appended as ?token=.
	PasswordResetURL string `envconfig:"PASSWORD_RESET_URL"`

	// Dev bypass is off unless explicitly enabled and never allowed in production.
	DevBypassEnabled  bool   `envconfig:"DEV_BYPASS_ENABLED" default:"false"`
	DevBypassEmail    string `envconfig:"DEV_BYPASS_EMAIL"`
	DevBypassPassword string `envconfig:"DEV_BYPASS_PASSWORD"`
}

// StorageConfig configures the salary slip blob store.
type StorageConfig struct {
	RootDir             string `envconfig:"ROOT_DIR" default:"./data/objects"`
	SigningSecret       string `envconfig:"SIGNING_SECRET"`
	SignedURLTTLSeconds int    `envconfig:"SIGNED_URL_TTL_SECONDS" default:"300"`
	PublicBaseURL       string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	MaxUploadBytes      int    `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string `envconfig:"EMAIL_FROM" default:"noreply@example.com"`
	WebhookURL string `envconfig:"WEBHOOK_URL"`
}

// RateLimitConfig bounds unauthenticated auth endpoints per client IP.
type RateLimitConfig struct {
	LoginPerMinute int `envconfig:"LOGIN_PER_MINUTE" default:"10"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("config: AUTH_BCRYPT_COST out of range: %d", c.Auth.BcryptCost)
	}
	if c.Auth.DevBypassEnabled {
		if c.App.IsProduction() {
			return errors.New("config: AUTH_DEV_BYPASS_ENABLED is not allowed in production")
		}
		if c.Auth.DevBypassEmail == "" || c.Auth.DevBypassPassword == "" {
			return errors.New("config: dev bypass requires AUTH_DEV_BYPASS_EMAIL and AUTH_DEV_BYPASS_PASSWORD")
		}
	}
	if c.App.IsProduction() && c.Auth.JWTSecret == "dev-secret" {
		return errors.New("config: AUTH_JWT_SECRET must be set in production")
	}
	if c.Auth.PasswordResetURL == "" {
		c.Auth.PasswordResetURL = strings.TrimRight(c.Storage.PublicBaseURL, "/") + "/reset-password"
	}
	if c.Storage.SigningSecret == "" {
		c.Storage.SigningSecret = c.Auth.JWTSecret
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// PasswordResetTTL returns how long reset tokens stay valid.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	if a.PasswordResetTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

// AccessTokenTTL returns the session token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// SignedURLTTL returns the lifetime of signed download links.
func (s StorageConfig) SignedURLTTL() time.Duration {
	if s.SignedURLTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.SignedURLTTLSeconds) * time.Second
}
