package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Auth          AuthConfig          `koanf:"auth"`
	Redis         RedisConfig         `koanf:"redis"`
	RateLimit     RateLimitConfig     `koanf:"rate_limit"`
	ProfileUpdate ProfileUpdateConfig `koanf:"profile_update"`
	Otel          OtelConfig          `koanf:"otel"`
	Log           LogConfig           `koanf:"log"`
}

type DatabaseConfig struct {
	URL               string        `koanf:"url"`
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	User              string        `koanf:"user"`
	Password          string        `koanf:"password"`
	Name              string        `koanf:"name"`
	SSLMode           string        `koanf:"sslmode"`
	MaxConns          int32         `koanf:"max_conns"`
	MinConns          int32         `koanf:"min_conns"`
	MaxConnLifetime   time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `koanf:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `koanf:"health_check_period"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	Env             string        `koanf:"env"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
	TrustedProxies  []string      `koanf:"trusted_proxies"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type AuthConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	Issuer            string        `koanf:"issuer"`
	AccessTokenExpiry time.Duration `koanf:"access_token_expiry"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

// RateLimitConfig covers both the per-IP limiter and the per-user submission limiter.
type RateLimitConfig struct {
	RequestsPerMinute int           `koanf:"requests_per_minute"`
	SubmitRate        int           `koanf:"submit_rate"`
	SubmitBurst       int           `koanf:"submit_burst"`
	SubmitPeriod      time.Duration `koanf:"submit_period"`
	FailOpen          bool          `koanf:"fail_open"`
}

type ProfileUpdateConfig struct {
	// AllowStatusChange lets a request carry a "status" key that is applied on approval.
	AllowStatusChange bool `koanf:"allow_status_change"`
	CommentMaxLength  int  `koanf:"comment_max_length"`
	ListLimit         int  `koanf:"list_limit"`
}

type OtelConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile layers defaults, an optional YAML file and environment variables.
func LoadFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Server.AllowedOrigins = trimList(cfg.Server.AllowedOrigins)
	cfg.Server.TrustedProxies = trimList(cfg.Server.TrustedProxies)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"server.port":             "8080",
		"server.env":              "development",
		"server.read_timeout":     "15s",
		"server.write_timeout":    "15s",
		"server.idle_timeout":     "60s",
		"server.shutdown_timeout": "30s",
		"server.allowed_origins": []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
		},
		"server.trusted_proxies": []string{},

		"database.host":                "localhost",
		"database.port":                5432,
		"database.user":                "postgres",
		"database.name":                "examhub",
		"database.sslmode":             "disable",
		"database.max_conns":           25,
		"database.min_conns":           5,
		"database.max_conn_lifetime":   "5m",
		"database.max_conn_idle_time":  "1m",
		"database.health_check_period": "1m",

		"auth.issuer":              "examhub",
		"auth.access_token_expiry": "15m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 2,

		"rate_limit.requests_per_minute": 100,
		"rate_limit.submit_rate":         5,
		"rate_limit.submit_burst":        2,
		"rate_limit.submit_period":       "1h",
		"rate_limit.fail_open":           true,

		"profile_update.allow_status_change": true,
		"profile_update.comment_max_length":  1000,
		"profile_update.list_limit":          50,

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "examhub",

		"log.level": "info",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"PORT":                    "server.port",
	"ENV":                     "server.env",
	"ALLOWED_ORIGINS":         "server.allowed_origins",
	"TRUSTED_PROXIES":         "server.trusted_proxies",
	"SERVER_READ_TIMEOUT":     "server.read_timeout",
	"SERVER_WRITE_TIMEOUT":    "server.write_timeout",
	"SERVER_IDLE_TIMEOUT":     "server.idle_timeout",
	"SERVER_SHUTDOWN_TIMEOUT": "server.shutdown_timeout",

	"DATABASE_URL":           "database.url",
	"DB_HOST":                "database.host",
	"DB_PORT":                "database.port",
	"DB_USER":                "database.user",
	"DB_PASSWORD":            "database.password",
	"DB_NAME":                "database.name",
	"DB_SSLMODE":             "database.sslmode",
	"DB_MAX_CONNS":           "database.max_conns",
	"DB_MIN_CONNS":           "database.min_conns",
	"DB_MAX_CONN_LIFETIME":   "database.max_conn_lifetime",
	"DB_MAX_CONN_IDLE_TIME":  "database.max_conn_idle_time",
	"DB_HEALTH_CHECK_PERIOD": "database.health_check_period",

	"JWT_SECRET":          "auth.jwt_secret",
	"JWT_ISSUER":          "auth.issuer",
	"ACCESS_TOKEN_EXPIRY": "auth.access_token_expiry",

	"REDIS_URL":            "redis.url",
	"REDIS_POOL_SIZE":      "redis.pool_size",
	"REDIS_MIN_IDLE_CONNS": "redis.min_idle_conns",

	"RATE_LIMIT_REQUESTS_PER_MINUTE": "rate_limit.requests_per_minute",
	"RATE_LIMIT_SUBMIT_RATE":         "rate_limit.submit_rate",
	"RATE_LIMIT_SUBMIT_BURST":        "rate_limit.submit_burst",
	"RATE_LIMIT_SUBMIT_PERIOD":       "rate_limit.submit_period",
	"RATE_LIMIT_FAIL_OPEN":           "rate_limit.fail_open",

	"PROFILE_UPDATE_ALLOW_STATUS_CHANGE": "profile_update.allow_status_change",
	"PROFILE_UPDATE_COMMENT_MAX_LENGTH":  "profile_update.comment_max_length",
	"PROFILE_UPDATE_LIST_LIMIT":          "profile_update.list_limit",

	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",

	"LOG_LEVEL": "log.level",
}

// listKeys are comma-separated in the environment.
var listKeys = map[string]bool{
	"server.allowed_origins": true,
	"server.trusted_proxies": true,
}

func envValue(key, value string) (string, any) {
	mapped, ok := envKeyMap[key]
	if !ok {
		return "", nil
	}
	if listKeys[mapped] {
		return mapped, strings.Split(value, ",")
	}
	return mapped, value
}

func validate(c *Config) error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if err := validateJWTSecret(c.Auth.JWTSecret, c.Server.Env); err != nil {
		return err
	}

	if c.Database.URL == "" && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD or DATABASE_URL is required")
	}

	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server read and write timeouts must be positive")
	}

	if c.RateLimit.SubmitRate <= 0 || c.RateLimit.SubmitPeriod <= 0 {
		return fmt.Errorf("rate_limit.submit_rate and rate_limit.submit_period must be positive")
	}

	if c.IsProduction() && c.Otel.Enabled && c.Otel.Insecure {
		return fmt.Errorf("OTEL_INSECURE must be false in production")
	}

	return nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// DSN returns DATABASE_URL when set, otherwise a keyword/value connection string.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// URLString is the postgres:// form used by cmd/migrate.
func (c *DatabaseConfig) URLString() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

func (s *ServerConfig) Address() string {
	return ":" + s.Port
}

// trimList drops blanks and surrounding whitespace from list entries.
func trimList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
