package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Harvey-AU/todo-service/internal/auth"
	"github.com/Harvey-AU/todo-service/internal/observability"
	"github.com/joho/godotenv"
)

// DefaultConfigFile is read when CONFIG_FILE is unset and the file exists
const DefaultConfigFile = "todo.toml"

// Config holds the application configuration
type Config struct {
	Port        string `toml:"port"`         // HTTP port to listen on
	Env         string `toml:"env"`          // Environment (development/production)
	LogLevel    string `toml:"log_level"`    // Log level (debug, info, warn, error)
	SentryDSN   string `toml:"sentry_dsn"`   // Sentry DSN for error tracking
	ErrorFormat string `toml:"error_format"` // Error body format (plain or json)
	AllowReset  bool   `toml:"allow_reset"`  // Enables POST /admin/reset outside production

	Auth          AuthConfig          `toml:"auth"`
	Observability ObservabilityConfig `toml:"observability"`

	// Source is the config file that was loaded, empty when none was
	Source string `toml:"-"`
	// Warnings are collected while loading and logged once logging is configured
	Warnings []string `toml:"-"`
}

// AuthConfig holds credentials and per-operation gating
type AuthConfig struct {
	Username  string         `toml:"username"`
	Password  string         `toml:"password"`
	JWTSecret string         `toml:"jwt_secret"`
	Required  RequiredConfig `toml:"required"`
}

// RequiredConfig says which operations need credentials
type RequiredConfig struct {
	Create bool `toml:"create"`
	List   bool `toml:"list"`
	Update bool `toml:"update"`
	Delete bool `toml:"delete"`
}

// ObservabilityConfig toggles OpenTelemetry and the Prometheus endpoint
type ObservabilityConfig struct {
	Enabled      bool   `toml:"enabled"`       // Toggle OpenTelemetry + Prometheus exporters
	MetricsAddr  string `toml:"metrics_addr"`  // Address for Prometheus metrics endpoint (":9464" style)
	OTLPEndpoint string `toml:"otlp_endpoint"` // OTLP HTTP endpoint for trace export
	OTLPHeaders  string `toml:"otlp_headers"`  // Comma separated headers for OTLP exporter
	OTLPInsecure bool   `toml:"otlp_insecure"` // Disable TLS verification for OTLP exporter
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Port:        "8080",
		Env:         "development",
		LogLevel:    "info",
		ErrorFormat: "plain",
		Auth: AuthConfig{
			Username: "admin",
			Password: "admin",
			Required: RequiredConfig{Create: true, List: true, Update: true, Delete: true},
		},
		Observability: ObservabilityConfig{
			Enabled:     true,
			MetricsAddr: ":9464",
		},
	}
}

// Load builds the configuration from defaults, an optional TOML file and the environment.
// Environment variables win over the file.
func Load() (*Config, error) {
	// .env.local takes priority for development
	_ = godotenv.Load(".env.local", ".env")

	cfg := Default()

	path, explicit := os.LookupEnv("CONFIG_FILE")
	if !explicit {
		path = DefaultConfigFile
	}
	if path != "" {
		if err := cfg.loadFile(path, explicit); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}

	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		c.warnf("%s: ignoring unknown config key %q", path, key.String())
	}

	c.Source = path
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvWithDefault("PORT", c.Port)
	c.Env = getEnvWithDefault("APP_ENV", c.Env)
	c.LogLevel = getEnvWithDefault("LOG_LEVEL", c.LogLevel)
	c.SentryDSN = getEnvWithDefault("SENTRY_DSN", c.SentryDSN)
	c.ErrorFormat = getEnvWithDefault("ERROR_FORMAT", c.ErrorFormat)
	c.AllowReset = c.getEnvBool("ALLOW_RESET", c.AllowReset)

	c.Auth.Username = getEnvWithDefault("AUTH_USERNAME", c.Auth.Username)
	c.Auth.Password = getEnvWithDefault("AUTH_PASSWORD", c.Auth.Password)
	c.Auth.JWTSecret = getEnvWithDefault("AUTH_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.Required.Create = c.getEnvBool("AUTH_REQUIRED_CREATE", c.Auth.Required.Create)
	c.Auth.Required.List = c.getEnvBool("AUTH_REQUIRED_LIST", c.Auth.Required.List)
	c.Auth.Required.Update = c.getEnvBool("AUTH_REQUIRED_UPDATE", c.Auth.Required.Update)
	c.Auth.Required.Delete = c.getEnvBool("AUTH_REQUIRED_DELETE", c.Auth.Required.Delete)

	c.Observability.Enabled = c.getEnvBool("OBSERVABILITY_ENABLED", c.Observability.Enabled)
	c.Observability.MetricsAddr = getEnvWithDefault("METRICS_ADDR", c.Observability.MetricsAddr)
	c.Observability.OTLPEndpoint = getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", c.Observability.OTLPEndpoint)
	c.Observability.OTLPHeaders = getEnvWithDefault("OTEL_EXPORTER_OTLP_HEADERS", c.Observability.OTLPHeaders)
	c.Observability.OTLPInsecure = c.getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", c.Observability.OTLPInsecure)
}

// Validate ensures all required configuration is present
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	authCfg := c.AuthConfig()
	if err := authCfg.Validate(); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(c.ErrorFormat)) {
	case "", "plain", "json":
	default:
		return fmt.Errorf("unknown error format %q", c.ErrorFormat)
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AuthConfig converts the auth section into the gate's configuration
func (c *Config) AuthConfig() auth.Config {
	return auth.Config{
		Username:  c.Auth.Username,
		Password:  c.Auth.Password,
		JWTSecret: c.Auth.JWTSecret,
		Required: map[auth.Operation]bool{
			auth.OpCreate: c.Auth.Required.Create,
			auth.OpList:   c.Auth.Required.List,
			auth.OpUpdate: c.Auth.Required.Update,
			auth.OpDelete: c.Auth.Required.Delete,
		},
	}
}

// ObservabilityConfig converts the observability section for observability.Init
func (c *Config) ObservabilityConfig(serviceName string) observability.Config {
	return observability.Config{
		Enabled:        c.Observability.Enabled,
		ServiceName:    serviceName,
		Environment:    c.Env,
		OTLPEndpoint:   strings.TrimSpace(c.Observability.OTLPEndpoint),
		OTLPHeaders:    ParseOTLPHeaders(c.Observability.OTLPHeaders),
		OTLPInsecure:   c.Observability.OTLPInsecure,
		MetricsAddress: c.Observability.MetricsAddr,
	}
}

// ParseOTLPHeaders splits "k1=v1,k2=v2" into a header map, skipping malformed pairs
func ParseOTLPHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return headers
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}

		headers[key] = value
	}

	return headers
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// getEnvWithDefault retrieves an environment variable or returns a default value if not set
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool retrieves an environment variable as a bool or returns a default value if not set or invalid
func (c *Config) getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	result, err := strconv.ParseBool(value)
	if err != nil {
		c.warnf("%s=%q is not a boolean, using default %t", key, value, defaultValue)
		return defaultValue
	}

	return result
}
