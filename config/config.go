// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/stockpulse/stockpulseapi/shared/zaplogger"
)

// Config represents the application configuration
type Config struct {
	APIName            string `env:"SP_API_APP_NAME" default:"StockPulse API"`
	APIVersion         string `env:"SP_API_APP_VERSION" default:"1.0.0"`
	ServerPort         string `env:"SP_API_SERVER_PORT" default:"3008"`
	ServerLogLevel     string `env:"SP_API_SERVER_LOG_LEVEL" default:"info"`
	PostgresDsn        string `env:"SP_API_PG_DSN"`
	PostgresLogLevel   string `env:"SP_API_PG_LOG_LEVEL" default:"warn"`
	RedisUrl           string `env:"SP_API_REDIS_URL"`
	SmartAPIBaseUrl    string `env:"SP_API_SMARTAPI_BASE_URL" default:"https://apiconnect.angelone.in/rest"`
	SmartAPIKey        string `env:"SP_API_SMARTAPI_KEY"`
	SmartAPIClientCode string `env:"SP_API_SMARTAPI_CLIENT_CODE"`
	SmartAPIPin        string `env:"SP_API_SMARTAPI_PIN"`
	SmartAPITotpSecret string `env:"SP_API_SMARTAPI_TOTP_SECRET"`
	QuoteFetchInterval string `env:"SP_API_QUOTE_FETCH_INTERVAL" default:"30s"`
	AuthCheckInterval  string `env:"SP_API_AUTH_CHECK_INTERVAL" default:"5m"`
	AnalyticsCacheTTL  string `env:"SP_API_ANALYTICS_CACHE_TTL" default:"60s"`
}

var (
	SingleLine string = "--------------------------------------------------"
)

var (
	instance *Config
	once     sync.Once
	err      error
)

// Get returns the application configuration
func Get() (*Config, error) {
	zaplogger.Info(SingleLine)
	zaplogger.Info("Loading Configuration")

	once.Do(func() {
		instance, err = loadConfig()
	})
	return instance, err
}

// loadConfig loads configuration from environment variables
func loadConfig() (*Config, error) {
	cfg := &Config{}
	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() error {
	t := reflect.TypeOf(*c)
	v := reflect.ValueOf(c).Elem()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		envTag := field.Tag.Get("env")
		if envTag == "" {
			return fmt.Errorf("missing env tag for field %s", field.Name)
		}

		value := os.Getenv(envTag)
		if value == "" {
			value = field.Tag.Get("default")
		}
		if value == "" {
			return fmt.Errorf("env variable %s is required but not set", envTag)
		}

		v.Field(i).SetString(value)
	}

	return nil
}

// FetchInterval returns the quote fetch interval as a duration
func (c *Config) FetchInterval() time.Duration {
	return parseDuration(c.QuoteFetchInterval, 30*time.Second)
}

// AuthInterval returns the auth check interval as a duration
func (c *Config) AuthInterval() time.Duration {
	return parseDuration(c.AuthCheckInterval, 5*time.Minute)
}

// CacheTTL returns the analytics cache TTL as a duration
func (c *Config) CacheTTL() time.Duration {
	return parseDuration(c.AnalyticsCacheTTL, time.Minute)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// String returns the configuration as a string
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n--------------------------------------\n")
	sb.WriteString("Configuration:\n")
	sb.WriteString("--------------------------------------\n")

	t := reflect.TypeOf(*c)
	v := reflect.ValueOf(*c)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i).String()

		// Mask sensitive fields
		value = maskSensitiveField(field.Name, value)
		sb.WriteString(fmt.Sprintf("  %s:  %s\n", field.Name, value))
	}

	sb.WriteString("--------------------------------------\n")

	return sb.String()
}

func maskSensitiveField(fieldName, value string) string {
	sensitiveFields := []string{"token", "dsn", "secret", "pin", "password", "url", "key"}

	fieldNameLower := strings.ToLower(fieldName)
	for _, sensitive := range sensitiveFields {
		if strings.Contains(fieldNameLower, sensitive) {
			return maskValue(value)
		}
	}

	return value
}

func maskValue(value string) string {
	if len(value) <= 3 {
		return strings.Repeat("*", 7)
	}
	return value[:3] + strings.Repeat("*", 7)
}
