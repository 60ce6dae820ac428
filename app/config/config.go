package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ConfigPathEnv names an optional .hcl or .toml file read before the environment.
const ConfigPathEnv = "ASTRA_CONFIG"

type Config struct {
	Server    HTTPServerConfig
	LLM       LLMConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	Metrics   MetricsConfig
	CORS      CORSConfig
}

type HTTPServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (c HTTPServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

type MetricsConfig struct {
	// Addr starts a dedicated metrics listener when set, e.g. ":2112".
	Addr string
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Default() *Config {
	return &Config{
		Server: HTTPServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    180 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   1200,
			Timeout:     120 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "astra",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load builds the configuration from defaults, the optional file named by
// ASTRA_CONFIG and the environment, in that order, then validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigPathEnv); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	v := NewValidator()
	applyEnv(cfg, v)
	if err := v.Error(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	v := NewValidator()

	v.RequireNonEmpty("OPENAI_API_KEY", c.LLM.APIKey)
	v.RequireNonEmpty("OPENAI_MODEL", c.LLM.Model)
	v.ValidateFloatRange("OPENAI_TEMPERATURE", c.LLM.Temperature, 0.0, 2.0)
	v.RequirePositive("OPENAI_MAX_TOKENS", c.LLM.MaxTokens)
	v.RequirePositiveDuration("OPENAI_TIMEOUT", c.LLM.Timeout)

	v.ValidatePort("PORT", c.Server.Port)
	v.RequirePositiveDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	v.RequirePositiveDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	v.RequirePositiveDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	v.ValidateOneOf("LOG_LEVEL", c.Log.Level, "debug", "info", "warn", "error")
	v.ValidateOneOf("LOG_FORMAT", c.Log.Format, "json", "text")

	if len(c.CORS.AllowedOrigins) == 0 {
		v.add("CORS_ALLOWED_ORIGINS", "at least one origin is required")
	}

	return v.Error()
}

func applyEnv(cfg *Config, v *Validator) {
	cfg.LLM.APIKey = getEnv("OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.BaseURL = getEnv("OPENAI_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = getEnv("OPENAI_MODEL", cfg.LLM.Model)
	cfg.LLM.Temperature = getEnvFloat(v, "OPENAI_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.MaxTokens = getEnvInt(v, "OPENAI_MAX_TOKENS", cfg.LLM.MaxTokens)
	cfg.LLM.Timeout = getEnvDuration(v, "OPENAI_TIMEOUT", cfg.LLM.Timeout)

	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt(v, "PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvDuration(v, "SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration(v, "SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration(v, "SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(getEnv("LOG_FORMAT", cfg.Log.Format))

	cfg.Telemetry.Enabled = getEnvBool(v, "OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.ServiceName = getEnv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)

	cfg.Metrics.Addr = getEnv("METRICS_ADDR", cfg.Metrics.Addr)

	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.CORS.AllowedOrigins = splitList(origins)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(v *Validator, key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		v.add(key, fmt.Sprintf("not an integer: %q", raw))
		return defaultValue
	}
	return n
}

func getEnvFloat(v *Validator, key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v.add(key, fmt.Sprintf("not a number: %q", raw))
		return defaultValue
	}
	return f
}

func getEnvBool(v *Validator, key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		v.add(key, fmt.Sprintf("not a boolean: %q", raw))
		return defaultValue
	}
	return b
}

func getEnvDuration(v *Validator, key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		v.add(key, fmt.Sprintf("not a duration: %q", raw))
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
