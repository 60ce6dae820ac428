package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	toml "github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors Config for the optional config file. Every field is
// optional; only the values present in the file override the defaults.
type fileConfig struct {
	Server    *fileServer    `hcl:"server,block" toml:"server"`
	LLM       *fileLLM       `hcl:"llm,block" toml:"llm"`
	Log       *fileLog       `hcl:"log,block" toml:"log"`
	Telemetry *fileTelemetry `hcl:"telemetry,block" toml:"telemetry"`
	Metrics   *fileMetrics   `hcl:"metrics,block" toml:"metrics"`
	CORS      *fileCORS      `hcl:"cors,block" toml:"cors"`
}

type fileServer struct {
	Host            *string `hcl:"host,optional" toml:"host"`
	Port            *int    `hcl:"port,optional" toml:"port"`
	ReadTimeout     *string `hcl:"read_timeout,optional" toml:"read_timeout"`
	WriteTimeout    *string `hcl:"write_timeout,optional" toml:"write_timeout"`
	ShutdownTimeout *string `hcl:"shutdown_timeout,optional" toml:"shutdown_timeout"`
}

type fileLLM struct {
	APIKey      *string  `hcl:"api_key,optional" toml:"api_key"`
	BaseURL     *string  `hcl:"base_url,optional" toml:"base_url"`
	Model       *string  `hcl:"model,optional" toml:"model"`
	Temperature *float64 `hcl:"temperature,optional" toml:"temperature"`
	MaxTokens   *int     `hcl:"max_tokens,optional" toml:"max_tokens"`
	Timeout     *string  `hcl:"timeout,optional" toml:"timeout"`
}

type fileLog struct {
	Level  *string `hcl:"level,optional" toml:"level"`
	Format *string `hcl:"format,optional" toml:"format"`
}

type fileTelemetry struct {
	Enabled     *bool   `hcl:"enabled,optional" toml:"enabled"`
	ServiceName *string `hcl:"service_name,optional" toml:"service_name"`
	Endpoint    *string `hcl:"endpoint,optional" toml:"endpoint"`
}

type fileMetrics struct {
	Addr *string `hcl:"addr,optional" toml:"addr"`
}

type fileCORS struct {
	AllowedOrigins []string `hcl:"allowed_origins,optional" toml:"allowed_origins"`
}

// loadFile decodes path by extension and merges it into cfg.
func loadFile(cfg *Config, path string) error {
	var fc fileConfig

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		if err := hclsimple.DecodeFile(path, nil, &fc); err != nil {
			return fmt.Errorf("decode hcl config %s: %w", path, err)
		}
	case ".toml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("decode toml config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q (want .hcl or .toml)", ext)
	}

	v := NewValidator()
	fc.apply(cfg, v)
	return v.Error()
}

func (fc *fileConfig) apply(cfg *Config, v *Validator) {
	if s := fc.Server; s != nil {
		setString(&cfg.Server.Host, s.Host)
		setInt(&cfg.Server.Port, s.Port)
		setDuration(v, "server.read_timeout", &cfg.Server.ReadTimeout, s.ReadTimeout)
		setDuration(v, "server.write_timeout", &cfg.Server.WriteTimeout, s.WriteTimeout)
		setDuration(v, "server.shutdown_timeout", &cfg.Server.ShutdownTimeout, s.ShutdownTimeout)
	}
	if l := fc.LLM; l != nil {
		setString(&cfg.LLM.APIKey, l.APIKey)
		setString(&cfg.LLM.BaseURL, l.BaseURL)
		setString(&cfg.LLM.Model, l.Model)
		if l.Temperature != nil {
			cfg.LLM.Temperature = *l.Temperature
		}
		setInt(&cfg.LLM.MaxTokens, l.MaxTokens)
		setDuration(v, "llm.timeout", &cfg.LLM.Timeout, l.Timeout)
	}
	if l := fc.Log; l != nil {
		setString(&cfg.Log.Level, l.Level)
		setString(&cfg.Log.Format, l.Format)
		cfg.Log.Level = strings.ToLower(cfg.Log.Level)
		cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	}
	if t := fc.Telemetry; t != nil {
		if t.Enabled != nil {
			cfg.Telemetry.Enabled = *t.Enabled
		}
		setString(&cfg.Telemetry.ServiceName, t.ServiceName)
		setString(&cfg.Telemetry.Endpoint, t.Endpoint)
	}
	if m := fc.Metrics; m != nil {
		setString(&cfg.Metrics.Addr, m.Addr)
	}
	if c := fc.CORS; c != nil && len(c.AllowedOrigins) > 0 {
		cfg.CORS.AllowedOrigins = c.AllowedOrigins
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(v *Validator, field string, dst *time.Duration, src *string) {
	if src == nil {
		return
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		v.add(field, fmt.Sprintf("not a duration: %q", *src))
		return
	}
	*dst = d
}
