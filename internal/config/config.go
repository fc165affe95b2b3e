package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the dashboard gateway.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Assistant AssistantConfig `yaml:"assistant"`
	Predictor PredictorConfig `yaml:"predictor"`
	Session   SessionConfig   `yaml:"session"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
	Advice    AdviceConfig    `yaml:"advice"`
	Reference ReferenceConfig `yaml:"reference"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// AssistantConfig configures the resilient RAG assistant client.
type AssistantConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	ChatPath    string        `yaml:"chatPath"`
	MaxAttempts int           `yaml:"maxAttempts"`
	Timeout     time.Duration `yaml:"timeout"`
	Backoff     time.Duration `yaml:"backoff"`
}

// PredictorConfig configures the financial-loss prediction client.
type PredictorConfig struct {
	BaseURL  string        `yaml:"baseURL"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// SessionConfig controls per-browser-session state.
type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// CacheConfig controls the optional Redis-backed shared cache.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// AdviceConfig controls recommendation rule-pack loading.
type AdviceConfig struct {
	Path string `yaml:"path"`
}

// ReferenceConfig controls reference content-pack loading.
type ReferenceConfig struct {
	Path string `yaml:"path"`
}

// Load initialises Config from a YAML file and optional environment
// overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("DIGITAL_SHIELD_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Assistant: AssistantConfig{
			ChatPath:    "/api/v1/rag/query",
			MaxAttempts: 3,
			Timeout:     45 * time.Second,
			Backoff:     2 * time.Second,
		},
		Predictor: PredictorConfig{
			Timeout:  45 * time.Second,
			CacheTTL: 5 * time.Minute,
		},
		Session: SessionConfig{TTL: 30 * time.Minute},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DIGITAL_SHIELD_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("DIGITAL_SHIELD_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("DIGITAL_SHIELD_ASSISTANT_BASE_URL"); v != "" {
		cfg.Assistant.BaseURL = v
	}
	if v := os.Getenv("DIGITAL_SHIELD_ASSISTANT_CHAT_PATH"); v != "" {
		cfg.Assistant.ChatPath = v
	}
	if v := os.Getenv("DIGITAL_SHIELD_ASSISTANT_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Assistant.MaxAttempts = n
		}
	}
	if v := os.Getenv("DIGITAL_SHIELD_ASSISTANT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Assistant.Timeout = d
		}
	}
	if v := os.Getenv("DIGITAL_SHIELD_ASSISTANT_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Assistant.Backoff = d
		}
	}
	if v := os.Getenv("DIGITAL_SHIELD_PREDICTOR_BASE_URL"); v != "" {
		cfg.Predictor.BaseURL = v
	}
	if v := os.Getenv("DIGITAL_SHIELD_PREDICTOR_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Predictor.Timeout = d
		}
	}
	if v := os.Getenv("DIGITAL_SHIELD_PREDICTOR_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Predictor.CacheTTL = d
		}
	}
	if v := os.Getenv("DIGITAL_SHIELD_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Session.TTL = d
		}
	}
	if v := os.Getenv("DIGITAL_SHIELD_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("DIGITAL_SHIELD_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("DIGITAL_SHIELD_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("DIGITAL_SHIELD_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("DIGITAL_SHIELD_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("DIGITAL_SHIELD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DIGITAL_SHIELD_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("DIGITAL_SHIELD_ADVICE_PATH"); v != "" {
		cfg.Advice.Path = v
	}
	if v := os.Getenv("DIGITAL_SHIELD_REFERENCE_PATH"); v != "" {
		cfg.Reference.Path = v
	}
}
