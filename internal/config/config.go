package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// Database (optional; without it /query returns 503)
	DatabaseURL    string `json:"database_url"`
	QueryTimeoutMs int    `json:"query_timeout_ms"`

	// LLM fallback (optional; without a key the pattern path runs alone)
	AnthropicAPIKey   string `json:"anthropic_api_key"`
	AnthropicBaseURL  string `json:"anthropic_base_url"` // override for custom proxy
	FallbackModel     string `json:"fallback_model"`
	FallbackTimeoutMs int    `json:"fallback_timeout_ms"`
	FallbackCacheTTL  int    `json:"fallback_cache_ttl"` // seconds

	// Security. Empty keyword/column lists mean the built-in defaults.
	EnablePIIDetection bool     `json:"enable_pii_detection"`
	EnableDataMasking  bool     `json:"enable_data_masking"`
	EnableAuditLogging bool     `json:"enable_audit_logging"`
	PIIKeywords        []string `json:"pii_keywords"`
	SensitiveColumns   []string `json:"sensitive_columns"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:               DefaultHost,
		Port:               DefaultPort,
		Environment:        DefaultEnvironment,
		APIPrefix:          DefaultAPIPrefix,
		LogLevel:           DefaultLogLevel,
		CORSOrigins:        DefaultCORSOrigins,
		APIKeyHeader:       "X-API-Key",
		EnableAuth:         true,
		RateLimitPerMinute: DefaultRateLimitPerMinute,
		QueryTimeoutMs:     DefaultQueryTimeoutMs,
		FallbackModel:      DefaultFallbackModel,
		FallbackTimeoutMs:  DefaultFallbackTimeoutMs,
		FallbackCacheTTL:   DefaultFallbackCacheTTL,
		EnablePIIDetection: true,
		EnableDataMasking:  true,
		EnableAuditLogging: true,
	}

	// Load from JSON config file if specified
	if path := getEnv("CRMLENS_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	if cfg.QueryTimeoutMs > MaxQueryTimeoutMs {
		cfg.QueryTimeoutMs = MaxQueryTimeoutMs
	}

	return cfg, nil
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("CRMLENS_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("CRMLENS_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("CRMLENS_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("CRMLENS_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("CRMLENS_API_KEYS", ""); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
	}
	if v := getEnv("CRMLENS_ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
	if v := getEnv("CRMLENS_RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("CRMLENS_DATABASE_URL", ""); v != "" {
		cfg.DatabaseURL = v
	}
	if v := getEnv("CRMLENS_QUERY_TIMEOUT_MS", ""); v != "" {
		if t, err := strconv.Atoi(v); err == nil {
			cfg.QueryTimeoutMs = t
		}
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := getEnv("CRMLENS_FALLBACK_MODEL", ""); v != "" {
		cfg.FallbackModel = v
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
