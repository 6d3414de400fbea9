package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logger"
	"gopkg.in/yaml.v3"
)

const (
	defaultTokenTTLSeconds     = 3600
	defaultUploadURLTTLSeconds = 60
	defaultReadURLTTLSeconds   = 3600
	defaultBcryptCost          = 10
	defaultReadURLCacheSize    = 1024
	defaultReconcileSpec       = "*/10 * * * *"
	defaultReconcileGrace      = 600
)

type Config struct {
	Port                int              `json:"port"`
	JWTSecret           string           `json:"jwt_secret"`
	TokenTTLSeconds     int64            `json:"token_ttl_seconds"`
	UploadURLTTLSeconds int64            `json:"upload_url_ttl_seconds"`
	ReadURLTTLSeconds   int64            `json:"read_url_ttl_seconds"`
	ReadURLCacheSize    int              `json:"read_url_cache_size"`
	BcryptCost          int              `json:"bcrypt_cost"`
	RateLimitSeconds    int64            `json:"rate_limit_seconds"`
	LogConfig           logger.LogConfig `json:"log_config"`
	UserStore           StoreConfig      `json:"user_store"`
	BlobStore           StoreConfig      `json:"blob_store"`
	CORS                CORSConfig       `json:"cors"`
	Metrics             MetricsConfig    `json:"metrics"`
	Reconcile           ReconcileConfig  `json:"reconcile"`
}

// StoreConfig selects a registered backend by Type and hands Data to its
// factory untouched.
type StoreConfig struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

type CORSConfig struct {
	AllowOrigins []string `json:"allow_origins"`
	AllowMethods []string `json:"allow_methods"`
	AllowHeaders []string `json:"allow_headers"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type ReconcileConfig struct {
	Enabled      bool   `json:"enabled"`
	Spec         string `json:"spec"`
	GraceSeconds int64  `json:"grace_seconds"`
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

func (c *Config) UploadURLTTL() time.Duration {
	return time.Duration(c.UploadURLTTLSeconds) * time.Second
}

func (c *Config) ReadURLTTL() time.Duration {
	return time.Duration(c.ReadURLTTLSeconds) * time.Second
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitSeconds) * time.Second
}

func (c *Config) ReconcileGrace() time.Duration {
	return time.Duration(c.Reconcile.GraceSeconds) * time.Second
}

// Load reads a JSON or YAML (by extension) config file, applies environment
// overrides and fills defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	cfg, err := Parse(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	ApplyEnv(cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Parse(raw []byte, ext string) (*Config, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var doc map[string]interface{}
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml config: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("convert yaml config: %w", err)
		}
		raw = converted
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// ApplyEnv overlays the deployment variables the handlers were originally
// configured with.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := getenv("PRIVATE_KEY"); v != "" {
		cfg.JWTSecret = v
	}
	if v := getenv("REGION"); v != "" {
		cfg.UserStore.set("region", v)
		cfg.BlobStore.set("region", v)
	}
	if v := getenv("DYNAMODB_TABLE_NAME"); v != "" {
		cfg.UserStore.set("table", v)
	}
	if v := getenv("BUCKET_NAME"); v != "" {
		cfg.BlobStore.set("bucket", v)
	}
}

func (s *StoreConfig) set(key string, value interface{}) {
	if s.Data == nil {
		s.Data = map[string]interface{}{}
	}
	s.Data[key] = value
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if c.TokenTTLSeconds <= 0 {
		c.TokenTTLSeconds = defaultTokenTTLSeconds
	}
	if c.UploadURLTTLSeconds <= 0 {
		c.UploadURLTTLSeconds = defaultUploadURLTTLSeconds
	}
	if c.ReadURLTTLSeconds <= 0 {
		c.ReadURLTTLSeconds = defaultReadURLTTLSeconds
	}
	if c.ReadURLCacheSize <= 0 {
		c.ReadURLCacheSize = defaultReadURLCacheSize
	}
	if c.BcryptCost <= 0 {
		c.BcryptCost = defaultBcryptCost
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if c.UserStore.Type == "" {
		c.UserStore.Type = "dynamodb"
	}
	if c.BlobStore.Type == "" {
		c.BlobStore.Type = "s3"
	}
	if c.BlobStore.Type == "local" {
		if _, ok := c.BlobStore.Data["secret"]; !ok {
			c.BlobStore.set("secret", c.JWTSecret)
		}
	}
	if len(c.CORS.AllowOrigins) == 0 {
		c.CORS.AllowOrigins = []string{"*"}
	}
	if len(c.CORS.AllowMethods) == 0 {
		c.CORS.AllowMethods = []string{"POST"}
	}
	if len(c.CORS.AllowHeaders) == 0 {
		c.CORS.AllowHeaders = []string{"Content-Type"}
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Reconcile.Spec == "" {
		c.Reconcile.Spec = defaultReconcileSpec
	}
	if c.Reconcile.GraceSeconds <= 0 {
		c.Reconcile.GraceSeconds = defaultReconcileGrace
	}
	return nil
}
