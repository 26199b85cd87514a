// Package config loads host configuration for the arbor binaries.
//
// Settings come from, in increasing precedence: Default(), a YAML or HCL
// file, a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvSearchKey    = "TAVILY_API_KEY"
	EnvLogLevel     = "ARBOR_LOG_LEVEL"
	EnvAuditKey     = "ARBOR_AUDIT_KEY"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverBadger   = "badger"
)

type Config struct {
	LogLevel  string
	Timeout   time.Duration
	Store     StoreConfig
	Anthropic AnthropicConfig
	Search    SearchConfig
	Server    ServerConfig
	Retrieval RetrievalConfig
	Privacy   PrivacyConfig
}

// StoreConfig selects the audit store.
type StoreConfig struct {
	Driver    string
	DSN       string
	RedisAddr string
	Prefix    string
	TTL       time.Duration
	BadgerDir string
}

type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Version string
}

type SearchConfig struct {
	APIKey  string
	BaseURL string
}

type ServerConfig struct {
	Addr string
}

// RetrievalConfig points at a directory of text documents indexed by the
// in-memory retriever on startup.
type RetrievalConfig struct {
	Corpus string
}

// PrivacyConfig controls what of a run trace reaches the audit store.
// Keys are base64 encoded 32 byte AES keys.
type PrivacyConfig struct {
	Redact        []string
	EncryptionKey string
	FallbackKeys  []string
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		LogLevel: "info",
		Timeout:  5 * time.Minute,
		Store: StoreConfig{
			Driver:    DriverMemory,
			RedisAddr: "localhost:6379",
			Prefix:    "arbor:",
			BadgerDir: filepath.Join(".arbor", "audit"),
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load builds the configuration. An empty path skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		fromFile, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := mergo.Merge(&cfg, fromFile, mergo.WithOverride); err != nil {
			return Config{}, fmt.Errorf("failed to merge %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no component can honour.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverRedis, DriverBadger:
	case DriverPostgres, DriverSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("store driver %q requires a dsn", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if len(c.Privacy.FallbackKeys) > 0 && c.Privacy.EncryptionKey == "" {
		return fmt.Errorf("privacy fallback keys require an encryption key")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAnthropicKey); v != "" {
		cfg.Anthropic.APIKey = v
	}
	if v := os.Getenv(EnvSearchKey); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvAuditKey); v != "" {
		cfg.Privacy.EncryptionKey = v
	}
}

func readFile(path string) (Config, error) {
	var raw fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	case ".hcl":
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return Config{}, fmt.Errorf("failed to parse HCL config %s: %s", path, diags.Error())
		}
		if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
			return Config{}, fmt.Errorf("failed to decode HCL config %s: %s", path, diags.Error())
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return raw.toConfig()
}
