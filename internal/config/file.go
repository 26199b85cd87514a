package config

import (
	"fmt"
	"time"
)

// fileConfig is the authored shape shared by YAML and HCL. Durations are
// strings such as "30s".
type fileConfig struct {
	LogLevel  string         `yaml:"log_level" hcl:"log_level,optional"`
	Timeout   string         `yaml:"timeout" hcl:"timeout,optional"`
	Store     *fileStore     `yaml:"store" hcl:"store,block"`
	Anthropic *fileAnthropic `yaml:"anthropic" hcl:"anthropic,block"`
	Search    *fileSearch    `yaml:"search" hcl:"search,block"`
	Server    *fileServer    `yaml:"server" hcl:"server,block"`
	Retrieval *fileRetrieval `yaml:"retrieval" hcl:"retrieval,block"`
	Privacy   *filePrivacy   `yaml:"privacy" hcl:"privacy,block"`
}

type fileStore struct {
	Driver    string `yaml:"driver" hcl:"driver,optional"`
	DSN       string `yaml:"dsn" hcl:"dsn,optional"`
	RedisAddr string `yaml:"redis_addr" hcl:"redis_addr,optional"`
	Prefix    string `yaml:"prefix" hcl:"prefix,optional"`
	TTL       string `yaml:"ttl" hcl:"ttl,optional"`
	BadgerDir string `yaml:"badger_dir" hcl:"badger_dir,optional"`
}

type fileAnthropic struct {
	APIKey  string `yaml:"api_key" hcl:"api_key,optional"`
	BaseURL string `yaml:"base_url" hcl:"base_url,optional"`
	Version string `yaml:"version" hcl:"version,optional"`
}

type fileSearch struct {
	APIKey  string `yaml:"api_key" hcl:"api_key,optional"`
	BaseURL string `yaml:"base_url" hcl:"base_url,optional"`
}

type fileServer struct {
	Addr string `yaml:"addr" hcl:"addr,optional"`
}

type fileRetrieval struct {
	Corpus string `yaml:"corpus" hcl:"corpus,optional"`
}

type filePrivacy struct {
	Redact        []string `yaml:"redact" hcl:"redact,optional"`
	EncryptionKey string   `yaml:"encryption_key" hcl:"encryption_key,optional"`
	FallbackKeys  []string `yaml:"fallback_keys" hcl:"fallback_keys,optional"`
}

func (f fileConfig) toConfig() (Config, error) {
	var cfg Config
	var err error

	cfg.LogLevel = f.LogLevel
	if cfg.Timeout, err = parseDuration("timeout", f.Timeout); err != nil {
		return Config{}, err
	}
	if s := f.Store; s != nil {
		cfg.Store = StoreConfig{
			Driver:    s.Driver,
			DSN:       s.DSN,
			RedisAddr: s.RedisAddr,
			Prefix:    s.Prefix,
			BadgerDir: s.BadgerDir,
		}
		if cfg.Store.TTL, err = parseDuration("store.ttl", s.TTL); err != nil {
			return Config{}, err
		}
	}
	if a := f.Anthropic; a != nil {
		cfg.Anthropic = AnthropicConfig(*a)
	}
	if s := f.Search; s != nil {
		cfg.Search = SearchConfig(*s)
	}
	if s := f.Server; s != nil {
		cfg.Server = ServerConfig(*s)
	}
	if r := f.Retrieval; r != nil {
		cfg.Retrieval = RetrievalConfig(*r)
	}
	if p := f.Privacy; p != nil {
		cfg.Privacy = PrivacyConfig(*p)
	}
	return cfg, nil
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	return d, nil
}
