package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// isolate runs the test from an empty directory so no stray .env is loaded.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv(EnvAnthropicKey, "")
	t.Setenv(EnvSearchKey, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvAuditKey, "")
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "arbor.yaml", `
log_level: debug
timeout: 45s
store:
  driver: redis
  redis_addr: cache:6379
  ttl: 24h
anthropic:
  base_url: http://proxy
privacy:
  redact:
    - '\d{3}-\d{2}-\d{4}'
  encryption_key: active
  fallback_keys: [old]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, "arbor:", cfg.Store.Prefix, "unset fields keep defaults")
	assert.Equal(t, "http://proxy", cfg.Anthropic.BaseURL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{`\d{3}-\d{2}-\d{4}`}, cfg.Privacy.Redact)
	assert.Equal(t, "active", cfg.Privacy.EncryptionKey)
	assert.Equal(t, []string{"old"}, cfg.Privacy.FallbackKeys)
}

func TestLoad_HCL(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "arbor.hcl", `
log_level = "warn"

store {
  driver = "sqlite"
  dsn    = "audit.db"
}

server {
  addr = "127.0.0.1:9000"
}

retrieval {
  corpus = "./docs"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "audit.db", cfg.Store.DSN)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "./docs", cfg.Retrieval.Corpus)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "arbor.yaml", "anthropic:\n  api_key: from-file\n")
	t.Setenv(EnvAnthropicKey, "from-env")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvAuditKey, "key-from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Anthropic.APIKey)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "key-from-env", cfg.Privacy.EncryptionKey)
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	// godotenv never overrides a variable that is already set, even when empty.
	require.NoError(t, os.Unsetenv(EnvSearchKey))
	require.NoError(t, os.WriteFile(".env", []byte("TAVILY_API_KEY=tvly-dotenv\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "tvly-dotenv", cfg.Search.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"Unknown Format", "arbor.toml", "x = 1", "unsupported config format"},
		{"Bad Duration", "arbor.yaml", "timeout: soon", "invalid timeout"},
		{"Unknown Driver", "arbor.yaml", "store:\n  driver: mongo", "unknown store driver"},
		{"SQL Without DSN", "arbor.yaml", "store:\n  driver: postgres", "requires a dsn"},
		{"Fallback Without Key", "arbor.yaml", "privacy:\n  fallback_keys: [old]", "require an encryption key"},
		{"Bad HCL", "arbor.hcl", "store {", "failed to parse HCL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
