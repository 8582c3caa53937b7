package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfig_Defaults(t *testing.T) {
	cfg, err := LoadServerConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadServerConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fulltext.yaml")
	content := `
server:
  port: 9000
search:
  defaultLimit: 20
  maxLimit: 200
cache:
  backend: redis
  ttl: 30s
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("FT_LOGGING_FORMAT", "console")
	t.Setenv("FT_DATA_DIR", "/tmp/ft")

	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "/tmp/ft", cfg.Storage.DataDir)
	assert.Equal(t, 4, cfg.Search.Parallelism, "unset values keep their defaults")
}

func TestServerConfigValidate(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Search.MaxLimit = 5
	assert.Error(t, cfg.Validate())

	cfg = DefaultServerConfig()
	cfg.Cache.Backend = "memcached"
	assert.Error(t, cfg.Validate())

	cfg = DefaultServerConfig()
	cfg.Search.Parallelism = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Search.Parallelism)
}
