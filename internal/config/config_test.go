package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, int64(64<<20), cfg.HTTP.MaxRequestBytes)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.False(t, cfg.HTTP.TrustProxy)
	assert.Equal(t, "disk", cfg.Storage.Backend)
	assert.Equal(t, "uploads", cfg.Storage.Dir)
	assert.Equal(t, int64(10<<20), cfg.Storage.MaxFileBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JURIDOC_HTTP_ADDR", ":8088")
	t.Setenv("JURIDOC_STORAGE_MAX_FILE_BYTES", "1048576")
	t.Setenv("JURIDOC_LOG_FORMAT", "text")
	t.Setenv("JURIDOC_HTTP_TRUST_PROXY", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8088", cfg.HTTP.Addr)
	assert.Equal(t, int64(1048576), cfg.Storage.MaxFileBytes)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.HTTP.TrustProxy)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "juridoc.yaml")
	yaml := `
http:
  addr: ":9000"
storage:
  dir: /var/lib/juridoc/uploads
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "/var/lib/juridoc/uploads", cfg.Storage.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "disk", cfg.Storage.Backend)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Addr: "", MaxRequestBytes: 10},
		Storage: StorageConfig{Backend: "s3", MaxFileBytes: 20},
		Log:     LogConfig{Format: "xml"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "http.addr")
	assert.Contains(t, msg, "storage.max_file_bytes")
	assert.Contains(t, msg, "storage.s3")
	assert.Contains(t, msg, "log.format")
}
