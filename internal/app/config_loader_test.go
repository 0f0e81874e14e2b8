package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "yt-dlp", cfg.Download.YTDLPBinary)
	assert.Equal(t, 1, cfg.Download.WorkerCount)
	assert.Equal(t, 4*time.Second, cfg.Download.KillGrace)
	assert.NotContains(t, cfg.Download.OutputDir, "$HOME", "paths are expanded")
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9999
download:
  output_dir: /tmp/ytq-test
  worker_count: 3
  limit_rate: 5M
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "/tmp/ytq-test", cfg.Download.OutputDir)
	assert.Equal(t, 3, cfg.Download.WorkerCount)
	assert.Equal(t, "5M", cfg.Download.LimitRate)
	// unset keys keep their defaults
	assert.Equal(t, "yt-dlp", cfg.Download.YTDLPBinary)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 0\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
