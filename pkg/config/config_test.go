package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerDefaults(t *testing.T) {
	s, err := LoadServer("", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/hearty", s.BasePath)
	assert.Equal(t, DefaultListenAddr, s.ListenAddr)
	assert.Equal(t, DefaultMetricsAddr, s.MetricsAddr)
}

func TestLoadServerFileThenEnvThenFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "heartyd.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("base_path: /from/file\nlisten_addr: 1.2.3.4:1\n"), 0644))

	s, err := LoadServer(cfgPath, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "/from/file", s.BasePath)
	assert.Equal(t, "1.2.3.4:1", s.ListenAddr)

	t.Setenv("HEARTY_BASE_PATH", "/from/env")
	s, err = LoadServer(cfgPath, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "/from/env", s.BasePath, "env overrides file")

	s, err = LoadServer(cfgPath, "/from/flag", "", "")
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", s.BasePath, "flag overrides env")
}

func TestLoadCacheDefaults(t *testing.T) {
	c, err := LoadCache("", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultListenAddr, c.ServerAddr)
	assert.Equal(t, DefaultCacheDir, c.CacheDir)
	assert.Equal(t, DefaultMaxCache, c.MaxSize)
}

func TestLoadCacheMaxSizeFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cache.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("max_cache_size: 3\ncache_dir: /x\n"), 0644))

	c, err := LoadCache(cfgPath, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, c.MaxSize)
	assert.Equal(t, "/x", c.CacheDir)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := LoadServer("/does/not/exist.yaml", "", "", "")
	assert.Error(t, err)
}
