package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "./data", config.DataDir)
	assert.Equal(t, "127.0.0.1", config.Bind)
	assert.Equal(t, 9420, config.Port)
	assert.Equal(t, "127.0.0.1:9421", config.Admin.Addr)
	assert.Equal(t, EngineLog, config.Store.Engine)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "127.0.0.1:9420", config.ListenAddr())
	require.NoError(t, config.Validate())
}

func TestSaveAndLoadConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "conf", "striptease.yaml")

	config := DefaultConfig()
	config.Port = 7000
	config.Store.Engine = EnginePebble
	config.Store.FsyncInterval = 50 * time.Millisecond
	require.NoError(t, SaveConfig(config, configPath))

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "striptease.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("port: 7001\n"), 0600))

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Unset fields keep their defaults.
	assert.Equal(t, 7001, loaded.Port)
	assert.Equal(t, "./data", loaded.DataDir)
	assert.Equal(t, EngineLog, loaded.Store.Engine)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("port: [not a number"), 0600))
		_, err := LoadConfig(configPath)
		require.Error(t, err)
	})

	t.Run("unknown engine", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "engine.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("store:\n  engine: tape\n"), 0600))
		_, err := LoadConfig(configPath)
		require.ErrorContains(t, err, "unknown store engine")
	})
}

func TestValidate(t *testing.T) {
	config := DefaultConfig()
	config.Port = 0
	require.ErrorContains(t, config.Validate(), "out of range")
}
