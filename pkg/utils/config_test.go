package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Greater(t, config.Coupling.H, 0.0)
	assert.GreaterOrEqual(t, config.Batch.Workers, 1)
	assert.NotEmpty(t, config.Output.Dir)
	require.NoError(t, validateConfig(config))
}

func TestValidateConfig(t *testing.T) {
	config := DefaultConfig()
	config.Coupling.H = 0
	assert.Error(t, validateConfig(config))

	config = DefaultConfig()
	config.Batch.Workers = -1
	assert.Error(t, validateConfig(config))

	config = DefaultConfig()
	config.Batch.StatePoints = -1
	assert.Error(t, validateConfig(config))
}

func TestGetConfigPath(t *testing.T) {
	path, err := GetConfigPath()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "config.yaml"))
	assert.Contains(t, path, ".zhukovsky")
}
