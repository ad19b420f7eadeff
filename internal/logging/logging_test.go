package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabilan942/Career-Compass-AI/internal/config"
)

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.log")
	logger, err := New(config.LogConfig{Level: "debug", File: path})
	require.NoError(t, err)

	logger.Debug("entering step")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"entering step"`)
	assert.Contains(t, string(data), `"level":"debug"`)
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
