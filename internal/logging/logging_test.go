package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer

	New(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	New(&buf, true).Debug("shown", "nodes", 3)
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "nodes=3")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphlens.log")

	logger, closer, err := Open(Params{File: path}, io.Discard)
	require.NoError(t, err)
	logger.Info("fetch complete", "view", "abc")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fetch complete")
}

func TestOpenFallback(t *testing.T) {
	var buf bytes.Buffer

	logger, closer, err := Open(Params{}, &buf)
	require.NoError(t, err)
	logger.Warn("refresh rejected")
	assert.NoError(t, closer.Close())
	assert.Contains(t, buf.String(), "refresh rejected")
}
