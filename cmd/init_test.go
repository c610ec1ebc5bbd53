package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEnvTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, writeEnvTemplate(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "GEMINI_API_KEY=")
}

func TestWriteEnvTemplateKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GEMINI_API_KEY=real-key\n"), 0o600))

	require.NoError(t, writeEnvTemplate(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "GEMINI_API_KEY=real-key\n", string(data))
}
