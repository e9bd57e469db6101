package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driving"
)

func TestBackendsCmd_Use(t *testing.T) {
	assert.Equal(t, "backends", backendsCmd.Use)
	assert.NotNil(t, backendsCmd.Flags().Lookup("api-key"))
}

func TestBackendsCmd_PrintsStatuses(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.backends.statuses = []driving.BackendStatus{
		{Kind: domain.BackendLocal, Name: "local/llama3", Available: false, Reason: "no supported GPU found on linux/amd64"},
		{Kind: domain.BackendCloud, Name: "cloud/gemini", Available: true, Description: domain.BackendCloud.Description()},
	}

	out, err := execute(t, "backends", "--api-key", "k")

	require.NoError(t, err)
	assert.Contains(t, out, "unavailable: no supported GPU found on linux/amd64")
	assert.Contains(t, out, "cloud/gemini")
	assert.Contains(t, out, "available")
	assert.Contains(t, out, "bring your own API key")
	assert.Equal(t, "k", ts.backends.apiKey)
}

func TestBackendsCmd_NeverPrompts(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	prompted := false
	stdinIsTerminal = func() bool { return true }
	origRead := readSecret
	readSecret = func() (string, error) {
		prompted = true
		return "typed", nil
	}
	defer func() { readSecret = origRead }()

	_, err := execute(t, "backends")

	require.NoError(t, err)
	assert.False(t, prompted)
	assert.Empty(t, ts.backends.apiKey)
}
