package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"BRAINDRIVE_API_URL", "BRAINDRIVE_API_TOKEN", "BRAINDRIVE_USER_ID",
		"BRAINDRIVE_DB_PATH", "BRAINDRIVE_POLL_INTERVAL", "BRAINDRIVE_USE_KEYRING", "DEBUG_MODE",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "http://localhost:8005", cfg.APIURL)
	assert.Equal(t, "current", cfg.UserID)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.VisibilityTimeout)
	assert.False(t, cfg.UseKeyring)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("BRAINDRIVE_API_URL", "http://braindrive:9000")
	t.Setenv("BRAINDRIVE_POLL_INTERVAL", "500ms")
	t.Setenv("BRAINDRIVE_VISIBILITY_TIMEOUT", "not-a-duration")
	t.Setenv("BRAINDRIVE_USE_KEYRING", "true")
	t.Setenv("DEBUG_MODE", "1")

	cfg := FromEnv()
	assert.Equal(t, "http://braindrive:9000", cfg.APIURL)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.VisibilityTimeout)
	assert.True(t, cfg.UseKeyring)
	assert.True(t, cfg.Debug)
}

func TestMergeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settingsctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
apiUrl: http://remote:8005
userId: alice
pollInterval: 5s
useKeyring: true
`), 0o600))

	cfg := &Config{APIURL: "http://localhost:8005", APIToken: "tok", PollInterval: time.Second}
	require.NoError(t, cfg.MergeFile(path))

	assert.Equal(t, "http://remote:8005", cfg.APIURL)
	assert.Equal(t, "tok", cfg.APIToken)
	assert.Equal(t, "alice", cfg.UserID)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.True(t, cfg.UseKeyring)
}

func TestMergeFile_Errors(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.MergeFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiUrl: [unclosed"), 0o600))
	assert.Error(t, cfg.MergeFile(path))
}

func TestMergeFile_CanTurnOptionsOff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settingsctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("useKeyring: false\ndebug: false\n"), 0o600))

	cfg := &Config{UseKeyring: true, Debug: true}
	require.NoError(t, cfg.MergeFile(path))
	assert.False(t, cfg.UseKeyring)
	assert.False(t, cfg.Debug)

	unset := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(unset, []byte("userId: bob\n"), 0o600))
	cfg = &Config{UseKeyring: true, Debug: true}
	require.NoError(t, cfg.MergeFile(unset))
	assert.True(t, cfg.UseKeyring)
	assert.True(t, cfg.Debug)
}
