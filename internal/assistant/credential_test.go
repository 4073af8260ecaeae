package assistant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAPIKeyPrefersProcessEnvironment(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("HARK_TEST_KEY=from-file\n"), 0o600))
	t.Setenv("HARK_TEST_KEY", "from-env")

	key, err := LoadAPIKey(envFile, "HARK_TEST_KEY")
	require.NoError(t, err)
	require.Equal(t, "from-env", key)
}

func TestLoadAPIKeyFallsBackToEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("# groq\nHARK_TEST_KEY=\"from-file\"\n"), 0o600))
	t.Setenv("HARK_TEST_KEY", "")

	key, err := LoadAPIKey(envFile, "HARK_TEST_KEY")
	require.NoError(t, err)
	require.Equal(t, "from-file", key)
	require.Empty(t, os.Getenv("HARK_TEST_KEY"))
}

func TestLoadAPIKeyMissing(t *testing.T) {
	t.Setenv("HARK_TEST_KEY", "")

	_, err := LoadAPIKey(filepath.Join(t.TempDir(), "missing.env"), "HARK_TEST_KEY")
	require.ErrorIs(t, err, ErrCredentialMissing)
	require.Contains(t, err.Error(), "HARK_TEST_KEY")
}
