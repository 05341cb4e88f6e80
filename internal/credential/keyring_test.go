package credential

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailKey(t *testing.T) {
	assert.Equal(t, "mail:me@example.com", MailKey("me@example.com"))
}

func TestEnvPassword_FromEnvironment(t *testing.T) {
	t.Setenv(PasswordEnv, "from-env")

	pw, err := envPassword(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "from-env", pw)
}

func TestEnvPassword_FromDotEnv(t *testing.T) {
	t.Setenv(PasswordEnv, "")
	os.Unsetenv(PasswordEnv)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(PasswordEnv+"=from-file\n"), 0o600))

	pw, err := envPassword(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-file", pw)
}

func TestEnvPassword_EnvironmentWinsOverDotEnv(t *testing.T) {
	t.Setenv(PasswordEnv, "from-env")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(PasswordEnv+"=from-file\n"), 0o600))

	pw, err := envPassword(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", pw)
}

func TestEnvPassword_Missing(t *testing.T) {
	t.Setenv(PasswordEnv, "")
	os.Unsetenv(PasswordEnv)

	_, err := envPassword(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), PasswordEnv)
}
