package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAPIKey_SecretsFileWinsOverEnv(t *testing.T) {
	// Given: a secrets file and an env var both set
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := filepath.Join(xdg, "askdoc")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets.yaml"), []byte("api_key: sk-secret\n"), 0o600))
	t.Setenv("OPENAI_API_KEY", "sk-env")

	// When: resolving
	key, source := Default().ResolveAPIKey()

	// Then: the secrets file wins
	assert.Equal(t, "sk-secret", key)
	assert.Equal(t, KeySourceSecrets, source)
}

func TestResolveAPIKey_FallsBackToEnv(t *testing.T) {
	// Given: no secrets file, env var set
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-env")

	// When: resolving
	key, source := Default().ResolveAPIKey()

	// Then: the env var is used
	assert.Equal(t, "sk-env", key)
	assert.Equal(t, KeySourceEnv, source)
}

func TestResolveAPIKey_HonorsConfiguredEnvName(t *testing.T) {
	// Given: a custom env var name
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("MY_PROVIDER_KEY", "sk-custom")
	cfg := Default()
	cfg.APIKeyEnv = "MY_PROVIDER_KEY"

	// When: resolving
	key, source := cfg.ResolveAPIKey()

	// Then: the configured variable is consulted
	assert.Equal(t, "sk-custom", key)
	assert.Equal(t, KeySourceEnv, source)
}

func TestResolveAPIKey_NothingSet_SignalsPromptNeeded(t *testing.T) {
	// Given: no secrets file and no env var
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	// When: resolving
	key, source := Default().ResolveAPIKey()

	// Then: empty key, caller must prompt
	assert.Empty(t, key)
	assert.Equal(t, KeySourceNone, source)
}

func TestSaveAPIKey_PersistsWith0600(t *testing.T) {
	// Given: an isolated config home
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// When: saving a key
	require.NoError(t, SaveAPIKey("sk-entered"))

	// Then: the file exists with 0600 and resolves first
	info, err := os.Stat(SecretsPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	key, source := Default().ResolveAPIKey()
	assert.Equal(t, "sk-entered", key)
	assert.Equal(t, KeySourceSecrets, source)
}

func TestSaveAPIKey_RejectsEmptyKey(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.Error(t, SaveAPIKey(""))
}

func TestReadSecretsKey_MalformedFile_ResolvesEmpty(t *testing.T) {
	// Given: a malformed secrets file
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: [broken"), 0o600))

	// Then: it resolves to an empty key rather than failing
	assert.Empty(t, readSecretsKey(path))
}
