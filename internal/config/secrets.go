package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// KeySource identifies where the API key was resolved from.
type KeySource string

const (
	// KeySourceSecrets means the key came from the secrets file.
	KeySourceSecrets KeySource = "secrets"
	// KeySourceEnv means the key came from an environment variable.
	KeySourceEnv KeySource = "env"
	// KeySourceNone means no key was found; the caller should prompt.
	KeySourceNone KeySource = ""
)

// secretsFile is the on-disk shape of the secrets store.
type secretsFile struct {
	APIKey string `yaml:"api_key"`
}

// SecretsPath returns the path of the secrets file
// (~/.config/askdoc/secrets.yaml, honoring XDG_CONFIG_HOME).
func SecretsPath() string {
	return filepath.Join(userConfigDir(), "secrets.yaml")
}

// ResolveAPIKey resolves the API key, trying the secrets file first and
// the environment variable named by c.APIKeyEnv second. An empty key
// with KeySourceNone means the caller should prompt interactively.
func (c *Config) ResolveAPIKey() (string, KeySource) {
	if key := readSecretsKey(SecretsPath()); key != "" {
		return key, KeySourceSecrets
	}

	if key := os.Getenv(c.APIKeyEnv); key != "" {
		return key, KeySourceEnv
	}

	return "", KeySourceNone
}

// readSecretsKey reads the api_key field from a secrets file.
// Missing or malformed files resolve to an empty key.
func readSecretsKey(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	var s secretsFile
	if err := yaml.Unmarshal(data, &s); err != nil {
		return ""
	}
	return s.APIKey
}

// SaveAPIKey writes the API key to the secrets file with 0600
// permissions so later sessions skip the interactive prompt.
func SaveAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("refusing to save an empty API key")
	}

	dir := userConfigDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(secretsFile{APIKey: key})
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}

	if err := os.WriteFile(SecretsPath(), data, 0o600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}

	return nil
}
