package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `environment: "test"

vault:
  root_path: "/tmp/vault"
  default_cipher: "aes256gcm"

argon2:
  time_cost: 2
  memory_cost_kib: 32768
  parallelism: 4

policy:
  max_failed_attempts: 3
  lockout_seconds: 60

logging:
  level: "debug"
  format: "text"
  output: "stdout"`

	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, "/tmp/vault", cfg.Vault.RootPath)
	assert.Equal(t, "aes256gcm", cfg.Vault.DefaultCipher)
	assert.Equal(t, uint32(2), cfg.Argon2.TimeCost)
	assert.Equal(t, uint32(32768), cfg.Argon2.MemoryCostKiB)
	assert.Equal(t, uint8(4), cfg.Argon2.Parallelism)
	assert.Equal(t, uint32(3), cfg.Policy.MaxFailedAttempts)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "minimal.yaml")

	require.NoError(t, os.WriteFile(configPath, []byte("environment: prod\n"), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, ".alfa-vault", cfg.Vault.RootPath)
	assert.Equal(t, "xchacha20poly1305", cfg.Vault.DefaultCipher)
	assert.Equal(t, uint32(3), cfg.Argon2.TimeCost)
	assert.Equal(t, uint32(65536), cfg.Argon2.MemoryCostKiB)
	assert.Equal(t, uint32(5), cfg.Policy.MaxFailedAttempts)
	assert.Equal(t, uint32(300), cfg.Policy.LockoutSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "out.yaml")
	jsonPath := filepath.Join(tmpDir, "out.json")

	cfg := &Config{Environment: "staging"}
	setDefaults(cfg)
	cfg.Policy.AllowedHours = []int{8, 9, 10}

	require.NoError(t, SaveToFile(cfg, yamlPath))
	require.NoError(t, SaveToFile(cfg, jsonPath))

	reloaded, err := LoadFromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Vault.RootPath, reloaded.Vault.RootPath)
	assert.Equal(t, cfg.Policy.AllowedHours, reloaded.Policy.AllowedHours)

	reloadedJSON, err := LoadFromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Environment, reloadedJSON.Environment)
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		wantLevel string
		wantField string
	}{
		{
			name: "valid config has no errors",
			cfg: &Config{
				Vault:  VaultConfig{DefaultCipher: "aes256gcm"},
				Argon2: Argon2Config{MemoryCostKiB: 65536, Parallelism: 2},
				Policy: PolicyConfig{MaxFailedAttempts: 5},
			},
		},
		{
			name: "bad cipher",
			cfg: &Config{
				Vault:  VaultConfig{DefaultCipher: "rot13"},
				Argon2: Argon2Config{MemoryCostKiB: 65536, Parallelism: 2},
				Policy: PolicyConfig{MaxFailedAttempts: 5},
			},
			wantLevel: "error",
			wantField: "vault.default_cipher",
		},
		{
			name: "zero parallelism",
			cfg: &Config{
				Vault:  VaultConfig{DefaultCipher: "aes256gcm"},
				Argon2: Argon2Config{MemoryCostKiB: 65536, Parallelism: 0},
				Policy: PolicyConfig{MaxFailedAttempts: 5},
			},
			wantLevel: "error",
			wantField: "argon2.parallelism",
		},
		{
			name: "out of range allowed hour",
			cfg: &Config{
				Vault:  VaultConfig{DefaultCipher: "aes256gcm"},
				Argon2: Argon2Config{MemoryCostKiB: 65536, Parallelism: 2},
				Policy: PolicyConfig{MaxFailedAttempts: 5, AllowedHours: []int{3, 25}},
			},
			wantLevel: "error",
			wantField: "policy.allowed_hours",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := ValidateConfiguration(tt.cfg)
			if tt.wantField == "" {
				for _, issue := range issues {
					assert.NotEqual(t, "error", issue.Level)
				}
				return
			}
			found := false
			for _, issue := range issues {
				if issue.Field == tt.wantField && issue.Level == tt.wantLevel {
					found = true
				}
			}
			assert.True(t, found, "expected issue on field %s at level %s, got %+v", tt.wantField, tt.wantLevel, issues)
		})
	}
}
