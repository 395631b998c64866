// Alfa Vault - password-derived key hierarchy and envelope encryption
// for an offline photo vault.
// Copyright (C) 2025 Alfa Vault contributors
//
// This file is part of Alfa Vault.
//
// Alfa Vault is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Alfa Vault is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Alfa Vault. If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoConfigFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{
		ConfigDir:   t.TempDir(),
		Environment: "development",
	})
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ".alfa-vault", cfg.Vault.RootPath)
}

func TestLoadForEnvironment(t *testing.T) {
	for _, env := range []string{"development", "staging", "production", "local"} {
		t.Run(env, func(t *testing.T) {
			cfg, err := LoadForEnvironment(env)
			require.NoError(t, err)
			assert.Equal(t, env, cfg.Environment)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("ALFA_VAULT_ROOT", "/override/root")
	os.Setenv("ALFA_LOG_LEVEL", "debug")
	os.Setenv("ALFA_MAX_FAILED_ATTEMPTS", "9")
	defer os.Unsetenv("ALFA_VAULT_ROOT")
	defer os.Unsetenv("ALFA_LOG_LEVEL")
	defer os.Unsetenv("ALFA_MAX_FAILED_ATTEMPTS")

	cfg, err := Load(LoaderOptions{ConfigDir: t.TempDir(), Environment: "development"})
	require.NoError(t, err)

	assert.Equal(t, "/override/root", cfg.Vault.RootPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, uint32(9), cfg.Policy.MaxFailedAttempts)
}

func TestLoad_CustomConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	content := "environment: test\nlogging:\n  level: info\n  format: json\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(LoaderOptions{ConfigDir: tmpDir, Environment: "test"})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "test", cfg.Environment)
}

func TestLoad_DotEnvOverlayFeedsSubstitution(t *testing.T) {
	tmpDir := t.TempDir()
	envPath := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("ALFA_DOTENV_TEST_HOST=dotenv-host\n"), 0644))

	configPath := filepath.Join(tmpDir, "default.yaml")
	content := "environment: development\nvault:\n  root_path: \"${ALFA_DOTENV_TEST_HOST}\"\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	defer os.Unsetenv("ALFA_DOTENV_TEST_HOST")

	cfg, err := Load(LoaderOptions{ConfigDir: tmpDir, Environment: "development"})
	require.NoError(t, err)
	assert.Equal(t, "dotenv-host", cfg.Vault.RootPath)
}

func TestDefaultLoaderOptions(t *testing.T) {
	opts := DefaultLoaderOptions()
	assert.Equal(t, "config", opts.ConfigDir)
	assert.False(t, opts.SkipEnvSubstitution)
	assert.False(t, opts.SkipValidation)
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, uint32(90), cfg.Policy.KeyRotationDays)
	assert.Equal(t, 50, cfg.Policy.SnapshotRetention)
}

func TestMustLoad_PanicsOnValidationError(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "default.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("vault:\n  default_cipher: rot13\n"), 0644))

	assert.Panics(t, func() {
		MustLoad(LoaderOptions{ConfigDir: tmpDir, Environment: "nonexistent-env"})
	})
}
