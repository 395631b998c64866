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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteEnvVars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		envVars  map[string]string
		expected string
	}{
		{"simple variable", "${TEST_VAR}", map[string]string{"TEST_VAR": "value123"}, "value123"},
		{"value used when present", "${TEST_VAR:default}", map[string]string{"TEST_VAR": "actual"}, "actual"},
		{"default used when missing", "${MISSING_VAR:default}", nil, "default"},
		{"multiple variables", "http://${HOST}:${PORT}/path", map[string]string{"HOST": "localhost", "PORT": "8080"}, "http://localhost:8080/path"},
		{"empty default", "${EMPTY:}", nil, ""},
		{"no variables", "plain text", nil, "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				os.Setenv(k, v)
				defer os.Unsetenv(k)
			}
			assert.Equal(t, tt.expected, SubstituteEnvVars(tt.input))
		})
	}
}

func TestGetEnvironment(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		value    string
		expected string
	}{
		{"ALFA_ENV set", "ALFA_ENV", "production", "production"},
		{"ENVIRONMENT set", "ENVIRONMENT", "staging", "staging"},
		{"no env var defaults to development", "", "", "development"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("ALFA_ENV")
			os.Unsetenv("ENVIRONMENT")
			if tt.envVar != "" {
				os.Setenv(tt.envVar, tt.value)
				defer os.Unsetenv(tt.envVar)
			}
			assert.Equal(t, tt.expected, GetEnvironment())
		})
	}
}

func TestIsProduction(t *testing.T) {
	os.Setenv("ALFA_ENV", "production")
	defer os.Unsetenv("ALFA_ENV")
	assert.True(t, IsProduction())
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"development", true},
		{"local", true},
		{"production", false},
		{"staging", false},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			os.Setenv("ALFA_ENV", tt.env)
			defer os.Unsetenv("ALFA_ENV")
			assert.Equal(t, tt.expected, IsDevelopment())
		})
	}
}

func TestSubstituteEnvVarsInConfig(t *testing.T) {
	os.Setenv("TEST_ROOT", "/data/vault")
	os.Setenv("TEST_LEVEL", "debug")
	defer os.Unsetenv("TEST_ROOT")
	defer os.Unsetenv("TEST_LEVEL")

	cfg := &Config{
		Vault:   VaultConfig{RootPath: "${TEST_ROOT}"},
		Logging: LoggingConfig{Level: "${TEST_LEVEL}"},
	}

	SubstituteEnvVarsInConfig(cfg)

	assert.Equal(t, "/data/vault", cfg.Vault.RootPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
