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
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// LoaderOptions configures the configuration loader.
type LoaderOptions struct {
	// ConfigDir is the directory containing config files (default: ./config).
	ConfigDir string
	// Environment overrides automatic environment detection.
	Environment string
	// SkipEnvSubstitution disables ${VAR} substitution in string fields.
	SkipEnvSubstitution bool
	// SkipValidation disables configuration validation.
	SkipValidation bool
}

// DefaultLoaderOptions returns default loader options.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{
		ConfigDir:           "config",
		Environment:         "",
		SkipEnvSubstitution: false,
		SkipValidation:      false,
	}
}

// loadDotEnv overlays a .env file (if present) onto the process
// environment, without clobbering variables already set by the
// caller's shell — godotenv.Load() never overwrites an existing key.
// A missing .env file is not an error; everything downstream already
// tolerates unset ALFA_* variables.
func loadDotEnv(configDir string) {
	candidates := []string{".env", filepath.Join(configDir, ".env")}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// Load loads configuration with automatic environment detection: it
// tries "<env>.yaml", then "default.yaml", then "config.yaml" inside
// ConfigDir, falling back to built-in defaults if none are found. A
// .env file, if present, is loaded into the process environment
// first so ${VAR} substitution and the ALFA_* overrides below can
// see it.
func Load(opts ...LoaderOptions) (*Config, error) {
	options := DefaultLoaderOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	loadDotEnv(options.ConfigDir)

	env := options.Environment
	if env == "" {
		env = GetEnvironment()
	}

	envConfigPath := filepath.Join(options.ConfigDir, fmt.Sprintf("%s.yaml", env))
	cfg, err := loadConfigFile(envConfigPath)
	if err != nil {
		defaultConfigPath := filepath.Join(options.ConfigDir, "default.yaml")
		cfg, err = loadConfigFile(defaultConfigPath)
		if err != nil {
			configPath := filepath.Join(options.ConfigDir, "config.yaml")
			cfg, err = loadConfigFile(configPath)
			if err != nil {
				cfg = &Config{}
			}
		}
	}

	if cfg.Environment == "" {
		cfg.Environment = env
	}

	setDefaults(cfg)

	if !options.SkipEnvSubstitution {
		SubstituteEnvVarsInConfig(cfg)
	}

	applyEnvironmentOverrides(cfg)

	if !options.SkipValidation {
		issues := ValidateConfiguration(cfg)
		for _, issue := range issues {
			if issue.Level == "error" {
				return nil, fmt.Errorf("configuration validation failed: %s - %s", issue.Field, issue.Message)
			}
		}
	}

	return cfg, nil
}

func loadConfigFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return LoadFromFile(path)
}

// applyEnvironmentOverrides overrides config fields with ALFA_*
// environment variables, which take priority over both the config
// file and ${VAR} substitution.
func applyEnvironmentOverrides(cfg *Config) {
	if root := os.Getenv("ALFA_VAULT_ROOT"); root != "" {
		cfg.Vault.RootPath = root
	}
	if cipher := os.Getenv("ALFA_DEFAULT_CIPHER"); cipher != "" {
		cfg.Vault.DefaultCipher = cipher
	}
	if lvl := os.Getenv("ALFA_LOG_LEVEL"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if fmtv := os.Getenv("ALFA_LOG_FORMAT"); fmtv != "" {
		cfg.Logging.Format = fmtv
	}
	if v := os.Getenv("ALFA_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if addr := os.Getenv("ALFA_METRICS_ADDR"); addr != "" {
		cfg.Metrics.Addr = addr
	}
	if v := os.Getenv("ALFA_MAX_FAILED_ATTEMPTS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Policy.MaxFailedAttempts = uint32(n)
		}
	}
}

// LoadForEnvironment loads configuration for a specific environment.
func LoadForEnvironment(environment string) (*Config, error) {
	return Load(LoaderOptions{
		ConfigDir:   "config",
		Environment: environment,
	})
}

// MustLoad loads configuration or panics on error.
func MustLoad(opts ...LoaderOptions) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// ValidationIssue describes a single configuration problem.
type ValidationIssue struct {
	Field   string
	Message string
	Level   string // "error" or "warning"
}

// ValidateConfiguration checks a loaded Config for internally
// inconsistent or unsafe values. Issues at Level "error" cause Load
// to fail; "warning" issues are returned but do not block loading.
func ValidateConfiguration(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Vault.DefaultCipher != "aes256gcm" && cfg.Vault.DefaultCipher != "xchacha20poly1305" {
		issues = append(issues, ValidationIssue{
			Field:   "vault.default_cipher",
			Message: "must be aes256gcm or xchacha20poly1305",
			Level:   "error",
		})
	}

	if cfg.Argon2.MemoryCostKiB < 8*1024 {
		issues = append(issues, ValidationIssue{
			Field:   "argon2.memory_cost_kib",
			Message: "below 8 MiB offers little protection against GPU cracking",
			Level:   "warning",
		})
	}
	if cfg.Argon2.Parallelism == 0 {
		issues = append(issues, ValidationIssue{
			Field:   "argon2.parallelism",
			Message: "must be at least 1",
			Level:   "error",
		})
	}

	if cfg.Policy.MaxFailedAttempts == 0 {
		issues = append(issues, ValidationIssue{
			Field:   "policy.max_failed_attempts",
			Message: "zero disables lockdown protection entirely",
			Level:   "warning",
		})
	}
	for _, h := range cfg.Policy.AllowedHours {
		if h < 0 || h > 23 {
			issues = append(issues, ValidationIssue{
				Field:   "policy.allowed_hours",
				Message: fmt.Sprintf("hour %d out of range 0-23", h),
				Level:   "error",
			})
		}
	}

	return issues
}
