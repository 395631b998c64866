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

// Package config provides configuration loading for the vault pair.
package config

// Config is the root configuration structure for an ALFA vault
// instance. It is loaded from YAML with environment-variable
// overrides applied on top.
type Config struct {
	Environment string       `yaml:"environment" json:"environment"`
	Vault       VaultConfig  `yaml:"vault" json:"vault"`
	Argon2      Argon2Config `yaml:"argon2" json:"argon2"`
	Policy      PolicyConfig `yaml:"policy" json:"policy"`
	Logging     LoggingConfig `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig `yaml:"metrics" json:"metrics"`
}

// VaultConfig locates the on-disk vault root and selects the default
// AEAD cipher used for new blobs and index records.
type VaultConfig struct {
	RootPath      string `yaml:"root_path" json:"root_path"`
	DefaultCipher string `yaml:"default_cipher" json:"default_cipher"` // aes256gcm, xchacha20poly1305
}

// Argon2Config carries the default KEK-derivation parameters used
// when creating a new vault. An existing vault's sealed seed carries
// its own parameters; these are only the defaults for `create`.
type Argon2Config struct {
	TimeCost      uint32 `yaml:"time_cost" json:"time_cost"`
	MemoryCostKiB uint32 `yaml:"memory_cost_kib" json:"memory_cost_kib"`
	Parallelism   uint8  `yaml:"parallelism" json:"parallelism"`
}

// PolicyConfig carries the default AutoPolicy values for a newly
// created vault.
type PolicyConfig struct {
	MaxFailedAttempts    uint32 `yaml:"max_failed_attempts" json:"max_failed_attempts"`
	LockoutSeconds       uint32 `yaml:"lockout_seconds" json:"lockout_seconds"`
	AllowedHours         []int  `yaml:"allowed_hours" json:"allowed_hours"`
	KeyRotationDays      uint32 `yaml:"key_rotation_days" json:"key_rotation_days"`
	SnapshotRetention    int    `yaml:"snapshot_retention" json:"snapshot_retention"`
	MinPasswordLength    int    `yaml:"min_password_length" json:"min_password_length"`
	RequireDigits        bool   `yaml:"require_digits" json:"require_digits"`
	RequireSpecial       bool   `yaml:"require_special" json:"require_special"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig controls the Prometheus HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Path    string `yaml:"path" json:"path"`
}

