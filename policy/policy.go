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

// Package policy implements the access-policy state machine: failed
// attempt counting, lockdown timing, allowed-hours gating, and threat
// scoring. Grounded on alfa_keyvault/src/brain.rs and policy.rs.
package policy

import (
	"strings"
	"time"
)

// ThreatLevel buckets a calculated threat score.
type ThreatLevel int

const (
	ThreatNormal ThreatLevel = iota
	ThreatElevated
	ThreatHigh
	ThreatCritical
)

func (t ThreatLevel) String() string {
	switch t {
	case ThreatNormal:
		return "normal"
	case ThreatElevated:
		return "elevated"
	case ThreatHigh:
		return "high"
	case ThreatCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ThreatLevelFromScore maps a 0-100 score to a level.
func ThreatLevelFromScore(score int) ThreatLevel {
	switch {
	case score <= 20:
		return ThreatNormal
	case score <= 50:
		return ThreatElevated
	case score <= 80:
		return ThreatHigh
	default:
		return ThreatCritical
	}
}

// EventType enumerates the kinds of events the engine records.
type EventType int

const (
	EventUnlock EventType = iota
	EventLock
	EventDeriveKey
	EventRotateKey
	EventSnapshot
	EventPolicyUpdate
	EventThreatDetected
	EventLockdown
)

// Event is one entry in the access-policy event stream.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	KeyPurpose string
	Success    bool
	Duration   time.Duration
	Source     string
}

// Metrics holds the rolling values threat scoring is computed from.
type Metrics struct {
	FailedAttempts24h  uint32
	UnusualHourAccess  bool
	RapidAccessAttempt bool
	NewDeviceDetected  bool
	AvgDerivationTime  time.Duration
	DailyAccessCount   uint32
	LastAccess         time.Time
}

// Config is the tunable policy, persisted as part of PolicyState.
type Config struct {
	Version               uint32
	AutoLockAfterSeconds  uint64
	MaxFailedAttempts     uint32
	LockoutSeconds        uint64
	AutoShadowIntervalHrs uint32
	KeyRotationDays       uint32
	MinPasswordLength     int
	RequireDigits         bool
	RequireSpecial        bool
	AllowedHours          []int // nil = unrestricted
}

// DefaultConfig mirrors AutoPolicy::default.
func DefaultConfig() Config {
	return Config{
		Version:               1,
		AutoLockAfterSeconds:  300,
		MaxFailedAttempts:     5,
		LockoutSeconds:        300,
		AutoShadowIntervalHrs: 24,
		KeyRotationDays:       90,
		MinPasswordLength:     8,
		RequireDigits:         true,
		RequireSpecial:        false,
	}
}

// HighSecurityConfig mirrors AutoPolicy::high_security.
func HighSecurityConfig() Config {
	c := DefaultConfig()
	c.AutoLockAfterSeconds = 60
	c.MaxFailedAttempts = 3
	c.LockoutSeconds = 900
	c.KeyRotationDays = 30
	c.MinPasswordLength = 16
	c.RequireSpecial = true
	c.AutoShadowIntervalHrs = 6
	return c
}

// LowResourceConfig mirrors AutoPolicy::low_resource.
func LowResourceConfig() Config {
	c := DefaultConfig()
	c.AutoLockAfterSeconds = 600
	return c
}

// ValidatePassword checks password against the policy's complexity
// rules, returning one message per violation.
func (c Config) ValidatePassword(password string) []string {
	var errs []string

	if len(password) < c.MinPasswordLength {
		errs = append(errs, "password is shorter than the minimum required length")
	}
	if c.RequireDigits && !strings.ContainsAny(password, "0123456789") {
		errs = append(errs, "password must contain at least one digit")
	}
	if c.RequireSpecial {
		special := false
		for _, r := range password {
			if !isAlphanumeric(r) {
				special = true
				break
			}
		}
		if !special {
			errs = append(errs, "password must contain at least one special character")
		}
	}
	return errs
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// IsAllowedHour reports whether hour is in the allowed set; an empty
// set means unrestricted.
func (c Config) IsAllowedHour(hour int) bool {
	if len(c.AllowedHours) == 0 {
		return true
	}
	for _, h := range c.AllowedHours {
		if h == hour {
			return true
		}
	}
	return false
}

// AutoTuneArgon2 derives Argon2id parameters from the host's CPU and
// memory, mirroring AutoPolicy::auto_tune_argon2.
func AutoTuneArgon2(cpuCount int, availableMemoryMB uint64) (timeCost uint32, memoryKiB uint32, parallelism uint8) {
	par := cpuCount / 2
	if par < 1 {
		par = 1
	}
	if par > 8 {
		par = 8
	}
	parallelism = uint8(par)

	memMB := availableMemoryMB / 4
	if memMB > 512 {
		memMB = 512
	}
	if memMB < 16 {
		memMB = 16
	}
	memoryKiB = uint32(memMB) * 1024

	if memMB >= 128 {
		timeCost = 2
	} else {
		timeCost = 3
	}
	return
}
