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

// Package kdf derives the key encryption key from a password
// (Argon2id with a build-time pepper) and fans purpose/epoch-scoped
// subkeys out of the unsealed root seed (HKDF-SHA256). Grounded on
// alfa_keyvault/src/crypto/argon2_kdf.rs and hkdf_derive.rs.
package kdf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/alfa-vault/alfa/internal/metrics"
)

// pepper is mixed into the password before Argon2id via HMAC, since
// golang.org/x/crypto/argon2 has no equivalent to argon2's
// new_with_secret. The password is HMAC-keyed with the pepper rather
// than concatenated, so the pepper can't be recovered by an attacker
// who controls the password input.
const pepper = "ALFA_KEYVAULT_v4_PEPPER_2025"

const (
	saltSize = 16
	kekSize  = 32
)

// Argon2Params configures the Argon2id KEK derivation.
type Argon2Params struct {
	TimeCost    uint32
	MemoryKiB   uint32
	Parallelism uint8
}

// DefaultArgon2Params mirrors Argon2Config::default (3 passes, 64 MiB,
// 2 lanes).
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{TimeCost: 3, MemoryKiB: 64 * 1024, Parallelism: 2}
}

// LowMemoryArgon2Params mirrors Argon2Config::low_memory, for
// resource-constrained devices.
func LowMemoryArgon2Params() Argon2Params {
	return Argon2Params{TimeCost: 4, MemoryKiB: 16 * 1024, Parallelism: 1}
}

// HighSecurityArgon2Params mirrors Argon2Config::high_security.
func HighSecurityArgon2Params() Argon2Params {
	return Argon2Params{TimeCost: 4, MemoryKiB: 256 * 1024, Parallelism: 4}
}

// EstimatedDuration gives a rough derivation-time estimate for these
// parameters. policy.AutoTuneArgon2 does not use it; it picks
// parameters from CPU count and available memory alone.
func (p Argon2Params) EstimatedDuration() time.Duration {
	const baseMs = 50
	memFactor := uint64(p.MemoryKiB) / 1024
	timeFactor := uint64(p.TimeCost)
	par := uint64(p.Parallelism)
	if par == 0 {
		par = 1
	}
	return time.Duration(baseMs*timeFactor*memFactor/par) * time.Millisecond
}

// GenerateSalt returns a fresh random 16-byte Argon2 salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKEK runs Argon2id over the (pepper-keyed) password and salt,
// returning a 32-byte key encryption key.
func DeriveKEK(password []byte, salt []byte, params Argon2Params) []byte {
	start := time.Now()

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write(password)
	peppered := mac.Sum(nil)

	kek := argon2.IDKey(peppered, salt, params.TimeCost, params.MemoryKiB, params.Parallelism, kekSize)

	metrics.CryptoOperations.WithLabelValues("kdf", "argon2id").Inc()
	metrics.CryptoOperationDuration.WithLabelValues("kdf", "argon2id").Observe(time.Since(start).Seconds())

	for i := range peppered {
		peppered[i] = 0
	}
	return kek
}
