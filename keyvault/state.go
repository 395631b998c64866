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

// Package keyvault encapsulates the sealed master seed (C4) and the
// purpose/epoch/file key hierarchy derived from it (C5). Grounded on
// pkg/agent/crypto/vault/secure_storage.go for the file-backed,
// mutex-guarded storage shape, and alfa_photos_vault/src/crypto/keys.rs
// for the derivation hierarchy.
package keyvault

// State is a KeyVault's position in the unlock state machine.
type State int

const (
	Uninitialized State = iota
	Locked
	Unlocked
	Lockdown
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	case Lockdown:
		return "lockdown"
	default:
		return "unknown"
	}
}
