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

package keyvault

import (
	"time"

	"github.com/alfa-vault/alfa/crypto/kdf"
	"github.com/alfa-vault/alfa/crypto/secret"
	"github.com/alfa-vault/alfa/policy"
)

// Derive is the Key Hierarchy's purpose derivation: HKDF(seed,
// info=purpose). It is a pure function of (seed, purpose): identical
// inputs always yield identical key bytes, which is the only way
// anything encrypted under this purpose can ever be decrypted again.
// The vault must be Unlocked; no subkey is ever cached past this call.
// Every derivation funnels through the access-policy gates (spec.md
// §4.10) before any key material is touched.
func (kv *KeyVault) Derive(purpose string) ([]byte, error) {
	if err := kv.policy.CheckAccess(); err != nil {
		return nil, err
	}
	seed, err := kv.seedSnapshot()
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(seed)
	out, err := kdf.DeriveKey32(seed, purpose)
	kv.recordDerive(purpose, err)
	return out, err
}

// DeriveEpoch is the Key Hierarchy's epoch-parametric derivation:
// HKDF(seed, info="<purpose>:epoch:<epoch>"). Used for all
// rotation-scoped subkeys (photos, thumbnails, index).
func (kv *KeyVault) DeriveEpoch(purpose string, epoch uint64) ([]byte, error) {
	if err := kv.policy.CheckAccess(); err != nil {
		return nil, err
	}
	seed, err := kv.seedSnapshot()
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(seed)
	out, err := kdf.DeriveEpochKey(seed, purpose, epoch)
	kv.recordDerive(purpose, err)
	return out, err
}

func (kv *KeyVault) recordDerive(purpose string, err error) {
	kv.policy.RecordEvent(policy.Event{
		Timestamp:  time.Now(),
		Type:       policy.EventDeriveKey,
		Success:    err == nil,
		KeyPurpose: purpose,
	})
}

// DeriveFile derives a per-blob subkey from the epoch-scoped photos
// (or thumbnails) key, salted by the blob id. This is derive_file
// from spec.md §4.5: a pure function of (seed, purpose, blob id,
// epoch).
func (kv *KeyVault) DeriveFile(purpose string, epoch uint64, blobID string) ([]byte, error) {
	purposeKey, err := kv.DeriveEpoch(purpose, epoch)
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(purposeKey)
	return kdf.DeriveFileKey(purposeKey, blobID)
}
