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

package vault

import (
	"fmt"

	"github.com/alfa-vault/alfa/crypto/kdf"
	"github.com/alfa-vault/alfa/crypto/secret"
	"github.com/alfa-vault/alfa/crypto/snapshot"
	"github.com/alfa-vault/alfa/internal/vaulterrors"
	"github.com/alfa-vault/alfa/policy"
)

// Rotate runs a full key rotation: every indexed blob is re-encrypted
// under a freshly minted epoch, the epoch counter and rotation
// history are advanced only once every blob is confirmed (spec.md
// §4.9 / Open Question Q2's chosen two-phase-journal strategy, see
// crypto/rotation.Controller.Rotate), and a signed snapshot is
// appended for the new epoch. If newPassword is non-empty the seed
// is additionally resealed under it.
func (v *Vault) Rotate(newPassword string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.keys.IsUnlocked() {
		return vaulterrors.ErrVaultLocked
	}

	ids, err := v.photos.ListBlobs()
	if err != nil {
		return err
	}

	if err := v.rotationCtrl.Rotate(ids, v.photos.ReencryptBlob, v.createSnapshot); err != nil {
		return err
	}

	if newPassword != "" {
		if err := v.keys.ChangePassword(newPassword, kdf.DefaultArgon2Params()); err != nil {
			return fmt.Errorf("reseal seed under new password: %w", err)
		}
	}

	v.policyEngine.RecordEvent(policy.Event{Type: policy.EventRotateKey, Success: true})
	return nil
}

// createSnapshot builds, signs, and appends a snapshot for epoch. It
// satisfies rotation.SnapshotCreator.
func (v *Vault) createSnapshot(epoch uint64) error {
	signKey, err := v.keys.Derive(kdf.PurposeSnapshotSign)
	if err != nil {
		return err
	}
	defer secret.Wipe(signKey)

	prevHash := ""
	if latest, ok, err := v.snapshots.Latest(); err == nil && ok {
		prevHash = latest.CanonicalHashHex()
	}

	params := snapshotKDFParams(v.keys.KDFParams())
	usages := v.policyEngine.Stats().TopKeys

	s := snapshot.New(epoch, params, usages, prevHash)
	s = snapshot.Sign(s, signKey)

	v.policyEngine.RecordEvent(policy.Event{Type: policy.EventSnapshot, Success: true})
	return v.snapshots.Append(s, v.rotationCtrl.State().Policy.KeepEpochs)
}

// Snapshot manually appends a signed snapshot of the vault's current
// state without performing a rotation, for hosts that want an
// out-of-band audit point.
func (v *Vault) Snapshot() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.keys.IsUnlocked() {
		return vaulterrors.ErrVaultLocked
	}
	return v.createSnapshot(v.rotationCtrl.CurrentEpoch())
}

// VerifyChain checks every persisted snapshot's signature and
// prev_hash linkage.
func (v *Vault) VerifyChain() (snapshot.ChainReport, error) {
	signKey, err := v.keys.Derive(kdf.PurposeSnapshotSign)
	if err != nil {
		return snapshot.ChainReport{}, err
	}
	defer secret.Wipe(signKey)

	snaps, err := v.snapshots.Load()
	if err != nil {
		return snapshot.ChainReport{}, err
	}
	return snapshot.VerifyChain(snaps, signKey), nil
}

func snapshotKDFParams(p kdf.Argon2Params) snapshot.KDFParams {
	return snapshot.KDFParams{
		Algorithm:   "argon2id",
		TimeCost:    p.TimeCost,
		MemoryKiB:   p.MemoryKiB,
		Parallelism: p.Parallelism,
	}
}
