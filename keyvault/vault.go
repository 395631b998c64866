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
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alfa-vault/alfa/crypto/aead"
	"github.com/alfa-vault/alfa/crypto/kdf"
	"github.com/alfa-vault/alfa/crypto/secret"
	"github.com/alfa-vault/alfa/internal/metrics"
	"github.com/alfa-vault/alfa/internal/vaulterrors"
	"github.com/alfa-vault/alfa/policy"
)

const seedSize = 32

func fillRandom(b []byte) error {
	_, err := rand.Read(b)
	if err != nil {
		return fmt.Errorf("generate random bytes: %w", err)
	}
	return nil
}

// KeyVault guards a 32-byte root seed behind a password-derived KEK
// and enforces the Uninitialized/Locked/Unlocked/Lockdown state
// machine. At most one unlock attempt runs Argon2id at a time: a
// singleflight.Group collapses concurrent unlock calls with the same
// password into a single derivation.
type KeyVault struct {
	mu sync.RWMutex

	root   string
	policy *policy.Engine

	state  State
	seed   *secret.Buffer
	sealed sealedSeed

	unlockGroup singleflight.Group
}

// Open constructs a KeyVault handle for root, reading any existing
// sealed seed but not unlocking it. If no sealed seed exists the
// vault starts Uninitialized.
func Open(root string, engine *policy.Engine) (*KeyVault, error) {
	kv := &KeyVault{root: root, policy: engine, state: Uninitialized}

	if sealedSeedExists(root) {
		sealed, err := readSealedSeed(root)
		if err != nil {
			return nil, err
		}
		kv.sealed = sealed
		kv.state = Locked
	}
	return kv, nil
}

// Create generates a new 32-byte seed, seals it under a KEK derived
// from password, and persists it. The vault transitions directly to
// Unlocked, matching the create operation's effect in the process
// surface.
func (kv *KeyVault) Create(password string, params kdf.Argon2Params) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if kv.state != Uninitialized {
		return vaulterrors.ErrVaultExists
	}

	seedBuf := secret.NewBuffer(seedSize)
	if err := fillRandom(seedBuf.Bytes()); err != nil {
		return err
	}

	salt, err := kdf.GenerateSalt()
	if err != nil {
		return err
	}
	kek := kdf.DeriveKEK([]byte(password), salt, params)
	defer secret.Wipe(kek)

	codec, err := aead.New(aead.CipherXChaCha20Poly1305, kek)
	if err != nil {
		return err
	}
	sealed, err := codec.Seal(seedBuf.Bytes(), nil)
	if err != nil {
		return err
	}

	s := sealedSeed{
		cipher:    aead.CipherXChaCha20Poly1305,
		salt:      salt,
		kdfParams: params,
		sealed:    sealed,
	}
	if err := writeSealedSeed(kv.root, s); err != nil {
		return err
	}

	kv.sealed = s
	kv.seed = seedBuf
	kv.state = Unlocked
	return nil
}

// Unlock derives the KEK from password and opens the sealed seed.
// Concurrent callers collapse into a single Argon2id run via
// singleflight; all observe the final state. Unlock is synchronous
// and uncancellable once KEK derivation begins, so the duration of a
// failed attempt can't be used to distinguish wrong-password from a
// cancelled request.
func (kv *KeyVault) Unlock(password string) error {
	if err := kv.policy.CheckAccess(); err != nil {
		return err
	}

	start := time.Now()
	_, err, _ := kv.unlockGroup.Do(password, func() (interface{}, error) {
		return nil, kv.doUnlock(password)
	})
	duration := time.Since(start)

	success := err == nil
	kv.policy.RecordEvent(policy.Event{
		Timestamp: time.Now(),
		Type:      policy.EventUnlock,
		Success:   success,
		Duration:  duration,
	})
	if success {
		metrics.UnlockAttempts.WithLabelValues("success").Inc()
	} else if vaulterrors.RequiresLockdown(err) {
		metrics.UnlockAttempts.WithLabelValues("lockdown").Inc()
	} else {
		metrics.UnlockAttempts.WithLabelValues("auth_failed").Inc()
	}

	if kv.policy.IsLockdownActive() {
		kv.mu.Lock()
		kv.state = Lockdown
		kv.mu.Unlock()
		return vaulterrors.ErrLockdownActive
	}
	return err
}

func (kv *KeyVault) doUnlock(password string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	// kv.state is only a cache of the policy engine's lockdown
	// verdict; re-derive it here rather than trusting a Lockdown
	// latched on some earlier attempt, since policy.Engine clears its
	// own lockdown lazily once lockout_seconds elapses.
	if kv.policy.IsLockdownActive() {
		kv.state = Lockdown
		return vaulterrors.ErrLockdownActive
	}
	if kv.state == Lockdown {
		kv.state = Locked
	}
	if kv.state == Uninitialized {
		return vaulterrors.ErrVaultNotFound
	}
	if kv.state == Unlocked {
		return nil
	}

	kek := kdf.DeriveKEK([]byte(password), kv.sealed.salt, kv.sealed.kdfParams)
	defer secret.Wipe(kek)

	codec, err := aead.New(kv.sealed.cipher, kek)
	if err != nil {
		return err
	}
	seedBytes, err := codec.Open(kv.sealed.sealed, nil)
	if err != nil {
		return vaulterrors.ErrAuthFailed
	}

	seedBuf, err := secret.NewBufferFromExact(seedSize, seedBytes)
	secret.Wipe(seedBytes)
	if err != nil {
		return err
	}

	kv.seed = seedBuf
	kv.state = Unlocked
	return nil
}

// Lock wipes the seed and transitions to Locked.
func (kv *KeyVault) Lock() {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if kv.seed != nil {
		kv.seed.Wipe()
		kv.seed = nil
	}
	if kv.state == Unlocked {
		kv.state = Locked
	}
}

// IsUnlocked reports whether the vault currently holds an unsealed
// seed.
func (kv *KeyVault) IsUnlocked() bool {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return kv.state == Unlocked
}

// State returns the vault's current lifecycle state.
func (kv *KeyVault) State() State {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return kv.state
}

// ChangePassword derives a new KEK from newPassword and a fresh salt,
// reseals the held seed, and atomically replaces the sealed_seed
// file. The vault must be Unlocked.
func (kv *KeyVault) ChangePassword(newPassword string, params kdf.Argon2Params) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if kv.state != Unlocked || kv.seed == nil {
		return vaulterrors.ErrVaultLocked
	}

	salt, err := kdf.GenerateSalt()
	if err != nil {
		return err
	}
	kek := kdf.DeriveKEK([]byte(newPassword), salt, params)
	defer secret.Wipe(kek)

	codec, err := aead.New(aead.CipherXChaCha20Poly1305, kek)
	if err != nil {
		return err
	}
	sealed, err := codec.Seal(kv.seed.Bytes(), nil)
	if err != nil {
		return err
	}

	s := sealedSeed{
		cipher:    aead.CipherXChaCha20Poly1305,
		salt:      salt,
		kdfParams: params,
		sealed:    sealed,
	}
	if err := writeSealedSeed(kv.root, s); err != nil {
		return fmt.Errorf("persist resealed seed: %w", err)
	}
	kv.sealed = s
	return nil
}

// KDFParams returns the Argon2id parameters the vault's seed is
// currently sealed under, for recording on snapshots.
func (kv *KeyVault) KDFParams() kdf.Argon2Params {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return kv.sealed.kdfParams
}

// seedSnapshot returns a copy of the unlocked seed bytes for use by
// the key hierarchy (C5). Callers must wipe the returned slice.
func (kv *KeyVault) seedSnapshot() ([]byte, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	if kv.state != Unlocked || kv.seed == nil {
		return nil, vaulterrors.ErrVaultLocked
	}
	out := make([]byte, kv.seed.Len())
	copy(out, kv.seed.Bytes())
	return out, nil
}
