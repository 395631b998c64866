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

// Package vault wires the Seed Vault, Photo Vault, Rotation
// Controller, Snapshot Log, and Access Policy engine into the single
// process surface described in spec.md §6: create, open, unlock,
// lock, import_blob, get_blob, delete_blob, list_blobs, rotate,
// snapshot, verify_chain, policy_get/set, stats. Grounded on
// alfa_keyvault/src/lib.rs's top-level Vault struct, and on the
// teacher's process-wide singleton pattern for binding a handle to a
// filesystem path (design note in spec.md §9: "process-wide singleton
// vault").
package vault

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/alfa-vault/alfa/crypto/kdf"
	"github.com/alfa-vault/alfa/crypto/rotation"
	"github.com/alfa-vault/alfa/crypto/snapshot"
	"github.com/alfa-vault/alfa/internal/logger"
	"github.com/alfa-vault/alfa/internal/vaulterrors"
	"github.com/alfa-vault/alfa/keyvault"
	"github.com/alfa-vault/alfa/photovault"
	"github.com/alfa-vault/alfa/policy"
)

// Vault is the single handle a host binds to a vault root directory,
// composing the seed vault (keys), the photo vault (ciphertext blob
// storage), the rotation controller (epoch bookkeeping), the
// snapshot store (the signed audit log), and the access policy
// engine (the gate every key-touching operation passes through).
type Vault struct {
	mu sync.Mutex

	root         string
	keys         *keyvault.KeyVault
	photos       *photovault.Vault
	rotationCtrl *rotation.Controller
	snapshots    *snapshot.Store
	policyEngine *policy.Engine
	log          logger.Logger
}

var (
	registryMu sync.Mutex
	registry   = map[string]*Vault{}
)

func registryKey(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve vault root: %w", err)
	}
	return abs, nil
}

func newVault(root string) (*Vault, error) {
	engine := policy.NewEngine(policy.DefaultConfig())

	keys, err := keyvault.Open(root, engine)
	if err != nil {
		return nil, err
	}
	photos, err := photovault.Open(root, keys, nil)
	if err != nil {
		return nil, err
	}
	rotationCtrl, err := rotation.Open(filepath.Join(root, "db"), rotation.DefaultPolicy(), nil)
	if err != nil {
		return nil, err
	}
	snapStore, err := snapshot.NewStore(filepath.Join(root, "snapshots"))
	if err != nil {
		return nil, err
	}

	return &Vault{
		root:         root,
		keys:         keys,
		photos:       photos,
		rotationCtrl: rotationCtrl,
		snapshots:    snapStore,
		policyEngine: engine,
		log:          logger.NewDefaultLogger().WithFields(logger.String("component", "vault")),
	}, nil
}

// Create initializes a brand new vault at root sealed under password,
// and registers the handle. Returns vaulterrors.ErrVaultExists if a
// handle for root is already registered or a sealed seed already
// exists on disk.
func Create(root, password string) (*Vault, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	key, err := registryKey(root)
	if err != nil {
		return nil, err
	}
	if _, ok := registry[key]; ok {
		return nil, vaulterrors.ErrVaultExists
	}

	v, err := newVault(root)
	if err != nil {
		return nil, err
	}
	if err := v.keys.Create(password, kdf.DefaultArgon2Params()); err != nil {
		return nil, err
	}

	registry[key] = v
	return v, nil
}

// Open returns the existing handle for root if one is already
// registered, otherwise constructs and registers a new one over
// whatever sealed_seed (if any) already exists on disk. A fresh
// handle starts Locked or Uninitialized depending on whether
// sealed_seed is present; either way the caller must still Unlock.
func Open(root string) (*Vault, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	key, err := registryKey(root)
	if err != nil {
		return nil, err
	}
	if v, ok := registry[key]; ok {
		return v, nil
	}

	v, err := newVault(root)
	if err != nil {
		return nil, err
	}
	registry[key] = v
	return v, nil
}

// Release drops root's registry entry, so a later Open constructs a
// fresh handle rather than returning this one. It does not lock the
// vault; callers wanting key material wiped should call Lock first.
func Release(root string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if key, err := registryKey(root); err == nil {
		delete(registry, key)
	}
}

// Unlock derives the KEK from password and opens the sealed seed,
// subject to the access policy gate (lockdown, allowed-hours, threat
// level).
func (v *Vault) Unlock(password string) error {
	return v.keys.Unlock(password)
}

// Lock wipes the unlocked seed from memory.
func (v *Vault) Lock() {
	v.keys.Lock()
}

// IsUnlocked reports whether the vault currently holds key material.
func (v *Vault) IsUnlocked() bool {
	return v.keys.IsUnlocked()
}
