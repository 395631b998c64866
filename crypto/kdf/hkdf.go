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

package kdf

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/alfa-vault/alfa/internal/metrics"
)

// Predefined derivation purposes, forming the closed namespace from
// spec.md §4.3. Any other purpose string is user-defined and must be
// documented in the snapshot's metadata block. Mirrors
// hkdf_derive.rs's purposes module.
const (
	PurposeConfig       = "ALFA:config"
	PurposeMail         = "ALFA:mail"
	PurposeLogs         = "ALFA:logs"
	PurposeCache        = "ALFA:cache"
	PurposeSession      = "ALFA:session"
	PurposeDeviceMaster = "ALFA:device:master"
	PurposeSnapshotSign = "ALFA:snapshot:sign"
	PurposePhotos       = "ALFA:PHOTOS:v1"
	PurposeThumbs       = "ALFA:THUMBS:v1"
	PurposeIndex        = "ALFA:INDEX:v1"
	PurposeHMAC         = "ALFA:HMAC:v1"
	PurposeFile         = "ALFA:FILE:v1"
)

// DeriveSubkey expands seed (the 32-byte unsealed root seed, or any
// purpose subkey used as input keying material for a further
// derivation) via HKDF-SHA256 into length bytes bound to purpose. No
// salt is supplied: HKDF-Extract runs with an empty salt, then
// HKDF-Expand binds the output to purpose. This is derive(purpose)
// from spec.md §4.5.
func DeriveSubkey(seed []byte, purpose string, length int) ([]byte, error) {
	return deriveSaltedSubkey(seed, nil, purpose, length)
}

// DeriveSubkeySalted is DeriveSubkey with an explicit HKDF salt. Used
// by derive_file, where the salt is the blob id: the same photos key
// produces an independent subkey per file.
func DeriveSubkeySalted(ikm, salt []byte, purpose string, length int) ([]byte, error) {
	return deriveSaltedSubkey(ikm, salt, purpose, length)
}

func deriveSaltedSubkey(ikm, salt []byte, purpose string, length int) ([]byte, error) {
	start := time.Now()
	h := hkdf.New(sha256.New, ikm, salt, []byte(purpose))
	okm := make([]byte, length)
	if _, err := io.ReadFull(h, okm); err != nil {
		metrics.CryptoErrors.WithLabelValues("kdf").Inc()
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}
	metrics.CryptoOperations.WithLabelValues("kdf", "hkdf").Inc()
	metrics.CryptoOperationDuration.WithLabelValues("kdf", "hkdf").Observe(time.Since(start).Seconds())
	return okm, nil
}

// DeriveKey32 derives the common case: a 32-byte subkey for purpose.
func DeriveKey32(seed []byte, purpose string) ([]byte, error) {
	return DeriveSubkey(seed, purpose, 32)
}

// DeriveEpochKey derives a 32-byte subkey scoped to both purpose and
// a rotation epoch, so each epoch's key is independent even though
// they all trace back to the same root seed. This is derive_epoch
// from spec.md §4.5.
func DeriveEpochKey(seed []byte, purpose string, epoch uint64) ([]byte, error) {
	info := fmt.Sprintf("%s:epoch:%d", purpose, epoch)
	return DeriveSubkey(seed, info, 32)
}

// DeriveFileKey derives a 32-byte per-file subkey from a purpose
// subkey (typically the photos key), salted by the blob id. This is
// derive_file from spec.md §4.5: a pure function of (seed, purpose,
// blob id, epoch) by way of purposeKey already folding in purpose and
// epoch.
func DeriveFileKey(purposeKey []byte, blobID string) ([]byte, error) {
	return DeriveSubkeySalted(purposeKey, []byte(blobID), PurposeFile, 32)
}
