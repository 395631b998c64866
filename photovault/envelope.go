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

// Package photovault implements the blob and index envelopes (C6/C7)
// and the PhotoVault process surface (import_blob/get_blob/
// delete_blob/list_blobs). Grounded on alfa_photos_vault/src/
// photo_crypto.rs for the envelope layout and alfa_photos_vault/src/
// index.rs for the per-record index shape.
package photovault

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"github.com/alfa-vault/alfa/crypto/aead"
	"github.com/alfa-vault/alfa/internal/vaulterrors"
)

// Bit-exact on-disk layout per spec.md §4.6.
const (
	blobMagic   = "ALFAPHOT"
	blobVersion = 0x01

	blobNonceLen = 12 // AES-256-GCM
	blobTagLen   = 16
	blobHMACLen  = 32

	// MinEnvelopeSize is the smallest a valid envelope can be: an
	// empty ciphertext still carries the GCM tag.
	MinEnvelopeSize = len(blobMagic) + 1 + blobNonceLen + blobTagLen + blobHMACLen
)

// sealBlobEnvelope encrypts plaintext under fileKey with AES-256-GCM
// (AAD = blobID) and wraps it in the ALFAPHOT header/trailer, signing
// the whole thing with hmacKey. Grounded on photo_crypto.rs's
// encrypt_photo.
func sealBlobEnvelope(fileKey, hmacKey []byte, blobID string, plaintext []byte) ([]byte, error) {
	codec, err := aead.New(aead.CipherAES256GCM, fileKey)
	if err != nil {
		return nil, err
	}
	sealed, err := codec.Seal(plaintext, []byte(blobID))
	if err != nil {
		return nil, fmt.Errorf("seal blob: %w", err)
	}
	// sealed = nonce(12) || ciphertext+tag

	var buf bytes.Buffer
	buf.WriteString(blobMagic)
	buf.WriteByte(blobVersion)
	buf.Write(sealed)

	mac := hmac.New(sha256.New, hmacKey)
	mac.Write(buf.Bytes())
	buf.Write(mac.Sum(nil))

	return buf.Bytes(), nil
}

// openBlobEnvelope verifies the envelope's magic, version, and
// trailing HMAC in constant time, then opens the AEAD payload with
// AAD = blobID. Any failure returns ErrHMACVerification or
// ErrAuthFailed without distinguishing the cause further, per
// spec.md §4.6 and §7.
func openBlobEnvelope(fileKey, hmacKey []byte, blobID string, envelope []byte) ([]byte, error) {
	if len(envelope) < MinEnvelopeSize {
		return nil, vaulterrors.ErrHMACVerification
	}
	if string(envelope[:len(blobMagic)]) != blobMagic {
		return nil, vaulterrors.ErrHMACVerification
	}
	if envelope[len(blobMagic)] != blobVersion {
		return nil, vaulterrors.ErrHMACVerification
	}

	body := envelope[:len(envelope)-blobHMACLen]
	gotMAC := envelope[len(envelope)-blobHMACLen:]

	mac := hmac.New(sha256.New, hmacKey)
	mac.Write(body)
	wantMAC := mac.Sum(nil)
	if !hmac.Equal(gotMAC, wantMAC) {
		return nil, vaulterrors.ErrHMACVerification
	}

	sealed := body[len(blobMagic)+1:]
	codec, err := aead.New(aead.CipherAES256GCM, fileKey)
	if err != nil {
		return nil, err
	}
	plaintext, err := codec.Open(sealed, []byte(blobID))
	if err != nil {
		return nil, vaulterrors.ErrAuthFailed
	}
	return plaintext, nil
}

// verifyBlobEnvelopeHMAC checks only the outer HMAC, without touching
// the AEAD key — used by VerifyBlobIntegrity to reject a tampered
// envelope before it reaches decryption.
func verifyBlobEnvelopeHMAC(hmacKey []byte, envelope []byte) error {
	if len(envelope) < MinEnvelopeSize {
		return vaulterrors.ErrVaultCorrupted
	}
	if string(envelope[:len(blobMagic)]) != blobMagic || envelope[len(blobMagic)] != blobVersion {
		return vaulterrors.ErrVaultCorrupted
	}
	body := envelope[:len(envelope)-blobHMACLen]
	gotMAC := envelope[len(envelope)-blobHMACLen:]
	mac := hmac.New(sha256.New, hmacKey)
	mac.Write(body)
	if !hmac.Equal(gotMAC, mac.Sum(nil)) {
		return vaulterrors.ErrHMACVerification
	}
	return nil
}
