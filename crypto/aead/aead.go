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

// Package aead implements the dual-cipher envelope codec used by
// both vaults: AES-256-GCM for bulk blob payloads, XChaCha20-Poly1305
// for index records and the sealed seed. Grounded on
// alfa_keyvault/src/crypto/aead.rs and the teacher's
// pkg/agent/session/session.go Encrypt/Decrypt (nonce-prepended
// convention, AAD support).
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/alfa-vault/alfa/internal/metrics"
	"github.com/alfa-vault/alfa/internal/vaulterrors"
)

// Cipher identifies which AEAD algorithm a Codec uses.
type Cipher int

const (
	// CipherXChaCha20Poly1305 is the default: 24-byte nonce, safe for
	// random-nonce-per-record use without a counter.
	CipherXChaCha20Poly1305 Cipher = iota
	// CipherAES256GCM uses a 12-byte nonce; used for bulk blob
	// payloads where hardware AES acceleration matters.
	CipherAES256GCM
)

func (c Cipher) String() string {
	switch c {
	case CipherAES256GCM:
		return "aes256gcm"
	case CipherXChaCha20Poly1305:
		return "xchacha20poly1305"
	default:
		return "unknown"
	}
}

// ParseCipher parses the config-file cipher name.
func ParseCipher(name string) (Cipher, error) {
	switch name {
	case "aes256gcm":
		return CipherAES256GCM, nil
	case "xchacha20poly1305":
		return CipherXChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("unknown cipher %q", name)
	}
}

// Codec seals and opens byte slices under a single 32-byte key using
// the selected AEAD cipher.
type Codec struct {
	cipher cipher.AEAD
	kind   Cipher
}

// New constructs a Codec for the given cipher and 32-byte key.
func New(kind Cipher, key []byte) (*Codec, error) {
	if len(key) != 32 {
		return nil, vaulterrors.ErrInvalidKeyLength
	}

	var aead cipher.AEAD
	var err error

	switch kind {
	case CipherAES256GCM:
		block, blockErr := aes.NewCipher(key)
		if blockErr != nil {
			return nil, fmt.Errorf("aes cipher: %w", blockErr)
		}
		aead, err = cipher.NewGCM(block)
	case CipherXChaCha20Poly1305:
		aead, err = chacha20poly1305.NewX(key)
	default:
		return nil, fmt.Errorf("unsupported cipher %v", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("construct aead: %w", err)
	}

	return &Codec{cipher: aead, kind: kind}, nil
}

// NonceSize returns the cipher's nonce length (12 for AES-256-GCM,
// 24 for XChaCha20-Poly1305).
func (c *Codec) NonceSize() int {
	return c.cipher.NonceSize()
}

// Seal encrypts plaintext, returning nonce||ciphertext (ciphertext
// includes the authentication tag). aad may be nil.
func (c *Codec) Seal(plaintext, aad []byte) ([]byte, error) {
	start := time.Now()
	nonce := make([]byte, c.cipher.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		metrics.CryptoErrors.WithLabelValues("seal").Inc()
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := c.cipher.Seal(nonce, nonce, plaintext, aad)

	metrics.CryptoOperations.WithLabelValues("seal", c.kind.String()).Inc()
	metrics.CryptoOperationDuration.WithLabelValues("seal", c.kind.String()).Observe(time.Since(start).Seconds())
	return out, nil
}

// Open decrypts a nonce||ciphertext blob produced by Seal. On any
// failure the returned slice is wiped before the error is returned,
// so no partial plaintext survives an authentication failure.
func (c *Codec) Open(sealed, aad []byte) ([]byte, error) {
	start := time.Now()
	nonceSize := c.cipher.NonceSize()
	if len(sealed) < nonceSize {
		metrics.CryptoErrors.WithLabelValues("open").Inc()
		return nil, vaulterrors.ErrBufferSizeMismatch
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := c.cipher.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("open").Inc()
		if plaintext != nil {
			for i := range plaintext {
				plaintext[i] = 0
			}
		}
		return nil, fmt.Errorf("%w: %v", vaulterrors.ErrAuthFailed, err)
	}

	metrics.CryptoOperations.WithLabelValues("open", c.kind.String()).Inc()
	metrics.CryptoOperationDuration.WithLabelValues("open", c.kind.String()).Observe(time.Since(start).Seconds())
	return plaintext, nil
}
