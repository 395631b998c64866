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

// Package secret holds fixed-size secret byte buffers that wipe
// themselves on release, mirroring alfa_keyvault's SecureBuffer /
// SecureArray and the teacher's session key-material wipe-in-place
// pattern (pkg/agent/session/session.go Reset/Close).
package secret

import (
	"crypto/subtle"

	"github.com/alfa-vault/alfa/internal/vaulterrors"
)

// Buffer is a heap-allocated secret byte container of a fixed size.
// It is not safe for concurrent use; callers that share a Buffer
// across goroutines must provide their own synchronization.
type Buffer struct {
	data  []byte
	wiped bool
}

// NewBuffer allocates a zeroed Buffer of the given size.
func NewBuffer(size int) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

// NewBufferFrom copies src into a new Buffer. The caller remains
// responsible for wiping src itself if it also held sensitive data.
func NewBufferFrom(src []byte) *Buffer {
	b := NewBuffer(len(src))
	copy(b.data, src)
	return b
}

// NewBufferFromExact copies src into a new Buffer, requiring src to
// be exactly size bytes long. Returns ErrBufferSizeMismatch otherwise,
// per spec.md §4.1's constructor-validation requirement, rather than
// silently accepting a wrongly-sized secret and leaving callers to
// remember to call ExpectLen themselves.
func NewBufferFromExact(size int, src []byte) (*Buffer, error) {
	if len(src) != size {
		return nil, vaulterrors.ErrBufferSizeMismatch
	}
	return NewBufferFrom(src), nil
}

// Clone returns an independently wipeable copy of b: wiping the
// clone has no effect on b, and vice versa.
func (b *Buffer) Clone() *Buffer {
	return NewBufferFrom(b.data)
}

// Bytes returns the underlying slice. The returned slice aliases the
// Buffer's storage: do not retain it past a call to Wipe.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the buffer size.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Wipe zeroes the buffer in place. Safe to call multiple times.
func (b *Buffer) Wipe() {
	if b.wiped {
		return
	}
	for i := range b.data {
		b.data[i] = 0
	}
	b.wiped = true
}

// Equal performs a constant-time comparison against other, avoiding
// timing side channels on secret comparisons (e.g. HMAC tags).
func (b *Buffer) Equal(other []byte) bool {
	return subtle.ConstantTimeCompare(b.data, other) == 1
}

// ExpectLen validates the buffer is exactly n bytes, returning
// ErrBufferSizeMismatch otherwise. Mirrors spec.md's buffer-size
// invariant surfaced through the Io/BufferSizeMismatch taxonomy.
func (b *Buffer) ExpectLen(n int) error {
	if len(b.data) != n {
		return vaulterrors.ErrBufferSizeMismatch
	}
	return nil
}

// Wipe zeroes an arbitrary byte slice in place. Used for one-off
// buffers (e.g. decrypted plaintext on an AEAD-open error path) that
// are not wrapped in a Buffer.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
