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

// Package snapshot implements the signed, hash-chained snapshot log
// (C8): a canonical SHA-256 hash over a snapshot's fields, an
// HMAC-SHA256 signature under the "ALFA:snapshot:sign" subkey, and
// prev_hash chaining across the sequence. Grounded on
// alfa_keyvault/src/snapshot.rs.
package snapshot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// KDFParams mirrors the KDF parameters recorded on a SealedSeed, as
// stored on each snapshot.
type KDFParams struct {
	Algorithm   string `json:"algorithm"`
	TimeCost    uint32 `json:"time_cost"`
	MemoryKiB   uint32 `json:"memory_cost_kib"`
	Parallelism uint8  `json:"parallelism"`
}

// Snapshot is one entry in the hash-chained log, capturing a vault's
// KDF parameters and key-usage counters at the moment of a rotation.
type Snapshot struct {
	Version   string            `json:"version"`
	Epoch     uint64            `json:"epoch"`
	Timestamp time.Time         `json:"timestamp"`
	KDFParams KDFParams         `json:"kdf_params"`
	KeyUsages map[string]uint64 `json:"key_usages"`
	PrevHash  string            `json:"prev_hash,omitempty"`
	Signature string            `json:"signature"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// CanonicalHash computes the SHA-256 hash over s's fields in the
// fixed order spec.md §4.8 requires: version, epoch (LE8), RFC-3339
// timestamp, KDF algorithm, time-cost (LE4), memory-KiB (LE4), then
// every (purpose, count) pair in key-sorted order, then prev_hash if
// present. Iterating key_usages in sorted order resolves spec.md Open
// Question Q1: the source iterates insertion order, which is not
// reproducible across implementations, so this implementation sorts.
func (s Snapshot) CanonicalHash() []byte {
	h := sha256.New()
	h.Write([]byte(s.Version))

	var epochBuf [8]byte
	binary.LittleEndian.PutUint64(epochBuf[:], s.Epoch)
	h.Write(epochBuf[:])

	h.Write([]byte(s.Timestamp.UTC().Format(time.RFC3339)))
	h.Write([]byte(s.KDFParams.Algorithm))

	var timeCostBuf, memBuf [4]byte
	binary.LittleEndian.PutUint32(timeCostBuf[:], s.KDFParams.TimeCost)
	binary.LittleEndian.PutUint32(memBuf[:], s.KDFParams.MemoryKiB)
	h.Write(timeCostBuf[:])
	h.Write(memBuf[:])

	purposes := make([]string, 0, len(s.KeyUsages))
	for p := range s.KeyUsages {
		purposes = append(purposes, p)
	}
	sort.Strings(purposes)
	for _, p := range purposes {
		h.Write([]byte(p))
		var countBuf [8]byte
		binary.LittleEndian.PutUint64(countBuf[:], s.KeyUsages[p])
		h.Write(countBuf[:])
	}

	if s.PrevHash != "" {
		h.Write([]byte(s.PrevHash))
	}

	return h.Sum(nil)
}

// CanonicalHashHex is CanonicalHash lowercase-hex encoded, the form
// used both as the signed message and as the next snapshot's
// prev_hash.
func (s Snapshot) CanonicalHashHex() string {
	return hex.EncodeToString(s.CanonicalHash())
}

// Sign computes the snapshot's signature: HMAC-SHA256 over the
// lowercase-hex canonical hash, keyed by signKey (HKDF(seed,
// "ALFA:snapshot:sign")). It mutates and returns s with Signature
// set.
func Sign(s Snapshot, signKey []byte) Snapshot {
	mac := hmac.New(sha256.New, signKey)
	mac.Write([]byte(s.CanonicalHashHex()))
	s.Signature = hex.EncodeToString(mac.Sum(nil))
	return s
}

// Verify reports whether s's signature is valid under signKey.
func Verify(s Snapshot, signKey []byte) bool {
	mac := hmac.New(sha256.New, signKey)
	mac.Write([]byte(s.CanonicalHashHex()))
	want := mac.Sum(nil)
	got, err := hex.DecodeString(s.Signature)
	if err != nil {
		return false
	}
	return hmac.Equal(got, want)
}

// ChainReport is the return type of verifying a sequence of
// snapshots, giving callers the per-snapshot detail rather than a
// single pass/fail boolean (a strict superset of spec.md §6's
// verify_chain, carried forward from alfa_keyvault/src/snapshot.rs's
// ChainVerification).
type ChainReport struct {
	Total       int
	Valid       int
	Invalid     []int // indices (0-based, chronological order) of snapshots with a bad signature
	ChainIntact bool
}

// VerifyChain checks every snapshot's signature against signKey and
// every non-root prev_hash against the previous snapshot's canonical
// hash. snapshots must be in chronological order.
func VerifyChain(snapshots []Snapshot, signKey []byte) ChainReport {
	report := ChainReport{Total: len(snapshots), ChainIntact: true}

	for i, s := range snapshots {
		if Verify(s, signKey) {
			report.Valid++
		} else {
			report.Invalid = append(report.Invalid, i)
		}

		if i == 0 {
			if s.PrevHash != "" {
				report.ChainIntact = false
			}
			continue
		}
		if s.PrevHash != snapshots[i-1].CanonicalHashHex() {
			report.ChainIntact = false
		}
	}

	return report
}

// New builds a snapshot for epoch, stamped with the current time,
// the vault's KDF params, a copy of usage counters, and prevHash (the
// previous snapshot's CanonicalHashHex, empty for the first). The
// caller is responsible for calling Sign.
func New(epoch uint64, params KDFParams, usages map[string]uint64, prevHash string) Snapshot {
	usagesCopy := make(map[string]uint64, len(usages))
	for k, v := range usages {
		usagesCopy[k] = v
	}
	return Snapshot{
		Version:   "1",
		Epoch:     epoch,
		Timestamp: time.Now().UTC(),
		KDFParams: params,
		KeyUsages: usagesCopy,
		PrevHash:  prevHash,
	}
}

// FileName returns the canonical on-disk name for a snapshot, per
// spec.md §6: snapshot_<epoch:06>_<yyyymmdd_HHMMSS>.json.
func FileName(s Snapshot) string {
	return fmt.Sprintf("snapshot_%06d_%s.json", s.Epoch, s.Timestamp.UTC().Format("20060102_150405"))
}
