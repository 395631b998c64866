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

package photovault

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/alfa-vault/alfa/crypto/aead"
	"github.com/alfa-vault/alfa/crypto/kdf"
	"github.com/alfa-vault/alfa/crypto/secret"
	"github.com/alfa-vault/alfa/internal/atomicfile"
	"github.com/alfa-vault/alfa/internal/vaulterrors"
)

// epochPrefixLen is the width of the plaintext little-endian epoch
// tag prepended to every sealed index record on disk. The epoch under
// which a record was sealed must be known before it can be opened
// (it picks which epoch's index key to derive), so it can't itself
// live inside the ciphertext it selects the key for.
const epochPrefixLen = 8

// IndexRecord is the metadata entry associated with one BlobFile.
// Grounded on alfa_photos_vault/src/index.rs's PhotoRecord.
type IndexRecord struct {
	BlobID       string    `json:"blob_id"`
	OriginalName string    `json:"original_name"`
	SizeBytes    int64     `json:"size_bytes"`
	ThumbBytes   int64     `json:"thumb_bytes,omitempty"`
	MimeType     string    `json:"mime_type"`
	ImportedAt   time.Time `json:"imported_at"`
	BlobHMAC     []byte    `json:"blob_hmac"`
	Tags         []string  `json:"tags,omitempty"`
	Hidden       bool      `json:"hidden"`
	Favorite     bool      `json:"favorite"`
	Fingerprint  string    `json:"fingerprint,omitempty"`
	Epoch        uint64    `json:"epoch"`
}

// index is the in-memory, disk-backed store of IndexRecords, each
// sealed individually under the index purpose key. The tag map is a
// secondary, plaintext-keyed structure (blob_id x tag) that exists to
// support search without decrypting every record; per spec.md §4.7
// this is an accepted, documented leak of tag names only.
type index struct {
	mu sync.RWMutex

	dir        string
	tags       map[string]map[string]bool // tag -> set of blob ids
	tagsLoaded bool
}

func newIndex(dir string) *index {
	return &index{dir: dir, tags: make(map[string]map[string]bool)}
}

// ensureTagsLoadedLocked rebuilds the plaintext tag map from every
// sealed record on disk, for the case where the process restarted
// and the in-memory map from a prior session is gone. It requires
// keys to already be Unlocked; callers that can't guarantee that
// (e.g. before the seed vault is unlocked) must not trigger this
// path. Safe to call repeatedly — a no-op once tagsLoaded is true.
func (ix *index) ensureTagsLoadedLocked(keys KeySource) error {
	if ix.tagsLoaded {
		return nil
	}

	entries, err := os.ReadDir(ix.dir)
	if err != nil {
		if os.IsNotExist(err) {
			ix.tagsLoaded = true
			return nil
		}
		return fmt.Errorf("read index directory: %w", err)
	}

	const suffix = ".idx"
	for _, e := range entries {
		name := e.Name()
		if len(name) <= len(suffix) || name[len(name)-len(suffix):] != suffix {
			continue
		}
		blobID := name[:len(name)-len(suffix)]
		rec, err := ix.readRecord(keys, blobID)
		if err != nil {
			continue
		}
		ix.reindexTagsLocked(rec)
	}
	ix.tagsLoaded = true
	return nil
}

func (ix *index) recordPath(blobID string) string {
	return filepath.Join(ix.dir, blobID+".idx")
}

// Put seals rec under the ALFA:INDEX:v1 key for rec.Epoch (derived
// fresh from keys) and writes epoch(8 LE) || nonce(24) ||
// ciphertext_with_tag to disk, updating the plaintext tag map. The
// leading epoch tag is plaintext by necessity: Get must know which
// epoch's index key to derive before it can open anything.
func (ix *index) Put(keys KeySource, rec IndexRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal index record: %w", err)
	}

	indexKey, err := keys.DeriveEpoch(kdf.PurposeIndex, rec.Epoch)
	if err != nil {
		return err
	}
	defer secret.Wipe(indexKey)

	codec, err := aead.New(aead.CipherXChaCha20Poly1305, indexKey)
	if err != nil {
		return err
	}
	sealed, err := codec.Seal(data, nil)
	if err != nil {
		return fmt.Errorf("seal index record: %w", err)
	}

	out := make([]byte, epochPrefixLen+len(sealed))
	binary.LittleEndian.PutUint64(out, rec.Epoch)
	copy(out[epochPrefixLen:], sealed)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := atomicfile.Write(ix.recordPath(rec.BlobID), out, 0600); err != nil {
		return err
	}
	ix.reindexTagsLocked(rec)
	return nil
}

func (ix *index) reindexTagsLocked(rec IndexRecord) {
	for _, set := range ix.tags {
		delete(set, rec.BlobID)
	}
	for _, tag := range rec.Tags {
		set, ok := ix.tags[tag]
		if !ok {
			set = make(map[string]bool)
			ix.tags[tag] = set
		}
		set[rec.BlobID] = true
	}
}

// Get reads the plaintext epoch prefix, derives that epoch's index
// key, and opens and unmarshals the record for blobID.
func (ix *index) Get(keys KeySource, blobID string) (IndexRecord, error) {
	return ix.readRecord(keys, blobID)
}

// readRecord is Get's body, factored out so ensureTagsLoadedLocked
// can read records while already holding ix.mu without recursing
// into a lock Get doesn't take.
func (ix *index) readRecord(keys KeySource, blobID string) (IndexRecord, error) {
	raw, err := os.ReadFile(ix.recordPath(blobID))
	if err != nil {
		if os.IsNotExist(err) {
			return IndexRecord{}, vaulterrors.ErrBlobNotFound
		}
		return IndexRecord{}, fmt.Errorf("read index record: %w", err)
	}
	if len(raw) < epochPrefixLen {
		return IndexRecord{}, vaulterrors.ErrVaultCorrupted
	}
	epoch := binary.LittleEndian.Uint64(raw[:epochPrefixLen])
	sealed := raw[epochPrefixLen:]

	indexKey, err := keys.DeriveEpoch(kdf.PurposeIndex, epoch)
	if err != nil {
		return IndexRecord{}, err
	}
	defer secret.Wipe(indexKey)

	codec, err := aead.New(aead.CipherXChaCha20Poly1305, indexKey)
	if err != nil {
		return IndexRecord{}, err
	}
	data, err := codec.Open(sealed, nil)
	if err != nil {
		return IndexRecord{}, vaulterrors.ErrAuthFailed
	}

	var rec IndexRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return IndexRecord{}, fmt.Errorf("%w: %v", vaulterrors.ErrVaultCorrupted, err)
	}
	return rec, nil
}

// Delete removes the sealed record and its tag-index entries.
func (ix *index) Delete(blobID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, set := range ix.tags {
		delete(set, blobID)
	}
	if err := os.Remove(ix.recordPath(blobID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove index record: %w", err)
	}
	return nil
}

// ListBlobIDs returns every blob id with a sealed index record, in
// sorted order so callers (and tests) get a deterministic listing.
func (ix *index) ListBlobIDs() ([]string, error) {
	entries, err := os.ReadDir(ix.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read index directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		const suffix = ".idx"
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			ids = append(ids, name[:len(name)-len(suffix)])
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// BlobsWithTag returns the blob ids tagged with tag, without
// decrypting any record whose tags are already known. On the first
// call after a process restart the in-memory tag map is empty, so
// this rebuilds it once by decrypting every record's Tags field
// (keys must be Unlocked); subsequent calls and ordinary Put/Delete
// traffic keep it current without re-reading anything.
func (ix *index) BlobsWithTag(keys KeySource, tag string) []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	_ = ix.ensureTagsLoadedLocked(keys)

	set, ok := ix.tags[tag]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
