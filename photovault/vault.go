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
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/alfa-vault/alfa/crypto/kdf"
	"github.com/alfa-vault/alfa/crypto/secret"
	"github.com/alfa-vault/alfa/internal/atomicfile"
	"github.com/alfa-vault/alfa/internal/logger"
	"github.com/alfa-vault/alfa/internal/metrics"
	"github.com/alfa-vault/alfa/internal/vaulterrors"
)

// KeySource is the slice of keyvault.KeyVault the photo vault needs:
// epoch-scoped purpose keys and per-file keys derived from them. It
// is satisfied by *keyvault.KeyVault; photovault depends on it only
// through this interface so the two packages don't form a cycle.
type KeySource interface {
	DeriveEpoch(purpose string, epoch uint64) ([]byte, error)
	DeriveFile(purpose string, epoch uint64, blobID string) ([]byte, error)
}

// Vault is the PhotoVault: encrypted blob storage plus its metadata
// index, keyed from subkeys derived from the shared KeyVault seed.
// Grounded on alfa_photos_vault/src/vault.rs (PhotosVault, minus the
// thumbnailing/perceptual-hash pipeline, which is explicitly out of
// scope per spec.md §1).
type Vault struct {
	root  string
	keys  KeySource
	index *index
	log   logger.Logger
}

// Open constructs a PhotoVault rooted at root, creating the photos/
// thumbs/db subdirectories if absent.
func Open(root string, keys KeySource, log logger.Logger) (*Vault, error) {
	for _, sub := range []string{"photos", "thumbs", "db"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0700); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", sub, err)
		}
	}
	if log == nil {
		log = logger.NewDefaultLogger()
	}
	return &Vault{
		root:  root,
		keys:  keys,
		index: newIndex(filepath.Join(root, "db")),
		log:   log.WithFields(logger.String("component", "photovault")),
	}, nil
}

func (v *Vault) blobPath(id string) string  { return filepath.Join(v.root, "photos", id+".enc") }
func (v *Vault) thumbPath(id string) string { return filepath.Join(v.root, "thumbs", id+".enc") }

// ImportBlob encrypts data under a freshly derived per-file key at
// epoch, writes the envelope, and creates the matching index record.
// Returns the generated blob id.
func (v *Vault) ImportBlob(epoch uint64, data []byte, name, mimeType string) (string, error) {
	blobID := uuid.NewString()

	fileKey, err := v.keys.DeriveFile(kdf.PurposePhotos, epoch, blobID)
	if err != nil {
		return "", err
	}
	defer secret.Wipe(fileKey)
	hmacKey, err := v.keys.DeriveEpoch(kdf.PurposeHMAC, epoch)
	if err != nil {
		return "", err
	}
	defer secret.Wipe(hmacKey)

	envelope, err := sealBlobEnvelope(fileKey, hmacKey, blobID, data)
	if err != nil {
		return "", err
	}
	if err := atomicfile.Write(v.blobPath(blobID), envelope, 0600); err != nil {
		return "", err
	}

	sum := sha256.Sum256(envelope)
	rec := IndexRecord{
		BlobID:       blobID,
		OriginalName: name,
		SizeBytes:    int64(len(data)),
		MimeType:     mimeType,
		ImportedAt:   time.Now().UTC(),
		BlobHMAC:     sum[:],
		Epoch:        epoch,
	}
	if err := v.index.Put(v.keys, rec); err != nil {
		return "", err
	}

	metrics.BlobsImported.Inc()
	v.log.Info("blob imported", logger.String("blob_id", blobID), logger.Int("size_bytes", len(data)))
	return blobID, nil
}

// SetThumbnail encrypts thumbData under the ALFA:THUMBS:v1 epoch key
// and writes it alongside the blob, recording its size on the index
// record. Thumbnail generation itself is out of scope (spec.md §1);
// this only stores bytes the caller already produced.
func (v *Vault) SetThumbnail(epoch uint64, blobID string, thumbData []byte) error {
	rec, err := v.index.Get(v.keys, blobID)
	if err != nil {
		return err
	}

	fileKey, err := v.keys.DeriveFile(kdf.PurposeThumbs, epoch, blobID)
	if err != nil {
		return err
	}
	defer secret.Wipe(fileKey)
	hmacKey, err := v.keys.DeriveEpoch(kdf.PurposeHMAC, epoch)
	if err != nil {
		return err
	}
	defer secret.Wipe(hmacKey)

	envelope, err := sealBlobEnvelope(fileKey, hmacKey, blobID, thumbData)
	if err != nil {
		return err
	}
	if err := atomicfile.Write(v.thumbPath(blobID), envelope, 0600); err != nil {
		return err
	}

	rec.ThumbBytes = int64(len(thumbData))
	return v.index.Put(v.keys, rec)
}

// GetBlob decrypts and returns the plaintext for blobID, re-deriving
// the per-file key from the epoch recorded on its index entry (not
// necessarily the vault's current epoch — this is what makes
// rotation's old-epoch read path and a plain read path the same
// code).
func (v *Vault) GetBlob(blobID string) ([]byte, error) {
	rec, err := v.index.Get(v.keys, blobID)
	if err != nil {
		return nil, err
	}

	fileKey, err := v.keys.DeriveFile(kdf.PurposePhotos, rec.Epoch, blobID)
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(fileKey)
	hmacKey, err := v.keys.DeriveEpoch(kdf.PurposeHMAC, rec.Epoch)
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(hmacKey)

	envelope, err := os.ReadFile(v.blobPath(blobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vaulterrors.ErrBlobNotFound
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}

	plaintext, err := openBlobEnvelope(fileKey, hmacKey, blobID, envelope)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("get_blob").Inc()
		return nil, err
	}
	return plaintext, nil
}

// DeleteBlob removes the blob, its thumbnail (if any), and its index
// record.
func (v *Vault) DeleteBlob(blobID string) error {
	if err := os.Remove(v.blobPath(blobID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob: %w", err)
	}
	_ = os.Remove(v.thumbPath(blobID))
	if err := v.index.Delete(blobID); err != nil {
		return err
	}
	metrics.BlobsDeleted.Inc()
	return nil
}

// ListBlobs returns every blob id currently indexed.
func (v *Vault) ListBlobs() ([]string, error) {
	return v.index.ListBlobIDs()
}

// RecordAt returns the index record for blobID.
func (v *Vault) RecordAt(blobID string) (IndexRecord, error) {
	return v.index.Get(v.keys, blobID)
}

// SetTags replaces blobID's tags and re-seals its index record under
// its existing epoch.
func (v *Vault) SetTags(blobID string, tags []string) error {
	rec, err := v.index.Get(v.keys, blobID)
	if err != nil {
		return err
	}
	rec.Tags = tags
	return v.index.Put(v.keys, rec)
}

// SetFlags updates blobID's hidden/favorite flags and re-seals its
// index record.
func (v *Vault) SetFlags(blobID string, hidden, favorite bool) error {
	rec, err := v.index.Get(v.keys, blobID)
	if err != nil {
		return err
	}
	rec.Hidden = hidden
	rec.Favorite = favorite
	return v.index.Put(v.keys, rec)
}

// BlobsWithTag returns blob ids matching tag from the plaintext tag
// map (spec.md §4.7's plaintext tag search path). The first call after
// a restart rebuilds that map by decrypting every index record; later
// calls decrypt nothing.
func (v *Vault) BlobsWithTag(tag string) []string {
	return v.index.BlobsWithTag(v.keys, tag)
}

// ReencryptBlob is the rotation controller's per-blob step: it opens
// the blob under its current index epoch's key, re-seals it and its
// thumbnail (if any) under newEpoch, and re-seals the index record,
// all via write-temp-then-rename so a crash mid-step leaves either
// the pre- or post-rotation state, never a half-written file.
func (v *Vault) ReencryptBlob(blobID string, newEpoch uint64) error {
	rec, err := v.index.Get(v.keys, blobID)
	if err != nil {
		return err
	}
	if rec.Epoch == newEpoch {
		return nil
	}

	plaintext, err := v.GetBlob(blobID)
	if err != nil {
		return err
	}
	defer secret.Wipe(plaintext)

	fileKey, err := v.keys.DeriveFile(kdf.PurposePhotos, newEpoch, blobID)
	if err != nil {
		return err
	}
	defer secret.Wipe(fileKey)
	hmacKey, err := v.keys.DeriveEpoch(kdf.PurposeHMAC, newEpoch)
	if err != nil {
		return err
	}
	defer secret.Wipe(hmacKey)

	envelope, err := sealBlobEnvelope(fileKey, hmacKey, blobID, plaintext)
	if err != nil {
		return err
	}
	if err := atomicfile.Write(v.blobPath(blobID), envelope, 0600); err != nil {
		return err
	}

	if _, statErr := os.Stat(v.thumbPath(blobID)); statErr == nil {
		thumbFileKey, err := v.keys.DeriveFile(kdf.PurposeThumbs, newEpoch, blobID)
		if err != nil {
			return err
		}
		defer secret.Wipe(thumbFileKey)
		oldThumbFileKey, err := v.keys.DeriveFile(kdf.PurposeThumbs, rec.Epoch, blobID)
		if err != nil {
			return err
		}
		defer secret.Wipe(oldThumbFileKey)
		oldThumbHMACKey, err := v.keys.DeriveEpoch(kdf.PurposeHMAC, rec.Epoch)
		if err != nil {
			return err
		}
		defer secret.Wipe(oldThumbHMACKey)

		thumbEnvelope, err := os.ReadFile(v.thumbPath(blobID))
		if err != nil {
			return fmt.Errorf("read thumbnail: %w", err)
		}
		thumbPlain, err := openBlobEnvelope(oldThumbFileKey, oldThumbHMACKey, blobID, thumbEnvelope)
		if err != nil {
			return err
		}
		defer secret.Wipe(thumbPlain)

		newThumbEnvelope, err := sealBlobEnvelope(thumbFileKey, hmacKey, blobID, thumbPlain)
		if err != nil {
			return err
		}
		if err := atomicfile.Write(v.thumbPath(blobID), newThumbEnvelope, 0600); err != nil {
			return err
		}
	}

	sum := sha256.Sum256(envelope)
	rec.Epoch = newEpoch
	rec.BlobHMAC = sum[:]
	return v.index.Put(v.keys, rec)
}

// VerifyBlobIntegrity checks a blob envelope's outer HMAC without
// touching its AEAD key, so a tampered envelope can be rejected before
// decryption. The rotation path does not call it: ReencryptBlob opens
// the blob through GetBlob, which checks the same HMAC.
func (v *Vault) VerifyBlobIntegrity(blobID string) error {
	rec, err := v.index.Get(v.keys, blobID)
	if err != nil {
		return err
	}
	hmacKey, err := v.keys.DeriveEpoch(kdf.PurposeHMAC, rec.Epoch)
	if err != nil {
		return err
	}
	defer secret.Wipe(hmacKey)

	envelope, err := os.ReadFile(v.blobPath(blobID))
	if err != nil {
		if os.IsNotExist(err) {
			return vaulterrors.ErrBlobNotFound
		}
		return fmt.Errorf("read blob: %w", err)
	}
	return verifyBlobEnvelopeHMAC(hmacKey, envelope)
}
