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

import "github.com/alfa-vault/alfa/photovault"

// ImportBlob seals data under the vault's current epoch and indexes
// it as name, returning the generated blob id.
func (v *Vault) ImportBlob(data []byte, name string) (string, error) {
	return v.ImportBlobWithType(data, name, "application/octet-stream")
}

// ImportBlobWithType is ImportBlob with an explicit MIME type, for
// hosts that already know it.
func (v *Vault) ImportBlobWithType(data []byte, name, mimeType string) (string, error) {
	if err := v.policyEngine.CheckAccess(); err != nil {
		return "", err
	}
	epoch := v.rotationCtrl.CurrentEpoch()
	return v.photos.ImportBlob(epoch, data, name, mimeType)
}

// GetBlob decrypts and returns blob id's plaintext.
func (v *Vault) GetBlob(id string) ([]byte, error) {
	if err := v.policyEngine.CheckAccess(); err != nil {
		return nil, err
	}
	return v.photos.GetBlob(id)
}

// DeleteBlob removes blob id and its metadata.
func (v *Vault) DeleteBlob(id string) error {
	if err := v.policyEngine.CheckAccess(); err != nil {
		return err
	}
	return v.photos.DeleteBlob(id)
}

// ListBlobs returns every indexed blob id.
func (v *Vault) ListBlobs() ([]string, error) {
	return v.photos.ListBlobs()
}

// SetThumbnail stores a caller-supplied thumbnail for blob id under
// the vault's current epoch. Thumbnail generation itself is out of
// scope; the host decodes and downsamples, the vault only seals.
func (v *Vault) SetThumbnail(id string, thumbData []byte) error {
	epoch := v.rotationCtrl.CurrentEpoch()
	return v.photos.SetThumbnail(epoch, id, thumbData)
}

// SetTags replaces blob id's searchable tags.
func (v *Vault) SetTags(id string, tags []string) error {
	return v.photos.SetTags(id, tags)
}

// SetFlags updates blob id's hidden/favorite flags.
func (v *Vault) SetFlags(id string, hidden, favorite bool) error {
	return v.photos.SetFlags(id, hidden, favorite)
}

// BlobsWithTag returns blob ids matching tag from the plaintext tag
// map; only the first call after a restart decrypts index records, to
// rebuild that map.
func (v *Vault) BlobsWithTag(tag string) []string {
	return v.photos.BlobsWithTag(tag)
}

// RecordAt returns the metadata record for blob id.
func (v *Vault) RecordAt(id string) (photovault.IndexRecord, error) {
	return v.photos.RecordAt(id)
}
