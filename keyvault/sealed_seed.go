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
	"encoding/json"
	"fmt"
	"os"

	"github.com/alfa-vault/alfa/crypto/aead"
	"github.com/alfa-vault/alfa/crypto/kdf"
	"github.com/alfa-vault/alfa/internal/atomicfile"
	"github.com/alfa-vault/alfa/internal/vaulterrors"
)

// sealedSeedFile is the on-disk name of the SealedSeed structure
// within a vault root.
const sealedSeedFile = "sealed_seed"

// kdfParamsJSON mirrors SealedSeed.kdf_params's wire field names.
type kdfParamsJSON struct {
	TimeCost    uint32 `json:"time_cost"`
	MemoryKiB   uint32 `json:"memory_cost_kib"`
	Parallelism uint8  `json:"parallelism"`
}

// sealedSeedJSON is the wire format for the sealed_seed file: JSON
// with base64-encoded binary fields, per spec's External Interfaces.
type sealedSeedJSON struct {
	Cipher     string        `json:"cipher"`
	Salt       []byte        `json:"salt"`
	Nonce      []byte        `json:"nonce"`
	Ciphertext []byte        `json:"ct"`
	KDFParams  kdfParamsJSON `json:"kdf_params"`
}

// sealedSeed is the in-memory counterpart of sealedSeedJSON.
type sealedSeed struct {
	cipher     aead.Cipher
	salt       []byte
	kdfParams  kdf.Argon2Params
	sealed     []byte // nonce || ciphertext_with_tag, as produced by aead.Codec.Seal
}

func writeSealedSeed(root string, s sealedSeed) error {
	wire := sealedSeedJSON{
		Cipher:     s.cipher.String(),
		Salt:       s.salt,
		Nonce:      s.sealed[:seedNonceLen(s.cipher)],
		Ciphertext: s.sealed[seedNonceLen(s.cipher):],
		KDFParams: kdfParamsJSON{
			TimeCost:    s.kdfParams.TimeCost,
			MemoryKiB:   s.kdfParams.MemoryKiB,
			Parallelism: s.kdfParams.Parallelism,
		},
	}

	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sealed seed: %w", err)
	}
	return atomicfile.Write(root+"/"+sealedSeedFile, data, 0600)
}

func readSealedSeed(root string) (sealedSeed, error) {
	data, err := os.ReadFile(root + "/" + sealedSeedFile)
	if err != nil {
		if os.IsNotExist(err) {
			return sealedSeed{}, vaulterrors.ErrVaultNotFound
		}
		return sealedSeed{}, fmt.Errorf("read sealed seed: %w", err)
	}

	var wire sealedSeedJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return sealedSeed{}, fmt.Errorf("%w: %v", vaulterrors.ErrVaultCorrupted, err)
	}

	cipher, err := aead.ParseCipher(wire.Cipher)
	if err != nil {
		return sealedSeed{}, fmt.Errorf("%w: %v", vaulterrors.ErrVaultCorrupted, err)
	}

	return sealedSeed{
		cipher: cipher,
		salt:   wire.Salt,
		kdfParams: kdf.Argon2Params{
			TimeCost:    wire.KDFParams.TimeCost,
			MemoryKiB:   wire.KDFParams.MemoryKiB,
			Parallelism: wire.KDFParams.Parallelism,
		},
		sealed: append(append([]byte{}, wire.Nonce...), wire.Ciphertext...),
	}, nil
}

func seedNonceLen(cipher aead.Cipher) int {
	if cipher == aead.CipherAES256GCM {
		return 12
	}
	return 24
}

func sealedSeedExists(root string) bool {
	_, err := os.Stat(root + "/" + sealedSeedFile)
	return err == nil
}
