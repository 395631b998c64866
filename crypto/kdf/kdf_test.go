package kdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKEK_Deterministic(t *testing.T) {
	salt := make([]byte, 16)
	for i := range salt {
		salt[i] = 1
	}
	params := DefaultArgon2Params()

	k1 := DeriveKEK([]byte("test_password"), salt, params)
	k2 := DeriveKEK([]byte("test_password"), salt, params)

	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 32)
}

func TestDeriveKEK_DifferentSaltsDifferentKeys(t *testing.T) {
	params := LowMemoryArgon2Params()
	s1, err := GenerateSalt()
	require.NoError(t, err)
	s2, err := GenerateSalt()
	require.NoError(t, err)

	k1 := DeriveKEK([]byte("password"), s1, params)
	k2 := DeriveKEK([]byte("password"), s2, params)

	assert.NotEqual(t, k1, k2)
}

func TestGenerateSalt_Length(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt, saltSize)
}

func TestDeriveSubkey_Length(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 42
	}

	key, err := DeriveSubkey(seed, "test:purpose", 64)
	require.NoError(t, err)
	assert.Len(t, key, 64)
}

func TestDeriveKey32_Deterministic(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 42
	}

	k1, err := DeriveKey32(seed, "test")
	require.NoError(t, err)
	k2, err := DeriveKey32(seed, "test")
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
}

func TestDeriveKey32_DifferentPurposesDifferentKeys(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 42
	}

	k1, err := DeriveKey32(seed, PurposeConfig)
	require.NoError(t, err)
	k2, err := DeriveKey32(seed, PurposeLogs)
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}

func TestDeriveEpochKey_DifferentEpochsDifferentKeys(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 42
	}

	e0, err := DeriveEpochKey(seed, PurposePhotos, 0)
	require.NoError(t, err)
	e1, err := DeriveEpochKey(seed, PurposePhotos, 1)
	require.NoError(t, err)

	assert.NotEqual(t, e0, e1)
}

func TestDeriveFileKey_DifferentBlobsDifferentKeys(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 7
	}
	photosKey, err := DeriveEpochKey(seed, PurposePhotos, 1)
	require.NoError(t, err)

	k1, err := DeriveFileKey(photosKey, "blob-a")
	require.NoError(t, err)
	k2, err := DeriveFileKey(photosKey, "blob-b")
	require.NoError(t, err)
	k3, err := DeriveFileKey(photosKey, "blob-a")
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
	assert.Equal(t, k1, k3)
}

func TestArgon2Params_EstimatedDuration(t *testing.T) {
	p := DefaultArgon2Params()
	assert.Positive(t, p.EstimatedDuration())
}
