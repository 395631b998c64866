package photovault

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfa-vault/alfa/crypto/kdf"
)

// fakeKeys derives purely from an in-memory seed, the same way
// keyvault.KeyVault does, so photovault's own tests don't need a
// running KeyVault to exercise envelope/index logic.
type fakeKeys struct {
	seed []byte
}

func (k *fakeKeys) DeriveEpoch(purpose string, epoch uint64) ([]byte, error) {
	return kdf.DeriveEpochKey(k.seed, purpose, epoch)
}

func (k *fakeKeys) DeriveFile(purpose string, epoch uint64, blobID string) ([]byte, error) {
	purposeKey, err := k.DeriveEpoch(purpose, epoch)
	if err != nil {
		return nil, err
	}
	return kdf.DeriveFileKey(purposeKey, blobID)
}

func newFakeKeys() *fakeKeys {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	return &fakeKeys{seed: seed}
}

func TestImportGetDeleteBlob_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	keys := newFakeKeys()
	v, err := Open(dir, keys, nil)
	require.NoError(t, err)

	data := []byte("the quick brown fox jumps over the lazy dog")
	blobID, err := v.ImportBlob(1, data, "fox.txt", "text/plain")
	require.NoError(t, err)
	assert.NotEmpty(t, blobID)

	got, err := v.GetBlob(blobID)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	ids, err := v.ListBlobs()
	require.NoError(t, err)
	assert.Contains(t, ids, blobID)

	require.NoError(t, v.DeleteBlob(blobID))
	_, err = v.GetBlob(blobID)
	assert.Error(t, err)
}

func TestReencryptBlob_ChangesEpochAndStaysReadable(t *testing.T) {
	dir := t.TempDir()
	keys := newFakeKeys()
	v, err := Open(dir, keys, nil)
	require.NoError(t, err)

	data := []byte("rotate me")
	blobID, err := v.ImportBlob(1, data, "f", "text/plain")
	require.NoError(t, err)

	require.NoError(t, v.ReencryptBlob(blobID, 2))

	rec, err := v.RecordAt(blobID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rec.Epoch)

	got, err := v.GetBlob(blobID)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestBlobsWithTag_SurvivesProcessRestart(t *testing.T) {
	dir := t.TempDir()
	keys := newFakeKeys()
	v, err := Open(dir, keys, nil)
	require.NoError(t, err)

	id1, err := v.ImportBlob(1, []byte("one"), "one.txt", "text/plain")
	require.NoError(t, err)
	id2, err := v.ImportBlob(1, []byte("two"), "two.txt", "text/plain")
	require.NoError(t, err)

	require.NoError(t, v.SetTags(id1, []string{"vacation"}))
	require.NoError(t, v.SetTags(id2, []string{"work"}))

	assert.ElementsMatch(t, []string{id1}, v.BlobsWithTag("vacation"))

	// Simulate a process restart: a fresh Vault handle over the same
	// root directory starts with an empty in-memory tag map and must
	// rebuild it from the sealed records on disk.
	reopened, err := Open(dir, keys, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{id1}, reopened.BlobsWithTag("vacation"))
	assert.ElementsMatch(t, []string{id2}, reopened.BlobsWithTag("work"))
	assert.Empty(t, reopened.BlobsWithTag("nonexistent"))
}

func TestVerifyBlobIntegrity_DetectsTamper(t *testing.T) {
	dir := t.TempDir()
	keys := newFakeKeys()
	v, err := Open(dir, keys, nil)
	require.NoError(t, err)

	blobID, err := v.ImportBlob(1, []byte("payload"), "f", "text/plain")
	require.NoError(t, err)
	require.NoError(t, v.VerifyBlobIntegrity(blobID))

	path := v.blobPath(blobID)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0600))

	assert.Error(t, v.VerifyBlobIntegrity(blobID))
}

func TestSealOpenBlobEnvelope_Roundtrip(t *testing.T) {
	fileKey := make([]byte, 32)
	hmacKey := make([]byte, 32)
	for i := range fileKey {
		fileKey[i] = byte(i)
		hmacKey[i] = byte(i + 1)
	}

	envelope, err := sealBlobEnvelope(fileKey, hmacKey, "blob-1", []byte("secret bytes"))
	require.NoError(t, err)

	plaintext, err := openBlobEnvelope(fileKey, hmacKey, "blob-1", envelope)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret bytes"), plaintext)

	// Wrong blob id changes the AAD and must fail to open.
	_, err = openBlobEnvelope(fileKey, hmacKey, "blob-2", envelope)
	assert.Error(t, err)

	// A flipped trailer byte must fail HMAC verification before the
	// AEAD is ever touched.
	tampered := append([]byte(nil), envelope...)
	tampered[len(tampered)-1] ^= 0xFF
	_, err = openBlobEnvelope(fileKey, hmacKey, "blob-1", tampered)
	assert.Error(t, err)
}
