package aead

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key32(b byte) []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = b
	}
	return k
}

func TestCodec_SealOpenRoundTrip(t *testing.T) {
	for _, kind := range []Cipher{CipherAES256GCM, CipherXChaCha20Poly1305} {
		t.Run(kind.String(), func(t *testing.T) {
			c, err := New(kind, key32(1))
			require.NoError(t, err)

			plaintext := []byte("rotate the keys before the epoch closes")
			sealed, err := c.Seal(plaintext, []byte("aad-context"))
			require.NoError(t, err)
			assert.NotEqual(t, plaintext, sealed)

			opened, err := c.Open(sealed, []byte("aad-context"))
			require.NoError(t, err)
			assert.Equal(t, plaintext, opened)
		})
	}
}

func TestCodec_WrongAADFails(t *testing.T) {
	c, err := New(CipherXChaCha20Poly1305, key32(2))
	require.NoError(t, err)

	sealed, err := c.Seal([]byte("payload"), []byte("aad-1"))
	require.NoError(t, err)

	_, err = c.Open(sealed, []byte("aad-2"))
	assert.Error(t, err)
}

func TestCodec_TamperedCiphertextFails(t *testing.T) {
	c, err := New(CipherAES256GCM, key32(3))
	require.NoError(t, err)

	sealed, err := c.Seal([]byte("payload"), nil)
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xFF

	_, err = c.Open(sealed, nil)
	assert.Error(t, err)
}

func TestCodec_NonceUniquePerSeal(t *testing.T) {
	c, err := New(CipherXChaCha20Poly1305, key32(4))
	require.NoError(t, err)

	a, err := c.Seal([]byte("same plaintext"), nil)
	require.NoError(t, err)
	b, err := c.Seal([]byte("same plaintext"), nil)
	require.NoError(t, err)

	assert.False(t, bytes.Equal(a[:c.NonceSize()], b[:c.NonceSize()]))
}

func TestNew_RejectsBadKeyLength(t *testing.T) {
	_, err := New(CipherAES256GCM, make([]byte, 16))
	assert.Error(t, err)
}

func TestOpen_RejectsShortInput(t *testing.T) {
	c, err := New(CipherXChaCha20Poly1305, key32(5))
	require.NoError(t, err)

	_, err = c.Open([]byte{1, 2, 3}, nil)
	assert.Error(t, err)
}

func TestParseCipher(t *testing.T) {
	kind, err := ParseCipher("aes256gcm")
	require.NoError(t, err)
	assert.Equal(t, CipherAES256GCM, kind)

	kind, err = ParseCipher("xchacha20poly1305")
	require.NoError(t, err)
	assert.Equal(t, CipherXChaCha20Poly1305, kind)

	_, err = ParseCipher("bogus")
	assert.Error(t, err)
}
