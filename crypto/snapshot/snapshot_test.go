package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() KDFParams {
	return KDFParams{Algorithm: "argon2id", TimeCost: 3, MemoryKiB: 65536, Parallelism: 2}
}

func TestSignVerify_Roundtrip(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 5
	}
	s := New(1, testParams(), map[string]uint64{"ALFA:PHOTOS:v1": 3}, "")
	signed := Sign(s, seed)

	assert.True(t, Verify(signed, seed))
}

func TestVerify_FailsOnMutationOrWrongKey(t *testing.T) {
	seed := make([]byte, 32)
	otherSeed := make([]byte, 32)
	for i := range otherSeed {
		otherSeed[i] = 9
	}

	s := New(1, testParams(), map[string]uint64{"ALFA:INDEX:v1": 1}, "")
	signed := Sign(s, seed)

	mutated := signed
	mutated.Epoch = 2
	assert.False(t, Verify(mutated, seed))

	assert.False(t, Verify(signed, otherSeed))
}

func TestCanonicalHash_SortsKeyUsages(t *testing.T) {
	s1 := Snapshot{
		Version:   "1",
		Epoch:     1,
		Timestamp: time.Unix(0, 0).UTC(),
		KDFParams: testParams(),
		KeyUsages: map[string]uint64{"b": 1, "a": 2},
	}
	s2 := Snapshot{
		Version:   "1",
		Epoch:     1,
		Timestamp: time.Unix(0, 0).UTC(),
		KDFParams: testParams(),
		KeyUsages: map[string]uint64{"a": 2, "b": 1},
	}

	assert.Equal(t, s1.CanonicalHashHex(), s2.CanonicalHashHex())
}

func TestVerifyChain_IntactAcrossRotations(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 11
	}

	s1 := Sign(New(1, testParams(), map[string]uint64{"ALFA:PHOTOS:v1": 1}, ""), seed)
	s2 := Sign(New(2, testParams(), map[string]uint64{"ALFA:PHOTOS:v1": 2}, s1.CanonicalHashHex()), seed)
	s3 := Sign(New(3, testParams(), map[string]uint64{"ALFA:PHOTOS:v1": 3}, s2.CanonicalHashHex()), seed)

	report := VerifyChain([]Snapshot{s1, s2, s3}, seed)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Valid)
	assert.True(t, report.ChainIntact)
	assert.Empty(t, report.Invalid)
}

func TestVerifyChain_BrokenPrevHashStillSignsValid(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 11
	}

	s1 := Sign(New(1, testParams(), nil, ""), seed)
	s2 := Sign(New(2, testParams(), nil, s1.CanonicalHashHex()), seed)
	s3 := Sign(New(3, testParams(), nil, s2.CanonicalHashHex()), seed)
	s3.PrevHash = "deadbeef"

	report := VerifyChain([]Snapshot{s1, s2, s3}, seed)
	assert.Equal(t, 3, report.Valid)
	assert.False(t, report.ChainIntact)
}

func TestStore_AppendLoadPrune(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	seed := make([]byte, 32)
	var prev string
	for epoch := uint64(1); epoch <= 5; epoch++ {
		s := Sign(New(epoch, testParams(), nil, prev), seed)
		require.NoError(t, store.Append(s, 3))
		prev = s.CanonicalHashHex()
		time.Sleep(time.Millisecond)
	}

	all, err := store.Load()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint64(3), all[0].Epoch)
	assert.Equal(t, uint64(5), all[2].Epoch)

	latest, ok, err := store.Latest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(5), latest.Epoch)
}
