package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		key   []byte
		value []byte
	}{
		{"simple", []byte("user:123"), []byte("jane@example.com")},
		{"empty value", []byte("k"), nil},
		{"binary key and value", []byte{0x00, 0x01}, []byte{0xFF, 0x00, 0x00}},
		{"large value", []byte("big"), make([]byte, 10*1024)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := encodeRecord(tc.key, tc.value, 0)
			require.NoError(t, err)

			rec, rest, err := decodeRecord(data)
			require.NoError(t, err)
			assert.Empty(t, rest)
			assert.Equal(t, tc.key, rec.Key)
			assert.Equal(t, len(tc.value), len(rec.Value))
			if len(tc.value) > 0 {
				assert.Equal(t, tc.value, rec.Value)
			}
			assert.False(t, rec.Tombstone())
			assert.NotZero(t, rec.Stamp)
			assert.Equal(t, len(data), rec.Size())
		})
	}
}

func TestRecordTombstoneFlag(t *testing.T) {
	data, err := encodeRecord([]byte("gone"), nil, flagTombstone)
	require.NoError(t, err)

	rec, _, err := decodeRecord(data)
	require.NoError(t, err)
	assert.True(t, rec.Tombstone())
}

func TestRecordCorruptionDetected(t *testing.T) {
	data, err := encodeRecord([]byte("key"), []byte("value"), 0)
	require.NoError(t, err)

	// Any flipped byte must be caught by the record checksum.
	for i := range data {
		corrupted := append([]byte{}, data...)
		corrupted[i] ^= 0x01
		_, _, err := decodeRecord(corrupted)
		require.ErrorIs(t, err, ErrCorruption, "flipped byte %d went undetected", i)
	}
}

func TestRecordTruncationDetected(t *testing.T) {
	data, err := encodeRecord([]byte("key"), []byte("a longer value"), 0)
	require.NoError(t, err)

	_, _, err = decodeRecord(data[:len(data)-3])
	require.ErrorIs(t, err, ErrCorruption)
}

func TestPeekRecordSize(t *testing.T) {
	key, value := []byte("some key"), []byte("some value")
	data, err := encodeRecord(key, value, 0)
	require.NoError(t, err)

	size, err := peekRecordSize(data[:recordHeaderSize])
	require.NoError(t, err)
	assert.Equal(t, len(data), size)
	assert.Equal(t, recordHeaderSize+len(key)+len(value), size)
}
