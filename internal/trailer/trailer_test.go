package trailer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendExtractRoundTrip(t *testing.T) {
	base := []byte("ELF-MOCK")
	json := []byte(`{"game_name":"AoE3"}`)

	injected := Append(base, json)
	extracted, err := Extract(injected)
	require.NoError(t, err)
	require.Equal(t, json, extracted)
}

func TestExtractFailsWithoutTrailer(t *testing.T) {
	_, err := Extract([]byte("binary-without-trailer"))
	require.Error(t, err)
}

func TestExtractFailsOnTruncated(t *testing.T) {
	_, err := Extract([]byte("short"))
	require.ErrorIs(t, err, ErrTrailerTruncated)
}

func TestExtractFailsOnCorruptedChecksum(t *testing.T) {
	injected := Append([]byte("ELF"), []byte(`{"foo":"bar"}`))
	idx := len(injected) - trailerBytes - 1
	injected[idx] ^= 0x01

	_, err := Extract(injected)
	require.ErrorIs(t, err, ErrInvalidChecksum)
}

func TestExtractFailsOnInvalidLength(t *testing.T) {
	injected := Append([]byte("ELF"), []byte(`{"a":1}`))
	// Corrupt the length field (8 bytes right after the magic) to a huge value.
	lenStart := len(injected) - trailerBytes + len(Magic)
	for i := 0; i < jsonLenBytes; i++ {
		injected[lenStart+i] = 0xFF
	}

	_, err := Extract(injected)
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestExtractOnExactlyTrailerSizedBinary(t *testing.T) {
	empty := Append(nil, nil)
	require.Len(t, empty, trailerBytes)

	extracted, err := Extract(empty)
	require.NoError(t, err)
	require.Empty(t, extracted)
}
