// Package trailer implements the binary payload codec (C1): a launcher
// binary carries its game configuration as a JSON blob appended before a
// fixed, integrity-checked trailer.
package trailer

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
)

// Magic identifies an embedded configuration trailer.
var Magic = []byte("GOCFGv1")

const (
	jsonLenBytes = 8
	sha256Bytes  = 32
	trailerBytes = 7 + jsonLenBytes + sha256Bytes // len(Magic) == 7
)

var (
	ErrTrailerNotFound  = errors.New("trailer: payload trailer not found")
	ErrTrailerTruncated = errors.New("trailer: payload trailer is truncated")
	ErrInvalidLength    = errors.New("trailer: payload length is invalid")
	ErrInvalidChecksum  = errors.New("trailer: payload integrity check failed")
)

// Append returns base with configJSON and the trailer appended. The result
// satisfies Extract(Append(base, json)) == json for any base, json.
func Append(base, configJSON []byte) []byte {
	out := make([]byte, 0, len(base)+len(configJSON)+trailerBytes)
	out = append(out, base...)
	out = append(out, configJSON...)
	out = append(out, Magic...)

	var lenBuf [jsonLenBytes]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(configJSON)))
	out = append(out, lenBuf[:]...)

	sum := sha256.Sum256(configJSON)
	out = append(out, sum[:]...)

	return out
}

// Extract reads the trailer from the tail of binaryBytes and returns the
// JSON body it describes, or one of the sentinel errors above.
func Extract(binaryBytes []byte) ([]byte, error) {
	if len(binaryBytes) < trailerBytes {
		return nil, ErrTrailerTruncated
	}

	trailerStart := len(binaryBytes) - trailerBytes
	magicEnd := trailerStart + len(Magic)

	if !bytes.Equal(binaryBytes[trailerStart:magicEnd], Magic) {
		return nil, ErrTrailerNotFound
	}

	lenStart := magicEnd
	lenEnd := lenStart + jsonLenBytes
	configLen := binary.LittleEndian.Uint64(binaryBytes[lenStart:lenEnd])

	if configLen > uint64(trailerStart) {
		return nil, ErrInvalidLength
	}

	jsonStart := trailerStart - int(configLen)
	jsonEnd := trailerStart
	jsonBody := binaryBytes[jsonStart:jsonEnd]

	checksumStart := lenEnd
	checksumEnd := checksumStart + sha256Bytes
	expected := binaryBytes[checksumStart:checksumEnd]

	actual := sha256.Sum256(jsonBody)
	if !bytes.Equal(actual[:], expected) {
		return nil, ErrInvalidChecksum
	}

	out := make([]byte, len(jsonBody))
	copy(out, jsonBody)
	return out, nil
}
