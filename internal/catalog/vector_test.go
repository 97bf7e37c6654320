package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorRoundTrip(t *testing.T) {
	original := []float32{0.1, -2.5, 3.14159, 0, 1e-7}
	decoded := DecodeVector(EncodeVector(original))
	assert.Equal(t, original, decoded)
}

func TestEncodeVectorLayout(t *testing.T) {
	// 1.0 is 0x3f800000, stored little-endian
	blob := EncodeVector([]float32{1.0})
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, blob)
}

func TestDecodeVectorEmpty(t *testing.T) {
	assert.Empty(t, DecodeVector(nil))
	assert.Empty(t, EncodeVector(nil))
}
