package postgres

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

// EncodeVector packs a vector as little-endian float32 values
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

// DecodeVector unpacks a stored vector. A blob whose length is not a
// multiple of four, or whose size differs from dims when dims > 0, is
// corrupt and reported as domain.ErrConfiguration.
func DecodeVector(buf []byte, dims int) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("%w: embedding blob of %d bytes is not float32-packed", domain.ErrConfiguration, len(buf))
	}
	n := len(buf) / 4
	if dims > 0 && n != dims {
		return nil, fmt.Errorf("%w: stored embedding has %d dimensions, expected %d", domain.ErrConfiguration, n, dims)
	}

	v := make([]float32, n)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v, nil
}
