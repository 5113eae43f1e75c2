package dxgi

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
	"golang.org/x/exp/constraints"
)

// Encode converts one element's component values to bytes.
func Encode(f Format, values []float64) ([]byte, error) {
	return AppendEncode(make([]byte, 0, f.Size()), f, values)
}

// AppendEncode appends the encoding of values to dst.
// Values outside the representable range are clamped, never rejected.
func AppendEncode(dst []byte, f Format, values []float64) ([]byte, error) {
	if !f.Valid() {
		return dst, fmt.Errorf("%w: %d", ErrUnsupportedFormat, uint8(f))
	}
	info := f.info()
	if len(values) != info.components {
		return dst, fmt.Errorf("%w: %s wants %d components, got %d",
			ErrDimensionMismatch, info.name, info.components, len(values))
	}
	for _, v := range values {
		dst = appendComponent(dst, info, v)
	}
	return dst, nil
}

// Decode converts an encoded element back to component values.
func Decode(f Format, data []byte) ([]float64, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, uint8(f))
	}
	info := f.info()
	if len(data) != info.components*info.size {
		return nil, fmt.Errorf("%w: %s wants %d bytes, got %d",
			ErrDimensionMismatch, info.name, info.components*info.size, len(data))
	}
	out := make([]float64, info.components)
	for i := range out {
		out[i] = decodeComponent(info, data[i*info.size:(i+1)*info.size])
	}
	return out, nil
}

func appendComponent(dst []byte, info formatInfo, v float64) []byte {
	bits := uint(info.size * 8)

	switch info.kind {
	case KindUnorm:
		scale := float64(uint64(1)<<bits - 1)
		q := math.RoundToEven(clamp(zeroNaN(v), 0, 1) * scale)
		return appendUint(dst, info.size, uint64(q))

	case KindSnorm:
		scale := float64(uint64(1)<<(bits-1) - 1)
		q := math.RoundToEven(clamp(zeroNaN(v), -1, 1) * scale)
		return appendUint(dst, info.size, uint64(int64(q)))

	case KindFloat:
		if info.size == 2 {
			return binary.LittleEndian.AppendUint16(dst, float16.Fromfloat32(float32(v)).Bits())
		}
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(v)))

	case KindUint:
		hi := float64(uint64(1)<<bits - 1)
		q := math.Trunc(clamp(zeroNaN(v), 0, hi))
		return appendUint(dst, info.size, uint64(q))

	case KindSint:
		hi := float64(uint64(1)<<(bits-1) - 1)
		q := math.Trunc(clamp(zeroNaN(v), -hi-1, hi))
		return appendUint(dst, info.size, uint64(int64(q)))
	}
	return dst
}

func decodeComponent(info formatInfo, b []byte) float64 {
	bits := uint(info.size * 8)
	u := readUint(b)

	switch info.kind {
	case KindUnorm:
		return float64(u) / float64(uint64(1)<<bits-1)
	case KindSnorm:
		// -2^(N-1) and -2^(N-1)+1 both decode to -1.
		return max(float64(signExtend(u, bits))/float64(uint64(1)<<(bits-1)-1), -1)
	case KindFloat:
		if info.size == 2 {
			return float64(float16.Frombits(uint16(u)).Float32())
		}
		return float64(math.Float32frombits(uint32(u)))
	case KindUint:
		return float64(u)
	case KindSint:
		return float64(signExtend(u, bits))
	}
	return 0
}

func appendUint(dst []byte, size int, u uint64) []byte {
	switch size {
	case 1:
		return append(dst, byte(u))
	case 2:
		return binary.LittleEndian.AppendUint16(dst, uint16(u))
	default:
		return binary.LittleEndian.AppendUint32(dst, uint32(u))
	}
}

func readUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	default:
		return uint64(binary.LittleEndian.Uint32(b))
	}
}

func signExtend(u uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(u<<shift) >> shift
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
