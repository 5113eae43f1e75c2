package bundle

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/pierrec/lz4/v4"
)

// Method is the compression applied to a stored file.
type Method uint8

const (
	MethodNone Method = iota
	MethodZlib
	MethodLZ4
	MethodZstd
)

var methodNames = [...]string{"none", "zlib", "lz4", "zstd"}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

// ParseMethod parses a method name such as "lz4". The empty string is none.
func ParseMethod(name string) (Method, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return MethodNone, nil
	}
	for i, n := range methodNames {
		if n == name {
			return Method(i), nil
		}
	}
	return MethodNone, fmt.Errorf("unknown compression method %q", name)
}

// compress returns the stored bytes and the method actually used. Data that
// does not shrink is stored uncompressed.
func compress(m Method, data []byte) ([]byte, Method, error) {
	var out []byte
	switch m {
	case MethodNone:
		return data, MethodNone, nil

	case MethodZlib:
		var err error
		if out, err = zlibCompress(data); err != nil {
			return nil, m, err
		}

	case MethodLZ4:
		out = make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, out, nil)
		if err != nil {
			return nil, m, err
		}
		// n == 0 means incompressible
		if n == 0 {
			return data, MethodNone, nil
		}
		out = out[:n]

	case MethodZstd:
		var err error
		if out, err = zstd.Compress(nil, data); err != nil {
			return nil, m, err
		}

	default:
		return nil, m, fmt.Errorf("unknown compression method %d", uint8(m))
	}

	if len(out) >= len(data) {
		return data, MethodNone, nil
	}
	return out, m, nil
}

// lz4MaxRatio bounds the expansion of one LZ4 block.
const lz4MaxRatio = 255

func decompress(m Method, data []byte, size int) ([]byte, error) {
	switch m {
	case MethodNone:
		if len(data) != size {
			return nil, fmt.Errorf("%w: stored %d bytes, expected %d", ErrCorrupt, len(data), size)
		}
		return data, nil

	case MethodZlib:
		reader, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer reader.Close()

		out, err := io.ReadAll(io.LimitReader(reader, int64(size)+1))
		if err != nil {
			return nil, err
		}
		if len(out) != size {
			return nil, fmt.Errorf("%w: zlib produced %d bytes, expected %d", ErrCorrupt, len(out), size)
		}
		return out, nil

	case MethodLZ4:
		if size > len(data)*lz4MaxRatio+lz4MaxRatio {
			return nil, fmt.Errorf("%w: lz4 size %d impossible for %d input bytes", ErrCorrupt, size, len(data))
		}
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, err
		}
		if n != size {
			return nil, fmt.Errorf("%w: lz4 produced %d bytes, expected %d", ErrCorrupt, n, size)
		}
		return out, nil

	case MethodZstd:
		out, err := zstd.Decompress(nil, data)
		if err != nil {
			return nil, err
		}
		if len(out) != size {
			return nil, fmt.Errorf("%w: zstd produced %d bytes, expected %d", ErrCorrupt, len(out), size)
		}
		return out, nil
	}

	return nil, fmt.Errorf("unknown compression method %d", uint8(m))
}
