package bundle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Writer builds an archive. Files are written as they are added and the
// table is appended on Close.
type Writer struct {
	w       io.WriteSeeker
	closer  io.Closer
	method  Method
	offset  uint64
	entries []Entry
	names   map[string]bool
	closed  bool
}

// Create creates an archive file at path, compressing entries with m.
func Create(path string, m Method) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	w, err := NewWriter(file, m)
	if err != nil {
		file.Close()
		return nil, err
	}
	w.closer = file
	return w, nil
}

// NewWriter starts an archive on w. Close writes the header and table but
// does not close w.
func NewWriter(w io.WriteSeeker, m Method) (*Writer, error) {
	if m > MethodZstd {
		return nil, fmt.Errorf("unknown compression method %d", uint8(m))
	}
	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	// Placeholder header, rewritten on Close.
	if _, err := w.Write(make([]byte, headerSize)); err != nil {
		return nil, err
	}
	return &Writer{w: w, method: m, offset: headerSize, names: make(map[string]bool)}, nil
}

// Add stores one file.
func (w *Writer) Add(name string, data []byte) error {
	if w.closed {
		return errors.New("bundle writer is closed")
	}
	name = normalizePath(name)
	if !validName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if w.names[name] {
		return fmt.Errorf("duplicate file %s", name)
	}

	stored, used, err := compress(w.method, data)
	if err != nil {
		return fmt.Errorf("compressing %s: %w", name, err)
	}
	if _, err := w.w.Write(stored); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	w.entries = append(w.entries, Entry{
		Name:             name,
		CompressedSize:   uint32(len(stored)),
		UncompressedSize: uint32(len(data)),
		Method:           used,
		Offset:           w.offset,
	})
	w.names[name] = true
	w.offset += uint64(len(stored))
	return nil
}

// Close writes the file table and header.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.finish()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (w *Writer) finish() error {
	var table []byte
	for _, e := range w.entries {
		table = append(table, e.Name...)
		table = append(table, 0)
		table = binary.LittleEndian.AppendUint32(table, e.CompressedSize)
		table = binary.LittleEndian.AppendUint32(table, e.UncompressedSize)
		table = append(table, byte(e.Method))
		table = binary.LittleEndian.AppendUint64(table, e.Offset)
	}

	compressed, err := zlibCompress(table)
	if err != nil {
		return fmt.Errorf("compressing file table: %w", err)
	}
	if err := binary.Write(w.w, binary.LittleEndian, uint32(len(compressed))); err != nil {
		return err
	}
	if err := binary.Write(w.w, binary.LittleEndian, uint32(len(table))); err != nil {
		return err
	}
	if _, err := w.w.Write(compressed); err != nil {
		return err
	}

	header := Header{
		Version:     version,
		FileCount:   uint32(len(w.entries)),
		TableOffset: w.offset,
	}
	copy(header.Magic[:], magic)
	if _, err := w.w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return binary.Write(w.w, binary.LittleEndian, &header)
}
