// Package bundle reads and writes MESHPACK archives: a single file holding
// the index, vertex and format files of one or more exported meshes.
package bundle

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	magic      = "MESHPACK"
	version    = 1
	headerSize = 24
	entryFixed = 17 // bytes after the name terminator
)

// Archive errors.
var (
	ErrInvalidMagic       = errors.New("invalid MESHPACK magic")
	ErrUnsupportedVersion = errors.New("unsupported MESHPACK version")
	ErrNotFound           = errors.New("file not found")
	ErrCorrupt            = errors.New("corrupt archive")
	ErrInvalidName        = errors.New("invalid file name")
)

// Header is the fixed archive header at offset 0.
type Header struct {
	Magic       [8]byte
	Version     uint32
	FileCount   uint32
	TableOffset uint64
}

// Entry describes one stored file.
type Entry struct {
	Name             string
	CompressedSize   uint32
	UncompressedSize uint32
	Method           Method
	Offset           uint64
}

// Archive is an opened MESHPACK archive.
type Archive struct {
	r       io.ReadSeeker
	closer  io.Closer
	header  Header
	size    int64
	entries map[string]*Entry
	order   []string
}

// Open opens an archive file for reading.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	a, err := OpenReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	a.closer = file
	return a, nil
}

// OpenReader reads an archive from r. The caller keeps ownership of r.
func OpenReader(r io.ReadSeeker) (*Archive, error) {
	a := &Archive{
		r:       r,
		entries: make(map[string]*Entry),
	}

	if err := a.readHeader(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := a.readFileTable(); err != nil {
		return nil, fmt.Errorf("reading file table: %w", err)
	}
	return a, nil
}

// Close closes the underlying file when the archive was opened by path.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

func (a *Archive) readHeader() error {
	size, err := a.r.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	a.size = size
	if _, err := a.r.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Read(a.r, binary.LittleEndian, &a.header); err != nil {
		return err
	}
	if string(a.header.Magic[:]) != magic {
		return ErrInvalidMagic
	}
	if a.header.Version != version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, a.header.Version)
	}
	if a.header.TableOffset < headerSize || a.header.TableOffset > uint64(a.size)-8 {
		return fmt.Errorf("%w: table offset %d outside file of %d bytes", ErrCorrupt, a.header.TableOffset, a.size)
	}
	return nil
}

func (a *Archive) readFileTable() error {
	if _, err := a.r.Seek(int64(a.header.TableOffset), io.SeekStart); err != nil {
		return err
	}

	var compressedSize, uncompressedSize uint32
	if err := binary.Read(a.r, binary.LittleEndian, &compressedSize); err != nil {
		return err
	}
	if err := binary.Read(a.r, binary.LittleEndian, &uncompressedSize); err != nil {
		return err
	}

	if uint64(compressedSize) > uint64(a.size)-a.header.TableOffset-8 {
		return fmt.Errorf("%w: file table of %d bytes exceeds file", ErrCorrupt, compressedSize)
	}
	compressed := make([]byte, compressedSize)
	if _, err := io.ReadFull(a.r, compressed); err != nil {
		return err
	}
	table, err := decompress(MethodZlib, compressed, int(uncompressedSize))
	if err != nil {
		return err
	}

	offset := 0
	for i := uint32(0); i < a.header.FileCount; i++ {
		nameEnd := bytes.IndexByte(table[offset:], 0)
		if nameEnd < 0 {
			return fmt.Errorf("%w: entry %d has no name terminator", ErrCorrupt, i)
		}
		name := string(table[offset : offset+nameEnd])
		offset += nameEnd + 1

		if offset+entryFixed > len(table) {
			return fmt.Errorf("%w: entry %d truncated", ErrCorrupt, i)
		}

		entry := &Entry{
			Name:             normalizePath(name),
			CompressedSize:   binary.LittleEndian.Uint32(table[offset:]),
			UncompressedSize: binary.LittleEndian.Uint32(table[offset+4:]),
			Method:           Method(table[offset+8]),
			Offset:           binary.LittleEndian.Uint64(table[offset+9:]),
		}
		offset += entryFixed

		if !validName(entry.Name) {
			return fmt.Errorf("%w: entry %d has invalid name %q", ErrCorrupt, i, name)
		}
		if entry.Method > MethodZstd {
			return fmt.Errorf("%w: %s has unknown method %d", ErrCorrupt, entry.Name, uint8(entry.Method))
		}
		// Entry data lies between the header and the file table.
		if entry.Offset < headerSize || entry.Offset+uint64(entry.CompressedSize) > a.header.TableOffset {
			return fmt.Errorf("%w: %s data outside archive", ErrCorrupt, entry.Name)
		}

		if _, dup := a.entries[entry.Name]; !dup {
			a.order = append(a.order, entry.Name)
		}
		a.entries[entry.Name] = entry
	}

	return nil
}

// List returns all file paths in the order they were added.
func (a *Archive) List() []string {
	return append([]string(nil), a.order...)
}

// Entry returns the table entry of a file.
func (a *Archive) Entry(path string) (Entry, bool) {
	e, ok := a.entries[normalizePath(path)]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Contains checks if a file exists.
func (a *Archive) Contains(path string) bool {
	_, ok := a.entries[normalizePath(path)]
	return ok
}

// Read reads and decompresses a file from the archive.
func (a *Archive) Read(path string) ([]byte, error) {
	entry, ok := a.entries[normalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if _, err := a.r.Seek(int64(entry.Offset), io.SeekStart); err != nil {
		return nil, err
	}
	compressed := make([]byte, entry.CompressedSize)
	if _, err := io.ReadFull(a.r, compressed); err != nil {
		return nil, fmt.Errorf("reading %s: %w", entry.Name, err)
	}

	data, err := decompress(entry.Method, compressed, int(entry.UncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", entry.Name, err)
	}
	return data, nil
}

func normalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.TrimPrefix(path, "/")
}

// validName reports whether a normalized name stays inside the directory it
// is extracted to.
func validName(name string) bool {
	return name != "" && filepath.IsLocal(filepath.FromSlash(name))
}

// zlibCompress is shared by entries and the file table.
func zlibCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
