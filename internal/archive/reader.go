// Package archive reads and writes the tar.xz archives used for document
// backups.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// Reader is a tar.Reader over an xz-compressed file.
type Reader struct {
	*tar.Reader
	file *os.File
}

// NewReader opens the .tar.xz archive at path.
func NewReader(path string) (*Reader, error) {
	if !strings.HasSuffix(path, ".tar.xz") {
		return nil, fmt.Errorf("unsupported archive format: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	xzr, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xz reader: %w", err)
	}
	return &Reader{Reader: tar.NewReader(xzr), file: f}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// IterateArchive opens an archive and iterates through its entries.
func IterateArchive(path string, visitor Visitor) error {
	r, err := NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Iterate(visitor)
}

// ReadEntries reads every regular file of the archive into memory, keyed by
// entry name.
func ReadEntries(path string) (map[string][]byte, error) {
	entries := make(map[string][]byte)
	err := IterateArchive(path, func(header *tar.Header, r io.Reader) (bool, error) {
		if header.Typeflag != tar.TypeReg {
			return false, nil
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return true, fmt.Errorf("read %s: %w", header.Name, err)
		}
		entries[header.Name] = data
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
