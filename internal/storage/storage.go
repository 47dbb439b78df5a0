package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"lukechampine.com/blake3"
)

var ErrFileNotFound = errors.New("file not found")

// Disk stores uploaded recordings as flat files under a single root
// directory. Filenames are assigned by the caller (one recording per call),
// so no collision handling is needed here.
type Disk struct {
	root string
}

func NewDisk(root string) (*Disk, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &Disk{root: root}, nil
}

// SavedFile describes a stored upload.
type SavedFile struct {
	Path      string
	Checksum  string // blake3 hex digest of the content
	SizeBytes int64
}

// Save streams r into the store under name, hashing the content as it is
// written.
func (d *Disk) Save(name string, r io.Reader) (SavedFile, error) {
	path, err := d.Path(name)
	if err != nil {
		return SavedFile{}, err
	}

	f, err := os.Create(path)
	if err != nil {
		return SavedFile{}, fmt.Errorf("creating %s: %w", name, err)
	}

	h := blake3.New(32, nil)
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return SavedFile{}, fmt.Errorf("writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return SavedFile{}, fmt.Errorf("closing %s: %w", name, err)
	}

	return SavedFile{
		Path:      path,
		Checksum:  hex.EncodeToString(h.Sum(nil)),
		SizeBytes: n,
	}, nil
}

// Path resolves a stored filename to an absolute path, rejecting names
// that would escape the storage root.
func (d *Disk) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid filename %q", name)
	}
	return filepath.Join(d.root, name), nil
}

// Open opens a stored file for reading.
func (d *Disk) Open(name string) (*os.File, error) {
	path, err := d.Path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrFileNotFound)
		}
		return nil, err
	}
	return f, nil
}
