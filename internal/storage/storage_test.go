package storage

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDisk_SaveAndOpen(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("new disk: %v", err)
	}

	content := []byte("fake audio bytes")
	saved, err := d.Save("rec1.wav", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.SizeBytes != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), saved.SizeBytes)
	}
	if len(saved.Checksum) != 64 {
		t.Fatalf("expected 32-byte hex checksum, got %q", saved.Checksum)
	}

	// Same content, same checksum.
	again, err := d.Save("rec2.wav", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if again.Checksum != saved.Checksum {
		t.Fatalf("expected deterministic checksum")
	}

	f, err := d.Open("rec1.wav")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("content mismatch")
	}
}

func TestDisk_OpenMissing(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("new disk: %v", err)
	}
	if _, err := d.Open("absent.wav"); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestDisk_RejectsTraversal(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("new disk: %v", err)
	}
	for _, name := range []string{"", "../evil.wav", "a/b.wav", ".hidden"} {
		if _, err := d.Save(name, strings.NewReader("x")); err == nil {
			t.Fatalf("expected rejection for %q", name)
		}
	}
}
