package storage

import (
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndOpen(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	content := "laudo pericial"
	path, size, err := store.Save(strings.NewReader(content), ".pdf")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d", len(content), size)
	}
	if filepath.Ext(path) != ".pdf" {
		t.Errorf("Expected a .pdf path, got %s", path)
	}

	src, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != content {
		t.Errorf("Round trip mismatch: %q", data)
	}
}

func TestSaveGeneratesUniqueNames(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	a, _, err := store.Save(strings.NewReader("a"), ".txt")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	b, _, err := store.Save(strings.NewReader("b"), ".txt")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if a == b {
		t.Errorf("Expected distinct paths, got %s twice", a)
	}
}

func TestSaveNormalizesExtension(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	path, _, err := store.Save(strings.NewReader("x"), "PDF")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Ext(path) != ".pdf" {
		t.Errorf("Expected lowercased dotted extension, got %s", path)
	}
}

func TestRemoveToleratesMissingFile(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	if err := store.Remove(filepath.Join(store.BaseDir, "gone.pdf")); err != nil {
		t.Errorf("Expected missing file to be tolerated, got %v", err)
	}
}

func TestRemoveDeletesStoredFile(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	path, _, err := store.Save(strings.NewReader("x"), ".txt")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := store.Open(path); err == nil {
		t.Error("Expected the file to be gone")
	}
}
