package resources

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestCatalogCountsAndSizesFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "map.zip"), []byte("12345"))
	mustWrite(t, filepath.Join(dir, "skin.zip"), []byte("1234567890"))

	c := New(dir, zap.NewNop())

	if c.Count() != 2 {
		t.Fatalf("expected 2 files, got %d", c.Count())
	}
	if c.MaxSize() != 15 {
		t.Fatalf("expected total size 15, got %d", c.MaxSize())
	}
}

func TestCatalogTrimmedListStripsExtensions(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "map.zip"), []byte("x"))

	c := New(dir, zap.NewNop())
	list := c.TrimmedList()

	if len(list) != 1 || list[0] != "map" {
		t.Fatalf("expected [\"map\"], got %v", list)
	}
}

func TestCatalogRescanPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, zap.NewNop())
	if c.Count() != 0 {
		t.Fatalf("expected empty catalog initially, got %d", c.Count())
	}

	mustWrite(t, filepath.Join(dir, "new.zip"), []byte("x"))
	c.Rescan()

	if c.Count() != 1 {
		t.Fatalf("expected rescan to pick up the new file, got %d", c.Count())
	}
}

func TestCatalogMissingDirectoryIsEmptyNotError(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "does-not-exist"), zap.NewNop())
	if c.Count() != 0 {
		t.Fatalf("expected 0 for a missing directory, got %d", c.Count())
	}
}

func mustWrite(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write fixture file: %s", err)
	}
}
