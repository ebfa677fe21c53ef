package hashfs

import (
	"path/filepath"
	"testing"
)

func writeArchive(t *testing.T, path string, files map[string]string) {
	t.Helper()
	w := NewWriterV1()
	for archivePath, content := range files {
		if err := w.AddBytes([]byte(content), archivePath); err != nil {
			t.Fatalf("AddBytes(%q): %v", archivePath, err)
		}
	}
	if err := w.SaveToPath(path); err != nil {
		t.Fatalf("SaveToPath(%q): %v", path, err)
	}
}

func TestChainShadowsLowerPriorityArchive(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.scs")
	modPath := filepath.Join(dir, "mod.scs")

	writeArchive(t, basePath, map[string]string{
		"/unit/vehicle/truck.sii":     "base version",
		"/unit/vehicle/only_base.sii": "only in base",
	})
	writeArchive(t, modPath, map[string]string{
		"/unit/vehicle/truck.sii": "mod override",
	})

	chain, err := OpenChain([]string{basePath, modPath})
	if err != nil {
		t.Fatalf("OpenChain: %v", err)
	}
	defer chain.Close()

	data, err := chain.Extract("/unit/vehicle/truck.sii")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(data) != "mod override" {
		t.Fatalf("Extract = %q, want mod override to win", data)
	}

	data, err = chain.Extract("/unit/vehicle/only_base.sii")
	if err != nil {
		t.Fatalf("Extract base-only file: %v", err)
	}
	if string(data) != "only in base" {
		t.Fatalf("Extract = %q, want base fallback", data)
	}
}

func TestChainEntryExistsAndNotFound(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.scs")
	writeArchive(t, basePath, map[string]string{"/a.txt": "hi"})

	chain, err := OpenChain([]string{basePath})
	if err != nil {
		t.Fatalf("OpenChain: %v", err)
	}
	defer chain.Close()

	if !chain.EntryExists("/a.txt") {
		t.Fatal("expected /a.txt to exist")
	}
	if chain.EntryExists("/missing.txt") {
		t.Fatal("expected /missing.txt to not exist")
	}
	if _, err := chain.Extract("/missing.txt"); err == nil {
		t.Fatal("expected error extracting missing path")
	}
}

func TestChainDirectoryListingUnion(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.scs")
	modPath := filepath.Join(dir, "mod.scs")

	writeArchive(t, basePath, map[string]string{
		"/unit/a.sii": "a",
		"/unit/b.sii": "b",
	})
	writeArchive(t, modPath, map[string]string{
		"/unit/c.sii": "c",
	})

	chain, err := OpenChain([]string{basePath, modPath})
	if err != nil {
		t.Fatalf("OpenChain: %v", err)
	}
	defer chain.Close()

	names, err := chain.GetDirectoryListing("/unit")
	if err != nil {
		t.Fatalf("GetDirectoryListing: %v", err)
	}

	want := map[string]bool{"a.sii": true, "b.sii": true, "c.sii": true}
	if len(names) != len(want) {
		t.Fatalf("GetDirectoryListing = %v, want 3 entries", names)
	}
	for _, n := range names {
		if !want[n] {
			t.Fatalf("unexpected child %q", n)
		}
	}
}

func TestChainOpenFailureReturnsError(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.scs")
	writeArchive(t, basePath, map[string]string{"/a.txt": "hi"})

	_, err := OpenChain([]string{basePath, filepath.Join(dir, "nonexistent.scs")})
	if err == nil {
		t.Fatal("expected error opening chain with a missing archive")
	}
}
