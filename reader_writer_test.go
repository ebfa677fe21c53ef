package hashfs

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sk-zk/go-hashfs/internal/dds"
	"github.com/sk-zk/go-hashfs/internal/tobj"
)

func TestWriterReaderV1RoundTrip(t *testing.T) {
	w := NewWriterV1()
	w.Salt = 99
	w.ComputeChecksums = true

	files := map[string]string{
		"/unit/vehicle/truck/interior.pmg": "interior data",
		"/unit/vehicle/truck/exterior.pmg": "exterior data",
		"/manifest.sii":                    "manifest contents",
	}
	for path, content := range files {
		if err := w.AddBytes([]byte(content), path); err != nil {
			t.Fatalf("AddBytes(%q): %v", path, err)
		}
	}

	var buf bytes.Buffer
	if err := w.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "archive.scs")
	if err := writeTestFile(path, buf.Bytes()); err != nil {
		t.Fatalf("write archive to disk: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.Version() != VersionV1 {
		t.Fatalf("Version() = %v, want VersionV1", r.Version())
	}
	if r.Salt() != 99 {
		t.Fatalf("Salt() = %d, want 99", r.Salt())
	}

	for path, content := range files {
		got, err := r.Extract(path)
		if err != nil {
			t.Fatalf("Extract(%q): %v", path, err)
		}
		if string(got) != content {
			t.Fatalf("Extract(%q) = %q, want %q", path, got, content)
		}
	}

	if !r.DirectoryExists("/unit/vehicle/truck") {
		t.Fatal("expected synthesized directory to exist")
	}
	listing, err := r.GetDirectoryListing("/unit/vehicle/truck")
	if err != nil {
		t.Fatalf("GetDirectoryListing: %v", err)
	}
	if len(listing) != 2 {
		t.Fatalf("listing = %v, want 2 entries", listing)
	}

	if _, err := r.Extract("/does/not/exist"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.Extract("/unit/vehicle/truck"); !errors.Is(err, ErrIsDirectory) {
		t.Fatalf("expected ErrIsDirectory, got %v", err)
	}
}

func TestWriterReaderV1CompressesLargePayloads(t *testing.T) {
	w := NewWriterV1()
	big := bytes.Repeat([]byte("abcdefgh"), 1024)
	if err := w.AddBytes(big, "/big.dat"); err != nil {
		t.Fatalf("AddBytes: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "archive.scs")
	if err := w.SaveToPath(path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	e, err := r.GetEntry("/big.dat")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if !e.IsCompressed() {
		t.Fatal("expected a highly compressible 8KB payload to be compressed")
	}
	if e.CompressedSize() >= e.Size() {
		t.Fatalf("CompressedSize %d >= Size %d, expected real compression", e.CompressedSize(), e.Size())
	}

	got, err := r.Extract("/big.dat")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !bytes.Equal(got, big) {
		t.Fatal("decompressed payload does not match original")
	}
}

func TestWriterReaderV2RoundTripWithTexture(t *testing.T) {
	w := NewWriterV2()

	if err := w.AddBytes([]byte("sii content"), "/def/vehicle.sii"); err != nil {
		t.Fatalf("AddBytes: %v", err)
	}

	tobjDesc := &tobj.Descriptor{
		TexturePath: "/vehicle/truck/paint.dds",
		Type:        tobj.Map2D,
		MagFilter:   tobj.FilterLinear,
		MinFilter:   tobj.FilterLinear,
	}
	tobjData, err := tobj.Bytes(tobjDesc)
	if err != nil {
		t.Fatalf("tobj.Bytes: %v", err)
	}

	ddsHdr := &dds.Header{Width: 8, Height: 8, MipmapCount: 1, Format: dds.FormatBC1UNorm, ArraySize: 1}
	_, sliceSize := dds.SurfaceInfo(8, 8, dds.FormatBC1UNorm)
	ddsPayload := bytes.Repeat([]byte{0xAB}, int(sliceSize))
	var ddsBuf bytes.Buffer
	if err := dds.Write(&ddsBuf, ddsHdr, ddsPayload); err != nil {
		t.Fatalf("dds.Write: %v", err)
	}

	if err := w.AddBytes(tobjData, "/vehicle/truck/paint.tobj"); err != nil {
		t.Fatalf("AddBytes tobj: %v", err)
	}
	if err := w.AddBytes(ddsBuf.Bytes(), "/vehicle/truck/paint.dds"); err != nil {
		t.Fatalf("AddBytes dds: %v", err)
	}

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "archive.scs")
	if err := w.SaveToPath(archivePath); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	r, err := Open(archivePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.Version() != VersionV2 {
		t.Fatalf("Version() = %v, want VersionV2", r.Version())
	}

	got, err := r.Extract("/def/vehicle.sii")
	if err != nil {
		t.Fatalf("Extract sii: %v", err)
	}
	if string(got) != "sii content" {
		t.Fatalf("Extract sii = %q", got)
	}

	gotTobj, gotDDS, err := r.ExtractTexture("/vehicle/truck/paint.tobj")
	if err != nil {
		t.Fatalf("ExtractTexture: %v", err)
	}

	roundTripDesc, err := tobj.Parse(bytes.NewReader(gotTobj))
	if err != nil {
		t.Fatalf("tobj.Parse: %v", err)
	}
	if roundTripDesc.TexturePath != "/vehicle/truck/paint.dds" {
		t.Fatalf("TexturePath = %q, want sibling .dds", roundTripDesc.TexturePath)
	}

	roundTripHdr, err := dds.Parse(bytes.NewReader(gotDDS))
	if err != nil {
		t.Fatalf("dds.Parse: %v", err)
	}
	if roundTripHdr.Width != 8 || roundTripHdr.Height != 8 {
		t.Fatalf("round-tripped dims = %dx%d, want 8x8", roundTripHdr.Width, roundTripHdr.Height)
	}
}

// TestWriterDropsOrphanedDds covers spec.md §6's pairing rule the other
// direction: a .dds file with no sibling .tobj added through the ordinary
// API must never show up in the saved archive, paired or not.
func TestWriterDropsOrphanedDds(t *testing.T) {
	w := NewWriterV2()
	if err := w.AddBytes([]byte("sii content"), "/manifest.sii"); err != nil {
		t.Fatalf("AddBytes sii: %v", err)
	}
	if err := w.AddBytes([]byte{0xAB, 0xCD}, "/vehicle/truck/orphan.dds"); err != nil {
		t.Fatalf("AddBytes dds: %v", err)
	}

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "archive.scs")
	if err := w.SaveToPath(archivePath); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	r, err := Open(archivePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if !r.FileExists("/manifest.sii") {
		t.Fatal("expected /manifest.sii to exist")
	}
	if r.EntryExists("/vehicle/truck/orphan.dds") {
		t.Fatal("expected orphaned .dds to be dropped, not written to the archive")
	}
}

func TestWriterRejectsMutationAfterSave(t *testing.T) {
	w := NewWriterV1()
	var buf bytes.Buffer
	if err := w.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := w.AddBytes([]byte("too late"), "/a.txt"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestReaderRejectsOperationsAfterClose(t *testing.T) {
	w := NewWriterV1()
	if err := w.AddBytes([]byte("x"), "/a.txt"); err != nil {
		t.Fatalf("AddBytes: %v", err)
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.scs")
	if err := w.SaveToPath(path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := r.Extract("/a.txt"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after Close, got %v", err)
	}
}

func TestOpenRejectsNonHashFsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-an-archive.scs")
	if err := writeTestFile(path, bytes.Repeat([]byte{0}, 4096)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path); !errors.Is(err, ErrNotHashFs) {
		t.Fatalf("expected ErrNotHashFs, got %v", err)
	}
}

func TestWriterRejectsInvalidArchivePath(t *testing.T) {
	w := NewWriterV1()
	if err := w.AddBytes([]byte("x"), ""); !errors.Is(err, ErrInvalidArchivePath) {
		t.Fatalf("expected ErrInvalidArchivePath, got %v", err)
	}
	if err := w.AddBytes([]byte("x"), "/"); !errors.Is(err, ErrInvalidArchivePath) {
		t.Fatalf("expected ErrInvalidArchivePath, got %v", err)
	}
}

func writeTestFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}
