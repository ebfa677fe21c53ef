package hashfs

import (
	"testing"

	"github.com/sk-zk/go-hashfs/internal/dds"
)

func TestEntryTableV1RoundTrip(t *testing.T) {
	entries := []*EntryV1{
		{HashValue: 300, OffsetValue: 4096, Flags: 0, SizeValue: 10, CompressedSizeValue: 10},
		{HashValue: 100, OffsetValue: 8192, Flags: entryFlagV1Compressed, SizeValue: 1000, CompressedSizeValue: 200, CRC32: 0xdeadbeef},
		{HashValue: 200, OffsetValue: 0, Flags: entryFlagV1Directory, SizeValue: 5, CompressedSizeValue: 5},
	}

	encoded := encodeEntryTableV1(entries)
	if len(encoded) != len(entries)*entryStrideV1 {
		t.Fatalf("encoded length = %d, want %d", len(encoded), len(entries)*entryStrideV1)
	}

	decoded, err := decodeEntryTableV1(encoded, uint32(len(entries)))
	if err != nil {
		t.Fatalf("decodeEntryTableV1: %v", err)
	}
	if len(decoded) != len(entries) {
		t.Fatalf("decoded %d entries, want %d", len(decoded), len(entries))
	}
	for i := 1; i < len(decoded); i++ {
		if decoded[i-1].HashValue >= decoded[i].HashValue {
			t.Fatalf("entries not sorted ascending by hash: %d >= %d", decoded[i-1].HashValue, decoded[i].HashValue)
		}
	}

	var directory *EntryV1
	for _, e := range decoded {
		if e.HashValue == 200 {
			directory = e
		}
	}
	if directory == nil || !directory.IsDirectory() {
		t.Fatal("expected hash 200's entry to be a directory")
	}
}

func TestDecodeEntryTableV1RejectsTruncatedData(t *testing.T) {
	if _, err := decodeEntryTableV1(make([]byte, 10), 1); err == nil {
		t.Fatal("expected error decoding truncated v1 table")
	}
}

func TestDecodeEntryTableV1RejectsEncryptedEntry(t *testing.T) {
	entries := []*EntryV1{{HashValue: 1, Flags: entryFlagV1Encrypted}}
	encoded := encodeEntryTableV1(entries)
	if _, err := decodeEntryTableV1(encoded, 1); err == nil {
		t.Fatal("expected error for encrypted v1 entry")
	}
}

func TestEntryTableV2RoundTripPlainEntries(t *testing.T) {
	entries := []*EntryV2{
		{HashValue: 50, OffsetValue: 4096, SizeValue: 64, CompressedSizeValue: 64},
		{HashValue: 10, OffsetValue: 8192, SizeValue: 128, CompressedSizeValue: 80, Compressed: true},
		{HashValue: 30, OffsetValue: 0, Flags: entryFlagV2Directory, SizeValue: 5, CompressedSizeValue: 5},
	}

	var blocks []uint32
	for _, e := range entries {
		kind := uint8(chunkPlain)
		if e.IsDirectory() {
			kind = chunkDirectory
		}
		rec := mainMetadataRecord{
			CompressedSize: e.CompressedSizeValue,
			Size:           e.SizeValue,
			Compressed:     e.Compressed,
			OffsetBlock:    uint32(e.OffsetValue / v2PayloadAlignment),
		}
		run, err := buildMetadataRun(kind, rec, nil)
		if err != nil {
			t.Fatalf("buildMetadataRun: %v", err)
		}
		e.MetadataIndex = uint32(len(blocks))
		e.MetadataCount = uint16(len(run))
		blocks = append(blocks, run...)
	}

	encoded := encodeEntryTableV2(entries)
	decoded, err := decodeEntryTableV2(encoded, uint32(len(entries)), blocks)
	if err != nil {
		t.Fatalf("decodeEntryTableV2: %v", err)
	}
	if len(decoded) != len(entries) {
		t.Fatalf("decoded %d entries, want %d", len(decoded), len(entries))
	}

	var compressed, directory *EntryV2
	for _, e := range decoded {
		if e.HashValue == 10 {
			compressed = e
		}
		if e.HashValue == 30 {
			directory = e
		}
	}
	if compressed == nil || !compressed.IsCompressed() {
		t.Fatal("expected hash 10's entry to be compressed")
	}
	if directory == nil || !directory.IsDirectory() {
		t.Fatal("expected hash 30's entry to be a directory")
	}
}

func TestEntryTableV2RoundTripWithTexture(t *testing.T) {
	meta := &TextureMetadata{
		Width: 64, Height: 64, MipmapCount: 1, FaceCount: 1,
		Format: dds.FormatBC1UNorm, PitchAlignment: 1, ImageAlignment: 1,
	}
	rec := mainMetadataRecord{CompressedSize: 2048, Size: 2048, OffsetBlock: 4096 / v2PayloadAlignment}
	run, err := buildMetadataRun(chunkImage, rec, meta)
	if err != nil {
		t.Fatalf("buildMetadataRun: %v", err)
	}

	entry := &EntryV2{
		HashValue: 77, OffsetValue: 4096, SizeValue: 2048, CompressedSizeValue: 2048,
		MetadataIndex: 0, MetadataCount: uint16(len(run)), Texture: meta,
	}
	encoded := encodeEntryTableV2([]*EntryV2{entry})

	decoded, err := decodeEntryTableV2(encoded, 1, run)
	if err != nil {
		t.Fatalf("decodeEntryTableV2: %v", err)
	}
	if decoded[0].Texture == nil {
		t.Fatal("expected decoded entry to carry fused TextureMetadata")
	}
	if decoded[0].Texture.Width != meta.Width || decoded[0].Texture.Height != meta.Height {
		t.Fatalf("texture dims = %dx%d, want %dx%d", decoded[0].Texture.Width, decoded[0].Texture.Height, meta.Width, meta.Height)
	}
	// Texture entries report Size == CompressedSize regardless of the
	// stored SizeValue.
	if decoded[0].Size() != decoded[0].CompressedSize() {
		t.Fatalf("texture entry Size() = %d, want equal to CompressedSize() %d", decoded[0].Size(), decoded[0].CompressedSize())
	}
}

func TestDecodeEntryTableV2RejectsTruncatedData(t *testing.T) {
	if _, err := decodeEntryTableV2(make([]byte, 10), 1, nil); err == nil {
		t.Fatal("expected error decoding truncated v2 table")
	}
}
