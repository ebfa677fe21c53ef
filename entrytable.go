package hashfs

// Entry is the read-side capability set shared by EntryV1 and EntryV2
// (spec.md §9: "shared read-side accessors are expressed as a small
// capability set"). Reader exposes entries through this interface so
// callers that don't care about the archive version can still enumerate,
// check, and extract them.
type Entry interface {
	// Hash is the 64-bit path hash this entry is keyed by.
	Hash() uint64
	// Offset is the byte offset of this entry's payload in the archive.
	Offset() uint64
	// Size is the logical (uncompressed) payload size, except for v2
	// texture entries where it equals CompressedSize (spec.md §3, a
	// faithfully replicated quirk of the source format).
	Size() uint32
	// CompressedSize is the on-disk payload size.
	CompressedSize() uint32
	// IsDirectory reports whether this entry is a synthesized directory
	// listing rather than a file payload.
	IsDirectory() bool
	// IsCompressed reports whether the payload is zlib-compressed on disk.
	IsCompressed() bool
}

// v1 entry table flag bits (spec.md §4.4).
const (
	entryFlagV1Directory  = 1 << 0
	entryFlagV1Compressed = 1 << 1
	entryFlagV1Verify     = 1 << 2 // unused; preserved verbatim, never interpreted
	entryFlagV1Encrypted  = 1 << 3 // must be 0; set means UnsupportedFeature
)

// EntryV1 is a v1 entry-table record.
type EntryV1 struct {
	HashValue           uint64
	OffsetValue         uint64
	Flags               uint32
	CRC32               uint32
	SizeValue           uint32
	CompressedSizeValue uint32
}

func (e *EntryV1) Hash() uint64           { return e.HashValue }
func (e *EntryV1) Offset() uint64         { return e.OffsetValue }
func (e *EntryV1) Size() uint32           { return e.SizeValue }
func (e *EntryV1) CompressedSize() uint32 { return e.CompressedSizeValue }
func (e *EntryV1) IsDirectory() bool      { return e.Flags&entryFlagV1Directory != 0 }
func (e *EntryV1) IsCompressed() bool     { return e.Flags&entryFlagV1Compressed != 0 }

// v2 entry table flag bits (spec.md §4.5).
const (
	entryFlagV2Directory = 1 << 0
)

// EntryV2 is a v2 entry-table record, optionally fused with a
// TextureMetadata when the metadata table classifies it as an Image chunk.
type EntryV2 struct {
	HashValue           uint64
	OffsetValue         uint64
	Flags               uint32
	SizeValue           uint32
	CompressedSizeValue uint32
	Compressed          bool

	// MetadataIndex/MetadataCount locate this entry's chunk run in the
	// metadata table; only meaningful while decoding, not part of the
	// public read surface.
	MetadataIndex uint32
	MetadataCount uint16

	Texture *TextureMetadata
}

func (e *EntryV2) Hash() uint64   { return e.HashValue }
func (e *EntryV2) Offset() uint64 { return e.OffsetValue }
func (e *EntryV2) Size() uint32 {
	if e.Texture != nil {
		// spec.md §3: for texture entries Size equals CompressedSize
		// because the archive stores only the repacked surface bytes.
		return e.CompressedSizeValue
	}
	return e.SizeValue
}
func (e *EntryV2) CompressedSize() uint32 { return e.CompressedSizeValue }
func (e *EntryV2) IsDirectory() bool      { return e.Flags&entryFlagV2Directory != 0 }
func (e *EntryV2) IsCompressed() bool     { return e.Compressed }
