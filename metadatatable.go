// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package hashfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// v2 metadata table chunk type tags (spec.md §4.6).
const (
	chunkImage           uint8 = 1
	chunkSample          uint8 = 2
	chunkMipProxy        uint8 = 3
	chunkInlineDirectory uint8 = 4
	chunkUnknown6        uint8 = 6
	chunkPlain           uint8 = 128
	chunkDirectory       uint8 = 129
	chunkMip0            uint8 = 130
	chunkMip1            uint8 = 131
	chunkMipTail         uint8 = 132
)

// metadataStride is the size in bytes of one metadata-table block: the
// table is a byte stream addressed in 4-byte blocks (spec.md §4.6), and
// every descriptor or record field occupies a whole number of them.
const metadataStride = 4

// imageReservedWord1 is the second word of an Image chunk's trailing
// 8-byte reserved region: spec.md §4.6 pins the constant 0x30 in the upper
// nibbles of the size MSB byte there, faithfully reproduced on write.
const imageReservedWord1 = 0x30000000

// blockAdvance reports the per-chunk block advance spec.md §4.6 defines for
// computing successive nextMetaIndex values when chaining multi-chunk runs
// (e.g. a mip-streamed texture's Mip0/Mip1/MipTail chunks). This codec only
// ever builds and resolves the single-descriptor Plain/Directory/Image
// runs the entry table can carry, so the table is exposed for completeness
// and tests, but resolveEntryMetadata never has to walk past the first
// chunk of a run.
func blockAdvance(chunkType uint8) int {
	switch chunkType {
	case chunkPlain:
		return 4
	case chunkUnknown6:
		return 2
	case chunkDirectory:
		return 4
	case chunkImage:
		return 2
	case chunkSample:
		return 1
	case chunkMipTail:
		return 4
	default:
		// MipProxy, InlineDirectory, Mip0, Mip1: single-block chunks this
		// decoder doesn't need to interpret beyond skipping over them.
		return 1
	}
}

// decodeChunkDescriptor splits a 4-byte metadata-table block into the
// block-index cursor and chunk type it packs.
func decodeChunkDescriptor(word uint32) (nextMetaIndex uint32, chunkType uint8) {
	return word & 0x00FFFFFF, uint8(word >> 24)
}

func encodeChunkDescriptor(nextMetaIndex uint32, chunkType uint8) uint32 {
	return (nextMetaIndex & 0x00FFFFFF) | uint32(chunkType)<<24
}

// mainMetadataCompressedFlag is bit 4 of msbAndFlags1, the sole
// interpreted flag bit in the MainMetadata record.
const mainMetadataCompressedFlag uint8 = 1 << 4

// mainMetadataRecord is the 16-byte (4-block) MainMetadata record every
// Plain, Directory, and Image chunk carries (spec.md §4.6): compressedSize
// and size are each a u24 plus 4 extra bits stashed in the low nibble of
// their own trailing flags byte, unknown and offsetBlock are verbatim u32s.
type mainMetadataRecord struct {
	CompressedSize uint32
	Size           uint32
	Compressed     bool
	// ReservedFlags1 holds msbAndFlags1's high-nibble bits other than the
	// compressed bit; ReservedFlags2 holds msbAndFlags2's high nibble
	// whole. Both are opaque and must be replicated verbatim on rewrite.
	ReservedFlags1 uint8
	ReservedFlags2 uint8
	Unknown        uint32
	OffsetBlock    uint32
}

func decodeMainMetadataRecord(w0, w1, unknown, offsetBlock uint32) mainMetadataRecord {
	flags1 := uint8(w0 >> 24)
	flags2 := uint8(w1 >> 24)
	return mainMetadataRecord{
		CompressedSize: (w0 & 0x00FFFFFF) | uint32(flags1&0x0F)<<24,
		Size:           (w1 & 0x00FFFFFF) | uint32(flags2&0x0F)<<24,
		Compressed:     flags1&mainMetadataCompressedFlag != 0,
		ReservedFlags1: flags1 & 0xE0,
		ReservedFlags2: flags2 & 0xF0,
		Unknown:        unknown,
		OffsetBlock:    offsetBlock,
	}
}

func encodeMainMetadataRecord(rec mainMetadataRecord) (w0, w1, unknown, offsetBlock uint32) {
	flags1 := rec.ReservedFlags1 & 0xE0
	if rec.Compressed {
		flags1 |= mainMetadataCompressedFlag
	}
	flags1 |= uint8((rec.CompressedSize >> 24) & 0x0F)

	flags2 := (rec.ReservedFlags2 & 0xF0) | uint8((rec.Size>>24)&0x0F)

	w0 = (rec.CompressedSize & 0x00FFFFFF) | uint32(flags1)<<24
	w1 = (rec.Size & 0x00FFFFFF) | uint32(flags2)<<24
	return w0, w1, rec.Unknown, rec.OffsetBlock
}

// decodeMetadataTable decodes a raw (already zlib-inflated) v2 metadata
// table into its 4-byte blocks.
func decodeMetadataTable(data []byte, numBlocks uint32) ([]uint32, error) {
	want := int(numBlocks) * metadataStride
	if len(data) < want {
		return nil, fmt.Errorf("%w: v2 metadata table truncated: need %d bytes, have %d", ErrCorruptTable, want, len(data))
	}

	r := bytes.NewReader(data[:want])
	blocks := make([]uint32, numBlocks)
	for i := range blocks {
		if err := binary.Read(r, binary.LittleEndian, &blocks[i]); err != nil {
			return nil, fmt.Errorf("%w: decode metadata block %d: %v", ErrCorruptTable, i, err)
		}
	}
	return blocks, nil
}

// encodeMetadataTable serializes blocks in order, unchanged.
func encodeMetadataTable(blocks []uint32) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(blocks)*metadataStride))
	for _, b := range blocks {
		_ = binary.Write(buf, binary.LittleEndian, b)
	}
	return buf.Bytes()
}

// buildMetadataRun encodes one entry's metadata-table run: a leading chunk
// descriptor classifying the entry, followed by its type-specific payload.
// kind must be chunkPlain, chunkDirectory, or chunkImage; texture is
// required (non-nil) only for chunkImage.
func buildMetadataRun(kind uint8, rec mainMetadataRecord, texture *TextureMetadata) ([]uint32, error) {
	w0, w1, unknown, offsetBlock := encodeMainMetadataRecord(rec)

	switch kind {
	case chunkPlain, chunkDirectory:
		return []uint32{
			encodeChunkDescriptor(0, kind),
			w0, w1, unknown, offsetBlock,
		}, nil
	case chunkImage:
		if texture.Width == 0 || texture.Width > 1<<16 || texture.Height == 0 || texture.Height > 1<<16 {
			return nil, fmt.Errorf("%w: texture dimensions %dx%d out of range", ErrTexturePacking, texture.Width, texture.Height)
		}
		wordA, wordB, err := texture.packWords()
		if err != nil {
			return nil, err
		}
		packedDims := uint32(texture.Width-1) | uint32(texture.Height-1)<<16
		return []uint32{
			encodeChunkDescriptor(0, kind),
			packedDims, wordA, wordB,
			w0, w1, unknown, offsetBlock,
			0, imageReservedWord1,
		}, nil
	default:
		return nil, fmt.Errorf("%w: metadata chunk type %d", ErrUnsupportedFeature, kind)
	}
}

// resolveEntryMetadata decodes the metadata-table run [index, index+count)
// belonging to one v2 entry, returning its MainMetadata fields (the source
// of truth for the entry's offset/size/compressedSize/compressed, since
// spec.md §4.5 deliberately keeps those out of the entry table itself) and,
// for an Image run, the fused TextureMetadata.
func resolveEntryMetadata(blocks []uint32, index uint32, count uint16) (rec mainMetadataRecord, texture *TextureMetadata, err error) {
	if count == 0 {
		return mainMetadataRecord{}, nil, fmt.Errorf("%w: entry has an empty metadata run", ErrCorruptTable)
	}
	end := int(index) + int(count)
	if index > uint32(len(blocks)) || end > len(blocks) {
		return mainMetadataRecord{}, nil, fmt.Errorf("%w: metadata run [%d,%d) out of bounds (table has %d blocks)",
			ErrCorruptTable, index, end, len(blocks))
	}

	_, chunkType := decodeChunkDescriptor(blocks[index])
	pos := int(index) + 1

	switch chunkType {
	case chunkPlain, chunkDirectory:
		if pos+4 > end {
			return mainMetadataRecord{}, nil, fmt.Errorf("%w: truncated MainMetadata record", ErrCorruptTable)
		}
		rec = decodeMainMetadataRecord(blocks[pos], blocks[pos+1], blocks[pos+2], blocks[pos+3])
		return rec, nil, nil
	case chunkImage:
		if pos+7 > end {
			return mainMetadataRecord{}, nil, fmt.Errorf("%w: truncated Image chunk", ErrCorruptTable)
		}
		packedDims := blocks[pos]
		wordA := blocks[pos+1]
		wordB := blocks[pos+2]
		width16 := uint16(packedDims)
		height16 := uint16(packedDims >> 16)
		texture = unpackWords(width16, height16, wordA, wordB)
		rec = decodeMainMetadataRecord(blocks[pos+3], blocks[pos+4], blocks[pos+5], blocks[pos+6])
		return rec, texture, nil
	default:
		return mainMetadataRecord{}, nil, fmt.Errorf("%w: unknown metadata chunk type %d", ErrUnsupportedFeature, chunkType)
	}
}
