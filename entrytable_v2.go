// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package hashfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// entryStrideV2 is the fixed size in bytes of one v2 entry-table record
// (spec.md §4.5): u64 hash, u32 metadataIndex, u16 metadataCount,
// u16 flags. Unlike v1, offset/size/compressedSize live entirely in the
// metadata table's MainMetadata record so the packer never has to keep two
// copies of them in sync.
const entryStrideV2 = 16

type entryRecordV2 struct {
	Hash          uint64
	MetadataIndex uint32
	MetadataCount uint16
	Flags         uint16
}

// decodeEntryTableV2 decodes an already zlib-inflated v2 entry table and
// resolves every entry's offset/size/compressedSize/compressed, plus a
// fused TextureMetadata for Image entries, from its metadata-table run.
func decodeEntryTableV2(data []byte, numEntries uint32, metaBlocks []uint32) ([]*EntryV2, error) {
	want := int(numEntries) * entryStrideV2
	if len(data) < want {
		return nil, fmt.Errorf("%w: v2 entry table truncated: need %d bytes, have %d", ErrCorruptTable, want, len(data))
	}

	r := bytes.NewReader(data[:want])
	entries := make([]*EntryV2, numEntries)
	for i := range entries {
		var rec entryRecordV2
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%w: decode v2 entry %d: %v", ErrCorruptTable, i, err)
		}

		meta, texture, err := resolveEntryMetadata(metaBlocks, rec.MetadataIndex, rec.MetadataCount)
		if err != nil {
			return nil, err
		}

		entries[i] = &EntryV2{
			HashValue:           rec.Hash,
			Flags:               uint32(rec.Flags),
			OffsetValue:         uint64(meta.OffsetBlock) * v2PayloadAlignment,
			SizeValue:           meta.Size,
			CompressedSizeValue: meta.CompressedSize,
			Compressed:          meta.Compressed,
			MetadataIndex:       rec.MetadataIndex,
			MetadataCount:       rec.MetadataCount,
			Texture:             texture,
		}
	}

	// Presenting entries grouped by metadata run, rather than raw hash
	// order, keeps a texture and its mip/face siblings adjacent for
	// anything iterating in table order (e.g. directory-listing dumps).
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].MetadataIndex < entries[j].MetadataIndex
	})
	return entries, nil
}

// encodeEntryTableV2 sorts entries by ascending hash (the on-disk
// invariant) and serializes them, returning the bytes ready for zlib
// compression by the caller. Entries must already carry their resolved
// MetadataIndex/MetadataCount from the caller's metadata-table build pass.
func encodeEntryTableV2(entries []*EntryV2) []byte {
	sort.Slice(entries, func(i, j int) bool { return entries[i].HashValue < entries[j].HashValue })

	buf := bytes.NewBuffer(make([]byte, 0, len(entries)*entryStrideV2))
	for _, e := range entries {
		rec := entryRecordV2{
			Hash:          e.HashValue,
			MetadataIndex: e.MetadataIndex,
			MetadataCount: e.MetadataCount,
			Flags:         uint16(e.Flags),
		}
		_ = binary.Write(buf, binary.LittleEndian, &rec)
	}
	return buf.Bytes()
}
