// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package hashfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// entryStrideV1 is the fixed size in bytes of one v1 entry-table record
// (spec.md §4.4): u64 hash, u64 offset, u32 flags, u32 crc, u32 size,
// u32 compressedSize.
const entryStrideV1 = 32

type entryRecordV1 struct {
	Hash           uint64
	Offset         uint64
	Flags          uint32
	CRC32          uint32
	Size           uint32
	CompressedSize uint32
}

// decodeEntryTableV1 decodes a raw, uncompressed v1 entry table (no
// compression in v1, unlike v2's zlib-wrapped table).
func decodeEntryTableV1(data []byte, numEntries uint32) ([]*EntryV1, error) {
	want := int(numEntries) * entryStrideV1
	if len(data) < want {
		return nil, fmt.Errorf("%w: v1 entry table truncated: need %d bytes, have %d", ErrCorruptTable, want, len(data))
	}

	r := bytes.NewReader(data[:want])
	entries := make([]*EntryV1, numEntries)
	for i := range entries {
		var rec entryRecordV1
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%w: decode v1 entry %d: %v", ErrCorruptTable, i, err)
		}
		if rec.Flags&entryFlagV1Encrypted != 0 {
			return nil, fmt.Errorf("%w: entry %d is encrypted", ErrUnsupportedFeature, i)
		}
		entries[i] = &EntryV1{
			HashValue:           rec.Hash,
			OffsetValue:         rec.Offset,
			Flags:               rec.Flags,
			CRC32:               rec.CRC32,
			SizeValue:           rec.Size,
			CompressedSizeValue: rec.CompressedSize,
		}
	}
	return entries, nil
}

// encodeEntryTableV1 sorts entries by ascending hash (spec.md invariant:
// "the entry table is sorted by ascending hash") and serializes them.
func encodeEntryTableV1(entries []*EntryV1) []byte {
	sort.Slice(entries, func(i, j int) bool { return entries[i].HashValue < entries[j].HashValue })

	buf := make([]byte, 0, len(entries)*entryStrideV1)
	w := bytes.NewBuffer(buf)
	for _, e := range entries {
		rec := entryRecordV1{
			Hash:           e.HashValue,
			Offset:         e.OffsetValue,
			Flags:          e.Flags,
			CRC32:          e.CRC32,
			Size:           e.SizeValue,
			CompressedSize: e.CompressedSizeValue,
		}
		// binary.Write on a fixed-size struct into a bytes.Buffer never
		// errors; the struct has no variable-width fields.
		_ = binary.Write(w, binary.LittleEndian, &rec)
	}
	return w.Bytes()
}
