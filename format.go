// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package hashfs

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Version identifies an on-disk HashFS revision.
type Version uint16

const (
	// VersionV1 is the original HashFS layout: uncompressed fixed-stride
	// entry table, no metadata table, no texture repacking.
	VersionV1 Version = 1

	// VersionV2 is the extended layout: zlib-compressed entry table, a
	// separate chunked metadata table, 16-byte payload alignment, and
	// fused texture entries.
	VersionV2 Version = 2
)

const (
	// magic is the little-endian encoding of the ASCII bytes "SCS#", the
	// four-byte signature every HashFS archive starts with.
	magic uint32 = 0x23534353

	// hashMethodCity is the only supported value of the header's
	// hashMethod field.
	hashMethodCity = "CITY"

	// payloadRegionStart is the fixed byte offset where the payload region
	// begins in both versions (spec.md §3).
	payloadRegionStart = 4096

	// v2PayloadAlignment is the alignment every v2 entry offset must be a
	// multiple of (spec.md §3 invariants).
	v2PayloadAlignment = 16

	// platformPC is the only supported v2 platform tag.
	platformPC uint16 = 0
)

// sharedHeaderPrelude is the fixed-layout portion common to both versions:
// magic, version, salt, and the four-byte hash method tag.
type sharedHeaderPrelude struct {
	Magic      uint32
	FmtVersion uint16
	Salt       uint16
	HashMethod [4]byte
}

// v1HeaderTail is the version-specific tail of a v1 header.
type v1HeaderTail struct {
	NumEntries  uint32
	StartOffset uint32
}

// v2HeaderTail is the version-specific tail of a v2 header.
type v2HeaderTail struct {
	EntryTableLength         uint32
	NumMetadataEntries       uint32
	MetadataTableLength      uint32
	EntryTableStart          uint64
	MetadataTableStart       uint64
	SecurityDescriptorOffset uint64
	Platform                 uint16
}

// header is the fully parsed, version-dispatched archive header.
type header struct {
	version Version
	salt    uint16

	v1 v1HeaderTail
	v2 v2HeaderTail
}

// readHeader parses the shared prelude and the version-specific tail from r,
// validating the magic and hash method along the way.
func readHeader(r io.Reader) (*header, error) {
	var prelude sharedHeaderPrelude
	if err := binary.Read(r, binary.LittleEndian, &prelude); err != nil {
		return nil, fmt.Errorf("%w: read header prelude: %v", ErrIoError, err)
	}

	if prelude.Magic != magic {
		return nil, fmt.Errorf("%w: magic 0x%08X", ErrNotHashFs, prelude.Magic)
	}

	if string(prelude.HashMethod[:]) != hashMethodCity {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedHashMethod, prelude.HashMethod)
	}

	h := &header{salt: prelude.Salt}

	switch prelude.FmtVersion {
	case uint16(VersionV1):
		h.version = VersionV1
		if err := binary.Read(r, binary.LittleEndian, &h.v1); err != nil {
			return nil, fmt.Errorf("%w: read v1 header tail: %v", ErrIoError, err)
		}
	case uint16(VersionV2):
		h.version = VersionV2
		if err := binary.Read(r, binary.LittleEndian, &h.v2); err != nil {
			return nil, fmt.Errorf("%w: read v2 header tail: %v", ErrIoError, err)
		}
		if h.v2.Platform != platformPC {
			return nil, fmt.Errorf("%w: platform %d", ErrUnsupportedFeature, h.v2.Platform)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, prelude.FmtVersion)
	}

	return h, nil
}

// writeHeader writes h's prelude and version-specific tail to w. Callers
// write a zeroed placeholder first and seek back here once table offsets
// are known, matching spec.md §4.3 ("writers emit the header last").
func writeHeader(w io.Writer, h *header) error {
	prelude := sharedHeaderPrelude{
		Magic:      magic,
		FmtVersion: uint16(h.version),
		Salt:       h.salt,
	}
	copy(prelude.HashMethod[:], hashMethodCity)

	if err := binary.Write(w, binary.LittleEndian, &prelude); err != nil {
		return fmt.Errorf("%w: write header prelude: %v", ErrIoError, err)
	}

	switch h.version {
	case VersionV1:
		if err := binary.Write(w, binary.LittleEndian, &h.v1); err != nil {
			return fmt.Errorf("%w: write v1 header tail: %v", ErrIoError, err)
		}
	case VersionV2:
		if err := binary.Write(w, binary.LittleEndian, &h.v2); err != nil {
			return fmt.Errorf("%w: write v2 header tail: %v", ErrIoError, err)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.version)
	}

	return nil
}
