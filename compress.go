// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package hashfs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// CompressionLevel selects the zlib effort level WriterFacade uses for
// payload and table compression. Unlike the teacher's MPQ codec (which
// multiplexes zlib/bzip2/PKWare/ADPCM behind a leading type byte), HashFS's
// "isCompressed" payloads and v2 tables are always plain zlib streams —
// spec.md §9 explicitly stubs off the only other codec the format knows
// about (GDeflate, texture-only, never implemented here).
type CompressionLevel int

const (
	// CompressionNone disables compression outright; payloads are stored
	// verbatim and isCompressed is left clear.
	CompressionNone CompressionLevel = iota
	// CompressionFastest favors speed over ratio.
	CompressionFastest
	// CompressionOptimal is a balanced default.
	CompressionOptimal
	// CompressionSmallestSize favors ratio over speed.
	CompressionSmallestSize
)

func (l CompressionLevel) zlibLevel() int {
	switch l {
	case CompressionFastest:
		return zlib.BestSpeed
	case CompressionOptimal:
		return zlib.DefaultCompression
	case CompressionSmallestSize:
		return zlib.BestCompression
	default:
		return zlib.NoCompression
	}
}

// zlibCompress compresses data at the given level. Tables always compress
// at CompressionSmallestSize regardless of the writer's configured payload
// level; only per-file payload compression is caller-tunable.
func zlibCompress(data []byte, level CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level.zlibLevel())
	if err != nil {
		return nil, fmt.Errorf("%w: create zlib writer: %v", ErrIoError, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%w: zlib write: %v", ErrIoError, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: zlib close: %v", ErrIoError, err)
	}
	return buf.Bytes(), nil
}

// zlibDecompress inflates data, which is expected to expand to exactly
// uncompressedSize bytes.
func zlibDecompress(data []byte, uncompressedSize int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: create zlib reader: %v", ErrCorruptTable, err)
	}
	defer r.Close()

	result := make([]byte, uncompressedSize)
	n, err := io.ReadFull(r, result)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("%w: zlib decompress: %v", ErrCorruptTable, err)
	}
	return result[:n], nil
}

// zlibInflateAll inflates data to however many bytes it expands to, for
// callers that don't know the uncompressed size ahead of time (the v2
// entry table's length is only implied after inflation, by it being an
// exact multiple of entryStrideV2).
func zlibInflateAll(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: create zlib reader: %v", ErrCorruptTable, err)
	}
	defer r.Close()

	result, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: zlib decompress: %v", ErrCorruptTable, err)
	}
	return result, nil
}
