// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package hashfs

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	mmap "github.com/edsrzf/mmap-go"
)

// OpenOptions tunes how Open interprets a v1 archive whose entry-table
// offset field disagrees with where the table actually sits on disk -- a
// layout quirk some third-party v1 packers produce.
type OpenOptions struct {
	// ForceEntryTableAtEnd ignores the header's StartOffset for v1
	// archives and instead locates the entry table at
	// fileLength - numEntries*entryStrideV1.
	ForceEntryTableAtEnd bool
}

// Reader is a read-only, memory-mapped view of a HashFS archive
// (spec.md §4: ReaderFacade). It is safe for concurrent read-only use by
// multiple goroutines once Open returns; Close is not.
type Reader struct {
	file   *os.File
	data   mmap.MMap
	header *header
	hasher Hasher

	entriesV1 map[uint64]*EntryV1
	entriesV2 map[uint64]*EntryV2

	closed bool
}

// Open memory-maps and parses the archive at path.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, OpenOptions{})
}

// OpenWithOptions is Open with explicit OpenOptions.
func OpenWithOptions(path string, opts OpenOptions) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %v", ErrIoError, path, err)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: mmap %q: %v", ErrIoError, path, err)
	}

	r := &Reader{file: f, data: data, hasher: defaultHasher}
	if err := r.load(opts); err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) load(opts OpenOptions) error {
	h, err := readHeader(bytes.NewReader(r.data))
	if err != nil {
		return err
	}
	r.header = h

	switch h.version {
	case VersionV1:
		return r.loadV1(opts)
	case VersionV2:
		return r.loadV2()
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.version)
	}
}

func (r *Reader) loadV1(opts OpenOptions) error {
	start := uint64(r.header.v1.StartOffset)
	n := r.header.v1.NumEntries
	if opts.ForceEntryTableAtEnd {
		tableLen := uint64(n) * entryStrideV1
		if tableLen > uint64(len(r.data)) {
			return fmt.Errorf("%w: entry table larger than file", ErrCorruptTable)
		}
		start = uint64(len(r.data)) - tableLen
	}
	if start > uint64(len(r.data)) {
		return fmt.Errorf("%w: entry table start %d beyond end of file", ErrCorruptTable, start)
	}

	entries, err := decodeEntryTableV1(r.data[start:], n)
	if err != nil {
		return err
	}

	r.entriesV1 = make(map[uint64]*EntryV1, len(entries))
	for _, e := range entries {
		r.entriesV1[e.HashValue] = e
	}
	return nil
}

func (r *Reader) loadV2() error {
	v2 := r.header.v2

	if v2.MetadataTableStart+uint64(v2.MetadataTableLength) > uint64(len(r.data)) {
		return fmt.Errorf("%w: metadata table out of bounds", ErrCorruptTable)
	}
	metaCompressed := r.data[v2.MetadataTableStart : v2.MetadataTableStart+uint64(v2.MetadataTableLength)]
	metaRaw, err := zlibDecompress(metaCompressed, int(v2.NumMetadataEntries)*metadataStride)
	if err != nil {
		return err
	}
	metaBlocks, err := decodeMetadataTable(metaRaw, v2.NumMetadataEntries)
	if err != nil {
		return err
	}

	if v2.EntryTableStart+uint64(v2.EntryTableLength) > uint64(len(r.data)) {
		return fmt.Errorf("%w: entry table out of bounds", ErrCorruptTable)
	}
	entryCompressed := r.data[v2.EntryTableStart : v2.EntryTableStart+uint64(v2.EntryTableLength)]

	// NumEntries isn't stored directly in the v2 header; it is implied by
	// the (compressed) table's own inflated length being an exact multiple
	// of entryStrideV2.
	entryRaw, err := zlibInflateAll(entryCompressed)
	if err != nil {
		return err
	}
	if len(entryRaw)%entryStrideV2 != 0 {
		return fmt.Errorf("%w: v2 entry table length %d not a multiple of %d", ErrCorruptTable, len(entryRaw), entryStrideV2)
	}
	numEntries := uint32(len(entryRaw) / entryStrideV2)

	entries, err := decodeEntryTableV2(entryRaw, numEntries, metaBlocks)
	if err != nil {
		return err
	}

	r.entriesV2 = make(map[uint64]*EntryV2, len(entries))
	for _, e := range entries {
		r.entriesV2[e.HashValue] = e
	}
	return nil
}

// Version reports the archive's on-disk revision.
func (r *Reader) Version() Version { return r.header.version }

// Salt reports the salt mixed into every path hash in this archive.
func (r *Reader) Salt() uint16 { return r.header.salt }

// HashPath hashes path with this archive's salt.
func (r *Reader) HashPath(path string) uint64 {
	return r.hasher.HashPath(path, r.header.salt)
}

func (r *Reader) checkOpen() error {
	if r.closed {
		return ErrClosed
	}
	return nil
}

// entry looks up the raw Entry for an archive path, regardless of version.
func (r *Reader) entry(path string) (Entry, bool) {
	hash := r.HashPath(path)
	if r.entriesV1 != nil {
		if e, ok := r.entriesV1[hash]; ok {
			return e, true
		}
		return nil, false
	}
	if e, ok := r.entriesV2[hash]; ok {
		return e, true
	}
	return nil, false
}

// GetEntry returns the Entry at path.
func (r *Reader) GetEntry(path string) (Entry, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	if err := validateArchivePath(path); err != nil {
		return nil, err
	}
	e, ok := r.entry(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return e, nil
}

// TryGetEntry is GetEntry without an error for the not-found case.
func (r *Reader) TryGetEntry(path string) (Entry, bool) {
	if r.checkOpen() != nil {
		return nil, false
	}
	if validateArchivePath(path) != nil {
		return nil, false
	}
	return r.entry(path)
}

// EntryExists reports whether any entry, file or directory, exists at path.
func (r *Reader) EntryExists(path string) bool {
	_, ok := r.TryGetEntry(path)
	return ok
}

// FileExists reports whether a non-directory entry exists at path.
func (r *Reader) FileExists(path string) bool {
	e, ok := r.TryGetEntry(path)
	return ok && !e.IsDirectory()
}

// DirectoryExists reports whether a directory entry exists at path. The
// archive root always exists.
func (r *Reader) DirectoryExists(path string) bool {
	if path == "/" || path == "" {
		return true
	}
	e, ok := r.TryGetEntry(path)
	return ok && e.IsDirectory()
}

// payloadBytes returns e's raw, decompressed payload bytes.
func (r *Reader) payloadBytes(e Entry) ([]byte, error) {
	offset := e.Offset()
	compressedSize := uint64(e.CompressedSize())
	if offset+compressedSize > uint64(len(r.data)) {
		return nil, fmt.Errorf("%w: payload out of bounds", ErrCorruptTable)
	}
	raw := r.data[offset : offset+compressedSize]

	if !e.IsCompressed() {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	}
	return zlibDecompress(raw, int(e.Size()))
}

// Extract returns the decompressed payload of the file at path. For v2
// texture entries this is the synthesized .tobj descriptor; use
// ExtractTexture to also get the reconstructed .dds surface.
func (r *Reader) Extract(path string) ([]byte, error) {
	e, err := r.GetEntry(path)
	if err != nil {
		return nil, err
	}
	if e.IsDirectory() {
		return nil, fmt.Errorf("%w: %q", ErrIsDirectory, path)
	}

	if v2, ok := e.(*EntryV2); ok && v2.Texture != nil {
		payload, err := r.payloadBytes(e)
		if err != nil {
			return nil, err
		}
		tobjData, _, err := UnpackTextureFromArchive(path, v2.Texture, payload)
		return tobjData, err
	}

	return r.payloadBytes(e)
}

// ExtractTexture returns both halves of a v2 texture entry: the .tobj
// descriptor and the reconstructed .dds surface.
func (r *Reader) ExtractTexture(path string) (tobjData, ddsData []byte, err error) {
	e, err := r.GetEntry(path)
	if err != nil {
		return nil, nil, err
	}
	v2, ok := e.(*EntryV2)
	if !ok || v2.Texture == nil {
		return nil, nil, fmt.Errorf("%w: %q is not a texture entry", ErrTexturePacking, path)
	}
	payload, err := r.payloadBytes(e)
	if err != nil {
		return nil, nil, err
	}
	return UnpackTextureFromArchive(path, v2.Texture, payload)
}

// ExtractToFile writes the file at path to outputPath. Texture entries
// write their descriptor to outputPath and their reconstructed surface to
// the sibling ".dds" path, mirroring how the pair exists outside the
// archive.
func (r *Reader) ExtractToFile(path, outputPath string) error {
	e, err := r.GetEntry(path)
	if err != nil {
		return err
	}
	if e.IsDirectory() {
		return fmt.Errorf("%w: %q", ErrIsDirectory, path)
	}

	if v2, ok := e.(*EntryV2); ok && v2.Texture != nil {
		tobjData, ddsData, err := r.ExtractTexture(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outputPath, tobjData, 0644); err != nil {
			return fmt.Errorf("%w: write %q: %v", ErrIoError, outputPath, err)
		}
		if err := os.WriteFile(siblingSurfacePath(outputPath), ddsData, 0644); err != nil {
			return fmt.Errorf("%w: write %q: %v", ErrIoError, siblingSurfacePath(outputPath), err)
		}
		return nil
	}

	data, err := r.payloadBytes(e)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrIoError, outputPath, err)
	}
	return nil
}

// ReadAllText extracts path and returns it decoded as UTF-8 text.
func (r *Reader) ReadAllText(path string) (string, error) {
	data, err := r.Extract(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// directoryListingConfig holds GetDirectoryListing's defaults: spec.md §4.9
// returns absolute child paths and includes subdirectories unless told
// otherwise.
type directoryListingConfig struct {
	filesOnly      bool
	returnAbsolute bool
}

// DirectoryListingOption configures GetDirectoryListing.
type DirectoryListingOption func(*directoryListingConfig)

// FilesOnly excludes subdirectories from the returned listing.
func FilesOnly() DirectoryListingOption {
	return func(c *directoryListingConfig) { c.filesOnly = true }
}

// RelativeNames returns bare child names instead of paths joined onto dir.
func RelativeNames() DirectoryListingOption {
	return func(c *directoryListingConfig) { c.returnAbsolute = false }
}

// GetDirectoryListing returns dir's immediate children. By default this is
// every child (files and subdirectories alike) as an absolute archive path;
// use FilesOnly and RelativeNames to narrow that (spec.md §4.9).
func (r *Reader) GetDirectoryListing(dir string, opts ...DirectoryListingOption) ([]string, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	cfg := directoryListingConfig{returnAbsolute: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	normalized := dir
	if normalized == "" {
		normalized = "/"
	}

	var e Entry
	if normalized == "/" {
		var ok bool
		e, ok = r.entry("/")
		if !ok {
			return nil, fmt.Errorf("%w: empty archive has no root directory", ErrNotFound)
		}
	} else {
		var err error
		e, err = r.GetEntry(normalized)
		if err != nil {
			return nil, err
		}
		if !e.IsDirectory() {
			return nil, fmt.Errorf("%w: %q", ErrNotDirectory, normalized)
		}
	}

	data, err := r.payloadBytes(e)
	if err != nil {
		return nil, err
	}

	var names []string
	if r.header.version == VersionV1 {
		names = decodeDirectoryListingV1(data)
	} else {
		names, err = decodeDirectoryListingV2(data)
		if err != nil {
			return nil, err
		}
	}

	if !cfg.filesOnly && !cfg.returnAbsolute {
		return names, nil
	}

	result := make([]string, 0, len(names))
	for _, name := range names {
		isSubdir := strings.HasPrefix(name, "/")
		if cfg.filesOnly && isSubdir {
			continue
		}
		if cfg.returnAbsolute {
			name = joinArchivePath(normalized, name)
		}
		result = append(result, name)
	}
	return result, nil
}

// Close unmaps the archive and closes its file handle. Further operations
// on r return ErrClosed.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if unmapErr := r.data.Unmap(); unmapErr != nil {
		err = fmt.Errorf("%w: unmap: %v", ErrIoError, unmapErr)
	}
	if closeErr := r.file.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("%w: close: %v", ErrIoError, closeErr)
	}
	return err
}
