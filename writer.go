// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package hashfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/renameio"
	"github.com/orcaman/writerseeker"
)

// DefaultCompressionThreshold is the payload size, in bytes, below which
// Writer never bothers compressing: zlib's framing overhead makes
// compression a net loss on tiny files (spec.md §4.10).
const DefaultCompressionThreshold = 64

// pendingEntry is one file (or synthesized directory) queued for writing.
type pendingEntry struct {
	archivePath string
	data        []byte
	texture     *TextureMetadata
}

// Writer accumulates files and directories for a single archive and then
// serializes them in one pass (spec.md §4.11: Accumulating -> Finalized,
// no mutation after Save). Its version is fixed at construction by which
// constructor built it, not by a settable option, matching how the format
// never mixes v1 and v2 semantics in one archive.
type Writer struct {
	version Version

	// Salt is mixed into every path hash (spec.md §2). Defaults to 0.
	Salt uint16
	// CompressionThreshold is the minimum payload size Writer will attempt
	// to compress. Defaults to DefaultCompressionThreshold.
	CompressionThreshold int
	// CompressionLevel controls the zlib effort used for payloads that
	// clear CompressionThreshold.
	CompressionLevel CompressionLevel
	// ComputeChecksums enables CRC32 computation on v1 entries. Ignored
	// for v2, which has no per-entry checksum field.
	ComputeChecksums bool

	pending   []pendingEntry
	finalized bool
}

// NewWriterV1 creates a Writer that produces a v1 archive.
func NewWriterV1() *Writer {
	return &Writer{
		version:              VersionV1,
		CompressionThreshold: DefaultCompressionThreshold,
		CompressionLevel:     CompressionOptimal,
	}
}

// NewWriterV2 creates a Writer that produces a v2 archive.
func NewWriterV2() *Writer {
	return &Writer{
		version:              VersionV2,
		CompressionThreshold: DefaultCompressionThreshold,
		CompressionLevel:     CompressionOptimal,
	}
}

// Version reports which revision this Writer produces.
func (w *Writer) Version() Version { return w.version }

func (w *Writer) checkMutable() error {
	if w.finalized {
		return ErrClosed
	}
	return nil
}

// AddBytes queues data at archivePath.
func (w *Writer) AddBytes(data []byte, archivePath string) error {
	if err := w.checkMutable(); err != nil {
		return err
	}
	if err := validateArchivePath(archivePath); err != nil {
		return err
	}
	w.pending = append(w.pending, pendingEntry{archivePath: archivePath, data: data})
	return nil
}

// AddReader queues the full contents of r at archivePath.
func (w *Writer) AddReader(r io.Reader, archivePath string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: read %q: %v", ErrIoError, archivePath, err)
	}
	return w.AddBytes(data, archivePath)
}

// AddFile queues the contents of the host file at hostPath under
// archivePath.
func (w *Writer) AddFile(hostPath, archivePath string) error {
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return fmt.Errorf("%w: read %q: %v", ErrIoError, hostPath, err)
	}
	return w.AddBytes(data, archivePath)
}

// fuseSiblingTextures scans pending for (.tobj, .dds) pairs added through
// the ordinary add path and fuses each into a single texture entry at the
// .tobj's archive path (spec.md §6: texture fusion is a v2-only feature). A
// .dds file is never written to the archive in its own right: a paired one
// is folded into its sibling .tobj, and an orphaned one -- no .tobj at the
// same path minus the extension -- is silently dropped, mirroring how a
// loose, undescribed surface is invisible to the game.
func fuseSiblingTextures(pending []pendingEntry) ([]pendingEntry, error) {
	byPath := make(map[string]pendingEntry, len(pending))
	for _, p := range pending {
		byPath[p.archivePath] = p
	}

	result := make([]pendingEntry, 0, len(pending))
	for _, p := range pending {
		if hasExtension(p.archivePath, ".dds") {
			continue
		}
		if p.texture == nil && hasExtension(p.archivePath, ".tobj") {
			if sibling, ok := byPath[siblingSurfacePath(p.archivePath)]; ok {
				meta, payload, err := RepackTextureForArchive(p.archivePath, p.data, sibling.data)
				if err != nil {
					return nil, err
				}
				p.data = payload
				p.texture = meta
			}
		}
		result = append(result, p)
	}
	return result, nil
}

// Save serializes the archive to w.
func (wr *Writer) Save(w io.Writer) error {
	if err := wr.checkMutable(); err != nil {
		return err
	}

	var ws writerseeker.WriterSeeker
	if err := wr.build(&ws); err != nil {
		return err
	}
	wr.finalized = true

	if _, err := io.Copy(w, ws.Reader()); err != nil {
		return fmt.Errorf("%w: copy archive: %v", ErrIoError, err)
	}
	return nil
}

// SaveToPath atomically writes the archive to path: it builds into a
// temporary file in the same directory and renames it into place on
// success, so a crash mid-write never leaves a truncated archive at path.
func (wr *Writer) SaveToPath(path string) error {
	if err := wr.checkMutable(); err != nil {
		return err
	}

	pf, err := renameio.TempFile(filepath.Dir(path), path)
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrIoError, err)
	}
	defer pf.Cleanup()

	if err := wr.build(pf); err != nil {
		return err
	}
	wr.finalized = true

	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("%w: replace %q: %v", ErrIoError, path, err)
	}
	return nil
}

// build writes the whole archive -- placeholder header, payload region,
// entry table, and (for v2) metadata table -- to ws, then seeks back and
// overwrites the header with real offsets. Matches the teacher's
// "writers emit the header last" approach once table lengths are known.
func (wr *Writer) build(ws io.WriteSeeker) error {
	h := &header{version: wr.version, salt: wr.Salt}
	if err := writeHeader(ws, h); err != nil {
		return err
	}
	if _, err := ws.Seek(payloadRegionStart, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek to payload region: %v", ErrIoError, err)
	}

	switch wr.version {
	case VersionV1:
		dirListings := synthesizeDirectoryTree(archivePaths(wr.pending))
		return wr.buildV1(ws, dirListings)
	case VersionV2:
		// Fusion must happen before the directory tree is synthesized: a
		// dropped orphan .dds must not show up as a listed child either.
		pending, err := fuseSiblingTextures(wr.pending)
		if err != nil {
			return err
		}
		dirListings := synthesizeDirectoryTree(archivePaths(pending))
		return wr.buildV2(ws, pending, dirListings)
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, wr.version)
	}
}

func archivePaths(pending []pendingEntry) []string {
	paths := make([]string, 0, len(pending))
	for _, p := range pending {
		paths = append(paths, p.archivePath)
	}
	return paths
}

func (wr *Writer) buildV1(ws io.WriteSeeker, dirListings map[string][]string) error {
	var entries []*EntryV1

	for _, p := range wr.pending {
		entry, err := wr.writePayloadV1(ws, p.data)
		if err != nil {
			return err
		}
		entry.HashValue = HashPath(p.archivePath, wr.Salt)
		entries = append(entries, entry)
	}

	dirs := make([]string, 0, len(dirListings))
	for dir := range dirListings {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		entry, err := wr.writePayloadV1(ws, encodeDirectoryListingV1(dirListings[dir]))
		if err != nil {
			return err
		}
		entry.HashValue = HashPath(dir, wr.Salt)
		entry.Flags |= entryFlagV1Directory
		entries = append(entries, entry)
	}

	encoded := encodeEntryTableV1(entries)
	tableOffset, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("%w: tell table offset: %v", ErrIoError, err)
	}
	if _, err := ws.Write(encoded); err != nil {
		return fmt.Errorf("%w: write v1 entry table: %v", ErrIoError, err)
	}

	if _, err := ws.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek to header: %v", ErrIoError, err)
	}
	h := &header{
		version: VersionV1,
		salt:    wr.Salt,
		v1: v1HeaderTail{
			NumEntries:  uint32(len(entries)),
			StartOffset: uint32(tableOffset),
		},
	}
	return writeHeader(ws, h)
}

// writePayloadV1 compresses (if warranted) and writes data at the current
// stream position, returning an EntryV1 with Offset/Size/CompressedSize/
// Flags/CRC32 filled in. The caller still needs to set HashValue.
func (wr *Writer) writePayloadV1(ws io.WriteSeeker, data []byte) (*EntryV1, error) {
	offset, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w: tell payload offset: %v", ErrIoError, err)
	}

	payload := data
	var flags uint32
	if len(data) >= wr.CompressionThreshold && wr.CompressionLevel != CompressionNone {
		compressed, err := zlibCompress(data, wr.CompressionLevel)
		if err == nil && len(compressed) < len(data) {
			payload = compressed
			flags |= entryFlagV1Compressed
		}
	}

	if _, err := ws.Write(payload); err != nil {
		return nil, fmt.Errorf("%w: write payload: %v", ErrIoError, err)
	}

	entry := &EntryV1{
		OffsetValue:         uint64(offset),
		Flags:               flags,
		SizeValue:           uint32(len(data)),
		CompressedSizeValue: uint32(len(payload)),
	}
	if wr.ComputeChecksums {
		entry.CRC32 = crc32Checksum(data)
	}
	return entry, nil
}

func (wr *Writer) buildV2(ws io.WriteSeeker, pending []pendingEntry, dirListings map[string][]string) error {
	var entries []*EntryV2

	for _, p := range pending {
		entry, err := wr.writePayloadV2(ws, p)
		if err != nil {
			return err
		}
		entry.HashValue = HashPath(p.archivePath, wr.Salt)
		entries = append(entries, entry)
	}

	dirs := make([]string, 0, len(dirListings))
	for dir := range dirListings {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		entry, err := wr.writePayloadV2(ws, pendingEntry{data: encodeDirectoryListingV2(dirListings[dir])})
		if err != nil {
			return err
		}
		entry.HashValue = HashPath(dir, wr.Salt)
		entry.Flags |= entryFlagV2Directory
		entries = append(entries, entry)
	}

	// Every v2 entry carries a metadata-table run (spec.md §4.6): the
	// MainMetadata record it holds, not the entry table itself, is the
	// source of truth for offset/size/compressedSize on disk.
	var metaBlocks []uint32
	for _, e := range entries {
		kind := chunkPlain
		switch {
		case e.IsDirectory():
			kind = chunkDirectory
		case e.Texture != nil:
			kind = chunkImage
		}
		rec := mainMetadataRecord{
			CompressedSize: e.CompressedSizeValue,
			Size:           e.SizeValue,
			Compressed:     e.Compressed,
			OffsetBlock:    uint32(e.OffsetValue / v2PayloadAlignment),
		}
		run, err := buildMetadataRun(kind, rec, e.Texture)
		if err != nil {
			return err
		}
		e.MetadataIndex = uint32(len(metaBlocks))
		e.MetadataCount = uint16(len(run))
		metaBlocks = append(metaBlocks, run...)
	}

	encodedEntries := encodeEntryTableV2(entries)
	compressedEntries, err := zlibCompress(encodedEntries, CompressionSmallestSize)
	if err != nil {
		return err
	}
	entryTableOffset, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("%w: tell entry table offset: %v", ErrIoError, err)
	}
	if _, err := ws.Write(compressedEntries); err != nil {
		return fmt.Errorf("%w: write v2 entry table: %v", ErrIoError, err)
	}

	encodedMeta := encodeMetadataTable(metaBlocks)
	compressedMeta, err := zlibCompress(encodedMeta, CompressionSmallestSize)
	if err != nil {
		return err
	}
	metaTableOffset, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("%w: tell metadata table offset: %v", ErrIoError, err)
	}
	if _, err := ws.Write(compressedMeta); err != nil {
		return fmt.Errorf("%w: write v2 metadata table: %v", ErrIoError, err)
	}

	if _, err := ws.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek to header: %v", ErrIoError, err)
	}
	h := &header{
		version: VersionV2,
		salt:    wr.Salt,
		v2: v2HeaderTail{
			EntryTableLength:    uint32(len(compressedEntries)),
			NumMetadataEntries:  uint32(len(metaBlocks)),
			MetadataTableLength: uint32(len(compressedMeta)),
			EntryTableStart:     uint64(entryTableOffset),
			MetadataTableStart:  uint64(metaTableOffset),
			Platform:            platformPC,
		},
	}
	return writeHeader(ws, h)
}

// writePayloadV2 aligns the stream to v2PayloadAlignment, writes the
// (possibly compressed) payload, and returns an EntryV2 with
// Offset/Size/CompressedSize/Compressed/Texture filled in. The caller still
// needs to set HashValue and, for directories, the directory flag.
func (wr *Writer) writePayloadV2(ws io.WriteSeeker, p pendingEntry) (*EntryV2, error) {
	pos, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w: tell payload offset: %v", ErrIoError, err)
	}
	aligned := alignUp(uint32(pos), v2PayloadAlignment)
	if int64(aligned) != pos {
		if _, err := ws.Write(make([]byte, int64(aligned)-pos)); err != nil {
			return nil, fmt.Errorf("%w: pad to alignment: %v", ErrIoError, err)
		}
	}

	data := p.data
	payload := data
	compressed := false
	if p.texture == nil && len(data) >= wr.CompressionThreshold && wr.CompressionLevel != CompressionNone {
		c, err := zlibCompress(data, wr.CompressionLevel)
		if err == nil && len(c) < len(data) {
			payload = c
			compressed = true
		}
	}

	if _, err := ws.Write(payload); err != nil {
		return nil, fmt.Errorf("%w: write payload: %v", ErrIoError, err)
	}

	return &EntryV2{
		OffsetValue:         uint64(aligned),
		SizeValue:           uint32(len(data)),
		CompressedSizeValue: uint32(len(payload)),
		Compressed:          compressed,
		Texture:             p.texture,
	}, nil
}
