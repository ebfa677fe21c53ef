// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package hashfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"
)

// synthesizeDirectoryTree walks a flat list of archive-relative file paths
// and derives the implicit directory hierarchy HashFS never stores
// explicitly (spec.md §4.8): every path component up to the last is a
// directory, including the root "/", and each directory's listing holds
// the names of its immediate children only.
//
// The returned map is keyed by normalized directory path ("/" for the
// root, "/foo" for a top-level directory, etc.) to the sorted names of
// its direct children. A child that is itself a directory is recorded
// with a leading "/" so listing codecs can tell files and subdirectories
// apart without a second lookup.
func synthesizeDirectoryTree(archivePaths []string) map[string][]string {
	children := make(map[string]map[string]struct{})

	ensure := func(dir string) map[string]struct{} {
		m, ok := children[dir]
		if !ok {
			m = make(map[string]struct{})
			children[dir] = m
		}
		return m
	}
	ensure("/")

	for _, p := range archivePaths {
		trimmed := strings.TrimPrefix(p, "/")
		parts := strings.Split(trimmed, "/")

		dir := "/"
		for i, part := range parts {
			isLast := i == len(parts)-1
			if isLast {
				ensure(dir)[part] = struct{}{}
				break
			}

			childDir := dir + part
			if dir != "/" {
				childDir = dir + "/" + part
			}
			ensure(dir)["/"+part] = struct{}{}
			ensure(childDir)
			dir = childDir
		}
	}

	result := make(map[string][]string, len(children))
	for dir, set := range children {
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		result[dir] = names
	}
	return result
}

// encodeDirectoryListingV1 renders a directory listing as the v1 text
// format: one child name per line, "\n"-terminated, subdirectories carrying
// their "/" prefix.
func encodeDirectoryListingV1(names []string) []byte {
	var buf bytes.Buffer
	for _, name := range names {
		buf.WriteString(name)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// decodeDirectoryListingV1 parses the v1 text listing format back into
// child names.
func decodeDirectoryListingV1(data []byte) []string {
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// encodeDirectoryListingV2 renders a directory listing as the v2 binary
// format: a u32 count followed by single-byte-length-prefixed UTF-8 name
// bytes. validateArchivePath already caps a single path component at 255
// bytes, so the length always fits the byte.
func encodeDirectoryListingV2(names []string) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(names)))
	for _, name := range names {
		buf.WriteByte(byte(len(name)))
		buf.WriteString(name)
	}
	return buf.Bytes()
}

// decodeDirectoryListingV2 parses the v2 binary listing format.
func decodeDirectoryListingV2(data []byte) ([]string, error) {
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: directory listing: read count: %v", ErrCorruptTable, err)
	}

	names := make([]string, count)
	for i := range names {
		length, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: directory listing entry %d: read length: %v", ErrCorruptTable, i, err)
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: directory listing entry %d: read name: %v", ErrCorruptTable, i, err)
		}
		names[i] = string(buf)
	}
	return names, nil
}

// joinArchivePath joins a directory path and a child name the same way
// synthesizeDirectoryTree derived them, for callers walking a listing
// result back into full paths.
func joinArchivePath(dir, name string) string {
	name = strings.TrimPrefix(name, "/")
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}
