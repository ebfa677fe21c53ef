// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package hashfs

import (
	"fmt"
	"strings"
)

// maxPathComponentLength is the longest a single "/"-separated path
// component may be; this mirrors the 255-byte filename ceiling most
// filesystems the archive is extracted onto also enforce.
const maxPathComponentLength = 255

// validateArchivePath checks an archive-relative path against the rules
// every Reader/Writer path operation shares (spec.md §4.9): non-empty, not
// the bare root, and no "/"-component longer than 255 bytes.
func validateArchivePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: path is empty", ErrInvalidArchivePath)
	}
	if path == "/" {
		return fmt.Errorf("%w: path is the archive root", ErrInvalidArchivePath)
	}

	trimmed := strings.TrimPrefix(path, "/")
	for _, component := range strings.Split(trimmed, "/") {
		if component == "" {
			return fmt.Errorf("%w: path %q contains an empty component", ErrInvalidArchivePath, path)
		}
		if len(component) > maxPathComponentLength {
			return fmt.Errorf("%w: path component %q exceeds %d bytes", ErrInvalidArchivePath, component, maxPathComponentLength)
		}
	}
	return nil
}
