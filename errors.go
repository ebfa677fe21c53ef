package hashfs

import "errors"

// Sentinel errors for the taxonomy in spec.md §7. Callers discriminate
// failures with errors.Is; every returned error wraps one of these with
// fmt.Errorf("%w: ...", ErrX) so the original cause string survives.
var (
	// ErrNotHashFs means the header magic did not match.
	ErrNotHashFs = errors.New("hashfs: not a HashFS archive")

	// ErrUnsupportedVersion means the header version was not 1 or 2.
	ErrUnsupportedVersion = errors.New("hashfs: unsupported archive version")

	// ErrUnsupportedHashMethod means hashMethod was not "CITY".
	ErrUnsupportedHashMethod = errors.New("hashfs: unsupported hash method")

	// ErrUnsupportedFeature covers encryption, non-PC platforms, and
	// unknown metadata chunk types.
	ErrUnsupportedFeature = errors.New("hashfs: unsupported feature")

	// ErrCorruptTable means a table or metadata chunk was truncated or
	// internally inconsistent.
	ErrCorruptTable = errors.New("hashfs: corrupt table")

	// ErrNotFound means a lookup or directory listing found nothing at the
	// given path.
	ErrNotFound = errors.New("hashfs: not found")

	// ErrIsDirectory means a file-only operation was used on a directory
	// entry.
	ErrIsDirectory = errors.New("hashfs: is a directory")

	// ErrNotDirectory means a directory-only operation was used on a file
	// entry.
	ErrNotDirectory = errors.New("hashfs: not a directory")

	// ErrInvalidArchivePath means a path given to Add was empty, "/", or
	// had a path component longer than 255 bytes.
	ErrInvalidArchivePath = errors.New("hashfs: invalid archive path")

	// ErrTexturePacking covers every failure mode of the v2 texture
	// repacker: missing surface file, wrong file type, unsupported surface
	// subformat, invalid surface bytes.
	ErrTexturePacking = errors.New("hashfs: texture packing failed")

	// ErrIoError wraps an underlying stream failure.
	ErrIoError = errors.New("hashfs: io error")

	// ErrClosed means an operation other than Close was attempted on a
	// Reader that has already been closed, or Save/Add was attempted on a
	// Writer that has already been finalized.
	ErrClosed = errors.New("hashfs: archive is closed")
)
