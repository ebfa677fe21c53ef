package hashfs

import (
	"strconv"

	"github.com/sk-zk/go-hashfs/internal/cityhash"
)

// Hasher computes the 64-bit table key for an archive path. spec.md treats
// the underlying hash algorithm as an external collaborator referenced
// solely by interface; Reader and Writer depend on this interface rather
// than on CityHash64 directly, even though CityHash64 (behind
// defaultHasher) is the only implementation HashFS archives ever declare
// via their "CITY" hashMethod field.
type Hasher interface {
	// HashPath returns the table key for path under the given salt.
	HashPath(path string, salt uint16) uint64
}

type cityHasher struct{}

// defaultHasher is the CityHash64 implementation backing every archive that
// declares hashMethod "CITY" (the only method this library supports).
var defaultHasher Hasher = cityHasher{}

// HashPath normalizes path (drops a leading '/'), optionally prefixes it
// with the decimal text of salt, and feeds the UTF-8 bytes to CityHash-64.
// The same normalization is used for lookups and for writing, so hashing
// "/x" and "x" under any salt always produces the same key.
func (cityHasher) HashPath(path string, salt uint16) uint64 {
	normalized := path
	if len(normalized) > 0 && normalized[0] == '/' {
		normalized = normalized[1:]
	}

	if salt == 0 {
		return cityhash.Hash64String(normalized)
	}

	buf := make([]byte, 0, len(normalized)+5)
	buf = strconv.AppendUint(buf, uint64(salt), 10)
	buf = append(buf, normalized...)
	return cityhash.Hash64(buf)
}

// HashPath hashes path the same way the archive format does, using
// CityHash-64 under the given salt. It is exposed standalone so callers can
// compute a lookup key without opening a reader.
func HashPath(path string, salt uint16) uint64 {
	return defaultHasher.HashPath(path, salt)
}
