// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package hashfs

import (
	"fmt"
	"strings"
)

// Chain is a prioritized, read-only stack of archives: a mod-loading or
// base-game-plus-DLC overlay where later archives shadow earlier ones for
// any path they both contain. This has no counterpart in spec.md's own
// module list; it generalizes the teacher's PatchChain with HashFS's own
// semantics, dropping the teacher's patch-specific delete markers (HashFS
// has no such concept) in favor of plain last-writer-wins shadowing.
type Chain struct {
	readers []*Reader
}

// OpenChain opens every archive in paths, lowest priority first. The last
// path in the list wins any lookup conflict.
func OpenChain(paths []string) (*Chain, error) {
	readers := make([]*Reader, 0, len(paths))
	for _, path := range paths {
		r, err := Open(path)
		if err != nil {
			for _, opened := range readers {
				_ = opened.Close()
			}
			return nil, fmt.Errorf("open %q in chain: %w", path, err)
		}
		readers = append(readers, r)
	}
	return &Chain{readers: readers}, nil
}

// Close closes every archive in the chain. It returns the first error
// encountered but attempts to close all of them regardless.
func (c *Chain) Close() error {
	var firstErr error
	for _, r := range c.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// highestPriorityWith returns the highest-priority Reader that has an
// entry at path, or nil if none does.
func (c *Chain) highestPriorityWith(path string) *Reader {
	for i := len(c.readers) - 1; i >= 0; i-- {
		if c.readers[i].EntryExists(path) {
			return c.readers[i]
		}
	}
	return nil
}

// EntryExists reports whether path exists in any archive in the chain.
func (c *Chain) EntryExists(path string) bool {
	return c.highestPriorityWith(path) != nil
}

// GetEntry returns the highest-priority Entry at path across the chain.
func (c *Chain) GetEntry(path string) (Entry, error) {
	r := c.highestPriorityWith(path)
	if r == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return r.GetEntry(path)
}

// Extract extracts the highest-priority version of path.
func (c *Chain) Extract(path string) ([]byte, error) {
	r := c.highestPriorityWith(path)
	if r == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return r.Extract(path)
}

// ExtractToFile extracts the highest-priority version of path to outputPath.
func (c *Chain) ExtractToFile(path, outputPath string) error {
	r := c.highestPriorityWith(path)
	if r == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return r.ExtractToFile(path, outputPath)
}

// GetDirectoryListing returns the union of a directory's children across
// the whole chain, as the overlay would actually expose them, with
// higher-priority archives' entries taking precedence wherever a name
// collides between a file and a directory.
func (c *Chain) GetDirectoryListing(dir string) ([]string, error) {
	seen := make(map[string]struct{})
	var names []string
	var found bool

	for i := len(c.readers) - 1; i >= 0; i-- {
		listing, err := c.readers[i].GetDirectoryListing(dir, RelativeNames())
		if err != nil {
			continue
		}
		found = true
		for _, name := range listing {
			// Subdirectories carry a leading "/"; key on the bare name so a
			// file and a directory of the same name collide.
			key := strings.TrimPrefix(name, "/")
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			names = append(names, name)
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, dir)
	}
	return names, nil
}

// Len reports how many archives are in the chain.
func (c *Chain) Len() int { return len(c.readers) }
