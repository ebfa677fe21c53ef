// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

/*
Package hashfs provides pure Go support for reading and writing HashFS
archives, the flat, single-file container format used to ship game assets
for a well-known driving-simulator franchise's .scs archives.

HashFS keys every entry by a salted 64-bit CityHash-64 of its archive
path rather than storing paths directly; directory listings are
synthesized side entries rather than filesystem metadata. This package
supports both on-disk revisions:

  - V1: a flat, uncompressed, fixed-stride entry table.
  - V2: a zlib-compressed entry table, a separate chunked metadata table,
    16-byte payload alignment, and texture entries that fuse a DDS
    surface with its sampler/mip/cube-face layout.

# Features

  - Pure Go implementation, no CGO
  - Read and write HashFS archives, V1 and V2
  - Zlib payload and table compression
  - V2 texture entry repacking: given a .tobj/.dds pair, produces the
    fused payload and TextureMetadata a real archive stores, and the
    inverse on read
  - Chain, a prioritized read-only overlay across multiple archives, for
    base game + DLC + mod layering

# Basic usage

Writing an archive:

	w := hashfs.NewWriterV2()
	if err := w.AddFile("local/model.pmg", "/vehicle/truck/model.pmg"); err != nil {
		log.Fatal(err)
	}
	if err := w.SaveToPath("mod.scs"); err != nil {
		log.Fatal(err)
	}

Reading an archive:

	r, err := hashfs.Open("base.scs")
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	if r.FileExists("/vehicle/truck/model.pmg") {
		data, err := r.Extract("/vehicle/truck/model.pmg")
		if err != nil {
			log.Fatal(err)
		}
		_ = data
	}

Layering base game, DLC, and mod archives so later entries shadow earlier
ones:

	chain, err := hashfs.OpenChain([]string{"base.scs", "dlc.scs", "mod.scs"})
	if err != nil {
		log.Fatal(err)
	}
	defer chain.Close()

	data, err := chain.Extract("/vehicle/truck/model.pmg")

# Path conventions

HashFS paths use forward slashes and are always rooted ("/vehicle/truck",
not "vehicle/truck"). [Reader], [Writer], and [Chain] validate paths the
same way on every call; see [ErrInvalidArchivePath].

# Limitations

This package focuses on reading and writing complete archives in one pass:

  - No in-place mutation of an already-written archive
  - No encryption (HashFS tables are never encrypted)
  - No cross-version conversion between V1 and V2
*/
package hashfs
