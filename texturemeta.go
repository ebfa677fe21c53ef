// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package hashfs

import (
	"fmt"
	"math/bits"

	"github.com/sk-zk/go-hashfs/internal/dds"
)

// TextureFilter selects the sampling mode a v2 texture entry's descriptor
// requests for a given stage (spec.md §3).
type TextureFilter uint8

const (
	FilterNearest TextureFilter = iota
	FilterLinear
)

// AddressMode selects the UVW wrap behavior a texture entry's descriptor
// requests.
type AddressMode uint8

const (
	AddressRepeat AddressMode = iota
	AddressClamp
	AddressClampToEdge
	AddressClampToBorder
	AddressMirror
	AddressMirrorClamp
)

// TextureMetadata is the fused, decoded view of a v2 texture entry: the
// repacked surface's geometry plus the sampler state carried alongside it
// in the metadata table's two packed 32-bit words (spec.md §3's bit-layout
// table). Width and Height are stored on disk as (value-1) 16-bit integers;
// this struct always holds the real, unbiased dimension.
type TextureMetadata struct {
	Width          uint32
	Height         uint32
	MipmapCount    uint32
	Format         dds.Format
	IsCube         bool
	FaceCount      uint32
	PitchAlignment uint32
	ImageAlignment uint32

	MagFilter TextureFilter
	MinFilter TextureFilter
	MipFilter TextureFilter
	AddrU     AddressMode
	AddrV     AddressMode
	AddrW     AddressMode
}

// packWords encodes the two 32-bit metadata-table words per spec.md §3:
//
//	word A: [0,4)=mipmapCount-1, [4,12)=format, [12,14)=cube flag,
//	        [14,20)=faceCount-1, [20,24)=log2(pitchAlignment),
//	        [24,28)=log2(imageAlignment)
//	word B: bit 0=mag, bit 1=min, [2,4)=mipFilter, [4,7)=addrU,
//	        [7,10)=addrV, [10,13)=addrW
func (t *TextureMetadata) packWords() (wordA, wordB uint32, err error) {
	if t.MipmapCount == 0 || t.MipmapCount > 16 {
		return 0, 0, fmt.Errorf("%w: mipmapCount %d out of range", ErrTexturePacking, t.MipmapCount)
	}
	if t.FaceCount == 0 || t.FaceCount > 64 {
		return 0, 0, fmt.Errorf("%w: faceCount %d out of range", ErrTexturePacking, t.FaceCount)
	}
	pitchLog2, err := log2Alignment(t.PitchAlignment)
	if err != nil {
		return 0, 0, err
	}
	imageLog2, err := log2Alignment(t.ImageAlignment)
	if err != nil {
		return 0, 0, err
	}

	var a BitFlagField
	a = a.Set(0, 4, t.MipmapCount-1)
	a = a.Set(4, 8, uint32(t.Format))
	a = a.SetBool(12, t.IsCube)
	a = a.Set(14, 6, t.FaceCount-1)
	a = a.Set(20, 4, pitchLog2)
	a = a.Set(24, 4, imageLog2)

	var b BitFlagField
	b = b.SetBool(0, t.MagFilter == FilterLinear)
	b = b.SetBool(1, t.MinFilter == FilterLinear)
	b = b.Set(2, 2, uint32(t.MipFilter))
	b = b.Set(4, 3, uint32(t.AddrU))
	b = b.Set(7, 3, uint32(t.AddrV))
	b = b.Set(10, 3, uint32(t.AddrW))

	return uint32(a), uint32(b), nil
}

// unpackWords decodes wordA/wordB into a new TextureMetadata, along with the
// value-1-biased width/height already read from the Image chunk's packed
// dimensions block.
func unpackWords(width16, height16 uint16, wordA, wordB uint32) *TextureMetadata {
	a := BitFlagField(wordA)
	b := BitFlagField(wordB)

	t := &TextureMetadata{
		Width:          uint32(width16) + 1,
		Height:         uint32(height16) + 1,
		MipmapCount:    a.Get(0, 4) + 1,
		Format:         dds.Format(a.Get(4, 8)),
		IsCube:         a.GetBool(12),
		FaceCount:      a.Get(14, 6) + 1,
		PitchAlignment: 1 << a.Get(20, 4),
		ImageAlignment: 1 << a.Get(24, 4),
		MipFilter:      TextureFilter(b.Get(2, 2)),
		AddrU:          AddressMode(b.Get(4, 3)),
		AddrV:          AddressMode(b.Get(7, 3)),
		AddrW:          AddressMode(b.Get(10, 3)),
	}
	if b.GetBool(0) {
		t.MagFilter = FilterLinear
	}
	if b.GetBool(1) {
		t.MinFilter = FilterLinear
	}
	return t
}

// log2Alignment requires a to be a power of two no larger than 1<<15 and
// returns its base-2 logarithm, the form the metadata table stores it in.
func log2Alignment(a uint32) (uint32, error) {
	if a == 0 || bits.OnesCount32(a) != 1 {
		return 0, fmt.Errorf("%w: alignment %d is not a power of two", ErrTexturePacking, a)
	}
	shift := bits.TrailingZeros32(a)
	if shift > 15 {
		return 0, fmt.Errorf("%w: alignment %d too large", ErrTexturePacking, a)
	}
	return uint32(shift), nil
}
