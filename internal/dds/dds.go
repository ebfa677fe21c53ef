// Package dds parses and builds DirectDraw Surface containers with the DX10
// extended header, and computes per-surface pitch/slice-pitch for the pixel
// layouts HashFS texture entries can hold. It is the "external collaborator"
// for the DDS/DXGI side of surface repacking, deliberately kept independent
// of the archive codec itself (grounded on the DDS/DXGI constants surveyed
// in the example corpus's texture-parsing reference code).
package dds

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Format mirrors the subset of the Microsoft DXGI_FORMAT enumeration that
// HashFS texture entries can carry.
type Format uint32

const (
	FormatUnknown           Format = 0
	FormatR32G32B32A32Float Format = 2
	FormatR16G16B16A16Float Format = 10
	FormatR8G8B8A8UNorm     Format = 28
	FormatR8G8B8A8UNormSRGB Format = 29
	FormatR8UNorm           Format = 61
	FormatBC1UNorm          Format = 71
	FormatBC1UNormSRGB      Format = 72
	FormatBC2UNorm          Format = 74
	FormatBC2UNormSRGB      Format = 75
	FormatBC3UNorm          Format = 77
	FormatBC3UNormSRGB      Format = 78
	FormatBC4UNorm          Format = 80
	FormatBC4SNorm          Format = 81
	FormatBC5UNorm          Format = 83
	FormatBC5SNorm          Format = 84
	FormatB8G8R8A8UNorm     Format = 87
	FormatB8G8R8X8UNorm     Format = 88
	FormatBC6HUF16          Format = 95
	FormatBC6HSF16          Format = 96
	FormatBC7UNorm          Format = 98
	FormatBC7UNormSRGB      Format = 99
)

func (f Format) String() string {
	switch f {
	case FormatR32G32B32A32Float:
		return "R32G32B32A32_FLOAT"
	case FormatR16G16B16A16Float:
		return "R16G16B16A16_FLOAT"
	case FormatR8G8B8A8UNorm:
		return "R8G8B8A8_UNORM"
	case FormatR8G8B8A8UNormSRGB:
		return "R8G8B8A8_UNORM_SRGB"
	case FormatR8UNorm:
		return "R8_UNORM"
	case FormatBC1UNorm:
		return "BC1_UNORM"
	case FormatBC1UNormSRGB:
		return "BC1_UNORM_SRGB"
	case FormatBC2UNorm:
		return "BC2_UNORM"
	case FormatBC2UNormSRGB:
		return "BC2_UNORM_SRGB"
	case FormatBC3UNorm:
		return "BC3_UNORM"
	case FormatBC3UNormSRGB:
		return "BC3_UNORM_SRGB"
	case FormatBC4UNorm:
		return "BC4_UNORM"
	case FormatBC4SNorm:
		return "BC4_SNORM"
	case FormatBC5UNorm:
		return "BC5_UNORM"
	case FormatBC5SNorm:
		return "BC5_SNORM"
	case FormatB8G8R8A8UNorm:
		return "B8G8R8A8_UNORM"
	case FormatB8G8R8X8UNorm:
		return "B8G8R8X8_UNORM"
	case FormatBC6HUF16:
		return "BC6H_UF16"
	case FormatBC6HSF16:
		return "BC6H_SF16"
	case FormatBC7UNorm:
		return "BC7_UNORM"
	case FormatBC7UNormSRGB:
		return "BC7_UNORM_SRGB"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint32(f))
	}
}

// IsBlockCompressed reports whether f is one of the BCn families, which are
// stored and pitched in 4x4 texel blocks rather than per-pixel.
func (f Format) IsBlockCompressed() bool {
	switch f {
	case FormatBC1UNorm, FormatBC1UNormSRGB, FormatBC2UNorm, FormatBC2UNormSRGB,
		FormatBC3UNorm, FormatBC3UNormSRGB, FormatBC4UNorm, FormatBC4SNorm,
		FormatBC5UNorm, FormatBC5SNorm, FormatBC6HUF16, FormatBC6HSF16,
		FormatBC7UNorm, FormatBC7UNormSRGB:
		return true
	default:
		return false
	}
}

// bytesPerBlock returns the block size in bytes for a block-compressed
// format: 8 for BC1/BC4, 16 for everything else in the BCn family.
func (f Format) bytesPerBlock() uint32 {
	switch f {
	case FormatBC1UNorm, FormatBC1UNormSRGB, FormatBC4UNorm, FormatBC4SNorm:
		return 8
	default:
		return 16
	}
}

// bitsPerPixel returns the uncompressed bit depth for non-block formats.
func (f Format) bitsPerPixel() uint32 {
	switch f {
	case FormatR32G32B32A32Float:
		return 128
	case FormatR16G16B16A16Float:
		return 64
	case FormatR8G8B8A8UNorm, FormatR8G8B8A8UNormSRGB,
		FormatB8G8R8A8UNorm, FormatB8G8R8X8UNorm:
		return 32
	case FormatR8UNorm:
		return 8
	default:
		return 32
	}
}

// SurfaceInfo computes the row pitch and total slice size of one mip level
// at the given dimensions, per the Microsoft BitsPerPixel/row-pitch
// conventions: BCn formats round up to 4x4 blocks, everything else pitches
// at ((width*bpp + 7) / 8) bytes per row.
func SurfaceInfo(width, height uint32, format Format) (rowPitch, slicePitch uint32) {
	if format.IsBlockCompressed() {
		blocksWide := (width + 3) / 4
		if blocksWide < 1 {
			blocksWide = 1
		}
		blocksHigh := (height + 3) / 4
		if blocksHigh < 1 {
			blocksHigh = 1
		}
		rowPitch = blocksWide * format.bytesPerBlock()
		slicePitch = rowPitch * blocksHigh
		return
	}

	bpp := format.bitsPerPixel()
	rowPitch = (width*bpp + 7) / 8
	slicePitch = rowPitch * height
	return
}

// MipDimension halves a mip-chain dimension, floored at 1.
func MipDimension(d uint32, mipLevel int) uint32 {
	for i := 0; i < mipLevel; i++ {
		if d > 1 {
			d /= 2
		}
	}
	if d < 1 {
		d = 1
	}
	return d
}

const (
	magic                uint32 = 0x20534444 // "DDS "
	headerSize           uint32 = 124
	pixelFormatSize      uint32 = 32
	dx10HeaderSize       uint32 = 20
	fourCCDX10           uint32 = 0x30315844 // "DX10"
	flagCaps             uint32 = 0x1
	flagHeight           uint32 = 0x2
	flagWidth            uint32 = 0x4
	flagPitch            uint32 = 0x8
	flagPixelFormat      uint32 = 0x1000
	flagMipmapCount      uint32 = 0x20000
	flagLinearSize       uint32 = 0x80000
	capsTexture          uint32 = 0x1000
	capsMipmap           uint32 = 0x400000
	caps2Cubemap         uint32 = 0x200
	caps2CubemapAllFace  uint32 = 0xFE00
	pixelFlagsFourCC     uint32 = 0x4
	resourceDimTexture2D uint32 = 3
	miscFlagTextureCube  uint32 = 0x4
)

// Header is a fully decoded DDS container: the legacy header plus the
// mandatory DX10 extension. HashFS never emits or accepts legacy (non-DX10)
// fourCC formats, so there is no branch for them here.
type Header struct {
	Width       uint32
	Height      uint32
	MipmapCount uint32
	Format      Format
	IsCubeMap   bool
	ArraySize   uint32
}

// Parse decodes a DDS file's magic, header, and DX10 extension and returns
// the header; r is left positioned at the start of the surface payload.
func Parse(r io.Reader) (*Header, error) {
	var rawMagic uint32
	if err := binary.Read(r, binary.LittleEndian, &rawMagic); err != nil {
		return nil, fmt.Errorf("read dds magic: %w", err)
	}
	if rawMagic != magic {
		return nil, fmt.Errorf("not a DDS container (bad magic %#x)", rawMagic)
	}

	var raw [31]uint32 // dwSize..dwReserved1[11] through caps fields, see layout below
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return nil, fmt.Errorf("read dds header: %w", err)
	}
	// raw layout indices: 0 size,1 flags,2 height,3 width,4 pitch,5 depth,
	// 6 mipmapcount, 7..17 reserved1[11], 18 pf.size, 19 pf.flags,
	// 20 pf.fourCC, 21..25 pf.bitmasks(5), 26 caps, 27 caps2, 28 caps3,
	// 29 caps4, 30 reserved2.
	if raw[0] != headerSize {
		return nil, fmt.Errorf("unexpected dds header size %d", raw[0])
	}
	if raw[18] != pixelFormatSize || raw[19]&pixelFlagsFourCC == 0 || raw[20] != fourCCDX10 {
		return nil, fmt.Errorf("dds container is not DX10-extended")
	}

	var dx10 [5]uint32
	if err := binary.Read(r, binary.LittleEndian, &dx10); err != nil {
		return nil, fmt.Errorf("read dx10 header: %w", err)
	}
	// dx10 layout: 0 dxgiFormat, 1 resourceDimension, 2 miscFlag, 3 arraySize, 4 miscFlags2.

	h := &Header{
		Width:       raw[3],
		Height:      raw[2],
		MipmapCount: raw[6],
		Format:      Format(dx10[0]),
		IsCubeMap:   dx10[2]&miscFlagTextureCube != 0,
		ArraySize:   dx10[3],
	}
	if h.MipmapCount == 0 {
		h.MipmapCount = 1
	}
	if h.ArraySize == 0 {
		h.ArraySize = 1
	}
	return h, nil
}

// Write encodes the DDS magic, header, and DX10 extension for h, followed
// by the raw surface payload.
func Write(w io.Writer, h *Header, payload []byte) error {
	if err := binary.Write(w, binary.LittleEndian, magic); err != nil {
		return err
	}

	_, linearSize := SurfaceInfo(h.Width, h.Height, h.Format)
	flags := flagCaps | flagHeight | flagWidth | flagPixelFormat | flagLinearSize
	if h.MipmapCount > 1 {
		flags |= flagMipmapCount
	}
	if !h.Format.IsBlockCompressed() {
		flags |= flagPitch
	}

	caps := capsTexture
	if h.MipmapCount > 1 {
		caps |= capsMipmap
	}
	caps2 := uint32(0)
	if h.IsCubeMap {
		caps2 = caps2Cubemap | caps2CubemapAllFace
	}

	raw := [31]uint32{
		0:  headerSize,
		1:  flags,
		2:  h.Height,
		3:  h.Width,
		4:  linearSize,
		6:  h.MipmapCount,
		18: pixelFormatSize,
		19: pixelFlagsFourCC,
		20: fourCCDX10,
		26: caps,
		27: caps2,
	}
	if err := binary.Write(w, binary.LittleEndian, &raw); err != nil {
		return err
	}

	miscFlag := uint32(0)
	if h.IsCubeMap {
		miscFlag = miscFlagTextureCube
	}
	dx10 := [5]uint32{
		0: uint32(h.Format),
		1: resourceDimTexture2D,
		2: miscFlag,
		3: h.ArraySize,
	}
	if err := binary.Write(w, binary.LittleEndian, &dx10); err != nil {
		return err
	}

	_, err := w.Write(payload)
	return err
}

// HeaderLength is the total byte length of a DX10-extended DDS header
// (magic + legacy header + DX10 extension), i.e. where the surface payload
// begins.
const HeaderLength = 4 + headerSize + dx10HeaderSize
