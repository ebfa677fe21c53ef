// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package hashfs

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sk-zk/go-hashfs/internal/dds"
	"github.com/sk-zk/go-hashfs/internal/tobj"
)

// surfaceRegion describes where one (face, mip) slice of a repacked
// texture lives in the archive's padded payload, versus its tightly
// packed size in a standalone DDS file.
type surfaceRegion struct {
	Face, Mip     int
	ArchiveOffset uint32
	RowPitch      uint32
	TightSize     uint32
}

// alignUp rounds v up to the next multiple of align (align<=1 is a no-op).
func alignUp(v, align uint32) uint32 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}

// buildSurfaceLayout walks the face x mip grid of a texture, in the same
// face-major, mip-minor order a standalone DDS container stores them in,
// computing each slice's padded offset within the archive's fused
// surface payload.
func buildSurfaceLayout(meta *TextureMetadata) (regions []surfaceRegion, archiveSize uint32) {
	var offset uint32
	for face := 0; face < int(meta.FaceCount); face++ {
		for mip := 0; mip < int(meta.MipmapCount); mip++ {
			w := dds.MipDimension(meta.Width, mip)
			h := dds.MipDimension(meta.Height, mip)
			rowPitch, slicePitch := dds.SurfaceInfo(w, h, meta.Format)

			paddedRowPitch := alignUp(rowPitch, meta.PitchAlignment)
			numRows := uint32(0)
			if rowPitch > 0 {
				numRows = slicePitch / rowPitch
			}
			paddedSlicePitch := paddedRowPitch * numRows

			start := alignUp(offset, meta.ImageAlignment)
			regions = append(regions, surfaceRegion{
				Face: face, Mip: mip,
				ArchiveOffset: start,
				RowPitch:      paddedRowPitch,
				TightSize:     slicePitch,
			})
			offset = start + paddedSlicePitch
		}
	}
	return regions, offset
}

func hasExtension(path, ext string) bool {
	return strings.HasSuffix(strings.ToLower(path), ext)
}

func siblingSurfacePath(tobjPath string) string {
	return strings.TrimSuffix(tobjPath, ".tobj") + ".dds"
}

// RepackTextureForArchive validates and converts the bytes of a (.tobj,
// .dds) pair into the fused form a v2 texture entry stores:
// a TextureMetadata descriptor and the payload bytes written at the
// entry's offset (spec.md §6). The source DDS must be a DX10-extended
// container; legacy fourCC-only DDS files are rejected outright, as is
// any .tobj not paired with a same-named sibling .dds.
func RepackTextureForArchive(tobjPath string, tobjData, ddsData []byte) (*TextureMetadata, []byte, error) {
	if !hasExtension(tobjPath, ".tobj") {
		return nil, nil, fmt.Errorf("%w: %q is not a .tobj path", ErrTexturePacking, tobjPath)
	}
	if len(ddsData) == 0 {
		return nil, nil, fmt.Errorf("%w: %q has no sibling surface", ErrTexturePacking, siblingSurfacePath(tobjPath))
	}

	desc, err := tobj.Parse(bytes.NewReader(tobjData))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parse descriptor: %v", ErrTexturePacking, err)
	}

	hdr, err := dds.Parse(bytes.NewReader(ddsData))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parse surface: %v", ErrTexturePacking, err)
	}
	tightPayload := ddsData[dds.HeaderLength:]

	faceCount := uint32(1)
	if hdr.IsCubeMap {
		faceCount = 6
	}

	meta := &TextureMetadata{
		Width:          hdr.Width,
		Height:         hdr.Height,
		MipmapCount:    hdr.MipmapCount,
		Format:         hdr.Format,
		IsCube:         hdr.IsCubeMap,
		FaceCount:      faceCount,
		PitchAlignment: 1,
		ImageAlignment: 1,
		MagFilter:      textureFilterFrom(desc.MagFilter),
		MinFilter:      textureFilterFrom(desc.MinFilter),
		MipFilter:      textureFilterFrom(desc.MipFilter),
		AddrU:          addressModeFrom(desc.AddrU),
		AddrV:          addressModeFrom(desc.AddrV),
		AddrW:          addressModeFrom(desc.AddrW),
	}

	regions, archiveSize := buildSurfaceLayout(meta)
	payload := make([]byte, archiveSize)

	var tightOffset uint32
	for _, r := range regions {
		if tightOffset+r.TightSize > uint32(len(tightPayload)) {
			return nil, nil, fmt.Errorf("%w: surface data truncated at face %d mip %d", ErrTexturePacking, r.Face, r.Mip)
		}
		copy(payload[r.ArchiveOffset:r.ArchiveOffset+r.TightSize], tightPayload[tightOffset:tightOffset+r.TightSize])
		tightOffset += r.TightSize
	}

	return meta, payload, nil
}

// UnpackTextureFromArchive is the inverse of RepackTextureForArchive: given
// a v2 texture entry's fused TextureMetadata and its archive payload, it
// reconstructs a standalone .tobj descriptor and .dds surface byte for byte
// equivalent (modulo alignment padding) to what a non-archived copy of the
// asset would look like.
func UnpackTextureFromArchive(archivePath string, meta *TextureMetadata, payload []byte) (tobjData, ddsData []byte, err error) {
	regions, _ := buildSurfaceLayout(meta)

	var tight bytes.Buffer
	for _, r := range regions {
		if int(r.ArchiveOffset+r.TightSize) > len(payload) {
			return nil, nil, fmt.Errorf("%w: surface region face %d mip %d out of bounds", ErrTexturePacking, r.Face, r.Mip)
		}
		tight.Write(payload[r.ArchiveOffset : r.ArchiveOffset+r.TightSize])
	}

	hdr := &dds.Header{
		Width:       meta.Width,
		Height:      meta.Height,
		MipmapCount: meta.MipmapCount,
		Format:      meta.Format,
		IsCubeMap:   meta.IsCube,
		ArraySize:   1,
	}
	var ddsBuf bytes.Buffer
	if err := dds.Write(&ddsBuf, hdr, tight.Bytes()); err != nil {
		return nil, nil, fmt.Errorf("%w: write surface: %v", ErrTexturePacking, err)
	}

	texType := tobj.Map2D
	if meta.IsCube {
		texType = tobj.CubeMap
	}
	desc := &tobj.Descriptor{
		TexturePath: siblingSurfacePath(archivePath),
		Type:        texType,
		MagFilter:   tobj.Filter(meta.MagFilter),
		MinFilter:   tobj.Filter(meta.MinFilter),
		MipFilter:   tobj.Filter(meta.MipFilter),
		AddrU:       tobj.AddressMode(meta.AddrU),
		AddrV:       tobj.AddressMode(meta.AddrV),
		AddrW:       tobj.AddressMode(meta.AddrW),
	}
	tobjBytes, err := tobj.Bytes(desc)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: write descriptor: %v", ErrTexturePacking, err)
	}

	return tobjBytes, ddsBuf.Bytes(), nil
}

func textureFilterFrom(f tobj.Filter) TextureFilter { return TextureFilter(f) }
func addressModeFrom(a tobj.AddressMode) AddressMode { return AddressMode(a) }
