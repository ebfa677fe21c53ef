// Package tobj parses and writes the compact texture-object descriptor
// HashFS texture entries store alongside their repacked DDS surface. The
// real descriptor's wire format is out of scope beyond the handful of
// fields a reader/writer needs to round-trip a repacked texture, so this
// package defines its own compact binary layout rather than guessing at
// undocumented bytes; it exists purely so surface repacking has somewhere
// to keep sampler state that isn't part of the DDS container itself.
package tobj

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// TextureType distinguishes a plain 2D texture from a cube map.
type TextureType uint8

const (
	Map2D TextureType = iota
	CubeMap
)

// Filter mirrors hashfs.TextureFilter without importing the root package
// (which itself imports tobj's sibling dds package, and must not import
// back into an internal leaf it doesn't own).
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

// AddressMode mirrors hashfs.AddressMode.
type AddressMode uint8

const (
	AddressRepeat AddressMode = iota
	AddressClamp
	AddressClampToEdge
	AddressClampToBorder
	AddressMirror
	AddressMirrorClamp
)

// Descriptor is the decoded form of a .tobj file: the sibling .dds path it
// points to, plus the sampler state a renderer would apply to it.
type Descriptor struct {
	TexturePath string
	Type        TextureType

	MagFilter Filter
	MinFilter Filter
	MipFilter Filter

	AddrU AddressMode
	AddrV AddressMode
	AddrW AddressMode
}

const magic uint32 = 0x544f424a // "TOBJ"
const version uint16 = 1

// Parse decodes a .tobj descriptor.
func Parse(r io.Reader) (*Descriptor, error) {
	var hdr struct {
		Magic   uint32
		Version uint16
		Type    uint8
		Mag     uint8
		Min     uint8
		Mip     uint8
		AddrU   uint8
		AddrV   uint8
		AddrW   uint8
		_       uint8
		PathLen uint16
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("tobj: read header: %w", err)
	}
	if hdr.Magic != magic {
		return nil, fmt.Errorf("tobj: bad magic %#x", hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("tobj: unsupported descriptor version %d", hdr.Version)
	}

	pathBytes := make([]byte, hdr.PathLen)
	if _, err := io.ReadFull(r, pathBytes); err != nil {
		return nil, fmt.Errorf("tobj: read texture path: %w", err)
	}

	return &Descriptor{
		TexturePath: string(pathBytes),
		Type:        TextureType(hdr.Type),
		MagFilter:   Filter(hdr.Mag),
		MinFilter:   Filter(hdr.Min),
		MipFilter:   Filter(hdr.Mip),
		AddrU:       AddressMode(hdr.AddrU),
		AddrV:       AddressMode(hdr.AddrV),
		AddrW:       AddressMode(hdr.AddrW),
	}, nil
}

// Write encodes d.
func Write(w io.Writer, d *Descriptor) error {
	if len(d.TexturePath) > 1<<16-1 {
		return fmt.Errorf("tobj: texture path too long (%d bytes)", len(d.TexturePath))
	}

	hdr := struct {
		Magic   uint32
		Version uint16
		Type    uint8
		Mag     uint8
		Min     uint8
		Mip     uint8
		AddrU   uint8
		AddrV   uint8
		AddrW   uint8
		_       uint8
		PathLen uint16
	}{
		Magic:   magic,
		Version: version,
		Type:    uint8(d.Type),
		Mag:     uint8(d.MagFilter),
		Min:     uint8(d.MinFilter),
		Mip:     uint8(d.MipFilter),
		AddrU:   uint8(d.AddrU),
		AddrV:   uint8(d.AddrV),
		AddrW:   uint8(d.AddrW),
		PathLen: uint16(len(d.TexturePath)),
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("tobj: write header: %w", err)
	}
	_, err := io.WriteString(w, d.TexturePath)
	return err
}

// Bytes is a convenience wrapper around Write for callers assembling an
// in-memory payload rather than streaming to an io.Writer.
func Bytes(d *Descriptor) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
