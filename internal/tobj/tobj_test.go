package tobj

import (
	"bytes"
	"testing"
)

func TestDescriptorRoundTrip(t *testing.T) {
	d := &Descriptor{
		TexturePath: "/model/simple_cube/cubetx.dds",
		Type:        CubeMap,
		MagFilter:   FilterLinear,
		MinFilter:   FilterLinear,
		MipFilter:   FilterNearest,
		AddrU:       AddressClamp,
		AddrV:       AddressClampToEdge,
		AddrW:       AddressMirror,
	}

	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if *got != *d {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, d)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBuffer(make([]byte, 32))
	if _, err := Parse(buf); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestBytesHelper(t *testing.T) {
	d := &Descriptor{TexturePath: "/a.dds", Type: Map2D}
	data, err := Bytes(d)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	got, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.TexturePath != d.TexturePath {
		t.Fatalf("TexturePath = %q, want %q", got.TexturePath, d.TexturePath)
	}
}
