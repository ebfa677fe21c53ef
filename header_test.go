package hashfs

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeaderRoundTripV1(t *testing.T) {
	h := &header{
		version: VersionV1,
		salt:    42,
		v1:      v1HeaderTail{NumEntries: 15, StartOffset: 123456},
	}

	var buf bytes.Buffer
	if err := writeHeader(&buf, h); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}

	got, err := readHeader(&buf)
	if err != nil {
		t.Fatalf("readHeader: %v", err)
	}
	if got.version != VersionV1 || got.salt != 42 || got.v1 != h.v1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestHeaderRoundTripV2(t *testing.T) {
	h := &header{
		version: VersionV2,
		salt:    7,
		v2: v2HeaderTail{
			EntryTableLength:    100,
			NumMetadataEntries:  14,
			MetadataTableLength: 200,
			EntryTableStart:     8192,
			MetadataTableStart:  9000,
			Platform:            platformPC,
		},
	}

	var buf bytes.Buffer
	if err := writeHeader(&buf, h); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}

	got, err := readHeader(&buf)
	if err != nil {
		t.Fatalf("readHeader: %v", err)
	}
	if got.version != VersionV2 || got.salt != 7 || got.v2 != h.v2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestHeaderRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBuffer(make([]byte, 64))
	_, err := readHeader(buf)
	if !errors.Is(err, ErrNotHashFs) {
		t.Fatalf("expected ErrNotHashFs, got %v", err)
	}
}

func TestHeaderRejectsBadHashMethod(t *testing.T) {
	h := &header{version: VersionV1, v1: v1HeaderTail{NumEntries: 1, StartOffset: 4096}}
	var buf bytes.Buffer
	if err := writeHeader(&buf, h); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}
	data := buf.Bytes()
	copy(data[8:12], []byte("XXXX"))

	_, err := readHeader(bytes.NewReader(data))
	if !errors.Is(err, ErrUnsupportedHashMethod) {
		t.Fatalf("expected ErrUnsupportedHashMethod, got %v", err)
	}
}

func TestHeaderRejectsUnknownVersion(t *testing.T) {
	h := &header{version: 99}
	var buf bytes.Buffer
	// writeHeader writes the shared prelude before it discovers the
	// version is unsupported, so the buffer still has enough for
	// readHeader to dispatch on.
	_ = writeHeader(&buf, h)

	_, err := readHeader(&buf)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestHeaderRejectsNonPCPlatform(t *testing.T) {
	h := &header{
		version: VersionV2,
		v2:      v2HeaderTail{Platform: 1},
	}
	var buf bytes.Buffer
	if err := writeHeader(&buf, h); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := readHeader(&buf)
	if !errors.Is(err, ErrUnsupportedFeature) {
		t.Fatalf("expected ErrUnsupportedFeature, got %v", err)
	}
}
