package cityhash

import "testing"

func TestHash64Empty(t *testing.T) {
	// The empty-string hash is a fixed constant for this algorithm family;
	// mainly a smoke test that Hash64 doesn't panic on boundary lengths.
	if Hash64(nil) != Hash64([]byte{}) {
		t.Fatalf("nil and empty slice should hash the same")
	}
}

func TestHash64Deterministic(t *testing.T) {
	cases := []string{
		"",
		"a",
		"ab",
		"abcd",
		"kasefondue.txt",
		"käsefondue.txt",
		"/a/b/c/def/world/model.tests.sii",
		"this string is exactly sixty four bytes long for boundary tests!",
		"this string is considerably longer than sixty four bytes so it exercises the main loop of the algorithm more than once, which is the whole point",
	}
	for _, c := range cases {
		h1 := Hash64String(c)
		h2 := Hash64String(c)
		if h1 != h2 {
			t.Fatalf("hash of %q not deterministic: %d != %d", c, h1, h2)
		}
	}
}

func TestHash64DistinctInputsDiffer(t *testing.T) {
	a := Hash64String("/model/simple_cube/cubetx.tobj")
	b := Hash64String("/model/simple_cube/cubetx.dds")
	if a == b {
		t.Fatalf("expected distinct hashes for distinct paths")
	}
}

func TestHash64LengthBoundaries(t *testing.T) {
	// Exercise every branch of the length dispatch: 0, <16, ==16, <32, ==32,
	// <64, ==64, >64.
	for _, n := range []int{0, 1, 8, 15, 16, 17, 31, 32, 33, 63, 64, 65, 200} {
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = byte(i * 7)
		}
		_ = Hash64(buf) // must not panic
	}
}
