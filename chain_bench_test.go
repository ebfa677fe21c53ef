package hashfs

import (
	"fmt"
	"path/filepath"
	"testing"
)

func buildBenchChain(b *testing.B, numArchives, filesPerArchive int) []string {
	b.Helper()
	dir := b.TempDir()
	paths := make([]string, 0, numArchives)

	for i := 0; i < numArchives; i++ {
		w := NewWriterV1()
		for j := 0; j < filesPerArchive; j++ {
			path := fmt.Sprintf("/archive_%d/file_%d.txt", i, j)
			if err := w.AddBytes([]byte("benchmark payload"), path); err != nil {
				b.Fatalf("AddBytes: %v", err)
			}
		}
		archivePath := filepath.Join(dir, fmt.Sprintf("archive_%d.scs", i))
		if err := w.SaveToPath(archivePath); err != nil {
			b.Fatalf("SaveToPath: %v", err)
		}
		paths = append(paths, archivePath)
	}
	return paths
}

// BenchmarkChainEntryExists measures lookup cost across a realistic
// base+DLC+mods overlay depth.
func BenchmarkChainEntryExists(b *testing.B) {
	paths := buildBenchChain(b, 5, 20)
	chain, err := OpenChain(paths)
	if err != nil {
		b.Fatalf("OpenChain: %v", err)
	}
	defer chain.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		chain.EntryExists("/archive_0/file_0.txt")
		chain.EntryExists("/archive_4/file_19.txt")
		chain.EntryExists("/does/not/exist.txt")
	}
}

// BenchmarkChainExtract measures extraction cost walking from the
// highest-priority archive down.
func BenchmarkChainExtract(b *testing.B) {
	paths := buildBenchChain(b, 3, 10)
	chain, err := OpenChain(paths)
	if err != nil {
		b.Fatalf("OpenChain: %v", err)
	}
	defer chain.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := chain.Extract("/archive_0/file_0.txt"); err != nil {
			b.Fatal(err)
		}
	}
}
