// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Command hashfsutil lists, extracts, and creates HashFS archives from the
// command line.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sk-zk/go-hashfs"
)

var (
	salt      uint16
	version2  bool
	forceTail bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hashfsutil",
		Short: "A HashFS archive reader and writer",
		Long:  "Lists, extracts, and creates HashFS archives, the container format behind a well-known driving simulator's .scs files.",
	}

	listCmd := &cobra.Command{
		Use:   "list <archive> [dir]",
		Short: "List the contents of an archive directory",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runList,
	}
	listCmd.Flags().BoolVar(&forceTail, "force-entry-table-at-end", false, "locate the v1 entry table at the end of the file, ignoring the header's offset")

	extractCmd := &cobra.Command{
		Use:   "extract <archive> <path> [output-dir]",
		Short: "Extract a single file or texture from an archive",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  runExtract,
	}

	createCmd := &cobra.Command{
		Use:   "create <archive> <source-dir>",
		Short: "Create an archive from a directory on disk",
		Args:  cobra.ExactArgs(2),
		RunE:  runCreate,
	}
	createCmd.Flags().Uint16Var(&salt, "salt", 0, "salt mixed into every path hash")
	createCmd.Flags().BoolVar(&version2, "v2", false, "write a V2 archive instead of V1")

	rootCmd.AddCommand(listCmd, extractCmd, createCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runList(cmd *cobra.Command, args []string) error {
	dir := "/"
	if len(args) == 2 {
		dir = args[1]
	}

	r, err := hashfs.OpenWithOptions(args[0], hashfs.OpenOptions{ForceEntryTableAtEnd: forceTail})
	if err != nil {
		return err
	}
	defer r.Close()

	names, err := r.GetDirectoryListing(dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	archivePath, targetPath := args[0], args[1]
	destDir := "."
	if len(args) == 3 {
		destDir = args[2]
	}

	r, err := hashfs.Open(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	destPath := filepath.Join(destDir, filepath.Base(targetPath))
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create %q: %w", destDir, err)
	}
	if err := r.ExtractToFile(targetPath, destPath); err != nil {
		return err
	}

	fmt.Printf("extracted %s -> %s\n", targetPath, destPath)
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	archivePath, sourceDir := args[0], args[1]

	var w *hashfs.Writer
	if version2 {
		w = hashfs.NewWriterV2()
	} else {
		w = hashfs.NewWriterV1()
	}
	w.Salt = salt

	err := filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		archiveRel := "/" + filepath.ToSlash(rel)

		// sibling .tobj/.dds pairs are fused automatically at Save time;
		// just add every file under sourceDir as-is.
		return w.AddFile(path, archiveRel)
	})
	if err != nil {
		return fmt.Errorf("walk %q: %w", sourceDir, err)
	}

	if err := w.SaveToPath(archivePath); err != nil {
		return err
	}
	fmt.Printf("created %s\n", archivePath)
	return nil
}
