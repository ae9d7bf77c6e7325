package enumerate

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func paths(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestEnumerateSkipsVCSMetadataDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, ".git/HEAD", "ref: refs/heads/main")

	entries, err := Enumerate(context.Background(), dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, paths(entries))
}

func TestEnumerateAppliesDefaultIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "debug.log", "noisy")

	entries, err := Enumerate(context.Background(), dir, Options{DefaultIgnorePatterns: []string{"*.log"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, paths(entries))
}

func TestEnumerateLoadsPerDirectoryIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pkg/keep.go", "package pkg")
	writeFile(t, dir, "pkg/skip.go", "package pkg")
	writeFile(t, dir, "pkg/.gitignore", "skip.go\n")

	entries, err := Enumerate(context.Background(), dir, Options{IgnoreFileName: ".gitignore"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/.gitignore", "pkg/keep.go"}, paths(entries))
}

func TestEnumerateWorkspaceRootsRetainsOnlyMatchingPrefix(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/main.go", "package main")
	writeFile(t, dir, "docs/readme.md", "docs")

	entries, err := Enumerate(context.Background(), dir, Options{WorkspaceRoots: []string{"src"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.go"}, paths(entries))
}

func TestEnumerateExcludeRegexesRemoveMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "main_test.go", "package main")

	entries, err := Enumerate(context.Background(), dir, Options{
		ExcludeRegexes: []*regexp.Regexp{regexp.MustCompile(`_test\.go$`)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, paths(entries))
}

func TestEnumerateSparsePatternsRetainOnlyMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/main.go", "package main")
	writeFile(t, dir, "docs/readme.md", "docs")

	entries, err := Enumerate(context.Background(), dir, Options{SparsePatterns: []string{"src/**"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.go"}, paths(entries))
}

func TestEnumerateIncludePathsRetainOnlyMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/main.go", "package main")
	writeFile(t, dir, "docs/readme.md", "docs")

	entries, err := Enumerate(context.Background(), dir, Options{IncludePaths: []string{"docs/**"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/readme.md"}, paths(entries))
}

func TestEnumerateResultsSortedByPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "zeta.go", "package main")
	writeFile(t, dir, "alpha.go", "package main")

	entries, err := Enumerate(context.Background(), dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.go", "zeta.go"}, paths(entries))
}

func TestEnumerateRecordsExecutableBit(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "run.sh")
	require.NoError(t, os.WriteFile(full, []byte("#!/bin/sh\n"), 0o755))

	entries, err := Enumerate(context.Background(), dir, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Executable)
}

func TestEnumerateContextCancellationStopsWalk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Enumerate(ctx, dir, Options{})
	assert.Error(t, err)
}
