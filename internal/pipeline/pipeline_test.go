package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoindexer/repoindexer/internal/enumerate"
	"github.com/repoindexer/repoindexer/internal/repospec"
)

func TestRunIndexesFilesystemSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))

	p := New()
	result, err := p.Run(context.Background(), repospec.Spec{Kind: repospec.KindFilesystem, Path: dir}, IndexOptions{})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "main.go", result.Files[0].Path)
	assert.NotEmpty(t, result.Chunks)
}

func TestRunDryRunDoesNotPersistToStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	p := New()
	spec := repospec.Spec{Kind: repospec.KindFilesystem, Path: dir}
	_, err := p.Run(context.Background(), spec, IndexOptions{DryRun: true})
	require.NoError(t, err)

	_, ok := p.Store.FindLatest(spec)
	assert.False(t, ok)
}

func TestRunNonDryRunPersistsToStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	p := New()
	spec := repospec.Spec{Kind: repospec.KindFilesystem, Path: dir}
	_, err := p.Run(context.Background(), spec, IndexOptions{})
	require.NoError(t, err)

	_, ok := p.Store.FindLatest(spec)
	assert.True(t, ok)
}

func TestRunMaxFilesPerRunCapsCandidates(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "f"+string(rune('a'+i))+".go"), []byte("package main\n"), 0o644))
	}

	p := New()
	result, err := p.Run(context.Background(), repospec.Spec{Kind: repospec.KindFilesystem, Path: dir}, IndexOptions{MaxFilesPerRun: 2})
	require.NoError(t, err)
	assert.Len(t, result.Files, 2)
}

func TestRunUnknownRepositoryKindErrors(t *testing.T) {
	p := New()
	_, err := p.Run(context.Background(), repospec.Spec{Kind: "bogus"}, IndexOptions{})
	assert.Error(t, err)
}

func TestSelectCandidatesFiltersByChangedSet(t *testing.T) {
	entries := []enumerate.FileEntry{{Path: "a.go"}, {Path: "b.go"}}
	changed := map[string]bool{"b.go": true}
	out := selectCandidates(entries, changed, "", 0)
	require.Len(t, out, 1)
	assert.Equal(t, "b.go", out[0].Path)
}

func TestSelectCandidatesSkipsUpToResumeCursor(t *testing.T) {
	entries := []enumerate.FileEntry{{Path: "a.go"}, {Path: "b.go"}, {Path: "c.go"}}
	out := selectCandidates(entries, nil, "b.go", 0)
	require.Len(t, out, 1)
	assert.Equal(t, "c.go", out[0].Path)
}

func TestSelectCandidatesCapsAtMaxFilesPerRun(t *testing.T) {
	entries := []enumerate.FileEntry{{Path: "a.go"}, {Path: "b.go"}, {Path: "c.go"}}
	out := selectCandidates(entries, nil, "", 2)
	assert.Len(t, out, 2)
}

func initGitRepoForPipeline(t *testing.T) (dir, base, head string) {
	t.Helper()
	dir = t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	_, err = wt.Add("main.go")
	require.NoError(t, err)
	sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Unix(0, 0)}
	baseHash, err := wt.Commit("base", &git.CommitOptions{Author: sig})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.go"), []byte("package main\n\nfunc Extra() {}\n"), 0o644))
	_, err = wt.Add("extra.go")
	require.NoError(t, err)
	headHash, err := wt.Commit("head", &git.CommitOptions{Author: sig})
	require.NoError(t, err)

	return dir, baseHash.String(), headHash.String()
}

func TestRunIncrementalCarriesForwardUnchangedFiles(t *testing.T) {
	dir, base, head := initGitRepoForPipeline(t)
	p := New()
	spec := repospec.Spec{Kind: repospec.KindVersionControlled, Path: dir}

	_, err := p.Run(context.Background(), spec, IndexOptions{Revision: base})
	require.NoError(t, err)

	result, err := p.Run(context.Background(), spec, IndexOptions{Revision: head, Incremental: true, BaseRevision: base})
	require.NoError(t, err)
	require.Len(t, result.Files, 2)
}
