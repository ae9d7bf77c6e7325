// Package snapshot implements the Snapshot Provider (SPEC_FULL.md §4.1):
// given a repospec.Spec, materializes a read-only root directory for the
// indexing pipeline to walk, and releases it when the run is done.
//
// Grounded on the teacher's internal/mcp/git_helper.go for the
// go-git/v5 revision-resolution and per-commit walk idiom, and on
// internal/security/pathsafe.go for path-safety; the filesystem/archive
// variants are new, using only stdlib archive/tar, archive/zip, and
// compress/gzip (no third-party archive library exists in the examples
// pack, and the teacher's own archive reference shells out to a tar
// binary via os/exec, which this package deliberately avoids).
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/repoindexer/repoindexer/internal/pipelineerr"
	"github.com/repoindexer/repoindexer/internal/repospec"
	"github.com/repoindexer/repoindexer/internal/security"
)

// OpenOptions parameterizes Open (SPEC_FULL.md §4.1, §6).
type OpenOptions struct {
	Revision           string
	SparsePatterns     []string
	EnableSubmodules   bool
	EnableLargeFileExt bool
}

// ChangedFiles is the result of a version-controlled snapshot's
// listChangedFiles.
type ChangedFiles struct {
	Changed []string
	Deleted []string
}

// BlameLine is one line of blameFile's per-line authorship result.
type BlameLine struct {
	Line   int
	Author string
	Hash   string
}

// Snapshot is a materialized, read-only repository root. Release must be
// called on every exit path; it is idempotent.
type Snapshot struct {
	RootPath         string
	ResolvedRevision string

	repo      *git.Repository // non-nil only for version-controlled specs
	cleanup   []func() error
	released  bool
}

// Release runs every registered cleanup in reverse-registration order,
// tolerating repeat calls.
func (s *Snapshot) Release() error {
	if s == nil || s.released {
		return nil
	}
	s.released = true
	var firstErr error
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		if err := s.cleanup[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ResolveRef resolves a named revision against the snapshot's repository.
// Only valid for version-controlled snapshots.
func (s *Snapshot) ResolveRef(name string) (string, error) {
	if s.repo == nil {
		return "", fmt.Errorf("resolveRef: %w: not a version-controlled snapshot", pipelineerr.ErrInvalidInput)
	}
	hash, err := s.repo.ResolveRevision(plumbing.Revision(name))
	if err != nil {
		return "", fmt.Errorf("resolveRef %q: %w", name, pipelineerr.ErrInvalidRevision)
	}
	return hash.String(), nil
}

// ListChangedFiles diffs base..head via commit patches, in the idiom of
// the teacher's git_helper.go commit.Patch(parent) walk.
func (s *Snapshot) ListChangedFiles(base, head string) (ChangedFiles, error) {
	if s.repo == nil {
		return ChangedFiles{}, fmt.Errorf("listChangedFiles: %w: not a version-controlled snapshot", pipelineerr.ErrInvalidInput)
	}
	baseHash, err := s.repo.ResolveRevision(plumbing.Revision(base))
	if err != nil {
		return ChangedFiles{}, fmt.Errorf("listChangedFiles base %q: %w", base, pipelineerr.ErrInvalidRevision)
	}
	headHash, err := s.repo.ResolveRevision(plumbing.Revision(head))
	if err != nil {
		return ChangedFiles{}, fmt.Errorf("listChangedFiles head %q: %w", head, pipelineerr.ErrInvalidRevision)
	}
	baseCommit, err := s.repo.CommitObject(*baseHash)
	if err != nil {
		return ChangedFiles{}, fmt.Errorf("listChangedFiles: %w: %v", pipelineerr.ErrSnapshotFailure, err)
	}
	headCommit, err := s.repo.CommitObject(*headHash)
	if err != nil {
		return ChangedFiles{}, fmt.Errorf("listChangedFiles: %w: %v", pipelineerr.ErrSnapshotFailure, err)
	}
	patch, err := baseCommit.Patch(headCommit)
	if err != nil {
		return ChangedFiles{}, fmt.Errorf("listChangedFiles: %w: %v", pipelineerr.ErrSnapshotFailure, err)
	}

	var out ChangedFiles
	for _, stat := range patch.Stats() {
		out.Changed = append(out.Changed, stat.Name)
	}
	for _, fp := range patch.FilePatches() {
		from, to := fp.Files()
		if from != nil && to == nil {
			out.Deleted = append(out.Deleted, from.Path())
		}
	}
	return out, nil
}

// BlameFile walks per-commit patches touching path, attributing each
// surviving line to the most recent commit that introduced it. A
// simplified authorship walk in the spirit of the teacher's commit-walk
// idiom, not a full line-tracking blame.
func (s *Snapshot) BlameFile(ctx context.Context, path, revision string) ([]BlameLine, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("blameFile: %w: not a version-controlled snapshot", pipelineerr.ErrInvalidInput)
	}
	if revision == "" {
		revision = s.ResolvedRevision
	}
	hash, err := s.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("blameFile: %w", pipelineerr.ErrInvalidRevision)
	}
	commit, err := s.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("blameFile: %w: %v", pipelineerr.ErrSnapshotFailure, err)
	}
	result, err := git.Blame(commit, path)
	if err != nil {
		return nil, fmt.Errorf("blameFile %s: %w: %v", path, pipelineerr.ErrSnapshotFailure, err)
	}

	lines := make([]BlameLine, len(result.Lines))
	for i, l := range result.Lines {
		lines[i] = BlameLine{Line: i + 1, Author: l.AuthorName, Hash: l.Hash.String()}
	}
	return lines, nil
}

// Open materializes a Snapshot for spec (SPEC_FULL.md §4.1). Callers must
// call Release on the returned Snapshot once done, on every exit path.
func Open(ctx context.Context, spec repospec.Spec, opts OpenOptions) (*Snapshot, error) {
	switch spec.Kind {
	case repospec.KindVersionControlled:
		return openVersionControlled(ctx, spec, opts)
	case repospec.KindFilesystem:
		return openFilesystem(spec)
	case repospec.KindArchive:
		return openArchive(spec)
	default:
		return nil, fmt.Errorf("open: %w: unknown repository kind %q", pipelineerr.ErrInvalidInput, spec.Kind)
	}
}

func openFilesystem(spec repospec.Spec) (*Snapshot, error) {
	root, err := security.ValidatePath(spec.Path, "")
	if err != nil {
		return nil, fmt.Errorf("open filesystem: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("open filesystem %s: %w", root, pipelineerr.ErrSnapshotFailure)
	}
	return &Snapshot{RootPath: root}, nil
}

func openVersionControlled(ctx context.Context, spec repospec.Spec, opts OpenOptions) (*Snapshot, error) {
	repo, err := git.PlainOpen(spec.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", spec.Path, pipelineerr.ErrSnapshotFailure, err)
	}

	revision := opts.Revision
	if revision == "" {
		revision = "HEAD"
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", revision, pipelineerr.ErrInvalidRevision)
	}

	worktreeDir, err := os.MkdirTemp("", "repoindexer-worktree-*")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", spec.Path, pipelineerr.ErrSnapshotFailure, err)
	}

	// Clone into an isolated worktree rather than checking out spec.Path's
	// own working tree in place: repo (opened above) is only ever read
	// from — revision resolution, commit diffs, blame — never written to,
	// so the caller's local changes are untouched (SPEC_FULL.md §4.1: "a
	// read-only worktree detached at that commit").
	worktreeRepo, err := git.PlainCloneContext(ctx, worktreeDir, false, &git.CloneOptions{URL: spec.Path})
	if err != nil {
		os.RemoveAll(worktreeDir)
		return nil, fmt.Errorf("open %s: %w: %v", spec.Path, pipelineerr.ErrSnapshotFailure, err)
	}
	wt, err := worktreeRepo.Worktree()
	if err != nil {
		os.RemoveAll(worktreeDir)
		return nil, fmt.Errorf("open %s: %w: %v", spec.Path, pipelineerr.ErrSnapshotFailure, err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true, Detach: true}); err != nil {
		os.RemoveAll(worktreeDir)
		return nil, fmt.Errorf("checkout %s: %w: %v", hash.String(), pipelineerr.ErrSnapshotFailure, err)
	}

	snap := &Snapshot{
		RootPath:         worktreeDir,
		ResolvedRevision: hash.String(),
		repo:             repo,
		cleanup:          []func() error{func() error { return os.RemoveAll(worktreeDir) }},
	}

	if opts.EnableSubmodules {
		_ = submoduleBestEffort(wt)
	}

	return snap, nil
}

// submoduleBestEffort initializes submodules; failures are swallowed per
// SPEC_FULL §4.1 ("best-effort... failures recorded but not fatal").
func submoduleBestEffort(wt *git.Worktree) error {
	subs, err := wt.Submodules()
	if err != nil {
		return err
	}
	return subs.Update(&git.SubmoduleUpdateOptions{Init: true})
}

// detectArchiveKind infers the container format from path's suffix.
func detectArchiveKind(path string) repospec.ArchiveKind {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz"):
		return repospec.ArchiveTarGzip
	case strings.HasSuffix(lower, ".zip"):
		return repospec.ArchiveZip
	default:
		return repospec.ArchiveTar
	}
}

func openArchive(spec repospec.Spec) (*Snapshot, error) {
	kind := spec.ArchiveKind
	if kind == "" {
		kind = detectArchiveKind(spec.Path)
	}

	extractDir, err := os.MkdirTemp("", "repoindexer-archive-*")
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w: %v", spec.Path, pipelineerr.ErrSnapshotFailure, err)
	}
	cleanup := []func() error{func() error { return os.RemoveAll(extractDir) }}

	var extractErr error
	switch kind {
	case repospec.ArchiveZip:
		extractErr = extractZip(spec.Path, extractDir)
	case repospec.ArchiveTarGzip:
		extractErr = extractTar(spec.Path, extractDir, true)
	default:
		extractErr = extractTar(spec.Path, extractDir, false)
	}
	if extractErr != nil {
		os.RemoveAll(extractDir)
		return nil, fmt.Errorf("extract %s: %w: %v", spec.Path, pipelineerr.ErrSnapshotFailure, extractErr)
	}

	root, err := singleTopLevelDir(extractDir)
	if err != nil {
		os.RemoveAll(extractDir)
		return nil, fmt.Errorf("open archive %s: %w: %v", spec.Path, pipelineerr.ErrSnapshotFailure, err)
	}

	return &Snapshot{RootPath: root, cleanup: cleanup}, nil
}

// singleTopLevelDir collapses extractDir into its sole child directory
// when the archive contained exactly one top-level directory and nothing
// else (SPEC_FULL §4.1).
func singleTopLevelDir(extractDir string) (string, error) {
	entries, err := os.ReadDir(extractDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(extractDir, entries[0].Name()), nil
	}
	return extractDir, nil
}
