package manager

import (
	"context"
	"fmt"
	"sort"

	"github.com/repoindexer/repoindexer/internal/observability"
	"github.com/repoindexer/repoindexer/internal/pipeline"
	"github.com/repoindexer/repoindexer/internal/pipelineerr"
	"github.com/repoindexer/repoindexer/internal/repospec"
)

// DiffChunksOptions parameterizes DiffChunks.
type DiffChunksOptions struct {
	BaseRevision string
	HeadRevision string
	Paths        []string
	Limit        int
	IndexOptions pipeline.IndexOptions
}

// ChunkDiff is DiffChunks' result.
type ChunkDiff struct {
	Added          []string
	Removed        []string
	ChangedContent []string // files whose content hash differs between base and head
}

// DiffChunks runs two dry-run indexings and computes the set-difference
// of chunk ids (SPEC_FULL.md §4.9).
func (m *Manager) DiffChunks(ctx context.Context, spec repospec.Spec, opts DiffChunksOptions) (ChunkDiff, error) {
	ctx, span := observability.InstrumentManagerOperation(ctx, managerTracer, "diff", spec.Path)
	defer span.End()

	limit := opts.Limit
	if limit <= 0 {
		limit = 200
	}

	baseOpts := opts.IndexOptions
	baseOpts.Revision = opts.BaseRevision
	baseOpts.IncludePaths = opts.Paths
	baseOpts.DryRun = true
	baseResult, err := m.Pipeline.Run(ctx, spec, baseOpts)
	if err != nil {
		err = fmt.Errorf("diffChunks base: %w", err)
		observability.SetSpanError(ctx, err)
		return ChunkDiff{}, err
	}

	headOpts := opts.IndexOptions
	headOpts.Revision = opts.HeadRevision
	headOpts.IncludePaths = opts.Paths
	headOpts.DryRun = true
	headResult, err := m.Pipeline.Run(ctx, spec, headOpts)
	if err != nil {
		err = fmt.Errorf("diffChunks head: %w", err)
		observability.SetSpanError(ctx, err)
		return ChunkDiff{}, err
	}

	baseIDs := make(map[string]bool, len(baseResult.Chunks))
	for _, c := range baseResult.Chunks {
		baseIDs[c.ID] = true
	}
	headIDs := make(map[string]bool, len(headResult.Chunks))
	for _, c := range headResult.Chunks {
		headIDs[c.ID] = true
	}

	var diff ChunkDiff
	for id := range headIDs {
		if !baseIDs[id] {
			diff.Added = append(diff.Added, id)
		}
	}
	for id := range baseIDs {
		if !headIDs[id] {
			diff.Removed = append(diff.Removed, id)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	if len(diff.Added) > limit {
		diff.Added = diff.Added[:limit]
	}
	if len(diff.Removed) > limit {
		diff.Removed = diff.Removed[:limit]
	}

	baseHashes := make(map[string]string, len(baseResult.Files))
	for _, f := range baseResult.Files {
		baseHashes[f.Path] = f.ContentHash
	}
	for _, f := range headResult.Files {
		if baseHash, ok := baseHashes[f.Path]; ok && baseHash != f.ContentHash {
			diff.ChangedContent = append(diff.ChangedContent, f.Path)
		}
	}
	sort.Strings(diff.ChangedContent)

	return diff, nil
}

// ResolveReference resolves revision against spec's version-controlled
// source. Only supported for version-controlled sources.
func (m *Manager) ResolveReference(ctx context.Context, spec repospec.Spec, revision string) (string, error) {
	if spec.Kind != repospec.KindVersionControlled {
		return "", fmt.Errorf("resolveReference: %w: not a version-controlled source", pipelineerr.ErrInvalidInput)
	}
	ctx, span := observability.InstrumentManagerOperation(ctx, managerTracer, "resolveReference", spec.Path)
	defer span.End()

	snap, err := openSnapshotOnly(ctx, spec)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return "", err
	}
	defer snap.Release()
	resolved, err := snap.ResolveRef(revision)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return resolved, err
}
