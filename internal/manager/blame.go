package manager

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"

	"github.com/repoindexer/repoindexer/internal/model"
	"github.com/repoindexer/repoindexer/internal/observability"
	"github.com/repoindexer/repoindexer/internal/pipelineerr"
	"github.com/repoindexer/repoindexer/internal/repospec"
	"github.com/repoindexer/repoindexer/internal/snapshot"
)

var managerTracer = otel.Tracer("repoindexer/manager")

// openSnapshotOnly opens spec at its current HEAD without running a full
// index — used by query-surface operations (resolveReference, blameFile)
// that need the snapshot's VCS handle but not a chunked index.
func openSnapshotOnly(ctx context.Context, spec repospec.Spec) (*snapshot.Snapshot, error) {
	return snapshot.Open(ctx, spec, snapshot.OpenOptions{})
}

// BlameFileOptions parameterizes BlameFile.
type BlameFileOptions struct {
	Path     string
	Revision string
}

// BlameFile delegates to the snapshot's line-level authorship query; only
// supported for version-controlled sources (SPEC_FULL.md §4.9).
func (m *Manager) BlameFile(ctx context.Context, spec repospec.Spec, opts BlameFileOptions) ([]snapshot.BlameLine, error) {
	if spec.Kind != repospec.KindVersionControlled {
		return nil, fmt.Errorf("blameFile: %w: not a version-controlled source", pipelineerr.ErrInvalidInput)
	}
	ctx, span := observability.InstrumentManagerOperation(ctx, managerTracer, "blame", opts.Path)
	defer span.End()

	snap, err := openSnapshotOnly(ctx, spec)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	defer snap.Release()
	lines, err := snap.BlameFile(ctx, opts.Path, opts.Revision)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return lines, err
}

// BuildContextPackOptions parameterizes BuildContextPack.
type BuildContextPackOptions struct {
	Revision  string
	Paths     []string
	Limit     int
	MaxTokens int
}

const defaultContextPackLimit = 20

// BuildContextPack selects chunks under the token cap, sorted by
// descending size, returning the top Limit (SPEC_FULL.md §4.9).
func (m *Manager) BuildContextPack(spec repospec.Spec, opts BuildContextPackOptions) ([]model.IndexChunk, error) {
	result, err := m.resultFor(spec, opts.Revision)
	if err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultContextPackLimit
	}

	pathSet := map[string]bool(nil)
	if len(opts.Paths) > 0 {
		pathSet = make(map[string]bool, len(opts.Paths))
		for _, p := range opts.Paths {
			pathSet[p] = true
		}
	}

	var candidates []model.IndexChunk
	for _, c := range result.Chunks {
		if pathSet != nil && !pathSet[c.Metadata.Path] {
			continue
		}
		candidates = append(candidates, c)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Metadata.TokenCount > candidates[j].Metadata.TokenCount
	})

	var selected []model.IndexChunk
	var budget int
	for _, c := range candidates {
		if opts.MaxTokens > 0 && budget+c.Metadata.TokenCount > opts.MaxTokens {
			continue
		}
		selected = append(selected, c)
		budget += c.Metadata.TokenCount
		if len(selected) >= limit {
			break
		}
	}
	return selected, nil
}
