// Package manager implements the IndexManager query surface
// (SPEC_FULL.md §4.9): the façade read-models query against a stored
// IndexResult, plus the two-dry-run-indexings diffChunks operation and
// the pull-request indexing entry point. Grounded on the teacher's
// controller.go (status-query method set, GetStatus/HealthCheck idiom)
// and indexer_impl.go (its read-after-index accessor style), composed
// here over internal/pipeline and internal/snapshot instead of over the
// teacher's vectorstore.
package manager

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/repoindexer/repoindexer/internal/model"
	"github.com/repoindexer/repoindexer/internal/pipeline"
	"github.com/repoindexer/repoindexer/internal/pipelineerr"
	"github.com/repoindexer/repoindexer/internal/repospec"
	"github.com/repoindexer/repoindexer/internal/snapshot"
)

// Manager is the IndexManager façade. One Manager is usually shared by an
// entire process; it owns the Pipeline (and therefore the content cache
// and index store) that every query reads through.
type Manager struct {
	Pipeline *pipeline.Pipeline
}

// New builds a Manager over a fresh Pipeline.
func New() *Manager {
	return &Manager{Pipeline: pipeline.New()}
}

func (m *Manager) resultFor(spec repospec.Spec, revision string) (*model.IndexResult, error) {
	if revision == "" {
		result, ok := m.Pipeline.Store.FindLatest(spec)
		if !ok {
			return nil, fmt.Errorf("findLatest %s: %w", spec.Path, pipelineerr.ErrIndexMissing)
		}
		return result, nil
	}
	result, ok := m.Pipeline.Store.Get(spec, revision)
	if !ok {
		return nil, fmt.Errorf("get %s@%s: %w", spec.Path, revision, pipelineerr.ErrIndexMissing)
	}
	return result, nil
}

// ListFilesOptions parameterizes ListFiles.
type ListFilesOptions struct {
	Revision string
	Include  []string
	Exclude  []string
}

// ListFiles in-memory filters stored files by include/exclude globs
// (SPEC_FULL.md §4.9).
func (m *Manager) ListFiles(spec repospec.Spec, opts ListFilesOptions) ([]model.FileMetadata, error) {
	result, err := m.resultFor(spec, opts.Revision)
	if err != nil {
		return nil, err
	}
	include := compileGlobs(opts.Include)
	exclude := compileGlobs(opts.Exclude)

	var out []model.FileMetadata
	for _, f := range result.Files {
		if len(include) > 0 && !matchesAny(include, f.Path) {
			continue
		}
		if matchesAny(exclude, f.Path) {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// ListChunksOptions parameterizes ListChunks.
type ListChunksOptions struct {
	Revision  string
	Path      string
	Lang      string
	MaxTokens int
}

// ListChunks is a linear filter over the stored chunk set.
func (m *Manager) ListChunks(spec repospec.Spec, opts ListChunksOptions) ([]model.IndexChunk, error) {
	result, err := m.resultFor(spec, opts.Revision)
	if err != nil {
		return nil, err
	}
	var out []model.IndexChunk
	for _, c := range result.Chunks {
		if opts.Path != "" && c.Metadata.Path != opts.Path {
			continue
		}
		if opts.Lang != "" && result.LanguageByContentHash[c.FileHash] != opts.Lang {
			continue
		}
		if opts.MaxTokens > 0 && c.Metadata.TokenCount > opts.MaxTokens {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// GetChunk is a direct lookup by id.
func (m *Manager) GetChunk(spec repospec.Spec, id, revision string) (model.IndexChunk, error) {
	result, err := m.resultFor(spec, revision)
	if err != nil {
		return model.IndexChunk{}, err
	}
	for _, c := range result.Chunks {
		if c.ID == id {
			return c, nil
		}
	}
	return model.IndexChunk{}, fmt.Errorf("chunk %s: %w", id, pipelineerr.ErrNotFound)
}

// FileWithContent is GetFile's result: file metadata, content, and the
// secret findings scoped to that file.
type FileWithContent struct {
	model.FileMetadata
	Content        string
	SecretFindings []model.SecretFinding
}

// GetFile is a direct lookup by path, attaching content and the file's
// secret findings.
func (m *Manager) GetFile(spec repospec.Spec, path, revision string) (FileWithContent, error) {
	result, err := m.resultFor(spec, revision)
	if err != nil {
		return FileWithContent{}, err
	}
	for _, f := range result.Files {
		if f.Path != path {
			continue
		}
		var findings []model.SecretFinding
		for _, s := range result.SecretFindings {
			if s.Path == path {
				findings = append(findings, s)
			}
		}
		return FileWithContent{FileMetadata: f, Content: result.FileContentsByPath[path], SecretFindings: findings}, nil
	}
	return FileWithContent{}, fmt.Errorf("file %s: %w", path, pipelineerr.ErrNotFound)
}

const maxSearchTextResults = 2000

// TextMatch is one searchText result row.
type TextMatch struct {
	Path    string
	Line    int
	Excerpt string
}

// SearchTextOptions parameterizes SearchText.
type SearchTextOptions struct {
	Revision string
	PathGlob string
}

// SearchText is a case-insensitive substring search over chunk lines,
// returning up to 2000 matches (SPEC_FULL.md §4.9).
func (m *Manager) SearchText(spec repospec.Spec, query string, opts SearchTextOptions) ([]TextMatch, error) {
	result, err := m.resultFor(spec, opts.Revision)
	if err != nil {
		return nil, err
	}
	var pathGlob glob.Glob
	if opts.PathGlob != "" {
		pathGlob, _ = glob.Compile(opts.PathGlob, '/')
	}
	needle := strings.ToLower(query)

	var matches []TextMatch
	for _, c := range result.Chunks {
		if pathGlob != nil && !pathGlob.Match(c.Metadata.Path) {
			continue
		}
		lines := strings.Split(c.Text, "\n")
		for i, line := range lines {
			if !strings.Contains(strings.ToLower(line), needle) {
				continue
			}
			matches = append(matches, TextMatch{
				Path:    c.Metadata.Path,
				Line:    c.Metadata.StartLine + i,
				Excerpt: truncate(line, 200),
			})
			if len(matches) >= maxSearchTextResults {
				return matches, nil
			}
		}
	}
	return matches, nil
}

const maxSearchSymbolsResults = 500

// SearchSymbolsOptions parameterizes SearchSymbols.
type SearchSymbolsOptions struct {
	Revision string
}

// SearchSymbols filters the stored symbol index by an optional regex-ish
// substring query, returning up to 500 results.
func (m *Manager) SearchSymbols(spec repospec.Spec, query string, opts SearchSymbolsOptions) ([]model.SymbolEntry, error) {
	result, err := m.resultFor(spec, opts.Revision)
	if err != nil {
		return nil, err
	}
	var out []model.SymbolEntry
	for _, s := range result.SymbolIndex {
		if query != "" && !strings.Contains(s.Symbol, query) {
			continue
		}
		out = append(out, s)
		if len(out) >= maxSearchSymbolsResults {
			break
		}
	}
	return out, nil
}

func compileGlobs(patterns []string) []glob.Glob {
	var out []glob.Glob
	for _, p := range patterns {
		if g, err := glob.Compile(p, '/'); err == nil {
			out = append(out, g)
		}
	}
	return out
}

func matchesAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max]
}
