// Package model defines the data-model entities shared across the pipeline,
// chunker, textproc, and manager packages (SPEC_FULL.md §3). Kept separate
// from any single stage so none of them needs to import another stage just
// to share a struct.
package model

import "time"

// FileMetadata is one entry in IndexResult.Files: the enumerator/pipeline's
// verdict and content identity for a single file.
type FileMetadata struct {
	Path        string
	SizeBytes   int64
	ContentHash string // SHA-256 of post-sanitize content; "" if skipped
	Language    string
	Executable  bool
	SkipReason  string // comma-joined classify.Result reason, "" if kept
}

// ChunkMetadata is the metadata attached to every Chunk.
type ChunkMetadata struct {
	Origin      string // "lines", "tokens", "sliding-window", "by-section"
	Path        string
	StartLine   int
	EndLine     int
	TokenCount  int
	CharCount   int
	ChunkIndex  int
	TotalChunks int
	Section     string
}

// Chunk is a contiguous, content-addressed slice of a file's text.
type Chunk struct {
	ID       string
	Text     string
	Metadata ChunkMetadata
}

// IndexChunk is a Chunk plus the back-reference to its owning file's
// content hash, used to enforce the "every chunk has exactly one owning
// file" invariant.
type IndexChunk struct {
	Chunk
	FileHash string
}

// Clone returns a deep copy of c; used whenever a cached chunk is handed
// back to a caller so concurrent runs never alias chunk objects (SPEC_FULL
// §5 "shared mutable state").
func (c IndexChunk) Clone() IndexChunk {
	return c
}

// SecretFinding is a single secret-scanner match.
type SecretFinding struct {
	Path    string
	Line    int // 1-based; valid against the post-normalize, pre-sanitize text
	RuleID  string
	Excerpt string // trimmed line, truncated to 200 chars
}

// PolicyFindingKind distinguishes license-policy from PII-policy findings.
type PolicyFindingKind string

const (
	PolicyKindLicense PolicyFindingKind = "license"
	PolicyKindPII     PolicyFindingKind = "pii"
)

// PolicyFinding is a single license or PII policy observation.
type PolicyFinding struct {
	Path    string
	Kind    PolicyFindingKind
	Message string
	Details map[string]string
}

// Shard is a packing of the chunk list under per-shard count/size caps.
type Shard struct {
	ID         string
	ChunkIDs   []string
	ChunkCount int
	ApproxSize int64
}

// DependencyEdge is one regex-extracted relative import/require resolved
// against its declaring file's directory.
type DependencyEdge struct {
	FromPath string
	ToPath   string
}

// SymbolEntry is one regex-extracted symbol occurrence.
type SymbolEntry struct {
	Symbol  string
	Path    string
	Line    int
	Context string
}

// IndexResult is the full output of one (non-dry-run) indexing run, stored
// in the Index Store under (kind, path, revision).
type IndexResult struct {
	SpecKind   string
	SpecPath   string
	Revision   string
	Files      []FileMetadata
	Chunks     []IndexChunk
	CreatedAt  time.Time

	FileContentsByPath     map[string]string
	LanguageByContentHash  map[string]string
	SecretFindings         []SecretFinding
	PolicyFindings         []PolicyFinding
	Shards                 []Shard
	ResumeCursor           string
	TestCoverage           map[string][]string // test path -> source paths it covers
	DependencyGraph        []DependencyEdge
	SymbolIndex            []SymbolEntry
}
