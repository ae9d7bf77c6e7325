// Package pipeline implements the Indexing Pipeline (SPEC_FULL.md §4.7):
// the state machine that turns a repospec.Spec and IndexOptions into a
// model.IndexResult. Grounded on the teacher's internal/indexer package —
// DefaultIndexer.Index/IndexIncremental for the stage sequence and
// DefaultIndexController for the status-query idiom — generalized from a
// single walk-then-chunk pass into the full Opening/Planning/Seeding/
// Enumerating/Selecting/Processing/Assembling/Memoizing/Releasing state
// machine SPEC_FULL.md §4.7 specifies, and from the teacher's Merkle-tree
// incremental model to a per-file content-hash cache plus snapshot-provider
// changed-file diff (§9 Open Question: the teacher's Merkle tree is
// overkill for this spec's scope; a flat per-file hash serves the same
// "skip unchanged" purpose without a tree the rest of the design never
// queries).
package pipeline

import (
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/repoindexer/repoindexer/internal/chunk"
	"github.com/repoindexer/repoindexer/internal/textproc"
)

// Sharding bounds how Assembling groups chunks into shards. A zero value
// disables sharding (one implicit shard). yaml tags mirror SPEC_FULL §6's
// `indexing.sharding.*` recognized options.
type Sharding struct {
	MaxChunksPerShard int   `yaml:"chunksPerShard"`
	MaxBytesPerShard  int64 `yaml:"approxChunkSize"`
}

// IndexOptions parameterizes a single pipeline Run (SPEC_FULL.md §4.7). yaml
// tags mirror SPEC_FULL §6's `indexing.*` recognized-option names: the core
// never reads a config file itself, but exposes these tags so the
// out-of-scope config loader can unmarshal a `gopkg.in/yaml.v3` document
// directly into this struct per §2a's precedence convention.
type IndexOptions struct {
	Revision       string   `yaml:"ref"`
	IncludePaths   []string `yaml:"includePaths"`
	ExcludeGlobs   []string `yaml:"excludeGlobs"`
	ExcludeRegexes []*regexp.Regexp `yaml:"-"`
	WorkspaceRoots []string `yaml:"workspaceRoots"`
	SparsePatterns []string `yaml:"sparsePatterns"`

	Chunking         chunk.Options                   `yaml:"chunking"`
	TokenizerID      string                          `yaml:"tokenizerId"`
	LanguageProfiles map[string]LanguageChunkProfile  `yaml:"languageChunkProfiles"`

	ScanSecrets    bool                  `yaml:"scanSecrets"`
	SecretPatterns []textproc.SecretRule `yaml:"secretPatterns"`
	Policy         textproc.PolicyOptions `yaml:"policy"`

	EnableSubmodules   bool `yaml:"enableSubmodules"`
	EnableLargeFileExt bool `yaml:"enableLargeFileExt"`

	Incremental  bool   `yaml:"incremental"`
	BaseRevision string `yaml:"baseRef"`

	Concurrency      int      `yaml:"concurrency"`
	MaxInFlightBytes int64    `yaml:"maxInFlightBytes"`
	Sharding         Sharding `yaml:"sharding"`
	MaxFilesPerRun   int      `yaml:"maxFilesPerRun"`
	ResumeCursor     string   `yaml:"resumeCursor"`

	DryRun bool `yaml:"dryRun"`
}

// LanguageChunkProfile overrides base chunking options (and optionally the
// tokenizer) for files of a given language. An empty TokenizerID means
// "inherit the base profile's resolved tokenizer" per SPEC_FULL §9's Open
// Question resolution; an explicitly set empty string is not
// distinguishable from unset at this layer, so "inherit" is the only
// behavior offered — callers wanting the bare "basic" tokenizer must name
// it explicitly.
type LanguageChunkProfile struct {
	Chunking    chunk.Options `yaml:"chunking"`
	TokenizerID string        `yaml:"tokenizerId"`
}

// DefaultIndexOptions returns the hardcoded defaults the out-of-scope
// config loader's precedence chain falls back to beneath a yaml config file
// and environment overrides (SPEC_FULL §2a/§6).
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		Revision:    "HEAD",
		TokenizerID: "basic",
		Chunking: chunk.Options{
			Strategy:     chunk.StrategyLines,
			TargetLines:  200,
			OverlapLines: 20,
		},
		Concurrency:      4,
		MaxInFlightBytes: 64 << 20,
		MaxFilesPerRun:   0,
	}
}

// YAML renders o as a yaml document using the struct's recognized-option
// tags, for diagnostic logging of the effective options a run resolved to.
func (o IndexOptions) YAML() (string, error) {
	b, err := yaml.Marshal(o)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (o IndexOptions) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return 4
}

// resolvedChunkingFor merges a language's profile onto the base chunking
// options; zero-value fields in the override do not shadow the base
// (the override is sparse by convention: callers set only what differs).
func (o IndexOptions) resolvedChunkingFor(language string) (chunk.Options, string) {
	profile, ok := o.LanguageProfiles[language]
	if !ok {
		return o.Chunking, o.TokenizerID
	}
	merged := o.Chunking
	if profile.Chunking.Strategy != "" {
		merged.Strategy = profile.Chunking.Strategy
	}
	if profile.Chunking.TargetLines != 0 {
		merged.TargetLines = profile.Chunking.TargetLines
	}
	if profile.Chunking.OverlapLines != 0 {
		merged.OverlapLines = profile.Chunking.OverlapLines
	}
	if profile.Chunking.OverlapTokens != 0 {
		merged.OverlapTokens = profile.Chunking.OverlapTokens
	}
	if profile.Chunking.WindowSizeTokens != 0 {
		merged.WindowSizeTokens = profile.Chunking.WindowSizeTokens
	}
	if profile.Chunking.StepTokens != 0 {
		merged.StepTokens = profile.Chunking.StepTokens
	}
	if profile.Chunking.ContextBudgetTokens != 0 {
		merged.ContextBudgetTokens = profile.Chunking.ContextBudgetTokens
	}
	if (profile.Chunking.Adaptive != chunk.Envelope{}) {
		merged.Adaptive = profile.Chunking.Adaptive
	}

	tokenizerID := o.TokenizerID
	if profile.TokenizerID != "" {
		tokenizerID = profile.TokenizerID
	}
	return merged, tokenizerID
}
