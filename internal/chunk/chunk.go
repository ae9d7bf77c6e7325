// Package chunk implements the Chunker (SPEC_FULL.md §4.5): a
// strategy-driven splitter with an adaptive merge/split pass against a
// configured envelope. Grounded on internal/indexer/chunker.go's
// CodeChunker — the teacher dispatches per source-language; this package
// generalizes the same "tagged variant + small vtable" idiom (SPEC_FULL §9)
// to dispatch per configured Strategy instead, since the spec's chunking
// axis is strategy, not language. The teacher's AST-based Go boundary
// detection (chunkGoCode) is kept as a post-split refinement: for the
// "lines" and "tokens" strategies on a .go file, window end lines are
// snapped to the nearest top-level declaration boundary (see astgo.go)
// instead of being re-derived as the chunk boundaries themselves.
package chunk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/repoindexer/repoindexer/internal/model"
	"github.com/repoindexer/repoindexer/internal/tokenizer"
)

// Strategy tags which splitter to dispatch to.
type Strategy string

const (
	StrategyLines         Strategy = "lines"
	StrategyTokens        Strategy = "tokens"
	StrategySlidingWindow Strategy = "sliding-window"
	StrategyBySection     Strategy = "by-section"
)

// Envelope bounds a chunk's size along three axes; zero means "no bound" in
// a max field and "no requirement" in a min field.
type Envelope struct {
	MinTokens int `yaml:"minTokens"`
	MaxTokens int `yaml:"maxTokens"`
	MinChars  int `yaml:"minChars"`
	MaxChars  int `yaml:"maxChars"`
	MinLines  int `yaml:"minLines"`
	MaxLines  int `yaml:"maxLines"`
}

// Options configures one Chunk call. yaml tags mirror SPEC_FULL §6's
// `indexing.chunking.*` recognized-option names so the out-of-scope config
// loader can unmarshal a config file directly into this struct.
type Options struct {
	Strategy Strategy `yaml:"strategy"`

	TargetLines  int `yaml:"targetLines"`  // "lines" strategy
	OverlapLines int `yaml:"overlapLines"` // "lines" strategy

	OverlapTokens    int `yaml:"overlapTokens"`    // "tokens" strategy
	WindowSizeTokens int `yaml:"windowSizeTokens"` // "sliding-window" strategy
	StepTokens       int `yaml:"stepTokens"`       // "sliding-window" strategy

	// ContextBudgetTokens, when set, clamps every target/max/window/step
	// token field to it (SPEC_FULL §4.5 "Normalization of options").
	ContextBudgetTokens int `yaml:"contextBudgetTokens"`

	Adaptive Envelope `yaml:"adaptive"`
}

// Input is one file's chunk request.
type Input struct {
	Text     string
	Path     string
	Language string
}

// clamp applies ContextBudgetTokens to every token-denominated field.
func (o Options) clamp() Options {
	if o.ContextBudgetTokens <= 0 {
		return o
	}
	b := o.ContextBudgetTokens
	clampTo := func(v int) int {
		if v <= 0 || v > b {
			return b
		}
		return v
	}
	o.OverlapTokens = clampTo(o.OverlapTokens)
	o.WindowSizeTokens = clampTo(o.WindowSizeTokens)
	o.StepTokens = clampTo(o.StepTokens)
	if o.Adaptive.MaxTokens <= 0 || o.Adaptive.MaxTokens > b {
		o.Adaptive.MaxTokens = b
	}
	return o
}

// goBoundaryLookaheadLines bounds how far snapToGoBoundary will pull a
// window's end line forward to land on a declaration boundary, so a window
// with no nearby boundary is left alone rather than absorbing unrelated
// lines.
const goBoundaryLookaheadLines = 15

// rawChunk is an intermediate chunk before ids/indices are assigned.
type rawChunk struct {
	text      string
	startLine int
	endLine   int
	section   string
}

// strategySplitter is the per-strategy vtable entry.
type strategySplitter interface {
	split(ctx context.Context, text string, opts Options, tok tokenizer.Tokenizer) ([]rawChunk, error)
}

func splitterFor(s Strategy) strategySplitter {
	switch s {
	case StrategyTokens:
		return tokensSplitter{}
	case StrategySlidingWindow:
		return slidingWindowSplitter{}
	case StrategyBySection:
		return bySectionSplitter{}
	default:
		return linesSplitter{}
	}
}

// Chunk splits input.Text per opts.Strategy, runs the adaptive merge/split
// pass and budget enforcement, then finalizes into stable model.Chunk
// values (SPEC_FULL §4.5 Finalization).
func Chunk(ctx context.Context, input Input, opts Options, tok tokenizer.Tokenizer) ([]model.Chunk, error) {
	opts = opts.clamp()

	if input.Text == "" {
		return nil, nil
	}

	splitter := splitterFor(opts.Strategy)
	raws, err := splitter.split(ctx, input.Text, opts, tok)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", input.Path, err)
	}

	if input.Language == "go" && (opts.Strategy == StrategyLines || opts.Strategy == StrategyTokens) {
		raws = snapToGoBoundary(raws, input.Text, goBoundaryLookaheadLines)
	}

	raws = adaptivePass(raws, opts.Adaptive, tok)
	if opts.ContextBudgetTokens > 0 {
		raws = adaptivePass(raws, Envelope{MaxTokens: opts.ContextBudgetTokens}, tok)
	}

	return finalize(raws, input, string(opts.Strategy), tok), nil
}

func finalize(raws []rawChunk, input Input, origin string, tok tokenizer.Tokenizer) []model.Chunk {
	sort.SliceStable(raws, func(i, j int) bool {
		if raws[i].startLine != raws[j].startLine {
			return raws[i].startLine < raws[j].startLine
		}
		return tok.Count(raws[i].text) < tok.Count(raws[j].text)
	})

	chunks := make([]model.Chunk, len(raws))
	for i, rc := range raws {
		tc := tok.Count(rc.text)
		id := stableID(input.Path, rc.startLine, rc.endLine, rc.text, tok.ID())
		chunks[i] = model.Chunk{
			ID:   id,
			Text: rc.text,
			Metadata: model.ChunkMetadata{
				Origin:      origin,
				Path:        input.Path,
				StartLine:   rc.startLine,
				EndLine:     rc.endLine,
				TokenCount:  tc,
				CharCount:   len([]rune(rc.text)),
				ChunkIndex:  i,
				TotalChunks: len(raws),
				Section:     rc.section,
			},
		}
	}
	return chunks
}

// stableID computes SHA-256(path ‖ startLine ‖ endLine ‖ text ‖ tokenizerId),
// stable across runs for identical inputs (SPEC_FULL §3).
func stableID(path string, startLine, endLine int, text, tokenizerID string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00%s\x00%s", path, startLine, endLine, text, tokenizerID)
	return hex.EncodeToString(h.Sum(nil))
}

// countNewlines counts '\n' occurrences in s.
func countNewlines(s string) int {
	return strings.Count(s, "\n")
}

// lineRangeForOffsets maps a byte-offset span back to 1-based inclusive
// line numbers per SPEC_FULL §4.5 Finalization.
func lineRangeForOffsets(text string, startOffset, endOffset int) (startLine, endLine int) {
	startLine = countNewlines(text[:startOffset]) + 1
	endLine = startLine + countNewlines(text[startOffset:endOffset])
	return
}

var sectionHeadingRe = regexp.MustCompile(
	`^(#{1,6}\s|//\s*region\b|function\s+\w|class\s+\w|def\s+\w|interface\s+\w|export\s+(?:const|let|var)\s+\w|describe\(|it\(|\* )`)

func isSectionHeading(line, language string) bool {
	if sectionHeadingRe.MatchString(strings.TrimSpace(line)) {
		return true
	}
	if language == "markdown" && strings.HasPrefix(strings.TrimSpace(line), "- ") {
		return true
	}
	return false
}
