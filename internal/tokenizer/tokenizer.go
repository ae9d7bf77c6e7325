// Package tokenizer implements the Tokenizer Registry (SPEC_FULL.md §4.6):
// named tokenizer factories with lazy construction. Grounded on the
// teacher's internal/embedding/registry.go ProviderRegistry — generalized
// from embedding providers to tokenizers with the same register/get/
// list/unregister/clear method set and the same RWMutex + idempotent
// init()-based auto-registration discipline (SPEC_FULL §9 "global state").
package tokenizer

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/repoindexer/repoindexer/internal/pipelineerr"
)

// Offset is a half-open [Start, End) byte range for one token.
type Offset struct {
	Start int
	End   int
}

// EncodeResult is the result of Encode.
type EncodeResult struct {
	Tokens  []int
	Count   int
	Offsets []Offset // nil if the tokenizer cannot report offsets
}

// Tokenizer is the contract in SPEC_FULL.md §6.
type Tokenizer interface {
	ID() string
	Version() string
	Count(text string) int
	Encode(text string) (EncodeResult, error)
	Decode(tokens []int) (string, error)
	MaxTokens() int // 0 means unbounded
}

// Factory lazily constructs a Tokenizer, returning
// pipelineerr.ErrTokenizerUnavailable if its backend cannot be built.
type Factory func() (Tokenizer, error)

// Registry is a process-wide, thread-safe id -> factory map.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for id.
func (r *Registry) Register(id string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
}

// MustRegister panics if a factory for id is already registered with a
// different implementation; used by init()-time built-in registration,
// where a second registration attempt indicates a programming error.
func (r *Registry) MustRegister(id string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; exists {
		panic(fmt.Sprintf("tokenizer: id %q already registered", id))
	}
	r.factories[id] = f
}

// Unregister removes id's factory, if any.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, id)
}

// Has reports whether id has a registered factory.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[id]
	return ok
}

// List returns the registered ids in no particular order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	return ids
}

// Clear removes every registered factory.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]Factory)
}

// Create constructs a new Tokenizer for id, or
// pipelineerr.ErrTokenizerUnavailable if id is unknown or the factory
// fails.
func (r *Registry) Create(id string) (Tokenizer, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tokenizer %q: %w", id, pipelineerr.ErrTokenizerUnavailable)
	}
	t, err := f()
	if err != nil {
		return nil, fmt.Errorf("tokenizer %q: %w: %v", id, pipelineerr.ErrTokenizerUnavailable, err)
	}
	return t, nil
}

// Resolve creates id if registered; if id is empty, it auto-registers and
// returns the built-in "basic" tokenizer.
func (r *Registry) Resolve(id string) (Tokenizer, error) {
	if id == "" {
		id = BasicTokenizerID
	}
	if !r.Has(id) {
		if id == BasicTokenizerID {
			r.Register(BasicTokenizerID, func() (Tokenizer, error) { return NewBasicTokenizer(), nil })
		}
	}
	return r.Create(id)
}

// defaultRegistry is the process-wide registry every caller shares unless
// it constructs its own for test isolation.
var defaultRegistry = NewRegistry()

func init() {
	defaultRegistry.MustRegister(BasicTokenizerID, func() (Tokenizer, error) { return NewBasicTokenizer(), nil })
}

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// BasicTokenizerID is the built-in tokenizer's id.
const BasicTokenizerID = "basic"

var basicTokenRe = regexp.MustCompile(`[\p{L}\p{N}_]+|[^\s\p{L}\p{N}_]`)

// basicTokenizer splits on word-class/unicode-letter runs or a single
// non-whitespace rune, reporting byte offsets.
type basicTokenizer struct{}

func NewBasicTokenizer() Tokenizer { return basicTokenizer{} }

func (basicTokenizer) ID() string      { return BasicTokenizerID }
func (basicTokenizer) Version() string { return "1" }
func (basicTokenizer) MaxTokens() int  { return 0 }

func (b basicTokenizer) Count(text string) int {
	return len(basicTokenRe.FindAllStringIndex(text, -1))
}

func (b basicTokenizer) Encode(text string) (EncodeResult, error) {
	idxs := basicTokenRe.FindAllStringIndex(text, -1)
	result := EncodeResult{
		Tokens:  make([]int, len(idxs)),
		Count:   len(idxs),
		Offsets: make([]Offset, len(idxs)),
	}
	for i, pair := range idxs {
		result.Tokens[i] = i
		result.Offsets[i] = Offset{Start: pair[0], End: pair[1]}
	}
	return result, nil
}

func (b basicTokenizer) Decode(tokens []int) (string, error) {
	return "", fmt.Errorf("basic tokenizer does not support decode")
}
