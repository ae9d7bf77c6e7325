package tokenizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoindexer/repoindexer/internal/pipelineerr"
)

func TestBasicTokenizerCountsWordsAndPunctuation(t *testing.T) {
	tok := NewBasicTokenizer()
	assert.Equal(t, 4, tok.Count("hello, world!"))
}

func TestBasicTokenizerEncodeReportsOffsets(t *testing.T) {
	tok := NewBasicTokenizer()
	result, err := tok.Encode("go fmt")
	require.NoError(t, err)
	require.Len(t, result.Offsets, 2)
	assert.Equal(t, Offset{Start: 0, End: 2}, result.Offsets[0])
	assert.Equal(t, Offset{Start: 3, End: 6}, result.Offsets[1])
}

func TestBasicTokenizerDecodeUnsupported(t *testing.T) {
	tok := NewBasicTokenizer()
	_, err := tok.Decode([]int{0})
	assert.Error(t, err)
}

func TestBasicTokenizerIDAndVersion(t *testing.T) {
	tok := NewBasicTokenizer()
	assert.Equal(t, BasicTokenizerID, tok.ID())
	assert.NotEmpty(t, tok.Version())
	assert.Equal(t, 0, tok.MaxTokens())
}

func TestRegistryRegisterAndCreate(t *testing.T) {
	r := NewRegistry()
	r.Register("custom", func() (Tokenizer, error) { return NewBasicTokenizer(), nil })
	tok, err := r.Create("custom")
	require.NoError(t, err)
	assert.Equal(t, BasicTokenizerID, tok.ID())
}

func TestRegistryCreateUnknownIDReturnsTokenizerUnavailable(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create("missing")
	assert.ErrorIs(t, err, pipelineerr.ErrTokenizerUnavailable)
}

func TestRegistryCreateWrapsFactoryError(t *testing.T) {
	r := NewRegistry()
	r.Register("broken", func() (Tokenizer, error) { return nil, errors.New("backend down") })
	_, err := r.Create("broken")
	assert.ErrorIs(t, err, pipelineerr.ErrTokenizerUnavailable)
}

func TestRegistryMustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("dup", func() (Tokenizer, error) { return NewBasicTokenizer(), nil })
	assert.Panics(t, func() {
		r.MustRegister("dup", func() (Tokenizer, error) { return NewBasicTokenizer(), nil })
	})
}

func TestRegistryUnregisterRemovesFactory(t *testing.T) {
	r := NewRegistry()
	r.Register("x", func() (Tokenizer, error) { return NewBasicTokenizer(), nil })
	r.Unregister("x")
	assert.False(t, r.Has("x"))
}

func TestRegistryListReturnsAllRegisteredIDs(t *testing.T) {
	r := NewRegistry()
	r.Register("a", func() (Tokenizer, error) { return NewBasicTokenizer(), nil })
	r.Register("b", func() (Tokenizer, error) { return NewBasicTokenizer(), nil })
	assert.ElementsMatch(t, []string{"a", "b"}, r.List())
}

func TestRegistryClearRemovesEverything(t *testing.T) {
	r := NewRegistry()
	r.Register("a", func() (Tokenizer, error) { return NewBasicTokenizer(), nil })
	r.Clear()
	assert.Empty(t, r.List())
}

func TestRegistryResolveEmptyIDAutoRegistersBasic(t *testing.T) {
	r := NewRegistry()
	tok, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, BasicTokenizerID, tok.ID())
	assert.True(t, r.Has(BasicTokenizerID))
}

func TestDefaultRegistryHasBasicPreregistered(t *testing.T) {
	assert.True(t, Default().Has(BasicTokenizerID))
}
