package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoDeclBoundariesFindsFuncEnds(t *testing.T) {
	text := "package main\n\nfunc A() {\n\treturn\n}\n\nfunc B() {\n\treturn\n}\n"
	bounds := goDeclBoundaries(text)
	require.NotEmpty(t, bounds)
	assert.Equal(t, 5, bounds[0])
}

func TestGoDeclBoundariesEmptyOnParseError(t *testing.T) {
	bounds := goDeclBoundaries("not valid go {{{")
	assert.Empty(t, bounds)
}

func TestGoDeclBoundariesIncludesGenDecl(t *testing.T) {
	text := "package main\n\ntype T struct {\n\tA int\n}\n"
	bounds := goDeclBoundaries(text)
	require.NotEmpty(t, bounds)
}

func TestSnapToGoBoundaryPullsEndLineForwardWithinLookahead(t *testing.T) {
	text := "package main\n\nfunc A() {\n\treturn\n}\n\nfunc B() {\n\treturn\n}\n"
	raws := []rawChunk{{text: "stub", startLine: 1, endLine: 4}}
	out := snapToGoBoundary(raws, text, 15)
	assert.Equal(t, 5, out[0].endLine)
	// text must be re-derived to match the new endLine, not left as the
	// pre-snap placeholder.
	assert.Equal(t, "package main\n\nfunc A() {\n\treturn\n}", out[0].text)
}

func TestSnapToGoBoundaryLeavesUnchangedWhenNoBoundaryNearby(t *testing.T) {
	raws := []rawChunk{{text: "stub", startLine: 1, endLine: 100}}
	out := snapToGoBoundary(raws, "not valid go {{{", 15)
	assert.Equal(t, 100, out[0].endLine)
}

func TestSnapToGoBoundaryLeavesUnchangedWhenBoundaryOutOfLookahead(t *testing.T) {
	text := "package main\n\nfunc A() {\n\treturn\n}\n"
	raws := []rawChunk{{text: "stub", startLine: 10, endLine: 10}}
	out := snapToGoBoundary(raws, text, 2)
	assert.Equal(t, 10, out[0].endLine)
}
