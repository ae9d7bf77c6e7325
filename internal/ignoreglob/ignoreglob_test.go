package ignoreglob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSkipsBlankAndCommentLines(t *testing.T) {
	_, ok := Compile("", "")
	assert.False(t, ok)

	_, ok = Compile("   ", "")
	assert.False(t, ok)

	_, ok = Compile("# a comment", "")
	assert.False(t, ok)
}

func TestCompileUnanchoredMatchesAnyDepth(t *testing.T) {
	p, ok := Compile("*.log", "")
	require.True(t, ok)
	assert.True(t, p.Matches("debug.log", false))
	assert.True(t, p.Matches("nested/deep/debug.log", false))
}

func TestCompileAnchoredMatchesOnlyAtRoot(t *testing.T) {
	p, ok := Compile("/build", "")
	require.True(t, ok)
	assert.True(t, p.Matches("build", true))
	assert.False(t, p.Matches("nested/build", true))
}

func TestCompileDirOnlyMatchesChildren(t *testing.T) {
	p, ok := Compile("node_modules/", "")
	require.True(t, ok)
	assert.True(t, p.Matches("node_modules", true))
	assert.True(t, p.Matches("node_modules/pkg/index.js", false))
	assert.False(t, p.Matches("node_modules.json", false))
}

func TestCompileNegatePattern(t *testing.T) {
	p, ok := Compile("!keep.log", "")
	require.True(t, ok)
	assert.True(t, p.Negate())
	assert.True(t, p.Matches("keep.log", false))
}

func TestCompileDeclaredDirAnchorsRelativeToSubdir(t *testing.T) {
	p, ok := Compile("/local.txt", "pkg/sub")
	require.True(t, ok)
	assert.True(t, p.Matches("pkg/sub/local.txt", false))
	assert.False(t, p.Matches("pkg/other/local.txt", false))
}

func TestMatcherLastMatchWins(t *testing.T) {
	m := NewMatcher([]string{"*.log", "!important.log"}, "")
	assert.True(t, m.Ignored("debug.log", false))
	assert.False(t, m.Ignored("important.log", false))
}

func TestMatcherMergeAppliesChildAfterParent(t *testing.T) {
	parent := NewMatcher([]string{"*.log"}, "")
	child := NewMatcher([]string{"!keep.log"}, "sub")
	merged := parent.Merge(child)
	assert.True(t, merged.Ignored("sub/debug.log", false))
	assert.False(t, merged.Ignored("sub/keep.log", false))
}

func TestMatcherMatchesAnyIgnoresNegation(t *testing.T) {
	m := NewMatcher([]string{"!keep.log"}, "")
	assert.True(t, m.MatchesAny("keep.log", false))
}

func TestMatcherIgnoredFalseWhenNoPatternMatches(t *testing.T) {
	m := NewMatcher([]string{"*.log"}, "")
	assert.False(t, m.Ignored("main.go", false))
}
