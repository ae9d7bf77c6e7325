package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuickDigestDeterministic(t *testing.T) {
	a := quickDigest("hash1", "a.go")
	b := quickDigest("hash1", "a.go")
	assert.Equal(t, a, b)
}

func TestQuickDigestDistinguishesPath(t *testing.T) {
	a := quickDigest("hash1", "a.go")
	b := quickDigest("hash1", "b.go")
	assert.NotEqual(t, a, b)
}

func TestQuickDigestDistinguishesContentHash(t *testing.T) {
	a := quickDigest("hash1", "a.go")
	b := quickDigest("hash2", "a.go")
	assert.NotEqual(t, a, b)
}

func TestQuickDigestNoSeparatorCollision(t *testing.T) {
	// Without the 0x00 separator, ("ab", "c") and ("a", "bc") would collide.
	a := quickDigest("ab", "c")
	b := quickDigest("a", "bc")
	assert.NotEqual(t, a, b)
}
