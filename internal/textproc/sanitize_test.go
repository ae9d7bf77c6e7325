package textproc

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeAppliesRulesInOrder(t *testing.T) {
	s := NewSanitizer([]SanitizeRule{
		{ID: "redact-foo", Pattern: regexp.MustCompile(`foo`), Replacement: "bar"},
		{ID: "redact-bar", Pattern: regexp.MustCompile(`bar`), Replacement: "baz"},
	})
	result, applied := s.Sanitize("foo")
	assert.Equal(t, "baz", result)
	assert.Equal(t, []string{"redact-foo", "redact-bar"}, applied)
}

func TestSanitizeSkipsNonMatchingRules(t *testing.T) {
	s := NewSanitizer([]SanitizeRule{
		{ID: "never", Pattern: regexp.MustCompile(`nope`), Replacement: "x"},
	})
	result, applied := s.Sanitize("hello")
	assert.Equal(t, "hello", result)
	assert.Empty(t, applied)
}

func TestSanitizeNoRulesReturnsTextUnchanged(t *testing.T) {
	s := NewSanitizer(nil)
	result, applied := s.Sanitize("hello")
	assert.Equal(t, "hello", result)
	assert.Empty(t, applied)
}
