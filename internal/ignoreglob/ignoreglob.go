// Package ignoreglob compiles gitignore-style pattern lines into matchers,
// the leaf primitive under the file enumerator's layered ignore matcher
// (SPEC_FULL.md §4.2). Each pattern line compiles once, at matcher
// construction, per the "precompile regex-heavy hot paths" design note.
package ignoreglob

import (
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// Pattern is one compiled gitignore-style line.
type Pattern struct {
	raw      string
	negate   bool
	dirOnly  bool
	anchored bool
	g        glob.Glob
	// declaredDir is the directory (repo-relative, forward-slash, no
	// trailing slash) the pattern was declared in; anchoring is resolved
	// relative to it.
	declaredDir string
}

// Compile compiles a single gitignore-style pattern line, declared in
// declaredDir (repo-relative, "" for the snapshot root). Returns (nil, false)
// for blank lines and comments.
func Compile(line string, declaredDir string) (*Pattern, bool) {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, false
	}

	p := &Pattern{raw: line, declaredDir: declaredDir}

	if strings.HasPrefix(trimmed, "!") {
		p.negate = true
		trimmed = trimmed[1:]
	}

	if strings.HasSuffix(trimmed, "/") {
		p.dirOnly = true
		trimmed = strings.TrimSuffix(trimmed, "/")
	}

	if strings.HasPrefix(trimmed, "/") {
		p.anchored = true
		trimmed = strings.TrimPrefix(trimmed, "/")
	}

	// Rewrite to an always-anchored glob against the repo root: an
	// unanchored pattern is "**/pattern"; a dir-only pattern additionally
	// matches everything beneath it via "pattern/**".
	anchoredPattern := trimmed
	if !p.anchored {
		anchoredPattern = "**/" + trimmed
	}
	if declaredDir != "" {
		anchoredPattern = declaredDir + "/" + anchoredPattern
	}

	compiled, err := glob.Compile(anchoredPattern, '/')
	if err != nil {
		// Fall back to a literal-segment glob if the pattern contains
		// characters glob.Compile rejects; treat it as matching nothing
		// rather than failing the whole matcher.
		compiled = glob.MustCompile(glob.QuoteMeta(anchoredPattern), '/')
	}
	p.g = compiled

	return p, true
}

// Matches reports whether relPath (repo-relative, forward-slash) matches
// this pattern. When the pattern is directory-only, matches additionally
// accepts any path nested under a directory equal to the pattern.
func (p *Pattern) Matches(relPath string, isDir bool) bool {
	if p.g.Match(relPath) {
		return true
	}
	if p.dirOnly {
		// "pattern/**" form: also match the directory itself and anything
		// nested beneath it, even though glob's "**" requires at least one
		// path segment after the prefix.
		prefix := p.anchoredDirPrefix()
		if relPath == prefix && isDir {
			return true
		}
		if strings.HasPrefix(relPath, prefix+"/") {
			return true
		}
	}
	return false
}

func (p *Pattern) anchoredDirPrefix() string {
	trimmed := strings.TrimPrefix(p.raw, "!")
	trimmed = strings.TrimSuffix(trimmed, "/")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if p.declaredDir != "" {
		return path.Join(p.declaredDir, trimmed)
	}
	return trimmed
}

// Negate reports whether this pattern reverses the effective ignore flag.
func (p *Pattern) Negate() bool { return p.negate }

// Matcher evaluates a path against an ordered list of compiled patterns;
// the last matching pattern wins (gitignore semantics), so negation
// (patterns prefixed with "!") can re-include a path an earlier pattern
// excluded.
type Matcher struct {
	patterns []*Pattern
}

// NewMatcher compiles patterns declared at declaredDir into a Matcher.
// Blank lines and comments are skipped.
func NewMatcher(lines []string, declaredDir string) *Matcher {
	m := &Matcher{}
	for _, line := range lines {
		if p, ok := Compile(line, declaredDir); ok {
			m.patterns = append(m.patterns, p)
		}
	}
	return m
}

// Merge returns a new Matcher whose pattern list is parent's patterns
// followed by this matcher's own — ancestor patterns apply first, and a
// directory's own .gitignore can still override them via negation, matching
// the "patterns from a local ignore file are appended to those inherited
// from ancestors" rule in SPEC_FULL.md §4.2.
func (m *Matcher) Merge(child *Matcher) *Matcher {
	merged := &Matcher{patterns: make([]*Pattern, 0, len(m.patterns)+len(child.patterns))}
	merged.patterns = append(merged.patterns, m.patterns...)
	merged.patterns = append(merged.patterns, child.patterns...)
	return merged
}

// Ignored reports whether relPath should be ignored under this matcher's
// accumulated pattern set.
func (m *Matcher) Ignored(relPath string, isDir bool) bool {
	ignored := false
	for _, p := range m.patterns {
		if p.Matches(relPath, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}

// MatchesAny reports whether relPath matches at least one compiled pattern,
// ignoring negation. Used where the pattern list is an allow-list (sparse
// and include-path filters) rather than an ignore list.
func (m *Matcher) MatchesAny(relPath string, isDir bool) bool {
	for _, p := range m.patterns {
		if p.Matches(relPath, isDir) {
			return true
		}
	}
	return false
}
