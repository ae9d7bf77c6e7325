package pipeline

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/repoindexer/repoindexer/internal/model"
)

// relativeImportRe matches the common relative-import/require spellings
// across the languages in extLanguage: JS/TS import/require, Python
// "from . import", and Go's quoted relative import path.
var relativeImportRe = regexp.MustCompile(
	`(?:import\s+.*?from\s+|require\(\s*|import\s*\(?\s*|from\s+)['"]?(\.\.?/[^'")\s]+)['"]?`)

// extractDependencyEdges regex-extracts relative imports/requires from
// text and resolves each against path's directory (SPEC_FULL.md §4.7.j).
func extractDependencyEdges(path, text string) []model.DependencyEdge {
	matches := relativeImportRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	dir := filepath.Dir(path)
	var edges []model.DependencyEdge
	seen := make(map[string]bool)
	for _, m := range matches {
		resolved := filepath.ToSlash(filepath.Clean(filepath.Join(dir, m[1])))
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		edges = append(edges, model.DependencyEdge{FromPath: path, ToPath: resolved})
	}
	return edges
}

var symbolDeclRe = regexp.MustCompile(
	`^\s*(?:func(?:\s*\([^)]*\))?|class|def|interface|export\s+(?:const|let|var)|struct)\s+([A-Za-z_][A-Za-z0-9_]*)`)

// extractSymbolEntries regex-pass over a chunk's text for declaration-like
// lines, recording the declaring line's one-line context (SPEC_FULL.md
// §4.9 searchSymbols backing data).
func extractSymbolEntries(path string, startLine int, text string) []model.SymbolEntry {
	lines := strings.Split(text, "\n")
	var entries []model.SymbolEntry
	for i, line := range lines {
		m := symbolDeclRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entries = append(entries, model.SymbolEntry{
			Symbol:  m[1],
			Path:    path,
			Line:    startLine + i,
			Context: trimContext(line),
		})
	}
	return entries
}

func trimContext(line string) string {
	const max = 200
	if len(line) <= max {
		return line
	}
	return line[:max]
}
