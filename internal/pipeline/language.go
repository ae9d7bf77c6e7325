package pipeline

import (
	"path/filepath"
	"strings"
)

// extLanguage maps a lowercased file extension to a language tag used for
// language-chunk-profile resolution and the dependency-graph pass.
var extLanguage = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cc":   "cpp",
	".cpp":  "cpp",
	".rs":   "rust",
	".rb":   "ruby",
	".md":   "markdown",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
}

func languageForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extLanguage[ext]; ok {
		return lang
	}
	return ""
}

// isTestFile applies SPEC_FULL.md §4.7.j's path heuristics.
func isTestFile(path string) bool {
	lower := strings.ToLower(filepath.ToSlash(path))
	markers := []string{"__tests__/", ".test.", ".spec.", "/tests/"}
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
