// Package textproc implements the Normalizer, Sanitizer, Deduplicator,
// Secret scanner, and Policy engine (SPEC_FULL.md §4.4): stateless text
// transforms with declarative rule tables, run once per file body. New
// package; the precompiled-rule-table idiom is grounded on
// internal/indexer/chunker.go's per-language regex tables and
// internal/indexer/walker.go's precompiled ignore-pattern tables.
package textproc

import (
	"regexp"
	"strings"
)

// NormalizeOptions configures the Normalizer. All transforms are optional
// and independently toggled.
type NormalizeOptions struct {
	StripBOM               bool
	LineEnding              string // "lf" (default) or "crlf"
	TrimTrailingWhitespace bool
	CollapseBlankLines     bool
}

// Normalizer applies a fixed sequence of whitespace/encoding transforms and
// reports which ones actually changed the text.
type Normalizer struct {
	opts NormalizeOptions
}

func NewNormalizer(opts NormalizeOptions) *Normalizer {
	if opts.LineEnding == "" {
		opts.LineEnding = "lf"
	}
	return &Normalizer{opts: opts}
}

var blankLineRunRe = regexp.MustCompile(`\n{3,}`)

// Normalize returns the transformed text and the list of transform names
// that fired (changed the text). Idempotent: Normalize(Normalize(t).Text) ==
// Normalize(t).
func (n *Normalizer) Normalize(text string) (result string, applied []string) {
	result = text

	if n.opts.StripBOM {
		if trimmed := strings.TrimPrefix(result, "﻿"); trimmed != result {
			result = trimmed
			applied = append(applied, "strip-bom")
		}
	}

	folded := foldLineEndings(result, n.opts.LineEnding)
	if folded != result {
		result = folded
		applied = append(applied, "fold-line-endings")
	}

	if n.opts.TrimTrailingWhitespace {
		trimmed := trimTrailingWhitespacePerLine(result)
		if trimmed != result {
			result = trimmed
			applied = append(applied, "trim-trailing-whitespace")
		}
	}

	if n.opts.CollapseBlankLines {
		collapsed := blankLineRunRe.ReplaceAllString(result, "\n\n\n")
		if collapsed != result {
			result = collapsed
			applied = append(applied, "collapse-blank-lines")
		}
	}

	return result, applied
}

func foldLineEndings(text, ending string) string {
	folded := strings.ReplaceAll(text, "\r\n", "\n")
	folded = strings.ReplaceAll(folded, "\r", "\n")
	if ending == "crlf" {
		folded = strings.ReplaceAll(folded, "\n", "\r\n")
	}
	return folded
}

// trimTrailingWhitespacePerLine trims trailing whitespace from each line,
// except it preserves a single trailing space on markdown-table rows (lines
// containing "|") so the table's column alignment is not destroyed.
func trimTrailingWhitespacePerLine(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if strings.Contains(line, "|") && trimmed != line {
			trimmed += " "
		}
		lines[i] = trimmed
	}
	return strings.Join(lines, "\n")
}
