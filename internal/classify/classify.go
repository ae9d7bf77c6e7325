// Package classify implements the Content Filter (SPEC_FULL.md §4.3):
// per-file binary/generated/large detection. New package; grounded on the
// "default set ∪ configured set" table idiom used throughout
// internal/indexer/walker.go's DefaultIgnorePatterns and
// internal/indexer/chunker.go's per-extension language table.
package classify

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
)

const sniffWindow = 4096

// DefaultLargeThreshold is the default size, in bytes, at or above which a
// file is classified large.
const DefaultLargeThreshold = 2 * 1024 * 1024

var defaultBinaryExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true,
	".pdf": true, ".zip": true, ".tar": true, ".gz": true, ".7z": true, ".rar": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".class": true, ".o": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".mp3": true, ".mp4": true,
	".mov": true, ".avi": true, ".wasm": true, ".bin": true,
}

var defaultGeneratedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.min\.(js|css)$`),
	regexp.MustCompile(`\.generated\.[^/]+$`),
	regexp.MustCompile(`(^|/)package-lock\.json$`),
	regexp.MustCompile(`(^|/)yarn\.lock$`),
	regexp.MustCompile(`(^|/)pnpm-lock\.yaml$`),
	regexp.MustCompile(`(^|/)go\.sum$`),
	regexp.MustCompile(`\.map$`),
}

var defaultGeneratedDirs = map[string]bool{
	"dist": true, "build": true, "out": true, "vendor": true, "tmp": true, ".next": true,
}

// Options configures the classifier with configured sets added to the
// defaults above.
type Options struct {
	BinaryExts        []string
	GeneratedPatterns []*regexp.Regexp
	GeneratedDirs     []string
	LargeThreshold    int64 // 0 uses DefaultLargeThreshold
	SniffContent      bool  // enable null-byte sniffing for binary detection
}

// Classifier holds precompiled pattern tables; construct once per run.
type Classifier struct {
	binaryExts        map[string]bool
	generatedPatterns []*regexp.Regexp
	generatedDirs     map[string]bool
	largeThreshold    int64
	sniffContent      bool
}

// New builds a Classifier from Options, merging configured sets onto the
// defaults.
func New(opts Options) *Classifier {
	c := &Classifier{
		binaryExts:        cloneSet(defaultBinaryExts),
		generatedPatterns: append(append([]*regexp.Regexp{}, defaultGeneratedPatterns...), opts.GeneratedPatterns...),
		generatedDirs:     cloneSet(defaultGeneratedDirs),
		largeThreshold:    opts.LargeThreshold,
		sniffContent:      opts.SniffContent,
	}
	for _, ext := range opts.BinaryExts {
		c.binaryExts[strings.ToLower(ext)] = true
	}
	for _, d := range opts.GeneratedDirs {
		c.generatedDirs[d] = true
	}
	if c.largeThreshold <= 0 {
		c.largeThreshold = DefaultLargeThreshold
	}
	return c
}

func cloneSet(src map[string]bool) map[string]bool {
	dst := make(map[string]bool, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Result is the classifier's verdict for one file.
type Result struct {
	Binary    bool
	Generated bool
	Large     bool
}

// Skip reports whether any flag is set.
func (r Result) Skip() bool { return r.Binary || r.Generated || r.Large }

// Reason renders the comma-joined set of true flags, used as
// IndexFileMetadata.skipReason.
func (r Result) Reason() string {
	var parts []string
	if r.Binary {
		parts = append(parts, "binary")
	}
	if r.Generated {
		parts = append(parts, "generated")
	}
	if r.Large {
		parts = append(parts, "large")
	}
	return strings.Join(parts, ",")
}

// Classify evaluates path and size; content, if non-nil, is sniffed for a
// null byte in its first 4 KiB when SniffContent is enabled. Passing nil
// content skips the sniff (binary classification then relies on extension
// alone).
func (c *Classifier) Classify(path string, sizeBytes int64, content []byte) Result {
	var r Result

	ext := strings.ToLower(filepath.Ext(path))
	if c.binaryExts[ext] {
		r.Binary = true
	} else if c.sniffContent && content != nil {
		window := content
		if len(window) > sniffWindow {
			window = window[:sniffWindow]
		}
		if bytes.IndexByte(window, 0) >= 0 {
			r.Binary = true
		}
	}

	base := filepath.Base(path)
	for _, re := range c.generatedPatterns {
		if re.MatchString(base) || re.MatchString(filepath.ToSlash(path)) {
			r.Generated = true
			break
		}
	}
	if !r.Generated {
		for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
			if c.generatedDirs[seg] {
				r.Generated = true
				break
			}
		}
	}

	if sizeBytes >= c.largeThreshold {
		r.Large = true
	}

	return r
}
