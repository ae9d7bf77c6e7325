package chunk

import (
	"strings"

	"github.com/repoindexer/repoindexer/internal/tokenizer"
)

// adaptivePass merges undersized adjacent chunks and splits oversized ones
// against env (SPEC_FULL.md §4.5 "Adaptive pass"). A zero field in env
// means "no requirement" (for min fields) or "no bound" (for max fields).
func adaptivePass(raws []rawChunk, env Envelope, tok tokenizer.Tokenizer) []rawChunk {
	if len(raws) == 0 {
		return raws
	}
	merged := mergeSmallAdjacent(raws, env, tok)
	return splitLarge(merged, env, tok)
}

func meetsMin(rc rawChunk, env Envelope, tok tokenizer.Tokenizer) bool {
	if env.MinTokens > 0 && tok.Count(rc.text) < env.MinTokens {
		return false
	}
	if env.MinChars > 0 && len([]rune(rc.text)) < env.MinChars {
		return false
	}
	if env.MinLines > 0 && (rc.endLine-rc.startLine+1) < env.MinLines {
		return false
	}
	return true
}

func exceedsMax(rc rawChunk, env Envelope, tok tokenizer.Tokenizer) bool {
	if env.MaxTokens > 0 && tok.Count(rc.text) > env.MaxTokens {
		return true
	}
	if env.MaxChars > 0 && len([]rune(rc.text)) > env.MaxChars {
		return true
	}
	if env.MaxLines > 0 && (rc.endLine-rc.startLine+1) > env.MaxLines {
		return true
	}
	return false
}

// mergeSmallAdjacent buffers undersized chunks, flushing only when the
// buffer meets every configured minimum. If the final buffer still falls
// short, there is nothing after it left to fold into, so it folds
// backward into the last flushed chunk instead of surviving standalone
// (SPEC_FULL.md §8 scenario 6: every emitted chunk meets the minimums).
func mergeSmallAdjacent(raws []rawChunk, env Envelope, tok tokenizer.Tokenizer) []rawChunk {
	if env.MinTokens == 0 && env.MinChars == 0 && env.MinLines == 0 {
		return raws
	}

	var result []rawChunk
	buf := raws[0]
	for i := 1; i < len(raws); i++ {
		if meetsMin(buf, env, tok) {
			result = append(result, buf)
			buf = raws[i]
			continue
		}
		buf = foldChunks(buf, raws[i])
	}
	if !meetsMin(buf, env, tok) && len(result) > 0 {
		result[len(result)-1] = foldChunks(result[len(result)-1], buf)
	} else {
		result = append(result, buf)
	}
	return result
}

func foldChunks(a, b rawChunk) rawChunk {
	section := a.section
	if section == "" {
		section = b.section
	}
	return rawChunk{
		text:      a.text + "\n" + b.text,
		startLine: a.startLine,
		endLine:   b.endLine,
		section:   section,
	}
}

// splitLarge subdivides any chunk exceeding env's maxima.
func splitLarge(raws []rawChunk, env Envelope, tok tokenizer.Tokenizer) []rawChunk {
	if env.MaxTokens == 0 && env.MaxChars == 0 && env.MaxLines == 0 {
		return raws
	}

	var result []rawChunk
	for _, rc := range raws {
		if !exceedsMax(rc, env, tok) {
			result = append(result, rc)
			continue
		}
		result = append(result, subdivide(rc, env, tok)...)
	}
	return result
}

// subdivide splits rc by lines. When the average tokens-per-line permits
// deriving a line target that respects env.MaxLines, it splits using that
// target; otherwise it splits evenly into ⌈tokens/maxTokens⌉ pieces by line
// count.
func subdivide(rc rawChunk, env Envelope, tok tokenizer.Tokenizer) []rawChunk {
	lines := strings.Split(rc.text, "\n")
	if len(lines) <= 1 {
		return []rawChunk{rc}
	}

	totalTokens := tok.Count(rc.text)
	lineTarget := len(lines)

	if env.MaxLines > 0 {
		lineTarget = env.MaxLines
	} else if env.MaxTokens > 0 && totalTokens > 0 {
		avgTokensPerLine := float64(totalTokens) / float64(len(lines))
		if avgTokensPerLine > 0 {
			derived := int(float64(env.MaxTokens) / avgTokensPerLine)
			if derived > 0 {
				lineTarget = derived
			}
		}
	}
	if lineTarget <= 0 || lineTarget >= len(lines) {
		if env.MaxTokens > 0 {
			pieces := (totalTokens + env.MaxTokens - 1) / env.MaxTokens
			if pieces < 1 {
				pieces = 1
			}
			lineTarget = (len(lines) + pieces - 1) / pieces
		} else {
			lineTarget = len(lines) / 2
		}
	}
	if lineTarget <= 0 {
		lineTarget = 1
	}

	var out []rawChunk
	for start := 0; start < len(lines); start += lineTarget {
		end := start + lineTarget
		if end > len(lines) {
			end = len(lines)
		}
		out = append(out, rawChunk{
			text:      strings.Join(lines[start:end], "\n"),
			startLine: rc.startLine + start,
			endLine:   rc.startLine + end - 1,
			section:   rc.section,
		})
	}
	return out
}
