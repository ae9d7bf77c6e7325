package chunk

import (
	"context"
	"strings"

	"github.com/repoindexer/repoindexer/internal/tokenizer"
)

// linesSplitter slides fixed-size windows of lines with an overlap backstep.
type linesSplitter struct{}

func (linesSplitter) split(_ context.Context, text string, opts Options, _ tokenizer.Tokenizer) ([]rawChunk, error) {
	lines := strings.Split(text, "\n")
	target := opts.TargetLines
	if target <= 0 {
		target = 50
	}
	overlap := opts.OverlapLines
	if overlap < 0 || overlap >= target {
		overlap = 0
	}
	step := target - overlap
	if step < 1 {
		step = 1
	}

	var chunks []rawChunk
	for start := 0; start < len(lines); start += step {
		end := start + target
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, rawChunk{
			text:      strings.Join(lines[start:end], "\n"),
			startLine: start + 1,
			endLine:   end,
		})
		if end >= len(lines) {
			break
		}
	}
	if len(chunks) == 0 {
		chunks = append(chunks, rawChunk{text: text, startLine: 1, endLine: len(lines)})
	}
	return chunks, nil
}

// tokensSplitter windows over token byte-offsets when the tokenizer
// reports them; otherwise it approximates using a derived
// characters-per-token ratio and windows over characters.
type tokensSplitter struct{}

func (tokensSplitter) split(_ context.Context, text string, opts Options, tok tokenizer.Tokenizer) ([]rawChunk, error) {
	target := opts.WindowSizeTokens
	if target <= 0 {
		target = 200
	}
	overlap := opts.OverlapTokens
	if overlap < 0 || overlap >= target {
		overlap = 0
	}

	enc, err := tok.Encode(text)
	if err != nil || enc.Offsets == nil {
		return approximateTokenWindows(text, target, overlap)
	}

	step := target - overlap
	if step < 1 {
		step = 1
	}

	var chunks []rawChunk
	for start := 0; start < len(enc.Offsets); start += step {
		end := start + target
		if end > len(enc.Offsets) {
			end = len(enc.Offsets)
		}
		startOff := enc.Offsets[start].Start
		endOff := enc.Offsets[end-1].End
		startLine, endLine := lineRangeForOffsets(text, startOff, endOff)
		chunks = append(chunks, rawChunk{text: text[startOff:endOff], startLine: startLine, endLine: endLine})
		if end >= len(enc.Offsets) {
			break
		}
	}
	if len(chunks) == 0 {
		chunks = append(chunks, rawChunk{text: text, startLine: 1, endLine: countNewlines(text) + 1})
	}
	return chunks, nil
}

// approximateTokenWindows windows over characters using an estimated
// characters-per-token ratio, for tokenizers that cannot report offsets.
func approximateTokenWindows(text string, targetTokens, overlapTokens int) ([]rawChunk, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}
	charsPerToken := 4.0
	targetChars := int(float64(targetTokens) * charsPerToken)
	if targetChars < 1 {
		targetChars = 1
	}
	overlapChars := int(float64(overlapTokens) * charsPerToken)
	step := targetChars - overlapChars
	if step < 1 {
		step = 1
	}

	var chunks []rawChunk
	for start := 0; start < len(runes); start += step {
		end := start + targetChars
		if end > len(runes) {
			end = len(runes)
		}
		chunkText := string(runes[start:end])
		startOff := len(string(runes[:start]))
		endOff := startOff + len(chunkText)
		startLine, endLine := lineRangeForOffsets(text, startOff, endOff)
		chunks = append(chunks, rawChunk{text: chunkText, startLine: startLine, endLine: endLine})
		if end >= len(runes) {
			break
		}
	}
	return chunks, nil
}

// slidingWindowSplitter windows by token count (or its character
// approximation) with an independent step, decoupled from any merge/split
// envelope.
type slidingWindowSplitter struct{}

func (s slidingWindowSplitter) split(ctx context.Context, text string, opts Options, tok tokenizer.Tokenizer) ([]rawChunk, error) {
	windowed := Options{
		WindowSizeTokens: opts.WindowSizeTokens,
		OverlapTokens:    opts.WindowSizeTokens - opts.StepTokens,
	}
	if windowed.OverlapTokens < 0 {
		windowed.OverlapTokens = 0
	}
	return tokensSplitter{}.split(ctx, text, windowed, tok)
}

// bySectionSplitter splits whenever a line matches a heading heuristic.
type bySectionSplitter struct{}

func (bySectionSplitter) split(_ context.Context, text string, opts Options, _ tokenizer.Tokenizer) ([]rawChunk, error) {
	lines := strings.Split(text, "\n")
	var chunks []rawChunk
	var buf []string
	start := 1
	section := ""

	flush := func(end int) {
		if len(buf) == 0 {
			return
		}
		chunks = append(chunks, rawChunk{text: strings.Join(buf, "\n"), startLine: start, endLine: end, section: section})
		buf = nil
	}

	for i, line := range lines {
		lineNum := i + 1
		if isSectionHeading(line, "") && len(buf) > 0 {
			flush(lineNum - 1)
			start = lineNum
			section = strings.TrimSpace(line)
		} else if len(buf) == 0 {
			start = lineNum
			if isSectionHeading(line, "") {
				section = strings.TrimSpace(line)
			}
		}
		buf = append(buf, line)
	}
	flush(len(lines))

	if len(chunks) == 0 {
		chunks = append(chunks, rawChunk{text: text, startLine: 1, endLine: len(lines)})
	}
	return chunks, nil
}
