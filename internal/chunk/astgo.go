package chunk

import (
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"
)

// goDeclBoundary is a line at which a top-level Go declaration ends; a safe
// point to snap a line/token window boundary to, so a window doesn't slice
// through the middle of a function or type declaration. Grounded on
// internal/indexer/chunker.go's chunkGoCode, which walks *ast.FuncDecl and
// *ast.TypeSpec nodes the same way to find chunk boundaries; here the same
// walk produces candidate *snap points* for the strategy-driven chunker
// instead of the chunk boundaries themselves.
func goDeclBoundaries(text string) []int {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", text, parser.ParseComments)
	if err != nil {
		return nil
	}

	var bounds []int
	ast.Inspect(file, func(n ast.Node) bool {
		switch decl := n.(type) {
		case *ast.FuncDecl:
			bounds = append(bounds, fset.Position(decl.End()).Line)
			return false
		case *ast.GenDecl:
			bounds = append(bounds, fset.Position(decl.End()).Line)
			return false
		}
		return true
	})
	sort.Ints(bounds)
	return bounds
}

// snapToGoBoundary refines raws produced by a line/token-oriented splitter
// for a Go source file: each chunk's endLine is pulled forward to the
// nearest declaration boundary within lookahead lines, so chunks tend to
// end at a function or type's closing brace rather than mid-declaration.
// Whenever endLine moves, text is re-sliced from the source lines to match,
// so the (startLine, endLine, text) triple stays consistent for the stable
// chunk ID hash. Left untouched if no boundary falls within range, or the
// file fails to parse.
func snapToGoBoundary(raws []rawChunk, text string, lookahead int) []rawChunk {
	bounds := goDeclBoundaries(text)
	if len(bounds) == 0 {
		return raws
	}
	lines := strings.Split(text, "\n")

	out := make([]rawChunk, len(raws))
	for i, rc := range raws {
		out[i] = rc
		best := rc.endLine
		for _, b := range bounds {
			if b >= rc.endLine && b <= rc.endLine+lookahead {
				best = b
				break
			}
		}
		if best != rc.endLine {
			start := rc.startLine - 1
			end := best
			if start < 0 {
				start = 0
			}
			if end > len(lines) {
				end = len(lines)
			}
			out[i].endLine = best
			out[i].text = strings.Join(lines[start:end], "\n")
		}
	}
	return out
}
