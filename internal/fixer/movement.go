package fixer

import (
	"strings"

	"github.com/mvp-joe/stepdown/internal/analysis"
	"github.com/mvp-joe/stepdown/internal/syntax"
)

// moveThreshold is the line distance below which a function is not counted
// as moved; small shifts come from neighbors moving around it.
const moveThreshold = 2

// CountMoved compares the line of each function signature before and after
// a fix and counts those that moved beyond the threshold. It is a
// diagnostic number, not a correctness signal.
func CountMoved(original, fixed string) int {
	before := signatureLines(original)
	after := signatureLines(fixed)

	moved := 0
	for sig, origLine := range before {
		newLine, ok := after[sig]
		if !ok {
			continue
		}
		delta := newLine - origLine
		if delta < 0 {
			delta = -delta
		}
		if delta > moveThreshold {
			moved++
		}
	}
	return moved
}

// signatureLines maps the first line of every function statement to its
// 1-indexed line number. Duplicate signature texts keep the first, which
// is enough for a rough count.
func signatureLines(text string) map[string]int {
	file, err := syntax.Parse([]byte(text), "")
	if err != nil {
		return nil
	}
	defer file.Close()

	lines := map[string]int{}
	for _, f := range analysis.ExtractFunctions(file) {
		sig := firstLineAt(text, f.Position.StartOffset)
		if _, seen := lines[sig]; !seen {
			lines[sig] = f.Position.Line
		}
	}
	return lines
}

func firstLineAt(text string, offset int) string {
	if offset < 0 || offset >= len(text) {
		return ""
	}
	rest := text[offset:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}
