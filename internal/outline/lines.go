package outline

import (
	"regexp"
	"strings"
)

const (
	commentMarker = "//"
	continuation  = ";"
)

var starComment = regexp.MustCompile(`^\s*\*`)

// isCommentLine reports whether a trimmed physical line carries no code at all.
func isCommentLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, commentMarker) || starComment.MatchString(trimmed)
}

// SplitLines splits document text on '\n' only. Carriage returns stay on the
// line and are removed later by whitespace trimming.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// LogicalLines folds physical lines into logical statements. A code part
// ending in ';' continues onto the next code-bearing line; comment-only lines
// in between are skipped. A continuation left open at end of input is
// dropped only when no physical line follows it: text ending in ";\n" joins
// the empty final line and keeps the statement.
func LogicalLines(lines []string) []LogicalLine {
	var out []LogicalLine
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if isCommentLine(line) {
			i++
			continue
		}

		var parts []string
		start, end := i, i
		complete := true
		for {
			code := line
			if idx := strings.Index(code, commentMarker); idx != -1 {
				code = strings.TrimSpace(code[:idx])
			}

			cont := strings.HasSuffix(code, continuation)
			if cont {
				code = strings.TrimSpace(strings.TrimSuffix(code, continuation))
			}
			if code != "" {
				parts = append(parts, code)
			}
			if !cont {
				break
			}

			i++
			for i < len(lines) && isCommentLine(strings.TrimSpace(lines[i])) {
				i++
			}
			if i >= len(lines) {
				complete = false
				break
			}
			line = strings.TrimSpace(lines[i])
			end = i
		}

		if complete && len(parts) > 0 {
			out = append(out, LogicalLine{
				Text:      strings.Join(parts, " "),
				StartLine: start,
				EndLine:   end,
			})
		}
		i++
	}
	return out
}
