package resolve

import (
	"unicode/utf16"
)

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// WordAt returns the identifier touching the cursor at character col of line,
// where col counts UTF-16 code units. A cursor placed directly after the last
// character of a word still selects it. Returns "" when no identifier is
// under the cursor.
func WordAt(line string, col int) string {
	if col < 0 {
		return ""
	}
	off := byteOffset(line, col)
	start, end := off, off
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	for end < len(line) && isWordByte(line[end]) {
		end++
	}
	return line[start:end]
}

// byteOffset converts a UTF-16 column into a byte offset, clamping to the
// end of the line.
func byteOffset(line string, col int) int {
	units := 0
	for i, r := range line {
		if units >= col {
			return i
		}
		units += utf16.RuneLen(r)
	}
	return len(line)
}
