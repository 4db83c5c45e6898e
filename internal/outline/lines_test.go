package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogicalLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		lines []string
		want  []LogicalLine
	}{
		{
			name:  "single statement",
			lines: []string{"Use Windows.pkg"},
			want:  []LogicalLine{{Text: "Use Windows.pkg", StartLine: 0, EndLine: 0}},
		},
		{
			name:  "blank and comment lines emit nothing",
			lines: []string{"", "   ", "// header", "  * legacy comment", "\t"},
			want:  nil,
		},
		{
			name:  "trailing comment stripped",
			lines: []string{"  Object oMain is a View   // main view"},
			want:  []LogicalLine{{Text: "Object oMain is a View", StartLine: 0, EndLine: 0}},
		},
		{
			name: "continuation joins physical lines",
			lines: []string{
				"Procedure DoIt Integer iA ;",
				"    String sB",
			},
			want: []LogicalLine{{Text: "Procedure DoIt Integer iA String sB", StartLine: 0, EndLine: 1}},
		},
		{
			name: "comment lines inside a continuation are skipped",
			lines: []string{
				"Function Calc Integer iA;",
				"// explain the next parameter",
				"   * and more",
				"Integer iB returns Integer",
			},
			want: []LogicalLine{{Text: "Function Calc Integer iA Integer iB returns Integer", StartLine: 0, EndLine: 3}},
		},
		{
			name: "comment after continuation marker position",
			lines: []string{
				"Procedure DoIt Integer iA; // first",
				"String sB // second",
			},
			want: []LogicalLine{{Text: "Procedure DoIt Integer iA String sB", StartLine: 0, EndLine: 1}},
		},
		{
			name: "dangling continuation at end of input is dropped",
			lines: []string{
				"Use cWebView.pkg",
				"Procedure Broken Integer iA;",
				"// nothing follows",
			},
			want: []LogicalLine{{Text: "Use cWebView.pkg", StartLine: 0, EndLine: 0}},
		},
		{
			name:  "continuation before a trailing empty line is kept",
			lines: SplitLines("Procedure P;\n"),
			want:  []LogicalLine{{Text: "Procedure P", StartLine: 0, EndLine: 1}},
		},
		{
			name:  "carriage returns are trimmed",
			lines: []string{"End_Object\r"},
			want:  []LogicalLine{{Text: "End_Object", StartLine: 0, EndLine: 0}},
		},
		{
			name: "continuation onto a blank line keeps the text",
			lines: []string{
				"Move 1 to x;",
				"",
				"End_Procedure",
			},
			want: []LogicalLine{
				{Text: "Move 1 to x", StartLine: 0, EndLine: 1},
				{Text: "End_Procedure", StartLine: 2, EndLine: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := LogicalLines(tt.lines)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogicalLines_StartNeverAfterEnd(t *testing.T) {
	t.Parallel()
	lines := SplitLines("a;\n// c\nb;\nc\nd\n* x\ne;\nf")
	for _, ll := range LogicalLines(lines) {
		assert.LessOrEqual(t, ll.StartLine, ll.EndLine)
		assert.NotContains(t, ll.Text, "//")
		assert.NotEqual(t, ";", ll.Text[len(ll.Text)-1:])
	}
}
