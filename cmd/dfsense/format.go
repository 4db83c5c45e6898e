package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jward/dfsense"
	"github.com/jward/dfsense/internal/outline"
	"github.com/jward/dfsense/internal/store"
)

// --- Conversions ---

func outlineToCLI(syms []*dfsense.Symbol) []CLISymbol {
	out := make([]CLISymbol, 0, len(syms))
	for _, sym := range syms {
		out = append(out, CLISymbol{
			Name:      sym.Name,
			Kind:      sym.Kind.String(),
			Detail:    sym.Detail,
			StartLine: sym.Range.Start.Line,
			StartCol:  sym.Range.Start.Character,
			EndLine:   sym.Range.End.Line,
			EndCol:    sym.Range.End.Character,
			Children:  outlineToCLI(sym.Children),
		})
	}
	return out
}

func diagnosticsToCLI(file string, diags []dfsense.Diagnostic) []CLIDiagnostic {
	out := make([]CLIDiagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, CLIDiagnostic{
			File:      file,
			Message:   d.Message,
			Severity:  severityName(d.Severity),
			StartLine: d.Range.Start.Line,
			StartCol:  d.Range.Start.Character,
			EndLine:   d.Range.End.Line,
			EndCol:    d.Range.End.Character,
		})
	}
	return out
}

func severityName(s outline.Severity) string {
	if s == outline.SeverityError {
		return "error"
	}
	return fmt.Sprintf("severity-%d", s)
}

func symbolRowToCLI(r store.SymbolRow) CLISymbol {
	return CLISymbol{
		ID:        r.ID,
		Name:      r.Name,
		Kind:      r.Kind,
		Detail:    r.Detail,
		File:      r.FilePath,
		StartLine: r.StartLine,
		StartCol:  r.StartCol,
		EndLine:   r.EndLine,
		EndCol:    r.EndCol,
	}
}

func fileToCLI(f *store.File) CLIFile {
	return CLIFile{
		ID:          f.ID,
		Path:        f.Path,
		Language:    f.Language,
		LineCount:   f.LineCount,
		LastIndexed: f.LastIndexed.Format(time.RFC3339),
	}
}

// --- Text formatters ---

// formatOutlineText prints the symbol tree indented by depth, followed by
// any diagnostics as "file:line:col: message".
func formatOutlineText(w io.Writer, o CLIOutline) {
	var walk func(syms []CLISymbol, depth int)
	walk = func(syms []CLISymbol, depth int) {
		for _, s := range syms {
			detail := ""
			if s.Detail != "" {
				detail = " (" + s.Detail + ")"
			}
			fmt.Fprintf(w, "%s%s %s%s  %d-%d\n", strings.Repeat("  ", depth), s.Kind, s.Name, detail, s.StartLine, s.EndLine)
			walk(s.Children, depth+1)
		}
	}
	walk(o.Symbols, 0)
	formatDiagnosticsText(w, o.Diagnostics, o.File)
}

func formatDiagnosticsText(w io.Writer, diags []CLIDiagnostic, file string) {
	for _, d := range diags {
		f := d.File
		if f == "" {
			f = file
		}
		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", f, d.StartLine, d.StartCol, d.Severity, d.Message)
	}
}

func formatDefinitionText(w io.Writer, d CLIDefinition) {
	switch {
	case d.Location != nil:
		fmt.Fprintf(w, "%s:%d:%d\n", d.Location.File, d.Location.Line, d.Location.Col)
	case d.Message != "":
		fmt.Fprintln(w, d.Message)
	}
}

// formatSymbolsText formats CLISymbol results as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tDETAIL\tFILE\tLINE")
	for _, s := range syms {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n",
			s.ID, s.Name, s.Kind, s.Detail, s.File, s.StartLine)
	}
	tw.Flush()
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tLANGUAGE\tLINES")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", f.ID, f.Path, f.Language, f.LineCount)
	}
	tw.Flush()
}

func formatIndexSummaryText(w io.Writer, s CLIIndexSummary) {
	fmt.Fprintf(w, "Indexed %d files (%d symbols) in %s\n", s.Files, s.Symbols, time.Duration(s.DurationMS)*time.Millisecond)
	fmt.Fprintf(w, "Database: %s\n", s.Database)
	for _, p := range s.LibraryPaths {
		fmt.Fprintf(w, "Library: %s\n", p)
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case CLIOutline:
		formatOutlineText(w, v)
	case CLIDefinition:
		formatDefinitionText(w, v)
	case []CLISymbol:
		formatSymbolsText(w, v)
	case []CLIFile:
		formatFilesText(w, v)
	case []CLIDiagnostic:
		formatDiagnosticsText(w, v, "")
	case CLIIndexSummary:
		formatIndexSummaryText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}
	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLISymbol:
		return len(r)
	case []CLIFile:
		return len(r)
	case []CLIDiagnostic:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// outputResult writes a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
