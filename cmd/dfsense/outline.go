package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.lsp.dev/uri"

	"github.com/jward/dfsense"
)

var outlineCmd = &cobra.Command{
	Use:   "outline <file>",
	Short: "Print the symbol outline and nesting diagnostics of a file",
	Long:  "Extracts the outline of a single file. No index is needed. All line and column numbers are 0-based.",
	Args:  cobra.ExactArgs(1),
	RunE:  runOutline,
}

func runOutline(cmd *cobra.Command, args []string) error {
	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("outline", err)
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return outputError("outline", fmt.Errorf("reading %s: %w", file, err))
	}

	engine, err := dfsense.New("")
	if err != nil {
		return outputError("outline", err)
	}
	defer engine.Close()

	res, err := engine.Outline(contextOf(cmd), string(content))
	if err != nil {
		return outputError("outline", err)
	}
	return outputResult(CLIResult{
		Command: "outline",
		Results: CLIOutline{
			File:        file,
			Symbols:     outlineToCLI(res.Symbols),
			Diagnostics: diagnosticsToCLI("", res.Diagnostics),
		},
	})
}

var flagOpen []string

var definitionCmd = &cobra.Command{
	Use:   "definition <file> <line> <col>",
	Short: "Find the declaration of the token at a position",
	Long: "Resolves the token at <line> <col> (0-based, UTF-16 columns) of <file>. The file itself and every --open file " +
		"are searched first, in order, followed by the library directories.",
	Args: cobra.ExactArgs(3),
	RunE: runDefinition,
}

func init() {
	definitionCmd.Flags().StringArrayVar(&flagOpen, "open", nil, "additional file treated as an open document (repeatable)")
}

func runDefinition(cmd *cobra.Command, args []string) error {
	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("definition", err)
	}
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return outputError("definition", err)
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return outputError("definition", err)
	}

	ws, err := loadWorkspace()
	if err != nil {
		return outputError("definition", err)
	}
	engine, err := ws.newEngine("")
	if err != nil {
		return outputError("definition", err)
	}
	defer engine.Close()

	var text string
	var docs []dfsense.Document
	for i, p := range append([]string{file}, flagOpen...) {
		path, err := resolveFilePath(p)
		if err != nil {
			return outputError("definition", err)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return outputError("definition", fmt.Errorf("reading %s: %w", path, err))
		}
		if i == 0 {
			text = string(content)
		}
		docs = append(docs, dfsense.Document{
			URI:        string(uri.File(path)),
			LanguageID: engine.LanguageID(),
			Text:       string(content),
		})
	}

	out, err := engine.Definition(contextOf(cmd), dfsense.DefinitionRequest{
		Text:      text,
		Line:      line,
		Col:       col,
		Documents: docs,
	})
	if err != nil {
		return outputError("definition", err)
	}

	result := CLIDefinition{Token: out.Token, Skipped: out.Skipped, Message: out.Message}
	if out.Found() {
		path := out.Location.Path
		if path == "" {
			path = uri.URI(out.Location.URI).Filename()
		}
		result.Location = &CLILocation{File: path, Line: out.Location.Line, Col: out.Location.Col}
	}
	return outputResult(CLIResult{Command: "definition", Results: result})
}

// contextOf returns the command's context, or Background when run outside
// Execute.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// parseIntArg parses a positional argument as a non-negative integer.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}
