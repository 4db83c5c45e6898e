package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/dfsense"
	"github.com/jward/dfsense/internal/outline"
)

var (
	flagLimit  int
	flagOffset int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the library index",
	Long:  "Run queries against the library index built by 'dfsense index'. All line and column numbers are 0-based.",
}

func init() {
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	queryCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")

	queryCmd.AddCommand(symbolsCmd)
	queryCmd.AddCommand(searchCmd)
	queryCmd.AddCommand(filesCmd)
	queryCmd.AddCommand(diagnosticsCmd)
	queryCmd.AddCommand(fileOutlineCmd)
}

// openIndex opens an Engine on the workspace's existing index.
func openIndex() (*dfsense.Engine, error) {
	ws, err := loadWorkspace()
	if err != nil {
		return nil, err
	}
	dbPath := ws.dbPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("index not found: %s (run 'dfsense index' first)", dbPath)
	}
	return ws.newEngine(dbPath)
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() dfsense.Pagination {
	return dfsense.Pagination{
		Limit:  flagLimit,
		Offset: flagOffset,
	}
}

var (
	flagKind       string
	flagFile       string
	flagPathPrefix string
	flagPrefix     string
	flagTopLevel   bool
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List indexed symbols with optional filters",
	RunE:  runSymbols,
}

func init() {
	symbolsCmd.Flags().StringVar(&flagKind, "kind", "", "comma-separated kinds (use, class, object, procedure, function, property, parameter)")
	symbolsCmd.Flags().StringVar(&flagFile, "file", "", "filter by file path")
	symbolsCmd.Flags().StringVar(&flagPathPrefix, "path-prefix", "", "filter by directory")
	symbolsCmd.Flags().StringVar(&flagPrefix, "prefix", "", "filter by case-insensitive name prefix")
	symbolsCmd.Flags().BoolVar(&flagTopLevel, "top-level", false, "only symbols without a parent")
}

func runSymbols(cmd *cobra.Command, args []string) error {
	engine, err := openIndex()
	if err != nil {
		return outputError("symbols", err)
	}
	defer engine.Close()

	filter := dfsense.SymbolFilter{
		NamePrefix: flagPrefix,
		TopLevel:   flagTopLevel,
	}
	if flagKind != "" {
		for _, k := range strings.Split(flagKind, ",") {
			k = strings.ToLower(strings.TrimSpace(k))
			if _, ok := outline.ParseKind(k); !ok {
				return outputError("symbols", fmt.Errorf("unknown symbol kind %q", k))
			}
			filter.Kinds = append(filter.Kinds, k)
		}
	}
	if flagFile != "" {
		if filter.File, err = resolveFilePath(flagFile); err != nil {
			return outputError("symbols", err)
		}
	}
	if flagPathPrefix != "" {
		if filter.PathPrefix, err = resolveFilePath(flagPathPrefix); err != nil {
			return outputError("symbols", err)
		}
	}

	res, err := engine.Query().Symbols(filter, buildPagination())
	if err != nil {
		return outputError("symbols", err)
	}
	syms := make([]CLISymbol, 0, len(res.Items))
	for _, r := range res.Items {
		syms = append(syms, symbolRowToCLI(r))
	}
	total := res.TotalCount
	return outputResult(CLIResult{Command: "symbols", Results: syms, TotalCount: &total})
}

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Fuzzy-search indexed symbol names",
	Long:  "Ranks declarations whose names contain the pattern's characters in order, closest match first. Parameters are not searched.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	engine, err := openIndex()
	if err != nil {
		return outputError("search", err)
	}
	defer engine.Close()

	rows, err := engine.Query().Search(args[0], flagLimit)
	if err != nil {
		return outputError("search", err)
	}
	syms := make([]CLISymbol, 0, len(rows))
	for _, r := range rows {
		syms = append(syms, symbolRowToCLI(r))
	}
	return outputResult(CLIResult{Command: "search", Results: syms})
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List indexed library files",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

func runFiles(cmd *cobra.Command, args []string) error {
	engine, err := openIndex()
	if err != nil {
		return outputError("files", err)
	}
	defer engine.Close()

	files, err := engine.Query().Files()
	if err != nil {
		return outputError("files", err)
	}
	out := make([]CLIFile, 0, len(files))
	for _, f := range files {
		out = append(out, fileToCLI(f))
	}
	return outputResult(CLIResult{Command: "files", Results: out})
}

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics [file]",
	Short: "List nesting diagnostics recorded for indexed files",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDiagnostics,
}

func runDiagnostics(cmd *cobra.Command, args []string) error {
	engine, err := openIndex()
	if err != nil {
		return outputError("diagnostics", err)
	}
	defer engine.Close()
	q := engine.Query()

	var paths []string
	if len(args) > 0 {
		path, err := resolveFilePath(args[0])
		if err != nil {
			return outputError("diagnostics", err)
		}
		paths = []string{path}
	} else {
		files, err := q.Files()
		if err != nil {
			return outputError("diagnostics", err)
		}
		for _, f := range files {
			paths = append(paths, f.Path)
		}
	}

	out := []CLIDiagnostic{}
	for _, p := range paths {
		diags, err := q.Diagnostics(p)
		if err != nil {
			return outputError("diagnostics", err)
		}
		out = append(out, diagnosticsToCLI(p, diags)...)
	}
	return outputResult(CLIResult{Command: "diagnostics", Results: out})
}

var fileOutlineCmd = &cobra.Command{
	Use:   "outline <file>",
	Short: "Print the stored outline of an indexed file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFileOutline,
}

func runFileOutline(cmd *cobra.Command, args []string) error {
	engine, err := openIndex()
	if err != nil {
		return outputError("file-outline", err)
	}
	defer engine.Close()

	path, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("file-outline", err)
	}
	syms, err := engine.Query().FileSymbols(path)
	if err != nil {
		return outputError("file-outline", err)
	}
	if syms == nil {
		return outputError("file-outline", fmt.Errorf("file not indexed: %s", path))
	}
	diags, err := engine.Query().Diagnostics(path)
	if err != nil {
		return outputError("file-outline", err)
	}
	return outputResult(CLIResult{
		Command: "file-outline",
		Results: CLIOutline{
			File:        path,
			Symbols:     outlineToCLI(syms),
			Diagnostics: diagnosticsToCLI("", diags),
		},
	})
}
