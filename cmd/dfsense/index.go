package main

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jward/dfsense"
)

var (
	flagForce bool
	flagQuiet bool
)

var indexCmd = &cobra.Command{
	Use:   "index [workspace]",
	Short: "Index the library directories of a workspace",
	Long: "Extracts the outline of every library file (configured paths plus config.ws entries) and writes it to the " +
		"SQLite index. Unchanged files are skipped and files no longer present are removed.",
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete the index and rebuild it from scratch")
	indexCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress the progress bar")
}

// indexProgress drives a progress bar from the engine's per-file callback.
type indexProgress struct {
	quiet bool
	bar   *progressbar.ProgressBar
}

func (p *indexProgress) start(total int) {
	if p.quiet || total == 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Indexing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

func (p *indexProgress) fileDone(string) {
	if p.bar != nil {
		p.bar.Add(1)
	}
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	if len(args) > 0 {
		flagRoot = args[0]
	}
	ws, err := loadWorkspace()
	if err != nil {
		return outputError("index", err)
	}
	dbPath := ws.dbPath()

	if flagForce {
		for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return outputError("index", fmt.Errorf("removing database for --force: %w", err))
			}
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}

	progress := &indexProgress{quiet: flagQuiet}
	engine, err := ws.newEngine(dbPath, dfsense.WithProgress(progress.fileDone))
	if err != nil {
		return outputError("index", err)
	}
	defer engine.Close()

	progress.start(len(engine.LibraryFiles()))
	indexErr := engine.IndexLibraries(contextOf(cmd))

	files, err := engine.Query().Files()
	if err != nil {
		return outputError("index", err)
	}
	syms, err := engine.Query().Symbols(dfsense.SymbolFilter{}, dfsense.Pagination{Limit: 1})
	if err != nil {
		return outputError("index", err)
	}
	if indexErr != nil {
		// Per-file failures were already logged; the rest of the index is usable.
		fmt.Fprintf(os.Stderr, "warning: %v\n", indexErr)
	}

	return outputResult(CLIResult{
		Command: "index",
		Results: CLIIndexSummary{
			Database:     dbPath,
			LibraryPaths: engine.LibraryPaths(),
			Files:        len(files),
			Symbols:      syms.TotalCount,
			DurationMS:   time.Since(start).Milliseconds(),
		},
	})
}
