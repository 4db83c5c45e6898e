package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/dfsense/internal/lsp"
	"github.com/jward/dfsense/internal/watch"
)

var (
	flagWatch   bool
	flagNoIndex bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server on stdin/stdout",
	Long: `Run a Language Server Protocol server over stdin/stdout.

The server publishes outlines and diagnostics for open documents and resolves
definitions across open documents and library directories. Unless --no-index
is given, workspace symbol search is served from the library index; with
--watch the index is refreshed first and kept current as library files change.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagWatch, "watch", false, "reindex library files as they change")
	serveCmd.Flags().BoolVar(&flagNoIndex, "no-index", false, "serve without the library index")
}

func runServe(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}
	// stdout carries the protocol; everything else goes to stderr.
	logger := log.New(os.Stderr, "dfsense: ", log.LstdFlags)

	dbPath := ws.dbPath()
	if flagNoIndex {
		dbPath = ""
	}
	engine, err := ws.newEngine(dbPath)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := contextOf(cmd)
	if flagWatch && !flagNoIndex {
		if err := engine.IndexLibraries(ctx); err != nil {
			logger.Printf("warning: initial index: %v", err)
		}
		w, err := watch.New(engine.LibraryPaths(), engine,
			watch.WithLogger(logger),
			watch.WithOnBatch(func(indexed, removed []string) {
				logger.Printf("reindexed %d file(s), removed %d", len(indexed), len(removed))
			}),
		)
		if err != nil {
			logger.Printf("warning: watch disabled: %v", err)
		} else {
			w.Start(ctx)
			defer w.Stop()
		}
	}

	srv := lsp.NewServer(engine, lsp.WithVersion(version), lsp.WithLogger(logger))
	return srv.ServeStdio(ctx)
}
