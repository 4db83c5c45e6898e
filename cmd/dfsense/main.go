package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/dfsense"
	"github.com/jward/dfsense/internal/config"
)

var (
	flagFormat    string
	flagConfigDir string
	flagRoot      string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// version is overridden at build time with -ldflags.
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "dfsense",
	Short:         "Outline, diagnostics and go-to-definition for DataFlex sources",
	Long:          "dfsense extracts document outlines and nesting diagnostics from DataFlex sources, resolves definitions across open files and library directories, and keeps a SQLite index of the libraries for symbol search.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "directory holding config.yaml (default: <workspace>/.dfsense)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "workspace root (default: nearest ancestor with .dfsense or .git)")

	rootCmd.AddCommand(outlineCmd)
	rootCmd.AddCommand(definitionCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// workspace is the resolved root plus its configuration.
type workspace struct {
	root string
	cfg  *config.Config
}

// loadWorkspace resolves the workspace root and loads its configuration.
func loadWorkspace() (*workspace, error) {
	root := flagRoot
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting cwd: %w", err)
		}
		root = findWorkspaceRoot(cwd)
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}

	var cfg *config.Config
	if flagConfigDir != "" {
		cfg, err = config.NewLoaderWithDir(root, flagConfigDir).Load()
	} else {
		cfg, err = config.LoadConfigFromDir(root)
	}
	if err != nil {
		return nil, err
	}
	return &workspace{root: root, cfg: cfg}, nil
}

// dbPath is where the workspace's library index lives.
func (w *workspace) dbPath() string {
	return config.DBPath(w.cfg, w.root)
}

// newEngine opens an Engine for the workspace. An empty dbPath opens it
// without an index.
func (w *workspace) newEngine(dbPath string, opts ...dfsense.Option) (*dfsense.Engine, error) {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	all := append([]dfsense.Option{dfsense.WithLogger(logger), dfsense.WithConfig(w.cfg, w.root)}, opts...)
	engine, err := dfsense.New(dbPath, all...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, nil
}

// findWorkspaceRoot walks up from startDir looking for a .dfsense or .git
// directory. Returns startDir if neither is found.
func findWorkspaceRoot(startDir string) string {
	dir := startDir
	for {
		for _, marker := range []string{config.Dir, ".git"} {
			if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}
