package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jward/dfsense/internal/config"
)

// CLIConfig is the result of the config command.
type CLIConfig struct {
	Root         string         `json:"root" yaml:"root"`
	DBPath       string         `json:"db_path" yaml:"db_path"`
	LibraryPaths []string       `json:"library_paths" yaml:"library_paths"`
	Config       *config.Config `json:"config" yaml:"config"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  "Print the configuration after merging defaults, .dfsense/config.yaml and DFSENSE_* environment variables, along with the resolved library directories. Text format prints YAML.",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return outputError("config", err)
	}
	engine, err := ws.newEngine("")
	if err != nil {
		return outputError("config", err)
	}
	defer engine.Close()

	result := CLIConfig{
		Root:         ws.root,
		DBPath:       ws.dbPath(),
		LibraryPaths: engine.LibraryPaths(),
		Config:       ws.cfg,
	}
	if result.LibraryPaths == nil {
		result.LibraryPaths = []string{}
	}
	if flagFormat == "text" {
		return writeYAML(result)
	}
	return outputResult(CLIResult{Command: "config", Results: result})
}

func writeYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
