package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/citegraph/citegraph/internal/config"
	"github.com/citegraph/citegraph/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a citegraph workspace in the current directory",
	Long: `Initialize a citegraph workspace in the current directory.

Creates a .citegraph/ directory holding config.yaml and the paper
database.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	if config.IsWorkspace(cwd) {
		exitWithError(ExitConfigError, "workspace already initialized at %s", config.CitegraphPath(cwd))
	}

	if err := os.MkdirAll(config.CitegraphPath(cwd), 0755); err != nil {
		exitWithError(ExitError, "creating workspace directory: %v", err)
	}

	if err := config.Default().Save(cwd); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	// Open once to create the schema.
	db, err := store.Open(config.DBPath(cwd))
	if err != nil {
		exitWithError(ExitError, "creating paper database: %v", err)
	}
	db.Close()

	if humanOutput {
		fmt.Printf("Initialized citegraph workspace in %s\n", config.CitegraphPath(cwd))
		return nil
	}
	return outputJSON(StatusResponse{Status: "initialized", Path: config.CitegraphPath(cwd)})
}
