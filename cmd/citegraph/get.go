package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/citegraph/citegraph/internal/scholar"
)

var getRefresh bool

var getCmd = &cobra.Command{
	Use:   "get <paper-id>",
	Short: "Fetch a paper by id, from the local store or the API",
	Long: `Fetch a paper by id.

The local store is consulted first; on a miss (or with --refresh) the
paper is fetched from the API and persisted.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().BoolVar(&getRefresh, "refresh", false, "Fetch from the API even if stored locally")
}

func runGet(cmd *cobra.Command, args []string) error {
	paperID := args[0]
	ctx := context.Background()

	cfg, db := openWorkspace()
	defer db.Close()

	if !getRefresh {
		rec, err := db.GetByID(ctx, paperID)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if rec != nil {
			if humanOutput {
				printPaperHuman(rec)
				return nil
			}
			return outputJSON(rec)
		}
	}

	client := newClient(cfg)
	rec, err := client.GetPaper(ctx, paperID)
	if scholar.IsNotFound(err) {
		exitWithError(ExitNotFound, "paper %s not found", paperID)
	}
	if err != nil {
		exitWithError(ExitAPIError, "fetching paper: %v", err)
	}

	if err := db.Upsert(ctx, rec); err != nil {
		exitWithError(ExitError, "saving paper: %v", err)
	}

	if humanOutput {
		printPaperHuman(rec)
		return nil
	}
	return outputJSON(rec)
}
