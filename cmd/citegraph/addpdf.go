package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/citegraph/citegraph/internal/pdfmeta"
	"github.com/citegraph/citegraph/internal/scholar"
)

var addPDFCmd = &cobra.Command{
	Use:   "add-pdf <file.pdf>",
	Short: "Add a paper by extracting the DOI from a PDF",
	Long: `Add a paper from a PDF file.

The first pages are scanned for a DOI, which is then resolved through
the API and persisted to the local store.`,
	Args: cobra.ExactArgs(1),
	RunE: runAddPDF,
}

func init() {
	rootCmd.AddCommand(addPDFCmd)
}

func runAddPDF(cmd *cobra.Command, args []string) error {
	pdfPath := args[0]
	ctx := context.Background()

	cfg, db := openWorkspace()
	defer db.Close()

	doi, err := pdfmeta.ExtractDOI(pdfPath)
	if err != nil {
		exitWithError(ExitDataError, "reading PDF: %v", err)
	}
	if doi == "" {
		exitWithError(ExitDataError, "no DOI found in %s", pdfPath)
	}

	client := newClient(cfg)
	rec, err := client.GetPaper(ctx, "DOI:"+doi)
	if scholar.IsNotFound(err) {
		exitWithError(ExitNotFound, "DOI %s not found", doi)
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
