package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/citegraph/citegraph/internal/paper"
	"github.com/citegraph/citegraph/internal/scholar"
	"github.com/citegraph/citegraph/internal/store"
)

var (
	searchLimit        int
	searchOffset       int
	searchYear         string
	searchVenue        string
	searchFields       string
	searchAuthor       string
	searchMinCitations int
	searchLocal        bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search papers remotely (or locally with --local)",
	Long: `Search papers by keyword.

Remote results are persisted to the local store without their citation
link lists; the tree command hydrates those lazily. With --local the
query runs against the local full-text index instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", scholar.DefaultSearchLimit, "Maximum results")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "Result offset")
	searchCmd.Flags().StringVar(&searchYear, "year", "", "Year or year range, e.g. 2019 or 2016-2020")
	searchCmd.Flags().StringVar(&searchVenue, "venue", "", "Venue filter (comma-separated)")
	searchCmd.Flags().StringVar(&searchFields, "fields-of-study", "", "Fields-of-study filter (comma-separated)")
	searchCmd.Flags().StringVar(&searchAuthor, "author", "", "Author name filter (local search only)")
	searchCmd.Flags().IntVar(&searchMinCitations, "min-citations", 0, "Minimum citation count (local search only)")
	searchCmd.Flags().BoolVar(&searchLocal, "local", false, "Search the local store instead of the API")
}

// searchOutput is the JSON search response.
type searchOutput struct {
	Papers []paper.Record `json:"papers"`
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	ctx := context.Background()

	cfg, db := openWorkspace()
	defer db.Close()

	var out searchOutput

	if searchLocal {
		yearFrom, yearTo := parseYearRange(searchYear)
		recs, total, err := db.Search(ctx, store.Filters{
			Query:        query,
			Author:       searchAuthor,
			YearFrom:     yearFrom,
			YearTo:       yearTo,
			MinCitations: searchMinCitations,
			Limit:        searchLimit,
			Offset:       searchOffset,
		})
		if err != nil {
			exitWithError(ExitError, "searching local store: %v", err)
		}
		out = searchOutput{Papers: recs, Total: total, Offset: searchOffset}
	} else {
		client := newClient(cfg)
		result, err := client.SearchPapers(ctx, scholar.SearchRequest{
			Query:         query,
			Limit:         searchLimit,
			Offset:        searchOffset,
			Year:          searchYear,
			Venue:         searchVenue,
			FieldsOfStudy: searchFields,
		})
		if err != nil {
			exitWithError(ExitAPIError, "searching: %v", err)
		}

		if err := db.UpsertBatch(ctx, result.Papers); err != nil {
			exitWithError(ExitError, "saving search results: %v", err)
		}
		out = searchOutput{Papers: result.Papers, Total: result.Total, Offset: result.Offset}
	}

	if humanOutput {
		printSearchHuman(out)
		return nil
	}
	return outputJSON(out)
}

func printSearchHuman(out searchOutput) {
	for i, rec := range out.Papers {
		fmt.Printf("%d. %s\n", out.Offset+i+1, truncateString(rec.Title, SearchTitleMaxLen))
		fmt.Printf("   %s (%s)  citations: %d\n", formatAuthorsShort(rec.Authors, 3), rec.PublicationDate, rec.CitationCount)
		fmt.Printf("   id: %s\n\n", rec.ID)
	}
	fmt.Printf("%d of %d results\n", len(out.Papers), out.Total)
}

// parseYearRange parses "2019" or "2016-2020" into a from/to pair.
func parseYearRange(s string) (from, to int) {
	if s == "" {
		return 0, 0
	}
	parts := strings.SplitN(s, "-", 2)
	fmt.Sscanf(parts[0], "%d", &from)
	if len(parts) == 2 {
		fmt.Sscanf(parts[1], "%d", &to)
	} else {
		to = from
	}
	return from, to
}
