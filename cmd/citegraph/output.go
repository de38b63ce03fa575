package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/citegraph/citegraph/internal/paper"
)

// Title truncation lengths by context.
const (
	SearchTitleMaxLen = 70 // Search result summaries
	TreeTitleMaxLen   = 60 // Tree view lines
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatAuthorsShort formats authors with "et al." beyond maxCount.
func formatAuthorsShort(authors []paper.Author, maxCount int) string {
	if len(authors) == 0 {
		return ""
	}

	var names []string
	for i, a := range authors {
		if i >= maxCount {
			names = append(names, "et al.")
			break
		}
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// printPaperHuman prints a one-paper summary.
func printPaperHuman(rec *paper.Record) {
	fmt.Printf("%s\n", rec.Title)
	if len(rec.Authors) > 0 {
		fmt.Printf("  %s\n", formatAuthorsShort(rec.Authors, 5))
	}
	if rec.PublicationDate != "" || rec.Venue() != "" {
		fmt.Printf("  %s %s\n", rec.PublicationDate, rec.Venue())
	}
	fmt.Printf("  id: %s  citations: %d\n", rec.ID, rec.CitationCount)
}
