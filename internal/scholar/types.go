// Package scholar provides a retrying, rate-limited client for the
// Semantic Scholar Academic Graph API.
package scholar

// apiPaper is the wire representation of a paper.
type apiPaper struct {
	PaperID         string         `json:"paperId"`
	Title           string         `json:"title"`
	Abstract        string         `json:"abstract,omitempty"`
	Authors         []apiAuthor    `json:"authors,omitempty"`
	Venue           string         `json:"venue,omitempty"`
	URL             string         `json:"url,omitempty"`
	Year            int            `json:"year,omitempty"`
	PublicationDate string         `json:"publicationDate,omitempty"` // YYYY-MM-DD
	CitationCount   int            `json:"citationCount,omitempty"`
	ExternalIDs     map[string]any `json:"externalIds,omitempty"`
	References      []linkedPaper  `json:"references,omitempty"`
	Citations       []linkedPaper  `json:"citations,omitempty"`
}

// linkedPaper is a reference/citation stub carrying only the id.
type linkedPaper struct {
	PaperID string `json:"paperId"`
}

// apiAuthor is the wire representation of an author.
type apiAuthor struct {
	AuthorID     string   `json:"authorId,omitempty"`
	Name         string   `json:"name"`
	Affiliations []string `json:"affiliations,omitempty"`
}

// searchResponse is the wire response from the search endpoints. The bulk
// endpoint omits offset and uses a continuation token instead; both carry
// total and data, which is all the client consumes.
type searchResponse struct {
	Total  int        `json:"total"`
	Offset int        `json:"offset"`
	Next   int        `json:"next,omitempty"`
	Data   []apiPaper `json:"data"`
}

// apiErrorBody is the wire shape of an API error payload.
type apiErrorBody struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
