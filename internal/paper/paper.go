// Package paper defines the core domain types for academic papers.
package paper

import "strings"

// Source identifies the API provider that supplied a record.
type Source string

const (
	SourceSemanticScholar Source = "semantic_scholar"
	SourceManual          Source = "manual"
)

// Author represents a paper author.
type Author struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
}

// Record is the canonical representation of a paper.
//
// ID is the stable external identifier and the primary key in the store.
// Re-saving a record with the same ID overwrites every field; the store
// never merges field-by-field and the core never deletes records.
type Record struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Abstract        string         `json:"abstract,omitempty"`
	Authors         []Author       `json:"authors,omitempty"`
	PublicationDate string         `json:"publicationDate,omitempty"` // YYYY-MM-DD or YYYY
	CitationCount   int            `json:"citationCount"`
	APISource       Source         `json:"apiSource"`
	ExternalIDs     map[string]any `json:"externalIds,omitempty"`
	MetaData        map[string]any `json:"metaData,omitempty"`
}

// MetaData keys used by the core.
const (
	MetaVenue      = "venue"
	MetaURL        = "url"
	MetaReferences = "references" // ids of papers this one cites
	MetaCitations  = "citations"  // ids of papers citing this one
)

// Venue returns the venue from MetaData, or "".
func (r *Record) Venue() string {
	if v, ok := r.MetaData[MetaVenue].(string); ok {
		return v
	}
	return ""
}

// URL returns the url from MetaData, or "".
func (r *Record) URL() string {
	if v, ok := r.MetaData[MetaURL].(string); ok {
		return v
	}
	return ""
}

// References returns the ids of papers this paper cites.
func (r *Record) References() []string {
	return idList(r.MetaData[MetaReferences])
}

// Citations returns the ids of papers that cite this paper.
func (r *Record) Citations() []string {
	return idList(r.MetaData[MetaCitations])
}

// HasLinkLists reports whether both link lists are present in MetaData.
// Records persisted from search results lack them; such records are
// considered stale by the tree builder and trigger a remote refresh.
func (r *Record) HasLinkLists() bool {
	if r.MetaData == nil {
		return false
	}
	_, hasRefs := r.MetaData[MetaReferences]
	_, hasCites := r.MetaData[MetaCitations]
	return hasRefs && hasCites
}

// SetLinks stores both link lists in MetaData, allocating it if needed.
// Nil slices are stored as empty lists so HasLinkLists becomes true.
func (r *Record) SetLinks(references, citations []string) {
	if r.MetaData == nil {
		r.MetaData = make(map[string]any)
	}
	if references == nil {
		references = []string{}
	}
	if citations == nil {
		citations = []string{}
	}
	r.MetaData[MetaReferences] = references
	r.MetaData[MetaCitations] = citations
}

// Year returns the publication year parsed from PublicationDate, or 0.
func (r *Record) Year() int {
	s := r.PublicationDate
	if len(s) < 4 {
		return 0
	}
	year := 0
	for _, c := range s[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		year = year*10 + int(c-'0')
	}
	return year
}

// idList converts a MetaData link list to []string, discarding entries
// that are not non-empty strings. JSON round-trips turn []string into
// []any, so both shapes are accepted.
func idList(v any) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, 0, len(list))
		for _, id := range list {
			if strings.TrimSpace(id) != "" {
				out = append(out, id)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if id, ok := item.(string); ok && strings.TrimSpace(id) != "" {
				out = append(out, id)
			}
		}
		return out
	default:
		return nil
	}
}
