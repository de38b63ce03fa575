package scholar

import (
	"strconv"

	"github.com/citegraph/citegraph/internal/paper"
)

// mapPaper converts a wire paper to a domain record. When withLinks is
// true the reference/citation id lists are stored in MetaData even when
// empty, marking the record as fully hydrated; search results are mapped
// without link lists so the tree builder knows to refresh them later.
func mapPaper(p apiPaper, withLinks bool) paper.Record {
	rec := paper.Record{
		ID:              p.PaperID,
		Title:           p.Title,
		Abstract:        p.Abstract,
		Authors:         mapAuthors(p.Authors),
		PublicationDate: publicationDate(p),
		CitationCount:   p.CitationCount,
		APISource:       paper.SourceSemanticScholar,
		ExternalIDs:     p.ExternalIDs,
		MetaData:        make(map[string]any),
	}

	if p.Venue != "" {
		rec.MetaData[paper.MetaVenue] = p.Venue
	}
	if p.URL != "" {
		rec.MetaData[paper.MetaURL] = p.URL
	}

	if withLinks {
		rec.SetLinks(linkIDs(p.References), linkIDs(p.Citations))
	}

	return rec
}

// mapAuthors converts wire authors, keeping only the first affiliation.
func mapAuthors(authors []apiAuthor) []paper.Author {
	if len(authors) == 0 {
		return nil
	}
	out := make([]paper.Author, 0, len(authors))
	for _, a := range authors {
		author := paper.Author{
			ID:   a.AuthorID,
			Name: a.Name,
		}
		if len(a.Affiliations) > 0 {
			author.Affiliation = a.Affiliations[0]
		}
		out = append(out, author)
	}
	return out
}

// publicationDate prefers the full YYYY-MM-DD date, falling back to the year.
func publicationDate(p apiPaper) string {
	if p.PublicationDate != "" {
		return p.PublicationDate
	}
	if p.Year > 0 {
		return strconv.Itoa(p.Year)
	}
	return ""
}

// linkIDs extracts non-empty paper ids from link stubs.
func linkIDs(links []linkedPaper) []string {
	ids := make([]string, 0, len(links))
	for _, l := range links {
		if l.PaperID != "" {
			ids = append(ids, l.PaperID)
		}
	}
	return ids
}
