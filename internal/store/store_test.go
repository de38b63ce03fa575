package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/citegraph/citegraph/internal/paper"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "papers.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(id string) paper.Record {
	return paper.Record{
		ID:              id,
		Title:           "Paper " + id,
		Abstract:        "An abstract for " + id,
		Authors:         []paper.Author{{ID: "a1", Name: "Ada Lovelace"}},
		PublicationDate: "2020-06-01",
		CitationCount:   7,
		APISource:       paper.SourceSemanticScholar,
		ExternalIDs:     map[string]any{"DOI": "10.1000/" + id},
	}
}

func TestGetByIDMiss(t *testing.T) {
	db := openTestDB(t)

	rec, err := db.GetByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec != nil {
		t.Errorf("GetByID miss = %+v, want nil", rec)
	}
}

func TestUpsertRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rec := testRecord("p1")
	rec.SetLinks([]string{"r1", "r2"}, []string{"c1"})

	if err := db.Upsert(ctx, &rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := db.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID returned nil after upsert")
	}
	if got.Title != rec.Title || got.CitationCount != rec.CitationCount {
		t.Errorf("got %+v, want %+v", got, rec)
	}
	if !got.HasLinkLists() {
		t.Error("link lists lost in round trip")
	}
	if refs := got.References(); !reflect.DeepEqual(refs, []string{"r1", "r2"}) {
		t.Errorf("References() = %v, want [r1 r2]", refs)
	}
	if len(got.Authors) != 1 || got.Authors[0].Name != "Ada Lovelace" {
		t.Errorf("Authors = %+v", got.Authors)
	}
}

func TestUpsertLastWriteWins(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := testRecord("p1")
	first.SetLinks([]string{"r1"}, []string{"c1"})
	if err := db.Upsert(ctx, &first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// The second write carries no link lists; every field must be
	// replaced, nothing merged from the first write.
	second := testRecord("p1")
	second.Title = "Updated title"
	second.CitationCount = 99
	if err := db.Upsert(ctx, &second); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := db.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Updated title" {
		t.Errorf("Title = %q, want %q", got.Title, "Updated title")
	}
	if got.CitationCount != 99 {
		t.Errorf("CitationCount = %d, want 99", got.CitationCount)
	}
	if got.HasLinkLists() {
		t.Error("link lists survived an overwrite, want full replacement")
	}

	n, err := db.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestUpsertBatchAtomic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	recs := []paper.Record{
		testRecord("p1"),
		{ID: "", Title: "invalid"}, // empty id fails the batch
		testRecord("p3"),
	}

	if err := db.UpsertBatch(ctx, recs); err == nil {
		t.Fatal("UpsertBatch with invalid record succeeded, want error")
	}

	n, err := db.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d after failed batch, want 0", n)
	}
}

func TestUpsertBatch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	recs := []paper.Record{testRecord("p1"), testRecord("p2"), testRecord("p3")}
	if err := db.UpsertBatch(ctx, recs); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	n, err := db.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestSearch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	deep := paper.Record{
		ID:              "deep",
		Title:           "Deep learning for protein folding",
		Abstract:        "Neural networks applied to structure prediction.",
		Authors:         []paper.Author{{Name: "Grace Hopper"}},
		PublicationDate: "2021-01-15",
		CitationCount:   150,
		APISource:       paper.SourceSemanticScholar,
	}
	trees := paper.Record{
		ID:              "trees",
		Title:           "Phylogenetic trees revisited",
		Abstract:        "A survey of tree inference methods.",
		Authors:         []paper.Author{{Name: "Alan Turing"}},
		PublicationDate: "2015-09-01",
		CitationCount:   12,
		APISource:       paper.SourceSemanticScholar,
	}
	if err := db.UpsertBatch(ctx, []paper.Record{deep, trees}); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	tests := []struct {
		name    string
		filters Filters
		wantIDs []string
	}{
		{
			name:    "free text",
			filters: Filters{Query: "protein"},
			wantIDs: []string{"deep"},
		},
		{
			name:    "author prefix",
			filters: Filters{Author: "Tur"},
			wantIDs: []string{"trees"},
		},
		{
			name:    "year range",
			filters: Filters{YearFrom: 2020},
			wantIDs: []string{"deep"},
		},
		{
			name:    "min citations",
			filters: Filters{MinCitations: 100},
			wantIDs: []string{"deep"},
		},
		{
			name:    "no match",
			filters: Filters{Query: "astronomy"},
			wantIDs: nil,
		},
		{
			name:    "all",
			filters: Filters{},
			wantIDs: []string{"deep", "trees"}, // ordered by citation count
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, total, err := db.Search(ctx, tt.filters)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if total != len(tt.wantIDs) {
				t.Errorf("total = %d, want %d", total, len(tt.wantIDs))
			}
			var ids []string
			for _, r := range recs {
				ids = append(ids, r.ID)
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestPrepareFTSQuery(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hello", `"hello"`},
		{"hello world", `"hello" "world"`},
		{`with"quote`, `"with""quote"`},
	}

	for _, tt := range tests {
		if got := prepareFTSQuery(tt.input); got != tt.want {
			t.Errorf("prepareFTSQuery(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
