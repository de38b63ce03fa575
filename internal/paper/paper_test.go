package paper

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestLinkLists(t *testing.T) {
	rec := Record{ID: "p1"}

	if rec.HasLinkLists() {
		t.Error("HasLinkLists() = true for record without metadata")
	}
	if got := rec.References(); got != nil {
		t.Errorf("References() = %v, want nil", got)
	}

	rec.SetLinks([]string{"a", "b"}, []string{"c"})

	if !rec.HasLinkLists() {
		t.Error("HasLinkLists() = false after SetLinks")
	}
	if got := rec.References(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("References() = %v, want [a b]", got)
	}
	if got := rec.Citations(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("Citations() = %v, want [c]", got)
	}
}

func TestSetLinksNil(t *testing.T) {
	rec := Record{ID: "p1"}
	rec.SetLinks(nil, nil)

	if !rec.HasLinkLists() {
		t.Error("HasLinkLists() = false after SetLinks(nil, nil)")
	}
	if got := rec.References(); len(got) != 0 {
		t.Errorf("References() = %v, want empty", got)
	}
}

func TestLinkListsSurviveJSONRoundTrip(t *testing.T) {
	rec := Record{ID: "p1", Title: "t"}
	rec.SetLinks([]string{"a"}, []string{"b", "c"})

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	// After a round trip, link lists are []any; the accessors must still work.
	if !decoded.HasLinkLists() {
		t.Error("HasLinkLists() = false after JSON round trip")
	}
	if got := decoded.References(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("References() = %v, want [a]", got)
	}
	if got := decoded.Citations(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Citations() = %v, want [b c]", got)
	}
}

func TestLinkListsDiscardInvalidEntries(t *testing.T) {
	rec := Record{
		ID: "p1",
		MetaData: map[string]any{
			MetaReferences: []any{"a", 42, "", nil, "b", "  "},
			MetaCitations:  []any{},
		},
	}

	if got := rec.References(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("References() = %v, want [a b]", got)
	}
	if got := rec.Citations(); len(got) != 0 {
		t.Errorf("Citations() = %v, want empty", got)
	}
}

func TestYear(t *testing.T) {
	tests := []struct {
		name string
		date string
		want int
	}{
		{"full date", "2019-04-02", 2019},
		{"year only", "2021", 2021},
		{"empty", "", 0},
		{"garbage", "abcd-01-01", 0},
		{"too short", "19", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{PublicationDate: tt.date}
			if got := rec.Year(); got != tt.want {
				t.Errorf("Year() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVenueAndURL(t *testing.T) {
	rec := Record{MetaData: map[string]any{
		MetaVenue: "Nature",
		MetaURL:   "https://example.org/p1",
	}}

	if got := rec.Venue(); got != "Nature" {
		t.Errorf("Venue() = %q", got)
	}
	if got := rec.URL(); got != "https://example.org/p1" {
		t.Errorf("URL() = %q", got)
	}

	var empty Record
	if got := empty.Venue(); got != "" {
		t.Errorf("Venue() on empty record = %q", got)
	}
}
