// Package integration exercises the search-then-explore pipeline end to
// end: a workspace-backed store, the API client against a fake upstream,
// and the tree builder on top of both.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/citegraph/citegraph/internal/citetree"
	"github.com/citegraph/citegraph/internal/config"
	"github.com/citegraph/citegraph/internal/scholar"
	"github.com/citegraph/citegraph/internal/store"
)

// fakeGraph is a small citation graph served by the fake upstream:
// root is cited by a and b; a cites c; b cites c (a shared reference).
var fakeGraph = map[string]map[string]any{
	"root": upstreamPaper("root", "Attention Is All You Need", 90000, nil, []string{"a", "b"}),
	"a":    upstreamPaper("a", "BERT", 60000, []string{"c"}, nil),
	"b":    upstreamPaper("b", "GPT-3", 20000, []string{"c"}, nil),
	"c":    upstreamPaper("c", "Neural Machine Translation", 15000, nil, nil),
}

func upstreamPaper(id, title string, citations int, refs, cites []string) map[string]any {
	refList := make([]map[string]any, 0, len(refs))
	for _, r := range refs {
		refList = append(refList, map[string]any{"paperId": r})
	}
	citeList := make([]map[string]any, 0, len(cites))
	for _, c := range cites {
		citeList = append(citeList, map[string]any{"paperId": c})
	}
	return map[string]any{
		"paperId":       id,
		"title":         title,
		"year":          2017,
		"citationCount": citations,
		"references":    refList,
		"citations":     citeList,
	}
}

func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/paper/search":
			// Search strips link lists, matching the real API fields
			// parameter the client sends.
			var data []map[string]any
			for _, id := range []string{"root", "a"} {
				p := map[string]any{}
				for k, v := range fakeGraph[id] {
					if k == "references" || k == "citations" {
						continue
					}
					p[k] = v
				}
				data = append(data, p)
			}
			json.NewEncoder(w).Encode(map[string]any{"total": len(data), "data": data})
		case strings.HasPrefix(r.URL.Path, "/paper/"):
			id := strings.TrimPrefix(r.URL.Path, "/paper/")
			p, ok := fakeGraph[id]
			if !ok {
				http.Error(w, `{"error":"paper not found"}`, http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(p)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupWorkspace initializes a workspace the way `citegraph init` does and
// opens its store.
func setupWorkspace(t *testing.T) (string, *store.DB) {
	t.Helper()
	root := t.TempDir()

	if err := os.MkdirAll(config.CitegraphPath(root), 0755); err != nil {
		t.Fatal(err)
	}
	if err := config.Default().Save(root); err != nil {
		t.Fatal(err)
	}

	db, err := store.Open(config.DBPath(root))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	return root, db
}

func TestSearchThenExplore(t *testing.T) {
	root, db := setupWorkspace(t)
	upstream := fakeUpstream(t)

	cfg, err := config.Load(root)
	if err != nil {
		t.Fatalf("loading workspace config: %v", err)
	}

	client := scholar.NewClient(
		scholar.WithBaseURL(upstream.URL),
		scholar.WithWindow(cfg.RateLimit, cfg.RateWindow),
	)
	ctx := context.Background()

	// Search and persist results, as the search command does.
	result, err := client.SearchPapers(ctx, scholar.SearchRequest{Query: "attention"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Papers) != 2 {
		t.Fatalf("search returned %d papers, want 2", len(result.Papers))
	}
	if err := db.UpsertBatch(ctx, result.Papers); err != nil {
		t.Fatalf("persisting search results: %v", err)
	}

	stored, err := db.GetByID(ctx, "root")
	if err != nil || stored == nil {
		t.Fatalf("root not persisted: rec=%v err=%v", stored, err)
	}
	if stored.HasLinkLists() {
		t.Fatal("search result persisted with link lists, want lazy record")
	}

	// Build a tree over the lazy store: every node needs a remote refresh
	// on first touch.
	builder := citetree.NewBuilder(db, client, citetree.WithFetchDelay(time.Millisecond))
	tree, err := builder.Build(ctx, "root", citetree.Options{MaxDepth: 3, IncludeMetrics: true})
	if err != nil {
		t.Fatalf("building tree: %v", err)
	}

	// root -> {a, b} -> c under each branch.
	stats := citetree.ComputeStatistics(tree)
	if stats.TotalNodes != 5 {
		t.Errorf("TotalNodes = %d, want 5", stats.TotalNodes)
	}
	if stats.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", stats.MaxDepth)
	}
	if tree.TotalNodes != stats.TotalNodes {
		t.Errorf("tree.TotalNodes = %d, statistics = %d", tree.TotalNodes, stats.TotalNodes)
	}

	flat := citetree.Flatten(tree)
	if len(flat) != stats.TotalNodes {
		t.Errorf("flattened = %d entries, want %d", len(flat), stats.TotalNodes)
	}
	if flat[0].PaperID != "root" || flat[0].ParentID != "" {
		t.Errorf("first entry = %+v, want the root", flat[0])
	}

	// The build hydrated the store: root now carries its link lists.
	refreshed, err := db.GetByID(ctx, "root")
	if err != nil || refreshed == nil {
		t.Fatalf("root missing after build: %v", err)
	}
	if !refreshed.HasLinkLists() {
		t.Error("tree build did not write link lists back to the store")
	}

	// A second build is served from the store without touching upstream.
	upstream.Close()
	again, err := builder.Build(ctx, "root", citetree.Options{MaxDepth: 3})
	if err != nil {
		t.Fatalf("rebuilding from store: %v", err)
	}
	if got := len(citetree.Flatten(again)); got != 5 {
		t.Errorf("rebuilt tree = %d nodes, want 5", got)
	}
}

func TestWorkspaceDiscoveryFromSubdir(t *testing.T) {
	root, _ := setupWorkspace(t)

	nested := filepath.Join(root, "papers", "drafts")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	found, err := config.FindWorkspace(nested)
	if err != nil {
		t.Fatalf("FindWorkspace: %v", err)
	}
	wantRoot, _ := filepath.EvalSymlinks(root)
	gotRoot, _ := filepath.EvalSymlinks(found)
	if gotRoot != wantRoot {
		t.Errorf("FindWorkspace = %s, want %s", found, root)
	}
}
