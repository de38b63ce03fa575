package citetree

// Statistics are aggregate measures over one built tree.
type Statistics struct {
	TotalNodes        int     `json:"totalNodes"`
	MaxDepth          int     `json:"maxDepth"`
	AverageReferences float64 `json:"averageReferences"`
	TotalCitations    int     `json:"totalCitations"`
}

// ComputeStatistics accumulates node count, maximum depth, mean branching
// factor, and summed citation counts in a single pre-order traversal.
func ComputeStatistics(root *Node) Statistics {
	var stats Statistics
	totalRefs := 0

	var visit func(n *Node)
	visit = func(n *Node) {
		stats.TotalNodes++
		if n.Depth > stats.MaxDepth {
			stats.MaxDepth = n.Depth
		}
		totalRefs += len(n.References)
		stats.TotalCitations += n.Paper.CitationCount
		for _, child := range n.References {
			visit(child)
		}
	}
	if root != nil {
		visit(root)
	}

	if stats.TotalNodes > 0 {
		stats.AverageReferences = float64(totalRefs) / float64(stats.TotalNodes)
	}
	return stats
}

// FlatEntry is the list-view projection of one tree node.
type FlatEntry struct {
	PaperID       string `json:"paperId"`
	Title         string `json:"title"`
	Depth         int    `json:"depth"`
	ParentID      string `json:"parentId,omitempty"`
	CitationCount int    `json:"citationCount"`
}

// Flatten emits one entry per node in pre-order: a parent always precedes
// its descendants and siblings keep their References order. The root
// carries no ParentID.
func Flatten(root *Node) []FlatEntry {
	var entries []FlatEntry

	var visit func(n *Node, parentID string)
	visit = func(n *Node, parentID string) {
		entries = append(entries, FlatEntry{
			PaperID:       n.Paper.ID,
			Title:         n.Paper.Title,
			Depth:         n.Depth,
			ParentID:      parentID,
			CitationCount: n.Paper.CitationCount,
		})
		for _, child := range n.References {
			visit(child, n.Paper.ID)
		}
	}
	if root != nil {
		visit(root, "")
	}

	return entries
}
