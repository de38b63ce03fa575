package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/citegraph/citegraph/internal/citetree"
)

var (
	treeDepth    int
	treeBreadth  int
	treeMetrics  bool
	treeProgress bool
)

var treeCmd = &cobra.Command{
	Use:   "tree <paper-id>",
	Short: "Build a bounded citation tree rooted at a paper",
	Long: `Build a citation tree rooted at the given paper.

The root expands into the papers that cite it; every deeper level
expands into the papers a node cites. Expansion is bounded by --depth
and --breadth. Unresolvable branches are dropped silently; only an
unresolvable root fails the command.`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().IntVar(&treeDepth, "depth", 0, "Maximum tree depth (default from config)")
	treeCmd.Flags().IntVar(&treeBreadth, "breadth", 0, "Maximum branches per node (default from config)")
	treeCmd.Flags().BoolVar(&treeMetrics, "metrics", false, "Include per-node subtree counts")
	treeCmd.Flags().BoolVar(&treeProgress, "progress", false, "Log progress per visited node")
}

// treeOutput is the JSON tree response.
type treeOutput struct {
	Tree       *citetree.Node       `json:"tree"`
	Statistics citetree.Statistics  `json:"statistics"`
	Flattened  []citetree.FlatEntry `json:"flattened"`
}

func runTree(cmd *cobra.Command, args []string) error {
	paperID := args[0]
	ctx := context.Background()

	cfg, db := openWorkspace()
	defer db.Close()

	if treeProgress && logrus.GetLevel() < logrus.InfoLevel {
		logrus.SetLevel(logrus.InfoLevel)
	}

	opts := citetree.Options{
		MaxDepth:            cfg.MaxDepth,
		MaxBranchesPerLevel: cfg.MaxBranchesPerLevel,
		IncludeMetrics:      treeMetrics,
	}
	if treeDepth > 0 {
		opts.MaxDepth = treeDepth
	}
	if treeBreadth > 0 {
		opts.MaxBranchesPerLevel = treeBreadth
	}

	builder := newBuilder(db, newClient(cfg), cfg, treeProgress)

	tree, err := builder.Build(ctx, paperID, opts)
	if errors.Is(err, citetree.ErrRootNotFound) {
		exitWithError(ExitNotFound, "unable to build citation tree for %s", paperID)
	}
	if err != nil {
		exitWithError(ExitError, "building tree: %v", err)
	}

	if humanOutput {
		printTreeHuman(tree)
		stats := citetree.ComputeStatistics(tree)
		fmt.Printf("\n%d nodes, max depth %d, avg branching %.2f, %d total citations\n",
			stats.TotalNodes, stats.MaxDepth, stats.AverageReferences, stats.TotalCitations)
		return nil
	}

	return outputJSON(treeOutput{
		Tree:       tree,
		Statistics: citetree.ComputeStatistics(tree),
		Flattened:  citetree.Flatten(tree),
	})
}

// printTreeHuman prints an indented tree view.
func printTreeHuman(n *citetree.Node) {
	fmt.Printf("%s%s (%s, %d citations)\n",
		indent(n.Depth), truncateString(n.Paper.Title, TreeTitleMaxLen),
		n.Paper.ID, n.Paper.CitationCount)
	for _, child := range n.References {
		printTreeHuman(child)
	}
}

func indent(depth int) string {
	s := ""
	for i := 0; i < depth; i++ {
		s += "  "
	}
	return s
}
