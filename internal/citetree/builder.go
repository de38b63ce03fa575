// Package citetree builds bounded citation trees by recursively expanding
// a paper's related-paper links, resolving each node from the local store
// with remote fallback.
package citetree

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/citegraph/citegraph/internal/paper"
)

// ErrRootNotFound indicates the root paper could not be resolved at all:
// no stored copy and the remote fetch failed.
var ErrRootNotFound = errors.New("unable to build citation tree for this paper")

// Defaults for tree expansion bounds.
const (
	DefaultMaxDepth    = 5
	DefaultMaxBranches = 5

	// DefaultFetchDelay spaces remote fetches below the root.
	DefaultFetchDelay = 200 * time.Millisecond
)

// PaperStore is the storage surface the builder depends on.
type PaperStore interface {
	GetByID(ctx context.Context, id string) (*paper.Record, error)
	Upsert(ctx context.Context, rec *paper.Record) error
}

// MetadataFetcher fetches a paper remotely with link lists populated.
type MetadataFetcher interface {
	GetPaper(ctx context.Context, id string) (*paper.Record, error)
}

// Options bounds one tree build.
type Options struct {
	// MaxDepth is the recursion ceiling; nodes at MaxDepth are never
	// produced (the root is depth 0).
	MaxDepth int
	// MaxBranchesPerLevel caps how many related ids are expanded per
	// node, taken as a raw prefix of the stored link list.
	MaxBranchesPerLevel int
	// IncludeMetrics populates TotalNodes on every node.
	IncludeMetrics bool
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxBranchesPerLevel <= 0 {
		o.MaxBranchesPerLevel = DefaultMaxBranches
	}
	return o
}

// Node is one position in a built citation tree. Trees are ephemeral:
// they exist only for the duration of one build request and its consumers.
type Node struct {
	Paper      paper.Record `json:"paper"`
	References []*Node      `json:"references"`
	Depth      int          `json:"depth"`
	TotalNodes int          `json:"totalNodes,omitempty"`
}

// Builder assembles citation trees.
type Builder struct {
	store    PaperStore
	fetcher  MetadataFetcher
	pacer    *rate.Limiter
	log      *logrus.Entry
	observer Observer
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithFetchDelay sets the spacing between remote fetches below the root.
func WithFetchDelay(d time.Duration) BuilderOption {
	return func(b *Builder) {
		if d > 0 {
			b.pacer = rate.NewLimiter(rate.Every(d), 1)
		} else {
			b.pacer = rate.NewLimiter(rate.Inf, 1)
		}
	}
}

// WithObserver registers a progress observer, invoked after every node
// visit.
func WithObserver(o Observer) BuilderOption {
	return func(b *Builder) {
		b.observer = o
	}
}

// WithLogger sets the logger for dropped branches and stale fallbacks.
func WithLogger(log *logrus.Entry) BuilderOption {
	return func(b *Builder) {
		b.log = log
	}
}

// NewBuilder creates a Builder over a store and a remote fetcher.
func NewBuilder(store PaperStore, fetcher MetadataFetcher, opts ...BuilderOption) *Builder {
	b := &Builder{
		store:   store,
		fetcher: fetcher,
		pacer:   rate.NewLimiter(rate.Every(DefaultFetchDelay), 1),
		log:     logrus.WithField("component", "citetree"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build expands rootID into a citation tree within the given bounds.
// Branches that cannot be resolved are dropped, never surfaced as errors;
// only a root that resolves to nothing yields ErrRootNotFound.
func (b *Builder) Build(ctx context.Context, rootID string, opts Options) (*Node, error) {
	if rootID == "" {
		return nil, fmt.Errorf("root paper id is required")
	}
	opts = opts.withDefaults()

	w := &walk{
		Builder:   b,
		opts:      opts,
		estimated: EstimateTotal(opts.MaxDepth, opts.MaxBranchesPerLevel),
	}

	root := w.node(ctx, rootID, 0, pathSet{})
	if root == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrRootNotFound
	}
	return root, nil
}

// walk carries the per-build state of one Build call.
type walk struct {
	*Builder
	opts      Options
	estimated int
	visited   atomic.Int64
}

// node resolves one paper and recurses over its related ids. A nil return
// means "no node here": depth exhausted, a cycle along this path, or an
// unresolvable paper.
func (w *walk) node(ctx context.Context, id string, depth int, seen pathSet) *Node {
	if depth >= w.opts.MaxDepth {
		return nil
	}
	if seen.has(id) {
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}

	rec, res := w.resolve(ctx, id, depth)
	if rec == nil {
		return nil
	}

	if w.observer != nil {
		w.observer.NodeVisited(id, depth, int(w.visited.Add(1)), w.estimated)
	}
	w.log.WithFields(logrus.Fields{
		"paper_id":   id,
		"depth":      depth,
		"resolution": res.String(),
	}).Debug("node resolved")

	// The root expands who cites it; every deeper level expands what the
	// paper cites.
	var candidates []string
	if depth == 0 {
		candidates = rec.Citations()
	} else {
		candidates = rec.References()
	}
	if len(candidates) > w.opts.MaxBranchesPerLevel {
		candidates = candidates[:w.opts.MaxBranchesPerLevel]
	}

	node := &Node{
		Paper:      *rec,
		Depth:      depth,
		References: []*Node{},
	}

	if len(candidates) > 0 && depth+1 < w.opts.MaxDepth {
		// Sibling subtrees are expanded concurrently; each descent reads
		// the same path snapshot and copies it further down, so branches
		// never prune each other. Results are collected by candidate
		// index, restoring order at the join.
		next := seen.with(id)
		children := make([]*Node, len(candidates))

		var g errgroup.Group
		for i, childID := range candidates {
			i, childID := i, childID
			g.Go(func() error {
				children[i] = w.node(ctx, childID, depth+1, next)
				return nil
			})
		}
		// Children report failures by staying nil, never by error.
		_ = g.Wait()

		for _, child := range children {
			if child != nil {
				node.References = append(node.References, child)
			}
		}
	}

	if w.opts.IncludeMetrics {
		total := 1
		for _, child := range node.References {
			total += child.TotalNodes
		}
		node.TotalNodes = total
	}

	return node
}

// pathSet tracks the paper ids along one root-to-node path. It is never
// mutated after creation; with returns an extended copy, so sibling
// branches cannot observe each other's ancestors.
type pathSet map[string]struct{}

func (p pathSet) has(id string) bool {
	_, ok := p[id]
	return ok
}

func (p pathSet) with(id string) pathSet {
	next := make(pathSet, len(p)+1)
	for k := range p {
		next[k] = struct{}{}
	}
	next[id] = struct{}{}
	return next
}
