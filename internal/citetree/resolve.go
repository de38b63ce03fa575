package citetree

import (
	"context"

	"github.com/citegraph/citegraph/internal/paper"
)

// Resolution tags how a paper was obtained during tree expansion.
type Resolution int

const (
	// ResolutionMissing: no stored copy and the remote fetch failed.
	ResolutionMissing Resolution = iota
	// ResolutionFresh: fetched remotely and persisted.
	ResolutionFresh
	// ResolutionCached: served from the store with link lists intact.
	ResolutionCached
	// ResolutionStale: the stored copy lacked link lists and the remote
	// refresh failed; the stale copy is used as best effort.
	ResolutionStale
)

func (r Resolution) String() string {
	switch r {
	case ResolutionFresh:
		return "fresh"
	case ResolutionCached:
		return "cached"
	case ResolutionStale:
		return "stale"
	default:
		return "missing"
	}
}

// resolve looks a paper up in the store, refreshing it remotely when it
// is absent or lacks its link lists. Fetched records are written back to
// the store. A nil record (ResolutionMissing) marks the branch a dead
// end; errors never escape here, the policy is log-and-continue.
func (w *walk) resolve(ctx context.Context, id string, depth int) (*paper.Record, Resolution) {
	stored, err := w.store.GetByID(ctx, id)
	if err != nil {
		w.log.WithError(err).WithField("paper_id", id).Warn("store lookup failed")
		stored = nil
	}
	if stored != nil && stored.HasLinkLists() {
		return stored, ResolutionCached
	}

	// Space out remote fetches below the root; the root's own resolution
	// is never delayed.
	if depth > 0 {
		if err := w.pacer.Wait(ctx); err != nil {
			if stored != nil {
				return stored, ResolutionStale
			}
			return nil, ResolutionMissing
		}
	}

	fetched, err := w.fetcher.GetPaper(ctx, id)
	if err != nil {
		if stored != nil {
			w.log.WithError(err).WithField("paper_id", id).
				Warn("remote refresh failed, proceeding with stale record")
			return stored, ResolutionStale
		}
		w.log.WithError(err).WithField("paper_id", id).
			Warn("dropping unresolvable branch")
		return nil, ResolutionMissing
	}

	if err := w.store.Upsert(ctx, fetched); err != nil {
		// The fetched record still serves this build.
		w.log.WithError(err).WithField("paper_id", id).
			Warn("persisting fetched paper failed")
	}

	return fetched, ResolutionFresh
}
