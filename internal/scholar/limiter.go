package scholar

import (
	"context"
	"sync"
	"time"
)

// window is a fixed-window request counter: at most limit requests per
// length. When the window is exhausted, Wait blocks until the window
// resets rather than failing the call. A single window is shared by all
// callers of a Client, so increments and resets happen under one mutex
// with a monotonic window-start timestamp.
type window struct {
	mu     sync.Mutex
	limit  int
	length time.Duration
	start  time.Time
	count  int
	now    func() time.Time // overridable for tests
}

func newWindow(limit int, length time.Duration) *window {
	return &window{
		limit:  limit,
		length: length,
		now:    time.Now,
	}
}

// Wait reserves one request slot, blocking until one is available or the
// context is cancelled.
func (w *window) Wait(ctx context.Context) error {
	for {
		w.mu.Lock()
		now := w.now()
		if w.start.IsZero() || now.Sub(w.start) >= w.length {
			w.start = now
			w.count = 0
		}
		if w.count < w.limit {
			w.count++
			w.mu.Unlock()
			return nil
		}
		remaining := w.length - now.Sub(w.start)
		w.mu.Unlock()

		rateLimitWaits.Inc()
		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
