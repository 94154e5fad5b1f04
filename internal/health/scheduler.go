package health

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// debounceWindow bounds how often an on-demand Run (as opposed to the
// ticker-driven StartScheduled loop) actually re-probes, so a burst of
// concurrent GET /health requests during an incident can't each trigger
// their own full check pass.
const debounceWindow = time.Second

// DebouncedAggregator wraps an Aggregator so RunDebounced collapses bursts
// of on-demand health checks into at most one real probe pass per
// debounceWindow, serving the cached Report to every caller in between.
type DebouncedAggregator struct {
	*Aggregator
	limiter *rate.Limiter
}

// NewDebounced builds a DebouncedAggregator around agg.
func NewDebounced(agg *Aggregator) *DebouncedAggregator {
	return &DebouncedAggregator{
		Aggregator: agg,
		limiter:    rate.NewLimiter(rate.Every(debounceWindow), 1),
	}
}

// RunDebounced re-probes at most once per debounceWindow; callers arriving
// inside the window get the cached Latest() report instead.
func (d *DebouncedAggregator) RunDebounced(ctx context.Context) Report {
	if !d.limiter.Allow() {
		return d.Latest()
	}
	return d.Run(ctx)
}
