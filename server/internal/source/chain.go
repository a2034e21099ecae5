package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Chain reads from the first available source in order and falls back to a
// synthetic source when none is available.
//
// Chain is safe for concurrent use; every Load reads the sources afresh.
type Chain struct {
	sources  []Source
	fallback Source

	// onFallback is set while the last Load used the fallback, so the warning
	// is logged once per outage instead of on every request.
	onFallback atomic.Bool
}

// NewChain returns a Chain trying sources in order, then fallback. A nil
// fallback makes Load return ErrUnavailable when every source is unavailable.
func NewChain(fallback Source, sources ...Source) *Chain {
	return &Chain{sources: sources, fallback: fallback}
}

// Load returns the records of the first source that does not report
// ErrUnavailable. Any other source error stops the chain and is returned.
func (c *Chain) Load(ctx context.Context) (Snapshot, error) {
	for _, s := range c.sources {
		recs, err := s.Load(ctx)
		if errors.Is(err, ErrUnavailable) {
			slog.Debug("source: unavailable, trying next", "source", s.Name(), "err", err)
			continue
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("source %s: %w", s.Name(), err)
		}
		if c.onFallback.Swap(false) {
			slog.Info("source: real data available again", "source", s.Name())
		}
		return Snapshot{Records: recs, Source: s.Name()}, nil
	}

	if c.fallback == nil {
		return Snapshot{}, ErrUnavailable
	}
	recs, err := c.fallback.Load(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("source %s: %w", c.fallback.Name(), err)
	}
	if !c.onFallback.Swap(true) {
		slog.Warn("source: no record source available, serving synthetic data",
			"fallback", c.fallback.Name(), "tried", len(c.sources))
	}
	return Snapshot{Records: recs, Source: c.fallback.Name(), Synthetic: true}, nil
}

// Names lists the configured source names in order, fallback last.
func (c *Chain) Names() []string {
	out := make([]string, 0, len(c.sources)+1)
	for _, s := range c.sources {
		out = append(out, s.Name())
	}
	if c.fallback != nil {
		out = append(out, c.fallback.Name())
	}
	return out
}
