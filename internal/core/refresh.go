package core

// refresh.go keeps loadable catalog tables in sync with their sheets.
//
// Tables with a target_table and a refresh_interval are reloaded whenever
// their interval has passed since the last attempt. The scheduler checks
// once per tick; a failed load is logged and retried on the next due time,
// never immediately. The scheduler stops when its context is cancelled.

import (
	"context"
	"time"
)

// DefaultRefreshTick is how often the scheduler looks for due tables.
const DefaultRefreshTick = time.Minute

// Refresher reloads catalog tables on their refresh interval.
type Refresher struct {
	service *Service
	tick    time.Duration
	last    map[string]time.Time
}

// NewRefresher creates a scheduler for s. tick <= 0 uses DefaultRefreshTick.
func NewRefresher(s *Service, tick time.Duration) *Refresher {
	if tick <= 0 {
		tick = DefaultRefreshTick
	}
	return &Refresher{
		service: s,
		tick:    tick,
		last:    make(map[string]time.Time),
	}
}

// Run loads every due table immediately, then on every tick, until ctx is
// cancelled.
func (r *Refresher) Run(ctx context.Context) {
	logger := r.service.logger
	logger.Info("refresh scheduler started",
		"tables", len(r.service.catalog.Refreshing()),
		"tick", r.tick.String(),
	)

	r.RunOnce(ctx, r.service.now())

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx, r.service.now())
		}
	}
}

// RunOnce loads the tables due at now and returns how many loads succeeded.
func (r *Refresher) RunOnce(ctx context.Context, now time.Time) int {
	logger := r.service.logger
	loaded := 0

	for _, t := range r.service.catalog.Refreshing() {
		if ctx.Err() != nil {
			return loaded
		}
		if last, ok := r.last[t.Key]; ok && now.Sub(last) < t.RefreshInterval {
			continue
		}
		r.last[t.Key] = now

		res, err := r.service.Load(ctx, t.Key)
		if err != nil {
			logger.Error("refresh failed",
				"table", t.Key,
				"error", err,
				"code", MapError(err).Code,
			)
			continue
		}
		loaded++
		logger.Debug("table refreshed", "table", t.Key, "rows", res.Rows)
	}
	return loaded
}
