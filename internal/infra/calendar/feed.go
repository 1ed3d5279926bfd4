package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/foundation-app/foundation/internal/domain"
	"github.com/foundation-app/foundation/internal/infra/observability"
)

// Feed keeps the latest upcoming events in memory, refreshed in the
// background. Readers never wait on a fetch; a failed fetch leaves an empty
// list.
type Feed struct {
	src      domain.EventSource
	max      int
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	mu      sync.RWMutex
	events  []domain.Event
	fetched time.Time
}

// NewFeed returns a feed over src. A nil src makes a disabled feed that
// always reports no events.
func NewFeed(src domain.EventSource, maxResults int, interval, timeout time.Duration, log zerolog.Logger) *Feed {
	return &Feed{
		src:      src,
		max:      maxResults,
		interval: interval,
		timeout:  timeout,
		log:      log.With().Str("component", "calendar_feed").Logger(),
	}
}

// Enabled reports whether the feed has a source.
func (f *Feed) Enabled() bool { return f.src != nil }

// Run refreshes immediately and then on every interval until ctx ends.
func (f *Feed) Run(ctx context.Context) {
	if f.src == nil {
		return
	}
	f.Refresh(ctx)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.Refresh(ctx)
		}
	}
}

// Refresh performs one bounded fetch and replaces the cached list.
func (f *Feed) Refresh(ctx context.Context) {
	if f.src == nil {
		return
	}
	fctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	events, err := f.src.Upcoming(fctx, f.max)
	if err != nil {
		observability.CalendarFetches.WithLabelValues("error").Inc()
		f.log.Warn().Err(err).Msg("calendar fetch failed, showing no events")
		events = nil
	} else {
		observability.CalendarFetches.WithLabelValues("ok").Inc()
	}
	observability.CalendarEvents.Set(float64(len(events)))

	f.mu.Lock()
	f.events = events
	f.fetched = time.Now()
	f.mu.Unlock()
}

// Events returns a copy of the latest list, never nil.
func (f *Feed) Events() []domain.Event {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]domain.Event, len(f.events))
	copy(out, f.events)
	return out
}

// FetchedAt is the time of the last refresh (zero before the first).
func (f *Feed) FetchedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fetched
}
