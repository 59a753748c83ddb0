package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"storefront-banners/internal/banner"
	"storefront-banners/internal/observability"
	"storefront-banners/internal/storage"
)

const (
	EventView  = "view"
	EventClick = "click"
)

// EventTracker receives successful usage events for reporting. It never
// feeds back into eligibility.
type EventTracker interface {
	TrackBannerEvent(ctx context.Context, id, event string, at time.Time) error
}

// Engine selects banners for a page and records usage. It keeps no mutable
// state of its own; the store is the only synchronisation point.
type Engine struct {
	store   storage.Store
	now     func() time.Time
	tracker EventTracker
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithTracker(t EventTracker) Option { return func(e *Engine) { e.tracker = t } }

func NewEngine(store storage.Store, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// BannersForPage returns the banners viewer may see on page, highest
// priority first, equal priorities in creation order. It never mutates
// counters.
//
// Caps are checked against the counters as read here, without a lock. A
// banner at maxViews-1 can be handed to every request in flight at that
// moment, so a cap may overshoot by at most one event per concurrent
// request. Once the increment that reaches the cap is committed, later
// calls exclude the banner.
func (e *Engine) BannersForPage(ctx context.Context, page string, viewer banner.Viewer) ([]banner.Banner, error) {
	candidates, err := e.store.ListActive(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list active banners: %w", err)
	}

	now := e.now()
	out := make([]banner.Banner, 0, len(candidates))
	for i := range candidates {
		b := &candidates[i]
		ok, err := Evaluate(b, page, viewer, now)
		if err != nil {
			if errors.Is(err, banner.ErrEvaluationSkipped) {
				observability.EvaluationsSkipped.Inc()
			}
			log.Warn().Err(err).Str("banner_id", b.ID).Str("page", page).Msg("banner skipped")
			continue
		}
		if ok {
			out = append(out, *b)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	observability.SelectionSize.Observe(float64(len(out)))
	return out, nil
}

// RecordView counts one real view. Callers must not retry an ambiguous
// failure; a retry counts twice.
func (e *Engine) RecordView(ctx context.Context, id string) error {
	return e.record(ctx, id, EventView, e.store.IncrementViews)
}

// RecordClick counts one real click, with the same retry caveat as RecordView.
func (e *Engine) RecordClick(ctx context.Context, id string) error {
	return e.record(ctx, id, EventClick, e.store.IncrementClicks)
}

// record detaches the increment from request cancellation: a client that
// stops waiting does not undo an event it already sent. The store bounds the
// write with its own timeout.
func (e *Engine) record(ctx context.Context, id, event string, inc func(context.Context, string) error) error {
	ctx = context.WithoutCancel(ctx)
	if err := inc(ctx, id); err != nil {
		return err
	}
	observability.BannerEvents.WithLabelValues(event).Inc()

	if e.tracker != nil {
		if err := e.tracker.TrackBannerEvent(ctx, id, event, e.now()); err != nil {
			log.Warn().Err(err).Str("banner_id", id).Str("event", event).Msg("analytics tracking failed")
		}
	}
	return nil
}
