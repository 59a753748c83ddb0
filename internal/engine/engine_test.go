package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-banners/internal/banner"
	"storefront-banners/internal/storage"
)

func fixedClock() time.Time { return now }

func newEngine(st storage.Store, opts ...Option) *Engine {
	return NewEngine(st, append([]Option{WithClock(fixedClock)}, opts...)...)
}

func seed(t *testing.T, st storage.Store, bs ...*banner.Banner) {
	t.Helper()
	for _, b := range bs {
		require.NoError(t, st.Create(context.Background(), b))
	}
}

func names(bs []banner.Banner) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Name
	}
	return out
}

func TestBannersForPage_PriorityOrder(t *testing.T) {
	st := storage.NewMemoryStore()
	seed(t, st,
		&banner.Banner{Name: "low", Active: true, Priority: 1, DisplayOn: []string{"home"}},
		&banner.Banner{Name: "high", Active: true, Priority: 9, DisplayOn: []string{"all"}},
		&banner.Banner{Name: "mid-1", Active: true, Priority: 5, DisplayOn: []string{"home"}},
		&banner.Banner{Name: "mid-2", Active: true, Priority: 5, DisplayOn: []string{"home"}},
		&banner.Banner{Name: "off", Active: false, Priority: 100, DisplayOn: []string{"home"}},
		&banner.Banner{Name: "elsewhere", Active: true, Priority: 50, DisplayOn: []string{"checkout"}},
	)
	eng := newEngine(st)

	for i := 0; i < 3; i++ {
		got, err := eng.BannersForPage(context.Background(), "home", guest)
		require.NoError(t, err)
		assert.Equal(t, []string{"high", "mid-1", "mid-2", "low"}, names(got))
	}
}

func TestBannersForPage_OrderingProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("priority desc, creation order on ties", prop.ForAll(
		func(priorities []int) bool {
			st := storage.NewMemoryStore()
			for i, p := range priorities {
				b := &banner.Banner{Name: fmt.Sprintf("%03d", i), Active: true, Priority: p, DisplayOn: []string{"home"}}
				if err := st.Create(context.Background(), b); err != nil {
					return false
				}
			}
			got, err := newEngine(st).BannersForPage(context.Background(), "home", guest)
			if err != nil || len(got) != len(priorities) {
				return false
			}
			for i := 1; i < len(got); i++ {
				prev, cur := got[i-1], got[i]
				if prev.Priority < cur.Priority {
					return false
				}
				if prev.Priority == cur.Priority && prev.Name > cur.Name {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-3, 3)),
	))

	properties.TestingRun(t)
}

func TestBannersForPage_EmptyIsNotAnError(t *testing.T) {
	got, err := newEngine(storage.NewMemoryStore()).BannersForPage(context.Background(), "home", guest)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBannersForPage_SkipsMalformedBanner(t *testing.T) {
	st := storage.NewMemoryStore()
	seed(t, st,
		&banner.Banner{Name: "broken", Active: true, Priority: 10, DisplayOn: []string{"home"},
			DisplayRules: &banner.DisplayRules{MaxViews: i64(-1)}},
		&banner.Banner{Name: "fine", Active: true, Priority: 1, DisplayOn: []string{"home"}},
	)

	got, err := newEngine(st).BannersForPage(context.Background(), "home", guest)
	require.NoError(t, err)
	assert.Equal(t, []string{"fine"}, names(got))
}

type failingStore struct {
	storage.Store
	err error
}

func (f failingStore) ListActive(context.Context, string) ([]banner.Banner, error) {
	return nil, f.err
}

func TestBannersForPage_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	eng := newEngine(failingStore{Store: storage.NewMemoryStore(), err: boom})

	got, err := eng.BannersForPage(context.Background(), "home", guest)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, boom)
}

func TestBannersForPage_DoesNotTouchCounters(t *testing.T) {
	st := storage.NewMemoryStore()
	b := &banner.Banner{Name: "a", Active: true, DisplayOn: []string{"home"}}
	seed(t, st, b)
	eng := newEngine(st)

	for i := 0; i < 5; i++ {
		_, err := eng.BannersForPage(context.Background(), "home", guest)
		require.NoError(t, err)
	}
	stored, err := st.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Views)
	assert.Zero(t, stored.Clicks)
}

func TestScenario_RoleTargeting(t *testing.T) {
	st := storage.NewMemoryStore()
	a := &banner.Banner{Name: "A", Active: true, Priority: 10, DisplayOn: []string{"home"}}
	b := &banner.Banner{Name: "B", Active: true, Priority: 5, DisplayOn: []string{"all"},
		DisplayRules: &banner.DisplayRules{ShowToRoles: []string{"admin"}}}
	seed(t, st, a, b)
	eng := newEngine(st)

	got, err := eng.BannersForPage(context.Background(), "home", guest)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, names(got))

	got, err = eng.BannersForPage(context.Background(), "home", admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names(got))
}

func TestScenario_ClickCap(t *testing.T) {
	st := storage.NewMemoryStore()
	c := &banner.Banner{Name: "C", Active: true, DisplayOn: []string{"promo"},
		DisplayRules: &banner.DisplayRules{MaxClicks: i64(1)}}
	seed(t, st, c)
	eng := newEngine(st)
	ctx := context.Background()

	got, err := eng.BannersForPage(ctx, "promo", guest)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, names(got))

	require.NoError(t, eng.RecordClick(ctx, c.ID))
	got, err = eng.BannersForPage(ctx, "promo", guest)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, eng.RecordClick(ctx, c.ID))
	got, err = eng.BannersForPage(ctx, "promo", guest)
	require.NoError(t, err)
	assert.Empty(t, got)

	stored, err := st.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Clicks)
}

func TestViewCap(t *testing.T) {
	st := storage.NewMemoryStore()
	b := &banner.Banner{Name: "capped", Active: true, DisplayOn: []string{"home"},
		DisplayRules: &banner.DisplayRules{MaxViews: i64(3)}}
	seed(t, st, b)
	eng := newEngine(st)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := eng.BannersForPage(ctx, "home", guest)
		require.NoError(t, err)
		require.Len(t, got, 1, "view %d", i)
		require.NoError(t, eng.RecordView(ctx, b.ID))
	}
	got, err := eng.BannersForPage(ctx, "home", guest)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordView_Concurrent(t *testing.T) {
	const n = 200
	st := storage.NewMemoryStore()
	b := &banner.Banner{Name: "popular", Active: true, DisplayOn: []string{"home"}}
	seed(t, st, b)
	eng := newEngine(st)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, eng.RecordView(context.Background(), b.ID))
		}()
	}
	wg.Wait()

	stored, err := st.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), stored.Views)
}

func TestRecordEvents_UnknownBanner(t *testing.T) {
	eng := newEngine(storage.NewMemoryStore())

	assert.ErrorIs(t, eng.RecordView(context.Background(), "missing"), banner.ErrNotFound)
	assert.ErrorIs(t, eng.RecordClick(context.Background(), "missing"), banner.ErrNotFound)
}

type recordingTracker struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (r *recordingTracker) TrackBannerEvent(_ context.Context, id, event string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, id+":"+event)
	return r.err
}

func TestRecordEvents_Tracked(t *testing.T) {
	st := storage.NewMemoryStore()
	b := &banner.Banner{Name: "a", Active: true, DisplayOn: []string{"home"}}
	seed(t, st, b)
	tr := &recordingTracker{}
	eng := newEngine(st, WithTracker(tr))

	require.NoError(t, eng.RecordView(context.Background(), b.ID))
	require.NoError(t, eng.RecordClick(context.Background(), b.ID))
	require.ErrorIs(t, eng.RecordClick(context.Background(), "missing"), banner.ErrNotFound)

	assert.Equal(t, []string{b.ID + ":view", b.ID + ":click"}, tr.events)
}

func TestRecordEvents_TrackerFailureIsIgnored(t *testing.T) {
	st := storage.NewMemoryStore()
	b := &banner.Banner{Name: "a", Active: true, DisplayOn: []string{"home"}}
	seed(t, st, b)
	eng := newEngine(st, WithTracker(&recordingTracker{err: errors.New("redis down")}))

	require.NoError(t, eng.RecordView(context.Background(), b.ID))

	stored, err := st.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Views)
}
