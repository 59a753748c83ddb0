package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront-banners/internal/banner"
)

type memEntry struct {
	seq int64
	b   *banner.Banner
}

// MemoryStore keeps banners in process. Counter increments happen under the
// write lock, so they are atomic with respect to every other operation.
type MemoryStore struct {
	mu      sync.RWMutex
	seq     int64
	banners map[string]*memEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{banners: map[string]*memEntry{}, now: func() time.Time { return time.Now().UTC() }}
}

func (m *MemoryStore) Create(_ context.Context, b *banner.Banner) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.Must(uuid.NewV7()).String()
	}
	if _, ok := m.banners[b.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, b.ID)
	}
	now := m.now()
	b.CreatedAt, b.UpdatedAt = now, now
	b.Views, b.Clicks = 0, 0
	m.seq++
	m.banners[b.ID] = &memEntry{seq: m.seq, b: b.Clone()}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*banner.Banner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.banners[id]
	if !ok {
		return nil, banner.ErrNotFound
	}
	return e.b.Clone(), nil
}

func (m *MemoryStore) List(_ context.Context, activeOnly bool) ([]banner.Banner, error) {
	entries := m.snapshot(func(b *banner.Banner) bool { return !activeOnly || b.Active })
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].b.Priority != entries[j].b.Priority {
			return entries[i].b.Priority > entries[j].b.Priority
		}
		return entries[i].seq > entries[j].seq
	})
	return flatten(entries), nil
}

func (m *MemoryStore) ListActive(_ context.Context, page string) ([]banner.Banner, error) {
	entries := m.snapshot(func(b *banner.Banner) bool {
		return b.Active && (page == "" || b.ShowsOn(page))
	})
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].b.Priority != entries[j].b.Priority {
			return entries[i].b.Priority > entries[j].b.Priority
		}
		return entries[i].seq < entries[j].seq
	})
	return flatten(entries), nil
}

func (m *MemoryStore) Update(_ context.Context, b *banner.Banner) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.banners[b.ID]
	if !ok {
		return banner.ErrNotFound
	}
	next := b.Clone()
	next.Views, next.Clicks = e.b.Views, e.b.Clicks
	next.CreatedAt = e.b.CreatedAt
	next.UpdatedAt = m.now()
	e.b = next
	b.Views, b.Clicks, b.CreatedAt, b.UpdatedAt = next.Views, next.Clicks, next.CreatedAt, next.UpdatedAt
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.banners[id]; !ok {
		return banner.ErrNotFound
	}
	delete(m.banners, id)
	return nil
}

func (m *MemoryStore) IncrementViews(_ context.Context, id string) error {
	return m.increment(id, func(b *banner.Banner) { b.Views++ })
}

func (m *MemoryStore) IncrementClicks(_ context.Context, id string) error {
	return m.increment(id, func(b *banner.Banner) { b.Clicks++ })
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) increment(id string, inc func(*banner.Banner)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.banners[id]
	if !ok {
		return banner.ErrNotFound
	}
	inc(e.b)
	return nil
}

func (m *MemoryStore) snapshot(keep func(*banner.Banner) bool) []memEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]memEntry, 0, len(m.banners))
	for _, e := range m.banners {
		if keep(e.b) {
			out = append(out, memEntry{seq: e.seq, b: e.b.Clone()})
		}
	}
	return out
}

func flatten(entries []memEntry) []banner.Banner {
	out := make([]banner.Banner, len(entries))
	for i, e := range entries {
		out[i] = *e.b
	}
	return out
}
