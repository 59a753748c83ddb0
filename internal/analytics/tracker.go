// Package analytics keeps reporting counters in Redis. It is a separate write
// path from banner usage counters and never influences eligibility.
package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const dayLayout = "2006-01-02"

// Client is the subset of *redis.Client the tracker needs.
type Client interface {
	HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// Tracker counts page views and banner events per UTC day. A Tracker without
// a client accepts every call and records nothing.
type Tracker struct {
	client Client
}

func New(client Client) *Tracker {
	return &Tracker{client: client}
}

// NewRedisClient connects and pings within 5s.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (t *Tracker) Enabled() bool { return t != nil && t.client != nil }

func (t *Tracker) TrackPageView(ctx context.Context, page string, at time.Time) error {
	if !t.Enabled() {
		return nil
	}
	key := pageViewsKey(at)
	if err := t.client.HIncrBy(ctx, key, page, 1).Err(); err != nil {
		return fmt.Errorf("redis hincrby %s: %w", key, err)
	}
	return nil
}

func (t *Tracker) TrackBannerEvent(ctx context.Context, id, event string, at time.Time) error {
	if !t.Enabled() {
		return nil
	}
	key := bannerEventsKey(at)
	if err := t.client.HIncrBy(ctx, key, id+":"+event, 1).Err(); err != nil {
		return fmt.Errorf("redis hincrby %s: %w", key, err)
	}
	return nil
}

// PageViews returns the per-page totals for day.
func (t *Tracker) PageViews(ctx context.Context, day time.Time) (map[string]int64, error) {
	out := map[string]int64{}
	if !t.Enabled() {
		return out, nil
	}
	key := pageViewsKey(day)
	raw, err := t.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", key, err)
	}
	for page, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("page view count for %q: %w", page, err)
		}
		out[page] = n
	}
	return out, nil
}

// ParseDay accepts YYYY-MM-DD; an empty string means today (UTC).
func ParseDay(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now.UTC(), nil
	}
	return time.Parse(dayLayout, s)
}

func pageViewsKey(at time.Time) string {
	return "analytics:pageviews:" + at.UTC().Format(dayLayout)
}

func bannerEventsKey(at time.Time) string {
	return "analytics:banners:" + at.UTC().Format(dayLayout)
}
