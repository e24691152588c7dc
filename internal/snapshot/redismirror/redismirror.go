// Package redismirror maintains a non-authoritative Redis snapshot of
// the feature store: every create/update writes the feature's current
// GeoJSON to Redis with a TTL, every delete removes it. The in-memory
// store (internal/store) remains the sole authority — Redis here is a
// side channel a separate process could read for a warm restart or a
// read-replica view, never consulted for drawing decisions.
//
// Grounded on the teacher's internal/cache/redisstore/client.go (pool
// options, context-scoped Set/MGet/Del) and internal/cache/
// featurestore/store.go (the thin typed layer with a sanitized key
// scheme on top of the raw client), generalised from a cache-fill tier
// to a durability mirror.
package redismirror

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/redis/go-redis/v9"

	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

// Option mutates redis.Options before the client dials, matching the
// teacher's functional-option shape.
type Option func(*redis.Options)

func WithPoolSize(n int) Option        { return func(o *redis.Options) { o.PoolSize = n } }
func WithDialTimeout(d time.Duration) Option { return func(o *redis.Options) { o.DialTimeout = d } }

// DefaultTTL bounds how long a mirrored feature survives with no
// further writes, so a stopped server's mirror eventually empties
// rather than drifting from a store that moved on without it.
const DefaultTTL = 24 * time.Hour

// Mirror writes feature snapshots to Redis, keyed by id, and is safe
// for concurrent use (the underlying redis.Client pools its own
// connections).
type Mirror struct {
	rdb *redis.Client
	ttl time.Duration
}

// New dials addr and pings it before returning, matching the teacher's
// client.go fail-fast construction.
func New(ctx context.Context, addr string, ttl time.Duration, opts ...Option) (*Mirror, error) {
	if addr == "" {
		return nil, fmt.Errorf("redismirror: address is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ro := &redis.Options{
		Addr:         addr,
		PoolSize:     32,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
	for _, f := range opts {
		f(ro)
	}
	rdb := redis.NewClient(ro)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redismirror: ping: %w", err)
	}
	return &Mirror{rdb: rdb, ttl: ttl}, nil
}

// Sync is installed as a Coordinator.OnChange callback (or composed
// alongside other OnChange consumers): it refreshes every created/
// updated id's JSON snapshot and removes every deleted id. st supplies
// the current feature bodies; Sync itself holds no feature state.
func (m *Mirror) Sync(ctx context.Context, st store.Store, ids []string, op string) error {
	if m == nil || len(ids) == 0 {
		return nil
	}
	switch op {
	case "delete":
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = featureKey(id)
		}
		if err := m.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redismirror: del %d keys: %w", len(keys), err)
		}
		return nil
	default:
		pipe := m.rdb.Pipeline()
		written := 0
		for _, id := range ids {
			g, ok := st.GetGeometryCopy(id)
			if !ok {
				continue
			}
			props, _ := st.GetPropertiesCopy(id)
			body, err := json.Marshal(model.Feature{ID: id, Geometry: g, Properties: props})
			if err != nil {
				return fmt.Errorf("redismirror: marshal feature %q: %w", id, err)
			}
			pipe.Set(ctx, featureKey(id), body, m.ttl)
			written++
		}
		if written == 0 {
			return nil
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redismirror: pipeline set: %w", err)
		}
		return nil
	}
}

// LoadAll reads back every mirrored feature, for a warm-restart seed of
// a fresh in-memory store. Features whose TTL already expired are
// simply absent, which is an acceptable staleness bound for a
// non-authoritative mirror.
func (m *Mirror) LoadAll(ctx context.Context) ([]model.Feature, error) {
	var (
		cursor  uint64
		keys    []string
		cur     []string
		err     error
		out     []model.Feature
	)
	for {
		cur, cursor, err = m.rdb.Scan(ctx, cursor, featurePrefix+"*", 256).Result()
		if err != nil {
			return nil, fmt.Errorf("redismirror: scan: %w", err)
		}
		keys = append(keys, cur...)
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := m.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redismirror: mget %d keys: %w", len(keys), err)
	}
	out = make([]model.Feature, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		var f model.Feature
		if err := json.Unmarshal([]byte(s), &f); err != nil {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (m *Mirror) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

const featurePrefix = "terradraw:feat:"

func featureKey(id string) string {
	return featurePrefix + sanitizeID(strings.TrimSpace(id))
}

// sanitizeID mirrors the teacher's sanitizeLayer rune-folding approach,
// narrowed to the id alphabet this store actually assigns
// (the store's "td-<n>" ids), but defensive against arbitrary
// imported ids from a GeoJSON POST.
func sanitizeID(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		var out rune
		switch {
		case unicode.IsSpace(r):
			out = '_'
		case isAlphaNum(r) || r == '-' || r == '_':
			out = r
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || unicode.IsDigit(r)
}
