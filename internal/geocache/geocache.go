// Package geocache memoizes derived geometry values — centroid and
// bounding box — keyed by feature id plus a content hash of the ring
// that produced them, so re-requesting a value for an unchanged ring
// is an LRU hit instead of a recompute. Grounded on the teacher's
// internal/cache/v2.Store (a small struct composing a backing cache
// with a domain-specific key scheme) and internal/cache/keys.Key's
// xxhash-derived cache key, generalised from "layer/res/cell/filters"
// to "feature id + ring content".
package geocache

import (
	"encoding/binary"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
)

// DefaultSize mirrors a modest per-process working set: enough recent
// features' centroid/bbox to survive a drag-resize-rotate session
// without thrashing.
const DefaultSize = 2048

type key struct {
	featureID string
	hash      uint64
}

// Cache is safe for concurrent use; the underlying LRUs carry their
// own locking.
type Cache struct {
	centroids *lru.Cache[key, geometry.Point]
	bboxes    *lru.Cache[key, geometry.BBox]
	observe   func(kind, outcome string)
}

// SetObserver installs a hook called with ("centroid"|"bbox",
// "hit"|"miss") on every lookup — wired to internal/metrics' Provider
// by the composition root. A nil observer (the default) disables this.
func (c *Cache) SetObserver(f func(kind, outcome string)) { c.observe = f }

func (c *Cache) report(kind, outcome string) {
	if c.observe != nil {
		c.observe(kind, outcome)
	}
}

// New constructs a Cache holding up to size entries per derived value
// kind. size <= 0 selects DefaultSize.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	centroids, err := lru.New[key, geometry.Point](size)
	if err != nil {
		return nil, err
	}
	bboxes, err := lru.New[key, geometry.BBox](size)
	if err != nil {
		return nil, err
	}
	return &Cache{centroids: centroids, bboxes: bboxes}, nil
}

// Centroid returns geometry.Centroid(ring) for featureID, serving a
// cached value when ring's content hash matches a prior call.
func (c *Cache) Centroid(featureID string, ring []geometry.Point) (geometry.Point, error) {
	k := key{featureID, ringHash(ring)}
	if v, ok := c.centroids.Get(k); ok {
		c.report("centroid", "hit")
		return v, nil
	}
	c.report("centroid", "miss")
	v, err := geometry.Centroid(ring)
	if err != nil {
		return geometry.Point{}, err
	}
	c.centroids.Add(k, v)
	return v, nil
}

// BBox returns geometry.Bounds(ring) for featureID, serving a cached
// value when ring's content hash matches a prior call.
func (c *Cache) BBox(featureID string, ring []geometry.Point) (geometry.BBox, error) {
	k := key{featureID, ringHash(ring)}
	if v, ok := c.bboxes.Get(k); ok {
		c.report("bbox", "hit")
		return v, nil
	}
	c.report("bbox", "miss")
	v, err := geometry.Bounds(ring)
	if err != nil {
		return geometry.BBox{}, err
	}
	c.bboxes.Add(k, v)
	return v, nil
}

// Forget drops every cached value for featureID's current hash is
// unnecessary to track explicitly: stale entries age out of the LRU on
// their own once a feature's ring content changes (a different hash),
// so Forget only needs to exist for the delete path, where the id
// itself should never resurface.
func (c *Cache) Forget(featureID string) {
	for _, k := range c.centroids.Keys() {
		if k.featureID == featureID {
			c.centroids.Remove(k)
		}
	}
	for _, k := range c.bboxes.Keys() {
		if k.featureID == featureID {
			c.bboxes.Remove(k)
		}
	}
}

// ringHash folds ring's coordinates into a single xxhash digest.
func ringHash(ring []geometry.Point) uint64 {
	buf := make([]byte, 16)
	h := xxhash.New()
	for _, p := range ring {
		binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(p.Lng))
		binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(p.Lat))
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}
