// Package coordinator implements spec.md §4.F: the wiring point
// between one adapter, one store, and the set of registered modes, and
// the enforcement that at most one mode is ever active.
package coordinator

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/terradraw-core/internal/adapter"
	"github.com/mohammed-shakir/terradraw-core/internal/geocache"
	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/metrics"
	"github.com/mohammed-shakir/terradraw-core/internal/mode"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/spatialindex"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

// Coordinator registers modes against a single adapter/store pair and
// routes every host event to whichever mode is currently active, per
// spec.md §4.F and grounded on the teacher's scenarios.Registry
// (named, factory-registered, single-selection components) generalised
// from "one active scenario" to "one active mode".
type Coordinator struct {
	store   store.Store
	adapter adapter.Adapter
	log     zerolog.Logger

	modes      map[string]mode.Mode
	currentKey string

	// index narrows select mode's hit-testing to a small candidate set;
	// kept in sync with every store mutation via HandleChange rather
	// than written to directly by any mode.
	index *spatialindex.Index
	// cache memoizes per-feature centroid/bbox derivations; also kept
	// in sync (forgotten on delete) via HandleChange.
	cache *geocache.Cache
	// metrics is optional; nil unless SetMetrics is called.
	metrics *metrics.Provider

	onChange   func(ids []string, op string)
	onSelect   func(id string)
	onDeselect func(id string)
	onFinish   func(id string, meta mode.FinishMeta)
}

// New constructs a Coordinator wired to s and a, with a spatial index
// at the given H3 resolution (0 selects spatialindex.DefaultResolution)
// and a geometry derivation cache holding up to geoCacheSize entries
// (0 selects geocache.DefaultSize). Pass spatialIndexRes < 0 or
// geoCacheSize < 0 to run without that piece — select mode then falls
// back to a full linear scan, respectively a direct recompute, per
// spec.md §4.E.1.
func New(s store.Store, a adapter.Adapter, log zerolog.Logger, spatialIndexRes, geoCacheSize int) *Coordinator {
	c := &Coordinator{store: s, adapter: a, log: log, modes: map[string]mode.Mode{}}
	if spatialIndexRes >= 0 {
		c.index = spatialindex.New(spatialIndexRes)
	}
	if geoCacheSize >= 0 {
		cache, err := geocache.New(geoCacheSize)
		if err != nil {
			log.Warn().Err(err).Msg("geocache disabled: construction failed")
		} else {
			c.cache = cache
		}
	}
	return c
}

// SetMetrics installs a metrics.Provider; also wires it as the
// geocache's result observer so centroid/bbox hit/miss counters start
// reporting immediately. Safe to call once, before the first Register.
func (c *Coordinator) SetMetrics(p *metrics.Provider) {
	c.metrics = p
	if c.cache != nil && p != nil {
		c.cache.SetObserver(p.ObserveGeoCache)
	}
}

// OnChange/OnSelect/OnDeselect/OnFinish install coordinator-wide
// callbacks forwarded into every mode's Config at Register time —
// typically wired to the httpapi broadcaster and the eventlog
// producer.
func (c *Coordinator) OnChange(f func(ids []string, op string))      { c.onChange = f }
func (c *Coordinator) OnSelect(f func(id string))                    { c.onSelect = f }
func (c *Coordinator) OnDeselect(f func(id string))                  { c.onDeselect = f }
func (c *Coordinator) OnFinish(f func(id string, meta mode.FinishMeta)) { c.onFinish = f }

// Register adds m under its own Name(), building its Config from the
// coordinator's store/adapter/callbacks. A mode may be registered only
// once, matching spec.md §4.C's AlreadyRegistered invariant one level
// up.
func (c *Coordinator) Register(m mode.Mode, pointerDistancePx float64) error {
	if _, exists := c.modes[m.Name()]; exists {
		return model.NewError(model.KindAlreadyRegistered, "coordinator: mode %q already registered", m.Name())
	}
	cfg := mode.Config{
		Store:              c.store,
		Project:            c.adapter.Project,
		Unproject:          c.adapter.Unproject,
		SetCursor:          c.adapter.SetCursor,
		SetMapDraggability: c.adapter.SetMapDraggability,
		OnChange:           c.HandleChange,
		OnSelect:           c.onSelect,
		OnDeselect:         c.onDeselect,
		OnFinish:           c.onFinish,
		PointerDistancePx:  pointerDistancePx,
		Log:                c.log.With().Str("mode", m.Name()).Logger(),
		SpatialIndex:       c.index,
		GeoCache:           c.cache,
	}
	if err := m.Register(cfg); err != nil {
		return err
	}
	c.modes[m.Name()] = m
	return nil
}

// SetMode stops whatever mode is currently active (if any) and starts
// name, per spec.md §4.F "clean mode switches" — the coordinator never
// leaves two modes started at once.
func (c *Coordinator) SetMode(name string) error {
	m, ok := c.modes[name]
	if !ok {
		return fmt.Errorf("coordinator: unknown mode %q", name)
	}
	if c.currentKey == name {
		return nil
	}
	if c.currentKey != "" {
		if err := c.modes[c.currentKey].Stop(); err != nil {
			return err
		}
	}
	if err := m.Start(); err != nil {
		return err
	}
	c.currentKey = name
	c.log.Info().Str("mode", name).Msg("mode activated")
	if c.metrics != nil {
		c.metrics.ObserveModeSwitch(name)
	}
	return nil
}

// HandleChange is installed as every registered mode's Config.OnChange:
// it keeps the spatial index current with the store before forwarding
// the notification on to whatever external callback OnChange installed.
// Exported so other direct store mutators outside the mode system (the
// inspection HTTP API's import/delete handlers) can route through the
// same index/metrics sync path instead of bypassing it.
func (c *Coordinator) HandleChange(ids []string, op string) {
	if c.index != nil {
		switch op {
		case "create", "update":
			for _, id := range ids {
				g, ok := c.store.GetGeometryCopy(id)
				if !ok {
					c.index.Remove(id)
					continue
				}
				ring := indexRingFor(g)
				if ring == nil {
					c.index.Remove(id)
					continue
				}
				if err := c.index.Upsert(id, ring); err != nil {
					c.log.Warn().Err(err).Str("feature_id", id).Msg("spatial index upsert failed")
				}
			}
		case "delete":
			for _, id := range ids {
				c.index.Remove(id)
			}
		}
		if c.metrics != nil {
			c.metrics.SetSpatialIndexSize(c.index.Len())
		}
	}
	if c.cache != nil && op == "delete" {
		for _, id := range ids {
			c.cache.Forget(id)
		}
	}
	if c.metrics != nil {
		c.metrics.ObserveChange(c.currentKey, op, len(ids))
	}
	if c.onChange != nil {
		c.onChange(ids, op)
	}
}

// indexRingFor extracts the point set spatialindex.Index.Upsert should
// cover for g's bounding box: the geometry's own coordinates for
// Point/LineString, the outer ring for Polygon, and the concatenation
// of every polygon's outer ring for MultiPolygon.
func indexRingFor(g model.Geometry) []geometry.Point {
	switch g.Type {
	case model.GeometryPoint, model.GeometryLineString:
		return g.Coordinates
	case model.GeometryPolygon:
		return g.OuterRing()
	case model.GeometryMultiPolygon:
		var out []geometry.Point
		for _, poly := range g.Polys {
			if len(poly) > 0 {
				out = append(out, poly[0]...)
			}
		}
		return out
	default:
		return nil
	}
}

// Current returns the active mode's name, or "" if none is active.
func (c *Coordinator) Current() string { return c.currentKey }

func (c *Coordinator) active() (mode.Mode, bool) {
	if c.currentKey == "" {
		return nil, false
	}
	m, ok := c.modes[c.currentKey]
	return m, ok
}

// The Dispatch* methods are what an adapter's event loop calls; each is
// a no-op when no mode is active.

func (c *Coordinator) DispatchClick(e mode.PointerEvent) error {
	if m, ok := c.active(); ok {
		return m.OnClick(e)
	}
	return nil
}

func (c *Coordinator) DispatchMouseMove(e mode.PointerEvent) error {
	if m, ok := c.active(); ok {
		return m.OnMouseMove(e)
	}
	return nil
}

func (c *Coordinator) DispatchKeyDown(e mode.KeyEvent) error {
	if m, ok := c.active(); ok {
		return m.OnKeyDown(e)
	}
	return nil
}

func (c *Coordinator) DispatchKeyUp(e mode.KeyEvent) error {
	if m, ok := c.active(); ok {
		return m.OnKeyUp(e)
	}
	return nil
}

func (c *Coordinator) DispatchDragStart(e mode.PointerEvent) error {
	if m, ok := c.active(); ok {
		return m.OnDragStart(e)
	}
	return nil
}

func (c *Coordinator) DispatchDrag(e mode.PointerEvent) error {
	if m, ok := c.active(); ok {
		return m.OnDrag(e)
	}
	return nil
}

func (c *Coordinator) DispatchDragEnd(e mode.PointerEvent) error {
	if m, ok := c.active(); ok {
		return m.OnDragEnd(e)
	}
	return nil
}
