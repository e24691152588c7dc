package draw

import (
	"math"

	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/mode"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

const ModeNameFreehand = "freehand"

// FreehandMode samples pointer-move points while the pointer is down
// (modelled as a drag gesture) and simplifies the sampled line on
// release, per spec.md §4.D's "Analogous designs" note and
// SPEC_FULL.md §4.
type FreehandMode struct {
	*mode.Base
	mode.NoopEvents

	draftID string
	samples []geometry.Point

	// MinSampleSpacing drops samples closer than this (degrees,
	// approximate) to the last accepted one, bounding draft size.
	MinSampleSpacing float64
	// SimplifyEpsilon is the Douglas-Peucker tolerance (degrees)
	// applied on release.
	SimplifyEpsilon float64
}

func NewFreehandMode() *FreehandMode {
	return &FreehandMode{
		Base:             mode.NewBase(ModeNameFreehand, "crosshair"),
		MinSampleSpacing: 1e-5,
		SimplifyEpsilon:  1e-5,
	}
}

func (m *FreehandMode) OnDragStart(e mode.PointerEvent) error {
	if err := m.RequireStarted(); err != nil {
		return err
	}
	p := e.Point()
	m.samples = []geometry.Point{p}
	cfg := m.Config()
	if cfg.SetMapDraggability != nil {
		cfg.SetMapDraggability(false)
	}
	scope := m.OpenScope()
	defer scope.Close()
	ids, err := scope.Create([]store.CreateEntry{{
		Geometry:   model.NewLineString([]geometry.Point{p, p}),
		Properties: model.Properties{model.PropMode: ModeNameFreehand},
		Draft:      true,
	}})
	if err != nil {
		return err
	}
	m.draftID = ids[0]
	return nil
}

func (m *FreehandMode) OnDrag(e mode.PointerEvent) error {
	if m.draftID == "" {
		return nil
	}
	p := e.Point()
	last := m.samples[len(m.samples)-1]
	if math.Hypot(p.Lng-last.Lng, p.Lat-last.Lat) < m.MinSampleSpacing {
		return nil
	}
	m.samples = append(m.samples, p)
	scope := m.OpenScope()
	defer scope.Close()
	return scope.UpdateGeometry([]store.GeometryUpdate{{
		ID: m.draftID, Geometry: model.NewLineString(m.samples), Draft: true,
	}})
}

func (m *FreehandMode) OnDragEnd(e mode.PointerEvent) error {
	if m.draftID == "" {
		return nil
	}
	cfg := m.Config()
	if cfg.SetMapDraggability != nil {
		cfg.SetMapDraggability(true)
	}
	simplified := douglasPeucker(m.samples, m.SimplifyEpsilon)
	geomVal := model.NewLineString(simplified)
	id := m.draftID
	scope := m.OpenScope()
	defer scope.Close()
	if err := geomVal.Validate(false); err != nil {
		_ = scope.Delete([]string{id})
		m.reset()
		return nil
	}
	if err := scope.UpdateGeometry([]store.GeometryUpdate{{ID: id, Geometry: geomVal, Draft: false}}); err != nil {
		return err
	}
	m.reset()
	if cfg.OnFinish != nil {
		cfg.OnFinish(id, mode.FinishMeta{Action: "draw", Mode: ModeNameFreehand})
	}
	return nil
}

func (m *FreehandMode) reset() {
	m.draftID = ""
	m.samples = nil
}

func (m *FreehandMode) Stop() error {
	if m.draftID != "" {
		scope := m.OpenScope()
		id := m.draftID
		m.reset()
		_ = scope.Delete([]string{id})
		scope.Close()
	}
	return m.Base.Stop()
}

// douglasPeucker thins pts to within epsilon (degrees, Euclidean
// approximation), always keeping the first and last points.
func douglasPeucker(pts []geometry.Point, epsilon float64) []geometry.Point {
	if len(pts) < 3 {
		return pts
	}
	first, last := pts[0], pts[len(pts)-1]
	maxDist := -1.0
	idx := 0
	for i := 1; i < len(pts)-1; i++ {
		d := perpDistance(pts[i], first, last)
		if d > maxDist {
			maxDist = d
			idx = i
		}
	}
	if maxDist <= epsilon {
		return []geometry.Point{first, last}
	}
	left := douglasPeucker(pts[:idx+1], epsilon)
	right := douglasPeucker(pts[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}

func perpDistance(p, a, b geometry.Point) float64 {
	dx, dy := b.Lng-a.Lng, b.Lat-a.Lat
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.Lng-a.Lng, p.Lat-a.Lat)
	}
	t := ((p.Lng-a.Lng)*dx + (p.Lat-a.Lat)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	projLng, projLat := a.Lng+t*dx, a.Lat+t*dy
	return math.Hypot(p.Lng-projLng, p.Lat-projLat)
}
