package draw

import (
	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/mode"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

const ModeNameRectangle = "rectangle"

type rectState string

const (
	rectIdle  rectState = "idle"
	rectSized rectState = "sized"
)

// RectangleMode: two clicks, axis-aligned in lng/lat, per spec.md §4.D's
// "Analogous designs" note and SPEC_FULL.md §4.
type RectangleMode struct {
	*mode.Base
	mode.NoopEvents

	state   rectState
	draftID string
	anchor  geometry.Point
}

func NewRectangleMode() *RectangleMode {
	return &RectangleMode{Base: mode.NewBase(ModeNameRectangle, "crosshair"), state: rectIdle}
}

func axisAlignedRing(a, b geometry.Point) []geometry.Point {
	minLng, maxLng := a.Lng, b.Lng
	if minLng > maxLng {
		minLng, maxLng = maxLng, minLng
	}
	minLat, maxLat := a.Lat, b.Lat
	if minLat > maxLat {
		minLat, maxLat = maxLat, minLat
	}
	return []geometry.Point{
		{Lng: minLng, Lat: minLat},
		{Lng: minLng, Lat: maxLat},
		{Lng: maxLng, Lat: maxLat},
		{Lng: maxLng, Lat: minLat},
		{Lng: minLng, Lat: minLat},
	}
}

func (m *RectangleMode) OnClick(e mode.PointerEvent) error {
	if err := m.RequireStarted(); err != nil {
		return err
	}
	p := e.Point()
	scope := m.OpenScope()
	defer scope.Close()

	switch m.state {
	case rectIdle:
		m.anchor = p
		ring := axisAlignedRing(p, geometry.Point{Lng: p.Lng + 1e-9, Lat: p.Lat + 1e-9})
		ids, err := scope.Create([]store.CreateEntry{{
			Geometry:   model.NewPolygon([][]geometry.Point{ring}),
			Properties: model.Properties{model.PropMode: ModeNameRectangle},
			Draft:      true,
		}})
		if err != nil {
			return err
		}
		m.draftID = ids[0]
		m.state = rectSized
		return nil

	case rectSized:
		ring := axisAlignedRing(m.anchor, p)
		geomVal := model.NewPolygon([][]geometry.Point{ring})
		if err := geomVal.Validate(false); err != nil {
			return nil // degenerate (zero area); stay Sized
		}
		if err := scope.UpdateGeometry([]store.GeometryUpdate{{ID: m.draftID, Geometry: geomVal, Draft: false}}); err != nil {
			return err
		}
		cfg := m.Config()
		id := m.draftID
		m.reset()
		if cfg.OnFinish != nil {
			cfg.OnFinish(id, mode.FinishMeta{Action: "draw", Mode: ModeNameRectangle})
		}
		return nil
	}
	return nil
}

func (m *RectangleMode) OnMouseMove(e mode.PointerEvent) error {
	if m.state != rectSized {
		return nil
	}
	ring := axisAlignedRing(m.anchor, e.Point())
	scope := m.OpenScope()
	defer scope.Close()
	return scope.UpdateGeometry([]store.GeometryUpdate{{
		ID: m.draftID, Geometry: model.NewPolygon([][]geometry.Point{ring}), Draft: true,
	}})
}

func (m *RectangleMode) OnKeyDown(e mode.KeyEvent) error {
	if e.Key != "Escape" || m.state != rectSized {
		return nil
	}
	scope := m.OpenScope()
	defer scope.Close()
	id := m.draftID
	m.reset()
	return scope.Delete([]string{id})
}

func (m *RectangleMode) reset() {
	m.state = rectIdle
	m.draftID = ""
}

func (m *RectangleMode) Stop() error {
	if m.draftID != "" {
		scope := m.OpenScope()
		id := m.draftID
		m.reset()
		_ = scope.Delete([]string{id})
		scope.Close()
	}
	return m.Base.Stop()
}
