package draw

import (
	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/mode"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

const ModeNamePolygon = "polygon"

type polyState string

const (
	polyIdle    polyState = "idle"
	polyDrawing polyState = "drawing"
)

// PolygonMode implements spec.md §4.D's polygon state machine: Idle ->
// Drawing, with a draft ring carrying a trailing ghost vertex and a
// closing duplicate of the first vertex.
type PolygonMode struct {
	*mode.Base
	mode.NoopEvents

	state   polyState
	draftID string
	fixed   []geometry.Point // confirmed vertices, first is the closing anchor
}

func NewPolygonMode() *PolygonMode {
	return &PolygonMode{Base: mode.NewBase(ModeNamePolygon, "crosshair"), state: polyIdle}
}

// ring builds the draft ring: fixed vertices, then ghost, then the
// closing duplicate of fixed[0].
func (m *PolygonMode) ring(ghost geometry.Point) []geometry.Point {
	out := make([]geometry.Point, 0, len(m.fixed)+2)
	out = append(out, m.fixed...)
	out = append(out, ghost, m.fixed[0])
	return out
}

func (m *PolygonMode) OnClick(e mode.PointerEvent) error {
	if err := m.RequireStarted(); err != nil {
		return err
	}
	p := e.Point()
	scope := m.OpenScope()
	defer scope.Close()

	switch m.state {
	case polyIdle:
		m.fixed = []geometry.Point{p}
		// First click: the ring is a deliberate degenerate placeholder
		// of four copies of p0, per spec.md §4.D.
		ring := []geometry.Point{p, p, p, p}
		ids, err := scope.Create([]store.CreateEntry{{
			Geometry:   model.NewPolygon([][]geometry.Point{ring}),
			Properties: model.Properties{model.PropMode: ModeNamePolygon},
			Draft:      true,
		}})
		if err != nil {
			return err
		}
		m.draftID = ids[0]
		m.state = polyDrawing
		return nil

	case polyDrawing:
		cfg := m.Config()
		closeDist := cfg.PointerDistancePx
		if closeDist <= 0 {
			closeDist = 40
		}
		distPx := geometry.PointToLineDistancePx(p, m.fixed[0], m.fixed[0], cfg.Project)
		distinct := distinctCount(m.fixed)
		if distPx <= closeDist && distinct >= 3 {
			return m.finalize(scope)
		}

		m.fixed = append(m.fixed, p)
		candidate := m.ring(p)
		if hit, _ := geometry.SelfIntersects(candidate); hit {
			// suppressed: revert the speculative append, leave store untouched.
			m.fixed = m.fixed[:len(m.fixed)-1]
			return nil
		}
		return scope.UpdateGeometry([]store.GeometryUpdate{{
			ID: m.draftID, Geometry: model.NewPolygon([][]geometry.Point{candidate}), Draft: true,
		}})
	}
	return nil
}

func (m *PolygonMode) OnMouseMove(e mode.PointerEvent) error {
	if m.state != polyDrawing {
		return nil
	}
	candidate := m.ring(e.Point())
	if hit, _ := geometry.SelfIntersects(candidate); hit {
		return nil // suppressed per spec.md §4.D: no store mutation
	}
	scope := m.OpenScope()
	defer scope.Close()
	return scope.UpdateGeometry([]store.GeometryUpdate{{
		ID: m.draftID, Geometry: model.NewPolygon([][]geometry.Point{candidate}), Draft: true,
	}})
}

func (m *PolygonMode) OnKeyDown(e mode.KeyEvent) error {
	if m.state != polyDrawing {
		return nil
	}
	switch e.Key {
	case "Escape":
		return m.cleanUp()
	case "Enter":
		scope := m.OpenScope()
		defer scope.Close()
		return m.finalize(scope)
	}
	return nil
}

func (m *PolygonMode) finalize(scope *store.Scope) error {
	closed := append(append([]geometry.Point{}, m.fixed...), m.fixed[0])
	geomVal := model.NewPolygon([][]geometry.Point{closed})
	if err := geomVal.Validate(false); err != nil {
		return nil // not yet finalizable; stay Drawing
	}
	if err := scope.UpdateGeometry([]store.GeometryUpdate{{ID: m.draftID, Geometry: geomVal, Draft: false}}); err != nil {
		return err
	}
	cfg := m.Config()
	id := m.draftID
	m.reset()
	if cfg.OnFinish != nil {
		cfg.OnFinish(id, mode.FinishMeta{Action: "draw", Mode: ModeNamePolygon})
	}
	return nil
}

func (m *PolygonMode) cleanUp() error {
	if m.draftID == "" {
		m.reset()
		return nil
	}
	scope := m.OpenScope()
	defer scope.Close()
	id := m.draftID
	m.reset()
	return scope.Delete([]string{id})
}

func (m *PolygonMode) reset() {
	m.state = polyIdle
	m.draftID = ""
	m.fixed = nil
}

func (m *PolygonMode) Stop() error {
	_ = m.cleanUp()
	return m.Base.Stop()
}

func distinctCount(pts []geometry.Point) int {
	seen := map[geometry.Point]struct{}{}
	for _, p := range pts {
		seen[p] = struct{}{}
	}
	return len(seen)
}
