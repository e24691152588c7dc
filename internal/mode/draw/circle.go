package draw

import (
	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/mode"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

const ModeNameCircle = "circle"

type circleState string

const (
	circleIdle  circleState = "idle"
	circleSized circleState = "sized"
)

// CircleMode implements spec.md §4.D's Idle -> Sized state machine.
type CircleMode struct {
	*mode.Base
	mode.NoopEvents

	state   circleState
	draftID string
	center  geometry.Point

	// Steps controls the circle-polygon approximation resolution
	// (default 64 per spec.md §4.A).
	Steps int
}

func NewCircleMode() *CircleMode {
	return &CircleMode{Base: mode.NewBase(ModeNameCircle, "crosshair"), state: circleIdle, Steps: 64}
}

func (m *CircleMode) OnClick(e mode.PointerEvent) error {
	if err := m.RequireStarted(); err != nil {
		return err
	}
	p := e.Point()
	scope := m.OpenScope()
	defer scope.Close()

	switch m.state {
	case circleIdle:
		m.center = p
		ring, err := geometry.CirclePolygon(p, 0.00001, m.Steps)
		if err != nil {
			return err
		}
		ids, err := scope.Create([]store.CreateEntry{{
			Geometry:   model.NewPolygon([][]geometry.Point{ring}),
			Properties: model.Properties{model.PropMode: ModeNameCircle},
			Draft:      true,
		}})
		if err != nil {
			return err
		}
		m.draftID = ids[0]
		m.state = circleSized
		return nil

	case circleSized:
		radiusKm, err := geometry.HaversineDistanceKm(m.center, p)
		if err != nil {
			return nil
		}
		ring, err := geometry.CirclePolygon(m.center, radiusKm, m.Steps)
		if err != nil {
			return nil
		}
		geomVal := model.NewPolygon([][]geometry.Point{ring})
		if err := geomVal.Validate(false); err != nil {
			return nil // degenerate (zero radius); stay Sized
		}
		if err := scope.UpdateGeometry([]store.GeometryUpdate{{ID: m.draftID, Geometry: geomVal, Draft: false}}); err != nil {
			return err
		}
		cfg := m.Config()
		id := m.draftID
		m.reset()
		if cfg.OnFinish != nil {
			cfg.OnFinish(id, mode.FinishMeta{Action: "draw", Mode: ModeNameCircle})
		}
		return nil
	}
	return nil
}

func (m *CircleMode) OnMouseMove(e mode.PointerEvent) error {
	if m.state != circleSized {
		return nil
	}
	radiusKm, err := geometry.HaversineDistanceKm(m.center, e.Point())
	if err != nil {
		return nil
	}
	ring, err := geometry.CirclePolygon(m.center, radiusKm, m.Steps)
	if err != nil {
		return nil
	}
	scope := m.OpenScope()
	defer scope.Close()
	return scope.UpdateGeometry([]store.GeometryUpdate{{
		ID: m.draftID, Geometry: model.NewPolygon([][]geometry.Point{ring}), Draft: true,
	}})
}

func (m *CircleMode) OnKeyDown(e mode.KeyEvent) error {
	if e.Key != "Escape" || m.state != circleSized {
		return nil
	}
	scope := m.OpenScope()
	defer scope.Close()
	id := m.draftID
	m.reset()
	return scope.Delete([]string{id})
}

func (m *CircleMode) reset() {
	m.state = circleIdle
	m.draftID = ""
}

func (m *CircleMode) Stop() error {
	if m.draftID != "" {
		scope := m.OpenScope()
		id := m.draftID
		m.reset()
		_ = scope.Delete([]string{id})
		scope.Close()
	}
	return m.Base.Stop()
}
