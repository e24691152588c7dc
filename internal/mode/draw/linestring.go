package draw

import (
	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/mode"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

const ModeNameLineString = "linestring"

type lineState string

const (
	lineIdle    lineState = "idle"
	lineDrawing lineState = "drawing"
)

// LineStringMode: Idle -> Drawing, with a trailing "ghost" vertex that
// tracks the cursor, per spec.md §4.D. Finalize is triggered by the
// "finish" key (Enter) rather than a double-click, since the
// PointerEvent shape spec.md §6 defines carries no click-count.
type LineStringMode struct {
	*mode.Base
	mode.NoopEvents

	state   lineState
	draftID string
	fixed   []geometry.Point // confirmed vertices, excludes the ghost
}

func NewLineStringMode() *LineStringMode {
	return &LineStringMode{Base: mode.NewBase(ModeNameLineString, "crosshair"), state: lineIdle}
}

func (m *LineStringMode) OnClick(e mode.PointerEvent) error {
	if err := m.RequireStarted(); err != nil {
		return err
	}
	p := e.Point()
	scope := m.OpenScope()
	defer scope.Close()

	switch m.state {
	case lineIdle:
		m.fixed = []geometry.Point{p}
		geom := model.NewLineString([]geometry.Point{p, p})
		ids, err := scope.Create([]store.CreateEntry{{
			Geometry:   geom,
			Properties: model.Properties{model.PropMode: ModeNameLineString},
			Draft:      true,
		}})
		if err != nil {
			return err
		}
		m.draftID = ids[0]
		m.state = lineDrawing
	case lineDrawing:
		m.fixed = append(m.fixed, p)
		coords := append(append([]geometry.Point{}, m.fixed...), p)
		return scope.UpdateGeometry([]store.GeometryUpdate{{
			ID: m.draftID, Geometry: model.NewLineString(coords), Draft: true,
		}})
	}
	return nil
}

func (m *LineStringMode) OnMouseMove(e mode.PointerEvent) error {
	if m.state != lineDrawing {
		return nil
	}
	coords := append(append([]geometry.Point{}, m.fixed...), e.Point())
	scope := m.OpenScope()
	defer scope.Close()
	return scope.UpdateGeometry([]store.GeometryUpdate{{
		ID: m.draftID, Geometry: model.NewLineString(coords), Draft: true,
	}})
}

func (m *LineStringMode) OnKeyDown(e mode.KeyEvent) error {
	if m.state != lineDrawing {
		return nil
	}
	switch e.Key {
	case "Escape":
		return m.cleanUp()
	case "Enter":
		return m.finalize()
	}
	return nil
}

func (m *LineStringMode) finalize() error {
	scope := m.OpenScope()
	defer scope.Close()

	geom := model.NewLineString(m.fixed)
	if err := geom.Validate(false); err != nil {
		// too few distinct vertices yet: stay Drawing, per spec.md §7's
		// "silently suppress" policy for user-driven geometry failures.
		return nil
	}
	if err := scope.UpdateGeometry([]store.GeometryUpdate{{ID: m.draftID, Geometry: geom, Draft: false}}); err != nil {
		return err
	}
	cfg := m.Config()
	id := m.draftID
	m.reset()
	if cfg.OnFinish != nil {
		cfg.OnFinish(id, mode.FinishMeta{Action: "draw", Mode: ModeNameLineString})
	}
	return nil
}

func (m *LineStringMode) cleanUp() error {
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

func (m *LineStringMode) reset() {
	m.state = lineIdle
	m.draftID = ""
	m.fixed = nil
}

func (m *LineStringMode) Stop() error {
	_ = m.cleanUp()
	return m.Base.Stop()
}
