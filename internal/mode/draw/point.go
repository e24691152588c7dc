// Package draw implements the per-geometry-kind draw mode state
// machines spec.md §4.D names: one mode per shape, each consuming
// pointer/keyboard events and mutating the feature store through its
// embedded mode.Base.
package draw

import (
	"github.com/mohammed-shakir/terradraw-core/internal/mode"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

const ModeNamePoint = "point"

// PointMode has no draft state: every click immediately creates a
// finished point feature and fires onFinish.
type PointMode struct {
	*mode.Base
	mode.NoopEvents
}

func NewPointMode() *PointMode {
	return &PointMode{Base: mode.NewBase(ModeNamePoint, "crosshair")}
}

func (m *PointMode) OnClick(e mode.PointerEvent) error {
	if err := m.RequireStarted(); err != nil {
		return err
	}
	scope := m.OpenScope()
	defer scope.Close()

	ids, err := scope.Create([]store.CreateEntry{{
		Geometry:   model.NewPoint(e.Point()),
		Properties: model.Properties{model.PropMode: ModeNamePoint},
	}})
	if err != nil {
		return err
	}
	cfg := m.Config()
	if cfg.OnFinish != nil {
		cfg.OnFinish(ids[0], mode.FinishMeta{Action: "draw", Mode: ModeNamePoint})
	}
	return nil
}
