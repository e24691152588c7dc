package selectmode

import (
	"testing"

	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/mode"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

func scaledProjector(p geometry.Point) geometry.Pixel {
	return geometry.Pixel{X: p.Lng * 100, Y: p.Lat * 100}
}

func boolPtr(b bool) *bool { return &b }

func squareRing() []geometry.Point {
	return []geometry.Point{
		{Lng: 0, Lat: 0}, {Lng: 0, Lat: 1}, {Lng: 1, Lat: 1}, {Lng: 1, Lat: 0}, {Lng: 0, Lat: 0},
	}
}

func newTestMode(t *testing.T, s store.Store, opts Options) (*SelectMode, *[]string, *[]string) {
	t.Helper()
	m := NewSelectMode(opts)
	var selected, deselected []string
	cfg := mode.Config{
		Store:             s,
		Project:           scaledProjector,
		PointerDistancePx: 5,
		OnSelect:          func(id string) { selected = append(selected, id) },
		OnDeselect:        func(id string) { deselected = append(deselected, id) },
	}
	if err := m.Register(cfg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return m, &selected, &deselected
}

func TestSelectMode_ClickSelectsAndManualDeselect(t *testing.T) {
	s := store.New()
	ids, err := s.Create([]store.CreateEntry{{
		Geometry:   model.NewPoint(geometry.Point{Lng: 10, Lat: 10}),
		Properties: model.Properties{model.PropMode: "point"},
	}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	flags := Flags{"point": {FeatureDraggable: true}}
	m, selected, deselected := newTestMode(t, s, Options{Flags: flags})

	if err := m.OnClick(mode.PointerEvent{Lng: 10, Lat: 10}); err != nil {
		t.Fatalf("click: %v", err)
	}
	if len(*selected) != 1 || (*selected)[0] != ids[0] {
		t.Fatalf("expected onSelect(%s), got %v", ids[0], *selected)
	}

	if err := m.OnClick(mode.PointerEvent{Lng: 90, Lat: 90}); err != nil {
		t.Fatalf("click empty: %v", err)
	}
	if len(*deselected) != 1 || (*deselected)[0] != ids[0] {
		t.Fatalf("expected onDeselect(%s), got %v", ids[0], *deselected)
	}
}

func TestSelectMode_ManualDeselectionDisabled(t *testing.T) {
	s := store.New()
	if _, err := s.Create([]store.CreateEntry{{
		Geometry:   model.NewPoint(geometry.Point{Lng: 10, Lat: 10}),
		Properties: model.Properties{model.PropMode: "point"},
	}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	flags := Flags{"point": {}}
	m, _, deselected := newTestMode(t, s, Options{Flags: flags, AllowManualDeselection: boolPtr(false)})

	_ = m.OnClick(mode.PointerEvent{Lng: 10, Lat: 10})
	_ = m.OnClick(mode.PointerEvent{Lng: 90, Lat: 90})
	if len(*deselected) != 0 {
		t.Fatalf("manual deselection disabled: expected no deselect, got %v", *deselected)
	}
	if !s.CopyAll()[0].Properties.Bool(model.PropSelected) {
		t.Fatalf("expected feature to remain selected")
	}
}

func TestSelectMode_SwitchSelectionEmitsDeselectThenSelect(t *testing.T) {
	s := store.New()
	ids, _ := s.Create([]store.CreateEntry{
		{Geometry: model.NewPolygon([][]geometry.Point{squareRing()}), Properties: model.Properties{model.PropMode: "polygon"}},
		{Geometry: model.NewPolygon([][]geometry.Point{{
			{Lng: 5, Lat: 5}, {Lng: 5, Lat: 6}, {Lng: 6, Lat: 6}, {Lng: 6, Lat: 5}, {Lng: 5, Lat: 5},
		}}), Properties: model.Properties{model.PropMode: "polygon"}},
	})
	flags := Flags{"polygon": {Coordinates: &CoordinateFlags{Draggable: true, Deletable: true, Midpoints: true}}}
	m, selected, deselected := newTestMode(t, s, Options{Flags: flags})

	_ = m.OnClick(mode.PointerEvent{Lng: 0.5, Lat: 0.5})
	_ = m.OnClick(mode.PointerEvent{Lng: 5.5, Lat: 5.5})

	if len(*selected) != 2 || (*selected)[0] != ids[0] || (*selected)[1] != ids[1] {
		t.Fatalf("expected select order [%s %s], got %v", ids[0], ids[1], *selected)
	}
	if len(*deselected) != 1 || (*deselected)[0] != ids[0] {
		t.Fatalf("expected deselect(%s) before second select, got %v", ids[0], *deselected)
	}
}

func TestSelectMode_DeleteKeyRemovesFeatureAndOverlays(t *testing.T) {
	s := store.New()
	ids, _ := s.Create([]store.CreateEntry{{
		Geometry:   model.NewPolygon([][]geometry.Point{squareRing()}),
		Properties: model.Properties{model.PropMode: "polygon"},
	}})
	flags := Flags{"polygon": {Coordinates: &CoordinateFlags{Draggable: true, Midpoints: true}}}
	m, _, _ := newTestMode(t, s, Options{Flags: flags, Keys: KeyConfig{Delete: "Delete"}})

	_ = m.OnClick(mode.PointerEvent{Lng: 0.5, Lat: 0.5})
	before := len(s.CopyAll())
	if before < 2 {
		t.Fatalf("expected overlay features created, total=%d", before)
	}

	if err := m.OnKeyDown(mode.KeyEvent{Key: "Delete"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Has(ids[0]) {
		t.Fatalf("expected parent feature deleted")
	}
	if len(s.CopyAll()) != 0 {
		t.Fatalf("expected overlays deleted alongside parent, remaining=%d", len(s.CopyAll()))
	}
}

func TestSelectMode_RightClickDeletesVertexWhenValid(t *testing.T) {
	s := store.New()
	pentagon := []geometry.Point{
		{Lng: 0, Lat: 0}, {Lng: 0, Lat: 2}, {Lng: 1, Lat: 3}, {Lng: 2, Lat: 2}, {Lng: 2, Lat: 0}, {Lng: 0, Lat: 0},
	}
	ids, _ := s.Create([]store.CreateEntry{{
		Geometry:   model.NewPolygon([][]geometry.Point{pentagon}),
		Properties: model.Properties{model.PropMode: "polygon"},
	}})
	flags := Flags{"polygon": {Coordinates: &CoordinateFlags{Deletable: true}}}
	m, _, _ := newTestMode(t, s, Options{Flags: flags})

	_ = m.OnClick(mode.PointerEvent{Lng: 1, Lat: 1.2})

	if err := m.OnClick(mode.PointerEvent{Lng: 1, Lat: 3, Button: "right"}); err != nil {
		t.Fatalf("right click: %v", err)
	}

	g, ok := s.GetGeometryCopy(ids[0])
	if !ok {
		t.Fatalf("feature disappeared")
	}
	if len(g.OuterRing()) != len(pentagon)-1 {
		t.Fatalf("expected ring to shrink by one vertex, got %d points", len(g.OuterRing()))
	}
}

func TestSelectMode_RightClickVertexDeleteRejectedBelowTriangle(t *testing.T) {
	s := store.New()
	triangle := []geometry.Point{{Lng: 0, Lat: 0}, {Lng: 0, Lat: 2}, {Lng: 2, Lat: 0}, {Lng: 0, Lat: 0}}
	ids, _ := s.Create([]store.CreateEntry{{
		Geometry:   model.NewPolygon([][]geometry.Point{triangle}),
		Properties: model.Properties{model.PropMode: "polygon"},
	}})
	flags := Flags{"polygon": {Coordinates: &CoordinateFlags{Deletable: true}}}
	m, _, _ := newTestMode(t, s, Options{Flags: flags})

	_ = m.OnClick(mode.PointerEvent{Lng: 0.6, Lat: 0.6})
	if err := m.OnClick(mode.PointerEvent{Lng: 0, Lat: 2, Button: "right"}); err != nil {
		t.Fatalf("right click: %v", err)
	}

	g, _ := s.GetGeometryCopy(ids[0])
	if len(g.OuterRing()) != len(triangle) {
		t.Fatalf("expected deletion to be suppressed, ring len=%d", len(g.OuterRing()))
	}
}

func TestSelectMode_ClickMidpointInsertsVertexWithoutDrag(t *testing.T) {
	s := store.New()
	ids, _ := s.Create([]store.CreateEntry{{
		Geometry:   model.NewPolygon([][]geometry.Point{squareRing()}),
		Properties: model.Properties{model.PropMode: "polygon"},
	}})
	flags := Flags{"polygon": {Coordinates: &CoordinateFlags{Draggable: true, Midpoints: true}}}
	m, _, deselected := newTestMode(t, s, Options{Flags: flags})

	_ = m.OnClick(mode.PointerEvent{Lng: 0.5, Lat: 0.5})

	mid, err := geometry.MidpointGreatCircle(geometry.Point{Lng: 0, Lat: 0}, geometry.Point{Lng: 0, Lat: 1})
	if err != nil {
		t.Fatalf("midpoint: %v", err)
	}
	if err := m.OnClick(mode.PointerEvent{Lng: mid.Lng, Lat: mid.Lat}); err != nil {
		t.Fatalf("click midpoint: %v", err)
	}

	g, ok := s.GetGeometryCopy(ids[0])
	if !ok {
		t.Fatalf("feature disappeared")
	}
	ring := g.OuterRing()
	if len(ring) != len(squareRing())+1 {
		t.Fatalf("expected ring to grow by one vertex, got %d points", len(ring))
	}
	if ring[1].Lng != mid.Lng || ring[1].Lat != mid.Lat {
		t.Fatalf("expected new vertex at %+v, got %+v", mid, ring[1])
	}
	if m.phase != phaseSelected {
		t.Fatalf("expected to remain Selected after a click-only insert, phase=%v", m.phase)
	}
	if len(*deselected) != 0 {
		t.Fatalf("expected feature to remain selected, got deselect %v", *deselected)
	}

	// spec.md's scenario names a 5-selection-point / 5-midpoint overlay
	// set after the square grows to a 6-vertex ring (5 non-closing
	// vertices, 5 edges).
	if len(m.overlay.pointIDs) != 5 {
		t.Fatalf("expected 5 selection points, got %d", len(m.overlay.pointIDs))
	}
	if len(m.overlay.midpointIDs) != 5 {
		t.Fatalf("expected 5 midpoints, got %d", len(m.overlay.midpointIDs))
	}
}

func TestSelectMode_DragCoordinateUpdatesVertex(t *testing.T) {
	s := store.New()
	ids, _ := s.Create([]store.CreateEntry{{
		Geometry:   model.NewPolygon([][]geometry.Point{squareRing()}),
		Properties: model.Properties{model.PropMode: "polygon"},
	}})
	flags := Flags{"polygon": {Coordinates: &CoordinateFlags{Draggable: true}}}
	m, _, _ := newTestMode(t, s, Options{Flags: flags, MinPixelDragDistance: 1})

	_ = m.OnClick(mode.PointerEvent{Lng: 0.5, Lat: 0.5})
	if err := m.OnDragStart(mode.PointerEvent{Lng: 0, Lat: 0}); err != nil {
		t.Fatalf("dragstart: %v", err)
	}
	if err := m.OnDrag(mode.PointerEvent{Lng: -1, Lat: -1}); err != nil {
		t.Fatalf("drag: %v", err)
	}
	if err := m.OnDragEnd(mode.PointerEvent{Lng: -1, Lat: -1}); err != nil {
		t.Fatalf("dragend: %v", err)
	}

	g, _ := s.GetGeometryCopy(ids[0])
	ring := g.OuterRing()
	if ring[0].Lng != -1 || ring[0].Lat != -1 {
		t.Fatalf("expected dragged vertex at (-1,-1), got %+v", ring[0])
	}
}
