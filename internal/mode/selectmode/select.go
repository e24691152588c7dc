package selectmode

import (
	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/mode"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

const ModeNameSelect = "select"

// phase is select mode's composite state, per spec.md §4.E.
type phase string

const (
	phaseIdle               phase = "idle"
	phaseSelected           phase = "selected"
	phaseDraggingFeature    phase = "draggingFeature"
	phaseDraggingCoordinate phase = "draggingCoordinate"
	phaseResizing           phase = "resizing"
	phaseRotating           phase = "rotating"
)

// SelectMode implements spec.md §4.E: hit testing, selection switching,
// overlay management, and feature/coordinate drag-resize-rotate.
type SelectMode struct {
	*mode.Base
	mode.NoopEvents

	opts Options

	phase      phase
	selectedID string
	overlay    overlaySet

	// drag-in-progress state, valid only while phase is one of the
	// dragging variants.
	dragOrigin       geometry.Point
	originalRing     []geometry.Point
	activeVertexIdx  int
	resizeAnchor     geometry.Point
	rotateAnchor     geometry.Point
	rotateStartAngle float64
	armed            bool
}

// NewSelectMode constructs an unregistered select mode with opts.
func NewSelectMode(opts Options) *SelectMode {
	return &SelectMode{Base: mode.NewBase(ModeNameSelect, "move"), opts: opts, phase: phaseIdle}
}

func (m *SelectMode) featureFlags(modeName string) (FeatureFlags, bool) {
	ff, ok := m.opts.Flags[modeName]
	return ff, ok
}

func (m *SelectMode) selectedFlags(scope *store.Scope) (FeatureFlags, bool) {
	props, ok := scope.GetPropertiesCopy(m.selectedID)
	if !ok {
		return FeatureFlags{}, false
	}
	return m.featureFlags(props.String(model.PropMode))
}

func (m *SelectMode) OnClick(e mode.PointerEvent) error {
	if err := m.RequireStarted(); err != nil {
		return err
	}
	if e.Button == "right" {
		return m.onRightClick(e)
	}

	p := e.Point()
	cfg := m.Config()
	scope := m.OpenScope()
	defer scope.Close()

	threshold := pointerThreshold(cfg)

	// spec.md §4.E.1 steps 1-2: while Selected, overlay hit tests run
	// before any feature hit test. A selection-point hit is a no-op
	// (already being exactly where it is). A midpoint hit inserts a
	// vertex there and rebuilds overlays, without leaving Selected.
	if m.selectedID != "" {
		if idx := nearestOverlay(scope, m.overlay.pointIDs, p, cfg.Project, threshold); idx >= 0 {
			return nil
		}
		if coord, ok := m.selectedFlags(scope); ok && coord.Coordinates != nil && coord.Coordinates.Midpoints {
			if idx := nearestOverlay(scope, m.overlay.midpointIDs, p, cfg.Project, threshold); idx >= 0 {
				_, _, _, err := m.insertVertexAtMidpoint(scope, *coord.Coordinates, idx, p)
				return err
			}
		}
	}

	hitID, found := hitTestFeatures(scope, m.opts.Flags, p, cfg.Project, threshold, cfg.SpatialIndex)

	if found {
		if hitID == m.selectedID {
			return nil
		}
		if m.selectedID != "" {
			m.deselect(scope)
		}
		return m.selectFeature(scope, hitID)
	}

	// No feature under the pointer: spec.md §4.E.1's manual-deselection
	// toggle only governs this case — switching between two features
	// above always deselects the old one regardless of the toggle.
	if m.selectedID != "" && m.opts.allowManualDeselection() {
		m.deselect(scope)
	}
	return nil
}

func (m *SelectMode) selectFeature(scope *store.Scope, id string) error {
	geom, ok := scope.GetGeometryCopy(id)
	if !ok {
		return nil
	}
	props, _ := scope.GetPropertiesCopy(id)
	feat := model.Feature{ID: id, Geometry: geom, Properties: props}

	flags, _ := m.featureFlags(props.String(model.PropMode))
	if flags.Coordinates != nil {
		set, err := buildOverlays(scope, feat, *flags.Coordinates)
		if err != nil {
			return err
		}
		m.overlay = set
	} else {
		m.overlay = overlaySet{}
	}

	if err := scope.UpdateProperty([]store.PropertyUpdate{{ID: id, Properties: model.Properties{model.PropSelected: true}}}); err != nil {
		return err
	}

	m.selectedID = id
	m.phase = phaseSelected

	cfg := m.Config()
	if cfg.OnSelect != nil {
		cfg.OnSelect(id)
	}
	return nil
}

func (m *SelectMode) deselect(scope *store.Scope) {
	if m.selectedID == "" {
		return
	}
	id := m.selectedID
	_ = destroyOverlays(scope, m.overlay)
	if scope.Has(id) {
		_ = scope.UpdateProperty([]store.PropertyUpdate{{ID: id, Properties: model.Properties{model.PropSelected: false}}})
	}
	m.selectedID = ""
	m.overlay = overlaySet{}
	m.phase = phaseIdle

	cfg := m.Config()
	if cfg.OnDeselect != nil {
		cfg.OnDeselect(id)
	}
}

// onRightClick implements spec.md §4.E.2: a right click on a selected
// feature's vertex deletes it, re-validating the ring; an invalid
// result (too few remaining vertices, or a newly self-intersecting
// ring) silently aborts the deletion.
func (m *SelectMode) onRightClick(e mode.PointerEvent) error {
	if m.selectedID == "" || len(m.overlay.pointIDs) == 0 {
		return nil
	}

	cfg := m.Config()
	scope := m.OpenScope()
	defer scope.Close()

	coordFlags, ok := m.selectedFlags(scope)
	if !ok || coordFlags.Coordinates == nil || !coordFlags.Coordinates.Deletable {
		return nil
	}

	p := e.Point()
	threshold := pointerThreshold(cfg)
	idx := nearestOverlay(scope, m.overlay.pointIDs, p, cfg.Project, threshold)
	if idx < 0 {
		return nil
	}

	geom, ok := scope.GetGeometryCopy(m.selectedID)
	if !ok {
		return nil
	}
	ring := geom.OuterRing()
	closed := geom.Type == model.GeometryPolygon
	vertices := ring
	if closed && len(vertices) > 1 {
		vertices = vertices[:len(vertices)-1]
	}
	if idx >= len(vertices) {
		return nil
	}

	candidate := append(append([]geometry.Point{}, vertices[:idx]...), vertices[idx+1:]...)
	if closed && len(candidate) > 0 {
		candidate = append(candidate, candidate[0])
	}

	newGeom := geom.WithOuterRing(candidate)
	if err := newGeom.Validate(false); err != nil {
		return nil // invalid deletion: silently suppressed, per spec.md §4.E.2
	}
	if closed {
		if ok, _ := geometry.SelfIntersects(candidate); ok {
			return nil
		}
	}

	if err := scope.UpdateGeometry([]store.GeometryUpdate{{ID: m.selectedID, Geometry: newGeom}}); err != nil {
		return err
	}
	feat := model.Feature{ID: m.selectedID, Geometry: newGeom, Properties: mustProps(scope, m.selectedID)}
	set, err := rebuildOverlays(scope, feat, m.overlay, *coordFlags.Coordinates)
	if err != nil {
		return err
	}
	m.overlay = set
	return nil
}

func mustProps(scope *store.Scope, id string) model.Properties {
	p, _ := scope.GetPropertiesCopy(id)
	return p
}

func (m *SelectMode) OnKeyDown(e mode.KeyEvent) error {
	if err := m.RequireStarted(); err != nil {
		return err
	}
	if m.selectedID == "" {
		return nil
	}
	switch {
	case m.opts.Keys.Delete != "" && e.Key == m.opts.Keys.Delete:
		return m.deleteSelected()
	case m.opts.Keys.Deselect != "" && e.Key == m.opts.Keys.Deselect:
		scope := m.OpenScope()
		defer scope.Close()
		m.deselect(scope)
	}
	return nil
}

func (m *SelectMode) deleteSelected() error {
	scope := m.OpenScope()
	defer scope.Close()

	id := m.selectedID
	_ = destroyOverlays(scope, m.overlay)
	m.overlay = overlaySet{}
	m.selectedID = ""
	m.phase = phaseIdle

	if !scope.Has(id) {
		return nil
	}
	if err := scope.Delete([]string{id}); err != nil {
		return err
	}
	cfg := m.Config()
	if cfg.OnDeselect != nil {
		cfg.OnDeselect(id)
	}
	return nil
}

func (m *SelectMode) Stop() error {
	if m.selectedID != "" {
		scope := m.OpenScope()
		m.deselect(scope)
		scope.Close()
	}
	return m.Base.Stop()
}
