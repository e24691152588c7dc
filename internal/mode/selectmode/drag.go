package selectmode

import (
	"math"

	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/mode"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

// OnDragStart implements spec.md §4.E.3's branch logic: a midpoint hit
// inserts a vertex and starts dragging it; a vertex hit starts
// DraggingCoordinate, or Rotating/Resizing if the configured key is
// held; a hit on the selected feature's body starts DraggingFeature.
func (m *SelectMode) OnDragStart(e mode.PointerEvent) error {
	if err := m.RequireStarted(); err != nil {
		return err
	}
	if m.selectedID == "" {
		return nil
	}
	p := e.Point()
	cfg := m.Config()
	scope := m.OpenScope()
	defer scope.Close()

	flags, ok := m.selectedFlags(scope)
	if !ok || flags.Coordinates == nil {
		return m.tryDragFeature(scope, flags, p)
	}
	coord := *flags.Coordinates
	threshold := pointerThreshold(cfg)

	if coord.Midpoints {
		if idx := nearestOverlay(scope, m.overlay.midpointIDs, p, cfg.Project, threshold); idx >= 0 {
			return m.startVertexInsert(scope, coord, idx, p)
		}
	}

	if idx := nearestOverlay(scope, m.overlay.pointIDs, p, cfg.Project, threshold); idx >= 0 {
		return m.startVertexDrag(scope, coord, idx, p, e.HeldKeys)
	}

	return m.tryDragFeature(scope, flags, p)
}

// centroidOf resolves the selected feature's centroid via cfg.GeoCache
// when configured, falling back to a direct computation otherwise.
func (m *SelectMode) centroidOf(ring []geometry.Point) (geometry.Point, error) {
	if cache := m.Config().GeoCache; cache != nil {
		return cache.Centroid(m.selectedID, ring)
	}
	return geometry.Centroid(ring)
}

func (m *SelectMode) tryDragFeature(scope *store.Scope, flags FeatureFlags, p geometry.Point) error {
	if !flags.FeatureDraggable {
		return nil
	}
	geom, ok := scope.GetGeometryCopy(m.selectedID)
	if !ok {
		return nil
	}
	cfg := m.Config()
	if !geometryHit(geom, p, cfg.Project, pointerThreshold(cfg)) {
		return nil
	}
	m.phase = phaseDraggingFeature
	m.dragOrigin = p
	m.originalRing = append([]geometry.Point{}, geom.OuterRing()...)
	m.armed = false
	return nil
}

// insertVertexAtMidpoint implements the shared geometry/overlay half of
// spec.md §4.E.1 step 2 and §4.E.3 branch 1: insert a new vertex at
// midpointIdx's segment, re-validate, and rebuild overlays. It reports
// whether the insert actually happened (false on silent rejection,
// e.g. a resulting self-intersection) but never enters a drag phase —
// callers that want to continue straight into dragging the new vertex
// do that themselves with the returned newVertices.
func (m *SelectMode) insertVertexAtMidpoint(scope *store.Scope, coord CoordinateFlags, midpointIdx int, p geometry.Point) (newVertices []geometry.Point, insertAt int, ok bool, err error) {
	geom, has := scope.GetGeometryCopy(m.selectedID)
	if !has {
		return nil, 0, false, nil
	}
	closed := geom.Type == model.GeometryPolygon
	ring := geom.OuterRing()
	vertices := ring
	if closed && len(vertices) > 1 {
		vertices = vertices[:len(vertices)-1]
	}
	if midpointIdx > len(vertices) {
		return nil, 0, false, nil
	}
	insertAt = midpointIdx + 1
	newVertices = append([]geometry.Point{}, vertices[:insertAt]...)
	newVertices = append(newVertices, p)
	newVertices = append(newVertices, vertices[insertAt:]...)

	newRing := newVertices
	if closed {
		newRing = append(append([]geometry.Point{}, newVertices...), newVertices[0])
	}
	newGeom := geom.WithOuterRing(newRing)
	if err := newGeom.Validate(false); err != nil {
		return nil, 0, false, nil
	}
	if closed {
		if crosses, _ := geometry.SelfIntersects(newRing); crosses {
			return nil, 0, false, nil
		}
	}
	if err := scope.UpdateGeometry([]store.GeometryUpdate{{ID: m.selectedID, Geometry: newGeom}}); err != nil {
		return nil, 0, false, err
	}
	feat := model.Feature{ID: m.selectedID, Geometry: newGeom, Properties: mustProps(scope, m.selectedID)}
	set, err := rebuildOverlays(scope, feat, m.overlay, coord)
	if err != nil {
		return nil, 0, false, err
	}
	m.overlay = set
	return newVertices, insertAt, true, nil
}

func (m *SelectMode) startVertexInsert(scope *store.Scope, coord CoordinateFlags, midpointIdx int, p geometry.Point) error {
	newVertices, insertAt, ok, err := m.insertVertexAtMidpoint(scope, coord, midpointIdx, p)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	m.phase = phaseDraggingCoordinate
	m.activeVertexIdx = insertAt
	m.dragOrigin = p
	m.originalRing = newVertices
	m.armed = true // the insert click itself already committed a move
	return nil
}

func (m *SelectMode) startVertexDrag(scope *store.Scope, coord CoordinateFlags, idx int, p geometry.Point, held []string) error {
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
	center, _ := m.centroidOf(ring)

	switch {
	case coord.Rotatable && m.opts.Keys.hasRotateKey(held):
		m.phase = phaseRotating
		m.rotateAnchor = center
		m.rotateStartAngle = geometry.Bearing(center, p)
		m.originalRing = append([]geometry.Point{}, vertices...)
	case coord.Resizable != "" && m.opts.Keys.hasScaleKey(held):
		m.phase = phaseResizing
		if coord.Resizable == "opposite" && len(vertices) > 0 {
			m.resizeAnchor = vertices[(idx+len(vertices)/2)%len(vertices)]
		} else {
			m.resizeAnchor = center
		}
		m.originalRing = append([]geometry.Point{}, vertices...)
	case coord.Draggable:
		m.phase = phaseDraggingCoordinate
		m.activeVertexIdx = idx
		m.originalRing = append([]geometry.Point{}, vertices...)
	default:
		return nil
	}
	m.dragOrigin = p
	m.armed = false
	return nil
}

func (m *SelectMode) OnDrag(e mode.PointerEvent) error {
	if m.phase != phaseDraggingFeature && m.phase != phaseDraggingCoordinate &&
		m.phase != phaseResizing && m.phase != phaseRotating {
		return nil
	}
	cfg := m.Config()
	p := e.Point()

	if !m.armed {
		startPx, curPx := cfg.Project(m.dragOrigin), cfg.Project(p)
		if math.Hypot(curPx.X-startPx.X, curPx.Y-startPx.Y) < m.opts.minPixelDragDistance() {
			return nil
		}
		m.armed = true
	}

	scope := m.OpenScope()
	defer scope.Close()

	geom, ok := scope.GetGeometryCopy(m.selectedID)
	if !ok {
		return nil
	}
	closed := geom.Type == model.GeometryPolygon

	var newVertices []geometry.Point
	switch m.phase {
	case phaseDraggingCoordinate:
		newVertices = append([]geometry.Point{}, m.originalRing...)
		if m.activeVertexIdx < 0 || m.activeVertexIdx >= len(newVertices) {
			return nil
		}
		newVertices[m.activeVertexIdx] = geometry.ClampWGS84(p)
	case phaseDraggingFeature:
		dLng, dLat := p.Lng-m.dragOrigin.Lng, p.Lat-m.dragOrigin.Lat
		newVertices = make([]geometry.Point, len(m.originalRing))
		for i, v := range m.originalRing {
			newVertices[i] = geometry.ClampWGS84(geometry.Point{Lng: v.Lng + dLng, Lat: v.Lat + dLat})
		}
	case phaseResizing:
		startDist, err := geometry.HaversineDistanceKm(m.resizeAnchor, m.dragOrigin)
		if err != nil || startDist == 0 {
			return nil
		}
		curDist, err := geometry.HaversineDistanceKm(m.resizeAnchor, p)
		if err != nil {
			return nil
		}
		factor := curDist / startDist
		newVertices = make([]geometry.Point, len(m.originalRing))
		for i, v := range m.originalRing {
			newVertices[i] = geometry.ClampWGS84(geometry.ScaleAbout(v, m.resizeAnchor, factor))
		}
	case phaseRotating:
		angle := geometry.Bearing(m.rotateAnchor, p) - m.rotateStartAngle
		newVertices = make([]geometry.Point, len(m.originalRing))
		for i, v := range m.originalRing {
			newVertices[i] = geometry.ClampWGS84(geometry.RotateAbout(v, m.rotateAnchor, angle))
		}
	}

	newRing := newVertices
	if closed {
		newRing = append(append([]geometry.Point{}, newVertices...), newVertices[0])
		if crosses, _ := geometry.SelfIntersects(newRing); crosses {
			return nil
		}
	}
	newGeom := geom.WithOuterRing(newRing)
	if err := newGeom.Validate(true); err != nil {
		return nil
	}
	if err := scope.UpdateGeometry([]store.GeometryUpdate{{ID: m.selectedID, Geometry: newGeom, Draft: true}}); err != nil {
		return err
	}
	return repositionOverlays(scope, m.overlay, newRing, closed)
}

func (m *SelectMode) OnDragEnd(e mode.PointerEvent) error {
	phaseAtEnd := m.phase
	if phaseAtEnd != phaseDraggingFeature && phaseAtEnd != phaseDraggingCoordinate &&
		phaseAtEnd != phaseResizing && phaseAtEnd != phaseRotating {
		return nil
	}
	cfg := m.Config()
	scope := m.OpenScope()
	defer scope.Close()

	action := map[phase]string{
		phaseDraggingFeature:    "translate",
		phaseDraggingCoordinate: "reshape",
		phaseResizing:           "resize",
		phaseRotating:           "rotate",
	}[phaseAtEnd]

	id := m.selectedID
	m.phase = phaseSelected
	m.armed = false
	m.originalRing = nil

	if !scope.Has(id) {
		return nil
	}
	geom, _ := scope.GetGeometryCopy(id)
	if err := geom.Validate(false); err == nil {
		if err := scope.UpdateGeometry([]store.GeometryUpdate{{ID: id, Geometry: geom, Draft: false}}); err != nil {
			return err
		}
	}

	if cfg.OnFinish != nil {
		props := mustProps(scope, id)
		cfg.OnFinish(id, mode.FinishMeta{Action: action, Mode: props.String(model.PropMode)})
	}
	return nil
}

// repositionOverlays moves every overlay point/midpoint to match ring's
// current vertex positions, mirroring buildOverlays' index convention.
func repositionOverlays(scope *store.Scope, set overlaySet, ring []geometry.Point, closed bool) error {
	vertices := ring
	if closed && len(vertices) > 1 {
		vertices = vertices[:len(vertices)-1]
	}

	updates := make([]store.GeometryUpdate, 0, len(set.pointIDs)+len(set.midpointIDs))
	for i, id := range set.pointIDs {
		if i >= len(vertices) {
			break
		}
		updates = append(updates, store.GeometryUpdate{ID: id, Geometry: model.NewPoint(vertices[i])})
	}

	segCount := len(vertices)
	if !closed {
		segCount = len(vertices) - 1
	}
	for i, id := range set.midpointIDs {
		if i >= segCount {
			break
		}
		a := vertices[i]
		b := vertices[(i+1)%len(vertices)]
		mid, err := geometry.MidpointGreatCircle(a, b)
		if err != nil {
			continue
		}
		updates = append(updates, store.GeometryUpdate{ID: id, Geometry: model.NewPoint(mid)})
	}

	if len(updates) == 0 {
		return nil
	}
	return scope.UpdateGeometry(updates)
}
