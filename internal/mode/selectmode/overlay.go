package selectmode

import (
	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

// overlaySet is the transient parentId -> {pointIds, midpointIds}
// mapping spec.md §9 describes: rebuilt on selection, discarded on
// deselection, never a long-lived cycle.
type overlaySet struct {
	parentID    string
	pointIDs    []string // one per outer-ring vertex, excluding the closing duplicate for polygons
	midpointIDs []string // one per edge, only if flags.Midpoints
}

// buildOverlays creates selection-point (and, if enabled, midpoint)
// overlay features mirroring parent's outer ring, per spec.md §3
// "Ancillary features".
func buildOverlays(scope *store.Scope, parent model.Feature, flags CoordinateFlags) (overlaySet, error) {
	ring := parent.Geometry.OuterRing()
	vertices := ring
	closed := parent.Geometry.Type == model.GeometryPolygon
	if closed && len(vertices) > 1 {
		vertices = vertices[:len(vertices)-1] // drop the closing duplicate
	}

	set := overlaySet{parentID: parent.ID}

	entries := make([]store.CreateEntry, 0, len(vertices))
	for i, v := range vertices {
		entries = append(entries, store.CreateEntry{
			Geometry: model.NewPoint(v),
			Properties: model.Properties{
				model.PropMode:     model.ModeSelectionPoint,
				model.PropParentID: parent.ID,
				model.PropIndex:    i,
			},
		})
	}
	if len(entries) > 0 {
		ids, err := scope.Create(entries)
		if err != nil {
			return overlaySet{}, err
		}
		set.pointIDs = ids
	}

	if flags.Midpoints && len(vertices) >= 2 {
		segCount := len(vertices)
		if !closed {
			segCount = len(vertices) - 1
		}
		midEntries := make([]store.CreateEntry, 0, segCount)
		for i := 0; i < segCount; i++ {
			a := vertices[i]
			b := vertices[(i+1)%len(vertices)]
			mid, err := geometry.MidpointGreatCircle(a, b)
			if err != nil {
				continue
			}
			midEntries = append(midEntries, store.CreateEntry{
				Geometry: model.NewPoint(mid),
				Properties: model.Properties{
					model.PropMode:         model.ModeMidpoint,
					model.PropParentID:     parent.ID,
					model.PropSegmentIndex: i,
				},
			})
		}
		if len(midEntries) > 0 {
			ids, err := scope.Create(midEntries)
			if err != nil {
				return overlaySet{}, err
			}
			set.midpointIDs = ids
		}
	}

	return set, nil
}

// destroyOverlays deletes every overlay feature in set.
func destroyOverlays(scope *store.Scope, set overlaySet) error {
	ids := append(append([]string{}, set.pointIDs...), set.midpointIDs...)
	if len(ids) == 0 {
		return nil
	}
	return scope.Delete(ids)
}

// rebuildOverlays destroys the old set and builds a fresh one from
// parent's current geometry, used after midpoint insertion and vertex
// deletion where the vertex count changes.
func rebuildOverlays(scope *store.Scope, parent model.Feature, old overlaySet, flags CoordinateFlags) (overlaySet, error) {
	if err := destroyOverlays(scope, old); err != nil {
		return overlaySet{}, err
	}
	return buildOverlays(scope, parent, flags)
}
