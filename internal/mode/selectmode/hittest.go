package selectmode

import (
	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/mode"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/spatialindex"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

// pointerThreshold mirrors mode.Config's unexported pointerDistance
// default, which selectmode cannot call directly from outside package
// mode.
func pointerThreshold(cfg mode.Config) float64 {
	if cfg.PointerDistancePx > 0 {
		return cfg.PointerDistancePx
	}
	return 40
}

// selectableFlags reports whether f's reserved mode property has a Flags
// entry, i.e. is a candidate for hit testing at all.
func selectableFlags(flags Flags, f model.Feature) (FeatureFlags, bool) {
	ff, ok := flags[f.Properties.String(model.PropMode)]
	return ff, ok
}

// hitTestFeatures implements spec.md §4.E.1's priority order: Point
// features win over LineString, which win over Polygon, regardless of
// z-order. Overlay features (selection points, midpoints) are never
// candidates here — they are tested separately by the caller first.
//
// When idx is non-nil, the full feature set is first narrowed to idx's
// candidates near p before the exact per-type checks run; a nil idx
// (or a narrowing error) falls back to scanning every feature, so
// hit-testing degrades gracefully without a spatial index configured.
func hitTestFeatures(scope *store.Scope, flags Flags, p geometry.Point, project geometry.Projector, thresholdPx float64, idx *spatialindex.Index) (string, bool) {
	all := scope.CopyAll()
	if idx != nil {
		if cands, err := idx.CandidatesNear(p); err == nil {
			all = narrowByIDs(all, cands)
		}
	}

	byType := func(t model.GeometryType) (string, bool) {
		for _, f := range all {
			if f.IsOverlay() || f.Geometry.Type != t {
				continue
			}
			if _, ok := selectableFlags(flags, f); !ok {
				continue
			}
			if geometryHit(f.Geometry, p, project, thresholdPx) {
				return f.ID, true
			}
		}
		return "", false
	}

	if id, ok := byType(model.GeometryPoint); ok {
		return id, true
	}
	if id, ok := byType(model.GeometryLineString); ok {
		return id, true
	}
	if id, ok := byType(model.GeometryPolygon); ok {
		return id, true
	}
	return "", false
}

// narrowByIDs returns the subset of all whose ID appears in ids.
func narrowByIDs(all []model.Feature, ids []string) []model.Feature {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]model.Feature, 0, len(all))
	for _, f := range all {
		if _, ok := want[f.ID]; ok {
			out = append(out, f)
		}
	}
	return out
}

func geometryHit(g model.Geometry, p geometry.Point, project geometry.Projector, thresholdPx float64) bool {
	switch g.Type {
	case model.GeometryPoint:
		if len(g.Coordinates) != 1 {
			return false
		}
		c := g.Coordinates[0]
		return geometry.PointToLineDistancePx(p, c, c, project) <= thresholdPx
	case model.GeometryLineString:
		coords := g.Coordinates
		for i := 0; i+1 < len(coords); i++ {
			if geometry.PointToLineDistancePx(p, coords[i], coords[i+1], project) <= thresholdPx {
				return true
			}
		}
		return false
	case model.GeometryPolygon:
		ring := g.OuterRing()
		inside, err := geometry.PointInPolygon(p, ring)
		return err == nil && inside
	default:
		return false
	}
}

// nearestOverlay returns the index into ids whose current position is
// within thresholdPx of p, or -1 if none qualifies. Ties favour the
// first (lowest-index) match.
func nearestOverlay(scope *store.Scope, ids []string, p geometry.Point, project geometry.Projector, thresholdPx float64) int {
	best := -1
	bestDist := thresholdPx
	for i, id := range ids {
		g, ok := scope.GetGeometryCopy(id)
		if !ok || len(g.Coordinates) != 1 {
			continue
		}
		c := g.Coordinates[0]
		d := geometry.PointToLineDistancePx(p, c, c, project)
		if d <= bestDist && (best < 0 || d < bestDist) {
			bestDist = d
			best = i
		}
	}
	return best
}
