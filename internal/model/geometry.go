package model

import (
	"encoding/json"
	"fmt"

	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
)

// GeometryType tags which variant Geometry currently holds.
type GeometryType string

const (
	GeometryPoint        GeometryType = "Point"
	GeometryLineString   GeometryType = "LineString"
	GeometryPolygon      GeometryType = "Polygon"
	GeometryMultiPolygon GeometryType = "MultiPolygon"
)

// Geometry is a tagged variant over the geometry kinds spec.md §3
// names: Point | LineString | Polygon | MultiPolygon (the last only as
// mode output, e.g. a rectangle-with-holes).
//
// Fields by Type:
//   - Point:        Coordinates holds exactly one point.
//   - LineString:   Coordinates holds the open vertex list (no closure).
//   - Polygon:      Rings holds one or more closed rings, Rings[0] is the outer ring.
//   - MultiPolygon: Polys holds one polygon's rings per entry.
type Geometry struct {
	Type        GeometryType
	Coordinates []geometry.Point   // Point / LineString
	Rings       [][]geometry.Point // Polygon: outer + holes
	Polys       [][][]geometry.Point
}

// NewPoint constructs a Point geometry.
func NewPoint(p geometry.Point) Geometry {
	return Geometry{Type: GeometryPoint, Coordinates: []geometry.Point{p}}
}

// NewLineString constructs a LineString geometry.
func NewLineString(coords []geometry.Point) Geometry {
	return Geometry{Type: GeometryLineString, Coordinates: coords}
}

// NewPolygon constructs a Polygon geometry from rings (rings[0] is the
// outer ring, the rest are holes).
func NewPolygon(rings [][]geometry.Point) Geometry {
	return Geometry{Type: GeometryPolygon, Rings: rings}
}

// NewMultiPolygon constructs a MultiPolygon geometry.
func NewMultiPolygon(polys [][][]geometry.Point) Geometry {
	return Geometry{Type: GeometryMultiPolygon, Polys: polys}
}

// Clone returns a deep copy; the store never hands out aliased slices.
func (g Geometry) Clone() Geometry {
	out := Geometry{Type: g.Type}
	if g.Coordinates != nil {
		out.Coordinates = append([]geometry.Point(nil), g.Coordinates...)
	}
	if g.Rings != nil {
		out.Rings = make([][]geometry.Point, len(g.Rings))
		for i, r := range g.Rings {
			out.Rings[i] = append([]geometry.Point(nil), r...)
		}
	}
	if g.Polys != nil {
		out.Polys = make([][][]geometry.Point, len(g.Polys))
		for i, poly := range g.Polys {
			out.Polys[i] = make([][]geometry.Point, len(poly))
			for j, r := range poly {
				out.Polys[i][j] = append([]geometry.Point(nil), r...)
			}
		}
	}
	return out
}

// OuterRing returns the outer ring for Polygon geometries, or the lone
// coordinate slice for Point/LineString, for algorithms that treat the
// "primary ring" generically (hit testing, bbox, centroid).
func (g Geometry) OuterRing() []geometry.Point {
	switch g.Type {
	case GeometryPolygon:
		if len(g.Rings) == 0 {
			return nil
		}
		return g.Rings[0]
	default:
		return g.Coordinates
	}
}

// WithOuterRing returns a copy of g with its primary ring/coordinate
// slice replaced, used by drag/resize/rotate to rebuild geometry after
// transforming vertices.
func (g Geometry) WithOuterRing(ring []geometry.Point) Geometry {
	out := g.Clone()
	switch out.Type {
	case GeometryPolygon:
		if len(out.Rings) == 0 {
			out.Rings = [][]geometry.Point{ring}
		} else {
			out.Rings[0] = ring
		}
	default:
		out.Coordinates = ring
	}
	return out
}

// Validate enforces spec.md §3 invariants 2-4 for this geometry. draft
// relaxes the polygon checks per §9 "draft-polygon invariant
// relaxation" (see geometry.ValidatePolygonRing), and for a LineString
// skips the consecutive-duplicate check while keeping the two-coordinate
// minimum and per-point validity.
func (g Geometry) Validate(draft bool) error {
	switch g.Type {
	case GeometryPoint:
		if len(g.Coordinates) != 1 {
			return NewError(KindInvalidGeometry, "point must have exactly 1 coordinate, got %d", len(g.Coordinates))
		}
	case GeometryLineString:
		if draft {
			// A line under construction repeats its last vertex as the
			// cursor ghost; ValidatePolygonRing with draft=true checks
			// per-point validity only.
			if len(g.Coordinates) < 2 {
				return NewError(KindInvalidGeometry, "linestring has %d coordinates, need >= 2", len(g.Coordinates))
			}
			if err := geometry.ValidatePolygonRing(g.Coordinates, true); err != nil {
				return NewError(KindInvalidGeometry, "%v", err)
			}
			break
		}
		if err := geometry.ValidateLineString(g.Coordinates); err != nil {
			return NewError(KindInvalidGeometry, "%v", err)
		}
	case GeometryPolygon:
		if len(g.Rings) == 0 {
			return NewError(KindInvalidGeometry, "polygon has no rings")
		}
		if err := geometry.ValidatePolygonRing(g.Rings[0], draft); err != nil {
			return NewError(KindInvalidGeometry, "outer ring: %v", err)
		}
		for i, hole := range g.Rings[1:] {
			if err := geometry.ValidatePolygonRing(hole, draft); err != nil {
				return NewError(KindInvalidGeometry, "hole %d: %v", i, err)
			}
		}
	case GeometryMultiPolygon:
		if len(g.Polys) == 0 {
			return NewError(KindInvalidGeometry, "multipolygon has no polygons")
		}
		for pi, rings := range g.Polys {
			if len(rings) == 0 {
				return NewError(KindInvalidGeometry, "polygon %d has no rings", pi)
			}
			if err := geometry.ValidatePolygonRing(rings[0], draft); err != nil {
				return NewError(KindInvalidGeometry, "polygon %d outer ring: %v", pi, err)
			}
		}
	default:
		return NewError(KindInvalidGeometry, "unknown geometry type %q", g.Type)
	}
	return nil
}

// MarshalJSON renders strict GeoJSON geometry per spec.md §6.
func (g Geometry) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type        GeometryType `json:"type"`
		Coordinates any          `json:"coordinates"`
	}
	w := wire{Type: g.Type}
	switch g.Type {
	case GeometryPoint:
		if len(g.Coordinates) != 1 {
			return nil, fmt.Errorf("point geometry must have 1 coordinate")
		}
		w.Coordinates = toLngLat(g.Coordinates[0])
	case GeometryLineString:
		w.Coordinates = ringToLngLat(g.Coordinates)
	case GeometryPolygon:
		rings := make([][][2]float64, len(g.Rings))
		for i, r := range g.Rings {
			rings[i] = ringToLngLat(r)
		}
		w.Coordinates = rings
	case GeometryMultiPolygon:
		polys := make([][][][2]float64, len(g.Polys))
		for i, p := range g.Polys {
			rings := make([][][2]float64, len(p))
			for j, r := range p {
				rings[j] = ringToLngLat(r)
			}
			polys[i] = rings
		}
		w.Coordinates = polys
	}
	return json.Marshal(w)
}

func toLngLat(p geometry.Point) [2]float64 { return [2]float64{p.Lng, p.Lat} }

func ringToLngLat(ring []geometry.Point) [][2]float64 {
	out := make([][2]float64, len(ring))
	for i, p := range ring {
		out[i] = toLngLat(p)
	}
	return out
}

// UnmarshalJSON parses strict GeoJSON geometry.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	var hdr struct {
		Type GeometryType `json:"type"`
	}
	if err := json.Unmarshal(data, &hdr); err != nil {
		return fmt.Errorf("parse geometry type: %w", err)
	}
	switch hdr.Type {
	case GeometryPoint:
		var w struct {
			Coordinates [2]float64 `json:"coordinates"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("parse point coordinates: %w", err)
		}
		*g = NewPoint(geometry.Point{Lng: w.Coordinates[0], Lat: w.Coordinates[1]})
	case GeometryLineString:
		var w struct {
			Coordinates [][2]float64 `json:"coordinates"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("parse linestring coordinates: %w", err)
		}
		*g = NewLineString(fromLngLat(w.Coordinates))
	case GeometryPolygon:
		var w struct {
			Coordinates [][][2]float64 `json:"coordinates"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("parse polygon coordinates: %w", err)
		}
		rings := make([][]geometry.Point, len(w.Coordinates))
		for i, r := range w.Coordinates {
			rings[i] = fromLngLat(r)
		}
		*g = NewPolygon(rings)
	case GeometryMultiPolygon:
		var w struct {
			Coordinates [][][][2]float64 `json:"coordinates"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("parse multipolygon coordinates: %w", err)
		}
		polys := make([][][]geometry.Point, len(w.Coordinates))
		for i, p := range w.Coordinates {
			rings := make([][]geometry.Point, len(p))
			for j, r := range p {
				rings[j] = fromLngLat(r)
			}
			polys[i] = rings
		}
		*g = NewMultiPolygon(polys)
	default:
		return fmt.Errorf("unsupported geometry type %q", hdr.Type)
	}
	return nil
}

func fromLngLat(coords [][2]float64) []geometry.Point {
	out := make([]geometry.Point, len(coords))
	for i, c := range coords {
		out[i] = geometry.Point{Lng: c[0], Lat: c[1]}
	}
	return out
}
