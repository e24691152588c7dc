package geometry

// ValidateLineString enforces spec.md §3 invariant 4: at least 2
// coordinates, no consecutive duplicates.
func ValidateLineString(coords []Point) error {
	if len(coords) < 2 {
		return newErr(KindDegenerateRing, "linestring has %d coordinates, need >= 2", len(coords))
	}
	for i, p := range coords {
		if err := validate(p); err != nil {
			return err
		}
		if i > 0 && coords[i-1] == p {
			return newErr(KindDegenerateRing, "consecutive duplicate coordinate at index %d", i)
		}
	}
	return nil
}

// ValidatePolygonRing enforces spec.md §3 invariants 2 and 3: the ring
// must be closed with >= 4 coordinates (>= 3 distinct vertices) and
// must not self-intersect.
//
// draft relaxes every one of those checks per spec.md §9
// "draft-polygon invariant relaxation": a polygon mid-construction
// carries a reserved draft property, and the placeholder ring §4.D
// describes (repeated copies of the first click) would otherwise never
// validate. Only per-point coordinate validity is still enforced.
// Callers that need the §4.D mouse-move behaviour ("re-validate only
// self-intersection-against-completed-edges; if invalid, suppress the
// update") call SelfIntersects directly before committing the draft
// geometry — that is a mode-level pre-check, not something this
// function does on their behalf, so a suppressed update never reaches
// the store at all. Finalize always calls this with draft=false.
func ValidatePolygonRing(ring []Point, draft bool) error {
	for _, p := range ring {
		if err := validate(p); err != nil {
			return err
		}
	}
	if draft {
		return nil
	}

	if len(ring) < 4 {
		return newErr(KindDegenerateRing, "ring has %d coordinates, need >= 4 closed", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		return newErr(KindDegenerateRing, "ring is not closed: first != last")
	}
	distinct := map[Point]struct{}{}
	for _, p := range ring[:len(ring)-1] {
		distinct[p] = struct{}{}
	}
	if len(distinct) < 3 {
		return newErr(KindDegenerateRing, "ring has %d distinct vertices, need >= 3", len(distinct))
	}
	hit, err := SelfIntersects(ring)
	if err != nil {
		return err
	}
	if hit {
		return newErr(KindSelfIntersection, "ring self-intersects")
	}
	return nil
}
