package geometry

import "math"

// earthRadiusKm is the mean earth radius used throughout the kernel,
// matching the WGS84 spherical approximation spec.md calls for.
const earthRadiusKm = 6371.0088

// Point is a WGS84 coordinate: lng in [-180,180], lat in [-90,90].
type Point struct {
	Lng float64
	Lat float64
}

// Pixel is a projected screen-space point, produced by an adapter's
// project() hook.
type Pixel struct {
	X float64
	Y float64
}

// Projector maps a lng/lat coordinate to pixel space. Modes receive one
// from the adapter at register time; the kernel never projects on its
// own.
type Projector func(p Point) Pixel

func validate(p Point) error {
	if math.IsNaN(p.Lng) || math.IsNaN(p.Lat) || math.IsInf(p.Lng, 0) || math.IsInf(p.Lat, 0) {
		return newErr(KindInvalidCoordinate, "non-finite coordinate (%v,%v)", p.Lng, p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return newErr(KindInvalidCoordinate, "lng %v out of range [-180,180]", p.Lng)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return newErr(KindInvalidCoordinate, "lat %v out of range [-90,90]", p.Lat)
	}
	return nil
}

// HaversineDistanceKm returns the great-circle distance between a and b
// in kilometres using the earth radius 6371.0088.
func HaversineDistanceKm(a, b Point) (float64, error) {
	if err := validate(a); err != nil {
		return 0, err
	}
	if err := validate(b); err != nil {
		return 0, err
	}
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	sinDLat := math.Sin(dLat / 2)
	sinDLng := math.Sin(dLng / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLng*sinDLng
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c, nil
}

// MidpointGreatCircle returns the point on the great circle through a
// and b that is equidistant from both, used for midpoint overlays and
// for densifying great-circle line segments.
func MidpointGreatCircle(a, b Point) (Point, error) {
	if err := validate(a); err != nil {
		return Point{}, err
	}
	if err := validate(b); err != nil {
		return Point{}, err
	}
	lat1, lng1 := toRad(a.Lat), toRad(a.Lng)
	lat2, lng2 := toRad(b.Lat), toRad(b.Lng)

	bx := math.Cos(lat2) * math.Cos(lng2-lng1)
	by := math.Cos(lat2) * math.Sin(lng2-lng1)

	latMid := math.Atan2(
		math.Sin(lat1)+math.Sin(lat2),
		math.Sqrt((math.Cos(lat1)+bx)*(math.Cos(lat1)+bx)+by*by),
	)
	lngMid := lng1 + math.Atan2(by, math.Cos(lat1)+bx)

	return Point{Lng: toDeg(normalizeLng(lngMid)), Lat: toDeg(latMid)}, nil
}

// PointInPolygon performs ray casting against ring; points exactly on
// the boundary count as inside, per spec.md §4.A. ring need not be
// explicitly closed (the cast wraps automatically).
func PointInPolygon(p Point, ring []Point) (bool, error) {
	if err := validate(p); err != nil {
		return false, err
	}
	if len(ring) < 3 {
		return false, newErr(KindDegenerateRing, "ring has %d points, need >= 3", len(ring))
	}
	inside := false
	n := len(ring)
	for i := 0; i < n; i++ {
		a := ring[i]
		b := ring[(i+1)%n]
		if onSegment(p, a, b) {
			return true, nil
		}
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			x := a.Lng + (p.Lat-a.Lat)*(b.Lng-a.Lng)/(b.Lat-a.Lat)
			if x >= p.Lng {
				inside = !inside
			} else if x == p.Lng {
				return true, nil
			}
		}
	}
	return inside, nil
}

func onSegment(p, a, b Point) bool {
	const eps = 1e-12
	cross := (b.Lng-a.Lng)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lng-a.Lng)
	if math.Abs(cross) > eps {
		return false
	}
	if math.Min(a.Lng, b.Lng)-eps > p.Lng || p.Lng > math.Max(a.Lng, b.Lng)+eps {
		return false
	}
	if math.Min(a.Lat, b.Lat)-eps > p.Lat || p.Lat > math.Max(a.Lat, b.Lat)+eps {
		return false
	}
	return true
}

// PointToLineDistancePx projects p, a, b into pixel space via project
// and returns the perpendicular distance from p to segment a-b, used
// for hit-testing lines and polygon edges against pointerDistance.
func PointToLineDistancePx(p, a, b Point, project Projector) float64 {
	pp, pa, pb := project(p), project(a), project(b)
	return pointToSegmentPx(pp, pa, pb)
}

func pointToSegmentPx(p, a, b Pixel) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	projX, projY := a.X+t*dx, a.Y+t*dy
	return math.Hypot(p.X-projX, p.Y-projY)
}

// SelfIntersects runs an O(n^2) segment-pair check over ring (assumed
// closed, first == last) excluding shared endpoints between adjacent
// segments, returning true on any strict crossing.
func SelfIntersects(ring []Point) (bool, error) {
	if len(ring) < 4 {
		return false, newErr(KindDegenerateRing, "ring has %d points, need >= 4 closed", len(ring))
	}
	n := len(ring) - 1 // edges, ring[0]==ring[n]
	for i := 0; i < n; i++ {
		a1, a2 := ring[i], ring[i+1]
		for j := i + 1; j < n; j++ {
			if j == i {
				continue
			}
			// adjacent edges share an endpoint by construction; skip those pairs.
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			b1, b2 := ring[j], ring[j+1]
			if segmentsStrictlyCross(a1, a2, b1, b2) {
				return true, nil
			}
		}
	}
	return false, nil
}

func segmentsStrictlyCross(p1, p2, p3, p4 Point) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return false
}

func cross(a, b, c Point) float64 {
	return (b.Lng-a.Lng)*(c.Lat-a.Lat) - (b.Lat-a.Lat)*(c.Lng-a.Lng)
}

// CirclePolygon approximates a geodesic circle of radiusKm around
// center as a closed polygon ring of steps segments (default 64).
func CirclePolygon(center Point, radiusKm float64, steps int) ([]Point, error) {
	if err := validate(center); err != nil {
		return nil, err
	}
	if radiusKm < 0 {
		return nil, newErr(KindInvalidCoordinate, "negative radius %v", radiusKm)
	}
	if steps < 3 {
		steps = 64
	}
	ring := make([]Point, 0, steps+1)
	latRad := toRad(center.Lat)
	angularDist := radiusKm / earthRadiusKm
	for i := 0; i <= steps; i++ {
		bearing := 2 * math.Pi * float64(i%steps) / float64(steps)
		lat2 := math.Asin(math.Sin(latRad)*math.Cos(angularDist) +
			math.Cos(latRad)*math.Sin(angularDist)*math.Cos(bearing))
		lng2 := toRad(center.Lng) + math.Atan2(
			math.Sin(bearing)*math.Sin(angularDist)*math.Cos(latRad),
			math.Cos(angularDist)-math.Sin(latRad)*math.Sin(lat2),
		)
		ring = append(ring, Point{Lng: toDeg(normalizeLng(lng2)), Lat: toDeg(lat2)})
	}
	return ring, nil
}

// Centroid returns the arithmetic mean of ring's distinct vertices
// (ignoring the closing duplicate if present). Adequate for spec.md's
// resize/rotate anchor use; not an area-weighted centroid.
func Centroid(ring []Point) (Point, error) {
	pts := ring
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) == 0 {
		return Point{}, newErr(KindDegenerateRing, "empty ring")
	}
	var sumLng, sumLat float64
	for _, p := range pts {
		sumLng += p.Lng
		sumLat += p.Lat
	}
	n := float64(len(pts))
	return Point{Lng: sumLng / n, Lat: sumLat / n}, nil
}

// BBox is an axis-aligned lng/lat bounding box.
type BBox struct {
	MinLng, MinLat, MaxLng, MaxLat float64
}

// Bounds returns the axis-aligned bounding box of ring.
func Bounds(ring []Point) (BBox, error) {
	if len(ring) == 0 {
		return BBox{}, newErr(KindDegenerateRing, "empty ring")
	}
	b := BBox{MinLng: ring[0].Lng, MaxLng: ring[0].Lng, MinLat: ring[0].Lat, MaxLat: ring[0].Lat}
	for _, p := range ring[1:] {
		b.MinLng = math.Min(b.MinLng, p.Lng)
		b.MaxLng = math.Max(b.MaxLng, p.Lng)
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
	}
	return b, nil
}

// Bearing returns the initial bearing in radians from a to b, used by
// select mode's rotate gesture.
func Bearing(a, b Point) float64 {
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	dLng := toRad(b.Lng - a.Lng)
	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	return math.Atan2(y, x)
}

// RotateAbout rotates p by angle radians (clockwise, bearing convention)
// about anchor using an equirectangular approximation appropriate for
// the small on-screen drag distances select mode applies this to.
func RotateAbout(p, anchor Point, angle float64) Point {
	dLng := p.Lng - anchor.Lng
	dLat := p.Lat - anchor.Lat
	cosA, sinA := math.Cos(angle), math.Sin(angle)
	return Point{
		Lng: anchor.Lng + dLng*cosA + dLat*sinA,
		Lat: anchor.Lat - dLng*sinA + dLat*cosA,
	}
}

// ScaleAbout scales p by factor s about anchor.
func ScaleAbout(p, anchor Point, s float64) Point {
	return Point{
		Lng: anchor.Lng + (p.Lng-anchor.Lng)*s,
		Lat: anchor.Lat + (p.Lat-anchor.Lat)*s,
	}
}

// ClampWGS84 clamps a coordinate into valid WGS84 range, used only when
// translating a whole feature during a drag per spec.md §4.E.3 ("clamp
// coordinates to valid WGS84 range") — never used to paper over a
// kernel validation failure.
func ClampWGS84(p Point) Point {
	return Point{
		Lng: math.Max(-180, math.Min(180, p.Lng)),
		Lat: math.Max(-90, math.Min(90, p.Lat)),
	}
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

func normalizeLng(rad float64) float64 {
	for rad < -math.Pi {
		rad += 2 * math.Pi
	}
	for rad > math.Pi {
		rad -= 2 * math.Pi
	}
	return rad
}
