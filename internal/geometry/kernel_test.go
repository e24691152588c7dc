package geometry

import (
	"errors"
	"math"
	"testing"
)

func TestHaversineDistanceKm_SameSwap(t *testing.T) {
	a := Point{Lng: 0, Lat: 0}
	b := Point{Lng: 1, Lat: 1}
	d1, err := HaversineDistanceKm(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d2, err := HaversineDistanceKm(b, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("distance not symmetric: %v vs %v", d1, d2)
	}
	if d1 <= 0 {
		t.Fatalf("expected positive distance, got %v", d1)
	}
}

func TestHaversineDistanceKm_InvalidCoordinate(t *testing.T) {
	_, err := HaversineDistanceKm(Point{Lng: 200, Lat: 0}, Point{Lng: 0, Lat: 0})
	var gerr *Error
	if !errors.As(err, &gerr) || gerr.Kind != KindInvalidCoordinate {
		t.Fatalf("expected InvalidCoordinate, got %v", err)
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
	inside, err := PointInPolygon(Point{Lng: 0.5, Lat: 0.5}, square)
	if err != nil || !inside {
		t.Fatalf("expected inside, got %v err=%v", inside, err)
	}
	outside, err := PointInPolygon(Point{Lng: 5, Lat: 5}, square)
	if err != nil || outside {
		t.Fatalf("expected outside, got %v err=%v", outside, err)
	}
	onBoundary, err := PointInPolygon(Point{Lng: 0, Lat: 0.5}, square)
	if err != nil || !onBoundary {
		t.Fatalf("boundary point should count as inside, got %v err=%v", onBoundary, err)
	}
}

func TestSelfIntersects(t *testing.T) {
	simple := []Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}
	hit, err := SelfIntersects(simple)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Fatalf("simple square should not self-intersect")
	}

	bowtie := []Point{{0, 0}, {1, 1}, {1, 0}, {0, 1}, {0, 0}}
	hit, err = SelfIntersects(bowtie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hit {
		t.Fatalf("bowtie ring should self-intersect")
	}
}

func TestCirclePolygon_ClosedAndValid(t *testing.T) {
	ring, err := CirclePolygon(Point{Lng: 10, Lat: 10}, 5, 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ring[0] != ring[len(ring)-1] {
		t.Fatalf("circle ring must be closed")
	}
	if err := ValidatePolygonRing(ring, false); err != nil {
		t.Fatalf("circle ring should be a valid polygon: %v", err)
	}
}

func TestMidpointGreatCircle_Symmetric(t *testing.T) {
	a := Point{Lng: 0, Lat: 0}
	b := Point{Lng: 10, Lat: 0}
	mid, err := MidpointGreatCircle(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(mid.Lng-5) > 1e-6 || math.Abs(mid.Lat) > 1e-6 {
		t.Fatalf("expected midpoint near (5,0), got %+v", mid)
	}
}

func TestValidatePolygonRing_DegenerateAndSelfIntersecting(t *testing.T) {
	tooShort := []Point{{0, 0}, {1, 1}, {0, 0}}
	if err := ValidatePolygonRing(tooShort, false); err == nil {
		t.Fatalf("expected degenerate ring error")
	}

	bowtie := []Point{{0, 0}, {1, 1}, {1, 0}, {0, 1}, {0, 0}}
	err := ValidatePolygonRing(bowtie, false)
	var gerr *Error
	if !errors.As(err, &gerr) || gerr.Kind != KindSelfIntersection {
		t.Fatalf("expected SelfIntersection, got %v", err)
	}

	if err := ValidatePolygonRing(bowtie, true); err != nil {
		t.Fatalf("draft ring should skip self-intersection check: %v", err)
	}
}

func TestPointToLineDistancePx(t *testing.T) {
	identity := func(p Point) Pixel { return Pixel{X: p.Lng, Y: p.Lat} }
	d := PointToLineDistancePx(Point{Lng: 0, Lat: 1}, Point{Lng: -1, Lat: 0}, Point{Lng: 1, Lat: 0}, identity)
	if math.Abs(d-1) > 1e-9 {
		t.Fatalf("expected perpendicular distance 1, got %v", d)
	}
}
