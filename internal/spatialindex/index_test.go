package spatialindex

import (
	"testing"

	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
)

func TestIndex_UpsertAndCandidatesNear(t *testing.T) {
	idx := New(9)
	square := []geometry.Point{
		{Lng: 18.00, Lat: 59.32},
		{Lng: 18.02, Lat: 59.32},
		{Lng: 18.02, Lat: 59.34},
		{Lng: 18.00, Lat: 59.34},
		{Lng: 18.00, Lat: 59.32},
	}
	if err := idx.Upsert("feat-1", square); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("expected 1 indexed feature, got %d", idx.Len())
	}

	cands, err := idx.CandidatesNear(geometry.Point{Lng: 18.01, Lat: 59.33})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	found := false
	for _, c := range cands {
		if c == "feat-1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected feat-1 among candidates near its own square, got %v", cands)
	}

	far, err := idx.CandidatesNear(geometry.Point{Lng: -10, Lat: 10})
	if err != nil {
		t.Fatalf("candidates far: %v", err)
	}
	for _, c := range far {
		if c == "feat-1" {
			t.Fatalf("did not expect feat-1 among candidates far from its square")
		}
	}
}

func TestIndex_RemoveDropsFeature(t *testing.T) {
	idx := New(9)
	pt := []geometry.Point{{Lng: 10, Lat: 10}}
	if err := idx.Upsert("a", pt); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	idx.Remove("a")
	if idx.Len() != 0 {
		t.Fatalf("expected 0 after remove, got %d", idx.Len())
	}
	cands, err := idx.CandidatesNear(geometry.Point{Lng: 10, Lat: 10})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cands) != 0 {
		t.Fatalf("expected no candidates after remove, got %v", cands)
	}
}

func TestIndex_UpsertReplacesPreviousCells(t *testing.T) {
	idx := New(9)
	if err := idx.Upsert("a", []geometry.Point{{Lng: 10, Lat: 10}}); err != nil {
		t.Fatalf("upsert 1: %v", err)
	}
	if err := idx.Upsert("a", []geometry.Point{{Lng: 50, Lat: 50}}); err != nil {
		t.Fatalf("upsert 2: %v", err)
	}
	near, err := idx.CandidatesNear(geometry.Point{Lng: 10, Lat: 10})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	for _, c := range near {
		if c == "a" {
			t.Fatalf("expected stale cell entry to be cleared on re-upsert")
		}
	}
}
