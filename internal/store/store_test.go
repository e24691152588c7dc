package store

import (
	"errors"
	"testing"

	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
)

func square() model.Geometry {
	ring := []geometry.Point{{Lng: 0, Lat: 0}, {Lng: 0, Lat: 1}, {Lng: 1, Lat: 1}, {Lng: 1, Lat: 0}, {Lng: 0, Lat: 0}}
	return model.NewPolygon([][]geometry.Point{ring})
}

func TestCreate_AssignsIDsAndEmitsBatch(t *testing.T) {
	s := New()
	var got model.ChangeBatch
	scope := s.Scope(func(b model.ChangeBatch) { got = b })
	ids, err := scope.Create([]CreateEntry{{Geometry: square(), Properties: model.Properties{model.PropMode: "polygon"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scope.Close()
	if len(ids) != 1 || ids[0] == "" {
		t.Fatalf("expected one assigned id, got %v", ids)
	}
	if len(got.Created) != 1 || got.Created[0] != ids[0] {
		t.Fatalf("expected created batch with %v, got %+v", ids, got)
	}
	if !s.Has(ids[0]) {
		t.Fatalf("store should contain created feature")
	}
}

func TestCreate_RejectsInvalidGeometry(t *testing.T) {
	s := New()
	bowtie := []geometry.Point{{Lng: 0, Lat: 0}, {Lng: 1, Lat: 1}, {Lng: 1, Lat: 0}, {Lng: 0, Lat: 1}, {Lng: 0, Lat: 0}}
	scope := s.Scope(nil)
	_, err := scope.Create([]CreateEntry{{Geometry: model.NewPolygon([][]geometry.Point{bowtie})}})
	var merr *model.Error
	if !errors.As(err, &merr) || merr.Kind != model.KindInvalidGeometry {
		t.Fatalf("expected InvalidGeometry, got %v", err)
	}
}

func TestCreate_DraftSkipsSelfIntersection(t *testing.T) {
	s := New()
	bowtie := []geometry.Point{{Lng: 0, Lat: 0}, {Lng: 1, Lat: 1}, {Lng: 1, Lat: 0}, {Lng: 0, Lat: 1}, {Lng: 0, Lat: 0}}
	scope := s.Scope(nil)
	ids, err := scope.Create([]CreateEntry{{Geometry: model.NewPolygon([][]geometry.Point{bowtie}), Draft: true}})
	if err != nil {
		t.Fatalf("draft create should succeed: %v", err)
	}
	scope.Close()
	props, _ := s.GetPropertiesCopy(ids[0])
	if !props.Bool(model.PropDraft) {
		t.Fatalf("expected draft property set")
	}
}

func TestDelete_UnknownIDFails(t *testing.T) {
	s := New()
	scope := s.Scope(nil)
	err := scope.Delete([]string{"does-not-exist"})
	var merr *model.Error
	if !errors.As(err, &merr) || merr.Kind != model.KindUnknownID {
		t.Fatalf("expected UnknownId, got %v", err)
	}
}

func TestScope_CreateThenDeleteCollapsesToEmptyBatch(t *testing.T) {
	s := New()
	var got model.ChangeBatch
	gotCalled := false
	scope := s.Scope(func(b model.ChangeBatch) { got = b; gotCalled = true })
	ids, err := scope.Create([]CreateEntry{{Geometry: square()}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := scope.Delete(ids); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scope.Close()
	if gotCalled {
		t.Fatalf("expected no onChange call for a fully-collapsed batch, got %+v", got)
	}
	if s.Has(ids[0]) {
		t.Fatalf("feature should have been deleted")
	}
}

func TestCopyAll_ReturnsDeepCopies(t *testing.T) {
	s := New()
	scope := s.Scope(nil)
	ids, _ := scope.Create([]CreateEntry{{Geometry: square(), Properties: model.Properties{"foo": "bar"}}})
	scope.Close()

	copies := s.CopyAll()
	if len(copies) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(copies))
	}
	copies[0].Properties["foo"] = "mutated"
	copies[0].Geometry.Rings[0][0] = geometry.Point{Lng: 99, Lat: 99}

	props, _ := s.GetPropertiesCopy(ids[0])
	if props["foo"] != "bar" {
		t.Fatalf("mutating a CopyAll result must not affect the store, got %v", props["foo"])
	}
	geom, _ := s.GetGeometryCopy(ids[0])
	if geom.Rings[0][0] != (geometry.Point{Lng: 0, Lat: 0}) {
		t.Fatalf("mutating a CopyAll geometry must not affect the store, got %+v", geom.Rings[0][0])
	}
}

func TestScope_CloseIsIdempotent(t *testing.T) {
	s := New()
	calls := 0
	scope := s.Scope(func(model.ChangeBatch) { calls++ })
	_, _ = scope.Create([]CreateEntry{{Geometry: square()}})
	scope.Close()
	scope.Close()
	if calls != 1 {
		t.Fatalf("expected exactly one onChange call, got %d", calls)
	}
}
