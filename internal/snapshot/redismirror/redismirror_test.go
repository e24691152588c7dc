package redismirror

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

func newMini(t *testing.T) *Mirror {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	m, err := New(ctx, mr.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMirror_SyncThenLoadAllRoundTrips(t *testing.T) {
	m := newMini(t)
	st := store.New()

	ids, err := st.Create([]store.CreateEntry{{
		Geometry:   model.NewPoint(geometry.Point{Lng: 1, Lat: 2}),
		Properties: model.Properties{model.PropMode: "point"},
	}})
	if err != nil {
		t.Fatalf("seed create: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := m.Sync(ctx, st, ids, "create"); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	all, err := m.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 1 || all[0].ID != ids[0] {
		t.Fatalf("LoadAll = %+v, want one feature with id %q", all, ids[0])
	}
}

func TestMirror_SyncDeleteRemovesKey(t *testing.T) {
	m := newMini(t)
	st := store.New()

	ids, err := st.Create([]store.CreateEntry{{
		Geometry:   model.NewPoint(geometry.Point{Lng: 3, Lat: 4}),
		Properties: model.Properties{model.PropMode: "point"},
	}})
	if err != nil {
		t.Fatalf("seed create: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := m.Sync(ctx, st, ids, "create"); err != nil {
		t.Fatalf("Sync create: %v", err)
	}
	if err := m.Sync(ctx, st, ids, "delete"); err != nil {
		t.Fatalf("Sync delete: %v", err)
	}

	all, err := m.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty mirror after delete, got %+v", all)
	}
}

func TestMirror_SyncEmptyIDsIsNoop(t *testing.T) {
	m := newMini(t)
	st := store.New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Sync(ctx, st, nil, "update"); err != nil {
		t.Fatalf("Sync(nil): %v", err)
	}
}
