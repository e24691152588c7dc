// Package spatialindex narrows select-mode hit-testing to a small
// candidate set instead of scanning every
// feature in the store, grounded on the teacher's internal/mapper/h3
// package (CellsForBBox/CellsForPolygon/ToParent/ToChildren) — the same
// uber/h3-go/v4 cell-covering technique, generalised from "tile an
// AOI polygon for cache warmup" to "tile a feature's bounding ring for
// fast candidate lookup".
package spatialindex

import (
	"fmt"
	"sort"
	"sync"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
)

// DefaultResolution mirrors the teacher's default AOI tiling
// resolution; fine enough to keep candidate sets small for
// city-scale feature sets without covering too many cells for a
// single short line segment.
const DefaultResolution = 9

// Index maps H3 cells at a fixed resolution to the feature ids whose
// bounding ring covers them. It is safe for concurrent use.
type Index struct {
	mu       sync.RWMutex
	res      int
	cellToID map[h3.Cell]map[string]struct{}
	idToCell map[string][]h3.Cell
}

// New constructs an Index at res (0..15, per h3's resolution range).
// res <= 0 falls back to DefaultResolution.
func New(res int) *Index {
	if res <= 0 || res > 15 {
		res = DefaultResolution
	}
	return &Index{
		res:      res,
		cellToID: make(map[h3.Cell]map[string]struct{}),
		idToCell: make(map[string][]h3.Cell),
	}
}

// Upsert (re)indexes id under the cells covering ring's bounding box,
// replacing any cells previously indexed for id. An empty ring, or one
// whose bounds cannot be computed, removes id from the index.
func (idx *Index) Upsert(id string, ring []geometry.Point) error {
	if len(ring) < 1 {
		idx.Remove(id)
		return nil
	}
	bb, err := geometry.Bounds(ring)
	if err != nil {
		idx.Remove(id)
		return nil
	}
	cells, err := cellsForBBox(bb, idx.res)
	if err != nil {
		return fmt.Errorf("spatialindex: cover bbox: %w", err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
	idx.idToCell[id] = cells
	for _, c := range cells {
		set, ok := idx.cellToID[c]
		if !ok {
			set = make(map[string]struct{})
			idx.cellToID[c] = set
		}
		set[id] = struct{}{}
	}
	return nil
}

// Remove drops id from the index entirely.
func (idx *Index) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
}

func (idx *Index) removeLocked(id string) {
	for _, c := range idx.idToCell[id] {
		if set, ok := idx.cellToID[c]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(idx.cellToID, c)
			}
		}
	}
	delete(idx.idToCell, id)
}

// CandidatesNear returns the ids whose bounding box cell, or an
// immediate ring-1 neighbor of it, contains p — a superset of the
// features select-mode's fine-grained hit test must then check
// exactly, cheap enough to call on every click and mousemove.
func (idx *Index) CandidatesNear(p geometry.Point) ([]string, error) {
	origin, err := h3.LatLngToCell(h3.LatLng{Lat: p.Lat, Lng: p.Lng}, idx.res)
	if err != nil {
		return nil, fmt.Errorf("spatialindex: cell for point: %w", err)
	}
	disk, err := h3.GridDisk(origin, 1)
	if err != nil {
		return nil, fmt.Errorf("spatialindex: grid disk: %w", err)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, c := range disk {
		for id := range idx.cellToID[c] {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// Len reports how many distinct feature ids are currently indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.idToCell)
}

func cellsForBBox(bb geometry.BBox, res int) ([]h3.Cell, error) {
	loop := h3.GeoLoop{
		{Lat: bb.MinLat, Lng: bb.MinLng},
		{Lat: bb.MinLat, Lng: bb.MaxLng},
		{Lat: bb.MaxLat, Lng: bb.MaxLng},
		{Lat: bb.MaxLat, Lng: bb.MinLng},
	}
	if bb.MinLng == bb.MaxLng && bb.MinLat == bb.MaxLat {
		// A single point has no area to polyfill; index its own cell.
		c, err := h3.LatLngToCell(h3.LatLng{Lat: bb.MinLat, Lng: bb.MinLng}, res)
		if err != nil {
			return nil, err
		}
		return []h3.Cell{c}, nil
	}
	cells, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: loop}, res)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		// Degenerate thin bbox (e.g. a near-vertical line) can polyfill
		// to nothing; fall back to the centroid's own cell.
		mid := h3.LatLng{Lat: (bb.MinLat + bb.MaxLat) / 2, Lng: (bb.MinLng + bb.MaxLng) / 2}
		c, err := h3.LatLngToCell(mid, res)
		if err != nil {
			return nil, err
		}
		return []h3.Cell{c}, nil
	}
	return cells, nil
}
