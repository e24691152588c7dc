// Package adapter defines the host-map contract spec.md §4.F names:
// the thin seam between a mode and whatever renders the map (MapLibre,
// Leaflet, Google Maps, or — for tests and the simulator — nothing at
// all).
package adapter

import "github.com/mohammed-shakir/terradraw-core/internal/geometry"

// Adapter is implemented once per host map library. The coordinator
// wires its methods into every mode's Config at Register time, per
// spec.md §4.F "the adapter owns projection and host map chrome; a
// mode never reaches into the map library directly."
type Adapter interface {
	// Project converts a lng/lat coordinate to the host map's current
	// screen-pixel space.
	Project(p geometry.Point) geometry.Pixel
	// Unproject is Project's inverse.
	Unproject(x, y float64) geometry.Point

	SetCursor(name string)
	SetMapDraggability(enabled bool)
	SetDoubleClickToZoom(enabled bool)

	// GetLngLatFromEvent resolves a raw pointer event's container
	// coordinates to a map coordinate. The coordinator does not call it:
	// its Dispatch methods take an already-resolved mode.PointerEvent.
	GetLngLatFromEvent(containerX, containerY float64) geometry.Point
}
