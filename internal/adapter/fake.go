package adapter

import "github.com/mohammed-shakir/terradraw-core/internal/geometry"

// FakeAdapter is a scripted, in-memory Adapter used by tests and by
// cmd/terradraw-sim in place of a real map library, grounded on the
// teacher's cmd/loadgen scripted-client role: no network, no
// rendering, just a linear projection and a record of every chrome
// call so a test can assert on it.
type FakeAdapter struct {
	Scale float64 // pixels per degree, default 1 if zero

	CursorHistory       []string
	DraggabilityHistory []bool
	DoubleClickHistory  []bool
}

// NewFakeAdapter returns a FakeAdapter with a 1:1 degree-to-pixel scale.
func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{Scale: 1}
}

func (f *FakeAdapter) scale() float64 {
	if f.Scale == 0 {
		return 1
	}
	return f.Scale
}

func (f *FakeAdapter) Project(p geometry.Point) geometry.Pixel {
	s := f.scale()
	return geometry.Pixel{X: p.Lng * s, Y: p.Lat * s}
}

func (f *FakeAdapter) Unproject(x, y float64) geometry.Point {
	s := f.scale()
	return geometry.Point{Lng: x / s, Lat: y / s}
}

func (f *FakeAdapter) SetCursor(name string) {
	f.CursorHistory = append(f.CursorHistory, name)
}

func (f *FakeAdapter) SetMapDraggability(enabled bool) {
	f.DraggabilityHistory = append(f.DraggabilityHistory, enabled)
}

func (f *FakeAdapter) SetDoubleClickToZoom(enabled bool) {
	f.DoubleClickHistory = append(f.DoubleClickHistory, enabled)
}

func (f *FakeAdapter) GetLngLatFromEvent(containerX, containerY float64) geometry.Point {
	return f.Unproject(containerX, containerY)
}

// CurrentCursor returns the most recently set cursor, or "" if none.
func (f *FakeAdapter) CurrentCursor() string {
	if len(f.CursorHistory) == 0 {
		return ""
	}
	return f.CursorHistory[len(f.CursorHistory)-1]
}
