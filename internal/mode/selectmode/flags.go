// Package selectmode implements spec.md §4.E, the composite select
// state machine: hit testing, selection switching, overlay (selection
// point / midpoint) management, feature and coordinate dragging,
// resize, rotate, and key-driven delete/deselect.
package selectmode

// CoordinateFlags configures per-vertex behaviour for a selectable
// geometry kind, per spec.md §4.E "Flags".
type CoordinateFlags struct {
	Draggable bool
	Deletable bool
	Midpoints bool
	// Resizable is "center", "opposite", or "" (disabled).
	Resizable string
	Rotatable bool
}

// FeatureFlags configures whether a geometry kind is selectable at all
// and what its selected feature/coordinates support.
type FeatureFlags struct {
	FeatureDraggable bool
	Coordinates      *CoordinateFlags // nil: no coordinate-level interaction
}

// Flags maps a mode name (the feature's reserved "mode" property) to
// its selection flags. A missing entry means that geometry kind is not
// selectable, per spec.md §4.E.
type Flags map[string]FeatureFlags

// KeyConfig is the key-event configuration spec.md §4.E names; a nil
// slice/empty string disables that binding.
type KeyConfig struct {
	Deselect string
	Delete   string
	Rotate   []string
	Scale    []string
}

func (k KeyConfig) hasRotateKey(held []string) bool {
	return anyKeyHeld(k.Rotate, held)
}

func (k KeyConfig) hasScaleKey(held []string) bool {
	return anyKeyHeld(k.Scale, held)
}

func anyKeyHeld(keys, held []string) bool {
	if len(keys) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(held))
	for _, h := range held {
		set[h] = struct{}{}
	}
	for _, k := range keys {
		if _, ok := set[k]; ok {
			return true
		}
	}
	return false
}

// Options configures select-mode-wide behaviour beyond per-geometry
// Flags.
type Options struct {
	Flags       Flags
	Keys        KeyConfig
	// AllowManualDeselection defaults to true, per spec.md §4.E.1.
	AllowManualDeselection *bool
	// MinPixelDragDistance defaults to 8, per spec.md §4.E.4.
	MinPixelDragDistance float64
}

func (o Options) allowManualDeselection() bool {
	if o.AllowManualDeselection == nil {
		return true
	}
	return *o.AllowManualDeselection
}

func (o Options) minPixelDragDistance() float64 {
	if o.MinPixelDragDistance > 0 {
		return o.MinPixelDragDistance
	}
	return 8
}
