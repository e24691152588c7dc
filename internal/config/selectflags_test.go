package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSelectOptions_ParsesNestedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flags.yaml")
	content := `
flags:
  polygon:
    featureDraggable: true
    coordinates:
      draggable: true
      deletable: true
      midpoints: true
      resizable: center
      rotatable: true
keys:
  deselect: Escape
  delete: Delete
  rotate: [Shift]
  scale: [Alt]
allowManualDeselection: false
minPixelDragDistance: 12
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	opts, err := LoadSelectOptions(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	poly, ok := opts.Flags["polygon"]
	if !ok || poly.Coordinates == nil {
		t.Fatalf("expected polygon flags with coordinates, got %+v", opts.Flags)
	}
	if poly.Coordinates.Resizable != "center" || !poly.Coordinates.Rotatable {
		t.Fatalf("unexpected coordinate flags: %+v", poly.Coordinates)
	}
	if opts.Keys.Delete != "Delete" || len(opts.Keys.Rotate) != 1 || opts.Keys.Rotate[0] != "Shift" {
		t.Fatalf("unexpected key config: %+v", opts.Keys)
	}
	if opts.AllowManualDeselection == nil || *opts.AllowManualDeselection {
		t.Fatalf("expected allowManualDeselection=false")
	}
	if opts.MinPixelDragDistance != 12 {
		t.Fatalf("expected minPixelDragDistance=12, got %v", opts.MinPixelDragDistance)
	}
}

func TestLoadSelectOptions_EmptyPathReturnsZeroValue(t *testing.T) {
	opts, err := LoadSelectOptions("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(opts.Flags) != 0 {
		t.Fatalf("expected no flags, got %+v", opts.Flags)
	}
}
