package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v2"

	"github.com/mohammed-shakir/terradraw-core/internal/mode/selectmode"
)

// selectFlagsFile is the on-disk shape of the per-mode select-flags and
// key-binding file a deployment may supply via Config.FlagsPath.
type selectFlagsFile struct {
	Flags                  map[string]featureFlagsYAML `yaml:"flags"`
	Keys                   keyConfigYAML               `yaml:"keys"`
	AllowManualDeselection *bool                        `yaml:"allowManualDeselection"`
	MinPixelDragDistance   float64                      `yaml:"minPixelDragDistance"`
}

type coordinateFlagsYAML struct {
	Draggable bool   `yaml:"draggable"`
	Deletable bool   `yaml:"deletable"`
	Midpoints bool   `yaml:"midpoints"`
	Resizable string `yaml:"resizable"`
	Rotatable bool   `yaml:"rotatable"`
}

type featureFlagsYAML struct {
	FeatureDraggable bool                  `yaml:"featureDraggable"`
	Coordinates      *coordinateFlagsYAML `yaml:"coordinates"`
}

type keyConfigYAML struct {
	Deselect string   `yaml:"deselect"`
	Delete   string   `yaml:"delete"`
	Rotate   []string `yaml:"rotate"`
	Scale    []string `yaml:"scale"`
}

// LoadSelectOptions reads a nested per-mode flags/key-binding YAML file
// into selectmode.Options. An empty path returns zero-value Options
// (every mode unselectable until the caller sets flags programmatically).
func LoadSelectOptions(path string) (selectmode.Options, error) {
	if path == "" {
		return selectmode.Options{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return selectmode.Options{}, fmt.Errorf("read select flags %q: %w", path, err)
	}
	var file selectFlagsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return selectmode.Options{}, fmt.Errorf("parse select flags %q: %w", path, err)
	}

	flags := make(selectmode.Flags, len(file.Flags))
	for name, f := range file.Flags {
		ff := selectmode.FeatureFlags{FeatureDraggable: f.FeatureDraggable}
		if f.Coordinates != nil {
			ff.Coordinates = &selectmode.CoordinateFlags{
				Draggable: f.Coordinates.Draggable,
				Deletable: f.Coordinates.Deletable,
				Midpoints: f.Coordinates.Midpoints,
				Resizable: f.Coordinates.Resizable,
				Rotatable: f.Coordinates.Rotatable,
			}
		}
		flags[name] = ff
	}

	return selectmode.Options{
		Flags: flags,
		Keys: selectmode.KeyConfig{
			Deselect: file.Keys.Deselect,
			Delete:   file.Keys.Delete,
			Rotate:   file.Keys.Rotate,
			Scale:    file.Keys.Scale,
		},
		AllowManualDeselection: file.AllowManualDeselection,
		MinPixelDragDistance:   file.MinPixelDragDistance,
	}, nil
}
