package mode

import (
	"errors"
	"testing"

	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

func TestBase_LifecycleHappyPath(t *testing.T) {
	b := NewBase("point", "crosshair")
	var cursor string
	cfg := Config{Store: store.New(), SetCursor: func(c string) { cursor = c }}

	if err := b.Register(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cursor != "crosshair" {
		t.Fatalf("expected cursor crosshair, got %q", cursor)
	}
	if b.State() != StateStarted {
		t.Fatalf("expected started, got %v", b.State())
	}
	if err := b.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cursor != "unset" {
		t.Fatalf("expected cursor reset to unset, got %q", cursor)
	}
}

func TestBase_StartBeforeRegisterFails(t *testing.T) {
	b := NewBase("point", "crosshair")
	err := b.Start()
	var merr *model.Error
	if !errors.As(err, &merr) || merr.Kind != model.KindNotRegistered {
		t.Fatalf("expected NotRegistered, got %v", err)
	}
}

func TestBase_DoubleRegisterFails(t *testing.T) {
	b := NewBase("point", "crosshair")
	cfg := Config{Store: store.New()}
	if err := b.Register(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := b.Register(cfg)
	var merr *model.Error
	if !errors.As(err, &merr) || merr.Kind != model.KindAlreadyRegistered {
		t.Fatalf("expected AlreadyRegistered, got %v", err)
	}
}

func TestBase_StyleFeature_LiteralAndFunc(t *testing.T) {
	b := NewBase("polygon", "crosshair")
	_ = b.SetStyle("fillColor", "#ff0000")
	_ = b.SetStyle("outlineColor", StyleFunc(func(f model.Feature) any {
		if f.Properties.Bool(model.PropSelected) {
			return "#00ff00"
		}
		return "#000000"
	}))

	selected := model.Feature{Properties: model.Properties{model.PropSelected: true}}
	resolved := b.StyleFeature(selected)
	if resolved["fillColor"] != "#ff0000" {
		t.Fatalf("expected literal style passthrough, got %v", resolved["fillColor"])
	}
	if resolved["outlineColor"] != "#00ff00" {
		t.Fatalf("expected function style to react to selected, got %v", resolved["outlineColor"])
	}
}
