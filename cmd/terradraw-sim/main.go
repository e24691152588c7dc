// Command terradraw-sim replays a scripted JSON stream of pointer/key
// events against the coordinator wired to a FakeAdapter, printing the
// resulting change batches and lifecycle callbacks to stdout. It
// exists to exercise and demonstrate the engine end-to-end without a
// real map-library adapter, grounded on the teacher's cmd/loadgen
// shape: build a request stream, fire it at the system, report
// outcomes.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mohammed-shakir/terradraw-core/internal/adapter"
	"github.com/mohammed-shakir/terradraw-core/internal/coordinator"
	"github.com/mohammed-shakir/terradraw-core/internal/logger"
	"github.com/mohammed-shakir/terradraw-core/internal/mode"
	"github.com/mohammed-shakir/terradraw-core/internal/mode/draw"
	"github.com/mohammed-shakir/terradraw-core/internal/mode/selectmode"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

// scriptEvent is one line of the replayed script. Only the fields
// relevant to Type are read; the rest are zero-valued.
type scriptEvent struct {
	Type       string   `json:"type"`
	Mode       string   `json:"mode,omitempty"`
	Lng        float64  `json:"lng,omitempty"`
	Lat        float64  `json:"lat,omitempty"`
	ContainerX float64  `json:"containerX,omitempty"`
	ContainerY float64  `json:"containerY,omitempty"`
	Button     string   `json:"button,omitempty"`
	HeldKeys   []string `json:"heldKeys,omitempty"`
	Key        string   `json:"key,omitempty"`
}

func main() {
	var in io.Reader = os.Stdin
	if len(os.Args) > 1 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "terradraw-sim: open script:", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	log := logger.Build(logger.Config{Level: "warn", Component: "terradraw-sim"}, os.Stderr)

	st := store.New()
	a := adapter.NewFakeAdapter()
	coord := coordinator.New(st, a, log, 9, 256)

	coord.OnChange(func(ids []string, op string) { printEvent("change", map[string]any{"ids": ids, "op": op}) })
	coord.OnSelect(func(id string) { printEvent("select", map[string]any{"id": id}) })
	coord.OnDeselect(func(id string) { printEvent("deselect", map[string]any{"id": id}) })
	coord.OnFinish(func(id string, meta mode.FinishMeta) {
		printEvent("finish", map[string]any{"id": id, "action": meta.Action, "mode": meta.Mode})
	})

	draggable := selectmode.FeatureFlags{FeatureDraggable: true, Coordinates: &selectmode.CoordinateFlags{
		Draggable: true, Deletable: true, Midpoints: true, Resizable: "opposite", Rotatable: true,
	}}
	selOpts := selectmode.Options{Flags: selectmode.Flags{
		draw.ModeNamePoint:       draggable,
		draw.ModeNameLineString:  draggable,
		draw.ModeNamePolygon:     draggable,
		draw.ModeNameCircle:      draggable,
		draw.ModeNameRectangle:   draggable,
		draw.ModeNameFreehand:    draggable,
		draw.ModeNameGreatCircle: draggable,
	}}

	for _, m := range []mode.Mode{
		draw.NewPointMode(),
		draw.NewLineStringMode(),
		draw.NewPolygonMode(),
		draw.NewCircleMode(),
		draw.NewRectangleMode(),
		draw.NewFreehandMode(),
		draw.NewGreatCircleMode(),
		selectmode.NewSelectMode(selOpts),
	} {
		if err := coord.Register(m, 40); err != nil {
			fmt.Fprintln(os.Stderr, "terradraw-sim: register mode:", err)
			os.Exit(1)
		}
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev scriptEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			fmt.Fprintln(os.Stderr, "terradraw-sim: bad script line:", err)
			os.Exit(1)
		}
		if err := dispatch(coord, ev); err != nil {
			printEvent("error", map[string]any{"type": ev.Type, "err": err.Error()})
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "terradraw-sim: read script:", err)
		os.Exit(1)
	}
}

func dispatch(coord *coordinator.Coordinator, ev scriptEvent) error {
	p := mode.PointerEvent{
		Lng: ev.Lng, Lat: ev.Lat,
		ContainerX: ev.ContainerX, ContainerY: ev.ContainerY,
		Button: ev.Button, HeldKeys: ev.HeldKeys,
	}
	switch ev.Type {
	case "setMode":
		return coord.SetMode(ev.Mode)
	case "click":
		return coord.DispatchClick(p)
	case "mouseMove":
		return coord.DispatchMouseMove(p)
	case "dragStart":
		return coord.DispatchDragStart(p)
	case "drag":
		return coord.DispatchDrag(p)
	case "dragEnd":
		return coord.DispatchDragEnd(p)
	case "keyDown":
		return coord.DispatchKeyDown(mode.KeyEvent{Key: ev.Key})
	case "keyUp":
		return coord.DispatchKeyUp(mode.KeyEvent{Key: ev.Key})
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
}

func printEvent(kind string, fields map[string]any) {
	fields["event"] = kind
	b, err := json.Marshal(fields)
	if err != nil {
		return
	}
	fmt.Println(string(b))
}
