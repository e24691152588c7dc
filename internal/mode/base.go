// Package mode implements the lifecycle and style-resolution base that
// every draw mode and the select mode embed, per spec.md §4.C.
package mode

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/terradraw-core/internal/geocache"
	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/spatialindex"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

// State is the mode lifecycle spec.md §4.C names.
type State string

const (
	StateUnregistered State = "unregistered"
	StateRegistered    State = "registered"
	StateStarted       State = "started"
	StateStopped       State = "stopped"
)

// PointerEvent is the normalised pointer shape spec.md §6 defines,
// produced by an adapter and consumed by every mode.
type PointerEvent struct {
	Lng, Lat           float64
	ContainerX, ContainerY float64
	Button             string // "left" | "right" | "middle"
	HeldKeys           []string
}

func (e PointerEvent) Point() geometry.Point { return geometry.Point{Lng: e.Lng, Lat: e.Lat} }

func (e PointerEvent) HasKey(k string) bool {
	for _, h := range e.HeldKeys {
		if h == k {
			return true
		}
	}
	return false
}

// KeyEvent carries a single key press/release.
type KeyEvent struct {
	Key string
}

// StyleFunc resolves a style value for a given feature; literal style
// values are wrapped as constant StyleFuncs at assignment time, per
// spec.md §9 "Style functions".
type StyleFunc func(f model.Feature) any

// Styles maps style keys to resolver functions.
type Styles map[string]StyleFunc

// Config is supplied once via Register and never mutated afterwards.
type Config struct {
	Store               store.Store
	Project             geometry.Projector
	Unproject           func(x, y float64) geometry.Point
	SetCursor           func(name string)
	SetMapDraggability  func(enabled bool)
	OnChange            func(ids []string, op string)
	OnSelect            func(id string)
	OnDeselect          func(id string)
	OnFinish            func(id string, meta FinishMeta)
	PointerDistancePx   float64
	Log                 zerolog.Logger

	// SpatialIndex, when non-nil, narrows select mode's hit-testing to
	// a small candidate set instead of scanning every store feature. The coordinator keeps it in sync
	// with store mutations; a mode never writes to it directly.
	SpatialIndex *spatialindex.Index

	// GeoCache, when non-nil, memoizes per-feature centroid/bbox
	// derivations so repeated select-mode gestures over an unchanged
	// ring skip recomputing them.
	GeoCache *geocache.Cache
}

// FinishMeta accompanies OnFinish per spec.md §6.
type FinishMeta struct {
	Action string
	Mode   string
}

func (c Config) pointerDistance() float64 {
	if c.PointerDistancePx > 0 {
		return c.PointerDistancePx
	}
	return 40
}

// Base implements the shared lifecycle, styles and scope-to-onChange
// wiring every mode embeds. Concrete modes embed *Base and override the
// event sinks they need; the rest stay inert (spec.md §4.C).
type Base struct {
	name    string
	state   State
	cfg     Config
	styles  Styles
	cursorOnStart string
}

// NewBase constructs an unregistered mode base. cursorOnStart is the
// cursor the base sets in Start (e.g. "crosshair" for draw modes,
// "move" for select).
func NewBase(name, cursorOnStart string) *Base {
	return &Base{name: name, state: StateUnregistered, cursorOnStart: cursorOnStart}
}

// Name returns the mode's registered name (used as the feature's
// reserved "mode" property).
func (b *Base) Name() string { return b.name }

// State is read-only; direct external mutation is not exposed — the
// only way to change it is through Register/Start/Stop, matching
// spec.md §4.C's "Direct assignment fails with IllegalStateWrite": the
// Go rendition of that invariant is simply not exposing a setter.
func (b *Base) State() State { return b.state }

func (b *Base) Config() Config { return b.cfg }

func (b *Base) Styles() Styles { return b.styles }

// SetStyles assigns styles wholesale; spec.md §4.C requires a mapping —
// Go's type system enforces that statically. SetStyle below wraps any
// non-function value as a constant and always returns nil, so neither
// method ever reports InvalidStyles.
func (b *Base) SetStyles(s Styles) { b.styles = s }

// SetStyle assigns a single style key. value may be a StyleFunc or a
// literal, wrapped as a constant function per spec.md §9.
func (b *Base) SetStyle(key string, value any) error {
	if b.styles == nil {
		b.styles = Styles{}
	}
	switch v := value.(type) {
	case StyleFunc:
		b.styles[key] = v
	case func(model.Feature) any:
		b.styles[key] = v
	default:
		b.styles[key] = func(model.Feature) any { return v }
	}
	return nil
}

// StyleFeature evaluates every style function against f.
func (b *Base) StyleFeature(f model.Feature) map[string]any {
	out := make(map[string]any, len(b.styles))
	for k, fn := range b.styles {
		out[k] = fn(f)
	}
	return out
}

// Register is single-use: a second call fails AlreadyRegistered.
func (b *Base) Register(cfg Config) error {
	if b.state != StateUnregistered {
		return model.NewError(model.KindAlreadyRegistered, "mode %q already registered", b.name)
	}
	b.cfg = cfg
	b.state = StateRegistered
	return nil
}

// Start requires prior Register; sets the cursor and transitions to
// started.
func (b *Base) Start() error {
	if b.state == StateUnregistered {
		return model.NewError(model.KindNotRegistered, "mode %q: start before register", b.name)
	}
	b.state = StateStarted
	if b.cfg.SetCursor != nil && b.cursorOnStart != "" {
		b.cfg.SetCursor(b.cursorOnStart)
	}
	return nil
}

// Stop requires prior Register; restores the cursor to "unset".
func (b *Base) Stop() error {
	if b.state == StateUnregistered {
		return model.NewError(model.KindNotRegistered, "mode %q: stop before register", b.name)
	}
	b.state = StateStopped
	if b.cfg.SetCursor != nil {
		b.cfg.SetCursor("unset")
	}
	return nil
}

// RequireStarted is a guard helper event sinks call before acting.
func (b *Base) RequireStarted() error {
	if b.state != StateStarted {
		return model.NewError(model.KindNotRegistered, "mode %q: event delivered while not started (state=%s)", b.name, b.state)
	}
	return nil
}

// OpenScope opens a store mutation scope whose batch, on Close, is
// reported to the adapter via cfg.OnChange — one onChange call per
// non-empty bucket, grouped by operation kind, per spec.md §6.
func (b *Base) OpenScope() *store.Scope {
	return b.cfg.Store.Scope(func(batch model.ChangeBatch) {
		if b.cfg.OnChange == nil {
			return
		}
		if len(batch.Created) > 0 {
			b.cfg.OnChange(batch.Created, "create")
		}
		if len(batch.Updated) > 0 {
			b.cfg.OnChange(batch.Updated, "update")
		}
		if len(batch.Deleted) > 0 {
			b.cfg.OnChange(batch.Deleted, "delete")
		}
	})
}

func (b *Base) logEvent(event string, fields map[string]any) {
	e := b.cfg.Log.Debug().Str("mode", b.name).Str("event", event)
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg("mode event")
}

// String satisfies fmt.Stringer for log-friendly debugging.
func (b *Base) String() string { return fmt.Sprintf("Mode(%s, state=%s)", b.name, b.state) }
