package mode

// Mode is the capability set every draw mode and the select mode
// implement, per spec.md §9 "model as a tagged variant or
// trait/interface. Avoid deep inheritance." Modes compose a *Base
// rather than subclassing through layers, and override only the event
// sinks they need — the embedded no-op defaults keep the rest inert.
type Mode interface {
	Name() string
	State() State
	Register(cfg Config) error
	Start() error
	Stop() error

	OnClick(e PointerEvent) error
	OnMouseMove(e PointerEvent) error
	OnKeyDown(e KeyEvent) error
	OnKeyUp(e KeyEvent) error
	OnDragStart(e PointerEvent) error
	OnDrag(e PointerEvent) error
	OnDragEnd(e PointerEvent) error
}

// NoopEvents provides inert defaults for every event sink so a
// concrete mode only needs to override what it uses. Embed this
// alongside *Base.
type NoopEvents struct{}

func (NoopEvents) OnClick(PointerEvent) error      { return nil }
func (NoopEvents) OnMouseMove(PointerEvent) error  { return nil }
func (NoopEvents) OnKeyDown(KeyEvent) error        { return nil }
func (NoopEvents) OnKeyUp(KeyEvent) error          { return nil }
func (NoopEvents) OnDragStart(PointerEvent) error  { return nil }
func (NoopEvents) OnDrag(PointerEvent) error       { return nil }
func (NoopEvents) OnDragEnd(PointerEvent) error    { return nil }
