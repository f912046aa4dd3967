package fluxbind

import "log/slog"

// UpdateCheck carries the values compared by an update-skip decision:
// previous and next props, state, and any ambient context the host wants
// considered.
type UpdateCheck struct {
	PrevProps   Props
	NextProps   Props
	PrevState   State
	NextState   State
	PrevContext any
	NextContext any
}

// ShouldUpdateFunc is a user-overridable update-skip policy.
type ShouldUpdateFunc func(UpdateCheck) bool

// DefaultShouldUpdate reports an update when any of props, state, or
// ambient context differ under the package Equal comparison.
func DefaultShouldUpdate(c UpdateCheck) bool {
	return !Equal(c.PrevProps, c.NextProps) ||
		!Equal(c.PrevState, c.NextState) ||
		!Equal(c.PrevContext, c.NextContext)
}

// Binding is the glue between a host framework's component lifecycle and a
// watcher. The host calls Mount on first materialization, PropsChanged on
// every prop-change evaluation, ShouldUpdate for its re-render decision,
// Output around visible-output production, and Unmount on teardown.
type Binding struct {
	watcher      *Watcher
	shouldUpdate ShouldUpdateFunc
}

// NewBinding constructs a binding around a new, unmounted watcher.
// apply is the host's state-update primitive; it receives the non-empty
// draft of every store-triggered rebuild.
func NewBinding(builder StateBuilder, props Props, apply func(State)) *Binding {
	return &Binding{
		watcher:      NewWatcher(builder, props, apply),
		shouldUpdate: DefaultShouldUpdate,
	}
}

// WithShouldUpdate overrides the update-skip policy for this binding.
func (b *Binding) WithShouldUpdate(fn ShouldUpdateFunc) *Binding {
	if fn != nil {
		b.shouldUpdate = fn
	}
	return b
}

// Watcher returns the owner this binding drives.
// Panics with ErrMissingOwner if the binding has none: continuing without
// an owner reference makes reconciliation meaningless.
func (b *Binding) Watcher() *Watcher {
	if b.watcher == nil {
		panic(ErrMissingOwner)
	}
	return b.watcher
}

// Mount runs the initial build and returns the first materialized state.
func (b *Binding) Mount() State {
	return b.Watcher().BuildInitial()
}

// PropsChanged forwards a prop-change evaluation to the watcher.
// The returned bool is the rebuild-required signal: true when the props
// differed and the rebuild produced a non-empty draft.
func (b *Binding) PropsChanged(next Props) (State, bool) {
	return b.Watcher().Rebuild(next)
}

// ShouldUpdate evaluates the update-skip policy.
func (b *Binding) ShouldUpdate(c UpdateCheck) bool {
	return b.shouldUpdate(c)
}

// Output runs a visible-output producer under the error-catching policy.
//
// Output production is a separate phase from the build: reads are not
// intercepted here, and a panic never leaves subscriptions
// half-reconciled. Under the production policy (CatchOutputErrors true,
// DevMode false) a panic is suppressed and an empty output substituted, so
// one failing owner cannot make the host application permanently unusable.
// In development the panic propagates to surface the bug immediately.
func (b *Binding) Output(produce func() any) (out any) {
	if CatchOutputErrors && !DevMode {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("fluxbind: output production failed, substituting empty output",
					"kind", b.Watcher().Kind(),
					"panic", r)
				out = nil
			}
		}()
	}
	return produce()
}

// Unmount tears the watcher down. Safe to call more than once and with no
// subscriptions registered.
func (b *Binding) Unmount() {
	b.Watcher().Teardown()
}
