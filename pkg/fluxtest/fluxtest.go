package fluxtest

import (
	"sync"
	"testing"

	"github.com/fluxbind-dev/fluxbind/pkg/fluxbind"
)

// BuilderFunc adapts a function to the fluxbind.StateBuilder interface.
//
// Example:
//
//	builder := fluxtest.BuilderFunc(func(props fluxbind.Props, initial bool) fluxbind.State {
//	    return fluxbind.State{"x": store.Get("x")}
//	})
type BuilderFunc func(props fluxbind.Props, initial bool) fluxbind.State

// BuildState implements fluxbind.StateBuilder.
func (f BuilderFunc) BuildState(props fluxbind.Props, initial bool) fluxbind.State {
	return f(props, initial)
}

// Host is a recording stand-in for a host framework's state-update
// primitive. Pass Apply to fluxbind.NewBinding or fluxbind.NewWatcher.
type Host struct {
	mu     sync.Mutex
	states []fluxbind.State
}

// NewHost creates an empty recording host.
func NewHost() *Host {
	return &Host{}
}

// Apply records one applied draft. It has the signature of the host
// state-update primitive.
func (h *Host) Apply(draft fluxbind.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, draft)
}

// Count returns the number of drafts applied so far.
func (h *Host) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.states)
}

// States returns a copy of all applied drafts, in application order.
func (h *Host) States() []fluxbind.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]fluxbind.State, len(h.states))
	copy(out, h.states)
	return out
}

// Last returns the most recently applied draft, or nil.
func (h *Host) Last() fluxbind.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.states) == 0 {
		return nil
	}
	return h.states[len(h.states)-1]
}

// Reset discards all recorded drafts.
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = nil
}

// Indexed is the store-side view of the subscription index used by the
// Expect helpers. fluxbind.StoreBase satisfies it, so any store embedding
// StoreBase does too.
type Indexed interface {
	SubscriptionCount() int
	SubscriptionsFor(ownerID uint64) int
}

// ExpectSubscriptions asserts the watcher's registry size.
func ExpectSubscriptions(t *testing.T, w *fluxbind.Watcher, want int) {
	t.Helper()
	if got := w.SubscriptionCount(); got != want {
		t.Errorf("expected %d subscriptions in the registry, got %d", want, got)
	}
}

// ExpectIndexed asserts how many subscriptions a store indexes in total.
func ExpectIndexed(t *testing.T, store Indexed, want int) {
	t.Helper()
	if got := store.SubscriptionCount(); got != want {
		t.Errorf("expected %d indexed subscriptions, got %d", want, got)
	}
}

// ExpectIndexedFor asserts how many subscriptions a store indexes for one
// watcher.
func ExpectIndexedFor(t *testing.T, store Indexed, w *fluxbind.Watcher, want int) {
	t.Helper()
	if got := store.SubscriptionsFor(w.ID()); got != want {
		t.Errorf("expected %d indexed subscriptions for watcher %d, got %d", want, w.ID(), got)
	}
}

// ExpectKeys asserts the exact subscribed key set, in registry order.
func ExpectKeys(t *testing.T, w *fluxbind.Watcher, want ...fluxbind.StoreKey) {
	t.Helper()
	subs := w.Subscriptions()
	if len(subs) != len(want) {
		t.Errorf("expected %d subscriptions, got %d", len(want), len(subs))
		return
	}
	for i, sub := range subs {
		if sub.Key() != want[i] {
			t.Errorf("subscription %d: key %q, want %q", i, sub.Key(), want[i])
		}
	}
}
