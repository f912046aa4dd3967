package fluxbind

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Props carries a component's configuration into its builder.
type Props map[string]any

// State is a draft or materialized component state. A builder may return an
// empty or nil State to signal "nothing to display"; drafts merge into the
// materialized state key-wise.
type State map[string]any

// StateBuilder computes an owner's draft state from props.
// It is the one required capability of a component kind.
//
// Store reads performed inside BuildState are intercepted and become the
// owner's subscriptions for the build. Reads belong in BuildState only,
// never in output production.
type StateBuilder interface {
	// BuildState returns the draft state for the given props.
	// initial is true exactly once, for the first build after construction.
	BuildState(props Props, initial bool) State
}

// AfterFirstBuild is an optional hook on a StateBuilder, invoked once after
// the initial build's state has been materialized.
type AfterFirstBuild interface {
	AfterFirstBuild()
}

// Watcher owns the subscription set for one component instance and drives
// mark-and-sweep reconciliation on every build.
//
// Invariant: at the end of any completed build, the watcher's subscription
// set is exactly the set of (store, key) pairs read during that build, with
// duplicates coalesced by (store identity, key) and specific keys absorbed
// by an existing KeyAll subscription on the same store.
//
// A Watcher is not safe for concurrent builds; all builds, notifications,
// and teardown are expected to run on one goroutine, in the cooperative
// single-threaded style of a UI event loop. Store indexes are internally
// locked, so distinct watchers on distinct goroutines may share stores.
type Watcher struct {
	id      uint64
	builder StateBuilder

	// kind is the builder's concrete type, reported to instrumentation.
	kind string

	props Props
	state State

	// subs is the ordered registry: creation order is read-observation order.
	subs []*Subscription

	// active gates store notifications. It replaces an unsynchronized
	// mounted flag so the race between an in-flight notification and
	// teardown is an explicit, testable condition.
	active atomic.Bool

	built    bool
	tornDown atomic.Bool

	// apply is the host framework's state-update primitive. Invoked with
	// the non-empty draft of every store-triggered rebuild.
	apply func(State)

	// notify is the stable store-change callback created at construction.
	// Every subscription this watcher creates shares it.
	notify func()
}

// NewWatcher constructs an inactive watcher with no subscriptions.
// apply is the host's state-update primitive and may be nil when
// store-triggered drafts need no forwarding (e.g. in tests).
func NewWatcher(builder StateBuilder, props Props, apply func(State)) *Watcher {
	w := &Watcher{
		id:      nextID(),
		builder: builder,
		kind:    fmt.Sprintf("%T", builder),
		props:   props,
		apply:   apply,
	}
	w.notify = w.onStoreChange
	return w
}

// ID returns the watcher's unique identifier.
func (w *Watcher) ID() uint64 {
	return w.id
}

// Kind returns the builder's concrete type name.
func (w *Watcher) Kind() string {
	return w.kind
}

// Active reports whether the watcher is mounted and accepting notifications.
func (w *Watcher) Active() bool {
	return w.active.Load()
}

// Props returns the watcher's current props.
func (w *Watcher) Props() Props {
	return w.props
}

// State returns the materialized state. Nil before the initial build.
func (w *Watcher) State() State {
	return w.state
}

// SubscriptionCount returns the number of live subscriptions.
func (w *Watcher) SubscriptionCount() int {
	return len(w.subs)
}

// Subscriptions returns the live subscriptions in registry order.
// The returned slice is a copy; the registry itself is owned exclusively
// by the watcher.
func (w *Watcher) Subscriptions() []*Subscription {
	out := make([]*Subscription, len(w.subs))
	copy(out, w.subs)
	return out
}

// BuildInitial runs the first build, materializes its state, and activates
// the watcher. Must be called exactly once, before any update-skip decision
// is evaluated; a second call panics with ErrAlreadyBuilt.
func (w *Watcher) BuildInitial() State {
	if w.built {
		panic(ErrAlreadyBuilt)
	}
	w.built = true

	draft := w.reconcileBuild(func() State {
		return w.builder.BuildState(w.props, true)
	})

	w.state = State{}
	w.merge(draft)
	w.active.Store(true)

	if hook, ok := w.builder.(AfterFirstBuild); ok {
		hook.AfterFirstBuild()
	}
	return w.state
}

// Rebuild re-runs the build for a prop change.
//
// When the Equal policy judges current and next props equal, the rebuild is
// skipped entirely: no read interception occurs, so no subscription mutation
// occurs either. This is a performance short-circuit, not a correctness
// requirement — note that skipping a rebuild also skips dependency
// rediscovery, so a build function whose reads depend on ambient data other
// than props and stores needs an Equal policy that reflects that.
//
// Otherwise the build runs under interception, the registry is reconciled,
// and a non-empty draft is merged into the materialized state. The second
// return value is the rebuild-required signal for the host.
func (w *Watcher) Rebuild(next Props) (State, bool) {
	if !w.built {
		panic(ErrNotBuilt)
	}

	if Equal(w.props, next) {
		return nil, false
	}

	draft := w.reconcileBuild(func() State {
		return w.builder.BuildState(next, false)
	})
	w.props = next

	if len(draft) == 0 {
		return nil, false
	}
	w.merge(draft)
	return draft, true
}

// Teardown removes every subscription from the watcher and from each
// store's index, and deactivates the watcher. Runs exactly once; later
// calls and calls with no subscriptions are safe no-ops. Store
// notifications delivered after teardown do nothing.
func (w *Watcher) Teardown() {
	if w.tornDown.Swap(true) {
		return
	}
	w.active.Store(false)

	for _, sub := range w.subs {
		sub.used = false
		sub.store.RemoveAutoSubscription(sub)
	}
	w.subs = nil
}

// onStoreChange is the stable store-change callback.
// Rebuilds with current props and forwards any non-empty draft through the
// host's state-update primitive. A notification delivered to an inactive
// watcher returns immediately.
func (w *Watcher) onStoreChange() {
	if !w.active.Load() {
		return
	}

	draft := w.reconcileBuild(func() State {
		return w.builder.BuildState(w.props, false)
	})
	if len(draft) == 0 {
		return
	}
	w.merge(draft)
	if w.apply != nil {
		w.apply(draft)
	}
}

// reconcileBuild runs one build under read interception and reconciles the
// registry against the observed reads:
//
//  1. Reset used on every existing subscription.
//  2. Arm the tracking frame with observeRead.
//  3. Run the builder; each intercepted read either re-marks an existing
//     subscription or creates and registers a new one.
//  4. Disarm.
//  5. Sweep subscriptions left unused.
//
// Idempotent given identical reads: a second run with no underlying data
// change yields the same subscription set and no duplicate registrations.
//
// A builder panic propagates unmodified after disarming; the sweep step
// does not run, so subscriptions registered before the fault remain. See
// DESIGN.md for the partial-application decision.
func (w *Watcher) reconcileBuild(buildFn func() State) State {
	for _, sub := range w.subs {
		sub.used = false
	}

	arm(w, w.observeRead)
	disarmed := false
	defer func() {
		if !disarmed {
			disarm()
		}
	}()

	inst := currentInstrumentation()
	if inst != nil {
		inst.BeginBuildState()
	}
	draft := buildFn()
	if inst != nil {
		inst.EndBuildState(w.kind)
	}

	disarmed = true
	disarm()

	w.sweep()

	if DevMode && Debug.LogBuilds {
		slog.Debug("fluxbind: build reconciled",
			"kind", w.kind,
			"subscriptions", len(w.subs),
			"draft_keys", len(draft))
	}
	return draft
}

// observeRead handles one intercepted (store, key) read.
//
// An existing subscription matches on store identity when its key equals
// the read key or is already KeyAll: a KeyAll subscription absorbs any more
// specific read on the same store and is never narrowed back down.
func (w *Watcher) observeRead(store Store, key StoreKey) {
	storeID := store.StoreID()
	for _, sub := range w.subs {
		if sub.store.StoreID() != storeID {
			continue
		}
		if sub.key == key || sub.key == KeyAll {
			sub.used = true
			return
		}
	}

	sub := &Subscription{
		store:   store,
		key:     key,
		notify:  w.notify,
		ownerID: w.id,
		used:    true,
	}
	w.subs = append(w.subs, sub)
	store.TrackAutoSubscription(sub)
}

// sweep removes every subscription still unused after a build from the
// registry and from its store's index. Removal is order-independent:
// sweeping one subscription never depends on another.
func (w *Watcher) sweep() {
	kept := w.subs[:0]
	for _, sub := range w.subs {
		if sub.used {
			kept = append(kept, sub)
			continue
		}
		sub.store.RemoveAutoSubscription(sub)
		if DevMode && Debug.LogSweeps {
			slog.Debug("fluxbind: subscription swept",
				"kind", w.kind,
				"store", sub.store.StoreID(),
				"key", string(sub.key))
		}
	}
	// Zero the tail so swept subscriptions are not retained by the backing array.
	for i := len(kept); i < len(w.subs); i++ {
		w.subs[i] = nil
	}
	w.subs = kept
}

// merge folds a draft into the materialized state key-wise.
func (w *Watcher) merge(draft State) {
	if w.state == nil {
		w.state = State{}
	}
	for k, v := range draft {
		w.state[k] = v
	}
}
