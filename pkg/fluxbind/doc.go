// Package fluxbind connects stateful owners (component instances) to keyed
// data stores without manual subscribe/unsubscribe bookkeeping.
//
// An owner declares its data dependencies implicitly: its builder simply
// reads values from stores while computing draft state. The binding layer
// observes which (store, key) pairs were touched during that bounded build
// phase and keeps the owner's subscription set in exact sync with what was
// actually read, rebuilding the owner whenever any dependency changes.
//
// # Core Types
//
// MapStore is a keyed in-memory store. Reads during a build subscribe the
// building owner to the key that was read:
//
//	store := fluxbind.NewMapStore()
//	store.Set("user", "ada")   // publishes a change for key "user"
//	store.Peek("user")         // untracked read, never subscribes
//
// StateBuilder computes an owner's draft state from its props:
//
//	type profileBuilder struct{ users *fluxbind.MapStore }
//
//	func (b *profileBuilder) BuildState(props fluxbind.Props, initial bool) fluxbind.State {
//	    name, _ := b.users.Get("user").(string)
//	    return fluxbind.State{"greeting": "hello " + name}
//	}
//
// Watcher owns the subscription set for one builder and reconciles it on
// every build using mark-and-sweep: subscriptions re-observed during the
// build are kept, unobserved ones are removed from both the watcher and the
// store's index, and newly observed pairs are registered exactly once.
//
// Binding is the glue to a host component lifecycle:
//
//	binding := fluxbind.NewBinding(&profileBuilder{users: store}, props, applyFn)
//	binding.Mount()                 // initial build + first materialized state
//	binding.PropsChanged(nextProps) // rebuild when props differ
//	binding.Unmount()               // removes every subscription, exactly once
//
// When a store publishes a change for a subscribed key, the watcher rebuilds
// with its current props and pushes any non-empty draft through the host's
// state-update function.
//
// # Execution Model
//
// Dependency discovery is scoped to the build phase. Store reads outside an
// active build panic rather than going silently unobserved, since a missed
// dependency manifests later as stale output. The tracking context is
// per-goroutine and re-entrant, so nested builds (a build mounting a child
// owner) observe reads for the innermost building owner only.
package fluxbind
