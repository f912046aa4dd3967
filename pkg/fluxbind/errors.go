package fluxbind

import "errors"

// ErrUntrackedRead is the panic value used when a store read is observed
// while no build is in progress. A read that escapes dependency discovery
// would manifest later as silently stale output, so it fails fast instead.
//
// Use Peek (or the store's untracked accessors) for reads that are
// intentionally outside the build phase.
var ErrUntrackedRead = errors.New("fluxbind: store read outside an active build")

// ErrMissingOwner is the panic value used when a lifecycle entry point is
// invoked on a binding whose watcher is gone. Continuing without an owner
// reference would make reconciliation meaningless, so this is fatal.
var ErrMissingOwner = errors.New("fluxbind: no owner bound")

// ErrAlreadyBuilt is the panic value used when BuildInitial is called more
// than once on the same watcher.
var ErrAlreadyBuilt = errors.New("fluxbind: initial build already performed")

// ErrNotBuilt is the panic value used when Rebuild is called before
// BuildInitial has materialized the watcher's first state.
var ErrNotBuilt = errors.New("fluxbind: rebuild before initial build")
