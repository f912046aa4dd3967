package fluxbind

// Subscription records one owner's dependency on one (store, key) pair.
//
// Subscriptions are created by the owning watcher the first time a pair is
// observed during a build, and destroyed by it at the end of any build in
// which the pair was not re-observed, or unconditionally at teardown. The
// store's index holds a non-owning back-reference used only for
// notification fan-out; the store never destroys a subscription except in
// response to an explicit RemoveAutoSubscription call.
type Subscription struct {
	// store is shared, not owned: the store outlives any single subscription.
	store Store

	key StoreKey

	// notify is the owner's stable store-change callback. Every
	// subscription created for the same watcher shares one closure.
	notify func()

	// ownerID identifies the owning watcher in store indexes.
	ownerID uint64

	// used is reset at the start of every build and set the moment the
	// (store, key) pair is re-observed. Subscriptions still unused after
	// the build are swept.
	used bool
}

// Key returns the subscribed key, which may be KeyAll.
func (s *Subscription) Key() StoreKey {
	return s.key
}

// OwnerID returns the ID of the watcher that owns this subscription.
func (s *Subscription) OwnerID() uint64 {
	return s.ownerID
}

// deliver invokes the owner's store-change callback.
func (s *Subscription) deliver() {
	s.notify()
}
