package fluxbind

import "sync"

// StoreKey identifies one keyed value on a store.
type StoreKey string

// KeyAll is the sentinel key meaning "any key on this store". A watcher
// holding a KeyAll subscription is notified for every published key, and a
// later specific-key read on the same store is absorbed by it rather than
// creating a second subscription. The sentinel starts with a NUL byte so it
// cannot collide with application keys.
const KeyAll StoreKey = "\x00*"

// Store is the contract between the binding layer and a data publisher.
//
// A store has a stable identity and a non-owning index of subscriptions,
// and must deliver a change notification for every subscription whose key
// equals the changed key or equals KeyAll. Delivery ordering across
// distinct subscriptions is unspecified.
//
// Implementations embed StoreBase, which supplies all three methods plus
// Publish, and call RecordRead from every tracked accessor.
type Store interface {
	// StoreID returns the store's stable identity.
	StoreID() uint64

	// TrackAutoSubscription adds a subscription to the store's index.
	// Called only by the owning watcher during reconciliation.
	TrackAutoSubscription(sub *Subscription)

	// RemoveAutoSubscription removes a subscription from the store's index.
	// Called only by the owning watcher, during sweep or teardown.
	RemoveAutoSubscription(sub *Subscription)
}

// StoreBase provides store identity, the subscription index, and change
// fan-out. It is embedded in concrete stores such as MapStore.
//
// The index is non-owning: subscription lifetime is governed solely by the
// owning watcher's registry.
type StoreBase struct {
	id uint64

	// index holds subscriptions grouped by owning watcher ID.
	index   map[uint64][]*Subscription
	indexMu sync.RWMutex
}

// NewStoreBase returns a StoreBase with a fresh store identity.
// Concrete stores assign it in their constructor:
//
//	type EventStore struct {
//	    fluxbind.StoreBase
//	    // ...
//	}
//
//	func NewEventStore() *EventStore {
//	    return &EventStore{StoreBase: fluxbind.NewStoreBase()}
//	}
func NewStoreBase() StoreBase {
	return StoreBase{id: nextID()}
}

// StoreID returns the store's stable identity.
func (b *StoreBase) StoreID() uint64 {
	return b.id
}

// TrackAutoSubscription adds a subscription to the store's index.
// Registering the same subscription twice is a no-op.
func (b *StoreBase) TrackAutoSubscription(sub *Subscription) {
	if sub == nil {
		return
	}

	b.indexMu.Lock()
	defer b.indexMu.Unlock()

	if b.index == nil {
		b.index = make(map[uint64][]*Subscription)
	}
	for _, existing := range b.index[sub.ownerID] {
		if existing == sub {
			return
		}
	}
	b.index[sub.ownerID] = append(b.index[sub.ownerID], sub)
}

// RemoveAutoSubscription removes a subscription from the store's index.
// Removing an unknown subscription is a no-op.
func (b *StoreBase) RemoveAutoSubscription(sub *Subscription) {
	if sub == nil {
		return
	}

	b.indexMu.Lock()
	defer b.indexMu.Unlock()

	subs := b.index[sub.ownerID]
	for i, existing := range subs {
		if existing == sub {
			subs = append(subs[:i], subs[i+1:]...)
			if len(subs) == 0 {
				delete(b.index, sub.ownerID)
			} else {
				b.index[sub.ownerID] = subs
			}
			return
		}
	}
}

// Publish delivers a change notification for key to every matching
// subscription. A subscription matches when its key equals the changed key,
// when it is subscribed to KeyAll, or when the whole store changed
// (key == KeyAll).
//
// Uses copy-before-notify so callbacks never run under the index lock.
func (b *StoreBase) Publish(key StoreKey) {
	b.indexMu.RLock()
	var matched []*Subscription
	for _, subs := range b.index {
		for _, sub := range subs {
			if sub.key == key || sub.key == KeyAll || key == KeyAll {
				matched = append(matched, sub)
			}
		}
	}
	b.indexMu.RUnlock()

	for _, sub := range matched {
		sub.deliver()
	}
}

// SubscriptionCount returns the total number of subscriptions in the index.
func (b *StoreBase) SubscriptionCount() int {
	b.indexMu.RLock()
	defer b.indexMu.RUnlock()

	n := 0
	for _, subs := range b.index {
		n += len(subs)
	}
	return n
}

// SubscriptionsFor returns the number of indexed subscriptions owned by the
// watcher with the given ID.
func (b *StoreBase) SubscriptionsFor(ownerID uint64) int {
	b.indexMu.RLock()
	defer b.indexMu.RUnlock()
	return len(b.index[ownerID])
}
