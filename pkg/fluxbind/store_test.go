package fluxbind

import "testing"

// buildWith runs fn under an armed tracking frame for a throwaway watcher,
// so tests can exercise store accessors without a full build cycle.
func buildWith(t *testing.T, fn func()) *Watcher {
	t.Helper()
	w := NewWatcher(builderFunc(func(Props, bool) State {
		fn()
		return nil
	}), nil, nil)
	w.BuildInitial()
	return w
}

func TestMapStoreSetPublishesOnlyOnChange(t *testing.T) {
	s := NewMapStore()
	s.Set("x", 1)

	notifies := 0
	w := NewWatcher(builderFunc(func(Props, bool) State {
		notifies++
		return State{"x": s.Get("x")}
	}), nil, nil)
	w.BuildInitial()

	s.Set("x", 1) // unchanged value, no publish
	if notifies != 1 {
		t.Errorf("unchanged Set published a notification")
	}

	s.Set("x", 2)
	if notifies != 2 {
		t.Errorf("changed Set did not publish, builds=%d", notifies)
	}
}

func TestMapStoreDeletePublishes(t *testing.T) {
	s := NewMapStore()
	s.Set("x", 1)

	builds := 0
	w := NewWatcher(builderFunc(func(Props, bool) State {
		builds++
		return State{"x": s.Get("x")}
	}), nil, nil)
	w.BuildInitial()

	s.Delete("x")
	if builds != 2 {
		t.Errorf("delete did not publish, builds=%d", builds)
	}
	if w.State()["x"] != nil {
		t.Errorf("expected nil after delete, got %v", w.State()["x"])
	}

	// Deleting a missing key publishes nothing.
	s.Delete("x")
	if builds != 2 {
		t.Errorf("delete of a missing key published, builds=%d", builds)
	}
}

func TestMapStorePeekDoesNotSubscribe(t *testing.T) {
	s := NewMapStore()
	s.Set("x", 1)

	// Peek inside a build must not create a subscription.
	w := buildWith(t, func() {
		if got := s.Peek("x"); got != 1 {
			t.Errorf("Peek returned %v", got)
		}
	})

	if w.SubscriptionCount() != 0 {
		t.Errorf("Peek created %d subscriptions", w.SubscriptionCount())
	}

	// Peek outside a build must not panic.
	if got := s.Peek("x"); got != 1 {
		t.Errorf("untracked Peek returned %v", got)
	}
}

func TestMapStoreKeysSubscribesToWholeStore(t *testing.T) {
	s := NewMapStore()
	s.Set("x", 1)

	var firstKeys int
	seen := false
	w := buildWith(t, func() {
		n := len(s.Keys())
		if !seen {
			firstKeys, seen = n, true
		}
	})
	if firstKeys != 1 {
		t.Errorf("expected 1 key on first build, got %d", firstKeys)
	}

	subs := w.Subscriptions()
	if len(subs) != 1 || subs[0].Key() != KeyAll {
		t.Fatalf("Keys should subscribe via KeyAll, got %v", subs)
	}

	// A new key appearing matches the KeyAll subscription.
	s.Set("fresh", 2)
	if w.SubscriptionCount() != 1 {
		t.Errorf("subscription set changed unexpectedly")
	}
}

func TestPublishAllReachesSpecificSubscribers(t *testing.T) {
	s := NewMapStore()
	s.Set("x", 1)

	builds := 0
	w := NewWatcher(builderFunc(func(Props, bool) State {
		builds++
		return State{"x": s.Get("x")}
	}), nil, nil)
	w.BuildInitial()

	s.PublishAll()
	if builds != 2 {
		t.Errorf("PublishAll did not reach a specific-key subscriber, builds=%d", builds)
	}
}

func TestPublishDoesNotReachOtherKeys(t *testing.T) {
	s := NewMapStore()
	s.Set("x", 1)
	s.Set("other", 1)

	builds := 0
	w := NewWatcher(builderFunc(func(Props, bool) State {
		builds++
		return State{"x": s.Get("x")}
	}), nil, nil)
	w.BuildInitial()

	s.Set("other", 2)
	if builds != 1 {
		t.Errorf("change on an unsubscribed key triggered a rebuild")
	}
}

func TestTrackAutoSubscriptionDeduplicates(t *testing.T) {
	s := NewMapStore()
	sub := &Subscription{store: s, key: "x", notify: func() {}, ownerID: 42}

	s.TrackAutoSubscription(sub)
	s.TrackAutoSubscription(sub)

	if s.SubscriptionCount() != 1 {
		t.Errorf("double registration produced %d entries", s.SubscriptionCount())
	}

	s.RemoveAutoSubscription(sub)
	if s.SubscriptionCount() != 0 {
		t.Errorf("removal left %d entries", s.SubscriptionCount())
	}

	// Removing again, and removing nil, are no-ops.
	s.RemoveAutoSubscription(sub)
	s.RemoveAutoSubscription(nil)
	s.TrackAutoSubscription(nil)
	if s.SubscriptionCount() != 0 {
		t.Errorf("no-op mutations changed the index")
	}
}

func TestStoreIDsAreDistinct(t *testing.T) {
	a := NewMapStore()
	b := NewMapStore()
	if a.StoreID() == b.StoreID() {
		t.Error("two stores share a StoreID")
	}
}
