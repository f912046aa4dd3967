package fluxtest

import (
	"testing"

	"github.com/fluxbind-dev/fluxbind/pkg/fluxbind"
)

func TestHostRecordsAppliedDrafts(t *testing.T) {
	store := fluxbind.NewMapStore()
	store.Set("x", 1)

	host := NewHost()
	w := fluxbind.NewWatcher(BuilderFunc(func(props fluxbind.Props, initial bool) fluxbind.State {
		return fluxbind.State{"x": store.Get("x")}
	}), nil, host.Apply)
	w.BuildInitial()
	defer w.Teardown()

	if host.Count() != 0 {
		t.Fatalf("initial build must not go through the state-update primitive, got %d", host.Count())
	}

	store.Set("x", 2)
	store.Set("x", 3)

	if host.Count() != 2 {
		t.Fatalf("expected 2 applied drafts, got %d", host.Count())
	}
	if host.Last()["x"] != 3 {
		t.Errorf("Last() = %v", host.Last())
	}
	if states := host.States(); states[0]["x"] != 2 {
		t.Errorf("States()[0] = %v", states[0])
	}

	host.Reset()
	if host.Count() != 0 || host.Last() != nil {
		t.Error("Reset did not clear recorded drafts")
	}
}

func TestExpectHelpers(t *testing.T) {
	store := fluxbind.NewMapStore()
	store.Set("x", 1)

	w := fluxbind.NewWatcher(BuilderFunc(func(props fluxbind.Props, initial bool) fluxbind.State {
		return fluxbind.State{"x": store.Get("x")}
	}), nil, nil)
	w.BuildInitial()

	ExpectSubscriptions(t, w, 1)
	ExpectIndexed(t, store, 1)
	ExpectIndexedFor(t, store, w, 1)
	ExpectKeys(t, w, "x")

	w.Teardown()
	ExpectSubscriptions(t, w, 0)
	ExpectIndexed(t, store, 0)
}
