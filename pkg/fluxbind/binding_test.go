package fluxbind

import "testing"

func TestBindingLifecycle(t *testing.T) {
	s := NewMapStore()
	s.Set("greeting", "hello")

	var applied []State
	b := NewBinding(builderFunc(func(props Props, initial bool) State {
		return State{"text": s.Get("greeting")}
	}), Props{"n": 1}, func(draft State) {
		applied = append(applied, draft)
	})

	state := b.Mount()
	if state["text"] != "hello" {
		t.Fatalf("mount state = %v", state)
	}

	s.Set("greeting", "hej")
	if len(applied) != 1 || applied[0]["text"] != "hej" {
		t.Errorf("store change not forwarded through the state-update primitive: %v", applied)
	}

	if _, required := b.PropsChanged(Props{"n": 2}); !required {
		t.Errorf("expected rebuild-required signal for changed props")
	}
	if _, required := b.PropsChanged(Props{"n": 2}); required {
		t.Errorf("expected skip for equal props")
	}

	b.Unmount()
	if s.SubscriptionCount() != 0 {
		t.Errorf("unmount left %d indexed subscriptions", s.SubscriptionCount())
	}
	b.Unmount() // second unmount is a safe no-op
}

func TestBindingMissingOwnerPanics(t *testing.T) {
	b := &Binding{shouldUpdate: DefaultShouldUpdate}

	defer func() {
		if recover() != ErrMissingOwner {
			t.Error("expected ErrMissingOwner panic")
		}
	}()
	b.PropsChanged(Props{"n": 1})
}

func TestDefaultShouldUpdate(t *testing.T) {
	same := UpdateCheck{
		PrevProps: Props{"a": 1},
		NextProps: Props{"a": 1},
		PrevState: State{"s": "x"},
		NextState: State{"s": "x"},
	}
	if DefaultShouldUpdate(same) {
		t.Error("identical snapshots should skip the update")
	}

	diffProps := same
	diffProps.NextProps = Props{"a": 2}
	if !DefaultShouldUpdate(diffProps) {
		t.Error("changed props should update")
	}

	diffState := same
	diffState.NextState = State{"s": "y"}
	if !DefaultShouldUpdate(diffState) {
		t.Error("changed state should update")
	}

	diffCtx := same
	diffCtx.NextContext = "theme-dark"
	if !DefaultShouldUpdate(diffCtx) {
		t.Error("changed ambient context should update")
	}
}

func TestBindingShouldUpdateOverride(t *testing.T) {
	b := NewBinding(builderFunc(func(Props, bool) State { return nil }), nil, nil).
		WithShouldUpdate(func(UpdateCheck) bool { return false })

	if b.ShouldUpdate(UpdateCheck{NextContext: "anything"}) {
		t.Error("override not honored")
	}
}

func TestOutputFaultSuppressedInProduction(t *testing.T) {
	origCatch, origDev := CatchOutputErrors, DevMode
	defer func() { CatchOutputErrors, DevMode = origCatch, origDev }()
	CatchOutputErrors, DevMode = true, false

	b := NewBinding(builderFunc(func(Props, bool) State { return nil }), nil, nil)
	b.Mount()

	out := b.Output(func() any { panic("render exploded") })
	if out != nil {
		t.Errorf("expected empty substitute output, got %v", out)
	}

	// Healthy producers pass through untouched.
	if got := b.Output(func() any { return "visible" }); got != "visible" {
		t.Errorf("Output altered a healthy result: %v", got)
	}
}

func TestOutputFaultRethrownInDevelopment(t *testing.T) {
	origCatch, origDev := CatchOutputErrors, DevMode
	defer func() { CatchOutputErrors, DevMode = origCatch, origDev }()
	CatchOutputErrors, DevMode = true, true

	b := NewBinding(builderFunc(func(Props, bool) State { return nil }), nil, nil)
	b.Mount()

	defer func() {
		if recover() != "render exploded" {
			t.Error("development policy should propagate the output panic")
		}
	}()
	b.Output(func() any { panic("render exploded") })
}
