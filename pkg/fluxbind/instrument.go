package fluxbind

import "sync/atomic"

// Instrumentation observes build phases. Hooks are purely observational:
// they run around the builder invocation and have no effect on
// reconciliation outcome.
//
// See the instrument package for Prometheus- and OpenTelemetry-backed
// implementations.
type Instrumentation interface {
	// BeginBuildState is called immediately before a builder runs.
	BeginBuildState()

	// EndBuildState is called after the builder returns, with the owner
	// kind (the builder's concrete type). Not called when the builder
	// panics; build faults propagate unmodified.
	EndBuildState(ownerKind string)
}

// instrumentation holds the installed Instrumentation, or nil.
var instrumentation atomic.Value // of instrumentationBox

// instrumentationBox wraps the interface so atomic.Value accepts nil
// implementations without inconsistent concrete types.
type instrumentationBox struct {
	inst Instrumentation
}

// SetInstrumentation installs the global build instrumentation.
// Pass nil to remove it. Safe to call at any time, but typically done once
// at application startup.
func SetInstrumentation(inst Instrumentation) {
	instrumentation.Store(instrumentationBox{inst: inst})
}

// currentInstrumentation returns the installed instrumentation, or nil.
func currentInstrumentation() Instrumentation {
	if box, ok := instrumentation.Load().(instrumentationBox); ok {
		return box.inst
	}
	return nil
}
