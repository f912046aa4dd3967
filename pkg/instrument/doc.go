// Package instrument provides ready-made implementations of the fluxbind
// build instrumentation hooks.
//
// Prometheus records a counter and a duration histogram per owner kind:
//
//	fluxbind.SetInstrumentation(instrument.Prometheus(
//	    instrument.WithNamespace("myapp"),
//	))
//
// OTel wraps every build in an OpenTelemetry span:
//
//	fluxbind.SetInstrumentation(instrument.OTel())
//
// Multi fans hooks out to several backends:
//
//	fluxbind.SetInstrumentation(instrument.Multi(
//	    instrument.Prometheus(),
//	    instrument.OTel(),
//	))
//
// All implementations are purely observational; removing them never changes
// a reconciliation outcome.
package instrument
