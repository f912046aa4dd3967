// Package fluxtest provides helpers for testing code built on fluxbind.
//
// Host records every state the binding layer pushes through the host
// state-update primitive:
//
//	host := fluxtest.NewHost()
//	binding := fluxbind.NewBinding(builder, props, host.Apply)
//	binding.Mount()
//	store.Set("x", 2)
//	if host.Count() != 1 { ... }
//
// BuilderFunc adapts a plain function to fluxbind.StateBuilder, and the
// Expect helpers assert on subscription sets from both sides of the
// registry/index relationship.
package fluxtest
