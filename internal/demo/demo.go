// Package demo is the sample application served by `fluxbind serve`.
//
// It wires two stores into one watcher: a request-counter store fed by HTTP
// traffic and a clock store fed by a ticker. Every store-triggered rebuild
// pushes the applied draft onto an update channel that the serve command
// fans out to websocket clients.
package demo

import (
	"context"
	"sync"
	"time"

	"github.com/fluxbind-dev/fluxbind/pkg/fluxbind"
)

// summaryBuilder derives the dashboard state from both stores.
type summaryBuilder struct {
	requests *fluxbind.MapStore
	clock    *fluxbind.MapStore
}

func (b *summaryBuilder) BuildState(props fluxbind.Props, initial bool) fluxbind.State {
	counts := b.requests.Snapshot() // KeyAll: new routes must trigger rebuilds

	total := 0
	routes := make(map[string]int, len(counts))
	for key, v := range counts {
		n, _ := v.(int)
		routes[string(key)] = n
		total += n
	}

	return fluxbind.State{
		"service": props["service"],
		"now":     b.clock.Get("now"),
		"routes":  routes,
		"total":   total,
	}
}

// Dashboard owns the demo stores and the watcher bound to them.
//
// Builds are cooperative and single-threaded by design, so every store
// mutation goes through the dashboard mutex; HTTP handlers and the clock
// ticker serialize there.
type Dashboard struct {
	requests *fluxbind.MapStore
	clock    *fluxbind.MapStore
	binding  *fluxbind.Binding

	updates chan fluxbind.State

	mu sync.Mutex
}

// NewDashboard creates the stores, mounts the watcher, and returns the
// running dashboard.
func NewDashboard(service string) *Dashboard {
	d := &Dashboard{
		requests: fluxbind.NewMapStore(),
		clock:    fluxbind.NewMapStore(),
		updates:  make(chan fluxbind.State, 16),
	}
	d.clock.Set("now", time.Now().UTC().Format(time.RFC3339))

	builder := &summaryBuilder{requests: d.requests, clock: d.clock}
	d.binding = fluxbind.NewBinding(builder, fluxbind.Props{"service": service}, d.push)
	d.binding.Mount()
	return d
}

// push forwards an applied draft to the update channel.
// Slow consumers drop updates rather than stalling builds.
func (d *Dashboard) push(draft fluxbind.State) {
	select {
	case d.updates <- draft:
	default:
	}
}

// Updates returns the channel of applied drafts.
func (d *Dashboard) Updates() <-chan fluxbind.State {
	return d.updates
}

// Hit records one request for route, publishing a change for that route's
// counter key.
func (d *Dashboard) Hit(route string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := fluxbind.StoreKey(route)
	n, _ := d.requests.Peek(key).(int)
	d.requests.Set(key, n+1)
}

// StartClock ticks the clock store until ctx is canceled.
func (d *Dashboard) StartClock(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				d.mu.Lock()
				d.clock.Set("now", t.UTC().Format(time.RFC3339))
				d.mu.Unlock()
			}
		}
	}()
}

// Snapshot returns a copy of the current materialized state.
func (d *Dashboard) Snapshot() fluxbind.State {
	d.mu.Lock()
	defer d.mu.Unlock()

	state := d.binding.Watcher().State()
	snap := make(fluxbind.State, len(state))
	for k, v := range state {
		snap[k] = v
	}
	return snap
}

// Close unmounts the watcher, removing every store subscription.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.binding.Unmount()
}
