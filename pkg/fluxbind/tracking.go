package fluxbind

import (
	"runtime"
	"sync"
)

// readHandler receives one intercepted (store, key) read.
// Installed for the duration of exactly one build.
type readHandler func(store Store, key StoreKey)

// trackingFrame is one armed build on the per-goroutine tracking stack.
// Frames nest: a build that mounts a child owner pushes a new frame, so
// reads inside the child's build are attributed to the child only.
type trackingFrame struct {
	owner   *Watcher
	handler readHandler
	prev    *trackingFrame
}

// trackingFrames stores the active frame per goroutine.
// Using sync.Map for concurrent access from multiple goroutines.
var trackingFrames sync.Map

// getGoroutineID returns a unique identifier for the current goroutine.
// This uses the runtime stack to extract the goroutine ID.
// Note: This is an implementation detail and should not be relied upon externally.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> "
	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// currentFrame returns the active tracking frame for this goroutine,
// or nil when no build is in progress.
func currentFrame() *trackingFrame {
	if f, ok := trackingFrames.Load(getGoroutineID()); ok {
		return f.(*trackingFrame)
	}
	return nil
}

// arm installs a read handler for the current goroutine, pushing any frame
// already active so nested builds restore it on disarm.
func arm(owner *Watcher, h readHandler) {
	gid := getGoroutineID()
	frame := &trackingFrame{owner: owner, handler: h, prev: currentFrame()}
	trackingFrames.Store(gid, frame)
}

// disarm pops the current goroutine's tracking frame, restoring the
// enclosing frame if the build was nested.
func disarm() {
	gid := getGoroutineID()
	frame := currentFrame()
	if frame == nil {
		return
	}
	if frame.prev != nil {
		trackingFrames.Store(gid, frame.prev)
	} else {
		trackingFrames.Delete(gid)
	}
}

// IsBuilding reports whether a build is in progress on this goroutine,
// i.e. whether a store read right now would be tracked.
func IsBuilding() bool {
	return currentFrame() != nil
}

// RecordRead reports a store read to the active build.
//
// Store implementations must call this from every tracked accessor, passing
// themselves and the key being read (or KeyAll for whole-store reads). The
// handler runs synchronously; nothing is buffered or deferred.
//
// Panics with ErrUntrackedRead when no build is in progress: dependency
// discovery happens only inside the bounded build phase, and a read that
// escaped it would surface later as silent staleness.
func RecordRead(store Store, key StoreKey) {
	frame := currentFrame()
	if frame == nil {
		panic(ErrUntrackedRead)
	}
	frame.handler(store, key)
}
