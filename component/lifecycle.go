package component

import (
	"context"
	"time"
)

// LifecycleComponent is a component the binary initializes, starts and stops.
//
// Start returns once subscriptions and listeners are in place; the work runs
// in bus handlers or goroutines the component owns. Starting a running
// component fails with errors.ErrAlreadyStarted. Stop waits up to timeout for
// in-flight work and is a no-op on a stopped component.
type LifecycleComponent interface {
	Discoverable
	Initialize() error
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}

// AsLifecycleComponent returns comp as a LifecycleComponent if it is one.
func AsLifecycleComponent(comp Discoverable) (LifecycleComponent, bool) {
	lc, ok := comp.(LifecycleComponent)
	return lc, ok
}
