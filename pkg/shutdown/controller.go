// Package shutdown adapts OS interrupt signals into the cooperative
// cancellation the Pacer's outer deadline and the Dispatcher's
// Terminate event expect: a single, idempotent trigger that every
// worker observes through its own context.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jihwankim/diameter-load/pkg/reporting"
)

// Controller watches for SIGINT/SIGTERM and cancels a context when
// either arrives, running any registered callbacks exactly once.
type Controller struct {
	logger *reporting.Logger

	mu        sync.Mutex
	triggered bool
	stopCh    chan struct{}
	callbacks []func()
}

// New constructs a Controller. logger may be nil.
func New(logger *reporting.Logger) *Controller {
	return &Controller{
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Watch derives a cancellable context from parent and arms a signal
// watcher that cancels it on SIGINT/SIGTERM. The returned cancel func
// should be deferred by the caller to release the signal handler even
// on normal completion.
func (c *Controller) Watch(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
			signal.Stop(sigCh)
		case sig := <-sigCh:
			signal.Stop(sigCh)
			if c.logger != nil {
				c.logger.Warn("shutdown signal received", "signal", sig.String())
			}
			c.trigger()
			cancel()
		}
	}()

	return ctx, cancel
}

func (c *Controller) trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.triggered {
		return
	}
	c.triggered = true
	close(c.stopCh)
	for _, cb := range c.callbacks {
		cb()
	}
}

// IsTriggered reports whether a shutdown signal has been observed.
func (c *Controller) IsTriggered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.triggered
}

// StopChannel closes once shutdown is triggered.
func (c *Controller) StopChannel() <-chan struct{} {
	return c.stopCh
}

// OnShutdown registers a callback to run once, when shutdown
// triggers. Callbacks registered after shutdown has already triggered
// never run.
func (c *Controller) OnShutdown(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.triggered {
		return
	}
	c.callbacks = append(c.callbacks, cb)
}
