package timer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gustalya/gustalya/internal/domain"
)

var ErrDriverRunning = errors.New("tick driver already running")

// TickInterval is the countdown cadence.
const TickInterval = time.Second

// TickResult describes one decrement pass.
type TickResult struct {
	At        time.Time
	Timers    []domain.Timer
	Completed []domain.Timer
}

// Option customizes a Driver.
type Option func(*Driver)

// WithInterval overrides the tick cadence (tests use short intervals).
func WithInterval(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.interval = d
		}
	}
}

// WithObserver registers a callback run after every tick. Completion alerts
// of that tick have been handed to the Trigger but may still be in flight.
func WithObserver(fn func(TickResult)) Option {
	return func(dr *Driver) {
		dr.observer = fn
	}
}

// Driver is the single periodic task of a kitchen. Ticks never overlap and
// none is delivered after Stop returns.
type Driver struct {
	store    *Store
	trigger  *Trigger
	interval time.Duration
	observer func(TickResult)

	tickMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDriver(store *Store, trigger *Trigger, opts ...Option) *Driver {
	d := &Driver{
		store:    store,
		trigger:  trigger,
		interval: TickInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the ticking loop. It stops when ctx is cancelled or Stop
// is called.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		return ErrDriverRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.cancel = cancel
	d.done = done

	d.trigger.start(context.WithoutCancel(ctx))
	go d.run(loopCtx, done)
	return nil
}

// Stop cancels the loop and waits for it to exit, including the delivery of
// alerts already queued. It must not be called from a notifier or observer.
func (d *Driver) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancel != nil
}

func (d *Driver) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer d.trigger.stop()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case at := <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			d.tick(ctx, at)
		}
	}
}

// Tick runs one decrement pass synchronously.
func (d *Driver) Tick(ctx context.Context) TickResult {
	return d.tick(ctx, time.Now())
}

func (d *Driver) tick(ctx context.Context, at time.Time) TickResult {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	completed, snapshot := d.store.tick()
	d.trigger.Fire(ctx, completed)

	result := TickResult{At: at, Timers: snapshot, Completed: completed}
	if d.observer != nil {
		d.observer(result)
	}
	return result
}
