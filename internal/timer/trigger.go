package timer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gustalya/gustalya/internal/domain"
)

// Notifier receives one call per completed timer.
type Notifier interface {
	TimerCompleted(ctx context.Context, t domain.Timer) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, t domain.Timer) error

func (f NotifierFunc) TimerCompleted(ctx context.Context, t domain.Timer) error {
	return f(ctx, t)
}

// Trigger delivers completion alerts. A notifier that fails or panics is
// logged and does not affect the other timers of the same tick.
//
// While started, alerts are queued and delivered by a background worker so a
// slow notifier never holds up the countdown. Otherwise Fire delivers inline.
type Trigger struct {
	notifier Notifier
	logger   *slog.Logger

	mu      sync.Mutex
	pending []domain.Timer
	wake    chan struct{}
	done    chan struct{}
}

func NewTrigger(notifier Notifier, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Trigger{notifier: notifier, logger: logger}
}

// Fire alerts for each completed timer, once per timer. It never blocks on
// the notifier while the trigger is started.
func (tr *Trigger) Fire(ctx context.Context, completed []domain.Timer) {
	if tr == nil || tr.notifier == nil || len(completed) == 0 {
		return
	}

	tr.mu.Lock()
	if tr.wake != nil {
		tr.pending = append(tr.pending, completed...)
		select {
		case tr.wake <- struct{}{}:
		default:
		}
		tr.mu.Unlock()
		return
	}
	tr.mu.Unlock()

	for _, t := range completed {
		tr.deliver(ctx, t)
	}
}

// start launches the delivery worker. Alerts are sent with ctx, which should
// outlive the tick loop so queued alerts still go out after Stop.
func (tr *Trigger) start(ctx context.Context) {
	if tr == nil || tr.notifier == nil {
		return
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.wake != nil {
		return
	}
	tr.wake = make(chan struct{}, 1)
	tr.done = make(chan struct{})
	go tr.run(ctx, tr.wake, tr.done)
}

// stop delivers whatever is still queued, then waits for the worker to exit.
func (tr *Trigger) stop() {
	if tr == nil {
		return
	}

	tr.mu.Lock()
	wake, done := tr.wake, tr.done
	tr.wake, tr.done = nil, nil
	tr.mu.Unlock()

	if wake == nil {
		return
	}
	close(wake)
	<-done
}

func (tr *Trigger) run(ctx context.Context, wake <-chan struct{}, done chan struct{}) {
	defer close(done)

	for {
		_, open := <-wake
		for {
			batch := tr.take()
			if len(batch) == 0 {
				break
			}
			for _, t := range batch {
				tr.deliver(ctx, t)
			}
		}
		if !open {
			return
		}
	}
}

func (tr *Trigger) take() []domain.Timer {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	batch := tr.pending
	tr.pending = nil
	return batch
}

func (tr *Trigger) deliver(ctx context.Context, t domain.Timer) {
	if err := tr.fireOne(ctx, t); err != nil {
		tr.logger.Warn("timer notification failed",
			slog.String("timer_id", t.ID),
			slog.String("label", t.Label),
			slog.Any("error", err),
		)
	}
}

func (tr *Trigger) fireOne(ctx context.Context, t domain.Timer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return tr.notifier.TimerCompleted(ctx, t)
}
