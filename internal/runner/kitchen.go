package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gustalya/gustalya/internal/cooking"
	"github.com/gustalya/gustalya/internal/domain"
	"github.com/gustalya/gustalya/internal/timer"
)

var (
	ErrKitchenClosed  = errors.New("kitchen closed")
	ErrAlreadyCooking = errors.New("kitchen is already cooking")
	ErrNotCooking     = errors.New("kitchen is not cooking")
)

// Kitchen is one open cooking view: its timers, the driver ticking them and
// the recipes being cooked. It owns the driver and releases it on Close.
type Kitchen struct {
	mu sync.Mutex

	id        string
	userID    string
	createdAt time.Time
	active    time.Time
	closed    bool

	store   *timer.Store
	driver  *timer.Driver
	cooking *cooking.MultiSession

	subs      map[int]chan Event
	nextSub   int
	subBuffer int

	logger *slog.Logger
	now    func() time.Time
}

type kitchenOptions struct {
	notifier     timer.Notifier
	logger       *slog.Logger
	subBuffer    int
	tickInterval time.Duration
}

func newKitchen(id, userID string, opts kitchenOptions) *Kitchen {
	now := time.Now()
	k := &Kitchen{
		id:        id,
		userID:    userID,
		createdAt: now,
		active:    now,
		store:     timer.NewStore(),
		subs:      make(map[int]chan Event),
		subBuffer: opts.subBuffer,
		logger:    opts.logger.With(slog.String("kitchen_id", id)),
		now:       time.Now,
	}

	driverOpts := []timer.Option{timer.WithObserver(k.onTick)}
	if opts.tickInterval > 0 {
		driverOpts = append(driverOpts, timer.WithInterval(opts.tickInterval))
	}
	k.driver = timer.NewDriver(k.store, timer.NewTrigger(opts.notifier, k.logger), driverOpts...)
	return k
}

func (k *Kitchen) start(ctx context.Context) error {
	return k.driver.Start(ctx)
}

func (k *Kitchen) ID() string {
	return k.id
}

func (k *Kitchen) UserID() string {
	return k.userID
}

// touch records user activity and reports whether the kitchen is usable.
func (k *Kitchen) touch() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return ErrKitchenClosed
	}
	k.active = k.now()
	return nil
}

func (k *Kitchen) lastActive() time.Time {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.active
}

func (k *Kitchen) AddTimer(label string, totalSec int, category string) (domain.Timer, error) {
	if err := k.touch(); err != nil {
		return domain.Timer{}, err
	}
	t, err := k.store.Add(label, totalSec, category)
	if err != nil {
		return domain.Timer{}, err
	}
	k.publishTimers()
	return t, nil
}

func (k *Kitchen) ToggleTimer(id string) error {
	return k.timerAction(func() { k.store.Toggle(id) })
}

func (k *Kitchen) ResetTimer(id string) error {
	return k.timerAction(func() { k.store.Reset(id) })
}

func (k *Kitchen) RemoveTimer(id string) error {
	return k.timerAction(func() { k.store.Remove(id) })
}

func (k *Kitchen) ClearTimers() error {
	return k.timerAction(k.store.Clear)
}

func (k *Kitchen) timerAction(fn func()) error {
	if err := k.touch(); err != nil {
		return err
	}
	fn()
	k.publishTimers()
	return nil
}

func (k *Kitchen) Timers() []domain.Timer {
	return k.store.List()
}

func (k *Kitchen) Timer(id string) (domain.Timer, bool) {
	return k.store.Get(id)
}

// Cook starts cooking mode for the given recipes.
func (k *Kitchen) Cook(recipes []domain.Recipe) ([]cooking.SessionView, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, ErrKitchenClosed
	}
	if k.cooking != nil && !k.cooking.Closed() && k.cooking.Len() > 0 {
		return nil, ErrAlreadyCooking
	}

	session, err := cooking.Start(k.store, recipes)
	if err != nil {
		return nil, err
	}
	k.cooking = session
	k.active = k.now()

	views := session.Snapshot()
	k.logger.Info("cooking started", slog.Int("recipes", len(views)))
	return views, nil
}

func (k *Kitchen) session() (*cooking.MultiSession, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, ErrKitchenClosed
	}
	if k.cooking == nil {
		return nil, ErrNotCooking
	}
	k.active = k.now()
	return k.cooking, nil
}

func (k *Kitchen) Advance(recipeID string) (cooking.SessionView, error) {
	return k.stepAction(recipeID, func(s *cooking.MultiSession) (cooking.SessionView, error) {
		return s.Advance(recipeID)
	})
}

func (k *Kitchen) Previous(recipeID string) (cooking.SessionView, error) {
	return k.stepAction(recipeID, func(s *cooking.MultiSession) (cooking.SessionView, error) {
		return s.Previous(recipeID)
	})
}

// StartStepTimer (re)creates the timer of the step a recipe is on.
func (k *Kitchen) StartStepTimer(recipeID string) (cooking.SessionView, error) {
	return k.stepAction(recipeID, func(s *cooking.MultiSession) (cooking.SessionView, error) {
		return s.StartStepTimer(recipeID)
	})
}

// Voice applies a spoken command such as "suivant" to one recipe.
func (k *Kitchen) Voice(recipeID string, transcript string) (cooking.SessionView, error) {
	cmd := cooking.ParseCommand(transcript)
	return k.stepAction(recipeID, func(s *cooking.MultiSession) (cooking.SessionView, error) {
		return s.Apply(recipeID, cmd)
	})
}

func (k *Kitchen) stepAction(recipeID string, fn func(*cooking.MultiSession) (cooking.SessionView, error)) (cooking.SessionView, error) {
	s, err := k.session()
	if err != nil {
		return cooking.SessionView{}, err
	}
	view, err := fn(s)
	if err != nil {
		return cooking.SessionView{}, err
	}
	k.publish(Event{Type: EventStep, Recipe: &view, RecipeID: recipeID, Timers: k.store.List()})
	return view, nil
}

// RemoveRecipe stops cooking one recipe; the others are left as they are.
func (k *Kitchen) RemoveRecipe(recipeID string) (cooking.Summary, error) {
	s, err := k.session()
	if err != nil {
		return cooking.Summary{}, err
	}
	summary, err := s.Remove(recipeID)
	if err != nil {
		return cooking.Summary{}, err
	}
	k.publish(Event{Type: EventRecipeRemoved, RecipeID: recipeID, Timers: k.store.List()})
	return summary, nil
}

// Recipes returns the recipes being cooked, in the order they were started.
func (k *Kitchen) Recipes() []cooking.SessionView {
	k.mu.Lock()
	s := k.cooking
	k.mu.Unlock()

	if s == nil {
		return []cooking.SessionView{}
	}
	return s.Snapshot()
}

// Close stops the driver, ends cooking mode, drops every timer and closes
// subscriber channels. It returns the summaries of the recipes still cooking.
func (k *Kitchen) Close() []cooking.Summary {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	s := k.cooking
	k.mu.Unlock()

	k.driver.Stop()

	var summaries []cooking.Summary
	if s != nil {
		summaries = s.Close()
	}
	k.store.Clear()

	k.mu.Lock()
	subs := k.subs
	k.subs = make(map[int]chan Event)
	k.mu.Unlock()

	closedEvent := Event{Type: EventClosed, KitchenID: k.id, At: k.now()}
	for _, ch := range subs {
		select {
		case ch <- closedEvent:
		default:
		}
		close(ch)
	}

	k.logger.Info("kitchen closed", slog.Int("recipes", len(summaries)))
	return summaries
}

func (k *Kitchen) Closed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.closed
}

// Subscribe registers an event channel. The returned function unsubscribes
// and is safe to call after Close.
func (k *Kitchen) Subscribe() (<-chan Event, func()) {
	k.mu.Lock()
	defer k.mu.Unlock()

	ch := make(chan Event, k.subBuffer)
	if k.closed {
		close(ch)
		return ch, func() {}
	}

	id := k.nextSub
	k.nextSub++
	k.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			k.mu.Lock()
			defer k.mu.Unlock()
			if existing, ok := k.subs[id]; ok {
				delete(k.subs, id)
				close(existing)
			}
		})
	}
}

func (k *Kitchen) onTick(res timer.TickResult) {
	for i := range res.Completed {
		t := res.Completed[i]
		k.publish(Event{Type: EventTimerComplete, Timer: &t, At: res.At})
	}
	k.publish(Event{Type: EventTick, Timers: res.Timers, At: res.At})
}

func (k *Kitchen) publishTimers() {
	k.publish(Event{Type: EventTimers, Timers: k.store.List()})
}

// publish never blocks: a subscriber whose buffer is full misses the event.
func (k *Kitchen) publish(ev Event) {
	ev.KitchenID = k.id
	if ev.At.IsZero() {
		ev.At = k.now()
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	for _, ch := range k.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// KitchenView is a read-only copy of a kitchen.
type KitchenView struct {
	ID        string                `json:"id"`
	UserID    string                `json:"userId"`
	CreatedAt time.Time             `json:"createdAt"`
	Timers    []domain.Timer        `json:"timers"`
	Recipes   []cooking.SessionView `json:"recipes"`
}

func (k *Kitchen) View() KitchenView {
	return KitchenView{
		ID:        k.id,
		UserID:    k.userID,
		CreatedAt: k.createdAt,
		Timers:    k.store.List(),
		Recipes:   k.Recipes(),
	}
}
