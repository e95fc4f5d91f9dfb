package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gustalya/gustalya/internal/cooking"
	"github.com/gustalya/gustalya/internal/logging"
	"github.com/gustalya/gustalya/internal/storage"
	"github.com/gustalya/gustalya/internal/timer"
)

var (
	ErrKitchenExists   = errors.New("kitchen already exists")
	ErrKitchenNotFound = errors.New("kitchen not found")
)

// HistorySink receives the recipes that leave a kitchen.
type HistorySink interface {
	SaveCook(ctx context.Context, record *storage.CookRecord) error
}

// Options configures a Manager.
type Options struct {
	Notifier         timer.Notifier
	History          HistorySink
	Logger           *slog.Logger
	IdleTimeout      time.Duration
	CleanupInterval  time.Duration
	SubscriberBuffer int
	// TickInterval overrides the one second cadence; tests only.
	TickInterval time.Duration
}

// Manager is the registry of open kitchens.
type Manager struct {
	mu       sync.Mutex
	kitchens map[string]*Kitchen
	opts     Options
	logger   *slog.Logger
}

func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 6 * time.Hour
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = 16
	}
	return &Manager{
		kitchens: make(map[string]*Kitchen),
		opts:     opts,
		logger:   opts.Logger,
	}
}

// Run collects idle kitchens until ctx is done, then closes every kitchen.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Shutdown(context.WithoutCancel(ctx))
			return
		case now := <-ticker.C:
			m.cleanupIdle(ctx, now)
		}
	}
}

func (m *Manager) cleanupIdle(ctx context.Context, now time.Time) {
	cutoff := now.Add(-m.opts.IdleTimeout)

	m.mu.Lock()
	var idle []*Kitchen
	for id, k := range m.kitchens {
		if k.lastActive().Before(cutoff) {
			idle = append(idle, k)
			delete(m.kitchens, id)
		}
	}
	m.mu.Unlock()

	for _, k := range idle {
		m.logger.Info("closing idle kitchen", slog.String("kitchen_id", k.ID()))
		m.persist(ctx, k.UserID(), k.Close())
	}
}

// Open creates a kitchen and starts its tick driver. An empty id gets a
// generated one.
func (m *Manager) Open(id string, userID string) (*Kitchen, error) {
	if id == "" {
		id = uuid.New().String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.kitchens[id]; exists {
		return nil, ErrKitchenExists
	}

	k := newKitchen(id, userID, kitchenOptions{
		notifier:     m.opts.Notifier,
		logger:       m.logger,
		subBuffer:    m.opts.SubscriberBuffer,
		tickInterval: m.opts.TickInterval,
	})
	if err := k.start(context.Background()); err != nil {
		return nil, err
	}
	m.kitchens[id] = k

	m.logger.Info("kitchen opened", slog.String("kitchen_id", id), slog.String("user_id", userID))
	return k, nil
}

func (m *Manager) Get(id string) (*Kitchen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.kitchens[id]
	if !ok {
		return nil, ErrKitchenNotFound
	}
	return k, nil
}

// Close shuts a kitchen and records the recipes it was cooking.
func (m *Manager) Close(ctx context.Context, id string) ([]cooking.Summary, error) {
	m.mu.Lock()
	k, ok := m.kitchens[id]
	if ok {
		delete(m.kitchens, id)
	}
	m.mu.Unlock()

	if !ok {
		return nil, ErrKitchenNotFound
	}

	summaries := k.Close()
	m.persist(ctx, k.UserID(), summaries)
	return summaries, nil
}

// RemoveRecipe drops one recipe from a kitchen and records it.
func (m *Manager) RemoveRecipe(ctx context.Context, id string, recipeID string) (cooking.Summary, error) {
	k, err := m.Get(id)
	if err != nil {
		return cooking.Summary{}, err
	}
	summary, err := k.RemoveRecipe(recipeID)
	if err != nil {
		return cooking.Summary{}, err
	}
	m.persist(ctx, k.UserID(), []cooking.Summary{summary})
	return summary, nil
}

// Count returns the number of open kitchens.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.kitchens)
}

// Shutdown closes every kitchen.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	kitchens := m.kitchens
	m.kitchens = make(map[string]*Kitchen)
	m.mu.Unlock()

	for _, k := range kitchens {
		m.persist(ctx, k.UserID(), k.Close())
	}
}

func (m *Manager) persist(ctx context.Context, userID string, summaries []cooking.Summary) {
	if m.opts.History == nil {
		return
	}
	for _, s := range summaries {
		if err := m.opts.History.SaveCook(ctx, storage.FromSummary(userID, s)); err != nil {
			m.logger.Warn("failed to record cook",
				slog.String("user_id", userID),
				slog.String("recipe_id", s.RecipeID),
				slog.Any("error", err),
			)
		}
	}
}
