package cooking

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gustalya/gustalya/internal/domain"
	"github.com/gustalya/gustalya/internal/timer"
)

var (
	ErrNoRecipes        = errors.New("no recipes to cook")
	ErrRecipeRefMissing = errors.New("recipe id required")
	ErrDuplicateRecipe  = errors.New("recipe already in session")
	ErrRecipeNotCooking = errors.New("recipe not in session")
	ErrSessionClosed    = errors.New("cooking session closed")
)

// MultiSession cooks several recipes side by side. Each recipe keeps its own
// step pointer and step timers; all timers live in the shared store and tick
// from the kitchen's single driver.
type MultiSession struct {
	mu       sync.Mutex
	store    *timer.Store
	order    []string
	sessions map[string]*Session
	closed   bool
	now      func() time.Time
}

// Start opens a session for every recipe at its first step. A first step with
// a duration gets a running timer right away.
func Start(store *timer.Store, recipes []domain.Recipe) (*MultiSession, error) {
	if len(recipes) == 0 {
		return nil, ErrNoRecipes
	}

	m := &MultiSession{
		store:    store,
		sessions: make(map[string]*Session, len(recipes)),
		now:      time.Now,
	}

	for _, r := range recipes {
		if strings.TrimSpace(r.ID) == "" {
			return nil, ErrRecipeRefMissing
		}
		if len(r.Steps) == 0 {
			return nil, domain.ErrRecipeNoSteps
		}
		if _, dup := m.sessions[r.ID]; dup {
			return nil, ErrDuplicateRecipe
		}
		m.sessions[r.ID] = newSession(r, m.now())
		m.order = append(m.order, r.ID)
	}

	for _, id := range m.order {
		s := m.sessions[id]
		s.enterStep(store, 0)
	}
	return m, nil
}

func (m *MultiSession) lookup(ref string) (*Session, error) {
	if m.closed {
		return nil, ErrSessionClosed
	}
	s, ok := m.sessions[ref]
	if !ok {
		return nil, ErrRecipeNotCooking
	}
	return s, nil
}

// Advance moves one recipe to its next step. On the last step it does
// nothing.
func (m *MultiSession) Advance(ref string) (SessionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(ref)
	if err != nil {
		return SessionView{}, err
	}
	if s.current < s.lastStep() {
		s.current++
		s.enterStep(m.store, s.current)
	}
	return s.view(m.store), nil
}

// Previous moves one recipe back a step without touching any timer.
func (m *MultiSession) Previous(ref string) (SessionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(ref)
	if err != nil {
		return SessionView{}, err
	}
	if s.current > 0 {
		s.current--
	}
	return s.view(m.store), nil
}

// StartStepTimer (re)creates the countdown of the current step, for example
// after the cook deleted it.
func (m *MultiSession) StartStepTimer(ref string) (SessionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(ref)
	if err != nil {
		return SessionView{}, err
	}
	s.enterStep(m.store, s.current)
	return s.view(m.store), nil
}

// Apply runs a voice command against one recipe.
func (m *MultiSession) Apply(ref string, cmd Command) (SessionView, error) {
	switch cmd {
	case CommandNext:
		return m.Advance(ref)
	case CommandPrevious:
		return m.Previous(ref)
	case CommandTimer:
		return m.StartStepTimer(ref)
	case CommandRepeat:
		return m.View(ref)
	default:
		return SessionView{}, ErrUnknownCommand
	}
}

// Remove drops one recipe and its timers. The other recipes keep their step
// pointers and timers untouched.
func (m *MultiSession) Remove(ref string) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(ref)
	if err != nil {
		return Summary{}, err
	}

	m.store.RemoveAll(s.timerIDs())
	delete(m.sessions, ref)
	for i, id := range m.order {
		if id == ref {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return s.summary(m.now()), nil
}

// Close tears down every recipe and its timers. Later calls return nothing.
func (m *MultiSession) Close() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	now := m.now()
	summaries := make([]Summary, 0, len(m.order))
	for _, id := range m.order {
		s := m.sessions[id]
		m.store.RemoveAll(s.timerIDs())
		summaries = append(summaries, s.summary(now))
	}
	m.sessions = nil
	m.order = nil
	return summaries
}

func (m *MultiSession) View(ref string) (SessionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(ref)
	if err != nil {
		return SessionView{}, err
	}
	return s.view(m.store), nil
}

// Snapshot returns every recipe in the order it was added.
func (m *MultiSession) Snapshot() []SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	views := make([]SessionView, 0, len(m.order))
	for _, id := range m.order {
		views = append(views, m.sessions[id].view(m.store))
	}
	return views
}

// Len is the number of recipes still cooking.
func (m *MultiSession) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

func (m *MultiSession) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
