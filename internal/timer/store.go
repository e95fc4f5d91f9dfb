package timer

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gustalya/gustalya/internal/domain"
)

var ErrInvalidDuration = errors.New("invalid timer duration")

// MaxDuration bounds a single countdown.
const MaxDuration = 24 * 60 * 60

// Store is the set of live timers of one kitchen. It is safe for concurrent
// use; every method runs to completion before another starts.
type Store struct {
	mu     sync.Mutex
	order  []string
	timers map[string]*domain.Timer
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{
		timers: make(map[string]*domain.Timer),
		now:    time.Now,
	}
}

// Add creates a stopped timer, as the cooking assistant does for custom timers.
func (s *Store) Add(label string, totalSec int, category string) (domain.Timer, error) {
	return s.add(label, totalSec, category, false)
}

// AddRunning creates a timer that starts counting immediately. Recipe steps
// use it.
func (s *Store) AddRunning(label string, totalSec int, category string) (domain.Timer, error) {
	return s.add(label, totalSec, category, true)
}

func (s *Store) add(label string, totalSec int, category string, running bool) (domain.Timer, error) {
	if totalSec < 1 || totalSec > MaxDuration {
		return domain.Timer{}, ErrInvalidDuration
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = domain.CategoryCustom
	}

	t := &domain.Timer{
		ID:           uuid.New().String(),
		Label:        strings.TrimSpace(label),
		Category:     category,
		TotalSec:     totalSec,
		RemainingSec: totalSec,
		Running:      running,
		CreatedAt:    s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.timers[t.ID] = t
	s.order = append(s.order, t.ID)
	return *t, nil
}

// Toggle flips the running flag. Unknown ids are ignored.
func (s *Store) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Running = !t.Running
	}
}

// Reset restores the full duration and stops the timer.
func (s *Store) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.RemainingSec = t.TotalSec
		t.Running = false
	}
}

func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(id)
}

// RemoveAll deletes every listed timer.
func (s *Store) RemoveAll(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		s.removeLocked(id)
	}
}

func (s *Store) removeLocked(id string) {
	if _, ok := s.timers[id]; !ok {
		return
	}
	delete(s.timers, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timers = make(map[string]*domain.Timer)
	s.order = nil
}

func (s *Store) Get(id string) (domain.Timer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[id]
	if !ok {
		return domain.Timer{}, false
	}
	return *t, true
}

// Has reports whether id is still in the store.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.timers[id]
	return ok
}

// List returns copies of the timers in creation order.
func (s *Store) List() []domain.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listLocked()
}

func (s *Store) listLocked() []domain.Timer {
	out := make([]domain.Timer, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.timers[id])
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// tick is one decrement pass. It returns the timers that went from one to
// zero seconds during this pass, in creation order, and a snapshot of all
// timers after the pass.
func (s *Store) tick() (completed []domain.Timer, snapshot []domain.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		t := s.timers[id]
		if !t.Running || t.RemainingSec <= 0 {
			continue
		}
		t.RemainingSec--
		if t.RemainingSec == 0 {
			completed = append(completed, *t)
		}
	}
	return completed, s.listLocked()
}
