package cooking

import (
	"fmt"
	"time"

	"github.com/gustalya/gustalya/internal/domain"
	"github.com/gustalya/gustalya/internal/timer"
)

// Session tracks one recipe being cooked: the current step and the timers
// its steps started.
type Session struct {
	recipe     domain.Recipe
	current    int
	furthest   int
	stepTimers map[int]string
	startedAt  time.Time
}

func newSession(recipe domain.Recipe, now time.Time) *Session {
	return &Session{
		recipe:     recipe,
		stepTimers: make(map[int]string),
		startedAt:  now,
	}
}

func (s *Session) RecipeID() string {
	return s.recipe.ID
}

func (s *Session) CurrentStep() int {
	return s.current
}

func (s *Session) lastStep() int {
	return len(s.recipe.Steps) - 1
}

// enterStep starts the countdown of step idx when the step declares a
// duration that parses and no live timer is attached to it yet.
func (s *Session) enterStep(store *timer.Store, idx int) {
	if idx > s.furthest {
		s.furthest = idx
	}

	sec, ok := s.recipe.Steps[idx].Seconds()
	if !ok {
		return
	}
	if id, exists := s.stepTimers[idx]; exists && store.Has(id) {
		return
	}

	label := fmt.Sprintf("%s · étape %d", s.recipe.Title, idx+1)
	t, err := store.AddRunning(label, sec, domain.CategoryStep)
	if err != nil {
		// Out-of-range durations are treated like a step without duration.
		return
	}
	s.stepTimers[idx] = t.ID
}

func (s *Session) timerIDs() []string {
	ids := make([]string, 0, len(s.stepTimers))
	for _, id := range s.stepTimers {
		ids = append(ids, id)
	}
	return ids
}

func (s *Session) view(store *timer.Store) SessionView {
	step := s.recipe.Steps[s.current]
	timers := make(map[int]string, len(s.stepTimers))
	for idx, id := range s.stepTimers {
		if store.Has(id) {
			timers[idx] = id
		}
	}

	return SessionView{
		RecipeID:    s.recipe.ID,
		Title:       s.recipe.Title,
		CurrentStep: s.current,
		TotalSteps:  len(s.recipe.Steps),
		Step: StepView{
			Index:       s.current,
			Instruction: step.Instruction,
			Duration:    step.Duration,
			TimerID:     timers[s.current],
		},
		StepTimers: timers,
		StartedAt:  s.startedAt,
	}
}

func (s *Session) summary(closedAt time.Time) Summary {
	return Summary{
		RecipeID:     s.recipe.ID,
		Title:        s.recipe.Title,
		StepsReached: s.furthest + 1,
		TotalSteps:   len(s.recipe.Steps),
		Finished:     s.furthest == s.lastStep(),
		TimedSeconds: s.recipe.TimedSeconds(),
		StartedAt:    s.startedAt,
		ClosedAt:     closedAt,
	}
}

// StepView is the step a cook is looking at.
type StepView struct {
	Index       int    `json:"index"`
	Instruction string `json:"instruction"`
	Duration    string `json:"duration,omitempty"`
	TimerID     string `json:"timerId,omitempty"`
}

// SessionView is a read-only copy of a Session.
type SessionView struct {
	RecipeID    string         `json:"recipeId"`
	Title       string         `json:"title"`
	CurrentStep int            `json:"currentStep"`
	TotalSteps  int            `json:"totalSteps"`
	Step        StepView       `json:"step"`
	StepTimers  map[int]string `json:"stepTimers"`
	StartedAt   time.Time      `json:"startedAt"`
}

// Summary is what remains of a Session once it leaves the kitchen.
type Summary struct {
	RecipeID     string    `json:"recipeId"`
	Title        string    `json:"title"`
	StepsReached int       `json:"stepsReached"`
	TotalSteps   int       `json:"totalSteps"`
	Finished     bool      `json:"finished"`
	TimedSeconds int       `json:"timedSeconds"`
	StartedAt    time.Time `json:"startedAt"`
	ClosedAt     time.Time `json:"closedAt"`
}
