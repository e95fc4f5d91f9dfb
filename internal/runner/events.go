package runner

import (
	"time"

	"github.com/gustalya/gustalya/internal/cooking"
	"github.com/gustalya/gustalya/internal/domain"
)

type EventType string

const (
	EventTick          EventType = "tick"
	EventTimerComplete EventType = "timer_complete"
	EventTimers        EventType = "timers"
	EventStep          EventType = "step"
	EventRecipeRemoved EventType = "recipe_removed"
	EventClosed        EventType = "closed"
)

// Event is pushed to kitchen subscribers.
type Event struct {
	Type      EventType            `json:"type"`
	KitchenID string               `json:"kitchenId"`
	Timers    []domain.Timer       `json:"timers,omitempty"`
	Timer     *domain.Timer        `json:"timer,omitempty"`
	Recipe    *cooking.SessionView `json:"recipe,omitempty"`
	RecipeID  string               `json:"recipeId,omitempty"`
	At        time.Time            `json:"at"`
}
