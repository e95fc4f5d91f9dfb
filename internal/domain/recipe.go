package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Recipe struct {
	ID          string       `json:"id" yaml:"id,omitempty"`
	OwnerID     string       `json:"ownerId" yaml:"owner,omitempty"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string       `json:"category,omitempty" yaml:"category,omitempty"`
	Servings    int          `json:"servings,omitempty" yaml:"servings,omitempty"`
	Ingredients []Ingredient `json:"ingredients" yaml:"ingredients,omitempty"`
	Steps       []Step       `json:"steps" yaml:"steps"`
	CreatedAt   time.Time    `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time    `json:"updatedAt" yaml:"-"`
}

type Ingredient struct {
	Name     string `json:"name" yaml:"name"`
	Quantity string `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Unit     string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Step is one instruction of a recipe. Duration is the text the author
// typed ("10 min"); it is parsed only when a cooking session reaches the step.
type Step struct {
	Instruction string `json:"instruction" yaml:"instruction"`
	Duration    string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Seconds returns the parsed step duration, or false when the step has none
// or its text cannot be understood.
func (s Step) Seconds() (int, bool) {
	if strings.TrimSpace(s.Duration) == "" {
		return 0, false
	}
	return ParseDuration(s.Duration)
}

func NewRecipe(id string, ownerID string, title string, steps []Step) *Recipe {
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()

	return &Recipe{
		ID:        id,
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(title),
		Steps:     steps,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate reports the first problem that makes the recipe unusable.
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrRecipeTitleRequired
	}
	if len(r.Steps) == 0 {
		return ErrRecipeNoSteps
	}
	for _, step := range r.Steps {
		if strings.TrimSpace(step.Instruction) == "" {
			return ErrStepInstructionRequired
		}
	}
	return nil
}

// TimedSeconds sums every step duration that parses.
func (r *Recipe) TimedSeconds() int {
	total := 0
	for _, step := range r.Steps {
		if sec, ok := step.Seconds(); ok {
			total += sec
		}
	}
	return total
}
