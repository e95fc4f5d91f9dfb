package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/gustalya/gustalya/internal/cooking"
)

// CookRecord is one recipe cooked by a user, saved when it leaves the kitchen.
type CookRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	RecipeID     string    `json:"recipeId"`
	RecipeTitle  string    `json:"recipeTitle"`
	StepsReached int       `json:"stepsReached"`
	TotalSteps   int       `json:"totalSteps"`
	Finished     bool      `json:"finished"`
	TimedSec     int       `json:"timedSec"`
	StartedAt    time.Time `json:"startedAt"`
	CompletedAt  time.Time `json:"completedAt"`
}

// FromSummary converts a cooking.Summary to a CookRecord
func FromSummary(userID string, s cooking.Summary) *CookRecord {
	completedAt := s.ClosedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	timed := 0
	if s.Finished {
		timed = s.TimedSeconds
	}

	return &CookRecord{
		ID:           uuid.New().String(),
		UserID:       userID,
		RecipeID:     s.RecipeID,
		RecipeTitle:  s.Title,
		StepsReached: s.StepsReached,
		TotalSteps:   s.TotalSteps,
		Finished:     s.Finished,
		TimedSec:     timed,
		StartedAt:    s.StartedAt.UTC(),
		CompletedAt:  completedAt.UTC(),
	}
}
