package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gustalya/gustalya/internal/domain"
)

var ErrRecipeNotFound = errors.New("recipe not found")

type Repository interface {
	CreateRecipe(ctx context.Context, recipe *domain.Recipe) error

	GetRecipe(ctx context.Context, id string) (*domain.Recipe, error)

	// ListRecipes returns the recipes of ownerID, or every recipe when
	// ownerID is empty, newest first.
	ListRecipes(ctx context.Context, ownerID string) ([]domain.Recipe, error)

	UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error

	DeleteRecipe(ctx context.Context, id string) error

	SaveCook(ctx context.Context, record *CookRecord) error

	GetCooksByUser(ctx context.Context, userID string) ([]CookRecord, error)

	GetRecentCooks(ctx context.Context, userID string, since time.Time) ([]CookRecord, error)

	GetCookingStats(ctx context.Context, userID string) (*CookingStats, error)

	Close() error
}

type CookingStats struct {
	TotalCooks      int `json:"totalCooks"`
	FinishedCooks   int `json:"finishedCooks"`
	DistinctRecipes int `json:"distinctRecipes"`
	TotalTimedSec   int `json:"totalTimedSec"`
	RecipesAuthored int `json:"recipesAuthored"`
	// FinishRate is a percentage of cooks that reached the last step.
	FinishRate float64 `json:"finishRate"`
}

// Open returns the repository for driver ("sqlite" or "postgres").
func Open(driver, dsn string) (Repository, error) {
	switch driver {
	case "postgres":
		repo, err := NewPostgresRepository(dsn)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "sqlite", "":
		repo, err := NewSQLiteRepository(dsn)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}
