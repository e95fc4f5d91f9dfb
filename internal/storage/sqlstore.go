package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gustalya/gustalya/internal/domain"
)

// sqlStore holds the queries shared by the SQLite and Postgres repositories.
// Queries are written with "?" placeholders and rebound for Postgres.
type sqlStore struct {
	db       *sql.DB
	numbered bool
}

func (s *sqlStore) q(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const recipeColumns = `id, owner_id, title, description, category, servings, ingredients_json, steps_json, created_at, updated_at`

func (s *sqlStore) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return err
	}
	ingredientsJSON, stepsJSON, err := marshalRecipe(recipe)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = now
	}
	recipe.UpdatedAt = now

	query := `
		INSERT INTO recipes (` + recipeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(
		ctx,
		s.q(query),
		recipe.ID,
		recipe.OwnerID,
		recipe.Title,
		recipe.Description,
		recipe.Category,
		recipe.Servings,
		ingredientsJSON,
		stepsJSON,
		recipe.CreatedAt.UTC(),
		recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}
	return nil
}

func (s *sqlStore) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = ?`

	rows, err := s.db.QueryContext(ctx, s.q(query), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes, err := s.scanRecipes(rows)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, ErrRecipeNotFound
	}
	return &recipes[0], nil
}

func (s *sqlStore) ListRecipes(ctx context.Context, ownerID string) ([]domain.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes`
	var args []any
	if ownerID != "" {
		query += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY created_at DESC, title ASC`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanRecipes(rows)
}

func (s *sqlStore) UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return err
	}
	ingredientsJSON, stepsJSON, err := marshalRecipe(recipe)
	if err != nil {
		return err
	}
	recipe.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE recipes
		SET title = ?, description = ?, category = ?, servings = ?, ingredients_json = ?, steps_json = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(
		ctx,
		s.q(query),
		recipe.Title,
		recipe.Description,
		recipe.Category,
		recipe.Servings,
		ingredientsJSON,
		stepsJSON,
		recipe.UpdatedAt,
		recipe.ID,
	)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	return expectRow(res)
}

func (s *sqlStore) DeleteRecipe(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM recipes WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

func marshalRecipe(recipe *domain.Recipe) (string, string, error) {
	ingredients := recipe.Ingredients
	if ingredients == nil {
		ingredients = []domain.Ingredient{}
	}
	ingredientsJSON, err := json.Marshal(ingredients)
	if err != nil {
		return "", "", err
	}
	stepsJSON, err := json.Marshal(recipe.Steps)
	if err != nil {
		return "", "", err
	}
	return string(ingredientsJSON), string(stepsJSON), nil
}

func (s *sqlStore) scanRecipes(rows *sql.Rows) ([]domain.Recipe, error) {
	var recipes []domain.Recipe

	for rows.Next() {
		var recipe domain.Recipe
		var ingredientsJSON, stepsJSON []byte

		err := rows.Scan(
			&recipe.ID,
			&recipe.OwnerID,
			&recipe.Title,
			&recipe.Description,
			&recipe.Category,
			&recipe.Servings,
			&ingredientsJSON,
			&stepsJSON,
			&recipe.CreatedAt,
			&recipe.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(ingredientsJSON, &recipe.Ingredients); err != nil {
			return nil, fmt.Errorf("decode ingredients of %s: %w", recipe.ID, err)
		}
		if err := json.Unmarshal(stepsJSON, &recipe.Steps); err != nil {
			return nil, fmt.Errorf("decode steps of %s: %w", recipe.ID, err)
		}

		recipes = append(recipes, recipe)
	}

	return recipes, rows.Err()
}

const cookColumns = `id, user_id, recipe_id, recipe_title, steps_reached, total_steps, finished, timed_sec, started_at, completed_at`

func (s *sqlStore) SaveCook(ctx context.Context, record *CookRecord) error {
	if record == nil {
		return errors.New("nil cook record")
	}

	query := `
		INSERT INTO cooks (` + cookColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(
		ctx,
		s.q(query),
		record.ID,
		record.UserID,
		record.RecipeID,
		record.RecipeTitle,
		record.StepsReached,
		record.TotalSteps,
		record.Finished,
		record.TimedSec,
		record.StartedAt,
		record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cook: %w", err)
	}
	return nil
}

func (s *sqlStore) GetCooksByUser(ctx context.Context, userID string) ([]CookRecord, error) {
	query := `
		SELECT ` + cookColumns + `
		FROM cooks
		WHERE user_id = ?
		ORDER BY completed_at DESC
	`

	rows, err := s.db.QueryContext(ctx, s.q(query), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanCooks(rows)
}

func (s *sqlStore) GetRecentCooks(ctx context.Context, userID string, since time.Time) ([]CookRecord, error) {
	query := `
		SELECT ` + cookColumns + `
		FROM cooks
		WHERE user_id = ? AND completed_at >= ?
		ORDER BY completed_at DESC
	`

	rows, err := s.db.QueryContext(ctx, s.q(query), userID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanCooks(rows)
}

func (s *sqlStore) GetCookingStats(ctx context.Context, userID string) (*CookingStats, error) {
	query := `
		SELECT
			COUNT(*) as total,
			SUM(CASE WHEN finished THEN 1 ELSE 0 END) as finished,
			COUNT(DISTINCT recipe_id) as distinct_recipes,
			SUM(timed_sec) as total_timed
		FROM cooks
		WHERE user_id = ?
	`

	var stats CookingStats
	var finished sql.NullInt64
	var totalTimed sql.NullInt64

	err := s.db.QueryRowContext(ctx, s.q(query), userID).Scan(
		&stats.TotalCooks,
		&finished,
		&stats.DistinctRecipes,
		&totalTimed,
	)
	if err != nil {
		return nil, err
	}

	if finished.Valid {
		stats.FinishedCooks = int(finished.Int64)
	}
	if totalTimed.Valid {
		stats.TotalTimedSec = int(totalTimed.Int64)
	}
	if stats.TotalCooks > 0 {
		stats.FinishRate = float64(stats.FinishedCooks) / float64(stats.TotalCooks) * 100
	}

	err = s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM recipes WHERE owner_id = ?`), userID).
		Scan(&stats.RecipesAuthored)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (s *sqlStore) scanCooks(rows *sql.Rows) ([]CookRecord, error) {
	var records []CookRecord

	for rows.Next() {
		var record CookRecord

		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.RecipeID,
			&record.RecipeTitle,
			&record.StepsReached,
			&record.TotalSteps,
			&record.Finished,
			&record.TimedSec,
			&record.StartedAt,
			&record.CompletedAt,
		)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
