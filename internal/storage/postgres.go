package storage

import (
	"database/sql"

	_ "github.com/lib/pq"
)

type PostgresRepository struct {
	sqlStore
}

func NewPostgresRepository(connStr string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	repo := &PostgresRepository{sqlStore{db: db, numbered: true}}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *PostgresRepository) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recipes (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		servings INTEGER NOT NULL DEFAULT 0,
		ingredients_json JSONB NOT NULL,
		steps_json JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recipes_owner ON recipes(owner_id);

	CREATE TABLE IF NOT EXISTS cooks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		recipe_id TEXT NOT NULL,
		recipe_title TEXT NOT NULL,
		steps_reached INTEGER NOT NULL,
		total_steps INTEGER NOT NULL,
		finished BOOLEAN NOT NULL,
		timed_sec INTEGER NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cooks_user_id ON cooks(user_id);
	CREATE INDEX IF NOT EXISTS idx_cooks_completed_at ON cooks(completed_at);
	`

	_, err := r.db.Exec(schema)
	return err
}
