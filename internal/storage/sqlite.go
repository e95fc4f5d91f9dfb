package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	sqlStore
}

// NewSQLiteRepository opens (and creates) the database at dbPath. Use
// ":memory:" for a throwaway database.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
		dsn = "file:" + dbPath + "?_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{sqlStore{db: db}}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *SQLiteRepository) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recipes (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		servings INTEGER NOT NULL DEFAULT 0,
		ingredients_json TEXT NOT NULL,
		steps_json TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
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
		started_at DATETIME NOT NULL,
		completed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cooks_user_id ON cooks(user_id);
	CREATE INDEX IF NOT EXISTS idx_cooks_completed_at ON cooks(completed_at);
	`

	_, err := r.db.Exec(schema)
	return err
}
