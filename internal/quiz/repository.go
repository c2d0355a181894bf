package quiz

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Repository reads and writes the three question pools.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps an open SQLite connection, usually the one owned by storage.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: sqlx.NewDb(db, "sqlite")}
}

// Migrate creates the question tables if they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS test_questions (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			question TEXT NOT NULL,
			options  TEXT NOT NULL,
			correct  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS open_questions (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			question TEXT NOT NULL,
			correct  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bonus_questions (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			question TEXT NOT NULL,
			correct  TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate quiz tables: %w", err)
		}
	}
	return nil
}

// Seed inserts questions into the pool for kind in one transaction.
func (r *Repository) Seed(ctx context.Context, kind Kind, questions []Question) error {
	table, err := kind.table()
	if err != nil {
		return err
	}
	for i, q := range questions {
		if err := q.Validate(kind); err != nil {
			return fmt.Errorf("%s question %d: %w", kind, i+1, err)
		}
	}

	query := `INSERT INTO ` + table + ` (question, correct) VALUES (:question, :correct)`
	if kind == Test {
		query = `INSERT INTO test_questions (question, options, correct) VALUES (:question, :options, :correct)`
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range questions {
		if _, err := tx.NamedExecContext(ctx, query, q); err != nil {
			return fmt.Errorf("failed to insert %s question: %w", kind, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s questions: %w", kind, err)
	}
	return nil
}

// SeedAll fills every pool from a seed file.
func (r *Repository) SeedAll(ctx context.Context, s *SeedFile) error {
	for _, kind := range Kinds {
		if err := r.Seed(ctx, kind, s.Pool(kind)); err != nil {
			return err
		}
	}
	return nil
}

// Random returns up to limit questions of kind in random order. A limit below
// one returns the whole pool.
func (r *Repository) Random(ctx context.Context, kind Kind, limit int) ([]Question, error) {
	table, err := kind.table()
	if err != nil {
		return nil, err
	}
	cols := `id, question, NULL AS options, correct`
	if kind == Test {
		cols = `id, question, options, correct`
	}
	query := `SELECT ` + cols + ` FROM ` + table + ` ORDER BY RANDOM()`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var questions []Question
	if err := r.db.SelectContext(ctx, &questions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select %s questions: %w", kind, err)
	}
	for i := range questions {
		questions[i].Kind = kind
	}
	return questions, nil
}

// Count returns the size of the pool for kind.
func (r *Repository) Count(ctx context.Context, kind Kind) (int, error) {
	table, err := kind.table()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+table); err != nil {
		return 0, fmt.Errorf("failed to count %s questions: %w", kind, err)
	}
	return n, nil
}

// Reset empties every pool.
func (r *Repository) Reset(ctx context.Context) error {
	for _, kind := range Kinds {
		table, _ := kind.table()
		if _, err := r.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to reset %s questions: %w", kind, err)
		}
	}
	return nil
}
