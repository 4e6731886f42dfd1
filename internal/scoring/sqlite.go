package scoring

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const resultsSchema = `
CREATE TABLE IF NOT EXISTS game_results (
	id         TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	score      INTEGER NOT NULL,
	moves      INTEGER NOT NULL,
	time_spent INTEGER NOT NULL,
	timestamp  TEXT NOT NULL
);
`

// SQLiteStorage is an implementation of Storage backed by a SQLite database.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the results database at the given path.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open results database: %w", err)
	}

	// WAL mode keeps reads cheap; a single connection is enough for SQLite.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), resultsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create results table: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Record inserts one result row.
func (s *SQLiteStorage) Record(entry Entry) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO game_results (id, category, score, moves, time_spent, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Category, entry.Score, entry.Moves, entry.TimeSpent, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// LoadAll returns every recorded result, oldest first.
func (s *SQLiteStorage) LoadAll() ([]Entry, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT id, category, score, moves, time_spent, timestamp
		 FROM game_results ORDER BY timestamp`)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Category, &e.Score, &e.Moves, &e.TimeSpent, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return entries, nil
}
