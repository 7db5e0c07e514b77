package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"vaultcal/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

// Storage is the sqlite-backed sync journal
type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sync_passes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			pushed INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			imported INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			errors TEXT DEFAULT '[]',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_passes_started ON sync_passes(started_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// RecordPass appends a finished sync pass to the journal
func (s *Storage) RecordPass(pass *domain.SyncPass) error {
	errJSON, err := json.Marshal(pass.Errors)
	if err != nil {
		return fmt.Errorf("encode errors: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO sync_passes (started_at, finished_at, pushed, failed, imported, skipped, errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pass.StartedAt, pass.FinishedAt,
		pass.Pushed, pass.Failed, pass.Imported, pass.Skipped,
		string(errJSON),
	)
	if err != nil {
		return fmt.Errorf("insert sync pass: %w", err)
	}

	pass.ID, _ = res.LastInsertId()
	return nil
}

// ListPasses returns the most recent sync passes, newest first
func (s *Storage) ListPasses(limit int) ([]*domain.SyncPass, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, pushed, failed, imported, skipped, errors
		 FROM sync_passes
		 ORDER BY started_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync passes: %w", err)
	}
	defer rows.Close()

	var passes []*domain.SyncPass
	for rows.Next() {
		var (
			p       domain.SyncPass
			errJSON string
		)
		if err := rows.Scan(&p.ID, &p.StartedAt, &p.FinishedAt,
			&p.Pushed, &p.Failed, &p.Imported, &p.Skipped, &errJSON); err != nil {
			return nil, fmt.Errorf("scan sync pass: %w", err)
		}
		if errJSON != "" {
			if err := json.Unmarshal([]byte(errJSON), &p.Errors); err != nil {
				return nil, fmt.Errorf("decode errors: %w", err)
			}
		}
		passes = append(passes, &p)
	}

	return passes, rows.Err()
}
