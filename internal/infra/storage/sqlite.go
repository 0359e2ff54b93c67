package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite opens (creating if needed) the local SQLite database and
// installs the schemas for puzzle content, shared room state, scoring,
// users, and trivia progress.
func InitSQLite(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS puzzles (
			date TEXT PRIMARY KEY,
			content TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS cells (
			date TEXT NOT NULL,
			row INTEGER NOT NULL,
			col INTEGER NOT NULL,
			letter TEXT NOT NULL DEFAULT '',
			filler TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (date, row, col)
		);`,
		`CREATE TABLE IF NOT EXISTS scores (
			date TEXT NOT NULL,
			name TEXT NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			total_guesses INTEGER NOT NULL DEFAULT 0,
			incorrect_guesses INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (date, name)
		);`,
		`CREATE TABLE IF NOT EXISTS timers (
			date TEXT PRIMARY KEY,
			seconds INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			device_id TEXT PRIMARY KEY,
			ip TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_users_name ON users(name);`,
		`CREATE TABLE IF NOT EXISTS jeopardy_games (
			game_id TEXT PRIMARY KEY,
			content TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS jeopardy_progress (
			game_id TEXT PRIMARY KEY,
			clues_answered INTEGER NOT NULL DEFAULT 0,
			total_clues INTEGER NOT NULL DEFAULT 0,
			current_round TEXT NOT NULL DEFAULT 'jeopardy',
			completed BOOLEAN NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
