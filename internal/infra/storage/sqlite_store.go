package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/blarphus/crossword/internal/domain/jeopardy"
	"github.com/blarphus/crossword/internal/domain/puzzle"
	"github.com/blarphus/crossword/internal/platform/metrics"
)

// SQLiteStore implements Store over database/sql with the modernc driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an initialized database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close releases the underlying handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// recordWrite feeds the storage latency metrics.
func recordWrite(start time.Time, err error) {
	metrics.Get().RecordStoreWrite(time.Since(start), err)
}

// ---------------------------------------------------------
// Puzzle content
// ---------------------------------------------------------

func (s *SQLiteStore) GetPuzzle(ctx context.Context, date string) (*puzzle.Puzzle, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM puzzles WHERE date = ?`, date).Scan(&content)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load puzzle %s: %w", date, err)
	}

	var p puzzle.Puzzle
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, fmt.Errorf("corrupt puzzle content for %s: %w", date, err)
	}
	return &p, nil
}

func (s *SQLiteStore) HasPuzzle(ctx context.Context, date string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM puzzles WHERE date = ?`, date).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) PutPuzzle(ctx context.Context, p *puzzle.Puzzle) error {
	start := time.Now()
	content, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal puzzle: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO puzzles (date, content) VALUES (?, ?)
		 ON CONFLICT(date) DO UPDATE SET content=excluded.content`,
		p.Date, string(content),
	)
	recordWrite(start, err)
	if err != nil {
		return fmt.Errorf("failed to store puzzle %s: %w", p.Date, err)
	}
	return nil
}

// ---------------------------------------------------------
// Shared crossword state
// ---------------------------------------------------------

func (s *SQLiteStore) GetState(ctx context.Context, date string) (*RoomState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row, col, letter, filler, updated_at FROM cells WHERE date = ?`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load state for %s: %w", date, err)
	}
	defer rows.Close()

	state := &RoomState{
		UserGrid:    make(map[string]string),
		CellFillers: make(map[string]string),
		Points:      make(map[string]int),
		Guesses:     make(map[string]GuessStats),
	}
	found := false
	for rows.Next() {
		var row, col int
		var letter, filler string
		var updatedAt time.Time
		if err := rows.Scan(&row, &col, &letter, &filler, &updatedAt); err != nil {
			return nil, err
		}
		found = true
		key := puzzle.CellKey(row, col)
		if letter != "" {
			state.UserGrid[key] = letter
		}
		if filler != "" {
			state.CellFillers[key] = filler
		}
		if updatedAt.After(state.UpdatedAt) {
			state.UpdatedAt = updatedAt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	scoreRows, err := s.db.QueryContext(ctx,
		`SELECT name, points, total_guesses, incorrect_guesses FROM scores WHERE date = ?`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores for %s: %w", date, err)
	}
	defer scoreRows.Close()

	for scoreRows.Next() {
		var name string
		var points, total, incorrect int
		if err := scoreRows.Scan(&name, &points, &total, &incorrect); err != nil {
			return nil, err
		}
		found = true
		state.Points[name] = points
		state.Guesses[name] = GuessStats{Total: total, Incorrect: incorrect}
	}
	if err := scoreRows.Err(); err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}
	return state, nil
}

func (s *SQLiteStore) UpsertCell(ctx context.Context, date string, row, col int, letter string) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cells (date, row, col, letter, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(date, row, col) DO UPDATE SET letter=excluded.letter, updated_at=excluded.updated_at`,
		date, row, col, letter, time.Now().UTC(),
	)
	recordWrite(start, err)
	if err != nil {
		return fmt.Errorf("failed to upsert cell (%d,%d) for %s: %w", row, col, date, err)
	}
	return nil
}

func (s *SQLiteStore) UpsertCellFiller(ctx context.Context, date string, row, col int, name string) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cells (date, row, col, filler, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(date, row, col) DO UPDATE SET filler=excluded.filler, updated_at=excluded.updated_at`,
		date, row, col, name, time.Now().UTC(),
	)
	recordWrite(start, err)
	if err != nil {
		return fmt.Errorf("failed to upsert filler (%d,%d) for %s: %w", row, col, date, err)
	}
	return nil
}

func (s *SQLiteStore) GetCellFillers(ctx context.Context, date string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row, col, filler FROM cells WHERE date = ? AND filler != ''`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load fillers for %s: %w", date, err)
	}
	defer rows.Close()

	fillers := make(map[string]string)
	for rows.Next() {
		var row, col int
		var filler string
		if err := rows.Scan(&row, &col, &filler); err != nil {
			return nil, err
		}
		fillers[puzzle.CellKey(row, col)] = filler
	}
	return fillers, rows.Err()
}

func (s *SQLiteStore) ClearState(ctx context.Context, date string) error {
	start := time.Now()
	var err error
	for _, q := range []string{
		`DELETE FROM cells WHERE date = ?`,
		`DELETE FROM scores WHERE date = ?`,
		`DELETE FROM timers WHERE date = ?`,
	} {
		if _, e := s.db.ExecContext(ctx, q, date); e != nil && err == nil {
			err = e
		}
	}
	recordWrite(start, err)
	if err != nil {
		return fmt.Errorf("failed to clear state for %s: %w", date, err)
	}
	return nil
}

// ---------------------------------------------------------
// Scoring
// ---------------------------------------------------------

func (s *SQLiteStore) AddPoints(ctx context.Context, date, name string, delta int) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (date, name, points) VALUES (?, ?, ?)
		 ON CONFLICT(date, name) DO UPDATE SET points = points + excluded.points`,
		date, name, delta,
	)
	recordWrite(start, err)
	if err != nil {
		return fmt.Errorf("failed to add points for %s/%s: %w", date, name, err)
	}
	return nil
}

func (s *SQLiteStore) AddGuess(ctx context.Context, date, name string, correct bool) error {
	start := time.Now()
	incorrect := 0
	if !correct {
		incorrect = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (date, name, total_guesses, incorrect_guesses) VALUES (?, ?, 1, ?)
		 ON CONFLICT(date, name) DO UPDATE SET
			total_guesses = total_guesses + 1,
			incorrect_guesses = incorrect_guesses + excluded.incorrect_guesses`,
		date, name, incorrect,
	)
	recordWrite(start, err)
	if err != nil {
		return fmt.Errorf("failed to add guess for %s/%s: %w", date, name, err)
	}
	return nil
}

// ---------------------------------------------------------
// Solve timer
// ---------------------------------------------------------

func (s *SQLiteStore) GetTimer(ctx context.Context, date string) (int, error) {
	var seconds int
	err := s.db.QueryRowContext(ctx, `SELECT seconds FROM timers WHERE date = ?`, date).Scan(&seconds)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load timer for %s: %w", date, err)
	}
	return seconds, nil
}

func (s *SQLiteStore) SaveTimer(ctx context.Context, date string, seconds int) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO timers (date, seconds) VALUES (?, ?)
		 ON CONFLICT(date) DO UPDATE SET seconds=excluded.seconds`,
		date, seconds,
	)
	recordWrite(start, err)
	if err != nil {
		return fmt.Errorf("failed to save timer for %s: %w", date, err)
	}
	return nil
}

// ---------------------------------------------------------
// Users
// ---------------------------------------------------------

func (s *SQLiteStore) GetUser(ctx context.Context, deviceID string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT device_id, ip, name, color, created_at FROM users WHERE device_id = ?`, deviceID).
		Scan(&u.DeviceID, &u.IP, &u.Name, &u.Color, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load user %s: %w", deviceID, err)
	}
	return &u, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, ip, name, color, deviceID string) (*User, error) {
	start := time.Now()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (device_id, ip, name, color, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(device_id) DO UPDATE SET name=excluded.name, color=excluded.color`,
		deviceID, ip, name, color, now,
	)
	recordWrite(start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", deviceID, err)
	}
	return &User{DeviceID: deviceID, IP: ip, Name: name, Color: color, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetUserColors(ctx context.Context, names []string) (map[string]string, error) {
	colors := make(map[string]string, len(names))
	if len(names) == 0 {
		return colors, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(names)), ",")
	args := make([]interface{}, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, color FROM users WHERE name IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load user colors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, color string
		if err := rows.Scan(&name, &color); err != nil {
			return nil, err
		}
		if color != "" {
			colors[name] = color
		}
	}
	return colors, rows.Err()
}

func (s *SQLiteStore) GetUserCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// ---------------------------------------------------------
// Trivia
// ---------------------------------------------------------

func (s *SQLiteStore) GetJeopardyGame(ctx context.Context, gameID string) (*jeopardy.Game, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM jeopardy_games WHERE game_id = ?`, gameID).Scan(&content)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load jeopardy game %s: %w", gameID, err)
	}
	return decodeGame(gameID, content)
}

// GetRandomJeopardyGame prefers games that have never been completed.
// When every game has been played it falls back to any random game.
func (s *SQLiteStore) GetRandomJeopardyGame(ctx context.Context) (*jeopardy.Game, error) {
	var gameID, content string
	err := s.db.QueryRowContext(ctx,
		`SELECT game_id, content FROM jeopardy_games
		 WHERE game_id NOT IN (SELECT game_id FROM jeopardy_progress WHERE completed = 1)
		 ORDER BY RANDOM() LIMIT 1`).Scan(&gameID, &content)
	if err == sql.ErrNoRows {
		err = s.db.QueryRowContext(ctx,
			`SELECT game_id, content FROM jeopardy_games ORDER BY RANDOM() LIMIT 1`).
			Scan(&gameID, &content)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pick random jeopardy game: %w", err)
	}
	return decodeGame(gameID, content)
}

func (s *SQLiteStore) PutJeopardyGame(ctx context.Context, g *jeopardy.Game) error {
	start := time.Now()
	content, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal jeopardy game: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jeopardy_games (game_id, content) VALUES (?, ?)
		 ON CONFLICT(game_id) DO UPDATE SET content=excluded.content`,
		g.GameID, string(content),
	)
	recordWrite(start, err)
	if err != nil {
		return fmt.Errorf("failed to store jeopardy game %s: %w", g.GameID, err)
	}
	return nil
}

func (s *SQLiteStore) SaveJeopardyProgress(ctx context.Context, gameID string, cluesAnswered, totalClues int, currentRound string, completed bool) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jeopardy_progress (game_id, clues_answered, total_clues, current_round, completed, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(game_id) DO UPDATE SET
			clues_answered=excluded.clues_answered,
			total_clues=excluded.total_clues,
			current_round=excluded.current_round,
			completed=excluded.completed,
			updated_at=excluded.updated_at`,
		gameID, cluesAnswered, totalClues, currentRound, completed, time.Now().UTC(),
	)
	recordWrite(start, err)
	if err != nil {
		return fmt.Errorf("failed to save progress for game %s: %w", gameID, err)
	}
	return nil
}

func decodeGame(gameID, content string) (*jeopardy.Game, error) {
	var g jeopardy.Game
	if err := json.Unmarshal([]byte(content), &g); err != nil {
		return nil, fmt.Errorf("corrupt jeopardy game content for %s: %w", gameID, err)
	}
	return &g, nil
}
