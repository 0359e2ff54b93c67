// Package storage is the persistence façade for the game server. The room
// engines treat it as a slow, fallible key/value-like store: scoring side
// effects are fire-and-forget, state reads are awaited on room join.
package storage

import (
	"context"
	"time"

	"github.com/blarphus/crossword/internal/domain/jeopardy"
	"github.com/blarphus/crossword/internal/domain/puzzle"
)

// GuessStats tracks a solver's guess totals for one puzzle date.
type GuessStats struct {
	Total     int `json:"total"`
	Incorrect int `json:"incorrect"`
}

// RoomState is the durable part of a crossword room.
type RoomState struct {
	UserGrid    map[string]string     `json:"userGrid"`    // "r,c" -> letters
	CellFillers map[string]string     `json:"cellFillers"` // "r,c" -> user name or "(hint)"
	Points      map[string]int        `json:"points"`
	Guesses     map[string]GuessStats `json:"guesses"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// User is a device-identified solver.
type User struct {
	DeviceID  string    `json:"deviceId"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	IP        string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the narrow interface the room engines depend on. Implementations
// must be safe for concurrent use; every write is an atomic per-key upsert.
type Store interface {
	// Puzzle content
	GetPuzzle(ctx context.Context, date string) (*puzzle.Puzzle, error)
	HasPuzzle(ctx context.Context, date string) (bool, error)
	PutPuzzle(ctx context.Context, p *puzzle.Puzzle) error

	// Shared crossword state
	GetState(ctx context.Context, date string) (*RoomState, error)
	UpsertCell(ctx context.Context, date string, row, col int, letter string) error
	UpsertCellFiller(ctx context.Context, date string, row, col int, name string) error
	GetCellFillers(ctx context.Context, date string) (map[string]string, error)
	ClearState(ctx context.Context, date string) error

	// Scoring
	AddPoints(ctx context.Context, date, name string, delta int) error
	AddGuess(ctx context.Context, date, name string, correct bool) error

	// Solve timer
	GetTimer(ctx context.Context, date string) (int, error)
	SaveTimer(ctx context.Context, date string, seconds int) error

	// Users
	GetUser(ctx context.Context, deviceID string) (*User, error)
	CreateUser(ctx context.Context, ip, name, color, deviceID string) (*User, error)
	GetUserColors(ctx context.Context, names []string) (map[string]string, error)
	GetUserCount(ctx context.Context) (int, error)

	// Trivia
	GetJeopardyGame(ctx context.Context, gameID string) (*jeopardy.Game, error)
	GetRandomJeopardyGame(ctx context.Context) (*jeopardy.Game, error)
	PutJeopardyGame(ctx context.Context, g *jeopardy.Game) error
	SaveJeopardyProgress(ctx context.Context, gameID string, cluesAnswered, totalClues int, currentRound string, completed bool) error

	Close() error
}
