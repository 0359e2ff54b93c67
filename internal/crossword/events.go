package crossword

import (
	"github.com/blarphus/crossword/internal/domain/puzzle"
	"github.com/blarphus/crossword/internal/infra/storage"
)

// Inbound payloads.

type joinPayload struct {
	Date     string `json:"date"`
	UserName string `json:"userName"`
	Color    string `json:"color,omitempty"`
	DeviceID string `json:"deviceId,omitempty"`
}

type cellUpdatePayload struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Letter string `json:"letter"`
}

type cursorMovePayload struct {
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Direction string `json:"direction"`
}

type addBotPayload struct {
	Difficulty string `json:"difficulty"`
	Name       string `json:"name,omitempty"`
}

type removeBotPayload struct {
	BotID string `json:"botId"`
}

// Outbound payloads.

type memberInfo struct {
	SocketID  string `json:"socketId"`
	UserName  string `json:"userName"`
	Color     string `json:"color"`
	CursorRow int    `json:"cursorRow"`
	CursorCol int    `json:"cursorCol"`
	Direction string `json:"direction"`
	IsBot     bool   `json:"isBot"`
}

type roomStatePayload struct {
	Date        string                       `json:"date"`
	Puzzle      *puzzle.Puzzle               `json:"puzzle"`
	UserGrid    map[string]string            `json:"userGrid"`
	CellFillers map[string]string            `json:"cellFillers"`
	Points      map[string]int               `json:"points"`
	Guesses     map[string]storage.GuessStats `json:"guesses"`
	Members     []memberInfo                 `json:"members"`
	HintVotes   int                          `json:"hintVotes"`
	Completed   bool                         `json:"completed"`
}

type userJoinedPayload struct {
	SocketID string `json:"socketId"`
	UserName string `json:"userName"`
	Color    string `json:"color"`
	IsBot    bool   `json:"isBot"`
}

type userLeftPayload struct {
	SocketID string `json:"socketId"`
	UserName string `json:"userName"`
}

type cellUpdatedPayload struct {
	Row             int    `json:"row"`
	Col             int    `json:"col"`
	Letter          string `json:"letter"`
	UserName        string `json:"userName"`
	Color           string `json:"color"`
	Delta           int    `json:"delta"`
	WordBonus       int    `json:"wordBonus"`
	LastSquareBonus int    `json:"lastSquareBonus"`
	GuessCorrect    bool   `json:"guessCorrect"`
	Scored          bool   `json:"scored"`
	FireEvent       string `json:"fireEvent,omitempty"`
}

type cursorMovedPayload struct {
	SocketID  string `json:"socketId"`
	UserName  string `json:"userName"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Direction string `json:"direction"`
}

type fireUpdatePayload struct {
	UserName    string   `json:"userName"`
	Type        string   `json:"type"` // started, extended, broken
	Multiplier  float64  `json:"multiplier"`
	RemainingMS int64    `json:"remainingMs"`
	FireCells   []string `json:"fireCells"`
}

type fireExpiredPayload struct {
	UserName string `json:"userName"`
}

type hintVoteUpdatePayload struct {
	Votes int `json:"votes"`
	Total int `json:"total"`
}

type revealedCell struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Letter string `json:"letter"`
}

type hintRevealPayload struct {
	Cells []revealedCell `json:"cells"`
}

type timerSyncPayload struct {
	Seconds int  `json:"seconds"`
	Running bool `json:"running"`
}

type puzzleProgressPayload struct {
	Date   string `json:"date"`
	Filled int    `json:"filled"`
	Total  int    `json:"total"`
}

type roomCountPayload struct {
	Count int `json:"count"`
}

type botInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Difficulty string `json:"difficulty"`
	Running    bool   `json:"running"`
}

type botListPayload struct {
	Bots []botInfo `json:"bots"`
}
