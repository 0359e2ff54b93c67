package trivia

import "github.com/blarphus/crossword/internal/domain/jeopardy"

// Inbound payloads.

type createRoomPayload struct {
	PlayerName string `json:"playerName"`
	GameID     string `json:"gameId,omitempty"`
	DeviceID   string `json:"deviceId,omitempty"`
}

type joinRoomPayload struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	DeviceID   string `json:"deviceId,omitempty"`
}

type changeGamePayload struct {
	GameID string `json:"gameId"`
}

type selectCluePayload struct {
	Cat int `json:"cat"`
	Row int `json:"row"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type wagerPayload struct {
	Wager int `json:"wager"`
}

type addCPUPayload struct {
	Difficulty string `json:"difficulty"`
	Name       string `json:"name,omitempty"`
}

type removeCPUPayload struct {
	PlayerID string `json:"playerId"`
}

// Outbound payloads.

type playerInfo struct {
	SocketID string `json:"socketId"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Score    int    `json:"score"`
	IsCPU    bool   `json:"isCpu"`
}

type boardClue struct {
	Cat   int  `json:"cat"`
	Row   int  `json:"row"`
	Value int  `json:"value"`
	Used  bool `json:"used"`
}

type roomStatePayload struct {
	RoomID     string             `json:"roomId"`
	GameID     string             `json:"gameId"`
	ShowNumber string             `json:"showNumber"`
	AirDate    string             `json:"airDate"`
	Phase      Phase              `json:"phase"`
	Round      jeopardy.RoundName `json:"round"`
	Categories []string           `json:"categories"`
	Board      []boardClue        `json:"board"`
	Players    []playerInfo       `json:"players"`
	Host       string             `json:"host"`
	Controller string             `json:"controller"`
}

type playerJoinedPayload struct {
	Player playerInfo `json:"player"`
}

type playerLeftPayload struct {
	SocketID   string `json:"socketId"`
	Name       string `json:"name"`
	Host       string `json:"host"`
	Controller string `json:"controller"`
}

type phaseChangePayload struct {
	Phase      Phase  `json:"phase"`
	Controller string `json:"controller,omitempty"`
}

type roundChangePayload struct {
	Round      jeopardy.RoundName `json:"round"`
	Categories []string           `json:"categories"`
	Board      []boardClue        `json:"board"`
	Controller string             `json:"controller"`
}

type clueSelectedPayload struct {
	Cat   int    `json:"cat"`
	Row   int    `json:"row"`
	Value int    `json:"value"`
	Clue  string `json:"clue"`
}

type dailyDoublePayload struct {
	Cat      int    `json:"cat"`
	Row      int    `json:"row"`
	SocketID string `json:"socketId"`
	Name     string `json:"name"`
	MinWager int    `json:"minWager"`
	MaxWager int    `json:"maxWager"`
}

type buzzerResultPayload struct {
	SocketID string `json:"socketId"`
	Name     string `json:"name"`
}

type buzzerExpiredPayload struct {
	CorrectAnswer string `json:"correctAnswer"`
}

type answerResultPayload struct {
	SocketID      string  `json:"socketId"`
	Name          string  `json:"name"`
	Answer        string  `json:"answer"`
	Correct       bool    `json:"correct"`
	Similarity    float64 `json:"similarity"`
	ScoreChange   int     `json:"scoreChange"`
	NewScore      int     `json:"newScore"`
	CorrectAnswer string  `json:"correctAnswer,omitempty"`
}

type scoresUpdatePayload struct {
	Scores map[string]int `json:"scores"` // socketId -> score
}

type finalCategoryPayload struct {
	Category string `json:"category"`
}

type finalCluePayload struct {
	Clue string `json:"clue"`
}

type finalSubmittedPayload struct {
	SocketID string `json:"socketId"`
	Name     string `json:"name"`
}

type finalRevealPayload struct {
	SocketID    string `json:"socketId"`
	Name        string `json:"name"`
	Answer      string `json:"answer"`
	Wager       int    `json:"wager"`
	Correct     bool   `json:"correct"`
	ScoreChange int    `json:"scoreChange"`
	NewScore    int    `json:"newScore"`
}

type gameOverPayload struct {
	Winner string         `json:"winner"`
	Scores map[string]int `json:"scores"`
}

type errorPayload struct {
	Error string `json:"error"`
}
