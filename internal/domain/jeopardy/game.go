// Package jeopardy holds the immutable trivia game content types, mirroring
// the shape the archive scraper emits.
package jeopardy

// Clue is a single board slot. Cat indexes the round's categories (0-5),
// Row is the board row (1-5), Value the dollar amount.
type Clue struct {
	Cat         int    `json:"cat"`
	Row         int    `json:"row"`
	Value       int    `json:"value"`
	Clue        string `json:"clue"`
	Answer      string `json:"answer"`
	DailyDouble bool   `json:"dailyDouble,omitempty"`
}

// Round is one of the two clue boards.
type Round struct {
	Categories []string `json:"categories"`
	Clues      []Clue   `json:"clues"`
}

// FinalClue is the final round's single wagered clue.
type FinalClue struct {
	Category string `json:"category"`
	Clue     string `json:"clue"`
	Answer   string `json:"answer"`
}

// Game is one archived show.
type Game struct {
	GameID     string    `json:"gameId"`
	ShowNumber string    `json:"showNumber"`
	AirDate    string    `json:"airDate"`
	Season     string    `json:"season,omitempty"`
	JRound     Round     `json:"jRound"`
	DJRound    Round     `json:"djRound"`
	FJ         FinalClue `json:"fj"`
}

// RoundName identifies which board (or the final) is in play.
type RoundName string

const (
	RoundJeopardy       RoundName = "jeopardy"
	RoundDoubleJeopardy RoundName = "doubleJeopardy"
	RoundFinalJeopardy  RoundName = "finalJeopardy"
)

// Board returns the clue board for a round name; final has no board.
func (g *Game) Board(r RoundName) *Round {
	switch r {
	case RoundJeopardy:
		return &g.JRound
	case RoundDoubleJeopardy:
		return &g.DJRound
	default:
		return nil
	}
}

// FindClue looks up a board slot by (cat, row).
func (r *Round) FindClue(cat, row int) (Clue, bool) {
	for _, c := range r.Clues {
		if c.Cat == cat && c.Row == row {
			return c, true
		}
	}
	return Clue{}, false
}

// TotalClues counts the playable clues across both boards plus the final.
func (g *Game) TotalClues() int {
	n := len(g.JRound.Clues) + len(g.DJRound.Clues)
	if g.FJ.Clue != "" {
		n++
	}
	return n
}

// HasFinal reports whether this game carries a final round.
func (g *Game) HasFinal() bool {
	return g.FJ.Clue != ""
}
