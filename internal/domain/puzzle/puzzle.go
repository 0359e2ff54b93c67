// Package puzzle holds the immutable crossword content types and the grid
// geometry helpers the room engine and bots share.
package puzzle

import (
	"fmt"
	"strings"
	"time"
)

// Blocked is the grid sentinel for a black square.
const Blocked = "."

// Dimensions of a puzzle grid.
type Dimensions struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Clue is a single across or down entry.
type Clue struct {
	Number int    `json:"number"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Clue   string `json:"clue"`
	Answer string `json:"answer"`
}

// Clues groups the two directions.
type Clues struct {
	Across []Clue `json:"across"`
	Down   []Clue `json:"down"`
}

// Puzzle is one day's crossword as produced by the ingest pipeline.
// Grid holds single letters with "." for blocked cells; Rebus maps "r,c"
// keys to full multi-letter answers for rebus squares.
type Puzzle struct {
	Date       string            `json:"date"`
	Title      string            `json:"title,omitempty"`
	Author     string            `json:"author,omitempty"`
	Editor     string            `json:"editor,omitempty"`
	Dimensions Dimensions        `json:"dimensions"`
	Grid       [][]string        `json:"grid"`
	Rebus      map[string]string `json:"rebus,omitempty"`
	Clues      Clues             `json:"clues"`
}

// Cell addresses a single grid square.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Key returns the canonical "r,c" map key for a cell.
func (c Cell) Key() string {
	return fmt.Sprintf("%d,%d", c.Row, c.Col)
}

// CellKey builds the canonical "r,c" key without a Cell value.
func CellKey(row, col int) string {
	return fmt.Sprintf("%d,%d", row, col)
}

// Direction of a word in the grid.
type Direction string

const (
	Across Direction = "across"
	Down   Direction = "down"
)

// Word is a clue together with its resolved cell list.
type Word struct {
	Clue      Clue
	Direction Direction
	Cells     []Cell
}

// InBounds reports whether (row, col) addresses a real square.
func (p *Puzzle) InBounds(row, col int) bool {
	return row >= 0 && row < p.Dimensions.Rows && col >= 0 && col < p.Dimensions.Cols
}

// IsBlocked reports whether the square is black (or out of bounds).
func (p *Puzzle) IsBlocked(row, col int) bool {
	if !p.InBounds(row, col) {
		return true
	}
	return p.Grid[row][col] == Blocked
}

// CorrectAnswer returns the full correct content for a cell: the rebus
// string when the cell is a rebus square, otherwise the single grid letter.
// Blocked cells return "".
func (p *Puzzle) CorrectAnswer(row, col int) string {
	if p.IsBlocked(row, col) {
		return ""
	}
	if p.Rebus != nil {
		if full, ok := p.Rebus[CellKey(row, col)]; ok {
			return full
		}
	}
	return p.Grid[row][col]
}

// IsRebus reports whether the cell holds multi-letter content.
func (p *Puzzle) IsRebus(row, col int) bool {
	if p.Rebus == nil {
		return false
	}
	_, ok := p.Rebus[CellKey(row, col)]
	return ok
}

// WordCells resolves a clue's covered cells by walking from its start until
// a blocked square or the edge. The answer length is authoritative when it
// is shorter than the open run (happens on malformed grids).
func (p *Puzzle) WordCells(c Clue, dir Direction) []Cell {
	dr, dc := 0, 1
	if dir == Down {
		dr, dc = 1, 0
	}

	var cells []Cell
	row, col := c.Row, c.Col
	for !p.IsBlocked(row, col) {
		cells = append(cells, Cell{Row: row, Col: col})
		row += dr
		col += dc
	}
	return cells
}

// Words returns every across and down word with its cell list.
func (p *Puzzle) Words() []Word {
	words := make([]Word, 0, len(p.Clues.Across)+len(p.Clues.Down))
	for _, c := range p.Clues.Across {
		words = append(words, Word{Clue: c, Direction: Across, Cells: p.WordCells(c, Across)})
	}
	for _, c := range p.Clues.Down {
		words = append(words, Word{Clue: c, Direction: Down, Cells: p.WordCells(c, Down)})
	}
	return words
}

// WordsThrough returns the across and/or down words whose cell lists contain
// (row, col). At most one word per direction.
func (p *Puzzle) WordsThrough(row, col int) []Word {
	var out []Word
	for _, w := range p.Words() {
		for _, cell := range w.Cells {
			if cell.Row == row && cell.Col == col {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

// OpenCellCount returns the number of non-blocked squares.
func (p *Puzzle) OpenCellCount() int {
	n := 0
	for r := 0; r < p.Dimensions.Rows; r++ {
		for c := 0; c < p.Dimensions.Cols; c++ {
			if !p.IsBlocked(r, c) {
				n++
			}
		}
	}
	return n
}

// Weekday derives the day of week from the puzzle date interpreted at noon
// local time, so DST transitions cannot shift the derived day. Sunday == 0.
func (p *Puzzle) Weekday() (time.Weekday, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(p.Date), time.Local)
	if err != nil {
		return 0, fmt.Errorf("bad puzzle date %q: %w", p.Date, err)
	}
	noon := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.Local)
	return noon.Weekday(), nil
}
