package crossword

import "time"

// HintFiller is the reserved cellFillers sentinel for auto-revealed cells.
// Hint cells never score.
const HintFiller = "(hint)"

// humanPalette is assigned to joining solvers in order of availability.
var humanPalette = []string{
	"#4CAF50", "#222222", "#FF9800", "#E91E63", "#9C27B0", "#FF00FF",
}

// botPalette is visually distinct from the human palette so synthetic
// solvers read as such in the grid.
var botPalette = []string{
	"#607D8B", "#795548", "#009688", "#3F51B5", "#8BC34A", "#FFC107",
}

// Difficulty indexes the bot tuning tables, slowest first.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyStandardMinus
	DifficultyStandard
	DifficultyStandardPlus
	DifficultyExpert
	difficultyCount
)

var difficultyNames = [difficultyCount]string{
	"easy", "standard-", "standard", "standard+", "expert",
}

// String returns the client-facing difficulty name.
func (d Difficulty) String() string {
	if d < 0 || d >= difficultyCount {
		return "standard"
	}
	return difficultyNames[d]
}

// ParseDifficulty maps a client string to a Difficulty, defaulting to
// standard for anything unknown.
func ParseDifficulty(s string) Difficulty {
	for i, name := range difficultyNames {
		if name == s {
			return Difficulty(i)
		}
	}
	return DifficultyStandard
}

// baseSolveSeconds is the target solve time in seconds, indexed by
// [weekday][difficulty] with Sunday == 0. Saturday puzzles are the
// hardest of the week; Sunday's are large but gentler.
var baseSolveSeconds = [7][difficultyCount]float64{
	{2940, 2390, 1835, 1560, 1195}, // Sun
	{630, 510, 395, 335, 255},      // Mon
	{770, 625, 480, 410, 310},      // Tue
	{1320, 1075, 825, 700, 535},    // Wed
	{1680, 1365, 1050, 890, 680},   // Thu
	{2000, 1625, 1250, 1065, 810},  // Fri
	{2400, 1950, 1500, 1275, 975},  // Sat
}

// solveMultiplierRange is the uniform [lo, hi] wobble applied to the base
// solve time per difficulty. Better solvers are more consistent.
var solveMultiplierRange = [difficultyCount][2]float64{
	{0.85, 1.25},
	{0.90, 1.18},
	{0.92, 1.15},
	{0.94, 1.12},
	{0.96, 1.08},
}

// wanderChance is the per-word probability that a bot drifts its cursor
// around the grid before settling on the word, per difficulty.
var wanderChance = [difficultyCount]float64{0.75, 0.65, 0.55, 0.40, 0.25}

const (
	// Fire streak tuning.
	fireWindow        = 30 * time.Second
	fireDuration      = 30 * time.Second
	fireExtension     = 5 * time.Second
	fireIgnitionCount = 3
	fireBaseMult      = 1.5
	fireMultStep      = 0.5
	fireWordsPerStep  = 3

	// Scoring.
	pointsPerCell      = 10
	pointsPerRebus     = 50
	pointsWrong        = -30
	wordBonusSingle    = 50
	wordBonusDouble    = 250
	lastSquareBonus    = 250
	maxHintCells       = 5
	progressDebounce   = 200 * time.Millisecond
	minBotStepInterval = 40 * time.Millisecond
)
