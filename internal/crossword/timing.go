package crossword

import (
	"math/rand"
	"time"
)

// SolveSeconds draws a bot's target solve time for a puzzle weekday:
// the table base scaled by a uniform per-difficulty wobble.
func SolveSeconds(dow time.Weekday, d Difficulty, rng *rand.Rand) float64 {
	if d < 0 || d >= difficultyCount {
		d = DifficultyStandard
	}
	base := baseSolveSeconds[int(dow)][d]
	lo, hi := solveMultiplierRange[d][0], solveMultiplierRange[d][1]
	return base * (lo + rng.Float64()*(hi-lo))
}

// WanderProbability returns the per-word wander chance for a difficulty.
func WanderProbability(d Difficulty) float64 {
	if d < 0 || d >= difficultyCount {
		d = DifficultyStandard
	}
	return wanderChance[d]
}

// DistributeTimes splits a total solve budget into per-word think pauses
// (25% of the budget) and per-cell fill intervals (75%). Cell intervals come
// in streaks of 2 to 8 cells sharing a speed class, with per-cell jitter, so
// playback reads as bursts of typing between pauses. Every emitted interval
// is floored at 40ms.
func DistributeTimes(totalMS float64, numWords, numCells int, rng *rand.Rand) (thinks, cells []time.Duration) {
	if numWords <= 0 || numCells <= 0 || totalMS <= 0 {
		return nil, nil
	}

	rawThink := make([]float64, numWords)
	for i := range rawThink {
		switch p := rng.Float64(); {
		case p < 0.25: // long pause, reading a hard clue
			rawThink[i] = uniform(rng, 3, 10)
		case p < 0.55:
			rawThink[i] = uniform(rng, 0.8, 3)
		default:
			rawThink[i] = uniform(rng, 0.1, 0.8)
		}
	}

	rawCell := make([]float64, 0, numCells)
	for len(rawCell) < numCells {
		streak := 2 + rng.Intn(7)
		var speed float64
		switch rng.Intn(3) {
		case 0:
			speed = uniform(rng, 0.2, 0.6)
		case 1:
			speed = uniform(rng, 0.5, 1.5)
		default:
			speed = uniform(rng, 1.5, 4.0)
		}
		for j := 0; j < streak && len(rawCell) < numCells; j++ {
			rawCell = append(rawCell, speed*uniform(rng, 0.6, 1.4))
		}
	}

	thinks = normalize(rawThink, totalMS*0.25)
	cells = normalize(rawCell, totalMS*0.75)
	return thinks, cells
}

// normalize scales raw weights so their durations sum to budgetMS, then
// floors each at the minimum step interval.
func normalize(raw []float64, budgetMS float64) []time.Duration {
	var sum float64
	for _, v := range raw {
		sum += v
	}
	out := make([]time.Duration, len(raw))
	for i, v := range raw {
		d := time.Duration(v / sum * budgetMS * float64(time.Millisecond))
		if d < minBotStepInterval {
			d = minBotStepInterval
		}
		out[i] = d
	}
	return out
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
