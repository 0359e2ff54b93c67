// Command tuner sweeps the bot wander parameters offline. The solver
// budget is split into think pauses and typing time; wandering is what
// the cursor actually does during a pause, so the sweep looks for the
// (wanderChance, wanderTime) pair whose expected overhead best stands in
// for the think share of the budget.
//
// Output is a per-weekday, per-difficulty table meant to be read, not
// parsed.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/blarphus/crossword/internal/crossword"
)

const (
	chanceMin, chanceMax, chanceStep = 0.10, 0.85, 0.05
	wanderMinMS, wanderMaxMS         = 800, 8000
	wanderStepMS                     = 400
)

// Typical open-cell and word counts: 21x21 Sunday grids, 15x15 the rest
// of the week.
func gridShape(dow time.Weekday) (words, cells int) {
	if dow == time.Sunday {
		return 140, 382
	}
	return 76, 191
}

type result struct {
	chance   float64
	wanderMS int
	meanSec  float64
	errSec   float64
}

// sweep finds the candidate whose simulated solve time lands closest to
// the drawn budget for one (weekday, difficulty) pair.
func sweep(dow time.Weekday, d crossword.Difficulty, trials int, rng *rand.Rand) result {
	words, cells := gridShape(dow)
	best := result{errSec: math.Inf(1)}

	for chance := chanceMin; chance <= chanceMax+1e-9; chance += chanceStep {
		for wanderMS := wanderMinMS; wanderMS <= wanderMaxMS; wanderMS += wanderStepMS {
			var totalSum, budgetSum float64
			for i := 0; i < trials; i++ {
				budgetMS := crossword.SolveSeconds(dow, d, rng) * 1000
				_, cellTimes := crossword.DistributeTimes(budgetMS, words, cells, rng)

				var typing time.Duration
				for _, c := range cellTimes {
					typing += c
				}
				total := float64(typing.Milliseconds())
				for w := 0; w < words; w++ {
					if rng.Float64() < chance {
						total += float64(wanderMS)
					}
				}
				totalSum += total
				budgetSum += budgetMS
			}

			meanTotal := totalSum / float64(trials)
			meanBudget := budgetSum / float64(trials)
			errSec := math.Abs(meanTotal-meanBudget) / 1000
			if errSec < best.errSec {
				best = result{
					chance:   chance,
					wanderMS: wanderMS,
					meanSec:  meanTotal / 1000,
					errSec:   errSec,
				}
			}
		}
	}
	return best
}

func main() {
	trials := flag.Int("trials", 300, "simulated solves per candidate")
	seed := flag.Int64("seed", time.Now().UnixNano(), "rng seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	difficulties := []crossword.Difficulty{
		crossword.DifficultyEasy,
		crossword.DifficultyStandardMinus,
		crossword.DifficultyStandard,
		crossword.DifficultyStandardPlus,
		crossword.DifficultyExpert,
	}

	fmt.Printf("wander sweep: chance %.2f..%.2f step %.2f, time %d..%d ms step %d, %d trials\n\n",
		chanceMin, chanceMax, chanceStep, wanderMinMS, wanderMaxMS, wanderStepMS, *trials)
	fmt.Printf("%-4s %-10s %8s %10s %12s %9s\n",
		"dow", "difficulty", "chance", "wander_ms", "mean_solve_s", "err_s")

	for dow := time.Sunday; dow <= time.Saturday; dow++ {
		for _, d := range difficulties {
			r := sweep(dow, d, *trials, rng)
			fmt.Printf("%-4s %-10s %8.2f %10d %12.0f %9.1f\n",
				dow.String()[:3], d.String(), r.chance, r.wanderMS, r.meanSec, r.errSec)
		}
		fmt.Println()
	}
}
