package trivia

import (
	"sort"

	"github.com/blarphus/crossword/internal/domain/jeopardy"
	"github.com/blarphus/crossword/internal/judge"
)

// enterFinalLocked switches to the final round: category first, then
// wagers, then the clue, then the ascending-score reveal.
func (r *Room) enterFinalLocked() {
	r.round = jeopardy.RoundFinalJeopardy
	r.final = finalState{
		wagers:  make(map[string]int),
		answers: make(map[string]string),
	}
	r.emitter.ToRoom(r.channel(), "round-change", r.roundChangeLocked())

	r.setPhaseLocked(PhaseFinalCategory)
	r.emitter.ToRoom(r.channel(), "final-category", finalCategoryPayload{Category: r.game.FJ.Category})

	r.sched.Arm("phase", finalCategoryGap, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.phase == PhaseFinalCategory {
			r.openFinalWagersLocked()
		}
	})
}

func (r *Room) openFinalWagersLocked() {
	r.setPhaseLocked(PhaseFinalWager)
	for _, p := range r.players {
		if p.isCPU() {
			r.scheduleCPUFinalWagerLocked(p)
		}
	}
}

// SubmitFinalWager records one wager during finalWager. The clue opens
// once every seated player has wagered.
func (r *Room) SubmitFinalWager(sid string, wager int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acceptFinalWagerLocked(sid, wager)
}

func (r *Room) acceptFinalWagerLocked(sid string, wager int) {
	p, ok := r.players[sid]
	if !ok || r.phase != PhaseFinalWager {
		return
	}
	if _, already := r.final.wagers[sid]; already {
		return
	}

	hi := p.Score
	if hi < 0 {
		hi = 0
	}
	r.final.wagers[sid] = clamp(wager, 0, hi)
	r.emitter.ToRoom(r.channel(), "final-wager-submitted", finalSubmittedPayload{SocketID: sid, Name: p.Name})
	r.checkFinalProgressLocked()
}

// SubmitFinalAnswer records one answer during finalClue. The reveal
// starts when everyone is in or the window closes.
func (r *Room) SubmitFinalAnswer(sid, answer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acceptFinalAnswerLocked(sid, answer)
}

func (r *Room) acceptFinalAnswerLocked(sid, answer string) {
	p, ok := r.players[sid]
	if !ok || r.phase != PhaseFinalClue {
		return
	}
	if _, already := r.final.answers[sid]; already {
		return
	}

	r.final.answers[sid] = answer
	r.emitter.ToRoom(r.channel(), "final-answer-submitted", finalSubmittedPayload{SocketID: sid, Name: p.Name})
	r.checkFinalProgressLocked()
}

// checkFinalProgressLocked advances the fan-in phases once every seated
// player has submitted. Also re-run after a departure shrinks the seat
// count mid-collection.
func (r *Room) checkFinalProgressLocked() {
	switch r.phase {
	case PhaseFinalWager:
		if len(r.final.wagers) >= len(r.players) && len(r.players) > 0 {
			r.openFinalClueLocked()
		}
	case PhaseFinalClue:
		if len(r.final.answers) >= len(r.players) && len(r.players) > 0 {
			r.startFinalRevealLocked()
		}
	}
}

func (r *Room) openFinalClueLocked() {
	r.setPhaseLocked(PhaseFinalClue)
	r.emitter.ToRoom(r.channel(), "final-clue", finalCluePayload{Clue: r.game.FJ.Clue})

	r.sched.Arm("phase", finalAnswerWait, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.phase == PhaseFinalClue {
			r.startFinalRevealLocked()
		}
	})
	for _, p := range r.players {
		if p.isCPU() {
			r.scheduleCPUFinalAnswerLocked(p)
		}
	}
}

// startFinalRevealLocked fixes the reveal order by ascending pre-wager
// score and steps through it finalRevealGap apart.
func (r *Room) startFinalRevealLocked() {
	r.setPhaseLocked(PhaseFinalResults)

	order := make([]string, 0, len(r.players))
	for _, sid := range r.seats {
		if _, ok := r.players[sid]; ok {
			order = append(order, sid)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return r.players[order[i]].Score < r.players[order[j]].Score
	})
	r.final.order = order
	r.final.reveal = 0

	r.sched.Arm("phase", finalRevealGap, func() { r.revealNext() })
}

func (r *Room) revealNext() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseFinalResults {
		return
	}
	if r.final.reveal >= len(r.final.order) {
		r.gameOverLocked()
		return
	}

	sid := r.final.order[r.final.reveal]
	r.final.reveal++

	p := r.players[sid]
	if p == nil {
		// Departed mid-reveal; skip without resetting the cadence.
		r.sched.Arm("phase", finalRevealGap, func() { r.revealNext() })
		return
	}

	answer := r.final.answers[sid]
	wager := r.final.wagers[sid]
	verdict := judge.Check(answer, r.game.FJ.Answer)
	change := wager
	if !verdict.Correct {
		change = -wager
	}
	p.Score += change

	r.emitter.ToRoom(r.channel(), "final-jeopardy-reveal", finalRevealPayload{
		SocketID: sid, Name: p.Name, Answer: answer, Wager: wager,
		Correct: verdict.Correct, ScoreChange: change, NewScore: p.Score,
	})
	r.emitter.ToRoom(r.channel(), "scores-update", r.scoresLocked())

	r.sched.Arm("phase", finalRevealGap, func() { r.revealNext() })
}
