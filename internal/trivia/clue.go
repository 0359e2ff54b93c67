package trivia

import (
	"strings"
	"time"

	"github.com/blarphus/crossword/internal/domain/jeopardy"
	"github.com/blarphus/crossword/internal/judge"
)

// SelectClue consumes a board slot. Controller only, selectingClue only.
func (r *Room) SelectClue(sid string, cat, row int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sid != r.controller || r.phase != PhaseSelectingClue {
		return
	}
	if cat < 0 || cat >= 6 || row < 1 || row > 5 {
		return
	}
	if _, taken := r.used[slotKey(cat, row)]; taken {
		return
	}
	board := r.game.Board(r.round)
	if board == nil {
		return
	}
	clue, ok := board.FindClue(cat, row)
	if !ok {
		return
	}

	r.used[slotKey(cat, row)] = struct{}{}
	r.current = &clue
	r.buzzed = make(map[string]struct{})

	if clue.DailyDouble {
		r.answering = r.controller
		r.setPhaseLocked(PhaseDailyDoubleWager)
		ctrl := r.players[r.controller]
		lo, hi := r.wagerBoundsLocked(ctrl)
		r.emitter.ToRoom(r.channel(), "daily-double", dailyDoublePayload{
			Cat: cat, Row: row, SocketID: ctrl.SID, Name: ctrl.Name,
			MinWager: lo, MaxWager: hi,
		})
		if ctrl.isCPU() {
			r.scheduleCPUWagerLocked(ctrl)
		}
		return
	}

	r.setPhaseLocked(PhaseReadingClue)
	r.emitter.ToRoom(r.channel(), "clue-selected", clueSelectedPayload{
		Cat: cat, Row: row, Value: clue.Value, Clue: clue.Clue,
	})
	r.sched.Arm("phase", readingDelay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.phase == PhaseReadingClue {
			r.openBuzzerLocked()
		}
	})
}

// openBuzzerLocked opens the 5 second buzz window and schedules the CPU
// buzz candidates.
func (r *Room) openBuzzerLocked() {
	r.setPhaseLocked(PhaseBuzzerOpen)
	r.sched.Arm("phase", buzzerWindow, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.phase == PhaseBuzzerOpen {
			r.buzzerTimeoutLocked()
		}
	})
	r.scheduleCPUBuzzesLocked()
}

// buzzerTimeoutLocked reveals the answer when nobody buzzes.
func (r *Room) buzzerTimeoutLocked() {
	answer := ""
	if r.current != nil {
		answer = r.current.Answer
	}
	r.setPhaseLocked(PhaseShowingResult)
	r.emitter.ToRoom(r.channel(), "buzzer-expired", buzzerExpiredPayload{CorrectAnswer: answer})
	r.advanceAfterClueLocked(revealDelay)
}

// BuzzIn arbitrates the buzzer: first accepted buzz wins, and the losing
// CPU timers are cancelled atomically with the phase change.
func (r *Room) BuzzIn(sid string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[sid]
	if !ok || r.phase != PhaseBuzzerOpen {
		return
	}
	if _, already := r.buzzed[sid]; already {
		return
	}

	r.buzzed[sid] = struct{}{}
	r.answering = sid
	r.setPhaseLocked(PhasePlayerAnswering)
	r.emitter.ToRoom(r.channel(), "buzzer-result", buzzerResultPayload{SocketID: sid, Name: p.Name})

	r.sched.Arm("phase", answerWindow, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.phase == PhasePlayerAnswering && r.answering == sid {
			r.resolveAnswerLocked(sid, "")
		}
	})
	if p.isCPU() {
		r.scheduleCPUAnswerLocked(p)
	}
}

// SubmitAnswer is accepted only from the answering player in an
// answering phase.
func (r *Room) SubmitAnswer(sid, answer string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sid != r.answering {
		return
	}
	if r.phase != PhasePlayerAnswering && r.phase != PhaseDailyDoubleAnswer {
		return
	}
	r.sched.Cancel("phase")
	r.sched.Cancel("cpu-answer")
	r.resolveAnswerLocked(sid, answer)
}

// resolveAnswerLocked judges and scores one answer, then routes the
// room onward. An empty answer is how timeouts are scored.
func (r *Room) resolveAnswerLocked(sid, answer string) {
	p := r.players[sid]
	if p == nil || r.current == nil {
		return
	}

	verdict := judge.Check(answer, r.current.Answer)
	stake := r.current.Value
	if r.phase == PhaseDailyDoubleAnswer {
		stake = r.ddWager
	}

	change := stake
	if !verdict.Correct {
		change = -stake
	}
	p.Score += change
	r.answering = ""

	result := answerResultPayload{
		SocketID: sid, Name: p.Name, Answer: answer,
		Correct: verdict.Correct, Similarity: verdict.Similarity,
		ScoreChange: change, NewScore: p.Score,
	}

	isDD := r.phase == PhaseDailyDoubleAnswer
	willReveal := isDD || verdict.Correct || !r.anyUnbuzzedLocked()
	if willReveal {
		result.CorrectAnswer = r.current.Answer
	}

	r.setPhaseLocked(PhaseShowingResult)
	r.emitter.ToRoom(r.channel(), "answer-result", result)
	r.emitter.ToRoom(r.channel(), "scores-update", r.scoresLocked())

	switch {
	case verdict.Correct:
		r.controller = sid
		r.advanceAfterClueLocked(correctDelay)
	case isDD:
		r.advanceAfterClueLocked(revealDelay)
	default:
		r.afterWrongAnswerLocked()
	}
}

// afterWrongAnswerLocked either re-opens the buzzer for the remaining
// players or reveals and moves on.
func (r *Room) afterWrongAnswerLocked() {
	if r.anyUnbuzzedLocked() {
		r.phase = PhaseShowingResult
		r.sched.Arm("phase", rebuzzDelay, func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.phase == PhaseShowingResult && r.current != nil {
				r.openBuzzerLocked()
			}
		})
		return
	}
	r.advanceAfterClueLocked(revealDelay)
}

func (r *Room) anyUnbuzzedLocked() bool {
	for sid := range r.players {
		if _, buzzed := r.buzzed[sid]; !buzzed {
			return true
		}
	}
	return false
}

// SubmitWager sets the daily-double stake. Answering player only.
func (r *Room) SubmitWager(sid string, wager int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sid != r.answering || r.phase != PhaseDailyDoubleWager {
		return
	}
	p := r.players[sid]
	if p == nil || r.current == nil {
		return
	}

	lo, hi := r.wagerBoundsLocked(p)
	r.ddWager = clamp(wager, lo, hi)

	r.setPhaseLocked(PhaseDailyDoubleAnswer)
	r.emitter.ToRoom(r.channel(), "clue-selected", clueSelectedPayload{
		Cat: r.current.Cat, Row: r.current.Row, Value: r.ddWager, Clue: r.current.Clue,
	})
	r.sched.Arm("phase", answerWindow, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.phase == PhaseDailyDoubleAnswer && r.answering == sid {
			r.resolveAnswerLocked(sid, "")
		}
	})
	if p.isCPU() {
		r.scheduleCPUAnswerLocked(p)
	}
}

// wagerBoundsLocked clamps daily-double wagers to [5, max(roundMin, score)].
// Negative scorers may still wager up to the round minimum.
func (r *Room) wagerBoundsLocked(p *Player) (int, int) {
	roundMin := jeopardyRoundMin
	if r.round == jeopardy.RoundDoubleJeopardy {
		roundMin = doubleJeopardyMin
	}
	hi := roundMin
	if p.Score > hi {
		hi = p.Score
	}
	return minWager, hi
}

// advanceAfterClueLocked persists progress and, after the reveal delay,
// returns to clue selection or switches rounds.
func (r *Room) advanceAfterClueLocked(delay time.Duration) {
	r.cluesDone++
	r.persistProgress(false)

	r.sched.Arm("phase", delay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.phase != PhaseShowingResult {
			return
		}
		r.current = nil
		r.ddWager = 0

		if !r.boardExhaustedLocked() {
			r.setPhaseLocked(PhaseSelectingClue)
			r.maybeScheduleCPUSelectLocked()
			return
		}
		r.nextRoundLocked()
	})
}

// nextRoundLocked switches boards or enters the final.
func (r *Room) nextRoundLocked() {
	switch r.round {
	case jeopardy.RoundJeopardy:
		r.round = jeopardy.RoundDoubleJeopardy
		r.seedUsedLocked()
		// The trailing player picks first on the new board.
		r.controller = r.lowestScoreLocked()
		r.setPhaseLocked(PhaseSelectingClue)
		r.emitter.ToRoom(r.channel(), "round-change", r.roundChangeLocked())
		r.maybeScheduleCPUSelectLocked()
	case jeopardy.RoundDoubleJeopardy:
		if r.game.HasFinal() {
			r.enterFinalLocked()
			return
		}
		r.gameOverLocked()
	}
}

func (r *Room) lowestScoreLocked() string {
	best := r.controller
	bestScore := int(^uint(0) >> 1)
	for _, sid := range r.seats {
		if p := r.players[sid]; p != nil && p.Score < bestScore {
			best, bestScore = sid, p.Score
		}
	}
	return best
}

func (r *Room) gameOverLocked() {
	r.setPhaseLocked(PhaseGameOver)
	r.persistProgress(true)

	winner := ""
	bestScore := 0
	scores := make(map[string]int, len(r.players))
	for sid, p := range r.players {
		scores[sid] = p.Score
		if winner == "" || p.Score > bestScore {
			winner, bestScore = sid, p.Score
		}
	}
	r.emitter.ToRoom(r.channel(), "game-over", gameOverPayload{Winner: winner, Scores: scores})
	r.log.Event("trivia_game_over", winner, "roomId", r.id, "gameId", r.game.GameID)

	// Linger so players can read the result, then let the registry
	// reclaim the room.
	r.sched.Arm("phase", gameOverLinger, func() {
		if r.onEmpty != nil {
			r.onEmpty()
		}
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func cleanAnswer(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
