package trivia

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blarphus/crossword/internal/domain/jeopardy"
)

// cpuProfile tunes a synthetic opponent.
type cpuProfile struct {
	BuzzSpeed  float64 // 0..1, higher buzzes sooner
	Accuracy   float64 // probability of a correct answer
	SkipChance float64 // probability of sitting a clue out
}

var cpuProfiles = map[string]cpuProfile{
	"easy":   {BuzzSpeed: 0.3, Accuracy: 0.5, SkipChance: 0.35},
	"medium": {BuzzSpeed: 0.5, Accuracy: 0.7, SkipChance: 0.15},
	"hard":   {BuzzSpeed: 0.8, Accuracy: 0.9, SkipChance: 0.05},
}

var cpuNames = []string{"Watson", "Deep Blue", "HAL", "GLaDOS", "KITT", "Bender"}

const (
	cpuAnswerDelay = 1500 * time.Millisecond
	cpuSelectDelay = 1500 * time.Millisecond
)

// AddCPU seats a synthetic opponent. Host only, lobby only.
func (r *Room) AddCPU(requester, difficulty, name string) {
	r.mu.Lock()
	if requester != r.host || r.phase != PhaseLobby || len(r.players) >= maxPlayers {
		r.mu.Unlock()
		return
	}
	profile, ok := cpuProfiles[strings.ToLower(strings.TrimSpace(difficulty))]
	if !ok {
		profile = cpuProfiles["medium"]
	}
	if name = strings.TrimSpace(name); name == "" {
		name = r.pickCPUNameLocked()
	}

	sid := "cpu-" + uuid.NewString()[:8]
	p := r.seatLocked(sid, name, "", &profile)
	r.mu.Unlock()

	r.emitter.ToRoom(r.channel(), "player-joined", playerJoinedPayload{Player: toInfo(p)})
	r.log.Event("cpu_added", sid, "roomId", r.id, "difficulty", difficulty)
}

func (r *Room) pickCPUNameLocked() string {
	used := make(map[string]bool, len(r.players))
	for _, p := range r.players {
		used[p.Name] = true
	}
	for _, n := range cpuNames {
		if !used[n] {
			return n
		}
	}
	return "CPU " + uuid.NewString()[:4]
}

// RemoveCPU unseats a synthetic opponent. Host only, lobby only.
func (r *Room) RemoveCPU(requester, cpuID string) {
	r.mu.Lock()
	p, ok := r.players[cpuID]
	if requester != r.host || r.phase != PhaseLobby || !ok || !p.isCPU() {
		r.mu.Unlock()
		return
	}
	r.removeSeatLocked(cpuID)
	left := playerLeftPayload{SocketID: cpuID, Name: p.Name, Host: r.host, Controller: r.controller}
	r.mu.Unlock()

	r.emitter.ToRoom(r.channel(), "player-left", left)
}

// scheduleCPUBuzzesLocked arms an independent buzz candidate per CPU
// that has not already buzzed on this clue. Each first rolls its skip
// chance; the buzz delay rewards higher BuzzSpeed.
func (r *Room) scheduleCPUBuzzesLocked() {
	for _, p := range r.players {
		if !p.isCPU() {
			continue
		}
		if _, buzzed := r.buzzed[p.SID]; buzzed {
			continue
		}
		if r.rng.Float64() < p.CPU.SkipChance {
			continue
		}

		base := 2 - 1.5*p.CPU.BuzzSpeed
		if base < 1 {
			base = 1
		}
		delay := time.Duration((base + r.rng.Float64()*2) * float64(time.Second))
		sid := p.SID
		r.sched.Arm("cpu-buzz:"+sid, delay, func() {
			// BuzzIn re-validates the phase; a stale buzz is a no-op.
			r.BuzzIn(sid)
		})
	}
}

// scheduleCPUAnswerLocked has a buzzed-in CPU answer after a short
// pause, correct with probability Accuracy. Wrong answers submit the
// empty string.
func (r *Room) scheduleCPUAnswerLocked(p *Player) {
	sid := p.SID
	r.sched.Arm("cpu-answer", cpuAnswerDelay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		cp := r.players[sid]
		if cp == nil || r.answering != sid || r.current == nil {
			return
		}
		if r.phase != PhasePlayerAnswering && r.phase != PhaseDailyDoubleAnswer {
			return
		}

		answer := ""
		if r.rng.Float64() < cp.CPU.Accuracy {
			answer = r.current.Answer
		}
		r.sched.Cancel("phase")
		r.resolveAnswerLocked(sid, answer)
	})
}

// scheduleCPUWagerLocked has a controlling CPU wager on its daily
// double: a share of the allowed maximum scaled by accuracy.
func (r *Room) scheduleCPUWagerLocked(p *Player) {
	sid := p.SID
	r.sched.Arm("cpu-wager", cpuAnswerDelay, func() {
		r.mu.Lock()
		cp := r.players[sid]
		if cp == nil || r.phase != PhaseDailyDoubleWager || r.answering != sid {
			r.mu.Unlock()
			return
		}
		_, hi := r.wagerBoundsLocked(cp)
		wager := int(float64(hi) * cp.CPU.Accuracy * (0.5 + r.rng.Float64()*0.5))
		r.mu.Unlock()

		r.SubmitWager(sid, wager)
	})
}

// maybeScheduleCPUSelectLocked lets a controlling CPU pick a random
// unused clue after a reading pause.
func (r *Room) maybeScheduleCPUSelectLocked() {
	ctrl := r.players[r.controller]
	if ctrl == nil || !ctrl.isCPU() || r.phase != PhaseSelectingClue {
		return
	}

	sid := ctrl.SID
	r.sched.Arm("cpu-select", cpuSelectDelay, func() {
		r.mu.Lock()
		if r.phase != PhaseSelectingClue || r.controller != sid {
			r.mu.Unlock()
			return
		}
		board := r.game.Board(r.round)
		if board == nil {
			r.mu.Unlock()
			return
		}
		var open []jeopardy.Clue
		for _, c := range board.Clues {
			if _, taken := r.used[slotKey(c.Cat, c.Row)]; !taken {
				open = append(open, c)
			}
		}
		if len(open) == 0 {
			r.mu.Unlock()
			return
		}
		pick := open[r.rng.Intn(len(open))]
		r.mu.Unlock()

		r.SelectClue(sid, pick.Cat, pick.Row)
	})
}

// scheduleCPUFinalWagerLocked scales the final wager by accuracy with
// noise, never exceeding the CPU's positive score.
func (r *Room) scheduleCPUFinalWagerLocked(p *Player) {
	sid := p.SID
	delay := time.Duration((1 + r.rng.Float64()*3) * float64(time.Second))
	r.sched.Arm("cpu-final-wager:"+sid, delay, func() {
		r.mu.Lock()
		cp := r.players[sid]
		if cp == nil || r.phase != PhaseFinalWager {
			r.mu.Unlock()
			return
		}
		hi := cp.Score
		if hi < 0 {
			hi = 0
		}
		wager := int(float64(hi) * cp.CPU.Accuracy * (0.5 + r.rng.Float64()*0.5))
		r.mu.Unlock()

		r.SubmitFinalWager(sid, wager)
	})
}

// scheduleCPUFinalAnswerLocked runs the accuracy coin flip for the
// final clue.
func (r *Room) scheduleCPUFinalAnswerLocked(p *Player) {
	sid := p.SID
	delay := time.Duration((3 + r.rng.Float64()*12) * float64(time.Second))
	r.sched.Arm("cpu-final-answer:"+sid, delay, func() {
		r.mu.Lock()
		cp := r.players[sid]
		if cp == nil || r.phase != PhaseFinalClue {
			r.mu.Unlock()
			return
		}
		answer := ""
		if r.rng.Float64() < cp.CPU.Accuracy {
			answer = r.game.FJ.Answer
		}
		r.mu.Unlock()

		r.SubmitFinalAnswer(sid, answer)
	})
}
