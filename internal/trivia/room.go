// Package trivia implements the Jeopardy-style room: a strict multi-phase
// state machine with buzzer arbitration, daily doubles, a wagered final
// round, and CPU opponents. All mutation for a room is serialized behind
// its mutex; every timer callback re-checks phase and membership.
package trivia

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/blarphus/crossword/internal/domain/jeopardy"
	"github.com/blarphus/crossword/internal/infra/storage"
	"github.com/blarphus/crossword/internal/network"
	"github.com/blarphus/crossword/internal/platform/logger"
	"github.com/blarphus/crossword/internal/platform/scheduler"
)

// Phase is the room's position in the game state machine.
type Phase string

const (
	PhaseLobby             Phase = "lobby"
	PhaseSelectingClue     Phase = "selectingClue"
	PhaseReadingClue       Phase = "readingClue"
	PhaseBuzzerOpen        Phase = "buzzerOpen"
	PhasePlayerAnswering   Phase = "playerAnswering"
	PhaseShowingResult     Phase = "showingResult"
	PhaseDailyDoubleWager  Phase = "dailyDoubleWager"
	PhaseDailyDoubleAnswer Phase = "dailyDoubleAnswer"
	PhaseFinalCategory     Phase = "finalCategory"
	PhaseFinalWager        Phase = "finalWager"
	PhaseFinalClue         Phase = "finalClue"
	PhaseFinalResults      Phase = "finalResults"
	PhaseGameOver          Phase = "gameOver"
)

const (
	maxPlayers = 4

	readingDelay     = 3 * time.Second
	buzzerWindow     = 5 * time.Second
	answerWindow     = 10 * time.Second
	rebuzzDelay      = 1500 * time.Millisecond
	correctDelay     = 2500 * time.Millisecond
	revealDelay      = 3 * time.Second
	finalCategoryGap = 5 * time.Second
	finalAnswerWait  = 30 * time.Second
	finalRevealGap   = 3 * time.Second
	gameOverLinger   = 5 * time.Minute

	minWager          = 5
	jeopardyRoundMin  = 1000
	doubleJeopardyMin = 2000
)

// triviaPalette seats up to eight distinct players and CPUs.
var triviaPalette = []string{
	"#F44336", "#2196F3", "#4CAF50", "#FF9800",
	"#9C27B0", "#00BCD4", "#FFEB3B", "#795548",
}

// Player is one seat at the podium.
type Player struct {
	SID      string
	Name     string
	Color    string
	Score    int
	DeviceID string
	CPU      *cpuProfile // nil for humans
}

func (p *Player) isCPU() bool { return p.CPU != nil }

type finalState struct {
	wagers  map[string]int
	answers map[string]string
	order   []string // reveal order, ascending pre-wager score
	reveal  int
}

// Room is one live game.
type Room struct {
	mu    sync.Mutex
	id    string
	game  *jeopardy.Game
	phase Phase
	round jeopardy.RoundName

	players map[string]*Player
	seats   []string // join order, drives host/controller reassignment

	host       string
	controller string

	used      map[string]struct{} // "cat,row" of consumed board slots
	current   *jeopardy.Clue
	buzzed    map[string]struct{}
	answering string
	ddWager   int
	cluesDone int
	final     finalState

	sched   *scheduler.Scheduler
	emitter network.Emitter
	store   storage.Store
	log     *logger.Logger
	rng     *rand.Rand

	// onEmpty runs outside the lock after the room loses its last human.
	onEmpty func()
}

func newTriviaRoom(id string, game *jeopardy.Game, emitter network.Emitter, store storage.Store, log *logger.Logger, onEmpty func()) *Room {
	return &Room{
		id:      id,
		game:    game,
		phase:   PhaseLobby,
		round:   jeopardy.RoundJeopardy,
		players: make(map[string]*Player),
		used:    make(map[string]struct{}),
		buzzed:  make(map[string]struct{}),
		final: finalState{
			wagers:  make(map[string]int),
			answers: make(map[string]string),
		},
		sched:   scheduler.New(),
		emitter: emitter,
		store:   store,
		log:     log,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		onEmpty: onEmpty,
	}
}

func (r *Room) channel() string {
	return "trivia:" + r.id
}

func slotKey(cat, row int) string {
	return strconv.Itoa(cat) + "," + strconv.Itoa(row)
}

// setPhaseLocked cancels the phase timer and every pending CPU buzz
// atomically with the transition, then broadcasts it.
func (r *Room) setPhaseLocked(p Phase) {
	r.sched.Cancel("phase")
	r.sched.CancelPrefix("cpu-buzz:")
	r.phase = p
	r.emitter.ToRoom(r.channel(), "phase-change", phaseChangePayload{Phase: p, Controller: r.controller})
}

// Join seats a player. Seating is lobby-only; a mid-game join request is
// dropped like any other out-of-phase message.
func (r *Room) Join(sid, name, deviceID string) bool {
	r.mu.Lock()
	if r.phase != PhaseLobby || len(r.players) >= maxPlayers {
		r.mu.Unlock()
		return false
	}
	p := r.seatLocked(sid, name, deviceID, nil)
	state := r.snapshotLocked()
	r.mu.Unlock()

	r.emitter.Join(sid, r.channel())
	r.emitter.ToRoomExcept(r.channel(), sid, "player-joined", playerJoinedPayload{Player: toInfo(p)})
	r.emitter.ToSocket(sid, "room-state", state)
	r.log.Event("trivia_join", name, "roomId", r.id, "sid", sid)
	return true
}

func (r *Room) seatLocked(sid, name, deviceID string, cpu *cpuProfile) *Player {
	p := &Player{
		SID:      sid,
		Name:     name,
		Color:    r.pickColorLocked(),
		DeviceID: deviceID,
		CPU:      cpu,
	}
	r.players[sid] = p
	r.seats = append(r.seats, sid)
	if r.host == "" && cpu == nil {
		r.host = sid
		r.controller = sid
	}
	return p
}

func (r *Room) pickColorLocked() string {
	used := make(map[string]bool, len(r.players))
	for _, p := range r.players {
		used[p.Color] = true
	}
	for _, c := range triviaPalette {
		if !used[c] {
			return c
		}
	}
	return triviaPalette[r.rng.Intn(len(triviaPalette))]
}

// Leave removes a player, reassigning host and controller and unwinding
// any phase that was waiting on them. Returns true when the room lost
// its last human and shut down.
func (r *Room) Leave(sid string) bool {
	r.mu.Lock()
	p, ok := r.players[sid]
	if !ok {
		r.mu.Unlock()
		return false
	}
	r.removeSeatLocked(sid)

	if r.humanCountLocked() == 0 {
		r.shutdownLocked()
		r.mu.Unlock()

		r.emitter.Leave(sid, r.channel())
		if r.onEmpty != nil {
			r.onEmpty()
		}
		return true
	}

	r.reassignRolesLocked(sid)
	wasAnswering := r.answering == sid
	if wasAnswering {
		r.answering = ""
	}
	left := playerLeftPayload{SocketID: sid, Name: p.Name, Host: r.host, Controller: r.controller}

	switch {
	case wasAnswering && r.phase == PhasePlayerAnswering:
		// The departed player counts as a wrong answer with no score change.
		r.setPhaseLocked(PhaseShowingResult)
		r.afterWrongAnswerLocked()
	case wasAnswering && (r.phase == PhaseDailyDoubleAnswer || r.phase == PhaseDailyDoubleWager):
		r.setPhaseLocked(PhaseShowingResult)
		r.advanceAfterClueLocked(revealDelay)
	case r.phase == PhaseFinalWager || r.phase == PhaseFinalClue:
		// One fewer player may complete the fan-in.
		r.checkFinalProgressLocked()
	}
	r.mu.Unlock()

	r.emitter.Leave(sid, r.channel())
	r.emitter.ToRoom(r.channel(), "player-left", left)
	return false
}

func (r *Room) removeSeatLocked(sid string) {
	delete(r.players, sid)
	delete(r.buzzed, sid)
	delete(r.final.wagers, sid)
	delete(r.final.answers, sid)
	for i, s := range r.seats {
		if s == sid {
			r.seats = append(r.seats[:i], r.seats[i+1:]...)
			break
		}
	}
	r.sched.CancelPrefix("cpu-buzz:" + sid)
}

func (r *Room) reassignRolesLocked(departed string) {
	firstHuman := ""
	for _, sid := range r.seats {
		if p := r.players[sid]; p != nil && !p.isCPU() {
			firstHuman = sid
			break
		}
	}
	if r.host == departed {
		r.host = firstHuman
	}
	if r.controller == departed {
		r.controller = firstHuman
	}
}

func (r *Room) shutdownLocked() {
	r.sched.CancelAll()
	r.players = make(map[string]*Player)
	r.seats = nil
}

func (r *Room) humanCountLocked() int {
	n := 0
	for _, p := range r.players {
		if !p.isCPU() {
			n++
		}
	}
	return n
}

// SwapGame replaces the game while still in the lobby. Host only.
func (r *Room) SwapGame(sid string, game *jeopardy.Game) {
	r.mu.Lock()
	if sid != r.host || r.phase != PhaseLobby || game == nil {
		r.mu.Unlock()
		return
	}
	r.game = game
	state := r.snapshotLocked()
	r.mu.Unlock()

	r.emitter.ToRoom(r.channel(), "room-state", state)
	r.log.Event("trivia_game_changed", sid, "roomId", r.id, "gameId", game.GameID)
}

// StartGame moves the lobby onto the first board. Host only.
func (r *Room) StartGame(sid string) {
	r.mu.Lock()
	if sid != r.host || r.phase != PhaseLobby || len(r.players) == 0 {
		r.mu.Unlock()
		return
	}
	r.round = jeopardy.RoundJeopardy
	r.seedUsedLocked()
	r.setPhaseLocked(PhaseSelectingClue)
	r.emitter.ToRoom(r.channel(), "round-change", r.roundChangeLocked())
	r.maybeScheduleCPUSelectLocked()
	r.mu.Unlock()

	r.log.Event("trivia_started", sid, "roomId", r.id, "gameId", r.game.GameID)
}

// seedUsedLocked marks board slots the archive never had, so exhaustion
// checks see a full 6x5 grid.
func (r *Room) seedUsedLocked() {
	r.used = make(map[string]struct{})
	board := r.game.Board(r.round)
	if board == nil {
		return
	}
	for cat := 0; cat < 6; cat++ {
		for row := 1; row <= 5; row++ {
			if _, ok := board.FindClue(cat, row); !ok {
				r.used[slotKey(cat, row)] = struct{}{}
			}
		}
	}
}

func (r *Room) boardExhaustedLocked() bool {
	return len(r.used) >= 30
}

func (r *Room) roundChangeLocked() roundChangePayload {
	return roundChangePayload{
		Round:      r.round,
		Categories: r.categoriesLocked(),
		Board:      r.boardLocked(),
		Controller: r.controller,
	}
}

func (r *Room) categoriesLocked() []string {
	if b := r.game.Board(r.round); b != nil {
		return b.Categories
	}
	return nil
}

func (r *Room) boardLocked() []boardClue {
	b := r.game.Board(r.round)
	if b == nil {
		return nil
	}
	out := make([]boardClue, 0, len(b.Clues))
	for _, c := range b.Clues {
		_, used := r.used[slotKey(c.Cat, c.Row)]
		out = append(out, boardClue{Cat: c.Cat, Row: c.Row, Value: c.Value, Used: used})
	}
	return out
}

func (r *Room) snapshotLocked() roomStatePayload {
	players := make([]playerInfo, 0, len(r.players))
	for _, sid := range r.seats {
		if p := r.players[sid]; p != nil {
			players = append(players, toInfo(p))
		}
	}
	return roomStatePayload{
		RoomID:     r.id,
		GameID:     r.game.GameID,
		ShowNumber: r.game.ShowNumber,
		AirDate:    r.game.AirDate,
		Phase:      r.phase,
		Round:      r.round,
		Categories: r.categoriesLocked(),
		Board:      r.boardLocked(),
		Players:    players,
		Host:       r.host,
		Controller: r.controller,
	}
}

func toInfo(p *Player) playerInfo {
	return playerInfo{
		SocketID: p.SID, Name: p.Name, Color: p.Color,
		Score: p.Score, IsCPU: p.isCPU(),
	}
}

func (r *Room) scoresLocked() scoresUpdatePayload {
	scores := make(map[string]int, len(r.players))
	for sid, p := range r.players {
		scores[sid] = p.Score
	}
	return scoresUpdatePayload{Scores: scores}
}

// persistProgress records the rollup for the unplayed-game picker.
func (r *Room) persistProgress(completed bool) {
	gameID := r.game.GameID
	done := r.cluesDone
	total := r.game.TotalClues()
	round := string(r.round)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.store.SaveJeopardyProgress(ctx, gameID, done, total, round, completed); err != nil {
			r.log.Error("progress write failed", "gameId", gameID, "err", err)
		}
	}()
}
