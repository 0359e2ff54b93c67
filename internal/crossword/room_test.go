package crossword

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blarphus/crossword/internal/domain/puzzle"
	"github.com/blarphus/crossword/internal/infra/storage"
	"github.com/blarphus/crossword/internal/platform/logger"
)

type emitted struct {
	Room    string
	SID     string
	Event   string
	Payload interface{}
}

// recordingEmitter captures broadcasts so tests can assert on the event
// stream without a live websocket hub.
type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
	rooms  map[string]map[string]struct{}
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{rooms: make(map[string]map[string]struct{})}
}

func (e *recordingEmitter) Join(sid, room string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rooms[room] == nil {
		e.rooms[room] = make(map[string]struct{})
	}
	e.rooms[room][sid] = struct{}{}
}

func (e *recordingEmitter) Leave(sid, room string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.rooms[room], sid)
}

func (e *recordingEmitter) ToRoom(room, event string, payload interface{}) {
	e.record(emitted{Room: room, Event: event, Payload: payload})
}

func (e *recordingEmitter) ToRoomExcept(room, exceptSID, event string, payload interface{}) {
	e.record(emitted{Room: room, SID: "!" + exceptSID, Event: event, Payload: payload})
}

func (e *recordingEmitter) ToSocket(sid, event string, payload interface{}) {
	e.record(emitted{SID: sid, Event: event, Payload: payload})
}

func (e *recordingEmitter) RoomMembers(room string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.rooms[room]))
	for sid := range e.rooms[room] {
		out = append(out, sid)
	}
	return out
}

func (e *recordingEmitter) record(ev emitted) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *recordingEmitter) ofType(event string) []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []emitted
	for _, ev := range e.events {
		if ev.Event == event {
			out = append(out, ev)
		}
	}
	return out
}

func (e *recordingEmitter) last(event string) (emitted, bool) {
	all := e.ofType(event)
	if len(all) == 0 {
		return emitted{}, false
	}
	return all[len(all)-1], true
}

// fullGrid is a 2x2 puzzle with no blocked cells and four words.
func fullGrid() *puzzle.Puzzle {
	return &puzzle.Puzzle{
		Date:       "2024-03-04",
		Dimensions: puzzle.Dimensions{Rows: 2, Cols: 2},
		Grid:       [][]string{{"A", "B"}, {"C", "D"}},
		Clues: puzzle.Clues{
			Across: []puzzle.Clue{
				{Number: 1, Row: 0, Col: 0, Answer: "AB"},
				{Number: 3, Row: 1, Col: 0, Answer: "CD"},
			},
			Down: []puzzle.Clue{
				{Number: 1, Row: 0, Col: 0, Answer: "AC"},
				{Number: 2, Row: 0, Col: 1, Answer: "BD"},
			},
		},
	}
}

// wideGrid is a 1x6 open row with three two-letter across words, so a
// test can complete words without finishing the puzzle.
func wideGrid() *puzzle.Puzzle {
	return &puzzle.Puzzle{
		Date:       "2024-03-04",
		Dimensions: puzzle.Dimensions{Rows: 2, Cols: 3},
		Grid:       [][]string{{"A", "B", "C"}, {"D", "E", "F"}},
		Clues: puzzle.Clues{
			Across: []puzzle.Clue{
				{Number: 1, Row: 0, Col: 0, Answer: "ABC"},
				{Number: 4, Row: 1, Col: 0, Answer: "DEF"},
			},
			Down: []puzzle.Clue{
				{Number: 1, Row: 0, Col: 0, Answer: "AD"},
				{Number: 2, Row: 0, Col: 1, Answer: "BE"},
				{Number: 3, Row: 0, Col: 2, Answer: "CF"},
			},
		},
	}
}

func newTestRoom(t *testing.T, puz *puzzle.Puzzle) (*Room, *recordingEmitter) {
	t.Helper()
	db, err := storage.InitSQLite(":memory:")
	require.NoError(t, err)
	store := storage.NewSQLiteStore(db)
	t.Cleanup(func() { store.Close() })

	emitter := newRecordingEmitter()
	room := newRoom(puz.Date, puz, emitter, store, logger.NewNop(), nil)
	t.Cleanup(func() { room.sched.CancelAll() })
	return room, emitter
}

func TestJoinSendsSnapshotAndTimer(t *testing.T) {
	r, e := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "", "", "10.0.0.1:1")

	snap, ok := e.last("room-state")
	require.True(t, ok)
	assert.Equal(t, "s1", snap.SID)
	state := snap.Payload.(roomStatePayload)
	assert.Equal(t, "2024-03-04", state.Date)
	assert.Len(t, state.Members, 1)
	assert.False(t, state.Completed)

	timer, ok := e.last("timer-sync")
	require.True(t, ok)
	assert.True(t, timer.Payload.(timerSyncPayload).Running)

	count, ok := e.last("room-count")
	require.True(t, ok)
	assert.Equal(t, 1, count.Payload.(roomCountPayload).Count)
}

func TestCellUpdateScoring(t *testing.T) {
	r, e := newTestRoom(t, wideGrid())
	r.Join("s1", "maria", "", "", "")

	r.CellUpdate("s1", 0, 0, "a")
	ev, ok := e.last("cell-updated")
	require.True(t, ok)
	p := ev.Payload.(cellUpdatedPayload)
	assert.True(t, p.GuessCorrect)
	assert.Equal(t, 10, p.Delta)
	assert.Equal(t, "A", p.Letter)
	assert.Equal(t, "maria", p.UserName)

	r.CellUpdate("s1", 0, 1, "X")
	ev, _ = e.last("cell-updated")
	p = ev.Payload.(cellUpdatedPayload)
	assert.False(t, p.GuessCorrect)
	assert.Equal(t, -30, p.Delta)

	assert.Equal(t, -20, r.Points()["maria"])
}

func TestBlockedAndUnknownSendersIgnored(t *testing.T) {
	puz := fullGrid()
	puz.Grid[1][1] = puzzle.Blocked
	r, e := newTestRoom(t, puz)
	r.Join("s1", "maria", "", "", "")
	before := len(e.ofType("cell-updated"))

	r.CellUpdate("s1", 1, 1, "D") // blocked
	r.CellUpdate("ghost", 0, 0, "A")
	assert.Len(t, e.ofType("cell-updated"), before)
}

func TestRebusScoring(t *testing.T) {
	puz := wideGrid()
	puz.Rebus = map[string]string{"0,0": "QUA"}
	r, e := newTestRoom(t, puz)
	r.Join("s1", "maria", "", "", "")

	r.CellUpdate("s1", 0, 0, "qua")
	ev, _ := e.last("cell-updated")
	assert.Equal(t, 50, ev.Payload.(cellUpdatedPayload).Delta)

	// Single letter in a rebus square scores as a plain wrong guess.
	r.CellUpdate("s1", 0, 0, "Q")
	ev, _ = e.last("cell-updated")
	assert.Equal(t, -30, ev.Payload.(cellUpdatedPayload).Delta)
}

func TestWordBonuses(t *testing.T) {
	r, e := newTestRoom(t, wideGrid())
	r.Join("s1", "maria", "", "", "")

	r.CellUpdate("s1", 0, 0, "A")
	r.CellUpdate("s1", 0, 1, "B")
	ev, _ := e.last("cell-updated")
	assert.Zero(t, ev.Payload.(cellUpdatedPayload).WordBonus)

	// Completes across ABC and down CF simultaneously.
	r.CellUpdate("s1", 1, 2, "F")
	r.CellUpdate("s1", 0, 2, "C")
	ev, _ = e.last("cell-updated")
	assert.Equal(t, wordBonusDouble, ev.Payload.(cellUpdatedPayload).WordBonus)
}

func TestSingleWordBonus(t *testing.T) {
	r, e := newTestRoom(t, wideGrid())
	r.Join("s1", "maria", "", "", "")

	r.CellUpdate("s1", 0, 0, "A")
	r.CellUpdate("s1", 1, 0, "D")
	ev, _ := e.last("cell-updated")
	assert.Equal(t, wordBonusSingle, ev.Payload.(cellUpdatedPayload).WordBonus)
}

func TestFireIgnitionOnThirdCompletion(t *testing.T) {
	r, e := newTestRoom(t, wideGrid())
	r.Join("s1", "maria", "", "", "")

	// Three single-word completions inside the window.
	r.CellUpdate("s1", 0, 0, "A")
	r.CellUpdate("s1", 1, 0, "D") // down AD
	r.CellUpdate("s1", 0, 1, "B")
	r.CellUpdate("s1", 1, 1, "E") // down BE
	ev, _ := e.last("cell-updated")
	assert.Empty(t, ev.Payload.(cellUpdatedPayload).FireEvent)

	r.CellUpdate("s1", 0, 2, "C") // across ABC, third completion
	ev, _ = e.last("cell-updated")
	assert.Equal(t, "started", ev.Payload.(cellUpdatedPayload).FireEvent)

	fire, ok := e.last("fire-update")
	require.True(t, ok)
	fp := fire.Payload.(fireUpdatePayload)
	assert.Equal(t, "started", fp.Type)
	assert.Equal(t, 1.5, fp.Multiplier)
	assert.InDelta(t, 30000, fp.RemainingMS, 100)
	assert.True(t, r.sched.Active("fire:s1"))
}

func TestOnFireDeltaUsesMultiplier(t *testing.T) {
	r, e := newTestRoom(t, wideGrid())
	r.Join("s1", "maria", "", "", "")

	r.mu.Lock()
	m := r.members["s1"]
	m.Fire.Ignite(time.Now(), nil)
	r.mu.Unlock()

	r.CellUpdate("s1", 1, 1, "E")
	ev, _ := e.last("cell-updated")
	assert.Equal(t, 15, ev.Payload.(cellUpdatedPayload).Delta)
}

func TestWrongGuessBreaksFire(t *testing.T) {
	r, e := newTestRoom(t, wideGrid())
	r.Join("s1", "maria", "", "", "")

	r.mu.Lock()
	r.members["s1"].Fire.Ignite(time.Now(), nil)
	r.mu.Unlock()

	r.CellUpdate("s1", 0, 0, "Z")
	ev, _ := e.last("cell-updated")
	p := ev.Payload.(cellUpdatedPayload)
	assert.Equal(t, -30, p.Delta)
	assert.Equal(t, "broken", p.FireEvent)

	r.mu.Lock()
	assert.False(t, r.members["s1"].Fire.OnFire)
	r.mu.Unlock()
}

func TestFireExpiryBroadcasts(t *testing.T) {
	r, e := newTestRoom(t, wideGrid())
	r.Join("s1", "maria", "", "", "")

	r.mu.Lock()
	m := r.members["s1"]
	m.Fire.Ignite(time.Now(), nil)
	m.Fire.ExpiresAt = time.Now().Add(30 * time.Millisecond)
	r.sched.Arm("fire:s1", 30*time.Millisecond, func() { r.expireFire("s1", "maria") })
	r.mu.Unlock()

	require.Eventually(t, func() bool {
		_, ok := e.last("fire-expired")
		return ok
	}, time.Second, 10*time.Millisecond)

	r.mu.Lock()
	assert.False(t, r.members["s1"].Fire.OnFire)
	r.mu.Unlock()
}

func TestLastSquareBonusAwardedOnce(t *testing.T) {
	r, e := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "", "", "")

	r.CellUpdate("s1", 0, 0, "A")
	r.CellUpdate("s1", 0, 1, "B")
	r.CellUpdate("s1", 1, 0, "C")
	r.CellUpdate("s1", 1, 1, "D")

	ev, _ := e.last("cell-updated")
	assert.Equal(t, lastSquareBonus, ev.Payload.(cellUpdatedPayload).LastSquareBonus)
	assert.True(t, r.Completed())

	// Re-typing the last square must not re-award.
	r.CellUpdate("s1", 1, 1, "D")
	ev, _ = e.last("cell-updated")
	assert.Zero(t, ev.Payload.(cellUpdatedPayload).LastSquareBonus)
}

func TestHintVoteUnanimityReveals(t *testing.T) {
	r, e := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "", "", "")
	r.Join("s2", "jo", "", "", "")

	r.HintVote("s1")
	ev, _ := e.last("hint-vote-update")
	assert.Equal(t, hintVoteUpdatePayload{Votes: 1, Total: 2}, ev.Payload)
	_, revealed := e.last("hint-reveal")
	assert.False(t, revealed)

	r.HintVote("s2")
	reveal, ok := e.last("hint-reveal")
	require.True(t, ok)
	cells := reveal.Payload.(hintRevealPayload).Cells
	require.NotEmpty(t, cells)
	assert.LessOrEqual(t, len(cells), maxHintCells)

	// Hint cells carry the sentinel filler and never score.
	c := cells[0]
	r.mu.Lock()
	assert.Equal(t, HintFiller, r.fillers[puzzle.CellKey(c.Row, c.Col)])
	r.mu.Unlock()

	r.CellUpdate("s1", c.Row, c.Col, c.Letter)
	last, _ := e.last("cell-updated")
	assert.False(t, last.Payload.(cellUpdatedPayload).Scored)
	assert.Zero(t, r.Points()["maria"])
}

func TestHintAvailableBroadcastsOnce(t *testing.T) {
	r, e := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "", "", "")

	r.HintAvailable("s1")
	r.HintAvailable("s1")
	assert.Len(t, e.ofType("hint-available"), 1)
}

func TestPauseStopsTimerWhenAllPaused(t *testing.T) {
	r, e := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "", "", "")
	r.Join("s2", "jo", "", "", "")

	r.Pause("s1")
	r.mu.Lock()
	running := !r.timerStart.IsZero()
	r.mu.Unlock()
	assert.True(t, running, "timer keeps running while a human is active")

	r.Pause("s2")
	ev, ok := e.last("timer-sync")
	require.True(t, ok)
	assert.False(t, ev.Payload.(timerSyncPayload).Running)

	r.Resume("s1")
	ev, _ = e.last("timer-sync")
	assert.True(t, ev.Payload.(timerSyncPayload).Running)
}

func TestClearPuzzleResetsEverything(t *testing.T) {
	r, e := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "", "", "")
	r.CellUpdate("s1", 0, 0, "A")
	r.CellUpdate("s1", 0, 1, "Z")

	r.Clear("s1")
	_, ok := e.last("puzzle-cleared")
	assert.True(t, ok)

	r.mu.Lock()
	assert.Empty(t, r.grid)
	assert.Empty(t, r.points)
	assert.Zero(t, r.timerAccum)
	r.mu.Unlock()
}

func TestLeaveLastHumanShutsDown(t *testing.T) {
	var emptied bool
	db, err := storage.InitSQLite(":memory:")
	require.NoError(t, err)
	store := storage.NewSQLiteStore(db)
	t.Cleanup(func() { store.Close() })

	e := newRecordingEmitter()
	r := newRoom("2024-03-04", fullGrid(), e, store, logger.NewNop(), func() { emptied = true })
	r.Join("s1", "maria", "", "", "")
	r.AddBot("easy", "")

	assert.True(t, r.Leave("s1"))
	assert.True(t, emptied)

	r.mu.Lock()
	assert.Empty(t, r.members, "bots are evicted with the last human")
	assert.Zero(t, r.sched.Len())
	r.mu.Unlock()

	_, ok := e.last("user-left")
	assert.True(t, ok)
}

func TestLeaveClearsFire(t *testing.T) {
	r, e := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "", "", "")
	r.Join("s2", "jo", "", "", "")

	r.mu.Lock()
	r.members["s1"].Fire.Ignite(time.Now(), nil)
	r.mu.Unlock()

	r.Leave("s1")
	ev, ok := e.last("fire-expired")
	require.True(t, ok)
	assert.Equal(t, "maria", ev.Payload.(fireExpiredPayload).UserName)
}

func TestColorsAreUniquePerMember(t *testing.T) {
	r, _ := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "#4CAF50", "", "")
	r.Join("s2", "jo", "#4CAF50", "", "")

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, "#4CAF50", r.members["s1"].Color)
	assert.NotEqual(t, r.members["s1"].Color, r.members["s2"].Color)
}

func TestJoinRestoresPersistedColor(t *testing.T) {
	r, _ := newTestRoom(t, fullGrid())
	_, err := r.store.CreateUser(context.Background(), "10.0.0.1", "maria", "#9C27B0", "dev-1")
	require.NoError(t, err)

	// The stored color beats the requested one.
	r.Join("s1", "maria", "#4CAF50", "dev-1", "10.0.0.1:1")
	r.mu.Lock()
	assert.Equal(t, "#9C27B0", r.members["s1"].Color)
	r.mu.Unlock()

	// A present member wearing the stored color still forces a fresh pick.
	r.Join("s2", "maria", "", "dev-1", "10.0.0.1:2")
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.NotEqual(t, "#9C27B0", r.members["s2"].Color)
}

func TestProgressDebounce(t *testing.T) {
	r, e := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "", "", "")

	r.CellUpdate("s1", 0, 0, "A")
	r.CellUpdate("s1", 0, 1, "B")
	assert.Empty(t, e.ofType("puzzle-progress"), "emission is debounced")

	require.Eventually(t, func() bool {
		return len(e.ofType("puzzle-progress")) > 0
	}, time.Second, 10*time.Millisecond)

	// One coalesced emission per destination room, reflecting both edits.
	for _, ev := range e.ofType("puzzle-progress") {
		p := ev.Payload.(puzzleProgressPayload)
		assert.Equal(t, 2, p.Filled)
		assert.Equal(t, 4, p.Total)
	}
}
