package crossword

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rigBot starts a bot with a flattened timing budget so a test can watch
// a full solve in well under a second.
func rigBot(r *Room, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.bots[id]
	words := r.puz.Words()
	numCells := 0
	for _, w := range words {
		numCells += len(w.Cells)
	}

	b.words = words
	b.thinks = make([]time.Duration, len(words))
	b.cellTimes = make([]time.Duration, numCells)
	for i := range b.thinks {
		b.thinks[i] = minBotStepInterval
	}
	for i := range b.cellTimes {
		b.cellTimes[i] = minBotStepInterval
	}
	b.Running = true
	b.phase = botFilling
	r.sched.Arm(b.timerName(), minBotStepInterval, func() { r.botStep(id) })
}

func addedBotID(r *Room) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.bots {
		return id
	}
	return ""
}

func TestAddAndRemoveBot(t *testing.T) {
	r, e := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "", "", "")

	r.AddBot("expert", "Turing")
	id := addedBotID(r)
	require.NotEmpty(t, id)

	joined, ok := e.last("user-joined")
	require.True(t, ok)
	jp := joined.Payload.(userJoinedPayload)
	assert.True(t, jp.IsBot)
	assert.Equal(t, "Turing", jp.UserName)

	list, ok := e.last("ai-bot-list")
	require.True(t, ok)
	bots := list.Payload.(botListPayload).Bots
	require.Len(t, bots, 1)
	assert.Equal(t, "expert", bots[0].Difficulty)
	assert.False(t, bots[0].Running)

	r.RemoveBot(id)
	left, ok := e.last("user-left")
	require.True(t, ok)
	assert.Equal(t, "Turing", left.Payload.(userLeftPayload).UserName)

	list, _ = e.last("ai-bot-list")
	assert.Empty(t, list.Payload.(botListPayload).Bots)
}

func TestBotDefaultNamesAreUnique(t *testing.T) {
	r, _ := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "", "", "")
	r.AddBot("easy", "")
	r.AddBot("easy", "")

	r.mu.Lock()
	defer r.mu.Unlock()
	names := make(map[string]bool)
	for _, b := range r.bots {
		assert.False(t, names[b.Name])
		names[b.Name] = true
	}
}

func TestBotSolvesPuzzleThroughScoringPipeline(t *testing.T) {
	r, e := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "", "", "")
	r.AddBot("standard", "Ada")
	rigBot(r, addedBotID(r))

	require.Eventually(t, r.Completed, 3*time.Second, 20*time.Millisecond)

	// The bot scored like a human, including the last-square bonus, and
	// was evicted on completion.
	assert.Greater(t, r.Points()["Ada"], 0)
	r.mu.Lock()
	assert.Empty(t, r.bots)
	r.mu.Unlock()

	assert.NotEmpty(t, e.ofType("cursor-moved"))
	var botFills int
	for _, ev := range e.ofType("cell-updated") {
		if ev.Payload.(cellUpdatedPayload).UserName == "Ada" {
			botFills++
		}
	}
	assert.Equal(t, 4, botFills)
}

func TestBotSkipsCellsAlreadyCorrect(t *testing.T) {
	r, e := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "", "", "")
	r.CellUpdate("s1", 0, 0, "A")
	r.CellUpdate("s1", 0, 1, "B")

	r.AddBot("standard", "Ada")
	rigBot(r, addedBotID(r))
	require.Eventually(t, r.Completed, 3*time.Second, 20*time.Millisecond)

	var botFills int
	for _, ev := range e.ofType("cell-updated") {
		if ev.Payload.(cellUpdatedPayload).UserName == "Ada" {
			botFills++
		}
	}
	assert.Equal(t, 2, botFills, "pre-filled cells are skipped")

	// Human attribution on the pre-filled cells survives.
	r.mu.Lock()
	assert.Equal(t, "maria", r.fillers["0,0"])
	r.mu.Unlock()
}

func TestRemoveBotCancelsPendingTimers(t *testing.T) {
	r, _ := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "", "", "")
	r.AddBot("standard", "Ada")
	id := addedBotID(r)
	rigBot(r, id)

	r.RemoveBot(id)

	r.mu.Lock()
	assert.NotContains(t, r.bots, id)
	assert.NotContains(t, r.members, id)
	r.mu.Unlock()

	// Any in-flight callback must be a no-op; the puzzle never finishes.
	time.Sleep(300 * time.Millisecond)
	assert.False(t, r.Completed())
}

func TestStartBotsUsesRealBudget(t *testing.T) {
	r, _ := newTestRoom(t, fullGrid())
	r.Join("s1", "maria", "", "", "")
	r.AddBot("easy", "Ada")
	r.StartBots()

	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bots[addedBotIDLocked(r)]
	require.NotNil(t, b)
	assert.True(t, b.Running)
	assert.Len(t, b.thinks, len(b.words))

	var total time.Duration
	for _, d := range b.cellTimes {
		total += d
	}
	for _, d := range b.thinks {
		total += d
	}
	// A Monday easy solve target sits in the minutes range even after
	// the per-bot wobble.
	assert.Greater(t, total, time.Minute)
}

func addedBotIDLocked(r *Room) string {
	for id := range r.bots {
		return id
	}
	return ""
}
