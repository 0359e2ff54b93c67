package trivia

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addedCPUID(r *Room) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sid, p := range r.players {
		if p.isCPU() {
			return sid
		}
	}
	return ""
}

func TestAddCPUHostOnlyInLobby(t *testing.T) {
	r, e := newTestTriviaRoom(t)
	r.Join("s1", "maria", "")
	r.Join("s2", "jo", "")

	r.AddCPU("s2", "hard", "") // not host
	assert.Empty(t, addedCPUID(r))

	r.AddCPU("s1", "hard", "")
	cpu := addedCPUID(r)
	require.NotEmpty(t, cpu)
	assert.True(t, strings.HasPrefix(cpu, "cpu-"))

	joined, ok := e.last("player-joined")
	require.True(t, ok)
	assert.True(t, joined.Payload.(playerJoinedPayload).Player.IsCPU)

	r.StartGame("s1")
	r.AddCPU("s1", "easy", "")
	r.mu.Lock()
	count := len(r.players)
	r.mu.Unlock()
	assert.Equal(t, 3, count, "no seating mid-game")
}

func TestRemoveCPU(t *testing.T) {
	r, e := newTestTriviaRoom(t)
	r.Join("s1", "maria", "")
	r.AddCPU("s1", "medium", "Watson")
	cpu := addedCPUID(r)

	r.RemoveCPU("s1", cpu)
	assert.Empty(t, addedCPUID(r))
	left, ok := e.last("player-left")
	require.True(t, ok)
	assert.Equal(t, "Watson", left.Payload.(playerLeftPayload).Name)
}

func TestCPUBuzzCandidatesScheduled(t *testing.T) {
	r, _ := newTestTriviaRoom(t)
	r.Join("s1", "maria", "")

	// A profile that never skips makes the schedule deterministic.
	r.mu.Lock()
	r.seatLocked("cpu-x", "Watson", "", &cpuProfile{BuzzSpeed: 1, Accuracy: 1, SkipChance: 0})
	r.mu.Unlock()

	r.StartGame("s1")
	r.SelectClue("s1", 0, 1)
	r.forceOpenBuzzer()

	assert.True(t, r.sched.Active("cpu-buzz:cpu-x"))

	// A human winning the buzzer cancels the CPU candidate atomically.
	r.BuzzIn("s1")
	assert.False(t, r.sched.Active("cpu-buzz:cpu-x"))
}

func TestCPUAnswersAfterBuzzing(t *testing.T) {
	r, e := newTestTriviaRoom(t)
	r.Join("s1", "maria", "")

	r.mu.Lock()
	r.seatLocked("cpu-x", "Watson", "", &cpuProfile{BuzzSpeed: 1, Accuracy: 1, SkipChance: 0})
	r.mu.Unlock()

	r.StartGame("s1")
	r.SelectClue("s1", 0, 1)
	r.forceOpenBuzzer()
	r.BuzzIn("cpu-x")
	assert.Equal(t, PhasePlayerAnswering, r.phaseNow())

	// Accuracy 1.0 answers correctly after the fixed pause.
	require.Eventually(t, func() bool {
		return r.scoreOf("cpu-x") == 200
	}, 5*time.Second, 25*time.Millisecond)

	res, ok := e.last("answer-result")
	require.True(t, ok)
	assert.True(t, res.Payload.(answerResultPayload).Correct)

	r.mu.Lock()
	assert.Equal(t, "cpu-x", r.controller, "CPU takes control on a correct answer")
	r.mu.Unlock()
}

func TestCPUWithZeroAccuracySubmitsEmpty(t *testing.T) {
	r, e := newTestTriviaRoom(t)
	r.Join("s1", "maria", "")

	r.mu.Lock()
	r.seatLocked("cpu-x", "Watson", "", &cpuProfile{BuzzSpeed: 1, Accuracy: 0, SkipChance: 0})
	r.mu.Unlock()

	r.StartGame("s1")
	r.SelectClue("s1", 0, 1)
	r.forceOpenBuzzer()
	r.BuzzIn("cpu-x")

	require.Eventually(t, func() bool {
		return r.scoreOf("cpu-x") == -200
	}, 5*time.Second, 25*time.Millisecond)

	res, _ := e.last("answer-result")
	rp := res.Payload.(answerResultPayload)
	assert.False(t, rp.Correct)
	assert.Empty(t, rp.Answer)
}

func TestControllingCPUSelectsAClue(t *testing.T) {
	r, e := newTestTriviaRoom(t)
	r.Join("s1", "maria", "")

	r.mu.Lock()
	r.seatLocked("cpu-x", "Watson", "", &cpuProfile{BuzzSpeed: 1, Accuracy: 1, SkipChance: 0})
	r.mu.Unlock()

	r.StartGame("s1")

	r.mu.Lock()
	r.controller = "cpu-x"
	r.maybeScheduleCPUSelectLocked()
	r.mu.Unlock()

	require.Eventually(t, func() bool {
		ph := r.phaseNow()
		return ph == PhaseReadingClue || ph == PhaseDailyDoubleWager
	}, 5*time.Second, 25*time.Millisecond)

	if r.phaseNow() == PhaseReadingClue {
		_, ok := e.last("clue-selected")
		assert.True(t, ok)
	} else {
		_, ok := e.last("daily-double")
		assert.True(t, ok)
	}
}

func TestCPUBuzzDelayFormula(t *testing.T) {
	// max(1, 2 - 1.5*speed) keeps even the fastest CPU off the buzzer
	// for at least a second.
	fast := 2 - 1.5*0.9
	assert.Less(t, fast, 1.0)

	slow := 2 - 1.5*0.3
	assert.InDelta(t, 1.55, slow, 0.001)
}

func TestCPUProfilesTable(t *testing.T) {
	assert.Equal(t, cpuProfile{BuzzSpeed: 0.3, Accuracy: 0.5, SkipChance: 0.35}, cpuProfiles["easy"])
	assert.Equal(t, cpuProfile{BuzzSpeed: 0.5, Accuracy: 0.7, SkipChance: 0.15}, cpuProfiles["medium"])
	assert.Equal(t, cpuProfile{BuzzSpeed: 0.8, Accuracy: 0.9, SkipChance: 0.05}, cpuProfiles["hard"])
}
