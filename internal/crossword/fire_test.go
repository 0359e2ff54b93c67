package crossword

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFireRecordIgnitesAtThreshold(t *testing.T) {
	var f FireStreak
	now := time.Now()

	assert.False(t, f.Record(now, 1))
	assert.False(t, f.Record(now.Add(5*time.Second), 1))
	assert.True(t, f.Record(now.Add(10*time.Second), 1))
}

func TestFireRecordWindowExpires(t *testing.T) {
	var f FireStreak
	now := time.Now()

	f.Record(now, 2)
	// The first completion has aged out of the window by the second.
	assert.False(t, f.Record(now.Add(31*time.Second), 1))
	assert.True(t, f.Record(now.Add(32*time.Second), 2))
}

func TestFireDoubleCompletionCountsTwice(t *testing.T) {
	var f FireStreak
	now := time.Now()

	f.Record(now, 2)
	assert.True(t, f.Record(now.Add(time.Second), 1))
}

func TestIgniteExtendAndMultiplierSteps(t *testing.T) {
	var f FireStreak
	now := time.Now()

	f.Ignite(now, map[string]struct{}{"0,0": {}})
	assert.True(t, f.OnFire)
	assert.Equal(t, 1.5, f.Multiplier)
	assert.Equal(t, int64(30000), f.RemainingMS(now))
	assert.Nil(t, f.Recent, "ignition consumes the completion window")

	f.Extend(1, nil)
	assert.Equal(t, 1.5, f.Multiplier)
	assert.Equal(t, int64(35000), f.RemainingMS(now))

	f.Extend(2, nil) // 3 words on fire, first step up
	assert.Equal(t, 2.0, f.Multiplier)

	f.Extend(3, nil) // 6 words
	assert.Equal(t, 2.5, f.Multiplier)
}

func TestFireClear(t *testing.T) {
	var f FireStreak
	f.Ignite(time.Now(), map[string]struct{}{"1,1": {}})
	f.Clear()

	assert.False(t, f.OnFire)
	assert.Zero(t, f.Multiplier)
	assert.Nil(t, f.Cells)
	assert.Zero(t, f.RemainingMS(time.Now()))
}
