package crossword

import "time"

type wordCompletion struct {
	At    time.Time
	Count int
}

// FireStreak is the per-member streak state. It lives inside the
// membership record so evicting a member can never leak a live streak.
type FireStreak struct {
	Recent      []wordCompletion
	OnFire      bool
	ExpiresAt   time.Time
	Multiplier  float64
	WordsOnFire int
	Cells       map[string]struct{}
}

// RemainingMS returns the milliseconds until expiry, never negative.
func (f *FireStreak) RemainingMS(now time.Time) int64 {
	if !f.OnFire {
		return 0
	}
	rem := f.ExpiresAt.Sub(now)
	if rem < 0 {
		return 0
	}
	return rem.Milliseconds()
}

// Record appends a word completion and reports whether the streak ignites:
// completions summing to fireIgnitionCount inside the rolling window.
func (f *FireStreak) Record(now time.Time, count int) bool {
	f.Recent = append(f.Recent, wordCompletion{At: now, Count: count})

	kept := f.Recent[:0]
	total := 0
	for _, c := range f.Recent {
		if now.Sub(c.At) <= fireWindow {
			kept = append(kept, c)
			total += c.Count
		}
	}
	f.Recent = kept
	return total >= fireIgnitionCount
}

// Ignite starts the streak at the base multiplier.
func (f *FireStreak) Ignite(now time.Time, cells map[string]struct{}) {
	f.OnFire = true
	f.ExpiresAt = now.Add(fireDuration)
	f.Multiplier = fireBaseMult
	f.WordsOnFire = 0
	f.Cells = cells
	f.Recent = nil
}

// Extend pushes the expiry out and steps the multiplier every
// fireWordsPerStep completed words.
func (f *FireStreak) Extend(completed int, cells map[string]struct{}) {
	f.ExpiresAt = f.ExpiresAt.Add(fireExtension)
	f.WordsOnFire += completed
	f.Multiplier = fireBaseMult + fireMultStep*float64(f.WordsOnFire/fireWordsPerStep)
	f.Cells = cells
}

// Clear drops the streak entirely, including the recent-completion window.
func (f *FireStreak) Clear() {
	f.Recent = nil
	f.OnFire = false
	f.ExpiresAt = time.Time{}
	f.Multiplier = 0
	f.WordsOnFire = 0
	f.Cells = nil
}
