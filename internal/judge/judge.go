// Package judge decides whether a submitted trivia answer matches the
// correct response. Matching is deliberately lenient: contestants type
// fast and the archive answers carry articles and qualifiers.
package judge

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Result is the verdict for a single answer comparison.
type Result struct {
	Correct    bool    `json:"correct"`
	Similarity float64 `json:"similarity"`
}

// stopWords are tokens ignored during keyword matching.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "and": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"what": {}, "who": {},
}

// Check compares a candidate answer against the reference.
//
// The cascade: exact normalized match, keyword overlap, then whole-string
// edit distance within a tolerance proportional to the reference length.
func Check(candidate, reference string) Result {
	cand := Normalize(candidate)
	ref := Normalize(reference)

	if cand == "" {
		return Result{Correct: false, Similarity: 0}
	}

	if cand == ref {
		return Result{Correct: true, Similarity: 1.0}
	}

	if keywordMatch(cand, ref) {
		return Result{Correct: true, Similarity: 0.8}
	}

	// Lengths are in runes to match the distance; byte counts would
	// inflate the tolerance for accented references.
	d := Levenshtein(cand, ref)
	refLen := utf8.RuneCountInString(ref)
	tolerance := int(math.Floor(float64(refLen) * 0.2))
	if tolerance < 2 {
		tolerance = 2
	}
	if refLen > 0 && d <= tolerance {
		return Result{Correct: true, Similarity: 1 - float64(d)/float64(refLen)}
	}

	longest := refLen
	if n := utf8.RuneCountInString(cand); n > longest {
		longest = n
	}
	sim := 0.0
	if longest > 0 {
		sim = 1 - float64(d)/float64(longest)
	}
	if sim < 0 {
		sim = 0
	}
	return Result{Correct: false, Similarity: sim}
}

// Normalize lowercases, strips everything but letters, digits and spaces,
// collapses runs of whitespace, and trims.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true // leading spaces are dropped
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// keywordMatch reports whether any significant word of the candidate matches
// any significant word of the reference.
func keywordMatch(cand, ref string) bool {
	cws := significantWords(cand)
	rws := significantWords(ref)

	for _, cw := range cws {
		for _, rw := range rws {
			if wordsMatch(cw, rw) {
				return true
			}
		}
	}
	return false
}

// significantWords tokenizes on spaces and drops stop words and single chars.
func significantWords(s string) []string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, w := range fields {
		if len(w) <= 1 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

// wordsMatch checks a single word pair: equality, containment of a
// sufficiently long word, or a small edit distance relative to the
// candidate word.
func wordsMatch(cw, rw string) bool {
	if cw == rw {
		return true
	}
	if len(rw) > 3 && strings.Contains(cw, rw) {
		return true
	}
	if len(cw) > 3 && strings.Contains(rw, cw) {
		return true
	}
	return Levenshtein(cw, rw) <= int(math.Floor(float64(utf8.RuneCountInString(cw))*0.25))
}

// Levenshtein computes edit distance with the two-row DP scheme.
// Ties between insert/delete/substitute resolve toward substitution.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			sub := prev[j-1]
			if ra[i-1] != rb[j-1] {
				sub++
			}
			ins := curr[j-1] + 1
			del := prev[j] + 1

			best := sub
			if ins < best {
				best = ins
			}
			if del < best {
				best = del
			}
			curr[j] = best
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
