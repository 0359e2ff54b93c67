package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckExactMatch(t *testing.T) {
	for _, s := range []string{"paris", "The Great Gatsby", "42"} {
		res := Check(s, s)
		assert.True(t, res.Correct, s)
		assert.Equal(t, 1.0, res.Similarity, s)
	}
}

func TestCheckNormalization(t *testing.T) {
	res := Check("  What is... PARIS?! ", "what is paris")
	assert.True(t, res.Correct)
	assert.Equal(t, 1.0, res.Similarity)
}

func TestCheckEmptyInput(t *testing.T) {
	for _, s := range []string{"", "   ", "?!."} {
		res := Check(s, "anything")
		assert.False(t, res.Correct, "%q", s)
		assert.Zero(t, res.Similarity, "%q", s)
	}
}

func TestCheckKeywordMatch(t *testing.T) {
	res := Check("the great gatsby", "Gatsby")
	assert.True(t, res.Correct)
	assert.Equal(t, 0.8, res.Similarity)
}

func TestCheckKeywordIgnoresStopWords(t *testing.T) {
	// "the", "of", "what" carry no signal on their own.
	res := Check("the of what", "The Grapes of Wrath")
	assert.False(t, res.Correct)
}

func TestCheckEditDistance(t *testing.T) {
	res := Check("Einstien", "Einstein")
	assert.True(t, res.Correct)
	assert.GreaterOrEqual(t, res.Similarity, 0.8)
}

func TestCheckClearMiss(t *testing.T) {
	res := Check("banana", "photosynthesis")
	assert.False(t, res.Correct)
	assert.Less(t, res.Similarity, 0.5)
	assert.GreaterOrEqual(t, res.Similarity, 0.0)
}

func TestCheckShortReferenceTolerance(t *testing.T) {
	// Tolerance floors at 2 even for short references.
	res := Check("abc", "ab")
	assert.True(t, res.Correct)
}

func TestCheckMultibyteTolerance(t *testing.T) {
	// "чайковский" is 10 runes but 20 bytes; the tolerance must come from
	// the rune count, so three wrong letters miss.
	res := Check("чайковсеая", "чайковский")
	assert.False(t, res.Correct)
	assert.InDelta(t, 0.7, res.Similarity, 0.001)

	// One edit against a 4-rune reference still passes.
	res = Check("cafe", "café")
	assert.True(t, res.Correct)
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Hello,   World!":  "hello world",
		"  spaced  out  ":  "spaced out",
		"O'Brien's":        "obriens",
		"MiXeD CaSe 123":   "mixed case 123",
		"!!!":              "",
		"café au lait": "café au lait",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "%q", in)
	}
}

func TestLevenshteinKnownDistances(t *testing.T) {
	cases := []struct {
		a, b string
		d    int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.d, Levenshtein(c.a, c.b), "%s vs %s", c.a, c.b)
	}
}

func TestLevenshteinSymmetricAndBounded(t *testing.T) {
	pairs := [][2]string{
		{"jeopardy", "geography"},
		{"answer", "question"},
		{"a", "zzzzzz"},
		{"einstein", "einstien"},
	}
	for _, p := range pairs {
		ab := Levenshtein(p[0], p[1])
		ba := Levenshtein(p[1], p[0])
		assert.Equal(t, ab, ba, "symmetry %v", p)

		longest := len(p[0])
		if len(p[1]) > longest {
			longest = len(p[1])
		}
		assert.LessOrEqual(t, ab, longest, "bound %v", p)
	}
}
