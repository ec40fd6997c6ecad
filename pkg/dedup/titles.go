package dedup

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// stopPhrases are marketing filler that carries no identity: "Easy Chicken
// Bowl Recipe" and "Chicken Bowl" are the same dish. Multi-word phrases are
// matched as token sequences so removal is idempotent.
var stopPhrases = [][]string{
	{"how", "to", "make"},
	{"the", "best"},
	{"recipe"},
	{"easy"},
	{"quick"},
	{"my"},
	{"homemade"},
}

// NormalizeTitle lowercases, strips punctuation and stop phrases, and
// collapses whitespace. It is idempotent.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	tokens := strings.Fields(b.String())
	var kept []string
	for i := 0; i < len(tokens); {
		if n := matchPhrase(tokens[i:]); n > 0 {
			i += n
			continue
		}
		kept = append(kept, tokens[i])
		i++
	}
	return strings.Join(kept, " ")
}

// matchPhrase returns the length of the stop phrase starting at tokens[0],
// or 0 if none matches.
func matchPhrase(tokens []string) int {
	for _, phrase := range stopPhrases {
		if len(phrase) > len(tokens) {
			continue
		}
		match := true
		for i, w := range phrase {
			if tokens[i] != w {
				match = false
				break
			}
		}
		if match {
			return len(phrase)
		}
	}
	return 0
}

// TitleSimilarity computes a normalized edit-distance ratio in [0,1] over
// normalized titles: 1.0 for identical, 0.0 when either side normalizes to
// empty.
func TitleSimilarity(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}

	dist := levenshtein.ComputeDistance(na, nb)
	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}
	return 1.0 - float64(dist)/float64(longest)
}
