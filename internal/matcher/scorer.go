package matcher

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/courier-gateway/internal/normalizer"
)

// Close-match cutoffs observed per caller: city matching filters candidate
// tokens tightly, district matching barely filters at all. Both feed the same
// averaged-ratio formula below.
const (
	CityCutoff     = 0.4
	DistrictCutoff = 0.1
)

// FirstLetterBonus is multiplied into the score when input and candidate
// share a first character. It is intentionally not capped: scores above 1.0
// are meaningful to threshold comparisons and must not be clamped here.
const FirstLetterBonus = 1.15

// ratio is the Ratcliff/Obershelp similarity of two tokens, computed over
// rune sequences.
func ratio(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// closestToken finds the candidate token most similar to tok, ignoring
// anything below cutoff. Ties on equal ratio keep the earlier token.
func closestToken(tok string, candidates []string, cutoff float64) (string, float64, bool) {
	best := ""
	bestRatio := 0.0
	found := false
	for _, c := range candidates {
		r := ratio(tok, c)
		if r < cutoff {
			continue
		}
		if !found || r > bestRatio {
			best = c
			bestRatio = r
			found = true
		}
	}
	return best, bestRatio, found
}

// Score computes the confidence that input names the same locality as
// candidate. Each input token contributes the similarity of its best
// fuzzy-matched candidate token (or zero when none clears cutoff); the sum is
// divided by the number of input tokens, not candidate tokens, so an input
// that is a subset of a longer official name still scores well. A shared
// first character multiplies the result by FirstLetterBonus, which can push
// it past 1.0.
func Score(input, candidate normalizer.NormalizedText, cutoff float64) float64 {
	if input.Empty() || candidate.Empty() {
		return 0
	}

	total := 0.0
	for _, tok := range input.Tokens {
		if _, r, ok := closestToken(tok, candidate.Tokens, cutoff); ok {
			total += r
		}
	}

	score := total / float64(len(input.Tokens))

	if input.FirstRune() == candidate.FirstRune() {
		score *= FirstLetterBonus
	}

	return score
}
