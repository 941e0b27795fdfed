package matcher

import (
	"go.uber.org/zap"

	"github.com/courier-gateway/app/models"
	"github.com/courier-gateway/internal/normalizer"
)

// MatchResult is the outcome of a single resolution call. It is consumed
// immediately by the orchestrator and never persisted. Score is the raw
// (possibly >1.0) value; when Matched is nil it is the best score seen, kept
// for diagnostics.
type MatchResult struct {
	Matched *models.LocalityCandidate
	Score   float64
	Input   string
}

// Resolver selects the best-scoring candidate for a raw locality string.
type Resolver struct {
	logger *zap.Logger
}

func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve normalizes input once, scores it against every label of every
// candidate (primary name, then alt name -- either can win independently) and
// returns the single best pair. Only strictly greater scores displace the
// current best, so the first-seen candidate wins ties. The result is a match
// only when the best score reaches threshold; a below-threshold best is
// reported with Matched nil so callers can apply their fallback policy.
func (r *Resolver) Resolve(input string, candidates []models.LocalityCandidate, threshold, cutoff float64) MatchResult {
	result := MatchResult{Input: input}

	in := normalizer.Normalize(input)
	if in.Empty() || len(candidates) == 0 {
		r.logResolution(result)
		return result
	}

	var best *models.LocalityCandidate
	bestScore := 0.0

	for i := range candidates {
		for _, label := range candidates[i].Labels() {
			cand := normalizer.Normalize(label)
			if cand.Empty() {
				continue
			}
			score := Score(in, cand, cutoff)
			if score > bestScore {
				bestScore = score
				best = &candidates[i]
			}
		}
	}

	result.Score = bestScore
	if best != nil && bestScore >= threshold {
		result.Matched = best
	}

	r.logResolution(result)
	return result
}

// logResolution emits the diagnostic line used to tune thresholds over time.
// It never affects control flow.
func (r *Resolver) logResolution(res MatchResult) {
	if r.logger == nil {
		return
	}
	matched := "no match"
	if res.Matched != nil {
		matched = res.Matched.Name
	}
	r.logger.Info("locality resolution",
		zap.String("input", res.Input),
		zap.String("matched", matched),
		zap.Float64("score", res.Score))
}
