package matcher

import (
	"sort"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"

	"github.com/courier-gateway/app/models"
	"github.com/courier-gateway/internal/normalizer"
)

// CandidateDiagnostic reports how one candidate label scored against an
// input, together with two auxiliary metrics operators use to sanity-check
// threshold changes before rolling them out.
type CandidateDiagnostic struct {
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	Score       float64 `json:"score"`
	JaroWinkler float64 `json:"jaro_winkler"`
	Levenshtein int     `json:"levenshtein"`
}

// DisplayScore clamps the raw score to 1.0 for presentation. The raw value
// stays available in Score.
func (d CandidateDiagnostic) DisplayScore() float64 {
	if d.Score > 1 {
		return 1
	}
	return d.Score
}

// Diagnose scores input against every label of every candidate and returns
// all results sorted by score descending. Unlike Resolve it applies no
// threshold; it exists for the admin match-preview endpoint.
func (r *Resolver) Diagnose(input string, candidates []models.LocalityCandidate, cutoff float64) []CandidateDiagnostic {
	in := normalizer.Normalize(input)
	out := make([]CandidateDiagnostic, 0, len(candidates))
	if in.Empty() {
		return out
	}

	for _, c := range candidates {
		for _, label := range c.Labels() {
			cand := normalizer.Normalize(label)
			if cand.Empty() {
				continue
			}
			out = append(out, CandidateDiagnostic{
				Name:        c.Name,
				Label:       label,
				Score:       Score(in, cand, cutoff),
				JaroWinkler: smetrics.JaroWinkler(in.Text, cand.Text, 0.7, 4),
				Levenshtein: levenshtein.ComputeDistance(in.Text, cand.Text),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
