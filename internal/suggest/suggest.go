// Package suggest implements the "did you mean" nearest-match helper
// shared by command_not_found and workflow-not-found errors (spec.md §7),
// factored out of registry.Catalog's own lookup so the workflow bundle
// lookup can raise the same quality of error without duplicating the
// distance scan.
package suggest

import "github.com/agext/levenshtein"

// DefaultThreshold is the maximum edit distance considered a plausible
// typo rather than an unrelated id.
const DefaultThreshold = 3

// Nearest returns the known id closest to id under Levenshtein distance,
// or "" if nothing is within threshold. known is scanned in whatever
// order the caller provides it; ties keep the first-seen candidate.
func Nearest(id string, known []string, threshold int) string {
	best := ""
	bestDist := threshold + 1
	for _, candidate := range known {
		d := levenshtein.Distance(id, candidate, nil)
		if d < bestDist {
			bestDist = d
			best = candidate
		}
	}
	if bestDist > threshold {
		return ""
	}
	return best
}
