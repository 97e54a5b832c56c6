package nav

import (
	"strings"

	"eoreview/internal/model"
)

// Merge applies one search checkpoint to history and returns the result.
// Repeated searches are dropped, shortened searches are ignored, extended
// searches rewrite the last checkpoint in place, and anything else is
// appended. Comparisons ignore case. The last element of history may be
// modified in place.
func Merge(history []model.Checkpoint, next model.Checkpoint) []model.Checkpoint {
	if len(history) == 0 {
		return append(history, next)
	}
	prev := &history[len(history)-1]
	ps, ns := strings.ToLower(prev.Search), strings.ToLower(next.Search)
	switch {
	case ps == ns:
	case strings.Contains(ps, ns):
	case strings.Contains(ns, ps):
		prev.Search = next.Search
	default:
		history = append(history, next)
	}
	return history
}
