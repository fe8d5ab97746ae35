package query

import (
	"slices"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/intent"
)

const maxSuggestions = 3

// Suggestions proposes follow-up questions for a successful answer with
// data. It returns an empty list otherwise.
func Suggestions(q intent.ParsedQuery, result *argo.Result) []string {
	if result.Empty() {
		return []string{}
	}

	out := []string{
		"Show me the trajectory of these floats",
		"Compare these profiles with data from other regions",
	}

	switch {
	case slices.Contains(q.Parameters, argo.Temperature):
		out = append(out, "Show me salinity profiles for the same region")
	case slices.Contains(q.Parameters, argo.Salinity):
		out = append(out, "Show me temperature profiles for the same region")
	}

	out = append(out,
		"Show me data from a different time period",
		"Compare with data from the same season last year",
	)

	return out[:maxSuggestions]
}
