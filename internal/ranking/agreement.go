// Package ranking compares and aggregates orderings of experiment
// identifiers: rank correlation and positional agreement between two
// orderings, and Borda-count consensus across many.
package ranking

import (
	"github.com/prompt-bench/promptbench/internal/models"
)

// AgreementResult holds agreement metrics between two orderings.
type AgreementResult struct {
	// KendallTau is the rank correlation over the identifier intersection,
	// in [-1, 1]. 1 means identical relative order, -1 fully reversed.
	KendallTau float64 `json:"kendall_tau"`

	// Top3Overlap is the size of the intersection of the first three
	// elements of each ordering (0-3).
	Top3Overlap int `json:"top_3_overlap"`

	// ExactPositionMatches counts indices holding the same identifier in
	// both orderings.
	ExactPositionMatches int `json:"exact_position_matches"`

	// AgreementPercentage is ExactPositionMatches over the length of the
	// first ordering, times 100.
	AgreementPercentage float64 `json:"agreement_percentage"`

	Changes    []models.RankChange `json:"changes"`
	NumChanges int                 `json:"num_changes"`
}

// CalculateAgreement computes agreement metrics between two orderings. The
// orderings need not be the same length or cover the same identifier set;
// metrics degrade to zero/empty values on insufficient overlap rather than
// failing.
func CalculateAgreement(orderingA, orderingB []string) AgreementResult {
	tau := KendallTau(orderingA, orderingB)

	top3 := intersectionSize(prefix(orderingA, 3), prefix(orderingB, 3))

	exact := 0
	for i, id := range orderingA {
		if i < len(orderingB) && orderingB[i] == id {
			exact++
		}
	}

	pct := 0.0
	if len(orderingA) > 0 {
		pct = float64(exact) / float64(len(orderingA)) * 100
	}

	posB := positionIndex(orderingB)
	var changes []models.RankChange
	for i, id := range orderingA {
		j, ok := posB[id]
		if !ok || i == j {
			continue
		}
		fromRank := i + 1
		toRank := j + 1
		dir := models.DirectionDown
		if toRank < fromRank {
			dir = models.DirectionUp
		}
		mag := toRank - fromRank
		if mag < 0 {
			mag = -mag
		}
		changes = append(changes, models.RankChange{
			ExperimentID: id,
			FromRank:     fromRank,
			ToRank:       toRank,
			Direction:    dir,
			Magnitude:    mag,
		})
	}

	return AgreementResult{
		KendallTau:           tau,
		Top3Overlap:          top3,
		ExactPositionMatches: exact,
		AgreementPercentage:  pct,
		Changes:              changes,
		NumChanges:           len(changes),
	}
}

// KendallTau computes the Kendall Tau rank correlation between two
// orderings, restricted to their identifier intersection. Returns 0.0 when
// fewer than 2 identifiers are shared — no signal, not an error.
func KendallTau(orderingA, orderingB []string) float64 {
	inB := positionIndex(orderingB)

	common := make(map[string]bool)
	for _, id := range orderingA {
		if _, ok := inB[id]; ok {
			common[id] = true
		}
	}
	if len(common) < 2 {
		return 0.0
	}

	// Filter both orderings to common identifiers, preserving order.
	var filteredA []string
	for _, id := range orderingA {
		if common[id] {
			filteredA = append(filteredA, id)
		}
	}
	var filteredB []string
	for _, id := range orderingB {
		if common[id] {
			filteredB = append(filteredB, id)
		}
	}

	posB := positionIndex(filteredB)

	n := len(filteredA)
	concordant, discordant := 0, 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if posB[filteredA[i]] < posB[filteredA[j]] {
				concordant++
			} else {
				discordant++
			}
		}
	}

	totalPairs := n * (n - 1) / 2
	return float64(concordant-discordant) / float64(totalPairs)
}

// positionIndex maps each identifier to its 0-based position.
func positionIndex(ordering []string) map[string]int {
	pos := make(map[string]int, len(ordering))
	for i, id := range ordering {
		pos[id] = i
	}
	return pos
}

func prefix(ordering []string, n int) []string {
	if len(ordering) < n {
		return ordering
	}
	return ordering[:n]
}

func intersectionSize(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	count := 0
	for _, id := range b {
		if set[id] {
			count++
		}
	}
	return count
}
