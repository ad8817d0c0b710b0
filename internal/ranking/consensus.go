package ranking

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/prompt-bench/promptbench/internal/models"
)

// Variability labels how much rankers disagree with each other.
const (
	VariabilityLow    = "low"
	VariabilityMedium = "medium"
	VariabilityHigh   = "high"
)

// ConsensusResult holds a Borda-count consensus over multiple human
// rankings.
type ConsensusResult struct {
	// ConsensusRanking is ordered best to worst by summed Borda points.
	ConsensusRanking []string `json:"consensus_ranking"`

	// ConfidenceScores maps each identifier to its summed Borda points.
	ConfidenceScores map[string]float64 `json:"confidence_scores"`

	NumRankers int `json:"num_rankers"`

	// AIAgreement compares a supplied AI ordering against the consensus.
	AIAgreement *AgreementResult `json:"ai_agreement,omitempty"`

	Variability string `json:"variability"`
}

// CalculateConsensus aggregates multiple human rankings into one consensus
// ordering using a Borda count: each ranker awards n-position points to the
// item at 0-based position, where n is the length of the first ranking's
// ordering. Ties are broken by insertion order of first appearance (stable
// sort) — an explicit, arbitrary policy. Returns nil when rankings is empty.
//
// aiRanking, when non-nil, is compared against the consensus ordering and
// the agreement included in the result.
func CalculateConsensus(rankings []models.HumanRanking, aiRanking []string) *ConsensusResult {
	if len(rankings) == 0 {
		return nil
	}

	n := len(rankings[0].RankedExperimentIDs)

	scores := make(map[string]float64)
	var firstSeen []string
	for _, r := range rankings {
		for position, id := range r.RankedExperimentIDs {
			if _, ok := scores[id]; !ok {
				firstSeen = append(firstSeen, id)
			}
			scores[id] += float64(n - position)
		}
	}

	consensus := make([]string, len(firstSeen))
	copy(consensus, firstSeen)
	sort.SliceStable(consensus, func(i, j int) bool {
		return scores[consensus[i]] > scores[consensus[j]]
	})

	var aiAgreement *AgreementResult
	if len(aiRanking) > 0 {
		agreement := CalculateAgreement(aiRanking, consensus)
		aiAgreement = &agreement
	}

	return &ConsensusResult{
		ConsensusRanking: consensus,
		ConfidenceScores: scores,
		NumRankers:       len(rankings),
		AIAgreement:      aiAgreement,
		Variability:      RankingVariability(rankings),
	}
}

// RankingVariability labels inter-ranker disagreement from the average
// pairwise Kendall Tau: "low" when avg tau >= 0.7, "medium" when >= 0.4,
// "high" otherwise. With fewer than 2 rankings there is no disagreement to
// measure and the label is "low" by convention.
func RankingVariability(rankings []models.HumanRanking) string {
	if len(rankings) < 2 {
		return VariabilityLow
	}

	var taus []float64
	for i := 0; i < len(rankings); i++ {
		for j := i + 1; j < len(rankings); j++ {
			taus = append(taus, KendallTau(
				rankings[i].RankedExperimentIDs,
				rankings[j].RankedExperimentIDs,
			))
		}
	}

	avgTau, err := stats.Mean(taus)
	if err != nil {
		return VariabilityLow
	}

	switch {
	case avgTau >= 0.7:
		return VariabilityLow
	case avgTau >= 0.4:
		return VariabilityMedium
	default:
		return VariabilityHigh
	}
}

// PositionVariance computes the population variance of the rank position at
// which any of the given experiment identifiers first appears across the
// rankings. Lower variance means rankers agree on where those experiments
// belong. Returns 0.0 with fewer than 2 observed positions.
func PositionVariance(rankings []models.HumanRanking, experimentIDs []string) float64 {
	ids := make(map[string]bool, len(experimentIDs))
	for _, id := range experimentIDs {
		ids[id] = true
	}

	var positions []float64
	for _, r := range rankings {
		for pos, id := range r.RankedExperimentIDs {
			if ids[id] {
				positions = append(positions, float64(pos))
				break
			}
		}
	}

	if len(positions) < 2 {
		return 0.0
	}

	variance, err := stats.PopulationVariance(positions)
	if err != nil {
		return 0.0
	}
	return variance
}
