package recommend

import (
	"fmt"

	"github.com/prompt-bench/promptbench/internal/models"
	"github.com/prompt-bench/promptbench/internal/ranking"
)

// Confidence derives a confidence label and the factors behind it from the
// amount and agreement of available evidence. The score is an additive
// evidence-weight heuristic, not a probability:
//
//	+1  any AI evaluation exists
//	+2  any human ranking exists
//	+1  >=2 human rankings and the configuration's position variance < 1.0
//	+1  both kinds of evidence and the configuration sits in the human
//	    consensus top 2
//
// Score >= 4 is HIGH, >= 2 MEDIUM, else LOW.
func Confidence(configName string, aiEvals []models.AIEvaluation, humanRankings []models.HumanRanking, allExperiments []models.ExperimentResult) (models.ConfidenceLevel, []string) {
	var factors []string
	score := 0

	if len(aiEvals) > 0 {
		score++
		factors = append(factors, "AI evaluation available")
	}

	configExpIDs := experimentIDsForConfig(configName, allExperiments)

	if len(humanRankings) > 0 {
		score += 2
		factors = append(factors, fmt.Sprintf("%d human ranking(s)", len(humanRankings)))

		if len(humanRankings) >= 2 {
			variance := ranking.PositionVariance(humanRankings, configExpIDs)
			if variance < 1.0 {
				score++
				factors = append(factors, "High human agreement")
			} else {
				factors = append(factors, "Some human disagreement")
			}
		}
	}

	if len(aiEvals) > 0 && len(humanRankings) > 0 {
		if consensus := ranking.CalculateConsensus(humanRankings, nil); consensus != nil {
			if inTopTwo(configExpIDs, consensus.ConsensusRanking) {
				score++
				factors = append(factors, "Humans confirm AI ranking")
			}
		}
	}

	switch {
	case score >= 4:
		return models.ConfidenceHigh, factors
	case score >= 2:
		return models.ConfidenceMedium, factors
	default:
		if len(humanRankings) == 0 {
			factors = append(factors, "No human rankings yet")
		}
		return models.ConfidenceLow, factors
	}
}

// inTopTwo reports whether any of the given experiment ids occupies one of
// the first two consensus positions.
func inTopTwo(experimentIDs []string, consensusRanking []string) bool {
	top := consensusRanking
	if len(top) > 2 {
		top = top[:2]
	}
	for _, id := range experimentIDs {
		for _, topID := range top {
			if id == topID {
				return true
			}
		}
	}
	return false
}
