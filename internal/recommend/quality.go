package recommend

import (
	"github.com/montanaflynn/stats"

	"github.com/prompt-bench/promptbench/internal/models"
)

// NeutralScore is returned when no evidence exists for a configuration. It
// signals "unknown", not "average performer".
const NeutralScore = 5.0

// QualityScore derives a 0-10 quality score for one configuration.
//
// Human judgment always overrides AI judgment: if any human ranking exists
// for the prompt, quality comes exclusively from ranking positions and AI
// evaluations are ignored. Each matching experiment's 0-based position p out
// of m ranked items converts to 10*(1-p/m); all such scores are averaged.
// With no human rankings, quality is the mean AI overall score for the
// configuration's experiments. With no evidence at all, NeutralScore.
func QualityScore(configName string, aiEvals []models.AIEvaluation, humanRankings []models.HumanRanking, allExperiments []models.ExperimentResult) float64 {
	configExpIDs := experimentIDsForConfig(configName, allExperiments)

	if len(humanRankings) > 0 {
		var scores []float64
		for _, r := range humanRankings {
			m := len(r.RankedExperimentIDs)
			if m == 0 {
				continue
			}
			for _, expID := range configExpIDs {
				for pos, rankedID := range r.RankedExperimentIDs {
					if rankedID == expID {
						scores = append(scores, 10*(1-float64(pos)/float64(m)))
						break
					}
				}
			}
		}
		if len(scores) == 0 {
			return NeutralScore
		}
		mean, err := stats.Mean(scores)
		if err != nil {
			return NeutralScore
		}
		return mean
	}

	var aiScores []float64
	expSet := make(map[string]bool, len(configExpIDs))
	for _, id := range configExpIDs {
		expSet[id] = true
	}
	for _, e := range aiEvals {
		if expSet[e.ExperimentID] {
			aiScores = append(aiScores, e.OverallScore)
		}
	}
	if len(aiScores) > 0 {
		mean, err := stats.Mean(aiScores)
		if err != nil {
			return NeutralScore
		}
		return mean
	}

	return NeutralScore
}

// experimentIDsForConfig returns the experiment ids belonging to the named
// configuration, in input order.
func experimentIDsForConfig(configName string, experiments []models.ExperimentResult) []string {
	var ids []string
	for _, exp := range experiments {
		if exp.ConfigName == configName {
			ids = append(ids, exp.ExperimentID)
		}
	}
	return ids
}
