// Package recommend scores benchmark configurations and selects the best
// one per prompt by combining quality, speed, and cost under a weighted
// scheme. The computation is pure: every call reads a point-in-time snapshot
// from the store and returns a new, independent result.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prompt-bench/promptbench/internal/models"
	"github.com/prompt-bench/promptbench/internal/ranking"
)

// ErrNoExperiments is returned when a prompt has no successful experiments.
// It is the only fatal condition; all other missing evidence degrades to
// neutral scores.
var ErrNoExperiments = errors.New("no successful experiments found")

// ResultStore is the read surface the engine consumes. Implementations
// return point-in-time snapshots; the engine never writes.
type ResultStore interface {
	// GetSuccessfulExperiments returns all successful experiments for the
	// prompt.
	GetSuccessfulExperiments(ctx context.Context, promptName string) ([]models.ExperimentResult, error)
	// GetAIEvaluations returns AI evaluations for the prompt, aggregated
	// across all batches.
	GetAIEvaluations(ctx context.Context, promptName string) ([]models.AIEvaluation, error)
	// GetHumanRankings returns all human rankings for the prompt.
	GetHumanRankings(ctx context.Context, promptName string) ([]models.HumanRanking, error)
	// GetWeights returns the stored weights for the prompt, or nil when
	// none exist.
	GetWeights(ctx context.Context, promptName string) (*models.RankingWeights, error)
}

// Engine computes configuration recommendations from stored evidence.
type Engine struct {
	store ResultStore
}

// NewEngine creates an Engine reading from the given store.
func NewEngine(store ResultStore) *Engine {
	return &Engine{store: store}
}

// configScore holds the weighted component scores for one configuration.
type configScore struct {
	final   float64
	quality float64
	speed   float64
	cost    float64
}

// Recommend computes the best-configuration recommendation for a prompt.
// Weight resolution order: the supplied weights, then stored weights for the
// prompt, then the default 60/30/10 split. Returns ErrNoExperiments when the
// prompt has no successful experiments.
func (e *Engine) Recommend(ctx context.Context, promptName string, weights *models.RankingWeights) (*models.Recommendation, error) {
	w, err := e.resolveWeights(ctx, promptName, weights)
	if err != nil {
		return nil, err
	}

	experiments, err := e.store.GetSuccessfulExperiments(ctx, promptName)
	if err != nil {
		return nil, fmt.Errorf("loading experiments: %w", err)
	}
	if len(experiments) == 0 {
		return nil, fmt.Errorf("%w for prompt %q", ErrNoExperiments, promptName)
	}

	aiEvals, err := e.store.GetAIEvaluations(ctx, promptName)
	if err != nil {
		return nil, fmt.Errorf("loading AI evaluations: %w", err)
	}
	humanRankings, err := e.store.GetHumanRankings(ctx, promptName)
	if err != nil {
		return nil, fmt.Errorf("loading human rankings: %w", err)
	}

	// Group experiments by configuration, preserving first-appearance
	// order so tie-breaks are deterministic.
	groups := make(map[string][]models.ExperimentResult)
	var configOrder []string
	for _, exp := range experiments {
		if _, ok := groups[exp.ConfigName]; !ok {
			configOrder = append(configOrder, exp.ConfigName)
		}
		groups[exp.ConfigName] = append(groups[exp.ConfigName], exp)
	}

	maxDuration, maxCost := extremes(experiments)

	scores := make(map[string]configScore, len(groups))
	for _, configName := range configOrder {
		exps := groups[configName]

		quality := QualityScore(configName, aiEvals, humanRankings, experiments)
		speed := speedScore(exps, maxDuration)
		cost := costScore(exps, maxCost)

		scores[configName] = configScore{
			final:   quality*w.Quality + speed*w.Speed + cost*w.Cost,
			quality: quality,
			speed:   speed,
			cost:    cost,
		}
	}

	// Sort by final score descending; stable so earlier configurations win
	// ties.
	ordered := make([]string, len(configOrder))
	copy(ordered, configOrder)
	sort.SliceStable(ordered, func(i, j int) bool {
		return scores[ordered[i]].final > scores[ordered[j]].final
	})

	best := ordered[0]
	bestScore := scores[best]

	runnerUp := ""
	scoreDiff := 0.0
	if len(ordered) > 1 {
		runnerUp = ordered[1]
		scoreDiff = bestScore.final - scores[runnerUp].final
	}

	confidence, factors := Confidence(best, aiEvals, humanRankings, experiments)

	var consensusAgreement *float64
	if len(humanRankings) >= 2 {
		consensusAgreement = consensusPosition(best, humanRankings, experiments)
	}

	return &models.Recommendation{
		PromptName:         promptName,
		RecommendedConfig:  best,
		FinalScore:         bestScore.final,
		QualityScore:       bestScore.quality,
		SpeedScore:         bestScore.speed,
		CostScore:          bestScore.cost,
		Confidence:         confidence,
		ConfidenceFactors:  factors,
		NumAIEvaluations:   len(aiEvals),
		NumHumanRankings:   len(humanRankings),
		ConsensusAgreement: consensusAgreement,
		Reasoning:          buildReasoning(best, bestScore, groups[best], humanRankings),
		RunnerUpConfig:     runnerUp,
		ScoreDifference:    scoreDiff,
		GeneratedAt:        time.Now().UTC(),
	}, nil
}

func (e *Engine) resolveWeights(ctx context.Context, promptName string, supplied *models.RankingWeights) (models.RankingWeights, error) {
	if supplied != nil {
		if err := supplied.Validate(); err != nil {
			return models.RankingWeights{}, err
		}
		return *supplied, nil
	}

	stored, err := e.store.GetWeights(ctx, promptName)
	if err != nil {
		return models.RankingWeights{}, fmt.Errorf("loading weights: %w", err)
	}
	if stored != nil {
		return *stored, nil
	}
	return models.DefaultWeights(promptName), nil
}

// extremes returns the maximum duration across all experiments and the
// maximum cost across experiments carrying a cost figure.
func extremes(experiments []models.ExperimentResult) (maxDuration, maxCost float64) {
	for _, exp := range experiments {
		if exp.DurationSeconds > maxDuration {
			maxDuration = exp.DurationSeconds
		}
		if exp.EstimatedCostUSD != nil && *exp.EstimatedCostUSD > maxCost {
			maxCost = *exp.EstimatedCostUSD
		}
	}
	return maxDuration, maxCost
}

// speedScore normalizes average duration against the slowest configuration:
// faster is better. Neutral when there is no duration spread to compare.
func speedScore(exps []models.ExperimentResult, maxDuration float64) float64 {
	if maxDuration <= 0 {
		return NeutralScore
	}
	total := 0.0
	for _, exp := range exps {
		total += exp.DurationSeconds
	}
	avg := total / float64(len(exps))
	return 10 * (1 - avg/maxDuration)
}

// costScore normalizes average cost against the most expensive
// configuration: cheaper is better. Neutral when this configuration has no
// cost data or no cost data exists at all.
func costScore(exps []models.ExperimentResult, maxCost float64) float64 {
	var costs []float64
	for _, exp := range exps {
		if exp.EstimatedCostUSD != nil {
			costs = append(costs, *exp.EstimatedCostUSD)
		}
	}
	if len(costs) == 0 || maxCost <= 0 {
		return NeutralScore
	}
	total := 0.0
	for _, c := range costs {
		total += c
	}
	avg := total / float64(len(costs))
	return 10 * (1 - avg/maxCost)
}

// consensusPosition locates the recommended configuration's experiments in
// the Borda consensus and normalizes the position to [0,1], 1 meaning top.
// Returns nil when none of its experiments appear in the consensus.
func consensusPosition(configName string, humanRankings []models.HumanRanking, experiments []models.ExperimentResult) *float64 {
	consensus := ranking.CalculateConsensus(humanRankings, nil)
	if consensus == nil || len(consensus.ConsensusRanking) == 0 {
		return nil
	}

	ids := make(map[string]bool)
	for _, id := range experimentIDsForConfig(configName, experiments) {
		ids[id] = true
	}

	for pos, id := range consensus.ConsensusRanking {
		if ids[id] {
			agreement := 1.0 - float64(pos)/float64(len(consensus.ConsensusRanking))
			return &agreement
		}
	}
	return nil
}

// buildReasoning produces the human-readable explanation. Purely
// descriptive; never used for selection.
func buildReasoning(configName string, score configScore, exps []models.ExperimentResult, humanRankings []models.HumanRanking) string {
	totalDuration := 0.0
	var costs []float64
	for _, exp := range exps {
		totalDuration += exp.DurationSeconds
		if exp.EstimatedCostUSD != nil {
			costs = append(costs, *exp.EstimatedCostUSD)
		}
	}
	avgDuration := totalDuration / float64(len(exps))
	avgCost := 0.0
	if len(costs) > 0 {
		total := 0.0
		for _, c := range costs {
			total += c
		}
		avgCost = total / float64(len(costs))
	}

	tier := "a strong"
	if score.quality >= 8 {
		tier = "the highest"
	}

	parts := []string{
		fmt.Sprintf("%s achieved %s quality score (%.1f/10)", configName, tier, score.quality),
	}

	if n := len(humanRankings); n > 0 {
		plural := ""
		if n > 1 {
			plural = "s"
		}
		parts = append(parts, fmt.Sprintf("and was ranked highly by %d human evaluator%s", n, plural))
	}

	parts = append(parts, fmt.Sprintf("It offers balanced performance with %.1fs duration", avgDuration))

	if avgCost > 0 {
		parts = append(parts, fmt.Sprintf("and $%.4f cost", avgCost))
	}

	return strings.Join(parts, ". ") + "."
}
