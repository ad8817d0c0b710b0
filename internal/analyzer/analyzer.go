// Package analyzer aggregates stored experiment results and AI evaluations
// into per-configuration performance statistics.
package analyzer

import (
	"context"
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/prompt-bench/promptbench/internal/models"
	"github.com/prompt-bench/promptbench/internal/statistics"
)

// maxConcurrentPrompts bounds the fan-out when analyzing every prompt.
const maxConcurrentPrompts = 4

// ConfigStats summarizes all experiments of one configuration for a prompt.
type ConfigStats struct {
	ConfigName     string `json:"config_name"`
	NumExperiments int    `json:"num_experiments"`
	NumEvaluations int    `json:"num_evaluations"`

	AvgScore    float64                   `json:"avg_score"`
	ScoreCI     *statistics.ScoreInterval `json:"score_ci,omitempty"`
	AvgDuration float64                   `json:"avg_duration_seconds"`
	AvgTokens   float64                   `json:"avg_total_tokens"`

	// AvgCostUSD is nil when no experiment carried a cost estimate.
	AvgCostUSD *float64 `json:"avg_cost_usd,omitempty"`
}

// PromptAnalysis is the full per-configuration breakdown for one prompt.
type PromptAnalysis struct {
	PromptName string        `json:"prompt_name"`
	Configs    []ConfigStats `json:"configs"`

	BestByScore    string `json:"best_by_score,omitempty"`
	BestByDuration string `json:"best_by_duration,omitempty"`
	BestByCost     string `json:"best_by_cost,omitempty"`
}

// Store is the read surface the analyzer needs.
type Store interface {
	ListPrompts(ctx context.Context) ([]string, error)
	GetSuccessfulExperiments(ctx context.Context, promptName string) ([]models.ExperimentResult, error)
	GetAIEvaluations(ctx context.Context, promptName string) ([]models.AIEvaluation, error)
}

// Analyzer computes per-prompt configuration statistics.
type Analyzer struct {
	store Store
}

func New(store Store) *Analyzer {
	return &Analyzer{store: store}
}

// AnalyzePrompt builds configuration statistics for one prompt. Returns an
// analysis with no configs when the prompt has no successful experiments.
func (a *Analyzer) AnalyzePrompt(ctx context.Context, promptName string) (*PromptAnalysis, error) {
	experiments, err := a.store.GetSuccessfulExperiments(ctx, promptName)
	if err != nil {
		return nil, fmt.Errorf("loading experiments for %q: %w", promptName, err)
	}
	evals, err := a.store.GetAIEvaluations(ctx, promptName)
	if err != nil {
		return nil, fmt.Errorf("loading evaluations for %q: %w", promptName, err)
	}

	scoreByExperiment := make(map[string][]float64)
	for _, e := range evals {
		scoreByExperiment[e.ExperimentID] = append(scoreByExperiment[e.ExperimentID], e.OverallScore)
	}

	type accumulator struct {
		durations []float64
		tokens    []float64
		costs     []float64
		scores    []float64
	}
	byConfig := make(map[string]*accumulator)
	var configOrder []string

	for _, exp := range experiments {
		acc, ok := byConfig[exp.ConfigName]
		if !ok {
			acc = &accumulator{}
			byConfig[exp.ConfigName] = acc
			configOrder = append(configOrder, exp.ConfigName)
		}
		acc.durations = append(acc.durations, exp.DurationSeconds)
		acc.tokens = append(acc.tokens, float64(exp.TotalTokens))
		if exp.EstimatedCostUSD != nil {
			acc.costs = append(acc.costs, *exp.EstimatedCostUSD)
		}
		acc.scores = append(acc.scores, scoreByExperiment[exp.ExperimentID]...)
	}

	analysis := &PromptAnalysis{PromptName: promptName}
	for _, name := range configOrder {
		acc := byConfig[name]
		cs := ConfigStats{
			ConfigName:     name,
			NumExperiments: len(acc.durations),
			NumEvaluations: len(acc.scores),
		}
		cs.AvgDuration, _ = stats.Mean(acc.durations)
		cs.AvgTokens, _ = stats.Mean(acc.tokens)
		if len(acc.costs) > 0 {
			avg, _ := stats.Mean(acc.costs)
			cs.AvgCostUSD = &avg
		}
		if len(acc.scores) > 0 {
			cs.AvgScore, _ = stats.Mean(acc.scores)
			ci := statistics.ScoreCI(acc.scores, 0.95)
			cs.ScoreCI = &ci
		}
		analysis.Configs = append(analysis.Configs, cs)
	}

	analysis.BestByScore = bestConfig(analysis.Configs, func(c ConfigStats) (float64, bool) {
		return c.AvgScore, c.NumEvaluations > 0
	}, true)
	analysis.BestByDuration = bestConfig(analysis.Configs, func(c ConfigStats) (float64, bool) {
		return c.AvgDuration, c.NumExperiments > 0
	}, false)
	analysis.BestByCost = bestConfig(analysis.Configs, func(c ConfigStats) (float64, bool) {
		if c.AvgCostUSD == nil {
			return 0, false
		}
		return *c.AvgCostUSD, true
	}, false)

	return analysis, nil
}

// AnalyzeAllPrompts runs AnalyzePrompt for every stored prompt with bounded
// concurrency. Results come back keyed by prompt name.
func (a *Analyzer) AnalyzeAllPrompts(ctx context.Context) (map[string]*PromptAnalysis, error) {
	prompts, err := a.store.ListPrompts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing prompts: %w", err)
	}

	results := make([]*PromptAnalysis, len(prompts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPrompts)

	for i, prompt := range prompts {
		g.Go(func() error {
			analysis, err := a.AnalyzePrompt(gctx, prompt)
			if err != nil {
				return err
			}
			results[i] = analysis
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*PromptAnalysis, len(results))
	for _, analysis := range results {
		out[analysis.PromptName] = analysis
	}
	return out, nil
}

// OverallRankings orders configurations across all prompts by their average
// judge score, highest first. Configurations without any evaluation sort
// last, by name for stability.
func OverallRankings(analyses map[string]*PromptAnalysis) []ConfigStats {
	type rollup struct {
		scores    []float64
		durations []float64
		tokens    []float64
		costs     []float64
		numExp    int
		numEval   int
	}
	byConfig := make(map[string]*rollup)
	var order []string

	// Deterministic accumulation order across the map of analyses.
	var promptNames []string
	for name := range analyses {
		promptNames = append(promptNames, name)
	}
	sort.Strings(promptNames)

	for _, promptName := range promptNames {
		for _, cs := range analyses[promptName].Configs {
			r, ok := byConfig[cs.ConfigName]
			if !ok {
				r = &rollup{}
				byConfig[cs.ConfigName] = r
				order = append(order, cs.ConfigName)
			}
			if cs.NumEvaluations > 0 {
				r.scores = append(r.scores, cs.AvgScore)
			}
			r.durations = append(r.durations, cs.AvgDuration)
			r.tokens = append(r.tokens, cs.AvgTokens)
			if cs.AvgCostUSD != nil {
				r.costs = append(r.costs, *cs.AvgCostUSD)
			}
			r.numExp += cs.NumExperiments
			r.numEval += cs.NumEvaluations
		}
	}

	ranked := make([]ConfigStats, 0, len(order))
	for _, name := range order {
		r := byConfig[name]
		cs := ConfigStats{
			ConfigName:     name,
			NumExperiments: r.numExp,
			NumEvaluations: r.numEval,
		}
		cs.AvgScore, _ = stats.Mean(r.scores)
		cs.AvgDuration, _ = stats.Mean(r.durations)
		cs.AvgTokens, _ = stats.Mean(r.tokens)
		if len(r.costs) > 0 {
			avg, _ := stats.Mean(r.costs)
			cs.AvgCostUSD = &avg
		}
		ranked = append(ranked, cs)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		iScored, jScored := ranked[i].NumEvaluations > 0, ranked[j].NumEvaluations > 0
		if iScored != jScored {
			return iScored
		}
		if !iScored {
			return ranked[i].ConfigName < ranked[j].ConfigName
		}
		return ranked[i].AvgScore > ranked[j].AvgScore
	})
	return ranked
}

// bestConfig returns the config name with the extreme value among eligible
// configs; higher picks the maximum, otherwise the minimum.
func bestConfig(configs []ConfigStats, value func(ConfigStats) (float64, bool), higher bool) string {
	best := ""
	var bestVal float64
	for _, c := range configs {
		v, ok := value(c)
		if !ok {
			continue
		}
		if best == "" || (higher && v > bestVal) || (!higher && v < bestVal) {
			best = c.ConfigName
			bestVal = v
		}
	}
	return best
}
