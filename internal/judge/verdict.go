package judge

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/prompt-bench/promptbench/internal/models"
)

const defaultSystemPrompt = "You are an expert evaluator comparing LLM outputs. " +
	"Provide objective, detailed assessments and respond only with JSON."

// rankedEntry is one configuration's verdict within a batch.
type rankedEntry struct {
	ConfigName     string             `json:"config_name"`
	Rank           int                `json:"rank"`
	OverallScore   float64            `json:"overall_score"`
	CriteriaScores map[string]float64 `json:"criteria_scores"`
	Justification  string             `json:"justification"`
	Strengths      []string           `json:"strengths"`
	Weaknesses     []string           `json:"weaknesses"`
}

// batchVerdict is the judge's full response for one batch.
type batchVerdict struct {
	Rankings []rankedEntry `json:"rankings"`
	Summary  string        `json:"summary"`
}

// buildComparativePrompt renders the evaluation prompt covering every
// configuration's response. When a review prompt template is supplied its
// {original_prompt}, {num_configs}, and {all_responses} variables are
// substituted; otherwise a built-in comparative template is used.
func buildComparativePrompt(experiments []models.ExperimentResult, reviewPrompt *models.ReviewPrompt) string {
	var responses strings.Builder
	for i, exp := range experiments {
		fmt.Fprintf(&responses, "### Configuration: %s\n\n%s\n", exp.ConfigName, exp.Response)
		if i < len(experiments)-1 {
			responses.WriteString("\n---\n\n")
		}
	}

	originalPrompt := ""
	if len(experiments) > 0 {
		originalPrompt = experiments[0].RenderedPrompt
	}

	if reviewPrompt != nil && reviewPrompt.Template != "" {
		r := strings.NewReplacer(
			"{original_prompt}", originalPrompt,
			"{num_configs}", fmt.Sprintf("%d", len(experiments)),
			"{all_responses}", responses.String(),
		)
		return r.Replace(reviewPrompt.Template)
	}

	var b strings.Builder
	b.WriteString("Compare the following LLM responses to the same prompt and rank them from best to worst.\n\n")
	b.WriteString("**Original Prompt:**\n")
	b.WriteString(originalPrompt)
	fmt.Fprintf(&b, "\n\n**Responses (%d configurations):**\n\n", len(experiments))
	b.WriteString(responses.String())
	b.WriteString(`

Return your verdict as JSON:

` + "```json" + `
{
  "rankings": [
    {
      "config_name": "<configuration name>",
      "rank": <1 = best>,
      "overall_score": <0-10>,
      "criteria_scores": {"accuracy": <0-10>, "relevance": <0-10>, "coherence": <0-10>, "completeness": <0-10>},
      "justification": "<why this rank>",
      "strengths": ["<strength>"],
      "weaknesses": ["<weakness>"]
    }
  ],
  "summary": "<one paragraph comparing the responses>"
}
` + "```" + `

Every configuration must appear exactly once in rankings.`)
	return b.String()
}

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	bareJSON   = regexp.MustCompile(`(?s)\{.*\}`)
)

// parseVerdict extracts the JSON verdict from the judge's response, which
// may wrap it in a markdown code fence or surround it with prose.
func parseVerdict(content string) (*batchVerdict, error) {
	text := ""
	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		text = m[1]
	} else if m := bareJSON.FindString(content); m != "" {
		text = m
	} else {
		return nil, fmt.Errorf("no JSON object in judge response")
	}

	var verdict batchVerdict
	if err := json.Unmarshal([]byte(text), &verdict); err != nil {
		return nil, fmt.Errorf("parsing judge verdict: %w", err)
	}
	if len(verdict.Rankings) == 0 {
		return nil, fmt.Errorf("judge verdict contains no rankings")
	}
	return &verdict, nil
}

// matchExperiment resolves a config name from the verdict against the
// batch's experiments: exact match first, then case-insensitive, then
// substring in either direction. Judges occasionally paraphrase names.
func matchExperiment(configName string, experiments []models.ExperimentResult) *models.ExperimentResult {
	for i := range experiments {
		if experiments[i].ConfigName == configName {
			return &experiments[i]
		}
	}
	lower := strings.ToLower(configName)
	for i := range experiments {
		if strings.ToLower(experiments[i].ConfigName) == lower {
			return &experiments[i]
		}
	}
	for i := range experiments {
		cand := strings.ToLower(experiments[i].ConfigName)
		if strings.Contains(cand, lower) || strings.Contains(lower, cand) {
			return &experiments[i]
		}
	}
	return nil
}
