package judge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prompt-bench/promptbench/internal/models"
)

func TestParseVerdict_FencedJSON(t *testing.T) {
	content := "Here is my assessment:\n```json\n" +
		`{"rankings": [{"config_name": "fast", "rank": 1, "overall_score": 8.5}], "summary": "fast wins"}` +
		"\n```\nLet me know if you need more detail."

	verdict, err := parseVerdict(content)
	require.NoError(t, err)
	require.Len(t, verdict.Rankings, 1)
	require.Equal(t, "fast", verdict.Rankings[0].ConfigName)
	require.Equal(t, 1, verdict.Rankings[0].Rank)
	require.InDelta(t, 8.5, verdict.Rankings[0].OverallScore, 1e-9)
	require.Equal(t, "fast wins", verdict.Summary)
}

func TestParseVerdict_UnlabeledFence(t *testing.T) {
	content := "```\n" +
		`{"rankings": [{"config_name": "a", "rank": 1}]}` +
		"\n```"

	verdict, err := parseVerdict(content)
	require.NoError(t, err)
	require.Len(t, verdict.Rankings, 1)
}

func TestParseVerdict_BareJSON(t *testing.T) {
	content := `The verdict is {"rankings": [{"config_name": "smart", "rank": 1, "criteria_scores": {"accuracy": 9.0}}]}.`

	verdict, err := parseVerdict(content)
	require.NoError(t, err)
	require.InDelta(t, 9.0, verdict.Rankings[0].CriteriaScores["accuracy"], 1e-9)
}

func TestParseVerdict_NoJSON(t *testing.T) {
	_, err := parseVerdict("I cannot rank these responses.")
	require.Error(t, err)
}

func TestParseVerdict_EmptyRankings(t *testing.T) {
	_, err := parseVerdict(`{"rankings": [], "summary": "nothing to rank"}`)
	require.Error(t, err)
}

func TestParseVerdict_MalformedJSON(t *testing.T) {
	_, err := parseVerdict("```json\n{\"rankings\": [{\"config_name\": }]}\n```")
	require.Error(t, err)
}

func testExperiments(names ...string) []models.ExperimentResult {
	exps := make([]models.ExperimentResult, 0, len(names))
	for i, name := range names {
		exps = append(exps, models.ExperimentResult{
			ExperimentID: "e" + string(rune('1'+i)),
			ConfigName:   name,
		})
	}
	return exps
}

func TestMatchExperiment(t *testing.T) {
	exps := testExperiments("gpt-4o-mini", "claude-fast", "GPT-4o")

	tests := []struct {
		name   string
		query  string
		wantID string
	}{
		{"exact", "gpt-4o-mini", "e1"},
		{"case insensitive", "CLAUDE-FAST", "e2"},
		{"exact beats case-folded prefix", "GPT-4o", "e3"},
		{"judge paraphrase contains config", "the claude-fast configuration", "e2"},
		{"config contains judge shorthand", "4o-mini", "e1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchExperiment(tt.query, exps)
			require.NotNil(t, got)
			require.Equal(t, tt.wantID, got.ExperimentID)
		})
	}

	require.Nil(t, matchExperiment("unrelated-model", exps))
}

func TestBuildComparativePrompt_Default(t *testing.T) {
	exps := []models.ExperimentResult{
		{ConfigName: "fast", RenderedPrompt: "Summarize this article.", Response: "Short summary."},
		{ConfigName: "smart", RenderedPrompt: "Summarize this article.", Response: "Long summary."},
	}

	prompt := buildComparativePrompt(exps, nil)
	require.Contains(t, prompt, "Summarize this article.")
	require.Contains(t, prompt, "### Configuration: fast")
	require.Contains(t, prompt, "### Configuration: smart")
	require.Contains(t, prompt, "2 configurations")
	require.Contains(t, prompt, `"rankings"`)
}

func TestBuildComparativePrompt_Template(t *testing.T) {
	exps := []models.ExperimentResult{
		{ConfigName: "fast", RenderedPrompt: "Classify this.", Response: "Category A."},
	}
	rp := &models.ReviewPrompt{
		PromptID: "rp-1",
		Template: "Prompt was: {original_prompt}\nThere are {num_configs} configs.\n{all_responses}\nRank them as JSON.",
	}

	prompt := buildComparativePrompt(exps, rp)
	require.Contains(t, prompt, "Prompt was: Classify this.")
	require.Contains(t, prompt, "There are 1 configs.")
	require.Contains(t, prompt, "Category A.")
	require.False(t, strings.Contains(prompt, "{original_prompt}"))
}
