package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupProject points the CLI at a temp project with its own database.
func setupProject(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	cfg := "storage:\n  database_path: " + filepath.Join(dir, "results.db") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".promptbench.yaml"), []byte(cfg), 0o644))
	t.Chdir(dir)
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestWeightsCommand_SetAndShow(t *testing.T) {
	setupProject(t)

	out, err := runCommand(t, "weights", "summarize", "--quality", "0.5", "--speed", "0.3", "--cost", "0.2")
	require.NoError(t, err)
	require.Contains(t, out, "quality=0.50")

	out, err = runCommand(t, "weights", "summarize")
	require.NoError(t, err)
	require.Contains(t, out, "quality=0.50 speed=0.30 cost=0.20")
}

func TestWeightsCommand_InvalidSum(t *testing.T) {
	setupProject(t)

	_, err := runCommand(t, "weights", "summarize", "--quality", "0.9", "--speed", "0.9", "--cost", "0.9")
	require.Error(t, err)
}

func TestWeightsCommand_ShowDefaults(t *testing.T) {
	setupProject(t)

	out, err := runCommand(t, "weights", "anything")
	require.NoError(t, err)
	require.Contains(t, out, "quality=0.60 speed=0.30 cost=0.10")
}

func TestRecommendCommand_NoExperiments(t *testing.T) {
	setupProject(t)

	_, err := runCommand(t, "recommend", "missing-prompt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no successful experiments")
}

func TestRankCommand_NoRankings(t *testing.T) {
	setupProject(t)

	_, err := runCommand(t, "rank", "summarize")
	require.Error(t, err)
}

func TestEvaluateCommand_RequiresAPIKey(t *testing.T) {
	setupProject(t)
	t.Setenv("OPENAI_API_KEY", "")

	_, err := runCommand(t, "evaluate", "summarize")
	require.Error(t, err)
	require.Contains(t, err.Error(), "OPENAI_API_KEY")
}
