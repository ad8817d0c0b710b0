package ranking

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prompt-bench/promptbench/internal/models"
)

func makeRanking(evaluator string, ids ...string) models.HumanRanking {
	return models.HumanRanking{
		RankingID:           "rank-" + evaluator,
		PromptName:          "test-prompt",
		EvaluatorName:       evaluator,
		RankedExperimentIDs: ids,
	}
}

func TestCalculateConsensus_Empty(t *testing.T) {
	if res := CalculateConsensus(nil, nil); res != nil {
		t.Errorf("expected nil consensus for no rankings, got %+v", res)
	}
}

func TestCalculateConsensus_SingleRanking(t *testing.T) {
	res := CalculateConsensus([]models.HumanRanking{
		makeRanking("alice", "a", "b", "c"),
	}, nil)

	require.NotNil(t, res)
	require.Equal(t, []string{"a", "b", "c"}, res.ConsensusRanking)
	if res.NumRankers != 1 {
		t.Errorf("expected 1 ranker, got %d", res.NumRankers)
	}
	if res.Variability != VariabilityLow {
		t.Errorf("expected low variability for single ranking, got %q", res.Variability)
	}
	// Borda points for 3 items: 3, 2, 1.
	if res.ConfidenceScores["a"] != 3 || res.ConfidenceScores["b"] != 2 || res.ConfidenceScores["c"] != 1 {
		t.Errorf("unexpected Borda points: %+v", res.ConfidenceScores)
	}
}

func TestCalculateConsensus_MajorityWins(t *testing.T) {
	res := CalculateConsensus([]models.HumanRanking{
		makeRanking("alice", "a", "b", "c"),
		makeRanking("bob", "a", "b", "c"),
		makeRanking("carol", "b", "a", "c"),
	}, nil)

	require.NotNil(t, res)
	// a: 3+3+2=8, b: 2+2+3=7, c: 1+1+1=3
	require.Equal(t, []string{"a", "b", "c"}, res.ConsensusRanking)
	if res.NumRankers != 3 {
		t.Errorf("expected 3 rankers, got %d", res.NumRankers)
	}
}

func TestCalculateConsensus_TieBreakByFirstAppearance(t *testing.T) {
	// a and b trade places, so both total 5 points; a appears first in the
	// first ranking and must sort ahead of b.
	res := CalculateConsensus([]models.HumanRanking{
		makeRanking("alice", "a", "b", "c"),
		makeRanking("bob", "b", "a", "c"),
	}, nil)

	require.NotNil(t, res)
	require.Equal(t, []string{"a", "b", "c"}, res.ConsensusRanking)
}

func TestCalculateConsensus_WithAIAgreement(t *testing.T) {
	res := CalculateConsensus([]models.HumanRanking{
		makeRanking("alice", "a", "b", "c"),
	}, []string{"a", "b", "c"})

	require.NotNil(t, res)
	require.NotNil(t, res.AIAgreement)
	if res.AIAgreement.KendallTau != 1.0 {
		t.Errorf("expected AI agreement tau 1.0, got %f", res.AIAgreement.KendallTau)
	}

	// No AI ordering supplied → no agreement block.
	res = CalculateConsensus([]models.HumanRanking{makeRanking("alice", "a", "b")}, nil)
	require.NotNil(t, res)
	require.Nil(t, res.AIAgreement)
}

func TestRankingVariability_Agreeing(t *testing.T) {
	v := RankingVariability([]models.HumanRanking{
		makeRanking("alice", "a", "b", "c"),
		makeRanking("bob", "a", "b", "c"),
	})
	if v != VariabilityLow {
		t.Errorf("expected low variability for identical rankings, got %q", v)
	}
}

func TestRankingVariability_Disagreeing(t *testing.T) {
	v := RankingVariability([]models.HumanRanking{
		makeRanking("alice", "a", "b", "c"),
		makeRanking("bob", "c", "b", "a"),
	})
	if v != VariabilityHigh {
		t.Errorf("expected high variability for reversed rankings, got %q", v)
	}
}

func TestRankingVariability_Medium(t *testing.T) {
	// Pairwise taus: 1/3 (one swap among four) against each other pair
	// averages into the medium band.
	v := RankingVariability([]models.HumanRanking{
		makeRanking("alice", "a", "b", "c", "d"),
		makeRanking("bob", "a", "b", "d", "c"),
		makeRanking("carol", "b", "a", "c", "d"),
	})
	if v != VariabilityMedium {
		t.Errorf("expected medium variability, got %q", v)
	}
}

func TestPositionVariance(t *testing.T) {
	rankings := []models.HumanRanking{
		makeRanking("alice", "a", "b", "c"),
		makeRanking("bob", "b", "a", "c"),
		makeRanking("carol", "a", "b", "c"),
	}

	// Experiment "a" sits at positions 0, 1, 0: mean 1/3, population
	// variance 2/9.
	v := PositionVariance(rankings, []string{"a"})
	require.InDelta(t, 2.0/9.0, v, 1e-9)

	// Perfect agreement on "c".
	if v := PositionVariance(rankings, []string{"c"}); v != 0.0 {
		t.Errorf("expected zero variance for stable position, got %f", v)
	}

	// Unknown id never appears: fewer than 2 positions → 0.
	if v := PositionVariance(rankings, []string{"zzz"}); v != 0.0 {
		t.Errorf("expected zero variance for absent id, got %f", v)
	}
}
