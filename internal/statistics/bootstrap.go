// Package statistics provides bootstrap confidence intervals for judge
// score aggregates.
package statistics

import (
	"math"
	"math/rand"
	"sort"

	"github.com/montanaflynn/stats"
)

// ScoreInterval is a bootstrap confidence interval around a mean score.
type ScoreInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidence_level"`
	NumResamples    int     `json:"num_resamples"`
}

// DefaultResamples is the number of bootstrap resamples.
const DefaultResamples = 10000

// ScoreCI computes a percentile-method bootstrap confidence interval over
// scores. confidenceLevel is in (0, 1), e.g. 0.95. With fewer than 2 scores
// the interval collapses to the mean.
func ScoreCI(scores []float64, confidenceLevel float64) ScoreInterval {
	return ScoreCIWithSeed(scores, confidenceLevel, -1)
}

// ScoreCIWithSeed is ScoreCI with a fixed seed for reproducibility. A
// negative seed uses a non-deterministic source.
func ScoreCIWithSeed(scores []float64, confidenceLevel float64, seed int64) ScoreInterval {
	n := len(scores)
	m, err := stats.Mean(scores)
	if err != nil {
		m = 0.0
	}
	if n < 2 {
		return ScoreInterval{
			Lower:           m,
			Upper:           m,
			Mean:            m,
			ConfidenceLevel: confidenceLevel,
			NumResamples:    0,
		}
	}

	src := seed
	if src < 0 {
		src = rand.Int63()
	}
	rng := rand.New(rand.NewSource(src))

	resampleMeans := make([]float64, DefaultResamples)
	sample := make([]float64, n)
	for i := range resampleMeans {
		for j := range sample {
			sample[j] = scores[rng.Intn(n)]
		}
		rm, _ := stats.Mean(sample)
		resampleMeans[i] = rm
	}
	sort.Float64s(resampleMeans)

	alpha := 1.0 - confidenceLevel
	loIdx := int(math.Floor(alpha / 2.0 * float64(DefaultResamples)))
	hiIdx := int(math.Floor((1.0 - alpha/2.0) * float64(DefaultResamples)))
	if hiIdx >= DefaultResamples {
		hiIdx = DefaultResamples - 1
	}

	return ScoreInterval{
		Lower:           resampleMeans[loIdx],
		Upper:           resampleMeans[hiIdx],
		Mean:            m,
		ConfidenceLevel: confidenceLevel,
		NumResamples:    DefaultResamples,
	}
}

// Overlaps reports whether two score intervals overlap. Two configurations
// whose intervals do not overlap differ meaningfully at the interval's
// confidence level.
func Overlaps(a, b ScoreInterval) bool {
	return a.Lower <= b.Upper && b.Lower <= a.Upper
}
