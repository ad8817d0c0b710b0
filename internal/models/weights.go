package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultWeightsName is the store key for the global weight triple used when
// no per-prompt weights exist.
const DefaultWeightsName = "_default"

// WeightSumTolerance is the allowed floating point deviation from 1.0 when
// validating a weight triple.
const WeightSumTolerance = 0.001

// ErrInvalidWeights is returned when a weight triple does not sum to 1.0.
var ErrInvalidWeights = errors.New("ranking weights must sum to 1.0")

// RankingWeights is a named triple of non-negative weights applied to the
// quality, speed, and cost components of a recommendation. The triple must
// sum to 1.0; latest write for a given name wins.
type RankingWeights struct {
	PromptName string  `json:"prompt_name"`
	Quality    float64 `json:"quality_weight"`
	Speed      float64 `json:"speed_weight"`
	Cost       float64 `json:"cost_weight"`

	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRankingWeights constructs a validated weight triple.
func NewRankingWeights(promptName string, quality, speed, cost float64, updatedBy string) (RankingWeights, error) {
	w := RankingWeights{
		PromptName: promptName,
		Quality:    quality,
		Speed:      speed,
		Cost:       cost,
		UpdatedBy:  updatedBy,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := w.Validate(); err != nil {
		return RankingWeights{}, err
	}
	return w, nil
}

// Validate checks the sum-to-1.0 invariant and non-negativity.
func (w RankingWeights) Validate() error {
	if w.Quality < 0 || w.Speed < 0 || w.Cost < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidWeights)
	}
	total := w.Quality + w.Speed + w.Cost
	if math.Abs(total-1.0) > WeightSumTolerance {
		return fmt.Errorf("%w: got %.3f", ErrInvalidWeights, total)
	}
	return nil
}

// DefaultWeights returns the standard weight split: quality 60%, speed 30%,
// cost 10%.
func DefaultWeights(promptName string) RankingWeights {
	return RankingWeights{
		PromptName: promptName,
		Quality:    0.60,
		Speed:      0.30,
		Cost:       0.10,
		UpdatedBy:  "system",
		UpdatedAt:  time.Now().UTC(),
	}
}
