package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/prompt-bench/promptbench/internal/models"
)

type humanRankingRow struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	RankingID     string `gorm:"uniqueIndex;not null"`
	PromptName    string `gorm:"index;not null"`
	EvaluatorName string `gorm:"index;not null"`

	// JSON-encoded string slice, best first.
	RankedExperimentIDs string

	BasedOnAIBatchID     string
	AIAgreementScore     *float64
	Top3Overlap          *int
	ExactPositionMatches *int

	// JSON-encoded []models.RankChange.
	ChangesFromAI string

	Notes            string
	TimeSpentSeconds float64
	CreatedAt        time.Time
}

func (humanRankingRow) TableName() string { return "human_rankings" }

type rankingWeightsRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	PromptName string `gorm:"uniqueIndex;not null"`

	QualityWeight float64
	SpeedWeight   float64
	CostWeight    float64

	UpdatedBy string
	UpdatedAt time.Time
}

func (rankingWeightsRow) TableName() string { return "ranking_weights" }

type recommendationRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	PromptName string `gorm:"index;not null"`

	RecommendedConfig string
	FinalScore        float64
	QualityScore      float64
	SpeedScore        float64
	CostScore         float64

	Confidence string
	// JSON-encoded string slice.
	ConfidenceFactors string

	NumAIEvaluations   int
	NumHumanRankings   int
	ConsensusAgreement *float64

	Reasoning       string
	RunnerUpConfig  string
	ScoreDifference float64

	GeneratedAt time.Time
}

func (recommendationRow) TableName() string { return "recommendations" }

// SaveHumanRanking stores one evaluator's ranking. Rankings are immutable:
// a duplicate ranking id is an error from the unique index.
func (s *Store) SaveHumanRanking(ctx context.Context, ranking models.HumanRanking) error {
	if ranking.CreatedAt.IsZero() {
		ranking.CreatedAt = time.Now().UTC()
	}
	row := humanRankingRow{
		RankingID:            ranking.RankingID,
		PromptName:           ranking.PromptName,
		EvaluatorName:        ranking.EvaluatorName,
		RankedExperimentIDs:  toJSON(ranking.RankedExperimentIDs),
		BasedOnAIBatchID:     ranking.BasedOnAIBatchID,
		AIAgreementScore:     ranking.AIAgreementScore,
		Top3Overlap:          ranking.Top3Overlap,
		ExactPositionMatches: ranking.ExactPositionMatches,
		ChangesFromAI:        toJSON(ranking.ChangesFromAI),
		Notes:                ranking.Notes,
		TimeSpentSeconds:     ranking.TimeSpentSeconds,
		CreatedAt:            ranking.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// GetHumanRankings returns all rankings for a prompt, oldest first.
func (s *Store) GetHumanRankings(ctx context.Context, promptName string) ([]models.HumanRanking, error) {
	var rows []humanRankingRow
	err := s.db.WithContext(ctx).
		Where("prompt_name = ?", promptName).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	rankings := make([]models.HumanRanking, 0, len(rows))
	for _, row := range rows {
		r := models.HumanRanking{
			RankingID:            row.RankingID,
			PromptName:           row.PromptName,
			EvaluatorName:        row.EvaluatorName,
			BasedOnAIBatchID:     row.BasedOnAIBatchID,
			AIAgreementScore:     row.AIAgreementScore,
			Top3Overlap:          row.Top3Overlap,
			ExactPositionMatches: row.ExactPositionMatches,
			Notes:                row.Notes,
			TimeSpentSeconds:     row.TimeSpentSeconds,
			CreatedAt:            row.CreatedAt,
		}
		fromJSON(row.RankedExperimentIDs, &r.RankedExperimentIDs)
		fromJSON(row.ChangesFromAI, &r.ChangesFromAI)
		rankings = append(rankings, r)
	}
	return rankings, nil
}

// SaveWeights upserts the weight triple for a prompt; latest write wins.
// The triple is validated before touching the database.
func (s *Store) SaveWeights(ctx context.Context, weights models.RankingWeights) error {
	if err := weights.Validate(); err != nil {
		return err
	}
	if weights.UpdatedAt.IsZero() {
		weights.UpdatedAt = time.Now().UTC()
	}

	row := rankingWeightsRow{
		PromptName:    weights.PromptName,
		QualityWeight: weights.Quality,
		SpeedWeight:   weights.Speed,
		CostWeight:    weights.Cost,
		UpdatedBy:     weights.UpdatedBy,
		UpdatedAt:     weights.UpdatedAt,
	}

	var existing rankingWeightsRow
	err := s.db.WithContext(ctx).Where("prompt_name = ?", weights.PromptName).First(&existing).Error
	switch {
	case err == nil:
		row.ID = existing.ID
		return s.db.WithContext(ctx).Save(&row).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.WithContext(ctx).Create(&row).Error
	default:
		return err
	}
}

// GetWeights returns the stored weight triple for a prompt, falling back to
// the "_default" entry. A nil result with nil error means neither exists and
// the caller should use the built-in defaults.
func (s *Store) GetWeights(ctx context.Context, promptName string) (*models.RankingWeights, error) {
	for _, name := range []string{promptName, models.DefaultWeightsName} {
		var row rankingWeightsRow
		err := s.db.WithContext(ctx).Where("prompt_name = ?", name).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &models.RankingWeights{
			PromptName: row.PromptName,
			Quality:    row.QualityWeight,
			Speed:      row.SpeedWeight,
			Cost:       row.CostWeight,
			UpdatedBy:  row.UpdatedBy,
			UpdatedAt:  row.UpdatedAt,
		}, nil
	}
	return nil, nil
}

// SaveRecommendation appends a generated recommendation snapshot.
func (s *Store) SaveRecommendation(ctx context.Context, rec models.Recommendation) error {
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = time.Now().UTC()
	}
	row := recommendationRow{
		PromptName:         rec.PromptName,
		RecommendedConfig:  rec.RecommendedConfig,
		FinalScore:         rec.FinalScore,
		QualityScore:       rec.QualityScore,
		SpeedScore:         rec.SpeedScore,
		CostScore:          rec.CostScore,
		Confidence:         string(rec.Confidence),
		ConfidenceFactors:  toJSON(rec.ConfidenceFactors),
		NumAIEvaluations:   rec.NumAIEvaluations,
		NumHumanRankings:   rec.NumHumanRankings,
		ConsensusAgreement: rec.ConsensusAgreement,
		Reasoning:          rec.Reasoning,
		RunnerUpConfig:     rec.RunnerUpConfig,
		ScoreDifference:    rec.ScoreDifference,
		GeneratedAt:        rec.GeneratedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// LatestRecommendation returns the most recently generated recommendation
// for a prompt, or ErrNotFound.
func (s *Store) LatestRecommendation(ctx context.Context, promptName string) (*models.Recommendation, error) {
	var row recommendationRow
	err := s.db.WithContext(ctx).
		Where("prompt_name = ?", promptName).
		Order("generated_at DESC, id DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("recommendation for %q: %w", promptName, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rec := models.Recommendation{
		PromptName:         row.PromptName,
		RecommendedConfig:  row.RecommendedConfig,
		FinalScore:         row.FinalScore,
		QualityScore:       row.QualityScore,
		SpeedScore:         row.SpeedScore,
		CostScore:          row.CostScore,
		Confidence:         models.ConfidenceLevel(row.Confidence),
		NumAIEvaluations:   row.NumAIEvaluations,
		NumHumanRankings:   row.NumHumanRankings,
		ConsensusAgreement: row.ConsensusAgreement,
		Reasoning:          row.Reasoning,
		RunnerUpConfig:     row.RunnerUpConfig,
		ScoreDifference:    row.ScoreDifference,
		GeneratedAt:        row.GeneratedAt,
	}
	fromJSON(row.ConfidenceFactors, &rec.ConfidenceFactors)
	return &rec, nil
}
