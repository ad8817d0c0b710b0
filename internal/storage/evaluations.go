package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/prompt-bench/promptbench/internal/models"
)

type aiEvaluationRow struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	EvaluationID   string `gorm:"uniqueIndex;not null"`
	ExperimentID   string `gorm:"index;not null"`
	ReviewPromptID string
	BatchID        string `gorm:"index;not null"`

	ModelEvaluator string

	// JSON-encoded map of criterion name to score.
	CriteriaScores string
	OverallScore   float64
	AIRank         int

	Justification string
	// JSON-encoded string slices.
	Strengths  string
	Weaknesses string

	EvaluatedAt        time.Time
	EvaluationDuration float64
}

func (aiEvaluationRow) TableName() string { return "ai_evaluations" }

type aiEvaluationBatchRow struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	BatchID        string `gorm:"uniqueIndex;not null"`
	PromptName     string `gorm:"index;not null"`
	ReviewPromptID string
	ModelEvaluator string

	Status         string `gorm:"not null"`
	NumExperiments int
	NumCompleted   int

	// JSON-encoded string slices.
	EvaluationIDs       string
	RankedExperimentIDs string

	StartedAt     time.Time
	CompletedAt   *time.Time
	TotalDuration *float64
	EstimatedCost float64
}

func (aiEvaluationBatchRow) TableName() string { return "ai_evaluation_batches" }

type reviewPromptRow struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	PromptID    string `gorm:"uniqueIndex;not null"`
	Name        string `gorm:"index;not null"`
	Description string

	Template     string
	SystemPrompt string

	// JSON-encoded string slice.
	Criteria     string
	DefaultModel string

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
	IsActive  bool
}

func (reviewPromptRow) TableName() string { return "review_prompts" }

func evalToRow(e models.AIEvaluation) aiEvaluationRow {
	return aiEvaluationRow{
		EvaluationID:       e.EvaluationID,
		ExperimentID:       e.ExperimentID,
		ReviewPromptID:     e.ReviewPromptID,
		BatchID:            e.BatchID,
		ModelEvaluator:     e.ModelEvaluator,
		CriteriaScores:     toJSON(e.CriteriaScores),
		OverallScore:       e.OverallScore,
		AIRank:             e.AIRank,
		Justification:      e.Justification,
		Strengths:          toJSON(e.Strengths),
		Weaknesses:         toJSON(e.Weaknesses),
		EvaluatedAt:        e.EvaluatedAt,
		EvaluationDuration: e.EvaluationDuration,
	}
}

func rowToEval(row aiEvaluationRow) models.AIEvaluation {
	e := models.AIEvaluation{
		EvaluationID:       row.EvaluationID,
		ExperimentID:       row.ExperimentID,
		ReviewPromptID:     row.ReviewPromptID,
		BatchID:            row.BatchID,
		ModelEvaluator:     row.ModelEvaluator,
		OverallScore:       row.OverallScore,
		AIRank:             row.AIRank,
		Justification:      row.Justification,
		EvaluatedAt:        row.EvaluatedAt,
		EvaluationDuration: row.EvaluationDuration,
	}
	fromJSON(row.CriteriaScores, &e.CriteriaScores)
	fromJSON(row.Strengths, &e.Strengths)
	fromJSON(row.Weaknesses, &e.Weaknesses)
	return e
}

func batchToRow(b models.AIEvaluationBatch) aiEvaluationBatchRow {
	return aiEvaluationBatchRow{
		BatchID:             b.BatchID,
		PromptName:          b.PromptName,
		ReviewPromptID:      b.ReviewPromptID,
		ModelEvaluator:      b.ModelEvaluator,
		Status:              string(b.Status),
		NumExperiments:      b.NumExperiments,
		NumCompleted:        b.NumCompleted,
		EvaluationIDs:       toJSON(b.EvaluationIDs),
		RankedExperimentIDs: toJSON(b.RankedExperimentIDs),
		StartedAt:           b.StartedAt,
		CompletedAt:         b.CompletedAt,
		TotalDuration:       b.TotalDuration,
		EstimatedCost:       b.EstimatedCost,
	}
}

func rowToBatch(row aiEvaluationBatchRow) models.AIEvaluationBatch {
	b := models.AIEvaluationBatch{
		BatchID:        row.BatchID,
		PromptName:     row.PromptName,
		ReviewPromptID: row.ReviewPromptID,
		ModelEvaluator: row.ModelEvaluator,
		Status:         models.BatchStatus(row.Status),
		NumExperiments: row.NumExperiments,
		NumCompleted:   row.NumCompleted,
		StartedAt:      row.StartedAt,
		CompletedAt:    row.CompletedAt,
		TotalDuration:  row.TotalDuration,
		EstimatedCost:  row.EstimatedCost,
	}
	fromJSON(row.EvaluationIDs, &b.EvaluationIDs)
	fromJSON(row.RankedExperimentIDs, &b.RankedExperimentIDs)
	return b
}

// SaveAIEvaluation stores one judge evaluation. Evaluations are immutable:
// a duplicate evaluation id is an error from the unique index.
func (s *Store) SaveAIEvaluation(ctx context.Context, eval models.AIEvaluation) error {
	if eval.EvaluatedAt.IsZero() {
		eval.EvaluatedAt = time.Now().UTC()
	}
	row := evalToRow(eval)
	return s.db.WithContext(ctx).Create(&row).Error
}

// GetAIEvaluations returns all judge evaluations for a prompt, joined
// through the prompt's evaluation batches, oldest batch first.
func (s *Store) GetAIEvaluations(ctx context.Context, promptName string) ([]models.AIEvaluation, error) {
	var batchIDs []string
	err := s.db.WithContext(ctx).
		Model(&aiEvaluationBatchRow{}).
		Where("prompt_name = ?", promptName).
		Order("started_at, id").
		Pluck("batch_id", &batchIDs).Error
	if err != nil {
		return nil, err
	}
	if len(batchIDs) == 0 {
		return nil, nil
	}

	var rows []aiEvaluationRow
	err = s.db.WithContext(ctx).
		Where("batch_id IN ?", batchIDs).
		Order("evaluated_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	evals := make([]models.AIEvaluation, 0, len(rows))
	for _, row := range rows {
		evals = append(evals, rowToEval(row))
	}
	return evals, nil
}

// SaveAIBatch records a newly started evaluation batch.
func (s *Store) SaveAIBatch(ctx context.Context, batch models.AIEvaluationBatch) error {
	if batch.StartedAt.IsZero() {
		batch.StartedAt = time.Now().UTC()
	}
	row := batchToRow(batch)
	return s.db.WithContext(ctx).Create(&row).Error
}

// UpdateAIBatch replaces a batch row in place, keyed by batch id. Used to
// finalize a batch as completed or failed.
func (s *Store) UpdateAIBatch(ctx context.Context, batch models.AIEvaluationBatch) error {
	var existing aiEvaluationBatchRow
	err := s.db.WithContext(ctx).Where("batch_id = ?", batch.BatchID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("batch %q: %w", batch.BatchID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	row := batchToRow(batch)
	row.ID = existing.ID
	return s.db.WithContext(ctx).Save(&row).Error
}

// GetAIBatch returns one evaluation batch by id, or ErrNotFound.
func (s *Store) GetAIBatch(ctx context.Context, batchID string) (*models.AIEvaluationBatch, error) {
	var row aiEvaluationBatchRow
	err := s.db.WithContext(ctx).Where("batch_id = ?", batchID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("batch %q: %w", batchID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	batch := rowToBatch(row)
	return &batch, nil
}

// ListAIBatches returns all batches for a prompt, oldest first.
func (s *Store) ListAIBatches(ctx context.Context, promptName string) ([]models.AIEvaluationBatch, error) {
	var rows []aiEvaluationBatchRow
	err := s.db.WithContext(ctx).
		Where("prompt_name = ?", promptName).
		Order("started_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	batches := make([]models.AIEvaluationBatch, 0, len(rows))
	for _, row := range rows {
		batches = append(batches, rowToBatch(row))
	}
	return batches, nil
}

// SaveReviewPrompt creates or updates a judge prompt template by prompt id.
func (s *Store) SaveReviewPrompt(ctx context.Context, rp models.ReviewPrompt) error {
	now := time.Now().UTC()
	if rp.CreatedAt.IsZero() {
		rp.CreatedAt = now
	}
	rp.UpdatedAt = now

	row := reviewPromptRow{
		PromptID:     rp.PromptID,
		Name:         rp.Name,
		Description:  rp.Description,
		Template:     rp.Template,
		SystemPrompt: rp.SystemPrompt,
		Criteria:     toJSON(rp.Criteria),
		DefaultModel: rp.DefaultModel,
		CreatedBy:    rp.CreatedBy,
		CreatedAt:    rp.CreatedAt,
		UpdatedAt:    rp.UpdatedAt,
		IsActive:     rp.IsActive,
	}

	var existing reviewPromptRow
	err := s.db.WithContext(ctx).Where("prompt_id = ?", rp.PromptID).First(&existing).Error
	switch {
	case err == nil:
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		return s.db.WithContext(ctx).Save(&row).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.WithContext(ctx).Create(&row).Error
	default:
		return err
	}
}

// GetReviewPrompt returns one judge prompt template by id, or ErrNotFound.
func (s *Store) GetReviewPrompt(ctx context.Context, promptID string) (*models.ReviewPrompt, error) {
	var row reviewPromptRow
	err := s.db.WithContext(ctx).Where("prompt_id = ?", promptID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("review prompt %q: %w", promptID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rp := models.ReviewPrompt{
		PromptID:     row.PromptID,
		Name:         row.Name,
		Description:  row.Description,
		Template:     row.Template,
		SystemPrompt: row.SystemPrompt,
		DefaultModel: row.DefaultModel,
		CreatedBy:    row.CreatedBy,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		IsActive:     row.IsActive,
	}
	fromJSON(row.Criteria, &rp.Criteria)
	return &rp, nil
}
