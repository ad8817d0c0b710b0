package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/prompt-bench/promptbench/internal/models"
)

type experimentResultRow struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	ExperimentID string `gorm:"uniqueIndex;not null"`
	PromptName   string `gorm:"index;not null"`
	ConfigName   string `gorm:"index;not null"`
	RunID        string `gorm:"index"`

	RenderedPrompt string
	Response       string
	FinishReason   string

	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds float64

	PromptTokens     int
	CompletionTokens int
	TotalTokens      int

	EstimatedCostUSD *float64

	Error        string
	Success      bool `gorm:"index"`
	IsAcceptable bool

	CreatedAt time.Time
}

func (experimentResultRow) TableName() string { return "experiment_results" }

type experimentRunRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	RunID      string `gorm:"uniqueIndex;not null"`
	PromptName string `gorm:"index;not null"`

	Status     string `gorm:"not null"`
	NumConfigs int
	TotalCost  *float64

	StartedAt   time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
}

func (experimentRunRow) TableName() string { return "experiment_runs" }

func resultToRow(r models.ExperimentResult) experimentResultRow {
	return experimentResultRow{
		ExperimentID:     r.ExperimentID,
		PromptName:       r.PromptName,
		ConfigName:       r.ConfigName,
		RunID:            r.RunID,
		RenderedPrompt:   r.RenderedPrompt,
		Response:         r.Response,
		FinishReason:     r.FinishReason,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		DurationSeconds:  r.DurationSeconds,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		TotalTokens:      r.TotalTokens,
		EstimatedCostUSD: r.EstimatedCostUSD,
		Error:            r.Error,
		Success:          r.Success,
		IsAcceptable:     r.IsAcceptable,
		CreatedAt:        r.CreatedAt,
	}
}

func rowToResult(row experimentResultRow) models.ExperimentResult {
	return models.ExperimentResult{
		ExperimentID:     row.ExperimentID,
		PromptName:       row.PromptName,
		ConfigName:       row.ConfigName,
		RunID:            row.RunID,
		RenderedPrompt:   row.RenderedPrompt,
		Response:         row.Response,
		FinishReason:     row.FinishReason,
		StartTime:        row.StartTime,
		EndTime:          row.EndTime,
		DurationSeconds:  row.DurationSeconds,
		PromptTokens:     row.PromptTokens,
		CompletionTokens: row.CompletionTokens,
		TotalTokens:      row.TotalTokens,
		EstimatedCostUSD: row.EstimatedCostUSD,
		Error:            row.Error,
		Success:          row.Success,
		IsAcceptable:     row.IsAcceptable,
		CreatedAt:        row.CreatedAt,
	}
}

// SaveResult inserts a new experiment result or replaces an existing row
// with the same experiment id.
func (s *Store) SaveResult(ctx context.Context, result models.ExperimentResult) error {
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	row := resultToRow(result)

	var existing experimentResultRow
	err := s.db.WithContext(ctx).Where("experiment_id = ?", result.ExperimentID).First(&existing).Error
	switch {
	case err == nil:
		row.ID = existing.ID
		return s.db.WithContext(ctx).Save(&row).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.WithContext(ctx).Create(&row).Error
	default:
		return fmt.Errorf("looking up experiment %q: %w", result.ExperimentID, err)
	}
}

// GetExperiment returns one experiment result by id, or ErrNotFound.
func (s *Store) GetExperiment(ctx context.Context, experimentID string) (*models.ExperimentResult, error) {
	var row experimentResultRow
	err := s.db.WithContext(ctx).Where("experiment_id = ?", experimentID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("experiment %q: %w", experimentID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	result := rowToResult(row)
	return &result, nil
}

// GetSuccessfulExperiments returns all successful experiments for a prompt,
// oldest first.
func (s *Store) GetSuccessfulExperiments(ctx context.Context, promptName string) ([]models.ExperimentResult, error) {
	var rows []experimentResultRow
	err := s.db.WithContext(ctx).
		Where("prompt_name = ? AND success = ?", promptName, true).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]models.ExperimentResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, rowToResult(row))
	}
	return results, nil
}

// ListExperiments returns all experiments, optionally filtered by prompt.
func (s *Store) ListExperiments(ctx context.Context, promptName string) ([]models.ExperimentResult, error) {
	q := s.db.WithContext(ctx).Order("created_at, id")
	if promptName != "" {
		q = q.Where("prompt_name = ?", promptName)
	}

	var rows []experimentResultRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]models.ExperimentResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, rowToResult(row))
	}
	return results, nil
}

// ListPrompts returns the distinct prompt names with stored experiments.
func (s *Store) ListPrompts(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&experimentResultRow{}).
		Distinct("prompt_name").
		Order("prompt_name").
		Pluck("prompt_name", &names).Error
	return names, err
}

// SetAcceptability updates the human acceptability override on a result.
// This is the only mutable experiment field besides run association.
func (s *Store) SetAcceptability(ctx context.Context, experimentID string, acceptable bool) error {
	res := s.db.WithContext(ctx).
		Model(&experimentResultRow{}).
		Where("experiment_id = ?", experimentID).
		Update("is_acceptable", acceptable)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("experiment %q: %w", experimentID, ErrNotFound)
	}
	return nil
}

// SaveRun records a new experiment run.
func (s *Store) SaveRun(ctx context.Context, run models.ExperimentRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	row := experimentRunRow{
		RunID:       run.RunID,
		PromptName:  run.PromptName,
		Status:      string(run.Status),
		NumConfigs:  run.NumConfigs,
		TotalCost:   run.TotalCost,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		CreatedAt:   run.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// UpdateRunStatus transitions a run's status; the run row is the single
// source of truth for in-flight state across orchestrator instances.
func (s *Store) UpdateRunStatus(ctx context.Context, runID string, status models.RunStatus) error {
	updates := map[string]any{"status": string(status)}
	if status != models.RunStatusRunning {
		now := time.Now().UTC()
		updates["completed_at"] = &now
	}

	res := s.db.WithContext(ctx).
		Model(&experimentRunRow{}).
		Where("run_id = ?", runID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("run %q: %w", runID, ErrNotFound)
	}
	return nil
}

// GetRun returns one experiment run by id, or ErrNotFound.
func (s *Store) GetRun(ctx context.Context, runID string) (*models.ExperimentRun, error) {
	var row experimentRunRow
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("run %q: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return &models.ExperimentRun{
		RunID:       row.RunID,
		PromptName:  row.PromptName,
		Status:      models.RunStatus(row.Status),
		NumConfigs:  row.NumConfigs,
		TotalCost:   row.TotalCost,
		StartedAt:   row.StartedAt,
		CompletedAt: row.CompletedAt,
		CreatedAt:   row.CreatedAt,
	}, nil
}
