package db

import (
	"context"

	e "github.com/gartstein/placement/internal/placement/errors"
	"github.com/gartstein/placement/internal/placement/models"
)

func (r *Repository) CreateEvaluation(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *Repository) GetEvaluation(ctx context.Context, id int64) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := r.first(ctx, &evaluation, id, e.ErrEvaluationNotFound); err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (r *Repository) UpdateEvaluation(ctx context.Context, update *models.EvaluationUpdate) error {
	return r.updateByID(ctx, &models.Evaluation{}, update.ID, map[string]interface{}{
		"type":   update.Type,
		"score":  update.Score,
		"report": update.Report,
	}, e.ErrEvaluationNotFound)
}

func (r *Repository) DeleteEvaluation(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, &models.Evaluation{}, id, e.ErrEvaluationNotFound)
}

func (r *Repository) ListEvaluations(ctx context.Context, internshipID int64) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	result := r.db.WithContext(ctx).
		Where("internship_id = ?", internshipID).
		Order("id").
		Find(&evaluations)
	if result.Error != nil {
		return nil, result.Error
	}
	return evaluations, nil
}
