package db

import (
	"context"

	e "github.com/gartstein/placement/internal/placement/errors"
	"github.com/gartstein/placement/internal/placement/models"
)

// CreateInternship inserts internship. The unique index on application_id
// rejects a second internship for the same application.
func (r *Repository) CreateInternship(ctx context.Context, internship *models.Internship) error {
	if err := r.db.WithContext(ctx).Create(internship).Error; err != nil {
		if isDuplicateKey(err) {
			return e.ErrInternshipAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repository) GetInternship(ctx context.Context, id int64) (*models.Internship, error) {
	var internship models.Internship
	if err := r.first(ctx, &internship, id, e.ErrInternshipNotFound); err != nil {
		return nil, err
	}
	return &internship, nil
}

func (r *Repository) InternshipExistsForApplication(ctx context.Context, applicationID int64) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Internship{}).
		Where("application_id = ?", applicationID).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

func (r *Repository) UpdateInternship(ctx context.Context, update *models.InternshipUpdate) error {
	return r.updateByID(ctx, &models.Internship{}, update.ID, map[string]interface{}{
		"start_date":  update.StartDate,
		"end_date":    update.EndDate,
		"final_state": update.FinalState,
	}, e.ErrInternshipNotFound)
}
