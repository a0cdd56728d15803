package db

import (
	"context"
	"errors"

	e "github.com/gartstein/placement/internal/placement/errors"
	"github.com/gartstein/placement/internal/placement/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateApplication inserts app. The (student, offer) unique index turns a
// concurrent second submission into ErrDuplicateApplication.
func (r *Repository) CreateApplication(ctx context.Context, app *models.Application) error {
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		if isDuplicateKey(err) {
			return e.ErrDuplicateApplication
		}
		return err
	}
	return nil
}

func (r *Repository) GetApplication(ctx context.Context, id int64) (*models.Application, error) {
	var app models.Application
	if err := r.first(ctx, &app, id, e.ErrApplicationNotFound); err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *Repository) GetApplicationForUpdate(ctx context.Context, id int64) (*models.Application, error) {
	var app models.Application
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&app, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrApplicationNotFound
		}
		return nil, result.Error
	}
	return &app, nil
}

func (r *Repository) UpdateApplicationStatus(ctx context.Context, id int64, status models.ApplicationStatus) error {
	return r.updateByID(ctx, &models.Application{}, id, map[string]interface{}{"status": status}, e.ErrApplicationNotFound)
}

func (r *Repository) DeleteApplication(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, &models.Application{}, id, e.ErrApplicationNotFound)
}

func (r *Repository) ListApplicationsByOffer(ctx context.Context, offerID int64) ([]models.Application, error) {
	var apps []models.Application
	result := r.db.WithContext(ctx).
		Where("offer_id = ?", offerID).
		Order("submitted_at, id").
		Find(&apps)
	if result.Error != nil {
		return nil, result.Error
	}
	return apps, nil
}
