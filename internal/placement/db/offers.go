package db

import (
	"context"

	e "github.com/gartstein/placement/internal/placement/errors"
	"github.com/gartstein/placement/internal/placement/models"
)

func (r *Repository) CreateOffer(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *Repository) GetOffer(ctx context.Context, id int64) (*models.Offer, error) {
	var offer models.Offer
	if err := r.first(ctx, &offer, id, e.ErrOfferNotFound); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *Repository) UpdateOffer(ctx context.Context, update *models.OfferUpdate) error {
	fields := map[string]interface{}{}
	if update.Title != nil {
		fields["title"] = *update.Title
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.Requirements != nil {
		fields["requirements"] = *update.Requirements
	}
	if update.Duration != nil {
		fields["duration"] = *update.Duration
	}
	if update.Location != nil {
		fields["location"] = *update.Location
	}
	if len(fields) == 0 {
		_, err := r.GetOffer(ctx, update.ID)
		return err
	}
	return r.updateByID(ctx, &models.Offer{}, update.ID, fields, e.ErrOfferNotFound)
}

func (r *Repository) DeleteOffer(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, &models.Offer{}, id, e.ErrOfferNotFound)
}

// ListPublicOffers returns the offers of validated companies, newest first.
func (r *Repository) ListPublicOffers(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	result := r.db.WithContext(ctx).
		Joins("JOIN companies ON companies.id = offers.company_id").
		Where("companies.validated = ?", true).
		Order("offers.published_at DESC, offers.id DESC").
		Find(&offers)
	if result.Error != nil {
		return nil, result.Error
	}
	return offers, nil
}

func (r *Repository) CountApplicationsForOffer(ctx context.Context, offerID int64) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("offer_id = ?", offerID).
		Count(&count)
	return count, result.Error
}
