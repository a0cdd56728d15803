package db

import (
	"context"

	e "github.com/gartstein/placement/internal/placement/errors"
	"github.com/gartstein/placement/internal/placement/models"
)

func (r *Repository) CreateDocument(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *Repository) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	var doc models.Document
	if err := r.first(ctx, &doc, id, e.ErrDocumentNotFound); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *Repository) DeleteDocument(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, &models.Document{}, id, e.ErrDocumentNotFound)
}

func (r *Repository) ListDocuments(ctx context.Context, internshipID int64) ([]models.Document, error) {
	var docs []models.Document
	result := r.db.WithContext(ctx).
		Where("internship_id = ?", internshipID).
		Order("uploaded_at, id").
		Find(&docs)
	if result.Error != nil {
		return nil, result.Error
	}
	return docs, nil
}
