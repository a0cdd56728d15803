package models

import (
	"strings"
	"time"
)

// DocumentCategory classifies files attached to an internship.
type DocumentCategory string

const (
	DocumentReport     DocumentCategory = "REPORT"
	DocumentEvaluation DocumentCategory = "EVALUATION"
	DocumentOther      DocumentCategory = "OTHER"
)

// ParseDocumentCategory maps s to a category. Unknown values fall back to DocumentOther.
func ParseDocumentCategory(s string) DocumentCategory {
	switch c := DocumentCategory(strings.ToUpper(strings.TrimSpace(s))); c {
	case DocumentReport, DocumentEvaluation:
		return c
	default:
		return DocumentOther
	}
}

// Document is the metadata of a file attached to an internship.
// The file content lives in the upload storage under StoredName.
type Document struct {
	ID           int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	InternshipID int64            `gorm:"not null;index" json:"internship_id"`
	Internship   *Internship      `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	OriginalName string           `gorm:"size:255;not null" json:"original_name"`
	StoredName   string           `gorm:"size:255;not null" json:"stored_name"`
	Category     DocumentCategory `gorm:"size:16;not null" json:"category"`
	MediaType    string           `gorm:"size:127" json:"media_type"`
	Size         int64            `json:"size"`
	UploadedAt   time.Time        `gorm:"not null" json:"uploaded_at"`
}
