package models

import "time"

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationAccepted ApplicationStatus = "ACCEPTED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// Application is a student's request to be placed on an offer.
// A student applies at most once to a given offer.
type Application struct {
	ID          int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID   int64             `gorm:"not null;uniqueIndex:idx_application_student_offer" json:"student_id"`
	Student     *Student          `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	OfferID     int64             `gorm:"not null;uniqueIndex:idx_application_student_offer;index" json:"offer_id"`
	Offer       *Offer            `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Status      ApplicationStatus `gorm:"size:16;not null;default:PENDING" json:"status"`
	SubmittedAt time.Time         `gorm:"not null" json:"submitted_at"`
}
