package models

import "time"

// Offer is an internship opportunity published by a company.
type Offer struct {
	ID           int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyID    int64    `gorm:"not null;index" json:"company_id"`
	Company      *Company `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Title        string   `gorm:"size:255;not null" json:"title"`
	Description  string   `gorm:"size:5000" json:"description"`
	Requirements string   `gorm:"size:5000" json:"requirements"`
	// Duration is expressed in periods; the unit is left to the program.
	Duration    int       `gorm:"check:duration >= 0" json:"duration"`
	Location    string    `gorm:"size:255" json:"location"`
	PublishedAt time.Time `json:"published_at"`
}

// OfferUpdate represents the fields that can be updated for an Offer.
// Pointer types are used to allow partial updates.
type OfferUpdate struct {
	ID           int64
	Title        *string
	Description  *string
	Requirements *string
	Duration     *int
	Location     *string
}
