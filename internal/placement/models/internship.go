package models

import "time"

// FinalState is the outcome recorded on a finished internship.
type FinalState string

const (
	FinalCompleted FinalState = "COMPLETED"
	FinalCancelled FinalState = "CANCELLED"
)

// Valid reports whether f is a known final state.
func (f FinalState) Valid() bool {
	return f == FinalCompleted || f == FinalCancelled
}

// Internship is the placement realised from an accepted application.
type Internship struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ApplicationID    int64           `gorm:"not null;uniqueIndex" json:"application_id"`
	Application      *Application    `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	FacultyAdvisorID int64           `gorm:"not null;index" json:"faculty_advisor_id"`
	FacultyAdvisor   *FacultyAdvisor `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	CompanyAdvisorID int64           `gorm:"not null;index" json:"company_advisor_id"`
	CompanyAdvisor   *CompanyAdvisor `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	StartDate        time.Time       `gorm:"not null" json:"start_date"`
	EndDate          *time.Time      `json:"end_date,omitempty"`
	FinalState       *FinalState     `gorm:"size:16" json:"final_state,omitempty"`
}

// NewInternship carries the input of an internship creation.
type NewInternship struct {
	ApplicationID    int64
	FacultyAdvisorID int64
	CompanyAdvisorID int64
	StartDate        time.Time
	EndDate          *time.Time
}

// InternshipUpdate overwrites the mutable fields of an internship.
// Nil EndDate or FinalState clear the stored value.
type InternshipUpdate struct {
	ID         int64
	StartDate  time.Time
	EndDate    *time.Time
	FinalState *FinalState
}
