package models

import "time"

// Company publishes offers. Its offers are visible to students only once
// a program manager has validated it.
type Company struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	TaxID     string    `gorm:"size:64" json:"tax_id"`
	Address   string    `gorm:"size:512" json:"address"`
	Validated bool      `gorm:"not null;default:false" json:"validated"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyAdvisor supervises internships on the company side.
type CompanyAdvisor struct {
	ID        int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyID int64    `gorm:"not null;index" json:"company_id"`
	Company   *Company `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Name      string   `gorm:"size:255;not null" json:"name"`
	Email     string   `gorm:"size:255" json:"email"`
	Position  string   `gorm:"size:255" json:"position"`
}

// Student is the profile of a student user.
type Student struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64  `gorm:"not null;uniqueIndex" json:"user_id"`
	User          *User  `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Name          string `gorm:"size:255;not null" json:"name"`
	Email         string `gorm:"size:255" json:"email"`
	HasInternship bool   `gorm:"not null;default:false" json:"has_internship"`
}

// FacultyAdvisor is the academic supervisor of internships.
type FacultyAdvisor struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64  `gorm:"not null;uniqueIndex" json:"user_id"`
	User       *User  `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Name       string `gorm:"size:255;not null" json:"name"`
	Email      string `gorm:"size:255" json:"email"`
	Department string `gorm:"size:255" json:"department"`
}

// ProgramManager administers the program.
type ProgramManager struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64  `gorm:"not null;uniqueIndex" json:"user_id"`
	User   *User  `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Name   string `gorm:"size:255;not null" json:"name"`
	Email  string `gorm:"size:255" json:"email"`
}
