// Package models defines the domain models of the placement marketplace.
// The same structs are persisted through GORM, so they carry the column,
// index and foreign key tags of the relational schema.
package models

import "time"

// Role is the actor role a caller acts with.
type Role string

const (
	// RoleStudent applies to offers and follows its internship.
	RoleStudent        Role = "STUDENT"
	RoleCompany        Role = "COMPANY"
	RoleFacultyAdvisor Role = "FACULTY_ADVISOR"
	RoleProgramManager Role = "PROGRAM_MANAGER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCompany, RoleFacultyAdvisor, RoleProgramManager:
		return true
	}
	return false
}

// Identity is the resolved caller of an operation.
type Identity struct {
	UserID int64
	Role   Role
}

// Anonymous reports whether no user could be resolved for the caller.
func (i Identity) Anonymous() bool {
	return i.UserID == 0 || i.Role == ""
}

// User is an account able to authenticate.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"size:32;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
