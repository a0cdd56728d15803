package models

import "time"

// EvaluationType tells progress assessments from the final one.
type EvaluationType string

const (
	EvaluationProgress EvaluationType = "PROGRESS"
	EvaluationFinal    EvaluationType = "FINAL"
)

// Valid reports whether t is a known evaluation type.
func (t EvaluationType) Valid() bool {
	return t == EvaluationProgress || t == EvaluationFinal
}

// Score bounds, inclusive.
const (
	MinScore = 0
	MaxScore = 20
)

// Evaluation is a scored assessment of an internship.
type Evaluation struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	InternshipID int64          `gorm:"not null;index" json:"internship_id"`
	Internship   *Internship    `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Type         EvaluationType `gorm:"size:16;not null" json:"type"`
	Date         time.Time      `gorm:"not null" json:"date"`
	Score        int            `gorm:"not null;check:score >= 0 AND score <= 20" json:"score"`
	Report       string         `gorm:"type:text" json:"report"`
}

// EvaluationUpdate overwrites the assessment of an evaluation.
type EvaluationUpdate struct {
	ID     int64
	Type   EvaluationType
	Score  int
	Report string
}
