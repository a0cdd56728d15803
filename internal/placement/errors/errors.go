// Package errors defines the failure kinds of the placement service and the
// specific failures built on top of them. Every specific error wraps its kind,
// so callers can match either with errors.Is.
package errors

import (
	"fmt"
)

// Kinds.
var (
	ErrNotFound         = fmt.Errorf("not found")
	ErrConflict         = fmt.Errorf("conflict")
	ErrInvalidState     = fmt.Errorf("invalid state")
	ErrOutOfRange       = fmt.Errorf("out of range")
	ErrDependencyExists = fmt.Errorf("dependency exists")
	ErrUnauthorized     = fmt.Errorf("unauthorized")
	ErrInvalidInput     = fmt.Errorf("invalid input")
)

var (
	ErrUserNotFound           = fmt.Errorf("%w: user", ErrNotFound)
	ErrCompanyNotFound        = fmt.Errorf("%w: company", ErrNotFound)
	ErrCompanyAdvisorNotFound = fmt.Errorf("%w: company advisor", ErrNotFound)
	ErrStudentNotFound        = fmt.Errorf("%w: student", ErrNotFound)
	ErrFacultyAdvisorNotFound = fmt.Errorf("%w: faculty advisor", ErrNotFound)
	ErrOfferNotFound          = fmt.Errorf("%w: offer", ErrNotFound)
	ErrApplicationNotFound    = fmt.Errorf("%w: application", ErrNotFound)
	ErrInternshipNotFound     = fmt.Errorf("%w: internship", ErrNotFound)
	ErrEvaluationNotFound     = fmt.Errorf("%w: evaluation", ErrNotFound)
	ErrDocumentNotFound       = fmt.Errorf("%w: document", ErrNotFound)

	ErrDuplicateApplication    = fmt.Errorf("%w: student has already applied to this offer", ErrConflict)
	ErrInternshipAlreadyExists = fmt.Errorf("%w: an internship already exists for this application", ErrConflict)
	ErrCompanyAlreadyExists    = fmt.Errorf("%w: user already owns a company", ErrConflict)
	ErrDuplicateEmail          = fmt.Errorf("%w: email already registered", ErrConflict)

	ErrApplicationNotAccepted = fmt.Errorf("%w: application must be Accepted before an internship can be created", ErrInvalidState)
	ErrInvalidStatus          = fmt.Errorf("%w: status must be one of PENDING, ACCEPTED, REJECTED", ErrInvalidState)
	ErrInvalidType            = fmt.Errorf("%w: evaluation type must be PROGRESS or FINAL", ErrInvalidState)
	ErrInvalidFinalState      = fmt.Errorf("%w: final state must be COMPLETED or CANCELLED", ErrInvalidState)

	ErrScoreOutOfRange = fmt.Errorf("%w: score must be between 0 and 20", ErrOutOfRange)

	ErrHasApplications        = fmt.Errorf("%w: offer still has applications", ErrDependencyExists)
	ErrHasDependentInternship = fmt.Errorf("%w: an internship references this application", ErrDependencyExists)
)
