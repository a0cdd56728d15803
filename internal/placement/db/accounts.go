package db

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/placement/internal/placement/errors"
	"github.com/gartstein/placement/internal/placement/models"
	"gorm.io/gorm"
)

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return e.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.first(ctx, &user, id, e.ErrUserNotFound); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	if err := r.db.WithContext(ctx).Create(company).Error; err != nil {
		if isDuplicateKey(err) {
			return e.ErrCompanyAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repository) GetCompany(ctx context.Context, id int64) (*models.Company, error) {
	var company models.Company
	if err := r.first(ctx, &company, id, e.ErrCompanyNotFound); err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *Repository) GetCompanyByUser(ctx context.Context, userID int64) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).First(&company, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrCompanyNotFound
		}
		return nil, result.Error
	}
	return &company, nil
}

func (r *Repository) SetCompanyValidated(ctx context.Context, id int64, validated bool) error {
	return r.updateByID(ctx, &models.Company{}, id, map[string]interface{}{"validated": validated}, e.ErrCompanyNotFound)
}

func (r *Repository) CreateCompanyAdvisor(ctx context.Context, advisor *models.CompanyAdvisor) error {
	return r.db.WithContext(ctx).Create(advisor).Error
}

func (r *Repository) GetCompanyAdvisor(ctx context.Context, id int64) (*models.CompanyAdvisor, error) {
	var advisor models.CompanyAdvisor
	if err := r.first(ctx, &advisor, id, e.ErrCompanyAdvisorNotFound); err != nil {
		return nil, err
	}
	return &advisor, nil
}

func (r *Repository) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	var student models.Student
	if err := r.first(ctx, &student, id, e.ErrStudentNotFound); err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *Repository) SetStudentHasInternship(ctx context.Context, id int64, has bool) error {
	return r.updateByID(ctx, &models.Student{}, id, map[string]interface{}{"has_internship": has}, e.ErrStudentNotFound)
}

func (r *Repository) GetFacultyAdvisor(ctx context.Context, id int64) (*models.FacultyAdvisor, error) {
	var advisor models.FacultyAdvisor
	if err := r.first(ctx, &advisor, id, e.ErrFacultyAdvisorNotFound); err != nil {
		return nil, err
	}
	return &advisor, nil
}

// CreateAccount stores user and, in the same transaction, the role profile
// built by profile for the new user id.
func (r *Repository) CreateAccount(ctx context.Context, user *models.User, profile func(userID int64) interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := &Repository{db: tx}
		if err := repo.CreateUser(ctx, user); err != nil {
			return err
		}
		if profile == nil {
			return nil
		}
		if p := profile(user.ID); p != nil {
			if err := tx.Create(p).Error; err != nil {
				return fmt.Errorf("failed to create profile: %w", err)
			}
		}
		return nil
	})
}
