// create-manager bootstraps an account with a generated password. It creates
// a program manager by default; -role seeds students and faculty advisors,
// and company users who then register their company through the API.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"strings"

	"github.com/gartstein/placement/internal/placement/config"
	gorm "github.com/gartstein/placement/internal/placement/db"
	"github.com/gartstein/placement/internal/placement/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// generateRandomString creates a random hex string of 2n characters.
func generateRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// profileFor builds the role profile stored next to the user.
func profileFor(role models.Role, name, email, department string) (func(userID int64) interface{}, error) {
	switch role {
	case models.RoleProgramManager:
		return func(userID int64) interface{} {
			return &models.ProgramManager{UserID: userID, Name: name, Email: email}
		}, nil
	case models.RoleStudent:
		return func(userID int64) interface{} {
			return &models.Student{UserID: userID, Name: name, Email: email}
		}, nil
	case models.RoleFacultyAdvisor:
		return func(userID int64) interface{} {
			return &models.FacultyAdvisor{UserID: userID, Name: name, Email: email, Department: department}
		}, nil
	case models.RoleCompany:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
}

func main() {
	email := flag.String("email", "", "login email of the new account")
	name := flag.String("name", "Program Manager", "display name")
	role := flag.String("role", string(models.RoleProgramManager), "STUDENT, COMPANY, FACULTY_ADVISOR or PROGRAM_MANAGER")
	department := flag.String("department", "", "department of a faculty advisor")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if *email == "" {
		suffix, err := generateRandomString(4)
		if err != nil {
			logger.Fatal("failed to generate email", zap.Error(err))
		}
		*email = "manager_" + suffix + "@placement.local"
	}
	normalized := strings.ToLower(strings.TrimSpace(*email))
	userRole := models.Role(strings.ToUpper(*role))

	profile, err := profileFor(userRole, *name, normalized, *department)
	if err != nil {
		logger.Fatal("invalid role", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	repo, err := gorm.NewRepository(&gorm.Config{
		Driver:     cfg.DBDriver,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		DBName:     cfg.DBName,
		SSLMode:    cfg.DBSSLMode,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() { _ = repo.Close() }()

	password, err := generateRandomString(8)
	if err != nil {
		logger.Fatal("failed to generate password", zap.Error(err))
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal("failed to hash password", zap.Error(err))
	}

	user := &models.User{
		Email:        normalized,
		PasswordHash: string(hashedPassword),
		Role:         userRole,
	}
	if err := repo.CreateAccount(context.Background(), user, profile); err != nil {
		logger.Fatal("failed to create account", zap.Error(err))
	}

	// Print credentials (only show plain password here!)
	fmt.Println("Account created successfully!")
	fmt.Println("======================================")
	fmt.Printf("User ID:  %d\n", user.ID)
	fmt.Printf("Role:     %s\n", user.Role)
	fmt.Printf("Email:    %s\n", user.Email)
	fmt.Printf("Password: %s\n", password)
	fmt.Println("======================================")
}
