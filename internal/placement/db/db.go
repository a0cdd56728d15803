// Package db implements the entity store of the placement service on top of GORM.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gartstein/placement/internal/placement/lifecycle"
	"github.com/gartstein/placement/internal/placement/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Repository is the GORM backed entity store. A Repository created by
// WithTransaction is bound to that transaction.
type Repository struct {
	db *gorm.DB
}

var _ lifecycle.Store = (*Repository)(nil)

type Config struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// entities in dependency order.
var entities = []interface{}{
	&models.User{},
	&models.Company{},
	&models.CompanyAdvisor{},
	&models.Student{},
	&models.FacultyAdvisor{},
	&models.ProgramManager{},
	&models.Offer{},
	&models.Application{},
	&models.Internship{},
	&models.Evaluation{},
	&models.Document{},
}

func NewRepository(cfg *Config) (*Repository, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// sqlite has a single writer, and every connection to ":memory:" is a new database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := db.AutoMigrate(entities...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// NewSQLiteRepository opens a sqlite backed repository. Use ":memory:" for a throwaway store.
func NewSQLiteRepository(path string) (*Repository, error) {
	return NewRepository(&Config{Driver: DriverSQLite, SQLitePath: path})
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx lifecycle.Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	result := r.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// first loads the row with the given id into dest, mapping a missing row to notFound.
func (r *Repository) first(ctx context.Context, dest interface{}, id int64, notFound error) error {
	result := r.db.WithContext(ctx).First(dest, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return notFound
		}
		return result.Error
	}
	return nil
}

// deleteByID removes the row with the given id, mapping a missing row to notFound.
func (r *Repository) deleteByID(ctx context.Context, model interface{}, id int64, notFound error) error {
	result := r.db.WithContext(ctx).Delete(model, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound
	}
	return nil
}

// updateByID applies fields to the row with the given id, mapping a missing row to notFound.
func (r *Repository) updateByID(ctx context.Context, model interface{}, id int64, fields map[string]interface{}, notFound error) error {
	result := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound
	}
	return nil
}

// isDuplicateKey reports whether err is a unique constraint violation. Error
// translation covers the known drivers; the message check covers the rest.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
