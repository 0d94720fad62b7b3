// Package crm stores contacts, tasks, deals and email templates with gorm.
package crm

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type contactRecord struct {
	ID          string `gorm:"primaryKey"`
	Email       string `gorm:"index"`
	Phone       string
	FirstName   string
	LastName    string
	CompanyName string
	OwnerID     string
	LeadScore   int
	Tags        datatypes.JSONSlice[string]
	Attributes  datatypes.JSONMap
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (contactRecord) TableName() string { return "crm_contacts" }

type taskRecord struct {
	ID          string `gorm:"primaryKey"`
	ContactID   string `gorm:"index"`
	AssignedTo  string
	Title       string
	Description string
	Priority    string
	DueAt       time.Time
	CreatedAt   time.Time
}

func (taskRecord) TableName() string { return "crm_tasks" }

type dealRecord struct {
	ID        string `gorm:"primaryKey"`
	ContactID string `gorm:"index"`
	OwnerID   string
	Title     string
	Value     float64
	Stage     string
	CreatedAt time.Time
}

func (dealRecord) TableName() string { return "crm_deals" }

type templateRecord struct {
	ID        string `gorm:"primaryKey"`
	Subject   string
	Body      string
	UpdatedAt time.Time
}

func (templateRecord) TableName() string { return "crm_email_templates" }

// Open connects to dsn. postgres:// and postgresql:// URLs use PostgreSQL;
// anything else is treated as a SQLite path.
func Open(dsn string, logger *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open crm database: %w", err)
	}

	logger.With(slog.String("module", "crm")).Info("CRM database opened", slog.String("dialect", dialector.Name()))

	return db, nil
}

// AutoMigrate creates or updates the CRM tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&contactRecord{},
		&taskRecord{},
		&dealRecord{},
		&templateRecord{},
	)
}
