package db

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"logsight/internal/config"
)

// Connect opens a GORM database connection using APP_DATABASE_URL (PostgreSQL URL).
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, errors.New("APP_DATABASE_URL is required (PostgreSQL URL)")
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil, errors.New("APP_DATABASE_URL must be a postgres:// or postgresql:// URL")
	}

	// PrepareStmt: true prevents the GORM postgres migrator from forcing simple protocol
	// for "SELECT * FROM table LIMIT 1", which would otherwise trigger "insufficient arguments".
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{PrepareStmt: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate auto-migrates the core tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Event{}, &User{}, &Session{})
}

// EnsureBootstrapUser makes sure there is at least one operator account
// corresponding to the bootstrap credentials in config. If a user with
// that email already exists, it is left as-is.
func EnsureBootstrapUser(db *gorm.DB, cfg *config.Config) error {
	if cfg.BootstrapEmail == "" || cfg.BootstrapPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&User{}).Where("email = ?", cfg.BootstrapEmail).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.BootstrapPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &User{
		Email:        cfg.BootstrapEmail,
		PasswordHash: string(hash),
		Name:         cfg.BootstrapName,
	}

	return db.Create(admin).Error
}

// EnsureDefaultOwner resolves the configured default-owner account and
// returns its id, creating the account with a random throwaway password
// if it does not exist yet. Returns "" when the policy is disabled, which
// makes userId strictly required at ingestion.
func EnsureDefaultOwner(db *gorm.DB, cfg *config.Config) (string, error) {
	if cfg.DefaultOwnerEmail == "" {
		return "", nil
	}

	var owner User
	err := db.Where("email = ?", cfg.DefaultOwnerEmail).Limit(1).Find(&owner).Error
	if err != nil {
		return "", err
	}
	if owner.ID != "" {
		return owner.ID, nil
	}

	// The account only exists to own events; nobody is meant to sign in
	// with it, so the password is random and discarded.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	owner = User{
		Email:        cfg.DefaultOwnerEmail,
		PasswordHash: string(hash),
		Name:         "Default Owner",
	}
	if err := db.Create(&owner).Error; err != nil {
		return "", err
	}
	return owner.ID, nil
}
