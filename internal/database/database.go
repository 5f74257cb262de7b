package database

import (
	"fmt"

	"github.com/trainerhub/backend/internal/config"
	"github.com/trainerhub/backend/internal/models"
	"github.com/trainerhub/backend/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DBConfig, seed config.SeedConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := SeedAdminUser(db, seed); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.StudentDocument{},
		&models.AuditLog{},
	)
}

// SeedAdminUser creates the single out-of-band admin account when none
// exists. Student accounts are only ever created through the admin surface.
func SeedAdminUser(db *gorm.DB, seed config.SeedConfig) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword(seed.AdminPassword)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        seed.AdminEmail,
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
		Active:       true,
	}

	return db.Create(&admin).Error
}
