package initialize

import (
	"trellis/config"
	. "trellis/internal/models"

	logger "github.com/Bparsons0904/goLogger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	devAdminEmail    = "admin@trellis.local"
	devAdminPassword = "admin-dev-password"
)

func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	if config.Environment == "development" {
		if err := initializeDevAdmin(db, log); err != nil {
			return log.Err("failed to initialize development admin", err)
		}
	}

	log.Info("Table initialization complete")
	return nil
}

// initializeDevAdmin guarantees a known admin login for local environments so
// the API is usable immediately after a fresh migration.
func initializeDevAdmin(db *gorm.DB, log logger.Logger) error {
	var existing User
	if err := db.First(&existing, "email = ?", devAdminEmail).Error; err == nil {
		log.Debug("Development admin already exists", "email", devAdminEmail)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(devAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return log.Err("failed to hash admin password", err)
	}

	admin := User{
		FirstName:   "Trellis",
		LastName:    "Admin",
		DisplayName: "Trellis Admin",
		Email:       devAdminEmail,
		Password:    string(hash),
		IsAdmin:     true,
		IsActive:    true,
	}

	if err := db.Create(&admin).Error; err != nil {
		return log.Err("failed to create development admin", err)
	}

	log.Info("Development admin created", "email", devAdminEmail)
	return nil
}
