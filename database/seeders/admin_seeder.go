package seeders

import (
	"gorm.io/gorm"

	"github.com/thriftline/thriftline/app/models"
	"github.com/thriftline/thriftline/config"
	"github.com/thriftline/thriftline/pkg/auth"
)

func init() {
	Register("admins", SeedAdmins)
}

// SeedAdmins inserts the bootstrap admin account if it does not exist yet.
// The server also does this on boot; the seeder covers fresh databases set
// up from the CLI alone.
func SeedAdmins(db *gorm.DB) error {
	email := config.AdminEmail()

	var count int64
	if err := db.Model(&models.Admin{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(config.AdminPassword())
	if err != nil {
		return err
	}
	return db.Create(&models.Admin{Email: email, Password: hash}).Error
}
