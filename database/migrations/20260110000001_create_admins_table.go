package migrations

import (
	"gorm.io/gorm"

	"github.com/thriftline/thriftline/app/models"
	"github.com/thriftline/thriftline/pkg/migration"
)

func init() {
	migration.Register("20260110000001_create_admins_table", &CreateAdminsTable{})
}

type CreateAdminsTable struct{}

func (CreateAdminsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Admin{})
}

func (CreateAdminsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Admin{})
}
