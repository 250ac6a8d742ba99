package migrations

import (
	"gorm.io/gorm"

	"github.com/thriftline/thriftline/app/models"
	"github.com/thriftline/thriftline/pkg/migration"
)

func init() {
	migration.Register("20260110000000_create_users_table", &CreateUsersTable{})
}

type CreateUsersTable struct{}

func (CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.User{})
}
