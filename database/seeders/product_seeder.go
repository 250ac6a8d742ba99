package seeders

import (
	"gorm.io/gorm"

	"github.com/thriftline/thriftline/app/models"
	"github.com/thriftline/thriftline/pkg/auth"
)

func init() {
	Register("products", SeedProducts)
}

// SeedProducts inserts a demo seller with a few listings so a fresh install
// has something to browse. Skipped when any product already exists.
func SeedProducts(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword("demo@123")
	if err != nil {
		return err
	}
	seller := models.User{
		Name:     "Demo Seller",
		Email:    "demo@example.com",
		Phone:    "9876543210",
		Password: hash,
	}
	if err := db.Where(models.User{Email: seller.Email}).FirstOrCreate(&seller).Error; err != nil {
		return err
	}

	listings := []models.Product{
		{
			ProductName: "Acoustic Guitar",
			Description: "Lightly used, comes with a soft case.",
			Price:       4500,
			Address:     "12 Hill Road",
			Mobile:      "9876543210",
			City:        "Mumbai",
			Category:    models.CategoryOthers,
			Images:      []string{"/storage/uploads/demo-guitar.jpg"},
			SellerID:    seller.ID,
		},
		{
			ProductName: "Study Desk",
			Description: "Solid wood desk, minor scratches.",
			Price:       2200,
			Address:     "12 Hill Road",
			Mobile:      "9876543210",
			City:        "Mumbai",
			Category:    models.CategoryFurniture,
			Images:      []string{"/storage/uploads/demo-desk.jpg"},
			SellerID:    seller.ID,
		},
		{
			ProductName: "Data Structures Textbook",
			Description: "Third edition, no markings.",
			Price:       350,
			Address:     "12 Hill Road",
			Mobile:      "9876543210",
			City:        "Pune",
			Category:    models.CategoryBooks,
			Images:      []string{"/storage/uploads/demo-book.jpg"},
			SellerID:    seller.ID,
		},
	}
	return db.Create(&listings).Error
}
