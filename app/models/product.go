package models

import (
	"time"

	"gorm.io/gorm"
)

// Listing categories. Category is a closed enum; validation rejects anything
// outside this set.
const (
	CategoryElectronics = "Electronics"
	CategoryFurniture   = "Furniture"
	CategoryBooks       = "Books"
	CategoryClothing    = "Clothing"
	CategoryOthers      = "Others"
)

// Categories lists every valid listing category.
var Categories = []string{
	CategoryElectronics,
	CategoryFurniture,
	CategoryBooks,
	CategoryClothing,
	CategoryOthers,
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Purchase is the buyer record embedded in a Product. It exists from the
// moment a buy succeeds and is never updated or removed afterwards.
// BuyerUserID is a non-owning back-reference kept solely for the
// my-orders query; Name/Phone/Location are free-text display fields.
type Purchase struct {
	BuyerUserID *uint      `gorm:"index" json:"buyerUserId,omitempty"`
	Name        string     `gorm:"size:255" json:"name,omitempty"`
	Phone       string     `gorm:"size:50" json:"phone,omitempty"`
	Location    string     `gorm:"size:255" json:"location,omitempty"`
	BuyDate     *time.Time `json:"buyDate,omitempty"`
}

// Present reports whether the purchase exists. BuyDate is the discriminator:
// it is set exactly once, by the conditional buy write.
func (p Purchase) Present() bool { return p.BuyDate != nil }

// Product is a second-hand listing. SellerID is set at creation and never
// changes; Buyer transitions exactly once from absent to present.
type Product struct {
	gorm.Model
	ProductName  string   `gorm:"size:255;not null;index" json:"productName"`
	Description  string   `gorm:"type:text" json:"description"`
	Price        float64  `gorm:"not null" json:"price"`
	Address      string   `gorm:"size:255" json:"address"`
	Mobile       string   `gorm:"size:50" json:"mobile"`
	PurchaseDate string   `gorm:"size:50" json:"purchaseDate"`
	City         string   `gorm:"size:100;index" json:"city"`
	Category     string   `gorm:"size:50;index" json:"category"`
	Images       []string `gorm:"serializer:json" json:"images"`
	SellerID     uint     `gorm:"not null;index" json:"sellerId"`
	Seller       User     `json:"-"`
	Buyer        Purchase `gorm:"embedded;embeddedPrefix:buyer_" json:"-"`
}

// Sold reports whether the listing has been bought.
func (p *Product) Sold() bool { return p.Buyer.Present() }
