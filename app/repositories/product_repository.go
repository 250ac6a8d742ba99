package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thriftline/thriftline/app/models"
)

// ProductFilter narrows the public listing query. Zero values mean "no
// constraint".
type ProductFilter struct {
	Category string
	City     string
	Search   string
}

// ProductRepository persists listings and their embedded purchase record.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Find(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Preload("Seller").First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) FindAll(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Preload("Seller")
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.City != "" {
		q = q.Where("city = ?", filter.City)
	}
	if filter.Search != "" {
		q = q.Where("product_name LIKE ?", "%"+filter.Search+"%")
	}
	var products []models.Product
	if err := q.Order("id DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) FindBySeller(ctx context.Context, sellerID uint) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Seller").
		Where("seller_id = ?", sellerID).
		Order("id DESC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) FindByBuyer(ctx context.Context, buyerID uint) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Seller").
		Where("buyer_buyer_user_id = ?", buyerID).
		Order("buyer_buy_date DESC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) Insert(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update writes the listing fields only. The buyer_ columns are owned by
// SetBuyerIfAbsent: writing them here from a stale read would erase a buy
// that committed in between, reverting a sold listing to available.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations,
			"buyer_buyer_user_id", "buyer_name", "buyer_phone", "buyer_location", "buyer_buy_date").
		Save(product).Error
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRecord
	}
	return nil
}

// SetBuyerIfAbsent records the purchase only if the listing is still unsold.
// The single conditional UPDATE is the whole concurrency story: of N
// simultaneous buyers exactly one sees RowsAffected == 1.
func (r *ProductRepository) SetBuyerIfAbsent(ctx context.Context, productID uint, buyer models.Purchase) (bool, error) {
	if buyer.BuyDate == nil {
		now := time.Now()
		buyer.BuyDate = &now
	}
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND buyer_buy_date IS NULL", productID).
		Updates(map[string]any{
			"buyer_buyer_user_id": buyer.BuyerUserID,
			"buyer_name":          buyer.Name,
			"buyer_phone":         buyer.Phone,
			"buyer_location":      buyer.Location,
			"buyer_buy_date":      buyer.BuyDate,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

func (r *ProductRepository) CountSold(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("buyer_buy_date IS NOT NULL").
		Count(&n).Error
	return n, err
}

func (r *ProductRepository) SumSoldRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("buyer_buy_date IS NOT NULL").
		Select("COALESCE(SUM(price), 0)").
		Scan(&total).Error
	return total, err
}
