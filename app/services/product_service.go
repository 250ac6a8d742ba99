package services

import (
	"context"
	"time"

	"github.com/thriftline/thriftline/app/models"
	"github.com/thriftline/thriftline/app/repositories"
	"github.com/thriftline/thriftline/pkg/logger"
	"github.com/thriftline/thriftline/pkg/metrics"
	"github.com/thriftline/thriftline/pkg/validate"
)

// CreateListingInput is the payload for publishing a listing. Images are
// attached by the controller after the uploads are stored, which is why the
// field has no form binding of its own.
type CreateListingInput struct {
	ProductName  string   `json:"productName" validate:"required,max=255"`
	Description  string   `json:"description" validate:"nullable,max=5000"`
	Price        float64  `json:"price" validate:"required,gt=0"`
	Address      string   `json:"address" validate:"required,max=255"`
	Mobile       string   `json:"mobile" validate:"required,digits=10"`
	PurchaseDate string   `json:"purchaseDate" validate:"nullable,date"`
	City         string   `json:"city" validate:"required,max=100"`
	Category     string   `json:"category" validate:"required,in=Electronics,Furniture,Books,Clothing,Others"`
	Images       []string `json:"images" validate:"required"`
}

// UpdateListingInput carries a partial edit. Zero-valued fields are treated
// as absent and leave the stored value untouched.
type UpdateListingInput struct {
	ProductName  string   `json:"productName" validate:"nullable,max=255"`
	Description  string   `json:"description" validate:"nullable,max=5000"`
	Price        float64  `json:"price" validate:"nullable,gt=0"`
	Address      string   `json:"address" validate:"nullable,max=255"`
	Mobile       string   `json:"mobile" validate:"nullable,digits=10"`
	PurchaseDate string   `json:"purchaseDate" validate:"nullable,date"`
	City         string   `json:"city" validate:"nullable,max=100"`
	Category     string   `json:"category" validate:"nullable,in=Electronics,Furniture,Books,Clothing,Others"`
	Images       []string `json:"images"`
}

// BuyInput is the contact record a buyer leaves on a listing.
type BuyInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"required,digits=10"`
	Location string `json:"location" validate:"required,max=255"`
}

// Actor identifies who is performing an operation. Admins bypass the
// seller-ownership checks on update, delete, and buyer info.
type Actor struct {
	ID    uint
	Admin bool
}

// ProductService owns every listing state transition and the authorization
// rules around them.
type ProductService struct {
	products *repositories.ProductRepository
}

func NewProductService(products *repositories.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

// Create validates and stores a new listing owned by sellerID.
func (s *ProductService) Create(ctx context.Context, sellerID uint, in CreateListingInput) (*models.Product, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}
	product := &models.Product{
		ProductName:  in.ProductName,
		Description:  in.Description,
		Price:        in.Price,
		Address:      in.Address,
		Mobile:       in.Mobile,
		PurchaseDate: in.PurchaseDate,
		City:         in.City,
		Category:     in.Category,
		Images:       in.Images,
		SellerID:     sellerID,
	}
	if err := s.products.Insert(ctx, product); err != nil {
		return nil, err
	}
	metrics.ListingsCreated.WithLabelValues(product.Category).Inc()
	logger.WithCtx(ctx).Info("listing created", "product_id", product.ID, "seller_id", sellerID, "category", product.Category)
	// Re-read so the caller gets the seller fields joined, same as Get.
	return s.Get(ctx, product.ID)
}

// Get returns a single listing. The embedded buyer record is not part of the
// returned JSON shape; see BuyerInfo for the seller-only view.
func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.products.Find(ctx, id)
	if err == repositories.ErrNoRecord {
		return nil, ErrNotFound
	}
	return product, err
}

// List returns all listings matching the filter, newest first.
func (s *ProductService) List(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	return s.products.FindAll(ctx, filter)
}

// Mine returns the listings the user is selling.
func (s *ProductService) Mine(ctx context.Context, userID uint) ([]models.Product, error) {
	return s.products.FindBySeller(ctx, userID)
}

// Orders returns the listings the user has bought, most recent purchase
// first.
func (s *ProductService) Orders(ctx context.Context, userID uint) ([]models.Product, error) {
	return s.products.FindByBuyer(ctx, userID)
}

// Buy records the purchase on an unsold listing. At most one buy ever
// succeeds per listing: the write is a conditional update keyed on the
// listing still having no buy date, so concurrent buyers race safely and
// all but one get ErrAlreadySold.
func (s *ProductService) Buy(ctx context.Context, buyer Actor, productID uint, in BuyInput) (*models.Product, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}
	if _, err := s.Get(ctx, productID); err != nil {
		return nil, err
	}
	now := time.Now()
	purchase := models.Purchase{
		BuyerUserID: &buyer.ID,
		Name:        in.Name,
		Phone:       in.Phone,
		Location:    in.Location,
		BuyDate:     &now,
	}
	won, err := s.products.SetBuyerIfAbsent(ctx, productID, purchase)
	if err != nil {
		return nil, err
	}
	if !won {
		metrics.PurchaseConflicts.Inc()
		return nil, ErrAlreadySold
	}
	metrics.Purchases.Inc()
	logger.WithCtx(ctx).Info("listing sold", "product_id", productID, "buyer_id", buyer.ID)
	return s.products.Find(ctx, productID)
}

// BuyerInfo reveals the purchase record on a listing. Only the seller (or an
// admin) may see it, and only once the listing is sold.
func (s *ProductService) BuyerInfo(ctx context.Context, caller Actor, productID uint) (*models.Purchase, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !caller.Admin && product.SellerID != caller.ID {
		return nil, ErrForbidden
	}
	if !product.Sold() {
		return nil, ErrNotFound
	}
	buyer := product.Buyer
	return &buyer, nil
}

// Update applies a partial edit to a listing. Absent fields keep their
// stored value, so re-sending the same payload is idempotent. Only the
// seller or an admin may edit; the seller and buyer records never change
// through this path.
func (s *ProductService) Update(ctx context.Context, caller Actor, productID uint, in UpdateListingInput) (*models.Product, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !caller.Admin && product.SellerID != caller.ID {
		return nil, ErrForbidden
	}
	product.ProductName = merge(product.ProductName, in.ProductName)
	product.Description = merge(product.Description, in.Description)
	product.Price = merge(product.Price, in.Price)
	product.Address = merge(product.Address, in.Address)
	product.Mobile = merge(product.Mobile, in.Mobile)
	product.PurchaseDate = merge(product.PurchaseDate, in.PurchaseDate)
	product.City = merge(product.City, in.City)
	product.Category = merge(product.Category, in.Category)
	if len(in.Images) > 0 {
		product.Images = in.Images
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("listing updated", "product_id", product.ID, "actor_id", caller.ID, "admin", caller.Admin)
	return product, nil
}

// Delete removes a listing. Only the seller or an admin may do so.
func (s *ProductService) Delete(ctx context.Context, caller Actor, productID uint) error {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !caller.Admin && product.SellerID != caller.ID {
		return ErrForbidden
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		if err == repositories.ErrNoRecord {
			return ErrNotFound
		}
		return err
	}
	logger.WithCtx(ctx).Info("listing deleted", "product_id", productID, "actor_id", caller.ID, "admin", caller.Admin)
	return nil
}

// merge returns incoming unless it is the zero value, in which case the
// current value is kept. This is the partial-update rule for every scalar
// listing field.
func merge[T comparable](current, incoming T) T {
	var zero T
	if incoming == zero {
		return current
	}
	return incoming
}
