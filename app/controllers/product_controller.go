package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/thriftline/thriftline/app/models"
	"github.com/thriftline/thriftline/app/repositories"
	"github.com/thriftline/thriftline/app/services"
	"github.com/thriftline/thriftline/config"
	"github.com/thriftline/thriftline/pkg/bind"
	"github.com/thriftline/thriftline/pkg/middleware"
	"github.com/thriftline/thriftline/pkg/response"
	"github.com/thriftline/thriftline/pkg/storage"
)

// ProductController serves the listing surface: browse, publish, edit,
// delete, buy, and the two per-user views.
type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

// sellerView is the seller's public display shape: name and email only,
// never credentials.
type sellerView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// productView is the public JSON shape of a listing. The embedded buyer
// record stays hidden; only its presence leaks, as the sold flag. The
// seller's display fields are joined in.
type productView struct {
	*models.Product
	Sold   bool       `json:"sold"`
	Seller sellerView `json:"seller"`
}

func viewOf(p *models.Product) productView {
	return productView{
		Product: p,
		Sold:    p.Sold(),
		Seller:  sellerView{Name: p.Seller.Name, Email: p.Seller.Email},
	}
}

func viewsOf(products []models.Product) []productView {
	views := make([]productView, len(products))
	for i := range products {
		views[i] = viewOf(&products[i])
	}
	return views
}

// Index handles GET /api/products with optional category, city, and search
// query filters.
func (c *ProductController) Index(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ProductFilter{
		Category: r.URL.Query().Get("category"),
		City:     r.URL.Query().Get("city"),
		Search:   r.URL.Query().Get("search"),
	}
	products, err := c.products.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Success(w, viewsOf(products))
}

// Show handles GET /api/products/{id}.
func (c *ProductController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		response.NotFound(w)
		return
	}
	product, err := c.products.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Success(w, viewOf(product))
}

// Store handles POST /api/products. The body is multipart: scalar fields
// plus up to the configured number of image files, which are stored before
// the listing is validated.
func (c *ProductController) Store(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}

	var in services.CreateListingInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if errs, err := bind.JSON(r, &in); err != nil {
			response.Error(w, http.StatusBadRequest, "invalid request body")
			return
		} else if len(errs) > 0 {
			response.ValidationError(w, errs)
			return
		}
	} else {
		if err := r.ParseMultipartForm(config.MaxUploadBytes()); err != nil {
			response.Error(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		if errs, err := bind.Form(r, &in); err != nil {
			response.Error(w, http.StatusBadRequest, "invalid form data")
			return
		} else if len(errs) > 0 {
			response.ValidationError(w, errs)
			return
		}
		images, err := c.storeImages(r)
		if err != nil {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		in.Images = images
	}

	product, err := c.products.Create(r.Context(), userID, in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Created(w, viewOf(product))
}

// Update handles PUT /api/products/{id}. Fields left out of the body keep
// their stored value; new image uploads replace the image set.
func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	id, ok := idParam(r)
	if !ok {
		response.NotFound(w)
		return
	}

	var in services.UpdateListingInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if errs, err := bind.JSON(r, &in); err != nil {
			response.Error(w, http.StatusBadRequest, "invalid request body")
			return
		} else if len(errs) > 0 {
			response.ValidationError(w, errs)
			return
		}
	} else {
		if err := r.ParseMultipartForm(config.MaxUploadBytes()); err != nil {
			response.Error(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		if errs, err := bind.Form(r, &in); err != nil {
			response.Error(w, http.StatusBadRequest, "invalid form data")
			return
		} else if len(errs) > 0 {
			response.ValidationError(w, errs)
			return
		}
		images, err := c.storeImages(r)
		if err != nil {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		in.Images = images
	}

	actor := services.Actor{ID: userID, Admin: middleware.IsAdminCtx(r.Context())}
	product, err := c.products.Update(r.Context(), actor, id, in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Success(w, viewOf(product))
}

// Destroy handles DELETE /api/products/{id}.
func (c *ProductController) Destroy(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	id, ok := idParam(r)
	if !ok {
		response.NotFound(w)
		return
	}
	actor := services.Actor{ID: userID, Admin: middleware.IsAdminCtx(r.Context())}
	if err := c.products.Delete(r.Context(), actor, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Message(w, "product deleted")
}

// Buy handles POST /api/products/{id}/buy.
func (c *ProductController) Buy(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	id, ok := idParam(r)
	if !ok {
		response.NotFound(w)
		return
	}
	var in services.BuyInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}
	product, err := c.products.Buy(r.Context(), services.Actor{ID: userID}, id, in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	// The buyer gets the purchase record back in full, alongside the
	// updated listing.
	response.Success(w, buyPayload{Buyer: product.Buyer, Product: viewOf(product)})
}

// buyPayload echoes the created purchase record to the buyer.
type buyPayload struct {
	Buyer   models.Purchase `json:"buyer"`
	Product productView     `json:"product"`
}

// BuyerInfo handles GET /api/products/{id}/buyer. Seller only.
func (c *ProductController) BuyerInfo(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	id, ok := idParam(r)
	if !ok {
		response.NotFound(w)
		return
	}
	actor := services.Actor{ID: userID, Admin: middleware.IsAdminCtx(r.Context())}
	buyer, err := c.products.BuyerInfo(r.Context(), actor, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Success(w, buyer)
}

// Mine handles GET /api/products/my/products.
func (c *ProductController) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	products, err := c.products.Mine(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Success(w, viewsOf(products))
}

// Orders handles GET /api/products/my/orders.
func (c *ProductController) Orders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	products, err := c.products.Orders(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Success(w, viewsOf(products))
}

// storeImages writes each uploaded image part to the configured disk and
// returns their public URLs. Returns nil when no files were sent.
func (c *ProductController) storeImages(r *http.Request) ([]string, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		return nil, nil
	}
	if max := config.MaxUploadImages(); len(files) > max {
		return nil, fmt.Errorf("too many images (max %d)", max)
	}

	var urls []string
	for _, fh := range files {
		url, err := storeImage(fh)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func storeImage(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("cannot read upload %q", fh.Filename)
	}
	defer f.Close()

	path := "uploads/" + uploadName(fh.Filename)
	if err := storage.PutStream(path, f); err != nil {
		return "", fmt.Errorf("cannot store upload %q", fh.Filename)
	}
	return storage.URL(path), nil
}

// uploadName builds a collision-safe file name preserving the original
// extension.
func uploadName(original string) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), hex.EncodeToString(buf), ext)
}
