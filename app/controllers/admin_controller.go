package controllers

import (
	"net/http"

	"github.com/thriftline/thriftline/app/models"
	"github.com/thriftline/thriftline/app/repositories"
	"github.com/thriftline/thriftline/app/services"
	"github.com/thriftline/thriftline/pkg/bind"
	"github.com/thriftline/thriftline/pkg/middleware"
	"github.com/thriftline/thriftline/pkg/response"
)

// AdminController serves the admin overlay: dashboard stats, user
// management, and full listing oversight. Every route here sits behind the
// admin-only middleware; the controller still passes the admin actor down
// so the services apply the bypass explicitly.
type AdminController struct {
	auth     *services.AuthService
	users    *services.UserService
	products *services.ProductService
	stats    *services.StatsService
}

func NewAdminController(auth *services.AuthService, users *services.UserService, products *services.ProductService, stats *services.StatsService) *AdminController {
	return &AdminController{auth: auth, users: users, products: products, stats: stats}
}

// Stats handles GET /api/admin/stats.
func (c *AdminController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.stats.Summary(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Success(w, stats)
}

// Users handles GET /api/admin/users.
func (c *AdminController) Users(w http.ResponseWriter, r *http.Request) {
	users, err := c.users.ListAll(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Success(w, users)
}

// DeleteUser handles DELETE /api/admin/users/{id}.
func (c *AdminController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		response.NotFound(w)
		return
	}
	if err := c.users.Remove(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Message(w, "user deleted")
}

// CreateUser handles POST /api/admin/users. Reuses the signup path; the
// issued token is discarded since the admin, not the new user, is calling.
func (c *AdminController) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}
	user, _, err := c.auth.Register(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Created(w, user)
}

// UpdateUser handles PUT /api/admin/users/{id} with the same
// merge-if-present rules as the self-service profile edit.
func (c *AdminController) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		response.NotFound(w)
		return
	}
	var in services.UpdateProfileInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}
	user, err := c.users.UpdateProfile(r.Context(), id, in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Success(w, user)
}

// adminProductView includes the purchase record, which the public listing
// shape hides.
type adminProductView struct {
	*models.Product
	Sold  bool            `json:"sold"`
	Buyer models.Purchase `json:"buyer"`
}

// Products handles GET /api/admin/products: every listing, sold or not,
// with buyer details.
func (c *AdminController) Products(w http.ResponseWriter, r *http.Request) {
	products, err := c.products.List(r.Context(), repositories.ProductFilter{})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	views := make([]adminProductView, len(products))
	for i := range products {
		p := &products[i]
		views[i] = adminProductView{Product: p, Sold: p.Sold(), Buyer: p.Buyer}
	}
	response.Success(w, views)
}

// adminCreateListing is a listing payload with the seller named explicitly.
type adminCreateListing struct {
	services.CreateListingInput
	SellerID uint `json:"sellerId" validate:"required"`
}

// CreateProduct handles POST /api/admin/products, publishing a listing on
// behalf of the given seller.
func (c *AdminController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in adminCreateListing
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}
	product, err := c.products.Create(r.Context(), in.SellerID, in.CreateListingInput)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Created(w, viewOf(product))
}

// UpdateProduct handles PUT /api/admin/products/{id}; the ownership check
// is bypassed via the admin actor.
func (c *AdminController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		response.NotFound(w)
		return
	}
	var in services.UpdateListingInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}
	adminID, _ := middleware.UserIDFromCtx(r.Context())
	product, err := c.products.Update(r.Context(), services.Actor{ID: adminID, Admin: true}, id, in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Success(w, viewOf(product))
}

// DeleteProduct handles DELETE /api/admin/products/{id}. The ownership
// check is bypassed via the admin actor.
func (c *AdminController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		response.NotFound(w)
		return
	}
	adminID, _ := middleware.UserIDFromCtx(r.Context())
	actor := services.Actor{ID: adminID, Admin: true}
	if err := c.products.Delete(r.Context(), actor, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Message(w, "product deleted")
}
