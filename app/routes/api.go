package routes

import (
	"github.com/thriftline/thriftline/app/controllers"
	"github.com/thriftline/thriftline/pkg/middleware"
	"github.com/thriftline/thriftline/pkg/router"
)

// Controllers bundles everything the API surface needs.
type Controllers struct {
	Auth    *controllers.AuthController
	User    *controllers.UserController
	Product *controllers.ProductController
	Admin   *controllers.AdminController
}

// Register mounts the whole API on r.
func Register(r *router.Router, c Controllers) {
	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", "auth.register", c.Auth.Register)
	auth.Post("/login", "auth.login", c.Auth.Login)

	// Admin login sits outside the admin group: callers have no token yet.
	api.Post("/admin/login", "admin.login", c.Auth.AdminLogin)

	products := api.Group("/products")
	products.Get("/", "products.index", c.Product.Index)
	products.Get("/my/products", "products.mine", c.Product.Mine, middleware.Auth)
	products.Get("/my/orders", "products.orders", c.Product.Orders, middleware.Auth)
	products.Get("/{id}", "products.show", c.Product.Show)
	products.Post("/", "products.store", c.Product.Store, middleware.Auth)
	products.Put("/{id}", "products.update", c.Product.Update, middleware.Auth)
	products.Delete("/{id}", "products.destroy", c.Product.Destroy, middleware.Auth)
	products.Post("/{id}/buy", "products.buy", c.Product.Buy, middleware.Auth)
	products.Get("/{id}/buyer", "products.buyer-info", c.Product.BuyerInfo, middleware.Auth)

	users := api.Group("/users", middleware.Auth)
	users.Get("/profile", "users.profile", c.User.Profile)
	users.Put("/profile", "users.update-profile", c.User.UpdateProfile)
	users.Put("/change-password", "users.change-password", c.Auth.ChangePassword)

	admin := api.Group("/admin", middleware.AdminOnly)
	admin.Get("/stats", "admin.stats", c.Admin.Stats)
	admin.Get("/users", "admin.users", c.Admin.Users)
	admin.Post("/users", "admin.create-user", c.Admin.CreateUser)
	admin.Put("/users/{id}", "admin.update-user", c.Admin.UpdateUser)
	admin.Delete("/users/{id}", "admin.delete-user", c.Admin.DeleteUser)
	admin.Get("/products", "admin.products", c.Admin.Products)
	admin.Post("/products", "admin.create-product", c.Admin.CreateProduct)
	admin.Put("/products/{id}", "admin.update-product", c.Admin.UpdateProduct)
	admin.Delete("/products/{id}", "admin.delete-product", c.Admin.DeleteProduct)
}
