package controllers

import (
	"net/http"

	"github.com/thriftline/thriftline/app/models"
	"github.com/thriftline/thriftline/app/services"
	"github.com/thriftline/thriftline/pkg/bind"
	"github.com/thriftline/thriftline/pkg/middleware"
	"github.com/thriftline/thriftline/pkg/response"
)

// AuthController serves signup, login, and password changes.
type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

type authPayload struct {
	Token string        `json:"token"`
	User  *models.User  `json:"user,omitempty"`
	Admin *models.Admin `json:"admin,omitempty"`
}

// Register handles POST /api/auth/register.
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}
	user, token, err := c.auth.Register(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Created(w, authPayload{Token: token, User: user})
}

// Login handles POST /api/auth/login.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}
	user, token, err := c.auth.Login(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Success(w, authPayload{Token: token, User: user})
}

// AdminLogin handles POST /api/admin/login.
func (c *AuthController) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}
	admin, token, err := c.auth.AdminLogin(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Success(w, authPayload{Token: token, Admin: admin})
}

// ChangePassword handles PUT /api/users/change-password.
func (c *AuthController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	var in services.ChangePasswordInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}
	if err := c.auth.ChangePassword(r.Context(), userID, in); err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Message(w, "password updated")
}
