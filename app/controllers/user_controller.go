package controllers

import (
	"net/http"
	"strings"

	"github.com/thriftline/thriftline/app/services"
	"github.com/thriftline/thriftline/config"
	"github.com/thriftline/thriftline/pkg/bind"
	"github.com/thriftline/thriftline/pkg/middleware"
	"github.com/thriftline/thriftline/pkg/response"
)

// UserController serves the signed-in user's profile.
type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// Profile handles GET /api/users/profile.
func (c *UserController) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	user, err := c.users.Profile(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Success(w, user)
}

// UpdateProfile handles PUT /api/users/profile. Multipart bodies may carry
// a profilePicture file, which is stored before the merge.
func (c *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	var in services.UpdateProfileInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
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
		if files := r.MultipartForm.File["profilePicture"]; len(files) > 0 {
			url, err := storeImage(files[0])
			if err != nil {
				response.Error(w, http.StatusBadRequest, err.Error())
				return
			}
			in.ProfilePicture = url
		}
	} else if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}
	user, err := c.users.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.Success(w, user)
}
