package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/thriftline/thriftline/app/services"
	"github.com/thriftline/thriftline/pkg/logger"
	"github.com/thriftline/thriftline/pkg/response"
)

// respondServiceError maps service-layer errors onto the HTTP envelope.
// Every controller funnels its error path through here so the status
// mapping stays in one place.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationError(w, verr.Fields)
	case errors.Is(err, services.ErrNotFound):
		response.NotFound(w)
	case errors.Is(err, services.ErrForbidden):
		response.Forbidden(w)
	case errors.Is(err, services.ErrAlreadySold):
		response.Conflict(w, "product is already sold")
	case errors.Is(err, services.ErrInvalidLogin):
		response.Error(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, services.ErrEmailTaken):
		response.Conflict(w, "email already registered")
	case errors.Is(err, services.ErrWrongPassword):
		response.Error(w, http.StatusUnauthorized, "current password is incorrect")
	default:
		logger.WithCtx(r.Context()).Error("unhandled service error", "error", err)
		response.Error(w, http.StatusInternalServerError, "something went wrong")
	}
}

// idParam reads the numeric {id} route parameter.
func idParam(r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
