package controllers

import (
	"net/http"

	"github.com/shopvista/storefront/api/responses"
	"github.com/shopvista/storefront/api/validators"
	"github.com/shopvista/storefront/internal/identity"
	pkgerrors "github.com/shopvista/storefront/pkg/errors"
	"github.com/shopvista/storefront/pkg/logger"
)

type signupRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Signup records a free trial request from the landing page.
func Signup(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		var req signupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Signup(r.Context(), req.Email); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"email": req.Email})
	}
}
