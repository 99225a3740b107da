// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package account

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/velora/velora/internal/platform/request"
	"github.com/velora/velora/internal/platform/respond"
	"github.com/velora/velora/internal/platform/validate"
	"github.com/velora/velora/internal/users/auth"
)

// Middlewares carries the cross-cutting middlewares the handler mounts:
// authentication for the /me endpoints and the password-flow rate limit for
// everything that touches credentials.
type Middlewares struct {
	RequireAuth  func(http.Handler) http.Handler
	PasswordFlow func(http.Handler) http.Handler
}

// Handler exposes the account operations over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates the HTTP handler for the account operations.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the account endpoints on a fresh router. The confirm and
// deny endpoints are unauthenticated: they are opened from email links,
// where the token itself is the credential.
func (h *Handler) Routes(mw Middlewares) chi.Router {
	router := chi.NewRouter()

	router.Group(func(protected chi.Router) {
		protected.Use(mw.RequireAuth)
		protected.Get("/me", h.profile)
		protected.With(mw.PasswordFlow).Put("/me/password", h.requestPasswordChange)
		protected.With(mw.PasswordFlow).Delete("/deactivate", h.deactivate)
	})

	router.With(mw.PasswordFlow).Get("/confirm-password-change", h.confirmPasswordChange)
	router.With(mw.PasswordFlow).Get("/deny-password-change", h.denyPasswordChange)

	return router
}

// # Request / Response DTOs

type profileResponse struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Role        string    `json:"role"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type deactivateRequest struct {
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// # Handlers

/*
profile handles GET /users/me.
*/
func (h *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := h.service.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profileResponse{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		PhoneNumber: user.PhoneNumber,
		Role:        string(user.Role),
		IsVerified:  user.IsVerified,
		CreatedAt:   user.CreatedAt,
	})
}

/*
requestPasswordChange handles PUT /users/me/password.

Stages a new password; it takes effect only after the emailed confirmation
link is clicked.
*/
func (h *Handler) requestPasswordChange(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload changePasswordRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err = validator.
		Required("current_password", payload.CurrentPassword).
		Required("new_password", payload.NewPassword).
		MinLen("new_password", payload.NewPassword, auth.MinPasswordLength).
		MaxLen("new_password", payload.NewPassword, auth.MaxPasswordLength).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.service.RequestPasswordChange(request.Context(), userID, payload.CurrentPassword, payload.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: "Confirmation email sent. The change takes effect once you confirm it."})
}

/*
confirmPasswordChange handles GET /users/confirm-password-change.
*/
func (h *Handler) confirmPasswordChange(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Query(request, "token")
	if token == "" {
		respond.Error(writer, request, validate.RequiredError("token", "This field is required"))
		return
	}

	if err := h.service.ConfirmPasswordChange(request.Context(), token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: "Password changed successfully. Please log in again."})
}

/*
denyPasswordChange handles GET /users/deny-password-change.
*/
func (h *Handler) denyPasswordChange(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Query(request, "token")
	if token == "" {
		respond.Error(writer, request, validate.RequiredError("token", "This field is required"))
		return
	}

	if err := h.service.DenyPasswordChange(request.Context(), token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: "Password change request denied. Your password is unchanged."})
}

/*
deactivate handles DELETE /users/deactivate.

Requires the current password and revokes every session.
*/
func (h *Handler) deactivate(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload deactivateRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if payload.Password == "" {
		respond.Error(writer, request, validate.RequiredError("password", "This field is required"))
		return
	}

	if err := h.service.Deactivate(request.Context(), userID, payload.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: "Account deactivated. We're sorry to see you go."})
}
