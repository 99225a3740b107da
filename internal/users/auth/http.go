// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/velora/velora/internal/platform/request"
	"github.com/velora/velora/internal/platform/respond"
	"github.com/velora/velora/internal/platform/validate"
)

// RouteLimits carries the per-flow rate limiting middlewares the handler
// mounts. Login and registration get the tightest budgets.
type RouteLimits struct {
	Login     func(http.Handler) http.Handler
	Register  func(http.Handler) http.Handler
	TokenFlow func(http.Handler) http.Handler
	Password  func(http.Handler) http.Handler
}

// Handler exposes the auth flows over HTTP.
type Handler struct {
	service *Service
	tokens  *TokenService
}

// NewHandler creates the HTTP handler for the auth flows.
func NewHandler(service *Service, tokens *TokenService) *Handler {
	return &Handler{service: service, tokens: tokens}
}

// Routes mounts the auth endpoints on a fresh router.
func (h *Handler) Routes(limits RouteLimits) chi.Router {
	router := chi.NewRouter()

	router.With(limits.Register).Post("/register", h.register)
	router.With(limits.Login).Post("/token", h.login)
	router.With(limits.TokenFlow).Post("/verify", h.verifyEmail)
	router.With(limits.TokenFlow).Post("/refresh", h.refresh)
	router.With(limits.TokenFlow).Post("/logout", h.logout)
	router.With(limits.Password).Post("/forgot-password", h.forgotPassword)
	router.With(limits.Password).Post("/reset-password", h.resetPassword)

	return router
}

// # Request / Response DTOs

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

type registerResponse struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	IsVerified bool   `json:"is_verified"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// # Handlers

/*
register handles POST /auth/register.

Creates an unverified account and emails its verification code.
*/
func (h *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var payload registerRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required("email", payload.Email).
		Email("email", payload.Email).
		Required("password", payload.Password).
		MinLen("password", payload.Password, MinPasswordLength).
		MaxLen("password", payload.Password, MaxPasswordLength).
		Required("first_name", payload.FirstName).
		MaxLen("first_name", payload.FirstName, 100).
		Required("last_name", payload.LastName).
		MaxLen("last_name", payload.LastName, 100).
		MaxLen("phone_number", payload.PhoneNumber, 32).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := h.service.Register(request.Context(), RegisterInput{
		Email:       payload.Email,
		Password:    payload.Password,
		FirstName:   payload.FirstName,
		LastName:    payload.LastName,
		PhoneNumber: payload.PhoneNumber,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, registerResponse{
		ID:         user.ID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		IsVerified: user.IsVerified,
	})
}

/*
login handles POST /auth/token.

Exchanges a credential pair for an access/refresh token pair.
*/
func (h *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var payload loginRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required("email", payload.Email).
		Required("password", payload.Password).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := h.service.Login(request.Context(), payload.Email, payload.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}

/*
verifyEmail handles POST /auth/verify.

Redeems the six-digit code emailed at registration.
*/
func (h *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	var payload verifyRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required("email", payload.Email).
		Email("email", payload.Email).
		Required("code", payload.Code).
		Digits("code", payload.Code, 6).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.service.VerifyEmail(request.Context(), payload.Email, payload.Code); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: "Email verified successfully"})
}

/*
refresh handles POST /auth/refresh.

Rotates a refresh token: the presented token is revoked and a new pair is
issued.
*/
func (h *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var payload refreshRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if payload.RefreshToken == "" {
		respond.Error(writer, request, validate.RequiredError("refresh_token", "This field is required"))
		return
	}

	pair, err := h.tokens.Rotate(request.Context(), payload.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}

/*
logout handles POST /auth/logout.

Revokes the presented refresh token. Always succeeds, even for garbage
tokens.
*/
func (h *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	var payload refreshRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.service.Logout(request.Context(), payload.RefreshToken); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: "Logged out successfully"})
}

/*
forgotPassword handles POST /auth/forgot-password.

Always responds with the same message regardless of whether the address is
registered.
*/
func (h *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var payload forgotPasswordRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required("email", payload.Email).
		Email("email", payload.Email).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.service.RequestPasswordReset(request.Context(), payload.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: MsgResetRequested})
}

/*
resetPassword handles POST /auth/reset-password.

Completes the forgot-password flow and revokes every open session.
*/
func (h *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var payload resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required("token", payload.Token).
		Required("new_password", payload.NewPassword).
		MinLen("new_password", payload.NewPassword, MinPasswordLength).
		MaxLen("new_password", payload.NewPassword, MaxPasswordLength).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.service.ResetPassword(request.Context(), payload.Token, payload.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: "Password has been reset successfully"})
}
