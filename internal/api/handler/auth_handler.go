package handler

import (
	"code_assessment/internal/api/middleware"
	"code_assessment/internal/app/service"
	"code_assessment/internal/common"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.With(middleware.Authenticator).Get("/verify", h.verify)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	switch {
	case errors.Is(err, common.ErrBadRequest):
		common.RespondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	case errors.Is(err, common.ErrUnauthorized):
		common.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		respondError(w, r, err, "")
		return
	}

	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   resp.Token,
		"user":    resp.User,
	})
}

func (h *AuthHandler) verify(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	user, err := h.authService.Verify(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		respondError(w, r, err, "")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"user": user})
}
