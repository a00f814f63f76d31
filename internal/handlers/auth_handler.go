package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"inventory-api/internal/apperrors"
	"inventory-api/internal/config"
	"inventory-api/internal/models"
	"inventory-api/internal/services"
)

type AuthHandler struct {
	userService *services.UserService
	authService *services.AuthService
	logger      zerolog.Logger
}

func NewAuthHandler(db *sql.DB, cfg config.Config, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userService: services.NewUserService(db, logger),
		authService: services.NewAuthService(cfg, logger),
		logger:      logger,
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid_request", "Provide data for registration")
		return
	}

	user, err := h.userService.Signup(&req)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Signup failed")
		h.respondWithAppError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"data":    user,
		"message": "User registered successfully",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid_request", "Required data not provided")
		return
	}

	user, err := h.userService.Authenticate(&req)
	if err != nil {
		h.respondWithAppError(w, err)
		return
	}

	pair, err := h.authService.GeneratePair(user)
	if err != nil {
		h.logger.Error().Err(err).Msg("Token generation failed")
		h.respondWithError(w, http.StatusInternalServerError, "token_generation_failed", "Failed to generate tokens")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"data":    pair,
	})
}

// Refresh mints a new access token from a valid refresh token. The user
// is re-loaded so the new token reflects the current record.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		h.respondWithError(w, http.StatusUnauthorized, "invalid_refresh_token", "Refresh token is required")
		return
	}

	claims, err := h.authService.ValidateRefresh(req.Refresh)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Refresh token rejected")
		h.respondWithError(w, http.StatusUnauthorized, "invalid_refresh_token", "Invalid or expired refresh token")
		return
	}

	user, err := h.userService.GetUserByID(claims.UserID)
	if err != nil {
		h.respondWithError(w, http.StatusUnauthorized, "invalid_refresh_token", "Invalid or expired refresh token")
		return
	}

	access, err := h.authService.GenerateAccess(user)
	if err != nil {
		h.logger.Error().Err(err).Msg("Token generation failed")
		h.respondWithError(w, http.StatusInternalServerError, "token_generation_failed", "Failed to generate token")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{
		"access": access,
	})
}

func (h *AuthHandler) respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		h.respondWithJSON(w, appErr.Status, appErr)
		return
	}
	h.respondWithError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
}

func (h *AuthHandler) respondWithError(w http.ResponseWriter, code int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

func (h *AuthHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
