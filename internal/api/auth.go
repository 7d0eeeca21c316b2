package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/custodia/internal/auth"
	"github.com/erazemk/custodia/internal/db"
	"github.com/erazemk/custodia/internal/model"
	"github.com/erazemk/custodia/internal/store"
)

// AuthHandler handles registration, login and the caller's own profile.
type AuthHandler struct {
	DB     *db.DB
	Tokens *auth.Issuer
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

type profileRequest struct {
	Name  string `json:"name" validate:"required,min=3,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// Register handles POST /api/register. New accounts wait for admin approval.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !bind(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, strings.TrimSpace(req.Name),
		model.NormalizeEmail(req.Email), hash, model.RolePending)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			jsonError(w, http.StatusConflict, "email already registered")
			return
		}
		storeError(w, err, "register")
		return
	}

	recordActivity(r.Context(), h.DB, &auth.Claims{UserID: user.ID, Name: user.Name},
		model.ActionUserRegistered, map[string]any{"user_id": user.ID, "email": user.Email})
	slog.Info("user registered", "user_id", user.ID, "email", user.Email)
	jsonResponse(w, http.StatusCreated, user)
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !bind(w, r, &req) {
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, model.NormalizeEmail(req.Email))
	if err != nil {
		storeError(w, err, "log in")
		return
	}
	if user == nil || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		slog.Warn("login failed", "email", req.Email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !model.CanLogin(user.Role) {
		slog.Warn("login refused", "user_id", user.ID, "role", user.Role)
		msg := "account is pending approval"
		if user.Role == model.RoleRejected {
			msg = "account has been rejected"
		}
		jsonError(w, http.StatusForbidden, msg)
		return
	}

	token, err := h.Tokens.GenerateToken(user.ID, user.Name, user.Role)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "role", user.Role)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		storeError(w, err, "log out")
		return
	}

	slog.Info("user logged out", "user_id", claims.UserID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err, "get profile")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// ChangePassword handles PUT /api/profile/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req changePasswordRequest
	if !bind(w, r, &req) {
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err, "change password")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to change password")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, claims.UserID, hash); err != nil {
		storeError(w, err, "change password")
		return
	}

	recordActivity(r.Context(), h.DB, claims, model.ActionPasswordChanged, nil)
	slog.Info("user changed own password", "user_id", claims.UserID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// UpdateProfile handles PUT /api/profile/details.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req profileRequest
	if !bind(w, r, &req) {
		return
	}

	user, err := store.UpdateUserProfile(r.Context(), h.DB, claims.UserID,
		strings.TrimSpace(req.Name), model.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			jsonError(w, http.StatusConflict, "email already in use")
			return
		}
		storeError(w, err, "update profile")
		return
	}

	recordActivity(r.Context(), h.DB, claims, model.ActionProfileUpdated,
		map[string]any{"name": user.Name, "email": user.Email})
	jsonResponse(w, http.StatusOK, user)
}
