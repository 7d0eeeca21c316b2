package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/custodia/internal/db"
	"github.com/erazemk/custodia/internal/model"
	"github.com/erazemk/custodia/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	DB *db.DB
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=pending user admin rejected"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// UpdateRole handles PUT /api/users/{id}/role.
func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateRoleRequest
	if !bind(w, r, &req) {
		return
	}

	claims := GetClaims(r.Context())
	if claims.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot change your own role")
		return
	}

	previous, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "update role")
		return
	}
	if previous == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	user, err := store.UpdateUserRole(r.Context(), h.DB, id, req.Role)
	if err != nil {
		storeError(w, err, "update role")
		return
	}

	recordActivity(r.Context(), h.DB, claims, model.ActionUserRoleUpdated, map[string]any{
		"user_id": user.ID, "email": user.Email, "from": previous.Role, "to": user.Role,
	})
	slog.Info("user role updated", "user_id", user.ID, "from", previous.Role, "to", user.Role, "by", claims.UserID)
	jsonResponse(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id}. Items held by the user become
// unassigned; movement and activity history is kept.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	claims := GetClaims(r.Context())
	if claims.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "delete user")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "delete user")
		return
	}

	recordActivity(r.Context(), h.DB, claims, model.ActionUserDeleted,
		map[string]any{"user_id": user.ID, "email": user.Email, "name": user.Name})
	slog.Info("user deleted", "user_id", user.ID, "by", claims.UserID)
	w.WriteHeader(http.StatusNoContent)
}
