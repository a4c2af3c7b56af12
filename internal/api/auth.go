package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nuclear-hardware/hms/internal/auth"
	"github.com/nuclear-hardware/hms/internal/cart"
	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/store"
)

// AuthHandler handles login sessions and own-password changes.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
	Cart      *cart.Service
}

// credentials is the body of login and password-change requests.
type credentials struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) lookup(ctx context.Context, username string) (*model.User, error) {
	return store.GetUserByUsername(ctx, h.DB, username)
}

// Login handles POST /api/auth/login and answers with a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := auth.Login(r.Context(), h.JWTSecret, h.lookup, req.Username, req.Password)
	if errors.Is(err, auth.ErrBadCredentials) {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		storeError(w, err, "failed to log in")
		return
	}

	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusOK, map[string]string{"token": token})
}

// Logout handles POST /api/auth/logout. It revokes the token and empties the
// session's cart.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.Expiry()); err != nil {
		storeError(w, err, "failed to log out")
		return
	}
	if err := h.Cart.Store.Clear(r.Context(), claims.Session()); err != nil {
		slog.Warn("failed to clear cart on logout", "user", claims.Username, "error", err)
	}

	slog.Info("user logged out", "user", claims.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err == nil && user == nil {
		err = fmt.Errorf("%w: user %d", model.ErrNotFound, claims.UserID)
	}
	if err != nil {
		storeError(w, err, "failed to load user")
		return
	}

	hash, err := auth.ReplacePassword(user.PasswordHash, req.CurrentPassword, req.NewPassword)
	if errors.Is(err, auth.ErrBadCredentials) {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}
	if err != nil {
		storeError(w, err, "failed to hash password")
		return
	}
	if err := store.UpdateUserPassword(r.Context(), h.DB, user.ID, hash); err != nil {
		storeError(w, err, "failed to update password")
		return
	}

	slog.Info("user changed own password", "user", claims.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
