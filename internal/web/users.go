package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nuclear-hardware/hms/internal/auth"
	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/store"
)

// UsersPage handles GET /users (admin only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	p := s.page(w, r, "Users")
	users, err := store.ListUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
	}

	s.Templates.Render(w, "users.html", &struct {
		PageData
		Users []model.User
		Roles []string
	}{
		PageData: p,
		Users:    users,
		Roles:    model.Roles,
	})
}

// UserCreateSubmit handles POST /users (admin only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	role := r.FormValue("role")

	if username == "" {
		redirectErr(w, r, "/users", fmt.Errorf("%w: username is required", model.ErrValidation), "")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		redirectErr(w, r, "/users", err, "")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		redirectErr(w, r, "/users", err, "Failed to hash password")
		return
	}

	if _, err := store.CreateUser(r.Context(), s.DB, username, hash, role); err != nil {
		redirectErr(w, r, "/users", err, "Failed to create user")
		return
	}

	slog.Info("user created", "user", claims.Username, "new_user", username, "role", role)
	redirectOK(w, r, "/users", fmt.Sprintf("User %s created.", username))
}

// UserResetPasswordSubmit handles POST /users/{id}/password (admin only).
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	newPassword := r.FormValue("new_password")
	if err := model.ValidatePassword(newPassword); err != nil {
		redirectErr(w, r, "/users", err, "")
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		redirectErr(w, r, "/users", err, "Failed to hash password")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, id, hash); err != nil {
		redirectErr(w, r, "/users", err, "Failed to reset password")
		return
	}

	slog.Info("user password reset", "user", GetWebClaims(r.Context()).Username, "target_id", id)
	redirectOK(w, r, "/users", "Password reset.")
}

// UserUpdateRoleSubmit handles POST /users/{id}/role (admin only).
func (s *Server) UserUpdateRoleSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	role := r.FormValue("role")
	if err := store.UpdateUser(r.Context(), s.DB, id, role); err != nil {
		redirectErr(w, r, "/users", err, "Failed to update role")
		return
	}

	slog.Info("user role updated", "user", GetWebClaims(r.Context()).Username, "target_id", id, "new_role", role)
	redirectOK(w, r, "/users", "Role updated.")
}

// UserDeleteSubmit handles POST /users/{id}/delete (admin only).
func (s *Server) UserDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	claims := GetWebClaims(r.Context())
	if claims.UserID == id {
		redirectErr(w, r, "/users", fmt.Errorf("%w: you cannot delete yourself", model.ErrValidation), "")
		return
	}

	if err := store.DeleteUser(r.Context(), s.DB, id); err != nil {
		redirectErr(w, r, "/users", err, "Failed to delete user")
		return
	}

	slog.Info("user deleted", "user", claims.Username, "deleted_id", id)
	redirectOK(w, r, "/users", "User deleted.")
}

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	p := s.page(w, r, "Settings")
	s.Templates.Render(w, "settings.html", &p)
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	if currentPassword == "" || newPassword == "" {
		redirectErr(w, r, "/settings", fmt.Errorf("%w: enter your current and new password", model.ErrValidation), "")
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err == nil && user == nil {
		err = fmt.Errorf("%w: user %d", model.ErrNotFound, claims.UserID)
	}
	if err != nil {
		redirectErr(w, r, "/settings", err, "Failed to load user")
		return
	}

	hash, err := auth.ReplacePassword(user.PasswordHash, currentPassword, newPassword)
	if errors.Is(err, auth.ErrBadCredentials) {
		err = fmt.Errorf("%w: current password is incorrect", model.ErrValidation)
	}
	if err != nil {
		redirectErr(w, r, "/settings", err, "Failed to change password")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, hash); err != nil {
		redirectErr(w, r, "/settings", err, "Failed to update password")
		return
	}

	slog.Info("user changed own password", "user", claims.Username)
	redirectOK(w, r, "/settings", "Password changed.")
}

// ShopSettingsSubmit handles POST /settings/shop (admin only).
func (s *Server) ShopSettingsSubmit(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("shop_name"))
	if name == "" {
		redirectErr(w, r, "/settings", fmt.Errorf("%w: shop name is required", model.ErrValidation), "")
		return
	}

	if err := store.SetSetting(r.Context(), s.DB, SettingShopName, name); err != nil {
		redirectErr(w, r, "/settings", err, "Failed to save shop name")
		return
	}

	slog.Info("shop name changed", "user", GetWebClaims(r.Context()).Username, "shop_name", name)
	redirectOK(w, r, "/settings", "Shop name saved.")
}
