package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nuclear-hardware/hms/internal/auth"
	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/store"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &PageData{Title: "Log in", ShopName: s.shopName(r.Context())})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	fail := func(msg string) {
		s.Templates.Render(w, "login.html", &PageData{
			Title:    "Log in",
			ShopName: s.shopName(r.Context()),
			Error:    msg,
		})
	}

	if username == "" || password == "" {
		fail("Enter your username and password.")
		return
	}

	lookup := func(ctx context.Context, name string) (*model.User, error) {
		return store.GetUserByUsername(ctx, s.DB, name)
	}
	user, token, err := auth.Login(r.Context(), s.JWTSecret, lookup, username, password)
	if errors.Is(err, auth.ErrBadCredentials) {
		slog.Warn("login failed", "username", username, "remote", r.RemoteAddr)
		fail("Invalid username or password.")
		return
	}
	if err != nil {
		slog.Error("failed to log in", "error", err)
		fail("Login failed.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(auth.TokenExpiry / time.Second),
	})

	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout. The session's cart is dropped with it.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(tokenCookie); err == nil {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil {
			if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.Expiry()); err != nil {
				slog.Error("failed to revoke token", "error", err)
			}
			if err := s.Cart.Store.Clear(r.Context(), claims.Session()); err != nil {
				slog.Warn("failed to clear cart on logout", "error", err)
			}
			slog.Info("user logged out", "user", claims.Username)
		}
	}

	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
