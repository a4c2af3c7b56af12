package web

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nuclear-hardware/hms/internal/model"
)

const flashCookie = "flash"

type flashKind string

const (
	flashSuccess flashKind = "success"
	flashError   flashKind = "error"
)

type flash struct {
	Kind    flashKind
	Message string
}

// setFlash stores a one-shot message for the next page view.
func setFlash(w http.ResponseWriter, kind flashKind, msg string) {
	value := base64.RawURLEncoding.EncodeToString([]byte(string(kind) + ":" + msg))
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// popFlash reads and clears the pending flash message.
func popFlash(w http.ResponseWriter, r *http.Request) (flash, bool) {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return flash{}, false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return flash{}, false
	}
	kind, msg, ok := strings.Cut(string(raw), ":")
	if !ok {
		return flash{}, false
	}
	return flash{Kind: flashKind(kind), Message: msg}, true
}

// redirectOK flashes a success message and redirects.
func redirectOK(w http.ResponseWriter, r *http.Request, to, msg string) {
	setFlash(w, flashSuccess, msg)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// redirectErr flashes err and redirects. Domain errors are shown as they are;
// anything else is logged and replaced by msg.
func redirectErr(w http.ResponseWriter, r *http.Request, to string, err error, msg string) {
	setFlash(w, flashError, userMessage(err, msg))
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func userMessage(err error, fallback string) string {
	for _, sentinel := range []error{
		model.ErrValidation,
		model.ErrInvalidTransition,
		model.ErrInsufficientStock,
		model.ErrMissingPrice,
		model.ErrIntegrity,
		model.ErrNotFound,
	} {
		if errors.Is(err, sentinel) {
			return err.Error()
		}
	}
	slog.Error(fallback, "error", err)
	return fallback + "."
}
