package web

import (
	"context"
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nuclear-hardware/hms/internal/auth"
	"github.com/nuclear-hardware/hms/internal/cart"
	"github.com/nuclear-hardware/hms/internal/metrics"
	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/money"
	"github.com/nuclear-hardware/hms/internal/store"
	webembed "github.com/nuclear-hardware/hms/web"
)

// SettingShopName is the settings key overriding the configured shop name.
const SettingShopName = "shop_name"

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"roleName":    model.RoleLabel,
		"money":       money.Format,
		"nullMoney": func(d decimal.NullDecimal) string {
			if !d.Valid {
				return ""
			}
			return money.Format(d.Decimal)
		},
		"date": func(t any) string {
			switch v := t.(type) {
			case time.Time:
				if v.IsZero() {
					return ""
				}
				return v.Local().Format("2006-01-02")
			case *time.Time:
				if v == nil {
					return ""
				}
				return v.Local().Format("2006-01-02")
			default:
				return ""
			}
		},
		"datetime": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04")
		},
		"profit": func(v any) string {
			var a *model.Asset
			switch x := v.(type) {
			case *model.Asset:
				a = x
			case model.Asset:
				a = &x
			default:
				return ""
			}
			pl, ok := a.ProfitLoss()
			if !ok {
				return ""
			}
			return money.Format(pl)
		},
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	// Read layout.
	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"dashboard.html",
		"assets.html",
		"asset_new.html",
		"asset_detail.html",
		"asset_types.html",
		"bulk_sale.html",
		"cart.html",
		"sales.html",
		"sale_detail.html",
		"reports.html",
		"users.html",
		"settings.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title     string
	ShopName  string
	User      *auth.Claims
	CartCount int
	Error     string
	Success   string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Templates *Templates
	JWTSecret string
	Cart      *cart.Service
	Metrics   *metrics.Metrics
	ShopName  string
	PageSize  int
}

// page builds the base page data for the current request and consumes any
// pending flash message.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title string) PageData {
	p := PageData{
		Title:    title,
		ShopName: s.shopName(r.Context()),
		User:     GetWebClaims(r.Context()),
	}
	if p.User != nil {
		ids, err := s.Cart.Store.Items(r.Context(), p.User.Session())
		if err != nil {
			slog.Warn("failed to count cart items", "error", err)
		}
		p.CartCount = len(ids)
	}
	if f, ok := popFlash(w, r); ok {
		if f.Kind == flashError {
			p.Error = f.Message
		} else {
			p.Success = f.Message
		}
	}
	return p
}

// shopName returns the stored shop name, falling back to the configured one.
func (s *Server) shopName(ctx context.Context) string {
	name, err := store.GetSetting(ctx, s.DB, SettingShopName)
	if err != nil {
		slog.Warn("failed to read shop name", "error", err)
	}
	if name == "" {
		return s.ShopName
	}
	return name
}
