package web

import (
	"database/sql"
	"net/http"

	"github.com/nuclear-hardware/hms/internal/cart"
	"github.com/nuclear-hardware/hms/internal/metrics"
	"github.com/nuclear-hardware/hms/internal/model"
	webembed "github.com/nuclear-hardware/hms/web"
)

// Options carries the optional collaborators of the web UI.
type Options struct {
	// Cart defaults to a database-backed cart.
	Cart     *cart.Service
	Metrics  *metrics.Metrics
	ShopName string
	PageSize int
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, jwtSecret string, opts Options) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	if opts.Cart == nil {
		opts.Cart = &cart.Service{DB: db, Store: &cart.SQLStore{DB: db}}
	}
	if opts.PageSize < 1 {
		opts.PageSize = 30
	}

	s := &Server{
		DB:        db,
		Templates: templates,
		JWTSecret: jwtSecret,
		Cart:      opts.Cart,
		Metrics:   opts.Metrics,
		ShopName:  opts.ShopName,
		PageSize:  opts.PageSize,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, db)
	manager := func(h http.HandlerFunc) http.Handler {
		return cookieAuth(requireRole(model.RoleManager)(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return cookieAuth(requireRole(model.RoleAdmin)(h))
	}

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", cookieAuth(http.HandlerFunc(s.Dashboard)))

	mux.Handle("GET /assets", cookieAuth(http.HandlerFunc(s.AssetsPage)))
	mux.Handle("GET /assets/new", manager(s.AssetNewPage))
	mux.Handle("POST /assets/new", manager(s.AssetCreateSubmit))
	mux.Handle("GET /assets/{id}", cookieAuth(http.HandlerFunc(s.AssetDetailPage)))
	mux.Handle("POST /assets/{id}", manager(s.AssetUpdateSubmit))
	mux.Handle("POST /assets/{id}/maintenance", cookieAuth(http.HandlerFunc(s.MaintenanceSubmit)))
	mux.Handle("POST /assets/{id}/status", cookieAuth(http.HandlerFunc(s.StatusSubmit)))

	mux.Handle("GET /asset-types", cookieAuth(http.HandlerFunc(s.AssetTypesPage)))
	mux.Handle("POST /asset-types", manager(s.AssetTypeCreateSubmit))
	mux.Handle("POST /asset-types/{id}", manager(s.AssetTypeUpdateSubmit))
	mux.Handle("POST /asset-types/{id}/delete", manager(s.AssetTypeDeleteSubmit))
	mux.Handle("POST /asset-types/{id}/image", manager(s.AssetTypeImageSubmit))
	mux.Handle("GET /asset-types/{id}/image", cookieAuth(http.HandlerFunc(s.AssetTypeImageGet)))

	mux.Handle("GET /sales", cookieAuth(http.HandlerFunc(s.SalesPage)))
	mux.Handle("GET /sales/bulk", cookieAuth(http.HandlerFunc(s.BulkSalePage)))
	mux.Handle("POST /sales/bulk", cookieAuth(http.HandlerFunc(s.BulkSaleSubmit)))
	mux.Handle("GET /sales/{id}", cookieAuth(http.HandlerFunc(s.SaleDetailPage)))

	mux.Handle("GET /cart", cookieAuth(http.HandlerFunc(s.CartPage)))
	mux.Handle("POST /cart/add/{id}", cookieAuth(http.HandlerFunc(s.CartAddSubmit)))
	mux.Handle("POST /cart/remove/{id}", cookieAuth(http.HandlerFunc(s.CartRemoveSubmit)))
	mux.Handle("POST /cart/checkout", cookieAuth(http.HandlerFunc(s.CheckoutSubmit)))

	mux.Handle("GET /reports", manager(s.ReportsPage))
	mux.Handle("GET /reports/sold.csv", manager(s.ReportCSV))
	mux.Handle("GET /reports/sold.xlsx", manager(s.ReportXLSX))

	mux.Handle("GET /users", admin(s.UsersPage))
	mux.Handle("POST /users", admin(s.UserCreateSubmit))
	mux.Handle("POST /users/{id}/password", admin(s.UserResetPasswordSubmit))
	mux.Handle("POST /users/{id}/role", admin(s.UserUpdateRoleSubmit))
	mux.Handle("POST /users/{id}/delete", admin(s.UserDeleteSubmit))

	mux.Handle("GET /settings", cookieAuth(http.HandlerFunc(s.SettingsPage)))
	mux.Handle("POST /settings", cookieAuth(http.HandlerFunc(s.SettingsSubmit)))
	mux.Handle("POST /settings/shop", admin(s.ShopSettingsSubmit))

	return mux, nil
}
