package api

import (
	"database/sql"
	"net/http"

	"github.com/nuclear-hardware/hms/internal/cart"
	"github.com/nuclear-hardware/hms/internal/metrics"
	"github.com/nuclear-hardware/hms/internal/model"
)

// DefaultPageSize is used for asset listings when Options leaves it unset.
const DefaultPageSize = 30

// Options carries the optional collaborators of the API.
type Options struct {
	// Cart defaults to a database-backed cart.
	Cart     *cart.Service
	Metrics  *metrics.Metrics
	PageSize int
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, opts Options) http.Handler {
	if opts.Cart == nil {
		opts.Cart = &cart.Service{DB: db, Store: &cart.SQLStore{DB: db}}
	}
	if opts.PageSize < 1 {
		opts.PageSize = DefaultPageSize
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret, Cart: opts.Cart}
	usersHandler := &UsersHandler{DB: db}
	typesHandler := &AssetTypesHandler{DB: db}
	assetsHandler := &AssetsHandler{DB: db, Metrics: opts.Metrics, PageSize: opts.PageSize}
	salesHandler := &SalesHandler{DB: db, Metrics: opts.Metrics}
	cartHandler := &CartHandler{Cart: opts.Cart, Metrics: opts.Metrics}
	reportsHandler := &ReportsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Asset types: read (all roles), write (manager+).
	mux.Handle("GET /api/asset-types", authMW(http.HandlerFunc(typesHandler.List)))
	mux.Handle("POST /api/asset-types", authMW(requireManager(http.HandlerFunc(typesHandler.Create))))
	mux.Handle("GET /api/asset-types/{id}", authMW(http.HandlerFunc(typesHandler.Get)))
	mux.Handle("PUT /api/asset-types/{id}", authMW(requireManager(http.HandlerFunc(typesHandler.Update))))
	mux.Handle("DELETE /api/asset-types/{id}", authMW(requireManager(http.HandlerFunc(typesHandler.Delete))))
	mux.Handle("PUT /api/asset-types/{id}/image", authMW(requireManager(http.HandlerFunc(typesHandler.UploadImage))))
	mux.Handle("GET /api/asset-types/{id}/image", authMW(http.HandlerFunc(typesHandler.GetImage)))

	// Assets: read and sell (all roles), intake, edit and scrap (manager+).
	mux.Handle("GET /api/assets", authMW(http.HandlerFunc(assetsHandler.List)))
	mux.Handle("POST /api/assets", authMW(requireManager(http.HandlerFunc(assetsHandler.Create))))
	mux.Handle("GET /api/assets/{id}", authMW(http.HandlerFunc(assetsHandler.Get)))
	mux.Handle("PUT /api/assets/{id}", authMW(requireManager(http.HandlerFunc(assetsHandler.Update))))
	mux.Handle("GET /api/assets/{id}/maintenance", authMW(http.HandlerFunc(assetsHandler.ListMaintenance)))
	mux.Handle("POST /api/assets/{id}/maintenance", authMW(http.HandlerFunc(assetsHandler.AddMaintenance)))
	mux.Handle("POST /api/assets/{id}/pending", authMW(http.HandlerFunc(assetsHandler.MarkPending)))
	mux.Handle("POST /api/assets/{id}/confirm", authMW(http.HandlerFunc(assetsHandler.Confirm)))
	mux.Handle("POST /api/assets/{id}/scrap", authMW(requireManager(http.HandlerFunc(assetsHandler.Scrap))))

	// Sales (all roles).
	mux.Handle("POST /api/sales/bulk", authMW(http.HandlerFunc(salesHandler.Bulk)))
	mux.Handle("POST /api/sales/mixed", authMW(http.HandlerFunc(salesHandler.Mixed)))
	mux.Handle("GET /api/sales", authMW(http.HandlerFunc(salesHandler.List)))
	mux.Handle("GET /api/sales/{id}", authMW(http.HandlerFunc(salesHandler.Get)))

	// Cart (all roles, one per login).
	mux.Handle("GET /api/cart", authMW(http.HandlerFunc(cartHandler.Get)))
	mux.Handle("POST /api/cart/items/{id}", authMW(http.HandlerFunc(cartHandler.Add)))
	mux.Handle("DELETE /api/cart/items/{id}", authMW(http.HandlerFunc(cartHandler.Remove)))
	mux.Handle("POST /api/cart/checkout", authMW(http.HandlerFunc(cartHandler.Checkout)))

	// Reports (manager+).
	mux.Handle("GET /api/reports/summary", authMW(requireManager(http.HandlerFunc(reportsHandler.Summary))))
	mux.Handle("GET /api/reports/sold", authMW(requireManager(http.HandlerFunc(reportsHandler.SoldAssets))))
	mux.Handle("GET /api/reports/sold.csv", authMW(requireManager(http.HandlerFunc(reportsHandler.CSV))))
	mux.Handle("GET /api/reports/sold.xlsx", authMW(requireManager(http.HandlerFunc(reportsHandler.XLSX))))

	return mux
}
