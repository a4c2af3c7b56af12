package api

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nuclear-hardware/hms/internal/cart"
	"github.com/nuclear-hardware/hms/internal/metrics"
	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/money"
)

// CartHandler handles the per-session cart. The session is the login token,
// so each login has its own cart.
type CartHandler struct {
	Cart    *cart.Service
	Metrics *metrics.Metrics
}

type cartResponse struct {
	Items     []model.Asset   `json:"items"`
	Count     int             `json:"count"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

type addToCartResponse struct {
	Added   bool   `json:"added"`
	Message string `json:"message"`
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	items, err := h.Cart.Items(r.Context(), claims.Session())
	if err != nil {
		storeError(w, err, "failed to load cart")
		return
	}
	if items == nil {
		items = []model.Asset{}
	}

	costs := make([]decimal.Decimal, len(items))
	for i, a := range items {
		costs[i] = a.PurchasePrice
	}
	jsonResponse(w, http.StatusOK, cartResponse{
		Items:     items,
		Count:     len(items),
		TotalCost: money.Sum(costs),
	})
}

// Add handles POST /api/cart/items/{id}. Assets that are not in stock are
// refused with 409 and leave the cart unchanged.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	claims := GetClaims(r.Context())
	result, asset, err := h.Cart.Add(r.Context(), claims.Session(), id)
	if err != nil {
		storeError(w, err, "failed to add to cart")
		return
	}

	msg := result.Message(asset.SerialNumber)
	if result == cart.Unavailable {
		jsonError(w, http.StatusConflict, msg)
		return
	}
	jsonResponse(w, http.StatusOK, addToCartResponse{Added: result == cart.Added, Message: msg})
}

// Remove handles DELETE /api/cart/items/{id}.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	claims := GetClaims(r.Context())
	removed, err := h.Cart.Remove(r.Context(), claims.Session(), id)
	if err != nil {
		storeError(w, err, "failed to remove from cart")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]bool{"removed": removed})
}

// Checkout handles POST /api/cart/checkout. The body carries the prices or
// total for a mixed sale; the asset list comes from the cart.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var in model.MixedSaleInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := checkMixedAmounts(&in); err != nil {
		storeError(w, err, "invalid amount")
		return
	}

	claims := GetClaims(r.Context())
	in.UserID = claims.UserRef()

	rec, err := h.Cart.Checkout(r.Context(), claims.Session(), in)
	if err != nil {
		storeError(w, err, "failed to check out cart")
		return
	}

	h.Metrics.ObserveSale(rec)
	slog.Info("cart checked out",
		"user", claims.Username,
		"sale_id", rec.ID,
		"count", rec.AssetCount,
		"total", money.Format(rec.TotalSalePrice),
	)
	jsonResponse(w, http.StatusCreated, rec)
}
