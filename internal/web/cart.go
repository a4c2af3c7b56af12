package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nuclear-hardware/hms/internal/cart"
	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/money"
)

// CartPage handles GET /cart.
func (s *Server) CartPage(w http.ResponseWriter, r *http.Request) {
	p := s.page(w, r, "Cart")

	items, err := s.Cart.Items(r.Context(), p.User.Session())
	if err != nil {
		slog.Error("failed to load cart", "error", err)
		p.Error = "Failed to load cart."
	}

	costs := make([]decimal.Decimal, len(items))
	for i, a := range items {
		costs[i] = a.PurchasePrice
	}

	s.Templates.Render(w, "cart.html", &struct {
		PageData
		Items     []model.Asset
		TotalCost decimal.Decimal
	}{
		PageData:  p,
		Items:     items,
		TotalCost: money.Sum(costs),
	})
}

// CartAddSubmit handles POST /cart/add/{id}.
func (s *Server) CartAddSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := localRedirect(r.FormValue("next"), "/assets")

	result, asset, err := s.Cart.Add(r.Context(), GetWebClaims(r.Context()).Session(), id)
	if err != nil {
		redirectErr(w, r, back, err, "Failed to add to cart")
		return
	}

	msg := result.Message(asset.SerialNumber)
	if result == cart.Added {
		redirectOK(w, r, back, msg)
		return
	}
	setFlash(w, flashError, msg)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// CartRemoveSubmit handles POST /cart/remove/{id}.
func (s *Server) CartRemoveSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	removed, err := s.Cart.Remove(r.Context(), GetWebClaims(r.Context()).Session(), id)
	if err != nil {
		redirectErr(w, r, "/cart", err, "Failed to remove from cart")
		return
	}
	if !removed {
		setFlash(w, flashError, fmt.Sprintf("Asset ID #%d was not found in the cart.", id))
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	redirectOK(w, r, "/cart", fmt.Sprintf("Asset ID #%d removed from cart.", id))
}

// CheckoutSubmit handles POST /cart/checkout. With mode=total the sale uses
// one total price; otherwise each item has its own price_<id> field.
func (s *Server) CheckoutSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	session := claims.Session()

	in := model.MixedSaleInput{
		Notes:  r.FormValue("notes"),
		UserID: claims.UserRef(),
	}

	if r.FormValue("mode") == "total" {
		total, err := money.ParsePositive("total price", r.FormValue("total_price"))
		if err != nil {
			redirectErr(w, r, "/cart", err, "")
			return
		}
		in.TotalPrice = decimal.NewNullDecimal(total)
	} else {
		ids, err := s.Cart.Store.Items(r.Context(), session)
		if err != nil {
			redirectErr(w, r, "/cart", err, "Failed to load cart")
			return
		}
		in.Prices = make(map[int64]decimal.Decimal, len(ids))
		for _, id := range ids {
			price, err := money.ParsePositive(fmt.Sprintf("price of asset #%d", id), r.FormValue(fmt.Sprintf("price_%d", id)))
			if err != nil {
				redirectErr(w, r, "/cart", err, "")
				return
			}
			in.Prices[id] = price
		}
		in.TotalDiscount, err = money.ParseOptional("discount", r.FormValue("total_discount"))
		if err != nil {
			redirectErr(w, r, "/cart", err, "")
			return
		}
	}

	rec, err := s.Cart.Checkout(r.Context(), session, in)
	if err != nil {
		redirectErr(w, r, "/cart", err, "Failed to finalize sale")
		return
	}

	s.Metrics.ObserveSale(rec)
	slog.Info("cart checked out", "user", claims.Username, "sale_id", rec.ID, "quantity", rec.AssetCount, "total", money.Format(rec.TotalSalePrice))
	redirectOK(w, r, fmt.Sprintf("/sales/%d", rec.ID), fmt.Sprintf(
		"Successfully finalized sale for %d assets. Total discount applied: %s",
		rec.AssetCount, money.Format(rec.TotalDiscount),
	))
}
