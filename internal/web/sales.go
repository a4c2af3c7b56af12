package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/money"
	"github.com/nuclear-hardware/hms/internal/store"
)

// saleHistory is how many sale records the sales page lists.
const saleHistory = 100

// BulkSalePage handles GET /sales/bulk.
func (s *Server) BulkSalePage(w http.ResponseWriter, r *http.Request) {
	p := s.page(w, r, "Quick bulk sale")

	types, err := store.ListAssetTypes(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list asset types", "error", err)
	}
	levels, err := store.ListStockLevels(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list stock levels", "error", err)
	}

	s.Templates.Render(w, "bulk_sale.html", &struct {
		PageData
		Types     []model.AssetType
		Locations []model.Location
		Default   model.Location
		Stock     []model.StockLevel
	}{
		PageData:  p,
		Types:     types,
		Locations: model.Locations,
		Default:   model.DefaultLocation,
		Stock:     levels,
	})
}

// BulkSaleSubmit handles POST /sales/bulk.
func (s *Server) BulkSaleSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	typeID, _ := strconv.ParseInt(r.FormValue("asset_type_id"), 10, 64)
	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		redirectErr(w, r, "/sales/bulk", fmt.Errorf("%w: invalid quantity", model.ErrValidation), "")
		return
	}
	price, err := money.ParsePositive("unit price", r.FormValue("unit_price"))
	if err != nil {
		redirectErr(w, r, "/sales/bulk", err, "")
		return
	}

	rec, err := store.BulkSale(r.Context(), s.DB, model.BulkSaleInput{
		AssetTypeID: typeID,
		Location:    model.Location(r.FormValue("location")),
		Quantity:    quantity,
		UnitPrice:   price,
		UserID:      claims.UserRef(),
	})
	if err != nil {
		redirectErr(w, r, "/sales/bulk", err, "Bulk sale failed")
		return
	}

	s.Metrics.ObserveSale(rec)
	slog.Info("bulk sale recorded", "user", claims.Username, "sale_id", rec.ID, "quantity", rec.AssetCount, "total", money.Format(rec.TotalSalePrice))
	redirectOK(w, r, fmt.Sprintf("/sales/%d", rec.ID), fmt.Sprintf("Successfully sold %d units.", rec.AssetCount))
}

// SalesPage handles GET /sales.
func (s *Server) SalesPage(w http.ResponseWriter, r *http.Request) {
	p := s.page(w, r, "Sales")
	records, err := store.ListSaleRecords(r.Context(), s.DB, saleHistory)
	if err != nil {
		slog.Error("failed to list sales", "error", err)
		p.Error = "Failed to load sales."
	}

	s.Templates.Render(w, "sales.html", &struct {
		PageData
		Sales []model.SaleRecord
	}{
		PageData: p,
		Sales:    records,
	})
}

// SaleDetailPage handles GET /sales/{id}.
func (s *Server) SaleDetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	rec, err := store.GetSaleRecord(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get sale", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "sale not found", http.StatusNotFound)
		return
	}

	assets, err := store.ListSaleAssets(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to list sale assets", "error", err)
	}

	s.Templates.Render(w, "sale_detail.html", &struct {
		PageData
		Sale   *model.SaleRecord
		Assets []model.Asset
	}{
		PageData: s.page(w, r, fmt.Sprintf("Sale #%d", rec.ID)),
		Sale:     rec,
		Assets:   assets,
	})
}
