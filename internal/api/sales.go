package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/nuclear-hardware/hms/internal/metrics"
	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/money"
	"github.com/nuclear-hardware/hms/internal/store"
)

// defaultSaleLimit caps GET /api/sales when no limit is given.
const defaultSaleLimit = 50

// SalesHandler handles bulk and mixed sales and the sale history.
type SalesHandler struct {
	DB      *sql.DB
	Metrics *metrics.Metrics
}

// checkMixedAmounts rejects sub-cent amounts in a decoded mixed sale.
func checkMixedAmounts(in *model.MixedSaleInput) error {
	prices := make([]decimal.Decimal, 0, len(in.Prices))
	for _, p := range in.Prices {
		prices = append(prices, p)
	}
	if err := money.Check("prices", prices...); err != nil {
		return err
	}
	if err := money.Check("total_discount", in.TotalDiscount); err != nil {
		return err
	}
	return money.Check("total_price", in.TotalPrice.Decimal)
}

// Bulk handles POST /api/sales/bulk.
func (h *SalesHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var in model.BulkSaleInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := money.Check("unit_price", in.UnitPrice); err != nil {
		storeError(w, err, "invalid unit price")
		return
	}

	claims := GetClaims(r.Context())
	in.UserID = claims.UserRef()

	rec, err := store.BulkSale(r.Context(), h.DB, in)
	if err != nil {
		storeError(w, err, "failed to record bulk sale")
		return
	}

	h.Metrics.ObserveSale(rec)
	slog.Info("bulk sale recorded",
		"user", claims.Username,
		"sale_id", rec.ID,
		"count", rec.AssetCount,
		"total", money.Format(rec.TotalSalePrice),
	)
	jsonResponse(w, http.StatusCreated, rec)
}

// Mixed handles POST /api/sales/mixed.
func (h *SalesHandler) Mixed(w http.ResponseWriter, r *http.Request) {
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

	rec, err := store.MixedSale(r.Context(), h.DB, in)
	if err != nil {
		storeError(w, err, "failed to record mixed sale")
		return
	}

	h.Metrics.ObserveSale(rec)
	slog.Info("mixed sale recorded",
		"user", claims.Username,
		"sale_id", rec.ID,
		"count", rec.AssetCount,
		"total", money.Format(rec.TotalSalePrice),
	)
	jsonResponse(w, http.StatusCreated, rec)
}

// List handles GET /api/sales?limit=.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultSaleLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := store.ListSaleRecords(r.Context(), h.DB, limit)
	if err != nil {
		storeError(w, err, "failed to list sales")
		return
	}
	if records == nil {
		records = []model.SaleRecord{}
	}
	jsonResponse(w, http.StatusOK, records)
}

// Get handles GET /api/sales/{id}.
func (h *SalesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid sale id")
		return
	}

	rec, err := store.GetSaleRecord(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get sale")
		return
	}
	if rec == nil {
		jsonError(w, http.StatusNotFound, "sale not found")
		return
	}

	assets, err := store.ListSaleAssets(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to list sale assets")
		return
	}
	if assets == nil {
		assets = []model.Asset{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"sale":        rec,
		"profit_loss": rec.ProfitLoss(),
		"assets":      assets,
	})
}
