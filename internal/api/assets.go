package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nuclear-hardware/hms/internal/metrics"
	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/money"
	"github.com/nuclear-hardware/hms/internal/store"
)

// dateLayout is the format for date-only request fields.
const dateLayout = "2006-01-02"

// AssetsHandler handles asset intake, listing and single-asset status changes.
type AssetsHandler struct {
	DB       *sql.DB
	Metrics  *metrics.Metrics
	PageSize int
}

type intakeRequest struct {
	AssetTypeID     int64           `json:"asset_type_id"`
	ModelNumber     string          `json:"model_number"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	Location        model.Location  `json:"location"`
	WarrantyEndDate string          `json:"warranty_end_date"`
	Quantity        int             `json:"quantity"`
	SerialNumber    string          `json:"serial_number"`
}

type updateAssetRequest struct {
	Location        model.Location `json:"location"`
	WarrantyEndDate string         `json:"warranty_end_date"`
}

type pendingSaleRequest struct {
	Price decimal.Decimal `json:"price"`
}

type maintenanceRequest struct {
	LogDate     string          `json:"log_date"`
	LogType     string          `json:"log_type"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
}

type assetPage struct {
	Assets   []model.Asset `json:"assets"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// parseDate reads an optional date-only field.
func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a date like 2006-01-02", model.ErrValidation, field)
	}
	return &t, nil
}

// List handles GET /api/assets?status=&location=&type=&page=.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.AssetFilter{
		Status:   model.AssetStatus(q.Get("status")),
		Location: model.Location(q.Get("location")),
		Limit:    h.PageSize,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if filter.Location != "" && !filter.Location.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid location")
		return
	}
	if s := q.Get("type"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid asset type id")
			return
		}
		filter.AssetTypeID = id
	}
	page := 1
	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			jsonError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}
	filter.Offset = (page - 1) * h.PageSize

	assets, total, err := store.ListAssets(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err, "failed to list assets")
		return
	}
	if assets == nil {
		assets = []model.Asset{}
	}
	jsonResponse(w, http.StatusOK, assetPage{Assets: assets, Total: total, Page: page, PageSize: h.PageSize})
}

// Create handles POST /api/assets. One request may receive several
// identical units; each gets its own serial number.
func (h *AssetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	warranty, err := parseDate("warranty_end_date", req.WarrantyEndDate)
	if err != nil {
		storeError(w, err, "invalid warranty date")
		return
	}
	if err := money.Check("purchase_price", req.PurchasePrice); err != nil {
		storeError(w, err, "invalid purchase price")
		return
	}

	assets, err := store.CreateAssets(r.Context(), h.DB, model.IntakeInput{
		AssetTypeID:     req.AssetTypeID,
		ModelNumber:     req.ModelNumber,
		PurchasePrice:   req.PurchasePrice,
		Location:        req.Location,
		WarrantyEndDate: warranty,
		Quantity:        req.Quantity,
		SerialNumber:    req.SerialNumber,
	})
	if err != nil {
		storeError(w, err, "failed to create assets")
		return
	}

	h.Metrics.ObserveIntake(len(assets))
	slog.Info("assets received",
		"user", GetClaims(r.Context()).Username,
		"type_id", req.AssetTypeID,
		"model", req.ModelNumber,
		"count", len(assets),
	)
	jsonResponse(w, http.StatusCreated, assets)
}

// Get handles GET /api/assets/{id}.
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	asset, err := store.GetAsset(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get asset")
		return
	}
	if asset == nil {
		jsonError(w, http.StatusNotFound, "asset not found")
		return
	}

	logs, err := store.ListMaintenanceLogs(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to list maintenance logs")
		return
	}
	if logs == nil {
		logs = []model.MaintenanceLog{}
	}

	resp := map[string]any{
		"asset":       asset,
		"maintenance": logs,
	}
	if pl, ok := asset.ProfitLoss(); ok {
		resp["profit_loss"] = pl
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Update handles PUT /api/assets/{id}.
func (h *AssetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	var req updateAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	warranty, err := parseDate("warranty_end_date", req.WarrantyEndDate)
	if err != nil {
		storeError(w, err, "invalid warranty date")
		return
	}

	if err := store.UpdateAsset(r.Context(), h.DB, id, req.Location, warranty); err != nil {
		storeError(w, err, "failed to update asset")
		return
	}

	asset, err := store.GetAsset(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get asset")
		return
	}
	jsonResponse(w, http.StatusOK, asset)
}

// ListMaintenance handles GET /api/assets/{id}/maintenance.
func (h *AssetsHandler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	logs, err := store.ListMaintenanceLogs(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to list maintenance logs")
		return
	}
	if logs == nil {
		logs = []model.MaintenanceLog{}
	}
	jsonResponse(w, http.StatusOK, logs)
}

// AddMaintenance handles POST /api/assets/{id}/maintenance.
func (h *AssetsHandler) AddMaintenance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	var req maintenanceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := parseDate("log_date", req.LogDate)
	if err != nil {
		storeError(w, err, "invalid log date")
		return
	}
	if err := money.Check("cost", req.Cost); err != nil {
		storeError(w, err, "invalid cost")
		return
	}

	in := model.MaintenanceInput{
		AssetID:     id,
		LogType:     req.LogType,
		Description: req.Description,
		Cost:        req.Cost,
	}
	if date != nil {
		in.LogDate = *date
	}

	entry, err := store.AddMaintenanceLog(r.Context(), h.DB, in)
	if err != nil {
		storeError(w, err, "failed to add maintenance log")
		return
	}
	jsonResponse(w, http.StatusCreated, entry)
}

// MarkPending handles POST /api/assets/{id}/pending.
func (h *AssetsHandler) MarkPending(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	var req pendingSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := money.Check("price", req.Price); err != nil {
		storeError(w, err, "invalid price")
		return
	}

	asset, err := store.MarkPendingSale(r.Context(), h.DB, id, req.Price)
	if err != nil {
		storeError(w, err, "failed to mark asset pending")
		return
	}

	slog.Info("asset marked pending sale", "user", GetClaims(r.Context()).Username, "serial", asset.SerialNumber, "price", money.Format(req.Price))
	jsonResponse(w, http.StatusOK, asset)
}

// Confirm handles POST /api/assets/{id}/confirm.
func (h *AssetsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	claims := GetClaims(r.Context())
	rec, err := store.ConfirmSale(r.Context(), h.DB, id, claims.UserRef())
	if err != nil {
		storeError(w, err, "failed to confirm sale")
		return
	}

	h.Metrics.ObserveSale(rec)
	slog.Info("sale confirmed", "user", claims.Username, "asset_id", id, "sale_id", rec.ID)
	jsonResponse(w, http.StatusCreated, rec)
}

// Scrap handles POST /api/assets/{id}/scrap.
func (h *AssetsHandler) Scrap(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	claims := GetClaims(r.Context())
	rec, err := store.ScrapAsset(r.Context(), h.DB, id, claims.UserRef())
	if err != nil {
		storeError(w, err, "failed to scrap asset")
		return
	}

	h.Metrics.ObserveSale(rec)
	slog.Info("asset scrapped", "user", claims.Username, "asset_id", id, "sale_id", rec.ID)
	jsonResponse(w, http.StatusCreated, rec)
}
