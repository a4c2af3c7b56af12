package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/money"
	"github.com/nuclear-hardware/hms/internal/store"
)

// formDate reads an optional yyyy-mm-dd form field.
func formDate(r *http.Request, field string) (*time.Time, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a valid date", model.ErrValidation, v)
	}
	return &t, nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// localRedirect returns next when it is a local path, otherwise fallback.
func localRedirect(next, fallback string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return fallback
}

// AssetsPage handles GET /assets.
func (s *Server) AssetsPage(w http.ResponseWriter, r *http.Request) {
	p := s.page(w, r, "Assets")
	q := r.URL.Query()

	filter := model.AssetFilter{
		Status:   model.AssetStatus(q.Get("status")),
		Location: model.Location(q.Get("location")),
		Limit:    s.PageSize,
	}
	if !filter.Status.Valid() {
		filter.Status = ""
	}
	if !filter.Location.Valid() {
		filter.Location = ""
	}
	filter.AssetTypeID, _ = strconv.ParseInt(q.Get("type"), 10, 64)

	page, _ := strconv.Atoi(q.Get("page"))
	page = max(page, 1)
	filter.Offset = (page - 1) * s.PageSize

	assets, total, err := store.ListAssets(r.Context(), s.DB, filter)
	if err != nil {
		slog.Error("failed to list assets", "error", err)
		p.Error = "Failed to load assets."
	}
	types, err := store.ListAssetTypes(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list asset types", "error", err)
	}

	// Filters to carry over into pagination links.
	base := url.Values{}
	if filter.Status != "" {
		base.Set("status", string(filter.Status))
	}
	if filter.Location != "" {
		base.Set("location", string(filter.Location))
	}
	if filter.AssetTypeID > 0 {
		base.Set("type", strconv.FormatInt(filter.AssetTypeID, 10))
	}

	pages := max((total+s.PageSize-1)/s.PageSize, 1)
	pageURL := func(n int) string {
		v := url.Values{}
		for k := range base {
			v.Set(k, base.Get(k))
		}
		v.Set("page", strconv.Itoa(n))
		return "/assets?" + v.Encode()
	}
	var prev, next string
	if page > 1 {
		prev = pageURL(page - 1)
	}
	if page < pages {
		next = pageURL(page + 1)
	}
	s.Templates.Render(w, "assets.html", &struct {
		PageData
		Assets    []model.Asset
		Types     []model.AssetType
		Statuses  []model.AssetStatus
		Locations []model.Location
		Filter    model.AssetFilter
		Total     int
		Page      int
		Pages     int
		PrevURL   string
		NextURL   string
		Self      string
	}{
		PageData:  p,
		Assets:    assets,
		Types:     types,
		Statuses:  model.Statuses,
		Locations: model.Locations,
		Filter:    filter,
		Total:     total,
		Page:      page,
		Pages:     pages,
		PrevURL:   prev,
		NextURL:   next,
		Self:      r.URL.RequestURI(),
	})
}

// AssetNewPage handles GET /assets/new.
func (s *Server) AssetNewPage(w http.ResponseWriter, r *http.Request) {
	p := s.page(w, r, "Receive assets")
	types, err := store.ListAssetTypes(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list asset types", "error", err)
	}

	s.Templates.Render(w, "asset_new.html", &struct {
		PageData
		Types     []model.AssetType
		Locations []model.Location
		Default   model.Location
	}{
		PageData:  p,
		Types:     types,
		Locations: model.Locations,
		Default:   model.DefaultLocation,
	})
}

// AssetCreateSubmit handles POST /assets/new.
func (s *Server) AssetCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	typeID, _ := strconv.ParseInt(r.FormValue("asset_type_id"), 10, 64)
	quantity, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		redirectErr(w, r, "/assets/new", fmt.Errorf("%w: invalid quantity", model.ErrValidation), "")
		return
	}
	price, err := money.ParsePositive("purchase price", r.FormValue("purchase_price"))
	if err != nil {
		redirectErr(w, r, "/assets/new", err, "")
		return
	}
	warranty, err := formDate(r, "warranty_end_date")
	if err != nil {
		redirectErr(w, r, "/assets/new", err, "")
		return
	}

	assets, err := store.CreateAssets(r.Context(), s.DB, model.IntakeInput{
		AssetTypeID:     typeID,
		ModelNumber:     r.FormValue("model_number"),
		PurchasePrice:   price,
		Location:        model.Location(r.FormValue("location")),
		WarrantyEndDate: warranty,
		Quantity:        quantity,
		SerialNumber:    r.FormValue("serial_number"),
	})
	if err != nil {
		redirectErr(w, r, "/assets/new", err, "Failed to add assets")
		return
	}

	s.Metrics.ObserveIntake(len(assets))
	slog.Info("assets received", "user", claims.Username, "type_id", typeID, "count", len(assets))
	redirectOK(w, r, "/assets", fmt.Sprintf("Successfully added %d unit(s) of %s.", len(assets), assets[0].AssetTypeName))
}

// AssetDetailPage handles GET /assets/{id}.
func (s *Server) AssetDetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	asset, err := store.GetAsset(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get asset", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if asset == nil {
		http.Error(w, "asset not found", http.StatusNotFound)
		return
	}

	logs, err := store.ListMaintenanceLogs(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to list maintenance logs", "error", err)
	}

	var sale *model.SaleRecord
	if asset.SaleRecordID != nil {
		sale, err = store.GetSaleRecord(r.Context(), s.DB, *asset.SaleRecordID)
		if err != nil {
			slog.Error("failed to get sale record", "error", err)
		}
	}

	title := asset.SerialNumber
	if title == "" {
		title = fmt.Sprintf("Asset #%d", asset.ID)
	}
	s.Templates.Render(w, "asset_detail.html", &struct {
		PageData
		Asset     *model.Asset
		Logs      []model.MaintenanceLog
		Sale      *model.SaleRecord
		LogTypes  []string
		Locations []model.Location
		Today     string
	}{
		PageData:  s.page(w, r, title),
		Asset:     asset,
		Logs:      logs,
		Sale:      sale,
		LogTypes:  model.LogTypes,
		Locations: model.Locations,
		Today:     time.Now().Format("2006-01-02"),
	})
}

// AssetUpdateSubmit handles POST /assets/{id}.
func (s *Server) AssetUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/assets/%d", id)

	warranty, err := formDate(r, "warranty_end_date")
	if err != nil {
		redirectErr(w, r, back, err, "")
		return
	}
	location := model.Location(r.FormValue("location"))
	if err := store.UpdateAsset(r.Context(), s.DB, id, location, warranty); err != nil {
		redirectErr(w, r, back, err, "Failed to update asset")
		return
	}

	slog.Info("asset updated", "user", GetWebClaims(r.Context()).Username, "asset_id", id, "location", location)
	redirectOK(w, r, back, "Asset updated.")
}

// MaintenanceSubmit handles POST /assets/{id}/maintenance.
func (s *Server) MaintenanceSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/assets/%d", id)

	date, err := formDate(r, "log_date")
	if err != nil {
		redirectErr(w, r, back, err, "")
		return
	}
	cost, err := money.ParseOptional("cost", r.FormValue("cost"))
	if err != nil {
		redirectErr(w, r, back, err, "")
		return
	}

	in := model.MaintenanceInput{
		AssetID:     id,
		LogType:     r.FormValue("log_type"),
		Description: r.FormValue("description"),
		Cost:        cost,
	}
	if date != nil {
		in.LogDate = *date
	}
	if _, err := store.AddMaintenanceLog(r.Context(), s.DB, in); err != nil {
		redirectErr(w, r, back, err, "Error saving maintenance log")
		return
	}

	redirectOK(w, r, back, "Maintenance log added successfully.")
}

// StatusSubmit handles POST /assets/{id}/status. The action field selects
// pending, confirm or scrap.
func (s *Server) StatusSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	claims := GetWebClaims(r.Context())
	back := fmt.Sprintf("/assets/%d", id)

	switch r.FormValue("action") {
	case "pending":
		price, err := money.ParsePositive("sale price", r.FormValue("price"))
		if err != nil {
			redirectErr(w, r, back, err, "")
			return
		}
		asset, err := store.MarkPendingSale(r.Context(), s.DB, id, price)
		if err != nil {
			redirectErr(w, r, back, err, "Error saving pending price")
			return
		}
		slog.Info("asset marked pending sale", "user", claims.Username, "serial", asset.SerialNumber, "price", money.Format(price))
		redirectOK(w, r, back, fmt.Sprintf("Asset %s marked as pending sale. Price saved.", asset.SerialNumber))

	case "confirm":
		rec, err := store.ConfirmSale(r.Context(), s.DB, id, claims.UserRef())
		if err != nil {
			redirectErr(w, r, back, err, "Sale failed")
			return
		}
		s.Metrics.ObserveSale(rec)
		slog.Info("sale confirmed", "user", claims.Username, "asset_id", id, "sale_id", rec.ID)
		redirectOK(w, r, back, "Asset sold successfully.")

	case "scrap":
		if !roleAtLeast(claims, model.RoleManager) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		rec, err := store.ScrapAsset(r.Context(), s.DB, id, claims.UserRef())
		if err != nil {
			redirectErr(w, r, back, err, "Scrapping failed")
			return
		}
		s.Metrics.ObserveSale(rec)
		slog.Info("asset scrapped", "user", claims.Username, "asset_id", id, "sale_id", rec.ID)
		redirectOK(w, r, back, fmt.Sprintf("Asset scrapped. Loss recorded: %s.", money.Format(rec.ProfitLoss().Neg())))

	default:
		redirectErr(w, r, back, fmt.Errorf("%w: unknown action", model.ErrInvalidTransition), "")
	}
}
