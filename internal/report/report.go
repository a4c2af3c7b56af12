// Package report aggregates sold assets and exports them as CSV or XLSX.
package report

import (
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/money"
)

// Unknown labels a sale date or type that could not be resolved.
const Unknown = "UNKNOWN"

const dateLayout = "2006-01-02"

// DateCount is the number of assets sold on one calendar day.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Summary holds dashboard totals over sold assets.
type Summary struct {
	Count   int                    `json:"count"`
	Revenue decimal.Decimal        `json:"revenue"`
	Cost    decimal.Decimal        `json:"cost"`
	Profit  decimal.Decimal        `json:"profit"`
	ByType  map[model.SaleType]int `json:"by_type"`
	ByDate  []DateCount            `json:"by_date"`
}

// Summarize aggregates sold-asset rows. Rows without a resolvable sale are
// counted under UNKNOWN instead of being dropped.
func Summarize(rows []model.SoldAsset) Summary {
	s := Summary{
		Revenue: decimal.Zero,
		Cost:    decimal.Zero,
		Profit:  decimal.Zero,
		ByType:  make(map[model.SaleType]int),
	}

	byDate := make(map[string]int)
	for _, r := range rows {
		s.Count++
		s.Revenue = s.Revenue.Add(r.SalePrice)
		s.Cost = s.Cost.Add(r.PurchasePrice)
		s.Profit = s.Profit.Add(r.Profit())
		s.ByType[saleType(r)]++
		byDate[saleDate(r)]++
	}

	for date, n := range byDate {
		s.ByDate = append(s.ByDate, DateCount{Date: date, Count: n})
	}
	// Newest first; UNKNOWN sorts after every real date.
	slices.SortFunc(s.ByDate, func(a, b DateCount) int {
		switch {
		case a.Date == b.Date:
			return 0
		case a.Date == Unknown:
			return 1
		case b.Date == Unknown:
			return -1
		case a.Date > b.Date:
			return -1
		default:
			return 1
		}
	})
	return s
}

// Margin returns profit as a percentage of cost, or zero without cost.
func (s Summary) Margin() decimal.Decimal {
	if s.Cost.IsZero() {
		return decimal.Zero
	}
	return s.Profit.Div(s.Cost).Mul(decimal.NewFromInt(100)).Round(1)
}

func saleType(r model.SoldAsset) model.SaleType {
	switch r.SaleType {
	case model.SaleTypeBulk, model.SaleTypeMixed, model.SaleTypeSingle:
		return r.SaleType
	}
	return model.SaleTypeUnknown
}

func saleDate(r model.SoldAsset) string {
	if r.SaleDate == nil || r.SaleDate.IsZero() {
		return Unknown
	}
	return r.SaleDate.In(time.Local).Format(dateLayout)
}

var header = []string{
	"Asset ID", "Serial Number", "Asset Type", "Model Number", "Location",
	"Purchase Price", "Sale Price", "Profit", "Sale Date", "Sale Type",
}

func record(r model.SoldAsset) []string {
	serial := r.SerialNumber
	if serial == "" {
		serial = "N/A"
	}
	return []string{
		strconv.FormatInt(r.AssetID, 10),
		serial,
		r.AssetTypeName,
		r.ModelNumber,
		r.Location.Label(),
		money.Format(r.PurchasePrice),
		money.Format(r.SalePrice),
		money.Format(r.Profit()),
		saleDate(r),
		string(saleType(r)),
	}
}

// Content types of the export formats.
const (
	CSVContentType  = "text/csv; charset=utf-8"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Filename returns the download name of an export made at t.
func Filename(ext string, t time.Time) string {
	return "sold-assets-" + t.Format(dateLayout) + "." + ext
}
