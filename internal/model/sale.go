package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleType tells which workflow produced a sale record.
type SaleType string

// Sale types.
const (
	SaleTypeBulk   SaleType = "BULK"
	SaleTypeMixed  SaleType = "MIXED"
	SaleTypeSingle SaleType = "SINGLE"
)

// SaleTypeUnknown labels sold assets whose sale record cannot be resolved.
const SaleTypeUnknown SaleType = "UNKNOWN"

// Label returns the display name of the sale type.
func (t SaleType) Label() string {
	switch t {
	case SaleTypeBulk:
		return "Quick Bulk Sale"
	case SaleTypeMixed:
		return "Mixed Item Sale"
	case SaleTypeSingle:
		return "Single Asset Sale"
	default:
		return "Unknown"
	}
}

// SaleRecord is the immutable receipt of a sale or scrap write-off.
type SaleRecord struct {
	ID                int64           `json:"id"`
	SaleType          SaleType        `json:"sale_type"`
	Scrapped          bool            `json:"scrapped"`
	TotalSalePrice    decimal.Decimal `json:"total_sale_price"`
	TotalPurchaseCost decimal.Decimal `json:"total_purchase_cost"`
	TotalDiscount     decimal.Decimal `json:"total_discount"`
	Notes             string          `json:"notes,omitempty"`
	CreatedBy         *int64          `json:"created_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`

	// Joined fields (not always populated).
	AssetCount int `json:"asset_count"`
}

// ProfitLoss is always derived from the stored totals.
func (r *SaleRecord) ProfitLoss() decimal.Decimal {
	return r.TotalSalePrice.Sub(r.TotalPurchaseCost)
}

// SoldAsset is one reporting row: a sold asset with its resolved sale.
type SoldAsset struct {
	AssetID       int64           `json:"asset_id"`
	SerialNumber  string          `json:"serial_number"`
	ModelNumber   string          `json:"model_number"`
	AssetTypeName string          `json:"asset_type_name"`
	Location      Location        `json:"location"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	SaleRecordID  *int64          `json:"sale_record_id,omitempty"`
	SaleType      SaleType        `json:"sale_type"`
	SaleDate      *time.Time      `json:"sale_date,omitempty"`
}

// Profit is sale price minus purchase price.
func (s SoldAsset) Profit() decimal.Decimal {
	return s.SalePrice.Sub(s.PurchasePrice)
}
