package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetStatus is the lifecycle state of a hardware unit.
type AssetStatus string

// Asset statuses.
const (
	StatusInStock     AssetStatus = "IN_STOCK"
	StatusPendingSale AssetStatus = "PENDING_SALE"
	StatusSold        AssetStatus = "SOLD"
	StatusScrapped    AssetStatus = "SCRAPPED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []AssetStatus{StatusInStock, StatusPendingSale, StatusSold, StatusScrapped}

// Valid reports whether s is a known status.
func (s AssetStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s AssetStatus) Terminal() bool {
	return s == StatusSold || s == StatusScrapped
}

// Label returns the display name of the status.
func (s AssetStatus) Label() string {
	switch s {
	case StatusInStock:
		return "In Stock"
	case StatusPendingSale:
		return "Pending Sale"
	case StatusSold:
		return "Sold"
	case StatusScrapped:
		return "Scrapped"
	default:
		return string(s)
	}
}

var transitions = map[AssetStatus][]AssetStatus{
	StatusInStock:     {StatusPendingSale, StatusSold, StatusScrapped},
	StatusPendingSale: {StatusSold, StatusScrapped},
}

// CanTransition reports whether an asset may move from one status to another.
func CanTransition(from, to AssetStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Location is one of the shop branches holding stock.
type Location string

// Locations.
const (
	LocationGithurai45 Location = "GITHURAI_45"
	LocationKirigiti   Location = "KIRIGITI"
	LocationKiambu     Location = "KIAMBU"
)

// DefaultLocation is used when intake does not name one.
const DefaultLocation = LocationKirigiti

// Locations lists every branch.
var Locations = []Location{LocationGithurai45, LocationKirigiti, LocationKiambu}

// Valid reports whether l is a known location.
func (l Location) Valid() bool {
	for _, v := range Locations {
		if l == v {
			return true
		}
	}
	return false
}

// Label returns the display name of the location.
func (l Location) Label() string {
	switch l {
	case LocationGithurai45:
		return "Githurai 45"
	case LocationKirigiti:
		return "Kirigiti"
	case LocationKiambu:
		return "Kiambu"
	default:
		return string(l)
	}
}

// Asset is a single tracked hardware unit.
type Asset struct {
	ID                  int64               `json:"id"`
	AssetTypeID         int64               `json:"asset_type_id"`
	ModelNumber         string              `json:"model_number"`
	SerialNumber        string              `json:"serial_number,omitempty"`
	PurchasePrice       decimal.Decimal     `json:"purchase_price"`
	PurchaseDate        time.Time           `json:"purchase_date"`
	Location            Location            `json:"location"`
	Status              AssetStatus         `json:"status"`
	WarrantyEndDate     *time.Time          `json:"warranty_end_date,omitempty"`
	PendingSalePrice    decimal.NullDecimal `json:"pending_sale_price"`
	SaleRecordID        *int64              `json:"sale_record_id,omitempty"`
	IndividualSalePrice decimal.NullDecimal `json:"individual_sale_price"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`

	// Joined fields (not always populated).
	AssetTypeName string `json:"asset_type_name,omitempty"`
}

// SalePrice returns the final price when the asset is sold.
func (a *Asset) SalePrice() (decimal.Decimal, bool) {
	if a.Status != StatusSold || !a.IndividualSalePrice.Valid {
		return decimal.Zero, false
	}
	return a.IndividualSalePrice.Decimal, true
}

// ProfitLoss returns sale price minus purchase price for sold assets.
func (a *Asset) ProfitLoss() (decimal.Decimal, bool) {
	price, ok := a.SalePrice()
	if !ok {
		return decimal.Zero, false
	}
	return price.Sub(a.PurchasePrice), true
}

// Sellable reports whether the asset can still be sold or scrapped.
func (a *Asset) Sellable() bool {
	return !a.Status.Terminal()
}

// AssetFilter narrows asset listings. Zero values mean "any".
type AssetFilter struct {
	Status      AssetStatus
	Location    Location
	AssetTypeID int64
	Limit       int
	Offset      int
}

// StockLevel is the number of in-stock units of one type at one location.
type StockLevel struct {
	AssetTypeID   int64    `json:"asset_type_id"`
	AssetTypeName string   `json:"asset_type_name"`
	Location      Location `json:"location"`
	Count         int      `json:"count"`
}
