package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IntakeInput describes a batch of identical units received into stock.
type IntakeInput struct {
	AssetTypeID     int64           `json:"asset_type_id"`
	ModelNumber     string          `json:"model_number"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	Location        Location        `json:"location"`
	WarrantyEndDate *time.Time      `json:"warranty_end_date,omitempty"`
	Quantity        int             `json:"quantity"`
	SerialNumber    string          `json:"serial_number,omitempty"`
}

// Validate checks the intake request and fills in defaults.
func (in *IntakeInput) Validate() error {
	in.ModelNumber = strings.TrimSpace(in.ModelNumber)
	in.SerialNumber = strings.TrimSpace(in.SerialNumber)
	if in.Location == "" {
		in.Location = DefaultLocation
	}

	switch {
	case in.AssetTypeID <= 0:
		return fmt.Errorf("%w: asset type is required", ErrValidation)
	case in.ModelNumber == "":
		return fmt.Errorf("%w: model number is required", ErrValidation)
	case in.Quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	case !in.PurchasePrice.IsPositive():
		return fmt.Errorf("%w: purchase price must be greater than zero", ErrValidation)
	case !in.Location.Valid():
		return fmt.Errorf("%w: unknown location %q", ErrValidation, in.Location)
	case in.SerialNumber != "" && in.Quantity > 1:
		return fmt.Errorf("%w: an explicit serial number can only be given for a single unit", ErrValidation)
	}
	return nil
}

// BulkSaleInput sells the oldest in-stock units of one type at one location.
type BulkSaleInput struct {
	AssetTypeID int64           `json:"asset_type_id"`
	Location    Location        `json:"location"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UserID      *int64          `json:"-"`
}

// Validate checks the bulk sale request.
func (in *BulkSaleInput) Validate() error {
	switch {
	case in.AssetTypeID <= 0:
		return fmt.Errorf("%w: asset type is required", ErrValidation)
	case !in.Location.Valid():
		return fmt.Errorf("%w: unknown location %q", ErrValidation, in.Location)
	case in.Quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	case !in.UnitPrice.IsPositive():
		return fmt.Errorf("%w: unit price must be greater than zero", ErrValidation)
	}
	return nil
}

// MixedSaleInput sells a selection of assets of any types in one record.
//
// Either Prices is set (one price per asset, with an optional TotalDiscount
// spread proportionally) or TotalPrice is set and is spread over the assets
// in proportion to their purchase cost.
type MixedSaleInput struct {
	AssetIDs      []int64                   `json:"asset_ids"`
	Prices        map[int64]decimal.Decimal `json:"prices,omitempty"`
	TotalDiscount decimal.Decimal           `json:"total_discount"`
	TotalPrice    decimal.NullDecimal       `json:"total_price"`
	Notes         string                    `json:"notes,omitempty"`
	UserID        *int64                    `json:"-"`
}

// ByTotal reports whether the sale uses a single total price.
func (in *MixedSaleInput) ByTotal() bool {
	return in.TotalPrice.Valid
}

// Validate checks the mixed sale request. Checks that need the stored assets,
// such as the discount against the gross price, happen in the store.
func (in *MixedSaleInput) Validate() error {
	in.Notes = strings.TrimSpace(in.Notes)

	if len(in.AssetIDs) == 0 {
		return fmt.Errorf("%w: no assets selected", ErrValidation)
	}
	seen := make(map[int64]bool, len(in.AssetIDs))
	for _, id := range in.AssetIDs {
		if seen[id] {
			return fmt.Errorf("%w: asset %d selected twice", ErrValidation, id)
		}
		seen[id] = true
	}

	if in.ByTotal() {
		if len(in.Prices) > 0 {
			return fmt.Errorf("%w: give either per-item prices or a total price, not both", ErrValidation)
		}
		if !in.TotalDiscount.IsZero() {
			return fmt.Errorf("%w: a discount cannot be combined with a total price", ErrValidation)
		}
		if !in.TotalPrice.Decimal.IsPositive() {
			return fmt.Errorf("%w: total price must be greater than zero", ErrValidation)
		}
		return nil
	}

	for _, id := range in.AssetIDs {
		price, ok := in.Prices[id]
		if !ok {
			return fmt.Errorf("%w: missing sale price for asset %d", ErrValidation, id)
		}
		if !price.IsPositive() {
			return fmt.Errorf("%w: sale price for asset %d must be greater than zero", ErrValidation, id)
		}
	}
	for id := range in.Prices {
		if !seen[id] {
			return fmt.Errorf("%w: price given for asset %d which is not in the sale", ErrValidation, id)
		}
	}
	if in.TotalDiscount.IsNegative() {
		return fmt.Errorf("%w: discount cannot be negative", ErrValidation)
	}
	return nil
}

// MaintenanceInput records a service entry.
type MaintenanceInput struct {
	AssetID     int64           `json:"asset_id"`
	LogDate     time.Time       `json:"log_date"`
	LogType     string          `json:"log_type"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
}

// Validate checks the maintenance entry and fills in defaults.
func (in *MaintenanceInput) Validate() error {
	in.Description = strings.TrimSpace(in.Description)
	in.LogType = strings.ToUpper(strings.TrimSpace(in.LogType))
	if in.LogType == "" {
		in.LogType = LogTypeOther
	}
	if in.LogDate.IsZero() {
		in.LogDate = time.Now().UTC()
	}

	switch {
	case in.AssetID <= 0:
		return fmt.Errorf("%w: asset is required", ErrValidation)
	case !ValidLogType(in.LogType):
		return fmt.Errorf("%w: unknown maintenance type %q", ErrValidation, in.LogType)
	case in.Description == "":
		return fmt.Errorf("%w: description is required", ErrValidation)
	case in.Cost.IsNegative():
		return fmt.Errorf("%w: cost cannot be negative", ErrValidation)
	}
	return nil
}
