package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaintenanceLog is an append-only service entry for an asset.
type MaintenanceLog struct {
	ID          int64           `json:"id"`
	AssetID     int64           `json:"asset_id"`
	LogDate     time.Time       `json:"log_date"`
	LogType     string          `json:"log_type"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Maintenance categories.
const (
	LogTypeRepair     = "REPAIR"
	LogTypeUpgrade    = "UPGRADE"
	LogTypeCleaning   = "CLEANING"
	LogTypeInspection = "INSPECTION"
	LogTypeOther      = "OTHER"
)

// LogTypes lists the accepted maintenance categories.
var LogTypes = []string{LogTypeRepair, LogTypeUpgrade, LogTypeCleaning, LogTypeInspection, LogTypeOther}

// ValidLogType reports whether t is a known maintenance category.
func ValidLogType(t string) bool {
	for _, v := range LogTypes {
		if t == v {
			return true
		}
	}
	return false
}
