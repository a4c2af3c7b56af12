package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nuclear-hardware/hms/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustAssetType(t *testing.T, database *sql.DB, name, prefix string) *model.AssetType {
	t.Helper()
	at, err := CreateAssetType(context.Background(), database, name, prefix)
	if err != nil {
		t.Fatalf("CreateAssetType(%q): %v", name, err)
	}
	return at
}

func mustIntake(t *testing.T, database *sql.DB, typeID int64, price string, qty int, loc model.Location) []model.Asset {
	t.Helper()
	assets, err := CreateAssets(context.Background(), database, model.IntakeInput{
		AssetTypeID:   typeID,
		ModelNumber:   "X1",
		PurchasePrice: dec(price),
		Location:      loc,
		Quantity:      qty,
	})
	if err != nil {
		t.Fatalf("CreateAssets: %v", err)
	}
	return assets
}

// setPurchaseDate backdates an asset so FIFO order can be controlled.
func setPurchaseDate(t *testing.T, database *sql.DB, id int64, when time.Time) {
	t.Helper()
	if _, err := database.Exec(`UPDATE assets SET purchase_date = ? WHERE id = ?`, when.UTC(), id); err != nil {
		t.Fatalf("setting purchase date: %v", err)
	}
}

func mustAsset(t *testing.T, database *sql.DB, id int64) *model.Asset {
	t.Helper()
	a, err := GetAsset(context.Background(), database, id)
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if a == nil {
		t.Fatalf("asset %d not found", id)
	}
	return a
}

func countSaleRecords(t *testing.T, database *sql.DB) int {
	t.Helper()
	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM sale_records`).Scan(&n); err != nil {
		t.Fatalf("counting sale records: %v", err)
	}
	return n
}
