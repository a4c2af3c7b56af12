package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nuclear-hardware/hms/internal/db"
	"github.com/nuclear-hardware/hms/internal/model"
)

func TestListSoldAssets(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustAssetType(t, database, "Laptop", "")
	assets := mustIntake(t, database, laptop.ID, "500", 4, model.LocationKirigiti)

	BulkSale(ctx, database, model.BulkSaleInput{
		AssetTypeID: laptop.ID, Location: model.LocationKirigiti, Quantity: 2, UnitPrice: dec("600"),
	})
	MixedSale(ctx, database, model.MixedSaleInput{
		AssetIDs: []int64{assets[2].ID},
		Prices:   map[int64]decimal.Decimal{assets[2].ID: dec("550")},
	})
	ScrapAsset(ctx, database, assets[3].ID, nil)

	rows, err := ListSoldAssets(ctx, database)
	if err != nil {
		t.Fatalf("ListSoldAssets: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 sold rows (scrap excluded), got %d", len(rows))
	}

	byType := map[model.SaleType]int{}
	for _, r := range rows {
		byType[r.SaleType]++
		if r.SaleDate == nil {
			t.Errorf("asset %d has no sale date", r.AssetID)
		}
		if r.AssetTypeName != "Laptop" {
			t.Errorf("asset %d type = %q", r.AssetID, r.AssetTypeName)
		}
	}
	if byType[model.SaleTypeBulk] != 2 || byType[model.SaleTypeMixed] != 1 {
		t.Errorf("unexpected sale types %v", byType)
	}
}

func TestListSoldAssetsMissingSaleRecord(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustAssetType(t, database, "Laptop", "")
	a := mustIntake(t, database, laptop.ID, "500", 1, model.LocationKirigiti)[0]
	MarkPendingSale(ctx, database, a.ID, dec("650"))
	rec, _ := ConfirmSale(ctx, database, a.ID, nil)

	// Orphan the asset: drop its record with foreign keys off, as a damaged
	// import would leave it.
	conn, err := database.Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	conn.ExecContext(ctx, `PRAGMA foreign_keys = OFF`)
	if _, err := conn.ExecContext(ctx, `DELETE FROM sale_records WHERE id = ?`, rec.ID); err != nil {
		t.Fatalf("deleting sale record: %v", err)
	}
	conn.ExecContext(ctx, `PRAGMA foreign_keys = ON`)
	conn.Close()

	rows, err := ListSoldAssets(ctx, database)
	if err != nil {
		t.Fatalf("ListSoldAssets: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].SaleType != model.SaleTypeUnknown || rows[0].SaleDate != nil {
		t.Errorf("expected UNKNOWN sale without date, got %s %v", rows[0].SaleType, rows[0].SaleDate)
	}
	if !rows[0].Profit().Equal(dec("150")) {
		t.Errorf("expected profit 150, got %s", rows[0].Profit())
	}
}
