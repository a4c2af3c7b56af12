package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nuclear-hardware/hms/internal/db"
	"github.com/nuclear-hardware/hms/internal/model"
)

func TestCreateAssetsGeneratesSerials(t *testing.T) {
	database := db.NewTestDB(t)

	laptop := mustAssetType(t, database, "Laptop", "")
	assets := mustIntake(t, database, laptop.ID, "500.00", 3, model.LocationKirigiti)

	want := []string{"LAP-000001", "LAP-000002", "LAP-000003"}
	if len(assets) != len(want) {
		t.Fatalf("expected %d assets, got %d", len(want), len(assets))
	}
	for i, a := range assets {
		if a.SerialNumber != want[i] {
			t.Errorf("asset %d serial = %q, want %q", i, a.SerialNumber, want[i])
		}
		if a.Status != model.StatusInStock {
			t.Errorf("asset %d status = %s, want IN_STOCK", i, a.Status)
		}
		if !a.PurchasePrice.Equal(dec("500")) {
			t.Errorf("asset %d purchase price = %s", i, a.PurchasePrice)
		}
		if a.AssetTypeName != "Laptop" {
			t.Errorf("asset %d type name = %q", i, a.AssetTypeName)
		}
	}
}

func TestCreateAssetsContinuesAfterHighestSerial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustAssetType(t, database, "Laptop", "")
	mustIntake(t, database, laptop.ID, "500", 2, model.LocationKirigiti)

	// A manually entered serial with the same prefix moves the counter.
	_, err := CreateAssets(ctx, database, model.IntakeInput{
		AssetTypeID:   laptop.ID,
		ModelNumber:   "X1",
		PurchasePrice: dec("500"),
		Quantity:      1,
		SerialNumber:  "LAP-000010",
	})
	if err != nil {
		t.Fatalf("CreateAssets with explicit serial: %v", err)
	}

	assets := mustIntake(t, database, laptop.ID, "500", 2, model.LocationKiambu)
	if assets[0].SerialNumber != "LAP-000011" || assets[1].SerialNumber != "LAP-000012" {
		t.Errorf("expected serials to continue at 11, got %s, %s", assets[0].SerialNumber, assets[1].SerialNumber)
	}
}

func TestCreateAssetsUsesConfiguredPrefix(t *testing.T) {
	database := db.NewTestDB(t)

	desk := mustAssetType(t, database, "Desktop Computer", "pc")
	assets := mustIntake(t, database, desk.ID, "800", 1, model.LocationKirigiti)
	if assets[0].SerialNumber != "PC-000001" {
		t.Errorf("expected PC-000001, got %s", assets[0].SerialNumber)
	}
}

func TestCreateAssetsDuplicateSerial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustAssetType(t, database, "Laptop", "")
	in := model.IntakeInput{
		AssetTypeID:   laptop.ID,
		ModelNumber:   "X1",
		PurchasePrice: dec("500"),
		Quantity:      1,
		SerialNumber:  "SN-123",
	}
	if _, err := CreateAssets(ctx, database, in); err != nil {
		t.Fatalf("first CreateAssets: %v", err)
	}
	if _, err := CreateAssets(ctx, database, in); !errors.Is(err, model.ErrIntegrity) {
		t.Errorf("expected ErrIntegrity, got %v", err)
	}

	_, total, _ := ListAssets(ctx, database, model.AssetFilter{})
	if total != 1 {
		t.Errorf("expected 1 asset after failed intake, got %d", total)
	}
}

func TestCreateAssetsValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustAssetType(t, database, "Laptop", "")

	_, err := CreateAssets(ctx, database, model.IntakeInput{
		AssetTypeID: laptop.ID, ModelNumber: "X1", PurchasePrice: dec("500"), Quantity: 0,
	})
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for zero quantity, got %v", err)
	}

	_, err = CreateAssets(ctx, database, model.IntakeInput{
		AssetTypeID: 999, ModelNumber: "X1", PurchasePrice: dec("500"), Quantity: 1,
	})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown type, got %v", err)
	}
}

func TestListAssetsFilterAndPaginate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustAssetType(t, database, "Laptop", "")
	monitor := mustAssetType(t, database, "Monitor", "")
	mustIntake(t, database, laptop.ID, "500", 5, model.LocationKirigiti)
	mustIntake(t, database, laptop.ID, "500", 2, model.LocationKiambu)
	mustIntake(t, database, monitor.ID, "150", 3, model.LocationKirigiti)

	page, total, err := ListAssets(ctx, database, model.AssetFilter{AssetTypeID: laptop.ID, Limit: 3})
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if total != 7 || len(page) != 3 {
		t.Errorf("expected 3 of 7 laptops, got %d of %d", len(page), total)
	}

	page, total, _ = ListAssets(ctx, database, model.AssetFilter{AssetTypeID: laptop.ID, Limit: 3, Offset: 6})
	if total != 7 || len(page) != 1 {
		t.Errorf("expected last page of 1, got %d of %d", len(page), total)
	}

	_, total, _ = ListAssets(ctx, database, model.AssetFilter{Location: model.LocationKirigiti})
	if total != 8 {
		t.Errorf("expected 8 assets at Kirigiti, got %d", total)
	}

	_, total, _ = ListAssets(ctx, database, model.AssetFilter{Status: model.StatusSold})
	if total != 0 {
		t.Errorf("expected no sold assets, got %d", total)
	}
}

func TestUpdateAsset(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustAssetType(t, database, "Laptop", "")
	a := mustIntake(t, database, laptop.ID, "500", 1, model.LocationKirigiti)[0]

	warranty := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)
	if err := UpdateAsset(ctx, database, a.ID, model.LocationGithurai45, &warranty); err != nil {
		t.Fatalf("UpdateAsset: %v", err)
	}

	got := mustAsset(t, database, a.ID)
	if got.Location != model.LocationGithurai45 {
		t.Errorf("expected location GITHURAI_45, got %s", got.Location)
	}
	if got.WarrantyEndDate == nil || !got.WarrantyEndDate.Equal(warranty) {
		t.Errorf("expected warranty %v, got %v", warranty, got.WarrantyEndDate)
	}

	if err := UpdateAsset(ctx, database, a.ID, "MOMBASA", nil); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if err := UpdateAsset(ctx, database, 999, model.LocationKiambu, nil); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMaintenanceLogs(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustAssetType(t, database, "Laptop", "")
	a := mustIntake(t, database, laptop.ID, "500", 1, model.LocationKirigiti)[0]

	older := time.Now().Add(-48 * time.Hour)
	AddMaintenanceLog(ctx, database, model.MaintenanceInput{
		AssetID: a.ID, LogDate: older, LogType: model.LogTypeInspection, Description: "intake check",
	})
	l, err := AddMaintenanceLog(ctx, database, model.MaintenanceInput{
		AssetID: a.ID, LogType: model.LogTypeRepair, Description: "replaced keyboard", Cost: dec("35.50"),
	})
	if err != nil {
		t.Fatalf("AddMaintenanceLog: %v", err)
	}
	if !l.Cost.Equal(dec("35.5")) {
		t.Errorf("expected cost 35.50, got %s", l.Cost)
	}

	logs, err := ListMaintenanceLogs(ctx, database, a.ID)
	if err != nil {
		t.Fatalf("ListMaintenanceLogs: %v", err)
	}
	if len(logs) != 2 || logs[0].LogType != model.LogTypeRepair {
		t.Errorf("expected newest log first, got %+v", logs)
	}

	_, err = AddMaintenanceLog(ctx, database, model.MaintenanceInput{AssetID: 999, Description: "x"})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCountAssetsByStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustAssetType(t, database, "Laptop", "")
	assets := mustIntake(t, database, laptop.ID, "500", 3, model.LocationKirigiti)
	ScrapAsset(ctx, database, assets[0].ID, nil)

	counts, err := CountAssetsByStatus(ctx, database)
	if err != nil {
		t.Fatalf("CountAssetsByStatus: %v", err)
	}
	if counts[model.StatusInStock] != 2 || counts[model.StatusScrapped] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestListStockLevels(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustAssetType(t, database, "Laptop", "")
	mouse := mustAssetType(t, database, "Mouse", "")
	assets := mustIntake(t, database, laptop.ID, "500", 3, model.LocationKirigiti)
	mustIntake(t, database, laptop.ID, "500", 1, model.LocationKiambu)
	mustIntake(t, database, mouse.ID, "10", 2, model.LocationKirigiti)
	if _, err := MarkPendingSale(ctx, database, assets[0].ID, dec("600")); err != nil {
		t.Fatalf("MarkPendingSale: %v", err)
	}

	levels, err := ListStockLevels(ctx, database)
	if err != nil {
		t.Fatalf("ListStockLevels: %v", err)
	}
	want := []model.StockLevel{
		{AssetTypeID: laptop.ID, AssetTypeName: "Laptop", Location: model.LocationKiambu, Count: 1},
		{AssetTypeID: laptop.ID, AssetTypeName: "Laptop", Location: model.LocationKirigiti, Count: 2},
		{AssetTypeID: mouse.ID, AssetTypeName: "Mouse", Location: model.LocationKirigiti, Count: 2},
	}
	if len(levels) != len(want) {
		t.Fatalf("expected %d levels, got %v", len(want), levels)
	}
	for i := range want {
		if levels[i] != want[i] {
			t.Errorf("level %d: expected %+v, got %+v", i, want[i], levels[i])
		}
	}
}
