package store

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/nuclear-hardware/hms/internal/db"
	"github.com/nuclear-hardware/hms/internal/model"
)

func TestCartItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustAssetType(t, database, "Laptop", "")
	assets := mustIntake(t, database, laptop.ID, "500", 3, model.LocationKirigiti)

	AddCartItem(ctx, database, "s1", assets[2].ID)
	added, err := AddCartItem(ctx, database, "s1", assets[0].ID)
	if err != nil || !added {
		t.Fatalf("AddCartItem = %v, %v", added, err)
	}
	added, _ = AddCartItem(ctx, database, "s1", assets[0].ID)
	if added {
		t.Error("adding the same asset twice should report false")
	}
	AddCartItem(ctx, database, "s2", assets[1].ID)

	ids, _ := ListCartItems(ctx, database, "s1")
	if !slices.Equal(ids, []int64{assets[0].ID, assets[2].ID}) {
		t.Errorf("unexpected cart %v", ids)
	}

	removed, _ := RemoveCartItem(ctx, database, "s1", assets[1].ID)
	if removed {
		t.Error("removing an absent asset should report false")
	}
	removed, _ = RemoveCartItem(ctx, database, "s1", assets[2].ID)
	if !removed {
		t.Error("expected asset to be removed")
	}

	ClearCart(ctx, database, "s1")
	ids, _ = ListCartItems(ctx, database, "s1")
	if len(ids) != 0 {
		t.Errorf("expected empty cart, got %v", ids)
	}
	ids, _ = ListCartItems(ctx, database, "s2")
	if len(ids) != 1 {
		t.Errorf("other session's cart should be untouched, got %v", ids)
	}
}

func TestPurgeCarts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustAssetType(t, database, "Laptop", "")
	a := mustIntake(t, database, laptop.ID, "500", 1, model.LocationKirigiti)[0]
	AddCartItem(ctx, database, "old", a.ID)

	n, err := PurgeCarts(ctx, database, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("PurgeCarts: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged row, got %d", n)
	}
}
