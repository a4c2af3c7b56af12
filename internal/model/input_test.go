package model

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestIntakeInputValidate(t *testing.T) {
	valid := func() IntakeInput {
		return IntakeInput{
			AssetTypeID:   1,
			ModelNumber:   " X1 ",
			PurchasePrice: decimal.NewFromInt(500),
			Quantity:      3,
		}
	}

	in := valid()
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if in.Location != DefaultLocation {
		t.Errorf("expected default location, got %q", in.Location)
	}
	if in.ModelNumber != "X1" {
		t.Errorf("expected trimmed model number, got %q", in.ModelNumber)
	}

	tests := []struct {
		name   string
		mutate func(*IntakeInput)
	}{
		{"zero quantity", func(in *IntakeInput) { in.Quantity = 0 }},
		{"zero price", func(in *IntakeInput) { in.PurchasePrice = decimal.Zero }},
		{"negative price", func(in *IntakeInput) { in.PurchasePrice = decimal.NewFromInt(-1) }},
		{"no model", func(in *IntakeInput) { in.ModelNumber = "  " }},
		{"bad location", func(in *IntakeInput) { in.Location = "NAIROBI" }},
		{"serial with batch", func(in *IntakeInput) { in.SerialNumber = "SN-1" }},
		{"no type", func(in *IntakeInput) { in.AssetTypeID = 0 }},
	}
	for _, tt := range tests {
		in := valid()
		tt.mutate(&in)
		if err := in.Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tt.name, err)
		}
	}
}

func TestMixedSaleInputValidate(t *testing.T) {
	hundred := decimal.NewFromInt(100)

	tests := []struct {
		name    string
		in      MixedSaleInput
		wantErr bool
	}{
		{"per item", MixedSaleInput{AssetIDs: []int64{1, 2}, Prices: map[int64]decimal.Decimal{1: hundred, 2: hundred}}, false},
		{"by total", MixedSaleInput{AssetIDs: []int64{1, 2}, TotalPrice: decimal.NewNullDecimal(hundred)}, false},
		{"empty", MixedSaleInput{}, true},
		{"duplicate", MixedSaleInput{AssetIDs: []int64{1, 1}, Prices: map[int64]decimal.Decimal{1: hundred}}, true},
		{"missing price", MixedSaleInput{AssetIDs: []int64{1, 2}, Prices: map[int64]decimal.Decimal{1: hundred}}, true},
		{"zero price", MixedSaleInput{AssetIDs: []int64{1}, Prices: map[int64]decimal.Decimal{1: decimal.Zero}}, true},
		{"stray price", MixedSaleInput{AssetIDs: []int64{1}, Prices: map[int64]decimal.Decimal{1: hundred, 9: hundred}}, true},
		{"negative discount", MixedSaleInput{AssetIDs: []int64{1}, Prices: map[int64]decimal.Decimal{1: hundred}, TotalDiscount: decimal.NewFromInt(-1)}, true},
		{"both modes", MixedSaleInput{AssetIDs: []int64{1}, Prices: map[int64]decimal.Decimal{1: hundred}, TotalPrice: decimal.NewNullDecimal(hundred)}, true},
		{"total with discount", MixedSaleInput{AssetIDs: []int64{1}, TotalPrice: decimal.NewNullDecimal(hundred), TotalDiscount: decimal.NewFromInt(5)}, true},
		{"zero total", MixedSaleInput{AssetIDs: []int64{1}, TotalPrice: decimal.NewNullDecimal(decimal.Zero)}, true},
	}

	for _, tt := range tests {
		err := tt.in.Validate()
		if tt.wantErr && !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tt.name, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
	}
}

func TestMaintenanceInputDefaults(t *testing.T) {
	in := MaintenanceInput{AssetID: 1, Description: "replaced fan", LogType: "repair"}
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if in.LogType != LogTypeRepair {
		t.Errorf("expected normalized log type, got %q", in.LogType)
	}
	if in.LogDate.IsZero() {
		t.Error("expected log date to default to now")
	}

	bad := MaintenanceInput{AssetID: 1, Description: "x", LogType: "PAINTING"}
	if err := bad.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown type, got %v", err)
	}
}
