package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/money"
)

// All sale operations run in one transaction opened with BEGIN IMMEDIATE
// (see db.DSN), so stock checks and status updates see no concurrent writer.

func insertSaleRecord(ctx context.Context, tx *sql.Tx, r *model.SaleRecord) (int64, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO sale_records (sale_type, scrapped, total_sale_price, total_purchase_cost,
		                           total_discount, notes, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SaleType, r.Scrapped, r.TotalSalePrice, r.TotalPurchaseCost,
		r.TotalDiscount, nullString(r.Notes), r.CreatedBy, r.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("recording sale: %w", err)
	}
	return result.LastInsertId()
}

func markSold(ctx context.Context, tx *sql.Tx, assetID int64, price decimal.Decimal, saleID int64, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE assets SET status = ?, individual_sale_price = ?, pending_sale_price = NULL,
		                   sale_record_id = ?, updated_at = ?
		 WHERE id = ?`,
		model.StatusSold, price, saleID, now, assetID,
	)
	if err != nil {
		return fmt.Errorf("marking asset %d sold: %w", assetID, err)
	}
	return nil
}

func lockedAsset(ctx context.Context, tx *sql.Tx, id int64) (*model.Asset, error) {
	a, err := getAsset(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: asset %d", model.ErrNotFound, id)
	}
	return a, nil
}

// MarkPendingSale records the agreed price of an in-stock asset and moves it
// to PENDING_SALE. The sale itself happens in ConfirmSale.
func MarkPendingSale(ctx context.Context, db *sql.DB, assetID int64, price decimal.Decimal) (*model.Asset, error) {
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: sale price must be greater than zero", model.ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	asset, err := lockedAsset(ctx, tx, assetID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(asset.Status, model.StatusPendingSale) {
		return nil, fmt.Errorf("%w: asset %s is %s", model.ErrInvalidTransition, asset.SerialNumber, asset.Status.Label())
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE assets SET status = ?, pending_sale_price = ?, updated_at = ? WHERE id = ?`,
		model.StatusPendingSale, price, time.Now().UTC(), assetID,
	)
	if err != nil {
		return nil, fmt.Errorf("marking asset pending sale: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing pending sale: %w", err)
	}

	return GetAsset(ctx, db, assetID)
}

// ConfirmSale sells a PENDING_SALE asset at its stored price and records a
// SINGLE sale.
func ConfirmSale(ctx context.Context, db *sql.DB, assetID int64, userID *int64) (*model.SaleRecord, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	asset, err := lockedAsset(ctx, tx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.Status.Terminal() {
		return nil, fmt.Errorf("%w: asset %s is already %s", model.ErrInvalidTransition, asset.SerialNumber, asset.Status.Label())
	}
	if asset.Status != model.StatusPendingSale || !asset.PendingSalePrice.Valid {
		return nil, fmt.Errorf("%w: asset %s", model.ErrMissingPrice, asset.SerialNumber)
	}

	now := time.Now().UTC()
	price := asset.PendingSalePrice.Decimal
	saleID, err := insertSaleRecord(ctx, tx, &model.SaleRecord{
		SaleType:          model.SaleTypeSingle,
		TotalSalePrice:    price,
		TotalPurchaseCost: asset.PurchasePrice,
		TotalDiscount:     decimal.Zero,
		CreatedBy:         userID,
		CreatedAt:         now,
	})
	if err != nil {
		return nil, err
	}
	if err := markSold(ctx, tx, assetID, price, saleID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing sale: %w", err)
	}

	return GetSaleRecord(ctx, db, saleID)
}

// BulkSale sells the oldest in-stock units of one type at one location, all
// at the same unit price.
func BulkSale(ctx context.Context, db *sql.DB, in model.BulkSaleInput) (*model.SaleRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	assetType, err := getAssetType(ctx, tx, in.AssetTypeID)
	if err != nil {
		return nil, err
	}
	if assetType == nil {
		return nil, fmt.Errorf("%w: asset type %d", model.ErrNotFound, in.AssetTypeID)
	}

	var available int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assets WHERE asset_type_id = ? AND location = ? AND status = ?`,
		in.AssetTypeID, in.Location, model.StatusInStock,
	).Scan(&available)
	if err != nil {
		return nil, fmt.Errorf("checking available quantity: %w", err)
	}
	if available < in.Quantity {
		return nil, fmt.Errorf("%w: only %d %s in stock at %s, need %d",
			model.ErrInsufficientStock, available, assetType.Name, in.Location.Label(), in.Quantity)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, purchase_price FROM assets
		 WHERE asset_type_id = ? AND location = ? AND status = ?
		 ORDER BY purchase_date, id
		 LIMIT ?`,
		in.AssetTypeID, in.Location, model.StatusInStock, in.Quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting assets to sell: %w", err)
	}
	var ids []int64
	cost := decimal.Zero
	for rows.Next() {
		var id int64
		var price decimal.Decimal
		if err := rows.Scan(&id, &price); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		ids = append(ids, id)
		cost = cost.Add(price)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("selecting assets to sell: %w", err)
	}

	now := time.Now().UTC()
	saleID, err := insertSaleRecord(ctx, tx, &model.SaleRecord{
		SaleType:          model.SaleTypeBulk,
		TotalSalePrice:    in.UnitPrice.Mul(decimal.NewFromInt(int64(len(ids)))),
		TotalPurchaseCost: cost,
		TotalDiscount:     decimal.Zero,
		CreatedBy:         in.UserID,
		CreatedAt:         now,
	})
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := markSold(ctx, tx, id, in.UnitPrice, saleID, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing bulk sale: %w", err)
	}

	return GetSaleRecord(ctx, db, saleID)
}

// MixedSale sells a selection of assets under one MIXED record. Assets are
// processed in ascending ID order so discount allocation is reproducible.
func MixedSale(ctx context.Context, db *sql.DB, in model.MixedSaleInput) (*model.SaleRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	ids := slices.Clone(in.AssetIDs)
	slices.Sort(ids)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	assets, err := listAssetsByID(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	if len(assets) != len(ids) {
		found := make(map[int64]bool, len(assets))
		for _, a := range assets {
			found[a.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, fmt.Errorf("%w: asset %d", model.ErrNotFound, id)
			}
		}
	}

	costs := make([]decimal.Decimal, len(assets))
	for i, a := range assets {
		if !model.CanTransition(a.Status, model.StatusSold) {
			return nil, fmt.Errorf("%w: asset %s is %s", model.ErrInvalidTransition, a.SerialNumber, a.Status.Label())
		}
		costs[i] = a.PurchasePrice
	}

	var final []decimal.Decimal
	discount := decimal.Zero
	if in.ByTotal() {
		final = money.Allocate(costs, in.TotalPrice.Decimal)
	} else {
		gross := make([]decimal.Decimal, len(assets))
		for i, a := range assets {
			gross[i] = in.Prices[a.ID]
		}
		discount = in.TotalDiscount
		if discount.GreaterThanOrEqual(money.Sum(gross)) {
			return nil, fmt.Errorf("%w: discount %s must be less than the total price %s",
				model.ErrValidation, money.Format(discount), money.Format(money.Sum(gross)))
		}
		shares := money.Allocate(gross, discount)
		final = make([]decimal.Decimal, len(gross))
		for i := range gross {
			// Rounding must never turn a discount into a surcharge.
			if shares[i].IsNegative() {
				return nil, fmt.Errorf("%w: discount %s cannot be split across %d assets",
					model.ErrValidation, money.Format(discount), len(gross))
			}
			final[i] = gross[i].Sub(shares[i])
		}
	}
	for i, price := range final {
		if price.IsNegative() {
			return nil, fmt.Errorf("%w: discount leaves asset %s with a negative price",
				model.ErrValidation, assets[i].SerialNumber)
		}
	}

	now := time.Now().UTC()
	saleID, err := insertSaleRecord(ctx, tx, &model.SaleRecord{
		SaleType:          model.SaleTypeMixed,
		TotalSalePrice:    money.Sum(final),
		TotalPurchaseCost: money.Sum(costs),
		TotalDiscount:     discount,
		Notes:             in.Notes,
		CreatedBy:         in.UserID,
		CreatedAt:         now,
	})
	if err != nil {
		return nil, err
	}
	for i, a := range assets {
		if err := markSold(ctx, tx, a.ID, final[i], saleID, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing mixed sale: %w", err)
	}

	return GetSaleRecord(ctx, db, saleID)
}

// ScrapAsset writes an asset off. Any pending sale price is discarded and the
// recorded sale price is zero, so the loss equals the purchase price.
func ScrapAsset(ctx context.Context, db *sql.DB, assetID int64, userID *int64) (*model.SaleRecord, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	asset, err := lockedAsset(ctx, tx, assetID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(asset.Status, model.StatusScrapped) {
		return nil, fmt.Errorf("%w: asset %s is already %s", model.ErrInvalidTransition, asset.SerialNumber, asset.Status.Label())
	}

	now := time.Now().UTC()
	saleID, err := insertSaleRecord(ctx, tx, &model.SaleRecord{
		SaleType:          model.SaleTypeSingle,
		Scrapped:          true,
		TotalSalePrice:    decimal.Zero,
		TotalPurchaseCost: asset.PurchasePrice,
		TotalDiscount:     decimal.Zero,
		Notes:             "Scrapped",
		CreatedBy:         userID,
		CreatedAt:         now,
	})
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE assets SET status = ?, pending_sale_price = NULL, individual_sale_price = NULL,
		                   sale_record_id = ?, updated_at = ?
		 WHERE id = ?`,
		model.StatusScrapped, saleID, now, assetID,
	)
	if err != nil {
		return nil, fmt.Errorf("scrapping asset: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing scrap: %w", err)
	}

	return GetSaleRecord(ctx, db, saleID)
}

const saleRecordColumns = `r.id, r.sale_type, r.scrapped, r.total_sale_price, r.total_purchase_cost,
	r.total_discount, r.notes, r.created_by, r.created_at,
	(SELECT COUNT(*) FROM assets a WHERE a.sale_record_id = r.id)`

func scanSaleRecord(s scanner) (model.SaleRecord, error) {
	var r model.SaleRecord
	var notes sql.NullString
	err := s.Scan(&r.ID, &r.SaleType, &r.Scrapped, &r.TotalSalePrice, &r.TotalPurchaseCost,
		&r.TotalDiscount, &notes, &r.CreatedBy, &r.CreatedAt, &r.AssetCount)
	r.Notes = notes.String
	return r, err
}

// GetSaleRecord returns a sale record by ID.
func GetSaleRecord(ctx context.Context, db *sql.DB, id int64) (*model.SaleRecord, error) {
	r, err := scanSaleRecord(db.QueryRowContext(ctx,
		`SELECT `+saleRecordColumns+` FROM sale_records r WHERE r.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting sale record: %w", err)
	}
	return &r, nil
}

// ListSaleRecords returns the most recent sale records. A limit of zero
// returns all of them.
func ListSaleRecords(ctx context.Context, db *sql.DB, limit int) ([]model.SaleRecord, error) {
	query := `SELECT ` + saleRecordColumns + ` FROM sale_records r ORDER BY r.created_at DESC, r.id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sale records: %w", err)
	}
	defer rows.Close()

	var records []model.SaleRecord
	for rows.Next() {
		r, err := scanSaleRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sale record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ListSaleAssets returns the assets covered by a sale record.
func ListSaleAssets(ctx context.Context, db *sql.DB, saleID int64) ([]model.Asset, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+assetColumns+assetFrom+` WHERE a.sale_record_id = ? ORDER BY a.id`, saleID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sale assets: %w", err)
	}
	defer rows.Close()

	return scanAssets(rows)
}
