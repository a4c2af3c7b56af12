package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/serial"
)

const assetColumns = `a.id, a.asset_type_id, a.model_number, a.serial_number, a.purchase_price,
	a.purchase_date, a.location, a.status, a.warranty_end_date, a.pending_sale_price,
	a.sale_record_id, a.individual_sale_price, a.created_at, a.updated_at,
	COALESCE(t.name, '')`

const assetFrom = ` FROM assets a LEFT JOIN asset_types t ON t.id = a.asset_type_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(s scanner) (model.Asset, error) {
	var a model.Asset
	var serialNumber sql.NullString
	err := s.Scan(&a.ID, &a.AssetTypeID, &a.ModelNumber, &serialNumber, &a.PurchasePrice,
		&a.PurchaseDate, &a.Location, &a.Status, &a.WarrantyEndDate, &a.PendingSalePrice,
		&a.SaleRecordID, &a.IndividualSalePrice, &a.CreatedAt, &a.UpdatedAt,
		&a.AssetTypeName)
	a.SerialNumber = serialNumber.String
	return a, err
}

func scanAssets(rows *sql.Rows) ([]model.Asset, error) {
	var assets []model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// CreateAssets receives a batch of identical units. Serials are allocated
// after the highest existing serial for the type's prefix, inside the same
// transaction as the inserts.
func CreateAssets(ctx context.Context, db *sql.DB, in model.IntakeInput) ([]model.Asset, error) {
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

	serials := []string{in.SerialNumber}
	if in.SerialNumber == "" {
		prefix := serial.Prefix(assetType.Prefix, assetType.Name)
		highest, err := maxSerial(ctx, tx, prefix)
		if err != nil {
			return nil, err
		}
		serials = serial.Batch(prefix, highest, in.Quantity)
	}

	now := time.Now().UTC()
	ids := make([]int64, 0, len(serials))
	for _, sn := range serials {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO assets (asset_type_id, model_number, serial_number, purchase_price,
			                     purchase_date, location, status, warranty_end_date, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.AssetTypeID, in.ModelNumber, sn, in.PurchasePrice,
			now, in.Location, model.StatusInStock, in.WarrantyEndDate, now, now,
		)
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: serial number %s already exists", model.ErrIntegrity, sn)
		}
		if err != nil {
			return nil, fmt.Errorf("inserting asset: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting asset id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing intake: %w", err)
	}

	return ListAssetsByID(ctx, db, ids)
}

// maxSerial returns the highest numeric suffix among serials carrying prefix.
func maxSerial(ctx context.Context, q querier, prefix string) (int, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT serial_number FROM assets WHERE serial_number LIKE ?`, prefix+"-%",
	)
	if err != nil {
		return 0, fmt.Errorf("reading serial numbers: %w", err)
	}
	defer rows.Close()

	var serials []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return 0, fmt.Errorf("scanning serial number: %w", err)
		}
		serials = append(serials, s)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return serial.Max(prefix, serials), nil
}

// GetAsset returns an asset by ID.
func GetAsset(ctx context.Context, db *sql.DB, id int64) (*model.Asset, error) {
	return getAsset(ctx, db, id)
}

func getAsset(ctx context.Context, q querier, id int64) (*model.Asset, error) {
	a, err := scanAsset(q.QueryRowContext(ctx, `SELECT `+assetColumns+assetFrom+` WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	return &a, nil
}

// ListAssetsByID returns the given assets ordered by ID. Unknown IDs are
// skipped.
func ListAssetsByID(ctx context.Context, db *sql.DB, ids []int64) ([]model.Asset, error) {
	return listAssetsByID(ctx, db, ids)
}

func listAssetsByID(ctx context.Context, q querier, ids []int64) ([]model.Asset, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+assetColumns+assetFrom+` WHERE a.id IN (`+placeholders+`) ORDER BY a.id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	return scanAssets(rows)
}

// ListAssets returns one page of assets matching the filter, newest first,
// and the total number of matches.
func ListAssets(ctx context.Context, db *sql.DB, f model.AssetFilter) ([]model.Asset, int, error) {
	where := ` WHERE 1=1`
	var args []any

	if f.Status != "" {
		where += ` AND a.status = ?`
		args = append(args, f.Status)
	}
	if f.Location != "" {
		where += ` AND a.location = ?`
		args = append(args, f.Location)
	}
	if f.AssetTypeID > 0 {
		where += ` AND a.asset_type_id = ?`
		args = append(args, f.AssetTypeID)
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets a`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting assets: %w", err)
	}

	query := `SELECT ` + assetColumns + assetFrom + where + ` ORDER BY a.purchase_date DESC, a.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, max(f.Offset, 0))
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	assets, err := scanAssets(rows)
	if err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

// UpdateAsset moves an asset to another branch or changes its warranty date.
// Status and prices only change through the sale operations.
func UpdateAsset(ctx context.Context, db *sql.DB, id int64, location model.Location, warrantyEnd *time.Time) error {
	if !location.Valid() {
		return fmt.Errorf("%w: unknown location %q", model.ErrValidation, location)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE assets SET location = ?, warranty_end_date = ?, updated_at = ? WHERE id = ?`,
		location, warrantyEnd, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating asset: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: asset %d", model.ErrNotFound, id)
	}
	return nil
}

// CountAssetsByStatus returns how many assets are in each status.
func CountAssetsByStatus(ctx context.Context, db *sql.DB) (map[model.AssetStatus]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM assets GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting assets by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.AssetStatus]int, len(model.Statuses))
	for rows.Next() {
		var status model.AssetStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// ListStockLevels returns in-stock counts per asset type and location.
func ListStockLevels(ctx context.Context, db *sql.DB) ([]model.StockLevel, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT a.asset_type_id, t.name, a.location, COUNT(*)
		 FROM assets a
		 JOIN asset_types t ON t.id = a.asset_type_id
		 WHERE a.status = ?
		 GROUP BY a.asset_type_id, t.name, a.location
		 ORDER BY t.name, a.location`,
		model.StatusInStock,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stock levels: %w", err)
	}
	defer rows.Close()

	var levels []model.StockLevel
	for rows.Next() {
		var l model.StockLevel
		if err := rows.Scan(&l.AssetTypeID, &l.AssetTypeName, &l.Location, &l.Count); err != nil {
			return nil, fmt.Errorf("scanning stock level: %w", err)
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}
