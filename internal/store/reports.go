package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nuclear-hardware/hms/internal/model"
)

// ListSoldAssets returns one row per sold asset with its sale resolved. Rows
// whose sale record cannot be found keep a nil sale date and UNKNOWN type.
func ListSoldAssets(ctx context.Context, db *sql.DB) ([]model.SoldAsset, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT a.id, COALESCE(a.serial_number, ''), a.model_number, COALESCE(t.name, ''),
		        a.location, a.purchase_price, COALESCE(a.individual_sale_price, '0'),
		        r.id, r.sale_type, r.created_at
		 FROM assets a
		 LEFT JOIN asset_types t ON t.id = a.asset_type_id
		 LEFT JOIN sale_records r ON r.id = a.sale_record_id
		 WHERE a.status = ?
		 ORDER BY r.created_at DESC, a.id`, model.StatusSold,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sold assets: %w", err)
	}
	defer rows.Close()

	var sold []model.SoldAsset
	for rows.Next() {
		var s model.SoldAsset
		var saleType sql.NullString
		if err := rows.Scan(&s.AssetID, &s.SerialNumber, &s.ModelNumber, &s.AssetTypeName,
			&s.Location, &s.PurchasePrice, &s.SalePrice,
			&s.SaleRecordID, &saleType, &s.SaleDate); err != nil {
			return nil, fmt.Errorf("scanning sold asset: %w", err)
		}
		s.SaleType = model.SaleType(saleType.String)
		switch s.SaleType {
		case model.SaleTypeBulk, model.SaleTypeMixed, model.SaleTypeSingle:
		default:
			s.SaleType = model.SaleTypeUnknown
		}
		sold = append(sold, s)
	}
	return sold, rows.Err()
}
