package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nuclear-hardware/hms/internal/model"
)

// AddMaintenanceLog appends a service entry to an asset's history.
func AddMaintenanceLog(ctx context.Context, db *sql.DB, in model.MaintenanceInput) (*model.MaintenanceLog, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	asset, err := GetAsset(ctx, db, in.AssetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("%w: asset %d", model.ErrNotFound, in.AssetID)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO maintenance_logs (asset_id, log_date, log_type, description, cost)
		 VALUES (?, ?, ?, ?, ?)`,
		in.AssetID, in.LogDate.UTC(), in.LogType, in.Description, in.Cost,
	)
	if err != nil {
		return nil, fmt.Errorf("adding maintenance log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting maintenance log id: %w", err)
	}

	l := &model.MaintenanceLog{}
	err = db.QueryRowContext(ctx,
		`SELECT id, asset_id, log_date, log_type, description, cost, created_at
		 FROM maintenance_logs WHERE id = ?`, id,
	).Scan(&l.ID, &l.AssetID, &l.LogDate, &l.LogType, &l.Description, &l.Cost, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting maintenance log: %w", err)
	}
	return l, nil
}

// ListMaintenanceLogs returns an asset's service history, newest first.
func ListMaintenanceLogs(ctx context.Context, db *sql.DB, assetID int64) ([]model.MaintenanceLog, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, asset_id, log_date, log_type, description, cost, created_at
		 FROM maintenance_logs WHERE asset_id = ?
		 ORDER BY log_date DESC, id DESC`, assetID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing maintenance logs: %w", err)
	}
	defer rows.Close()

	var logs []model.MaintenanceLog
	for rows.Next() {
		var l model.MaintenanceLog
		if err := rows.Scan(&l.ID, &l.AssetID, &l.LogDate, &l.LogType, &l.Description, &l.Cost, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning maintenance log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
