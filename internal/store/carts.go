package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AddCartItem puts an asset in a session's cart. It reports false when the
// asset was already there.
func AddCartItem(ctx context.Context, db *sql.DB, sessionID string, assetID int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO cart_items (session_id, asset_id, added_at) VALUES (?, ?, ?)`,
		sessionID, assetID, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("adding cart item: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// RemoveCartItem takes an asset out of a session's cart. It reports false
// when the asset was not there.
func RemoveCartItem(ctx context.Context, db *sql.DB, sessionID string, assetID int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE session_id = ? AND asset_id = ?`,
		sessionID, assetID,
	)
	if err != nil {
		return false, fmt.Errorf("removing cart item: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// ListCartItems returns the asset IDs in a session's cart in ascending order.
func ListCartItems(ctx context.Context, db *sql.DB, sessionID string) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT asset_id FROM cart_items WHERE session_id = ? ORDER BY asset_id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning cart item: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ClearCart empties a session's cart.
func ClearCart(ctx context.Context, db *sql.DB, sessionID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

// PurgeCarts drops cart rows older than cutoff. Sessions never outlive their
// token, so older rows are unreachable.
func PurgeCarts(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE added_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging carts: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
