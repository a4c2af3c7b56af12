package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nuclear-hardware/hms/internal/model"
)

func normalizeAssetType(name, prefix string) (string, string, error) {
	name = strings.TrimSpace(name)
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if name == "" {
		return "", "", fmt.Errorf("%w: asset type name is required", model.ErrValidation)
	}
	if len(prefix) > 10 {
		return "", "", fmt.Errorf("%w: prefix is longer than 10 characters", model.ErrValidation)
	}
	return name, prefix, nil
}

// CreateAssetType creates a new asset type. An empty prefix means serials are
// derived from the name.
func CreateAssetType(ctx context.Context, db *sql.DB, name, prefix string) (*model.AssetType, error) {
	name, prefix, err := normalizeAssetType(name, prefix)
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO asset_types (name, prefix) VALUES (?, ?)`,
		name, nullString(prefix),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: asset type name or prefix already in use", model.ErrIntegrity)
	}
	if err != nil {
		return nil, fmt.Errorf("creating asset type: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting asset type id: %w", err)
	}

	return GetAssetType(ctx, db, id)
}

// GetAssetType returns an asset type by ID.
func GetAssetType(ctx context.Context, db *sql.DB, id int64) (*model.AssetType, error) {
	return getAssetType(ctx, db, id)
}

func getAssetType(ctx context.Context, q querier, id int64) (*model.AssetType, error) {
	t := &model.AssetType{}
	var prefix, imageMime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT id, name, prefix, image_mime, created_at FROM asset_types WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &prefix, &imageMime, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset type: %w", err)
	}
	t.Prefix = prefix.String
	t.ImageMime = imageMime.String
	return t, nil
}

// ListAssetTypes returns all asset types ordered by name.
func ListAssetTypes(ctx context.Context, db *sql.DB) ([]model.AssetType, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, prefix, image_mime, created_at FROM asset_types ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing asset types: %w", err)
	}
	defer rows.Close()

	var types []model.AssetType
	for rows.Next() {
		var t model.AssetType
		var prefix, imageMime sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &prefix, &imageMime, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning asset type: %w", err)
		}
		t.Prefix = prefix.String
		t.ImageMime = imageMime.String
		types = append(types, t)
	}
	return types, rows.Err()
}

// UpdateAssetType renames an asset type or changes its prefix. Existing
// serials are left untouched.
func UpdateAssetType(ctx context.Context, db *sql.DB, id int64, name, prefix string) error {
	name, prefix, err := normalizeAssetType(name, prefix)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE asset_types SET name = ?, prefix = ? WHERE id = ?`,
		name, nullString(prefix), id,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: asset type name or prefix already in use", model.ErrIntegrity)
	}
	if err != nil {
		return fmt.Errorf("updating asset type: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: asset type %d", model.ErrNotFound, id)
	}
	return nil
}

// DeleteAssetType removes an asset type. Fails if any asset still uses it.
func DeleteAssetType(ctx context.Context, db *sql.DB, id int64) error {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assets WHERE asset_type_id = ?`, id,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking asset type usage: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: asset type is used by %d assets", model.ErrIntegrity, count)
	}

	result, err := db.ExecContext(ctx, `DELETE FROM asset_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting asset type: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: asset type %d", model.ErrNotFound, id)
	}
	return nil
}

// SetAssetTypeImage stores an already processed image for an asset type.
func SetAssetTypeImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE asset_types SET image = ?, image_mime = ? WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting asset type image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: asset type %d", model.ErrNotFound, id)
	}
	return nil
}

// GetAssetTypeImage returns an asset type's image data and MIME type.
func GetAssetTypeImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM asset_types WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting asset type image: %w", err)
	}
	return image, mime.String, nil
}
