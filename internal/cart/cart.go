package cart

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/store"
)

// AddResult tells the caller what happened to an add request.
type AddResult int

const (
	Added AddResult = iota
	AlreadyInCart
	Unavailable
)

// Message is the user-facing text for an add result.
func (r AddResult) Message(serial string) string {
	switch r {
	case Added:
		return fmt.Sprintf("Added %s to cart.", serial)
	case AlreadyInCart:
		return fmt.Sprintf("%s is already in the cart.", serial)
	default:
		return fmt.Sprintf("%s is not in stock.", serial)
	}
}

// Service ties a session's cart to the asset catalog and the sale engine.
type Service struct {
	DB    *sql.DB
	Store Store
}

// Add puts an in-stock asset into the session's cart. Assets that are not
// IN_STOCK are reported as Unavailable rather than failing.
func (s *Service) Add(ctx context.Context, session string, assetID int64) (AddResult, *model.Asset, error) {
	asset, err := store.GetAsset(ctx, s.DB, assetID)
	if err != nil {
		return 0, nil, err
	}
	if asset == nil {
		return 0, nil, fmt.Errorf("%w: asset %d", model.ErrNotFound, assetID)
	}
	if asset.Status != model.StatusInStock {
		return Unavailable, asset, nil
	}

	added, err := s.Store.Add(ctx, session, assetID)
	if err != nil {
		return 0, nil, err
	}
	if !added {
		return AlreadyInCart, asset, nil
	}
	return Added, asset, nil
}

// Remove takes an asset out of the cart. It reports false, not an error, when
// the asset was not in the cart.
func (s *Service) Remove(ctx context.Context, session string, assetID int64) (bool, error) {
	return s.Store.Remove(ctx, session, assetID)
}

// Items returns the assets in the cart ordered by ID. IDs that no longer
// resolve to an asset are dropped.
func (s *Service) Items(ctx context.Context, session string) ([]model.Asset, error) {
	ids, err := s.Store.Items(ctx, session)
	if err != nil {
		return nil, err
	}
	return store.ListAssetsByID(ctx, s.DB, ids)
}

// Checkout sells everything in the cart as one mixed sale. The cart is only
// cleared once the sale has been committed.
func (s *Service) Checkout(ctx context.Context, session string, in model.MixedSaleInput) (*model.SaleRecord, error) {
	ids, err := s.Store.Items(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", model.ErrValidation)
	}
	in.AssetIDs = ids

	rec, err := store.MixedSale(ctx, s.DB, in)
	if err != nil {
		return nil, err
	}

	if err := s.Store.Clear(ctx, session); err != nil {
		slog.Warn("sale committed but cart not cleared", "sale_id", rec.ID, "error", err)
	}
	return rec, nil
}
