// Package cart keeps the per-session selection of assets for a mixed sale.
package cart

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nuclear-hardware/hms/internal/store"
)

// Store persists the asset IDs in each session's cart.
type Store interface {
	Items(ctx context.Context, session string) ([]int64, error)
	Add(ctx context.Context, session string, assetID int64) (bool, error)
	Remove(ctx context.Context, session string, assetID int64) (bool, error)
	Clear(ctx context.Context, session string) error
}

// SQLStore keeps carts in the cart_items table.
type SQLStore struct {
	DB *sql.DB
}

func (s *SQLStore) Items(ctx context.Context, session string) ([]int64, error) {
	return store.ListCartItems(ctx, s.DB, session)
}

func (s *SQLStore) Add(ctx context.Context, session string, assetID int64) (bool, error) {
	return store.AddCartItem(ctx, s.DB, session, assetID)
}

func (s *SQLStore) Remove(ctx context.Context, session string, assetID int64) (bool, error) {
	return store.RemoveCartItem(ctx, s.DB, session, assetID)
}

func (s *SQLStore) Clear(ctx context.Context, session string) error {
	return store.ClearCart(ctx, s.DB, session)
}

// RedisStore keeps each cart as a Redis set that expires with the session.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func (s *RedisStore) key(session string) string {
	return "hms:cart:" + session
}

func (s *RedisStore) Items(ctx context.Context, session string) ([]int64, error) {
	members, err := s.Client.SMembers(ctx, s.key(session)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading cart: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *RedisStore) Add(ctx context.Context, session string, assetID int64) (bool, error) {
	key := s.key(session)
	pipe := s.Client.TxPipeline()
	added := pipe.SAdd(ctx, key, assetID)
	if s.TTL > 0 {
		pipe.Expire(ctx, key, s.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("adding cart item: %w", err)
	}
	return added.Val() > 0, nil
}

func (s *RedisStore) Remove(ctx context.Context, session string, assetID int64) (bool, error) {
	n, err := s.Client.SRem(ctx, s.key(session), assetID).Result()
	if err != nil {
		return false, fmt.Errorf("removing cart item: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Clear(ctx context.Context, session string) error {
	if err := s.Client.Del(ctx, s.key(session)).Err(); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}
