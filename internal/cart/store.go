package cart

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cart:"

// Store keeps carts in Redis hashes keyed cart:<userID>, one field per
// product id. Every write refreshes the TTL so active carts stay alive and
// abandoned ones age out.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a Store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func cartKey(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

// Items returns the raw cart contents for a user.
func (s *Store) Items(ctx context.Context, userID int64) ([]Item, error) {
	fields, err := s.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(fields))
	for field, value := range fields {
		productID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.ParseInt(value, 10, 64)
		if err != nil || qty <= 0 {
			continue
		}
		items = append(items, Item{ProductID: productID, Quantity: qty})
	}
	return items, nil
}

// SetItem writes one product's quantity and refreshes the cart TTL.
func (s *Store) SetItem(ctx context.Context, userID, productID, quantity int64) error {
	key := cartKey(userID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, strconv.FormatInt(productID, 10), quantity)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// RemoveItem drops one product from the cart.
func (s *Store) RemoveItem(ctx context.Context, userID, productID int64) error {
	return s.client.HDel(ctx, cartKey(userID), strconv.FormatInt(productID, 10)).Err()
}

// Clear removes the whole cart.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	err := s.client.Del(ctx, cartKey(userID)).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

// SweepExpired walks cart keys and repairs any that lost their TTL, so a
// missed Expire cannot leave a cart around forever. Returns the number of
// keys repaired.
func (s *Store) SweepExpired(ctx context.Context) (int, error) {
	var repaired int
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return repaired, err
		}
		for _, key := range keys {
			ttl, err := s.client.TTL(ctx, key).Result()
			if err != nil {
				return repaired, err
			}
			// TTL returns the raw -1 sentinel, not scaled to seconds, for
			// a key without an expiry (-2 for a key that vanished).
			if ttl == -1 {
				if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
					return repaired, err
				}
				repaired++
			}
		}
		cursor = next
		if cursor == 0 {
			return repaired, nil
		}
	}
}
