package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

var ErrItemNotInCart = errors.New("product not found in cart")

const maxCartRetries = 5

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// CartRepository keeps each cart as one JSON value at cart:user:<id>.
// Mutations run inside WATCH/MULTI so concurrent writers never lose updates.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{client: client, ttl: ttl}
}

func (r *CartRepository) getKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

// GetCart returns an empty cart when none is stored.
func (r *CartRepository) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return r.load(ctx, r.client, userID)
}

func (r *CartRepository) load(ctx context.Context, cmd stringGetter, userID string) (*models.Cart, error) {
	data, err := cmd.Get(ctx, r.getKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	cart.UserID = userID
	return &cart, nil
}

func (r *CartRepository) FindEntry(ctx context.Context, userID, productID string) (*models.CartItem, error) {
	cart, err := r.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if i, ok := cart.Find(productID); ok {
		item := cart.Items[i]
		return &item, nil
	}
	return nil, nil
}

func (r *CartRepository) AddItem(ctx context.Context, userID, productID string, qty int) (*models.Cart, error) {
	return r.mutate(ctx, userID, func(cart *models.Cart) error {
		if i, ok := cart.Find(productID); ok {
			cart.Items[i].Quantity += qty
			return nil
		}
		cart.Items = append(cart.Items, models.CartItem{ProductID: productID, Quantity: qty})
		return nil
	})
}

// UpdateQuantity sets the quantity of an existing entry; zero removes it.
func (r *CartRepository) UpdateQuantity(ctx context.Context, userID, productID string, qty int) (*models.Cart, error) {
	return r.mutate(ctx, userID, func(cart *models.Cart) error {
		i, ok := cart.Find(productID)
		if !ok {
			return ErrItemNotInCart
		}
		if qty == 0 {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
		cart.Items[i].Quantity = qty
		return nil
	})
}

func (r *CartRepository) RemoveEntry(ctx context.Context, userID, productID string) error {
	_, err := r.mutate(ctx, userID, func(cart *models.Cart) error {
		i, ok := cart.Find(productID)
		if !ok {
			return ErrItemNotInCart
		}
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		return nil
	})
	return err
}

func (r *CartRepository) mutate(ctx context.Context, userID string, fn func(*models.Cart) error) (*models.Cart, error) {
	key := r.getKey(userID)
	var result *models.Cart

	txf := func(tx *redis.Tx) error {
		cart, err := r.load(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := fn(cart); err != nil {
			return err
		}
		cart.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(cart)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(cart.Items) == 0 {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err == nil {
			result = cart
		}
		return err
	}

	for i := 0; i < maxCartRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("cart %s: too much contention", userID)
}
