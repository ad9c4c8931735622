package services

import (
	"context"
	"errors"

	apperrors "github.com/yashrajoria/multivendor-store/services/common/errors"
	"github.com/yashrajoria/multivendor-store/services/order-service/models"
	"github.com/yashrajoria/multivendor-store/services/order-service/repository"
)

type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID string, qty int) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, userID, productID string, qty int) (*models.Cart, error)
	RemoveEntry(ctx context.Context, userID, productID string) error
}

// CartService backs the cart routes checkout reads from.
type CartService struct {
	carts   CartRepository
	catalog repository.CatalogRepository
}

func NewCartService(carts CartRepository, catalog repository.CatalogRepository) *CartService {
	return &CartService{carts: carts, catalog: catalog}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, apperrors.Dependency("cart store unavailable", err)
	}
	return cart, nil
}

// AddItem adds qty units of an available product.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, qty int) (*models.Cart, error) {
	if qty < 1 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}
	product, err := s.catalog.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, apperrors.NotFound("product %s not found", productID)
	}
	if err != nil {
		return nil, apperrors.Dependency("catalog unavailable", err)
	}
	if !product.Available() {
		return nil, apperrors.Conflict("product not available")
	}

	cart, err := s.carts.AddItem(ctx, userID, productID, qty)
	if err != nil {
		return nil, apperrors.Dependency("cart store unavailable", err)
	}
	return cart, nil
}

// UpdateQuantity sets an entry's quantity; zero removes the entry.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, qty int) (*models.Cart, error) {
	if qty < 0 {
		return nil, apperrors.Validation("quantity cannot be negative")
	}
	cart, err := s.carts.UpdateQuantity(ctx, userID, productID, qty)
	if errors.Is(err, repository.ErrItemNotInCart) {
		return nil, apperrors.NotFound("product not found in cart")
	}
	if err != nil {
		return nil, apperrors.Dependency("cart store unavailable", err)
	}
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	err := s.carts.RemoveEntry(ctx, userID, productID)
	if errors.Is(err, repository.ErrItemNotInCart) {
		return nil, apperrors.NotFound("product not found in cart")
	}
	if err != nil {
		return nil, apperrors.Dependency("cart store unavailable", err)
	}
	return s.GetCart(ctx, userID)
}
