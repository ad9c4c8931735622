package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/yashrajoria/multivendor-store/services/common/errors"
	"github.com/yashrajoria/multivendor-store/services/order-service/middleware"
	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

type stubCarts struct {
	items map[string]int
}

func (s *stubCarts) cart(userID string) *models.Cart {
	c := &models.Cart{UserID: userID, Items: []models.CartItem{}}
	for id, q := range s.items {
		c.Items = append(c.Items, models.CartItem{ProductID: id, Quantity: q})
	}
	return c
}

func (s *stubCarts) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return s.cart(userID), nil
}

func (s *stubCarts) AddItem(ctx context.Context, userID, productID string, qty int) (*models.Cart, error) {
	if qty < 1 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}
	s.items[productID] += qty
	return s.cart(userID), nil
}

func (s *stubCarts) UpdateQuantity(ctx context.Context, userID, productID string, qty int) (*models.Cart, error) {
	if _, ok := s.items[productID]; !ok {
		return nil, apperrors.NotFound("product not found in cart")
	}
	s.items[productID] = qty
	return s.cart(userID), nil
}

func (s *stubCarts) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	if _, ok := s.items[productID]; !ok {
		return nil, apperrors.NotFound("product not found in cart")
	}
	delete(s.items, productID)
	return s.cart(userID), nil
}

func setupCartRouter(carts CartManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cc := NewCartController(carts)
	r := gin.New()
	g := r.Group("/cart", middleware.AuthMiddleware())
	g.GET("", cc.GetCart)
	g.POST("/add", cc.AddItem)
	g.PUT("/update", cc.UpdateQuantity)
	g.DELETE("/remove/:product_id", cc.RemoveItem)
	return r
}

func TestCartController(t *testing.T) {
	carts := &stubCarts{items: map[string]int{}}
	r := setupCartRouter(carts)

	w := doRequest(r, http.MethodPost, "/cart/add", testBuyer, map[string]any{"product_id": "p-kettle", "quantity": 2}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, carts.items["p-kettle"])

	w = doRequest(r, http.MethodPost, "/cart/add", testBuyer, map[string]any{"quantity": 2}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPut, "/cart/update", testBuyer, map[string]any{"product_id": "p-mug", "quantity": 1}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodGet, "/cart", testBuyer, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"product_id":"p-kettle"`)

	w = doRequest(r, http.MethodDelete, "/cart/remove/p-kettle", testBuyer, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, carts.items)
}
