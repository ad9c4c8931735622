package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yashrajoria/multivendor-store/services/common/errors"
	"github.com/yashrajoria/multivendor-store/services/order-service/middleware"
	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

type CartManager interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID string, qty int) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, userID, productID string, qty int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error)
}

type CartController struct {
	carts CartManager
}

func NewCartController(carts CartManager) *CartController {
	return &CartController{carts: carts}
}

type cartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"min=0"`
}

func (cc *CartController) GetCart(ctx *gin.Context) {
	p, err := middleware.GetPrincipal(ctx)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	cart, err := cc.carts.GetCart(ctx.Request.Context(), p.UserID)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, cart)
}

func (cc *CartController) AddItem(ctx *gin.Context) {
	cc.withItem(ctx, cc.carts.AddItem)
}

func (cc *CartController) UpdateQuantity(ctx *gin.Context) {
	cc.withItem(ctx, cc.carts.UpdateQuantity)
}

func (cc *CartController) withItem(ctx *gin.Context, apply func(context.Context, string, string, int) (*models.Cart, error)) {
	p, err := middleware.GetPrincipal(ctx)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req cartItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(ctx, apperrors.Validation("product_id and a non-negative quantity are required"))
		return
	}

	cart, err := apply(ctx.Request.Context(), p.UserID, req.ProductID, req.Quantity)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, cart)
}

func (cc *CartController) RemoveItem(ctx *gin.Context) {
	p, err := middleware.GetPrincipal(ctx)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cart, err := cc.carts.RemoveItem(ctx.Request.Context(), p.UserID, ctx.Param("product_id"))
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, cart)
}
