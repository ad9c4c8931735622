package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/yashrajoria/multivendor-store/services/common/errors"
	"github.com/yashrajoria/multivendor-store/services/order-service/middleware"
	"github.com/yashrajoria/multivendor-store/services/order-service/models"
	"github.com/yashrajoria/multivendor-store/services/order-service/services"
)

// OrderLedger is the subset of *services.OrderService the HTTP layer calls.
type OrderLedger interface {
	CreateOrder(ctx context.Context, p models.Principal, req *services.CreateOrderRequest, idempotencyKey string) (*models.Order, error)
	ListOrders(ctx context.Context, p models.Principal, scope services.Scope) ([]services.OrderView, error)
	GetOrder(ctx context.Context, p models.Principal, id string) (*services.OrderView, error)
	SetStatus(ctx context.Context, p models.Principal, id string, target models.OrderStatus) (*models.Order, error)
	RequestDeliveryOTP(ctx context.Context, p models.Principal, id string) (*models.Order, error)
	VerifyDeliveryOTP(ctx context.Context, p models.Principal, id, code string) (*models.Order, error)
	CancelOrder(ctx context.Context, p models.Principal, id string) (*models.Order, error)
	ReturnOrder(ctx context.Context, p models.Principal, id string) (*models.Order, error)
}

type OrderController struct {
	ledger OrderLedger
}

func NewOrderController(ledger OrderLedger) *OrderController {
	return &OrderController{ledger: ledger}
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

type verifyOTPRequest struct {
	OTP string `json:"otp" binding:"required"`
}

// principalAndID resolves the caller and the :id path parameter, writing the
// error response itself when either is unusable.
func principalAndID(ctx *gin.Context) (models.Principal, string, bool) {
	p, err := middleware.GetPrincipal(ctx)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return p, "", false
	}
	id := ctx.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		apperrors.Respond(ctx, apperrors.Validation("invalid order ID format"))
		return p, "", false
	}
	return p, id, true
}

// CreateOrder handles checkout of one cart entry. An Idempotency-Key header
// makes retries return the first order.
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	p, err := middleware.GetPrincipal(ctx)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req services.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(ctx, apperrors.Validation("invalid request body: %v", err))
		return
	}

	order, err := oc.ledger.CreateOrder(ctx.Request.Context(), p, &req, ctx.GetHeader("Idempotency-Key"))
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"order": order})
}

// ListOrders serves one of the buyer, vendor or admin views.
func (oc *OrderController) ListOrders(scope services.Scope) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		p, err := middleware.GetPrincipal(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		orders, err := oc.ledger.ListOrders(ctx.Request.Context(), p, scope)
		if err != nil {
			apperrors.Respond(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
	}
}

func (oc *OrderController) GetOrderByID(ctx *gin.Context) {
	p, id, ok := principalAndID(ctx)
	if !ok {
		return
	}

	order, err := oc.ledger.GetOrder(ctx.Request.Context(), p, id)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateStatus moves fulfilment forward. Asking for delivered starts the
// delivery OTP flow instead of setting the status.
func (oc *OrderController) UpdateStatus(ctx *gin.Context) {
	p, id, ok := principalAndID(ctx)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(ctx, apperrors.Validation("status is required"))
		return
	}

	if req.Status == models.StatusDelivered {
		oc.requestOTP(ctx, p, id)
		return
	}

	order, err := oc.ledger.SetStatus(ctx.Request.Context(), p, id, req.Status)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

func (oc *OrderController) RequestDeliveryOTP(ctx *gin.Context) {
	p, id, ok := principalAndID(ctx)
	if !ok {
		return
	}
	oc.requestOTP(ctx, p, id)
}

func (oc *OrderController) requestOTP(ctx *gin.Context, p models.Principal, id string) {
	order, err := oc.ledger.RequestDeliveryOTP(ctx.Request.Context(), p, id)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":        "Delivery OTP sent to buyer",
		"otp_expires_at": order.OTPExpiresAt,
	})
}

func (oc *OrderController) VerifyDeliveryOTP(ctx *gin.Context) {
	p, id, ok := principalAndID(ctx)
	if !ok {
		return
	}

	var req verifyOTPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(ctx, apperrors.Validation("otp is required"))
		return
	}

	order, err := oc.ledger.VerifyDeliveryOTP(ctx.Request.Context(), p, id, req.OTP)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

func (oc *OrderController) CancelOrder(ctx *gin.Context) {
	p, id, ok := principalAndID(ctx)
	if !ok {
		return
	}

	order, err := oc.ledger.CancelOrder(ctx.Request.Context(), p, id)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

func (oc *OrderController) ReturnOrder(ctx *gin.Context) {
	p, id, ok := principalAndID(ctx)
	if !ok {
		return
	}

	order, err := oc.ledger.ReturnOrder(ctx.Request.Context(), p, id)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order, "returned_amount": order.ReturnedAmount})
}
