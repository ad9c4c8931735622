package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	awspkg "github.com/yashrajoria/multivendor-store/pkg/aws"
	apperrors "github.com/yashrajoria/multivendor-store/services/common/errors"
	"github.com/yashrajoria/multivendor-store/services/common/logger"
	commonmw "github.com/yashrajoria/multivendor-store/services/common/middleware"
	"github.com/yashrajoria/multivendor-store/services/order-service/authz"
	"github.com/yashrajoria/multivendor-store/services/order-service/controllers"
	"github.com/yashrajoria/multivendor-store/services/order-service/middleware"
	"github.com/yashrajoria/multivendor-store/services/order-service/services"
)

const serviceName = "order-service"

// Deps is everything the router needs.
type Deps struct {
	Orders         *controllers.OrderController
	Carts          *controllers.CartController
	Enforcer       *authz.Enforcer
	Logger         *zap.Logger
	Registry       *prometheus.Registry
	CloudWatch     *awspkg.MetricsClient
	RequestTimeout time.Duration
	// OTPVerifyRate bounds verification attempts per order id.
	OTPVerifyRate  rate.Limit
	OTPVerifyBurst int
}

// NewRouter builds the gin engine with the shared middleware stack and every
// order and cart route.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		logger.RequestID(),
		commonmw.RequestLogger(d.Logger),
		commonmw.SecurityHeaders(),
		commonmw.CORSMiddleware(),
		commonmw.RateLimitMiddleware(),
		commonmw.NewHTTPMetrics(d.Registry, "order_service").Middleware(),
		commonmw.CloudWatchMetrics(d.CloudWatch, serviceName),
		commonmw.Timeout(d.RequestTimeout),
		apperrors.ErrorMiddleware(),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
	r.GET("/metrics", gin.WrapH(commonmw.PrometheusHandler(d.Registry)))

	RegisterOrderRoutes(r, d)
	RegisterCartRoutes(r, d)
	return r
}

func RegisterOrderRoutes(r *gin.Engine, d Deps) {
	can := func(act string) gin.HandlerFunc {
		return middleware.Authorize(d.Enforcer, d.Logger, authz.ObjOrders, act)
	}
	otpLimiter := commonmw.NewRateLimiter(d.OTPVerifyRate, d.OTPVerifyBurst, 30*time.Minute)

	orderRoutes := r.Group("/orders")
	orderRoutes.Use(middleware.AuthMiddleware())
	orderRoutes.POST("", can(authz.ActCreate), d.Orders.CreateOrder)
	orderRoutes.GET("", can(authz.ActListOwn), d.Orders.ListOrders(services.ScopeBuyer))
	orderRoutes.GET("/:id", can(authz.ActRead), d.Orders.GetOrderByID)
	orderRoutes.PATCH("/:id/status", can(authz.ActSetStatus), d.Orders.UpdateStatus)
	orderRoutes.POST("/:id/delivery-otp", can(authz.ActRequestOTP), d.Orders.RequestDeliveryOTP)
	orderRoutes.POST("/:id/verify-otp", can(authz.ActVerifyOTP),
		commonmw.RateLimit(otpLimiter, func(c *gin.Context) string { return c.Param("id") }),
		d.Orders.VerifyDeliveryOTP)
	orderRoutes.POST("/:id/cancel", can(authz.ActCancel), d.Orders.CancelOrder)
	orderRoutes.POST("/:id/return", can(authz.ActReturn), d.Orders.ReturnOrder)

	vendorRoutes := r.Group("/vendor")
	vendorRoutes.Use(middleware.AuthMiddleware())
	vendorRoutes.GET("/orders", can(authz.ActListVendor), d.Orders.ListOrders(services.ScopeVendor))

	adminRoutes := r.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware())
	adminRoutes.GET("/orders", can(authz.ActListAll), d.Orders.ListOrders(services.ScopeAll))
}

func RegisterCartRoutes(r *gin.Engine, d Deps) {
	cartRoutes := r.Group("/cart")
	cartRoutes.Use(middleware.AuthMiddleware())
	cartRoutes.GET("", middleware.Authorize(d.Enforcer, d.Logger, authz.ObjCart, authz.ActRead), d.Carts.GetCart)

	write := middleware.Authorize(d.Enforcer, d.Logger, authz.ObjCart, authz.ActWrite)
	cartRoutes.POST("/add", write, d.Carts.AddItem)
	cartRoutes.PUT("/update", write, d.Carts.UpdateQuantity)
	cartRoutes.DELETE("/remove/:product_id", write, d.Carts.RemoveItem)
}
