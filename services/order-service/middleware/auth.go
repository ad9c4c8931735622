package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/multivendor-store/services/order-service/authz"
	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

const (
	UserContextKey = "userID"
	RoleContextKey = "role"
)

// AuthMiddleware reads the principal the gateway forwards after
// authenticating the caller. A missing role means a plain user.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		role := models.Role(strings.ToLower(strings.TrimSpace(c.GetHeader("X-User-Role"))))
		if role == "" {
			role = models.RoleUser
		}
		if !role.Valid() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unknown role"})
			return
		}

		c.Set(UserContextKey, userID)
		c.Set(RoleContextKey, role)
		c.Next()
	}
}

// GetPrincipal returns the principal set by AuthMiddleware.
func GetPrincipal(c *gin.Context) (models.Principal, error) {
	userID := c.GetString(UserContextKey)
	if userID == "" {
		return models.Principal{}, errors.New("user ID not found in context")
	}
	role, _ := c.Get(RoleContextKey)
	r, ok := role.(models.Role)
	if !ok {
		r = models.RoleUser
	}
	return models.Principal{UserID: userID, Role: r}, nil
}

// Authorize rejects principals whose role may not perform act on obj.
func Authorize(enforcer *authz.Enforcer, logger *zap.Logger, obj, act string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := GetPrincipal(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		allowed, err := enforcer.Allowed(p.Role, obj, act)
		if err != nil {
			logger.Error("authorization check failed", zap.String("user_id", p.UserID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.Next()
	}
}
