package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/neo-jack/1LoanManagemen/internal/auth"
)

// 认证上下文键
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
	ContextKeyRole     = "role"
	ContextKeyLoanRole = "loan_role"
)

// AuthMiddleware JWT 认证中间件
// 从 Authorization 头解析 Bearer token,验证后把用户信息放入请求上下文
func AuthMiddleware(validator *auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			Error(c, http.StatusUnauthorized, "missing authorization header", "")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			Error(c, http.StatusUnauthorized, "invalid authorization header", "expected format: Bearer <token>")
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			Error(c, http.StatusUnauthorized, "invalid token", err.Error())
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyLoanRole, claims.LoanRole)
		c.Next()
	}
}

// CurrentUserID 从请求上下文取当前用户 ID
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get(ContextKeyUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
