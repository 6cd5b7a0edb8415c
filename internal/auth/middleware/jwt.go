package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lk2023060901/media-path/internal/auth"
	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
	"github.com/lk2023060901/media-path/internal/pkg/response"
)

const accountKey = "account"

// OptionalJWTAuth 可选的 JWT 认证中间件：token 缺失按匿名处理，token 无效返回 401
func OptionalJWTAuth(jwtManager *auth.JWTManager, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := auth.Anonymous()

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			token, err := auth.ExtractTokenFromHeader(authHeader)
			if err != nil {
				response.ErrorWithCode(c, apperrors.ErrAuthInvalidToken, "invalid authorization header format")
				c.Abort()
				return
			}

			claims, err := jwtManager.VerifyAccessToken(token)
			if err != nil {
				log.Warn("invalid access token",
					zap.Error(err),
					zap.String("ip", c.ClientIP()))
				response.ErrorWithCode(c, apperrors.ErrAuthInvalidToken)
				c.Abort()
				return
			}
			account = auth.AccountFromClaims(claims)
		}

		// 将账户信息注入到上下文
		c.Set(accountKey, account)
		ctx := auth.WithAccount(c.Request.Context(), account)
		if account.IsAuthenticated() {
			c.Set("user_id", account.UserID)
			ctx = logger.WithUserID(ctx, account.UserID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireAuth 需要已认证账户（需要先经过 OptionalJWTAuth）
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetAccount(c).IsAuthenticated() {
			response.ErrorWithCode(c, apperrors.ErrUnauthorized, "missing authorization")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermission 权限验证中间件（需要先经过 OptionalJWTAuth）
func RequirePermission(perms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := GetAccount(c)
		if !account.IsAuthenticated() {
			response.ErrorWithCode(c, apperrors.ErrUnauthorized, "missing authorization")
			c.Abort()
			return
		}

		for _, perm := range perms {
			if account.HasPermission(perm) {
				c.Next()
				return
			}
		}

		response.ErrorWithCode(c, apperrors.ErrForbidden, "insufficient permissions")
		c.Abort()
	}
}

// GetAccount 从上下文获取账户，未认证时返回匿名账户
func GetAccount(c *gin.Context) *auth.Account {
	if v, ok := c.Get(accountKey); ok {
		if account, ok := v.(*auth.Account); ok {
			return account
		}
	}
	return auth.AccountFromContext(c.Request.Context())
}
