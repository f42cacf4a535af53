package middleware

import (
	"SetMatch/internal/pkg/consts"
	"SetMatch/internal/pkg/redis"
	"SetMatch/internal/pkg/response"
	"SetMatch/internal/pkg/security"
	"context"
	log "log/slog"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenBlacklist 已注销 Token 的签名集合
type TokenBlacklist interface {
	IsRevoked(ctx context.Context, signature string) (bool, error)
}

type redisBlacklist struct{}

func NewRedisBlacklist() TokenBlacklist {
	return redisBlacklist{}
}

func (redisBlacklist) IsRevoked(ctx context.Context, signature string) (bool, error) {
	value, err := redis.GetValue(ctx, consts.TokenBlacklistKey+signature)
	if err != nil {
		return false, err
	}
	return value != "", nil
}

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
// 浏览器无法为 WebSocket 握手设置 Header，因此同时接受 ?token= 查询参数
func AuthMiddleware(blacklist TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}

		signature, err := security.ExtractSignature(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}

		revoked, err := blacklist.IsRevoked(c.Request.Context(), signature)
		if err != nil {
			log.ErrorContext(c.Request.Context(), "check token blacklist error", "err", err)
			response.Fail(c, response.InternalServerError, "未知错误")
			c.Abort()
			return
		}
		if revoked {
			response.Fail(c, response.Unauthorized, "Token 无效或已过期")
			c.Abort()
			return
		}

		claims, err := security.ValidateToken(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "Token 无效或已过期")
			c.Abort()
			return
		}

		c.Set(consts.UserIDKey, claims.UserID)
		c.Set(consts.RolesKey, claims.Roles)

		newCtx := context.WithValue(c.Request.Context(), consts.UserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(newCtx)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "", false
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		return token, token != ""
	}
	token := c.Query("token")
	return token, token != ""
}
