package handler

import (
	"context"
	"strings"

	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/util"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID    = "user_id"
	ctxPrincipal = "principal"
	ctxToken     = "access_token"
)

// TokenValidator проверяет access токен с учетом черного списка
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*util.JWTClaims, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Authenticate проверяет Bearer токен и кладет principal в контекст Gin
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respondUnauthenticated(c, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			respondUnauthenticated(c, "Invalid authorization header format")
			return
		}

		token := parts[1]

		claims, err := m.validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxPrincipal, claims.Principal())
		c.Set(ctxToken, token)

		c.Next()
	}
}

// principalFrom достает principal, положенный Authenticate
func principalFrom(c *gin.Context) (entity.Principal, bool) {
	value, exists := c.Get(ctxPrincipal)
	if !exists {
		return entity.Principal{}, false
	}
	principal, ok := value.(entity.Principal)
	if !ok || principal.UserID == "" {
		return entity.Principal{}, false
	}
	return principal, true
}

// requirePrincipal отвечает 401, если запрос не прошел Authenticate
func requirePrincipal(c *gin.Context) (entity.Principal, bool) {
	principal, ok := principalFrom(c)
	if !ok {
		respondUnauthenticated(c, "Unauthorized")
	}
	return principal, ok
}
