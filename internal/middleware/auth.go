package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careloop/intake-api/internal/handler"
	"github.com/careloop/intake-api/internal/model"
	"github.com/careloop/intake-api/internal/repository"
	"github.com/careloop/intake-api/pkg/auth"
)

// ContextUser is the gin context key holding the authenticated *model.User.
const ContextUser = "user"

type AuthMiddleware struct {
	jwtService auth.JWTService
	users      repository.UserRepository
}

func NewAuthMiddleware(jwtService auth.JWTService, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		users:      users,
	}
}

// Authenticate verifies the bearer token and loads the caller into context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		user, err := m.users.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unknown user"))
			c.Abort()
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// RequireRole rejects callers without the given platform role
func (m *AuthMiddleware) RequireRole(role model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserFromContext(c)
		if user == nil || user.Role != role {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("permission denied"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserFromContext returns the authenticated user set by Authenticate.
func UserFromContext(c *gin.Context) *model.User {
	if v, ok := c.Get(ContextUser); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}
