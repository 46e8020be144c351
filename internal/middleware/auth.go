package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskloop/task-tracker-api/internal/auth"
	"github.com/taskloop/task-tracker-api/internal/constants"
	apierrors "github.com/taskloop/task-tracker-api/internal/errors"
	"github.com/taskloop/task-tracker-api/internal/models"
	"github.com/taskloop/task-tracker-api/internal/repository"
)

// RequireAuth resolves the bearer token, verifies it and loads the user.
// The cookie wins over the Authorization header when both carry a token.
// A valid token whose user no longer exists yields 404.
func RequireAuth(jwtManager *auth.JWTManager, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			apierrors.Unauthorized(c, "Unauthorized: No token provided")
			c.Abort()
			return
		}

		claims, err := jwtManager.Parse(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				apierrors.Unauthorized(c, "Token expired, please log in again")
			} else {
				apierrors.Unauthorized(c, "Invalid token")
			}
			c.Abort()
			return
		}

		user, err := users.FindByID(claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "User not found")
			} else {
				apierrors.InternalError(c, "Server error during authentication")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

// RequireAdmin rejects non-admin subjects. Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := CurrentUser(c)
		if !exists {
			apierrors.Unauthorized(c, "Not authenticated")
			c.Abort()
			return
		}

		if !user.IsAdmin() {
			apierrors.Forbidden(c, "Not authorized. Admin access required.")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUser retrieves the authenticated user from the context
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}

	user, ok := value.(*models.User)
	if !ok {
		return nil, false
	}
	return user, true
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(constants.AuthCookieName); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return ""
}
