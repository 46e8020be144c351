package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskloop/task-tracker-api/internal/auth"
	"github.com/taskloop/task-tracker-api/internal/constants"
	"github.com/taskloop/task-tracker-api/internal/dto"
	apierrors "github.com/taskloop/task-tracker-api/internal/errors"
	"github.com/taskloop/task-tracker-api/internal/middleware"
	"github.com/taskloop/task-tracker-api/internal/services"
)

// AuthHandler coordinates registration, login and the current-user lookup.
type AuthHandler struct {
	authService *services.AuthService
	jwtManager  *auth.JWTManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtManager:  jwtManager,
	}
}

// Register creates a new user account and logs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8,max=32"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Register(services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	token, exp, err := h.jwtManager.Generate(user.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to issue token")
		return
	}
	setAuthCookie(c, token, exp)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    dto.ToUserDTO(*user),
		"token":   token,
	})
}

// Login authenticates a user and sets the auth cookie. The token is also
// returned in the body for header-based clients.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8,max=32"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	token, exp, err := h.jwtManager.Generate(user.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to issue token")
		return
	}
	setAuthCookie(c, token, exp)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
	})
}

// GetCurrentUser returns the authenticated user with the credential stripped.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, exists := middleware.CurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// Logout clears the auth cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(constants.AuthCookieName, "", -1, "/", "", gin.Mode() == gin.ReleaseMode, true)

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}

func setAuthCookie(c *gin.Context, token string, exp time.Time) {
	c.SetSameSite(http.SameSiteStrictMode)
	maxAge := int(time.Until(exp).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetCookie(constants.AuthCookieName, token, maxAge, "/", "", gin.Mode() == gin.ReleaseMode, true)
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.BadRequest(c, "Email already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrFailedToHashPassword):
		apierrors.InternalError(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
