package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskloop/task-tracker-api/internal/auth"
	"github.com/taskloop/task-tracker-api/internal/constants"
	"github.com/taskloop/task-tracker-api/internal/models"
	"github.com/taskloop/task-tracker-api/internal/repository"
)

type middlewareEnv struct {
	db         *gorm.DB
	jwtManager *auth.JWTManager
	router     *gin.Engine
}

// setupRouter wires RequireAuth in front of an echo handler that reports the
// resolved subject.
func setupRouter(t *testing.T) *middlewareEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}, &models.Attachment{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	users := repository.NewUserRepository(db)

	router := gin.New()
	router.GET("/me", RequireAuth(jwtManager, users), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"email": user.Email})
	})
	router.GET("/admin", RequireAuth(jwtManager, users), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return &middlewareEnv{db: db, jwtManager: jwtManager, router: router}
}

func (e *middlewareEnv) createUser(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "hashed", Role: role}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *middlewareEnv) tokenFor(t *testing.T, userID uint64) string {
	t.Helper()
	token, _, err := e.jwtManager.Generate(userID)
	require.NoError(t, err)
	return token
}

func TestRequireAuth_NoToken(t *testing.T) {
	env := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "No token provided")
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	env := setupRouter(t)
	user := env.createUser(t, "user@example.com", models.RoleUser)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+env.tokenFor(t, user.ID))
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user@example.com")
}

func TestRequireAuth_Cookie(t *testing.T) {
	env := setupRouter(t)
	user := env.createUser(t, "user@example.com", models.RoleUser)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: constants.AuthCookieName, Value: env.tokenFor(t, user.ID)})
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user@example.com")
}

func TestRequireAuth_CookieWinsOverHeader(t *testing.T) {
	env := setupRouter(t)
	cookieUser := env.createUser(t, "cookie@example.com", models.RoleUser)
	headerUser := env.createUser(t, "header@example.com", models.RoleUser)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: constants.AuthCookieName, Value: env.tokenFor(t, cookieUser.ID)})
	req.Header.Set("Authorization", "Bearer "+env.tokenFor(t, headerUser.ID))
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cookie@example.com")
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	env := setupRouter(t)
	user := env.createUser(t, "user@example.com", models.RoleUser)

	expired := auth.NewJWTManager("test-secret", -time.Minute)
	token, _, err := expired.Generate(user.ID)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token expired, please log in again")
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	env := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")
}

// A valid token for a user that has since been deleted resolves to 404, not
// 401: the credential itself is fine, its subject is gone.
func TestRequireAuth_DeletedUser(t *testing.T) {
	env := setupRouter(t)
	user := env.createUser(t, "user@example.com", models.RoleUser)
	token := env.tokenFor(t, user.ID)

	require.NoError(t, env.db.Delete(&models.User{}, user.ID).Error)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "User not found")
}

func TestRequireAdmin_Forbidden(t *testing.T) {
	env := setupRouter(t)
	user := env.createUser(t, "user@example.com", models.RoleUser)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+env.tokenFor(t, user.ID))
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin_Allowed(t *testing.T) {
	env := setupRouter(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+env.tokenFor(t, admin.ID))
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
