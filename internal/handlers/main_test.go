package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskloop/task-tracker-api/internal/auth"
	"github.com/taskloop/task-tracker-api/internal/constants"
	"github.com/taskloop/task-tracker-api/internal/models"
	"github.com/taskloop/task-tracker-api/internal/repository"
	"github.com/taskloop/task-tracker-api/internal/services"
)

// memUploader keeps stored blobs in memory so tests can assert on them.
type memUploader struct {
	mu      sync.Mutex
	objects map[string]struct{}
}

func newMemUploader() *memUploader {
	return &memUploader{objects: make(map[string]struct{})}
}

func (s *memUploader) Save(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	locator := "/mem/" + objectName
	s.mu.Lock()
	s.objects[locator] = struct{}{}
	s.mu.Unlock()
	return locator, nil
}

func (s *memUploader) Delete(ctx context.Context, locator string) error {
	s.mu.Lock()
	delete(s.objects, locator)
	s.mu.Unlock()
	return nil
}

func (s *memUploader) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// testEnv wires the full handler stack on an in-memory database.
type testEnv struct {
	db           *gorm.DB
	store        *memUploader
	jwtManager   *auth.JWTManager
	taskHandler  *TaskHandler
	authHandler  *AuthHandler
	adminHandler *AdminHandler
}

func newTestEnv(t require.TestingT) *testEnv {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}, &models.Attachment{}))

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := newMemUploader()
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	attachments := services.NewAttachmentService(store, log)
	taskService := services.NewTaskService(taskRepo, userRepo, attachments, log)
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, attachments)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	return &testEnv{
		db:           db,
		store:        store,
		jwtManager:   jwtManager,
		taskHandler:  NewTaskHandler(taskService, log),
		authHandler:  NewAuthHandler(authService, jwtManager),
		adminHandler: NewAdminHandler(userService, log),
	}
}

func (e *testEnv) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (e *testEnv) createUser(t require.TestingT, email, password string, role models.UserRole) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

// mpFile is a file part for a multipart request body.
type mpFile struct {
	field       string
	name        string
	contentType string
	content     []byte
}

// multipartBody builds a multipart request body from form fields and files.
func multipartBody(t require.TestingT, fields map[string]string, files ...mpFile) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

// authedContext builds a gin context with the subject already resolved, the
// way RequireAuth leaves it.
func authedContext(method, url string, body io.Reader, contentType string, subject *models.User) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if subject != nil {
		c.Set(constants.ContextKeyUser, subject)
	}

	return c, w
}

func mustParseDate(t require.TestingT, value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}
