package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskloop/task-tracker-api/internal/models"
)

// memoryStore is an in-memory storage.Uploader for tests. failAfter >= 0 makes
// Save fail once that many objects have been stored.
type memoryStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failAfter int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		objects:   make(map[string][]byte),
		failAfter: -1,
	}
}

func (s *memoryStore) Save(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAfter >= 0 && len(s.objects) >= s.failAfter {
		return "", fmt.Errorf("storage unavailable")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	locator := "/mem/" + objectName
	s.objects[locator] = data
	return locator, nil
}

func (s *memoryStore) Delete(ctx context.Context, locator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, locator)
	return nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type fileSpec struct {
	name        string
	contentType string
	size        int
}

// makeFileHeaders builds real multipart file headers the way gin would hand
// them to a handler.
func makeFileHeaders(t *testing.T, specs ...fileSpec) []*multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, spec := range specs {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="taskFile"; filename="%s"`, spec.name))
		h.Set("Content-Type", spec.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte("a"), spec.size))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["taskFile"]
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Attachment{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

func createUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "hashed",
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
