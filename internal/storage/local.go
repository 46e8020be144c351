package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps blobs on the local filesystem and serves them from a static
// route, locators look like "/uploads/<name>".
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (s *LocalStore) Save(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	objectName = filepath.Base(objectName)

	f, err := os.Create(filepath.Join(s.dir, objectName))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return s.baseURL + "/" + objectName, nil
}

func (s *LocalStore) Delete(ctx context.Context, locator string) error {
	name := filepath.Base(strings.TrimPrefix(locator, s.baseURL+"/"))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("invalid locator %q", locator)
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}
