package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Storage stores an object under key and returns its public URL.
type Storage interface {
	Put(ctx context.Context, key string, upload Upload) (string, error)
}

// ObjectKey builds a unique key under prefix, keeping the upload's extension.
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return path.Join(prefix, uuid.NewString()+ext)
}

// LocalStorage writes uploads below Dir and serves them from BaseURL.
type LocalStorage struct {
	Dir     string
	BaseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStorage{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStorage) Put(_ context.Context, key string, upload Upload) (string, error) {
	destPath := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return "", err
	}

	dst, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, upload.Body); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return s.BaseURL + "/" + key, nil
}
