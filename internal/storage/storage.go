package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fieldops/backoffice-api/internal/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidPath = errors.New("invalid storage path")
)

// Object is a stored file opened for reading
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Storage keeps job report media (photos and voice messages)
type Storage interface {
	Upload(ctx context.Context, filename, contentType string, data io.Reader) (string, int64, error)
	Download(ctx context.Context, storagePath string) (*Object, error)
	Delete(ctx context.Context, storagePath string) error
}

// NewStorage selects the backend: "local" writes to the filesystem,
// "cloud"/"azure" to Azure Blob Storage.
func NewStorage(cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalStorage(cfg.LocalBasePath)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// objectKey builds "reports/YYYY/MM/<uuid><ext>"
func objectKey(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("reports", now.Format("2006"), now.Format("01"), uuid.New().String()+ext)
}

// CleanKey validates a caller-supplied key. Absolute paths and any ".."
// segment are rejected.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.ReplaceAll(key, "\\", "/"), "/")
	if key == "" {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return "", ErrInvalidPath
		}
	}
	return key, nil
}

// LocalStorage implements Storage on the local filesystem
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, filename, contentType string, data io.Reader) (string, int64, error) {
	key := objectKey(filename, time.Now().UTC())
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, data)
	if err != nil {
		os.Remove(fullPath)
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}
	return key, size, nil
}

func (s *LocalStorage) Download(ctx context.Context, storagePath string) (*Object, error) {
	key, err := CleanKey(storagePath)
	if err != nil {
		return nil, err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Object{Body: file, ContentType: contentType, Size: info.Size()}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, storagePath string) error {
	key, err := CleanKey(storagePath)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.basePath, filepath.FromSlash(key))); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
