package printing

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/stoptime/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// FileSystemStorageConfig contains configuration for file system storage
type FileSystemStorageConfig struct {
	// BasePath is the root directory for documents
	// Default: ./documents
	BasePath string
	// Logger for operations
	Logger *zap.Logger
}

// FileSystemStorage stores rendered documents on the local file system under a flat key space
type FileSystemStorage struct {
	basePath string
	logger   *zap.Logger
}

// NewFileSystemStorage creates a new file system document storage
func NewFileSystemStorage(config *FileSystemStorageConfig) (*FileSystemStorage, error) {
	if config == nil {
		config = &FileSystemStorageConfig{}
	}
	if config.BasePath == "" {
		config.BasePath = "./documents"
	}

	if err := os.MkdirAll(config.BasePath, 0o755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed,
			"failed to create storage directory: "+config.BasePath, err)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FileSystemStorage{
		basePath: config.BasePath,
		logger:   logger,
	}, nil
}

// Exists reports whether a document is stored under key
func (s *FileSystemStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, NewRenderError(ErrCodeStorageFailed, "failed to stat document", err)
	}
	return !info.IsDir(), nil
}

// Put writes a document. The file is written next to its destination and
// renamed into place, so readers never see a partial document.
func (s *FileSystemStorage) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	if len(data) == 0 {
		return NewRenderError(ErrCodeStorageFailed, "document is empty", nil)
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "failed to create directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return NewRenderError(ErrCodeStorageFailed, "failed to create temporary file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return NewRenderError(ErrCodeStorageFailed, "failed to write document", err)
	}
	if err := tmp.Close(); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "failed to write document", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "failed to write document", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "failed to move document into place", err)
	}

	s.logger.Info("Document stored",
		zap.String("path", fullPath),
		zap.Int("size", len(data)))
	return nil
}

// Open returns a reader for a stored document
func (s *FileSystemStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Document not found: "+key)
	}
	if err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to open document", err)
	}
	return file, nil
}

// Delete removes a document; a missing document is not an error
func (s *FileSystemStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return NewRenderError(ErrCodeStorageFailed, "failed to delete document", err)
	}
	s.logger.Info("Document deleted", zap.String("key", key))
	return nil
}

// resolve maps a key to a path under the base directory, rejecting keys that escape it
func (s *FileSystemStorage) resolve(key string) (string, error) {
	cleanPath := filepath.Clean(key)
	if key == "" || filepath.IsAbs(cleanPath) || containsDotDot(key) {
		s.logger.Warn("blocked potentially malicious path", zap.String("key", key))
		return "", NewRenderError(ErrCodeStorageFailed, "invalid document key", nil)
	}

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to resolve base path", err)
	}
	absPath, err := filepath.Abs(filepath.Join(s.basePath, cleanPath))
	if err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to resolve file path", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		s.logger.Warn("path escape attempt blocked",
			zap.String("key", key),
			zap.String("absPath", absPath))
		return "", NewRenderError(ErrCodeStorageFailed, "invalid document key", nil)
	}
	return absPath, nil
}

// containsDotDot checks if a path contains ".." components
func containsDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}
