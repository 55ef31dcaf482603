package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/productlister/lister/internal/models"
)

// FileStore keeps artifacts as files under <root>/<productID>/<filename>
type FileStore struct {
	root   string
	source Source
}

// NewFileStore initializes a FileStore rooted at root
func NewFileStore(root string, source Source) (*FileStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("artifacts: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact root: %w", err)
	}
	return &FileStore{root: root, source: source}, nil
}

func (s *FileStore) Put(ctx context.Context, productID, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := Join(productID, filename)
	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create product directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), "."+filename+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to commit artifact: %w", err)
	}

	slog.Debug("Stored artifact", "path", key, "bytes", len(data))
	return key, nil
}

func (s *FileStore) PutFromSource(ctx context.Context, productID, sourceRef, filename string) (string, error) {
	if s.source == nil {
		return "", errors.New("artifacts: no source resolver configured")
	}
	data, err := s.source.Fetch(ctx, sourceRef)
	if err != nil {
		return "", fmt.Errorf("failed to read source image: %w", err)
	}
	return s.Put(ctx, productID, filename, data)
}

func (s *FileStore) Get(ctx context.Context, artifactPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(artifactPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", models.ErrArtifactNotFound, artifactPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

func (s *FileStore) DeleteAll(ctx context.Context, productID string) error {
	if err := validSegment(productID); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.root, productID)); err != nil {
		return fmt.Errorf("failed to delete product artifacts: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, artifactPath string) error {
	full, err := s.resolve(artifactPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context, productID string) ([]string, error) {
	if err := validSegment(productID); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.root, productID))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list product artifacts: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isImageName(e.Name()) {
			continue
		}
		paths = append(paths, Join(productID, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *FileStore) Close() error { return nil }

// Root returns the directory artifacts are written under
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) resolve(artifactPath string) (string, error) {
	productID, filename, err := Split(artifactPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, productID, filename), nil
}
