// Package artifacts persists product image blobs keyed by {productID}/{filename}.
package artifacts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store is the blob persistence used for product images
type Store interface {
	Put(ctx context.Context, productID, filename string, data []byte) (string, error)
	PutFromSource(ctx context.Context, productID, sourceRef, filename string) (string, error)
	Get(ctx context.Context, artifactPath string) ([]byte, error)
	DeleteAll(ctx context.Context, productID string) error
	Delete(ctx context.Context, artifactPath string) error
	List(ctx context.Context, productID string) ([]string, error)
	Close() error
}

// Source resolves an external reference (file path or URL) to image bytes
type Source interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

const (
	BackendFilesystem = "fs"
	BackendSQLite     = "sqlite"
)

// Open selects a backend by name. dir is the filesystem root or the directory
// holding the SQLite database.
func Open(backend, dir string, source Source) (Store, error) {
	switch backend {
	case "", BackendFilesystem:
		return NewFileStore(dir, source)
	case BackendSQLite:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create artifact directory: %w", err)
		}
		return NewBlobStore(filepath.Join(dir, "artifacts.db"), source)
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", backend)
	}
}

// Join builds an artifact path from its parts
func Join(productID, filename string) string {
	return productID + "/" + filename
}

// Split breaks an artifact path into product id and filename
func Split(artifactPath string) (string, string, error) {
	productID, filename, ok := strings.Cut(artifactPath, "/")
	if !ok {
		return "", "", fmt.Errorf("invalid artifact path %q", artifactPath)
	}
	if err := validSegment(productID); err != nil {
		return "", "", err
	}
	if err := validSegment(filename); err != nil {
		return "", "", err
	}
	return productID, filename, nil
}

func validSegment(s string) error {
	switch {
	case strings.TrimSpace(s) == "":
		return errors.New("artifacts: empty path segment")
	case s == "." || s == "..":
		return fmt.Errorf("artifacts: invalid path segment %q", s)
	case strings.ContainsAny(s, `/\`):
		return fmt.Errorf("artifacts: path segment %q contains a separator", s)
	}
	return nil
}

// SaveBase64 decodes b64 and stores it under productID/filename
func SaveBase64(ctx context.Context, store Store, productID, b64, filename string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return store.Put(ctx, productID, filename, data)
}

// LoadBase64 reads an artifact and returns it base64 encoded
func LoadBase64(ctx context.Context, store Store, artifactPath string) (string, error) {
	data, err := store.Get(ctx, artifactPath)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func isImageName(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}
