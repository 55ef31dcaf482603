package artifacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/productlister/lister/internal/models"
	_ "modernc.org/sqlite"
)

// BlobStore keeps artifacts as rows in a SQLite database
type BlobStore struct {
	db     *sqlx.DB
	source Source
}

// NewBlobStore opens (or creates) the database at dsn. ":memory:" is accepted.
func NewBlobStore(dsn string, source Source) (*BlobStore, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to artifact database: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &BlobStore{db: db, source: source}, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS artifacts(
  path TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  filename TEXT NOT NULL,
  data BLOB NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_product ON artifacts(product_id);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create artifact schema: %w", err)
	}
	return nil
}

func (s *BlobStore) Put(ctx context.Context, productID, filename string, data []byte) (string, error) {
	key := Join(productID, filename)
	if _, _, err := Split(key); err != nil {
		return "", err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO artifacts(path, product_id, filename, data, created_at) VALUES(?,?,?,?,?)
ON CONFLICT(path) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`,
		key, productID, filename, data, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return key, nil
}

func (s *BlobStore) PutFromSource(ctx context.Context, productID, sourceRef, filename string) (string, error) {
	if s.source == nil {
		return "", errors.New("artifacts: no source resolver configured")
	}
	data, err := s.source.Fetch(ctx, sourceRef)
	if err != nil {
		return "", fmt.Errorf("failed to read source image: %w", err)
	}
	return s.Put(ctx, productID, filename, data)
}

func (s *BlobStore) Get(ctx context.Context, artifactPath string) ([]byte, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT data FROM artifacts WHERE path = ?`, artifactPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrArtifactNotFound, artifactPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

func (s *BlobStore) DeleteAll(ctx context.Context, productID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE product_id = ?`, productID); err != nil {
		return fmt.Errorf("failed to delete product artifacts: %w", err)
	}
	return nil
}

func (s *BlobStore) Delete(ctx context.Context, artifactPath string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE path = ?`, artifactPath); err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

func (s *BlobStore) List(ctx context.Context, productID string) ([]string, error) {
	paths := []string{}
	if err := s.db.SelectContext(ctx, &paths, `SELECT path FROM artifacts WHERE product_id = ? ORDER BY filename`, productID); err != nil {
		return nil, fmt.Errorf("failed to list product artifacts: %w", err)
	}
	return paths, nil
}

func (s *BlobStore) Close() error {
	return s.db.Close()
}
