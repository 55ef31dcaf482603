// Package export writes the product catalog to Parquet or YAML.
package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/productlister/lister/internal/models"
)

const (
	FormatParquet = "parquet"
	FormatYAML    = "yaml"
)

// Row is the flat Parquet representation of a product
type Row struct {
	ID              string   `parquet:"id"`
	Title           string   `parquet:"title"`
	Description     string   `parquet:"description"`
	Tags            []string `parquet:"tags"`
	Category        string   `parquet:"category"`
	Platform        string   `parquet:"platform"`
	PriceLow        float64  `parquet:"price_low"`
	PriceHigh       float64  `parquet:"price_high"`
	ImagePaths      []string `parquet:"image_paths"`
	PrimaryImage    string   `parquet:"primary_image"`
	ListingScore    int64    `parquet:"listing_score"`
	ChatMessages    int64    `parquet:"chat_messages"`
	CreatedAtUnixMs int64    `parquet:"created_at_ms"`
	UpdatedAtUnixMs int64    `parquet:"updated_at_ms"`
}

// ToRow flattens a product for columnar export
func ToRow(p models.Product) Row {
	return Row{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		Tags:            p.Tags,
		Category:        p.Category,
		Platform:        string(p.PlatformFormat),
		PriceLow:        p.SuggestedPriceLow,
		PriceHigh:       p.SuggestedPriceHi,
		ImagePaths:      p.ImagePaths,
		PrimaryImage:    p.PrimaryImage(),
		ListingScore:    int64(p.ListingScore),
		ChatMessages:    int64(len(p.AIChatHistory)),
		CreatedAtUnixMs: p.CreatedAt.UnixMilli(),
		UpdatedAtUnixMs: p.UpdatedAt.UnixMilli(),
	}
}

// FormatFromPath picks an export format from a file extension
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return FormatParquet, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported file format: %s (supported: .parquet, .yaml)", ext)
	}
}

// Write encodes products to w in the given format
func Write(w io.Writer, format string, products []models.Product) error {
	switch format {
	case FormatParquet:
		return WriteParquet(w, products)
	case FormatYAML:
		return WriteYAML(w, products)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func WriteParquet(w io.Writer, products []models.Product) error {
	rows := make([]Row, 0, len(products))
	for _, p := range products {
		rows = append(rows, ToRow(p))
	}

	writer := parquet.NewGenericWriter[Row](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	slog.Debug("Exported catalog", "format", FormatParquet, "rows", len(rows))
	return nil
}

func WriteYAML(w io.Writer, products []models.Product) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(products); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush yaml: %w", err)
	}

	slog.Debug("Exported catalog", "format", FormatYAML, "rows", len(products))
	return nil
}

// ReadParquet loads rows written by WriteParquet
func ReadParquet(r io.ReaderAt, size int64) ([]Row, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	var out []Row
	batch := make([]Row, 128)
	for {
		n, err := reader.Read(batch)
		out = append(out, batch[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return out, nil
}
