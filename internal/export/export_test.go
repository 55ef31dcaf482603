package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"

	"github.com/productlister/lister/internal/models"
)

func sampleProducts() []models.Product {
	created := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	return []models.Product{
		{
			ID:                "p1",
			Title:             "Handmade Stoneware Mug",
			Description:       "A sturdy mug.",
			Tags:              []string{"mug", "gift"},
			SuggestedPriceLow: 18,
			SuggestedPriceHi:  32,
			Category:          "Home & Living",
			PlatformFormat:    models.PlatformEtsy,
			ImagePaths:        []string{"p1/original.jpg", "p1/variation_0.jpg"},
			PrimaryImageIndex: 1,
			AIChatHistory:     []models.ChatMessage{{Role: models.RoleUser, Text: "brighter"}},
			ListingScore:      81,
			CreatedAt:         created,
			UpdatedAt:         created.Add(time.Minute),
		},
		{
			ID:         "p2",
			ImagePaths: []string{"p2/original.jpg"},
			CreatedAt:  created,
			UpdatedAt:  created,
		},
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"catalog.parquet", FormatParquet, false},
		{"out/Catalog.YAML", FormatYAML, false},
		{"catalog.yml", FormatYAML, false},
		{"catalog.csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParquetRoundTrip(t *testing.T) {
	products := sampleProducts()

	var buf bytes.Buffer
	if err := Write(&buf, FormatParquet, products); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rows, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("ReadParquet failed: %v", err)
	}

	want := []Row{ToRow(products[0]), ToRow(products[1])}
	if diff := cmp.Diff(want, rows, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Rows mismatch (-want +got):\n%s", diff)
	}
	if rows[0].PrimaryImage != "p1/variation_0.jpg" {
		t.Errorf("Expected primary image column, got %q", rows[0].PrimaryImage)
	}
	if rows[0].ChatMessages != 1 {
		t.Errorf("Expected 1 chat message, got %d", rows[0].ChatMessages)
	}
}

func TestYAMLExport(t *testing.T) {
	products := sampleProducts()

	var buf bytes.Buffer
	if err := Write(&buf, FormatYAML, products); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "title: Handmade Stoneware Mug") {
		t.Errorf("Expected title in yaml output, got:\n%s", buf.String())
	}

	var got []models.Product
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Failed to decode export: %v", err)
	}
	if diff := cmp.Diff(products, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Products mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "csv", nil); err == nil {
		t.Error("Expected error for unknown format")
	}
}
