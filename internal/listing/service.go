// Package listing generates, saves and scores product listings.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/productlister/lister/internal/artifacts"
	"github.com/productlister/lister/internal/models"
)

// TextGenerator is the text tier of the generative client
type TextGenerator interface {
	GenerateListing(ctx context.Context, image []byte, brand string, tone models.Tone) (*models.Listing, error)
	AnalyzeSEO(ctx context.Context, image []byte, title, description string, tags []string) (*models.SEOAnalysis, error)
}

// Catalog is the part of the catalog store the workflow mutates
type Catalog interface {
	Settings() models.Settings
	GetProduct(id string) (*models.Product, bool)
	UpdateProduct(id string, u models.ProductUpdate) (*models.Product, error)
	DeleteProduct(id string) error
}

type Service struct {
	catalog      Catalog
	store        artifacts.Store
	newGenerator func(models.Settings) TextGenerator
}

func NewService(catalog Catalog, store artifacts.Store, newGenerator func(models.Settings) TextGenerator) *Service {
	return &Service{
		catalog:      catalog,
		store:        store,
		newGenerator: newGenerator,
	}
}

// Selection picks which generated title to keep and the target platform
type Selection struct {
	TitleIndex int             `json:"title_index"`
	Title      string          `json:"title,omitempty"`
	Platform   models.Platform `json:"platform"`
}

// prepare loads the product and its primary image, enforcing the shared preconditions
func (s *Service) prepare(ctx context.Context, productID string) (*models.Product, []byte, TextGenerator, models.Settings, error) {
	settings := s.catalog.Settings()

	product, ok := s.catalog.GetProduct(productID)
	if !ok {
		return nil, nil, nil, settings, models.ErrProductNotFound
	}
	if settings.GeminiAPIKey == "" {
		return nil, nil, nil, settings, models.ErrNoAPIKey
	}
	if len(product.ImagePaths) == 0 {
		return nil, nil, nil, settings, models.ErrNoProductImages
	}

	image, err := s.store.Get(ctx, product.PrimaryImage())
	if err != nil {
		return nil, nil, nil, settings, fmt.Errorf("failed to load product image: %w", err)
	}
	return product, image, s.newGenerator(settings), settings, nil
}

// GenerateListing drafts listing copy from the product's primary image. The
// draft is not saved.
func (s *Service) GenerateListing(ctx context.Context, productID string) (*models.Listing, error) {
	_, image, gen, settings, err := s.prepare(ctx, productID)
	if err != nil {
		return nil, err
	}

	slog.Info("Generating listing", "product_id", productID, "tone", settings.DefaultTone)
	draft, err := gen.GenerateListing(ctx, image, settings.BrandName, settings.DefaultTone)
	if err != nil {
		slog.Error("Failed to generate listing", "product_id", productID, "err", err)
		return nil, err
	}
	draft.Tags = NormalizeTags(draft.Tags)
	return draft, nil
}

// SaveListing commits a draft to the product, truncated to the platform's limits
func (s *Service) SaveListing(productID string, draft models.Listing, sel Selection) (*models.Product, error) {
	platform := sel.Platform
	if platform == "" {
		platform = models.PlatformEtsy
	}
	if !platform.Valid() {
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}

	title := sel.Title
	if title == "" {
		if sel.TitleIndex < 0 || sel.TitleIndex >= len(draft.Titles) {
			return nil, fmt.Errorf("title index %d out of range (%d titles)", sel.TitleIndex, len(draft.Titles))
		}
		title = draft.Titles[sel.TitleIndex]
	}

	limits := platform.Limits()
	title = Truncate(strings.TrimSpace(title), limits.TitleChars)
	tags := NormalizeTags(draft.Tags)
	if limits.MaxTags > 0 && len(tags) > limits.MaxTags {
		tags = tags[:limits.MaxTags]
	}
	description := FormatDescription(draft.Description)

	return s.catalog.UpdateProduct(productID, models.ProductUpdate{
		Title:             &title,
		Description:       &description,
		Tags:              tags,
		Category:          &draft.Category,
		SuggestedPriceLow: &draft.PriceRange.Low,
		SuggestedPriceHi:  &draft.PriceRange.High,
		PlatformFormat:    &platform,
	})
}

// AnalyzeSEO scores the product's saved listing. The score is written back
// to the product; the rest of the analysis is returned for display.
func (s *Service) AnalyzeSEO(ctx context.Context, productID string) (*models.SEOAnalysis, error) {
	product, ok := s.catalog.GetProduct(productID)
	if ok && strings.TrimSpace(product.Title) == "" {
		return nil, models.ErrNoListing
	}

	product, image, gen, _, err := s.prepare(ctx, productID)
	if err != nil {
		return nil, err
	}

	analysis, err := gen.AnalyzeSEO(ctx, image, product.Title, product.Description, product.Tags)
	if err != nil {
		slog.Error("Failed to analyze SEO", "product_id", productID, "err", err)
		return nil, err
	}

	score := int(math.Round(analysis.ListingScore))
	if _, err := s.catalog.UpdateProduct(productID, models.ProductUpdate{ListingScore: &score}); err != nil {
		return nil, err
	}
	slog.Info("SEO analysis complete", "product_id", productID, "score", score)
	return analysis, nil
}

// AddKeyword appends a suggested keyword to the product's tags. Platform tag
// limits are not enforced here.
func (s *Service) AddKeyword(productID, keyword string) (*models.Product, error) {
	product, ok := s.catalog.GetProduct(productID)
	if !ok {
		return nil, models.ErrProductNotFound
	}

	tags := NormalizeTags(append(product.Tags, keyword))
	return s.catalog.UpdateProduct(productID, models.ProductUpdate{Tags: tags})
}

// SetPrimaryImage marks imagePaths[index] as the product's primary image
func (s *Service) SetPrimaryImage(productID string, index int) (*models.Product, error) {
	return s.catalog.UpdateProduct(productID, models.ProductUpdate{PrimaryImageIndex: &index})
}

// DeleteProduct removes the product and every artifact stored under it
func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	if err := s.catalog.DeleteProduct(productID); err != nil {
		return err
	}
	if err := s.store.DeleteAll(ctx, productID); err != nil {
		return fmt.Errorf("failed to delete product images: %w", err)
	}
	slog.Info("Product deleted", "product_id", productID)
	return nil
}

// FormatDescription renders a structured description as listing text
func FormatDescription(d models.ListingDescription) string {
	var sb strings.Builder
	sb.WriteString(d.Overview)
	sb.WriteString("\n\nFeatures:\n")
	for i, f := range d.Features {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("• ")
		sb.WriteString(f)
	}
	sb.WriteString("\n\nMaterials:\n")
	sb.WriteString(d.Materials)
	sb.WriteString("\n\nCare:\n")
	sb.WriteString(d.Care)
	return sb.String()
}

// CopyText renders a product's listing for pasting into a marketplace form
func CopyText(p models.Product) string {
	return strings.Join([]string{
		p.Title,
		"",
		p.Description,
		"",
		"Tags: " + strings.Join(p.Tags, ", "),
	}, "\n")
}

// NormalizeTags trims and lowercases tags, dropping empties and duplicates
// while keeping first-seen order
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Truncate cuts s to at most limit characters. A limit of 0 means unbounded.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
