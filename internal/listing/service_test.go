package listing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/productlister/lister/internal/artifacts"
	"github.com/productlister/lister/internal/models"
	"github.com/productlister/lister/internal/storage"
)

type fakeText struct {
	listing  *models.Listing
	analysis *models.SEOAnalysis
	err      error
	gotBrand string
	gotTone  models.Tone
	gotTitle string
	gotImage []byte
	listings int
	analyses int
}

func (f *fakeText) GenerateListing(ctx context.Context, image []byte, brand string, tone models.Tone) (*models.Listing, error) {
	f.listings++
	f.gotImage, f.gotBrand, f.gotTone = image, brand, tone
	if f.err != nil {
		return nil, f.err
	}
	return f.listing, nil
}

func (f *fakeText) AnalyzeSEO(ctx context.Context, image []byte, title, description string, tags []string) (*models.SEOAnalysis, error) {
	f.analyses++
	f.gotImage, f.gotTitle = image, title
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

type fixture struct {
	svc     *Service
	catalog *storage.CatalogStore
	store   artifacts.Store
	gen     *fakeText
}

func newFixture(t *testing.T, withKey bool) *fixture {
	t.Helper()
	store, err := artifacts.NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	catalog := storage.NewMemory()
	if withKey {
		key, brand, tone := "k", "Clay & Co", models.ToneLuxury
		if _, err := catalog.UpdateSettings(models.SettingsUpdate{GeminiAPIKey: &key, BrandName: &brand, DefaultTone: &tone}); err != nil {
			t.Fatal(err)
		}
	}
	f := &fixture{catalog: catalog, store: store, gen: &fakeText{}}
	f.svc = NewService(catalog, store, func(models.Settings) TextGenerator { return f.gen })
	return f
}

func (f *fixture) addProduct(t *testing.T, id string, images map[string]string, primary int) {
	t.Helper()
	var paths []string
	for _, name := range []string{"original.jpg", "variation_0.jpg", "variation_1.jpg"} {
		content, ok := images[name]
		if !ok {
			continue
		}
		p, err := f.store.Put(context.Background(), id, name, []byte(content))
		if err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	if err := f.catalog.AddProduct(models.Product{ID: id, ImagePaths: paths, PrimaryImageIndex: primary}); err != nil {
		t.Fatal(err)
	}
}

func sampleListing() models.Listing {
	return models.Listing{
		Titles: []string{strings.Repeat("a", 200), "Handmade Stoneware Mug"},
		Description: models.ListingDescription{
			Overview:  "A sturdy mug.",
			Features:  []string{"Holds 12oz", "Dishwasher safe"},
			Materials: "Stoneware",
			Care:      "Hand wash recommended",
		},
		Tags:       []string{"Mug", " coffee ", "mug", "gift"},
		Category:   "Home & Living",
		PriceRange: models.PriceRange{Low: 18, High: 32},
	}
}

func manyTags(n int) []string {
	tags := make([]string, n)
	for i := range tags {
		tags[i] = "tag" + strings.Repeat("x", i)
	}
	return tags
}

func TestSaveListingTruncation(t *testing.T) {
	tests := []struct {
		name      string
		platform  models.Platform
		wantTitle int
		wantTags  int
	}{
		{"etsy", models.PlatformEtsy, 140, 13},
		{"ebay", models.PlatformEbay, 80, 20},
		{"amazon", models.PlatformAmazon, 200, 20},
		{"shopify", models.PlatformShopify, 200, 20},
		{"default platform", "", 140, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			f.addProduct(t, "p1", map[string]string{"original.jpg": "img"}, 0)

			draft := sampleListing()
			draft.Tags = manyTags(20)

			product, err := f.svc.SaveListing("p1", draft, Selection{TitleIndex: 0, Platform: tt.platform})
			if err != nil {
				t.Fatalf("SaveListing failed: %v", err)
			}
			if got := utf8.RuneCountInString(product.Title); got != tt.wantTitle {
				t.Errorf("Expected title length %d, got %d", tt.wantTitle, got)
			}
			if got := len(product.Tags); got != tt.wantTags {
				t.Errorf("Expected %d tags, got %d", tt.wantTags, got)
			}
		})
	}
}

func TestSaveListingFields(t *testing.T) {
	f := newFixture(t, true)
	f.addProduct(t, "p1", map[string]string{"original.jpg": "img"}, 0)

	product, err := f.svc.SaveListing("p1", sampleListing(), Selection{TitleIndex: 1, Platform: models.PlatformEbay})
	if err != nil {
		t.Fatal(err)
	}
	if product.Title != "Handmade Stoneware Mug" {
		t.Errorf("Expected selected title, got %q", product.Title)
	}
	wantDesc := "A sturdy mug.\n\nFeatures:\n• Holds 12oz\n• Dishwasher safe\n\nMaterials:\nStoneware\n\nCare:\nHand wash recommended"
	if product.Description != wantDesc {
		t.Errorf("Expected description %q, got %q", wantDesc, product.Description)
	}
	if diff := cmp.Diff([]string{"mug", "coffee", "gift"}, product.Tags); diff != "" {
		t.Errorf("Tags mismatch (-want +got):\n%s", diff)
	}
	if product.SuggestedPriceLow != 18 || product.SuggestedPriceHi != 32 || product.Category != "Home & Living" {
		t.Errorf("Unexpected price or category: %+v", product)
	}
	if product.PlatformFormat != models.PlatformEbay {
		t.Errorf("Expected ebay, got %s", product.PlatformFormat)
	}

	if _, err := f.svc.SaveListing("p1", sampleListing(), Selection{TitleIndex: 9}); err == nil {
		t.Error("Expected error for bad title index")
	}
	if _, err := f.svc.SaveListing("p1", sampleListing(), Selection{Platform: "walmart"}); err == nil {
		t.Error("Expected error for unknown platform")
	}
	if _, err := f.svc.SaveListing("missing", sampleListing(), Selection{}); !errors.Is(err, models.ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
}

func TestGenerateListing(t *testing.T) {
	f := newFixture(t, true)
	f.addProduct(t, "p1", map[string]string{"original.jpg": "first", "variation_0.jpg": "second"}, 1)
	draft := sampleListing()
	f.gen.listing = &draft

	got, err := f.svc.GenerateListing(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GenerateListing failed: %v", err)
	}
	if string(f.gen.gotImage) != "second" {
		t.Errorf("Expected primary image to be sent, got %q", f.gen.gotImage)
	}
	if f.gen.gotBrand != "Clay & Co" || f.gen.gotTone != models.ToneLuxury {
		t.Errorf("Expected brand and tone from settings, got %q %q", f.gen.gotBrand, f.gen.gotTone)
	}
	if diff := cmp.Diff([]string{"mug", "coffee", "gift"}, got.Tags); diff != "" {
		t.Errorf("Expected normalized draft tags (-want +got):\n%s", diff)
	}

	// drafts are never committed by generation
	product, _ := f.catalog.GetProduct("p1")
	if product.Title != "" || len(product.Tags) != 0 {
		t.Errorf("Expected product untouched, got %+v", product)
	}
}

func TestGenerateListingPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("no images", func(t *testing.T) {
		f := newFixture(t, true)
		f.addProduct(t, "p1", nil, 0)
		if _, err := f.svc.GenerateListing(ctx, "p1"); !errors.Is(err, models.ErrNoProductImages) {
			t.Errorf("Expected ErrNoProductImages, got %v", err)
		}
		if f.gen.listings != 0 {
			t.Error("Expected no model call")
		}
	})

	t.Run("no api key", func(t *testing.T) {
		f := newFixture(t, false)
		f.addProduct(t, "p1", map[string]string{"original.jpg": "x"}, 0)
		if _, err := f.svc.GenerateListing(ctx, "p1"); !errors.Is(err, models.ErrNoAPIKey) {
			t.Errorf("Expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("missing product", func(t *testing.T) {
		f := newFixture(t, true)
		if _, err := f.svc.GenerateListing(ctx, "nope"); !errors.Is(err, models.ErrProductNotFound) {
			t.Errorf("Expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("malformed response", func(t *testing.T) {
		f := newFixture(t, true)
		f.addProduct(t, "p1", map[string]string{"original.jpg": "x"}, 0)
		f.gen.err = &models.Error{Kind: models.KindMalformedResponse, Message: "Failed to parse listing data"}
		if _, err := f.svc.GenerateListing(ctx, "p1"); models.KindOf(err) != models.KindMalformedResponse {
			t.Errorf("Expected malformed response, got %v", err)
		}
	})
}

func TestAnalyzeSEO(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.addProduct(t, "p1", map[string]string{"original.jpg": "x"}, 0)

	if _, err := f.svc.AnalyzeSEO(ctx, "p1"); !errors.Is(err, models.ErrNoListing) {
		t.Fatalf("Expected ErrNoListing before a listing exists, got %v", err)
	}

	if _, err := f.svc.SaveListing("p1", sampleListing(), Selection{TitleIndex: 1}); err != nil {
		t.Fatal(err)
	}
	f.gen.analysis = &models.SEOAnalysis{
		ListingScore: 72.6,
		SuggestedKeywords: []models.KeywordSuggestion{
			{Keyword: "Stoneware Mug", Relevance: "high"},
		},
	}

	analysis, err := f.svc.AnalyzeSEO(ctx, "p1")
	if err != nil {
		t.Fatalf("AnalyzeSEO failed: %v", err)
	}
	if f.gen.gotTitle != "Handmade Stoneware Mug" {
		t.Errorf("Expected saved title to be analyzed, got %q", f.gen.gotTitle)
	}
	if len(analysis.SuggestedKeywords) != 1 {
		t.Errorf("Expected analysis to be returned")
	}

	product, _ := f.catalog.GetProduct("p1")
	if product.ListingScore != 73 {
		t.Errorf("Expected listing score 73, got %d", product.ListingScore)
	}
	if diff := cmp.Diff([]string{"mug", "coffee", "gift"}, product.Tags); diff != "" {
		t.Errorf("Expected tags untouched by analysis (-want +got):\n%s", diff)
	}

	f.gen.err = errors.New("API key not valid")
	if _, err := f.svc.AnalyzeSEO(ctx, "p1"); err == nil {
		t.Error("Expected provider error")
	}
	product, _ = f.catalog.GetProduct("p1")
	if product.ListingScore != 73 {
		t.Errorf("Expected score to survive failed analysis, got %d", product.ListingScore)
	}
}

func TestAddKeyword(t *testing.T) {
	f := newFixture(t, true)
	f.addProduct(t, "p1", map[string]string{"original.jpg": "x"}, 0)
	draft := sampleListing()
	draft.Tags = manyTags(13)
	if _, err := f.svc.SaveListing("p1", draft, Selection{TitleIndex: 1}); err != nil {
		t.Fatal(err)
	}

	product, err := f.svc.AddKeyword("p1", "  Stoneware Mug ")
	if err != nil {
		t.Fatal(err)
	}
	if len(product.Tags) != 14 {
		t.Errorf("Expected 14 tags with no cap enforced, got %d", len(product.Tags))
	}
	if last := product.Tags[len(product.Tags)-1]; last != "stoneware mug" {
		t.Errorf("Expected lowercased keyword, got %q", last)
	}

	again, err := f.svc.AddKeyword("p1", "STONEWARE MUG")
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Tags) != 14 {
		t.Errorf("Expected duplicate keyword to be ignored, got %d tags", len(again.Tags))
	}

	if _, err := f.svc.AddKeyword("missing", "x"); !errors.Is(err, models.ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
}

func TestSetPrimaryAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.addProduct(t, "p1", map[string]string{"original.jpg": "a", "variation_0.jpg": "b"}, 0)

	product, err := f.svc.SetPrimaryImage("p1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if product.PrimaryImage() != "p1/variation_0.jpg" {
		t.Errorf("Expected variation as primary, got %s", product.PrimaryImage())
	}
	if _, err := f.svc.SetPrimaryImage("p1", 2); !errors.Is(err, models.ErrInvalidImageIndex) {
		t.Errorf("Expected ErrInvalidImageIndex, got %v", err)
	}

	if err := f.svc.DeleteProduct(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.catalog.GetProduct("p1"); ok {
		t.Error("Expected product to be deleted")
	}
	left, err := f.store.List(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("Expected images to be deleted, got %v", left)
	}
}

func TestCopyText(t *testing.T) {
	got := CopyText(models.Product{
		Title:       "Mug",
		Description: "A mug.",
		Tags:        []string{"mug", "gift"},
	})
	want := "Mug\n\nA mug.\n\nTags: mug, gift"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"toolong", 3, "too"},
		{"ünïcödé", 3, "ünï"},
		{"unbounded", 0, "unbounded"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("Truncate(%q, %d): expected %q, got %q", tt.in, tt.limit, tt.want, got)
		}
	}
}
