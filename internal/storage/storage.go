package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/productlister/lister/internal/models"
)

const (
	productsFile = "products.yaml"
	settingsFile = "settings.yaml"
)

// CatalogStore holds products and settings. When opened on a directory every
// mutation is flushed to YAML before the call returns.
type CatalogStore struct {
	dir      string
	products map[string]*models.Product
	order    []string
	settings models.Settings
	envKey   string
	now      func() time.Time
	mu       sync.RWMutex
}

// NewMemory returns a store that is never persisted
func NewMemory() *CatalogStore {
	return &CatalogStore{
		products: make(map[string]*models.Product),
		settings: models.DefaultSettings(),
		now:      time.Now,
	}
}

// Open loads the catalog from dir, creating it on first run
func Open(dir string) (*CatalogStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	s := NewMemory()
	s.dir = dir

	var products []models.Product
	if err := readYAML(filepath.Join(dir, productsFile), &products); err != nil {
		return nil, err
	}
	for i := range products {
		p := products[i]
		if _, exists := s.products[p.ID]; exists {
			slog.Warn("Skipping duplicate product in catalog", "product_id", p.ID)
			continue
		}
		s.products[p.ID] = &p
		s.order = append(s.order, p.ID)
	}

	settings := models.DefaultSettings()
	if err := readYAML(filepath.Join(dir, settingsFile), &settings); err != nil {
		return nil, err
	}
	if settings.BrandColors == nil {
		settings.BrandColors = []string{}
	}
	if settings.DefaultTone == "" {
		settings.DefaultTone = models.ToneProfessional
	}
	s.settings = settings

	slog.Debug("Catalog loaded", "dir", dir, "products", len(s.order))
	return s, nil
}

// SetClock overrides the timestamp source
func (s *CatalogStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *CatalogStore) AddProduct(p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		return fmt.Errorf("product id is required")
	}
	if _, exists := s.products[p.ID]; exists {
		return fmt.Errorf("%w: %s", models.ErrDuplicateProduct, p.ID)
	}
	if err := checkPrimary(p.PrimaryImageIndex, len(p.ImagePaths)); err != nil {
		return err
	}

	ts := s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = ts
	}
	p.UpdatedAt = ts
	if p.Tags == nil {
		p.Tags = []string{}
	}

	stored := p.Clone()
	s.products[p.ID] = &stored
	s.order = append(s.order, p.ID)

	if err := s.flushProducts(); err != nil {
		delete(s.products, p.ID)
		s.order = s.order[:len(s.order)-1]
		return err
	}
	return nil
}

// UpdateProduct applies the non-nil fields of u and refreshes UpdatedAt
func (s *CatalogStore) UpdateProduct(id string, u models.ProductUpdate) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.products[id]
	if !exists {
		return nil, models.ErrProductNotFound
	}

	next := current.Clone()
	if u.Title != nil {
		next.Title = *u.Title
	}
	if u.Description != nil {
		next.Description = *u.Description
	}
	if u.Tags != nil {
		next.Tags = append([]string{}, u.Tags...)
	}
	if u.SuggestedPriceLow != nil {
		next.SuggestedPriceLow = *u.SuggestedPriceLow
	}
	if u.SuggestedPriceHi != nil {
		next.SuggestedPriceHi = *u.SuggestedPriceHi
	}
	if u.Category != nil {
		next.Category = *u.Category
	}
	if u.PlatformFormat != nil {
		next.PlatformFormat = *u.PlatformFormat
	}
	if u.ImagePaths != nil {
		next.ImagePaths = append([]string{}, u.ImagePaths...)
	}
	if u.PrimaryImageIndex != nil {
		next.PrimaryImageIndex = *u.PrimaryImageIndex
	}
	if u.AIChatHistory != nil {
		next.AIChatHistory = append([]models.ChatMessage{}, u.AIChatHistory...)
	}
	if u.ListingScore != nil {
		next.ListingScore = *u.ListingScore
	}

	if err := checkPrimary(next.PrimaryImageIndex, len(next.ImagePaths)); err != nil {
		return nil, err
	}

	ts := s.now().UTC()
	if !ts.After(current.UpdatedAt) {
		ts = current.UpdatedAt.Add(time.Millisecond)
	}
	next.UpdatedAt = ts

	s.products[id] = &next
	if err := s.flushProducts(); err != nil {
		s.products[id] = current
		return nil, err
	}

	out := next.Clone()
	return &out, nil
}

func (s *CatalogStore) DeleteProduct(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.products[id]
	if !exists {
		return models.ErrProductNotFound
	}

	delete(s.products, id)
	prevOrder := s.order
	s.order = make([]string, 0, len(prevOrder))
	for _, pid := range prevOrder {
		if pid != id {
			s.order = append(s.order, pid)
		}
	}

	if err := s.flushProducts(); err != nil {
		s.products[id] = current
		s.order = prevOrder
		return err
	}
	return nil
}

func (s *CatalogStore) GetProduct(id string) (*models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.products[id]
	if !exists {
		return nil, false
	}
	out := p.Clone()
	return &out, true
}

// ListProducts returns copies of all products, newest first
func (s *CatalogStore) ListProducts() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.products[s.order[i]].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Stats summarizes the catalog
type Stats struct {
	Products int `json:"products"`
	Images   int `json:"images"`
}

func (s *CatalogStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Products: len(s.products)}
	for _, p := range s.products {
		st.Images += len(p.ImagePaths)
	}
	return st
}

// SetFallbackAPIKey supplies an API key used when none is stored. It is never persisted.
func (s *CatalogStore) SetFallbackAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envKey = key
}

func (s *CatalogStore) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.withFallback(s.settings)
}

func (s *CatalogStore) withFallback(settings models.Settings) models.Settings {
	out := cloneSettings(settings)
	if out.GeminiAPIKey == "" {
		out.GeminiAPIKey = s.envKey
	}
	return out
}

// UpdateSettings applies the non-nil fields of u and persists immediately
func (s *CatalogStore) UpdateSettings(u models.SettingsUpdate) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneSettings(s.settings)
	if u.GeminiAPIKey != nil {
		next.GeminiAPIKey = *u.GeminiAPIKey
	}
	if u.BrandName != nil {
		next.BrandName = *u.BrandName
	}
	if u.BrandColors != nil {
		next.BrandColors = append([]string{}, (*u.BrandColors)...)
	}
	if u.DefaultTone != nil {
		if !u.DefaultTone.Valid() {
			return models.Settings{}, fmt.Errorf("invalid tone %q", *u.DefaultTone)
		}
		next.DefaultTone = *u.DefaultTone
	}
	if u.PreferQuality != nil {
		next.PreferQuality = *u.PreferQuality
	}

	return s.replaceSettings(next)
}

// ResetSettings restores first-run defaults
func (s *CatalogStore) ResetSettings() (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceSettings(models.DefaultSettings())
}

func (s *CatalogStore) replaceSettings(next models.Settings) (models.Settings, error) {
	prev := s.settings
	s.settings = next
	if s.dir != "" {
		if err := writeYAML(filepath.Join(s.dir, settingsFile), s.settings); err != nil {
			s.settings = prev
			return models.Settings{}, err
		}
	}
	return s.withFallback(next), nil
}

func (s *CatalogStore) flushProducts() error {
	if s.dir == "" {
		return nil
	}
	products := make([]models.Product, 0, len(s.order))
	for _, id := range s.order {
		products = append(products, *s.products[id])
	}
	return writeYAML(filepath.Join(s.dir, productsFile), products)
}

func checkPrimary(index, count int) error {
	if count == 0 {
		if index != 0 {
			return fmt.Errorf("%w: %d of %d", models.ErrInvalidImageIndex, index, count)
		}
		return nil
	}
	if index < 0 || index >= count {
		return fmt.Errorf("%w: %d of %d", models.ErrInvalidImageIndex, index, count)
	}
	return nil
}

func cloneSettings(s models.Settings) models.Settings {
	s.BrandColors = append([]string{}, s.BrandColors...)
	return s
}
