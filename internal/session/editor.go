// Package session orchestrates a single product's image editing session.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/productlister/lister/internal/artifacts"
	"github.com/productlister/lister/internal/generative"
	"github.com/productlister/lister/internal/models"
)

// State is the editing session's position in its lifecycle
type State string

const (
	StateEmpty   State = "empty"
	StateReady   State = "ready"
	StateEditing State = "editing"
)

const (
	originalFilename = "original.jpg"
	variationCount   = len(generative.VariationPrompts)
)

// Generator is the part of the generative client the editor drives
type Generator interface {
	StartConversation(ctx context.Context, image []byte, prompt string) generative.EditResult
	ContinueConversation(ctx context.Context, prompt string) generative.EditResult
	HasConversation() bool
	ResetConversation()
	RemoveBackground(ctx context.Context, image []byte) generative.EditResult
	GenerateVariations(ctx context.Context, image []byte) []generative.EditResult
	GenerateFromText(ctx context.Context, prompt string) generative.EditResult
}

// Catalog is the part of the catalog store the editor needs
type Catalog interface {
	Settings() models.Settings
	GetProduct(id string) (*models.Product, bool)
	AddProduct(p models.Product) error
	UpdateProduct(id string, u models.ProductUpdate) (*models.Product, error)
}

// Source identifies an image to start from: inline bytes, or a reference
// (path or URL) resolved by the artifact store.
type Source struct {
	Ref  string
	Data []byte
}

// Gate grants access to an image source (camera or photo library permission)
type Gate interface {
	RequestAccess(ctx context.Context, src Source) error
}

// GateFunc adapts a function to Gate
type GateFunc func(ctx context.Context, src Source) error

func (f GateFunc) RequestAccess(ctx context.Context, src Source) error {
	return f(ctx, src)
}

// AllowAll grants every request
var AllowAll Gate = GateFunc(func(context.Context, Source) error { return nil })

// Options wires an Editor to its collaborators
type Options struct {
	Artifacts    artifacts.Store
	Catalog      Catalog
	NewGenerator func(models.Settings) Generator
	Gate         Gate
	Now          func() time.Time
	NewID        func() string
}

// Snapshot is a copy of the session state for rendering
type Snapshot struct {
	ProductID              string               `json:"product_id,omitempty"`
	State                  State                `json:"state"`
	CurrentImagePath       string               `json:"current_image_path,omitempty"`
	ChatHistory            []models.ChatMessage `json:"chat_history"`
	IsProcessing           bool                 `json:"is_processing"`
	Variations             []string             `json:"variations"`
	SelectedVariationIndex *int                 `json:"selected_variation_index"`
}

// VariationReport summarizes a variation run. Fewer than Total successes is
// a partial success, not an error.
type VariationReport struct {
	Paths     []string `json:"paths"`
	Succeeded int      `json:"succeeded"`
	Total     int      `json:"total"`
	Notice    string   `json:"notice"`
	Errors    []string `json:"errors,omitempty"`
}

// Editor owns the session state machine. At most one operation runs at a
// time; a concurrent call fails with models.ErrSessionBusy.
type Editor struct {
	store        artifacts.Store
	catalog      Catalog
	newGenerator func(models.Settings) Generator
	gate         Gate
	now          func() time.Time
	newID        func() string

	mu               sync.Mutex
	busy             bool
	processing       bool
	productID        string
	saved            bool
	currentImagePath string
	chat             []models.ChatMessage
	variations       []string
	selected         *int
	lastStamp        int64

	gen        Generator
	genKey     string
	genQuality bool
}

// NewEditor builds an Editor in the Empty state
func NewEditor(opts Options) *Editor {
	e := &Editor{
		store:        opts.Artifacts,
		catalog:      opts.Catalog,
		newGenerator: opts.NewGenerator,
		gate:         opts.Gate,
		now:          opts.Now,
		newID:        opts.NewID,
	}
	if e.gate == nil {
		e.gate = AllowAll
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e
}

func (e *Editor) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return models.ErrSessionBusy
	}
	e.busy = true
	return nil
}

func (e *Editor) end() {
	e.mu.Lock()
	e.busy = false
	e.processing = false
	e.mu.Unlock()
}

func (e *Editor) setProcessing(v bool) {
	e.mu.Lock()
	e.processing = v
	e.mu.Unlock()
}

// Snapshot returns a deep copy of the current session state
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		ProductID:        e.productID,
		State:            e.stateLocked(),
		CurrentImagePath: e.currentImagePath,
		ChatHistory:      append([]models.ChatMessage{}, e.chat...),
		IsProcessing:     e.processing,
		Variations:       append([]string{}, e.variations...),
	}
	if e.selected != nil {
		idx := *e.selected
		s.SelectedVariationIndex = &idx
	}
	return s
}

func (e *Editor) stateLocked() State {
	switch {
	case e.currentImagePath == "":
		return StateEmpty
	case e.gen != nil && e.gen.HasConversation():
		return StateEditing
	default:
		return StateReady
	}
}

// generator returns a generator matching the current settings, rebuilding it
// (and dropping the conversation) when the key or tier preference changed.
func (e *Editor) generator(settings models.Settings) Generator {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gen != nil && e.genKey == settings.GeminiAPIKey && e.genQuality == settings.PreferQuality {
		return e.gen
	}
	if e.gen != nil {
		e.gen.ResetConversation()
	}
	e.gen = e.newGenerator(settings)
	e.genKey = settings.GeminiAPIKey
	e.genQuality = settings.PreferQuality
	return e.gen
}

func (e *Editor) resetConversation() {
	e.mu.Lock()
	gen := e.gen
	e.mu.Unlock()
	if gen != nil {
		gen.ResetConversation()
	}
}

// checkReady enforces the shared preconditions of the editing operations
func (e *Editor) checkReady() (models.Settings, string, string, error) {
	settings := e.catalog.Settings()
	if settings.GeminiAPIKey == "" {
		return settings, "", "", models.ErrNoAPIKey
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.currentImagePath == "" {
		return settings, "", "", models.ErrNoImage
	}
	return settings, e.productID, e.currentImagePath, nil
}

func (e *Editor) appendMessage(msg models.ChatMessage) {
	e.mu.Lock()
	e.chat = append(e.chat, msg)
	e.mu.Unlock()
}

func errorMessage(err error) models.ChatMessage {
	return models.ChatMessage{Role: models.RoleModel, Text: "Error: " + err.Error()}
}

// stampedFilename returns prefix_<unix-ms>.jpg, strictly increasing within the session
func (e *Editor) stampedFilename(prefix string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ts := e.now().UnixMilli()
	if ts <= e.lastStamp {
		ts = e.lastStamp + 1
	}
	e.lastStamp = ts
	return fmt.Sprintf("%s_%d.jpg", prefix, ts)
}

// PickImage stores src as the product's original image and starts a fresh
// session around it. Any state becomes Ready.
func (e *Editor) PickImage(ctx context.Context, src Source) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	if err := e.gate.RequestAccess(ctx, src); err != nil {
		return &models.Error{Kind: models.KindPreconditionFailed, Op: "pick_image", Message: "Permission to access images was denied.", Err: err}
	}
	return e.pick(ctx, src)
}

func (e *Editor) pick(ctx context.Context, src Source) error {
	e.mu.Lock()
	productID := e.productID
	if productID == "" || e.saved {
		productID = e.newID()
	}
	e.mu.Unlock()

	var (
		path string
		err  error
	)
	if src.Data != nil {
		path, err = e.store.Put(ctx, productID, originalFilename, src.Data)
	} else {
		path, err = e.store.PutFromSource(ctx, productID, src.Ref, originalFilename)
	}
	if err != nil {
		return err
	}

	e.resetConversation()

	e.mu.Lock()
	e.productID = productID
	e.saved = false
	e.currentImagePath = path
	e.chat = nil
	e.variations = nil
	e.selected = nil
	e.mu.Unlock()

	slog.Info("Image picked", "product_id", productID, "path", path)
	return nil
}

// GenerateImage creates a base image from a text description and picks it
func (e *Editor) GenerateImage(ctx context.Context, prompt string) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	settings := e.catalog.Settings()
	if settings.GeminiAPIKey == "" {
		return models.ErrNoAPIKey
	}
	gen := e.generator(settings)

	e.setProcessing(true)
	result := gen.GenerateFromText(ctx, prompt)
	e.setProcessing(false)

	if result.Err != nil {
		return result.Err
	}
	if !result.HasImage() {
		return &models.Error{Kind: models.KindFatal, Op: "generate_image", Message: "No image returned"}
	}

	data, err := decodeBase64(result.ImageBase64)
	if err != nil {
		return err
	}
	return e.pick(ctx, Source{Data: data})
}

// SendMessage appends text to the transcript, runs it against the
// conversation and appends the model's reply. Provider failures become a
// transcript entry; only precondition failures and artifact write failures
// are returned as errors.
func (e *Editor) SendMessage(ctx context.Context, text string) (models.ChatMessage, error) {
	if err := e.begin(); err != nil {
		return models.ChatMessage{}, err
	}
	defer e.end()

	settings, productID, imagePath, err := e.checkReady()
	if err != nil {
		return models.ChatMessage{}, err
	}
	gen := e.generator(settings)

	e.appendMessage(models.ChatMessage{Role: models.RoleUser, Text: text})

	var result generative.EditResult
	if gen.HasConversation() {
		e.setProcessing(true)
		result = gen.ContinueConversation(ctx, text)
		e.setProcessing(false)
	} else {
		image, err := e.store.Get(ctx, imagePath)
		if err != nil {
			reply := errorMessage(err)
			e.appendMessage(reply)
			return reply, nil
		}
		e.setProcessing(true)
		result = gen.StartConversation(ctx, image, text)
		e.setProcessing(false)
	}

	return e.applyEdit(ctx, productID, "edit", result, "Image updated!")
}

// RemoveBackground replaces the background of the current image with white,
// outside the conversation
func (e *Editor) RemoveBackground(ctx context.Context) (models.ChatMessage, error) {
	if err := e.begin(); err != nil {
		return models.ChatMessage{}, err
	}
	defer e.end()

	settings, productID, imagePath, err := e.checkReady()
	if err != nil {
		return models.ChatMessage{}, err
	}
	gen := e.generator(settings)

	e.appendMessage(models.ChatMessage{Role: models.RoleUser, Text: "Remove background"})

	image, err := e.store.Get(ctx, imagePath)
	if err != nil {
		reply := errorMessage(err)
		e.appendMessage(reply)
		return reply, nil
	}

	e.setProcessing(true)
	result := gen.RemoveBackground(ctx, image)
	e.setProcessing(false)

	return e.applyEdit(ctx, productID, "nobg", result, "Background removed!")
}

// applyEdit turns an edit result into the model's transcript entry,
// persisting any returned image as the new current image
func (e *Editor) applyEdit(ctx context.Context, productID, prefix string, result generative.EditResult, imageText string) (models.ChatMessage, error) {
	if result.Err != nil {
		slog.Warn("Edit failed", "product_id", productID, "kind", result.Kind(), "err", result.Err)
		reply := errorMessage(result.Err)
		e.appendMessage(reply)
		return reply, nil
	}

	reply := models.ChatMessage{Role: models.RoleModel, Text: result.Text}
	if result.HasImage() {
		path, err := artifacts.SaveBase64(ctx, e.store, productID, result.ImageBase64, e.stampedFilename(prefix))
		if err != nil {
			return models.ChatMessage{}, err
		}
		if reply.Text == "" {
			reply.Text = imageText
		}
		reply.ImagePath = path

		e.mu.Lock()
		e.currentImagePath = path
		e.selected = nil
		e.mu.Unlock()
	} else if reply.Text == "" {
		reply.Text = "Done!"
	}

	e.appendMessage(reply)
	return reply, nil
}

// GenerateVariations renders the four style variations of the current image
// and replaces the variation set with the successful ones, in slot order.
func (e *Editor) GenerateVariations(ctx context.Context) (*VariationReport, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	settings, productID, imagePath, err := e.checkReady()
	if err != nil {
		return nil, err
	}
	gen := e.generator(settings)

	image, err := e.store.Get(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	e.setProcessing(true)
	results := gen.GenerateVariations(ctx, image)
	e.setProcessing(false)

	report := &VariationReport{Paths: []string{}, Total: variationCount}
	for i, r := range results {
		filename := fmt.Sprintf("variation_%d.jpg", i)
		if !r.HasImage() {
			if r.Err != nil {
				report.Errors = append(report.Errors, r.Err.Error())
			}
			// drop a stale file from an earlier run so the slot cannot resurface
			if err := e.store.Delete(ctx, artifacts.Join(productID, filename)); err != nil {
				slog.Warn("Failed to delete stale variation", "product_id", productID, "file", filename, "err", err)
			}
			continue
		}
		path, err := artifacts.SaveBase64(ctx, e.store, productID, r.ImageBase64, filename)
		if err != nil {
			return nil, err
		}
		report.Paths = append(report.Paths, path)
	}
	report.Succeeded = len(report.Paths)

	if report.Succeeded == report.Total {
		report.Notice = fmt.Sprintf("Generated %d variations.", report.Total)
	} else {
		report.Notice = fmt.Sprintf("Generated %d of %d variations.", report.Succeeded, report.Total)
	}

	e.mu.Lock()
	e.variations = append([]string{}, report.Paths...)
	e.selected = nil
	e.mu.Unlock()

	slog.Info("Variations generated", "product_id", productID, "succeeded", report.Succeeded, "total", report.Total)
	return report, nil
}

// SelectVariation promotes variations[index] to the current image
func (e *Editor) SelectVariation(index int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.variations) {
		return fmt.Errorf("%w: %d of %d", models.ErrInvalidImageIndex, index, len(e.variations))
	}
	idx := index
	e.selected = &idx
	e.currentImagePath = e.variations[index]
	return nil
}

// SaveProduct commits the session into the catalog. Saving again before the
// next pick updates the same product.
func (e *Editor) SaveProduct(ctx context.Context) (*models.Product, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	e.mu.Lock()
	productID := e.productID
	current := e.currentImagePath
	paths := dedupe(append([]string{current}, e.variations...))
	chat := append([]models.ChatMessage{}, e.chat...)
	e.mu.Unlock()

	if current == "" {
		return nil, models.ErrNoImage
	}

	primary := 0
	if _, exists := e.catalog.GetProduct(productID); exists {
		if _, err := e.catalog.UpdateProduct(productID, models.ProductUpdate{
			ImagePaths:        paths,
			PrimaryImageIndex: &primary,
			AIChatHistory:     chat,
		}); err != nil {
			return nil, err
		}
	} else {
		if err := e.catalog.AddProduct(models.Product{
			ID:                productID,
			Tags:              []string{},
			PlatformFormat:    models.PlatformEtsy,
			ImagePaths:        paths,
			PrimaryImageIndex: primary,
			AIChatHistory:     chat,
		}); err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	e.saved = true
	e.mu.Unlock()

	saved, ok := e.catalog.GetProduct(productID)
	if !ok {
		return nil, errors.New("saved product disappeared from catalog")
	}
	slog.Info("Product saved", "product_id", productID, "images", len(paths))
	return saved, nil
}

// Reset discards the session and its conversation. Persisted artifacts stay.
func (e *Editor) Reset() error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	e.resetConversation()

	e.mu.Lock()
	e.productID = ""
	e.saved = false
	e.currentImagePath = ""
	e.chat = nil
	e.variations = nil
	e.selected = nil
	e.mu.Unlock()
	return nil
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return data, nil
}
