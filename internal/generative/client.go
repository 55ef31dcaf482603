// Package generative turns listing-assistant intents into generative model calls.
package generative

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/productlister/lister/internal/images"
	"github.com/productlister/lister/internal/jsonextract"
	"github.com/productlister/lister/internal/models"
	"github.com/productlister/lister/internal/providers"
	"golang.org/x/sync/errgroup"
)

// Tier is a named model configuration
type Tier string

const (
	TierQuality Tier = "quality"
	TierFast    Tier = "fast"
	TierText    Tier = "text"
)

// Models maps tiers to provider model names
type Models struct {
	Quality string
	Fast    string
	Text    string
}

// DefaultModels returns the stock model names
func DefaultModels() Models {
	return Models{
		Quality: "gemini-2.5-flash-image",
		Fast:    "gemini-2.5-flash-image",
		Text:    "gemini-2.5-flash",
	}
}

func (m Models) name(t Tier) string {
	switch t {
	case TierQuality:
		return m.Quality
	case TierFast:
		return m.Fast
	default:
		return m.Text
	}
}

// Options configures a Client
type Options struct {
	Models        Models
	PreferQuality bool
}

// EditResult is the outcome of an image operation. A failed operation carries
// Err and no image.
type EditResult struct {
	Text        string
	ImageBase64 string
	Err         error
}

// Kind returns the error kind, or "" on success
func (r EditResult) Kind() models.Kind {
	return models.KindOf(r.Err)
}

// HasImage reports whether the result carries an image
func (r EditResult) HasImage() bool {
	return r.Err == nil && r.ImageBase64 != ""
}

// Client is the generative model adapter. It owns tier selection, the single
// quality to fast fallback and the conversation handle.
type Client struct {
	provider      providers.Provider
	models        Models
	preferQuality bool

	mu        sync.Mutex
	chat      providers.Chat
	chatModel string
}

// New returns a Client calling p
func New(p providers.Provider, opts Options) *Client {
	m := opts.Models
	def := DefaultModels()
	if m.Quality == "" {
		m.Quality = def.Quality
	}
	if m.Fast == "" {
		m.Fast = def.Fast
	}
	if m.Text == "" {
		m.Text = def.Text
	}
	return &Client{
		provider:      p,
		models:        m,
		preferQuality: opts.PreferQuality,
	}
}

func (c *Client) imageTier() Tier {
	if c.preferQuality {
		return TierQuality
	}
	return TierFast
}

type call func(ctx context.Context, model string) (*providers.Response, error)

// withFallback runs fn on the preferred image tier and, when a quality tier
// call fails with a retryable error, exactly once more on the fast tier.
func (c *Client) withFallback(ctx context.Context, op string, fn call) (*providers.Response, bool, error) {
	tier := c.imageTier()
	model := c.models.name(tier)
	resp, err := traceCall(ctx, op, tier, model, func(ctx context.Context) (*providers.Response, error) {
		return fn(ctx, model)
	})
	if err == nil {
		return resp, false, nil
	}

	kind := Classify(err)
	if kind != models.KindRetryable || tier != TierQuality {
		return nil, false, classify(op, err)
	}

	slog.Warn("Primary model unavailable, trying fallback model", "op", op, "model", model, "err", err)

	fast := c.models.name(TierFast)
	resp, err = traceCall(ctx, op, TierFast, fast, func(ctx context.Context) (*providers.Response, error) {
		return fn(ctx, fast)
	})
	if err != nil {
		return nil, true, classify(op, err)
	}
	return resp, true, nil
}

// StartConversation opens a new provider conversation seeded with image and
// prompt. The previous conversation, if any, is discarded. The conversation is
// kept only when the first turn succeeds.
func (c *Client) StartConversation(ctx context.Context, image []byte, prompt string) EditResult {
	c.ResetConversation()

	var (
		chat      providers.Chat
		chatModel string
	)
	resp, usedFallback, err := c.withFallback(ctx, "start_conversation", func(ctx context.Context, model string) (*providers.Response, error) {
		if chat != nil {
			chat.Close()
			chat = nil
		}
		opened, err := c.provider.StartChat(ctx, model)
		if err != nil {
			return nil, err
		}
		chat, chatModel = opened, model
		return chat.SendMessage(ctx, imagePart(image), providers.TextPart(prompt))
	})
	if err != nil {
		if chat != nil {
			chat.Close()
		}
		return EditResult{Err: err}
	}

	result := parseImageResponse(resp, usedFallback)
	if result.Err != nil {
		chat.Close()
		return result
	}

	c.mu.Lock()
	c.chat, c.chatModel = chat, chatModel
	c.mu.Unlock()
	return result
}

// ContinueConversation sends a follow-up instruction. It never falls back, as
// the conversation lives on the model that started it.
func (c *Client) ContinueConversation(ctx context.Context, prompt string) EditResult {
	c.mu.Lock()
	chat, model := c.chat, c.chatModel
	c.mu.Unlock()

	if chat == nil {
		return EditResult{Err: models.ErrNoActiveSession}
	}

	resp, err := traceCall(ctx, "continue_conversation", c.imageTier(), model, func(ctx context.Context) (*providers.Response, error) {
		return chat.SendMessage(ctx, providers.TextPart(prompt))
	})
	if err != nil {
		return EditResult{Err: classify("continue_conversation", err)}
	}
	return parseImageResponse(resp, false)
}

// HasConversation reports whether a conversation is active
func (c *Client) HasConversation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chat != nil
}

// ResetConversation discards the provider-side conversation
func (c *Client) ResetConversation() {
	c.mu.Lock()
	chat := c.chat
	c.chat, c.chatModel = nil, ""
	c.mu.Unlock()

	if chat != nil {
		if err := chat.Close(); err != nil {
			slog.Warn("Failed to close conversation", "err", err)
		}
	}
}

// EditOnce applies prompt to image in a single stateless call
func (c *Client) EditOnce(ctx context.Context, image []byte, prompt string) EditResult {
	return c.editOnce(ctx, "edit_once", image, prompt, true)
}

func (c *Client) editOnce(ctx context.Context, op string, image []byte, prompt string, disclose bool) EditResult {
	resp, usedFallback, err := c.withFallback(ctx, op, func(ctx context.Context, model string) (*providers.Response, error) {
		return c.provider.GenerateContent(ctx, providers.Request{
			Model: model,
			Parts: []providers.Part{imagePart(image), providers.TextPart(prompt)},
		})
	})
	if err != nil {
		return EditResult{Err: err}
	}
	return parseImageResponse(resp, usedFallback && disclose)
}

// RemoveBackground replaces the background of image with pure white
func (c *Client) RemoveBackground(ctx context.Context, image []byte) EditResult {
	return c.editOnce(ctx, "remove_background", image, removeBackgroundPrompt, true)
}

// GenerateVariations renders the four style variations concurrently. Results
// keep slot order and one slot's failure never affects the others.
func (c *Client) GenerateVariations(ctx context.Context, image []byte) []EditResult {
	results := make([]EditResult, len(VariationPrompts))

	var g errgroup.Group
	for i, prompt := range VariationPrompts {
		g.Go(func() error {
			results[i] = c.editOnce(ctx, "generate_variation", image, prompt, false)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// GenerateFromText produces a product photo from a text description alone
func (c *Client) GenerateFromText(ctx context.Context, prompt string) EditResult {
	resp, usedFallback, err := c.withFallback(ctx, "generate_from_text", func(ctx context.Context, model string) (*providers.Response, error) {
		return c.provider.GenerateContent(ctx, providers.Request{
			Model: model,
			Parts: []providers.Part{providers.TextPart(textToImagePrompt(prompt))},
		})
	})
	if err != nil {
		return EditResult{Err: err}
	}
	return parseImageResponse(resp, usedFallback)
}

// GenerateListing asks the text tier for a listing draft
func (c *Client) GenerateListing(ctx context.Context, image []byte, brand string, tone models.Tone) (*models.Listing, error) {
	text, err := c.generateText(ctx, "generate_listing", image, listingPrompt(brand, tone))
	if err != nil {
		return nil, err
	}

	listing, err := jsonextract.Decode[models.Listing](text)
	if err != nil || len(listing.Titles) == 0 {
		if err == nil {
			err = errors.New("listing has no titles")
		}
		return nil, &models.Error{Kind: models.KindMalformedResponse, Op: "generate_listing", Message: "Failed to parse listing data", Err: err}
	}
	return &listing, nil
}

// AnalyzeSEO asks the text tier to score a listing
func (c *Client) AnalyzeSEO(ctx context.Context, image []byte, title, description string, tags []string) (*models.SEOAnalysis, error) {
	text, err := c.generateText(ctx, "analyze_seo", image, seoPrompt(title, description, tags))
	if err != nil {
		return nil, err
	}

	analysis, err := jsonextract.Decode[models.SEOAnalysis](text)
	if err != nil {
		return nil, &models.Error{Kind: models.KindMalformedResponse, Op: "analyze_seo", Message: "Failed to parse SEO analysis", Err: err}
	}
	analysis.ListingScore = clampScore(analysis.ListingScore)
	b := &analysis.ScoreBreakdown
	b.TitleQuality = clampScore(b.TitleQuality)
	b.DescriptionCompleteness = clampScore(b.DescriptionCompleteness)
	b.TagRelevance = clampScore(b.TagRelevance)
	b.KeywordOptimization = clampScore(b.KeywordOptimization)
	return &analysis, nil
}

func (c *Client) generateText(ctx context.Context, op string, image []byte, prompt string) (string, error) {
	model := c.models.name(TierText)
	resp, err := traceCall(ctx, op, TierText, model, func(ctx context.Context) (*providers.Response, error) {
		return c.provider.GenerateContent(ctx, providers.Request{
			Model: model,
			Parts: []providers.Part{imagePart(image), providers.TextPart(prompt)},
		})
	})
	if err != nil {
		return "", classify(op, err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		for _, p := range cand.Parts {
			if !p.IsImage() {
				sb.WriteString(p.Text)
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String(), nil
}

func parseImageResponse(resp *providers.Response, usedFallback bool) EditResult {
	if resp == nil || len(resp.Candidates) == 0 {
		return EditResult{Err: &models.Error{Kind: models.KindFatal, Message: "No response from AI"}}
	}

	var result EditResult
	var texts []string
	for _, p := range resp.Candidates[0].Parts {
		if p.IsImage() {
			result.ImageBase64 = base64.StdEncoding.EncodeToString(p.Data)
			continue
		}
		if t := strings.TrimSpace(p.Text); t != "" {
			texts = append(texts, t)
		}
	}
	result.Text = strings.Join(texts, "\n")

	if usedFallback {
		if result.Text == "" {
			result.Text = fallbackDisclosure
		} else {
			result.Text += "\n" + fallbackDisclosure
		}
	}
	return result
}

func imagePart(data []byte) providers.Part {
	return providers.ImagePart(images.MIMEType(data), data)
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
