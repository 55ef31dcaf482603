package models

import "time"

// Platform is the marketplace a listing is formatted for
type Platform string

const (
	PlatformEtsy    Platform = "etsy"
	PlatformEbay    Platform = "ebay"
	PlatformAmazon  Platform = "amazon"
	PlatformShopify Platform = "shopify"
)

// PlatformLimits holds the title length and tag count a marketplace accepts.
// Zero means unbounded.
type PlatformLimits struct {
	TitleChars int
	MaxTags    int
}

var platformLimits = map[Platform]PlatformLimits{
	PlatformEtsy:    {TitleChars: 140, MaxTags: 13},
	PlatformEbay:    {TitleChars: 80, MaxTags: 30},
	PlatformAmazon:  {TitleChars: 200, MaxTags: 250},
	PlatformShopify: {},
}

// Limits returns the platform limits, or unbounded limits for an unknown platform
func (p Platform) Limits() PlatformLimits {
	return platformLimits[p]
}

// Valid reports whether p is one of the supported platforms
func (p Platform) Valid() bool {
	_, ok := platformLimits[p]
	return ok
}

// Tone is the voice used for generated listing copy
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneLuxury       Tone = "luxury"
	ToneEdgy         Tone = "edgy"
)

func (t Tone) Valid() bool {
	switch t {
	case ToneProfessional, ToneCasual, ToneLuxury, ToneEdgy:
		return true
	}
	return false
}

// Role identifies the author of a chat message
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is one entry of an editing transcript
type ChatMessage struct {
	Role      Role   `json:"role" yaml:"role"`
	Text      string `json:"text,omitempty" yaml:"text,omitempty"`
	ImagePath string `json:"image_path,omitempty" yaml:"image_path,omitempty"`
}

// Product is a catalog entry built from an editing session
type Product struct {
	ID                string        `json:"id" yaml:"id"`
	Title             string        `json:"title" yaml:"title"`
	Description       string        `json:"description" yaml:"description"`
	Tags              []string      `json:"tags" yaml:"tags"`
	SuggestedPriceLow float64       `json:"suggested_price_low" yaml:"suggested_price_low"`
	SuggestedPriceHi  float64       `json:"suggested_price_high" yaml:"suggested_price_high"`
	Category          string        `json:"category" yaml:"category"`
	PlatformFormat    Platform      `json:"platform_format" yaml:"platform_format"`
	ImagePaths        []string      `json:"image_paths" yaml:"image_paths"`
	PrimaryImageIndex int           `json:"primary_image_index" yaml:"primary_image_index"`
	AIChatHistory     []ChatMessage `json:"ai_chat_history" yaml:"ai_chat_history"`
	ListingScore      int           `json:"listing_score" yaml:"listing_score"`
	CreatedAt         time.Time     `json:"created_at" yaml:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" yaml:"updated_at"`
}

// PrimaryImage returns the path of the primary image, or "" when the product has none
func (p *Product) PrimaryImage() string {
	if len(p.ImagePaths) == 0 {
		return ""
	}
	if p.PrimaryImageIndex < 0 || p.PrimaryImageIndex >= len(p.ImagePaths) {
		return p.ImagePaths[0]
	}
	return p.ImagePaths[p.PrimaryImageIndex]
}

// Clone returns a deep copy of the product
func (p Product) Clone() Product {
	p.Tags = append([]string(nil), p.Tags...)
	p.ImagePaths = append([]string(nil), p.ImagePaths...)
	p.AIChatHistory = append([]ChatMessage(nil), p.AIChatHistory...)
	return p
}

// ProductUpdate carries a partial product mutation. Nil fields are left untouched.
type ProductUpdate struct {
	Title             *string
	Description       *string
	Tags              []string
	SuggestedPriceLow *float64
	SuggestedPriceHi  *float64
	Category          *string
	PlatformFormat    *Platform
	ImagePaths        []string
	PrimaryImageIndex *int
	AIChatHistory     []ChatMessage
	ListingScore      *int
}

// Settings is the process-wide user configuration
type Settings struct {
	GeminiAPIKey  string   `json:"gemini_api_key" yaml:"gemini_api_key"`
	BrandName     string   `json:"brand_name" yaml:"brand_name"`
	BrandColors   []string `json:"brand_colors" yaml:"brand_colors"`
	DefaultTone   Tone     `json:"default_tone" yaml:"default_tone"`
	PreferQuality bool     `json:"prefer_quality" yaml:"prefer_quality"`
}

// DefaultSettings returns the settings used on first run
func DefaultSettings() Settings {
	return Settings{
		BrandColors: []string{},
		DefaultTone: ToneProfessional,
	}
}

// SettingsUpdate carries a partial settings mutation. Nil fields are left untouched.
type SettingsUpdate struct {
	GeminiAPIKey  *string   `json:"gemini_api_key,omitempty"`
	BrandName     *string   `json:"brand_name,omitempty"`
	BrandColors   *[]string `json:"brand_colors,omitempty"`
	DefaultTone   *Tone     `json:"default_tone,omitempty"`
	PreferQuality *bool     `json:"prefer_quality,omitempty"`
}

// ListingDescription is the structured description returned by the text model
type ListingDescription struct {
	Overview  string   `json:"overview"`
	Features  []string `json:"features"`
	Materials string   `json:"materials"`
	Care      string   `json:"care"`
}

// PriceRange is a suggested price band
type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Listing is a generated listing draft. It is not persisted until saved.
type Listing struct {
	Titles         []string           `json:"titles"`
	Description    ListingDescription `json:"description"`
	Tags           []string           `json:"tags"`
	Category       string             `json:"category"`
	PriceRange     PriceRange         `json:"priceRange"`
	TargetAudience string             `json:"targetAudience"`
}

// ScoreBreakdown holds the SEO sub-scores, each 0-100
type ScoreBreakdown struct {
	TitleQuality            float64 `json:"titleQuality"`
	DescriptionCompleteness float64 `json:"descriptionCompleteness"`
	TagRelevance            float64 `json:"tagRelevance"`
	KeywordOptimization     float64 `json:"keywordOptimization"`
}

// KeywordSuggestion is a keyword the SEO analysis recommends adding
type KeywordSuggestion struct {
	Keyword   string `json:"keyword"`
	Relevance string `json:"relevance"` // "high", "medium", "low"
	Reason    string `json:"reason"`
}

// CompetitorInsights summarizes the competitive landscape
type CompetitorInsights struct {
	TypicalPriceRange PriceRange `json:"typicalPriceRange"`
	CommonKeywords    []string   `json:"commonKeywords"`
	Differentiators   []string   `json:"differentiators"`
}

// SEOAnalysis is the result of scoring a listing
type SEOAnalysis struct {
	ListingScore       float64             `json:"listingScore"`
	ScoreBreakdown     ScoreBreakdown      `json:"scoreBreakdown"`
	SuggestedKeywords  []KeywordSuggestion `json:"suggestedKeywords"`
	Improvements       []string            `json:"improvements"`
	CompetitorInsights CompetitorInsights  `json:"competitorInsights"`
}
