package generative

import (
	"fmt"
	"strings"

	"github.com/productlister/lister/internal/models"
)

const removeBackgroundPrompt = "Remove the background completely and replace it with a pure white background. Keep the product/subject exactly as it is with clean edges."

const fallbackDisclosure = "(Used fallback model due to high demand)"

// VariationPrompts are the four fixed style directives, in slot order
var VariationPrompts = [4]string{
	"Show this product with warm studio lighting on a pure white background. Keep the product exactly as it is.",
	"Show this product with cool minimal lighting and a slight shadow on a light gray background. Keep the product exactly as it is.",
	"Show this product in a lifestyle setting, as if it were being worn or used naturally. Keep the product exactly as it is.",
	"Show this product in a flat-lay arrangement on a dark wood surface with subtle props. Keep the product exactly as it is.",
}

func textToImagePrompt(prompt string) string {
	return fmt.Sprintf("Generate a professional product photo: %s. Make it look like a high-quality e-commerce product image with clean lighting and background.", prompt)
}

func listingPrompt(brand string, tone models.Tone) string {
	var sb strings.Builder
	if brand != "" {
		fmt.Fprintf(&sb, "Brand name: %s. ", brand)
	}
	if tone != "" {
		fmt.Fprintf(&sb, "Use a %s tone. ", tone)
	}
	sb.WriteString(`Analyze this product image and generate a complete e-commerce listing.
Return JSON only, no markdown, no code blocks:
{
  "titles": ["5 SEO-optimized title variations, max 140 chars each"],
  "description": {
    "overview": "2-3 sentence product summary",
    "features": ["5 key features/benefits"],
    "materials": "materials and construction details",
    "care": "care instructions"
  },
  "tags": ["13 most searchable e-commerce tags for this product"],
  "category": "suggested product category",
  "priceRange": { "low": 0, "high": 0 },
  "targetAudience": "who would buy this"
}`)
	return sb.String()
}

func seoPrompt(title, description string, tags []string) string {
	return fmt.Sprintf(`You are an e-commerce SEO expert. Analyze this product image and the following listing:
Title: %q
Tags: %s
Description: %q

Return JSON only, no markdown, no code blocks:
{
  "listingScore": 0,
  "scoreBreakdown": {
    "titleQuality": 0,
    "descriptionCompleteness": 0,
    "tagRelevance": 0,
    "keywordOptimization": 0
  },
  "suggestedKeywords": [
    { "keyword": "example keyword", "relevance": "high", "reason": "why this keyword would help" }
  ],
  "improvements": ["specific suggestion 1", "specific suggestion 2"],
  "competitorInsights": {
    "typicalPriceRange": { "low": 0, "high": 0 },
    "commonKeywords": ["keyword1", "keyword2"],
    "differentiators": ["what would make this listing stand out"]
  }
}

Score each category 0-100. listingScore should be the weighted average.
Provide 8-12 keyword suggestions with relevance levels.
Provide 3-5 specific improvements.
Base competitor insights on typical e-commerce listings for similar products.`, title, strings.Join(tags, ", "), description)
}
