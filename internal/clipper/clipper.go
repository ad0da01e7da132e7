package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ai-wardrobe/internal/llm"
	"ai-wardrobe/internal/shared"
	"ai-wardrobe/internal/vision"
	"ai-wardrobe/internal/wardrobe"

	"github.com/PuerkitoBio/goquery"
)

// Clipper imports clothing items from product-page URLs, so a garment can
// be cataloged straight from the shop listing without a photo.
type Clipper struct {
	textGen    llm.TextGenerator
	httpClient *http.Client
}

// extractedItem is the shape the model returns for a product page.
type extractedItem struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Color    string `json:"color"`
	Brand    string `json:"brand"`
	Material string `json:"material"`
}

// NewClipper creates a new Clipper instance.
func NewClipper(textGen llm.TextGenerator) *Clipper {
	return &Clipper{
		textGen: textGen,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ImportURL fetches the page, extracts the product details using the model,
// and returns an unsaved item for the caller to review and persist.
func (c *Clipper) ImportURL(ctx context.Context, url string) (wardrobe.ClothingItem, shared.AgentMeta, error) {
	start := time.Now()

	content, err := c.fetchAndCleanHTML(url)
	if err != nil {
		return wardrobe.ClothingItem{}, shared.AgentMeta{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a clothing catalog assistant. Extract the product details from the following product page content.
Return the result strictly as a JSON object with this structure:
{
  "name": "Product name, e.g. 'Navy Cotton Oxford Shirt'",
  "category": "one of: Top, Bottom, Shoes, Outerwear, Accessory, Dress/Jumpsuit",
  "color": "primary color - one of: Black, White, Gray, Navy, Blue, Red, Green, Brown, Beige, Pink, Purple, Orange, Yellow, Multi",
  "brand": "brand name if present",
  "material": "fabric composition if present"
}

Page Content:
%s
`, content)

	resp, err := c.textGen.GenerateContent(ctx, prompt)
	meta := shared.AgentMeta{
		AgentName: "Clipper",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	if err != nil {
		return wardrobe.ClothingItem{}, meta, fmt.Errorf("ai extraction failed: %w", err)
	}

	obj, err := vision.ExtractJSONObject(resp.Content)
	if err != nil {
		return wardrobe.ClothingItem{}, meta, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, resp.Content)
	}

	var extracted extractedItem
	if err := json.Unmarshal([]byte(obj), &extracted); err != nil {
		return wardrobe.ClothingItem{}, meta, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, resp.Content)
	}

	item := wardrobe.ClothingItem{
		Name:     extracted.Name,
		Color:    extracted.Color,
		Brand:    extracted.Brand,
		Material: extracted.Material,
	}
	if wardrobe.ValidCategory(extracted.Category) {
		item.Category = extracted.Category
	}

	meta.Latency = time.Since(start)
	return item, meta, nil
}

func (c *Clipper) fetchAndCleanHTML(url string) (string, error) {
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save model tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text(), nil
}
