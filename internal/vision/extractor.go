package vision

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"ai-wardrobe/internal/llm"
	"ai-wardrobe/internal/shared"
	"ai-wardrobe/internal/wardrobe"
)

//go:embed garment_prompt.md
var garmentPrompt string

//go:embed tag_prompt.md
var tagPrompt string

// ExtractionError reports a model call or response that could not be turned
// into attributes even after best-effort recovery. Callers are expected to
// degrade to manual entry, not abort the add-item flow.
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("attribute extraction failed (%s): %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// GarmentAttributes are the fields the model extracts from a garment photo.
// Any field the response lacked or mangled is left at its zero value.
type GarmentAttributes struct {
	Category      string
	Color         string
	Style         []string
	Occasions     []string
	Seasons       []string
	Pattern       string
	SuggestedName string
}

// TagAttributes are the fields the model reads off a clothing tag photo.
type TagAttributes struct {
	Brand            string
	Size             string
	Material         string
	CareInstructions []string
	CountryOfOrigin  string
}

// AnalyzeGarment sends the garment photo to the model and maps the response
// into GarmentAttributes. Constrained fields (category, color, style,
// occasions, seasons) are validated against the wardrobe vocabularies;
// out-of-vocabulary values are dropped rather than propagated.
func AnalyzeGarment(
	ctx context.Context,
	analyzer llm.VisionAnalyzer,
	img llm.ImagePayload,
) (GarmentAttributes, shared.AgentMeta, error) {
	start := time.Now()

	resp, err := analyzer.AnalyzeImage(ctx, garmentPrompt, img)
	meta := shared.AgentMeta{
		AgentName: "GarmentAnalyzer",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	if err != nil {
		return GarmentAttributes{}, meta, &ExtractionError{Stage: "call", Err: err}
	}

	m, err := decodeLoose(resp.Content)
	if err != nil {
		return GarmentAttributes{}, meta, &ExtractionError{Stage: "parse", Err: err}
	}

	attrs := GarmentAttributes{
		Category:      vocabValue(stringField(m, "category"), wardrobe.Categories),
		Color:         vocabValue(stringField(m, "color"), wardrobe.Colors),
		Style:         filterVocabulary(stringListField(m, "style"), wardrobe.Styles),
		Occasions:     filterVocabulary(stringListField(m, "occasions"), wardrobe.Occasions),
		Seasons:       filterVocabulary(stringListField(m, "seasons"), wardrobe.Seasons),
		Pattern:       stringField(m, "pattern"),
		SuggestedName: stringField(m, "suggested_name"),
	}
	meta.Latency = time.Since(start)
	return attrs, meta, nil
}

// AnalyzeTag sends the tag photo to the model and maps the response into
// TagAttributes. All fields are free text; absent fields default to empty.
func AnalyzeTag(
	ctx context.Context,
	analyzer llm.VisionAnalyzer,
	img llm.ImagePayload,
) (TagAttributes, shared.AgentMeta, error) {
	start := time.Now()

	resp, err := analyzer.AnalyzeImage(ctx, tagPrompt, img)
	meta := shared.AgentMeta{
		AgentName: "TagReader",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	if err != nil {
		return TagAttributes{}, meta, &ExtractionError{Stage: "call", Err: err}
	}

	m, err := decodeLoose(resp.Content)
	if err != nil {
		return TagAttributes{}, meta, &ExtractionError{Stage: "parse", Err: err}
	}

	attrs := TagAttributes{
		Brand:            stringField(m, "brand"),
		Size:             stringField(m, "size"),
		Material:         stringField(m, "material"),
		CareInstructions: stringListField(m, "care_instructions"),
		CountryOfOrigin:  stringField(m, "country_of_origin"),
	}
	meta.Latency = time.Since(start)
	return attrs, meta, nil
}

// Apply pre-fills only the empty fields of an item, so re-running analysis
// never overwrites values the user already edited.
func (a GarmentAttributes) Apply(item *wardrobe.ClothingItem) {
	if item.Name == "" {
		item.Name = a.SuggestedName
	}
	if item.Category == "" {
		item.Category = a.Category
	}
	if item.Color == "" {
		item.Color = a.Color
	}
	if len(item.StyleTags) == 0 {
		item.StyleTags = a.Style
	}
	if len(item.Occasions) == 0 {
		item.Occasions = a.Occasions
	}
	if len(item.Seasons) == 0 {
		item.Seasons = a.Seasons
	}
	if item.Pattern == "" {
		item.Pattern = a.Pattern
	}
}

// Apply pre-fills only the empty tag fields of an item.
func (a TagAttributes) Apply(item *wardrobe.ClothingItem) {
	if item.Brand == "" {
		item.Brand = a.Brand
	}
	if item.Size == "" {
		item.Size = a.Size
	}
	if item.Material == "" {
		item.Material = a.Material
	}
	if len(item.CareInstructions) == 0 {
		item.CareInstructions = a.CareInstructions
	}
	if item.CountryOfOrigin == "" {
		item.CountryOfOrigin = a.CountryOfOrigin
	}
}
