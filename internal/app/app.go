package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"ai-wardrobe/internal/clipper"
	"ai-wardrobe/internal/config"
	"ai-wardrobe/internal/imaging"
	"ai-wardrobe/internal/llm"
	"ai-wardrobe/internal/metrics"
	"ai-wardrobe/internal/outfit"
	"ai-wardrobe/internal/shared"
	"ai-wardrobe/internal/vision"
	"ai-wardrobe/internal/wardrobe"
)

// App holds the application's dependencies and drives the CLI flows.
type App struct {
	cfg          *config.Config
	store        *wardrobe.Store
	images       *imaging.Store
	analyzer     llm.VisionAnalyzer
	textGen      llm.TextGenerator
	generator    *outfit.Generator
	clip         *clipper.Clipper
	metricsStore *metrics.Store
}

// NewApp creates and initializes a new App instance.
func NewApp(
	cfg *config.Config,
	store *wardrobe.Store,
	images *imaging.Store,
	analyzer llm.VisionAnalyzer,
	textGen llm.TextGenerator,
	generator *outfit.Generator,
	clip *clipper.Clipper,
	metricsStore *metrics.Store,
) *App {
	return &App{
		cfg:          cfg,
		store:        store,
		images:       images,
		analyzer:     analyzer,
		textGen:      textGen,
		generator:    generator,
		clip:         clip,
		metricsStore: metricsStore,
	}
}

// AddItemFromFiles catalogs a garment photo, optionally with a tag photo.
// The model's attributes pre-fill only fields left empty in overrides, so
// flags the user passed always win. An extraction failure does not abort
// the flow: whatever the user supplied manually is still validated and
// saved.
func (a *App) AddItemFromFiles(ctx context.Context, garmentPath, tagPath string, overrides wardrobe.ClothingItem) (wardrobe.ClothingItem, error) {
	item := overrides

	garment, err := a.processFile(garmentPath)
	if err != nil {
		return wardrobe.ClothingItem{}, err
	}

	attrs, meta, err := vision.AnalyzeGarment(ctx, a.analyzer, llm.ImagePayload{Data: garment.Data, MIME: garment.MIME})
	a.recordMeta(meta)
	if err != nil {
		var exErr *vision.ExtractionError
		if !errors.As(err, &exErr) {
			return wardrobe.ClothingItem{}, err
		}
		log.Printf("Warning: garment analysis failed, falling back to manual fields: %v", err)
	} else {
		attrs.Apply(&item)
	}

	if tagPath != "" {
		tag, err := a.processFile(tagPath)
		if err != nil {
			return wardrobe.ClothingItem{}, err
		}

		tagAttrs, tagMeta, err := vision.AnalyzeTag(ctx, a.analyzer, llm.ImagePayload{Data: tag.Data, MIME: tag.MIME})
		a.recordMeta(tagMeta)
		if err != nil {
			log.Printf("Warning: tag analysis failed, skipping tag fields: %v", err)
		} else {
			tagAttrs.Apply(&item)
		}

		tagImagePath, err := a.images.Save(tag.Data, ".jpg")
		if err != nil {
			return wardrobe.ClothingItem{}, err
		}
		item.TagImagePath = tagImagePath
	}

	imagePath, err := a.images.Save(garment.Data, ".jpg")
	if err != nil {
		return wardrobe.ClothingItem{}, err
	}
	item.ImagePath = imagePath

	saved, err := a.store.AddItem(item)
	if err != nil {
		// The item was rejected; don't leave orphan image files behind.
		os.Remove(item.ImagePath)
		if item.TagImagePath != "" {
			os.Remove(item.TagImagePath)
		}
		return wardrobe.ClothingItem{}, err
	}
	return saved, nil
}

func (a *App) processFile(path string) (*imaging.ProcessResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer f.Close()
	return imaging.Process(f)
}

// ImportFromURL catalogs an item from a product-page URL.
func (a *App) ImportFromURL(ctx context.Context, url string) (wardrobe.ClothingItem, error) {
	item, meta, err := a.clip.ImportURL(ctx, url)
	a.recordMeta(meta)
	if err != nil {
		return wardrobe.ClothingItem{}, err
	}
	return a.store.AddItem(item)
}

// GenerateOutfit loads the wardrobe and picks a random outfit honoring the
// filters.
func (a *App) GenerateOutfit(f outfit.Filters) (outfit.Suggestion, error) {
	w, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	return a.generator.Generate(w.Items, f)
}

// SaveOutfit persists a generated suggestion under the given name.
func (a *App) SaveOutfit(name string, s outfit.Suggestion) (wardrobe.Outfit, error) {
	return a.store.AddOutfit(s.ToOutfit(name))
}

// ListWardrobe returns the current wardrobe state.
func (a *App) ListWardrobe() (*wardrobe.Wardrobe, error) {
	return a.store.Load()
}

// DeleteItem removes an item, its image files, and resolves outfits that
// referenced it.
func (a *App) DeleteItem(id string) (wardrobe.ClothingItem, error) {
	return a.store.DeleteItem(id)
}

// DeleteOutfit removes a saved outfit.
func (a *App) DeleteOutfit(id string) error {
	return a.store.DeleteOutfit(id)
}

// ValidateKey makes a minimal model call to confirm the configured
// credential works.
func (a *App) ValidateKey(ctx context.Context) error {
	prober, ok := a.analyzer.(llm.Prober)
	if !ok {
		if prober, ok = a.textGen.(llm.Prober); !ok {
			return fmt.Errorf("configured model client does not support probing")
		}
	}
	if err := prober.Probe(ctx); err != nil {
		switch {
		case errors.Is(err, llm.ErrUnauthorized):
			return fmt.Errorf("the API key was rejected: %w", err)
		case errors.Is(err, llm.ErrRateLimited):
			return fmt.Errorf("the key works but the account is rate limited: %w", err)
		default:
			return fmt.Errorf("key validation failed: %w", err)
		}
	}
	return nil
}

func (a *App) recordMeta(meta shared.AgentMeta) {
	if a.metricsStore == nil {
		return
	}
	if err := a.metricsStore.RecordMeta(meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, err)
	}
}

// FormatSuggestion renders a suggestion for terminal output.
func FormatSuggestion(s outfit.Suggestion) string {
	var buf bytes.Buffer
	for _, cat := range s.Categories() {
		item := s[cat]
		fmt.Fprintf(&buf, "%-15s %s", cat, item.Name)
		if item.Color != "" {
			fmt.Fprintf(&buf, " (%s)", item.Color)
		}
		if item.ImagePath != "" {
			fmt.Fprintf(&buf, "  [%s]", filepath.Base(item.ImagePath))
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}
