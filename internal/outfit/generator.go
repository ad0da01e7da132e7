package outfit

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"ai-wardrobe/internal/wardrobe"
)

// ErrNoCandidates is returned when no item in the wardrobe survives the
// filters, so nothing can be suggested at all.
var ErrNoCandidates = errors.New("no items match the requested filters")

// Filters restricts candidate items. Empty fields match everything.
type Filters struct {
	Occasion string
	Season   string
}

// Suggestion maps category to the randomly chosen item. Categories with no
// surviving candidate are simply absent; a partial outfit is acceptable.
type Suggestion map[string]wardrobe.ClothingItem

// ToOutfit converts a suggestion into a persistable outfit.
func (s Suggestion) ToOutfit(name string) wardrobe.Outfit {
	ids := make([]string, 0, len(s))
	for _, cat := range wardrobe.Categories {
		if item, ok := s[cat]; ok {
			ids = append(ids, item.ID)
		}
	}
	return wardrobe.Outfit{Name: name, ItemIDs: ids}
}

// Categories returns the covered categories in display order.
func (s Suggestion) Categories() []string {
	var out []string
	for _, cat := range wardrobe.Categories {
		if _, ok := s[cat]; ok {
			out = append(out, cat)
		}
	}
	return out
}

// Generator picks pseudo-random outfits. Repeated calls may return the
// same combination; that is accepted behavior.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator seeded from the clock.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded creates a Generator with a fixed seed, for reproducible tests.
func NewSeeded(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate partitions items by category, applies the filters, and picks one
// surviving item per category uniformly at random. A Dress/Jumpsuit replaces
// the Top+Bottom pair, so a suggestion never contains both. Fails only when
// zero candidates survive across all categories.
func (g *Generator) Generate(items []wardrobe.ClothingItem, f Filters) (Suggestion, error) {
	byCategory := make(map[string][]wardrobe.ClothingItem)
	for _, item := range items {
		if f.Occasion != "" && !item.HasOccasion(f.Occasion) {
			continue
		}
		if f.Season != "" && !item.HasSeason(f.Season) {
			continue
		}
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}

	if len(byCategory) == 0 {
		return nil, ErrNoCandidates
	}

	dresses := len(byCategory["Dress/Jumpsuit"])
	separates := len(byCategory["Top"]) + len(byCategory["Bottom"])
	useDress := dresses > 0 && (separates == 0 || g.rng.Intn(2) == 0)

	suggestion := make(Suggestion)
	for _, cat := range orderedCategories(byCategory) {
		if useDress && (cat == "Top" || cat == "Bottom") {
			continue
		}
		if !useDress && cat == "Dress/Jumpsuit" {
			continue
		}
		candidates := byCategory[cat]
		suggestion[cat] = candidates[g.rng.Intn(len(candidates))]
	}

	if len(suggestion) == 0 {
		return nil, ErrNoCandidates
	}
	return suggestion, nil
}

// orderedCategories returns the populated categories in a stable order so
// generation is reproducible for a given seed.
func orderedCategories(byCategory map[string][]wardrobe.ClothingItem) []string {
	cats := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}
