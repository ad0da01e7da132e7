package wardrobe

import (
	"fmt"
	"time"
)

// Controlled vocabularies for item attributes. Free text is allowed in the
// persisted file, but the UI and the model prompts stick to these.
var (
	Categories = []string{"Top", "Bottom", "Shoes", "Outerwear", "Accessory", "Dress/Jumpsuit"}
	Colors     = []string{"Black", "White", "Gray", "Navy", "Blue", "Red", "Green", "Brown", "Beige", "Pink", "Purple", "Orange", "Yellow", "Multi"}
	Styles     = []string{"Casual", "Formal", "Business", "Streetwear", "Athleisure", "Smart Casual", "Bohemian", "Minimalist"}
	Occasions  = []string{"Everyday", "Work", "Date Night", "Party", "Workout", "Outdoor", "Formal Event", "Loungewear"}
	Seasons    = []string{"Spring", "Summer", "Fall", "Winter", "All Season"}
)

// SeasonAll matches any season filter.
const SeasonAll = "All Season"

// ClothingItem is a single cataloged garment.
type ClothingItem struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Color     string   `json:"color"`
	StyleTags []string `json:"style,omitempty"`
	Occasions []string `json:"occasions,omitempty"`
	Seasons   []string `json:"seasons,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`

	// Tag-photo fields, populated only when a clothing tag was analyzed.
	Brand            string   `json:"brand,omitempty"`
	Size             string   `json:"size,omitempty"`
	Material         string   `json:"material,omitempty"`
	CareInstructions []string `json:"care_instructions,omitempty"`
	CountryOfOrigin  string   `json:"country_of_origin,omitempty"`

	ImagePath    string    `json:"image_path,omitempty"`
	TagImagePath string    `json:"tag_image_path,omitempty"`
	AddedAt      time.Time `json:"added_date"`
}

// Outfit is a saved combination of items, at most one per category.
type Outfit struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ItemIDs   []string  `json:"items"`
	CreatedAt time.Time `json:"created_date"`
}

// ValidationError reports user input rejected before persistence.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Validate checks the fields required before an item may be persisted.
func (i ClothingItem) Validate() error {
	if i.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if i.Category == "" {
		return &ValidationError{Field: "category", Reason: "must not be empty"}
	}
	if !ValidCategory(i.Category) {
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("%q is not a known category", i.Category)}
	}
	return nil
}

// HasOccasion reports whether the item is tagged with the given occasion.
func (i ClothingItem) HasOccasion(occasion string) bool {
	for _, o := range i.Occasions {
		if o == occasion {
			return true
		}
	}
	return false
}

// HasSeason reports whether the item applies to the given season.
// Items tagged "All Season" match every season.
func (i ClothingItem) HasSeason(season string) bool {
	for _, s := range i.Seasons {
		if s == season || s == SeasonAll {
			return true
		}
	}
	return false
}
