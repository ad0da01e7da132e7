package wardrobe

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrCorrupt marks a data file whose contents cannot be parsed. The file is
// never overwritten in that state; the user has to fix or remove it.
var ErrCorrupt = errors.New("wardrobe data file is corrupt")

// Wardrobe is the full persisted state: all items and all saved outfits.
type Wardrobe struct {
	Items   []ClothingItem `json:"items"`
	Outfits []Outfit       `json:"outfits"`
}

// ItemByID returns the item with the given id, if present.
func (w *Wardrobe) ItemByID(id string) (ClothingItem, bool) {
	for _, item := range w.Items {
		if item.ID == id {
			return item, true
		}
	}
	return ClothingItem{}, false
}

// Store persists the wardrobe to a single human-editable JSON file.
// Every mutation reloads the file, applies the change and rewrites it
// wholesale. Single-user by design; not safe for concurrent writers.
type Store struct {
	path string
}

// NewStore creates a Store backed by the given file path.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &Store{path: path}, nil
}

// Load reads the wardrobe from disk. A missing or empty file yields empty
// collections; unparseable content yields an error wrapping ErrCorrupt.
func (s *Store) Load() (*Wardrobe, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Wardrobe{}, nil
		}
		return nil, fmt.Errorf("failed to read wardrobe file %s: %w", s.path, err)
	}

	if len(data) == 0 {
		return &Wardrobe{}, nil
	}

	var w Wardrobe
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return &w, nil
}

// Save rewrites the whole wardrobe file.
func (s *Store) Save(w *Wardrobe) error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal wardrobe: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write wardrobe file %s: %w", s.path, err)
	}
	return nil
}

// AddItem validates the item, assigns it an id and timestamp if unset,
// and persists it. Returns the stored item.
func (s *Store) AddItem(item ClothingItem) (ClothingItem, error) {
	if err := item.Validate(); err != nil {
		return ClothingItem{}, err
	}

	w, err := s.Load()
	if err != nil {
		return ClothingItem{}, err
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}

	w.Items = append(w.Items, item)
	if err := s.Save(w); err != nil {
		return ClothingItem{}, err
	}
	return item, nil
}

// DeleteItem removes the item and resolves saved outfits that reference it:
// the dangling id is dropped, and an outfit left with no items is deleted.
// The item's image files are removed as well. Returns the deleted item.
func (s *Store) DeleteItem(id string) (ClothingItem, error) {
	w, err := s.Load()
	if err != nil {
		return ClothingItem{}, err
	}

	var deleted ClothingItem
	found := false
	items := w.Items[:0]
	for _, item := range w.Items {
		if item.ID == id {
			deleted = item
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		return ClothingItem{}, fmt.Errorf("item %s not found", id)
	}
	w.Items = items

	outfits := w.Outfits[:0]
	for _, outfit := range w.Outfits {
		ids := outfit.ItemIDs[:0]
		for _, itemID := range outfit.ItemIDs {
			if itemID != id {
				ids = append(ids, itemID)
			}
		}
		outfit.ItemIDs = ids
		if len(outfit.ItemIDs) > 0 {
			outfits = append(outfits, outfit)
		}
	}
	w.Outfits = outfits

	if err := s.Save(w); err != nil {
		return ClothingItem{}, err
	}

	for _, path := range []string{deleted.ImagePath, deleted.TagImagePath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return deleted, fmt.Errorf("item deleted but image removal failed: %w", err)
		}
	}
	return deleted, nil
}

// AddOutfit persists a saved outfit after checking that every referenced
// item exists and that no category appears twice.
func (s *Store) AddOutfit(outfit Outfit) (Outfit, error) {
	if outfit.Name == "" {
		return Outfit{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len(outfit.ItemIDs) == 0 {
		return Outfit{}, &ValidationError{Field: "items", Reason: "must reference at least one item"}
	}

	w, err := s.Load()
	if err != nil {
		return Outfit{}, err
	}

	seenCategories := make(map[string]bool)
	for _, id := range outfit.ItemIDs {
		item, ok := w.ItemByID(id)
		if !ok {
			return Outfit{}, &ValidationError{Field: "items", Reason: fmt.Sprintf("item %s does not exist", id)}
		}
		if seenCategories[item.Category] {
			return Outfit{}, &ValidationError{Field: "items", Reason: fmt.Sprintf("more than one %s item", item.Category)}
		}
		seenCategories[item.Category] = true
	}

	if outfit.ID == "" {
		outfit.ID = uuid.NewString()
	}
	if outfit.CreatedAt.IsZero() {
		outfit.CreatedAt = time.Now().UTC()
	}

	w.Outfits = append(w.Outfits, outfit)
	if err := s.Save(w); err != nil {
		return Outfit{}, err
	}
	return outfit, nil
}

// DeleteOutfit removes a saved outfit. Items are untouched.
func (s *Store) DeleteOutfit(id string) error {
	w, err := s.Load()
	if err != nil {
		return err
	}

	outfits := w.Outfits[:0]
	found := false
	for _, outfit := range w.Outfits {
		if outfit.ID == id {
			found = true
			continue
		}
		outfits = append(outfits, outfit)
	}
	if !found {
		return fmt.Errorf("outfit %s not found", id)
	}
	w.Outfits = outfits

	return s.Save(w)
}
