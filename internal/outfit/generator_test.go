package outfit

import (
	"errors"
	"testing"

	"ai-wardrobe/internal/wardrobe"
)

func item(id, name, category string, occasions, seasons []string) wardrobe.ClothingItem {
	return wardrobe.ClothingItem{
		ID:        id,
		Name:      name,
		Category:  category,
		Occasions: occasions,
		Seasons:   seasons,
	}
}

func TestGenerateNeverSelectsAbsentCategory(t *testing.T) {
	items := []wardrobe.ClothingItem{
		item("1", "Tee", "Top", nil, nil),
		item("2", "Jeans", "Bottom", nil, nil),
	}

	g := NewSeeded(1)
	for i := 0; i < 20; i++ {
		s, err := g.Generate(items, Filters{})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		for cat := range s {
			if cat != "Top" && cat != "Bottom" {
				t.Fatalf("Selected absent category %s", cat)
			}
		}
	}
}

func TestGenerateFilterSatisfaction(t *testing.T) {
	items := []wardrobe.ClothingItem{
		item("1", "Tee", "Top", []string{"Everyday"}, []string{"Summer"}),
		item("2", "Dress Shirt", "Top", []string{"Formal Event"}, []string{"Winter"}),
		item("3", "Shorts", "Bottom", []string{"Everyday"}, []string{"Summer"}),
		item("4", "Slacks", "Bottom", []string{"Formal Event"}, []string{"Winter"}),
		item("5", "Loafers", "Shoes", []string{"Formal Event"}, []string{"All Season"}),
	}

	g := NewSeeded(7)
	f := Filters{Occasion: "Formal Event", Season: "Winter"}
	for i := 0; i < 20; i++ {
		s, err := g.Generate(items, f)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		for cat, chosen := range s {
			if !chosen.HasOccasion("Formal Event") {
				t.Errorf("%s item %s does not match occasion filter", cat, chosen.Name)
			}
			if !chosen.HasSeason("Winter") {
				t.Errorf("%s item %s does not match season filter", cat, chosen.Name)
			}
		}
	}
}

func TestGenerateAllSeasonMatchesAnySeasonFilter(t *testing.T) {
	items := []wardrobe.ClothingItem{
		item("1", "Sneakers", "Shoes", nil, []string{"All Season"}),
	}

	g := NewSeeded(3)
	s, err := g.Generate(items, Filters{Season: "Winter"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, ok := s["Shoes"]; !ok {
		t.Error("Expected All Season item to survive a Winter filter")
	}
}

func TestGeneratePartialOutfitIsAcceptable(t *testing.T) {
	// Top#1 (casual, summer) and Bottom#1 (formal, winter): a casual filter
	// keeps the top and leaves the bottom slot unfilled.
	items := []wardrobe.ClothingItem{
		item("1", "Top#1", "Top", []string{"Everyday"}, []string{"Summer"}),
		item("2", "Bottom#1", "Bottom", []string{"Formal Event"}, []string{"Winter"}),
	}

	g := NewSeeded(5)
	s, err := g.Generate(items, Filters{Occasion: "Everyday"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if chosen, ok := s["Top"]; !ok || chosen.ID != "1" {
		t.Errorf("Expected Top#1 to be selected, got %v", s)
	}
	if _, ok := s["Bottom"]; ok {
		t.Error("Expected Bottom slot to be omitted, no candidate survives the filter")
	}
}

func TestGenerateNoCandidates(t *testing.T) {
	items := []wardrobe.ClothingItem{
		item("1", "Tee", "Top", []string{"Everyday"}, nil),
	}

	g := NewSeeded(2)
	_, err := g.Generate(items, Filters{Occasion: "Formal Event"})
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("Expected ErrNoCandidates, got %v", err)
	}

	_, err = g.Generate(nil, Filters{})
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("Expected ErrNoCandidates for empty wardrobe, got %v", err)
	}
}

func TestGenerateDressReplacesSeparates(t *testing.T) {
	items := []wardrobe.ClothingItem{
		item("1", "Tee", "Top", nil, nil),
		item("2", "Jeans", "Bottom", nil, nil),
		item("3", "Sundress", "Dress/Jumpsuit", nil, nil),
		item("4", "Sneakers", "Shoes", nil, nil),
	}

	g := NewSeeded(11)
	sawDress, sawSeparates := false, false
	for i := 0; i < 50; i++ {
		s, err := g.Generate(items, Filters{})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		_, hasDress := s["Dress/Jumpsuit"]
		_, hasTop := s["Top"]
		_, hasBottom := s["Bottom"]
		if hasDress && (hasTop || hasBottom) {
			t.Fatal("Suggestion contains both a dress and separates")
		}
		if hasDress {
			sawDress = true
		}
		if hasTop || hasBottom {
			sawSeparates = true
		}
		if _, ok := s["Shoes"]; !ok {
			t.Fatal("Expected shoes in every suggestion")
		}
	}
	if !sawDress || !sawSeparates {
		t.Error("Expected both dress and separates outcomes across 50 generations")
	}
}

func TestGenerateDressOnlyWardrobe(t *testing.T) {
	items := []wardrobe.ClothingItem{
		item("1", "Jumpsuit", "Dress/Jumpsuit", nil, nil),
	}

	g := NewSeeded(4)
	for i := 0; i < 10; i++ {
		s, err := g.Generate(items, Filters{})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if _, ok := s["Dress/Jumpsuit"]; !ok {
			t.Fatal("Expected the only dress to always be selected")
		}
	}
}

func TestSuggestionToOutfit(t *testing.T) {
	s := Suggestion{
		"Top":   item("t1", "Tee", "Top", nil, nil),
		"Shoes": item("s1", "Sneakers", "Shoes", nil, nil),
	}

	outfit := s.ToOutfit("Monday Look")
	if outfit.Name != "Monday Look" {
		t.Errorf("Expected name 'Monday Look', got '%s'", outfit.Name)
	}
	if len(outfit.ItemIDs) != 2 {
		t.Fatalf("Expected 2 item ids, got %d", len(outfit.ItemIDs))
	}
	// Display order follows the category order, Top before Shoes.
	if outfit.ItemIDs[0] != "t1" || outfit.ItemIDs[1] != "s1" {
		t.Errorf("Unexpected id order: %v", outfit.ItemIDs)
	}
}
