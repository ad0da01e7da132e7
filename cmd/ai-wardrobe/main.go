package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"ai-wardrobe/internal/app"
	"ai-wardrobe/internal/clipper"
	"ai-wardrobe/internal/config"
	"ai-wardrobe/internal/imaging"
	"ai-wardrobe/internal/llm"
	"ai-wardrobe/internal/metrics"
	"ai-wardrobe/internal/outfit"
	"ai-wardrobe/internal/wardrobe"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var analyzer llm.VisionAnalyzer
	var textGen llm.TextGenerator
	switch cfg.Provider {
	case config.ProviderOpenAI:
		client := llm.NewOpenAIClient(cfg)
		analyzer, textGen = client, client
	default:
		client, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize Gemini client: %v", err)
		}
		defer client.Close()
		analyzer, textGen = client, client
	}

	// Re-running the model on a photo we already analyzed is wasted quota,
	// so CLI analysis goes through the file-backed cache.
	cachedAnalyzer, err := llm.NewCachedVisionAnalyzer(analyzer, cfg.CachePath)
	if err != nil {
		log.Fatalf("Failed to initialize analysis cache: %v", err)
	}
	defer func() {
		if err := cachedAnalyzer.SaveCache(); err != nil {
			log.Printf("Warning: failed to save analysis cache: %v", err)
		}
	}()

	store, err := wardrobe.NewStore(cfg.DataFile)
	if err != nil {
		log.Fatalf("Failed to initialize wardrobe store: %v", err)
	}

	imageStore, err := imaging.NewStore(cfg.ImagesDir)
	if err != nil {
		log.Fatalf("Failed to initialize image store: %v", err)
	}

	metricsStore, err := metrics.NewStore(cfg.MetricsDBPath)
	if err != nil {
		log.Fatalf("Failed to initialize metrics store: %v", err)
	}
	defer metricsStore.Close()

	application := app.NewApp(
		cfg,
		store,
		imageStore,
		cachedAnalyzer,
		textGen,
		outfit.New(),
		clipper.NewClipper(textGen),
		metricsStore,
	)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd := flag.NewFlagSet("add", flag.ExitOnError)
		garment := addCmd.String("garment", "", "Path to the garment photo (required)")
		tag := addCmd.String("tag", "", "Path to the care/brand tag photo")
		name := addCmd.String("name", "", "Item name (overrides the model's suggestion)")
		category := addCmd.String("category", "", "Category (overrides the model's suggestion)")
		color := addCmd.String("color", "", "Primary color (overrides the model's suggestion)")
		addCmd.Parse(os.Args[2:])

		if *garment == "" {
			fmt.Println("add requires -garment <path>")
			addCmd.Usage()
			os.Exit(1)
		}

		overrides := wardrobe.ClothingItem{Name: *name, Category: *category, Color: *color}
		item, err := application.AddItemFromFiles(ctx, *garment, *tag, overrides)
		if err != nil {
			log.Fatalf("Failed to add item: %v", err)
		}
		fmt.Printf("Added %q (%s) with ID %s\n", item.Name, item.Category, item.ID)

	case "import":
		if len(os.Args) < 3 {
			fmt.Println("import requires a URL")
			os.Exit(1)
		}
		item, err := application.ImportFromURL(ctx, os.Args[2])
		if err != nil {
			log.Fatalf("Failed to import item: %v", err)
		}
		fmt.Printf("Imported %q (%s) with ID %s\n", item.Name, item.Category, item.ID)

	case "outfit":
		outfitCmd := flag.NewFlagSet("outfit", flag.ExitOnError)
		occasion := outfitCmd.String("occasion", "", "Only pick items suitable for this occasion")
		season := outfitCmd.String("season", "", "Only pick items suitable for this season")
		saveName := outfitCmd.String("save", "", "Save the suggestion under this name")
		outfitCmd.Parse(os.Args[2:])

		suggestion, err := application.GenerateOutfit(outfit.Filters{Occasion: *occasion, Season: *season})
		if err != nil {
			log.Fatalf("Failed to generate outfit: %v", err)
		}
		fmt.Print(app.FormatSuggestion(suggestion))

		if *saveName != "" {
			saved, err := application.SaveOutfit(*saveName, suggestion)
			if err != nil {
				log.Fatalf("Failed to save outfit: %v", err)
			}
			fmt.Printf("\nSaved as %q with ID %s\n", saved.Name, saved.ID)
		}

	case "closet":
		w, err := application.ListWardrobe()
		if err != nil {
			log.Fatalf("Failed to load wardrobe: %v", err)
		}
		if len(w.Items) == 0 {
			fmt.Println("The closet is empty. Add an item with: ai-wardrobe add -garment <photo>")
			return
		}
		for _, item := range w.Items {
			fmt.Printf("%s  %-12s %s", item.ID, item.Category, item.Name)
			if item.Color != "" {
				fmt.Printf(" (%s)", item.Color)
			}
			fmt.Println()
		}

	case "outfits":
		w, err := application.ListWardrobe()
		if err != nil {
			log.Fatalf("Failed to load wardrobe: %v", err)
		}
		if len(w.Outfits) == 0 {
			fmt.Println("No saved outfits yet.")
			return
		}
		for _, o := range w.Outfits {
			fmt.Printf("%s  %s\n", o.ID, o.Name)
			for _, id := range o.ItemIDs {
				if item, ok := w.ItemByID(id); ok {
					fmt.Printf("    %-12s %s\n", item.Category, item.Name)
				}
			}
		}

	case "delete":
		if len(os.Args) < 3 {
			fmt.Println("delete requires an item or outfit ID")
			os.Exit(1)
		}
		id := os.Args[2]
		if item, err := application.DeleteItem(id); err == nil {
			fmt.Printf("Deleted item %q\n", item.Name)
			return
		}
		if err := application.DeleteOutfit(id); err == nil {
			fmt.Println("Deleted outfit")
			return
		}
		log.Fatalf("No item or outfit with ID %s", id)

	case "validate-key":
		if err := application.ValidateKey(ctx); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Printf("The %s API key is valid.\n", cfg.Provider)

	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		affected, err := metricsStore.Cleanup(*days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: ai-wardrobe <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  add             Catalog a garment photo (with optional tag photo)")
	fmt.Println("  import          Catalog an item from a product-page URL")
	fmt.Println("  outfit          Suggest a random outfit, optionally filtered and saved")
	fmt.Println("  closet          List all cataloged items")
	fmt.Println("  outfits         List saved outfits")
	fmt.Println("  delete          Delete an item or outfit by ID")
	fmt.Println("  validate-key    Check that the configured API key works")
	fmt.Println("  metrics-cleanup Remove old metric records")
}
