package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-wardrobe/internal/clipper"
	"ai-wardrobe/internal/config"
	"ai-wardrobe/internal/imaging"
	"ai-wardrobe/internal/llm"
	"ai-wardrobe/internal/metrics"
	"ai-wardrobe/internal/outfit"
	"ai-wardrobe/internal/telegram"
	"ai-wardrobe/internal/wardrobe"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN must be set for the bot")
	}

	ctx := context.Background()

	var analyzer llm.VisionAnalyzer
	var textGen llm.TextGenerator
	switch cfg.Provider {
	case config.ProviderOpenAI:
		client := llm.NewOpenAIClient(cfg)
		analyzer, textGen = client, client
	default:
		client, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		defer client.Close()
		analyzer, textGen = client, client
	}

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

	bot, err := telegram.NewBot(
		cfg,
		store,
		imageStore,
		analyzer,
		outfit.New(),
		clipper.NewClipper(textGen),
		metricsStore,
	)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited.")
}
