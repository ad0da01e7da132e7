package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"ai-wardrobe/internal/clipper"
	"ai-wardrobe/internal/config"
	"ai-wardrobe/internal/imaging"
	"ai-wardrobe/internal/llm"
	"ai-wardrobe/internal/metrics"
	"ai-wardrobe/internal/outfit"
	"ai-wardrobe/internal/shared"
	"ai-wardrobe/internal/vision"
	"ai-wardrobe/internal/wardrobe"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps the Telegram API, the wardrobe store, and the vision pipeline.
type Bot struct {
	api          *tgbotapi.BotAPI
	store        *wardrobe.Store
	images       *imaging.Store
	analyzer     llm.VisionAnalyzer
	generator    *outfit.Generator
	clipper      *clipper.Clipper
	metricsStore *metrics.Store
	cfg          *config.Config

	httpClient *http.Client

	// Last generated suggestion per chat, so /save knows what to persist.
	mu             sync.Mutex
	lastSuggestion map[int64]outfit.Suggestion
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	store *wardrobe.Store,
	images *imaging.Store,
	analyzer llm.VisionAnalyzer,
	generator *outfit.Generator,
	clip *clipper.Clipper,
	metricsStore *metrics.Store,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	webhookURL := cfg.TelegramWebhookURL
	wh, _ := tgbotapi.NewWebhook(webhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:            bot,
		store:          store,
		images:         images,
		analyzer:       analyzer,
		generator:      generator,
		clipper:        clip,
		metricsStore:   metricsStore,
		cfg:            cfg,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		lastSuggestion: make(map[int64]outfit.Suggestion),
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil {
		return
	}

	isAllowed := false
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if update.Message.From.ID == id {
			isAllowed = true
			break
		}
	}

	if !isAllowed {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	// Photos are the primary input: snap a garment, get it cataloged.
	if len(msg.Photo) > 0 {
		b.handlePhotoRequest(msg)
		return
	}

	if strings.HasPrefix(msg.Text, "/") {
		b.handleCommand(msg)
		return
	}

	if strings.HasPrefix(msg.Text, "http://") || strings.HasPrefix(msg.Text, "https://") {
		b.handleImportRequest(msg)
		return
	}

	b.sendMarkdown(msg.Chat.ID, helpText)
}

const helpText = "👗 *AI Wardrobe*\n\n" +
	"Send a *photo* of a garment to catalog it.\n" +
	"Send a *product URL* to import an item.\n\n" +
	"*Commands:*\n" +
	"/outfit `[occasion] [season]` — suggest a random outfit\n" +
	"/save `<name>` — save the last suggestion\n" +
	"/closet — list your items\n" +
	"/outfits — list saved outfits\n" +
	"/delete `<id>` — delete an item or outfit\n"

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	fields := strings.Fields(msg.Text)
	cmd := strings.TrimSuffix(fields[0], "@"+b.api.Self.UserName)
	args := fields[1:]

	switch cmd {
	case "/start", "/help":
		b.sendMarkdown(msg.Chat.ID, helpText)
	case "/outfit":
		b.handleOutfitRequest(msg.Chat.ID, args)
	case "/save":
		b.handleSaveRequest(msg.Chat.ID, strings.Join(args, " "))
	case "/closet":
		b.handleClosetRequest(msg.Chat.ID)
	case "/outfits":
		b.handleOutfitsRequest(msg.Chat.ID)
	case "/delete":
		b.handleDeleteRequest(msg.Chat.ID, args)
	case "/metrics":
		b.handleMetricsRequest(msg)
	default:
		b.sendMarkdown(msg.Chat.ID, helpText)
	}
}

func (b *Bot) handlePhotoRequest(msg *tgbotapi.Message) {
	statusText := "👀 *Analyzing garment...*"
	replyMsg := tgbotapi.NewMessage(msg.Chat.ID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	item, err := b.catalogPhoto(ctx, msg)
	var finalText string
	if err != nil {
		log.Printf("Error cataloging photo: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText = fmt.Sprintf("❌ *Error cataloging item:*\n```\n%v\n```", safeErr)
	} else {
		finalText = "✅ *Item Saved!*\n\n" + formatItemMarkdown(item)
	}
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sentMsg.MessageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) catalogPhoto(ctx context.Context, msg *tgbotapi.Message) (wardrobe.ClothingItem, error) {
	// Telegram sends multiple sizes; the last one is the largest.
	photo := msg.Photo[len(msg.Photo)-1]

	data, err := b.downloadFile(photo.FileID)
	if err != nil {
		return wardrobe.ClothingItem{}, err
	}

	processed, err := imaging.Process(bytes.NewReader(data))
	if err != nil {
		return wardrobe.ClothingItem{}, err
	}

	var item wardrobe.ClothingItem
	attrs, meta, err := vision.AnalyzeGarment(ctx, b.analyzer, llm.ImagePayload{Data: processed.Data, MIME: processed.MIME})
	b.recordMeta(meta)
	if err != nil {
		log.Printf("Warning: garment analysis failed, saving uncategorized: %v", err)
		item.Name = "Unidentified item"
		item.Category = wardrobe.Categories[0]
	} else {
		attrs.Apply(&item)
	}

	// Photo captions override whatever the model came up with.
	if msg.Caption != "" {
		item.Name = msg.Caption
	}

	imagePath, err := b.images.Save(processed.Data, ".jpg")
	if err != nil {
		return wardrobe.ClothingItem{}, err
	}
	item.ImagePath = imagePath

	return b.store.AddItem(item)
}

func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve telegram file: %w", err)
	}
	resp, err := b.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download telegram file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram file download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (b *Bot) handleImportRequest(msg *tgbotapi.Message) {
	statusText := "✂️ *Importing item...* \n(Reading the product page)"
	replyMsg := tgbotapi.NewMessage(msg.Chat.ID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	item, meta, err := b.clipper.ImportURL(ctx, msg.Text)
	b.recordMeta(meta)

	var finalText string
	if err != nil {
		log.Printf("Error importing item: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText = fmt.Sprintf("❌ *Error importing item:*\n```\n%v\n```", safeErr)
	} else {
		saved, saveErr := b.store.AddItem(item)
		if saveErr != nil {
			finalText = fmt.Sprintf("❌ *Error saving item:* %v", saveErr)
		} else {
			finalText = "✅ *Item Imported!*\n\n" + formatItemMarkdown(saved)
		}
	}
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sentMsg.MessageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) handleOutfitRequest(chatID int64, args []string) {
	filters := parseOutfitFilters(args)

	w, err := b.store.Load()
	if err != nil {
		b.sendMarkdown(chatID, fmt.Sprintf("❌ *Error loading wardrobe:* %v", err))
		return
	}

	suggestion, err := b.generator.Generate(w.Items, filters)
	if err != nil {
		b.sendMarkdown(chatID, "🤷 No items match those filters. Try relaxing them or add more clothes.")
		return
	}

	b.mu.Lock()
	b.lastSuggestion[chatID] = suggestion
	b.mu.Unlock()

	b.sendMarkdown(chatID, formatSuggestionMarkdown(suggestion, filters))
}

// parseOutfitFilters matches args against the occasion and season
// vocabularies, case-insensitively.
func parseOutfitFilters(args []string) outfit.Filters {
	var f outfit.Filters
	for _, arg := range args {
		for _, o := range wardrobe.Occasions {
			if strings.EqualFold(arg, o) {
				f.Occasion = o
			}
		}
		for _, s := range wardrobe.Seasons {
			if strings.EqualFold(arg, s) {
				f.Season = s
			}
		}
	}
	return f
}

func (b *Bot) handleSaveRequest(chatID int64, name string) {
	b.mu.Lock()
	suggestion, ok := b.lastSuggestion[chatID]
	b.mu.Unlock()

	if !ok {
		b.sendMarkdown(chatID, "Nothing to save yet. Generate one with /outfit first.")
		return
	}
	if name == "" {
		name = "Outfit " + time.Now().Format("Jan 2 15:04")
	}

	saved, err := b.store.AddOutfit(suggestion.ToOutfit(name))
	if err != nil {
		b.sendMarkdown(chatID, fmt.Sprintf("❌ *Error saving outfit:* %v", err))
		return
	}
	b.sendMarkdown(chatID, fmt.Sprintf("✅ Saved as *%s* (`%s`)", saved.Name, saved.ID))
}

func (b *Bot) handleClosetRequest(chatID int64) {
	w, err := b.store.Load()
	if err != nil {
		b.sendMarkdown(chatID, fmt.Sprintf("❌ *Error loading wardrobe:* %v", err))
		return
	}
	b.sendMarkdown(chatID, formatClosetMarkdown(w))
}

func (b *Bot) handleOutfitsRequest(chatID int64) {
	w, err := b.store.Load()
	if err != nil {
		b.sendMarkdown(chatID, fmt.Sprintf("❌ *Error loading wardrobe:* %v", err))
		return
	}
	b.sendMarkdown(chatID, formatOutfitsMarkdown(w))
}

func (b *Bot) handleDeleteRequest(chatID int64, args []string) {
	if len(args) != 1 {
		b.sendMarkdown(chatID, "Usage: /delete `<id>` (find IDs with /closet or /outfits)")
		return
	}
	id := args[0]

	if item, err := b.store.DeleteItem(id); err == nil {
		b.sendMarkdown(chatID, fmt.Sprintf("🗑 Deleted item *%s*", item.Name))
		return
	}
	if err := b.store.DeleteOutfit(id); err == nil {
		b.sendMarkdown(chatID, "🗑 Deleted outfit")
		return
	}
	b.sendMarkdown(chatID, fmt.Sprintf("❌ No item or outfit with ID `%s`", id))
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.sendMarkdown(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}

	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.sendMarkdown(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}

	health := metrics.GetSysHealth("data")

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Model Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))

	b.sendMarkdown(msg.Chat.ID, sb.String())
}

func (b *Bot) recordMeta(meta shared.AgentMeta) {
	if b.metricsStore == nil || meta.AgentName == "" {
		return
	}
	if err := b.metricsStore.RecordMeta(meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, err)
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

func formatItemMarkdown(item wardrobe.ClothingItem) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s* (%s)\n", item.Name, item.Category))
	if item.Color != "" {
		sb.WriteString(fmt.Sprintf("Color: %s\n", item.Color))
	}
	if len(item.StyleTags) > 0 {
		sb.WriteString(fmt.Sprintf("Style: %s\n", strings.Join(item.StyleTags, ", ")))
	}
	if len(item.Occasions) > 0 {
		sb.WriteString(fmt.Sprintf("Occasions: %s\n", strings.Join(item.Occasions, ", ")))
	}
	if len(item.Seasons) > 0 {
		sb.WriteString(fmt.Sprintf("Seasons: %s\n", strings.Join(item.Seasons, ", ")))
	}
	if item.Brand != "" {
		sb.WriteString(fmt.Sprintf("Brand: %s\n", item.Brand))
	}
	sb.WriteString(fmt.Sprintf("ID: `%s`", item.ID))
	return sb.String()
}

func formatSuggestionMarkdown(s outfit.Suggestion, f outfit.Filters) string {
	var sb strings.Builder
	sb.WriteString("✨ *Outfit Suggestion*")
	if f.Occasion != "" || f.Season != "" {
		var parts []string
		if f.Occasion != "" {
			parts = append(parts, f.Occasion)
		}
		if f.Season != "" {
			parts = append(parts, f.Season)
		}
		sb.WriteString(fmt.Sprintf(" _(%s)_", strings.Join(parts, ", ")))
	}
	sb.WriteString("\n\n")

	for _, cat := range s.Categories() {
		item := s[cat]
		sb.WriteString(fmt.Sprintf("*%s*: %s", cat, item.Name))
		if item.Color != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", item.Color))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nLike it? /save `<name>` to keep it.")
	return sb.String()
}

func formatClosetMarkdown(w *wardrobe.Wardrobe) string {
	if len(w.Items) == 0 {
		return "👗 Your closet is empty. Send a photo to add your first item!"
	}

	byCategory := make(map[string][]wardrobe.ClothingItem)
	for _, item := range w.Items {
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👗 *Your Closet* (%d items)\n", len(w.Items)))
	for _, cat := range wardrobe.Categories {
		items := byCategory[cat]
		if len(items) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n*%s*\n", cat))
		for _, item := range items {
			sb.WriteString(fmt.Sprintf("• %s", item.Name))
			if item.Color != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", item.Color))
			}
			sb.WriteString(fmt.Sprintf(" `%s`\n", item.ID))
		}
	}
	return sb.String()
}

func formatOutfitsMarkdown(w *wardrobe.Wardrobe) string {
	if len(w.Outfits) == 0 {
		return "No saved outfits yet. Generate one with /outfit and keep it with /save."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👔 *Saved Outfits* (%d)\n\n", len(w.Outfits)))
	for _, o := range w.Outfits {
		sb.WriteString(fmt.Sprintf("*%s* `%s`\n", o.Name, o.ID))
		for _, itemID := range o.ItemIDs {
			if item, ok := w.ItemByID(itemID); ok {
				sb.WriteString(fmt.Sprintf("  • %s (%s)\n", item.Name, item.Category))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
