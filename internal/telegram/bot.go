package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"family-meal-planner/internal/child"
	"family-meal-planner/internal/clipper"
	"family-meal-planner/internal/config"
	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/schedule"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// promptBloatThreshold is the prompt size above which the admin is alerted.
const promptBloatThreshold = 4000

// Bot wraps the Telegram API, the Planner and the Clipper.
type Bot struct {
	api          *tgbotapi.BotAPI
	planner      *planner.Planner
	children     *child.Repository
	clipper      *clipper.Clipper
	metricsStore *metrics.Store
	cfg          *config.Config
	now          func() time.Time
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	mealPlanner *planner.Planner,
	children *child.Repository,
	recipeClipper *clipper.Clipper,
	metricsStore *metrics.Store,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	webhookURL := cfg.TelegramWebhookURL
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", webhookURL, err)
	}
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		planner:      mealPlanner,
		children:     children,
		clipper:      recipeClipper,
		metricsStore: metricsStore,
		cfg:          cfg,
		now:          time.Now,
	}, nil
}

// RegisterHandlers registers the webhook handler with the given mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
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

	if update.Message == nil || update.Message.From == nil {
		return
	}

	if !isAllowed(b.cfg.TelegramAllowedUserIDs, update.Message.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func isAllowed(allowed []int64, userID int64) bool {
	for _, id := range allowed {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)

	// Recipe import
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClipperRequest(msg.Chat.ID, text)
		return
	}

	if !msg.IsCommand() {
		b.send(msg.Chat.ID, helpText)
		return
	}

	childName := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "metrics":
		if msg.From.ID != b.cfg.AdminTelegramID {
			b.send(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetricsCommand(msg.Chat.ID)
	case "today":
		b.handleTodayCommand(msg.Chat.ID, childName)
	case "week":
		b.handleWeekCommand(msg.Chat.ID, childName)
	case "courses":
		b.handleShoppingCommand(msg.Chat.ID, childName)
	case "express":
		b.handleExpressCommand(msg.Chat.ID, childName)
	default:
		b.send(msg.Chat.ID, helpText)
	}
}

const helpText = "🍽 *Family Meal Planner*\n\n" +
	"/today [enfant] - repas du jour\n" +
	"/week [enfant] - planning de la semaine\n" +
	"/courses [enfant] - liste de courses\n" +
	"/express [enfant] - remplir la semaine prochaine\n\n" +
	"Envoyez un lien pour importer une recette."

// resolveChild finds the child the command is about among the children of
// the configured parent.
func (b *Bot) resolveChild(ctx context.Context, name string) (*child.Profile, error) {
	children, err := b.children.ListByParent(ctx, b.cfg.TelegramParentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	return pickChild(children, name)
}

var errNoChildren = errors.New("no child registered yet")

// pickChild matches name case-insensitively. An empty name is only accepted
// when there is a single child.
func pickChild(children []child.Profile, name string) (*child.Profile, error) {
	if len(children) == 0 {
		return nil, errNoChildren
	}
	if name == "" {
		if len(children) == 1 {
			return &children[0], nil
		}
		return nil, fmt.Errorf("several children, pick one of: %s", childNames(children))
	}
	for i := range children {
		if strings.EqualFold(children[i].Name, name) {
			return &children[i], nil
		}
	}
	return nil, fmt.Errorf("unknown child %q, pick one of: %s", name, childNames(children))
}

func childNames(children []child.Profile) string {
	names := make([]string, 0, len(children))
	for _, c := range children {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

// withChild sends a status message, runs fn for the resolved child and
// replaces the status with fn's answer.
func (b *Bot) withChild(chatID int64, status, childName string, fn func(ctx context.Context, p *child.Profile) (string, error)) {
	sentMsg, err := b.api.Send(markdownMessage(chatID, status))
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var finalText string
	p, err := b.resolveChild(ctx, childName)
	if err == nil {
		finalText, err = fn(ctx, p)
	}
	if err != nil {
		log.Printf("Error handling command: %v", err)
		finalText = formatError(err)
	}
	b.edit(chatID, sentMsg.MessageID, finalText)
}

func (b *Bot) handleTodayCommand(chatID int64, childName string) {
	b.withChild(chatID, "🔎 *Loading today...*", childName, func(ctx context.Context, p *child.Profile) (string, error) {
		view, err := b.planner.Today(ctx, p.ID, b.now())
		if err != nil {
			return "", err
		}
		return formatDayMarkdown(view), nil
	})
}

func (b *Bot) handleWeekCommand(chatID int64, childName string) {
	b.withChild(chatID, "🔎 *Loading the week...*", childName, func(ctx context.Context, p *child.Profile) (string, error) {
		view, err := b.planner.Week(ctx, p.ID, b.now())
		if err != nil {
			return "", err
		}
		return formatWeekMarkdown(view), nil
	})
}

func (b *Bot) handleShoppingCommand(chatID int64, childName string) {
	b.withChild(chatID, "🛒 *Building the shopping list...*", childName, func(ctx context.Context, p *child.Profile) (string, error) {
		list, err := b.planner.ShoppingList(ctx, p.ID, schedule.StartOfWeek(b.now()), schedule.DaysPerWeek)
		if err != nil {
			return "", err
		}
		return formatShoppingMarkdown(p.Name, list), nil
	})
}

func (b *Bot) handleExpressCommand(chatID int64, childName string) {
	status := "🧑‍🍳 *Thinking...* \n(Generating recipes for every empty slot of next week)"
	b.withChild(chatID, status, childName, func(ctx context.Context, p *child.Profile) (string, error) {
		res, err := b.planner.Express(ctx, p.ID, schedule.NextMonday(b.now()))
		if err != nil {
			return "", err
		}
		return formatExpressMarkdown(p.Name, res), nil
	})
}

func (b *Bot) handleClipperRequest(chatID int64, url string) {
	sentMsg, err := b.api.Send(markdownMessage(chatID, "✂️ *Clipping recipe...* \n(Extracting and saving it)"))
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rec, meta, err := b.clipper.ClipURL(ctx, url)
	if b.metricsStore != nil {
		if merr := b.metricsStore.RecordMeta(ctx, meta); merr != nil {
			log.Printf("⚠️ Failed to record %s metrics: %v", meta.AgentName, merr)
		}
	}
	if meta.Usage.PromptTokens > promptBloatThreshold {
		b.sendAdminAlert(fmt.Sprintf("⚠️ *Context Bloat Alert*\nAgent: %s\nModel: %s\nPrompt Tokens: %d",
			meta.AgentName, meta.Usage.Model, meta.Usage.PromptTokens))
	}

	var finalText string
	if err != nil {
		log.Printf("Error clipping recipe: %v", err)
		finalText = formatError(err)
	} else {
		finalText = fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n*Ingredients:* %d\n*ID:* `%s`",
			escapeMarkdown(rec.Name), len(rec.Ingredients), rec.ID)
	}
	b.edit(chatID, sentMsg.MessageID, finalText)
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	b.send(chatID, b.metricsReport(context.Background()))
}

// metricsReport renders the usage and health report. Without a metrics store
// it only says so.
func (b *Bot) metricsReport(ctx context.Context) string {
	if b.metricsStore == nil {
		return "❌ Metrics are not enabled."
	}
	usage, err := b.metricsStore.GetDailyUsage(ctx, 7)
	if err != nil {
		log.Printf("Error fetching metrics: %v", err)
		return "❌ Error fetching metrics."
	}
	health := metrics.GetSysHealth(filepath.Dir(b.cfg.DatabasePath))
	return formatMetricsMarkdown(usage, health)
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.send(b.cfg.AdminTelegramID, text)
}

func markdownMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(markdownMessage(chatID, text)); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Failed to edit message: %v", err)
	}
}
