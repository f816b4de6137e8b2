package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yourorg/vms-release-bot/internal/compose"
	"github.com/yourorg/vms-release-bot/internal/releases"
)

// productNameRe keeps product names usable as a single URL path segment
var productNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Store interface for bot commands
type Store interface {
	AddProduct(ctx context.Context, name string) error
	RemoveProduct(ctx context.Context, name string) error
	ListProducts(ctx context.Context) ([]string, error)
	AddChat(ctx context.Context, chatID int64, title string) error
}

// JobRunner interface for triggering release checks
type JobRunner interface {
	TriggerCheck(ctx context.Context) error
}

// FeedClient fetches a product's release feed
type FeedClient interface {
	GetDocument(ctx context.Context, product string) (*releases.Document, error)
}

// Bot handles Telegram bot commands
type Bot struct {
	api          *tgbotapi.BotAPI
	store        Store
	jobRunner    JobRunner
	feed         FeedClient
	allowedUsers map[int64]bool
	timeZone     string
	logger       *slog.Logger
}

// NewBot creates a new bot instance
func NewBot(token string, store Store, jobRunner JobRunner, feed FeedClient, allowedUserIDs []int64, timeZone string, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	b := newBot(store, jobRunner, feed, allowedUserIDs, timeZone, logger)
	b.api = api
	return b, nil
}

func newBot(store Store, jobRunner JobRunner, feed FeedClient, allowedUserIDs []int64, timeZone string, logger *slog.Logger) *Bot {
	allowedUsers := make(map[int64]bool)
	for _, id := range allowedUserIDs {
		allowedUsers[id] = true
	}

	return &Bot{
		store:        store,
		jobRunner:    jobRunner,
		feed:         feed,
		allowedUsers: allowedUsers,
		timeZone:     timeZone,
		logger:       logger,
	}
}

// StartPolling starts polling for updates
func (b *Bot) StartPolling(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message != nil {
				go b.handleMessage(ctx, update.Message)
			}
		}
	}
}

// handleMessage processes incoming messages
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || !b.allowedUsers[message.From.ID] {
		return
	}

	if !message.IsCommand() {
		return
	}

	command := message.Command()
	args := message.CommandArguments()

	b.logger.Info("Processing command",
		"command", command,
		"args", args,
		"user_id", message.From.ID,
		"chat_id", message.Chat.ID)

	response := b.execute(ctx, command, args, message.Chat.ID)

	msg := tgbotapi.NewMessage(message.Chat.ID, response)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Failed to send command response", "command", command, "error", err)
	}
}

// execute runs a command and returns the HTML reply
func (b *Bot) execute(ctx context.Context, command, args string, chatID int64) string {
	var response string
	var err error

	switch command {
	case "addproduct":
		response, err = b.handleAddProduct(ctx, args)
	case "delproduct":
		response, err = b.handleDelProduct(ctx, args)
	case "products":
		response, err = b.handleProducts(ctx)
	case "latest":
		response, err = b.handleLatest(ctx, args)
	case "setchat":
		response, err = b.handleSetChat(ctx, chatID, args)
	case "forcecheck":
		response = b.handleForceCheck(ctx)
	case "help", "start":
		response = helpText
	default:
		response = "Unknown command. Use /help for available commands."
	}

	if err != nil {
		b.logger.Error("Command execution failed", "command", command, "error", err)
		response = fmt.Sprintf("❌ Error: %s", html.EscapeString(err.Error()))
	}
	return response
}

func (b *Bot) handleAddProduct(ctx context.Context, args string) (string, error) {
	name := strings.TrimSpace(args)
	if !productNameRe.MatchString(name) {
		return "Usage: /addproduct product (letters, digits, '-' and '_')", nil
	}

	if err := b.store.AddProduct(ctx, name); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Tracking <b>%s</b>", name), nil
}

func (b *Bot) handleDelProduct(ctx context.Context, args string) (string, error) {
	name := strings.TrimSpace(args)
	if !productNameRe.MatchString(name) {
		return "Usage: /delproduct product", nil
	}

	if err := b.store.RemoveProduct(ctx, name); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Stopped tracking <b>%s</b>", name), nil
}

func (b *Bot) handleProducts(ctx context.Context) (string, error) {
	products, err := b.store.ListProducts(ctx)
	if err != nil {
		return "", err
	}

	if len(products) == 0 {
		return "No products are being tracked.", nil
	}

	var response strings.Builder
	response.WriteString("<b>Tracked products:</b>\n\n")
	for _, p := range products {
		response.WriteString("• <b>" + p + "</b>\n")
	}
	return response.String(), nil
}

// handleLatest fetches the feed now and shows the newest released version
func (b *Bot) handleLatest(ctx context.Context, args string) (string, error) {
	fields := strings.Fields(args)
	product := "default"
	if len(fields) > 0 {
		product = fields[0]
	}
	if !productNameRe.MatchString(product) {
		return "Usage: /latest [product] [publication_type]", nil
	}
	var publicationType string
	if len(fields) > 1 {
		publicationType = fields[1]
	}

	doc, err := b.feed.GetDocument(ctx, product)
	if err != nil {
		return "", err
	}

	latest, ok := releases.Latest(doc.Releases, publicationType)
	if !ok {
		return fmt.Sprintf("No released versions of <b>%s</b> found.", product), nil
	}

	return compose.BuildHTML(compose.Input{Release: latest, PackageURLs: doc.PackageURLs}, compose.Options{TimeZone: b.timeZone}), nil
}

func (b *Bot) handleSetChat(ctx context.Context, currentChatID int64, args string) (string, error) {
	chatID := currentChatID
	title := "Current Chat"

	if args = strings.TrimSpace(args); args != "" {
		id, err := strconv.ParseInt(args, 10, 64)
		if err != nil {
			return "Invalid chat ID format", nil
		}
		chatID = id
		title = fmt.Sprintf("Chat %d", chatID)
	}

	if err := b.store.AddChat(ctx, chatID, title); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Chat <b>%d</b> has been added to notifications", chatID), nil
}

func (b *Bot) handleForceCheck(ctx context.Context) string {
	if b.jobRunner == nil {
		return "❌ Force check not available"
	}

	b.logger.Info("Manual release check triggered")
	if err := b.jobRunner.TriggerCheck(ctx); err != nil {
		b.logger.Error("Manual release check failed", "error", err)
		return "❌ Manual release check could not be scheduled"
	}
	return "🔄 Manual release check started..."
}

const helpText = `<b>Available commands:</b>

/addproduct product - Track a product feed
/delproduct product - Stop tracking a product feed
/products - List tracked products
/latest [product] [type] - Show the newest released version
/setchat [chat_id] - Add current or specified chat for notifications
/forcecheck - Manually trigger release check
/help - Show this help message

<b>Examples:</b>
/addproduct metavms
/latest default release
/setchat -1001234567890`
