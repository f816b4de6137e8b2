package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageSize stays below Telegram's 4096 character limit
const maxMessageSize = 4000

// chattable is the part of tgbotapi.BotAPI the sender needs
type chattable interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Sender handles Telegram message sending
type Sender struct {
	bot     chattable
	backoff time.Duration
}

// NewSender creates a new Telegram sender
func NewSender(token string) (*Sender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return newSender(bot), nil
}

func newSender(bot chattable) *Sender {
	return &Sender{bot: bot, backoff: 500 * time.Millisecond}
}

// SendHTML sends an HTML message to a chat, splitting if necessary
func (s *Sender) SendHTML(ctx context.Context, chatID int64, html string) error {
	chunks := chunkHTML(html, maxMessageSize)

	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true

		if err := s.sendWithRetry(ctx, msg); err != nil {
			return err
		}

		// Small delay between chunks to avoid rate limiting
		if i < len(chunks)-1 {
			if err := sleepCtx(ctx, 100*time.Millisecond); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Sender) sendWithRetry(ctx context.Context, msg tgbotapi.MessageConfig) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsPermanentError(err) {
			return fmt.Errorf("permanent telegram error: %w", err)
		}

		if attempt < 2 {
			if err := sleepCtx(ctx, s.backoff*time.Duration(attempt+1)); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("failed to send message after retries: %w", lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// chunkHTML splits text into pieces that fit Telegram's message size limit,
// preferring newline and then space boundaries in the second half of a chunk
func chunkHTML(text string, maxSize int) []string {
	var chunks []string
	remaining := text

	for len(remaining) > maxSize {
		breakPoint := maxSize
		if i := strings.LastIndexByte(remaining[:maxSize], '\n'); i > maxSize/2 {
			breakPoint = i + 1
		} else if i := strings.LastIndexByte(remaining[:maxSize], ' '); i > maxSize/2 {
			breakPoint = i + 1
		}

		chunks = append(chunks, remaining[:breakPoint])
		remaining = strings.TrimLeft(remaining[breakPoint:], "\n ")
	}

	if len(remaining) > 0 || len(chunks) == 0 {
		chunks = append(chunks, remaining)
	}

	return chunks
}

// IsPermanentError checks if a Telegram API error is permanent and shouldn't be retried
func IsPermanentError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	permanentErrors := []string{
		"chat not found",
		"bot was blocked by the user",
		"user is deactivated",
		"text must be encoded in utf-8",
		"message is too long",
		"bad request: can't parse entities",
		"forbidden",
	}

	for _, permErr := range permanentErrors {
		if strings.Contains(errStr, permErr) {
			return true
		}
	}

	return false
}
