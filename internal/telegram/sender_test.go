package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	sent []tgbotapi.MessageConfig
	errs []error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestChunkHTML(t *testing.T) {
	assert.Equal(t, []string{"short"}, chunkHTML("short", 10))
	assert.Equal(t, []string{""}, chunkHTML("", 10))

	text := "aaaaaa\nbbbbbb\ncccccc"
	chunks := chunkHTML(text, 10)
	assert.Equal(t, []string{"aaaaaa\n", "bbbbbb\n", "cccccc"}, chunks)

	long := strings.Repeat("x", 25)
	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, chunkHTML(long, 10))
}

func TestSendHTMLRetriesTransientErrors(t *testing.T) {
	bot := &fakeBot{errs: []error{errors.New("Too Many Requests: retry after 1"), nil}}
	s := newSender(bot)
	s.backoff = 0

	require.NoError(t, s.SendHTML(context.Background(), 42, "<b>hi</b>"))
	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(42), bot.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, bot.sent[0].ParseMode)
}

func TestSendHTMLPermanentError(t *testing.T) {
	bot := &fakeBot{errs: []error{errors.New("Forbidden: bot was blocked by the user")}}
	s := newSender(bot)
	s.backoff = 0

	err := s.SendHTML(context.Background(), 42, "hi")
	require.Error(t, err)
	assert.True(t, IsPermanentError(err))
	assert.Empty(t, bot.sent)
}

func TestSendHTMLGivesUp(t *testing.T) {
	fail := errors.New("connection reset")
	bot := &fakeBot{errs: []error{fail, fail, fail}}
	s := newSender(bot)
	s.backoff = 0

	err := s.SendHTML(context.Background(), 42, "hi")
	assert.ErrorIs(t, err, fail)
}
