// Package bot exposes the summary pipeline as a Telegram bot.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gistify/internal/domain"
)

const updateProcessingTimeout = 90 * time.Second

// Runner is the pipeline as seen by the bot.
type Runner interface {
	Run(ctx context.Context, req domain.SummaryRequest) (domain.SummaryResult, error)
}

type sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

type Bot struct {
	api    *bot.Bot
	sender sender
	runner Runner
	log    *slog.Logger
}

func New(token string, runner Runner, log *slog.Logger) (*Bot, error) {
	b := &Bot{
		runner: runner,
		log:    log,
	}

	api, err := bot.New(strings.TrimSpace(token), bot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	api.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleStartUpdate)

	b.api = api
	b.sender = api

	return b, nil
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.api.Start(ctx)

	b.log.InfoContext(ctx, "Bot context is done",
		"error", ctx.Err())
}

func (b *Bot) handleStartUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	if err := b.sendMarkdown(ctx, update.Message.Chat.ID, welcomeText); err != nil {
		b.log.ErrorContext(ctx, "Failed to send welcome message",
			"error", err,
			"chatID", update.Message.Chat.ID)
	}
}

func (b *Bot) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	message := update.Message

	if err := b.handleMessage(updateCtx, message.Chat.ID, message.Text); err != nil {
		b.log.ErrorContext(updateCtx, "Failed to handle message",
			"error", err,
			"chatID", message.Chat.ID,
			"messageID", message.ID)
	}
}

func (b *Bot) sendMarkdown(ctx context.Context, chatID int64, text string) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.WarnContext(ctx, "Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	disablePreview := true

	_, err := b.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:             chatID,
		Text:               normalizedText,
		ParseMode:          models.ParseModeMarkdown,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: &disablePreview},
	})

	return err
}
