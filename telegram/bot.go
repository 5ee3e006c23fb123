package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"

	"movie-notifier/models"
	"movie-notifier/services"
	"movie-notifier/utils"
)

const (
	longPollSeconds = 60
	cancelLabel     = "Cancel"

	welcomeText = "🎬 Welcome to the Movie Bot! 🍿\nChoose a movie category:"
	helpText    = "🎬 Movie Bot Help 🍿\n\n" +
		"Use the following commands:\n" +
		"/start - Start the bot and show the menu.\n" +
		"/help - Show this help message.\n\n" +
		"Choose a category from the menu to scan it for new movies."
)

// CycleRunner triggers an interactive poll cycle for one source.
// *services.Poller satisfies it.
type CycleRunner interface {
	RunSource(ctx context.Context, chatID string, source models.Source) *services.CycleReport
}

// Bot runs the chat command surface: /start, /help and category
// selection from the reply keyboard.
type Bot struct {
	client  *Client
	runner  CycleRunner
	sources []models.Source
	logger  *utils.Logger
}

// NewBot creates a Bot serving the given source catalog.
func NewBot(client *Client, runner CycleRunner, sources []models.Source, logger *utils.Logger) *Bot {
	return &Bot{
		client:  client,
		runner:  runner,
		sources: sources,
		logger:  logger,
	}
}

// Run long-polls for updates until the context is cancelled. Scans are
// launched off the command loop so the menu stays responsive while a
// cycle is in flight; the poller's gate keeps cycles serialized.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("[bot] command loop started")

	var offset int64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := b.client.GetUpdates(ctx, offset, longPollSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Warn("[bot] getUpdates failed: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil {
				continue
			}
			b.handleMessage(ctx, u.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	text := strings.TrimSpace(msg.Text)

	switch {
	case text == "/start":
		b.reply(ctx, chatID, welcomeText, &MessageOptions{ReplyMarkup: b.menuKeyboard()})
	case text == "/help":
		b.reply(ctx, chatID, helpText, nil)
	case text == cancelLabel:
		b.reply(ctx, chatID, "Menu canceled.", &MessageOptions{
			ReplyMarkup: ReplyKeyboardRemove{RemoveKeyboard: true},
		})
	default:
		if src, ok := b.sourceByName(text); ok {
			b.reply(ctx, chatID, "Fetching "+src.Name+"...", &MessageOptions{
				ReplyMarkup: ReplyKeyboardRemove{RemoveKeyboard: true},
			})
			go b.runner.RunSource(ctx, chatID, src)
			return
		}
		b.reply(ctx, chatID, "Invalid option. Please try again.", &MessageOptions{
			ReplyMarkup: ReplyKeyboardRemove{RemoveKeyboard: true},
		})
	}
}

func (b *Bot) reply(ctx context.Context, chatID, text string, opts *MessageOptions) {
	if err := b.client.SendMessage(ctx, chatID, text, opts); err != nil {
		b.logger.Warn("[bot] reply failed: %v", err)
	}
}

// menuKeyboard lays out the source catalog two keys per row, with a
// trailing Cancel key.
func (b *Bot) menuKeyboard() ReplyKeyboardMarkup {
	var rows [][]KeyboardButton
	var row []KeyboardButton

	for _, src := range b.sources {
		row = append(row, KeyboardButton{Text: src.Name})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	row = append(row, KeyboardButton{Text: cancelLabel})
	rows = append(rows, row)

	return ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}

func (b *Bot) sourceByName(name string) (models.Source, bool) {
	for _, src := range b.sources {
		if src.Name == name {
			return src, true
		}
	}
	return models.Source{}, false
}
