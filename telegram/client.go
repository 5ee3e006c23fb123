package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"movie-notifier/models"
	"movie-notifier/utils"
)

const defaultAPIBase = "https://api.telegram.org/bot"

// InlineKeyboardButton is one button attached below a message.
type InlineKeyboardButton struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// InlineKeyboardMarkup attaches rows of inline buttons to a message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// KeyboardButton is one key of a reply keyboard.
type KeyboardButton struct {
	Text string `json:"text"`
}

// ReplyKeyboardMarkup replaces the user's keyboard with custom keys.
type ReplyKeyboardMarkup struct {
	Keyboard        [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard  bool               `json:"resize_keyboard,omitempty"`
	OneTimeKeyboard bool               `json:"one_time_keyboard,omitempty"`
}

// ReplyKeyboardRemove restores the user's regular keyboard.
type ReplyKeyboardRemove struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

// MessageOptions carries the optional knobs of an outgoing message.
type MessageOptions struct {
	ParseMode   string
	ReplyMarkup any
}

// Update is one entry from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an incoming chat message.
type Message struct {
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

// Chat identifies where a message came from.
type Chat struct {
	ID int64 `json:"id"`
}

// Client talks to the Telegram Bot API over plain HTTP.
type Client struct {
	apiBase string
	token   string
	http    *http.Client
	logger  *utils.Logger
}

// NewClient creates a Client for the given bot token.
func NewClient(token string, logger *utils.Logger) *Client {
	return &Client{
		apiBase: defaultAPIBase,
		token:   token,
		http:    &http.Client{Timeout: 65 * time.Second},
		logger:  logger,
	}
}

// SendMessage sends a plain text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID, text string, opts *MessageOptions) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	applyOptions(payload, opts)

	_, err := c.call(ctx, "sendMessage", payload)
	return err
}

// SendPhoto sends a photo by URL with a caption.
func (c *Client) SendPhoto(ctx context.Context, chatID, photoURL, caption string, opts *MessageOptions) error {
	payload := map[string]any{
		"chat_id": chatID,
		"photo":   photoURL,
		"caption": caption,
	}
	applyOptions(payload, opts)

	_, err := c.call(ctx, "sendPhoto", payload)
	return err
}

// SendNotification delivers one rendered movie notification: a photo
// message when a poster reference exists, a text message otherwise.
// The single "Watch Now" control is always attached.
func (c *Client) SendNotification(ctx context.Context, chatID string, n *models.Notification) error {
	opts := &MessageOptions{
		ParseMode: "MarkdownV2",
		ReplyMarkup: InlineKeyboardMarkup{
			InlineKeyboard: [][]InlineKeyboardButton{
				{{Text: n.LinkText, URL: n.LinkURL}},
			},
		},
	}

	if n.PosterURL != "" {
		return c.SendPhoto(ctx, chatID, n.PosterURL, n.Caption, opts)
	}
	return c.SendMessage(ctx, chatID, n.Caption, opts)
}

// SendText delivers a plain status message and clears any open reply
// keyboard.
func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	return c.SendMessage(ctx, chatID, text, &MessageOptions{
		ReplyMarkup: ReplyKeyboardRemove{RemoveKeyboard: true},
	})
}

// GetUpdates long-polls for incoming updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	result, err := c.call(ctx, "getUpdates", map[string]any{
		"offset":  offset,
		"timeout": timeoutSeconds,
	})
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("telegram: decode updates: %w", err)
	}
	return updates, nil
}

func applyOptions(payload map[string]any, opts *MessageOptions) {
	if opts == nil {
		return
	}
	if opts.ParseMode != "" {
		payload["parse_mode"] = opts.ParseMode
	}
	if opts.ReplyMarkup != nil {
		payload["reply_markup"] = opts.ReplyMarkup
	}
}

// call posts one Bot API method and returns the raw result payload.
func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	url := fmt.Sprintf("%s%s/%s", c.apiBase, c.token, method)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("telegram: marshal %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("telegram: create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("telegram: %s returned status %d", method, resp.StatusCode)
		}
		return nil, fmt.Errorf("telegram: decode %s response: %w", method, err)
	}

	if !result.OK {
		if result.Description != "" {
			return nil, fmt.Errorf("telegram: %s: %s", method, result.Description)
		}
		return nil, fmt.Errorf("telegram: %s returned status %d", method, resp.StatusCode)
	}

	return result.Result, nil
}
