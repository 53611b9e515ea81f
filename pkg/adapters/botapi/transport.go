// Package botapi implements ports.Transport on top of the Telegram Bot API
// client from go-telegram-bot-api.
package botapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/stagehand/pkg/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// APIError is a request the Bot API answered with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("botapi: %s: %d %s", e.Method, e.Code, e.Description)
}

// NotModified reports whether the edit was rejected only because the
// message already shows the same content.
func (e *APIError) NotModified() bool {
	return strings.Contains(e.Description, "message is not modified")
}

// Option configures a Transport.
type Option func(*options)

type options struct {
	baseURL string
	client  *http.Client
}

// WithBaseURL points the client at another server, e.g. a local Bot API or a test server.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// Transport calls sendMessage, editMessageText, deleteMessage and
// answerCallbackQuery. It never retries.
type Transport struct {
	bot *tgbotapi.BotAPI
}

// New creates a client for the bot identified by token. The token is
// checked with getMe before New returns.
func New(token string, opts ...Option) (*Transport, error) {
	o := options{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, o.baseURL+"/bot%s/%s", redactingClient{o.client})
	if err != nil {
		return nil, mapError("getMe", err)
	}
	return &Transport{bot: bot}, nil
}

// Username is the bot's handle as reported by getMe.
func (t *Transport) Username() string {
	return t.bot.Self.UserName
}

func (t *Transport) Send(ctx context.Context, chatID int64, msg domain.OutgoingMessage) (int32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cfg := tgbotapi.NewMessage(chatID, msg.Text)
	cfg.ParseMode = string(msg.Format)
	cfg.DisableWebPagePreview = !msg.LinkPreview
	if kb := keyboard(msg.Markup); kb != nil {
		cfg.ReplyMarkup = *kb
	}
	if msg.ReplyTo != nil {
		cfg.ReplyToMessageID = int(*msg.ReplyTo)
		cfg.AllowSendingWithoutReply = true
	}
	sent, err := t.bot.Send(cfg)
	if err != nil {
		return 0, mapError("sendMessage", err)
	}
	return int32(sent.MessageID), nil
}

// Edit treats "message is not modified" as success.
func (t *Transport) Edit(ctx context.Context, chatID int64, messageID int32, view domain.View) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewEditMessageText(chatID, int(messageID), view.Text)
	cfg.ParseMode = string(view.Format)
	cfg.DisableWebPagePreview = !view.LinkPreview
	cfg.ReplyMarkup = keyboard(view.Markup)

	_, err := t.bot.Request(cfg)
	err = mapError("editMessageText", err)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.NotModified() {
		return nil
	}
	return err
}

func (t *Transport) Delete(ctx context.Context, chatID int64, messageID int32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Request(tgbotapi.NewDeleteMessage(chatID, int(messageID)))
	return mapError("deleteMessage", err)
}

func (t *Transport) AnswerCallback(ctx context.Context, callbackID string, text string, showAlert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = showAlert && text != ""
	_, err := t.bot.Request(cfg)
	return mapError("answerCallbackQuery", err)
}

func keyboard(m *domain.Markup) *tgbotapi.InlineKeyboardMarkup {
	if m.Empty() {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(m.Rows))
	for _, row := range m.Rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func mapError(method string, err error) error {
	if err == nil {
		return nil
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return &APIError{Method: method, Code: tgErr.Code, Description: tgErr.Message}
	}
	return fmt.Errorf("botapi: %s: %w", method, err)
}

// redactingClient strips *url.Error so the token embedded in the request
// URL never reaches an error message.
type redactingClient struct {
	client *http.Client
}

func (c redactingClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return resp, fmt.Errorf("request failed: %w", urlErr.Err)
	}
	return resp, err
}
