package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"telefetch/internal/services"
)

const (
	defaultBaseURL        = "https://api.telegram.org"
	defaultRequestTimeout = 30 * time.Second
	defaultUploadTimeout  = 10 * time.Minute
	maxResponseBytes      = 1 << 20

	userAgent = "telefetch/0.1.0"
)

// Client is the Telegram surface the bot, delivery stage, and daemon use.
type Client interface {
	GetMe(ctx context.Context) (User, error)
	SendMessage(ctx context.Context, msg TextMessage) (Message, error)
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendVideo(ctx context.Context, upload Upload) (Message, error)
	SendDocument(ctx context.Context, upload Upload) (Message, error)
	SetWebhook(ctx context.Context, webhookURL string) error
	DeleteWebhook(ctx context.Context) error
}

// BotAPI talks to api.telegram.org over HTTPS.
type BotAPI struct {
	token   string
	baseURL string
	client  *http.Client
	uploads *http.Client
}

var _ Client = (*BotAPI)(nil)

// Option customizes the BotAPI client.
type Option func(*BotAPI)

// WithBaseURL points the client at a different API host (used in tests and
// for self-hosted Bot API servers).
func WithBaseURL(raw string) Option {
	return func(b *BotAPI) {
		if raw = strings.TrimSpace(raw); raw != "" {
			b.baseURL = strings.TrimRight(raw, "/")
		}
	}
}

// WithHTTPClient overrides the client used for JSON calls.
func WithHTTPClient(client *http.Client) Option {
	return func(b *BotAPI) {
		if client != nil {
			b.client = client
		}
	}
}

// WithUploadClient overrides the client used for media uploads.
func WithUploadClient(client *http.Client) Option {
	return func(b *BotAPI) {
		if client != nil {
			b.uploads = client
		}
	}
}

// New builds a Bot API client for the given token.
func New(token string, opts ...Option) (*BotAPI, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: telegram bot token is empty", services.ErrConfiguration)
	}
	b := &BotAPI{
		token:   token,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultRequestTimeout},
		uploads: &http.Client{Timeout: defaultUploadTimeout},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// GetMe fetches the bot's own identity, which doubles as a connectivity
// check at startup.
func (b *BotAPI) GetMe(ctx context.Context) (User, error) {
	var me User
	if err := b.invoke(ctx, "getMe", nil, &me); err != nil {
		return User{}, err
	}
	return me, nil
}

// SendMessage posts a plain text message.
func (b *BotAPI) SendMessage(ctx context.Context, msg TextMessage) (Message, error) {
	payload := sendMessageRequest{
		ChatID:              msg.ChatID,
		Text:                msg.Text,
		ReplyToMessageID:    msg.ReplyTo,
		DisableNotification: msg.Silent,
	}
	var sent Message
	if err := b.invoke(ctx, "sendMessage", payload, &sent); err != nil {
		return Message{}, err
	}
	return sent, nil
}

// EditMessageText replaces the text of an earlier message. Editing a message
// to its current text is an upstream error but harmless here, so it is
// swallowed.
func (b *BotAPI) EditMessageText(ctx context.Context, chatID int64, messageID int, text string) error {
	payload := editMessageRequest{ChatID: chatID, MessageID: messageID, Text: text}
	err := b.invoke(ctx, "editMessageText", payload, nil)
	if err != nil && messageNotModified(err) {
		return nil
	}
	return err
}

// DeleteMessage removes an earlier message, typically a stale status line.
func (b *BotAPI) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	payload := deleteMessageRequest{ChatID: chatID, MessageID: messageID}
	return b.invoke(ctx, "deleteMessage", payload, nil)
}

// SendVideo uploads a file as an inline-playable video.
func (b *BotAPI) SendVideo(ctx context.Context, upload Upload) (Message, error) {
	return b.sendFile(ctx, "sendVideo", "video", upload)
}

// SendDocument uploads a file as a plain attachment.
func (b *BotAPI) SendDocument(ctx context.Context, upload Upload) (Message, error) {
	return b.sendFile(ctx, "sendDocument", "document", upload)
}

// SetWebhook registers the callback URL, discarding updates that queued up
// while no webhook was set.
func (b *BotAPI) SetWebhook(ctx context.Context, webhookURL string) error {
	payload := setWebhookRequest{
		URL:                webhookURL,
		DropPendingUpdates: true,
		AllowedUpdates:     []string{"message"},
	}
	return b.invoke(ctx, "setWebhook", payload, nil)
}

// DeleteWebhook unregisters the callback URL.
func (b *BotAPI) DeleteWebhook(ctx context.Context) error {
	return b.invoke(ctx, "deleteWebhook", struct{}{}, nil)
}

func (b *BotAPI) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", b.baseURL, b.token, method)
}

func (b *BotAPI) invoke(ctx context.Context, method string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", method, err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint(method), body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()
	return decodeResponse(method, resp, result)
}

func decodeResponse(method string, resp *http.Response, result any) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode %s response (http %d): %w", method, resp.StatusCode, err)
	}
	if !envelope.OK {
		return apiErrorFrom(method, envelope)
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

func messageNotModified(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Description), "message is not modified")
}
