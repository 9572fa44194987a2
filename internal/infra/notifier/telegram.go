package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	defaultAPIBaseURL = "https://api.telegram.org"

	// maxMessageLength is the Telegram Bot API limit for message text.
	maxMessageLength = 4096

	truncationSuffix = "..."
)

// TelegramConfig contains configuration for the Telegram Bot API client.
type TelegramConfig struct {
	// Token is the bot token issued by BotFather.
	Token string

	// APIBaseURL overrides the Bot API host, mainly for tests.
	// Empty means the public https://api.telegram.org.
	APIBaseURL string

	// Timeout is the HTTP request timeout for sendMessage calls. Long-poll
	// getUpdates calls use their own, longer timeout derived from the poll
	// window.
	Timeout time.Duration
}

// TelegramClient talks to the Telegram Bot API: outbound messages for the
// notification path and long-poll updates for the command handler. It
// satisfies the notify.Messenger contract.
type TelegramClient struct {
	config      TelegramConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewTelegramClient creates a Telegram client.
//
// The rate limiter is set to 1 message/second with a burst of 3, inside the
// Bot API's per-chat limit while letting a summary-plus-cards sequence start
// promptly.
func NewTelegramClient(config TelegramConfig) *TelegramClient {
	if config.APIBaseURL == "" {
		config.APIBaseURL = defaultAPIBaseURL
	}
	return &TelegramClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(1, 3),
	}
}

// ReplyKeyboard is a persistent reply keyboard shown under the input field.
type ReplyKeyboard struct {
	Keyboard       [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard"`
}

// KeyboardButton is one button of a reply keyboard.
type KeyboardButton struct {
	Text string `json:"text"`
}

// RemoveKeyboard hides a previously sent reply keyboard.
type RemoveKeyboard struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

type sendMessagePayload struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
	ReplyMarkup           any    `json:"reply_markup,omitempty"`
}

// apiResponse is the Bot API envelope shared by all methods.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  *responseParams `json:"parameters"`
}

type responseParams struct {
	RetryAfter int `json:"retry_after"`
}

// Update is one inbound event from getUpdates. Only message updates are
// consumed; anything else arrives with a nil Message and is skipped.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
	From      *User  `json:"from"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// User identifies the sender of a message.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Send delivers an HTML-formatted message to a chat, retrying transient
// failures. It implements notify.Messenger.
func (c *TelegramClient) Send(ctx context.Context, chatID, text string) error {
	return c.SendWithKeyboard(ctx, chatID, text, nil)
}

// SendWithKeyboard delivers a message with an optional reply markup
// (ReplyKeyboard or RemoveKeyboard). A nil markup sends a plain message.
func (c *TelegramClient) SendWithKeyboard(ctx context.Context, chatID, text string, markup any) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	if err := c.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	payload := sendMessagePayload{
		ChatID:                chatID,
		Text:                  truncateText(text, maxMessageLength, truncationSuffix),
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
		ReplyMarkup:           markup,
	}
	return c.sendWithRetry(ctx, requestID, chatID, payload)
}

// GetUpdates long-polls the Bot API for inbound updates. offset must be one
// past the last processed update ID; timeout is the server-side poll window.
func (c *TelegramClient) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	body := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message"},
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal getUpdates payload: %w", err)
	}

	// the HTTP round trip must outlive the server-side poll window
	pollCtx, cancel := context.WithTimeout(ctx, timeout+10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(pollCtx, http.MethodPost, c.methodURL("getUpdates"), bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// bypass the client-level sendMessage timeout
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if err := classifyStatus(resp, respBody); err != nil {
		return nil, err
	}

	var envelope apiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("decode getUpdates response: %w", err)
	}
	if !envelope.OK {
		return nil, &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Telegram API error %d: %s", envelope.ErrorCode, envelope.Description),
		}
	}

	var updates []Update
	if err := json.Unmarshal(envelope.Result, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

// sendWithRetry sends one sendMessage request with a small retry budget:
// 429 waits out the API-provided retry_after, server and network errors get
// one linear-backoff retry, client errors fail immediately.
func (c *TelegramClient) sendWithRetry(ctx context.Context, requestID, chatID string, payload sendMessagePayload) error {
	const (
		maxAttempts = 2
		baseDelay   = 2 * time.Second
	)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := c.doSendMessage(ctx, payload)
		if err == nil {
			slog.Debug("Telegram message sent",
				slog.String("request_id", requestID),
				slog.String("chat_id", chatID),
				slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		if rateLimitErr, ok := is429Error(err); ok {
			slog.Warn("Telegram rate limit hit, backing off",
				slog.String("request_id", requestID),
				slog.String("chat_id", chatID),
				slog.Duration("retry_after", rateLimitErr.RetryAfter),
				slog.Int("attempt", attempt))
			select {
			case <-time.After(rateLimitErr.RetryAfter):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err())
			}
		}

		if !isRetryableError(err) {
			slog.Error("Telegram message failed with non-retryable error",
				slog.String("request_id", requestID),
				slog.String("chat_id", chatID),
				slog.Any("error", err),
				slog.Int("attempt", attempt))
			return err
		}

		if attempt < maxAttempts {
			delay := baseDelay * time.Duration(attempt)
			slog.Warn("Telegram API request failed, retrying",
				slog.String("request_id", requestID),
				slog.String("chat_id", chatID),
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
			}
		}
	}

	return fmt.Errorf("telegram message failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *TelegramClient) doSendMessage(ctx context.Context, payload sendMessagePayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sendMessage payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendMessage"), bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	return classifyStatus(resp, body)
}

// methodURL builds the Bot API endpoint for a method. The token is part of
// the path and must never appear in logs or error messages.
func (c *TelegramClient) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.config.APIBaseURL, c.config.Token, method)
}

// classifyStatus maps an HTTP response onto the shared error taxonomy.
func classifyStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			Message:    "Telegram rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, body),
		}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Telegram API client error %d: %s", resp.StatusCode, apiDescription(body)),
		}
	}

	if resp.StatusCode >= 500 {
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Telegram API server error: %s", resp.Status),
		}
	}

	return fmt.Errorf("unexpected status code %d", resp.StatusCode)
}

// apiDescription pulls the human-readable error description out of a Bot API
// error envelope, falling back to the raw body.
func apiDescription(body []byte) string {
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Description != "" {
		return envelope.Description
	}
	return string(body)
}

// extractRetryAfter reads the backoff hint from a 429 response, preferring
// the JSON parameters over the Retry-After header.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err == nil &&
		envelope.Parameters != nil && envelope.Parameters.RetryAfter > 0 {
		return time.Duration(envelope.Parameters.RetryAfter) * time.Second
	}

	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	return 5 * time.Second
}
