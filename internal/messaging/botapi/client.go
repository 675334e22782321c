package botapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"renamer/internal/config"
	"renamer/internal/logging"
	"renamer/internal/messaging"
)

// Client talks to the Bot API. Transfer calls (downloads, uploads) use an
// unbounded timeout and rely on context cancellation; everything else uses
// the configured request timeout.
type Client struct {
	httpClient     *http.Client
	transferClient *http.Client
	baseURL        string
	token          string
	logger         *slog.Logger
}

var _ messaging.Client = (*Client)(nil)

// New builds a client from configuration. The bot token is required.
func New(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	token := strings.TrimSpace(cfg.Transport.BotToken)
	if token == "" {
		return nil, errors.New("transport.bot_token is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.RequestTimeout()},
		transferClient: &http.Client{},
		baseURL:        strings.TrimSuffix(cfg.Transport.APIURL, "/"),
		token:          token,
		logger:         logger.With(logging.String(logging.FieldComponent, "botapi")),
	}, nil
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

type messageResult struct {
	MessageID int64 `json:"message_id"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

// call posts form values to an API method and decodes the envelope.
func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	return decodeEnvelope(method, resp.Body)
}

func decodeEnvelope(method string, body io.Reader) (json.RawMessage, error) {
	var envelope apiResponse
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if !envelope.OK {
		if envelope.Parameters.RetryAfter > 0 {
			return nil, &messaging.FloodWaitError{
				RetryAfter: time.Duration(envelope.Parameters.RetryAfter) * time.Second,
			}
		}
		return nil, fmt.Errorf("%s: api error %d: %s", method, envelope.ErrorCode, envelope.Description)
	}
	return envelope.Result, nil
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string) (messaging.Ref, error) {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("text", text)
	raw, err := c.call(ctx, "sendMessage", params)
	if err != nil {
		return messaging.Ref{}, err
	}
	var msg messageResult
	if err := json.Unmarshal(raw, &msg); err != nil {
		return messaging.Ref{}, fmt.Errorf("decode sendMessage result: %w", err)
	}
	return messaging.Ref{ChatID: msg.Chat.ID, MessageID: msg.MessageID}, nil
}

func (c *Client) EditText(ctx context.Context, ref messaging.Ref, text string) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(ref.ChatID, 10))
	params.Set("message_id", strconv.FormatInt(ref.MessageID, 10))
	params.Set("text", text)
	_, err := c.call(ctx, "editMessageText", params)
	return err
}

func (c *Client) Delete(ctx context.Context, ref messaging.Ref) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(ref.ChatID, 10))
	params.Set("message_id", strconv.FormatInt(ref.MessageID, 10))
	_, err := c.call(ctx, "deleteMessage", params)
	return err
}

func (c *Client) Resend(ctx context.Context, ref messaging.Ref, toChatID int64) (messaging.Ref, error) {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(toChatID, 10))
	params.Set("from_chat_id", strconv.FormatInt(ref.ChatID, 10))
	params.Set("message_id", strconv.FormatInt(ref.MessageID, 10))
	raw, err := c.call(ctx, "copyMessage", params)
	if err != nil {
		return messaging.Ref{}, err
	}
	var msg messageResult
	if err := json.Unmarshal(raw, &msg); err != nil {
		return messaging.Ref{}, fmt.Errorf("decode copyMessage result: %w", err)
	}
	return messaging.Ref{ChatID: toChatID, MessageID: msg.MessageID}, nil
}

func (c *Client) Download(ctx context.Context, ref messaging.Ref, destPath string, progress messaging.ProgressFunc) error {
	if ref.FileRef == "" {
		return errors.New("source message carries no file reference")
	}
	return c.downloadByFileRef(ctx, ref.FileRef, destPath, progress)
}

func (c *Client) DownloadFile(ctx context.Context, fileRef string, destPath string) error {
	return c.downloadByFileRef(ctx, fileRef, destPath, nil)
}
