package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	brerrors "github.com/itxrex07/insta-sub000/internal/errors"
	"github.com/itxrex07/insta-sub000/pkg/circuitbreaker"

	"github.com/sirupsen/logrus"
)

// Client is the destination-platform boundary: forum-topic creation and
// per-topic sends into one supergroup. Implementations classify Bot API
// errors into the bridge taxonomy; in particular the "message thread not
// found" signature surfaces as RESOURCE_MISSING so the recovery supervisor
// can re-provision.
type Client interface {
	CreateForumTopic(ctx context.Context, title string) (string, error)
	SendText(ctx context.Context, topicID, text string) (*SendResponse, error)
	SendPhoto(ctx context.Context, topicID, filePath, caption string) (*SendResponse, error)
	SendVideo(ctx context.Context, topicID, filePath, caption string) (*SendResponse, error)
	SendDocument(ctx context.Context, topicID, filePath, caption string) (*SendResponse, error)
}

type TelegramClient struct {
	baseURL string
	token   string
	chatID  int64
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *logrus.Logger
}

func NewClient(baseURL, token string, chatID int64, logger *logrus.Logger) Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &TelegramClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 60 * time.Second},
		breaker: circuitbreaker.New("telegram", 5, 30*time.Second, logger),
		logger:  logger,
	}
}

func (c *TelegramClient) CreateForumTopic(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(c.chatID, 10))
	params.Set("name", title)

	result, err := c.call(ctx, "createForumTopic", params)
	if err != nil {
		return "", err
	}

	var topic forumTopic
	if err := json.Unmarshal(result, &topic); err != nil {
		return "", fmt.Errorf("failed to decode forum topic: %w", err)
	}
	return strconv.FormatInt(topic.MessageThreadID, 10), nil
}

func (c *TelegramClient) SendText(ctx context.Context, topicID, text string) (*SendResponse, error) {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(c.chatID, 10))
	params.Set("message_thread_id", topicID)
	params.Set("text", text)

	result, err := c.call(ctx, "sendMessage", params)
	if err != nil {
		return nil, err
	}
	return decodeSent(result)
}

func (c *TelegramClient) SendPhoto(ctx context.Context, topicID, filePath, caption string) (*SendResponse, error) {
	return c.sendFile(ctx, "sendPhoto", "photo", topicID, filePath, caption)
}

func (c *TelegramClient) SendVideo(ctx context.Context, topicID, filePath, caption string) (*SendResponse, error) {
	return c.sendFile(ctx, "sendVideo", "video", topicID, filePath, caption)
}

func (c *TelegramClient) SendDocument(ctx context.Context, topicID, filePath, caption string) (*SendResponse, error) {
	return c.sendFile(ctx, "sendDocument", "document", topicID, filePath, caption)
}

func (c *TelegramClient) sendFile(ctx context.Context, method, field, topicID, filePath, caption string) (*SendResponse, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open media file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(field, filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file content: %w", err)
	}

	writer.WriteField("chat_id", strconv.FormatInt(c.chatID, 10))
	writer.WriteField("message_thread_id", topicID)
	if caption != "" {
		writer.WriteField("caption", caption)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	result, err := c.post(ctx, method, body, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return decodeSent(result)
}

func (c *TelegramClient) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	return c.post(ctx, method, strings.NewReader(params.Encode()), "application/x-www-form-urlencoded")
}

func (c *TelegramClient) post(ctx context.Context, method string, body io.Reader, contentType string) (json.RawMessage, error) {
	var result json.RawMessage

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.client.Do(req)
		if err != nil {
			return brerrors.WrapRetryable(err, brerrors.ErrCodeTransientNetwork, "telegram request failed").
				WithContext("method", method)
		}
		defer resp.Body.Close()

		var envelope apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return fmt.Errorf("failed to decode telegram response: %w", err)
		}
		if !envelope.OK {
			return classifyAPIError(method, &envelope)
		}

		result = envelope.Result
		return nil
	})

	var openErr *circuitbreaker.OpenError
	if errors.As(err, &openErr) {
		return nil, brerrors.WrapRetryable(err, brerrors.ErrCodeTransientNetwork, "telegram circuit breaker open")
	}
	return result, err
}

// classifyAPIError is the single place the raw Bot API error surface is
// interpreted; the rest of the bridge only sees taxonomy codes.
func classifyAPIError(method string, envelope *apiResponse) error {
	desc := strings.ToLower(envelope.Description)

	switch {
	case strings.Contains(desc, "message thread not found"),
		strings.Contains(desc, "topic_deleted"),
		strings.Contains(desc, "topic_closed"):
		return brerrors.Wrap(
			fmt.Errorf("telegram: %s", envelope.Description),
			brerrors.ErrCodeResourceMissing,
			fmt.Sprintf("telegram %s target topic is gone", method),
		)
	case envelope.ErrorCode == http.StatusTooManyRequests:
		err := brerrors.WrapRetryable(
			fmt.Errorf("telegram: %s", envelope.Description),
			brerrors.ErrCodeTransientNetwork,
			fmt.Sprintf("telegram %s rate limited", method),
		)
		if envelope.Parameters != nil {
			err = err.WithContext("retryAfterSec", envelope.Parameters.RetryAfter)
		}
		return err
	case envelope.ErrorCode >= 500:
		return brerrors.WrapRetryable(
			fmt.Errorf("telegram: %s", envelope.Description),
			brerrors.ErrCodeTransientNetwork,
			fmt.Sprintf("telegram %s unavailable", method),
		)
	default:
		return brerrors.Wrap(
			fmt.Errorf("telegram: %s (code %d)", envelope.Description, envelope.ErrorCode),
			brerrors.ErrCodeInternal,
			fmt.Sprintf("telegram %s failed", method),
		)
	}
}

func decodeSent(result json.RawMessage) (*SendResponse, error) {
	var msg sentMessage
	if err := json.Unmarshal(result, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode sent message: %w", err)
	}
	return &SendResponse{MessageID: strconv.FormatInt(msg.MessageID, 10)}, nil
}
