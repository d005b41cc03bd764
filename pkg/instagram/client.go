package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	brerrors "github.com/itxrex07/insta-sub000/internal/errors"
	"github.com/itxrex07/insta-sub000/pkg/instagram/types"
)

// InstagramClient talks to the session service that owns the logged-in
// Instagram account. The service deals with login and challenges; this
// client only issues sends and metadata lookups against its REST surface.
type InstagramClient struct {
	baseURL  string
	apiToken string
	client   *http.Client
}

func NewClient(baseURL, apiToken string) types.Client {
	return &InstagramClient{
		baseURL:  baseURL,
		apiToken: apiToken,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *InstagramClient) SendText(ctx context.Context, threadID, text string) (*types.SendResponse, error) {
	payload := map[string]interface{}{
		"threadId": threadID,
		"text":     text,
	}
	return c.postJSON(ctx, "/api/direct/sendText", payload)
}

func (c *InstagramClient) SendPhoto(ctx context.Context, threadID, filePath, caption string) (*types.SendResponse, error) {
	return c.postFile(ctx, "/api/direct/sendPhoto", threadID, filePath, caption)
}

func (c *InstagramClient) SendVideo(ctx context.Context, threadID, filePath, caption string) (*types.SendResponse, error) {
	return c.postFile(ctx, "/api/direct/sendVideo", threadID, filePath, caption)
}

func (c *InstagramClient) GetThread(ctx context.Context, threadID string) (*types.Thread, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/direct/threads/"+threadID, nil, "")
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, brerrors.WrapRetryable(err, brerrors.ErrCodeTransientNetwork, "instagram thread lookup failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, "thread lookup")
	}

	var thread types.Thread
	if err := json.NewDecoder(resp.Body).Decode(&thread); err != nil {
		return nil, fmt.Errorf("failed to decode thread response: %w", err)
	}
	return &thread, nil
}

func (c *InstagramClient) GetUser(ctx context.Context, userID string) (*types.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/users/"+userID, nil, "")
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, brerrors.WrapRetryable(err, brerrors.ErrCodeTransientNetwork, "instagram user lookup failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, "user lookup")
	}

	var user types.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}
	return &user, nil
}

func (c *InstagramClient) postJSON(ctx context.Context, endpoint string, payload interface{}) (*types.SendResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, err
	}
	return c.do(req, endpoint)
}

func (c *InstagramClient) postFile(ctx context.Context, endpoint, threadID, filePath, caption string) (*types.SendResponse, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open media file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file content: %w", err)
	}

	writer.WriteField("threadId", threadID)
	if caption != "" {
		writer.WriteField("caption", caption)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, body, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return c.do(req, endpoint)
}

func (c *InstagramClient) newRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiToken != "" {
		req.Header.Set("X-Api-Key", c.apiToken)
	}
	return req, nil
}

func (c *InstagramClient) do(req *http.Request, endpoint string) (*types.SendResponse, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, brerrors.WrapRetryable(err, brerrors.ErrCodeTransientNetwork, "instagram request failed").
			WithContext("endpoint", endpoint)
	}
	defer resp.Body.Close()

	var result types.SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &result, classifyStatus(resp.StatusCode, endpoint)
	}
	return &result, nil
}

// classifyStatus maps session-service HTTP statuses into the bridge
// taxonomy so callers never inspect provider responses themselves.
func classifyStatus(status int, operation string) error {
	switch {
	case status == http.StatusTooManyRequests || status >= 500 || status == http.StatusRequestTimeout:
		return brerrors.WrapRetryable(
			fmt.Errorf("status %d", status),
			brerrors.ErrCodeTransientNetwork,
			fmt.Sprintf("instagram %s throttled or unavailable", operation),
		)
	case status == http.StatusNotFound:
		return brerrors.Wrap(
			fmt.Errorf("status %d", status),
			brerrors.ErrCodeResourceMissing,
			fmt.Sprintf("instagram %s target not found", operation),
		)
	default:
		return brerrors.Wrap(
			fmt.Errorf("status %d", status),
			brerrors.ErrCodeInternal,
			fmt.Sprintf("instagram %s failed", operation),
		)
	}
}
