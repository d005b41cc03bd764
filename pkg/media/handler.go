package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	brerrors "github.com/itxrex07/insta-sub000/internal/errors"
	"github.com/itxrex07/insta-sub000/internal/models"
	"github.com/itxrex07/insta-sub000/internal/security"

	"github.com/sirupsen/logrus"
)

// Handler is the content transfer pipeline: it stages remote binaries
// locally so a platform client can upload them, and owns the staging
// lifecycle. Callers must Discard every handle Transfer returns, on every
// exit path.
type Handler interface {
	Transfer(ctx context.Context, remoteURL string, kind models.MessageKind) (string, error)
	Discard(path string)
	CleanupStaging(maxAge time.Duration) error
}

type handler struct {
	stagingDir string
	config     models.MediaConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewHandler(stagingDir string, config models.MediaConfig, logger *logrus.Logger) (Handler, error) {
	if err := security.ValidateStoragePath(stagingDir); err != nil {
		return nil, fmt.Errorf("invalid staging directory: %w", err)
	}
	if err := os.MkdirAll(stagingDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &handler{
		stagingDir: stagingDir,
		config:     config,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		logger:     logger,
	}, nil
}

// Transfer streams the remote payload into a staging file. The download is
// never buffered wholesale in memory, and the staging file is removed
// before returning on every failure path.
func (h *handler) Transfer(ctx context.Context, remoteURL string, kind models.MessageKind) (string, error) {
	u, err := url.Parse(remoteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", brerrors.New(brerrors.ErrCodeMediaTransfer, "invalid media url").
			WithContext("url", remoteURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", brerrors.WrapRetryable(err, brerrors.ErrCodeTransientNetwork, "media download failed").
			WithContext("url", remoteURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", brerrors.New(brerrors.ErrCodeMediaTransfer, fmt.Sprintf("media download returned status %d", resp.StatusCode)).
			WithContext("url", remoteURL)
	}

	maxBytes := h.maxBytesFor(kind)
	ext := extensionFor(resp, remoteURL)

	staged, err := os.CreateTemp(h.stagingDir, "transfer_*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}

	// Copy one byte past the limit so oversized payloads are detected
	// without buffering them.
	written, err := io.Copy(staged, io.LimitReader(resp.Body, maxBytes+1))
	closeErr := staged.Close()
	if err != nil {
		h.Discard(staged.Name())
		return "", brerrors.WrapRetryable(err, brerrors.ErrCodeTransientNetwork, "media download interrupted").
			WithContext("url", remoteURL)
	}
	if closeErr != nil {
		h.Discard(staged.Name())
		return "", fmt.Errorf("failed to close staging file: %w", closeErr)
	}
	if written > maxBytes {
		h.Discard(staged.Name())
		return "", brerrors.New(brerrors.ErrCodeMediaTransfer, fmt.Sprintf("%s exceeds %d bytes", kind, maxBytes)).
			WithContext("url", remoteURL)
	}

	return staged.Name(), nil
}

// Discard removes a staging artifact. Failures are logged, never escalated;
// housekeeping must not fail a delivered message.
func (h *handler) Discard(path string) {
	if path == "" {
		return
	}
	if err := security.ValidateWithinDir(path, h.stagingDir); err != nil {
		h.logger.WithField("path", path).Warn("Refusing to discard file outside staging directory")
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.logger.WithError(err).WithField("path", path).Warn("Failed to remove staging file")
	}
}

// CleanupStaging removes artifacts orphaned by crashes mid-transfer.
func (h *handler) CleanupStaging(maxAge time.Duration) error {
	entries, err := os.ReadDir(h.stagingDir)
	if err != nil {
		return fmt.Errorf("failed to read staging directory: %w", err)
	}

	now := time.Now()
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > maxAge {
			h.Discard(filepath.Join(h.stagingDir, info.Name()))
		}
	}
	return nil
}

func (h *handler) maxBytesFor(kind models.MessageKind) int64 {
	var mb int
	switch kind {
	case models.KindImage, models.KindSticker:
		mb = h.config.MaxSizeMB.Image
	case models.KindVideo, models.KindAnimation:
		mb = h.config.MaxSizeMB.Video
	case models.KindVoice:
		mb = h.config.MaxSizeMB.Voice
	default:
		mb = h.config.MaxSizeMB.Document
	}
	if mb <= 0 {
		mb = 50
	}
	return int64(mb) * 1024 * 1024
}

func extensionFor(resp *http.Response, remoteURL string) string {
	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	if u, err := url.Parse(remoteURL); err == nil {
		if ext := filepath.Ext(u.Path); ext != "" {
			return ext
		}
	}
	return ".bin"
}
