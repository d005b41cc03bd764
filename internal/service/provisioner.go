package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/itxrex07/insta-sub000/internal/constants"
	"github.com/itxrex07/insta-sub000/internal/models"
	igtypes "github.com/itxrex07/insta-sub000/pkg/instagram/types"
	"github.com/itxrex07/insta-sub000/pkg/telegram"
)

// TopicProvisioner maps source threads onto destination forum topics,
// creating each topic at most once no matter how many messages race in.
type TopicProvisioner interface {
	EnsureTopic(ctx context.Context, threadID string) (string, error)
	Invalidate(ctx context.Context, threadID string) error
}

type provisioner struct {
	store           MappingStore
	cache           *MappingCache
	telegram        telegram.Client
	instagram       igtypes.Client
	logger          *logrus.Logger
	flight          singleflight.Group
	metadataTimeout time.Duration
	sendWelcome     bool
}

func NewTopicProvisioner(store MappingStore, cache *MappingCache, tg telegram.Client, ig igtypes.Client, logger *logrus.Logger, sendWelcome bool) TopicProvisioner {
	return &provisioner{
		store:           store,
		cache:           cache,
		telegram:        tg,
		instagram:       ig,
		logger:          logger,
		metadataTimeout: time.Duration(constants.DefaultMetadataTimeoutSec) * time.Second,
		sendWelcome:     sendWelcome,
	}
}

func (p *provisioner) EnsureTopic(ctx context.Context, threadID string) (string, error) {
	if m, ok := p.cache.Get(threadID); ok {
		return m.TopicID, nil
	}

	// Concurrent callers for the same thread collapse onto one in-flight
	// provisioning attempt. The flight entry only exists while the call is
	// running, so a failed attempt leaves nothing behind and the next
	// message retries from scratch.
	v, err, _ := p.flight.Do(threadID, func() (interface{}, error) {
		return p.provision(ctx, threadID)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *provisioner) provision(ctx context.Context, threadID string) (string, error) {
	// Recheck after winning the flight: a previous winner may have filled
	// the cache between our fast path and here.
	if m, ok := p.cache.Get(threadID); ok {
		return m.TopicID, nil
	}

	existing, err := p.store.GetMapping(ctx, threadID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		p.cache.Put(*existing)
		return existing.TopicID, nil
	}

	title, picURL := p.threadTitle(ctx, threadID)

	topicID, err := p.telegram.CreateForumTopic(ctx, title)
	if err != nil {
		return "", fmt.Errorf("failed to create forum topic for thread %s: %w", threadID, err)
	}

	now := time.Now()
	mapping := &models.ThreadMapping{
		ThreadID:      threadID,
		TopicID:       topicID,
		Title:         title,
		ProfilePicURL: picURL,
		CreatedAt:     now,
		LastActivity:  now,
	}
	if err := p.store.SaveMapping(ctx, mapping); err != nil {
		// The mapping never reached the store, so the cache stays empty and
		// the topic is abandoned rather than trusted from memory alone.
		return "", err
	}
	p.cache.Put(*mapping)

	p.logger.WithFields(logrus.Fields{
		"threadId": threadID,
		"topicId":  topicID,
		"title":    title,
	}).Info("Provisioned forum topic")

	if p.sendWelcome {
		if _, err := p.telegram.SendText(ctx, topicID, fmt.Sprintf("Bridged Instagram thread: %s", title)); err != nil {
			p.logger.WithError(err).WithField("topicId", topicID).Warn("Failed to send welcome message")
		}
	}

	return topicID, nil
}

// threadTitle asks Instagram for thread metadata under a short timeout and
// falls back to a generic title so provisioning never blocks on a slow or
// failing metadata endpoint.
func (p *provisioner) threadTitle(ctx context.Context, threadID string) (string, *string) {
	metaCtx, cancel := context.WithTimeout(ctx, p.metadataTimeout)
	defer cancel()

	thread, err := p.instagram.GetThread(metaCtx, threadID)
	if err != nil || thread == nil {
		p.logger.WithError(err).WithField("threadId", threadID).Warn("Thread metadata unavailable, using fallback title")
		return fallbackTitle(threadID), nil
	}

	title := thread.Title
	if title == "" && len(thread.Users) > 0 {
		u := thread.Users[0]
		if u.FullName != "" {
			title = u.FullName
		} else if u.Username != "" {
			title = u.Username
		}
	}
	if title == "" {
		title = fallbackTitle(threadID)
	}

	var picURL *string
	if len(thread.Users) > 0 && thread.Users[0].ProfilePicURL != "" {
		pic := thread.Users[0].ProfilePicURL
		picURL = &pic
	}
	return title, picURL
}

func fallbackTitle(threadID string) string {
	short := threadID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("Thread %s", short)
}

// Invalidate drops a mapping whose destination topic no longer exists so the
// next message provisions a fresh one.
func (p *provisioner) Invalidate(ctx context.Context, threadID string) error {
	p.cache.Remove(threadID)
	if err := p.store.DeleteMapping(ctx, threadID); err != nil {
		return err
	}
	p.logger.WithField("threadId", threadID).Info("Invalidated thread mapping")
	return nil
}
