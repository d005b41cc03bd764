package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/itxrex07/insta-sub000/internal/models"
	igtypes "github.com/itxrex07/insta-sub000/pkg/instagram/types"
)

// ProfileService tracks who we have seen and resolves display names,
// preferring the local store over the Instagram API. Name lookups are cached
// for the process lifetime; recording is best-effort and never blocks
// message flow.
type ProfileService struct {
	store  ProfileStore
	ig     igtypes.Client
	logger *logrus.Logger

	mu    sync.RWMutex
	names map[string]string
}

func NewProfileService(store ProfileStore, ig igtypes.Client, logger *logrus.Logger) *ProfileService {
	return &ProfileService{
		store:  store,
		ig:     ig,
		logger: logger,
		names:  make(map[string]string),
	}
}

// RecordMessage bumps the sender's activity counters. Store failures are
// logged and swallowed.
func (ps *ProfileService) RecordMessage(ctx context.Context, msg *models.Message) {
	if msg == nil || msg.SenderID == "" {
		return
	}
	if err := ps.store.RecordProfileMessage(ctx, msg.SenderID, "", msg.SenderDisplayName); err != nil {
		ps.logger.WithError(err).WithField("senderId", msg.SenderID).Warn("Failed to record sender profile")
	}
}

// GetDisplayName resolves a human-readable name for a user id, falling back
// to the supplied default when neither the store nor the API knows the user.
func (ps *ProfileService) GetDisplayName(ctx context.Context, userID, fallback string) string {
	if userID == "" {
		return fallback
	}

	ps.mu.RLock()
	name, ok := ps.names[userID]
	ps.mu.RUnlock()
	if ok {
		return name
	}

	if profile, err := ps.store.GetProfile(ctx, userID); err == nil && profile != nil {
		if name := profile.DisplayName(); name != "" && name != userID {
			ps.remember(userID, name)
			return name
		}
	}

	if user, err := ps.ig.GetUser(ctx, userID); err == nil && user != nil {
		name := user.FullName
		if name == "" {
			name = user.Username
		}
		if name != "" {
			ps.remember(userID, name)
			return name
		}
	} else if err != nil {
		ps.logger.WithError(err).WithField("userId", userID).Debug("Profile lookup failed")
	}

	if fallback == "" {
		return userID
	}
	return fallback
}

func (ps *ProfileService) remember(userID, name string) {
	ps.mu.Lock()
	ps.names[userID] = name
	ps.mu.Unlock()
}
