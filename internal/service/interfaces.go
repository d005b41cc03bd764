package service

import (
	"context"
	"time"

	"github.com/itxrex07/insta-sub000/internal/models"
)

// MappingStore is the durable side of thread-to-topic mappings. Implemented
// by internal/database; declared here so the service layer owns what it
// consumes.
type MappingStore interface {
	SaveMapping(ctx context.Context, mapping *models.ThreadMapping) error
	GetMapping(ctx context.Context, threadID string) (*models.ThreadMapping, error)
	GetMappingByTopicID(ctx context.Context, topicID string) (*models.ThreadMapping, error)
	DeleteMapping(ctx context.Context, threadID string) error
	ListMappings(ctx context.Context) ([]models.ThreadMapping, error)
	TouchMapping(ctx context.Context, threadID string, at time.Time) error
}

// ProfileStore persists sender profiles and activity counters.
type ProfileStore interface {
	RecordProfileMessage(ctx context.Context, userID, username, fullName string) error
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// Store is the full persistence surface the bridge needs.
type Store interface {
	MappingStore
	ProfileStore
}
