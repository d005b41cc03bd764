package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itxrex07/insta-sub000/internal/models"
	igtypes "github.com/itxrex07/insta-sub000/pkg/instagram/types"
)

func TestRecordMessage_BumpsCounter(t *testing.T) {
	store := newMockStore()
	ps := NewProfileService(store, newMockInstagramClient(), quietLogger())

	msg := &models.Message{SenderID: "u1", SenderDisplayName: "Alice Example"}
	ps.RecordMessage(context.Background(), msg)
	ps.RecordMessage(context.Background(), msg)

	profile, err := store.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, int64(2), profile.MessageCount)
	assert.Equal(t, "Alice Example", profile.FullName)
}

func TestRecordMessage_IgnoresAnonymous(t *testing.T) {
	store := newMockStore()
	ps := NewProfileService(store, newMockInstagramClient(), quietLogger())

	ps.RecordMessage(context.Background(), &models.Message{SenderID: ""})
	ps.RecordMessage(context.Background(), nil)
	assert.Equal(t, 0, store.recordCalls)
}

func TestGetDisplayName_PrefersStore(t *testing.T) {
	store := newMockStore()
	require.NoError(t, store.RecordProfileMessage(context.Background(), "u1", "alice", "Alice Example"))
	ig := newMockInstagramClient()
	ig.getUserErr = errors.New("should not be called")
	ps := NewProfileService(store, ig, quietLogger())

	assert.Equal(t, "Alice Example", ps.GetDisplayName(context.Background(), "u1", "fallback"))
}

func TestGetDisplayName_FallsBackToAPIThenDefault(t *testing.T) {
	store := newMockStore()
	ig := newMockInstagramClient()
	ig.user = &igtypes.User{UserID: "u2", Username: "bob"}
	ps := NewProfileService(store, ig, quietLogger())

	assert.Equal(t, "bob", ps.GetDisplayName(context.Background(), "u2", "fallback"))

	// Cached for the next lookup even if the API starts failing.
	ig.getUserErr = errors.New("rate limited")
	assert.Equal(t, "bob", ps.GetDisplayName(context.Background(), "u2", "fallback"))

	assert.Equal(t, "fallback", ps.GetDisplayName(context.Background(), "u3", "fallback"))
}

func TestGetDisplayName_EmptyUserID(t *testing.T) {
	ps := NewProfileService(newMockStore(), newMockInstagramClient(), quietLogger())
	assert.Equal(t, "fallback", ps.GetDisplayName(context.Background(), "", "fallback"))
}
