package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	brerrors "github.com/itxrex07/insta-sub000/internal/errors"
	"github.com/itxrex07/insta-sub000/internal/models"
	igtypes "github.com/itxrex07/insta-sub000/pkg/instagram/types"
	"github.com/itxrex07/insta-sub000/pkg/telegram"
)

// mockStore is an in-memory Store with per-call failure injection.
type mockStore struct {
	mu       sync.Mutex
	mappings map[string]models.ThreadMapping // threadID -> mapping
	profiles map[string]models.UserProfile

	saveErr   error
	getErr    error
	deleteErr error
	listErr   error

	saveCalls   int
	deleteCalls int
	touchCalls  int
	recordCalls int
}

func newMockStore() *mockStore {
	return &mockStore{
		mappings: make(map[string]models.ThreadMapping),
		profiles: make(map[string]models.UserProfile),
	}
}

func (s *mockStore) SaveMapping(_ context.Context, mapping *models.ThreadMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mappings[mapping.ThreadID] = *mapping
	return nil
}

func (s *mockStore) GetMapping(_ context.Context, threadID string) (*models.ThreadMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	if m, ok := s.mappings[threadID]; ok {
		cp := m
		return &cp, nil
	}
	return nil, nil
}

func (s *mockStore) GetMappingByTopicID(_ context.Context, topicID string) (*models.ThreadMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, m := range s.mappings {
		if m.TopicID == topicID {
			cp := m
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *mockStore) DeleteMapping(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.mappings, threadID)
	return nil
}

func (s *mockStore) ListMappings(_ context.Context) ([]models.ThreadMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.ThreadMapping, 0, len(s.mappings))
	for _, m := range s.mappings {
		out = append(out, m)
	}
	return out, nil
}

func (s *mockStore) TouchMapping(_ context.Context, threadID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchCalls++
	if m, ok := s.mappings[threadID]; ok {
		m.LastActivity = at
		s.mappings[threadID] = m
	}
	return nil
}

func (s *mockStore) RecordProfileMessage(_ context.Context, userID, username, fullName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordCalls++
	p := s.profiles[userID]
	p.UserID = userID
	if username != "" {
		p.Username = username
	}
	if fullName != "" {
		p.FullName = fullName
	}
	p.MessageCount++
	s.profiles[userID] = p
	return nil
}

func (s *mockStore) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		cp := p
		return &cp, nil
	}
	return nil, nil
}

// mockTelegramClient counts topic creation and records sends. failTopics
// maps a topic id to the error its sends should return, which lets tests
// simulate a topic deleted out from under the bridge.
type mockTelegramClient struct {
	mu          sync.Mutex
	createCalls int
	createErr   error
	createDelay time.Duration
	nextTopic   int

	sendErr    error
	failTopics map[string]error
	sent       []tgSend
}

type tgSend struct {
	topicID string
	kind    string
	text    string
	path    string
}

func newMockTelegramClient() *mockTelegramClient {
	return &mockTelegramClient{nextTopic: 100, failTopics: make(map[string]error)}
}

func (c *mockTelegramClient) CreateForumTopic(_ context.Context, _ string) (string, error) {
	if c.createDelay > 0 {
		time.Sleep(c.createDelay)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createCalls++
	if c.createErr != nil {
		return "", c.createErr
	}
	c.nextTopic++
	return fmt.Sprintf("%d", c.nextTopic), nil
}

func (c *mockTelegramClient) send(topicID, kind, text, path string) (*telegram.SendResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.failTopics[topicID]; ok {
		return nil, err
	}
	if c.sendErr != nil {
		return nil, c.sendErr
	}
	c.sent = append(c.sent, tgSend{topicID: topicID, kind: kind, text: text, path: path})
	return &telegram.SendResponse{MessageID: fmt.Sprintf("m%d", len(c.sent))}, nil
}

func (c *mockTelegramClient) SendText(_ context.Context, topicID, text string) (*telegram.SendResponse, error) {
	return c.send(topicID, "text", text, "")
}

func (c *mockTelegramClient) SendPhoto(_ context.Context, topicID, filePath, caption string) (*telegram.SendResponse, error) {
	return c.send(topicID, "photo", caption, filePath)
}

func (c *mockTelegramClient) SendVideo(_ context.Context, topicID, filePath, caption string) (*telegram.SendResponse, error) {
	return c.send(topicID, "video", caption, filePath)
}

func (c *mockTelegramClient) SendDocument(_ context.Context, topicID, filePath, caption string) (*telegram.SendResponse, error) {
	return c.send(topicID, "document", caption, filePath)
}

func (c *mockTelegramClient) sentMessages() []tgSend {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]tgSend, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *mockTelegramClient) creates() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createCalls
}

// mockInstagramClient records sends and serves canned thread/user metadata.
type mockInstagramClient struct {
	mu           sync.Mutex
	thread       *igtypes.Thread
	getThreadErr error
	user         *igtypes.User
	getUserErr   error
	sendErr      error
	sent         []igSend
}

type igSend struct {
	threadID string
	kind     string
	text     string
	path     string
}

func newMockInstagramClient() *mockInstagramClient {
	return &mockInstagramClient{}
}

func (c *mockInstagramClient) send(threadID, kind, text, path string) (*igtypes.SendResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return nil, c.sendErr
	}
	c.sent = append(c.sent, igSend{threadID: threadID, kind: kind, text: text, path: path})
	return &igtypes.SendResponse{MessageID: fmt.Sprintf("ig%d", len(c.sent)), Status: "ok"}, nil
}

func (c *mockInstagramClient) SendText(_ context.Context, threadID, text string) (*igtypes.SendResponse, error) {
	return c.send(threadID, "text", text, "")
}

func (c *mockInstagramClient) SendPhoto(_ context.Context, threadID, filePath, caption string) (*igtypes.SendResponse, error) {
	return c.send(threadID, "photo", caption, filePath)
}

func (c *mockInstagramClient) SendVideo(_ context.Context, threadID, filePath, caption string) (*igtypes.SendResponse, error) {
	return c.send(threadID, "video", caption, filePath)
}

func (c *mockInstagramClient) GetThread(_ context.Context, threadID string) (*igtypes.Thread, error) {
	if c.getThreadErr != nil {
		return nil, c.getThreadErr
	}
	if c.thread != nil {
		return c.thread, nil
	}
	return &igtypes.Thread{ThreadID: threadID, Title: "Chat with alice"}, nil
}

func (c *mockInstagramClient) GetUser(_ context.Context, userID string) (*igtypes.User, error) {
	if c.getUserErr != nil {
		return nil, c.getUserErr
	}
	if c.user != nil {
		return c.user, nil
	}
	return &igtypes.User{UserID: userID, Username: "alice", FullName: "Alice Example"}, nil
}

func (c *mockInstagramClient) sentMessages() []igSend {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]igSend, len(c.sent))
	copy(out, c.sent)
	return out
}

// mockMediaHandler hands out fake staged paths and records discards.
type mockMediaHandler struct {
	mu          sync.Mutex
	transferErr error
	transfers   []string
	discards    []string
}

func newMockMediaHandler() *mockMediaHandler {
	return &mockMediaHandler{}
}

func (m *mockMediaHandler) Transfer(_ context.Context, remoteURL string, _ models.MessageKind) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transferErr != nil {
		return "", m.transferErr
	}
	m.transfers = append(m.transfers, remoteURL)
	return fmt.Sprintf("/tmp/staging/transfer_%d", len(m.transfers)), nil
}

func (m *mockMediaHandler) Discard(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discards = append(m.discards, path)
}

func (m *mockMediaHandler) CleanupStaging(_ time.Duration) error { return nil }

func mappingFixture(threadID, topicID string) *models.ThreadMapping {
	now := time.Now()
	return &models.ThreadMapping{
		ThreadID:     threadID,
		TopicID:      topicID,
		Title:        "Chat with alice",
		CreatedAt:    now,
		LastActivity: now,
	}
}

func resourceMissingErr() error {
	return brerrors.New(brerrors.ErrCodeResourceMissing, "message thread not found")
}

func transientErr() error {
	return brerrors.WrapRetryable(fmt.Errorf("dial tcp: connection refused"), brerrors.ErrCodeTransientNetwork, "request failed")
}
