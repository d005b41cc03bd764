package service

import (
	"sync"

	"github.com/itxrex07/insta-sub000/internal/models"
)

// MappingCache is the in-memory read cache over the mapping store. It is
// rebuilt from the store at startup and never authoritative across process
// lifetimes; writes go to the store first.
type MappingCache struct {
	mu       sync.RWMutex
	byThread map[string]models.ThreadMapping
	byTopic  map[string]string // topicID -> threadID
}

func NewMappingCache() *MappingCache {
	return &MappingCache{
		byThread: make(map[string]models.ThreadMapping),
		byTopic:  make(map[string]string),
	}
}

func (c *MappingCache) Get(threadID string) (models.ThreadMapping, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.byThread[threadID]
	return m, ok
}

// GetByTopic resolves the reverse direction for destination-to-source
// traffic.
func (c *MappingCache) GetByTopic(topicID string) (models.ThreadMapping, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	threadID, ok := c.byTopic[topicID]
	if !ok {
		return models.ThreadMapping{}, false
	}
	m, ok := c.byThread[threadID]
	return m, ok
}

func (c *MappingCache) Put(m models.ThreadMapping) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.byThread[m.ThreadID]; ok {
		delete(c.byTopic, old.TopicID)
	}
	c.byThread[m.ThreadID] = m
	c.byTopic[m.TopicID] = m.ThreadID
}

func (c *MappingCache) Remove(threadID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.byThread[threadID]; ok {
		delete(c.byTopic, old.TopicID)
		delete(c.byThread, threadID)
	}
}

// Warm replaces the cache contents with the store's records.
func (c *MappingCache) Warm(mappings []models.ThreadMapping) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byThread = make(map[string]models.ThreadMapping, len(mappings))
	c.byTopic = make(map[string]string, len(mappings))
	for _, m := range mappings {
		c.byThread[m.ThreadID] = m
		c.byTopic[m.TopicID] = m.ThreadID
	}
}

func (c *MappingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byThread)
}
