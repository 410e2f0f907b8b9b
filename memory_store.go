package ntfy

import (
	"context"
	"sort"
	"sync"

	"github.com/coregx/ntfy/model"
)

// MemoryStore is an in-process WatermarkStore and MessageArchive.
// State is lost when the process exits; use adapters/relica for durability.
type MemoryStore struct {
	mu         sync.RWMutex
	watermarks map[string]model.Watermark
	messages   []model.ArchivedMessage
	byID       map[string]int
	nextID     int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		watermarks: make(map[string]model.Watermark),
		byID:       make(map[string]int),
	}
}

// WatermarkStore returns s as a WatermarkStore.
func (s *MemoryStore) WatermarkStore() WatermarkStore {
	return memoryWatermarks{s}
}

// MessageArchive returns s as a MessageArchive.
func (s *MemoryStore) MessageArchive() MessageArchive {
	return memoryArchive{s}
}

type memoryWatermarks struct{ s *MemoryStore }

func (m memoryWatermarks) Load(_ context.Context, key string) (model.Watermark, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	wm, ok := m.s.watermarks[key]
	if !ok {
		return model.Watermark{}, ErrNoData
	}
	return wm, nil
}

func (m memoryWatermarks) Save(_ context.Context, w model.Watermark) (model.Watermark, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if existing, ok := m.s.watermarks[w.SubscriptionKey]; ok {
		w.ID = existing.ID
	} else if w.ID == 0 {
		m.s.nextID++
		w.ID = m.s.nextID
	}
	m.s.watermarks[w.SubscriptionKey] = w
	return w, nil
}

func (m memoryWatermarks) Delete(_ context.Context, key string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.watermarks, key)
	return nil
}

type memoryArchive struct{ s *MemoryStore }

func (m memoryArchive) Save(_ context.Context, a model.ArchivedMessage) (model.ArchivedMessage, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if i, ok := m.s.byID[a.MessageID]; ok {
		return m.s.messages[i], nil
	}
	m.s.nextID++
	a.ID = m.s.nextID
	m.s.byID[a.MessageID] = len(m.s.messages)
	m.s.messages = append(m.s.messages, a)
	return a, nil
}

func (m memoryArchive) FindByMessageID(_ context.Context, messageID string) (model.ArchivedMessage, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	i, ok := m.s.byID[messageID]
	if !ok {
		return model.ArchivedMessage{}, ErrNoData
	}
	return m.s.messages[i], nil
}

func (m memoryArchive) FindByTopic(_ context.Context, topic string, limit int) ([]model.ArchivedMessage, error) {
	m.s.mu.RLock()
	var out []model.ArchivedMessage
	for i := len(m.s.messages) - 1; i >= 0; i-- {
		if m.s.messages[i].Topic == topic {
			out = append(out, m.s.messages[i])
		}
	}
	m.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time > out[j].Time
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
