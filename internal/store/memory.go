package store

import (
	"sync"

	"github.com/ritheshsuvarna/natya/internal/models"
)

// Memory is the in-process tier. Records are cloned on the way in and out.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*models.AnalysisRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*models.AnalysisRecord)}
}

func (m *Memory) Put(record *models.AnalysisRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = record.Clone()
}

func (m *Memory) Get(id string) (*models.AnalysisRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[id]
	if !ok {
		return nil, false
	}
	return record.Clone(), true
}

// SetStory reports whether a record with id exists.
func (m *Memory) SetStory(id, story string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return false
	}
	record.SetStory(story)
	return true
}

func (m *Memory) List() []*models.AnalysisRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.AnalysisRecord, 0, len(m.records))
	for _, record := range m.records {
		out = append(out, record.Clone())
	}
	return out
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
