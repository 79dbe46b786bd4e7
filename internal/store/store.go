// Package store keeps analysis records in a best-effort persistent tier backed by an
// in-process map that is always written.
package store

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/ritheshsuvarna/natya/internal/apperr"
	"github.com/ritheshsuvarna/natya/internal/models"
)

const DefaultListLimit = 50

var ErrNotFound = apperr.ErrNotFound

// Persistent is a durable record collection. FindByID returns (nil, nil) on a miss.
type Persistent interface {
	Name() string
	Insert(ctx context.Context, record *models.AnalysisRecord) error
	FindByID(ctx context.Context, id string) (*models.AnalysisRecord, error)
	SetStory(ctx context.Context, id, story string) error
	List(ctx context.Context, limit int) ([]*models.AnalysisRecord, error)
	Count(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}

type Store struct {
	persistent Persistent
	memory     *Memory
}

// New builds a Store. persistent may be nil, in which case only the in-process tier is used.
func New(persistent Persistent) *Store {
	return &Store{persistent: persistent, memory: NewMemory()}
}

func (s *Store) PersistentName() string {
	if s.persistent == nil {
		return "memory"
	}
	return s.persistent.Name()
}

func (s *Store) Put(ctx context.Context, record *models.AnalysisRecord) {
	if s.persistent != nil {
		if err := s.persistent.Insert(ctx, record); err != nil {
			log.Warnf("Failed to persist analysis %s to %s, keeping in memory only: %v",
				record.ID, s.persistent.Name(), err)
		}
	}
	s.memory.Put(record)
}

func (s *Store) Get(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	if s.persistent != nil {
		record, err := s.persistent.FindByID(ctx, id)
		switch {
		case err != nil:
			log.Warnf("Failed to read analysis %s from %s, falling back to memory: %v",
				id, s.persistent.Name(), err)
		case record != nil:
			return s.withMemoryStory(record), nil
		}
	}

	if record, ok := s.memory.Get(id); ok {
		return record, nil
	}
	return nil, fmt.Errorf("%w: analysis %s", ErrNotFound, id)
}

// withMemoryStory fills in a story that only reached the memory tier, which happens when
// the persistent story write failed.
func (s *Store) withMemoryStory(record *models.AnalysisRecord) *models.AnalysisRecord {
	if record.HasStory() {
		return record
	}
	if cached, ok := s.memory.Get(record.ID); ok && cached.HasStory() {
		record.SetStory(*cached.GeneratedStory)
	}
	return record
}

// UpdateStory writes the story to both tiers independently. Callers check HasStory first.
func (s *Store) UpdateStory(ctx context.Context, id, story string) {
	if s.persistent != nil {
		if err := s.persistent.SetStory(ctx, id, story); err != nil {
			log.Warnf("Failed to persist story for analysis %s to %s: %v", id, s.persistent.Name(), err)
		}
	}
	s.memory.SetStory(id, story)
}

// List merges both tiers newest first. A record present in both tiers is listed once,
// using the persistent copy.
func (s *Store) List(ctx context.Context, limit int) []*models.AnalysisRecord {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	seen := make(map[string]struct{})
	var merged []*models.AnalysisRecord

	if s.persistent != nil {
		records, err := s.persistent.List(ctx, limit)
		if err != nil {
			log.Warnf("Failed to list analyses from %s: %v", s.persistent.Name(), err)
		}
		for _, record := range records {
			if _, ok := seen[record.ID]; ok {
				continue
			}
			seen[record.ID] = struct{}{}
			merged = append(merged, s.withMemoryStory(record))
		}
	}

	for _, record := range s.memory.List() {
		if _, ok := seen[record.ID]; ok {
			continue
		}
		seen[record.ID] = struct{}{}
		merged = append(merged, record)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	if merged == nil {
		merged = []*models.AnalysisRecord{}
	}
	return merged
}

// Counts reports how many records each tier holds. A persistent count of -1 means the
// tier is absent or could not be counted.
func (s *Store) Counts(ctx context.Context) (persistent int64, memory int) {
	persistent = -1
	if s.persistent != nil {
		n, err := s.persistent.Count(ctx)
		if err != nil {
			log.Warnf("Failed to count analyses in %s: %v", s.persistent.Name(), err)
		} else {
			persistent = n
		}
	}
	return persistent, s.memory.Len()
}

func (s *Store) Close(ctx context.Context) error {
	if s.persistent == nil {
		return nil
	}
	if err := s.persistent.Close(ctx); err != nil {
		return fmt.Errorf("failed to close %s store: %w", s.persistent.Name(), err)
	}
	return nil
}
