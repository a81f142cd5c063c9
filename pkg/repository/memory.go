package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/digitnote/pkg/model"
)

// Memory is an in-process Repository for local runs and tests
type Memory struct {
	mu      sync.RWMutex
	records map[string][]*model.Record
	now     func() time.Time
}

var _ Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string][]*model.Record),
		now:     time.Now,
	}
}

func (m *Memory) PutRecord(ctx context.Context, record *model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record.ID = model.NewRecordID()
	record.CreatedAt = m.now()

	stored := *record
	m.records[record.OwnerID] = append(m.records[record.OwnerID], &stored)
	return nil
}

func (m *Memory) ListRecords(ctx context.Context, ownerID string) ([]*model.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.records[ownerID]
	out := make([]*model.Record, 0, len(src))
	for _, r := range src {
		c := *r
		out = append(out, &c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out, nil
}
