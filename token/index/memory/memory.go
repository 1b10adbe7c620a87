// Package memory backs the token index with an in-process map. It exists for
// tests and for running without a database; the gorm dao is the durable
// implementation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/token-overlay/tokend/internal/util"
	"github.com/token-overlay/tokend/token/index"
)

var _ index.Store = (*Memory)(nil)

type entry struct {
	record index.Record
	seq    uint64
}

// Memory is a mutex guarded in-memory token output store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq uint64
}

func New() *Memory {
	return &Memory{
		entries: make(map[string]*entry),
	}
}

func (m *Memory) Store(_ context.Context, outpoint *util.OutPoint, tokenId, amount, customFields string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := outpoint.String()
	createdAt := time.Now()
	m.nextSeq++
	seq := m.nextSeq
	if existing, ok := m.entries[key]; ok {
		// Upsert keeps the original indexing time and position, latest
		// fields win.
		createdAt = existing.record.CreatedAt
		seq = existing.seq
	}
	m.entries[key] = &entry{
		seq: seq,
		record: index.Record{
			Outpoint:     util.NewOutPoint(outpoint.TxId(), outpoint.Index),
			TokenId:      tokenId,
			Amount:       amount,
			CustomFields: customFields,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, outpoint *util.OutPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, outpoint.String())
	return nil
}

func (m *Memory) FindByOutpoint(_ context.Context, outpoint *util.OutPoint) (*index.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[outpoint.String()]
	if !ok {
		return nil, nil
	}
	record := e.record
	return &record, nil
}

func (m *Memory) FindByTokenId(_ context.Context, tokenId string, page *index.Page) ([]*util.OutPoint, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return m.list(page, func(r *index.Record) bool {
		return r.TokenId == tokenId
	}), nil
}

func (m *Memory) FindAll(_ context.Context, page *index.Page) ([]*util.OutPoint, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return m.list(page, func(r *index.Record) bool {
		return true
	}), nil
}

func (m *Memory) list(page *index.Page, match func(*index.Record) bool) []*util.OutPoint {
	m.mu.RLock()
	selected := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		if !match(&e.record) {
			continue
		}
		if page.From != nil && e.record.CreatedAt.Before(*page.From) {
			continue
		}
		if page.To != nil && e.record.CreatedAt.After(*page.To) {
			continue
		}
		selected = append(selected, e)
	}
	m.mu.RUnlock()

	// Creation time orders the page; the insertion sequence breaks ties the
	// way the dao's autoincrement id does.
	sort.Slice(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		if page.Descending() {
			a, b = b, a
		}
		if !a.record.CreatedAt.Equal(b.record.CreatedAt) {
			return a.record.CreatedAt.Before(b.record.CreatedAt)
		}
		return a.seq < b.seq
	})

	if page.Skip >= len(selected) {
		return []*util.OutPoint{}
	}
	selected = selected[page.Skip:]
	if limit := page.EffectiveLimit(); len(selected) > limit {
		selected = selected[:limit]
	}

	outpoints := make([]*util.OutPoint, 0, len(selected))
	for _, e := range selected {
		outpoints = append(outpoints, util.NewOutPoint(e.record.Outpoint.TxId(), e.record.Outpoint.Index))
	}
	return outpoints
}
