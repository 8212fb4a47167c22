package blocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/persistence"
	"github.com/goliatone/go-layouts/internal/position"
)

type rowKey struct {
	id     int64
	status domain.Status
}

// MemoryStore is an in-memory Gateway. Clone snapshots the store so a
// transaction can work on a copy and publish it on commit.
type MemoryStore struct {
	mu     sync.RWMutex
	blocks map[rowKey]*Block
	ids    persistence.Counter
}

// NewMemoryStore constructs an empty in-memory block store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blocks: make(map[rowKey]*Block)}
}

var _ Gateway = (*MemoryStore)(nil)

// Clone returns a deep copy of the store.
func (m *MemoryStore) Clone() *MemoryStore {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := NewMemoryStore()
	out.ids = m.ids
	for key, record := range m.blocks {
		out.blocks[key] = record.Clone()
	}
	return out
}

func inScope(record *Block, scope position.Scope) bool {
	return record.Status == scope.Status &&
		record.ParentID != nil && *record.ParentID == scope.ParentID &&
		record.Placeholder != nil && *record.Placeholder == scope.Placeholder
}

func (m *MemoryStore) CountSiblings(_ context.Context, scope position.Scope) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, record := range m.blocks {
		if inScope(record, scope) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) ShiftPositions(_ context.Context, scope position.Scope, from int, to *int, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.blocks {
		if !inScope(record, scope) || record.Position == nil {
			continue
		}
		current := *record.Position
		if current < from || (to != nil && current > *to) {
			continue
		}
		shifted := current + delta
		record.Position = &shifted
	}
	return nil
}

func (m *MemoryStore) NextBlockID(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids.Next(), nil
}

func (m *MemoryStore) LoadBlock(_ context.Context, id int64, status domain.Status) (*Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.blocks[rowKey{id, status}]
	if !ok {
		return nil, persistence.NewNotFound("block", id)
	}
	return record.Clone(), nil
}

func (m *MemoryStore) LoadBlocks(_ context.Context, ids []int64, status domain.Status) ([]*Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Block, 0, len(ids))
	seen := map[int64]struct{}{}
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if record, ok := m.blocks[rowKey{id, status}]; ok {
			out = append(out, record.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) LoadLayoutBlocks(_ context.Context, layoutID int64, status domain.Status) ([]*Block, error) {
	return m.filter(status, func(record *Block) bool { return record.LayoutID == layoutID }), nil
}

func (m *MemoryStore) LoadChildBlocks(_ context.Context, parentID int64, placeholder *string, status domain.Status) ([]*Block, error) {
	return m.filter(status, func(record *Block) bool {
		if record.ParentID == nil || *record.ParentID != parentID {
			return false
		}
		return placeholder == nil || (record.Placeholder != nil && *record.Placeholder == *placeholder)
	}), nil
}

func (m *MemoryStore) LoadSubtree(_ context.Context, path string, status domain.Status) ([]*Block, error) {
	return m.filter(status, func(record *Block) bool { return strings.HasPrefix(record.Path, path) }), nil
}

func (m *MemoryStore) filter(status domain.Status, keep func(*Block) bool) []*Block {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Block
	for key, record := range m.blocks {
		if key.status == status && keep(record) {
			out = append(out, record.Clone())
		}
	}
	sortTreeOrder(out)
	return out
}

// sortTreeOrder matches the SQL ordering: depth, placeholder, position, id.
func sortTreeOrder(records []*Block) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		pa, pb := deref(a.Placeholder), deref(b.Placeholder)
		if pa != pb {
			return pa < pb
		}
		qa, qb := derefInt(a.Position), derefInt(b.Position)
		if qa != qb {
			return qa < qb
		}
		return a.ID < b.ID
	})
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func derefInt(value *int) int {
	if value == nil {
		return -1
	}
	return *value
}

func (m *MemoryStore) BlockExists(_ context.Context, id int64, status domain.Status) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blocks[rowKey{id, status}]
	return ok, nil
}

func (m *MemoryStore) InsertBlock(_ context.Context, block *Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rowKey{block.ID, block.Status}
	if _, exists := m.blocks[key]; exists {
		return persistence.NewBadState("block", "Block already exists in the given status.")
	}
	m.blocks[key] = block.Clone()
	m.ids.Observe(block.ID)
	return nil
}

func (m *MemoryStore) UpdateBlock(_ context.Context, block *Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rowKey{block.ID, block.Status}
	current, ok := m.blocks[key]
	if !ok {
		return persistence.NewNotFound("block", block.ID)
	}
	updated := block.Clone()
	mainLocale := updated.MainLocale
	updated.ApplyTranslations(current.Translations())
	updated.MainLocale = mainLocale
	m.blocks[key] = updated
	return nil
}

func (m *MemoryStore) SaveTranslations(_ context.Context, block *Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.blocks[rowKey{block.ID, block.Status}]
	if !ok {
		return persistence.NewNotFound("block", block.ID)
	}
	mainLocale := current.MainLocale
	current.ApplyTranslations(block.Translations())
	current.MainLocale = mainLocale
	return nil
}

func (m *MemoryStore) DeleteBlocks(_ context.Context, ids []int64, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.blocks, rowKey{id, status})
	}
	return nil
}

func (m *MemoryStore) LoadLayoutBlockIDs(_ context.Context, layoutID int64, status domain.Status) ([]int64, error) {
	records := m.filter(status, func(record *Block) bool { return record.LayoutID == layoutID })
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	return ids, nil
}
