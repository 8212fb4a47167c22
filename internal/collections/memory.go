package collections

import (
	"context"
	"sort"
	"sync"

	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/persistence"
)

type rowKey struct {
	id     int64
	status domain.Status
}

type referenceKey struct {
	blockID    int64
	status     domain.Status
	identifier string
}

// MemoryStore is an in-memory Gateway. Clone snapshots the store so a
// transaction can work on a copy and publish it on commit.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[rowKey]*Collection
	references  map[referenceKey]*Reference
	ids         persistence.Counter
}

// NewMemoryStore constructs an empty in-memory collection store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[rowKey]*Collection),
		references:  make(map[referenceKey]*Reference),
	}
}

var _ Gateway = (*MemoryStore)(nil)

// Clone returns a deep copy of the store.
func (m *MemoryStore) Clone() *MemoryStore {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := NewMemoryStore()
	out.ids = m.ids
	for key, record := range m.collections {
		out.collections[key] = record.Clone()
	}
	for key, record := range m.references {
		out.references[key] = record.Clone()
	}
	return out
}

func (m *MemoryStore) NextCollectionID(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids.Next(), nil
}

func (m *MemoryStore) LoadCollection(_ context.Context, id int64, status domain.Status) (*Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.collections[rowKey{id, status}]
	if !ok {
		return nil, persistence.NewNotFound("collection", id)
	}
	return record.Clone(), nil
}

func (m *MemoryStore) CollectionExists(_ context.Context, id int64, status domain.Status) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[rowKey{id, status}]
	return ok, nil
}

func (m *MemoryStore) InsertCollection(_ context.Context, collection *Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rowKey{collection.ID, collection.Status}
	if _, exists := m.collections[key]; exists {
		return persistence.NewBadState("collection", "Collection already exists in the given status.")
	}
	m.collections[key] = collection.Clone()
	m.ids.Observe(collection.ID)
	return nil
}

func (m *MemoryStore) DeleteCollection(_ context.Context, id int64, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, rowKey{id, status})
	return nil
}

func (m *MemoryStore) LoadReference(_ context.Context, block BlockRef, identifier string) (*Reference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.references[referenceKey{block.ID, block.Status, identifier}]
	if !ok {
		return nil, persistence.NewNotFound("collectionReference", identifier)
	}
	return record.Clone(), nil
}

func (m *MemoryStore) LoadReferences(_ context.Context, blockIDs []int64, status domain.Status) ([]*Reference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(blockIDs))
	for _, id := range blockIDs {
		wanted[id] = struct{}{}
	}
	var out []*Reference
	for key, record := range m.references {
		if key.status != status {
			continue
		}
		if _, ok := wanted[key.blockID]; ok {
			out = append(out, record.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockID != out[j].BlockID {
			return out[i].BlockID < out[j].BlockID
		}
		return out[i].Identifier < out[j].Identifier
	})
	return out, nil
}

func (m *MemoryStore) InsertReference(_ context.Context, reference *Reference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := referenceKey{reference.BlockID, reference.BlockStatus, reference.Identifier}
	if _, exists := m.references[key]; exists {
		return persistence.NewBadState("identifier", "Collection reference with the given identifier already exists.")
	}
	m.references[key] = reference.Clone()
	return nil
}

func (m *MemoryStore) DeleteReferences(_ context.Context, blockIDs []int64, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[int64]struct{}, len(blockIDs))
	for _, id := range blockIDs {
		wanted[id] = struct{}{}
	}
	for key := range m.references {
		if _, ok := wanted[key.blockID]; ok && key.status == status {
			delete(m.references, key)
		}
	}
	return nil
}

func (m *MemoryStore) CountCollectionReferences(_ context.Context, collectionID int64, status domain.Status) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, record := range m.references {
		if record.CollectionID == collectionID && record.CollectionStatus == status {
			count++
		}
	}
	return count, nil
}
