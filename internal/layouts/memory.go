package layouts

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/persistence"
)

type rowKey struct {
	id     int64
	status domain.Status
}

type zoneKey struct {
	layoutID   int64
	status     domain.Status
	identifier string
}

// MemoryStore is an in-memory Gateway used by tests and the memory engine.
type MemoryStore struct {
	mu      sync.RWMutex
	layouts map[rowKey]*Layout
	zones   map[zoneKey]*Zone
	ids     persistence.Counter
}

// NewMemoryStore constructs an empty in-memory layout store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		layouts: make(map[rowKey]*Layout),
		zones:   make(map[zoneKey]*Zone),
	}
}

var _ Gateway = (*MemoryStore)(nil)

// Clone returns a deep copy of the store.
func (m *MemoryStore) Clone() *MemoryStore {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := NewMemoryStore()
	out.ids = m.ids
	for key, record := range m.layouts {
		out.layouts[key] = record.Clone()
	}
	for key, record := range m.zones {
		out.zones[key] = record.Clone()
	}
	return out
}

func (m *MemoryStore) NextLayoutID(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids.Next(), nil
}

func (m *MemoryStore) LoadLayout(_ context.Context, id int64, status domain.Status) (*Layout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.layouts[rowKey{id, status}]
	if !ok {
		return nil, persistence.NewNotFound("layout", id)
	}
	return record.Clone(), nil
}

func (m *MemoryStore) LoadLayouts(_ context.Context, query ListQuery) ([]*Layout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Layout
	for key, record := range m.layouts {
		if record.Shared != query.Shared {
			continue
		}
		switch key.status {
		case domain.StatusPublished:
		case domain.StatusDraft:
			if !query.IncludeDrafts {
				continue
			}
			if _, published := m.layouts[rowKey{key.id, domain.StatusPublished}]; published {
				continue
			}
		default:
			continue
		}
		out = append(out, record.Clone())
	}
	sortByName(out)

	if query.Offset >= len(out) {
		return nil, nil
	}
	out = out[query.Offset:]
	if query.Limit != nil && *query.Limit < len(out) {
		out = out[:*query.Limit]
	}
	return out, nil
}

func (m *MemoryStore) LoadRelatedLayouts(_ context.Context, sharedUUID uuid.UUID, status domain.Status) ([]*Layout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	related := map[int64]struct{}{}
	for key, zone := range m.zones {
		if key.status == status && zone.LinkedLayoutUUID != nil && *zone.LinkedLayoutUUID == sharedUUID {
			related[key.layoutID] = struct{}{}
		}
	}
	var out []*Layout
	for id := range related {
		if record, ok := m.layouts[rowKey{id, status}]; ok {
			out = append(out, record.Clone())
		}
	}
	sortByName(out)
	return out, nil
}

func (m *MemoryStore) LoadLayoutsOfType(_ context.Context, layoutType string, status domain.Status) ([]*Layout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Layout
	for key, record := range m.layouts {
		if key.status == status && record.Type == layoutType {
			out = append(out, record.Clone())
		}
	}
	sortByName(out)
	return out, nil
}

func sortByName(records []*Layout) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].ID < records[j].ID
	})
}

func (m *MemoryStore) LayoutExists(_ context.Context, id int64, status domain.Status) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.layouts[rowKey{id, status}]
	return ok, nil
}

func (m *MemoryStore) LayoutNameExists(_ context.Context, name string, excludeID *int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = strings.TrimSpace(name)
	for key, record := range m.layouts {
		if excludeID != nil && key.id == *excludeID {
			continue
		}
		if record.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) InsertLayout(_ context.Context, layout *Layout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rowKey{layout.ID, layout.Status}
	if _, exists := m.layouts[key]; exists {
		return persistence.NewBadState("layout", "Layout already exists in the given status.")
	}
	m.layouts[key] = layout.Clone()
	m.ids.Observe(layout.ID)
	return nil
}

func (m *MemoryStore) UpdateLayout(_ context.Context, layout *Layout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rowKey{layout.ID, layout.Status}
	if _, exists := m.layouts[key]; !exists {
		return persistence.NewNotFound("layout", layout.ID)
	}
	m.layouts[key] = layout.Clone()
	return nil
}

func (m *MemoryStore) DeleteLayout(_ context.Context, id int64, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.layouts, rowKey{id, status})
	return nil
}

func (m *MemoryStore) LoadZone(_ context.Context, layoutID int64, status domain.Status, identifier string) (*Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.zones[zoneKey{layoutID, status, identifier}]
	if !ok {
		return nil, persistence.NewNotFound("zone", identifier)
	}
	return record.Clone(), nil
}

func (m *MemoryStore) LoadZones(_ context.Context, layoutID int64, status domain.Status) ([]*Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Zone
	for key, record := range m.zones {
		if key.layoutID == layoutID && key.status == status {
			out = append(out, record.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}

func (m *MemoryStore) ZoneExists(_ context.Context, layoutID int64, status domain.Status, identifier string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.zones[zoneKey{layoutID, status, identifier}]
	return ok, nil
}

func (m *MemoryStore) InsertZone(_ context.Context, zone *Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := zoneKey{zone.LayoutID, zone.Status, zone.Identifier}
	if _, exists := m.zones[key]; exists {
		return persistence.NewBadState("zone", "Zone already exists in the given status.")
	}
	m.zones[key] = zone.Clone()
	return nil
}

func (m *MemoryStore) UpdateZone(_ context.Context, zone *Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := zoneKey{zone.LayoutID, zone.Status, zone.Identifier}
	if _, exists := m.zones[key]; !exists {
		return persistence.NewNotFound("zone", zone.Identifier)
	}
	m.zones[key] = zone.Clone()
	return nil
}

func (m *MemoryStore) DeleteZones(_ context.Context, layoutID int64, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.zones {
		if key.layoutID == layoutID && key.status == status {
			delete(m.zones, key)
		}
	}
	return nil
}
