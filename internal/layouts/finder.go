package layouts

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/persistence"
)

// NewLayoutRepository creates a generic repository over the layouts table.
func NewLayoutRepository(db *bun.DB) repository.Repository[*Layout] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Layout]{
		NewRecord:          func() *Layout { return &Layout{} },
		GetID:              func(layout *Layout) uuid.UUID { return layout.UUID },
		SetID:              func(layout *Layout, id uuid.UUID) { layout.UUID = id },
		GetIdentifier:      func() string { return "name" },
		GetIdentifierValue: func(layout *Layout) string { return layout.Name },
	})
}

// FindQuery filters LayoutFinder.Find. Zero values do not filter.
type FindQuery struct {
	Status domain.Status
	Type   string
	Shared *bool
	Offset int
	Limit  int
}

// LayoutFinder serves read-only layout listings outside of transactions.
// With a cache, results may lag behind writes until the cache TTL expires.
type LayoutFinder struct {
	repo repository.Repository[*Layout]
}

// NewLayoutFinder creates a finder without caching.
func NewLayoutFinder(db *bun.DB) *LayoutFinder {
	return NewLayoutFinderWithCache(db, nil, nil)
}

// NewLayoutFinderWithCache creates a finder whose reads go through the
// repository cache.
func NewLayoutFinderWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *LayoutFinder {
	base := NewLayoutRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	return &LayoutFinder{repo: base}
}

// Find lists layouts ordered by name with the total count before paging.
func (f *LayoutFinder) Find(ctx context.Context, query FindQuery) ([]*Layout, int, error) {
	filter := repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		if query.Status != "" {
			q = q.Where("?TableAlias.status = ?", query.Status)
		}
		if query.Type != "" {
			q = q.Where("?TableAlias.type = ?", query.Type)
		}
		if query.Shared != nil {
			q = q.Where("?TableAlias.shared = ?", *query.Shared)
		}
		return q.OrderExpr("?TableAlias.name ASC, ?TableAlias.id ASC")
	})
	if query.Limit > 0 {
		return f.repo.List(ctx, filter, repository.SelectPaginate(query.Limit, query.Offset))
	}
	return f.repo.List(ctx, filter)
}

// FindByUUID returns the layout with the uuid in status.
func (f *LayoutFinder) FindByUUID(ctx context.Context, id uuid.UUID, status domain.Status) (*Layout, error) {
	records, _, err := f.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.uuid = ?", id)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.status = ?", status)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, persistence.NewNotFound("layout", id)
	}
	return records[0], nil
}
