package collections

import (
	"context"
	"slices"
	"strings"

	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/identity"
	"github.com/goliatone/go-layouts/internal/logging"
	"github.com/goliatone/go-layouts/internal/persistence"
	"github.com/goliatone/go-layouts/pkg/interfaces"
)

// LinkerOption configures the collection linker.
type LinkerOption func(*Linker)

// WithIDGenerator overrides the uuid generator.
func WithIDGenerator(generator identity.Generator) LinkerOption {
	return func(l *Linker) {
		if generator != nil {
			l.ids = generator
		}
	}
}

// WithLogger overrides the linker logger.
func WithLogger(logger interfaces.Logger) LinkerOption {
	return func(l *Linker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Linker manages collections and the references binding them to blocks.
type Linker struct {
	gateway Gateway
	ids     identity.Generator
	logger  interfaces.Logger
}

// NewLinker constructs a linker over gateway.
func NewLinker(gateway Gateway, opts ...LinkerOption) *Linker {
	l := &Linker{
		gateway: gateway,
		ids:     identity.NewGenerator(),
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadCollection loads a collection in the given status.
func (l *Linker) LoadCollection(ctx context.Context, id int64, status domain.Status) (*Collection, error) {
	return l.gateway.LoadCollection(ctx, id, status)
}

// CreateCollection creates a collection. Status defaults to draft and the
// available locales always include the main locale.
func (l *Linker) CreateCollection(ctx context.Context, input CreateStruct) (*Collection, error) {
	mainLocale := strings.TrimSpace(input.MainLocale)
	if mainLocale == "" {
		return nil, persistence.NewBadState("mainLocale", "Main locale is required.")
	}
	if input.Offset < 0 {
		return nil, persistence.NewBadState("offset", "Offset cannot be negative.")
	}
	status := input.Status
	if status == "" {
		status = domain.StatusDraft
	}

	id, err := l.gateway.NextCollectionID(ctx)
	if err != nil {
		return nil, err
	}
	locales := append(slices.Clone(input.AvailableLocales), mainLocale)
	slices.Sort(locales)

	collection := &Collection{
		ID:               id,
		Status:           status,
		UUID:             l.ids.New(),
		Shared:           input.Shared,
		Offset:           input.Offset,
		Limit:            input.Limit,
		MainLocale:       mainLocale,
		AvailableLocales: slices.Compact(locales),
	}
	if err := l.gateway.InsertCollection(ctx, collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// CopyCollection duplicates collection as a new draft collection.
func (l *Linker) CopyCollection(ctx context.Context, collection *Collection) (*Collection, error) {
	id, err := l.gateway.NextCollectionID(ctx)
	if err != nil {
		return nil, err
	}
	copied := collection.Clone()
	copied.ID = id
	copied.UUID = l.ids.New()
	copied.Status = domain.StatusDraft
	if err := l.gateway.InsertCollection(ctx, copied); err != nil {
		return nil, err
	}
	return copied, nil
}

// CreateCollectionStatus copies collection into newStatus.
func (l *Linker) CreateCollectionStatus(ctx context.Context, collection *Collection, newStatus domain.Status) (*Collection, error) {
	exists, err := l.gateway.CollectionExists(ctx, collection.ID, newStatus)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, persistence.NewBadState("newStatus", "Collection already exists in the provided status.")
	}
	copied := collection.Clone()
	copied.Status = newStatus
	if err := l.gateway.InsertCollection(ctx, copied); err != nil {
		return nil, err
	}
	return copied, nil
}

// DeleteCollection removes a collection row.
func (l *Linker) DeleteCollection(ctx context.Context, collection *Collection) error {
	return l.gateway.DeleteCollection(ctx, collection.ID, collection.Status)
}

// LoadCollectionReference loads the reference of block under identifier.
func (l *Linker) LoadCollectionReference(ctx context.Context, block BlockRef, identifier string) (*Reference, error) {
	return l.gateway.LoadReference(ctx, block, identifier)
}

// LoadCollectionReferences loads every reference of block.
func (l *Linker) LoadCollectionReferences(ctx context.Context, block BlockRef) ([]*Reference, error) {
	return l.gateway.LoadReferences(ctx, []int64{block.ID}, block.Status)
}

// CreateCollectionReference links collection to block under identifier.
func (l *Linker) CreateCollectionReference(ctx context.Context, block BlockRef, collection *Collection, identifier string) (*Reference, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, persistence.NewBadState("identifier", "Identifier is required.")
	}
	_, err := l.gateway.LoadReference(ctx, block, identifier)
	if err == nil {
		return nil, persistence.NewBadState("identifier", "Collection reference with provided identifier already exists.")
	}
	if !persistence.IsNotFound(err) {
		return nil, err
	}

	reference := &Reference{
		BlockID:          block.ID,
		BlockStatus:      block.Status,
		Identifier:       identifier,
		CollectionID:     collection.ID,
		CollectionStatus: collection.Status,
	}
	if err := l.gateway.InsertReference(ctx, reference); err != nil {
		return nil, err
	}
	return reference, nil
}

// CopyReferences recreates the references of source on target. Non-shared
// collections are duplicated as drafts, shared collections are referenced
// as they are.
func (l *Linker) CopyReferences(ctx context.Context, source BlockRef, target BlockRef) error {
	references, err := l.gateway.LoadReferences(ctx, []int64{source.ID}, source.Status)
	if err != nil {
		return err
	}
	for _, reference := range references {
		collection, err := l.gateway.LoadCollection(ctx, reference.CollectionID, reference.CollectionStatus)
		if err != nil {
			return err
		}
		if !collection.Shared {
			collection, err = l.CopyCollection(ctx, collection)
			if err != nil {
				return err
			}
		}
		if _, err := l.CreateCollectionReference(ctx, target, collection, reference.Identifier); err != nil {
			return err
		}
	}
	return nil
}

// CreateReferencesStatus recreates the references of source for the same
// block in newStatus, copying every referenced collection into newStatus
// when it is missing there.
func (l *Linker) CreateReferencesStatus(ctx context.Context, source BlockRef, newStatus domain.Status) error {
	references, err := l.gateway.LoadReferences(ctx, []int64{source.ID}, source.Status)
	if err != nil {
		return err
	}
	target := BlockRef{ID: source.ID, Status: newStatus}
	for _, reference := range references {
		collection, err := l.gateway.LoadCollection(ctx, reference.CollectionID, newStatus)
		if persistence.IsNotFound(err) {
			var original *Collection
			original, err = l.gateway.LoadCollection(ctx, reference.CollectionID, reference.CollectionStatus)
			if err != nil {
				return err
			}
			collection, err = l.CreateCollectionStatus(ctx, original, newStatus)
		}
		if err != nil {
			return err
		}
		if _, err := l.CreateCollectionReference(ctx, target, collection, reference.Identifier); err != nil {
			return err
		}
	}
	return nil
}

// DeleteBlockReferences removes the references of the listed blocks and the
// non-shared collections no longer referenced by any block row. A nil status
// covers every status.
func (l *Linker) DeleteBlockReferences(ctx context.Context, blockIDs []int64, status *domain.Status) error {
	if len(blockIDs) == 0 {
		return nil
	}
	for _, current := range domain.StatusesOrAll(status) {
		references, err := l.gateway.LoadReferences(ctx, blockIDs, current)
		if err != nil {
			return err
		}
		if len(references) == 0 {
			continue
		}
		if err := l.gateway.DeleteReferences(ctx, blockIDs, current); err != nil {
			return err
		}

		seen := map[rowKey]struct{}{}
		for _, reference := range references {
			key := rowKey{reference.CollectionID, reference.CollectionStatus}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			if err := l.deleteOrphan(ctx, key); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Linker) deleteOrphan(ctx context.Context, key rowKey) error {
	collection, err := l.gateway.LoadCollection(ctx, key.id, key.status)
	if persistence.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if collection.Shared {
		return nil
	}
	count, err := l.gateway.CountCollectionReferences(ctx, key.id, key.status)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	l.logger.Debug("collections.delete_orphan", "collection_id", key.id, logging.FieldStatus, key.status)
	return l.gateway.DeleteCollection(ctx, key.id, key.status)
}
