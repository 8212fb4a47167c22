package collections

import (
	"context"

	"github.com/goliatone/go-layouts/internal/domain"
)

// Gateway persists collections and collection references within one
// transaction.
type Gateway interface {
	NextCollectionID(ctx context.Context) (int64, error)
	LoadCollection(ctx context.Context, id int64, status domain.Status) (*Collection, error)
	CollectionExists(ctx context.Context, id int64, status domain.Status) (bool, error)
	InsertCollection(ctx context.Context, collection *Collection) error
	DeleteCollection(ctx context.Context, id int64, status domain.Status) error

	LoadReference(ctx context.Context, block BlockRef, identifier string) (*Reference, error)
	// LoadReferences returns the references of every listed block row ordered
	// by block id then identifier.
	LoadReferences(ctx context.Context, blockIDs []int64, status domain.Status) ([]*Reference, error)
	InsertReference(ctx context.Context, reference *Reference) error
	DeleteReferences(ctx context.Context, blockIDs []int64, status domain.Status) error
	CountCollectionReferences(ctx context.Context, collectionID int64, status domain.Status) (int, error)
}
