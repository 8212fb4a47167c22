package blocks

import (
	"context"

	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/position"
)

// Gateway persists block rows and their translations within one transaction.
// Loaded blocks carry their parameters and available locales.
type Gateway interface {
	position.Store

	NextBlockID(ctx context.Context) (int64, error)
	LoadBlock(ctx context.Context, id int64, status domain.Status) (*Block, error)
	// LoadBlocks returns the listed blocks in the order of ids, skipping ids
	// without a row in status.
	LoadBlocks(ctx context.Context, ids []int64, status domain.Status) ([]*Block, error)
	// LoadLayoutBlocks returns every block of a layout ordered by depth,
	// placeholder and position.
	LoadLayoutBlocks(ctx context.Context, layoutID int64, status domain.Status) ([]*Block, error)
	// LoadChildBlocks returns the direct children of parentID ordered by
	// placeholder and position. A nil placeholder returns every placeholder.
	LoadChildBlocks(ctx context.Context, parentID int64, placeholder *string, status domain.Status) ([]*Block, error)
	// LoadSubtree returns every block whose path starts with path, including
	// the block owning path, ordered by depth, placeholder and position.
	LoadSubtree(ctx context.Context, path string, status domain.Status) ([]*Block, error)
	BlockExists(ctx context.Context, id int64, status domain.Status) (bool, error)

	// InsertBlock stores the row and one translation row per available locale.
	InsertBlock(ctx context.Context, block *Block) error
	// UpdateBlock rewrites the row. Translations are left untouched.
	UpdateBlock(ctx context.Context, block *Block) error
	// SaveTranslations replaces the translation rows with the block's current
	// parameters.
	SaveTranslations(ctx context.Context, block *Block) error
	// DeleteBlocks removes the rows and translations of ids in status.
	DeleteBlocks(ctx context.Context, ids []int64, status domain.Status) error
	LoadLayoutBlockIDs(ctx context.Context, layoutID int64, status domain.Status) ([]int64, error)
}

// LayoutResolver resolves the layout owning a block. The layout handler
// backs it so block operations can follow the layout locale set.
type LayoutResolver interface {
	ResolveLayout(ctx context.Context, layoutID int64, status domain.Status) (LayoutRef, error)
}

// LayoutResolverFunc adapts a function into a LayoutResolver.
type LayoutResolverFunc func(ctx context.Context, layoutID int64, status domain.Status) (LayoutRef, error)

func (f LayoutResolverFunc) ResolveLayout(ctx context.Context, layoutID int64, status domain.Status) (LayoutRef, error) {
	return f(ctx, layoutID, status)
}
