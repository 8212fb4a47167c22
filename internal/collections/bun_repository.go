package collections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/persistence"
)

// BunGateway implements Gateway on top of a bun connection or transaction.
type BunGateway struct {
	db bun.IDB
}

// NewBunGateway binds a gateway to db, usually a bun.Tx.
func NewBunGateway(db bun.IDB) *BunGateway {
	return &BunGateway{db: db}
}

var _ Gateway = (*BunGateway)(nil)

func (g *BunGateway) NextCollectionID(ctx context.Context) (int64, error) {
	return persistence.NextSequenceValue(ctx, g.db, persistence.SequenceCollections)
}

func (g *BunGateway) LoadCollection(ctx context.Context, id int64, status domain.Status) (*Collection, error) {
	record := &Collection{}
	err := g.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.status = ?", status).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewNotFound("collection", id)
	}
	if err != nil {
		return nil, fmt.Errorf("collections: load %d: %w", id, err)
	}
	return record, nil
}

func (g *BunGateway) CollectionExists(ctx context.Context, id int64, status domain.Status) (bool, error) {
	return g.db.NewSelect().
		Model((*Collection)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.status = ?", status).
		Exists(ctx)
}

func (g *BunGateway) InsertCollection(ctx context.Context, collection *Collection) error {
	if _, err := g.db.NewInsert().Model(collection).Exec(ctx); err != nil {
		return fmt.Errorf("collections: insert %d: %w", collection.ID, err)
	}
	return nil
}

func (g *BunGateway) DeleteCollection(ctx context.Context, id int64, status domain.Status) error {
	_, err := g.db.NewDelete().
		Model((*Collection)(nil)).
		Where("id = ?", id).
		Where("status = ?", status).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("collections: delete %d: %w", id, err)
	}
	return nil
}

func (g *BunGateway) LoadReference(ctx context.Context, block BlockRef, identifier string) (*Reference, error) {
	record := &Reference{}
	err := g.db.NewSelect().
		Model(record).
		Where("?TableAlias.block_id = ?", block.ID).
		Where("?TableAlias.block_status = ?", block.Status).
		Where("?TableAlias.identifier = ?", identifier).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewNotFound("collectionReference", identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("collections: load reference %q: %w", identifier, err)
	}
	return record, nil
}

func (g *BunGateway) LoadReferences(ctx context.Context, blockIDs []int64, status domain.Status) ([]*Reference, error) {
	if len(blockIDs) == 0 {
		return nil, nil
	}
	var records []*Reference
	err := g.db.NewSelect().
		Model(&records).
		Where("?TableAlias.block_id IN (?)", bun.In(blockIDs)).
		Where("?TableAlias.block_status = ?", status).
		OrderExpr("?TableAlias.block_id ASC, ?TableAlias.identifier ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("collections: load references: %w", err)
	}
	return records, nil
}

func (g *BunGateway) InsertReference(ctx context.Context, reference *Reference) error {
	if _, err := g.db.NewInsert().Model(reference).Exec(ctx); err != nil {
		return fmt.Errorf("collections: insert reference %q: %w", reference.Identifier, err)
	}
	return nil
}

func (g *BunGateway) DeleteReferences(ctx context.Context, blockIDs []int64, status domain.Status) error {
	if len(blockIDs) == 0 {
		return nil
	}
	_, err := g.db.NewDelete().
		Model((*Reference)(nil)).
		Where("block_id IN (?)", bun.In(blockIDs)).
		Where("block_status = ?", status).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("collections: delete references: %w", err)
	}
	return nil
}

func (g *BunGateway) CountCollectionReferences(ctx context.Context, collectionID int64, status domain.Status) (int, error) {
	count, err := g.db.NewSelect().
		Model((*Reference)(nil)).
		Where("?TableAlias.collection_id = ?", collectionID).
		Where("?TableAlias.collection_status = ?", status).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("collections: count references: %w", err)
	}
	return count, nil
}
