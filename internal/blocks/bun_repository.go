package blocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/persistence"
	"github.com/goliatone/go-layouts/internal/position"
	"github.com/goliatone/go-layouts/internal/translation"
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

func (g *BunGateway) CountSiblings(ctx context.Context, scope position.Scope) (int, error) {
	count, err := g.db.NewSelect().
		Model((*Block)(nil)).
		Where("?TableAlias.parent_id = ?", scope.ParentID).
		Where("?TableAlias.placeholder = ?", scope.Placeholder).
		Where("?TableAlias.status = ?", scope.Status).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("blocks: count siblings of %d: %w", scope.ParentID, err)
	}
	return count, nil
}

func (g *BunGateway) ShiftPositions(ctx context.Context, scope position.Scope, from int, to *int, delta int) error {
	query := g.db.NewUpdate().
		Model((*Block)(nil)).
		Set("position = position + ?", delta).
		Where("parent_id = ?", scope.ParentID).
		Where("placeholder = ?", scope.Placeholder).
		Where("status = ?", scope.Status).
		Where("position >= ?", from)
	if to != nil {
		query = query.Where("position <= ?", *to)
	}
	if _, err := query.Exec(ctx); err != nil {
		return fmt.Errorf("blocks: shift positions of %d: %w", scope.ParentID, err)
	}
	return nil
}

func (g *BunGateway) NextBlockID(ctx context.Context) (int64, error) {
	return persistence.NextSequenceValue(ctx, g.db, persistence.SequenceBlocks)
}

func (g *BunGateway) LoadBlock(ctx context.Context, id int64, status domain.Status) (*Block, error) {
	record := &Block{}
	err := g.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.status = ?", status).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewNotFound("block", id)
	}
	if err != nil {
		return nil, fmt.Errorf("blocks: load %d: %w", id, err)
	}
	if err := g.attachTranslations(ctx, []*Block{record}, status); err != nil {
		return nil, err
	}
	return record, nil
}

func (g *BunGateway) LoadBlocks(ctx context.Context, ids []int64, status domain.Status) ([]*Block, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var records []*Block
	err := g.db.NewSelect().
		Model(&records).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Where("?TableAlias.status = ?", status).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("blocks: load blocks: %w", err)
	}
	if err := g.attachTranslations(ctx, records, status); err != nil {
		return nil, err
	}
	byID := make(map[int64]*Block, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}
	out := make([]*Block, 0, len(records))
	for _, id := range ids {
		if record, ok := byID[id]; ok {
			out = append(out, record)
			delete(byID, id)
		}
	}
	return out, nil
}

func (g *BunGateway) LoadLayoutBlocks(ctx context.Context, layoutID int64, status domain.Status) ([]*Block, error) {
	return g.loadOrdered(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.layout_id = ?", layoutID)
	}, status)
}

func (g *BunGateway) LoadChildBlocks(ctx context.Context, parentID int64, placeholder *string, status domain.Status) ([]*Block, error) {
	return g.loadOrdered(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("?TableAlias.parent_id = ?", parentID)
		if placeholder != nil {
			q = q.Where("?TableAlias.placeholder = ?", *placeholder)
		}
		return q
	}, status)
}

func (g *BunGateway) LoadSubtree(ctx context.Context, path string, status domain.Status) ([]*Block, error) {
	return g.loadOrdered(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.path LIKE ?", path+"%")
	}, status)
}

func (g *BunGateway) loadOrdered(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery, status domain.Status) ([]*Block, error) {
	var records []*Block
	query := g.db.NewSelect().
		Model(&records).
		Where("?TableAlias.status = ?", status)
	query = filter(query)
	err := query.
		OrderExpr("?TableAlias.depth ASC, ?TableAlias.placeholder ASC, ?TableAlias.position ASC, ?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("blocks: load: %w", err)
	}
	if err := g.attachTranslations(ctx, records, status); err != nil {
		return nil, err
	}
	return records, nil
}

func (g *BunGateway) BlockExists(ctx context.Context, id int64, status domain.Status) (bool, error) {
	return g.db.NewSelect().
		Model((*Block)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.status = ?", status).
		Exists(ctx)
}

func (g *BunGateway) InsertBlock(ctx context.Context, block *Block) error {
	if _, err := g.db.NewInsert().Model(block).Exec(ctx); err != nil {
		return fmt.Errorf("blocks: insert %d: %w", block.ID, err)
	}
	return g.insertTranslations(ctx, block)
}

func (g *BunGateway) UpdateBlock(ctx context.Context, block *Block) error {
	if _, err := g.db.NewUpdate().Model(block).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("blocks: update %d: %w", block.ID, err)
	}
	return nil
}

func (g *BunGateway) SaveTranslations(ctx context.Context, block *Block) error {
	_, err := g.db.NewDelete().
		Model((*Translation)(nil)).
		Where("block_id = ?", block.ID).
		Where("block_status = ?", block.Status).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("blocks: clear translations of %d: %w", block.ID, err)
	}
	return g.insertTranslations(ctx, block)
}

func (g *BunGateway) insertTranslations(ctx context.Context, block *Block) error {
	rows := make([]*Translation, 0, len(block.AvailableLocales))
	for _, locale := range block.AvailableLocales {
		params := block.Parameters[locale]
		if params == nil {
			params = translation.Parameters{}
		}
		rows = append(rows, &Translation{
			BlockID:     block.ID,
			BlockStatus: block.Status,
			Locale:      locale,
			Parameters:  params,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := g.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("blocks: insert translations of %d: %w", block.ID, err)
	}
	return nil
}

func (g *BunGateway) DeleteBlocks(ctx context.Context, ids []int64, status domain.Status) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := g.db.NewDelete().
		Model((*Translation)(nil)).
		Where("block_id IN (?)", bun.In(ids)).
		Where("block_status = ?", status).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("blocks: delete translations: %w", err)
	}
	_, err = g.db.NewDelete().
		Model((*Block)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Where("status = ?", status).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("blocks: delete: %w", err)
	}
	return nil
}

func (g *BunGateway) LoadLayoutBlockIDs(ctx context.Context, layoutID int64, status domain.Status) ([]int64, error) {
	var ids []int64
	err := g.db.NewSelect().
		Model((*Block)(nil)).
		Column("id").
		Where("?TableAlias.layout_id = ?", layoutID).
		Where("?TableAlias.status = ?", status).
		OrderExpr("?TableAlias.depth ASC, ?TableAlias.id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("blocks: load layout block ids: %w", err)
	}
	return ids, nil
}

func (g *BunGateway) attachTranslations(ctx context.Context, records []*Block, status domain.Status) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	var rows []*Translation
	err := g.db.NewSelect().
		Model(&rows).
		Where("?TableAlias.block_id IN (?)", bun.In(ids)).
		Where("?TableAlias.block_status = ?", status).
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("blocks: load translations: %w", err)
	}

	byBlock := make(map[int64][]*Translation, len(records))
	for _, row := range rows {
		byBlock[row.BlockID] = append(byBlock[row.BlockID], row)
	}
	for _, record := range records {
		record.Parameters = make(map[string]translation.Parameters)
		record.AvailableLocales = record.AvailableLocales[:0]
		for _, row := range byBlock[record.ID] {
			params := translation.Parameters(row.Parameters)
			if params == nil {
				params = translation.Parameters{}
			}
			record.Parameters[row.Locale] = params
			record.AvailableLocales = append(record.AvailableLocales, row.Locale)
		}
		sort.Strings(record.AvailableLocales)
	}
	return nil
}
