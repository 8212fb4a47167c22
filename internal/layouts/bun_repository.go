package layouts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
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

func (g *BunGateway) NextLayoutID(ctx context.Context) (int64, error) {
	return persistence.NextSequenceValue(ctx, g.db, persistence.SequenceLayouts)
}

func (g *BunGateway) LoadLayout(ctx context.Context, id int64, status domain.Status) (*Layout, error) {
	record := &Layout{}
	err := g.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.status = ?", status).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewNotFound("layout", id)
	}
	if err != nil {
		return nil, fmt.Errorf("layouts: load %d: %w", id, err)
	}
	return record, nil
}

func (g *BunGateway) LoadLayouts(ctx context.Context, query ListQuery) ([]*Layout, error) {
	var records []*Layout
	q := g.db.NewSelect().
		Model(&records).
		Where("?TableAlias.shared = ?", query.Shared).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.status = ?", domain.StatusPublished)
			if query.IncludeDrafts {
				published := g.db.NewSelect().
					TableExpr("layouts AS lp").
					ColumnExpr("1").
					Where("lp.id = l.id").
					Where("lp.status = ?", domain.StatusPublished)
				q = q.WhereOr("?TableAlias.status = ? AND NOT EXISTS (?)", domain.StatusDraft, published)
			}
			return q
		}).
		OrderExpr("?TableAlias.name ASC, ?TableAlias.id ASC")
	if query.Limit != nil {
		q = q.Limit(*query.Limit)
	} else if query.Offset > 0 {
		// sqlite rejects OFFSET without LIMIT
		q = q.Limit(math.MaxInt32)
	}
	if query.Offset > 0 {
		q = q.Offset(query.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("layouts: list: %w", err)
	}
	return records, nil
}

func (g *BunGateway) LoadRelatedLayouts(ctx context.Context, sharedUUID uuid.UUID, status domain.Status) ([]*Layout, error) {
	linked := g.db.NewSelect().
		TableExpr("zones AS zl").
		ColumnExpr("1").
		Where("zl.layout_id = l.id").
		Where("zl.status = l.status").
		Where("zl.linked_layout_uuid = ?", sharedUUID)

	var records []*Layout
	err := g.db.NewSelect().
		Model(&records).
		Where("?TableAlias.status = ?", status).
		Where("EXISTS (?)", linked).
		OrderExpr("?TableAlias.name ASC, ?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("layouts: related layouts: %w", err)
	}
	return records, nil
}

func (g *BunGateway) LoadLayoutsOfType(ctx context.Context, layoutType string, status domain.Status) ([]*Layout, error) {
	var records []*Layout
	err := g.db.NewSelect().
		Model(&records).
		Where("?TableAlias.type = ?", layoutType).
		Where("?TableAlias.status = ?", status).
		OrderExpr("?TableAlias.name ASC, ?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("layouts: layouts of type %q: %w", layoutType, err)
	}
	return records, nil
}

func (g *BunGateway) LayoutExists(ctx context.Context, id int64, status domain.Status) (bool, error) {
	return g.db.NewSelect().
		Model((*Layout)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.status = ?", status).
		Exists(ctx)
}

func (g *BunGateway) LayoutNameExists(ctx context.Context, name string, excludeID *int64) (bool, error) {
	q := g.db.NewSelect().
		Model((*Layout)(nil)).
		Where("?TableAlias.name = ?", strings.TrimSpace(name))
	if excludeID != nil {
		q = q.Where("?TableAlias.id != ?", *excludeID)
	}
	return q.Exists(ctx)
}

func (g *BunGateway) InsertLayout(ctx context.Context, layout *Layout) error {
	if _, err := g.db.NewInsert().Model(layout).Exec(ctx); err != nil {
		return fmt.Errorf("layouts: insert %d: %w", layout.ID, err)
	}
	return nil
}

func (g *BunGateway) UpdateLayout(ctx context.Context, layout *Layout) error {
	if _, err := g.db.NewUpdate().Model(layout).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("layouts: update %d: %w", layout.ID, err)
	}
	return nil
}

func (g *BunGateway) DeleteLayout(ctx context.Context, id int64, status domain.Status) error {
	_, err := g.db.NewDelete().
		Model((*Layout)(nil)).
		Where("id = ?", id).
		Where("status = ?", status).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("layouts: delete %d: %w", id, err)
	}
	return nil
}

func (g *BunGateway) LoadZone(ctx context.Context, layoutID int64, status domain.Status, identifier string) (*Zone, error) {
	record := &Zone{}
	err := g.db.NewSelect().
		Model(record).
		Where("?TableAlias.layout_id = ?", layoutID).
		Where("?TableAlias.status = ?", status).
		Where("?TableAlias.identifier = ?", identifier).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewNotFound("zone", identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("layouts: load zone %q: %w", identifier, err)
	}
	return record, nil
}

func (g *BunGateway) LoadZones(ctx context.Context, layoutID int64, status domain.Status) ([]*Zone, error) {
	var records []*Zone
	err := g.db.NewSelect().
		Model(&records).
		Where("?TableAlias.layout_id = ?", layoutID).
		Where("?TableAlias.status = ?", status).
		OrderExpr("?TableAlias.identifier ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("layouts: load zones of %d: %w", layoutID, err)
	}
	return records, nil
}

func (g *BunGateway) ZoneExists(ctx context.Context, layoutID int64, status domain.Status, identifier string) (bool, error) {
	return g.db.NewSelect().
		Model((*Zone)(nil)).
		Where("?TableAlias.layout_id = ?", layoutID).
		Where("?TableAlias.status = ?", status).
		Where("?TableAlias.identifier = ?", identifier).
		Exists(ctx)
}

func (g *BunGateway) InsertZone(ctx context.Context, zone *Zone) error {
	if _, err := g.db.NewInsert().Model(zone).Exec(ctx); err != nil {
		return fmt.Errorf("layouts: insert zone %q: %w", zone.Identifier, err)
	}
	return nil
}

func (g *BunGateway) UpdateZone(ctx context.Context, zone *Zone) error {
	if _, err := g.db.NewUpdate().Model(zone).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("layouts: update zone %q: %w", zone.Identifier, err)
	}
	return nil
}

func (g *BunGateway) DeleteZones(ctx context.Context, layoutID int64, status domain.Status) error {
	_, err := g.db.NewDelete().
		Model((*Zone)(nil)).
		Where("layout_id = ?", layoutID).
		Where("status = ?", status).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("layouts: delete zones of %d: %w", layoutID, err)
	}
	return nil
}
