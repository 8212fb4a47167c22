package persistence

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Sequence names used to allocate entity ids. Rows of every status share one
// id, so ids come from a counter table instead of auto increment columns.
const (
	SequenceBlocks      = "blocks"
	SequenceLayouts     = "layouts"
	SequenceCollections = "collections"
)

type sequenceRow struct {
	bun.BaseModel `bun:"table:sequences,alias:seq"`

	Name  string `bun:"name,pk"`
	Value int64  `bun:"value,notnull"`
}

// NextSequenceValue increments the named counter and returns its new value.
// It must run inside the caller's transaction.
func NextSequenceValue(ctx context.Context, db bun.IDB, name string) (int64, error) {
	res, err := db.NewUpdate().
		Model((*sequenceRow)(nil)).
		Set("value = value + 1").
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("sequence %s: increment: %w", name, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		if _, err := db.NewInsert().Model(&sequenceRow{Name: name, Value: 1}).Exec(ctx); err != nil {
			return 0, fmt.Errorf("sequence %s: init: %w", name, err)
		}
		return 1, nil
	}

	var value int64
	if err := db.NewSelect().
		Model((*sequenceRow)(nil)).
		Column("value").
		Where("name = ?", name).
		Scan(ctx, &value); err != nil {
		return 0, fmt.Errorf("sequence %s: read: %w", name, err)
	}
	return value, nil
}

// Counter allocates ids for in-memory stores.
type Counter struct {
	last int64
}

// Next returns the next id.
func (c *Counter) Next() int64 {
	c.last++
	return c.last
}

// Observe moves the counter past id so explicit ids never collide.
func (c *Counter) Observe(id int64) {
	if id > c.last {
		c.last = id
	}
}
