package collections

import (
	"slices"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-layouts/internal/domain"
)

// Collection is an item list owned by a block, or shared between blocks when
// Shared is set. Items and queries live outside the engine; the engine only
// keeps collections in lock-step with the blocks referencing them.
type Collection struct {
	bun.BaseModel `bun:"table:collections,alias:c"`

	ID               int64         `bun:"id,pk" json:"id"`
	Status           domain.Status `bun:"status,pk" json:"status"`
	UUID             uuid.UUID     `bun:"uuid,notnull,type:uuid" json:"uuid"`
	Shared           bool          `bun:"shared,notnull" json:"shared"`
	Offset           int           `bun:"item_offset,notnull" json:"offset"`
	Limit            *int          `bun:"item_limit" json:"limit,omitempty"`
	MainLocale       string        `bun:"main_locale,notnull" json:"main_locale"`
	AvailableLocales []string      `bun:"available_locales,type:jsonb" json:"available_locales"`
}

// Clone returns a copy safe to mutate.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	out := *c
	out.AvailableLocales = slices.Clone(c.AvailableLocales)
	if c.Limit != nil {
		limit := *c.Limit
		out.Limit = &limit
	}
	return &out
}

// Reference links a block row to a collection row under an identifier that
// is unique per block row.
type Reference struct {
	bun.BaseModel `bun:"table:collection_references,alias:cr"`

	BlockID          int64         `bun:"block_id,pk" json:"block_id"`
	BlockStatus      domain.Status `bun:"block_status,pk" json:"block_status"`
	Identifier       string        `bun:"identifier,pk" json:"identifier"`
	CollectionID     int64         `bun:"collection_id,notnull" json:"collection_id"`
	CollectionStatus domain.Status `bun:"collection_status,notnull" json:"collection_status"`
}

// Clone returns a copy safe to mutate.
func (r *Reference) Clone() *Reference {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

// BlockRef identifies the block row a reference belongs to.
type BlockRef struct {
	ID     int64
	Status domain.Status
}

// CreateStruct carries the fields of a new collection.
type CreateStruct struct {
	Shared           bool
	Offset           int
	Limit            *int
	MainLocale       string
	AvailableLocales []string
	Status           domain.Status
}
