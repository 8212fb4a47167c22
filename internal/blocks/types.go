package blocks

import (
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-layouts/internal/collections"
	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/position"
	"github.com/goliatone/go-layouts/internal/translation"
)

// RootPlaceholder is the placeholder holding the children of a zone root block.
const RootPlaceholder = "root"

// Block is one node of a zone tree in one status.
type Block struct {
	bun.BaseModel `bun:"table:blocks,alias:b"`

	ID                   int64                     `bun:"id,pk" json:"id"`
	Status               domain.Status             `bun:"status,pk" json:"status"`
	UUID                 uuid.UUID                 `bun:"uuid,notnull,type:uuid" json:"uuid"`
	LayoutID             int64                     `bun:"layout_id,notnull" json:"layout_id"`
	LayoutUUID           uuid.UUID                 `bun:"layout_uuid,notnull,type:uuid" json:"layout_uuid"`
	Depth                int                       `bun:"depth,notnull" json:"depth"`
	Path                 string                    `bun:"path,notnull" json:"path"`
	ParentID             *int64                    `bun:"parent_id" json:"parent_id,omitempty"`
	ParentUUID           *uuid.UUID                `bun:"parent_uuid,type:uuid" json:"parent_uuid,omitempty"`
	Placeholder          *string                   `bun:"placeholder" json:"placeholder,omitempty"`
	Position             *int                      `bun:"position" json:"position,omitempty"`
	DefinitionIdentifier string                    `bun:"definition_identifier,notnull" json:"definition_identifier"`
	Config               map[string]map[string]any `bun:"config,type:jsonb" json:"config,omitempty"`
	ViewType             string                    `bun:"view_type,notnull" json:"view_type"`
	ItemViewType         string                    `bun:"item_view_type,notnull" json:"item_view_type"`
	Name                 string                    `bun:"name,notnull" json:"name"`
	IsTranslatable       bool                      `bun:"is_translatable,notnull" json:"is_translatable"`
	MainLocale           string                    `bun:"main_locale,notnull" json:"main_locale"`
	AlwaysAvailable      bool                      `bun:"always_available,notnull" json:"always_available"`

	// Parameters and AvailableLocales are stored as translation rows.
	Parameters       map[string]translation.Parameters `bun:"-" json:"parameters"`
	AvailableLocales []string                          `bun:"-" json:"available_locales"`
}

// IsRoot reports whether the block is the root of a zone.
func (b *Block) IsRoot() bool {
	return b.ParentID == nil
}

// Ref identifies the block row for the collection linker.
func (b *Block) Ref() collections.BlockRef {
	return collections.BlockRef{ID: b.ID, Status: b.Status}
}

// Scope returns the sibling scope the block is positioned in. Root blocks
// have no scope.
func (b *Block) Scope() (position.Scope, bool) {
	if b.ParentID == nil || b.Placeholder == nil {
		return position.Scope{}, false
	}
	return position.Scope{ParentID: *b.ParentID, Placeholder: *b.Placeholder, Status: b.Status}, true
}

// ChildScope returns the scope of the children of b placed in placeholder.
func (b *Block) ChildScope(placeholder string) position.Scope {
	return position.Scope{ParentID: b.ID, Placeholder: placeholder, Status: b.Status}
}

// Translations returns the translation set of the block.
func (b *Block) Translations() translation.Set {
	set := translation.Set{
		MainLocale:       b.MainLocale,
		AvailableLocales: slices.Clone(b.AvailableLocales),
		Parameters:       make(map[string]translation.Parameters, len(b.Parameters)),
	}
	for locale, params := range b.Parameters {
		set.Parameters[locale] = translation.CloneParameters(params)
	}
	return set
}

// ApplyTranslations replaces the translation state of the block with set.
func (b *Block) ApplyTranslations(set translation.Set) {
	b.MainLocale = set.MainLocale
	b.AvailableLocales = slices.Clone(set.AvailableLocales)
	b.Parameters = make(map[string]translation.Parameters, len(set.Parameters))
	for locale, params := range set.Parameters {
		b.Parameters[locale] = translation.CloneParameters(params)
	}
}

// Clone returns a deep copy safe to mutate.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	out := *b
	if b.ParentID != nil {
		parent := *b.ParentID
		out.ParentID = &parent
	}
	if b.ParentUUID != nil {
		parent := *b.ParentUUID
		out.ParentUUID = &parent
	}
	if b.Placeholder != nil {
		placeholder := *b.Placeholder
		out.Placeholder = &placeholder
	}
	if b.Position != nil {
		pos := *b.Position
		out.Position = &pos
	}
	out.Config = cloneConfig(b.Config)
	out.ApplyTranslations(b.Translations())
	return &out
}

// Translation is the stored parameter map of one block locale.
type Translation struct {
	bun.BaseModel `bun:"table:block_translations,alias:bt"`

	BlockID     int64          `bun:"block_id,pk" json:"block_id"`
	BlockStatus domain.Status  `bun:"block_status,pk" json:"block_status"`
	Locale      string         `bun:"locale,pk" json:"locale"`
	Parameters  map[string]any `bun:"parameters,type:jsonb" json:"parameters"`
}

// LayoutRef carries the layout attributes block operations depend on.
type LayoutRef struct {
	ID               int64
	UUID             uuid.UUID
	MainLocale       string
	AvailableLocales []string
	Status           domain.Status
}

// CreateStruct carries the fields of a new block.
type CreateStruct struct {
	DefinitionIdentifier string
	ViewType             string
	ItemViewType         string
	Name                 string
	// IsTranslatable defaults to the definition setting when nil.
	IsTranslatable  *bool
	AlwaysAvailable bool
	Parameters      translation.Parameters
	Config          map[string]map[string]any
	Position        *int
}

// UpdateStruct carries the optional non translatable fields of a block.
type UpdateStruct struct {
	ViewType        *string
	ItemViewType    *string
	Name            *string
	AlwaysAvailable *bool
	Config          map[string]map[string]any
}

// TranslationUpdateStruct carries the parameter values of one locale.
type TranslationUpdateStruct struct {
	Parameters translation.Parameters
}

func cloneConfig(src map[string]map[string]any) map[string]map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]map[string]any, len(src))
	for key, values := range src {
		out[key] = maps.Clone(values)
	}
	return out
}
