package layouts

import (
	"slices"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-layouts/internal/blocks"
	"github.com/goliatone/go-layouts/internal/domain"
)

// Layout is one status of a page layout. Its zones are stored separately.
type Layout struct {
	bun.BaseModel `bun:"table:layouts,alias:l"`

	ID               int64         `bun:"id,pk" json:"id"`
	Status           domain.Status `bun:"status,pk" json:"status"`
	UUID             uuid.UUID     `bun:"uuid,notnull,type:uuid" json:"uuid"`
	Type             string        `bun:"type,notnull" json:"type"`
	Name             string        `bun:"name,notnull" json:"name"`
	Description      string        `bun:"description,notnull" json:"description"`
	Shared           bool          `bun:"shared,notnull" json:"shared"`
	Created          int64         `bun:"created,notnull" json:"created"`
	Modified         int64         `bun:"modified,notnull" json:"modified"`
	MainLocale       string        `bun:"main_locale,notnull" json:"main_locale"`
	AvailableLocales []string      `bun:"available_locales,type:jsonb" json:"available_locales"`
}

// Ref returns the layout attributes block operations depend on.
func (l *Layout) Ref() blocks.LayoutRef {
	return blocks.LayoutRef{
		ID:               l.ID,
		UUID:             l.UUID,
		MainLocale:       l.MainLocale,
		AvailableLocales: slices.Clone(l.AvailableLocales),
		Status:           l.Status,
	}
}

// HasLocale reports whether locale is available in the layout.
func (l *Layout) HasLocale(locale string) bool {
	return slices.Contains(l.AvailableLocales, locale)
}

func (l *Layout) Clone() *Layout {
	if l == nil {
		return nil
	}
	out := *l
	out.AvailableLocales = slices.Clone(l.AvailableLocales)
	return &out
}

// Zone is a named region of a layout holding one root block. A zone can
// link to a zone of a shared layout.
type Zone struct {
	bun.BaseModel `bun:"table:zones,alias:z"`

	LayoutID             int64         `bun:"layout_id,pk" json:"layout_id"`
	Status               domain.Status `bun:"status,pk" json:"status"`
	Identifier           string        `bun:"identifier,pk" json:"identifier"`
	LayoutUUID           uuid.UUID     `bun:"layout_uuid,notnull,type:uuid" json:"layout_uuid"`
	RootBlockID          int64         `bun:"root_block_id,notnull" json:"root_block_id"`
	LinkedLayoutUUID     *uuid.UUID    `bun:"linked_layout_uuid,type:uuid" json:"linked_layout_uuid,omitempty"`
	LinkedZoneIdentifier *string       `bun:"linked_zone_identifier" json:"linked_zone_identifier,omitempty"`
}

// HasLinkedZone reports whether the zone is linked to a shared zone.
func (z *Zone) HasLinkedZone() bool {
	return z.LinkedLayoutUUID != nil && z.LinkedZoneIdentifier != nil
}

func (z *Zone) Clone() *Zone {
	if z == nil {
		return nil
	}
	out := *z
	if z.LinkedLayoutUUID != nil {
		linked := *z.LinkedLayoutUUID
		out.LinkedLayoutUUID = &linked
	}
	if z.LinkedZoneIdentifier != nil {
		linked := *z.LinkedZoneIdentifier
		out.LinkedZoneIdentifier = &linked
	}
	return &out
}

// CreateStruct carries the fields of a new layout.
type CreateStruct struct {
	// UUID is generated when nil.
	UUID        *uuid.UUID
	Type        string
	Name        string
	Description string
	Shared      bool
	MainLocale  string
	// Status defaults to draft.
	Status domain.Status
}

// UpdateStruct carries the optional fields of a layout update.
type UpdateStruct struct {
	Name        *string
	Description *string
}

// CopyStruct carries the fields overriding the copied layout.
type CopyStruct struct {
	// Name defaults to the name of the copied layout.
	Name        string
	Description *string
}

// ListQuery filters LoadLayouts. Published layouts are listed, and with
// IncludeDrafts also layouts that were never published.
type ListQuery struct {
	IncludeDrafts bool
	Shared        bool
	Offset        int
	Limit         *int
}

// ZoneMappings maps a zone of the new layout type to the zones of the
// current layout whose blocks it receives.
type ZoneMappings map[string][]string
