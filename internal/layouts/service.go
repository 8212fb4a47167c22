package layouts

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-layouts/internal/blocks"
	"github.com/goliatone/go-layouts/internal/definitions"
	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/identity"
	"github.com/goliatone/go-layouts/internal/logging"
	"github.com/goliatone/go-layouts/internal/persistence"
	"github.com/goliatone/go-layouts/internal/translation"
	"github.com/goliatone/go-layouts/pkg/interfaces"
)

// HandlerOption configures the layout handler.
type HandlerOption func(*Handler)

// WithRegistry sets the registry holding the layout types.
func WithRegistry(registry *definitions.Registry) HandlerOption {
	return func(h *Handler) {
		if registry != nil {
			h.registry = registry
		}
	}
}

// WithIDGenerator overrides the uuid generator.
func WithIDGenerator(generator identity.Generator) HandlerOption {
	return func(h *Handler) {
		if generator != nil {
			h.ids = generator
		}
	}
}

// WithLogger overrides the handler logger.
func WithLogger(logger interfaces.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithNow overrides the clock used for created and modified timestamps.
func WithNow(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// Handler implements layout and zone operations. Block trees are delegated
// to the block handler bound to the same transaction.
type Handler struct {
	gateway  Gateway
	blocks   *blocks.Handler
	registry *definitions.Registry
	ids      identity.Generator
	logger   interfaces.Logger
	now      func() time.Time
}

// NewHandler constructs a layout handler.
func NewHandler(gateway Gateway, blockHandler *blocks.Handler, opts ...HandlerOption) *Handler {
	h := &Handler{
		gateway:  gateway,
		blocks:   blockHandler,
		registry: definitions.NewRegistry(),
		ids:      identity.NewGenerator(),
		logger:   logging.NoOp(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Resolver exposes the layouts stored behind gateway to block operations.
func Resolver(gateway Gateway) blocks.LayoutResolver {
	return blocks.LayoutResolverFunc(func(ctx context.Context, layoutID int64, status domain.Status) (blocks.LayoutRef, error) {
		layout, err := gateway.LoadLayout(ctx, layoutID, status)
		if err != nil {
			return blocks.LayoutRef{}, err
		}
		return layout.Ref(), nil
	})
}

func (h *Handler) LoadLayout(ctx context.Context, id int64, status domain.Status) (*Layout, error) {
	return h.gateway.LoadLayout(ctx, id, status)
}

func (h *Handler) LoadLayouts(ctx context.Context, query ListQuery) ([]*Layout, error) {
	if query.Offset < 0 {
		return nil, persistence.NewBadState("offset", "Offset cannot be negative.")
	}
	if query.Limit != nil && *query.Limit < 1 {
		return nil, persistence.NewBadState("limit", "Limit must be a positive number.")
	}
	return h.gateway.LoadLayouts(ctx, query)
}

// LoadRelatedLayouts returns the published layouts with a zone linked to
// the shared layout.
func (h *Handler) LoadRelatedLayouts(ctx context.Context, shared *Layout) ([]*Layout, error) {
	if !shared.Shared {
		return nil, persistence.NewBadState("sharedLayout", "Related layouts can only be loaded for shared layouts.")
	}
	return h.gateway.LoadRelatedLayouts(ctx, shared.UUID, domain.StatusPublished)
}

func (h *Handler) LoadLayoutsOfType(ctx context.Context, layoutType string, status domain.Status) ([]*Layout, error) {
	return h.gateway.LoadLayoutsOfType(ctx, definitions.Normalize(layoutType), status)
}

func (h *Handler) LayoutExists(ctx context.Context, id int64, status domain.Status) (bool, error) {
	return h.gateway.LayoutExists(ctx, id, status)
}

func (h *Handler) LayoutNameExists(ctx context.Context, name string, excludeID *int64) (bool, error) {
	return h.gateway.LayoutNameExists(ctx, name, excludeID)
}

func (h *Handler) LoadZone(ctx context.Context, layout *Layout, identifier string) (*Zone, error) {
	return h.gateway.LoadZone(ctx, layout.ID, layout.Status, identifier)
}

func (h *Handler) LoadZones(ctx context.Context, layout *Layout) ([]*Zone, error) {
	return h.gateway.LoadZones(ctx, layout.ID, layout.Status)
}

// LoadZoneBlocks returns the root block of zone followed by its subtree.
func (h *Handler) LoadZoneBlocks(ctx context.Context, zone *Zone) ([]*blocks.Block, error) {
	return h.blocks.LoadZoneBlocks(ctx, zone.RootBlockID, zone.Status)
}

// CreateLayout creates a layout with one empty zone per zone of its layout
// type. The main locale is the only available locale.
func (h *Handler) CreateLayout(ctx context.Context, input CreateStruct) (*Layout, error) {
	mainLocale := translation.NormalizeLocale(input.MainLocale)
	if mainLocale == "" {
		return nil, persistence.NewBadState("mainLocale", "Main locale is required.")
	}
	layoutType, err := h.registry.LayoutType(input.Type)
	if err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = domain.StatusDraft
	}
	if !status.Valid() {
		return nil, persistence.NewBadState("status", "Status is not valid.")
	}

	id, err := h.gateway.NextLayoutID(ctx)
	if err != nil {
		return nil, err
	}
	layoutUUID := h.ids.New()
	if input.UUID != nil {
		layoutUUID = *input.UUID
	}
	now := h.now().Unix()
	layout := &Layout{
		ID:               id,
		Status:           status,
		UUID:             layoutUUID,
		Type:             layoutType.Identifier,
		Name:             strings.TrimSpace(input.Name),
		Description:      strings.TrimSpace(input.Description),
		Shared:           input.Shared,
		Created:          now,
		Modified:         now,
		MainLocale:       mainLocale,
		AvailableLocales: []string{mainLocale},
	}
	if err := h.gateway.InsertLayout(ctx, layout); err != nil {
		return nil, err
	}
	for _, identifier := range layoutType.Zones {
		if _, err := h.CreateZone(ctx, layout, identifier, nil); err != nil {
			return nil, err
		}
	}

	h.logger.Debug("layouts.created", logging.FieldLayoutID, layout.ID, "type", layout.Type, logging.FieldStatus, layout.Status)
	return layout, nil
}

// UpdateLayout updates the name and description of layout.
func (h *Handler) UpdateLayout(ctx context.Context, layout *Layout, input UpdateStruct) (*Layout, error) {
	if input.Name != nil {
		layout.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		layout.Description = strings.TrimSpace(*input.Description)
	}
	layout.Modified = h.now().Unix()
	if err := h.gateway.UpdateLayout(ctx, layout); err != nil {
		return nil, err
	}
	return layout, nil
}

// CreateZone adds a zone with a fresh root block to layout, optionally
// linked to a zone of a shared layout.
func (h *Handler) CreateZone(ctx context.Context, layout *Layout, identifier string, linked *Zone) (*Zone, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, persistence.NewBadState("identifier", "Zone identifier is required.")
	}
	exists, err := h.gateway.ZoneExists(ctx, layout.ID, layout.Status, identifier)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, persistence.NewBadState("identifier", "Zone with provided identifier already exists in the layout.")
	}

	root, err := h.blocks.CreateBlock(ctx, blocks.CreateStruct{}, layout.Ref(), nil, "")
	if err != nil {
		return nil, err
	}
	zone := &Zone{
		LayoutID:    layout.ID,
		Status:      layout.Status,
		Identifier:  identifier,
		LayoutUUID:  layout.UUID,
		RootBlockID: root.ID,
	}
	if linked != nil {
		if err := h.link(ctx, layout, zone, linked); err != nil {
			return nil, err
		}
	}
	if err := h.gateway.InsertZone(ctx, zone); err != nil {
		return nil, err
	}
	return zone, nil
}

// UpdateZone links zone to linked, or removes the link when linked is nil.
func (h *Handler) UpdateZone(ctx context.Context, zone *Zone, linked *Zone) (*Zone, error) {
	if linked == nil {
		zone.LinkedLayoutUUID, zone.LinkedZoneIdentifier = nil, nil
	} else {
		layout, err := h.gateway.LoadLayout(ctx, zone.LayoutID, zone.Status)
		if err != nil {
			return nil, err
		}
		if err := h.link(ctx, layout, zone, linked); err != nil {
			return nil, err
		}
	}
	if err := h.gateway.UpdateZone(ctx, zone); err != nil {
		return nil, err
	}
	return zone, nil
}

func (h *Handler) link(ctx context.Context, layout *Layout, zone *Zone, linked *Zone) error {
	if layout.Shared {
		return persistence.NewBadState("zone", "Zones of shared layouts cannot be linked.")
	}
	if linked.LayoutID == zone.LayoutID {
		return persistence.NewBadState("linkedZone", "Zone cannot be linked to a zone of the same layout.")
	}
	owner, err := h.gateway.LoadLayout(ctx, linked.LayoutID, linked.Status)
	if err != nil {
		return err
	}
	if !owner.Shared {
		return persistence.NewBadState("linkedZone", "Linked zone is not in a shared layout.")
	}
	linkedUUID := owner.UUID
	linkedIdentifier := linked.Identifier
	zone.LinkedLayoutUUID = &linkedUUID
	zone.LinkedZoneIdentifier = &linkedIdentifier
	return nil
}

// CreateLayoutTranslation adds locale to layout and to every translatable
// block, copied from sourceLocale or from the block main locale when the
// block lacks sourceLocale.
func (h *Handler) CreateLayoutTranslation(ctx context.Context, layout *Layout, locale, sourceLocale string) (*Layout, error) {
	locale = translation.NormalizeLocale(locale)
	sourceLocale = translation.NormalizeLocale(sourceLocale)
	if layout.HasLocale(locale) {
		return nil, persistence.NewBadState("locale", "Layout already has the provided locale.")
	}
	if !layout.HasLocale(sourceLocale) {
		return nil, persistence.NewBadState("sourceLocale", "Layout does not have the provided source locale.")
	}

	records, err := h.blocks.LoadLayoutBlocks(ctx, layout.Ref())
	if err != nil {
		return nil, err
	}
	for _, block := range records {
		if !block.IsTranslatable || slices.Contains(block.AvailableLocales, locale) {
			continue
		}
		source := sourceLocale
		if !slices.Contains(block.AvailableLocales, source) {
			source = block.MainLocale
		}
		if _, err := h.blocks.CreateBlockTranslation(ctx, block, locale, source); err != nil {
			return nil, err
		}
	}

	layout.AvailableLocales = translation.SortLocales(append(layout.AvailableLocales, locale))
	layout.Modified = h.now().Unix()
	if err := h.gateway.UpdateLayout(ctx, layout); err != nil {
		return nil, err
	}
	return layout, nil
}

// SetMainTranslation makes locale the main locale of layout and of every
// block of the layout.
func (h *Handler) SetMainTranslation(ctx context.Context, layout *Layout, locale string) (*Layout, error) {
	locale = translation.NormalizeLocale(locale)
	if !layout.HasLocale(locale) {
		return nil, persistence.NewBadState("mainLocale", "Layout does not have the provided locale.")
	}
	records, err := h.blocks.LoadLayoutBlocks(ctx, layout.Ref())
	if err != nil {
		return nil, err
	}
	for _, block := range records {
		if _, err := h.blocks.AlignMainLocale(ctx, block, locale); err != nil {
			return nil, err
		}
	}
	layout.MainLocale = locale
	layout.Modified = h.now().Unix()
	if err := h.gateway.UpdateLayout(ctx, layout); err != nil {
		return nil, err
	}
	return layout, nil
}

// DeleteLayoutTranslation removes a non-main locale from layout and from
// every block of the layout.
func (h *Handler) DeleteLayoutTranslation(ctx context.Context, layout *Layout, locale string) (*Layout, error) {
	locale = translation.NormalizeLocale(locale)
	if !layout.HasLocale(locale) {
		return nil, persistence.NewBadState("locale", "Layout does not have the provided locale.")
	}
	if locale == layout.MainLocale {
		return nil, persistence.NewBadState("locale", "Main translation cannot be removed from the layout.")
	}
	records, err := h.blocks.LoadLayoutBlocks(ctx, layout.Ref())
	if err != nil {
		return nil, err
	}
	for _, block := range records {
		if !slices.Contains(block.AvailableLocales, locale) {
			continue
		}
		if _, err := h.blocks.DeleteBlockTranslation(ctx, block, locale); err != nil {
			return nil, err
		}
	}
	layout.AvailableLocales = slices.DeleteFunc(layout.AvailableLocales, func(value string) bool { return value == locale })
	layout.Modified = h.now().Unix()
	if err := h.gateway.UpdateLayout(ctx, layout); err != nil {
		return nil, err
	}
	return layout, nil
}

// CopyLayout copies layout with its zones and block trees. Every uuid of the
// copy derives from one copy operation.
func (h *Handler) CopyLayout(ctx context.Context, layout *Layout, input CopyStruct) (*Layout, error) {
	operation := h.ids.New()
	id, err := h.gateway.NextLayoutID(ctx)
	if err != nil {
		return nil, err
	}
	now := h.now().Unix()
	copied := layout.Clone()
	copied.ID = id
	copied.UUID = h.ids.Derive(operation, layout.UUID)
	if name := strings.TrimSpace(input.Name); name != "" {
		copied.Name = name
	}
	if input.Description != nil {
		copied.Description = strings.TrimSpace(*input.Description)
	}
	copied.Created, copied.Modified = now, now
	if err := h.gateway.InsertLayout(ctx, copied); err != nil {
		return nil, err
	}

	zones, err := h.gateway.LoadZones(ctx, layout.ID, layout.Status)
	if err != nil {
		return nil, err
	}
	ref := copied.Ref()
	for _, zone := range zones {
		root, err := h.blocks.LoadBlock(ctx, zone.RootBlockID, zone.Status)
		if err != nil {
			return nil, err
		}
		copiedRoot, err := h.blocks.CopyZoneTree(ctx, root, ref, operation)
		if err != nil {
			return nil, err
		}
		copiedZone := zone.Clone()
		copiedZone.LayoutID = copied.ID
		copiedZone.LayoutUUID = copied.UUID
		copiedZone.RootBlockID = copiedRoot.ID
		if err := h.gateway.InsertZone(ctx, copiedZone); err != nil {
			return nil, err
		}
	}

	h.logger.Debug("layouts.copied", logging.FieldLayoutID, layout.ID, "copy_id", copied.ID)
	return copied, nil
}

// ChangeLayoutType switches layout to another layout type. Each zone of the
// new type receives the blocks of the zones mapped to it and starts empty
// otherwise. Zones of the old type are deleted with their remaining blocks.
// With preserveSharedZones a new zone mapped to exactly one linked zone
// keeps the link.
func (h *Handler) ChangeLayoutType(ctx context.Context, layout *Layout, newType string, mappings ZoneMappings, preserveSharedZones bool) (*Layout, error) {
	target, err := h.registry.LayoutType(newType)
	if err != nil {
		return nil, err
	}
	zones, err := h.gateway.LoadZones(ctx, layout.ID, layout.Status)
	if err != nil {
		return nil, err
	}
	current := make(map[string]*Zone, len(zones))
	for _, zone := range zones {
		current[zone.Identifier] = zone
	}

	seen := map[string]struct{}{}
	for newZone, oldZones := range mappings {
		if !target.HasZone(newZone) {
			return nil, persistence.NewBadState("zoneMappings", fmt.Sprintf("Zone %q does not exist in the layout type.", newZone))
		}
		for _, oldZone := range oldZones {
			if _, ok := current[oldZone]; !ok {
				return nil, persistence.NewBadState("zoneMappings", fmt.Sprintf("Zone %q does not exist in the layout.", oldZone))
			}
			if _, dup := seen[oldZone]; dup {
				return nil, persistence.NewBadState("zoneMappings", fmt.Sprintf("Zone %q is mapped more than once.", oldZone))
			}
			seen[oldZone] = struct{}{}
		}
	}

	ref := layout.Ref()
	placeholder := blocks.RootPlaceholder
	created := make([]*Zone, 0, len(target.Zones))
	for _, identifier := range target.Zones {
		root, err := h.blocks.CreateBlock(ctx, blocks.CreateStruct{}, ref, nil, "")
		if err != nil {
			return nil, err
		}
		zone := &Zone{
			LayoutID:    layout.ID,
			Status:      layout.Status,
			Identifier:  identifier,
			LayoutUUID:  layout.UUID,
			RootBlockID: root.ID,
		}
		sources := mappings[identifier]
		if preserveSharedZones && len(sources) == 1 && current[sources[0]].HasLinkedZone() {
			old := current[sources[0]].Clone()
			zone.LinkedLayoutUUID = old.LinkedLayoutUUID
			zone.LinkedZoneIdentifier = old.LinkedZoneIdentifier
		}

		for _, source := range sources {
			oldRoot, err := h.blocks.LoadBlock(ctx, current[source].RootBlockID, layout.Status)
			if err != nil {
				return nil, err
			}
			children, err := h.blocks.LoadChildBlocks(ctx, oldRoot, &placeholder)
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				// reload, each move closes the gap in the old zone
				fresh, err := h.blocks.LoadBlock(ctx, child.ID, child.Status)
				if err != nil {
					return nil, err
				}
				if _, err := h.blocks.MoveBlock(ctx, fresh, root, placeholder, nil); err != nil {
					return nil, err
				}
			}
		}
		created = append(created, zone)
	}

	for _, zone := range zones {
		oldRoot, err := h.blocks.LoadBlock(ctx, zone.RootBlockID, zone.Status)
		if persistence.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := h.blocks.DeleteZoneTree(ctx, oldRoot); err != nil {
			return nil, err
		}
	}
	if err := h.gateway.DeleteZones(ctx, layout.ID, layout.Status); err != nil {
		return nil, err
	}
	for _, zone := range created {
		if err := h.gateway.InsertZone(ctx, zone); err != nil {
			return nil, err
		}
	}

	layout.Type = target.Identifier
	layout.Modified = h.now().Unix()
	if err := h.gateway.UpdateLayout(ctx, layout); err != nil {
		return nil, err
	}
	h.logger.Debug("layouts.type_changed", logging.FieldLayoutID, layout.ID, "type", layout.Type)
	return layout, nil
}

// CreateLayoutStatus copies layout, its zones, blocks and collection
// references into newStatus.
func (h *Handler) CreateLayoutStatus(ctx context.Context, layout *Layout, newStatus domain.Status) (*Layout, error) {
	if !newStatus.Valid() {
		return nil, persistence.NewBadState("status", "Status is not valid.")
	}
	exists, err := h.gateway.LayoutExists(ctx, layout.ID, newStatus)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, persistence.NewBadState("status", "Layout already exists in provided status.")
	}

	copied := layout.Clone()
	copied.Status = newStatus
	if err := h.gateway.InsertLayout(ctx, copied); err != nil {
		return nil, err
	}
	zones, err := h.gateway.LoadZones(ctx, layout.ID, layout.Status)
	if err != nil {
		return nil, err
	}
	for _, zone := range zones {
		copiedZone := zone.Clone()
		copiedZone.Status = newStatus
		if err := h.gateway.InsertZone(ctx, copiedZone); err != nil {
			return nil, err
		}
	}
	records, err := h.blocks.LoadLayoutBlocks(ctx, layout.Ref())
	if err != nil {
		return nil, err
	}
	for _, block := range records {
		if _, err := h.blocks.CreateBlockStatus(ctx, block, newStatus); err != nil {
			return nil, err
		}
	}

	h.logger.Debug("layouts.status_created", logging.FieldLayoutID, layout.ID, "from_status", layout.Status, logging.FieldStatus, newStatus)
	return copied, nil
}

// DeleteLayout deletes a layout with its zones, blocks and owned
// collections. A nil status covers every status.
func (h *Handler) DeleteLayout(ctx context.Context, id int64, status *domain.Status) error {
	for _, current := range domain.StatusesOrAll(status) {
		if err := h.blocks.DeleteLayoutBlocks(ctx, id, &current); err != nil {
			return err
		}
		if err := h.gateway.DeleteZones(ctx, id, current); err != nil {
			return err
		}
		if err := h.gateway.DeleteLayout(ctx, id, current); err != nil {
			return err
		}
	}
	h.logger.Debug("layouts.deleted", logging.FieldLayoutID, id)
	return nil
}
