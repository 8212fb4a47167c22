package blocks

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-layouts/internal/collections"
	"github.com/goliatone/go-layouts/internal/definitions"
	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/identity"
	"github.com/goliatone/go-layouts/internal/logging"
	"github.com/goliatone/go-layouts/internal/persistence"
	"github.com/goliatone/go-layouts/internal/position"
	"github.com/goliatone/go-layouts/internal/translation"
	"github.com/goliatone/go-layouts/pkg/interfaces"
)

// HandlerOption configures the block handler.
type HandlerOption func(*Handler)

// WithRegistry sets the block definition registry.
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

// Handler implements block tree operations. A handler is bound to one
// transaction through its gateway.
type Handler struct {
	gateway   Gateway
	positions *position.Engine
	linker    *collections.Linker
	layouts   LayoutResolver
	registry  *definitions.Registry
	ids       identity.Generator
	logger    interfaces.Logger
}

// NewHandler constructs a block handler.
func NewHandler(gateway Gateway, linker *collections.Linker, layouts LayoutResolver, opts ...HandlerOption) *Handler {
	h := &Handler{
		gateway:   gateway,
		positions: position.NewEngine(gateway),
		linker:    linker,
		layouts:   layouts,
		registry:  definitions.NewRegistry(),
		ids:       identity.NewGenerator(),
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// LoadBlock loads a block in status.
func (h *Handler) LoadBlock(ctx context.Context, id int64, status domain.Status) (*Block, error) {
	return h.gateway.LoadBlock(ctx, id, status)
}

// LoadBlocks loads the listed blocks, skipping ids missing in status.
func (h *Handler) LoadBlocks(ctx context.Context, ids []int64, status domain.Status) ([]*Block, error) {
	return h.gateway.LoadBlocks(ctx, ids, status)
}

// LoadLayoutBlocks loads every block of layout, zone roots included.
func (h *Handler) LoadLayoutBlocks(ctx context.Context, layout LayoutRef) ([]*Block, error) {
	return h.gateway.LoadLayoutBlocks(ctx, layout.ID, layout.Status)
}

// LoadZoneBlocks loads every descendant of a zone root block.
func (h *Handler) LoadZoneBlocks(ctx context.Context, rootBlockID int64, status domain.Status) ([]*Block, error) {
	root, err := h.gateway.LoadBlock(ctx, rootBlockID, status)
	if err != nil {
		return nil, err
	}
	subtree, err := h.gateway.LoadSubtree(ctx, root.Path, status)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(subtree, func(b *Block) bool { return b.ID == root.ID }), nil
}

// LoadChildBlocks loads the direct children of block. A nil placeholder
// returns the children of every placeholder.
func (h *Handler) LoadChildBlocks(ctx context.Context, block *Block, placeholder *string) ([]*Block, error) {
	return h.gateway.LoadChildBlocks(ctx, block.ID, placeholder, block.Status)
}

// BlockExists reports whether block id has a row in status.
func (h *Handler) BlockExists(ctx context.Context, id int64, status domain.Status) (bool, error) {
	return h.gateway.BlockExists(ctx, id, status)
}

// LoadCollectionReference loads the collection reference of block under identifier.
func (h *Handler) LoadCollectionReference(ctx context.Context, block *Block, identifier string) (*collections.Reference, error) {
	return h.linker.LoadCollectionReference(ctx, block.Ref(), identifier)
}

// LoadCollectionReferences loads every collection reference of block.
func (h *Handler) LoadCollectionReferences(ctx context.Context, block *Block) ([]*collections.Reference, error) {
	return h.linker.LoadCollectionReferences(ctx, block.Ref())
}

// CreateBlock creates a block in layout. Without a target the block becomes
// a parentless zone root. The block's main locale is the layout main locale
// and a translatable block receives every layout locale.
func (h *Handler) CreateBlock(ctx context.Context, input CreateStruct, layout LayoutRef, target *Block, placeholder string) (*Block, error) {
	logger := logging.ForOperation(h.logger, "blocks.create", map[string]any{
		logging.FieldLayoutID: layout.ID,
		logging.FieldStatus:   layout.Status,
	})

	def, err := h.definition(input.DefinitionIdentifier, target == nil)
	if err != nil {
		return nil, err
	}

	translatable := def.Translatable
	if input.IsTranslatable != nil {
		translatable = *input.IsTranslatable
	}

	var pos *int
	if target != nil {
		if target.LayoutID != layout.ID || target.Status != layout.Status {
			return nil, persistence.NewBadState("targetBlock", "Target block is not in the provided layout.")
		}
		if err := h.validatePlaceholder(target, placeholder); err != nil {
			return nil, err
		}
		if !target.IsRoot() && !target.IsTranslatable {
			translatable = false
		}
	}

	mainLocale := layout.MainLocale
	if mainLocale == "" {
		return nil, persistence.NewBadState("layout", "Layout has no main locale.")
	}
	locales := []string{mainLocale}
	if translatable {
		locales = translation.SortLocales(append(slices.Clone(layout.AvailableLocales), mainLocale))
	}

	params := def.Defaults()
	for name, value := range input.Parameters {
		params[name] = value
	}
	parameters := make(map[string]translation.Parameters, len(locales))
	for _, locale := range locales {
		parameters[locale] = translation.CloneParameters(params)
	}
	if def.Identifier != "" {
		if err := h.registry.ValidateParameters(def.Identifier, parameters); err != nil {
			return nil, err
		}
	}

	if target != nil {
		p, err := h.positions.CreatePosition(ctx, target.ChildScope(placeholder), input.Position)
		if err != nil {
			return nil, err
		}
		pos = &p
	}

	id, err := h.gateway.NextBlockID(ctx)
	if err != nil {
		return nil, err
	}

	block := &Block{
		ID:                   id,
		Status:               layout.Status,
		UUID:                 h.ids.New(),
		LayoutID:             layout.ID,
		LayoutUUID:           layout.UUID,
		DefinitionIdentifier: def.Identifier,
		Config:               cloneConfig(input.Config),
		ViewType:             input.ViewType,
		ItemViewType:         input.ItemViewType,
		Name:                 strings.TrimSpace(input.Name),
		IsTranslatable:       translatable,
		MainLocale:           mainLocale,
		AlwaysAvailable:      input.AlwaysAvailable,
		AvailableLocales:     locales,
		Parameters:           parameters,
	}
	if target == nil {
		block.Path = position.RootPath(id)
	} else {
		h.attach(block, target, placeholder, pos)
	}

	if err := h.gateway.InsertBlock(ctx, block); err != nil {
		return nil, err
	}

	for _, slot := range def.Collections {
		collection, err := h.linker.CreateCollection(ctx, collections.CreateStruct{
			Shared:           slot.Shared,
			Offset:           slot.Offset,
			Limit:            slot.Limit,
			MainLocale:       block.MainLocale,
			AvailableLocales: block.AvailableLocales,
			Status:           block.Status,
		})
		if err != nil {
			return nil, err
		}
		if _, err := h.linker.CreateCollectionReference(ctx, block.Ref(), collection, slot.Identifier); err != nil {
			return nil, err
		}
	}

	logger.Debug("blocks.created", logging.FieldBlockID, block.ID, "path", block.Path)
	return block, nil
}

// CreateBlockTranslation adds locale to a translatable block, seeded from
// sourceLocale.
func (h *Handler) CreateBlockTranslation(ctx context.Context, block *Block, locale, sourceLocale string) (*Block, error) {
	if !block.IsTranslatable {
		return nil, persistence.NewBadState("block", "Block is not translatable.")
	}
	set := block.Translations()
	if err := set.Create(locale, sourceLocale); err != nil {
		return nil, err
	}
	block.ApplyTranslations(set)
	if err := h.gateway.SaveTranslations(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// SetMainTranslation switches the main locale of block. A block always
// shares the main locale of its layout, so locale must be the layout main
// locale.
func (h *Handler) SetMainTranslation(ctx context.Context, block *Block, locale string) (*Block, error) {
	layout, err := h.layouts.ResolveLayout(ctx, block.LayoutID, block.Status)
	if err != nil {
		return nil, err
	}
	if locale != layout.MainLocale {
		return nil, persistence.NewBadState("locale", "Block main locale must match the layout main locale.")
	}
	return h.AlignMainLocale(ctx, block, locale)
}

// AlignMainLocale makes locale the main locale of block, creating it from
// the current main locale when missing. A block that is not translatable
// keeps a single locale, so its previous main locale is dropped.
func (h *Handler) AlignMainLocale(ctx context.Context, block *Block, locale string) (*Block, error) {
	if block.MainLocale == locale {
		return block, nil
	}
	set := block.Translations()
	previous := set.MainLocale
	if !set.Has(locale) {
		if err := set.Create(locale, previous); err != nil {
			return nil, err
		}
	}
	if err := set.SetMain(locale); err != nil {
		return nil, err
	}
	if !block.IsTranslatable {
		if err := set.Delete(previous); err != nil {
			return nil, err
		}
	}
	block.ApplyTranslations(set)
	if err := h.persist(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// DeleteBlockTranslation removes a non-main locale from block.
func (h *Handler) DeleteBlockTranslation(ctx context.Context, block *Block, locale string) (*Block, error) {
	set := block.Translations()
	if err := set.Delete(locale); err != nil {
		return nil, err
	}
	block.ApplyTranslations(set)
	if err := h.gateway.SaveTranslations(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// UpdateBlock updates the non translatable fields of block.
func (h *Handler) UpdateBlock(ctx context.Context, block *Block, input UpdateStruct) (*Block, error) {
	if input.ViewType != nil {
		block.ViewType = *input.ViewType
	}
	if input.ItemViewType != nil {
		block.ItemViewType = *input.ItemViewType
	}
	if input.Name != nil {
		block.Name = strings.TrimSpace(*input.Name)
	}
	if input.AlwaysAvailable != nil {
		block.AlwaysAvailable = *input.AlwaysAvailable
	}
	if input.Config != nil {
		block.Config = cloneConfig(input.Config)
	}
	if err := h.gateway.UpdateBlock(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// UpdateBlockTranslation writes the parameters of one locale. Untranslatable
// parameters always follow the main locale.
func (h *Handler) UpdateBlockTranslation(ctx context.Context, block *Block, locale string, input TranslationUpdateStruct) (*Block, error) {
	set := block.Translations()
	if err := set.Update(locale, input.Parameters, h.policy(block)); err != nil {
		return nil, err
	}
	if block.DefinitionIdentifier != "" {
		if err := h.registry.ValidateParameters(block.DefinitionIdentifier, set.Parameters); err != nil {
			return nil, err
		}
	}
	block.ApplyTranslations(set)
	if err := h.gateway.SaveTranslations(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// CopyBlock copies block and its subtree into placeholder of target within
// the same layout. The copies receive new ids and uuids derived from one
// copy operation.
func (h *Handler) CopyBlock(ctx context.Context, block *Block, target *Block, placeholder string, pos *int) (*Block, error) {
	if target.LayoutID != block.LayoutID || target.Status != block.Status {
		return nil, persistence.NewBadState("targetBlock", "Block is not in the same layout as the target block.")
	}
	if position.IsWithin(target.Path, block.Path) {
		return nil, persistence.NewBadState("targetBlock", "Block cannot be copied below itself or its children.")
	}
	if err := h.validatePlaceholder(target, placeholder); err != nil {
		return nil, err
	}
	p, err := h.positions.CreatePosition(ctx, target.ChildScope(placeholder), pos)
	if err != nil {
		return nil, err
	}
	layout := LayoutRef{ID: target.LayoutID, UUID: target.LayoutUUID, Status: target.Status}
	copied, err := h.copyTree(ctx, block, layout, target, placeholder, &p, h.ids.New())
	if err != nil {
		return nil, err
	}
	if err := h.inheritTranslatability(ctx, copied, target); err != nil {
		return nil, err
	}
	h.logger.Debug("blocks.copied", logging.FieldBlockID, block.ID, "copy_id", copied.ID, logging.FieldStatus, copied.Status)
	return copied, nil
}

// CopyZoneTree copies a zone root block and its subtree into layout as a new
// zone root. Every copy made with the same operation id derives uuids from
// the same scope.
func (h *Handler) CopyZoneTree(ctx context.Context, root *Block, layout LayoutRef, operation uuid.UUID) (*Block, error) {
	if !root.IsRoot() {
		return nil, persistence.NewBadState("block", "Block is not a zone root.")
	}
	return h.copyTree(ctx, root, layout, nil, "", nil, operation)
}

// NewOperation returns a fresh copy operation id.
func (h *Handler) NewOperation() uuid.UUID {
	return h.ids.New()
}

func (h *Handler) copyTree(ctx context.Context, top *Block, layout LayoutRef, parent *Block, placeholder string, pos *int, operation uuid.UUID) (*Block, error) {
	subtree, err := h.gateway.LoadSubtree(ctx, top.Path, top.Status)
	if err != nil {
		return nil, err
	}

	// subtree is ordered by depth so every parent is copied before its children
	copies := make(map[int64]*Block, len(subtree))
	var result *Block
	for _, source := range subtree {
		id, err := h.gateway.NextBlockID(ctx)
		if err != nil {
			return nil, err
		}
		copied := source.Clone()
		copied.ID = id
		copied.UUID = h.ids.Derive(operation, source.UUID)
		copied.Status = layout.Status
		copied.LayoutID = layout.ID
		copied.LayoutUUID = layout.UUID

		switch {
		case source.ID == top.ID && parent == nil:
			copied.ParentID, copied.ParentUUID, copied.Placeholder, copied.Position = nil, nil, nil, nil
			copied.Depth = 0
			copied.Path = position.RootPath(id)
		case source.ID == top.ID:
			h.attach(copied, parent, placeholder, pos)
		default:
			newParent, ok := copies[*source.ParentID]
			if !ok {
				return nil, persistence.NewNotFound("block", *source.ParentID)
			}
			h.attach(copied, newParent, *source.Placeholder, source.Position)
		}

		if err := h.gateway.InsertBlock(ctx, copied); err != nil {
			return nil, err
		}
		if err := h.linker.CopyReferences(ctx, source.Ref(), copied.Ref()); err != nil {
			return nil, err
		}
		copies[source.ID] = copied
		if source.ID == top.ID {
			result = copied
		}
	}
	if result == nil {
		return nil, persistence.NewNotFound("block", top.ID)
	}
	return result, nil
}

// MoveBlock moves block and its subtree into placeholder of target. A nil
// position appends to the end of the destination.
func (h *Handler) MoveBlock(ctx context.Context, block *Block, target *Block, placeholder string, pos *int) (*Block, error) {
	scope, ok := block.Scope()
	if !ok {
		return nil, persistence.NewBadState("block", "Root blocks cannot be moved.")
	}
	if target.LayoutID != block.LayoutID || target.Status != block.Status {
		return nil, persistence.NewBadState("targetBlock", "Block is not in the same layout as the target block.")
	}
	if scope.ParentID == target.ID && scope.Placeholder == placeholder {
		return nil, persistence.NewBadState("targetBlock", "Block is already in specified target block and placeholder.")
	}
	if position.IsWithin(target.Path, block.Path) {
		return nil, persistence.NewBadState("targetBlock", "Block cannot be moved below itself or its children.")
	}
	if err := h.validatePlaceholder(target, placeholder); err != nil {
		return nil, err
	}

	subtree, err := h.gateway.LoadSubtree(ctx, block.Path, block.Status)
	if err != nil {
		return nil, err
	}

	if err := h.positions.ReleasePosition(ctx, scope, *block.Position); err != nil {
		return nil, err
	}
	p, err := h.positions.CreatePosition(ctx, target.ChildScope(placeholder), pos)
	if err != nil {
		return nil, err
	}

	oldPath, oldDepth := block.Path, block.Depth
	h.attach(block, target, placeholder, &p)
	if err := h.gateway.UpdateBlock(ctx, block); err != nil {
		return nil, err
	}

	depthDelta := block.Depth - oldDepth
	for _, descendant := range subtree {
		if descendant.ID == block.ID {
			continue
		}
		descendant.Path = position.Rebase(descendant.Path, oldPath, block.Path)
		descendant.Depth += depthDelta
		if err := h.gateway.UpdateBlock(ctx, descendant); err != nil {
			return nil, err
		}
	}
	if err := h.inheritTranslatability(ctx, block, target); err != nil {
		return nil, err
	}

	h.logger.Debug("blocks.moved", logging.FieldBlockID, block.ID, "path", block.Path, "position", p)
	return block, nil
}

// MoveBlockToPosition moves block inside its current placeholder.
func (h *Handler) MoveBlockToPosition(ctx context.Context, block *Block, pos int) (*Block, error) {
	scope, ok := block.Scope()
	if !ok || block.Position == nil {
		return nil, persistence.NewBadState("block", "Root blocks cannot be moved.")
	}
	p, err := h.positions.MovePosition(ctx, scope, *block.Position, pos)
	if err != nil {
		return nil, err
	}
	block.Position = &p
	if err := h.gateway.UpdateBlock(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// RestoreBlock replaces the content of draft with the copy of the block in
// fromStatus. The draft keeps its place in the tree and its locales are
// aligned with the owning layout afterwards.
func (h *Handler) RestoreBlock(ctx context.Context, draft *Block, fromStatus domain.Status) (*Block, error) {
	if draft.Status != domain.StatusDraft {
		return nil, persistence.NewBadState("block", "Only draft blocks can be restored.")
	}
	if draft.Status == fromStatus {
		return nil, persistence.NewBadState("block", "Block is already in provided status.")
	}
	source, err := h.gateway.LoadBlock(ctx, draft.ID, fromStatus)
	if err != nil {
		return nil, err
	}
	layout, err := h.layouts.ResolveLayout(ctx, draft.LayoutID, draft.Status)
	if err != nil {
		return nil, err
	}

	draft.DefinitionIdentifier = source.DefinitionIdentifier
	draft.Config = cloneConfig(source.Config)
	draft.ViewType = source.ViewType
	draft.ItemViewType = source.ItemViewType
	draft.Name = source.Name
	draft.IsTranslatable = source.IsTranslatable
	draft.AlwaysAvailable = source.AlwaysAvailable

	set := source.Translations()
	locales := []string{layout.MainLocale}
	if draft.IsTranslatable {
		locales = layout.AvailableLocales
	}
	set.Reconcile(layout.MainLocale, locales)
	set.PropagateUntranslatable(h.policy(draft))
	draft.ApplyTranslations(set)

	if err := h.persist(ctx, draft); err != nil {
		return nil, err
	}

	status := draft.Status
	if err := h.linker.DeleteBlockReferences(ctx, []int64{draft.ID}, &status); err != nil {
		return nil, err
	}
	if err := h.linker.CreateReferencesStatus(ctx, source.Ref(), draft.Status); err != nil {
		return nil, err
	}

	h.logger.Debug("blocks.restored", logging.FieldBlockID, draft.ID, "from_status", fromStatus)
	return draft, nil
}

// EnableTranslations makes block translatable and creates every missing
// layout locale from its main locale.
func (h *Handler) EnableTranslations(ctx context.Context, block *Block) (*Block, error) {
	if block.IsTranslatable {
		return nil, persistence.NewBadState("block", "Block is already translatable.")
	}
	if block.ParentID != nil {
		parent, err := h.gateway.LoadBlock(ctx, *block.ParentID, block.Status)
		if err != nil {
			return nil, err
		}
		if !parent.IsRoot() && !parent.IsTranslatable {
			return nil, persistence.NewBadState("block", "You can only enable translations if parent block is also translatable.")
		}
	}
	layout, err := h.layouts.ResolveLayout(ctx, block.LayoutID, block.Status)
	if err != nil {
		return nil, err
	}

	set := block.Translations()
	for _, locale := range layout.AvailableLocales {
		if set.Has(locale) {
			continue
		}
		if err := set.Create(locale, set.MainLocale); err != nil {
			return nil, err
		}
	}
	block.IsTranslatable = true
	block.ApplyTranslations(set)
	if err := h.persist(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// DisableTranslations makes block and every translatable descendant keep
// only their main locale.
func (h *Handler) DisableTranslations(ctx context.Context, block *Block) (*Block, error) {
	if !block.IsTranslatable {
		return nil, persistence.NewBadState("block", "Block is not translatable.")
	}
	if err := h.disableTree(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// inheritTranslatability disables translations of block and its subtree
// once it sits below a non-root container that is not translatable.
func (h *Handler) inheritTranslatability(ctx context.Context, block *Block, parent *Block) error {
	if parent.IsRoot() || parent.IsTranslatable || !block.IsTranslatable {
		return nil
	}
	return h.disableTree(ctx, block)
}

func (h *Handler) disableTree(ctx context.Context, block *Block) error {
	stack := []*Block{block}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		set := current.Translations()
		set.Collapse()
		current.IsTranslatable = false
		current.ApplyTranslations(set)
		if err := h.persist(ctx, current); err != nil {
			return err
		}

		children, err := h.gateway.LoadChildBlocks(ctx, current.ID, nil, current.Status)
		if err != nil {
			return err
		}
		for _, child := range children {
			if child.IsTranslatable {
				stack = append(stack, child)
			}
		}
	}
	return nil
}

// DeleteBlock deletes block with its subtree, references and owned
// collections, and closes the gap left in its placeholder. Zone roots are
// removed with their zone through DeleteZoneTree.
func (h *Handler) DeleteBlock(ctx context.Context, block *Block) error {
	if block.IsRoot() {
		return persistence.NewBadState("block", "Root blocks cannot be deleted.")
	}
	return h.deleteTree(ctx, block)
}

// DeleteZoneTree deletes a zone root block and its subtree.
func (h *Handler) DeleteZoneTree(ctx context.Context, root *Block) error {
	if !root.IsRoot() {
		return persistence.NewBadState("block", "Block is not a zone root.")
	}
	return h.deleteTree(ctx, root)
}

func (h *Handler) deleteTree(ctx context.Context, block *Block) error {
	subtree, err := h.gateway.LoadSubtree(ctx, block.Path, block.Status)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(subtree))
	for _, b := range subtree {
		ids = append(ids, b.ID)
	}
	if len(ids) == 0 {
		ids = append(ids, block.ID)
	}

	status := block.Status
	if err := h.linker.DeleteBlockReferences(ctx, ids, &status); err != nil {
		return err
	}
	if err := h.gateway.DeleteBlocks(ctx, ids, status); err != nil {
		return err
	}
	if scope, ok := block.Scope(); ok && block.Position != nil {
		if err := h.positions.ReleasePosition(ctx, scope, *block.Position); err != nil {
			return err
		}
	}
	h.logger.Debug("blocks.deleted", logging.FieldBlockID, block.ID, logging.FieldStatus, status, "count", len(ids))
	return nil
}

// DeleteBlocks deletes the listed blocks. A nil status covers every status.
// Blocks already removed with a deleted ancestor are skipped.
func (h *Handler) DeleteBlocks(ctx context.Context, ids []int64, status *domain.Status) error {
	for _, current := range domain.StatusesOrAll(status) {
		for _, id := range ids {
			// reload so positions reflect earlier deletions
			block, err := h.gateway.LoadBlock(ctx, id, current)
			if persistence.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			if err := h.DeleteBlock(ctx, block); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteLayoutBlocks deletes every block of a layout. A nil status covers
// every status.
func (h *Handler) DeleteLayoutBlocks(ctx context.Context, layoutID int64, status *domain.Status) error {
	for _, current := range domain.StatusesOrAll(status) {
		ids, err := h.gateway.LoadLayoutBlockIDs(ctx, layoutID, current)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			continue
		}
		if err := h.linker.DeleteBlockReferences(ctx, ids, &current); err != nil {
			return err
		}
		if err := h.gateway.DeleteBlocks(ctx, ids, current); err != nil {
			return err
		}
	}
	return nil
}

// CreateBlockStatus copies one block row, its translations and collection
// references into newStatus. Descendants are not copied.
func (h *Handler) CreateBlockStatus(ctx context.Context, block *Block, newStatus domain.Status) (*Block, error) {
	exists, err := h.gateway.BlockExists(ctx, block.ID, newStatus)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, persistence.NewBadState("block", "Block already exists in provided status.")
	}
	copied := block.Clone()
	copied.Status = newStatus
	if err := h.gateway.InsertBlock(ctx, copied); err != nil {
		return nil, err
	}
	if err := h.linker.CreateReferencesStatus(ctx, block.Ref(), newStatus); err != nil {
		return nil, err
	}
	return copied, nil
}

// attach places block below parent and recomputes its path and depth.
func (h *Handler) attach(block *Block, parent *Block, placeholder string, pos *int) {
	parentID := parent.ID
	parentUUID := parent.UUID
	slot := placeholder
	block.ParentID = &parentID
	block.ParentUUID = &parentUUID
	block.Placeholder = &slot
	if pos != nil {
		p := *pos
		block.Position = &p
	}
	block.Depth = parent.Depth + 1
	block.Path = position.ChildPath(parent.Path, block.ID)
}

func (h *Handler) persist(ctx context.Context, block *Block) error {
	if err := h.gateway.UpdateBlock(ctx, block); err != nil {
		return err
	}
	return h.gateway.SaveTranslations(ctx, block)
}

func (h *Handler) definition(identifier string, root bool) (definitions.Block, error) {
	if strings.TrimSpace(identifier) == "" {
		if root {
			return definitions.Block{}, nil
		}
		return definitions.Block{}, persistence.NewBadState("definitionIdentifier", "Block definition is required.")
	}
	return h.registry.Block(identifier)
}

func (h *Handler) validatePlaceholder(target *Block, placeholder string) error {
	if target.IsRoot() {
		if placeholder != RootPlaceholder {
			return persistence.NewNotFound("placeholder", placeholder)
		}
		return nil
	}
	def, err := h.registry.Block(target.DefinitionIdentifier)
	if err != nil {
		return err
	}
	if !def.HasPlaceholder(placeholder) {
		return persistence.NewNotFound("placeholder", placeholder)
	}
	return nil
}

func (h *Handler) policy(block *Block) translation.ParameterPolicy {
	if block.DefinitionIdentifier == "" {
		return translation.AllTranslatable
	}
	def, err := h.registry.Block(block.DefinitionIdentifier)
	if err != nil {
		return translation.AllTranslatable
	}
	return def
}
