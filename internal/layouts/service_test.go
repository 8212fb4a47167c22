package layouts

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/goliatone/go-layouts/internal/blocks"
	"github.com/goliatone/go-layouts/internal/collections"
	"github.com/goliatone/go-layouts/internal/definitions"
	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/identity"
	"github.com/goliatone/go-layouts/internal/persistence"
	"github.com/goliatone/go-layouts/internal/translation"
)

type fixture struct {
	handler *Handler
	blocks  *blocks.Handler
	store   *MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry := definitions.NewRegistry()
	for _, def := range []definitions.Block{
		{
			Identifier:   "text",
			Translatable: true,
			Parameters: []definitions.Parameter{
				{Name: "title", Translatable: true},
				{Name: "url"},
			},
		},
		{Identifier: "list", Collections: []definitions.Collection{{Identifier: "default"}}},
	} {
		if err := registry.RegisterBlock(def); err != nil {
			t.Fatalf("register block: %v", err)
		}
	}
	for _, layoutType := range []definitions.LayoutType{
		{Identifier: "two_columns", Zones: []string{"left", "right"}},
		{Identifier: "one_column", Zones: []string{"main"}},
	} {
		if err := registry.RegisterLayoutType(layoutType); err != nil {
			t.Fatalf("register layout type: %v", err)
		}
	}

	ids := identity.NewSequence("layouts")
	store := NewMemoryStore()
	linker := collections.NewLinker(collections.NewMemoryStore(), collections.WithIDGenerator(ids))
	blockHandler := blocks.NewHandler(blocks.NewMemoryStore(), linker, Resolver(store),
		blocks.WithRegistry(registry), blocks.WithIDGenerator(ids))
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	handler := NewHandler(store, blockHandler,
		WithRegistry(registry),
		WithIDGenerator(ids),
		WithNow(func() time.Time { return now }),
	)
	return &fixture{handler: handler, blocks: blockHandler, store: store}
}

func (f *fixture) createLayout(t *testing.T, layoutType, name string, shared bool) *Layout {
	t.Helper()
	layout, err := f.handler.CreateLayout(context.Background(), CreateStruct{
		Type:       layoutType,
		Name:       name,
		Shared:     shared,
		MainLocale: "en",
	})
	if err != nil {
		t.Fatalf("create layout: %v", err)
	}
	return layout
}

func (f *fixture) addBlock(t *testing.T, layout *Layout, zoneIdentifier, definition string) *blocks.Block {
	t.Helper()
	ctx := context.Background()
	zone, err := f.handler.LoadZone(ctx, layout, zoneIdentifier)
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	root, err := f.blocks.LoadBlock(ctx, zone.RootBlockID, layout.Status)
	if err != nil {
		t.Fatalf("load root: %v", err)
	}
	block, err := f.blocks.CreateBlock(ctx, blocks.CreateStruct{
		DefinitionIdentifier: definition,
		Parameters:           translation.Parameters{"title": "Title", "url": "https://example.com"},
	}, layout.Ref(), root, blocks.RootPlaceholder)
	if err != nil {
		t.Fatalf("create block: %v", err)
	}
	return block
}

func (f *fixture) zoneChildren(t *testing.T, layout *Layout, zoneIdentifier string) []int64 {
	t.Helper()
	ctx := context.Background()
	zone, err := f.handler.LoadZone(ctx, layout, zoneIdentifier)
	if err != nil {
		t.Fatalf("load zone %s: %v", zoneIdentifier, err)
	}
	root, err := f.blocks.LoadBlock(ctx, zone.RootBlockID, zone.Status)
	if err != nil {
		t.Fatalf("load root: %v", err)
	}
	placeholder := blocks.RootPlaceholder
	children, err := f.blocks.LoadChildBlocks(ctx, root, &placeholder)
	if err != nil {
		t.Fatalf("load children: %v", err)
	}
	out := make([]int64, 0, len(children))
	for i, child := range children {
		if *child.Position != i {
			t.Fatalf("zone %s positions not contiguous", zoneIdentifier)
		}
		out = append(out, child.ID)
	}
	return out
}

func TestCreateLayoutCreatesZoneRoots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	layout := f.createLayout(t, "two_columns", "Home", false)

	if layout.Status != domain.StatusDraft || !slices.Equal(layout.AvailableLocales, []string{"en"}) {
		t.Fatalf("unexpected layout %+v", layout)
	}
	zones, err := f.handler.LoadZones(ctx, layout)
	if err != nil {
		t.Fatalf("load zones: %v", err)
	}
	if len(zones) != 2 || zones[0].Identifier != "left" || zones[1].Identifier != "right" {
		t.Fatalf("unexpected zones %+v", zones)
	}
	for _, zone := range zones {
		root, err := f.blocks.LoadBlock(ctx, zone.RootBlockID, zone.Status)
		if err != nil {
			t.Fatalf("load root: %v", err)
		}
		if !root.IsRoot() || root.LayoutID != layout.ID {
			t.Fatalf("unexpected root %+v", root)
		}
	}

	if _, err := f.handler.CreateLayout(ctx, CreateStruct{Type: "two_columns"}); !errors.Is(err, persistence.ErrBadState) {
		t.Fatalf("expected main locale to be required, got %v", err)
	}
	if _, err := f.handler.CreateLayout(ctx, CreateStruct{Type: "missing", MainLocale: "en"}); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected unknown layout type, got %v", err)
	}
	if _, err := f.handler.CreateZone(ctx, layout, "left", nil); !errors.Is(err, persistence.ErrBadState) {
		t.Fatalf("expected duplicate zone rejection, got %v", err)
	}
}

func TestLayoutTranslationsCascadeToBlocks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	layout := f.createLayout(t, "two_columns", "Home", false)
	text := f.addBlock(t, layout, "left", "text")
	list := f.addBlock(t, layout, "right", "list")

	layout, err := f.handler.CreateLayoutTranslation(ctx, layout, "hr", "en")
	if err != nil {
		t.Fatalf("create translation: %v", err)
	}
	if !slices.Equal(layout.AvailableLocales, []string{"en", "hr"}) {
		t.Fatalf("unexpected layout locales %v", layout.AvailableLocales)
	}
	stored, _ := f.blocks.LoadBlock(ctx, text.ID, text.Status)
	if !slices.Equal(stored.AvailableLocales, []string{"en", "hr"}) || stored.Parameters["hr"]["title"] != "Title" {
		t.Fatalf("expected translatable block to receive hr, got %v", stored.AvailableLocales)
	}
	storedList, _ := f.blocks.LoadBlock(ctx, list.ID, list.Status)
	if !slices.Equal(storedList.AvailableLocales, []string{"en"}) {
		t.Fatalf("expected non translatable block untouched, got %v", storedList.AvailableLocales)
	}
	if _, err := f.handler.CreateLayoutTranslation(ctx, layout, "hr", "en"); !errors.Is(err, persistence.ErrBadState) {
		t.Fatalf("expected duplicate locale rejection, got %v", err)
	}

	layout, err = f.handler.SetMainTranslation(ctx, layout, "hr")
	if err != nil {
		t.Fatalf("set main: %v", err)
	}
	stored, _ = f.blocks.LoadBlock(ctx, text.ID, text.Status)
	storedList, _ = f.blocks.LoadBlock(ctx, list.ID, list.Status)
	if stored.MainLocale != "hr" || storedList.MainLocale != "hr" || !slices.Equal(storedList.AvailableLocales, []string{"hr"}) {
		t.Fatalf("expected blocks to follow main locale, got %s %s %v", stored.MainLocale, storedList.MainLocale, storedList.AvailableLocales)
	}

	if _, err := f.handler.DeleteLayoutTranslation(ctx, layout, "hr"); !errors.Is(err, persistence.ErrBadState) {
		t.Fatalf("expected main locale delete rejection, got %v", err)
	}
	layout, err = f.handler.DeleteLayoutTranslation(ctx, layout, "en")
	if err != nil {
		t.Fatalf("delete translation: %v", err)
	}
	stored, _ = f.blocks.LoadBlock(ctx, text.ID, text.Status)
	if !slices.Equal(layout.AvailableLocales, []string{"hr"}) || !slices.Equal(stored.AvailableLocales, []string{"hr"}) {
		t.Fatalf("expected en removed, got layout %v block %v", layout.AvailableLocales, stored.AvailableLocales)
	}
}

func TestCopyLayoutCopiesZonesAndBlocks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	layout := f.createLayout(t, "two_columns", "Home", false)
	text := f.addBlock(t, layout, "left", "text")
	f.addBlock(t, layout, "left", "text")

	copied, err := f.handler.CopyLayout(ctx, layout, CopyStruct{Name: "Home copy"})
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if copied.ID == layout.ID || copied.UUID == layout.UUID || copied.Name != "Home copy" || copied.Type != layout.Type {
		t.Fatalf("unexpected copy %+v", copied)
	}
	original, _ := f.blocks.LoadLayoutBlocks(ctx, layout.Ref())
	copies, _ := f.blocks.LoadLayoutBlocks(ctx, copied.Ref())
	if len(copies) != len(original) {
		t.Fatalf("expected %d copied blocks, got %d", len(original), len(copies))
	}
	left := f.zoneChildren(t, copied, "left")
	if len(left) != 2 || slices.Contains(left, text.ID) {
		t.Fatalf("unexpected copied zone children %v", left)
	}
	for _, block := range copies {
		if block.LayoutUUID != copied.UUID {
			t.Fatalf("copied block %d points to layout %s", block.ID, block.LayoutUUID)
		}
	}
}

func TestChangeLayoutTypeMovesMappedBlocks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	layout := f.createLayout(t, "two_columns", "Home", false)
	first := f.addBlock(t, layout, "left", "text")
	second := f.addBlock(t, layout, "left", "text")
	third := f.addBlock(t, layout, "right", "text")

	_, err := f.handler.ChangeLayoutType(ctx, layout, "one_column", ZoneMappings{"sidebar": {"left"}}, false)
	if !errors.Is(err, persistence.ErrBadState) {
		t.Fatalf("expected unknown target zone rejection, got %v", err)
	}
	_, err = f.handler.ChangeLayoutType(ctx, layout, "one_column", ZoneMappings{"main": {"left", "left"}}, false)
	if !errors.Is(err, persistence.ErrBadState) {
		t.Fatalf("expected duplicate mapping rejection, got %v", err)
	}

	changed, err := f.handler.ChangeLayoutType(ctx, layout, "one_column", ZoneMappings{"main": {"left", "right"}}, false)
	if err != nil {
		t.Fatalf("change type: %v", err)
	}
	if changed.Type != "one_column" {
		t.Fatalf("unexpected type %s", changed.Type)
	}
	zones, _ := f.handler.LoadZones(ctx, changed)
	if len(zones) != 1 || zones[0].Identifier != "main" {
		t.Fatalf("unexpected zones %+v", zones)
	}
	if got := f.zoneChildren(t, changed, "main"); !slices.Equal(got, []int64{first.ID, second.ID, third.ID}) {
		t.Fatalf("unexpected main zone order %v", got)
	}
	all, _ := f.blocks.LoadLayoutBlocks(ctx, changed.Ref())
	if len(all) != 4 {
		t.Fatalf("expected old roots removed, got %d blocks", len(all))
	}
}

func TestChangeLayoutTypeDropsUnmappedZones(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	layout := f.createLayout(t, "two_columns", "Home", false)
	f.addBlock(t, layout, "left", "text")
	dropped := f.addBlock(t, layout, "right", "list")

	changed, err := f.handler.ChangeLayoutType(ctx, layout, "one_column", ZoneMappings{"main": {"left"}}, false)
	if err != nil {
		t.Fatalf("change type: %v", err)
	}
	if ok, _ := f.blocks.BlockExists(ctx, dropped.ID, dropped.Status); ok {
		t.Fatal("expected blocks of unmapped zones to be deleted")
	}
	if got := f.zoneChildren(t, changed, "main"); len(got) != 1 {
		t.Fatalf("expected one moved block, got %v", got)
	}
}

func TestZoneLinksAndRelatedLayouts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	shared := f.createLayout(t, "one_column", "Header", true)
	page := f.createLayout(t, "two_columns", "Page", false)
	other := f.createLayout(t, "two_columns", "Other", false)

	sharedZone, _ := f.handler.LoadZone(ctx, shared, "main")
	pageZone, _ := f.handler.LoadZone(ctx, page, "left")
	otherZone, _ := f.handler.LoadZone(ctx, other, "left")

	if _, err := f.handler.UpdateZone(ctx, pageZone, otherZone); !errors.Is(err, persistence.ErrBadState) {
		t.Fatalf("expected link to non shared layout rejection, got %v", err)
	}
	linked, err := f.handler.UpdateZone(ctx, pageZone, sharedZone)
	if err != nil {
		t.Fatalf("link zone: %v", err)
	}
	if !linked.HasLinkedZone() || *linked.LinkedLayoutUUID != shared.UUID || *linked.LinkedZoneIdentifier != "main" {
		t.Fatalf("unexpected link %+v", linked)
	}

	if _, err := f.handler.CreateLayoutStatus(ctx, page, domain.StatusPublished); err != nil {
		t.Fatalf("publish page: %v", err)
	}
	related, err := f.handler.LoadRelatedLayouts(ctx, shared)
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if len(related) != 1 || related[0].ID != page.ID {
		t.Fatalf("unexpected related layouts %+v", related)
	}
	if _, err := f.handler.LoadRelatedLayouts(ctx, page); !errors.Is(err, persistence.ErrBadState) {
		t.Fatalf("expected related layouts of non shared layout rejection, got %v", err)
	}

	changed, err := f.handler.ChangeLayoutType(ctx, page, "one_column", ZoneMappings{"main": {"left"}}, true)
	if err != nil {
		t.Fatalf("change type: %v", err)
	}
	mainZone, _ := f.handler.LoadZone(ctx, changed, "main")
	if !mainZone.HasLinkedZone() {
		t.Fatal("expected shared zone link to be preserved")
	}

	unlinked, err := f.handler.UpdateZone(ctx, mainZone, nil)
	if err != nil || unlinked.HasLinkedZone() {
		t.Fatalf("expected zone to be unlinked, got %+v (%v)", unlinked, err)
	}
}

func TestCreateLayoutStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	layout := f.createLayout(t, "two_columns", "Home", false)
	f.addBlock(t, layout, "left", "text")
	f.addBlock(t, layout, "right", "list")

	published, err := f.handler.CreateLayoutStatus(ctx, layout, domain.StatusPublished)
	if err != nil {
		t.Fatalf("create status: %v", err)
	}
	if _, err := f.handler.CreateLayoutStatus(ctx, layout, domain.StatusPublished); !errors.Is(err, persistence.ErrBadState) {
		t.Fatalf("expected existing status rejection, got %v", err)
	}
	draftBlocks, _ := f.blocks.LoadLayoutBlocks(ctx, layout.Ref())
	publishedBlocks, _ := f.blocks.LoadLayoutBlocks(ctx, published.Ref())
	if len(publishedBlocks) != len(draftBlocks) {
		t.Fatalf("expected %d published blocks, got %d", len(draftBlocks), len(publishedBlocks))
	}
	if got := f.zoneChildren(t, published, "left"); len(got) != 1 {
		t.Fatalf("expected published zone children, got %v", got)
	}

	status := domain.StatusDraft
	if err := f.handler.DeleteLayout(ctx, layout.ID, &status); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
	if ok, _ := f.handler.LayoutExists(ctx, layout.ID, domain.StatusDraft); ok {
		t.Fatal("expected draft to be deleted")
	}
	if ok, _ := f.handler.LayoutExists(ctx, layout.ID, domain.StatusPublished); !ok {
		t.Fatal("expected published copy to survive")
	}

	if err := f.handler.DeleteLayout(ctx, layout.ID, nil); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if remaining, _ := f.blocks.LoadLayoutBlocks(ctx, published.Ref()); len(remaining) != 0 {
		t.Fatalf("expected published blocks to be deleted, got %d", len(remaining))
	}
}

func TestLoadLayoutsListsPublishedAndUnpublishedDrafts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	published := f.createLayout(t, "one_column", "Alpha", false)
	draft := f.createLayout(t, "one_column", "Beta", false)
	f.createLayout(t, "one_column", "Shared", true)
	if _, err := f.handler.CreateLayoutStatus(ctx, published, domain.StatusPublished); err != nil {
		t.Fatalf("publish: %v", err)
	}

	records, err := f.handler.LoadLayouts(ctx, ListQuery{})
	if err != nil {
		t.Fatalf("load layouts: %v", err)
	}
	if len(records) != 1 || records[0].ID != published.ID || records[0].Status != domain.StatusPublished {
		t.Fatalf("unexpected published listing %+v", records)
	}

	records, _ = f.handler.LoadLayouts(ctx, ListQuery{IncludeDrafts: true})
	if len(records) != 2 || records[0].ID != published.ID || records[1].ID != draft.ID {
		t.Fatalf("unexpected listing with drafts %+v", records)
	}

	limit := 1
	records, _ = f.handler.LoadLayouts(ctx, ListQuery{IncludeDrafts: true, Offset: 1, Limit: &limit})
	if len(records) != 1 || records[0].ID != draft.ID {
		t.Fatalf("unexpected paged listing %+v", records)
	}

	records, _ = f.handler.LoadLayouts(ctx, ListQuery{IncludeDrafts: true, Shared: true})
	if len(records) != 1 || records[0].Name != "Shared" {
		t.Fatalf("unexpected shared listing %+v", records)
	}

	if exists, _ := f.handler.LayoutNameExists(ctx, "Alpha", nil); !exists {
		t.Fatal("expected name to exist")
	}
	if exists, _ := f.handler.LayoutNameExists(ctx, "Alpha", &published.ID); exists {
		t.Fatal("expected excluded layout to be skipped")
	}
	ofType, _ := f.handler.LoadLayoutsOfType(ctx, "one_column", domain.StatusDraft)
	if len(ofType) != 3 {
		t.Fatalf("expected three drafts of type, got %d", len(ofType))
	}
}
