package layoutscmd

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-command/dispatcher"

	"github.com/goliatone/go-layouts/internal/blocks"
	"github.com/goliatone/go-layouts/internal/definitions"
	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/engine"
	"github.com/goliatone/go-layouts/internal/identity"
	"github.com/goliatone/go-layouts/internal/layouts"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	registry := definitions.NewRegistry()
	if err := registry.RegisterBlock(definitions.Block{Identifier: "text", Translatable: true}); err != nil {
		t.Fatalf("register block: %v", err)
	}
	if err := registry.RegisterLayoutType(definitions.LayoutType{Identifier: "single", Zones: []string{"main"}}); err != nil {
		t.Fatalf("register layout type: %v", err)
	}
	return engine.New(engine.NewMemoryBackend(), engine.WithRegistry(registry), engine.WithIDGenerator(identity.NewSequence("cmd")))
}

func seedLayout(t *testing.T, e *engine.Engine) *layouts.Layout {
	t.Helper()
	var layout *layouts.Layout
	err := e.Transaction(context.Background(), func(ctx context.Context, h *engine.Handlers) error {
		var err error
		layout, err = h.Layouts.CreateLayout(ctx, layouts.CreateStruct{Type: "single", Name: "Home", MainLocale: "en"})
		if err != nil {
			return err
		}
		return addText(ctx, h, layout)
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return layout
}

func addText(ctx context.Context, h *engine.Handlers, layout *layouts.Layout) error {
	zone, err := h.Layouts.LoadZone(ctx, layout, "main")
	if err != nil {
		return err
	}
	root, err := h.Blocks.LoadBlock(ctx, zone.RootBlockID, layout.Status)
	if err != nil {
		return err
	}
	_, err = h.Blocks.CreateBlock(ctx, blocks.CreateStruct{DefinitionIdentifier: "text"}, layout.Ref(), root, blocks.RootPlaceholder)
	return err
}

func blockCount(t *testing.T, e *engine.Engine, id int64, status domain.Status) int {
	t.Helper()
	var count int
	err := e.View(context.Background(), func(ctx context.Context, h *engine.Handlers) error {
		records, err := h.Blocks.LoadLayoutBlocks(ctx, blocks.LayoutRef{ID: id, Status: status})
		count = len(records)
		return err
	})
	if err != nil {
		t.Fatalf("count blocks: %v", err)
	}
	return count
}

func exists(t *testing.T, e *engine.Engine, id int64, status domain.Status) bool {
	t.Helper()
	var found bool
	err := e.View(context.Background(), func(ctx context.Context, h *engine.Handlers) error {
		var err error
		found, err = h.Layouts.LayoutExists(ctx, id, status)
		return err
	})
	if err != nil {
		t.Fatalf("layout exists: %v", err)
	}
	return found
}

func TestPublishLayoutCopiesDraft(t *testing.T) {
	e := newTestEngine(t)
	layout := seedLayout(t, e)
	set := NewHandlerSet(e, nil, 0)

	if err := set.Publish.Execute(context.Background(), PublishLayoutCommand{LayoutID: layout.ID}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := blockCount(t, e, layout.ID, domain.StatusPublished); got != 2 {
		t.Fatalf("expected 2 published blocks, got %d", got)
	}
	if got := blockCount(t, e, layout.ID, domain.StatusDraft); got != 2 {
		t.Fatalf("expected draft to stay, got %d blocks", got)
	}
}

func TestPublishLayoutArchivesPreviousPublication(t *testing.T) {
	e := newTestEngine(t)
	layout := seedLayout(t, e)
	set := NewHandlerSet(e, nil, 0)
	ctx := context.Background()

	if err := set.Publish.Execute(ctx, PublishLayoutCommand{LayoutID: layout.ID}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := e.Transaction(ctx, func(ctx context.Context, h *engine.Handlers) error {
		return addText(ctx, h, layout)
	}); err != nil {
		t.Fatalf("edit draft: %v", err)
	}
	if err := set.Publish.Execute(ctx, PublishLayoutCommand{LayoutID: layout.ID, ArchivePrevious: true}); err != nil {
		t.Fatalf("second publish: %v", err)
	}

	if got := blockCount(t, e, layout.ID, domain.StatusPublished); got != 3 {
		t.Fatalf("expected 3 published blocks, got %d", got)
	}
	if got := blockCount(t, e, layout.ID, domain.StatusArchived); got != 2 {
		t.Fatalf("expected archived copy of first publication, got %d blocks", got)
	}
}

func TestDiscardDraftResetsToPublished(t *testing.T) {
	e := newTestEngine(t)
	layout := seedLayout(t, e)
	set := NewHandlerSet(e, nil, 0)
	ctx := context.Background()

	err := set.Discard.Execute(ctx, DiscardDraftCommand{LayoutID: layout.ID})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected bad state without publication, got %v", err)
	}

	if err := set.Publish.Execute(ctx, PublishLayoutCommand{LayoutID: layout.ID}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := e.Transaction(ctx, func(ctx context.Context, h *engine.Handlers) error {
		return addText(ctx, h, layout)
	}); err != nil {
		t.Fatalf("edit draft: %v", err)
	}
	if got := blockCount(t, e, layout.ID, domain.StatusDraft); got != 3 {
		t.Fatalf("expected edited draft, got %d blocks", got)
	}

	if err := set.Discard.Execute(ctx, DiscardDraftCommand{LayoutID: layout.ID}); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if got := blockCount(t, e, layout.ID, domain.StatusDraft); got != 2 {
		t.Fatalf("expected draft reset to 2 blocks, got %d", got)
	}
}

func TestArchiveAndRestoreLayout(t *testing.T) {
	e := newTestEngine(t)
	layout := seedLayout(t, e)
	set := NewHandlerSet(e, nil, 0)
	ctx := context.Background()

	err := set.Archive.Execute(ctx, ArchiveLayoutCommand{LayoutID: layout.ID})
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not found without publication, got %v", err)
	}

	if err := set.Publish.Execute(ctx, PublishLayoutCommand{LayoutID: layout.ID}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := set.Archive.Execute(ctx, ArchiveLayoutCommand{LayoutID: layout.ID}); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !exists(t, e, layout.ID, domain.StatusArchived) {
		t.Fatal("expected archived layout")
	}

	if err := e.Transaction(ctx, func(ctx context.Context, h *engine.Handlers) error {
		return addText(ctx, h, layout)
	}); err != nil {
		t.Fatalf("edit draft: %v", err)
	}
	if err := set.Restore.Execute(ctx, RestoreLayoutCommand{LayoutID: layout.ID}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := blockCount(t, e, layout.ID, domain.StatusDraft); got != 2 {
		t.Fatalf("expected draft restored from archive, got %d blocks", got)
	}
	if !exists(t, e, layout.ID, domain.StatusArchived) {
		t.Fatal("expected archive to survive restore")
	}
}

func TestCommandValidation(t *testing.T) {
	e := newTestEngine(t)
	set := NewHandlerSet(e, nil, 0)
	ctx := context.Background()

	if err := set.Publish.Execute(ctx, PublishLayoutCommand{}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error for missing layout id, got %v", err)
	}
	err := set.Restore.Execute(ctx, RestoreLayoutCommand{LayoutID: 1, FromStatus: domain.StatusDraft})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error for draft source, got %v", err)
	}
	if err := set.Publish.Execute(ctx, PublishLayoutCommand{LayoutID: 99}); !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not found for unknown layout, got %v", err)
	}
}

func TestHandlerSetSubscribesToDispatcher(t *testing.T) {
	e := newTestEngine(t)
	layout := seedLayout(t, e)
	set := NewHandlerSet(e, nil, 0)
	unsubscribe := set.Subscribe()
	defer unsubscribe()

	if err := dispatcher.Dispatch(context.Background(), PublishLayoutCommand{LayoutID: layout.ID}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !exists(t, e, layout.ID, domain.StatusPublished) {
		t.Fatal("expected dispatched publish to create published layout")
	}
}
