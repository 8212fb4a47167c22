package collections

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/identity"
	"github.com/goliatone/go-layouts/internal/persistence"
)

func newTestLinker() (*Linker, *MemoryStore) {
	store := NewMemoryStore()
	return NewLinker(store, WithIDGenerator(identity.NewSequence("collections"))), store
}

func TestCreateCollectionReferenceRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	linker, _ := newTestLinker()

	collection, err := linker.CreateCollection(ctx, CreateStruct{MainLocale: "en"})
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	if collection.Status != domain.StatusDraft {
		t.Fatalf("expected draft status, got %s", collection.Status)
	}

	block := BlockRef{ID: 31, Status: domain.StatusDraft}
	if _, err := linker.CreateCollectionReference(ctx, block, collection, "items"); err != nil {
		t.Fatalf("create reference: %v", err)
	}
	_, err = linker.CreateCollectionReference(ctx, block, collection, "items")
	if !errors.Is(err, persistence.ErrBadState) {
		t.Fatalf("expected bad state, got %v", err)
	}
}

func TestCopyReferencesClonesOwnedAndSharesShared(t *testing.T) {
	ctx := context.Background()
	linker, _ := newTestLinker()

	owned, _ := linker.CreateCollection(ctx, CreateStruct{MainLocale: "en"})
	shared, _ := linker.CreateCollection(ctx, CreateStruct{MainLocale: "en", Shared: true})

	source := BlockRef{ID: 31, Status: domain.StatusDraft}
	target := BlockRef{ID: 40, Status: domain.StatusDraft}
	if _, err := linker.CreateCollectionReference(ctx, source, owned, "owned"); err != nil {
		t.Fatalf("reference owned: %v", err)
	}
	if _, err := linker.CreateCollectionReference(ctx, source, shared, "shared"); err != nil {
		t.Fatalf("reference shared: %v", err)
	}

	if err := linker.CopyReferences(ctx, source, target); err != nil {
		t.Fatalf("copy references: %v", err)
	}

	refs, err := linker.LoadCollectionReferences(ctx, target)
	if err != nil {
		t.Fatalf("load references: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}
	byIdentifier := map[string]*Reference{}
	for _, ref := range refs {
		byIdentifier[ref.Identifier] = ref
	}
	if byIdentifier["owned"].CollectionID == owned.ID {
		t.Fatal("expected owned collection to be cloned")
	}
	if byIdentifier["shared"].CollectionID != shared.ID {
		t.Fatal("expected shared collection to be referenced")
	}
}

func TestCreateReferencesStatusCopiesMissingCollections(t *testing.T) {
	ctx := context.Background()
	linker, store := newTestLinker()

	owned, _ := linker.CreateCollection(ctx, CreateStruct{MainLocale: "en"})
	source := BlockRef{ID: 31, Status: domain.StatusDraft}
	_, _ = linker.CreateCollectionReference(ctx, source, owned, "items")

	if err := linker.CreateReferencesStatus(ctx, source, domain.StatusPublished); err != nil {
		t.Fatalf("create references status: %v", err)
	}

	published := BlockRef{ID: 31, Status: domain.StatusPublished}
	ref, err := linker.LoadCollectionReference(ctx, published, "items")
	if err != nil {
		t.Fatalf("load reference: %v", err)
	}
	if ref.CollectionID != owned.ID || ref.CollectionStatus != domain.StatusPublished {
		t.Fatalf("unexpected reference %+v", ref)
	}
	if ok, _ := store.CollectionExists(ctx, owned.ID, domain.StatusPublished); !ok {
		t.Fatal("expected published collection copy")
	}
}

func TestDeleteBlockReferencesRemovesOrphans(t *testing.T) {
	ctx := context.Background()
	linker, store := newTestLinker()

	owned, _ := linker.CreateCollection(ctx, CreateStruct{MainLocale: "en"})
	shared, _ := linker.CreateCollection(ctx, CreateStruct{MainLocale: "en", Shared: true})
	first := BlockRef{ID: 31, Status: domain.StatusDraft}
	second := BlockRef{ID: 35, Status: domain.StatusDraft}
	_, _ = linker.CreateCollectionReference(ctx, first, owned, "items")
	_, _ = linker.CreateCollectionReference(ctx, second, owned, "items")
	_, _ = linker.CreateCollectionReference(ctx, first, shared, "shared")

	draft := domain.StatusDraft
	if err := linker.DeleteBlockReferences(ctx, []int64{31}, &draft); err != nil {
		t.Fatalf("delete references: %v", err)
	}
	if ok, _ := store.CollectionExists(ctx, owned.ID, draft); !ok {
		t.Fatal("expected collection still referenced by block 35 to survive")
	}

	if err := linker.DeleteBlockReferences(ctx, []int64{35}, nil); err != nil {
		t.Fatalf("delete references: %v", err)
	}
	if ok, _ := store.CollectionExists(ctx, owned.ID, draft); ok {
		t.Fatal("expected orphaned collection to be deleted")
	}
	if ok, _ := store.CollectionExists(ctx, shared.ID, draft); !ok {
		t.Fatal("expected shared collection to survive")
	}
}

func TestCreateCollectionStatusRejectsExisting(t *testing.T) {
	ctx := context.Background()
	linker, _ := newTestLinker()
	owned, _ := linker.CreateCollection(ctx, CreateStruct{MainLocale: "en"})
	if _, err := linker.CreateCollectionStatus(ctx, owned, domain.StatusDraft); !errors.Is(err, persistence.ErrBadState) {
		t.Fatalf("expected bad state, got %v", err)
	}
}
