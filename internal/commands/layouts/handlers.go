package layoutscmd

import (
	"context"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-layouts/internal/commands"
	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/engine"
	"github.com/goliatone/go-layouts/internal/layouts"
	"github.com/goliatone/go-layouts/internal/logging"
	"github.com/goliatone/go-layouts/internal/persistence"
	"github.com/goliatone/go-layouts/pkg/interfaces"
)

// Transactor runs handler operations inside one transaction. *engine.Engine
// satisfies it.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context, h *engine.Handlers) error) error
}

type layoutMessage interface {
	command.Message
	layoutID() int64
}

func (m PublishLayoutCommand) layoutID() int64 { return m.LayoutID }
func (m ArchiveLayoutCommand) layoutID() int64 { return m.LayoutID }
func (m DiscardDraftCommand) layoutID() int64  { return m.LayoutID }
func (m RestoreLayoutCommand) layoutID() int64 { return m.LayoutID }

func handlerOptions[T layoutMessage](logger interfaces.Logger, operation string, opts []commands.HandlerOption[T]) []commands.HandlerOption[T] {
	base := []commands.HandlerOption[T]{
		commands.WithLogger[T](logger),
		commands.WithOperation[T](operation),
		commands.WithMessageFields(func(msg T) map[string]any {
			return map[string]any{logging.FieldLayoutID: msg.layoutID()}
		}),
	}
	return append(base, opts...)
}

// PublishLayoutHandler publishes layout drafts.
type PublishLayoutHandler struct {
	inner *commands.Handler[PublishLayoutCommand]
}

// NewPublishLayoutHandler constructs a handler running in transactions of tx.
func NewPublishLayoutHandler(tx Transactor, logger interfaces.Logger, opts ...commands.HandlerOption[PublishLayoutCommand]) *PublishLayoutHandler {
	exec := func(ctx context.Context, msg PublishLayoutCommand) error {
		return tx.Transaction(ctx, func(ctx context.Context, h *engine.Handlers) error {
			return publishLayout(ctx, h, msg)
		})
	}
	return &PublishLayoutHandler{
		inner: commands.NewHandler(exec, handlerOptions(commands.EnsureLogger(logger), "layouts.publish", opts)...),
	}
}

// Execute satisfies command.Commander[PublishLayoutCommand].
func (h *PublishLayoutHandler) Execute(ctx context.Context, msg PublishLayoutCommand) error {
	return h.inner.Execute(ctx, msg)
}

func publishLayout(ctx context.Context, h *engine.Handlers, msg PublishLayoutCommand) error {
	draft, err := h.Layouts.LoadLayout(ctx, msg.LayoutID, domain.StatusDraft)
	if err != nil {
		return err
	}
	published, err := h.Layouts.LayoutExists(ctx, msg.LayoutID, domain.StatusPublished)
	if err != nil {
		return err
	}
	if published {
		if msg.ArchivePrevious {
			if err := archiveLayout(ctx, h, msg.LayoutID); err != nil {
				return err
			}
		}
		status := domain.StatusPublished
		if err := h.Layouts.DeleteLayout(ctx, msg.LayoutID, &status); err != nil {
			return err
		}
	}
	_, err = h.Layouts.CreateLayoutStatus(ctx, draft, domain.StatusPublished)
	return err
}

// ArchiveLayoutHandler archives published layouts.
type ArchiveLayoutHandler struct {
	inner *commands.Handler[ArchiveLayoutCommand]
}

// NewArchiveLayoutHandler constructs a handler running in transactions of tx.
func NewArchiveLayoutHandler(tx Transactor, logger interfaces.Logger, opts ...commands.HandlerOption[ArchiveLayoutCommand]) *ArchiveLayoutHandler {
	exec := func(ctx context.Context, msg ArchiveLayoutCommand) error {
		return tx.Transaction(ctx, func(ctx context.Context, h *engine.Handlers) error {
			return archiveLayout(ctx, h, msg.LayoutID)
		})
	}
	return &ArchiveLayoutHandler{
		inner: commands.NewHandler(exec, handlerOptions(commands.EnsureLogger(logger), "layouts.archive", opts)...),
	}
}

// Execute satisfies command.Commander[ArchiveLayoutCommand].
func (h *ArchiveLayoutHandler) Execute(ctx context.Context, msg ArchiveLayoutCommand) error {
	return h.inner.Execute(ctx, msg)
}

func archiveLayout(ctx context.Context, h *engine.Handlers, layoutID int64) error {
	published, err := h.Layouts.LoadLayout(ctx, layoutID, domain.StatusPublished)
	if err != nil {
		return err
	}
	status := domain.StatusArchived
	if err := h.Layouts.DeleteLayout(ctx, layoutID, &status); err != nil {
		return err
	}
	_, err = h.Layouts.CreateLayoutStatus(ctx, published, domain.StatusArchived)
	return err
}

// DiscardDraftHandler resets layout drafts to the published layout.
type DiscardDraftHandler struct {
	inner *commands.Handler[DiscardDraftCommand]
}

// NewDiscardDraftHandler constructs a handler running in transactions of tx.
func NewDiscardDraftHandler(tx Transactor, logger interfaces.Logger, opts ...commands.HandlerOption[DiscardDraftCommand]) *DiscardDraftHandler {
	exec := func(ctx context.Context, msg DiscardDraftCommand) error {
		return tx.Transaction(ctx, func(ctx context.Context, h *engine.Handlers) error {
			return discardDraft(ctx, h, msg.LayoutID)
		})
	}
	return &DiscardDraftHandler{
		inner: commands.NewHandler(exec, handlerOptions(commands.EnsureLogger(logger), "layouts.discard_draft", opts)...),
	}
}

// Execute satisfies command.Commander[DiscardDraftCommand].
func (h *DiscardDraftHandler) Execute(ctx context.Context, msg DiscardDraftCommand) error {
	return h.inner.Execute(ctx, msg)
}

func discardDraft(ctx context.Context, h *engine.Handlers, layoutID int64) error {
	exists, err := h.Layouts.LayoutExists(ctx, layoutID, domain.StatusDraft)
	if err != nil {
		return err
	}
	if !exists {
		return persistence.NewNotFound("layout", layoutID)
	}
	published, err := h.Layouts.LoadLayout(ctx, layoutID, domain.StatusPublished)
	if persistence.IsNotFound(err) {
		return persistence.NewBadState("layout", "Layout has no published version to discard the draft to.")
	}
	if err != nil {
		return err
	}
	return replaceDraft(ctx, h, published)
}

// RestoreLayoutHandler replaces layout drafts with an archived or published copy.
type RestoreLayoutHandler struct {
	inner *commands.Handler[RestoreLayoutCommand]
}

// NewRestoreLayoutHandler constructs a handler running in transactions of tx.
func NewRestoreLayoutHandler(tx Transactor, logger interfaces.Logger, opts ...commands.HandlerOption[RestoreLayoutCommand]) *RestoreLayoutHandler {
	exec := func(ctx context.Context, msg RestoreLayoutCommand) error {
		return tx.Transaction(ctx, func(ctx context.Context, h *engine.Handlers) error {
			source, err := h.Layouts.LoadLayout(ctx, msg.LayoutID, msg.source())
			if err != nil {
				return err
			}
			return replaceDraft(ctx, h, source)
		})
	}
	return &RestoreLayoutHandler{
		inner: commands.NewHandler(exec, handlerOptions(commands.EnsureLogger(logger), "layouts.restore", opts)...),
	}
}

// Execute satisfies command.Commander[RestoreLayoutCommand].
func (h *RestoreLayoutHandler) Execute(ctx context.Context, msg RestoreLayoutCommand) error {
	return h.inner.Execute(ctx, msg)
}

func replaceDraft(ctx context.Context, h *engine.Handlers, source *layouts.Layout) error {
	status := domain.StatusDraft
	if err := h.Layouts.DeleteLayout(ctx, source.ID, &status); err != nil {
		return err
	}
	_, err := h.Layouts.CreateLayoutStatus(ctx, source, domain.StatusDraft)
	return err
}
