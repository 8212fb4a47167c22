package layoutscmd

import (
	"time"

	"github.com/goliatone/go-command/dispatcher"

	"github.com/goliatone/go-layouts/internal/commands"
	"github.com/goliatone/go-layouts/pkg/interfaces"
)

// HandlerSet groups the layout status commands.
type HandlerSet struct {
	Publish *PublishLayoutHandler
	Archive *ArchiveLayoutHandler
	Discard *DiscardDraftHandler
	Restore *RestoreLayoutHandler
}

// NewHandlerSet builds every layout command handler. A zero timeout keeps
// the default command timeout.
func NewHandlerSet(tx Transactor, logger interfaces.Logger, timeout time.Duration) *HandlerSet {
	if timeout <= 0 {
		timeout = commands.DefaultCommandTimeout
	}
	return &HandlerSet{
		Publish: NewPublishLayoutHandler(tx, logger, commands.WithTimeout[PublishLayoutCommand](timeout)),
		Archive: NewArchiveLayoutHandler(tx, logger, commands.WithTimeout[ArchiveLayoutCommand](timeout)),
		Discard: NewDiscardDraftHandler(tx, logger, commands.WithTimeout[DiscardDraftCommand](timeout)),
		Restore: NewRestoreLayoutHandler(tx, logger, commands.WithTimeout[RestoreLayoutCommand](timeout)),
	}
}

// Subscribe registers the handlers with the go-command dispatcher and
// returns a function that removes them again.
func (s *HandlerSet) Subscribe() func() {
	publish := dispatcher.SubscribeCommand[PublishLayoutCommand](s.Publish)
	archive := dispatcher.SubscribeCommand[ArchiveLayoutCommand](s.Archive)
	discard := dispatcher.SubscribeCommand[DiscardDraftCommand](s.Discard)
	restore := dispatcher.SubscribeCommand[RestoreLayoutCommand](s.Restore)
	return func() {
		publish.Unsubscribe()
		archive.Unsubscribe()
		discard.Unsubscribe()
		restore.Unsubscribe()
	}
}

// CommandRegistry receives command handlers from hosts that keep their own
// dispatch table.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Register hands every handler to registry, stopping at the first failure.
func (s *HandlerSet) Register(registry CommandRegistry) error {
	if registry == nil {
		return nil
	}
	for _, handler := range []any{s.Publish, s.Archive, s.Discard, s.Restore} {
		if err := registry.RegisterCommand(handler); err != nil {
			return err
		}
	}
	return nil
}
