package layoutscmd

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-layouts/internal/domain"
)

const (
	publishLayoutMessageType = "layouts.layout.publish"
	archiveLayoutMessageType = "layouts.layout.archive"
	discardDraftMessageType  = "layouts.layout.discard_draft"
	restoreLayoutMessageType = "layouts.layout.restore"
)

// PublishLayoutCommand replaces the published layout with a copy of its draft.
// With ArchivePrevious the replaced publication is kept as the archived copy.
type PublishLayoutCommand struct {
	LayoutID        int64 `json:"layout_id"`
	ArchivePrevious bool  `json:"archive_previous,omitempty"`
}

// Type implements command.Message.
func (PublishLayoutCommand) Type() string { return publishLayoutMessageType }

// Validate implements command.Message.
func (m PublishLayoutCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.LayoutID, validation.Required, validation.Min(int64(1))),
	)
}

// ArchiveLayoutCommand copies the published layout into the archived status,
// replacing the previous archive.
type ArchiveLayoutCommand struct {
	LayoutID int64 `json:"layout_id"`
}

// Type implements command.Message.
func (ArchiveLayoutCommand) Type() string { return archiveLayoutMessageType }

// Validate implements command.Message.
func (m ArchiveLayoutCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.LayoutID, validation.Required, validation.Min(int64(1))),
	)
}

// DiscardDraftCommand drops the draft and recreates it from the published layout.
type DiscardDraftCommand struct {
	LayoutID int64 `json:"layout_id"`
}

// Type implements command.Message.
func (DiscardDraftCommand) Type() string { return discardDraftMessageType }

// Validate implements command.Message.
func (m DiscardDraftCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.LayoutID, validation.Required, validation.Min(int64(1))),
	)
}

// RestoreLayoutCommand replaces the draft with a copy of the layout in
// FromStatus, archived when empty.
type RestoreLayoutCommand struct {
	LayoutID   int64         `json:"layout_id"`
	FromStatus domain.Status `json:"from_status,omitempty"`
}

// Type implements command.Message.
func (RestoreLayoutCommand) Type() string { return restoreLayoutMessageType }

// Validate implements command.Message.
func (m RestoreLayoutCommand) Validate() error {
	errs := validation.Errors{}
	if m.LayoutID <= 0 {
		errs["layout_id"] = validation.NewError("layouts.layout.restore.layout_id_required", "layout_id is required")
	}
	switch m.FromStatus {
	case "", domain.StatusArchived, domain.StatusPublished:
	default:
		errs["from_status"] = validation.NewError("layouts.layout.restore.from_status_invalid", "from_status must be archived or published")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (m RestoreLayoutCommand) source() domain.Status {
	if m.FromStatus == "" {
		return domain.StatusArchived
	}
	return m.FromStatus
}
