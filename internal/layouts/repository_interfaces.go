package layouts

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-layouts/internal/domain"
)

// Gateway persists layout and zone rows within one transaction.
type Gateway interface {
	NextLayoutID(ctx context.Context) (int64, error)
	LoadLayout(ctx context.Context, id int64, status domain.Status) (*Layout, error)
	// LoadLayouts returns layouts ordered by name. See ListQuery.
	LoadLayouts(ctx context.Context, query ListQuery) ([]*Layout, error)
	// LoadRelatedLayouts returns the layouts in status with a zone linked to
	// the shared layout identified by sharedUUID.
	LoadRelatedLayouts(ctx context.Context, sharedUUID uuid.UUID, status domain.Status) ([]*Layout, error)
	LoadLayoutsOfType(ctx context.Context, layoutType string, status domain.Status) ([]*Layout, error)
	LayoutExists(ctx context.Context, id int64, status domain.Status) (bool, error)
	// LayoutNameExists checks every status. excludeID skips one layout.
	LayoutNameExists(ctx context.Context, name string, excludeID *int64) (bool, error)
	InsertLayout(ctx context.Context, layout *Layout) error
	UpdateLayout(ctx context.Context, layout *Layout) error
	DeleteLayout(ctx context.Context, id int64, status domain.Status) error

	LoadZone(ctx context.Context, layoutID int64, status domain.Status, identifier string) (*Zone, error)
	// LoadZones returns the zones of a layout ordered by identifier.
	LoadZones(ctx context.Context, layoutID int64, status domain.Status) ([]*Zone, error)
	ZoneExists(ctx context.Context, layoutID int64, status domain.Status, identifier string) (bool, error)
	InsertZone(ctx context.Context, zone *Zone) error
	UpdateZone(ctx context.Context, zone *Zone) error
	DeleteZones(ctx context.Context, layoutID int64, status domain.Status) error
}
