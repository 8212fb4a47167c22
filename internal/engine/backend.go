package engine

import (
	"context"

	"github.com/goliatone/go-layouts/internal/blocks"
	"github.com/goliatone/go-layouts/internal/collections"
	"github.com/goliatone/go-layouts/internal/layouts"
)

// Session is one open transaction. Its gateways read and write through the
// transaction until Commit or Rollback is called.
type Session interface {
	Blocks() blocks.Gateway
	Layouts() layouts.Gateway
	Collections() collections.Gateway
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Backend opens transactions against a storage provider.
type Backend interface {
	Begin(ctx context.Context) (Session, error)
}
