package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-layouts/internal/blocks"
	"github.com/goliatone/go-layouts/internal/collections"
	"github.com/goliatone/go-layouts/internal/layouts"
)

// BunBackend runs every transaction as a bun.Tx.
type BunBackend struct {
	db   *bun.DB
	opts *sql.TxOptions
}

// NewBunBackend creates a backend over db using the default isolation level.
func NewBunBackend(db *bun.DB) *BunBackend {
	return &BunBackend{db: db}
}

// WithTxOptions returns a copy of the backend that begins transactions with opts.
func (b *BunBackend) WithTxOptions(opts *sql.TxOptions) *BunBackend {
	return &BunBackend{db: b.db, opts: opts}
}

// DB returns the underlying connection.
func (b *BunBackend) DB() *bun.DB {
	return b.db
}

func (b *BunBackend) Begin(ctx context.Context) (Session, error) {
	tx, err := b.db.BeginTx(ctx, b.opts)
	if err != nil {
		return nil, fmt.Errorf("engine: begin transaction: %w", err)
	}
	session := &bunSession{tx: &tx}
	session.blocks = blocks.NewBunGateway(session.tx)
	session.layouts = layouts.NewBunGateway(session.tx)
	session.collections = collections.NewBunGateway(session.tx)
	return session, nil
}

type bunSession struct {
	tx          *bun.Tx
	blocks      *blocks.BunGateway
	layouts     *layouts.BunGateway
	collections *collections.BunGateway
}

func (s *bunSession) Blocks() blocks.Gateway           { return s.blocks }
func (s *bunSession) Layouts() layouts.Gateway         { return s.layouts }
func (s *bunSession) Collections() collections.Gateway { return s.collections }

func (s *bunSession) Commit(context.Context) error {
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("engine: commit: %w", err)
	}
	return nil
}

func (s *bunSession) Rollback(context.Context) error {
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("engine: rollback: %w", err)
	}
	return nil
}
